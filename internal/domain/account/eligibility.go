package account

import "time"

// DenialReason identifies which rolling window blocks a withdrawal
type DenialReason string

const (
	DenialGeneralCooldown        DenialReason = "GENERAL_COOLDOWN"
	DenialVerifiedDepositLockout DenialReason = "VERIFIED_DEPOSIT_LOCKOUT"
)

// Gate evaluates withdrawal eligibility from stored timestamps and the
// current time. It holds only the configured window durations, so the same
// answer is reproduced after a process restart or a state reload.
type Gate struct {
	Cooldown time.Duration // General post-withdrawal cooldown
	Lockout  time.Duration // Post-verified-deposit lockout
}

// Decision is the gate's verdict. When denied, Reason names the binding
// constraint and Remaining is its time left.
type Decision struct {
	Allowed   bool
	Reason    DenialReason
	Remaining time.Duration
}

// RemainingSeconds rounds the remaining window up to whole seconds for
// caller-facing countdowns.
func (d Decision) RemainingSeconds() int64 {
	if d.Remaining <= 0 {
		return 0
	}
	return int64((d.Remaining + time.Second - 1) / time.Second)
}

// Evaluate checks both rolling windows against now. When both are active the
// one with the larger remaining time wins, so callers surface the true
// blocking condition.
func (g Gate) Evaluate(acc *Account, now time.Time) Decision {
	decision := Decision{Allowed: true}

	if acc.LastWithdrawalAt != nil {
		if remaining := g.Cooldown - now.Sub(*acc.LastWithdrawalAt); remaining > 0 {
			decision = Decision{Reason: DenialGeneralCooldown, Remaining: remaining}
		}
	}

	if acc.LastVerifiedDepositAt != nil {
		if remaining := g.Lockout - now.Sub(*acc.LastVerifiedDepositAt); remaining > 0 && remaining > decision.Remaining {
			decision = Decision{Reason: DenialVerifiedDepositLockout, Remaining: remaining}
		}
	}

	return decision
}
