package growth

import (
	"time"

	"github.com/google/uuid"
)

// Entry is the immutable audit record of one growth accrual application.
// The most recent entry's AppliedAt anchors the next accrual window, so the
// schedule survives restarts and missed invocations without drifting.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	AccountID  uuid.UUID `json:"account_id"`
	OldBalance int64     `json:"old_balance"`
	NewBalance int64     `json:"new_balance"`
	Rate       float64   `json:"rate"`
	AppliedAt  time.Time `json:"applied_at"`
}

// NewEntry records a single accrual step
func NewEntry(accountID uuid.UUID, oldBalance, newBalance int64, rate float64, appliedAt time.Time) *Entry {
	return &Entry{
		ID:         uuid.New(),
		AccountID:  accountID,
		OldBalance: oldBalance,
		NewBalance: newBalance,
		Rate:       rate,
		AppliedAt:  appliedAt,
	}
}
