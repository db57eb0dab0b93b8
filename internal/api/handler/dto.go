package handler

// CreateAccountRequest represents a request to open a new account
type CreateAccountRequest struct {
	OwnerName string `json:"owner_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID                    string `json:"id"`
	OwnerName             string `json:"owner_name"`
	Email                 string `json:"email"`
	Balance               int64  `json:"balance"`
	WithdrawableProfit    int64  `json:"withdrawable_profit"`
	LastVerifiedDepositAt string `json:"last_verified_deposit_at,omitempty"`
	LastWithdrawalAt      string `json:"last_withdrawal_at,omitempty"`
	CreatedAt             string `json:"created_at"`
	UpdatedAt             string `json:"updated_at"`
}

// CreateDepositRequest opens a pending deposit awaiting proof confirmation
type CreateDepositRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
}

// ConfirmDepositRequest carries the payment proof for a pending deposit
type ConfirmDepositRequest struct {
	ImageData   string `json:"image_data" binding:"required"` // Base64-encoded proof image
	ContentType string `json:"content_type" binding:"required"`
}

// CreateWithdrawalRequest requests an immediate withdrawal of accrued profit
type CreateWithdrawalRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID              string `json:"id"`
	AccountID       string `json:"account_id"`
	Kind            string `json:"kind"`
	Amount          int64  `json:"amount"`
	Status          string `json:"status"`
	ReferenceToken  string `json:"reference_token,omitempty"`
	WindowRemaining int64  `json:"window_remaining_seconds,omitempty"` // Only set while pending
	CreatedAt       string `json:"created_at"`
	StatusChangedAt string `json:"status_changed_at"`
}

// EligibilityResponse reports the withdrawal gate verdict
type EligibilityResponse struct {
	Allowed          bool   `json:"allowed"`
	Reason           string `json:"reason,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
}

// GrowthEntryResponse represents one accrual step in API responses
type GrowthEntryResponse struct {
	ID         string  `json:"id"`
	OldBalance int64   `json:"old_balance"`
	NewBalance int64   `json:"new_balance"`
	Rate       float64 `json:"rate"`
	AppliedAt  string  `json:"applied_at"`
}

// GrowthStatusResponse reports the accrual schedule for an account
type GrowthStatusResponse struct {
	AccountID        string                `json:"account_id"`
	CurrentBalance   int64                 `json:"current_balance"`
	Rate             float64               `json:"rate"`
	NextGrowthTime   string                `json:"next_growth_time"`
	SecondsUntilNext int64                 `json:"seconds_until_next"`
	CanApplyGrowth   bool                  `json:"can_apply_growth"`
	RecentGrowth     []GrowthEntryResponse `json:"recent_growth"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
