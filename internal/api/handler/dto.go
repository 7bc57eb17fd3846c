package handler

// CreateBusinessRequest represents a request to onboard a merchant
type CreateBusinessRequest struct {
	Name                string `json:"name" binding:"required"`
	Email               string `json:"email" binding:"required,email"`
	SettlementDelayDays *int   `json:"settlement_delay_days,omitempty" binding:"omitempty,min=0"`
	PayoutDestination   string `json:"payout_destination,omitempty" binding:"omitempty,oneof=BANK_ACCOUNT WALLET"`
	BankCode            string `json:"bank_code,omitempty"`
	AccountNo           string `json:"account_no,omitempty"`
	AccountName         string `json:"account_name,omitempty"`

	// Fee overrides; zero values fall back to the platform defaults.
	// Percentages travel as decimal strings.
	FeePercent string `json:"fee_percent,omitempty"`
	FeeFixed   int64  `json:"fee_fixed,omitempty" binding:"omitempty,min=0"`
	FeeCap     int64  `json:"fee_cap,omitempty" binding:"omitempty,min=0"`
	VATPercent string `json:"vat_percent,omitempty"`
}

// BusinessResponse represents a business in API responses
type BusinessResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	SettlementDelayDays int    `json:"settlement_delay_days"`
	PayoutDestination   string `json:"payout_destination"`
	BankCode            string `json:"bank_code,omitempty"`
	AccountNo           string `json:"account_no,omitempty"`
	AccountName         string `json:"account_name,omitempty"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

// SubaccountRequest represents one split entry on a payment link
type SubaccountRequest struct {
	Code        string `json:"code" binding:"required"`
	BankCode    string `json:"bank_code" binding:"required"`
	AccountNo   string `json:"account_no" binding:"required"`
	AccountName string `json:"account_name,omitempty"`
	SplitType   string `json:"split_type" binding:"required,oneof=PERCENTAGE FLAT"`
	SplitValue  string `json:"split_value" binding:"required"`
}

// CreatePaymentLinkRequest represents a request to create a payment link
type CreatePaymentLinkRequest struct {
	Name        string              `json:"name" binding:"required"`
	Currency    string              `json:"currency" binding:"required,len=3"`
	Subaccounts []SubaccountRequest `json:"subaccounts,omitempty" binding:"omitempty,dive"`
}

// PaymentLinkResponse represents a payment link in API responses
type PaymentLinkResponse struct {
	ID          string               `json:"id"`
	BusinessID  string               `json:"business_id"`
	Name        string               `json:"name"`
	Currency    string               `json:"currency"`
	Subaccounts []SubaccountResponse `json:"subaccounts,omitempty"`
	CreatedAt   string               `json:"created_at"`
}

// SubaccountResponse represents a subaccount in API responses
type SubaccountResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	BankCode    string `json:"bank_code"`
	AccountNo   string `json:"account_no"`
	AccountName string `json:"account_name,omitempty"`
	SplitType   string `json:"split_type"`
	SplitValue  string `json:"split_value"`
}

// ReportCollectionRequest represents a successful payment-link collection
// reported into the settlement pipeline
type ReportCollectionRequest struct {
	BusinessID    string `json:"business_id" binding:"required,uuid"`
	PaymentLinkID string `json:"payment_link_id" binding:"required"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Currency      string `json:"currency" binding:"required,len=3"`
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	Reference        string `json:"reference"`
	Type             string `json:"type"`
	Feature          string `json:"feature"`
	Amount           int64  `json:"amount"`
	Fee              int64  `json:"fee"`
	VATFee           int64  `json:"vat_fee"`
	Revenue          int64  `json:"revenue"`
	SettleAmount     int64  `json:"settle_amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	SettlementStatus string `json:"settlement_status"`
	BusinessID       string `json:"business_id"`
	SubaccountID     string `json:"subaccount_id,omitempty"`
	BatchCode        string `json:"batch_code,omitempty"`
	PaymentLinkID    string `json:"payment_link_id,omitempty"`
	ProviderRef      string `json:"provider_ref,omitempty"`
	FailureReason    string `json:"failure_reason,omitempty"`
	SettledAt        string `json:"settled_at,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// RunSettlementRequest represents a request to trigger a settlement run
type RunSettlementRequest struct {
	Mode        string `json:"mode" binding:"required,oneof=BULK SINGLE"`
	BusinessID  string `json:"business_id,omitempty" binding:"omitempty,uuid"`
	BatchCode   string `json:"batch_code,omitempty"`
	Force       bool   `json:"force,omitempty"`
	IncludePast bool   `json:"include_past,omitempty"`
}

// BatchOverviewResponse aggregates a batch's pending position
type BatchOverviewResponse struct {
	Amount     int64 `json:"amount"`
	Businesses int   `json:"businesses"`
	DueToday   int64 `json:"due_today"`
	PastDue    int64 `json:"past_due"`
	Fees       int64 `json:"fees"`
	VAT        int64 `json:"vat"`
	Revenue    int64 `json:"revenue"`
}

// BatchResponse represents a settlement batch in API responses
type BatchResponse struct {
	Code         string                `json:"code"`
	Status       string                `json:"status"`
	IsRunning    bool                  `json:"is_running"`
	IsSettled    bool                  `json:"is_settled"`
	TotalAmount  int64                 `json:"total_amount"`
	Transactions int                   `json:"transactions"`
	Overview     BatchOverviewResponse `json:"overview"`
	SettledAt    string                `json:"settled_at,omitempty"`
	CreatedAt    string                `json:"created_at"`
	UpdatedAt    string                `json:"updated_at"`
}

// BatchAnalyticsResponse represents a batch's settled position and run audit
type BatchAnalyticsResponse struct {
	Code               string                `json:"code"`
	SettledAmount      int64                 `json:"settled_amount"`
	SharedAmount       int64                 `json:"shared_amount"`
	SettledBusinesses  []string              `json:"settled_businesses"`
	SettledSubaccounts []string              `json:"settled_subaccounts"`
	Runs               []RunSnapshotResponse `json:"runs"`
	PayoutSchedule     map[string]string     `json:"payout_schedule,omitempty"`
	Overview           BatchOverviewResponse `json:"overview"`
}

// RunSnapshotResponse represents one run's audit snapshot
type RunSnapshotResponse struct {
	At                string `json:"at"`
	Status            string `json:"status"`
	SettledAmount     int64  `json:"settled_amount"`
	BusinessesPending int    `json:"businesses_pending"`
}

// WalletResponse represents a wallet's bucket balances in API responses
type WalletResponse struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Currency   string `json:"currency"`

	Available  int64 `json:"available"`
	Locked     int64 `json:"locked"`
	Settlement int64 `json:"settlement"`
	Ledger     int64 `json:"ledger"`
	TotalHeld  int64 `json:"total_held"`

	InflowCount     int64 `json:"inflow_count"`
	InflowValue     int64 `json:"inflow_value"`
	OutflowCount    int64 `json:"outflow_count"`
	OutflowValue    int64 `json:"outflow_value"`
	WithdrawalCount int64 `json:"withdrawal_count"`
	WithdrawalValue int64 `json:"withdrawal_value"`
	ReversalCount   int64 `json:"reversal_count"`
	ReversalValue   int64 `json:"reversal_value"`

	UpdatedAt string `json:"updated_at"`
}

// WithdrawRequest represents a request to pay available wallet funds out
// to a bank account
type WithdrawRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	BankCode    string `json:"bank_code" binding:"required"`
	AccountNo   string `json:"account_no" binding:"required"`
	AccountName string `json:"account_name,omitempty"`
	Narration   string `json:"narration,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}
