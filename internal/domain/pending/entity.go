package pending

import (
	"database/sql"
	"time"
)

// PendingCredit is credit earned from a purchase, held until the
// maturity window elapses. A row transitions transferred 0→1 exactly
// once, atomically with the matching balance increment.
type PendingCredit struct {
	ID            int64         `db:"id" json:"id"`
	SubscriberID  int64         `db:"subscriber_id" json:"subscriber_id"`
	Mobile        string        `db:"mobile" json:"mobile"`
	PurchaseID    sql.NullInt64 `db:"purchase_id" json:"purchase_id,omitempty"`
	CreditAmount  float64       `db:"credit_amount" json:"credit_amount"`
	BranchID      sql.NullInt64 `db:"branch_id" json:"branch_id,omitempty"`
	SalesCenterID sql.NullInt64 `db:"sales_center_id" json:"sales_center_id,omitempty"`
	AdminMobile   string        `db:"admin_mobile" json:"admin_mobile"`
	Active        int16         `db:"active" json:"active"`
	Transferred   int16         `db:"transferred" json:"transferred"`
	TransferredAt sql.NullTime  `db:"transferred_at" json:"transferred_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// CreateParams describes a new pending entry.
type CreateParams struct {
	SubscriberID  int64
	Mobile        string
	PurchaseID    *int64
	CreditAmount  float64
	BranchID      *int
	SalesCenterID *int
	AdminMobile   string
}

// SettledEntry itemizes one settled row for logging.
type SettledEntry struct {
	PendingID    int64   `json:"pending_id"`
	SubscriberID int64   `json:"subscriber_id"`
	Mobile       string  `json:"mobile"`
	Amount       float64 `json:"amount"`
}

// Result summarizes a settlement pass.
type Result struct {
	Count   int            `json:"count"`
	Amount  float64        `json:"amount"`
	Details []SettledEntry `json:"details"`
}

// Outstanding sums unsettled pending credit.
type Outstanding struct {
	Total   float64         `json:"total"`
	Entries []PendingCredit `json:"entries"`
}

// Balance combines spendable and pending credit, each also expressed
// in currency units via the fixed point value.
type Balance struct {
	Available         float64 `json:"available"`
	Pending           float64 `json:"pending"`
	Total             float64 `json:"total"`
	AvailableCurrency int64   `json:"available_currency"`
	PendingCurrency   int64   `json:"pending_currency"`
	TotalCurrency     int64   `json:"total_currency"`
}
