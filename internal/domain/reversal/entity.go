package reversal

import "time"

// Kind names the reversible transaction types.
type Kind string

const (
	KindPurchase    Kind = "purchase"
	KindCreditUsage Kind = "credit_usage"
)

// TransactionInfo is the slice of a transaction the permission check
// needs.
type TransactionInfo struct {
	Kind        Kind
	ID          int64
	AdminMobile string
	Amount      float64
	CreatedAt   time.Time
}

// Decision is the outcome of a permission check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Denial reasons.
const (
	ReasonNotOwner    = "not_owner"
	ReasonTimeExpired = "time_expired"
)

// AuditEvent describes a denied reversal attempt for the notification
// sink.
type AuditEvent struct {
	ActorMobile     string
	Kind            Kind
	TransactionID   int64
	Amount          float64
	TransactionDate time.Time
	Reason          string
}
