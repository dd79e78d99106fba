package redemption

import (
	"database/sql"
	"time"
)

// CreditUsage is an immutable record of a redemption. Reversal flips
// active 1→0; the spend itself already debited the balance.
type CreditUsage struct {
	ID           int64         `db:"id" json:"id"`
	SubscriberID sql.NullInt64 `db:"subscriber_id" json:"subscriber_id,omitempty"`
	Mobile       string        `db:"mobile" json:"mobile"`
	Amount       float64       `db:"amount" json:"amount"`
	AdminMobile  string        `db:"admin_mobile" json:"admin_mobile"`
	Active       int16         `db:"active" json:"active"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}
