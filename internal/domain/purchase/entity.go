package purchase

import (
	"database/sql"
	"math"
	"time"
)

// Purchase is an immutable record of a sale. Reversal flips active 1→0,
// never back; rows are never physically deleted.
type Purchase struct {
	ID            int64         `db:"id" json:"id"`
	SubscriberID  sql.NullInt64 `db:"subscriber_id" json:"subscriber_id,omitempty"`
	Mobile        string        `db:"mobile" json:"mobile"`
	Amount        int64         `db:"amount" json:"amount"`
	BranchID      sql.NullInt64 `db:"branch_id" json:"branch_id,omitempty"`
	SalesCenterID sql.NullInt64 `db:"sales_center_id" json:"sales_center_id,omitempty"`
	AdminMobile   string        `db:"admin_mobile" json:"admin_mobile"`
	Active        int16         `db:"active" json:"active"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// CreditValue derives the credit a purchase amount earns: one decimal
// place, policy divisor. Reversal compensation uses the same formula.
func CreditValue(amount, divisor int64) float64 {
	return math.Round(float64(amount)/float64(divisor)*10) / 10
}
