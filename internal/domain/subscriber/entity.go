package subscriber

import (
	"database/sql"
	"time"
)

// Subscriber is a registered loyalty-program customer. The credit
// balance is only ever changed through additive and subtractive
// statements under a row lock, never overwritten from a stale read.
type Subscriber struct {
	ID        int64         `db:"id" json:"id"`
	Mobile    string        `db:"mobile" json:"mobile"`
	Name      string        `db:"name" json:"name"`
	Credit    float64       `db:"credit" json:"credit"`
	Verified  bool          `db:"verified" json:"verified"`
	BranchID  sql.NullInt64 `db:"branch_id" json:"branch_id,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}
