package admin

import (
	"database/sql"
	"time"
)

// Admin is a staff account: a branch manager or a seller. Sellers
// record sales at a branch; managers additionally reverse any
// transaction and manage accounts.
type Admin struct {
	ID           int64         `db:"id" json:"id"`
	Mobile       string        `db:"mobile" json:"mobile"`
	Name         string        `db:"name" json:"name"`
	PasswordHash string        `db:"password_hash" json:"-"`
	Role         string        `db:"role" json:"role"`
	BranchID     sql.NullInt64 `db:"branch_id" json:"branch_id,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

const (
	RoleManager = "manager"
	RoleSeller  = "seller"
)

// LoginRequest is the credentials payload for staff login.
type LoginRequest struct {
	Mobile   string `json:"mobile" validate:"required,mobile"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResponse carries the session token and the authenticated admin.
type LoginResponse struct {
	Token string `json:"token"`
	Admin *Admin `json:"admin"`
}

// CreateRequest registers a new staff account. Manager only.
type CreateRequest struct {
	Mobile   string `json:"mobile" validate:"required,mobile"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,role"`
	BranchID *int64 `json:"branch_id,omitempty"`
}
