package user

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when no user has the requested username.
	ErrNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned when a username/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAdmin is returned by admin-only accessors on a standard user.
	ErrNotAdmin = errors.New("user is not an admin")
	// ErrInvalidAdminLevel is returned for admin levels below 1.
	ErrInvalidAdminLevel = errors.New("admin level must be at least 1")
)

// Role distinguishes standard customers from administrators.
type Role string

const (
	RoleStandard Role = "Standard"
	RoleAdmin    Role = "Admin"
)

// AdminProfile is the payload carried only by admin users.
type AdminProfile struct {
	Level     int       `json:"admin_level"`
	LastLogin time.Time `json:"last_login"`
}

// User is a registered account. Username is the unique key.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	PasswordSalt string    `json:"password_salt"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
	Role         Role      `json:"role"`

	// PurchaseHistory holds order IDs in purchase order. Append only.
	PurchaseHistory []string `json:"purchase_history"`

	Admin *AdminProfile `json:"admin,omitempty"`
}

// IsAdmin reports whether u has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin && u.Admin != nil
}

// AdminLevel returns the admin level, or ErrNotAdmin for standard users.
func (u *User) AdminLevel() (int, error) {
	if !u.IsAdmin() {
		return 0, ErrNotAdmin
	}
	return u.Admin.Level, nil
}

// LastLogin returns the last admin login time, or ErrNotAdmin for standard users.
func (u *User) LastLogin() (time.Time, error) {
	if !u.IsAdmin() {
		return time.Time{}, ErrNotAdmin
	}
	return u.Admin.LastLogin, nil
}

// AddPurchase appends orderID to the purchase history. It reports false,
// leaving the history as is, when orderID is already recorded.
func (u *User) AddPurchase(orderID string) bool {
	if slices.Contains(u.PurchaseHistory, orderID) {
		return false
	}
	u.PurchaseHistory = append(u.PurchaseHistory, orderID)
	return true
}

// Purchases returns a copy of the purchase history.
func (u *User) Purchases() []string {
	return append([]string(nil), u.PurchaseHistory...)
}

// Repository defines persistence operations for users keyed by username.
type Repository interface {
	// Create stores u unless its username is taken, in which case it
	// returns ErrUsernameTaken. The check and the write are one step.
	Create(ctx context.Context, u *User) error
	// Modify applies fn to the stored user and saves the result in one
	// step. It returns ErrNotFound for an unknown username; an error from
	// fn aborts the write.
	Modify(ctx context.Context, username string, fn func(u *User) error) (*User, error)
	Put(ctx context.Context, u *User) error
	Get(ctx context.Context, username string) (*User, bool, error)
	Delete(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) (map[string]*User, error)
}
