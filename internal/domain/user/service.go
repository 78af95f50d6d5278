package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Username string
	Password string
	Name     string
	Email    string
	Phone    string
}

// Service manages user accounts.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a user Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register creates a standard user. The password is stored as an Argon2id
// hash, never as given.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	return s.register(ctx, req, RoleStandard, nil)
}

// RegisterAdmin creates an admin user with the given level.
func (s *Service) RegisterAdmin(ctx context.Context, req RegisterRequest, level int) (*User, error) {
	if level < 1 {
		return nil, ErrInvalidAdminLevel
	}
	return s.register(ctx, req, RoleAdmin, &AdminProfile{Level: level, LastLogin: s.now()})
}

func (s *Service) register(ctx context.Context, req RegisterRequest, role Role, admin *AdminProfile) (*User, error) {
	hash, salt, err := hashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		Username:        req.Username,
		PasswordHash:    hash,
		PasswordSalt:    salt,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		CreatedAt:       s.now(),
		Role:            role,
		PurchaseHistory: []string{},
		Admin:           admin,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, errors.Wrap(err, "store user")
	}

	zctx.From(ctx).Info("User registered",
		zap.String("username", u.Username),
		zap.String("role", string(u.Role)),
	)
	return u, nil
}

// Authenticate checks the password for username. Admin logins refresh
// LastLogin.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, ok, err := s.repo.Get(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "lookup user")
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	match, err := verifyPassword(password, u.PasswordHash, u.PasswordSalt)
	if err != nil {
		return nil, errors.Wrap(err, "verify password")
	}
	if !match {
		return nil, ErrInvalidCredentials
	}

	if !u.IsAdmin() {
		return u, nil
	}
	u, err = s.repo.Modify(ctx, username, func(u *User) error {
		if u.IsAdmin() {
			u.Admin.LastLogin = s.now()
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "store last login")
	}
	return u, nil
}

// PromoteToAdmin gives an existing user the admin role.
func (s *Service) PromoteToAdmin(ctx context.Context, username string, level int) (*User, error) {
	if level < 1 {
		return nil, ErrInvalidAdminLevel
	}
	u, err := s.repo.Modify(ctx, username, func(u *User) error {
		u.Role = RoleAdmin
		u.Admin = &AdminProfile{Level: level, LastLogin: s.now()}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "promote user %q", username)
	}
	return u, nil
}

// AddPurchase appends orderID to the user's purchase history and stores it.
// An order ID already in the history is not added twice.
func (s *Service) AddPurchase(ctx context.Context, username, orderID string) error {
	_, err := s.repo.Modify(ctx, username, func(u *User) error {
		u.AddPurchase(orderID)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "add purchase for %q", username)
	}
	return nil
}

// Get returns the user with username and whether it exists.
func (s *Service) Get(ctx context.Context, username string) (*User, bool, error) {
	u, ok, err := s.repo.Get(ctx, username)
	if err != nil {
		return nil, false, errors.Wrapf(err, "get user %q", username)
	}
	return u, ok, nil
}

// Update overwrites the stored record for u.Username.
func (s *Service) Update(ctx context.Context, u *User) error {
	if err := s.repo.Put(ctx, u); err != nil {
		return errors.Wrapf(err, "update user %q", u.Username)
	}
	return nil
}

// Delete removes a user and reports whether it existed.
func (s *Service) Delete(ctx context.Context, username string) (bool, error) {
	ok, err := s.repo.Delete(ctx, username)
	if err != nil {
		return false, errors.Wrapf(err, "delete user %q", username)
	}
	return ok, nil
}

// List returns every user keyed by username.
func (s *Service) List(ctx context.Context) (map[string]*User, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return all, nil
}
