package discount

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Service resolves discount codes. Unknown or inactive codes are never an
// error: they are simply not valid and are worth zero percent.
type Service struct {
	repo Repository
}

// NewService creates a discount Service backed by the given Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every stored code keyed by code.
func (s *Service) List(ctx context.Context) (map[string]Discount, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list discounts")
	}
	return all, nil
}

// IsValid reports whether code exists and is active.
func (s *Service) IsValid(ctx context.Context, code string) (bool, error) {
	d, ok, err := s.repo.Get(ctx, code)
	if err != nil {
		return false, errors.Wrap(err, "get discount")
	}
	return ok && d.Active, nil
}

// Percentage returns the stored percentage for an active code and 0 otherwise.
func (s *Service) Percentage(ctx context.Context, code string) (int, error) {
	d, ok, err := s.repo.Get(ctx, code)
	if err != nil {
		return 0, errors.Wrap(err, "get discount")
	}
	if !ok || !d.Active {
		return 0, nil
	}
	return d.Percentage, nil
}

// SetActive toggles a code. It reports false when the code does not exist.
func (s *Service) SetActive(ctx context.Context, code string, active bool) (bool, error) {
	ok, err := s.repo.SetActive(ctx, code, active)
	if err != nil {
		return false, errors.Wrapf(err, "set discount %q active", code)
	}
	return ok, nil
}

// Create stores a new active code, replacing any code with the same name.
func (s *Service) Create(ctx context.Context, code string, percentage int) (Discount, error) {
	if percentage < 0 || percentage > 100 {
		return Discount{}, ErrInvalidPercentage
	}
	d := Discount{Code: code, Percentage: percentage, Active: true}
	if err := s.repo.Put(ctx, d); err != nil {
		return Discount{}, errors.Wrapf(err, "create discount %q", code)
	}
	return d, nil
}

// Amount returns the money taken off subtotal by code, rounded to cents.
// An empty, unknown or inactive code yields zero.
func (s *Service) Amount(ctx context.Context, subtotal decimal.Decimal, code string) (decimal.Decimal, error) {
	if code == "" {
		return decimal.Zero, nil
	}
	pct, err := s.Percentage(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return PercentOf(subtotal, pct), nil
}

// PercentOf returns pct percent of amount rounded to 2 decimal places.
func PercentOf(amount decimal.Decimal, pct int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(pct))).Div(hundred).Round(2)
}
