package discount

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrInvalidPercentage is returned when a discount percentage is outside 0..100.
var ErrInvalidPercentage = errors.New("discount percentage must be between 0 and 100")

// Discount is a percentage-off code that can be switched on and off.
type Discount struct {
	Code       string `json:"code"`
	Percentage int    `json:"percentage"`
	Active     bool   `json:"active"`
}

// Defaults returns the codes seeded into a fresh discounts collection.
func Defaults() map[string]Discount {
	return map[string]Discount{
		"WELCOME10": {Code: "WELCOME10", Percentage: 10, Active: true},
		"GROUP20":   {Code: "GROUP20", Percentage: 20, Active: true},
		"SEASON25":  {Code: "SEASON25", Percentage: 25, Active: true},
	}
}

// Repository provides access to the persisted discount codes.
type Repository interface {
	List(ctx context.Context) (map[string]Discount, error)
	Get(ctx context.Context, code string) (Discount, bool, error)
	Put(ctx context.Context, d Discount) error
	SetActive(ctx context.Context, code string, active bool) (bool, error)
}
