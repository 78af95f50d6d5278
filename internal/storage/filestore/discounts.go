package filestore

import (
	"context"

	"github.com/xenking/raceday/internal/domain/discount"
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository keyed by code.
type DiscountRepository struct {
	c *Collection[discount.Discount]
}

func (r *DiscountRepository) List(ctx context.Context) (map[string]discount.Discount, error) {
	return r.c.All(ctx)
}

func (r *DiscountRepository) Get(ctx context.Context, code string) (discount.Discount, bool, error) {
	return r.c.Get(ctx, code)
}

func (r *DiscountRepository) Put(ctx context.Context, d discount.Discount) error {
	return r.c.Put(ctx, d.Code, d)
}

// SetActive flips the active flag of an existing code. It reports false,
// without writing, when the code is unknown.
func (r *DiscountRepository) SetActive(ctx context.Context, code string, active bool) (bool, error) {
	var found bool
	err := r.c.Update(ctx, func(records map[string]discount.Discount) (bool, error) {
		d, ok := records[code]
		if !ok {
			return false, nil
		}
		found = true
		d.Active = active
		records[code] = d
		return true, nil
	})
	return found, err
}
