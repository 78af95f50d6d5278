package filestore

import (
	"context"

	"github.com/xenking/raceday/internal/domain/order"
)

var _ order.SaleRepository = (*SaleRepository)(nil)

// SaleRepository implements order.SaleRepository. Sales are grouped by the
// day they were recorded (YYYY-MM-DD) in insertion order.
type SaleRepository struct {
	c *Collection[[]order.Sale]
}

// AddSale appends s to the sequence for its day unless a sale for the same
// order is already recorded on any day.
func (r *SaleRepository) AddSale(ctx context.Context, s order.Sale) (bool, error) {
	var added bool
	err := r.c.Update(ctx, func(records map[string][]order.Sale) (bool, error) {
		if _, _, ok := findSale(records, s.Order.OrderID); ok {
			return false, nil
		}
		day := s.Day()
		records[day] = append(records[day], s)
		added = true
		return true, nil
	})
	return added, err
}

// SetStatus rewrites the order status stored in the sale for orderID.
func (r *SaleRepository) SetStatus(ctx context.Context, orderID string, status order.Status) (bool, error) {
	var found bool
	err := r.c.Update(ctx, func(records map[string][]order.Sale) (bool, error) {
		day, i, ok := findSale(records, orderID)
		if !ok {
			return false, nil
		}
		found = true
		if records[day][i].Order.Status == status {
			return false, nil
		}
		records[day][i].Order.Status = status
		return true, nil
	})
	return found, err
}

// SalesByDate returns the sales recorded on day, or an empty slice.
func (r *SaleRepository) SalesByDate(ctx context.Context, day string) ([]order.Sale, error) {
	sales, ok, err := r.c.Get(ctx, day)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []order.Sale{}, nil
	}
	return sales, nil
}

// AllSales returns every day's sales.
func (r *SaleRepository) AllSales(ctx context.Context) (map[string][]order.Sale, error) {
	return r.c.All(ctx)
}

func findSale(records map[string][]order.Sale, orderID string) (string, int, bool) {
	for day, sales := range records {
		for i := range sales {
			if sales[i].Order.OrderID == orderID {
				return day, i, true
			}
		}
	}
	return "", 0, false
}
