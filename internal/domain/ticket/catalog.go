package ticket

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Catalog issues priced tickets and keeps them in a Repository.
type Catalog struct {
	repo Repository
}

// NewCatalog creates a Catalog backed by repo.
func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

// Issue constructs a ticket from spec and persists it.
func (c *Catalog) Issue(ctx context.Context, spec Spec) (*Ticket, error) {
	t, err := New(spec)
	if err != nil {
		return nil, err
	}
	if err := c.repo.Put(ctx, t); err != nil {
		return nil, errors.Wrap(err, "store ticket")
	}
	zctx.From(ctx).Debug("Ticket issued",
		zap.String("ticket_id", t.ID),
		zap.String("kind", string(t.Kind)),
		zap.Stringer("price", t.Price()),
	)
	return t, nil
}

// Get returns the ticket with id and whether it exists.
func (c *Catalog) Get(ctx context.Context, id string) (*Ticket, bool, error) {
	t, ok, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, false, errors.Wrapf(err, "get ticket %q", id)
	}
	return t, ok, nil
}

// GetMany returns the tickets with the given ids in the same order.
// It fails with ErrNotFound when any id is missing.
func (c *Catalog) GetMany(ctx context.Context, ids []string) ([]*Ticket, error) {
	all, err := c.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list tickets")
	}
	out := make([]*Ticket, 0, len(ids))
	for _, id := range ids {
		t, ok := all[id]
		if !ok {
			return nil, errors.Wrapf(ErrNotFound, "ticket %q", id)
		}
		out = append(out, t)
	}
	return out, nil
}

// Update overwrites the stored record for t.ID. Details are recomputed from
// the variant parameters, and the update is rejected with ErrPriceChange
// when that would change the kind or price the ticket was issued with.
func (c *Catalog) Update(ctx context.Context, t *Ticket) error {
	stored, ok, err := c.repo.Get(ctx, t.ID)
	if err != nil {
		return errors.Wrapf(err, "get ticket %q", t.ID)
	}
	if !ok {
		return errors.Wrapf(ErrNotFound, "ticket %q", t.ID)
	}
	d, err := t.priced()
	if err != nil {
		return err
	}
	if t.Kind != stored.Kind || !d.Price.Equal(stored.Price()) {
		return errors.Wrapf(ErrPriceChange, "ticket %q: %s %s -> %s %s",
			t.ID, stored.Kind, stored.Price(), t.Kind, d.Price)
	}

	t.Details = d
	if err := c.repo.Put(ctx, t); err != nil {
		return errors.Wrapf(err, "update ticket %q", t.ID)
	}
	return nil
}

// Delete removes a ticket and reports whether it existed.
func (c *Catalog) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := c.repo.Delete(ctx, id)
	if err != nil {
		return false, errors.Wrapf(err, "delete ticket %q", id)
	}
	return ok, nil
}

// List returns every stored ticket keyed by ID.
func (c *Catalog) List(ctx context.Context) (map[string]*Ticket, error) {
	all, err := c.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list tickets")
	}
	return all, nil
}
