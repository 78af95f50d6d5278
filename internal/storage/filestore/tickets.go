package filestore

import (
	"context"

	"github.com/xenking/raceday/internal/domain/ticket"
)

var _ ticket.Repository = (*TicketRepository)(nil)

// TicketRepository implements ticket.Repository keyed by ticket ID.
type TicketRepository struct {
	c *Collection[*ticket.Ticket]
}

func (r *TicketRepository) Put(ctx context.Context, t *ticket.Ticket) error {
	return r.c.Put(ctx, t.ID, t)
}

func (r *TicketRepository) Get(ctx context.Context, id string) (*ticket.Ticket, bool, error) {
	return r.c.Get(ctx, id)
}

func (r *TicketRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.c.Delete(ctx, id)
}

func (r *TicketRepository) List(ctx context.Context) (map[string]*ticket.Ticket, error) {
	return r.c.All(ctx)
}
