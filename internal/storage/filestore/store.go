// Package filestore persists the ticketing collections as one file each.
//
// A collection file holds every record of the collection. Reads load the
// whole file; writes load, modify and atomically rewrite it. A missing or
// empty file is an empty collection. There are no cross-collection
// transactions.
package filestore

import (
	"context"
	"os"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/raceday/internal/domain/discount"
	"github.com/xenking/raceday/internal/domain/order"
	"github.com/xenking/raceday/internal/domain/ticket"
	"github.com/xenking/raceday/internal/domain/user"
)

// Collection names.
const (
	UsersCollection     = "users"
	TicketsCollection   = "tickets"
	SalesCollection     = "sales"
	DiscountsCollection = "discounts"
)

const fileExt = ".db"

// Options tunes a Store.
type Options struct {
	// Compress gzip-frames collection files on write. Both framings are
	// always readable.
	Compress bool
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// Store is the handle to all collections under one directory. Create it
// once with Open and pass it to the repositories that need it.
type Store struct {
	dir string
	lg  *zap.Logger

	users     *Collection[*user.User]
	tickets   *Collection[*ticket.Ticket]
	sales     *Collection[[]order.Sale]
	discounts *Collection[discount.Discount]
}

// Open creates dir if needed, creates any missing collection file and
// seeds the discounts collection with the default codes on first use.
func Open(ctx context.Context, dir string, opts Options) (*Store, error) {
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer("github.com/xenking/raceday/internal/storage/filestore")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: dir, Err: err}
	}

	s := &Store{
		dir:       dir,
		lg:        lg,
		users:     newCollection[*user.User](dir, UsersCollection, opts.Compress, tracer),
		tickets:   newCollection[*ticket.Ticket](dir, TicketsCollection, opts.Compress, tracer),
		sales:     newCollection[[]order.Sale](dir, SalesCollection, opts.Compress, tracer),
		discounts: newCollection[discount.Discount](dir, DiscountsCollection, opts.Compress, tracer),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.bootstrap(gctx, s.users.Name(), ensureEmpty(s.users)) })
	g.Go(func() error { return s.bootstrap(gctx, s.tickets.Name(), ensureEmpty(s.tickets)) })
	g.Go(func() error { return s.bootstrap(gctx, s.sales.Name(), ensureEmpty(s.sales)) })
	g.Go(func() error {
		return s.bootstrap(gctx, s.discounts.Name(), func(ctx context.Context) (bool, error) {
			return s.discounts.ensure(ctx, discount.Defaults())
		})
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "bootstrap collections")
	}
	return s, nil
}

func ensureEmpty[V any](c *Collection[V]) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		return c.ensure(ctx, nil)
	}
}

func (s *Store) bootstrap(ctx context.Context, name string, ensure func(context.Context) (bool, error)) error {
	created, err := ensure(ctx)
	if err != nil {
		s.lg.Error("Collection bootstrap failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	if created {
		s.lg.Info("Collection created", zap.String("collection", name), zap.String("dir", s.dir))
	}
	return nil
}

// Dir returns the directory holding the collection files.
func (s *Store) Dir() string { return s.dir }

// Users returns the user repository.
func (s *Store) Users() *UserRepository { return &UserRepository{c: s.users} }

// Tickets returns the ticket repository.
func (s *Store) Tickets() *TicketRepository { return &TicketRepository{c: s.tickets} }

// Sales returns the sales ledger repository.
func (s *Store) Sales() *SaleRepository { return &SaleRepository{c: s.sales} }

// Discounts returns the discount code repository.
func (s *Store) Discounts() *DiscountRepository { return &DiscountRepository{c: s.discounts} }
