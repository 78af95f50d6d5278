package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/raceday/internal/domain/discount"
	"github.com/xenking/raceday/internal/domain/order"
	"github.com/xenking/raceday/internal/domain/payment"
	"github.com/xenking/raceday/internal/domain/ticket"
	"github.com/xenking/raceday/internal/domain/user"
	"github.com/xenking/raceday/internal/storage/filestore"
)

// Services is the wired backend core handed to a presentation layer.
type Services struct {
	Store     *filestore.Store
	Users     *user.Service
	Catalog   *ticket.Catalog
	Discounts *discount.Service
	Orders    *order.Service
}

// New opens the store once and wires every service onto it. Payments are
// charged through gw; pass payment.StubGateway{} to accept every charge.
func New(
	ctx context.Context,
	lg *zap.Logger,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	gw payment.Gateway,
	cfg *Config,
) (*Services, error) {
	store, err := filestore.Open(ctx, cfg.DataDir, filestore.Options{
		Compress:       cfg.Compress,
		Logger:         lg.Named("filestore"),
		TracerProvider: tp,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}

	users := user.NewService(store.Users())
	catalog := ticket.NewCatalog(store.Tickets())
	discounts := discount.NewService(store.Discounts())
	orders, err := order.NewService(users, catalog, discounts, store.Sales(), gw, mp.Meter("github.com/xenking/raceday"))
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}

	return &Services{
		Store:     store,
		Users:     users,
		Catalog:   catalog,
		Discounts: discounts,
		Orders:    orders,
	}, nil
}

// Run bootstraps the data directory, creates the configured admin account
// when it does not exist yet and reports what the store holds.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	ctx = zctx.Base(ctx, lg)
	lg.Info("Initializing", zap.String("data_dir", cfg.DataDir), zap.Bool("compress", cfg.Compress))

	svc, err := New(ctx, lg, m.TracerProvider(), m.MeterProvider(), payment.StubGateway{}, cfg)
	if err != nil {
		return err
	}
	if err := svc.EnsureAdmin(ctx, cfg.Admin); err != nil {
		return errors.Wrap(err, "bootstrap admin")
	}
	return svc.Report(ctx)
}

// EnsureAdmin registers the configured admin unless the username exists.
func (s *Services) EnsureAdmin(ctx context.Context, cfg AdminConfig) error {
	if cfg.Username == "" {
		return nil
	}
	_, exists, err := s.Users.Get(ctx, cfg.Username)
	if err != nil {
		return err
	}
	if exists {
		zctx.From(ctx).Debug("Admin already present", zap.String("username", cfg.Username))
		return nil
	}
	_, err = s.Users.RegisterAdmin(ctx, user.RegisterRequest{
		Username: cfg.Username,
		Password: cfg.Password,
		Name:     cfg.Name,
		Email:    cfg.Email,
		Phone:    cfg.Phone,
	}, cfg.Level)
	if errors.Is(err, user.ErrUsernameTaken) {
		return nil
	}
	return err
}

// Report logs collection sizes and the discount codes on offer.
func (s *Services) Report(ctx context.Context) error {
	lg := zctx.From(ctx)

	users, err := s.Users.List(ctx)
	if err != nil {
		return err
	}
	tickets, err := s.Catalog.List(ctx)
	if err != nil {
		return err
	}
	sales, err := s.Orders.AllSales(ctx)
	if err != nil {
		return err
	}
	codes, err := s.Discounts.List(ctx)
	if err != nil {
		return err
	}

	lg.Info("Store ready",
		zap.String("dir", s.Store.Dir()),
		zap.Int("users", len(users)),
		zap.Int("tickets", len(tickets)),
		zap.Int("sale_days", len(sales)),
		zap.Int("discounts", len(codes)),
	)
	for code, d := range codes {
		lg.Debug("Discount code",
			zap.String("code", code),
			zap.Int("percentage", d.Percentage),
			zap.Bool("active", d.Active),
		)
	}
	return nil
}
