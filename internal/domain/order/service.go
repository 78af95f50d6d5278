package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/raceday/internal/domain/payment"
	"github.com/xenking/raceday/internal/domain/ticket"
	"github.com/xenking/raceday/internal/domain/user"
)

var (
	// ErrUserNotFound is returned when placing an order for an unknown username.
	ErrUserNotFound = errors.New("order user not found")
	// ErrNoPaymentMethod is returned when a PlaceRequest selects no payment method.
	ErrNoPaymentMethod = errors.New("payment method required")
)

// Users is the subset of the user service the order flow needs.
type Users interface {
	Get(ctx context.Context, username string) (*user.User, bool, error)
	AddPurchase(ctx context.Context, username, orderID string) error
}

// Tickets resolves issued tickets by ID.
type Tickets interface {
	GetMany(ctx context.Context, ids []string) ([]*ticket.Ticket, error)
}

// Discounts turns a discount code into an amount off a subtotal.
type Discounts interface {
	Amount(ctx context.Context, subtotal decimal.Decimal, code string) (decimal.Decimal, error)
}

// CardInput is raw card data entered at checkout. Only the masked form is kept.
type CardInput struct {
	Number     string
	ExpiryDate string
	CVV        string
}

// WalletInput identifies a digital wallet at checkout.
type WalletInput struct {
	WalletType string
	WalletID   string
}

// PlaceRequest holds the input for placing an order. Exactly one of Card
// and Wallet selects the payment method.
type PlaceRequest struct {
	Username     string
	TicketIDs    []string
	DiscountCode string
	Card         *CardInput
	Wallet       *WalletInput
}

// Service runs the purchase flow: ticket selection, payment, confirmation.
type Service struct {
	users     Users
	tickets   Tickets
	discounts Discounts
	sales     SaleRepository
	gateway   payment.Gateway
	now       func() time.Time

	placed    metric.Int64Counter
	confirmed metric.Int64Counter
	cancelled metric.Int64Counter
}

// NewService creates an order Service. Payments are charged through gw.
func NewService(
	users Users,
	tickets Tickets,
	discounts Discounts,
	sales SaleRepository,
	gw payment.Gateway,
	meter metric.Meter,
) (*Service, error) {
	s := &Service{
		users:     users,
		tickets:   tickets,
		discounts: discounts,
		sales:     sales,
		gateway:   gw,
		now:       time.Now,
	}
	var err error
	if s.placed, err = meter.Int64Counter("raceday.orders.placed",
		metric.WithDescription("Orders created"),
	); err != nil {
		return nil, errors.Wrap(err, "orders placed counter")
	}
	if s.confirmed, err = meter.Int64Counter("raceday.orders.confirmed",
		metric.WithDescription("Orders confirmed after payment"),
	); err != nil {
		return nil, errors.Wrap(err, "orders confirmed counter")
	}
	if s.cancelled, err = meter.Int64Counter("raceday.orders.cancelled",
		metric.WithDescription("Orders cancelled"),
	); err != nil {
		return nil, errors.Wrap(err, "orders cancelled counter")
	}
	return s, nil
}

// Place builds a Created order for the user and tickets in req. The
// discount amount is resolved from the code against the ticket subtotal and
// the payment is created for the resulting total.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*PurchaseOrder, error) {
	if len(req.TicketIDs) == 0 {
		return nil, ErrNoTickets
	}

	u, ok, err := s.users.Get(ctx, req.Username)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	if !ok {
		return nil, errors.Wrapf(ErrUserNotFound, "user %q", req.Username)
	}

	tickets, err := s.tickets.GetMany(ctx, req.TicketIDs)
	if err != nil {
		return nil, errors.Wrap(err, "get tickets")
	}

	sub := subtotal(tickets)
	discountAmount, err := s.discounts.Amount(ctx, sub, req.DiscountCode)
	if err != nil {
		return nil, errors.Wrap(err, "resolve discount")
	}
	discountCode := req.DiscountCode
	if discountAmount.IsZero() {
		discountCode = ""
	}

	p, err := newPayment(req, sub.Sub(discountAmount))
	if err != nil {
		return nil, errors.Wrap(err, "create payment")
	}

	o, err := New(u, tickets, p, discountCode, discountAmount)
	if err != nil {
		return nil, err
	}
	o.Date = s.now()

	s.placed.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_type", string(p.Method))))
	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("username", u.Username),
		zap.Int("tickets", len(tickets)),
		zap.Stringer("total", o.Total()),
	)
	return o, nil
}

// Confirm charges the order's payment. On success the order is recorded as
// a sale under today's date and appended to the user's purchase history.
// A confirmed order whose payment has completed is not charged again, only
// recorded, so a call that failed while recording can be retried.
func (s *Service) Confirm(ctx context.Context, o *PurchaseOrder) error {
	lg := zctx.From(ctx).With(zap.String("order_id", o.ID))
	if o.Status == StatusConfirmed && o.Payment.Status == payment.StatusCompleted {
		lg.Debug("Order already charged, recording only")
	} else if err := o.Confirm(ctx, s.gateway); err != nil {
		lg.Warn("Order confirmation failed", zap.Error(err))
		return err
	}

	sale := Sale{Date: s.now(), Order: o.Details()}
	added, err := s.sales.AddSale(ctx, sale)
	if err != nil {
		return errors.Wrap(err, "record sale")
	}
	if err := s.users.AddPurchase(ctx, o.User.Username, o.ID); err != nil {
		return errors.Wrap(err, "add purchase")
	}
	o.User.AddPurchase(o.ID)

	if added {
		s.confirmed.Add(ctx, 1)
	}
	lg.Info("Order confirmed",
		zap.Bool("recorded_now", added),
		zap.String("day", sale.Day()),
		zap.Stringer("total", o.Total()),
	)
	return nil
}

// Cancel marks the order Cancelled. Cancelling a confirmed order is allowed
// and does not refund the payment. Its recorded sale is marked Cancelled
// before the order itself, so a failed write leaves both unchanged.
func (s *Service) Cancel(ctx context.Context, o *PurchaseOrder) error {
	prev := o.Status
	lg := zctx.From(ctx).With(zap.String("order_id", o.ID), zap.String("previous_status", string(prev)))

	if prev == StatusConfirmed {
		found, err := s.sales.SetStatus(ctx, o.ID, StatusCancelled)
		if err != nil {
			return errors.Wrap(err, "mark sale cancelled")
		}
		if !found {
			lg.Warn("No sale recorded for confirmed order")
		}
	}

	o.Cancel()
	s.cancelled.Add(ctx, 1, metric.WithAttributes(attribute.String("previous_status", string(prev))))

	if prev == StatusConfirmed {
		lg.Warn("Confirmed order cancelled without refund")
		return nil
	}
	lg.Info("Order cancelled")
	return nil
}

// History returns the recorded orders of a user in purchase order. Order IDs
// without a recorded sale are skipped.
func (s *Service) History(ctx context.Context, username string) ([]Details, error) {
	u, ok, err := s.users.Get(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	if !ok {
		return nil, errors.Wrapf(ErrUserNotFound, "user %q", username)
	}

	all, err := s.sales.AllSales(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list sales")
	}
	byID := make(map[string]Details)
	for _, sales := range all {
		for _, sale := range sales {
			byID[sale.Order.OrderID] = sale.Order
		}
	}

	history := make([]Details, 0, len(u.PurchaseHistory))
	for _, id := range u.Purchases() {
		d, ok := byID[id]
		if !ok {
			zctx.From(ctx).Debug("Purchase without recorded sale",
				zap.String("username", username),
				zap.String("order_id", id),
			)
			continue
		}
		history = append(history, d)
	}
	return history, nil
}

// SalesByDate returns the sales recorded on day (YYYY-MM-DD).
func (s *Service) SalesByDate(ctx context.Context, day string) ([]Sale, error) {
	sales, err := s.sales.SalesByDate(ctx, day)
	if err != nil {
		return nil, errors.Wrapf(err, "sales for %s", day)
	}
	return sales, nil
}

// AllSales returns every recorded sale grouped by day.
func (s *Service) AllSales(ctx context.Context) (map[string][]Sale, error) {
	all, err := s.sales.AllSales(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list sales")
	}
	return all, nil
}

func newPayment(req PlaceRequest, amount decimal.Decimal) (*payment.Payment, error) {
	switch {
	case req.Card != nil:
		return payment.NewCreditCard(amount, req.Card.Number, req.Card.ExpiryDate, req.Card.CVV)
	case req.Wallet != nil:
		return payment.NewDigitalWallet(amount, req.Wallet.WalletType, req.Wallet.WalletID)
	default:
		return nil, ErrNoPaymentMethod
	}
}
