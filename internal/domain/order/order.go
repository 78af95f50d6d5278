package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/raceday/internal/domain/payment"
	"github.com/xenking/raceday/internal/domain/ticket"
	"github.com/xenking/raceday/internal/domain/user"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusCreated   Status = "Created"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
)

// SaleDateLayout formats the day a sale is grouped under.
const SaleDateLayout = "2006-01-02"

var (
	// ErrNoTickets is returned when placing an order without tickets.
	ErrNoTickets = errors.New("order requires at least one ticket")
	// ErrNegativeDiscount is returned for a discount amount below zero.
	ErrNegativeDiscount = errors.New("discount amount must not be negative")
	// ErrMissingParty is returned when an order lacks its user or payment.
	ErrMissingParty = errors.New("order requires a user and a payment")
)

// PurchaseOrder ties a user, the tickets bought and the payment for them.
type PurchaseOrder struct {
	ID             string
	User           *user.User
	Tickets        []*ticket.Ticket
	Payment        *payment.Payment
	Date           time.Time
	DiscountCode   string
	DiscountAmount decimal.Decimal
	Status         Status
}

// TicketLine is the name and price of one ticket in Details.
type TicketLine struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Details is a read-only summary of an order.
type Details struct {
	OrderID        string          `json:"order_id"`
	User           string          `json:"user"`
	Tickets        []TicketLine    `json:"tickets"`
	Payment        payment.Details `json:"payment"`
	OrderDate      time.Time       `json:"order_date"`
	DiscountCode   string          `json:"discount_code,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	Status         Status          `json:"status"`
}

// Sale is a confirmed order as recorded in the sales ledger.
type Sale struct {
	Date  time.Time `json:"date"`
	Order Details   `json:"order"`
}

// Day returns the date key the sale is grouped under.
func (s Sale) Day() string {
	return s.Date.Format(SaleDateLayout)
}

// SaleRepository records confirmed orders grouped by day. A sale is
// identified by its order ID across all days.
type SaleRepository interface {
	// AddSale records s unless a sale for the same order exists already.
	// It reports whether s was added.
	AddSale(ctx context.Context, s Sale) (bool, error)
	// SetStatus rewrites the order status kept in the sale for orderID and
	// reports whether such a sale exists.
	SetStatus(ctx context.Context, orderID string, status Status) (bool, error)
	SalesByDate(ctx context.Context, day string) ([]Sale, error)
	AllSales(ctx context.Context) (map[string][]Sale, error)
}

// New creates an order in the Created state dated now.
func New(u *user.User, tickets []*ticket.Ticket, p *payment.Payment, discountCode string, discountAmount decimal.Decimal) (*PurchaseOrder, error) {
	if u == nil || p == nil {
		return nil, ErrMissingParty
	}
	if discountAmount.IsNegative() {
		return nil, ErrNegativeDiscount
	}
	return &PurchaseOrder{
		ID:             uuid.New().String(),
		User:           u,
		Tickets:        tickets,
		Payment:        p,
		Date:           time.Now(),
		DiscountCode:   discountCode,
		DiscountAmount: discountAmount,
		Status:         StatusCreated,
	}, nil
}

// Subtotal returns the sum of ticket prices.
func (o *PurchaseOrder) Subtotal() decimal.Decimal {
	return subtotal(o.Tickets)
}

// Total returns the subtotal minus the discount amount. The result is not
// floored at zero.
func (o *PurchaseOrder) Total() decimal.Decimal {
	return o.Subtotal().Sub(o.DiscountAmount)
}

// Confirm processes the payment through gw and marks the order Confirmed.
// On payment failure the order status is left unchanged.
func (o *PurchaseOrder) Confirm(ctx context.Context, gw payment.Gateway) error {
	if err := payment.Process(ctx, gw, o.Payment); err != nil {
		return errors.Wrap(err, "process payment")
	}
	o.Status = StatusConfirmed
	return nil
}

// Cancel marks the order Cancelled whatever its current status.
func (o *PurchaseOrder) Cancel() {
	o.Status = StatusCancelled
}

// Details returns the read-only summary of o.
func (o *PurchaseOrder) Details() Details {
	lines := make([]TicketLine, len(o.Tickets))
	for i, t := range o.Tickets {
		lines[i] = TicketLine{Name: t.Name, Price: t.Price()}
	}
	return Details{
		OrderID:        o.ID,
		User:           o.User.Username,
		Tickets:        lines,
		Payment:        o.Payment.Details(),
		OrderDate:      o.Date,
		DiscountCode:   o.DiscountCode,
		DiscountAmount: o.DiscountAmount,
		Total:          o.Total(),
		Status:         o.Status,
	}
}

func subtotal(tickets []*ticket.Ticket) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range tickets {
		sum = sum.Add(t.Price())
	}
	return sum
}
