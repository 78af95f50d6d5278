package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/raceday/internal/domain/discount"
	"github.com/xenking/raceday/internal/domain/payment"
	"github.com/xenking/raceday/internal/domain/ticket"
	"github.com/xenking/raceday/internal/domain/user"
)

// --- Mock implementations ---

type mockUsers struct {
	users       map[string]*user.User
	purchases   map[string][]string
	err         error
	purchaseErr error
}

func (m *mockUsers) Get(_ context.Context, username string) (*user.User, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	u, ok := m.users[username]
	if !ok {
		return nil, false, nil
	}
	cp := *u
	return &cp, true, nil
}

func (m *mockUsers) AddPurchase(_ context.Context, username, orderID string) error {
	if m.purchaseErr != nil {
		return m.purchaseErr
	}
	for _, id := range m.purchases[username] {
		if id == orderID {
			return nil
		}
	}
	m.purchases[username] = append(m.purchases[username], orderID)
	u := m.users[username]
	u.PurchaseHistory = append(u.PurchaseHistory, orderID)
	return nil
}

type mockTickets struct {
	byID map[string]*ticket.Ticket
}

func (m *mockTickets) GetMany(_ context.Context, ids []string) ([]*ticket.Ticket, error) {
	out := make([]*ticket.Ticket, 0, len(ids))
	for _, id := range ids {
		t, ok := m.byID[id]
		if !ok {
			return nil, ticket.ErrNotFound
		}
		out = append(out, t)
	}
	return out, nil
}

type mockDiscounts struct {
	codes map[string]int
}

func (m *mockDiscounts) Amount(_ context.Context, subtotal decimal.Decimal, code string) (decimal.Decimal, error) {
	return discount.PercentOf(subtotal, m.codes[code]), nil
}

type mockSales struct {
	byDay map[string][]Sale
	err   error
}

func (m *mockSales) AddSale(_ context.Context, s Sale) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, _, ok := m.find(s.Order.OrderID); ok {
		return false, nil
	}
	m.byDay[s.Day()] = append(m.byDay[s.Day()], s)
	return true, nil
}

func (m *mockSales) SetStatus(_ context.Context, orderID string, status Status) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	day, i, ok := m.find(orderID)
	if !ok {
		return false, nil
	}
	m.byDay[day][i].Order.Status = status
	return true, nil
}

func (m *mockSales) find(orderID string) (string, int, bool) {
	for day, sales := range m.byDay {
		for i, s := range sales {
			if s.Order.OrderID == orderID {
				return day, i, true
			}
		}
	}
	return "", 0, false
}

func (m *mockSales) count() int {
	n := 0
	for _, sales := range m.byDay {
		n += len(sales)
	}
	return n
}

func (m *mockSales) SalesByDate(_ context.Context, day string) ([]Sale, error) {
	return m.byDay[day], nil
}

func (m *mockSales) AllSales(_ context.Context) (map[string][]Sale, error) {
	return m.byDay, nil
}

type declineAll struct{}

func (declineAll) Charge(context.Context, *payment.Payment) error { return errors.New("gateway down") }

// --- Helpers ---

type fixture struct {
	svc     *Service
	users   *mockUsers
	sales   *mockSales
	general *ticket.Ticket
	vip     *ticket.Ticket
}

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, gw payment.Gateway) *fixture {
	t.Helper()

	general := ticket.NewSingleRace(ticket.SingleRace{RaceDate: "2025-06-20", RaceName: "Grand Prix", SeatType: "General"})
	vip := ticket.NewSingleRace(ticket.SingleRace{RaceDate: "2025-06-20", RaceName: "Grand Prix", SeatType: "VIP"})

	users := &mockUsers{
		users:     map[string]*user.User{"alice": {Username: "alice", Role: user.RoleStandard}},
		purchases: make(map[string][]string),
	}
	sales := &mockSales{byDay: make(map[string][]Sale)}
	svc, err := NewService(
		users,
		&mockTickets{byID: map[string]*ticket.Ticket{general.ID: general, vip.ID: vip}},
		&mockDiscounts{codes: map[string]int{"WELCOME10": 10}},
		sales,
		gw,
		noop.NewMeterProvider().Meter("test"),
	)
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }

	return &fixture{svc: svc, users: users, sales: sales, general: general, vip: vip}
}

func (f *fixture) request(code string) PlaceRequest {
	return PlaceRequest{
		Username:     "alice",
		TicketIDs:    []string{f.general.ID, f.vip.ID},
		DiscountCode: code,
		Card:         &CardInput{Number: "4111111111111234", ExpiryDate: "12/27", CVV: "123"},
	}
}

// --- Tests ---

func TestService_Place(t *testing.T) {
	f := newFixture(t, payment.StubGateway{})

	o, err := f.svc.Place(context.Background(), f.request("WELCOME10"))
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, o.Status)
	assert.True(t, d("45").Equal(o.DiscountAmount))
	assert.True(t, d("405").Equal(o.Total()))
	assert.True(t, d("405").Equal(o.Payment.Amount))
	assert.Equal(t, payment.StatusPending, o.Payment.Status)
	assert.Equal(t, "WELCOME10", o.DiscountCode)
	assert.Equal(t, fixedNow, o.Date)
}

func TestService_PlaceUnknownCode(t *testing.T) {
	f := newFixture(t, payment.StubGateway{})

	o, err := f.svc.Place(context.Background(), f.request("BOGUS"))
	require.NoError(t, err)
	assert.True(t, o.DiscountAmount.IsZero())
	assert.Empty(t, o.DiscountCode)
	assert.True(t, d("450").Equal(o.Total()))
}

func TestService_PlaceErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.StubGateway{})

	req := f.request("")
	req.TicketIDs = nil
	_, err := f.svc.Place(ctx, req)
	require.ErrorIs(t, err, ErrNoTickets)

	req = f.request("")
	req.Username = "bob"
	_, err = f.svc.Place(ctx, req)
	require.ErrorIs(t, err, ErrUserNotFound)

	req = f.request("")
	req.TicketIDs = []string{"missing"}
	_, err = f.svc.Place(ctx, req)
	require.ErrorIs(t, err, ticket.ErrNotFound)

	req = f.request("")
	req.Card = nil
	_, err = f.svc.Place(ctx, req)
	require.ErrorIs(t, err, ErrNoPaymentMethod)
}

func TestService_PlaceWithWallet(t *testing.T) {
	f := newFixture(t, payment.StubGateway{})

	req := f.request("")
	req.Card = nil
	req.Wallet = &WalletInput{WalletType: "PayPal", WalletID: "alice@example.com"}

	o, err := f.svc.Place(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, payment.MethodDigitalWallet, o.Payment.Method)
	assert.Equal(t, "PayPal", o.Payment.Details().WalletType)
}

func TestService_Confirm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.StubGateway{})

	o, err := f.svc.Place(ctx, f.request("WELCOME10"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Confirm(ctx, o))
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, []string{o.ID}, f.users.purchases["alice"])
	assert.Equal(t, []string{o.ID}, o.User.Purchases())

	sales, err := f.svc.SalesByDate(ctx, "2025-06-15")
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, o.ID, sales[0].Order.OrderID)
	assert.Equal(t, StatusConfirmed, sales[0].Order.Status)

	none, err := f.svc.SalesByDate(ctx, "2025-06-16")
	require.NoError(t, err)
	assert.Empty(t, none)

	// Cancelling after confirmation is recorded, not prevented.
	require.NoError(t, f.svc.Cancel(ctx, o))
	assert.Equal(t, StatusCancelled, o.Status)

	sales, err = f.svc.SalesByDate(ctx, "2025-06-15")
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, StatusCancelled, sales[0].Order.Status)
}

func TestService_ConfirmDeclined(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, declineAll{})

	o, err := f.svc.Place(ctx, f.request(""))
	require.NoError(t, err)

	err = f.svc.Confirm(ctx, o)
	require.ErrorIs(t, err, payment.ErrDeclined)
	assert.Equal(t, StatusCreated, o.Status)
	assert.Empty(t, f.sales.byDay)
	assert.Empty(t, f.users.purchases)
}

func TestService_ConfirmRecordSaleError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.StubGateway{})
	f.sales.err = errors.New("disk full")

	o, err := f.svc.Place(ctx, f.request(""))
	require.NoError(t, err)

	err = f.svc.Confirm(ctx, o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record sale")
	assert.Equal(t, payment.StatusCompleted, o.Payment.Status)
	assert.Empty(t, f.users.purchases)

	// The payment went through, so a retry only records the sale.
	f.sales.err = nil
	require.NoError(t, f.svc.Confirm(ctx, o))
	require.NoError(t, f.svc.Confirm(ctx, o))

	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, 1, f.sales.count())
	assert.Equal(t, []string{o.ID}, f.users.purchases["alice"])
	assert.Equal(t, []string{o.ID}, o.User.Purchases())
}

func TestService_ConfirmAddPurchaseError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.StubGateway{})
	f.users.purchaseErr = errors.New("users unavailable")

	o, err := f.svc.Place(ctx, f.request(""))
	require.NoError(t, err)

	err = f.svc.Confirm(ctx, o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add purchase")
	assert.Equal(t, 1, f.sales.count())

	f.users.purchaseErr = nil
	require.NoError(t, f.svc.Confirm(ctx, o))
	assert.Equal(t, 1, f.sales.count())
	assert.Equal(t, []string{o.ID}, f.users.purchases["alice"])
}

func TestService_ConfirmCancelledNotCharged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.StubGateway{})

	o, err := f.svc.Place(ctx, f.request(""))
	require.NoError(t, err)
	require.NoError(t, f.svc.Confirm(ctx, o))
	require.NoError(t, f.svc.Cancel(ctx, o))

	err = f.svc.Confirm(ctx, o)
	require.ErrorIs(t, err, payment.ErrInvalidTransition)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestService_CancelConfirmedWriteError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.StubGateway{})

	o, err := f.svc.Place(ctx, f.request(""))
	require.NoError(t, err)
	require.NoError(t, f.svc.Confirm(ctx, o))

	f.sales.err = errors.New("disk full")
	require.Error(t, f.svc.Cancel(ctx, o))
	assert.Equal(t, StatusConfirmed, o.Status)

	f.sales.err = nil
	require.NoError(t, f.svc.Cancel(ctx, o))
	assert.Equal(t, StatusCancelled, o.Status)
	sales, err := f.svc.SalesByDate(ctx, "2025-06-15")
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, StatusCancelled, sales[0].Order.Status)
}

func TestService_History(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.StubGateway{})

	first, err := f.svc.Place(ctx, f.request("WELCOME10"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Confirm(ctx, first))

	f.svc.now = func() time.Time { return fixedNow.Add(24 * time.Hour) }
	second, err := f.svc.Place(ctx, f.request(""))
	require.NoError(t, err)
	require.NoError(t, f.svc.Confirm(ctx, second))

	unpaid, err := f.svc.Place(ctx, f.request(""))
	require.NoError(t, err)

	history, err := f.svc.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].OrderID)
	assert.Equal(t, second.ID, history[1].OrderID)
	assert.True(t, d("405").Equal(history[0].Total))
	for _, h := range history {
		assert.NotEqual(t, unpaid.ID, h.OrderID)
	}

	_, err = f.svc.History(ctx, "bob")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_CancelCreated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.StubGateway{})

	o, err := f.svc.Place(ctx, f.request(""))
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, o))
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, payment.StatusPending, o.Payment.Status)
	assert.Empty(t, f.sales.byDay)
}
