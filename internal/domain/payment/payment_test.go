package payment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingGateway struct{ err error }

func (g failingGateway) Charge(context.Context, *Payment) error { return g.err }

func TestNewCreditCard_Masks(t *testing.T) {
	p, err := NewCreditCard(decimal.NewFromInt(450), "4111111111111234", "12/27", "123")
	require.NoError(t, err)

	assert.Equal(t, "XXXXXXXXXXXX1234", p.CreditCard.MaskedNumber)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, MethodCreditCard, p.Method)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.Date.IsZero())

	details := p.Details()
	assert.Equal(t, "XXXXXXXXXXXX1234", details.CardNumber)
	assert.Equal(t, "12/27", details.ExpiryDate)

	raw, err := json.Marshal(details)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "4111111111111234")

	stored, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "4111111111111234")
}

func TestMaskCardNumber(t *testing.T) {
	assert.Equal(t, "XXXXXXXXXXXX9876", MaskCardNumber("5500000000009876"))
	assert.Equal(t, "XXXXXXXXXXXX42", MaskCardNumber("42"))
	assert.Equal(t, "XXXXXXXXXXXX", MaskCardNumber(""))
}

func TestNewDigitalWallet_Details(t *testing.T) {
	p, err := NewDigitalWallet(decimal.NewFromInt(150), "PayPal", "fan@example.com")
	require.NoError(t, err)

	d := p.Details()
	assert.Equal(t, MethodDigitalWallet, d.PaymentType)
	assert.Equal(t, "PayPal", d.WalletType)
	assert.Equal(t, "fan@example.com", d.WalletID)
	assert.Empty(t, d.CardNumber)
	assert.Equal(t, p.ID, d.PaymentID)
	assert.True(t, decimal.NewFromInt(150).Equal(d.Amount))
}

func TestNegativeAmount(t *testing.T) {
	_, err := NewDigitalWallet(decimal.NewFromInt(-1), "PayPal", "x")
	require.ErrorIs(t, err, ErrNegativeAmount)
	_, err = NewCreditCard(decimal.NewFromInt(-1), "4111111111111234", "12/27", "123")
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("stub completes", func(t *testing.T) {
		p, err := NewCreditCard(decimal.NewFromInt(10), "4111111111111234", "12/27", "123")
		require.NoError(t, err)

		require.NoError(t, Process(ctx, StubGateway{}, p))
		assert.Equal(t, StatusCompleted, p.Status)
	})

	t.Run("gateway failure marks failed", func(t *testing.T) {
		p, err := NewDigitalWallet(decimal.NewFromInt(10), "Apple Pay", "w-1")
		require.NoError(t, err)

		err = Process(ctx, failingGateway{err: errors.New("insufficient funds")}, p)
		require.ErrorIs(t, err, ErrDeclined)
		assert.Contains(t, err.Error(), "insufficient funds")
		assert.Equal(t, StatusFailed, p.Status)
	})

	t.Run("completed payment cannot be processed again", func(t *testing.T) {
		p, err := NewDigitalWallet(decimal.NewFromInt(10), "Apple Pay", "w-1")
		require.NoError(t, err)
		require.NoError(t, Process(ctx, StubGateway{}, p))

		err = Process(ctx, StubGateway{}, p)
		require.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StatusCompleted, p.Status)
	})

	t.Run("failed payment stays failed", func(t *testing.T) {
		p, err := NewDigitalWallet(decimal.NewFromInt(10), "Apple Pay", "w-1")
		require.NoError(t, err)
		require.Error(t, Process(ctx, failingGateway{err: errors.New("nope")}, p))

		err = Process(ctx, StubGateway{}, p)
		require.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StatusFailed, p.Status)
	})
}
