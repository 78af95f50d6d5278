package payment

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the payment lifecycle state.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
)

// Method tags the payment variant.
type Method string

const (
	MethodCreditCard    Method = "Credit Card"
	MethodDigitalWallet Method = "Digital Wallet"
)

// maskPrefix replaces every card digit except the last four.
const maskPrefix = "XXXXXXXXXXXX"

var (
	// ErrInvalidTransition is returned when a status change is not allowed
	// from the payment's current status.
	ErrInvalidTransition = errors.New("invalid payment status transition")
	// ErrNegativeAmount is returned when a payment is constructed with a negative amount.
	ErrNegativeAmount = errors.New("payment amount must not be negative")
)

// transitions lists the allowed status changes.
var transitions = map[Status][]Status{
	StatusPending: {StatusCompleted, StatusFailed},
}

// CreditCard holds display-safe card data. The full card number and CVV
// are never stored.
type CreditCard struct {
	MaskedNumber string `json:"card_number"`
	ExpiryDate   string `json:"expiry_date"`
}

// DigitalWallet identifies a wallet account such as PayPal or Apple Pay.
type DigitalWallet struct {
	WalletType string `json:"wallet_type"`
	WalletID   string `json:"wallet_id"`
}

// Payment is a single charge for an order.
type Payment struct {
	ID     string          `json:"payment_id"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"payment_date"`
	Status Status          `json:"status"`
	Method Method          `json:"payment_type"`

	CreditCard    *CreditCard    `json:"credit_card,omitempty"`
	DigitalWallet *DigitalWallet `json:"digital_wallet,omitempty"`
}

// Details is the display-safe projection of a payment.
type Details struct {
	PaymentID   string          `json:"payment_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
	Status      Status          `json:"status"`
	PaymentType Method          `json:"payment_type"`
	CardNumber  string          `json:"card_number,omitempty"`
	ExpiryDate  string          `json:"expiry_date,omitempty"`
	WalletType  string          `json:"wallet_type,omitempty"`
	WalletID    string          `json:"wallet_id,omitempty"`
}

// NewCreditCard creates a pending card payment dated now. Only the last
// four digits of cardNumber are kept and the CVV argument is discarded.
func NewCreditCard(amount decimal.Decimal, cardNumber, expiryDate, _ string) (*Payment, error) {
	p, err := newPayment(amount, MethodCreditCard)
	if err != nil {
		return nil, err
	}
	p.CreditCard = &CreditCard{
		MaskedNumber: MaskCardNumber(cardNumber),
		ExpiryDate:   expiryDate,
	}
	return p, nil
}

// NewDigitalWallet creates a pending wallet payment dated now.
func NewDigitalWallet(amount decimal.Decimal, walletType, walletID string) (*Payment, error) {
	p, err := newPayment(amount, MethodDigitalWallet)
	if err != nil {
		return nil, err
	}
	p.DigitalWallet = &DigitalWallet{WalletType: walletType, WalletID: walletID}
	return p, nil
}

func newPayment(amount decimal.Decimal, m Method) (*Payment, error) {
	if amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	return &Payment{
		ID:     uuid.New().String(),
		Amount: amount,
		Date:   time.Now(),
		Status: StatusPending,
		Method: m,
	}, nil
}

// MaskCardNumber keeps the last four characters of number behind a fixed
// mask. Shorter inputs are kept whole.
func MaskCardNumber(number string) string {
	if len(number) > 4 {
		number = number[len(number)-4:]
	}
	return maskPrefix + number
}

// Details returns the display-safe view of p.
func (p *Payment) Details() Details {
	d := Details{
		PaymentID:   p.ID,
		Amount:      p.Amount,
		PaymentDate: p.Date,
		Status:      p.Status,
		PaymentType: p.Method,
	}
	if c := p.CreditCard; c != nil {
		d.CardNumber = c.MaskedNumber
		d.ExpiryDate = c.ExpiryDate
	}
	if w := p.DigitalWallet; w != nil {
		d.WalletType = w.WalletType
		d.WalletID = w.WalletID
	}
	return d
}

func (p *Payment) transition(to Status) error {
	for _, allowed := range transitions[p.Status] {
		if allowed == to {
			p.Status = to
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidTransition, "%s -> %s", p.Status, to)
}
