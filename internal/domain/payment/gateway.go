package payment

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// ErrDeclined is returned by Process when the gateway refuses the charge.
var ErrDeclined = errors.New("payment declined")

// Gateway charges a payment with an external provider. A nil error means
// the charge went through.
type Gateway interface {
	Charge(ctx context.Context, p *Payment) error
}

// StubGateway accepts every charge without contacting anyone.
type StubGateway struct{}

var _ Gateway = StubGateway{}

// Charge always succeeds.
func (StubGateway) Charge(context.Context, *Payment) error { return nil }

// Process charges p through gw. On success p becomes Completed; when the
// gateway reports an error p becomes Failed and the returned error wraps
// ErrDeclined. Only a Pending payment can be processed.
func Process(ctx context.Context, gw Gateway, p *Payment) error {
	if p.Status != StatusPending {
		return errors.Wrapf(ErrInvalidTransition, "process %s payment", p.Status)
	}
	lg := zctx.From(ctx).With(
		zap.String("payment_id", p.ID),
		zap.String("payment_type", string(p.Method)),
	)
	if err := gw.Charge(ctx, p); err != nil {
		if tErr := p.transition(StatusFailed); tErr != nil {
			return tErr
		}
		lg.Warn("Payment failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrDeclined, err)
	}
	if err := p.transition(StatusCompleted); err != nil {
		return err
	}
	lg.Info("Payment completed", zap.Stringer("amount", p.Amount))
	return nil
}
