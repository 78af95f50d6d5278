package ticket

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested ticket does not exist.
	ErrNotFound = errors.New("ticket not found")
	// ErrUnknownKind is returned for a Spec that selects no variant.
	ErrUnknownKind = errors.New("unknown ticket kind")
	// ErrPriceChange is returned when an update would change a ticket's
	// kind or price.
	ErrPriceChange = errors.New("ticket kind and price are fixed at issue")
)

// Kind tags the ticket variant.
type Kind string

const (
	KindSingleRace       Kind = "single_race"
	KindWeekendPackage   Kind = "weekend_package"
	KindSeasonMembership Kind = "season_membership"
)

// Details holds the priced, descriptive part of a ticket.
type Details struct {
	Price    decimal.Decimal `json:"price"`
	Validity string          `json:"validity"`
	Features []string        `json:"features"`
}

// Ticket is an issued ticket. It is not modified after construction; the
// variant parameters it was priced from are kept alongside the result.
type Ticket struct {
	ID          string  `json:"ticket_id"`
	Kind        Kind    `json:"kind"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Details     Details `json:"details"`

	SingleRace       *SingleRace       `json:"single_race,omitempty"`
	WeekendPackage   *WeekendPackage   `json:"weekend_package,omitempty"`
	SeasonMembership *SeasonMembership `json:"season_membership,omitempty"`
}

// Price returns the ticket price.
func (t *Ticket) Price() decimal.Decimal { return t.Details.Price }

// Validity returns the human-readable validity window.
func (t *Ticket) Validity() string { return t.Details.Validity }

// Features returns a copy of the feature list.
func (t *Ticket) Features() []string {
	return append([]string(nil), t.Details.Features...)
}

// Repository defines persistence operations for issued tickets.
type Repository interface {
	Put(ctx context.Context, t *Ticket) error
	Get(ctx context.Context, id string) (*Ticket, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) (map[string]*Ticket, error)
}
