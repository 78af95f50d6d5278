package ticket

import (
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Seat types with a surcharge. Any other seat type pays the base price.
const (
	SeatVIP     = "VIP"
	SeatPremium = "Premium"
)

// Membership levels. Unrecognized levels are priced as Bronze.
const (
	LevelGold   = "Gold"
	LevelSilver = "Silver"
	LevelBronze = "Bronze"
)

var (
	singleRaceBase   = decimal.NewFromFloat(150.0)
	singleRacePrem   = decimal.NewFromFloat(250.0)
	singleRaceVIP    = decimal.NewFromFloat(300.0)
	weekendBase      = decimal.NewFromFloat(350.0)
	weekendParking   = decimal.NewFromFloat(50.0)
	seasonGoldPrice  = decimal.NewFromFloat(2000.0)
	seasonSilvPrice  = decimal.NewFromFloat(1500.0)
	seasonBronzPrice = decimal.NewFromFloat(1000.0)
)

// SingleRace is admission to one race day.
type SingleRace struct {
	RaceDate string `json:"race_date"`
	RaceName string `json:"race_name"`
	SeatType string `json:"seat_type"`
}

// WeekendPackage is admission to every race of an event weekend.
type WeekendPackage struct {
	WeekendDates    string `json:"weekend_dates"`
	EventName       string `json:"event_name"`
	IncludesParking bool   `json:"includes_parking"`
}

// SeasonMembership is admission to every race of a season.
type SeasonMembership struct {
	SeasonYear string `json:"season_year"`
	Level      string `json:"level"`
}

// Spec selects exactly one variant to issue. ID, when set, is used instead
// of a fresh one.
type Spec struct {
	ID               string
	SingleRace       *SingleRace
	WeekendPackage   *WeekendPackage
	SeasonMembership *SeasonMembership
}

// New builds a ticket from spec.
func New(spec Spec) (*Ticket, error) {
	var t *Ticket
	switch {
	case spec.SingleRace != nil:
		t = NewSingleRace(*spec.SingleRace)
	case spec.WeekendPackage != nil:
		t = NewWeekendPackage(*spec.WeekendPackage)
	case spec.SeasonMembership != nil:
		t = NewSeasonMembership(*spec.SeasonMembership)
	default:
		return nil, ErrUnknownKind
	}
	if spec.ID != "" {
		t.ID = spec.ID
	}
	return t, nil
}

// NewSingleRace issues a single race ticket.
func NewSingleRace(p SingleRace) *Ticket {
	t := newTicket(KindSingleRace, "Single Race Pass", "Access to "+p.RaceName+" on "+p.RaceDate, p.details())
	t.SingleRace = &p
	return t
}

// NewWeekendPackage issues a weekend package ticket.
func NewWeekendPackage(p WeekendPackage) *Ticket {
	t := newTicket(KindWeekendPackage, "Weekend Package", "Full access to "+p.EventName+" weekend events", p.details())
	t.WeekendPackage = &p
	return t
}

// NewSeasonMembership issues a season membership ticket.
func NewSeasonMembership(p SeasonMembership) *Ticket {
	t := newTicket(KindSeasonMembership,
		p.Level+" Season Membership",
		"Full season access for "+p.SeasonYear+" with "+p.Level+" benefits",
		p.details(),
	)
	t.SeasonMembership = &p
	return t
}

// priced recomputes the details of t from its variant parameters. It fails
// with ErrUnknownKind when the Kind tag and the variant disagree.
func (t *Ticket) priced() (Details, error) {
	switch {
	case t.Kind == KindSingleRace && t.SingleRace != nil:
		return t.SingleRace.details(), nil
	case t.Kind == KindWeekendPackage && t.WeekendPackage != nil:
		return t.WeekendPackage.details(), nil
	case t.Kind == KindSeasonMembership && t.SeasonMembership != nil:
		return t.SeasonMembership.details(), nil
	default:
		return Details{}, errors.Wrapf(ErrUnknownKind, "kind %q", t.Kind)
	}
}

func newTicket(kind Kind, name, description string, d Details) *Ticket {
	return &Ticket{
		ID:          uuid.New().String(),
		Kind:        kind,
		Name:        name,
		Description: description,
		Details:     d,
	}
}

func (p SingleRace) details() Details {
	price := singleRaceBase
	switch p.SeatType {
	case SeatVIP:
		price = singleRaceVIP
	case SeatPremium:
		price = singleRacePrem
	}
	return Details{
		Price:    price,
		Validity: "Valid only on " + p.RaceDate,
		Features: []string{
			"Access to " + p.RaceName,
			p.SeatType + " seating",
			"Race program",
		},
	}
}

func (p WeekendPackage) details() Details {
	price := weekendBase
	features := []string{
		"Access to all weekend races",
		"Pit lane walk",
		"Driver autograph session",
	}
	if p.IncludesParking {
		price = price.Add(weekendParking)
		features = append(features, "Weekend parking pass")
	}
	return Details{
		Price:    price,
		Validity: "Valid from " + p.WeekendDates,
		Features: features,
	}
}

func (p SeasonMembership) details() Details {
	d := Details{Validity: "Valid for entire " + p.SeasonYear + " season"}
	switch p.Level {
	case LevelGold:
		d.Price = seasonGoldPrice
		d.Features = []string{
			"Access to all season races",
			"VIP seating at all events",
			"Exclusive paddock access",
			"Meet and greet with drivers",
			"Complimentary parking for all events",
			"Season merchandise pack",
		}
	case LevelSilver:
		d.Price = seasonSilvPrice
		d.Features = []string{
			"Access to all season races",
			"Premium seating at all events",
			"Paddock access for 3 races",
			"Complimentary parking for 5 events",
			"Season merchandise pack",
		}
	default:
		d.Price = seasonBronzPrice
		d.Features = []string{
			"Access to all season races",
			"Standard seating at all events",
			"Paddock access for 1 race",
			"Season merchandise pack",
		}
	}
	return d
}
