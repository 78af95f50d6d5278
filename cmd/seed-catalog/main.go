package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/raceday/internal/domain/discount"
	"github.com/xenking/raceday/internal/domain/ticket"
	"github.com/xenking/raceday/internal/storage/filestore"
)

// catalogNamespace derives stable IDs for catalog entries that carry none.
var catalogNamespace = uuid.MustParse("6f1c3e0a-52b4-4d8e-9a47-1b2f0c8d7e91")

type catalogJSON struct {
	Tickets   []ticketJSON   `json:"tickets"`
	Discounts []discountJSON `json:"discounts"`
}

type ticketJSON struct {
	ID               string                   `json:"id,omitempty"`
	SingleRace       *ticket.SingleRace       `json:"single_race,omitempty"`
	WeekendPackage   *ticket.WeekendPackage   `json:"weekend_package,omitempty"`
	SeasonMembership *ticket.SeasonMembership `json:"season_membership,omitempty"`
}

// ticketID returns the explicit ID, or one derived from the entry contents
// so that identical entries map to the same ticket on every run.
func (e ticketJSON) ticketID() (string, error) {
	if e.ID != "" {
		return e.ID, nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(catalogNamespace, raw).String(), nil
}

type discountJSON struct {
	Code       string `json:"code"`
	Percentage int    `json:"percentage"`
	Active     *bool  `json:"active"`
}

func main() {
	var (
		dataDir     string
		catalogFile string
		compress    bool
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory holding the collection files")
	flag.StringVar(&catalogFile, "catalog-file", "seed/catalog.json", "path to catalog JSON file")
	flag.BoolVar(&compress, "compress", true, "gzip-compress collection files on write")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = zctx.Base(ctx, lg)

	if err := run(ctx, lg, dataDir, catalogFile, compress); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		os.Exit(1)
	}

	lg.Info("Seed completed successfully")
}

func run(ctx context.Context, lg *zap.Logger, dataDir, catalogFile string, compress bool) error {
	lg.Info("Reading catalog file", zap.String("path", catalogFile))

	cat, err := readCatalog(catalogFile)
	if err != nil {
		return err
	}

	store, err := filestore.Open(ctx, dataDir, filestore.Options{Compress: compress, Logger: lg.Named("filestore")})
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	return seed(ctx, lg, store, cat)
}

func readCatalog(path string) (catalogJSON, error) {
	var cat catalogJSON
	data, err := os.ReadFile(path)
	if err != nil {
		return cat, errors.Wrap(err, "read catalog file")
	}
	if err := json.Unmarshal(data, &cat); err != nil {
		return cat, errors.Wrap(err, "parse catalog JSON")
	}
	return cat, nil
}

func seed(ctx context.Context, lg *zap.Logger, store *filestore.Store, cat catalogJSON) error {
	if err := seedTickets(ctx, lg, ticket.NewCatalog(store.Tickets()), cat.Tickets); err != nil {
		return errors.Wrap(err, "seed tickets")
	}
	if err := seedDiscounts(ctx, lg, discount.NewService(store.Discounts()), cat.Discounts); err != nil {
		return errors.Wrap(err, "seed discounts")
	}
	return nil
}

func seedTickets(ctx context.Context, lg *zap.Logger, catalog *ticket.Catalog, entries []ticketJSON) error {
	lg.Info("Issuing tickets", zap.Int("count", len(entries)))

	var issued, skipped int
	for i, e := range entries {
		id, err := e.ticketID()
		if err != nil {
			return errors.Wrapf(err, "ticket #%d id", i)
		}
		_, exists, err := catalog.Get(ctx, id)
		if err != nil {
			return err
		}
		if exists {
			skipped++
			lg.Debug("Ticket already present", zap.String("id", id))
			continue
		}

		t, err := catalog.Issue(ctx, ticket.Spec{
			ID:               id,
			SingleRace:       e.SingleRace,
			WeekendPackage:   e.WeekendPackage,
			SeasonMembership: e.SeasonMembership,
		})
		if err != nil {
			return errors.Wrapf(err, "issue ticket #%d", i)
		}
		issued++

		lg.Info("Issued ticket",
			zap.String("id", t.ID),
			zap.String("name", t.Name),
			zap.Stringer("price", t.Price()),
		)
	}

	lg.Info("Tickets seeded", zap.Int("issued", issued), zap.Int("skipped", skipped))
	return nil
}

func seedDiscounts(ctx context.Context, lg *zap.Logger, discounts *discount.Service, entries []discountJSON) error {
	lg.Info("Seeding discount codes", zap.Int("count", len(entries)))

	for _, e := range entries {
		if _, err := discounts.Create(ctx, e.Code, e.Percentage); err != nil {
			return errors.Wrapf(err, "create discount %s", e.Code)
		}
		if e.Active != nil && !*e.Active {
			if _, err := discounts.SetActive(ctx, e.Code, false); err != nil {
				return errors.Wrapf(err, "deactivate discount %s", e.Code)
			}
		}

		lg.Info("Upserted discount", zap.String("code", e.Code), zap.Int("percentage", e.Percentage))
	}
	return nil
}
