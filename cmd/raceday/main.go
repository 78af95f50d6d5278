// Command raceday bootstraps the ticketing data directory: it creates the
// collection files, seeds the default discount codes and registers the
// configured admin account.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	raceday "github.com/xenking/raceday/internal/app"
)

func main() {
	app.Run(run)
}

func run(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
	cfg, err := raceday.LoadConfig()
	if err != nil {
		return errors.Wrap(err, "config")
	}
	lg.Info("Config loaded",
		zap.String("data_dir", cfg.DataDir),
		zap.Bool("compress", cfg.Compress),
		zap.Bool("bootstrap_admin", cfg.Admin.Username != ""),
	)
	return raceday.Run(ctx, lg, m, cfg)
}
