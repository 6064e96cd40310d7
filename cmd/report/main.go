package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/joho/godotenv"
	"github.com/subtrack/subtrack-backend/internal/app"
	"github.com/subtrack/subtrack-backend/internal/config"
	"github.com/subtrack/subtrack-backend/internal/report"
	"github.com/subtrack/subtrack-backend/internal/store"
)

type Params struct {
	Email  string `descr:"Email of the account to report on" positional:"true"`
	Format string `descr:"Output format" alts:"table,json" strict:"true" default:"table"`
}

func main() {
	boa.NewCmdT[Params]("report").
		WithShort("Print a user's subscription dashboard").
		WithLong("Loads one account's subscriptions from the database and prints totals, per-category spend and renewals due in the next 30 days.").
		WithRunFunc(func(params *Params) {
			if err := run(params); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}

func run(params *Params) error {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbpool, err := store.NewPool(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	repository := store.NewRepository(dbpool)
	user, err := repository.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(params.Email)))
	if err != nil {
		return fmt.Errorf("look up %s: %w", params.Email, err)
	}

	// Service logs would interleave with the table on stdout.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	subs, summary, err := app.NewSubscriptionService(repository, logger, nil).Snapshot(ctx, user.ID)
	if err != nil {
		return err
	}

	return report.Print(os.Stdout, params.Format, report.Dashboard{
		Email:         user.Email,
		Subscriptions: subs,
		Summary:       summary,
	})
}
