package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"namaz-tracker/internal/calendar"
	"namaz-tracker/internal/client/api"
	repl "namaz-tracker/internal/client/cli"
	"namaz-tracker/internal/config"
	"namaz-tracker/internal/frontend"
	"namaz-tracker/internal/models"
	"namaz-tracker/internal/prayers"
)

func setupLogger(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if env == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

func main() {
	app := &cli.App{
		Name:  "namaz",
		Usage: "track the five daily prayers from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Usage: "tracker server URL (overrides SERVER_URL)"},
			&cli.StringFlag{Name: "tz", Usage: "IANA time zone used for calendar days (overrides TIMEZONE)"},
			&cli.IntFlag{Name: "days", Usage: "default history window (overrides HISTORY_DAYS)"},
			&cli.StringFlag{Name: "history-query", Usage: "history fetch strategy: range or recent"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("client stopped")
	}
}

func run(c *cli.Context) error {
	cfg := config.LoadClient()
	if c.IsSet("server") {
		cfg.ServerURL = c.String("server")
	}
	if c.IsSet("tz") {
		cfg.TimeZone = c.String("tz")
	}
	if c.IsSet("days") {
		cfg.HistoryDays = c.Int("days")
	}
	if c.IsSet("history-query") {
		cfg.HistoryQuery = c.String("history-query")
	}
	setupLogger(cfg.Env)

	loc, err := calendar.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid time zone: %w", err)
	}

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := api.New(cfg.ServerURL, cfg.RequestTimeout)
	set := prayerSet(ctx, client, cfg.Prayers)

	ui := frontend.New(frontend.Options{
		Store:          client,
		Auth:           client,
		Prayers:        set,
		Location:       loc,
		HistoryDays:    cfg.HistoryDays,
		HistoryOptions: cfg.HistoryOptions,
		HistoryQuery:   cfg.HistoryQuery,
		BannerTTL:      cfg.BannerTTL,
		RequestTimeout: cfg.RequestTimeout,
		OnRender: func(v frontend.View) {
			fmt.Println()
			fmt.Print(frontend.Render(v))
			fmt.Print("namaz> ")
		},
	})
	client.OnAuthStateChanged(ui.AuthChanged)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCancel(ui.Run(gctx))
	})
	g.Go(func() error {
		return ignoreCancel(client.Subscribe(gctx, func(ev models.SessionEvent) {
			ui.Post(frontend.RecordChanged{Event: ev})
		}))
	})
	g.Go(func() error {
		defer cancel()
		return repl.RunREPL(gctx, ui, bufio.NewReader(os.Stdin), os.Stdout)
	})
	return g.Wait()
}

// prayerSet prefers the server's item list so both ends agree on names.
func prayerSet(ctx context.Context, client *api.Client, fallback []string) prayers.Set {
	if names, err := client.Items(ctx); err == nil {
		if set, err := prayers.NewSet(names); err == nil {
			return set
		}
	} else {
		log.Warn().Err(err).Msg("could not fetch prayer list, using local configuration")
	}
	set, err := prayers.NewSet(fallback)
	if err != nil {
		log.Warn().Err(err).Msg("invalid PRAYERS, using defaults")
		return prayers.Default()
	}
	return set
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
