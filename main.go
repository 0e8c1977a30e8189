package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ViniZap4/tonote-server/auth"
	"github.com/ViniZap4/tonote-server/config"
	httphandlers "github.com/ViniZap4/tonote-server/http"
	"github.com/ViniZap4/tonote-server/logging"
	"github.com/ViniZap4/tonote-server/mail"
	"github.com/ViniZap4/tonote-server/store"
	"github.com/ViniZap4/tonote-server/store/memory"
	"github.com/ViniZap4/tonote-server/ws"
)

// backend is everything the server persists.
type backend interface {
	httphandlers.Store
	auth.Store
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "tonote",
		Short:         "ToNote notes server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), envFile)
		},
	})
	root.AddCommand(newMigrateCmd(&envFile), newExportCmd(&envFile), newImportCmd(&envFile))
	return root
}

func setup(envFile string) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat), nil
}

func openBackend(ctx context.Context, cfg config.Config, log zerolog.Logger) (backend, func(), error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	if cfg.MigrateOnStart {
		if err := store.MigrateUp(cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
	}
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}

func newMailer(cfg config.Config, log zerolog.Logger) (mail.Mailer, error) {
	if !cfg.MailEnabled() {
		log.Warn().Msg("TONOTE_SMTP_HOST not set; emails are written to the log")
		return mail.NewLogMailer(log), nil
	}
	return mail.NewSMTPMailer(cfg.SMTP)
}

func runServe(ctx context.Context, envFile string) error {
	cfg, log, err := setup(envFile)
	if err != nil {
		return err
	}

	db, closeDB, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	mailer, err := newMailer(cfg, log)
	if err != nil {
		return err
	}
	authSvc := auth.NewService(db, mailer, cfg.Auth, log)
	if cfg.GoogleEnabled() {
		authSvc.WithGoogle(auth.NewGoogleProvider(cfg.Google))
	}

	hub := ws.NewHub(log)
	srv := httphandlers.NewServer(db, authSvc, hub, log, httphandlers.Options{
		AllowOrigins:  cfg.AllowOrigins,
		AppURL:        cfg.Auth.AppURL,
		SecureCookies: strings.HasPrefix(cfg.Auth.AppURL, "https://"),
	})
	app := srv.App()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage).Msg("server starting")
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
