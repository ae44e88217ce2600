package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"propertyhub/app"
	"propertyhub/config"
	"propertyhub/service/scheduler"
	"propertyhub/util/database"
	"propertyhub/util/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "propertyhub",
		Short:         "Property rental back office: units, tenants, leases and rental requests",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(serveCmd(), jobCmd("expire-leases", "Expire ACTIVE leases whose end date has passed"),
		jobCmd("mark-overdue", "Mark unpaid invoices past their due date as OVERDUE"), migrateCmd())
	return root
}

// setup loads config and the logger shared by every command.
func setup() (config.App, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "propertyhub")
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the notification worker and the scheduled sweeps",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := app.Build(ctx, cfg, log)
			if err != nil {
				log.Error("startup failed", zap.Error(err))
				return err
			}
			defer c.Close(context.Background())

			sched := scheduler.New(c.Locker, log)
			for _, j := range c.Jobs() {
				if err := sched.Add(j); err != nil {
					return err
				}
			}
			sched.Start()

			worker := c.Worker()
			if worker != nil {
				if err := worker.Start(c.WorkerMux()); err != nil {
					return fmt.Errorf("start worker: %w", err)
				}
			}

			e := c.Echo()
			errc := make(chan error, 1)
			go func() {
				log.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
				if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err = <-errc:
				log.Error("server stopped", zap.Error(err))
			}

			shutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if serr := e.Shutdown(shutdown); serr != nil {
				log.Warn("http shutdown", zap.Error(serr))
			}
			sched.Stop(shutdown)
			if worker != nil {
				worker.Shutdown()
			}
			log.Info("stopped")
			return err
		},
	}
}

// jobCmd runs one sweep immediately.
func jobCmd(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			c, err := app.Build(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer c.Close(context.Background())

			for _, j := range c.Jobs() {
				if j.Name != name {
					continue
				}
				n, err := j.Run(cmd.Context())
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d updated\n", name, n)
				return nil
			}
			return fmt.Errorf("unknown job %q", name)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			if err := cfg.RequireDB(); err != nil {
				return err
			}

			db, err := database.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info("schema applied")
			return nil
		},
	}
}
