package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tibiantis-tools/deathwatch/internal/handlers"
	"github.com/tibiantis-tools/deathwatch/internal/scheduler"
	"github.com/tibiantis-tools/deathwatch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracking service",
	Long: `Starts the HTTP API, runs database migrations and begins the
periodic death-check cycle once the notification channel is ready.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := buildApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	// The Discord channel doubles as the readiness gate; the log
	// channel needs none.
	var gate scheduler.Gate
	if g, ok := a.killsCh.(scheduler.Gate); ok {
		gate = g
	}

	sched := scheduler.NewScheduler(a.svc, gate, scheduler.Config{
		Interval: time.Duration(a.cfg.Tracker.IntervalMinutes) * time.Minute,
	}, a.log)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	h := handlers.NewHandler(a.svc, a.log)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      server.NewRouter(h),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("deathwatch listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.log.Info("server stopped gracefully")
	return nil
}
