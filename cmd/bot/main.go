package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dchirkin/provcore/internal/api"
	"github.com/dchirkin/provcore/internal/gateway"
	"github.com/dchirkin/provcore/internal/infra/logging"
	"github.com/dchirkin/provcore/internal/infra/pgutils"
	"github.com/dchirkin/provcore/internal/metrics"
	"github.com/dchirkin/provcore/internal/notify"
	"github.com/dchirkin/provcore/internal/notify/telegram"
	"github.com/dchirkin/provcore/internal/provision"
	"github.com/dchirkin/provcore/internal/services/orders"
	"github.com/dchirkin/provcore/internal/services/reconcile"
	"github.com/dchirkin/provcore/pkg/envconf"
	"github.com/dchirkin/provcore/pkg/schedule"
	"github.com/dchirkin/provcore/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running bot: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	_ = godotenv.Load()

	cfg := new(botConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON("bot", cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		slog.Info("Close db pool")
		return db.Close()
	})

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Telegram.Token != "" {
		notifier, err = telegram.New(cfg.Telegram.Token)
		if err != nil {
			return fmt.Errorf("init telegram notifier: %w", err)
		}
	}

	var verifier reconcile.Verifier
	if cfg.Gateway.BaseURL != "" {
		verifier = gateway.New(cfg.Gateway)
	}

	// --- Services ---
	reconcileSrv := reconcile.New(db, verifier, notifier, cfg.Postgres.OpTimeout)
	ordersSrv := orders.New(db, provision.NewRunner(cfg.Provision), notifier,
		cfg.Orders, cfg.Telegram.AdminChatID, cfg.Postgres.OpTimeout)

	// --- Background jobs ---
	sched := schedule.New(func(job string, elapsed time.Duration, err error) {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.JobPasses.WithLabelValues(job, result).Inc()
		metrics.JobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
	})

	if verifier != nil {
		sched.Add(schedule.Job{
			Name:         "deposit_check",
			Interval:     cfg.Scheduler.DepositCheckInterval,
			InitialDelay: cfg.Scheduler.DepositCheckDelay,
			Run:          reconcileSrv.CheckPending,
		})
	} else {
		slog.Warn("gateway not configured, deposit check pass disabled")
	}

	sched.Add(schedule.Job{
		Name:         "order_expire",
		Interval:     cfg.Scheduler.ExpireInterval,
		InitialDelay: cfg.Scheduler.ExpireDelay,
		Run:          ordersSrv.ExpireDue,
	})
	sched.Add(schedule.Job{
		Name:         "renewal_check",
		Interval:     cfg.Scheduler.RenewalInterval,
		InitialDelay: cfg.Scheduler.RenewalDelay,
		Run:          ordersSrv.CheckRenewals,
	})
	sched.Add(schedule.Job{
		Name:         "lock_cleanup",
		Interval:     cfg.Scheduler.LockCleanupInterval,
		InitialDelay: cfg.Scheduler.LockCleanupDelay,
		Run:          ordersSrv.CleanupLocks,
	})

	sched.Start(ctx)

	shutdownqueue.Add(func(context.Context) error {
		slog.Info("Wait for background jobs")
		sched.Wait()
		return nil
	})

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, reconcileSrv, ordersSrv)

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("Bot engine started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
