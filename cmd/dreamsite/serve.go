package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dreamsite/internal/history"
	"dreamsite/internal/ticker"
	"dreamsite/internal/web"
	"dreamsite/logger"
	"dreamsite/pkg/dexscreener"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the market ticker",
	RunE:  runServe,
}

// sweepInterval checks for idle tabs a few times per idle timeout.
func sweepInterval(idle time.Duration) time.Duration {
	iv := idle / 4
	if iv < time.Second {
		iv = time.Second
	}
	return iv
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// viper config
	cfg, err := resolveConfig(ctx)
	if err != nil {
		return err
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	b, err := openBackend(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("closing backend", zap.Error(err))
		}
	}()

	source := dexscreener.NewRESTClient(cfg.Ticker.BaseURL, cfg.Ticker.Timeout)
	poller := ticker.NewPoller(source, ticker.Options{
		TokenAddress: cfg.Ticker.TokenAddress,
		Interval:     cfg.Ticker.Interval,
		Timeout:      cfg.Ticker.Timeout,
	}, log)
	var quotes web.History
	if b.Postgres != nil {
		unsubscribe := poller.Subscribe(history.MakeRecorder(log, cfg.Ticker.TokenAddress, b.Postgres))
		defer unsubscribe()
		quotes = history.NewReader(b.Postgres, cfg.Ticker.TokenAddress)

		if cfg.Ticker.HistoryRetention > 0 {
			pruner := history.NewPruner(b.Postgres, cfg.Ticker.HistoryRetention, cfg.Ticker.PruneInterval, log)
			pruner.Start(ctx)
			defer pruner.Stop()
		}
	}
	poller.Start(ctx)
	defer poller.Stop()

	tabs := web.NewTabStore(web.TabOptions{IdleTimeout: cfg.Server.TabIdleTimeout}, b.Factory, log)
	tabs.StartSweeper(sweepInterval(cfg.Server.TabIdleTimeout), func(n int) {
		log.Debug("idle tabs evicted", zap.Int("count", n))
	})
	defer tabs.Close()

	server := web.NewServer(web.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		CookieSecure:   cfg.Server.CookieSecure,
		SubmitRate:     cfg.Server.SubmitRate,
		SubmitWindow:   cfg.Server.SubmitWindow,
		History:        quotes,
	}, poller, tabs, log)
	defer server.Close()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutCtx)
}
