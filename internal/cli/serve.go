package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	httpDelivery "github.com/pricelens/backend/internal/delivery/http"
	"github.com/pricelens/backend/internal/infrastructure/cache"
	"github.com/pricelens/backend/internal/logging"
)

const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the 'serve' command that runs the HTTP API.
func NewServeCmd(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the price resolution HTTP API",
		Long: `Load the trained model and historical store, then serve
POST /api/v1/price/predict (and the legacy POST /predict_price/) until interrupted.`,
		Example: `  pricelens serve
  PRICELENS_SEARCH_API_KEY=... pricelens serve --config ./config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunServe(cmd.Context(), opts)
		},
	}
}

// RunServe runs the HTTP server until ctx is cancelled or SIGINT/SIGTERM arrives
func RunServe(ctx context.Context, opts *GlobalOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("version", httpDelivery.Version).
		Str("environment", cfg.Server.Environment).
		Str("history_driver", cfg.History.Driver).
		Bool("search_enabled", cfg.Search.APIKey != "").
		Msg("Starting PriceLens backend")

	eng, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	limiters := cache.NewMemoryCache[*rate.Limiter](time.Minute)
	defer limiters.Close()

	handler := httpDelivery.NewHandler(eng.prices)
	router := httpDelivery.SetupRouter(cfg, handler, limiters)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
