// Package cli holds the cobra commands of the pricelens binary.
package cli

import (
	"context"
	"fmt"

	"github.com/pricelens/backend/config"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/artifacts"
	"github.com/pricelens/backend/internal/infrastructure/history"
	"github.com/pricelens/backend/internal/infrastructure/zenserp"
	"github.com/pricelens/backend/internal/logging"
	"github.com/pricelens/backend/internal/usecase"
)

// GlobalOptions are the flags shared by every command
type GlobalOptions struct {
	ConfigFile string
}

// historyStore is what the commands need from a historical price backend
type historyStore interface {
	domain.HistoricalStore
	domain.HistoricalImporter
	Close() error
}

// loadConfig reads configuration and initializes the global logger from it
func loadConfig(opts *GlobalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	return cfg, nil
}

// openStore connects the configured historical store backend
func openStore(ctx context.Context, cfg config.HistoryConfig) (historyStore, error) {
	switch cfg.Driver {
	case "postgres":
		return history.NewPostgresStore(ctx, cfg.DSN, cfg.MaxConns)
	case "sqlite", "":
		return history.NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}

// newSearchProvider returns nil when no API key is configured, which disables searching
func newSearchProvider(cfg config.SearchConfig) domain.SearchProvider {
	if cfg.APIKey == "" {
		logging.Warn().Msg("Search API key not configured, marketplace links fall back to search pages")
		return nil
	}

	return zenserp.NewClient(zenserp.Config{
		APIKey:                  cfg.APIKey,
		BaseURL:                 cfg.BaseURL,
		Location:                cfg.Location,
		SearchEngine:            cfg.SearchEngine,
		NumResults:              cfg.NumResults,
		Timeout:                 cfg.Timeout,
		RequestsPerSecond:       cfg.RequestsPerSecond,
		Burst:                   cfg.Burst,
		MaxRetries:              cfg.MaxRetries,
		BreakerFailureThreshold: cfg.BreakerFailureThreshold,
		BreakerOpenTimeout:      cfg.BreakerOpenTimeout,
	})
}

// marketplaceConfig converts the routing table from its config shape
func marketplaceConfig(cfg *config.Config) usecase.MarketplaceConfig {
	policy := make(map[string][]usecase.Route, len(cfg.Marketplace.Policy))
	for condition, routes := range cfg.Marketplace.Policy {
		converted := make([]usecase.Route, 0, len(routes))
		for _, r := range routes {
			converted = append(converted, usecase.Route{
				Slot:        r.Slot,
				Kind:        usecase.RouteKind(r.Kind),
				Domain:      r.Domain,
				FallbackURL: r.FallbackURL,
			})
		}
		policy[condition] = converted
	}

	return usecase.MarketplaceConfig{
		Policy:                    policy,
		BrandStoreTemplates:       cfg.Marketplace.BrandStoreTemplates,
		BlacklistedLinkSubstrings: cfg.Search.BlacklistedLinkSubstrings,
		DomainTimeout:             cfg.Search.DomainTimeout,
		MaxConcurrency:            cfg.Marketplace.MaxConcurrency,
	}
}

// engine is a fully wired price service plus what must be released afterwards
type engine struct {
	prices *usecase.PriceService
	store  historyStore
}

// newEngine loads the model artifacts, opens the store and wires the price service
func newEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	trained, err := artifacts.Shared(cfg.Artifacts.Path)
	if err != nil {
		return nil, fmt.Errorf("load model artifacts: %w", err)
	}

	store, err := openStore(ctx, cfg.History)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	// a store that cannot be prepared only degrades lookups to misses
	if err := store.EnsureSchema(ctx); err != nil {
		logging.Warn().Err(err).Str("driver", cfg.History.Driver).Msg("History store schema check failed")
	}

	marketplace := usecase.NewMarketplaceService(newSearchProvider(cfg.Search), marketplaceConfig(cfg))

	return &engine{
		prices: usecase.NewPriceService(store, trained.Codec, trained.Forest, marketplace),
		store:  store,
	}, nil
}

func (e *engine) Close() {
	if err := e.store.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close history store")
	}
}
