package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Search      SearchConfig
	History     HistoryConfig
	Artifacts   ArtifactsConfig
	Marketplace MarketplaceConfig
	RateLimit   RateLimitConfig
	Logging     LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SearchConfig holds search provider configuration.
// An empty APIKey disables marketplace search.
type SearchConfig struct {
	APIKey                    string        `mapstructure:"api_key"`
	BaseURL                   string        `mapstructure:"base_url" validate:"required,url"`
	Location                  string        `mapstructure:"location"`
	SearchEngine              string        `mapstructure:"search_engine"`
	NumResults                int           `mapstructure:"num_results" validate:"gte=1,lte=100"`
	Timeout                   time.Duration `mapstructure:"timeout"`
	DomainTimeout             time.Duration `mapstructure:"domain_timeout"`
	RequestsPerSecond         float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst                     int           `mapstructure:"burst" validate:"gte=1"`
	MaxRetries                int           `mapstructure:"max_retries" validate:"gte=1"`
	BlacklistedLinkSubstrings []string      `mapstructure:"blacklisted_link_substrings"`
	BreakerFailureThreshold   uint32        `mapstructure:"breaker_failure_threshold" validate:"gte=1"`
	BreakerOpenTimeout        time.Duration `mapstructure:"breaker_open_timeout"`
}

// HistoryConfig selects the historical price store
type HistoryConfig struct {
	Driver   string `mapstructure:"driver"` // "sqlite" or "postgres"
	Path     string `mapstructure:"path"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
}

// ArtifactsConfig points at the trained codec and model
type ArtifactsConfig struct {
	Path string `mapstructure:"path"`
}

// RouteConfig is one condition routing entry
type RouteConfig struct {
	Slot        string `mapstructure:"slot" validate:"required"`
	Kind        string `mapstructure:"kind" validate:"required,oneof=marketplace official_store"`
	Domain      string `mapstructure:"domain" validate:"required_if=Kind marketplace"`
	FallbackURL string `mapstructure:"fallback_url"`
}

// MarketplaceConfig holds the condition routing table and brand store templates
type MarketplaceConfig struct {
	Policy              map[string][]RouteConfig `mapstructure:"policy" validate:"dive,dive"`
	BrandStoreTemplates map[string]string        `mapstructure:"brand_store_templates"`
	MaxConcurrency      int                      `mapstructure:"max_concurrency" validate:"gte=0"`
}

// RateLimitConfig holds inbound rate limiting configuration
type RateLimitConfig struct {
	PerIP   int           `mapstructure:"per_ip"` // requests per minute, 0 disables
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from environment variables and config files.
// A non-empty configFile is read instead of searching the default paths.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/pricelens/")
	}

	// Environment variable settings: PRICELENS_SEARCH_API_KEY -> search.api_key
	v.SetEnvPrefix("PRICELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional when searching default paths)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	applyMarketplaceDefaults(&config.Marketplace)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Search defaults
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.base_url", "https://app.zenserp.com/api/v2/search")
	v.SetDefault("search.location", "United States")
	v.SetDefault("search.search_engine", "google.com")
	v.SetDefault("search.num_results", 5)
	v.SetDefault("search.timeout", "10s")
	v.SetDefault("search.domain_timeout", "8s")
	v.SetDefault("search.requests_per_second", 5)
	v.SetDefault("search.burst", 10)
	v.SetDefault("search.max_retries", 3)
	v.SetDefault("search.blacklisted_link_substrings", []string{
		"google.com/shopping/product",
		"webcache.googleusercontent.com",
	})
	v.SetDefault("search.breaker_failure_threshold", 5)
	v.SetDefault("search.breaker_open_timeout", "30s")

	// History defaults
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.path", "clothing_db.sqlite")
	v.SetDefault("history.dsn", "")
	v.SetDefault("history.max_conns", 10)

	v.SetDefault("artifacts.path", "artifacts.json")

	// Marketplace defaults
	v.SetDefault("marketplace.max_concurrency", 4)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.idle_ttl", "10m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// DefaultPolicy routes new items to the general marketplace, the brand store and a
// secondary retailer, and used items to the resale marketplace.
func DefaultPolicy() map[string][]RouteConfig {
	return map[string][]RouteConfig{
		"new": {
			{Slot: "amazon", Kind: "marketplace", Domain: "amazon.com", FallbackURL: "https://www.amazon.com/s?k={query}"},
			{Slot: "official_store", Kind: "official_store"},
			{Slot: "shein", Kind: "marketplace", Domain: "shein.com", FallbackURL: "https://www.shein.com/search?q={query}"},
		},
		"used": {
			{Slot: "ebay", Kind: "marketplace", Domain: "ebay.com", FallbackURL: "https://www.ebay.com/sch/i.html?_nkw={query}"},
		},
	}
}

// DefaultBrandStoreTemplates maps brands to their store search pages; the query is appended
func DefaultBrandStoreTemplates() map[string]string {
	return map[string]string{
		"adidas":    "https://www.adidas.com/us/search?q=",
		"nike":      "https://www.nike.com/w?q=",
		"h&m":       "https://www2.hm.com/en_us/search-results.html?q=",
		"zara":      "https://www.zara.com/us/en/search?searchTerm=",
		"shein":     "https://www.shein.com/search?q=",
		"gucci":     "https://www.gucci.com/us/en/search?searchTerm=",
		"dior":      "https://www.dior.com/en_us/fashion/search/",
		"forever21": "https://www.forever21.com/us/shop/search.html?q=",
		"pull&bear": "https://www.pullandbear.com/us/search?term=",
		"armani":    "https://www.armani.com/en-us/search?q=",
		"lacoste":   "https://www.lacoste.com/us/search/?q=",
		"gap":       "https://www.gap.com/browse/search.do?searchText=",
		"levis":     "https://www.levi.com/US/en_US/search?q=",
	}
}

// applyMarketplaceDefaults fills conditions and brands the config file leaves out.
// Configured entries win over defaults.
func applyMarketplaceDefaults(m *MarketplaceConfig) {
	if m.Policy == nil {
		m.Policy = make(map[string][]RouteConfig)
	}
	for condition, routes := range DefaultPolicy() {
		if _, ok := m.Policy[condition]; !ok {
			m.Policy[condition] = routes
		}
	}

	if m.BrandStoreTemplates == nil {
		m.BrandStoreTemplates = make(map[string]string)
	}
	for brand, tmpl := range DefaultBrandStoreTemplates() {
		if _, ok := m.BrandStoreTemplates[brand]; !ok {
			m.BrandStoreTemplates[brand] = tmpl
		}
	}
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// validate validates the configuration
func validate(config *Config) error {
	if err := structValidator.Struct(config); err != nil {
		return err
	}

	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set PRICELENS_SERVER_PORT)")
	}

	switch config.History.Driver {
	case "sqlite":
		if config.History.Path == "" {
			return fmt.Errorf("history path is required when driver is 'sqlite'")
		}
	case "postgres":
		if config.History.DSN == "" {
			return fmt.Errorf("history DSN is required when driver is 'postgres' (set PRICELENS_HISTORY_DSN)")
		}
	default:
		return fmt.Errorf("history driver must be 'sqlite' or 'postgres', got: %s", config.History.Driver)
	}

	if config.Artifacts.Path == "" {
		return fmt.Errorf("artifacts path is required (set PRICELENS_ARTIFACTS_PATH)")
	}

	for condition, routes := range config.Marketplace.Policy {
		seen := make(map[string]bool, len(routes))
		for _, r := range routes {
			if r.Slot == "lowest_price_link" {
				return fmt.Errorf("condition %q: slot lowest_price_link is computed, not routed", condition)
			}
			if seen[r.Slot] {
				return fmt.Errorf("condition %q: duplicate slot %q", condition, r.Slot)
			}
			seen[r.Slot] = true
		}
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit per_ip must not be negative, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
