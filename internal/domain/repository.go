package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// HistoricalStore is the read side of the past-prices dataset
type HistoricalStore interface {
	// FindMatchingPrices returns the prices of every record equal to d on all six fields.
	// d must already be normalized.
	FindMatchingPrices(ctx context.Context, d ItemDescriptor) ([]decimal.Decimal, error)
}

// HistoricalImporter loads records into a historical store
type HistoricalImporter interface {
	EnsureSchema(ctx context.Context) error
	Import(ctx context.Context, records []HistoricalRecord) (int, error)
	Count(ctx context.Context) (int, error)
}

// Codec maps attribute values to the model's trained codes
type Codec interface {
	Encode(attribute, value string) (int, error)
}

// Estimator predicts a price from an encoded feature vector
type Estimator interface {
	Estimate(vector FeatureVector) (float64, error)
}

// SearchProvider runs a product search against an external API
type SearchProvider interface {
	Search(ctx context.Context, query SearchQuery) ([]SearchHit, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository[V any] interface {
	Get(key string) (V, error)
	Set(key string, value V, ttl time.Duration)
	// GetOrCreate returns the live value for key, storing create() when absent.
	// Either way the entry's expiry is pushed out to now+ttl.
	GetOrCreate(key string, ttl time.Duration, create func() V) V
	Delete(key string)
}
