package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/pricelens/backend/internal/currency"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/logging"
	"github.com/pricelens/backend/internal/metrics"
)

// HistoryLookup averages exact historical matches for a descriptor
type HistoryLookup struct {
	store domain.HistoricalStore
}

// NewHistoryLookup creates a lookup over the given store. A nil store always misses.
func NewHistoryLookup(store domain.HistoricalStore) *HistoryLookup {
	return &HistoryLookup{store: store}
}

// Lookup returns the mean price of all records matching the normalized descriptor.
// Store failures are logged and reported as a miss so resolution falls through to the model.
func (h *HistoryLookup) Lookup(ctx context.Context, d domain.ItemDescriptor) (decimal.Decimal, bool) {
	if h.store == nil {
		return decimal.Zero, false
	}

	prices, err := h.store.FindMatchingPrices(ctx, d)
	if err != nil {
		metrics.HistoryLookupErrors.Inc()
		logging.Ctx(ctx).Warn().
			Err(err).
			Bool("store_unavailable", errors.Is(err, domain.ErrStoreUnavailable)).
			Msg("Historical lookup failed, falling back to model")
		return decimal.Zero, false
	}

	return currency.Mean(prices)
}
