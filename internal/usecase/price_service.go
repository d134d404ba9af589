package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pricelens/backend/internal/currency"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/logging"
	"github.com/pricelens/backend/internal/metrics"
)

var errModelNotLoaded = errors.New("model artifacts not loaded")

// PriceService resolves a price for an item descriptor and gathers marketplace links
type PriceService struct {
	history     *HistoryLookup
	codec       domain.Codec
	estimator   domain.Estimator
	marketplace *MarketplaceService
}

// NewPriceService creates a price service with dependencies. store and marketplace may be nil.
func NewPriceService(
	store domain.HistoricalStore,
	codec domain.Codec,
	estimator domain.Estimator,
	marketplace *MarketplaceService,
) *PriceService {
	return &PriceService{
		history:     NewHistoryLookup(store),
		codec:       codec,
		estimator:   estimator,
		marketplace: marketplace,
	}
}

// ResolvePrice resolves one descriptor.
// Flow: normalize -> historical mean -> encode + estimate; links are collected alongside.
//
// The result is non-nil for every non-nil descriptor. When no price can be produced the
// result carries Error and the returned error says why (wrapping *domain.UnknownCategoryError
// for out-of-vocabulary values).
func (s *PriceService) ResolvePrice(
	ctx context.Context,
	request *domain.ItemDescriptor,
) (*domain.ResolutionResult, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}

	start := time.Now()
	d := request.Normalized()

	linksCh := make(chan map[string]string, 1)
	go func() {
		linksCh <- s.collectLinks(ctx, d)
	}()

	price, source, err := s.resolve(ctx, d)
	links := <-linksCh

	result := &domain.ResolutionResult{ProductURLs: links}
	log := logging.Ctx(ctx)

	if err != nil {
		result.Error = err.Error()
		metrics.RecordResolution("failed")
		log.Info().
			Err(err).
			Str("condition", d.Condition).
			Int("links", len(links)).
			Dur("elapsed", time.Since(start)).
			Msg("Price resolution failed")
		return result, fmt.Errorf("resolve price: %w", err)
	}

	rounded := currency.Float(price)
	result.PredictedPrice = &rounded
	result.Source = source

	metrics.RecordResolution(string(source))
	log.Info().
		Str("source", string(source)).
		Float64("price", rounded).
		Int("links", len(links)).
		Dur("elapsed", time.Since(start)).
		Msg("Price resolved")

	return result, nil
}

// resolve runs the pricing state machine: historical match first, then the model
func (s *PriceService) resolve(ctx context.Context, d domain.ItemDescriptor) (decimal.Decimal, domain.PriceSource, error) {
	if mean, ok := s.history.Lookup(ctx, d); ok {
		return mean, domain.SourceDatabase, nil
	}

	vector, err := encodeDescriptor(s.codec, d)
	if err != nil {
		return decimal.Zero, "", err
	}

	if s.estimator == nil {
		return decimal.Zero, "", errModelNotLoaded
	}
	estimate, err := s.estimator.Estimate(vector)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("estimate price: %w", err)
	}

	return decimal.NewFromFloat(estimate), domain.SourceModel, nil
}

func (s *PriceService) collectLinks(ctx context.Context, d domain.ItemDescriptor) map[string]string {
	if s.marketplace == nil {
		return map[string]string{}
	}
	return s.marketplace.CollectLinks(ctx, d)
}

// encodeDescriptor encodes all six attributes in feature order.
// It stops at the first failure and never returns a partial vector.
func encodeDescriptor(codec domain.Codec, d domain.ItemDescriptor) (domain.FeatureVector, error) {
	if codec == nil {
		return nil, errModelNotLoaded
	}

	vector := make(domain.FeatureVector, 0, len(domain.FeatureOrder))
	for _, attr := range domain.FeatureOrder {
		value, _ := d.Attribute(attr)
		code, err := codec.Encode(attr, value)
		if err != nil {
			return nil, err
		}
		vector = append(vector, code)
	}
	return vector, nil
}
