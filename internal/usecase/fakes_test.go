package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pricelens/backend/internal/domain"
)

type fakeStore struct {
	mu     sync.Mutex
	prices map[domain.ItemDescriptor][]decimal.Decimal
	err    error
	calls  int
}

func (f *fakeStore) FindMatchingPrices(ctx context.Context, d domain.ItemDescriptor) ([]decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.prices[d], nil
}

// fakeCodec maps each attribute's values to codes by position
type fakeCodec map[string][]string

func (f fakeCodec) Encode(attribute, value string) (int, error) {
	classes, ok := f[attribute]
	if !ok {
		return 0, domain.ErrUnknownAttribute
	}
	for i, c := range classes {
		if c == value {
			return i, nil
		}
	}
	return 0, &domain.UnknownCategoryError{Attribute: attribute, Value: value}
}

type fakeEstimator struct {
	mu     sync.Mutex
	price  float64
	err    error
	inputs []domain.FeatureVector
}

func (f *fakeEstimator) Estimate(v domain.FeatureVector) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, v)
	return f.price, f.err
}

func (f *fakeEstimator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

// fakeProvider answers per restricted domain
type fakeProvider struct {
	mu      sync.Mutex
	hits    map[string][]domain.SearchHit
	errs    map[string]error
	delays  map[string]time.Duration
	queries []domain.SearchQuery
}

func (f *fakeProvider) Search(ctx context.Context, q domain.SearchQuery) ([]domain.SearchHit, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	delay := f.delays[q.Domain]
	err := f.errs[q.Domain]
	hits := f.hits[q.Domain]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, &domain.SearchProviderError{Domain: q.Domain, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (f *fakeProvider) queried() []domain.SearchQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.SearchQuery(nil), f.queries...)
}

func testPolicy() map[string][]Route {
	return map[string][]Route{
		domain.ConditionNew: {
			{Slot: domain.SlotAmazon, Kind: RouteMarketplace, Domain: "amazon.com", FallbackURL: "https://www.amazon.com/s?k={query}"},
			{Slot: domain.SlotOfficialStore, Kind: RouteOfficialStore},
			{Slot: domain.SlotShein, Kind: RouteMarketplace, Domain: "shein.com", FallbackURL: "https://www.shein.com/search?q={query}"},
		},
		domain.ConditionUsed: {
			{Slot: domain.SlotEbay, Kind: RouteMarketplace, Domain: "ebay.com", FallbackURL: "https://www.ebay.com/sch/i.html?_nkw={query}"},
		},
	}
}

func testTemplates() map[string]string {
	return map[string]string{
		"nike": "https://www.nike.com/w?q=",
		"zara": "https://www.zara.com/us/en/search?searchTerm=",
	}
}

func newJeans() domain.ItemDescriptor {
	return domain.ItemDescriptor{
		Type: "jeans", Color: "blue", Brand: "nike",
		Material: "denim", Style: "casual", Condition: "new",
	}
}
