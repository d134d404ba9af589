package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/backend/internal/domain"
)

func newTestMarketplace(provider domain.SearchProvider) *MarketplaceService {
	return NewMarketplaceService(provider, MarketplaceConfig{
		Policy:                    testPolicy(),
		BrandStoreTemplates:       testTemplates(),
		BlacklistedLinkSubstrings: []string{"deadlisting.example"},
		DomainTimeout:             time.Second,
		MaxConcurrency:            4,
	})
}

func TestCheapestForDomain(t *testing.T) {
	ctx := context.Background()

	t.Run("unparseable prices are excluded from ranking", func(t *testing.T) {
		provider := &fakeProvider{hits: map[string][]domain.SearchHit{
			"amazon.com": {
				{Link: "https://amazon.com/na", PriceText: "N/A"},
				{Link: "https://amazon.com/45", PriceText: "$45.00"},
			},
		}}

		best, results, err := newTestMarketplace(provider).CheapestForDomain(ctx, "nike jeans", "amazon.com")

		require.NoError(t, err)
		require.NotNil(t, best)
		assert.Equal(t, "https://amazon.com/45", best.Link)
		assert.Equal(t, "45", best.Price.String())
		assert.Len(t, results, 1)
	})

	t.Run("parsed value is preferred over text", func(t *testing.T) {
		provider := &fakeProvider{hits: map[string][]domain.SearchHit{
			"amazon.com": {
				{Link: "https://amazon.com/a", ParsedPrice: "30", PriceText: "$99.00"},
				{Link: "https://amazon.com/b", PriceText: "$40.00"},
				{Link: "https://amazon.com/c", ParsedPrice: "bogus", PriceText: "$35.50"},
			},
		}}

		best, results, err := newTestMarketplace(provider).CheapestForDomain(ctx, "q", "amazon.com")

		require.NoError(t, err)
		assert.Equal(t, "https://amazon.com/a", best.Link)
		require.Len(t, results, 3)
		assert.Equal(t, "https://amazon.com/c", results[1].Link)
		assert.Equal(t, "https://amazon.com/b", results[2].Link)
	})

	t.Run("blacklisted link is never returned even when cheapest", func(t *testing.T) {
		provider := &fakeProvider{hits: map[string][]domain.SearchHit{
			"ebay.com": {
				{Link: "https://DeadListing.example/cheap", PriceText: "$1.00"},
				{Link: "https://ebay.com/item", PriceText: "$12.00"},
			},
		}}

		best, results, err := newTestMarketplace(provider).CheapestForDomain(ctx, "q", "ebay.com")

		require.NoError(t, err)
		assert.Equal(t, "https://ebay.com/item", best.Link)
		for _, r := range results {
			assert.NotContains(t, r.Link, "eadlisting")
		}
	})

	t.Run("issues a site restricted shopping search", func(t *testing.T) {
		provider := &fakeProvider{}

		best, results, err := newTestMarketplace(provider).CheapestForDomain(ctx, "nike blue jeans", "amazon.com")

		require.NoError(t, err)
		assert.Nil(t, best)
		assert.Empty(t, results)
		require.Len(t, provider.queried(), 1)
		assert.Equal(t, domain.SearchQuery{
			Text: "nike blue jeans", Domain: "amazon.com", Mode: domain.SearchModeShopping,
		}, provider.queried()[0])
	})

	t.Run("provider error is returned", func(t *testing.T) {
		provider := &fakeProvider{errs: map[string]error{
			"amazon.com": &domain.SearchProviderError{Domain: "amazon.com", StatusCode: 500, Err: errors.New("boom")},
		}}

		best, _, err := newTestMarketplace(provider).CheapestForDomain(ctx, "q", "amazon.com")

		assert.Nil(t, best)
		assert.True(t, errors.Is(err, domain.ErrSearchProvider))
	})

	t.Run("no provider means search disabled", func(t *testing.T) {
		_, _, err := newTestMarketplace(nil).CheapestForDomain(ctx, "q", "amazon.com")
		assert.True(t, errors.Is(err, domain.ErrSearchDisabled))
	})
}

func TestCollectLinks_ConditionRouting(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{hits: map[string][]domain.SearchHit{
		"amazon.com": {{Link: "https://amazon.com/jeans", PriceText: "$50.00"}},
		"shein.com":  {{Link: "https://shein.com/jeans", PriceText: "$20.00"}},
		"ebay.com":   {{Link: "https://ebay.com/jeans", PriceText: "$15.00"}},
	}}
	svc := newTestMarketplace(provider)

	t.Run("new never fills the resale slot", func(t *testing.T) {
		links := svc.CollectLinks(ctx, newJeans())

		assert.Equal(t, "https://amazon.com/jeans", links[domain.SlotAmazon])
		assert.Equal(t, "https://shein.com/jeans", links[domain.SlotShein])
		assert.Equal(t, "https://www.nike.com/w?q=nike+blue+denim+casual+jeans", links[domain.SlotOfficialStore])
		assert.Equal(t, "https://shein.com/jeans", links[domain.SlotLowestPrice])
		assert.NotContains(t, links, domain.SlotEbay)
	})

	t.Run("used never fills the official store slot", func(t *testing.T) {
		d := newJeans()
		d.Condition = "USED "

		links := svc.CollectLinks(ctx, d)

		assert.Equal(t, "https://ebay.com/jeans", links[domain.SlotEbay])
		assert.Equal(t, "https://ebay.com/jeans", links[domain.SlotLowestPrice])
		assert.NotContains(t, links, domain.SlotOfficialStore)
		assert.NotContains(t, links, domain.SlotAmazon)
	})

	t.Run("unknown condition yields no links", func(t *testing.T) {
		d := newJeans()
		d.Condition = "refurbished"

		assert.Empty(t, svc.CollectLinks(ctx, d))
	})
}

func TestCollectLinks_FailureIsolation(t *testing.T) {
	provider := &fakeProvider{
		hits: map[string][]domain.SearchHit{
			"shein.com": {{Link: "https://shein.com/ok", PriceText: "$9.99"}},
		},
		errs: map[string]error{
			"amazon.com": &domain.SearchProviderError{Domain: "amazon.com", StatusCode: 503, Err: errors.New("unavailable")},
		},
	}

	links := newTestMarketplace(provider).CollectLinks(context.Background(), newJeans())

	assert.Equal(t, "https://www.amazon.com/s?k=nike+blue+denim+casual+jeans", links[domain.SlotAmazon])
	assert.Equal(t, "https://shein.com/ok", links[domain.SlotShein])
	assert.Equal(t, "https://shein.com/ok", links[domain.SlotLowestPrice])
}

func TestCollectLinks_DomainTimeout(t *testing.T) {
	provider := &fakeProvider{
		hits: map[string][]domain.SearchHit{
			"amazon.com": {{Link: "https://amazon.com/late", PriceText: "$1.00"}},
			"shein.com":  {{Link: "https://shein.com/fast", PriceText: "$30.00"}},
		},
		delays: map[string]time.Duration{"amazon.com": 2 * time.Second},
	}
	svc := newTestMarketplace(provider)
	svc.domainTimeout = 50 * time.Millisecond

	start := time.Now()
	links := svc.CollectLinks(context.Background(), newJeans())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "https://shein.com/fast", links[domain.SlotLowestPrice])
	assert.Equal(t, "https://www.amazon.com/s?k=nike+blue+denim+casual+jeans", links[domain.SlotAmazon])
}

func TestCollectLinks_BlacklistNeverLeaks(t *testing.T) {
	provider := &fakeProvider{hits: map[string][]domain.SearchHit{
		"amazon.com": {
			{Link: "https://deadlisting.example/amz", PriceText: "$1.00"},
			{Link: "https://amazon.com/real", PriceText: "$60.00"},
		},
		"shein.com": {{Link: "https://deadlisting.example/shein", PriceText: "$2.00"}},
	}}

	links := newTestMarketplace(provider).CollectLinks(context.Background(), newJeans())

	for slot, link := range links {
		assert.NotContains(t, link, "deadlisting", "slot %s", slot)
	}
	assert.Equal(t, "https://amazon.com/real", links[domain.SlotLowestPrice])
}

func TestCollectLinks_OfficialStoreWithoutTemplate(t *testing.T) {
	d := newJeans()
	d.Brand = "Pull&Bear"

	t.Run("first organic link from the guessed store domain", func(t *testing.T) {
		provider := &fakeProvider{hits: map[string][]domain.SearchHit{
			"pullbear.com": {
				{Link: "https://deadlisting.example/pb"},
				{Link: "https://pullbear.com/jeans"},
			},
		}}

		links := newTestMarketplace(provider).CollectLinks(context.Background(), d)

		assert.Equal(t, "https://pullbear.com/jeans", links[domain.SlotOfficialStore])
		var webQueries int
		for _, q := range provider.queried() {
			if q.Mode == domain.SearchModeWeb {
				webQueries++
				assert.Equal(t, "pullbear.com", q.Domain)
			}
		}
		assert.Equal(t, 1, webQueries)
	})

	t.Run("search failure leaves the slot absent", func(t *testing.T) {
		provider := &fakeProvider{errs: map[string]error{
			"pullbear.com": &domain.SearchProviderError{Domain: "pullbear.com", Err: errors.New("timeout")},
		}}

		links := newTestMarketplace(provider).CollectLinks(context.Background(), d)

		assert.NotContains(t, links, domain.SlotOfficialStore)
	})
}

func TestCollectLinks_WithoutProvider(t *testing.T) {
	links := newTestMarketplace(nil).CollectLinks(context.Background(), newJeans())

	assert.Equal(t, map[string]string{
		domain.SlotAmazon:        "https://www.amazon.com/s?k=nike+blue+denim+casual+jeans",
		domain.SlotShein:         "https://www.shein.com/search?q=nike+blue+denim+casual+jeans",
		domain.SlotOfficialStore: "https://www.nike.com/w?q=nike+blue+denim+casual+jeans",
	}, links)
}
