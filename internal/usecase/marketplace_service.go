package usecase

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/pricelens/backend/internal/currency"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/logging"
	"github.com/pricelens/backend/internal/metrics"
)

// RouteKind says how a route fills its link slot
type RouteKind string

const (
	// RouteMarketplace runs a priced shopping search on Domain
	RouteMarketplace RouteKind = "marketplace"
	// RouteOfficialStore links the brand's own store
	RouteOfficialStore RouteKind = "official_store"
)

// Route is one entry of the condition routing table
type Route struct {
	Slot   string
	Kind   RouteKind
	Domain string
	// FallbackURL is a search-page template with a {query} placeholder, used when the search yields nothing
	FallbackURL string
}

// MarketplaceConfig holds the aggregator's routing table and limits
type MarketplaceConfig struct {
	Policy                    map[string][]Route
	BrandStoreTemplates       map[string]string
	BlacklistedLinkSubstrings []string
	DomainTimeout             time.Duration
	MaxConcurrency            int
}

// MarketplaceService finds the cheapest listing per marketplace and fills the link slots
type MarketplaceService struct {
	provider       domain.SearchProvider
	policy         map[string][]Route
	templates      map[string]string
	blacklist      []string
	domainTimeout  time.Duration
	maxConcurrency int
}

// NewMarketplaceService creates the aggregator. A nil provider disables searching;
// template and fallback links are still produced.
func NewMarketplaceService(provider domain.SearchProvider, cfg MarketplaceConfig) *MarketplaceService {
	templates := make(map[string]string, len(cfg.BrandStoreTemplates))
	for brand, tmpl := range cfg.BrandStoreTemplates {
		templates[strings.ToLower(strings.TrimSpace(brand))] = tmpl
	}

	blacklist := make([]string, 0, len(cfg.BlacklistedLinkSubstrings))
	for _, s := range cfg.BlacklistedLinkSubstrings {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			blacklist = append(blacklist, s)
		}
	}

	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	return &MarketplaceService{
		provider:       provider,
		policy:         cfg.Policy,
		templates:      templates,
		blacklist:      blacklist,
		domainTimeout:  cfg.DomainTimeout,
		maxConcurrency: maxConcurrency,
	}
}

// CheapestForDomain runs a shopping search restricted to target and ranks the results.
// It returns the cheapest qualifying result (nil when none qualify) and the whole
// qualifying set sorted by ascending price.
func (s *MarketplaceService) CheapestForDomain(
	ctx context.Context,
	query string,
	target string,
) (*domain.MarketplaceResult, []domain.MarketplaceResult, error) {
	if s.provider == nil {
		return nil, nil, &domain.SearchProviderError{Domain: target, Err: domain.ErrSearchDisabled}
	}

	start := time.Now()
	hits, err := s.provider.Search(ctx, domain.SearchQuery{
		Text:   query,
		Domain: target,
		Mode:   domain.SearchModeShopping,
	})
	if err != nil {
		metrics.RecordSearch(target, "error", time.Since(start))
		return nil, nil, err
	}

	results := s.qualify(target, hits)
	if len(results) == 0 {
		metrics.RecordSearch(target, "empty", time.Since(start))
		return nil, nil, nil
	}

	metrics.RecordSearch(target, "hit", time.Since(start))
	return &results[0], results, nil
}

// qualify drops blacklisted and unparseable hits, then sorts by price.
// Ties keep provider order.
func (s *MarketplaceService) qualify(target string, hits []domain.SearchHit) []domain.MarketplaceResult {
	results := make([]domain.MarketplaceResult, 0, len(hits))
	var unparseable, blacklisted int

	for _, hit := range hits {
		if s.isBlacklisted(hit.Link) {
			blacklisted++
			continue
		}
		price, err := hitPrice(hit)
		if err != nil {
			unparseable++
			continue
		}
		results = append(results, domain.MarketplaceResult{
			Domain: target,
			Link:   hit.Link,
			Price:  price,
		})
	}

	metrics.RecordDropped("blacklisted", blacklisted)
	metrics.RecordDropped("unparseable", unparseable)

	sortByPrice(results)
	return results
}

// CollectLinks fills the link slots for the descriptor's condition.
// Every route runs concurrently under its own timeout; one route failing never affects another.
func (s *MarketplaceService) CollectLinks(ctx context.Context, d domain.ItemDescriptor) map[string]string {
	d = d.Normalized()
	links := make(map[string]string)

	routes := s.policy[d.Condition]
	if len(routes) == 0 {
		return links
	}

	query := BuildQuery(d)
	outcomes := make([]routeOutcome, len(routes))

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i, route := range routes {
		g.Go(func() error {
			outcomes[i] = s.resolveRoute(ctx, route, d.Brand, query)
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.MarketplaceResult
	for i, route := range routes {
		if link := outcomes[i].link; link != "" && !s.isBlacklisted(link) {
			links[route.Slot] = link
		}
		merged = append(merged, outcomes[i].results...)
	}

	if len(merged) > 0 {
		sortByPrice(merged)
		links[domain.SlotLowestPrice] = merged[0].Link
	}

	return links
}

type routeOutcome struct {
	link    string
	results []domain.MarketplaceResult
}

func (s *MarketplaceService) resolveRoute(ctx context.Context, route Route, brand, query string) routeOutcome {
	if s.domainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.domainTimeout)
		defer cancel()
	}

	switch route.Kind {
	case RouteOfficialStore:
		return routeOutcome{link: s.officialStoreLink(ctx, brand, query)}

	case RouteMarketplace:
		best, results, err := s.CheapestForDomain(ctx, query, route.Domain)
		if err != nil {
			logSearchFailure(ctx, route.Domain, err)
		}
		if best != nil {
			return routeOutcome{link: best.Link, results: results}
		}
		if route.FallbackURL != "" {
			return routeOutcome{link: FillTemplate(route.FallbackURL, query)}
		}
		return routeOutcome{}

	default:
		logging.Ctx(ctx).Warn().Str("kind", string(route.Kind)).Str("slot", route.Slot).Msg("Unknown route kind")
		return routeOutcome{}
	}
}

// officialStoreLink uses the brand's search template when known; otherwise it takes the
// first organic result from a web search restricted to "<brand>.com".
func (s *MarketplaceService) officialStoreLink(ctx context.Context, brand, query string) string {
	if tmpl, ok := s.templates[brand]; ok {
		return FillTemplate(tmpl, query)
	}

	slug := BrandSlug(brand)
	if slug == "" || s.provider == nil {
		return ""
	}
	target := slug + ".com"

	start := time.Now()
	hits, err := s.provider.Search(ctx, domain.SearchQuery{
		Text:   query,
		Domain: target,
		Mode:   domain.SearchModeWeb,
	})
	if err != nil {
		metrics.RecordSearch(target, "error", time.Since(start))
		logSearchFailure(ctx, target, err)
		return ""
	}

	for _, hit := range hits {
		if !s.isBlacklisted(hit.Link) {
			metrics.RecordSearch(target, "hit", time.Since(start))
			return hit.Link
		}
	}
	metrics.RecordSearch(target, "empty", time.Since(start))
	return ""
}

func (s *MarketplaceService) isBlacklisted(link string) bool {
	lower := strings.ToLower(link)
	for _, sub := range s.blacklist {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// hitPrice prefers the provider's parsed value and falls back to the display text
func hitPrice(hit domain.SearchHit) (decimal.Decimal, error) {
	if hit.ParsedPrice != "" {
		if p, err := currency.ParseValue(hit.ParsedPrice); err == nil {
			return p, nil
		}
	}
	return currency.Parse(hit.PriceText)
}

func sortByPrice(results []domain.MarketplaceResult) {
	slices.SortStableFunc(results, func(a, b domain.MarketplaceResult) int {
		return a.Price.Cmp(b.Price)
	})
}

func logSearchFailure(ctx context.Context, target string, err error) {
	if errors.Is(err, domain.ErrSearchDisabled) {
		return
	}
	logging.Ctx(ctx).Warn().Err(err).Str("domain", target).Msg("Marketplace search failed")
}
