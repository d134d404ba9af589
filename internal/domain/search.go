package domain

import "github.com/shopspring/decimal"

// SearchMode selects the kind of results a provider returns
type SearchMode string

const (
	SearchModeShopping SearchMode = "shop"
	SearchModeWeb      SearchMode = "web"
)

// SearchQuery is a provider request. Domain, when set, restricts results to that site.
type SearchQuery struct {
	Text   string
	Domain string
	Mode   SearchMode
}

// SearchHit is a raw provider result. Prices are left unparsed:
// ParsedPrice holds the provider's numeric price field verbatim (empty when absent),
// PriceText holds the display string such as "$45.00".
type SearchHit struct {
	Link        string
	Title       string
	Source      string
	ParsedPrice string
	PriceText   string
}

// MarketplaceResult is a search hit that survived price parsing and filtering
type MarketplaceResult struct {
	Domain string          `json:"domain"`
	Link   string          `json:"link"`
	Price  decimal.Decimal `json:"price"`
}
