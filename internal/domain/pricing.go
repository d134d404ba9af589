package domain

import "github.com/shopspring/decimal"

// PriceSource tags where a resolved price came from
type PriceSource string

const (
	SourceDatabase PriceSource = "database"
	SourceModel    PriceSource = "model"
)

// Named link slots in ResolutionResult.ProductURLs
const (
	SlotLowestPrice   = "lowest_price_link"
	SlotOfficialStore = "official_store"
	SlotAmazon        = "amazon"
	SlotShein         = "shein"
	SlotEbay          = "ebay"
)

// FeatureVector is the model input: one code per attribute in FeatureOrder
type FeatureVector []int

// HistoricalRecord is one observed price for a six-attribute tuple
type HistoricalRecord struct {
	Descriptor ItemDescriptor
	Price      decimal.Decimal
}

// ResolutionResult is the answer returned for one pricing request.
// PredictedPrice is nil when no price could be produced.
type ResolutionResult struct {
	PredictedPrice *float64          `json:"predicted_price"`
	Source         PriceSource       `json:"source,omitempty"`
	ProductURLs    map[string]string `json:"product_urls"`
	Error          string            `json:"error,omitempty"`
}
