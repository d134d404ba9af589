package zenserp

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"

	"github.com/pricelens/backend/internal/domain"
)

// searchResponse is the subset of the Zenserp payload we read.
// Entries are decoded one at a time so a malformed entry only loses itself.
type searchResponse struct {
	ShoppingResults []json.RawMessage `json:"shopping_results"`
	Organic         []json.RawMessage `json:"organic"`
}

// shoppingResult keeps both price fields raw: the API sends numbers, strings or objects
type shoppingResult struct {
	Title       string          `json:"title"`
	Link        string          `json:"link"`
	URL         string          `json:"url"`
	Source      string          `json:"source"`
	Price       json.RawMessage `json:"price"`
	PriceParsed json.RawMessage `json:"price_parsed"`
}

// priceParsed.Value is kept raw: the API sends a number or a string
type priceParsed struct {
	Value    json.RawMessage `json:"value"`
	Currency string          `json:"currency"`
}

type organicResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Link  string `json:"link"`
}

// mapHits converts the payload to provider-neutral hits. Entries that fail to decode
// or have no link are skipped.
func mapHits(resp *searchResponse, mode domain.SearchMode) []domain.SearchHit {
	if mode == domain.SearchModeWeb {
		hits := make([]domain.SearchHit, 0, len(resp.Organic))
		for _, entry := range resp.Organic {
			var r organicResult
			if err := json.Unmarshal(entry, &r); err != nil {
				continue
			}
			link := firstNonEmpty(r.URL, r.Link)
			if link == "" {
				continue
			}
			hits = append(hits, domain.SearchHit{Link: link, Title: r.Title})
		}
		return hits
	}

	hits := make([]domain.SearchHit, 0, len(resp.ShoppingResults))
	for _, entry := range resp.ShoppingResults {
		var r shoppingResult
		if err := json.Unmarshal(entry, &r); err != nil {
			continue
		}
		link := firstNonEmpty(r.Link, r.URL)
		if link == "" {
			continue
		}
		hit := domain.SearchHit{
			Link:        link,
			Title:       r.Title,
			Source:      r.Source,
			PriceText:   rawValue(r.Price),
			ParsedPrice: parsedValue(r.PriceParsed),
		}
		hits = append(hits, hit)
	}
	return hits
}

// parsedValue reads price_parsed, which is usually {"value": ...} but is sometimes a bare scalar
func parsedValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return rawValue(trimmed)
	}
	var p priceParsed
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return ""
	}
	return rawValue(p.Value)
}

// rawValue returns a JSON scalar as text: numbers verbatim, strings unquoted.
// null, objects and arrays come back as "".
func rawValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || trimmed[0] == '{' || trimmed[0] == '[' {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return string(trimmed)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
