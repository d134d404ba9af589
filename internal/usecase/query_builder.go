package usecase

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

// BuildQuery joins the descriptor as "brand color material style type".
// Empty attributes are skipped, so no double spaces reach the provider.
func BuildQuery(d domain.ItemDescriptor) string {
	parts := make([]string, 0, 5)
	for _, v := range []string{d.Brand, d.Color, d.Material, d.Style, d.Type} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// EncodeQuery form-encodes a query for appending to a search-page URL ("blue jeans" -> "blue+jeans")
func EncodeQuery(query string) string {
	return url.QueryEscape(query)
}

// FillTemplate substitutes the encoded query into a URL template.
// Templates without a {query} placeholder get the query appended.
func FillTemplate(template, query string) string {
	encoded := EncodeQuery(query)
	if strings.Contains(template, "{query}") {
		return strings.ReplaceAll(template, "{query}", encoded)
	}
	return template + encoded
}

// BrandSlug reduces a brand to the bare host label used for its guessed store domain.
// "Pull&Bear" -> "pullbear", "Levi's" -> "levis".
func BrandSlug(brand string) string {
	return nonAlphanumericRegex.ReplaceAllString(strings.ToLower(brand), "")
}
