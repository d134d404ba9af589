package artifacts

import (
	"fmt"
	"sort"

	"github.com/pricelens/backend/internal/domain"
)

// Codec maps attribute values to the integer codes the model was trained on.
// A code is the value's index in the attribute's sorted class list.
// The vocabularies are closed and never change after load.
type Codec struct {
	classes map[string][]string
	index   map[string]map[string]int
}

// NewCodec builds a codec from per-attribute class lists.
// Every attribute in domain.FeatureOrder must be present and non-empty.
func NewCodec(classes map[string][]string) (*Codec, error) {
	c := &Codec{
		classes: make(map[string][]string, len(domain.FeatureOrder)),
		index:   make(map[string]map[string]int, len(domain.FeatureOrder)),
	}

	for _, attr := range domain.FeatureOrder {
		values, ok := classes[attr]
		if !ok || len(values) == 0 {
			return nil, fmt.Errorf("missing vocabulary for attribute %q", attr)
		}

		sorted := append([]string(nil), values...)
		sort.Strings(sorted)

		idx := make(map[string]int, len(sorted))
		for i, v := range sorted {
			if _, dup := idx[v]; dup {
				return nil, fmt.Errorf("duplicate class %q in vocabulary for %q", v, attr)
			}
			idx[v] = i
		}

		c.classes[attr] = sorted
		c.index[attr] = idx
	}

	return c, nil
}

// Encode returns the trained code for value. value must already be normalized.
func (c *Codec) Encode(attribute, value string) (int, error) {
	idx, ok := c.index[attribute]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownAttribute, attribute)
	}
	code, ok := idx[value]
	if !ok {
		return 0, &domain.UnknownCategoryError{Attribute: attribute, Value: value}
	}
	return code, nil
}

// VocabularySize returns the number of known classes for an attribute
func (c *Codec) VocabularySize(attribute string) int {
	return len(c.classes[attribute])
}
