package domain

import "strings"

// Attribute names, in the order the regression model was trained on.
const (
	AttrType      = "type"
	AttrColor     = "color"
	AttrBrand     = "brand"
	AttrMaterial  = "material"
	AttrStyle     = "style"
	AttrCondition = "condition"
)

// FeatureOrder is the column order of an encoded feature vector.
var FeatureOrder = []string{AttrType, AttrColor, AttrBrand, AttrMaterial, AttrStyle, AttrCondition}

// Condition values recognized by the marketplace routing table.
const (
	ConditionNew  = "new"
	ConditionUsed = "used"
)

// ItemDescriptor describes one clothing item submitted for pricing
type ItemDescriptor struct {
	Type      string `json:"type"`
	Color     string `json:"color"`
	Brand     string `json:"brand"`
	Material  string `json:"material"`
	Style     string `json:"style"`
	Condition string `json:"condition"`
}

// Normalized returns a lower-cased, trimmed copy of the descriptor
func (d ItemDescriptor) Normalized() ItemDescriptor {
	return ItemDescriptor{
		Type:      normalizeValue(d.Type),
		Color:     normalizeValue(d.Color),
		Brand:     normalizeValue(d.Brand),
		Material:  normalizeValue(d.Material),
		Style:     normalizeValue(d.Style),
		Condition: normalizeValue(d.Condition),
	}
}

// Attributes returns the six values in FeatureOrder.
func (d ItemDescriptor) Attributes() []string {
	return []string{d.Type, d.Color, d.Brand, d.Material, d.Style, d.Condition}
}

// Attribute returns the value of a named attribute and whether the name is known.
func (d ItemDescriptor) Attribute(name string) (string, bool) {
	switch name {
	case AttrType:
		return d.Type, true
	case AttrColor:
		return d.Color, true
	case AttrBrand:
		return d.Brand, true
	case AttrMaterial:
		return d.Material, true
	case AttrStyle:
		return d.Style, true
	case AttrCondition:
		return d.Condition, true
	}
	return "", false
}

// normalizeValue lower-cases, trims and collapses inner whitespace
func normalizeValue(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
