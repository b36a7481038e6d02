package menu

import (
	"fmt"
	"strings"
)

// Variant is a size/price option for an item. Items without explicit sizes
// carry exactly one variant with an empty label.
type Variant struct {
	Label string  `json:"nome"`
	Price float64 `json:"prezzo"`
}

// Item represents a dish on the menu. Immutable after load.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"nome"`
	Description string    `json:"descrizione,omitempty"`
	Section     string    `json:"sezione"`
	Variants    []Variant `json:"taglie"`
	Allergens   []string  `json:"allergeni,omitempty"`
	Vegetarian  bool      `json:"vegetariano"`
	Vegan       bool      `json:"vegano"`
	Note        string    `json:"suggerimenti,omitempty"`
	Synonyms    []string  `json:"varianti,omitempty"`
}

// DefaultVariant returns the first-declared variant.
func (it *Item) DefaultVariant() Variant {
	return it.Variants[0]
}

// VariantByLabel looks up a variant by its label, case-insensitive.
func (it *Item) VariantByLabel(label string) (Variant, bool) {
	for _, v := range it.Variants {
		if strings.EqualFold(v.Label, label) {
			return v, true
		}
	}
	return Variant{}, false
}

// Price returns the default variant price.
func (it *Item) Price() float64 {
	return it.DefaultVariant().Price
}

// MinPrice returns the cheapest variant price.
func (it *Item) MinPrice() float64 {
	min := it.Variants[0].Price
	for _, v := range it.Variants[1:] {
		if v.Price < min {
			min = v.Price
		}
	}
	return min
}

// HasAllergen reports whether the item carries the given allergen code.
func (it *Item) HasAllergen(code string) bool {
	for _, a := range it.Allergens {
		if strings.EqualFold(a, code) {
			return true
		}
	}
	return false
}

// Section is an ordered group of menu items.
type Section struct {
	Name  string
	Items []*Item
}

// Catalog is the normalized in-memory menu. Built once at load, read-only
// afterwards; replace wholesale to reload.
type Catalog struct {
	Restaurant     string
	Sections       []Section
	AllergenLegend map[string]string

	items []*Item
	byID  map[string]*Item
}

// Items returns all items in catalog order.
func (c *Catalog) Items() []*Item {
	return c.items
}

// ItemByID looks up an item by its identifier.
func (c *Catalog) ItemByID(id string) (*Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// SectionNames returns section names in display order.
func (c *Catalog) SectionNames() []string {
	names := make([]string, len(c.Sections))
	for i, s := range c.Sections {
		names[i] = s.Name
	}
	return names
}

// ItemsBySection returns the items of one section, case-insensitive on name.
func (c *Catalog) ItemsBySection(name string) []*Item {
	for _, s := range c.Sections {
		if strings.EqualFold(s.Name, name) {
			return s.Items
		}
	}
	return nil
}

// AllergenNames resolves allergen codes through the legend. Codes without a
// legend entry come back unchanged.
func (c *Catalog) AllergenNames(codes []string) []string {
	names := make([]string, len(codes))
	for i, code := range codes {
		if name, ok := c.AllergenLegend[code]; ok {
			names[i] = name
		} else {
			names[i] = code
		}
	}
	return names
}

// MalformedMenuError reports an unusable menu description. It is fatal at
// load time.
type MalformedMenuError struct {
	Reason string
}

func (e *MalformedMenuError) Error() string {
	return fmt.Sprintf("malformed menu: %s", e.Reason)
}
