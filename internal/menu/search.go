package menu

import (
	"sort"
	"strings"
)

// Filters narrows a Search. Zero values disable each filter.
type Filters struct {
	Vegetarian       bool
	Vegan            bool
	MaxPrice         float64
	ExcludeAllergens []string
	Section          string
}

// Search filters items by dietary flags, price ceiling and allergen
// exclusions, returning matches in catalog order.
func (c *Catalog) Search(query string, f Filters) []*Item {
	var out []*Item
	q := strings.ToLower(strings.TrimSpace(query))

	for _, it := range c.items {
		if f.Section != "" && !strings.EqualFold(it.Section, f.Section) {
			continue
		}
		if f.Vegetarian && !it.Vegetarian {
			continue
		}
		if f.Vegan && !it.Vegan {
			continue
		}
		if f.MaxPrice > 0 && it.MinPrice() > f.MaxPrice {
			continue
		}
		if c.excludedByAllergens(it, f.ExcludeAllergens) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(it.Name), q) &&
			!strings.Contains(strings.ToLower(it.Description), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// excludedByAllergens matches exclusions against both the raw allergen code
// and its legend name, so callers can exclude "1" or "glutine" alike.
func (c *Catalog) excludedByAllergens(it *Item, exclude []string) bool {
	for _, ex := range exclude {
		for _, a := range it.Allergens {
			if strings.EqualFold(a, ex) {
				return true
			}
			if name, ok := c.AllergenLegend[a]; ok && strings.EqualFold(name, ex) {
				return true
			}
		}
	}
	return false
}

// FindByText runs a case-insensitive substring and token-overlap search over
// item names and descriptions, returning candidates ranked best-first. No
// match yields an empty slice, never an error.
func (c *Catalog) FindByText(fragment string) []*Item {
	frag := strings.ToLower(strings.TrimSpace(fragment))
	if frag == "" {
		return nil
	}
	fragTokens := tokenize(frag)

	type scored struct {
		item  *Item
		score float64
		pos   int
	}
	var ranked []scored

	for pos, it := range c.items {
		name := strings.ToLower(it.Name)
		score := 0.0
		switch {
		case name == frag:
			score = 3
		case strings.Contains(name, frag) || strings.Contains(frag, name):
			score = 2
		default:
			score = tokenOverlap(fragTokens, tokenize(name+" "+strings.ToLower(it.Description)))
		}
		if score > 0 {
			ranked = append(ranked, scored{item: it, score: score, pos: pos})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].pos < ranked[j].pos
	})

	out := make([]*Item, len(ranked))
	for i, s := range ranked {
		out[i] = s.item
	}
	return out
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != 'è' && r != 'é' && r != 'à' && r != 'ù' && r != 'ò' && r != 'ì'
	})
}

// tokenOverlap returns the fraction of a's tokens present in b.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 {
		return 0
	}
	set := make(map[string]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	hits := 0
	for _, t := range a {
		if set[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(a))
}
