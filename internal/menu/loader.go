package menu

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// rawMenu covers both supported menu shapes: the current one with "sezioni"
// holding "voci" (optionally with "taglie" size variants), and the legacy one
// with a flat "categorie" map of single-price items.
type rawMenu struct {
	Ristorante     string               `json:"ristorante"`
	AllergenLegend map[string]string    `json:"allergeni_legend"`
	Sezioni        []rawSection         `json:"sezioni"`
	Categorie      map[string][]rawItem `json:"categorie"`
}

type rawSection struct {
	Nome string    `json:"nome"`
	Voci []rawItem `json:"voci"`
}

type rawItem struct {
	ID           string       `json:"id"`
	Nome         string       `json:"nome"`
	Descrizione  string       `json:"descrizione"`
	Prezzo       float64      `json:"prezzo"`
	Taglie       []Variant    `json:"taglie"`
	Allergeni    []any        `json:"allergeni"`
	Vegetariano  bool         `json:"vegetariano"`
	Vegano       bool         `json:"vegano"`
	Suggerimenti string       `json:"suggerimenti"`
	Varianti     []string     `json:"varianti"`
}

// LoadFile loads and normalizes a menu description from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open menu %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a menu description in either supported shape and produces a
// unified Catalog. Returns *MalformedMenuError when the description cannot be
// used (missing name or price, duplicate identifiers, unknown shape).
func Load(r io.Reader) (*Catalog, error) {
	var raw rawMenu
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &MalformedMenuError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	c := &Catalog{
		Restaurant:     raw.Ristorante,
		AllergenLegend: raw.AllergenLegend,
		byID:           make(map[string]*Item),
	}
	if c.Restaurant == "" {
		c.Restaurant = "Ristorante"
	}
	if c.AllergenLegend == nil {
		c.AllergenLegend = map[string]string{}
	}

	switch {
	case len(raw.Sezioni) > 0:
		for _, sec := range raw.Sezioni {
			if err := c.appendSection(sec.Nome, sec.Voci); err != nil {
				return nil, err
			}
		}
	case len(raw.Categorie) > 0:
		// Map iteration order is random; keep legacy categories sorted so
		// catalog order is stable across loads.
		names := make([]string, 0, len(raw.Categorie))
		for name := range raw.Categorie {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := c.appendSection(name, raw.Categorie[name]); err != nil {
				return nil, err
			}
		}
	default:
		return nil, &MalformedMenuError{Reason: "no sezioni or categorie found"}
	}

	return c, nil
}

func (c *Catalog) appendSection(name string, voci []rawItem) error {
	sec := Section{Name: name}
	for _, v := range voci {
		item, err := normalizeItem(v, name)
		if err != nil {
			return err
		}
		if _, dup := c.byID[item.ID]; dup {
			return &MalformedMenuError{Reason: fmt.Sprintf("duplicate item id %q", item.ID)}
		}
		c.byID[item.ID] = item
		c.items = append(c.items, item)
		sec.Items = append(sec.Items, item)
	}
	c.Sections = append(c.Sections, sec)
	return nil
}

func normalizeItem(v rawItem, section string) (*Item, error) {
	if v.Nome == "" {
		return nil, &MalformedMenuError{Reason: fmt.Sprintf("item without name in section %q", section)}
	}

	variants := v.Taglie
	if len(variants) == 0 {
		if v.Prezzo <= 0 {
			return nil, &MalformedMenuError{Reason: fmt.Sprintf("item %q has no price", v.Nome)}
		}
		variants = []Variant{{Label: "", Price: v.Prezzo}}
	} else {
		for _, t := range variants {
			if t.Price <= 0 {
				return nil, &MalformedMenuError{Reason: fmt.Sprintf("item %q has variant %q without price", v.Nome, t.Label)}
			}
		}
	}

	id := v.ID
	if id == "" {
		id = v.Nome
	}

	return &Item{
		ID:          id,
		Name:        v.Nome,
		Description: v.Descrizione,
		Section:     section,
		Variants:    variants,
		Allergens:   normalizeAllergens(v.Allergeni),
		Vegetarian:  v.Vegetariano || strings.Contains(v.Nome, "(V)"),
		Vegan:       v.Vegano || strings.Contains(v.Nome, "(VG)"),
		Note:        v.Suggerimenti,
		Synonyms:    v.Varianti,
	}, nil
}

// normalizeAllergens flattens the two allergen encodings (numeric codes keyed
// by allergeni_legend, or plain names in the legacy shape) into strings.
func normalizeAllergens(values []any) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		switch a := v.(type) {
		case float64:
			out = append(out, strconv.Itoa(int(a)))
		case string:
			out = append(out, a)
		}
	}
	return out
}
