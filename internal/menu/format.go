package menu

import (
	"fmt"
	"strings"
)

// FormatForLLM renders the whole catalog as plain text for the system prompt.
func (c *Catalog) FormatForLLM() string {
	var b strings.Builder
	fmt.Fprintf(&b, "MENU - %s\n", c.Restaurant)

	for _, sec := range c.Sections {
		fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(sec.Name))
		for _, it := range sec.Items {
			b.WriteString("- " + it.Name)
			if len(it.Variants) > 1 || it.Variants[0].Label != "" {
				parts := make([]string, len(it.Variants))
				for i, v := range it.Variants {
					parts[i] = fmt.Sprintf("%s: €%.2f", v.Label, v.Price)
				}
				b.WriteString(": " + strings.Join(parts, " | "))
			} else {
				fmt.Fprintf(&b, " (€%.2f)", it.Price())
			}
			if it.Description != "" {
				b.WriteString(": " + it.Description)
			}

			var tags []string
			if it.Vegetarian {
				tags = append(tags, "VEGETARIANO")
			}
			if it.Vegan {
				tags = append(tags, "VEGANO")
			}
			if len(tags) > 0 {
				fmt.Fprintf(&b, " [%s]", strings.Join(tags, ", "))
			}
			if len(it.Allergens) > 0 {
				fmt.Fprintf(&b, " | Allergeni: %s", strings.Join(c.AllergenNames(it.Allergens), ", "))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatSection renders one section for display; empty string if the section
// does not exist.
func (c *Catalog) FormatSection(name string) string {
	items := c.ItemsBySection(name)
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", name)
	for _, it := range items {
		if len(it.Variants) > 1 || it.Variants[0].Label != "" {
			parts := make([]string, len(it.Variants))
			for i, v := range it.Variants {
				parts[i] = fmt.Sprintf("%s: €%.2f", v.Label, v.Price)
			}
			fmt.Fprintf(&b, "- %s: %s\n", it.Name, strings.Join(parts, " | "))
		} else {
			fmt.Fprintf(&b, "- %s - €%.2f\n", it.Name, it.Price())
		}
	}
	return b.String()
}
