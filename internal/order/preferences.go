package order

import (
	"fmt"
	"strings"
)

// Preferences collects customer dietary flags gathered during the
// conversation. Allergies behave as a set.
type Preferences struct {
	Vegetarian bool     `json:"vegetariano"`
	Vegan      bool     `json:"vegano"`
	Allergies  []string `json:"allergie"`
	Spice      string   `json:"piccante,omitempty"`
	Budget     float64  `json:"budget,omitempty"`
	Notes      string   `json:"note,omitempty"`
}

// HasRestrictions reports whether any dietary constraint is set.
func (p Preferences) HasRestrictions() bool {
	return p.Vegetarian || p.Vegan || len(p.Allergies) > 0 || p.Notes != ""
}

// FormatForWaiter renders the preferences for the system prompt.
func (p Preferences) FormatForWaiter() string {
	var parts []string
	if p.Vegetarian {
		parts = append(parts, "vegetariano")
	}
	if p.Vegan {
		parts = append(parts, "vegano")
	}
	if len(p.Allergies) > 0 {
		parts = append(parts, "allergie: "+strings.Join(p.Allergies, ", "))
	}
	if p.Spice != "" {
		parts = append(parts, "piccante: "+p.Spice)
	}
	if p.Budget > 0 {
		parts = append(parts, fmt.Sprintf("budget: €%.2f", p.Budget))
	}
	if p.Notes != "" {
		parts = append(parts, "note: "+p.Notes)
	}
	if len(parts) == 0 {
		return "nessuna preferenza specifica"
	}
	return strings.Join(parts, " | ")
}

// Preferences returns a copy of the current preference flags.
func (l *Ledger) Preferences() Preferences {
	out := l.prefs
	out.Allergies = append([]string(nil), l.prefs.Allergies...)
	return out
}

// SetVegetarian flags the customer as vegetarian.
func (l *Ledger) SetVegetarian(v bool) { l.prefs.Vegetarian = v }

// SetVegan flags the customer as vegan.
func (l *Ledger) SetVegan(v bool) { l.prefs.Vegan = v }

// SetSpice records the spice preference ("yes"/"no").
func (l *Ledger) SetSpice(s string) { l.prefs.Spice = s }

// SetBudget records the customer's budget ceiling.
func (l *Ledger) SetBudget(v float64) { l.prefs.Budget = v }

// SetNotes records free-form preference notes.
func (l *Ledger) SetNotes(s string) { l.prefs.Notes = s }

// AddAllergy records an allergy once, case-insensitive.
func (l *Ledger) AddAllergy(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for _, a := range l.prefs.Allergies {
		if strings.EqualFold(a, name) {
			return
		}
	}
	l.prefs.Allergies = append(l.prefs.Allergies, name)
}
