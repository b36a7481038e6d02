package waiter

import (
	"regexp"
	"strconv"
	"strings"
)

// allergenTerms maps mention spellings (both languages) to the canonical
// allergy label recorded on the ledger.
var allergenTerms = map[string]string{
	"glutine":      "glutine",
	"gluten":       "glutine",
	"lattosio":     "lattosio",
	"lactose":      "lattosio",
	"latte":        "lattosio",
	"milk":         "lattosio",
	"uova":         "uova",
	"eggs":         "uova",
	"egg":          "uova",
	"solfiti":      "solfiti",
	"sulfites":     "solfiti",
	"frutta secca": "frutta a guscio",
	"nuts":         "frutta a guscio",
	"noci":         "frutta a guscio",
	"arachidi":     "arachidi",
	"peanuts":      "arachidi",
	"crostacei":    "crostacei",
	"shellfish":    "crostacei",
	"pesce":        "pesce",
	"fish":         "pesce",
	"soia":         "soia",
	"soy":          "soia",
}

var budgetPattern = regexp.MustCompile(`(\d+(?:[.,]\d{1,2})?)\s*(?:€|euro|eur)?`)

var budgetKeywords = []string{
	"budget", "al massimo", "massimo", "non più di", "meno di",
	"at most", "under", "less than", "no more than",
}

// extractPreferences scans the message for dietary signals and records them
// on the ledger. Preferences only accumulate; customers rarely retract them
// mid-meal and a wrong retraction is worse than a stale flag.
func (a *Agent) extractPreferences(text string) []Event {
	lower := strings.ToLower(text)
	var events []Event

	if strings.Contains(lower, "vegan") {
		a.ledger.SetVegan(true)
		events = append(events, Event{Action: "preference", Detail: "vegano"})
	} else if strings.Contains(lower, "vegetarian") {
		a.ledger.SetVegetarian(true)
		events = append(events, Event{Action: "preference", Detail: "vegetariano"})
	}

	if strings.Contains(lower, "allerg") || strings.Contains(lower, "intolleran") {
		for term, canonical := range allergenTerms {
			if strings.Contains(lower, term) {
				a.ledger.AddAllergy(canonical)
				events = append(events, Event{Action: "preference", Detail: "allergia: " + canonical})
			}
		}
	}

	if strings.Contains(lower, "piccante") || strings.Contains(lower, "spicy") {
		spice := "yes"
		for _, neg := range []string{"non ", "senza ", "not ", "no ", "niente "} {
			if strings.Contains(lower, neg) {
				spice = "no"
				break
			}
		}
		a.ledger.SetSpice(spice)
		events = append(events, Event{Action: "preference", Detail: "piccante: " + spice})
	}

	for _, kw := range budgetKeywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		m := budgetPattern.FindStringSubmatch(lower[idx:])
		if m == nil {
			continue
		}
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil && v > 0 {
			a.ledger.SetBudget(v)
			events = append(events, Event{Action: "preference", Detail: "budget: " + m[1]})
		}
		break
	}

	return events
}
