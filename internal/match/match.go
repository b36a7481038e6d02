// Package match resolves free-form utterances against the menu catalog,
// binding size variants and quantities to concrete items.
package match

import (
	"sort"
	"strings"

	"trattoria/internal/intent"
	"trattoria/internal/menu"
)

// Candidate is one resolved order line proposal.
type Candidate struct {
	Item     *menu.Item
	Variant  string
	Quantity int
	// Ambiguous is set when the item has multiple variants and no size
	// qualifier was found, so the first-declared variant was assumed.
	Ambiguous bool
	Score     float64
}

// minOverlap is the token-overlap threshold below which an item is not
// considered mentioned at all.
const minOverlap = 0.5

var stopwords = map[string]bool{
	"il": true, "lo": true, "la": true, "le": true, "i": true, "gli": true,
	"di": true, "del": true, "della": true, "con": true, "al": true,
	"alla": true, "ai": true, "e": true, "da": true, "in": true, "per": true,
	"the": true, "with": true, "and": true, "of": true, "a": true, "an": true,
	"v": true, "vg": true,
}

var cardinals = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"uno": 1, "una": 1, "un": 1, "due": 2, "tre": 3, "quattro": 4,
	"cinque": 5, "sei": 6, "sette": 7, "otto": 8, "nove": 9, "dieci": 10,
	"1": 1, "2": 2, "3": 3, "4": 4, "5": 5,
	"6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
}

// sizeGroups are interchangeable size qualifier spellings. A variant label
// matches an utterance token when both fall in the same group or are equal.
var sizeGroups = [][]string{
	{"small", "piccolo", "piccola", "piccoli"},
	{"medium", "medio", "media", "regular", "normale"},
	{"large", "grande", "grandi", "big", "maxi"},
}

// Resolve fuzzy-matches the utterance against catalog item names and
// synonyms and returns candidates best-first. Each recognized item span is
// resolved independently, so "two coffees and a croissant" yields two
// candidates with their own quantities. No match yields an empty slice; the
// caller must not mutate the order in that case.
func Resolve(utterance string, in intent.Intent, cat *menu.Catalog) []Candidate {
	words := tokenize(utterance)
	if len(words) == 0 {
		return nil
	}

	type scored struct {
		cand      Candidate
		positions []int
		substring bool
		order     int
	}
	var all []scored

	lowered := " " + strings.Join(words, " ") + " "
	for pos, it := range cat.Items() {
		positions, overlap, substr := matchItem(words, lowered, it)
		if overlap < minOverlap || len(positions) == 0 {
			continue
		}
		// Without explicit ordering intent only a full-name mention counts;
		// weak signals must not trigger on a single shared token.
		if in == intent.Neutral && !substr {
			continue
		}

		score := overlap
		if substr {
			score += 0.5
		}

		variant, ambiguous := resolveVariant(words, positions, it)
		all = append(all, scored{
			cand: Candidate{
				Item:      it,
				Variant:   variant,
				Quantity:  resolveQuantity(words, positions),
				Ambiguous: ambiguous,
				Score:     score,
			},
			positions: positions,
			substring: substr,
			order:     pos,
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].cand.Score != all[j].cand.Score {
			return all[i].cand.Score > all[j].cand.Score
		}
		if all[i].substring != all[j].substring {
			return all[i].substring
		}
		return all[i].order < all[j].order
	})

	// Greedy span assignment: once an utterance token is claimed by a better
	// candidate, weaker candidates built on the same span are dropped.
	consumed := make(map[int]bool)
	var out []Candidate
	for _, s := range all {
		taken := false
		for _, p := range s.positions {
			if consumed[p] {
				taken = true
				break
			}
		}
		if taken {
			continue
		}
		for _, p := range s.positions {
			consumed[p] = true
		}
		out = append(out, s.cand)
	}
	return out
}

// matchItem computes which utterance tokens the item name (or a synonym)
// accounts for, the overlap ratio over the name's content tokens, and
// whether the full name appears verbatim.
func matchItem(words []string, lowered string, it *menu.Item) ([]int, float64, bool) {
	names := append([]string{it.Name}, it.Synonyms...)

	var bestPositions []int
	var bestOverlap float64
	bestSubstr := false

	for _, name := range names {
		nameTokens := contentTokens(name)
		if len(nameTokens) == 0 {
			continue
		}

		var positions []int
		matched := 0
		for _, nt := range nameTokens {
			for i, w := range words {
				if tokensEqual(nt, w) {
					positions = append(positions, i)
					matched++
					break
				}
			}
		}
		overlap := float64(matched) / float64(len(nameTokens))
		substr := strings.Contains(lowered, " "+strings.Join(tokenizeName(name), " ")+" ")

		if overlap > bestOverlap || (overlap == bestOverlap && substr && !bestSubstr) {
			bestPositions, bestOverlap, bestSubstr = positions, overlap, substr
		}
	}
	return bestPositions, bestOverlap, bestSubstr
}

// resolveVariant scans around the matched span for a size qualifier. With no
// qualifier on a multi-variant item, the first-declared variant is assumed
// and the candidate flagged ambiguous for confirmation surfacing.
func resolveVariant(words []string, positions []int, it *menu.Item) (string, bool) {
	if len(it.Variants) == 1 {
		return it.Variants[0].Label, false
	}

	lo, hi := window(positions, len(words), 2)
	for i := lo; i <= hi; i++ {
		for _, v := range it.Variants {
			if qualifierMatches(words[i], v.Label) {
				return v.Label, false
			}
		}
	}
	return it.Variants[0].Label, true
}

// resolveQuantity finds a small cardinal or digit near the matched span.
// Defaults to one.
func resolveQuantity(words []string, positions []int) int {
	lo, hi := window(positions, len(words), 3)
	for i := lo; i <= hi; i++ {
		inSpan := false
		for _, p := range positions {
			if p == i {
				inSpan = true
				break
			}
		}
		if inSpan {
			continue
		}
		if n, ok := cardinals[words[i]]; ok && n > 1 {
			return n
		}
	}
	return 1
}

func window(positions []int, n, radius int) (int, int) {
	lo, hi := positions[0], positions[0]
	for _, p := range positions {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	lo -= radius
	hi += radius
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	return lo, hi
}

func qualifierMatches(token, label string) bool {
	label = strings.ToLower(label)
	if token == label {
		return true
	}
	for _, group := range sizeGroups {
		inGroup := func(s string) bool {
			for _, g := range group {
				if g == s {
					return true
				}
			}
			return false
		}
		if inGroup(token) && inGroup(label) {
			return true
		}
	}
	return false
}

// tokensEqual tolerates trailing plural "s" so "coffees" still matches
// "coffee".
func tokensEqual(a, b string) bool {
	if a == b {
		return true
	}
	return strings.TrimSuffix(a, "s") == strings.TrimSuffix(b, "s")
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9':
			return false
		case r == 'è' || r == 'é' || r == 'à' || r == 'ù' || r == 'ò' || r == 'ì':
			return false
		}
		return true
	})
}

func tokenizeName(name string) []string {
	return tokenize(name)
}

func contentTokens(name string) []string {
	var out []string
	for _, t := range tokenize(name) {
		if !stopwords[t] {
			out = append(out, t)
		}
	}
	return out
}
