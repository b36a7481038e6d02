// Package intent decides whether a customer utterance carries ordering
// intent. Detection is lexical on purpose: the small local models this
// system runs against are unreliable at structured intent output, so the
// classifier relies on curated keyword sets instead of a generation call.
package intent

import (
	"strings"
	"unicode/utf8"
)

// Intent is the classified purpose of one utterance.
type Intent int

const (
	Neutral Intent = iota
	Add
	Remove
	Modify
	Question
)

func (i Intent) String() string {
	switch i {
	case Add:
		return "add"
	case Remove:
		return "remove"
	case Modify:
		return "modify"
	case Question:
		return "question"
	default:
		return "neutral"
	}
}

// Keyword sets cover Italian and English, matching the phrasing the original
// menus and customers use.
var (
	addPhrases = []string{
		"i'll have", "i will have", "i'll take", "i'd like", "i would like",
		"give me", "i want", "can i get", "we'll have", "bring me",
		"add ", "also", "and then",
		"prendo", "prendiamo", "vorrei", "voglio", "ordino", "portami",
		"dammi", "aggiungi", "anche", "e poi",
	}
	removePhrases = []string{
		"remove", "take off", "scrap the", "no more", "drop the",
		"togli", "rimuovi", "leva", "cancella",
	}
	modifyPhrases = []string{
		"instead of", "change the", "replace", "swap",
		"invece d", "cambia", "al posto d", "sostituisci",
	}
	questionPhrases = []string{
		"how much", "what is", "what's", "what does", "what do you",
		"can you tell me", "do you have", "is there", "which",
		"quanto costa", "quanto viene", "cos'è", "cosa contiene",
		"cosa mi consigli", "che significa", "mi puoi dire", "avete",
		"che cos", "cosa c'è",
	}
	indefiniteArticles = map[string]bool{
		"a": true, "an": true, "un": true, "uno": true, "una": true, "un'": true,
	}
)

// Classify decides the intent of a single utterance. When both a question
// marker and an ordering keyword are present, the question wins: asking
// "how much is the risotto?" must never add a risotto.
func Classify(utterance string) Intent {
	text := strings.ToLower(utterance)

	switch {
	case containsAny(text, modifyPhrases):
		return Modify
	case containsAny(text, removePhrases):
		return Remove
	case containsAny(text, questionPhrases):
		return Question
	case containsAny(text, addPhrases):
		return Add
	default:
		return Neutral
	}
}

// WeakAddSignal reports whether the utterance contains an indefinite article
// immediately preceding a noun phrase ("a cappuccino", "un caffè"). This is
// weak evidence of an order: callers must only act on it together with a
// successful menu match.
func WeakAddSignal(utterance string) bool {
	words := strings.Fields(strings.ToLower(utterance))
	for i, w := range words {
		w = strings.Trim(w, ".,;:!?")
		if indefiniteArticles[w] && i+1 < len(words) {
			next := strings.Trim(words[i+1], ".,;:!?")
			if next != "" {
				return true
			}
		}
	}
	return false
}

// ModifyMarkerIndex returns the byte offset of the earliest modify marker in
// the utterance, or -1 when none is present. Callers use it to tell the line
// being replaced ("instead of the X ...") from its replacement.
func ModifyMarkerIndex(utterance string) int {
	text := strings.ToLower(utterance)
	best := -1
	for _, p := range modifyPhrases {
		if idx := indexAtWordStart(text, p); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if indexAtWordStart(text, p) >= 0 {
			return true
		}
	}
	return false
}

// indexAtWordStart finds the first occurrence of phrase that begins on a word
// boundary, so "which" cannot fire inside "sandwich" nor "also" inside
// "falso". The end is deliberately unanchored: markers like "invece d" must
// cover "invece di/del/della".
func indexAtWordStart(text, phrase string) int {
	for from := 0; ; {
		j := strings.Index(text[from:], phrase)
		if j < 0 {
			return -1
		}
		pos := from + j
		if pos == 0 || isBoundary(text[pos-1]) {
			return pos
		}
		from = pos + 1
	}
}

func isBoundary(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', '0' <= b && b <= '9':
		return false
	case b >= utf8.RuneSelf:
		// tail byte of a multi-byte letter
		return false
	}
	return true
}
