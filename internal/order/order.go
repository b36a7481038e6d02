// Package order holds the running order of one conversation session. The
// ledger is the only mutation path; totals are always derived from the
// current lines so they can never drift.
package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"trattoria/internal/menu"
)

// ErrInvariant marks programming errors (negative quantities and the like)
// that must never be reachable through normal use.
var ErrInvariant = errors.New("ledger invariant violation")

// Status is the order lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusSent      Status = "sent"
)

// Line is one order entry. UnitPrice is snapshotted at add time so later
// catalog edits never retroactively change an existing order.
type Line struct {
	ItemID    string  `json:"id"`
	Name      string  `json:"nome"`
	Variant   string  `json:"taglia,omitempty"`
	Quantity  int     `json:"quantita"`
	UnitPrice float64 `json:"prezzo"`
}

// Total returns quantity × unit price for this line.
func (l Line) Total() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

func (l Line) display() string {
	name := l.Name
	if l.Variant != "" {
		name += fmt.Sprintf(" (%s)", l.Variant)
	}
	return name
}

// Ledger is the mutable order state of a single session. It is not safe for
// concurrent use; a session processes turns strictly sequentially.
type Ledger struct {
	lines     []Line
	prefs     Preferences
	status    Status
	createdAt time.Time
}

// NewLedger creates an empty draft order.
func NewLedger() *Ledger {
	return &Ledger{status: StatusDraft, createdAt: time.Now()}
}

// Add appends a new line, or increments the quantity of an existing line
// that references the same item and variant. The variant label must exist on
// the item; an empty label selects the first-declared variant.
func (l *Ledger) Add(it *menu.Item, variant string, qty int) (Line, error) {
	if qty < 1 {
		return Line{}, fmt.Errorf("%w: quantity %d for %q", ErrInvariant, qty, it.Name)
	}

	v := it.DefaultVariant()
	if variant != "" {
		found, ok := it.VariantByLabel(variant)
		if !ok {
			return Line{}, fmt.Errorf("item %q has no variant %q", it.Name, variant)
		}
		v = found
	}

	for i := range l.lines {
		if l.lines[i].ItemID == it.ID && strings.EqualFold(l.lines[i].Variant, v.Label) {
			l.lines[i].Quantity += qty
			return l.lines[i], nil
		}
	}

	line := Line{
		ItemID:    it.ID,
		Name:      it.Name,
		Variant:   v.Label,
		Quantity:  qty,
		UnitPrice: v.Price,
	}
	l.lines = append(l.lines, line)
	return line, nil
}

// Remove deletes the line that best matches the given fragment, which may be
// an item id, a name, or a whole utterance ("take off the risotto"). The
// match runs against current order contents only. A miss is a reported
// outcome, never an error.
func (l *Ledger) Remove(fragment string) (Line, bool) {
	idx := l.findLine(fragment)
	if idx < 0 {
		return Line{}, false
	}
	removed := l.lines[idx]
	l.lines = append(l.lines[:idx], l.lines[idx+1:]...)
	return removed, true
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (l *Ledger) UpdateQuantity(itemID, variant string, qty int) bool {
	for i := range l.lines {
		if l.lines[i].ItemID == itemID && (variant == "" || strings.EqualFold(l.lines[i].Variant, variant)) {
			if qty <= 0 {
				l.lines = append(l.lines[:i], l.lines[i+1:]...)
			} else {
				l.lines[i].Quantity = qty
			}
			return true
		}
	}
	return false
}

// Modify atomically replaces the line matching oldRef with the given item
// and variant. If the add half fails, the removed line is restored at its
// original position, so the ledger is never left without the original line.
// The boolean reports whether oldRef matched anything.
func (l *Ledger) Modify(oldRef string, it *menu.Item, variant string, qty int) (Line, bool, error) {
	idx := l.findLine(oldRef)
	if idx < 0 {
		return Line{}, false, nil
	}

	old := l.lines[idx]
	l.lines = append(l.lines[:idx], l.lines[idx+1:]...)

	line, err := l.Add(it, variant, qty)
	if err != nil {
		rest := append([]Line{old}, l.lines[idx:]...)
		l.lines = append(l.lines[:idx], rest...)
		return Line{}, true, err
	}
	return line, true, nil
}

// findLine matches a fragment against current lines: exact id/name first,
// then containment either way, then token overlap.
func (l *Ledger) findLine(fragment string) int {
	frag := strings.ToLower(strings.TrimSpace(fragment))
	if frag == "" {
		return -1
	}

	best, bestScore := -1, 0.0
	for i, line := range l.lines {
		name := strings.ToLower(line.Name)
		id := strings.ToLower(line.ItemID)

		var score float64
		switch {
		case frag == id || frag == name:
			score = 3
		case strings.Contains(frag, name) || strings.Contains(name, frag):
			score = 2
		default:
			score = overlapRatio(frag, name)
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if bestScore < 0.5 {
		return -1
	}
	return best
}

// overlapRatio is the fraction of name tokens present in the fragment.
func overlapRatio(frag, name string) float64 {
	nameTokens := strings.Fields(name)
	if len(nameTokens) == 0 {
		return 0
	}
	fragTokens := map[string]bool{}
	for _, t := range strings.Fields(frag) {
		fragTokens[strings.Trim(t, ".,;:!?")] = true
	}
	hits := 0
	for _, t := range nameTokens {
		if fragTokens[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(nameTokens))
}

// Total is recomputed on demand from the current lines.
func (l *Ledger) Total() float64 {
	sum := 0.0
	for _, line := range l.lines {
		sum += line.Total()
	}
	return sum
}

// Lines returns a copy of the current lines in insertion order.
func (l *Ledger) Lines() []Line {
	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

// Count returns the total item quantity across lines.
func (l *Ledger) Count() int {
	n := 0
	for _, line := range l.lines {
		n += line.Quantity
	}
	return n
}

// IsEmpty reports whether the order has no lines.
func (l *Ledger) IsEmpty() bool {
	return len(l.lines) == 0
}

// Reset clears all lines and preference flags. Conversation history lives
// elsewhere and is deliberately untouched.
func (l *Ledger) Reset() {
	l.lines = nil
	l.prefs = Preferences{}
	l.status = StatusDraft
}

// Confirm moves the order to the confirmed state.
func (l *Ledger) Confirm() {
	l.status = StatusConfirmed
}

// SendToKitchen marks the order as sent.
func (l *Ledger) SendToKitchen() {
	l.status = StatusSent
}

// Status returns the lifecycle state.
func (l *Ledger) Status() Status {
	return l.status
}

// Snapshot is a serializable view of the order.
type Snapshot struct {
	Lines       []Line      `json:"items"`
	Total       float64     `json:"totale"`
	Status      Status      `json:"status"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Snapshot captures the current order state.
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{
		Lines:       l.Lines(),
		Total:       l.Total(),
		Status:      l.status,
		Preferences: l.prefs,
		CreatedAt:   l.createdAt,
	}
}

// Summary renders the order for the customer.
func (l *Ledger) Summary() string {
	if l.IsEmpty() {
		return "Nessun ordine ancora."
	}

	var b strings.Builder
	b.WriteString("**Il tuo ordine:**\n")
	for _, line := range l.lines {
		fmt.Fprintf(&b, "- %s x%d — €%.2f\n", line.display(), line.Quantity, line.Total())
	}
	fmt.Fprintf(&b, "\n**Totale: €%.2f**", l.Total())

	if l.prefs.HasRestrictions() {
		fmt.Fprintf(&b, "\n_Preferenze: %s_", l.prefs.FormatForWaiter())
	}
	return b.String()
}

// KitchenSummary renders the order for the kitchen ticket.
func (l *Ledger) KitchenSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ORDINE - %s\n", l.createdAt.Format("15:04"))
	if l.prefs.HasRestrictions() {
		fmt.Fprintf(&b, "ATTENZIONE: %s\n\n", l.prefs.FormatForWaiter())
	}
	for _, line := range l.lines {
		fmt.Fprintf(&b, "%dx %s\n", line.Quantity, line.display())
	}
	fmt.Fprintf(&b, "\nTOTALE: €%.2f", l.Total())
	return b.String()
}
