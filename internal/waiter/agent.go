// Package waiter orchestrates a conversation session: it extracts order
// intents from each customer message, updates the order ledger, and asks the
// LLM provider for the spoken reply. Order state is deterministic and never
// depends on model output.
package waiter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"trattoria/internal/intent"
	"trattoria/internal/match"
	"trattoria/internal/menu"
	"trattoria/internal/order"
	"trattoria/internal/providers"
)

// historyWindow is how many recent turns travel into the generation context.
const historyWindow = 10

// fallbackReply is spoken when generation fails; the order itself is already
// settled by extraction at that point.
const fallbackReply = "Mi scusi, ho avuto un problema tecnico. Può ripetere, per favore?"

// Turn is one recorded conversation exchange entry.
type Turn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Event records one extraction decision for observability.
type Event struct {
	Action string `json:"action"`
	Detail string `json:"detail"`
}

// TurnResult is the outcome of one customer message.
type TurnResult struct {
	Reply   string
	Order   order.Snapshot
	Events  []Event
	Command bool
	Quit    bool
}

// Options tune the generation parameters. Guarded adds a screening pass
// around each exchange: off-topic requests get a fixed refusal and replies
// are checked before they reach the customer, at the cost of extra
// generation calls per turn.
type Options struct {
	MaxTokens   int
	Temperature float64
	Guarded     bool
}

// Agent runs a single conversation session against a fixed catalog. It is
// not safe for concurrent use; callers serialize turns per session.
type Agent struct {
	llm     providers.Provider
	catalog *menu.Catalog
	ledger  *order.Ledger
	guard   *Guard
	history []Turn
	opts    Options
}

// New creates a session agent over the given catalog and provider.
func New(llm providers.Provider, cat *menu.Catalog, opts Options) *Agent {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.8
	}
	a := &Agent{
		llm:     llm,
		catalog: cat,
		ledger:  order.NewLedger(),
		opts:    opts,
	}
	if opts.Guarded {
		a.guard = NewGuard(llm)
	}
	return a
}

// Ledger exposes the session order for the hosting surface (CLI or server).
func (a *Agent) Ledger() *order.Ledger {
	return a.ledger
}

// Catalog returns the menu this session serves from.
func (a *Agent) Catalog() *menu.Catalog {
	return a.catalog
}

// HandleTurn processes one customer message: special commands short-circuit,
// otherwise extraction mutates the ledger first and the reply is generated
// afterwards. When generation fails the returned error wraps
// *providers.GenerationError, the reply is a fixed apology, no turns are
// recorded, and the ledger keeps whatever extraction already applied.
func (a *Agent) HandleTurn(ctx context.Context, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &TurnResult{Order: a.ledger.Snapshot()}, nil
	}

	if res, ok := a.handleCommand(text); ok {
		return res, nil
	}

	if a.guard != nil && !a.guard.AllowRequest(ctx, text) {
		return &TurnResult{
			Reply:  blockedReply,
			Order:  a.ledger.Snapshot(),
			Events: []Event{{Action: "guard_blocked", Detail: text}},
		}, nil
	}

	events, added, suggestions := a.extract(text)

	reply, err := a.llm.Generate(ctx, a.buildMessages(text, added, suggestions), a.opts.MaxTokens, a.opts.Temperature)
	if err != nil {
		events = append(events, Event{Action: "generation_error", Detail: err.Error()})
		return &TurnResult{
			Reply:  fallbackReply,
			Order:  a.ledger.Snapshot(),
			Events: events,
		}, fmt.Errorf("handle turn: %w", err)
	}

	if a.guard != nil && !a.guard.SafeReply(ctx, reply, text) {
		events = append(events, Event{Action: "guard_revised", Detail: reply})
		reply = unsafeReply
	}

	now := time.Now()
	a.history = append(a.history,
		Turn{Role: providers.RoleUser, Text: text, Timestamp: now},
		Turn{Role: providers.RoleAssistant, Text: reply, Timestamp: now},
	)

	return &TurnResult{
		Reply:  reply,
		Order:  a.ledger.Snapshot(),
		Events: events,
	}, nil
}

// handleCommand intercepts the direct commands that never consume a
// generation call.
func (a *Agent) handleCommand(text string) (*TurnResult, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "menu":
		return &TurnResult{
			Reply:   a.catalog.FormatForLLM(),
			Order:   a.ledger.Snapshot(),
			Command: true,
		}, true
	case "ordine", "order":
		return &TurnResult{
			Reply:   a.ledger.Summary(),
			Order:   a.ledger.Snapshot(),
			Command: true,
		}, true
	case "reset":
		a.ledger.Reset()
		return &TurnResult{
			Reply:   "Ordine azzerato! Ricominciamo da capo.",
			Order:   a.ledger.Snapshot(),
			Command: true,
		}, true
	case "esci", "quit", "exit":
		reply := "Arrivederci! Grazie per la visita."
		if !a.ledger.IsEmpty() {
			a.ledger.Confirm()
			reply = a.ledger.Summary() + "\n\nArrivederci! Grazie per la visita."
		}
		return &TurnResult{
			Reply:   reply,
			Order:   a.ledger.Snapshot(),
			Command: true,
			Quit:    true,
		}, true
	}
	return nil, false
}

// extract classifies the message and applies the resulting order mutations.
// It returns the event log, the display names of anything added, and menu
// suggestions for unmatched requests; the prompt uses both lists to keep the
// reply consistent with the ledger.
func (a *Agent) extract(text string) ([]Event, []string, []string) {
	events := a.extractPreferences(text)

	in := intent.Classify(text)
	events = append(events, Event{Action: "classified", Detail: in.String()})

	var added, suggestions []string
	switch in {
	case intent.Add:
		added, suggestions, events = a.applyAdds(text, in, events)

	case intent.Remove:
		frag := text
		if cands := match.Resolve(text, in, a.catalog); len(cands) > 0 {
			frag = cands[0].Item.Name
		}
		if line, ok := a.ledger.Remove(frag); ok {
			events = append(events, Event{Action: "removed", Detail: line.Name})
		} else {
			events = append(events, Event{Action: "remove_not_found", Detail: frag})
		}

	case intent.Modify:
		events = a.applyModify(text, events)

	case intent.Neutral:
		// Weak signal: an indefinite article alone only counts when the
		// full item name is actually on the menu.
		if intent.WeakAddSignal(text) {
			added, suggestions, events = a.applyAdds(text, in, events)
		}
	}
	return events, added, suggestions
}

func (a *Agent) applyAdds(text string, in intent.Intent, events []Event) ([]string, []string, []Event) {
	cands := match.Resolve(text, in, a.catalog)
	if len(cands) == 0 {
		events = append(events, Event{Action: "no_match", Detail: text})
		suggestions := a.suggestAlternatives(text)
		for _, s := range suggestions {
			events = append(events, Event{Action: "suggested", Detail: s})
		}
		return nil, suggestions, events
	}

	var added []string
	for _, c := range cands {
		line, err := a.ledger.Add(c.Item, c.Variant, c.Quantity)
		if err != nil {
			events = append(events, Event{Action: "add_failed", Detail: err.Error()})
			continue
		}
		detail := fmt.Sprintf("%dx %s", c.Quantity, line.Name)
		if line.Variant != "" {
			detail += " (" + line.Variant + ")"
		}
		action := "added"
		if c.Ambiguous {
			action = "added_default_variant"
		}
		events = append(events, Event{Action: action, Detail: detail})
		added = append(added, detail)
	}
	return added, nil, events
}

// suggestAlternatives looks up near-misses for a request that matched nothing,
// so the waiter can ask "did you mean ...?" instead of a blank apology.
func (a *Agent) suggestAlternatives(text string) []string {
	hits := a.catalog.FindByText(text)
	if len(hits) > 3 {
		hits = hits[:3]
	}
	names := make([]string, len(hits))
	for i, it := range hits {
		names[i] = it.Name
	}
	return names
}

// applyModify splits the resolved candidates into the line being replaced
// and its replacement, then swaps them atomically. When several mentioned
// items are already on the order, the one named closest after the modify
// marker ("instead of the X ...") is the one being replaced.
func (a *Agent) applyModify(text string, events []Event) []Event {
	cands := match.Resolve(text, intent.Modify, a.catalog)

	onOrder := func(id string) bool {
		for _, line := range a.ledger.Lines() {
			if line.ItemID == id {
				return true
			}
		}
		return false
	}

	lower := strings.ToLower(text)
	marker := intent.ModifyMarkerIndex(lower)
	if marker < 0 {
		marker = 0
	}

	oldIdx, oldDist := -1, len(lower)+1
	for i := range cands {
		if !onOrder(cands[i].Item.ID) {
			continue
		}
		pos := mentionIndex(lower, cands[i].Item)
		if pos < 0 {
			continue
		}
		dist := pos - marker
		if dist < 0 {
			// mentions before the marker lose to any mention after it
			dist += len(lower)
		}
		if dist < oldDist {
			oldIdx, oldDist = i, dist
		}
	}
	if oldIdx < 0 {
		return append(events, Event{Action: "modify_incomplete", Detail: text})
	}

	// Replacement: the best other candidate, preferring one not yet ordered.
	var repl *match.Candidate
	for i := range cands {
		if i == oldIdx {
			continue
		}
		if !onOrder(cands[i].Item.ID) {
			repl = &cands[i]
			break
		}
		if repl == nil {
			repl = &cands[i]
		}
	}
	if repl == nil {
		return append(events, Event{Action: "modify_incomplete", Detail: text})
	}

	line, found, err := a.ledger.Modify(cands[oldIdx].Item.ID, repl.Item, repl.Variant, repl.Quantity)
	switch {
	case err != nil:
		return append(events, Event{Action: "modify_failed", Detail: err.Error()})
	case !found:
		return append(events, Event{Action: "modify_incomplete", Detail: text})
	default:
		return append(events, Event{Action: "modified", Detail: line.Name})
	}
}

// mentionIndex finds the earliest byte offset where a token of the item's
// name or synonyms occurs in the lowered utterance. Short tokens are skipped
// so articles inside names cannot anchor a mention.
func mentionIndex(lower string, it *menu.Item) int {
	best := -1
	names := append([]string{it.Name}, it.Synonyms...)
	for _, n := range names {
		for _, tok := range strings.Fields(strings.ToLower(n)) {
			if len(tok) < 3 {
				continue
			}
			if idx := strings.Index(lower, tok); idx >= 0 && (best < 0 || idx < best) {
				best = idx
			}
		}
	}
	return best
}

// Greeting generates the opening line. Generation failure degrades to a
// fixed welcome rather than surfacing an error before the first exchange.
func (a *Agent) Greeting(ctx context.Context) string {
	messages := []providers.Message{
		{Role: providers.RoleSystem, Content: a.systemPrompt(nil, nil)},
		{Role: providers.RoleUser, Content: "Ciao!"},
	}
	reply, err := a.llm.Generate(ctx, messages, a.opts.MaxTokens, a.opts.Temperature)
	if err != nil {
		reply = "Benvenuti! Sono il vostro cameriere, cosa posso portarvi?"
	}
	a.history = append(a.history, Turn{
		Role: providers.RoleAssistant, Text: reply, Timestamp: time.Now(),
	})
	return reply
}

// History returns a copy of the recorded turns.
func (a *Agent) History() []Turn {
	out := make([]Turn, len(a.history))
	copy(out, a.history)
	return out
}

// TranscriptJSON serializes the full conversation for export.
func (a *Agent) TranscriptJSON() ([]byte, error) {
	data, err := json.MarshalIndent(a.history, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal transcript: %w", err)
	}
	return data, nil
}

// buildMessages assembles the generation context: system prompt, a sliding
// window of recent turns, and the current message.
func (a *Agent) buildMessages(text string, added, suggestions []string) []providers.Message {
	messages := []providers.Message{
		{Role: providers.RoleSystem, Content: a.systemPrompt(added, suggestions)},
	}

	start := 0
	if len(a.history) > historyWindow {
		start = len(a.history) - historyWindow
	}
	for _, t := range a.history[start:] {
		messages = append(messages, providers.Message{Role: t.Role, Content: t.Text})
	}

	return append(messages, providers.Message{Role: providers.RoleUser, Content: text})
}
