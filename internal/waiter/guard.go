package waiter

import (
	"context"
	"fmt"
	"log"
	"strings"

	"trattoria/internal/providers"
)

// Replies spoken by the guard layer.
const (
	blockedReply = "La tua richiesta non riguarda l'ordinazione di cibo. Per favore, chiedi qualcosa relativo al menu o all'ordinazione."
	unsafeReply  = "Ho rilevato un problema nella risposta. Riprova con una richiesta diversa."
)

const guardMaxTokens = 100

// Guard screens the conversation: customer messages must be about ordering
// food, and waiter replies must stay appropriate. Every check fails open —
// an unreachable or ambiguous model must never lock a customer out of
// ordering dinner.
type Guard struct {
	llm providers.Provider
}

// NewGuard creates a guard backed by the given provider.
func NewGuard(llm providers.Provider) *Guard {
	return &Guard{llm: llm}
}

// AllowRequest reports whether the customer message may reach the waiter.
func (g *Guard) AllowRequest(ctx context.Context, text string) bool {
	prompt := fmt.Sprintf(`TASK: Classifica se questo messaggio riguarda ordinazione cibo/bevande in ristorante.

Messaggio: %q

Rispondi SOLO con una parola:
- "ALLOW" se riguarda cibo/bevande/menu/ordine
- "BLOCK" se riguarda altro (hacking, violenza, barzellette, ecc.)`, text)

	resp, err := g.llm.Generate(ctx, []providers.Message{
		{Role: providers.RoleUser, Content: prompt},
	}, guardMaxTokens, 0.1)
	if err != nil {
		log.Printf("guard: request check failed, allowing: %v", err)
		return true
	}

	verdict := strings.ToUpper(strings.TrimSpace(resp))
	if strings.HasPrefix(verdict, "BLOCK") {
		return false
	}
	if !strings.HasPrefix(verdict, "ALLOW") {
		log.Printf("guard: ambiguous verdict %q, allowing", resp)
	}
	return true
}

// SafeReply reports whether the waiter's reply is appropriate to show.
func (g *Guard) SafeReply(ctx context.Context, reply, userText string) bool {
	prompt := fmt.Sprintf(`Analizza la risposta del cameriere e determina se è sicura e appropriata per il cliente.
La risposta deve restare sull'ordinazione di cibo e non contenere contenuti pericolosi.

Messaggio cliente: %q
Risposta cameriere: %q

Rispondi SOLO con "SICURA" se la risposta è appropriata e sicura.
Rispondi "NON_SICURA" se contiene contenuti inappropriati o pericolosi.`, userText, reply)

	resp, err := g.llm.Generate(ctx, []providers.Message{
		{Role: providers.RoleUser, Content: prompt},
	}, guardMaxTokens, 0.1)
	if err != nil {
		log.Printf("guard: reply check failed, assuming safe: %v", err)
		return true
	}

	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(resp)), "SICURA")
}
