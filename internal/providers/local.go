package providers

import (
	"context"
	"strings"
)

// LocalProvider is a deterministic offline responder. It keeps the rest of
// the system runnable without a model server: replies are canned waiter
// lines picked from the last customer message. Order tracking never depends
// on these replies, so the conversation stays coherent enough for demos and
// tests.
type LocalProvider struct{}

// NewLocalProvider creates the offline provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

// Name returns the provider name.
func (p *LocalProvider) Name() string {
	return "local"
}

// Generate returns a canned reply based on the last user message.
func (p *LocalProvider) Generate(_ context.Context, messages []Message, _ int, _ float64) (string, error) {
	last := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			last = strings.ToLower(messages[i].Content)
			break
		}
	}

	switch {
	case last == "":
		return "Benvenuto! Cosa posso portarle?", nil
	case strings.Contains(last, "ciao") || strings.Contains(last, "hello") || strings.Contains(last, "buongiorno"):
		return "Benvenuti! Sono il vostro cameriere, cosa posso portarvi?", nil
	case strings.Contains(last, "consigli") || strings.Contains(last, "recommend"):
		return "Le consiglio di dare un'occhiata alle nostre specialità del giorno.", nil
	case strings.Contains(last, "grazie") || strings.Contains(last, "thank"):
		return "Prego! Sono qui se desidera altro.", nil
	case strings.Contains(last, "?"):
		return "Ottima domanda: trova tutti i dettagli nel menu, e sono qui per qualsiasi chiarimento.", nil
	default:
		return "Perfetto, ho preso nota. Desidera aggiungere qualcos'altro?", nil
	}
}
