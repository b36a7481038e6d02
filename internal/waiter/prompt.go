package waiter

import (
	"strings"
)

// systemPrompt renders the waiter persona with the live menu, preferences and
// current order. Anything extraction just added is spelled out so the model
// acknowledges exactly what the ledger recorded; near-misses for an unmatched
// request come along so the waiter can propose them.
func (a *Agent) systemPrompt(added, suggestions []string) string {
	var b strings.Builder

	b.WriteString("Sei un cameriere esperto e cordiale di ")
	b.WriteString(a.catalog.Restaurant)
	b.WriteString(".\n")
	b.WriteString("Parli italiano con calore; rispondi in inglese se il cliente scrive in inglese.\n")
	b.WriteString("Rispondi SOLO basandoti sul menu qui sotto. Non inventare piatti, prezzi o ingredienti.\n")
	b.WriteString("Non elencare l'ordine riga per riga: il sistema lo tiene già aggiornato.\n\n")

	b.WriteString(a.catalog.FormatForLLM())

	b.WriteString("\nPREFERENZE DEL CLIENTE: ")
	b.WriteString(a.ledger.Preferences().FormatForWaiter())
	b.WriteString("\n")

	b.WriteString("\nORDINE ATTUALE:\n")
	b.WriteString(a.ledger.Summary())
	b.WriteString("\n")

	if len(added) > 0 {
		b.WriteString("\nAPPENA AGGIUNTO ALL'ORDINE: ")
		b.WriteString(strings.Join(added, ", "))
		b.WriteString("\nConferma queste aggiunte con naturalezza, senza ripetere i prezzi.\n")
	}

	if len(suggestions) > 0 {
		b.WriteString("\nIl cliente ha chiesto qualcosa che NON è sul menu.\n")
		b.WriteString("Forse intendeva: ")
		b.WriteString(strings.Join(suggestions, ", "))
		b.WriteString(".\nChiedi conferma proponendo queste alternative.\n")
	}

	return b.String()
}
