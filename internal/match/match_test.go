package match

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trattoria/internal/intent"
	"trattoria/internal/menu"
)

const fixture = `{
	"ristorante": "Test",
	"sezioni": [
		{
			"nome": "Caffetteria",
			"voci": [
				{"id": "coffee", "nome": "Coffee", "prezzo": 1.50, "varianti": ["espresso"]},
				{"id": "cappuccino", "nome": "Cappuccino", "prezzo": 2.20}
			]
		},
		{
			"nome": "Colazione",
			"voci": [
				{"id": "croissant", "nome": "Croissant", "prezzo": 1.80},
				{
					"id": "yogurt",
					"nome": "Yogurt con frutta",
					"taglie": [
						{"nome": "piccolo", "prezzo": 3.50},
						{"nome": "grande", "prezzo": 5.00}
					]
				}
			]
		},
		{
			"nome": "Bistrot",
			"voci": [
				{"id": "risotto", "nome": "Risotto ai funghi", "prezzo": 12.00},
				{"id": "risotto-mare", "nome": "Risotto alla pescatora", "prezzo": 15.00}
			]
		}
	]
}`

func testCatalog(t *testing.T) *menu.Catalog {
	t.Helper()
	c, err := menu.Load(strings.NewReader(fixture))
	require.NoError(t, err)
	return c
}

func TestResolveSimpleAdd(t *testing.T) {
	cat := testCatalog(t)

	cands := Resolve("I'll have a cappuccino please", intent.Add, cat)
	require.Len(t, cands, 1)
	assert.Equal(t, "cappuccino", cands[0].Item.ID)
	assert.Equal(t, 1, cands[0].Quantity)
	assert.False(t, cands[0].Ambiguous)
}

func TestResolveVariantQualifier(t *testing.T) {
	cat := testCatalog(t)

	cands := Resolve("I'll have the large yogurt with fruit", intent.Add, cat)
	require.NotEmpty(t, cands)
	assert.Equal(t, "yogurt", cands[0].Item.ID)
	assert.Equal(t, "grande", cands[0].Variant, "size qualifier must bind the variant, not the default")
	assert.False(t, cands[0].Ambiguous)

	// Italian qualifier spelling binds the same group.
	cands = Resolve("prendo uno yogurt piccolo", intent.Add, cat)
	require.NotEmpty(t, cands)
	assert.Equal(t, "piccolo", cands[0].Variant)
}

func TestResolveAmbiguousVariantDefaults(t *testing.T) {
	cat := testCatalog(t)

	cands := Resolve("I'd like the yogurt", intent.Add, cat)
	require.NotEmpty(t, cands)
	assert.Equal(t, "piccolo", cands[0].Variant, "first-declared variant is the default")
	assert.True(t, cands[0].Ambiguous, "defaulted multi-variant resolution must be flagged")
}

// Each recognized item span resolves independently: no global quantity guess.
func TestResolveQuantityPerSpan(t *testing.T) {
	cat := testCatalog(t)

	cands := Resolve("two coffees and a croissant", intent.Add, cat)
	require.Len(t, cands, 2)

	byID := map[string]Candidate{}
	for _, c := range cands {
		byID[c.Item.ID] = c
	}
	require.Contains(t, byID, "coffee")
	require.Contains(t, byID, "croissant")
	assert.Equal(t, 2, byID["coffee"].Quantity)
	assert.Equal(t, 1, byID["croissant"].Quantity)
}

func TestResolveDigitQuantity(t *testing.T) {
	cat := testCatalog(t)

	cands := Resolve("3 cappuccino per favore", intent.Add, cat)
	require.Len(t, cands, 1)
	assert.Equal(t, 3, cands[0].Quantity)
}

func TestResolveSynonym(t *testing.T) {
	cat := testCatalog(t)

	cands := Resolve("vorrei un espresso", intent.Add, cat)
	require.NotEmpty(t, cands)
	assert.Equal(t, "coffee", cands[0].Item.ID)
}

func TestResolveSubstringBeatsPartialTie(t *testing.T) {
	cat := testCatalog(t)

	// Both risotto items share the "risotto" token; the verbatim name wins
	// and consumes the span, so only one candidate survives.
	cands := Resolve("prendo il risotto alla pescatora", intent.Add, cat)
	require.Len(t, cands, 1)
	assert.Equal(t, "risotto-mare", cands[0].Item.ID)

	// A bare "risotto" falls back to the earliest-listed item.
	cands = Resolve("prendo il risotto", intent.Add, cat)
	require.Len(t, cands, 1)
	assert.Equal(t, "risotto", cands[0].Item.ID)
}

func TestResolveNoMatch(t *testing.T) {
	cat := testCatalog(t)

	assert.Empty(t, Resolve("I'll have a hamburger", intent.Add, cat))
	assert.Empty(t, Resolve("", intent.Add, cat))
}

func TestResolveNeutralRequiresFullName(t *testing.T) {
	cat := testCatalog(t)

	// A lone shared token is not enough without ordering intent.
	assert.Empty(t, Resolve("funghi", intent.Neutral, cat))

	cands := Resolve("un cappuccino", intent.Neutral, cat)
	require.Len(t, cands, 1)
	assert.Equal(t, "cappuccino", cands[0].Item.ID)
}
