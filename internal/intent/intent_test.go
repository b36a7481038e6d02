package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		utterance string
		want      Intent
	}{
		{"I'll have the large yogurt with fruit", Add},
		{"Give me two espressos please", Add},
		{"And then also a cappuccino", Add},
		{"Vorrei un cappuccino", Add},
		{"Prendo il Pain Perdu", Add},
		{"E poi anche un tiramisù", Add},

		{"Remove the risotto", Remove},
		{"Take off the risotto", Remove},
		{"Togli il cappuccino", Remove},

		{"Instead of the espresso I'll have a cappuccino", Modify},
		{"Al posto del risotto prendo il branzino", Modify},

		{"How much does the risotto cost?", Question},
		{"What is the Pain Perdu?", Question},
		{"Quanto costa il cappuccino?", Question},
		{"Cosa mi consigli per colazione?", Question},
		{"Do you have anything vegan?", Question},

		{"Thank you so much", Neutral},
		{"The weather is lovely today", Neutral},
	}

	for _, tc := range cases {
		t.Run(tc.utterance, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.utterance))
		})
	}
}

// A question marker must suppress ordering keywords in the same utterance.
func TestQuestionWinsOverAdd(t *testing.T) {
	assert.Equal(t, Question, Classify("I want to know, how much does the risotto cost?"))
	assert.Equal(t, Question, Classify("Vorrei sapere quanto costa il branzino"))
}

func TestWeakAddSignal(t *testing.T) {
	assert.True(t, WeakAddSignal("a cappuccino, please"))
	assert.True(t, WeakAddSignal("un caffè per me"))
	assert.False(t, WeakAddSignal("please bring the bill"))
	assert.False(t, WeakAddSignal("va bene"))
}

// Phrase markers must start on a word boundary: "which" hiding inside
// "sandwich" or "also" inside "falso" must not fire.
func TestMarkersRequireWordBoundary(t *testing.T) {
	assert.Equal(t, Add, Classify("Can I get a club sandwich?"))
	assert.Equal(t, Neutral, Classify("secondo me questo è falso"))
	assert.Equal(t, Question, Classify("Which one is vegan?"))
}

func TestModifyMarkerIndex(t *testing.T) {
	assert.Equal(t, 0, ModifyMarkerIndex("instead of the coffee I'll have a cappuccino"))
	assert.Greater(t, ModifyMarkerIndex("give me a coffee instead of the cappuccino"), 0)
	assert.Equal(t, -1, ModifyMarkerIndex("vorrei un cappuccino"))
}

func TestIntentString(t *testing.T) {
	assert.Equal(t, "add", Add.String())
	assert.Equal(t, "question", Question.String())
	assert.Equal(t, "neutral", Neutral.String())
}
