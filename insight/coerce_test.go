package insight

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceWellFormed(t *testing.T) {
	doc := Coerce(map[string]any{
		"summary":   "You lead with steadiness.",
		"narrative": []any{"First.", "Second."},
		"compatibility": map[string]any{
			"best_match": "explorer",
			"frictions":  []any{"pace mismatch"},
			"advice":     "Plan one unplanned day a month.",
		},
		"conflict_guidance": map[string]any{
			"style":    "withdrawer",
			"triggers": []any{"raised voices"},
			"repair":   []any{"name the pause"},
		},
		"self_care":  []any{"evening walk"},
		"patterns":   []any{"sunday dip"},
		"highlights": []any{"steady anchor"},
		"cautions":   []any{"overgiving"},
	})

	require.NotNil(t, doc.Summary)
	assert.Equal(t, "You lead with steadiness.", *doc.Summary)
	assert.Equal(t, []string{"First.", "Second."}, doc.Narrative)
	require.NotNil(t, doc.Compatibility)
	assert.Equal(t, "explorer", *doc.Compatibility.BestMatch)
	require.NotNil(t, doc.ConflictGuidance)
	assert.Equal(t, []string{"name the pause"}, doc.ConflictGuidance.Repair)
	assert.Equal(t, []string{"steady anchor"}, doc.Highlights)
}

func TestCoerceMalformedNeverPanics(t *testing.T) {
	inputs := []map[string]any{
		nil,
		{},
		{"summary": 42, "narrative": "not a list", "highlights": map[string]any{"a": 1}},
		{"narrative": []any{1, true, nil, map[string]any{}}},
		{"compatibility": "string, not object", "conflict_guidance": []any{"also wrong"}},
		{"compatibility": map[string]any{"frictions": []any{nil, 3}}},
		{"summary": "   "},
	}
	for i, raw := range inputs {
		doc := Coerce(raw)
		assert.NotNil(t, doc.Narrative, "input %d", i)
		assert.NotNil(t, doc.SelfCare, "input %d", i)
		assert.Nil(t, doc.Summary, "input %d", i)
	}
}

func TestCoerceCapsLists(t *testing.T) {
	long := make([]any, 20)
	for i := range long {
		long[i] = fmt.Sprintf("item %d", i)
	}
	doc := Coerce(map[string]any{
		"narrative":  long,
		"self_care":  long,
		"patterns":   long,
		"highlights": long,
		"cautions":   long,
	})
	assert.Len(t, doc.Narrative, maxNarrative)
	assert.Len(t, doc.SelfCare, maxSelfCare)
	assert.Len(t, doc.Patterns, maxPatterns)
	assert.Len(t, doc.Highlights, maxHighlights)
	assert.Len(t, doc.Cautions, maxCautions)
	// order preserved, non-strings skipped before the cap
	assert.Equal(t, "item 0", doc.Narrative[0])
}

func TestCoerceCompositeNulledWhenEmpty(t *testing.T) {
	doc := Coerce(map[string]any{
		"compatibility":     map[string]any{"best_match": "", "frictions": []any{}, "advice": nil},
		"conflict_guidance": map[string]any{"style": "  ", "triggers": []any{}},
	})
	assert.Nil(t, doc.Compatibility)
	assert.Nil(t, doc.ConflictGuidance)

	doc = Coerce(map[string]any{
		"conflict_guidance": map[string]any{"triggers": []any{"silence"}},
	})
	require.NotNil(t, doc.ConflictGuidance)
	assert.Nil(t, doc.ConflictGuidance.Style)
}

func TestCoerceAlternateKeys(t *testing.T) {
	doc := Coerce(map[string]any{
		"overview":            "alt summary",
		"narrative_fragments": []any{"frag"},
		"selfCare":            []any{"rest"},
		"compatibility_notes": map[string]any{"bestMatch": "dreamer"},
		"conflict":            map[string]any{"repair_steps": []any{"apologize first"}},
	})
	require.NotNil(t, doc.Summary)
	assert.Equal(t, "alt summary", *doc.Summary)
	assert.Equal(t, []string{"frag"}, doc.Narrative)
	assert.Equal(t, []string{"rest"}, doc.SelfCare)
	require.NotNil(t, doc.Compatibility)
	assert.Equal(t, "dreamer", *doc.Compatibility.BestMatch)
	require.NotNil(t, doc.ConflictGuidance)
	assert.Equal(t, []string{"apologize first"}, doc.ConflictGuidance.Repair)

	// canonical key wins over the alternate when both are present
	doc = Coerce(map[string]any{"summary": "canonical", "overview": "alternate"})
	assert.Equal(t, "canonical", *doc.Summary)
}

func TestDecodeDoc(t *testing.T) {
	assert.Nil(t, DecodeDoc(""))
	assert.Nil(t, DecodeDoc("   "))
	assert.Nil(t, DecodeDoc("{not json"))

	doc := DecodeDoc(`{"summary":"hi"}`)
	require.NotNil(t, doc)
	assert.Equal(t, "hi", *doc.Summary)
	assert.NotNil(t, doc.Narrative)
	assert.NotNil(t, doc.Cautions)
}

func TestAppendCapped(t *testing.T) {
	got := appendCapped([]string{"a", "b"}, []string{"b", "", "c", "d"}, 3)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	// already at cap
	got = appendCapped([]string{"a", "b", "c"}, []string{"d"}, 3)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got = appendCapped(nil, []string{"x", "x", "y"}, 8)
	assert.Equal(t, []string{"x", "y"}, got)
}
