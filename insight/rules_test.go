package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleThresholdTrigger(t *testing.T) {
	rule := Rule{
		ID: "anchor_strength", Trigger: TriggerThreshold, Severity: SeverityHighlight,
		Key: "anchor", Threshold: 12,
		Template: "{key} scored {score}",
	}

	out := EvaluateRules(RuleInput{Totals: map[string]float64{"anchor": 14}}, []Rule{rule})
	assert.Equal(t, []string{"anchor scored 14"}, out.Highlights)
	assert.Empty(t, out.Cautions)

	out = EvaluateRules(RuleInput{Totals: map[string]float64{"anchor": 11.5}}, []Rule{rule})
	assert.Empty(t, out.Highlights)

	// exactly at the threshold fires
	out = EvaluateRules(RuleInput{Totals: map[string]float64{"anchor": 12}}, []Rule{rule})
	assert.Len(t, out.Highlights, 1)
}

func TestRuleAnyOfTrigger(t *testing.T) {
	rule := Rule{
		ID: "withdrawal", Trigger: TriggerAnyOf, Severity: SeverityCaution,
		Pairs: []AnswerRecord{
			{Question: "conflict_style", Option: "walk_away"},
			{Question: "conflict_style", Option: "go_quiet"},
		},
		Template: "answered {option} on {question}",
	}

	in := RuleInput{Answers: []AnswerRecord{
		{Question: "love_language", Option: "touch"},
		{Question: "conflict_style", Option: "go_quiet"},
	}}
	out := EvaluateRules(in, []Rule{rule})
	assert.Equal(t, []string{"answered go_quiet on conflict_style"}, out.Cautions)

	out = EvaluateRules(RuleInput{Answers: []AnswerRecord{{Question: "conflict_style", Option: "talk_it_out"}}}, []Rule{rule})
	assert.Empty(t, out.Cautions)
}

func TestRuleSpreadTrigger(t *testing.T) {
	rule := Rule{
		ID: "tension", Trigger: TriggerSpread, Severity: SeverityHighlight,
		Keys: []string{"anchor", "explorer", "guardian"}, MinSpread: 10,
		Template: "{top_key} ({top_score}) vs {low_key} ({low_score})",
	}

	out := EvaluateRules(RuleInput{Totals: map[string]float64{"anchor": 18, "explorer": 5, "guardian": 9}}, []Rule{rule})
	assert.Equal(t, []string{"anchor (18) vs explorer (5)"}, out.Highlights)

	// spread must exceed the threshold, not merely reach it
	out = EvaluateRules(RuleInput{Totals: map[string]float64{"anchor": 15, "explorer": 5}}, []Rule{rule})
	assert.Empty(t, out.Highlights)

	// fewer than two known keys never fires
	out = EvaluateRules(RuleInput{Totals: map[string]float64{"anchor": 18}}, []Rule{rule})
	assert.Empty(t, out.Highlights)
}

func TestRulesDeterministic(t *testing.T) {
	in := RuleInput{
		Answers: []AnswerRecord{{Question: "conflict_style", Option: "go_quiet"}},
		Totals:  map[string]float64{"anchor": 18, "explorer": 4, "guardian": 16, "dreamer": 7},
	}
	first := EvaluateRules(in, DefaultRules())
	second := EvaluateRules(in, DefaultRules())
	assert.Equal(t, first, second)
	assert.Equal(t, HashText(string(canonicalJSON(first))), HashText(string(canonicalJSON(second))))
}

func TestRulesEmptyInput(t *testing.T) {
	out := EvaluateRules(RuleInput{}, DefaultRules())
	assert.NotNil(t, out.Highlights)
	assert.NotNil(t, out.Cautions)
	assert.Empty(t, out.Highlights)
	assert.Empty(t, out.Cautions)
}
