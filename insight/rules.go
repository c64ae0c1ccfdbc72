package insight

import (
	"strconv"
	"strings"
)

// Trigger shapes supported by the rule engine.
const (
	TriggerThreshold = "threshold" // a key's score meets a threshold
	TriggerAnyOf     = "any_of"    // any of a set of (question, option) pairs was answered
	TriggerSpread    = "spread"    // max-minus-min across a key subset exceeds a threshold
)

const (
	SeverityHighlight = "highlight"
	SeverityCaution   = "caution"
)

// AnswerRecord is one (question, option) pair from the latest quiz attempt.
type AnswerRecord struct {
	Question string `json:"question"`
	Option   string `json:"option"`
}

// Rule is one deterministic augmentation rule. Exactly one trigger-shape
// field group is consulted, selected by Trigger. Template placeholders:
// {key} {score} {question} {option} {top_key} {top_score} {low_key} {low_score}.
type Rule struct {
	ID       string
	Trigger  string
	Severity string
	Template string

	// threshold
	Key       string
	Threshold float64

	// any_of
	Pairs []AnswerRecord

	// spread
	Keys      []string
	MinSpread float64
}

// RuleInput is the slice of quiz data the engine sees: per-item answers and
// per-key aggregate totals.
type RuleInput struct {
	Answers []AnswerRecord
	Totals  map[string]float64
}

// RuleOutput is the pair of bullet lists folded into the final artifact. A
// canonical hash of it also enters the cache signature, so a rule-set or
// rule-input change invalidates stored artifacts.
type RuleOutput struct {
	Highlights []string `json:"highlights"`
	Cautions   []string `json:"cautions"`
}

// EvaluateRules runs every rule over the input. Pure and deterministic: the
// same input and rule set always render the same bullets in the same order.
func EvaluateRules(in RuleInput, rules []Rule) RuleOutput {
	out := RuleOutput{Highlights: []string{}, Cautions: []string{}}
	for _, r := range rules {
		text, ok := r.match(in)
		if !ok {
			continue
		}
		if r.Severity == SeverityCaution {
			out.Cautions = append(out.Cautions, text)
		} else {
			out.Highlights = append(out.Highlights, text)
		}
	}
	return out
}

func (r Rule) match(in RuleInput) (string, bool) {
	switch r.Trigger {
	case TriggerThreshold:
		score, ok := in.Totals[r.Key]
		if !ok || score < r.Threshold {
			return "", false
		}
		return r.render(map[string]string{
			"key":   r.Key,
			"score": formatScore(score),
		}), true

	case TriggerAnyOf:
		for _, p := range r.Pairs {
			for _, a := range in.Answers {
				if a.Question == p.Question && a.Option == p.Option {
					return r.render(map[string]string{
						"question": p.Question,
						"option":   p.Option,
					}), true
				}
			}
		}
		return "", false

	case TriggerSpread:
		if len(r.Keys) < 2 {
			return "", false
		}
		var topKey, lowKey string
		var topScore, lowScore float64
		seen := 0
		for _, k := range r.Keys {
			v, ok := in.Totals[k]
			if !ok {
				continue
			}
			// strict comparisons keep the first key in r.Keys order on ties
			if seen == 0 || v > topScore {
				topKey, topScore = k, v
			}
			if seen == 0 || v < lowScore {
				lowKey, lowScore = k, v
			}
			seen++
		}
		if seen < 2 || topScore-lowScore <= r.MinSpread {
			return "", false
		}
		return r.render(map[string]string{
			"key":       topKey,
			"score":     formatScore(topScore),
			"top_key":   topKey,
			"top_score": formatScore(topScore),
			"low_key":   lowKey,
			"low_score": formatScore(lowScore),
		}), true
	}
	return "", false
}

func (r Rule) render(vars map[string]string) string {
	out := r.Template
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// DefaultRules is the rule set shipped with the service. IDs are stable so
// the rules hash only moves when a rule actually changes.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID: "anchor_strength", Trigger: TriggerThreshold, Severity: SeverityHighlight,
			Key: "anchor", Threshold: 12,
			Template: "Your {key} score of {score} points to a steady, grounding presence in close relationships.",
		},
		{
			ID: "explorer_strength", Trigger: TriggerThreshold, Severity: SeverityHighlight,
			Key: "explorer", Threshold: 12,
			Template: "A {key} score of {score} suggests novelty and shared adventure recharge you more than routine.",
		},
		{
			ID: "guardian_overload", Trigger: TriggerThreshold, Severity: SeverityCaution,
			Key: "guardian", Threshold: 16,
			Template: "A {key} score this high ({score}) can tip from protecting into controlling; watch for that.",
		},
		{
			ID: "withdrawal_pattern", Trigger: TriggerAnyOf, Severity: SeverityCaution,
			Pairs: []AnswerRecord{
				{Question: "conflict_style", Option: "walk_away"},
				{Question: "conflict_style", Option: "go_quiet"},
			},
			Template: "When conflict heats up you tend to withdraw; naming a pause out loud lands better than silence.",
		},
		{
			ID: "inner_tension", Trigger: TriggerSpread, Severity: SeverityHighlight,
			Keys: []string{"anchor", "explorer", "guardian", "dreamer"}, MinSpread: 10,
			Template: "There is real tension between your {top_key} side ({top_score}) and your {low_key} side ({low_score}); the strongest pull usually wins under stress.",
		},
	}
}
