package insight

import (
	"encoding/json"
	"strings"
)

// InsightDoc is the fixed artifact shape served to clients. Nil pointers mean
// "section absent" so the renderer can treat null uniformly; list fields are
// never nil after coercion.
type InsightDoc struct {
	Summary          *string             `json:"summary"`
	Narrative        []string            `json:"narrative"`
	Compatibility    *CompatibilityNotes `json:"compatibility"`
	ConflictGuidance *ConflictGuidance   `json:"conflict_guidance"`
	SelfCare         []string            `json:"self_care"`
	Patterns         []string            `json:"patterns"`
	Highlights       []string            `json:"highlights"`
	Cautions         []string            `json:"cautions"`
	Provenance       *Provenance         `json:"provenance"`
}

type CompatibilityNotes struct {
	BestMatch *string  `json:"best_match"`
	Frictions []string `json:"frictions"`
	Advice    *string  `json:"advice"`
}

type ConflictGuidance struct {
	Style    *string  `json:"style"`
	Triggers []string `json:"triggers"`
	Repair   []string `json:"repair"`
}

type Provenance struct {
	Model       *string `json:"model"`
	GeneratedAt *string `json:"generated_at"`
	WindowDays  *int    `json:"window_days"`
	Source      *string `json:"source"`
}

// Per-field list caps.
const (
	maxNarrative  = 5
	maxFrictions  = 4
	maxTriggers   = 4
	maxRepair     = 3
	maxSelfCare   = 6
	maxPatterns   = 8
	maxHighlights = 8
	maxCautions   = 8
)

// Coerce normalizes arbitrary provider output into the fixed shape. It never
// fails: absent or wrong-typed scalars become nil, lists default to empty and
// are capped, composite sections are nulled when all constituents are empty.
func Coerce(raw map[string]any) InsightDoc {
	doc := InsightDoc{
		Summary:    asText(firstOf(raw, "summary", "overview")),
		Narrative:  asTextList(firstOf(raw, "narrative", "narrative_fragments"), maxNarrative),
		SelfCare:   asTextList(firstOf(raw, "self_care", "selfCare", "self_care_notes"), maxSelfCare),
		Patterns:   asTextList(raw["patterns"], maxPatterns),
		Highlights: asTextList(raw["highlights"], maxHighlights),
		Cautions:   asTextList(raw["cautions"], maxCautions),
	}

	if m, ok := firstOf(raw, "compatibility", "compatibility_notes").(map[string]any); ok {
		comp := &CompatibilityNotes{
			BestMatch: asText(firstOf(m, "best_match", "bestMatch")),
			Frictions: asTextList(m["frictions"], maxFrictions),
			Advice:    asText(m["advice"]),
		}
		if comp.BestMatch != nil || comp.Advice != nil || len(comp.Frictions) > 0 {
			doc.Compatibility = comp
		}
	}

	if m, ok := firstOf(raw, "conflict_guidance", "conflictGuidance", "conflict").(map[string]any); ok {
		cg := &ConflictGuidance{
			Style:    asText(m["style"]),
			Triggers: asTextList(m["triggers"], maxTriggers),
			Repair:   asTextList(firstOf(m, "repair", "repair_steps"), maxRepair),
		}
		if cg.Style != nil || len(cg.Triggers) > 0 || len(cg.Repair) > 0 {
			doc.ConflictGuidance = cg
		}
	}

	return doc
}

// DecodeDoc parses a stored payload. Returns nil when the payload is empty
// or unreadable; stored artifacts predating the current shape coerce softly
// because unknown fields are simply dropped.
func DecodeDoc(payload string) *InsightDoc {
	if strings.TrimSpace(payload) == "" {
		return nil
	}
	var doc InsightDoc
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil
	}
	if doc.Narrative == nil {
		doc.Narrative = []string{}
	}
	if doc.SelfCare == nil {
		doc.SelfCare = []string{}
	}
	if doc.Patterns == nil {
		doc.Patterns = []string{}
	}
	if doc.Highlights == nil {
		doc.Highlights = []string{}
	}
	if doc.Cautions == nil {
		doc.Cautions = []string{}
	}
	return &doc
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asText(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func asTextList(v any, max int) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, it := range items {
		if len(out) >= max {
			break
		}
		if s := asText(it); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// appendCapped appends extra bullets to base, dropping duplicates and
// honoring the field cap.
func appendCapped(base, extra []string, max int) []string {
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s] = true
	}
	for _, s := range extra {
		if len(base) >= max {
			break
		}
		if s == "" || seen[s] {
			continue
		}
		base = append(base, s)
		seen[s] = true
	}
	return base
}
