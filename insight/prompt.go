package insight

import (
	"fmt"
	"sort"
	"strings"
)

const systemPrompt = `You are a relationship insight writer for the Aura app. ` +
	`You receive a user's archetype quiz scores, recent check-in aggregates and ` +
	`an optional journal summary. Respond with a single JSON object and nothing ` +
	`else, using exactly these keys: "summary" (string), "narrative" (array of ` +
	`strings), "compatibility" ({"best_match","frictions","advice"}), ` +
	`"conflict_guidance" ({"style","triggers","repair"}), "self_care" (array of ` +
	`strings), "patterns" (array of short strings), "highlights" (array of ` +
	`strings), "cautions" (array of strings). Keep bullets short, warm and ` +
	`concrete. Omit a section by setting it to null. Never invent data the ` +
	`input does not support.`

// buildUserPrompt renders the input snapshot for the provider. Scores are
// emitted in sorted key order so the prompt is stable for identical inputs.
func buildUserPrompt(in ProfileInputs, includeExtraContext bool) string {
	var b strings.Builder

	if len(in.Archetypes) > 0 {
		b.WriteString("Archetype quiz scores")
		if in.QuizKey != "" {
			fmt.Fprintf(&b, " (%s)", in.QuizKey)
		}
		b.WriteString(":\n")
		keys := make([]string, 0, len(in.Archetypes))
		for k := range in.Archetypes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, formatScore(in.Archetypes[k]))
		}
		b.WriteString("\n")
	}

	if in.CheckinCount > 0 {
		fmt.Fprintf(&b, "Check-ins over the last %d days: %d entries\n", in.WindowDays, in.CheckinCount)
		fmt.Fprintf(&b, "- mood average: %.2f of 5\n", in.MoodAvg)
		fmt.Fprintf(&b, "- energy average: %.2f of 5\n", in.EnergyAvg)
		fmt.Fprintf(&b, "- connection average: %.2f of 5\n", in.ConnectionAvg)
		b.WriteString("\n")
	}

	if includeExtraContext && strings.TrimSpace(in.JournalSummary) != "" {
		b.WriteString("Latest journal summary (use only where relevant):\n")
		b.WriteString(in.JournalSummary)
		b.WriteString("\n\n")
	}

	b.WriteString("Write the insight document for this user now, as JSON.")
	return b.String()
}
