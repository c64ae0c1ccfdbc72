package insight

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"aura/models"

	"github.com/jinzhu/gorm"
	"golang.org/x/sync/errgroup"
)

// ProfileInputs is the normalized snapshot of everything the generation
// pipeline reads for one user: latest quiz, check-in aggregates over the
// rolling window, and the latest journal summary.
type ProfileInputs struct {
	UserID     string
	WindowDays int

	QuizKey    string
	Archetypes map[string]float64
	Answers    []AnswerRecord

	CheckinCount  int
	MoodAvg       float64
	EnergyAvg     float64
	ConnectionAvg float64

	JournalSummary string

	// NewestSource is the latest timestamp among upstream source events;
	// zero when no events exist.
	NewestSource time.Time
}

// Sparse reports whether the inputs are too thin to justify a provider call:
// no structured signals and zero behavioral events.
func (p ProfileInputs) Sparse() bool {
	return len(p.Archetypes) == 0 && p.CheckinCount == 0
}

// LoadProfileInputs gathers the three upstream sources concurrently. A
// missing source is not an error, only an empty slot in the snapshot.
func LoadProfileInputs(ctx context.Context, db *gorm.DB, userID string, windowDays int, now time.Time) (ProfileInputs, error) {
	in := ProfileInputs{
		UserID:     userID,
		WindowDays: windowDays,
		Archetypes: map[string]float64{},
		Answers:    []AnswerRecord{},
	}
	since := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	var (
		quiz         models.QuizAttempt
		quizFound    bool
		checkins     []models.CheckIn
		journal      models.JournalEntry
		journalFound bool
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := db.Where("user_id = ?", userID).Order("created_at desc, id desc").First(&quiz).Error
		if gorm.IsRecordNotFoundError(err) {
			return nil
		}
		if err != nil {
			return err
		}
		quizFound = true
		return nil
	})
	g.Go(func() error {
		return db.Where("user_id = ? AND created_at >= ?", userID, since).
			Order("created_at asc, id asc").
			Find(&checkins).Error
	})
	g.Go(func() error {
		err := db.Where("user_id = ?", userID).Order("created_at desc, id desc").First(&journal).Error
		if gorm.IsRecordNotFoundError(err) {
			return nil
		}
		if err != nil {
			return err
		}
		journalFound = true
		return nil
	})
	if err := g.Wait(); err != nil {
		return in, err
	}

	if quizFound {
		in.QuizKey = quiz.QuizKey
		if scores := decodeScores(quiz.Scores); len(scores) > 0 {
			in.Archetypes = scores
		}
		if answers := decodeAnswers(quiz.Answers); len(answers) > 0 {
			in.Answers = answers
		}
		in.NewestSource = laterOf(in.NewestSource, quiz.CreatedAt)
	}

	in.CheckinCount = len(checkins)
	if len(checkins) > 0 {
		var mood, energy, conn float64
		for _, c := range checkins {
			mood += float64(c.Mood)
			energy += float64(c.Energy)
			conn += float64(c.Connection)
			in.NewestSource = laterOf(in.NewestSource, c.CreatedAt)
		}
		n := float64(len(checkins))
		in.MoodAvg = round2(mood / n)
		in.EnergyAvg = round2(energy / n)
		in.ConnectionAvg = round2(conn / n)
	}

	if journalFound {
		in.JournalSummary = journalSummary(journal)
		in.NewestSource = laterOf(in.NewestSource, journal.CreatedAt)
	}

	return in, nil
}

// SignatureInput builds the normalized tuple that becomes the cache key:
// structured quiz signals, window aggregates, a hash of the journal summary,
// a hash of the deterministic rule output, and the schema version.
func SignatureInput(in ProfileInputs, ruleOut RuleOutput) map[string]any {
	return map[string]any{
		"schema_version": insightSchemaVersion,
		"quiz_key":       in.QuizKey,
		"archetypes":     in.Archetypes,
		"window": map[string]any{
			"days":           in.WindowDays,
			"checkins":       in.CheckinCount,
			"mood_avg":       in.MoodAvg,
			"energy_avg":     in.EnergyAvg,
			"connection_avg": in.ConnectionAvg,
		},
		"journal_hash": HashText(in.JournalSummary),
		"rules_hash":   HashText(string(canonicalJSON(ruleOut))),
	}
}

func decodeScores(raw string) map[string]float64 {
	out := map[string]float64{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]float64{}
	}
	return out
}

func decodeAnswers(raw string) []AnswerRecord {
	var out []AnswerRecord
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// journalSummary prefers the precomputed summary; otherwise it truncates the
// body so the signature and prompt stay bounded.
func journalSummary(j models.JournalEntry) string {
	if s := strings.TrimSpace(j.Summary); s != "" {
		return s
	}
	body := strings.TrimSpace(j.Body)
	if len(body) > 280 {
		return body[:280]
	}
	return body
}

func laterOf(t time.Time, candidate *time.Time) time.Time {
	if candidate != nil && candidate.After(t) {
		return *candidate
	}
	return t
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
