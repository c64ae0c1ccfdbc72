package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aura/models"

	"github.com/jinzhu/gorm"
	"github.com/rs/zerolog"
)

// Generator is the external provider contract. tools.OpenAIClient implements
// it; tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, system, user string) (map[string]any, error)
}

// Config holds the orchestrator knobs. Zero values fall back to defaults.
type Config struct {
	StaleAfter time.Duration // artifact age past which a matching signature no longer counts
	LockTTL    time.Duration // advisory lease duration
	WindowDays int           // default rolling window for behavioral aggregates
	Model      string        // recorded in provenance
}

func (c Config) withDefaults() Config {
	if c.StaleAfter <= 0 {
		c.StaleAfter = 6 * time.Hour
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 90 * time.Second
	}
	if c.WindowDays <= 0 {
		c.WindowDays = 14
	}
	if c.Model == "" {
		c.Model = "gpt-4.1-mini"
	}
	return c
}

// Service wires the cache core into the request lifecycle: peek, cache-only
// probe, full generate, purge. All coordination goes through the store — no
// in-process state is shared between requests, so any number of instances can
// run against the same database.
type Service struct {
	db    *gorm.DB
	store *Store
	locks *LockStore
	gen   Generator
	rules []Rule
	cfg   Config
	log   zerolog.Logger
	now   func() time.Time
}

func NewService(db *gorm.DB, gen Generator, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		db:    db,
		store: NewStore(db),
		locks: NewLockStore(db),
		gen:   gen,
		rules: DefaultRules(),
		cfg:   cfg.withDefaults(),
		log:   log,
		now:   time.Now,
	}
}

// Request is the logical request shape for the full/cache-only path.
type Request struct {
	UserID              string
	Force               bool
	CacheOnly           bool
	IncludeExtraContext bool
	WindowDays          int
}

// Result carries the artifact plus the trust flags callers need to tell the
// four terminal outcomes apart: fresh real, stale real, fresh soft, stale soft.
type Result struct {
	Insights  *InsightDoc `json:"insights"`
	Cached    bool        `json:"cached"`
	Stale     bool        `json:"stale,omitempty"`
	Signature string      `json:"signature"`
	IsSoft    bool        `json:"is_soft,omitempty"`

	// Ready is false only for a cache-only probe that found nothing fresh.
	Ready       bool `json:"-"`
	StaleByTime bool `json:"-"`
}

// PeekResult is the read-only status view: the freshness decision and its
// inputs, with no generation work performed.
type PeekResult struct {
	Cached           bool        `json:"cached"`
	Signature        string      `json:"signature"`
	HasSameSignature bool        `json:"has_same_signature"`
	StaleByTime      bool        `json:"stale_by_time"`
	SourceNewer      bool        `json:"source_newer"`
	IsSoft           bool        `json:"is_soft"`
	Reason           string      `json:"reason"`
	UpdatedAt        *time.Time  `json:"updated_at"`
	Insights         *InsightDoc `json:"insights"`
}

// Peek reports how a full request would be decided right now, without
// generating anything. Cheap enough to poll.
func (s *Service) Peek(ctx context.Context, userID string, windowDays int) (PeekResult, error) {
	in, _, sig, err := s.snapshot(ctx, userID, windowDays)
	if err != nil {
		return PeekResult{}, err
	}

	stored, err := s.store.Load(userID)
	if err != nil {
		return PeekResult{}, err
	}

	ev := EvaluateFreshness(stored, sig, false, in.NewestSource, s.cfg.StaleAfter, s.now())

	res := PeekResult{
		Cached:           stored != nil,
		Signature:        sig,
		HasSameSignature: ev.HasSameSignature,
		StaleByTime:      ev.StaleByTime,
		SourceNewer:      ev.SourceNewer,
		IsSoft:           ev.IsSoft,
		Reason:           ev.Reason,
		UpdatedAt:        ev.UpdatedAt,
	}
	if stored != nil {
		res.Insights = DecodeDoc(stored.Payload)
	}
	return res, nil
}

// Generate is the serve-cached-or-regenerate path. With req.CacheOnly it
// degrades to a probe: a fresh artifact is returned, anything else comes back
// with Ready=false and no provider call.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	in, ruleOut, sig, err := s.snapshot(ctx, req.UserID, req.WindowDays)
	if err != nil {
		return Result{}, err
	}

	stored, err := s.store.Load(req.UserID)
	if err != nil {
		return Result{}, err
	}

	ev := EvaluateFreshness(stored, sig, req.Force, in.NewestSource, s.cfg.StaleAfter, s.now())
	if ev.Decision == ServeCached {
		return Result{
			Insights:  DecodeDoc(stored.Payload),
			Cached:    true,
			Signature: stored.Signature,
			IsSoft:    stored.IsSoft,
			Ready:     true,
		}, nil
	}

	if req.CacheOnly {
		return Result{Signature: sig, StaleByTime: ev.StaleByTime}, nil
	}

	// Sparse inputs never reach the provider: either re-serve the existing
	// placeholder for the same sparse state, or write a fresh one.
	if in.Sparse() {
		if stored != nil && stored.IsSoft && BaseSignature(stored.Signature) == sig {
			return Result{
				Insights:  DecodeDoc(stored.Payload),
				Cached:    true,
				Signature: stored.Signature,
				IsSoft:    true,
				Ready:     true,
			}, nil
		}
		doc := s.placeholderDoc(in, ruleOut)
		if err := s.write(req.UserID, doc, SoftSignature(sig), true); err != nil {
			return Result{}, err
		}
		s.log.Info().Str("user_id", req.UserID).Msg("insights: sparse inputs, wrote placeholder")
		return Result{Insights: &doc, Signature: SoftSignature(sig), IsSoft: true, Ready: true}, nil
	}

	locked := s.locks.Acquire(req.UserID, models.INSIGHT_FEATURE, s.cfg.LockTTL)
	if locked {
		defer s.locks.Release(req.UserID, models.INSIGHT_FEATURE)
	} else if !req.Force && stored != nil && !stored.IsSoft {
		// Another instance is probably generating; hand back the last good
		// artifact instead of duplicating the work.
		s.log.Debug().Str("user_id", req.UserID).Msg("insights: lock busy, serving last good")
		return Result{
			Insights:  DecodeDoc(stored.Payload),
			Cached:    true,
			Stale:     true,
			Signature: stored.Signature,
			Ready:     true,
		}, nil
	}
	// Lock not held and no last good artifact: proceed anyway. Duplicate
	// generations are tolerated; the final write is idempotent by signature.

	raw, genErr := s.gen.Generate(ctx, systemPrompt, buildUserPrompt(in, req.IncludeExtraContext))
	if genErr != nil {
		s.log.Warn().Err(genErr).Str("user_id", req.UserID).Msg("insights: generation failed")
		return s.fallback(req.UserID, in, ruleOut, sig, stored, genErr)
	}

	doc := Coerce(raw)
	doc.Highlights = appendCapped(doc.Highlights, ruleOut.Highlights, maxHighlights)
	doc.Cautions = appendCapped(doc.Cautions, ruleOut.Cautions, maxCautions)
	doc.Provenance = s.provenance(in, "llm")

	if err := s.write(req.UserID, doc, sig, false); err != nil {
		return Result{}, err
	}
	s.log.Info().Str("user_id", req.UserID).Str("signature", sig).Msg("insights: generated")
	return Result{Insights: &doc, Signature: sig, Ready: true}, nil
}

// Purge deletes the artifact (both layouts) and the lock row.
func (s *Service) Purge(userID string) error {
	if err := s.store.Purge(userID); err != nil {
		return err
	}
	s.locks.Release(userID, models.INSIGHT_FEATURE)
	return nil
}

// snapshot loads the inputs, runs the rule engine and computes the signature.
func (s *Service) snapshot(ctx context.Context, userID string, windowDays int) (ProfileInputs, RuleOutput, string, error) {
	if windowDays <= 0 {
		windowDays = s.cfg.WindowDays
	}
	in, err := LoadProfileInputs(ctx, s.db, userID, windowDays, s.now())
	if err != nil {
		return in, RuleOutput{}, "", fmt.Errorf("load inputs: %w", err)
	}
	ruleOut := EvaluateRules(RuleInput{Answers: in.Answers, Totals: in.Archetypes}, s.rules)
	sig := Signature(SignatureInput(in, ruleOut))
	return in, ruleOut, sig, nil
}

// fallback handles a generation failure: keep the last good content when one
// exists (marked stale+soft), otherwise a minimal placeholder. Generation
// errors only surface when the fallback itself cannot be written.
func (s *Service) fallback(userID string, in ProfileInputs, ruleOut RuleOutput, sig string, stored *StoredArtifact, genErr error) (Result, error) {
	var doc InsightDoc
	hadGood := false
	if stored != nil && !stored.IsSoft {
		if prev := DecodeDoc(stored.Payload); prev != nil {
			doc = *prev
			doc.Provenance = s.provenance(in, "fallback")
			hadGood = true
		}
	}
	if !hadGood {
		doc = s.placeholderDoc(in, ruleOut)
	}

	if err := s.write(userID, doc, SoftSignature(sig), true); err != nil {
		return Result{}, fmt.Errorf("generation failed (%v) and placeholder write failed: %w", genErr, err)
	}
	return Result{
		Insights:  &doc,
		Stale:     hadGood,
		Signature: SoftSignature(sig),
		IsSoft:    true,
		Ready:     true,
	}, nil
}

func (s *Service) write(userID string, doc InsightDoc, sig string, soft bool) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return s.store.Save(StoredArtifact{
		UserID:    userID,
		Payload:   string(payload),
		Signature: sig,
		IsSoft:    soft,
		UpdatedAt: s.now(),
	})
}

// placeholderDoc is the minimal soft artifact for sparse inputs or an
// irrecoverable generation failure with no last good artifact.
func (s *Service) placeholderDoc(in ProfileInputs, ruleOut RuleOutput) InsightDoc {
	summary := "We don't have enough from you yet for a full reading. Take the archetype quiz or log a few check-ins and come back."
	doc := InsightDoc{
		Summary:    &summary,
		Narrative:  []string{},
		SelfCare:   []string{},
		Patterns:   []string{},
		Highlights: append([]string{}, ruleOut.Highlights...),
		Cautions:   append([]string{}, ruleOut.Cautions...),
		Provenance: s.provenance(in, "placeholder"),
	}
	return doc
}

func (s *Service) provenance(in ProfileInputs, source string) *Provenance {
	model := s.cfg.Model
	generated := s.now().UTC().Format(time.RFC3339)
	window := in.WindowDays
	src := source
	return &Provenance{
		Model:       &model,
		GeneratedAt: &generated,
		WindowDays:  &window,
		Source:      &src,
	}
}
