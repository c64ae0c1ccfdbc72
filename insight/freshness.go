package insight

import "time"

// Decision is the freshness policy outcome.
type Decision int

const (
	ServeCached Decision = iota
	// ServeStaleWhileRegenerating is reserved: regeneration is synchronous
	// today, so the policy never returns it.
	ServeStaleWhileRegenerating
	Regenerate
)

// Freshness rule names, surfaced by the peek endpoint so callers can see
// which rule fired without paying for a generation.
const (
	ReasonForced            = "forced"
	ReasonNoArtifact        = "no_artifact"
	ReasonSignatureMismatch = "signature_mismatch"
	ReasonSoftArtifact      = "soft_artifact"
	ReasonStaleByTime       = "stale_by_time"
	ReasonSourceNewer       = "source_newer"
	ReasonCacheHit          = "cache_hit"
)

// Evaluation reports the freshness decision and the facts behind it.
type Evaluation struct {
	Decision          Decision   `json:"-"`
	Reason            string     `json:"reason"`
	StoredSignature   string     `json:"stored_signature"`
	ComputedSignature string     `json:"computed_signature"`
	HasSameSignature  bool       `json:"has_same_signature"`
	StaleByTime       bool       `json:"stale_by_time"`
	SourceNewer       bool       `json:"source_newer"`
	IsSoft            bool       `json:"is_soft"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// EvaluateFreshness decides whether a stored artifact may be served as-is.
// newestSource is the latest timestamp among upstream source events (quiz
// attempt, check-in, journal); zero means none are known. The rules run in
// order: force, missing artifact, signature mismatch, soft placeholder,
// staleness window, source recency, cache hit.
//
// The source-recency rule exists even though the signature embeds a summary
// of the same data: it guards against summaries that under-capture recency.
func EvaluateFreshness(stored *StoredArtifact, computedSig string, force bool, newestSource time.Time, staleAfter time.Duration, now time.Time) Evaluation {
	ev := Evaluation{Decision: Regenerate, ComputedSignature: computedSig}
	if stored != nil {
		t := stored.UpdatedAt
		ev.StoredSignature = stored.Signature
		ev.HasSameSignature = BaseSignature(stored.Signature) == computedSig
		ev.IsSoft = stored.IsSoft
		ev.UpdatedAt = &t
		ev.StaleByTime = now.Sub(stored.UpdatedAt) > staleAfter
		ev.SourceNewer = !newestSource.IsZero() && newestSource.After(stored.UpdatedAt)
	}

	switch {
	case force:
		ev.Reason = ReasonForced
	case stored == nil:
		ev.Reason = ReasonNoArtifact
	case !ev.HasSameSignature:
		ev.Reason = ReasonSignatureMismatch
	case stored.IsSoft:
		// A placeholder never satisfies the policy. The orchestrator may
		// still re-serve it when the input set is sparse.
		ev.Reason = ReasonSoftArtifact
	case ev.StaleByTime:
		ev.Reason = ReasonStaleByTime
	case ev.SourceNewer:
		ev.Reason = ReasonSourceNewer
	default:
		ev.Decision = ServeCached
		ev.Reason = ReasonCacheHit
	}
	return ev
}
