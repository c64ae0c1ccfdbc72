package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var freshNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const staleWindow = 6 * time.Hour

func freshStored(sig string, age time.Duration, soft bool) *StoredArtifact {
	return &StoredArtifact{
		UserID:    "u",
		Payload:   `{"summary":"hi"}`,
		Signature: sig,
		IsSoft:    soft,
		UpdatedAt: freshNow.Add(-age),
	}
}

func TestFreshnessForceWins(t *testing.T) {
	ev := EvaluateFreshness(freshStored("sig", time.Minute, false), "sig", true, time.Time{}, staleWindow, freshNow)
	assert.Equal(t, Regenerate, ev.Decision)
	assert.Equal(t, ReasonForced, ev.Reason)
}

func TestFreshnessNoArtifact(t *testing.T) {
	ev := EvaluateFreshness(nil, "sig", false, time.Time{}, staleWindow, freshNow)
	assert.Equal(t, Regenerate, ev.Decision)
	assert.Equal(t, ReasonNoArtifact, ev.Reason)
	assert.False(t, ev.HasSameSignature)
}

func TestFreshnessSignatureMismatch(t *testing.T) {
	ev := EvaluateFreshness(freshStored("old", time.Minute, false), "new", false, time.Time{}, staleWindow, freshNow)
	assert.Equal(t, Regenerate, ev.Decision)
	assert.Equal(t, ReasonSignatureMismatch, ev.Reason)
}

func TestFreshnessSoftNeverSatisfies(t *testing.T) {
	// matching base signature, recent, no newer sources: still regenerates
	// because the stored artifact is a placeholder
	ev := EvaluateFreshness(freshStored(SoftSignature("sig"), time.Minute, true), "sig", false, time.Time{}, staleWindow, freshNow)
	assert.Equal(t, Regenerate, ev.Decision)
	assert.Equal(t, ReasonSoftArtifact, ev.Reason)
	assert.True(t, ev.HasSameSignature)
}

func TestFreshnessStaleByTime(t *testing.T) {
	ev := EvaluateFreshness(freshStored("sig", 7*time.Hour, false), "sig", false, time.Time{}, staleWindow, freshNow)
	assert.Equal(t, Regenerate, ev.Decision)
	assert.Equal(t, ReasonStaleByTime, ev.Reason)
	assert.True(t, ev.StaleByTime)
	assert.True(t, ev.HasSameSignature)
}

func TestFreshnessSourceNewerOverrides(t *testing.T) {
	// fresh by time, same signature, but an upstream event arrived after the
	// artifact was written
	newest := freshNow.Add(-30 * time.Minute)
	ev := EvaluateFreshness(freshStored("sig", time.Hour, false), "sig", false, newest, staleWindow, freshNow)
	assert.Equal(t, Regenerate, ev.Decision)
	assert.Equal(t, ReasonSourceNewer, ev.Reason)
	assert.True(t, ev.SourceNewer)
	assert.False(t, ev.StaleByTime)
}

func TestFreshnessCacheHit(t *testing.T) {
	newest := freshNow.Add(-2 * time.Hour)
	ev := EvaluateFreshness(freshStored("sig", time.Hour, false), "sig", false, newest, staleWindow, freshNow)
	assert.Equal(t, ServeCached, ev.Decision)
	assert.Equal(t, ReasonCacheHit, ev.Reason)
	assert.True(t, ev.HasSameSignature)
	assert.False(t, ev.StaleByTime)
	assert.False(t, ev.SourceNewer)
}

func TestFreshnessRuleOrder(t *testing.T) {
	// a soft, time-stale artifact with a mismatched signature reports the
	// mismatch: signature comparison outranks the later rules
	ev := EvaluateFreshness(freshStored(SoftSignature("old"), 8*time.Hour, true), "new", false, freshNow, staleWindow, freshNow)
	assert.Equal(t, ReasonSignatureMismatch, ev.Reason)
}
