package insight

import (
	"fmt"
	"strings"
	"time"

	"aura/models"

	"github.com/jinzhu/gorm"
)

// StoredArtifact is the unified view over both physical layouts.
type StoredArtifact struct {
	UserID    string
	Payload   string
	Signature string
	IsSoft    bool
	UpdatedAt time.Time
}

// Store persists the latest artifact per user under two tolerated layouts:
// the current user_insights table, and the legacy deep_insights columns on
// user_profiles. Both layouts are read; writes prefer the current one and
// fall back to legacy on storage errors. Only a failure of both layouts
// surfaces to the caller.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

// Load returns the stored artifact for the user, or nil when none exists.
func (s *Store) Load(userID string) (*StoredArtifact, error) {
	var row models.UserInsight
	err := s.db.Where("user_id = ?", userID).First(&row).Error
	switch {
	case err == nil:
		return &StoredArtifact{
			UserID:    row.UserID,
			Payload:   row.Payload,
			Signature: row.Signature,
			IsSoft:    row.IsSoft || IsSoftSignature(row.Signature),
			UpdatedAt: timeOrZero(row.UpdatedAt),
		}, nil
	case gorm.IsRecordNotFoundError(err):
		// Current layout is healthy and empty; a missing legacy table is
		// not a problem in that case.
		art, _ := s.loadLegacy(userID)
		return art, nil
	default:
		art, lerr := s.loadLegacy(userID)
		if lerr != nil {
			return nil, fmt.Errorf("insight store: load failed on both layouts: %v; legacy: %w", err, lerr)
		}
		return art, nil
	}
}

func (s *Store) loadLegacy(userID string) (*StoredArtifact, error) {
	var row models.UserProfile
	err := s.db.Where("user_id = ?", userID).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(row.DeepInsights) == "" {
		return nil, nil
	}
	return &StoredArtifact{
		UserID:    row.UserID,
		Payload:   row.DeepInsights,
		Signature: row.DeepInsightsSignature,
		IsSoft:    IsSoftSignature(row.DeepInsightsSignature),
		UpdatedAt: timeOrZero(row.DeepInsightsUpdatedAt),
	}, nil
}

// Save replaces the artifact for art.UserID. Last writer wins.
func (s *Store) Save(art StoredArtifact) error {
	cerr := s.saveCurrent(art)
	if cerr == nil {
		return nil
	}
	if lerr := s.saveLegacy(art); lerr != nil {
		return fmt.Errorf("insight store: save failed on both layouts: %v; legacy: %w", cerr, lerr)
	}
	return nil
}

func (s *Store) saveCurrent(art StoredArtifact) error {
	fields := map[string]any{
		"payload":    art.Payload,
		"signature":  art.Signature,
		"is_soft":    art.IsSoft,
		"updated_at": art.UpdatedAt,
	}
	res := s.db.Model(&models.UserInsight{}).Where("user_id = ?", art.UserID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	t := art.UpdatedAt
	row := models.UserInsight{
		UserID:    art.UserID,
		Payload:   art.Payload,
		Signature: art.Signature,
		IsSoft:    art.IsSoft,
		UpdatedAt: &t,
	}
	if err := s.db.Create(&row).Error; err != nil {
		// Lost an insert race against a concurrent writer; take the update
		// path once more (last writer wins).
		res = s.db.Model(&models.UserInsight{}).Where("user_id = ?", art.UserID).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return err
		}
	}
	return nil
}

func (s *Store) saveLegacy(art StoredArtifact) error {
	fields := map[string]any{
		"deep_insights":            art.Payload,
		"deep_insights_signature":  art.Signature,
		"deep_insights_updated_at": art.UpdatedAt,
	}
	res := s.db.Model(&models.UserProfile{}).Where("user_id = ?", art.UserID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	t := art.UpdatedAt
	row := models.UserProfile{
		UserID:                art.UserID,
		DeepInsights:          art.Payload,
		DeepInsightsSignature: art.Signature,
		DeepInsightsUpdatedAt: &t,
	}
	if err := s.db.Create(&row).Error; err != nil {
		res = s.db.Model(&models.UserProfile{}).Where("user_id = ?", art.UserID).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return err
		}
	}
	return nil
}

// Purge removes the artifact from both layouts. The legacy profile row is
// kept (it belongs to the profile collaborator); only its insight columns
// are cleared.
func (s *Store) Purge(userID string) error {
	cerr := s.db.Where("user_id = ?", userID).Delete(&models.UserInsight{}).Error

	lerr := s.db.Model(&models.UserProfile{}).Where("user_id = ?", userID).Updates(map[string]any{
		"deep_insights":            "",
		"deep_insights_signature":  "",
		"deep_insights_updated_at": nil,
	}).Error

	if cerr != nil && lerr != nil {
		return fmt.Errorf("insight store: purge failed on both layouts: %v; legacy: %w", cerr, lerr)
	}
	return nil
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// LockStore hands out best-effort generation leases: one row per
// (user, feature), reclaimable in place once past locked_until. Acquire never
// blocks and losing the race is not an error; callers that fail to acquire
// just prefer serving a last-known-good artifact over regenerating.
type LockStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLockStore(db *gorm.DB) *LockStore {
	return &LockStore{db: db, now: time.Now}
}

// Acquire reports whether this caller holds the lease for ttl.
func (l *LockStore) Acquire(userID, feature string, ttl time.Duration) bool {
	now := l.now()
	until := now.Add(ttl)

	// Reclaim an expired lease in place.
	res := l.db.Model(&models.InsightLock{}).
		Where("user_id = ? AND feature = ? AND locked_until <= ?", userID, feature, now).
		Update("locked_until", until)
	if res.Error == nil && res.RowsAffected > 0 {
		return true
	}

	row := models.InsightLock{UserID: userID, Feature: feature, LockedUntil: until}
	return l.db.Create(&row).Error == nil
}

// Release frees the lease. Safe to call without holding it.
func (l *LockStore) Release(userID, feature string) {
	l.db.Where("user_id = ? AND feature = ?", userID, feature).Delete(&models.InsightLock{})
}

// Held reports whether any lease row exists for the user, expired or not.
func (l *LockStore) Held(userID, feature string) bool {
	var n int
	l.db.Model(&models.InsightLock{}).Where("user_id = ? AND feature = ?", userID, feature).Count(&n)
	return n > 0
}

// ReapExpired deletes leases past their expiry. The lock protocol does not
// depend on it (expired rows are reclaimable in place); it keeps the table
// from accumulating rows for users that never come back.
func (l *LockStore) ReapExpired() (int64, error) {
	res := l.db.Where("locked_until <= ?", l.now()).Delete(&models.InsightLock{})
	return res.RowsAffected, res.Error
}
