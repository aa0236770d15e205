package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cinetalk/internal/models"
)

// RevealKey derives the persisted flag name for one episode. Same inputs
// always produce the same key.
func RevealKey(itemID, season, episode int) string {
	return fmt.Sprintf("spoiler_revealed_%d_s%d_e%d", itemID, season, episode)
}

// IsGated decides whether an episode's threads are hidden behind a spoiler
// lock: only unwatched episodes are gated, and a persisted reveal unlocks
// them permanently. Per-thread isSpoiler flags are independent of this and
// gate content inside an already-unlocked thread.
func IsGated(itemType models.ItemType, watched, revealed bool) bool {
	return itemType == models.ItemTypeEpisode && !watched && !revealed
}

// RevealStore persists reveal flags per user. Kept as a tiny interface so
// the gate logic tests without a database.
type RevealStore interface {
	IsRevealed(uid, key string) (bool, error)
	Reveal(uid, key string) error
}

// SpoilerService is the server-side half of the spoiler gate: it keeps the
// per-user reveal flags that survive restarts and new devices.
type SpoilerService struct {
	reveals RevealStore
}

func NewSpoilerService(reveals RevealStore) *SpoilerService {
	return &SpoilerService{reveals: reveals}
}

// Revealed reports whether the actor already unlocked the episode. An
// absent flag means "not revealed".
func (s *SpoilerService) Revealed(actor *models.User, itemID, season, episode int) (bool, error) {
	if actor == nil {
		return false, ErrAuthRequired
	}
	return s.reveals.IsRevealed(actor.UID, RevealKey(itemID, season, episode))
}

// Reveal unlocks the episode for the actor. There is no inverse; a reveal
// is permanent.
func (s *SpoilerService) Reveal(actor *models.User, itemID, season, episode int) error {
	if actor == nil {
		return ErrAuthRequired
	}
	return s.reveals.Reveal(actor.UID, RevealKey(itemID, season, episode))
}

// Gated combines the pure gate rule with the actor's persisted reveal
// state. The watched signal comes from the caller; tracking watch state is
// a different subsystem.
func (s *SpoilerService) Gated(actor *models.User, itemType models.ItemType, itemID int, season, episode *int, watched bool) (bool, error) {
	if itemType != models.ItemTypeEpisode || season == nil || episode == nil {
		return false, nil
	}
	if watched {
		return false, nil
	}
	revealed := false
	if actor != nil {
		var err error
		revealed, err = s.reveals.IsRevealed(actor.UID, RevealKey(itemID, *season, *episode))
		if err != nil {
			return false, err
		}
	}
	return IsGated(itemType, watched, revealed), nil
}

// GormRevealStore backs RevealStore with the spoiler_reveals table.
type GormRevealStore struct {
	db *gorm.DB
}

func NewGormRevealStore(db *gorm.DB) *GormRevealStore {
	return &GormRevealStore{db: db}
}

func (s *GormRevealStore) IsRevealed(uid, key string) (bool, error) {
	var reveal models.SpoilerReveal
	err := s.db.Where("user_id = ? AND key = ?", uid, key).First(&reveal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *GormRevealStore) Reveal(uid, key string) error {
	var existing models.SpoilerReveal
	err := s.db.Where("user_id = ? AND key = ?", uid, key).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.Create(&models.SpoilerReveal{UserID: uid, Key: key}).Error
}
