package store

import (
	"strings"
	"sync"

	"github.com/benbjohnson/clock"

	"echo-message/go-backend/internal/contracts"
	"echo-message/go-backend/pkg/models"
)

// ProfileStore holds user identity records. Profiles are created lazily by
// Upsert and never destroyed in-session.
type ProfileStore struct {
	mu         sync.RWMutex
	profiles   map[string]models.UserProfile
	privileged map[string]struct{}
	clock      clock.Clock
}

func NewProfileStore(clk clock.Clock, privilegedUIDs ...string) *ProfileStore {
	if clk == nil {
		clk = clock.New()
	}
	privileged := make(map[string]struct{}, len(privilegedUIDs))
	for _, uid := range privilegedUIDs {
		if uid = strings.TrimSpace(uid); uid != "" {
			privileged[uid] = struct{}{}
		}
	}
	return &ProfileStore{
		profiles:   make(map[string]models.UserProfile),
		privileged: privileged,
		clock:      clk,
	}
}

func (s *ProfileStore) Get(uid string) (models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[uid]
	if !ok {
		return models.UserProfile{}, contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrNotFound)
	}
	return profile, nil
}

func (s *ProfileStore) FindByEmail(email string) (models.UserProfile, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return models.UserProfile{}, contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrInvalidInput)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, profile := range s.profiles {
		if normalizeEmail(profile.Email) == normalized {
			return profile, nil
		}
	}
	return models.UserProfile{}, contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrNotFound)
}

// Upsert creates the profile when absent, otherwise merges the patch.
// UID and CreatedAt are immutable once set.
func (s *ProfileStore) Upsert(uid string, patch models.ProfilePatch) (models.UserProfile, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return models.UserProfile{}, contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Email != nil {
		if err := s.checkEmailOwnershipLocked(uid, *patch.Email); err != nil {
			return models.UserProfile{}, err
		}
	}

	profile, exists := s.profiles[uid]
	if !exists {
		now := s.clock.Now().UTC()
		_, privileged := s.privileged[uid]
		profile = models.UserProfile{
			UID:       uid,
			Kind:      models.ContactKindHuman,
			Verified:  privileged,
			VIP:       models.VIPState{Phase: models.VIPPhaseNone},
			CreatedAt: now,
			LastSeen:  now,
		}
	}

	if patch.Name != nil {
		profile.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		profile.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.AvatarRef != nil {
		profile.AvatarRef = *patch.AvatarRef
	}
	if patch.Kind != nil {
		profile.Kind = models.NormalizeContactKind(string(*patch.Kind))
	}
	if patch.Verified != nil {
		profile.Verified = *patch.Verified
	}
	if patch.LastSeen != nil {
		profile.LastSeen = patch.LastSeen.UTC()
	}

	s.profiles[uid] = profile
	return profile, nil
}

// SetVIP replaces the profile's VIP state. Only the VIP lifecycle manager
// writes through this.
func (s *ProfileStore) SetVIP(uid string, state models.VIPState) (models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[uid]
	if !ok {
		return models.UserProfile{}, contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrNotFound)
	}
	profile.VIP = state
	s.profiles[uid] = profile
	return profile, nil
}

func (s *ProfileStore) TouchLastSeen(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[uid]
	if !ok {
		return
	}
	profile.LastSeen = s.clock.Now().UTC()
	s.profiles[uid] = profile
}

func (s *ProfileStore) All() []models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UserProfile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		out = append(out, profile)
	}
	return out
}

func (s *ProfileStore) checkEmailOwnershipLocked(uid, email string) error {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil
	}
	for owner, profile := range s.profiles {
		if owner != uid && normalizeEmail(profile.Email) == normalized {
			return contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrDuplicateEmail)
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
