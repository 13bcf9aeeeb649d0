package vip

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"echo-message/go-backend/internal/contracts"
	"echo-message/go-backend/internal/store"
	"echo-message/go-backend/pkg/models"
)

// Manager runs the per-user VIP state machine (none -> active -> expired)
// on top of the profile store's VIP field. Expiry is wall-clock driven
// through the injected clock; each Start schedules one timer and every
// timer is stopped exactly once, on Cancel, on the expiry transition, or
// on Close.
type Manager struct {
	mu        sync.Mutex
	profiles  *store.ProfileStore
	clock     clock.Clock
	logger    *slog.Logger
	timers    map[string]*clock.Timer
	onChange  func(uid string, state models.VIPState)
	onExpired func(uid string)
	closed    bool
}

type Option func(*Manager)

// WithChangeHook is invoked after every materialized state transition.
func WithChangeHook(hook func(uid string, state models.VIPState)) Option {
	return func(m *Manager) { m.onChange = hook }
}

// WithExpiryHook is invoked exactly once per expiry.
func WithExpiryHook(hook func(uid string)) Option {
	return func(m *Manager) { m.onExpired = hook }
}

func NewManager(profiles *store.ProfileStore, clk clock.Clock, logger *slog.Logger, opts ...Option) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		profiles: profiles,
		clock:    clk,
		logger:   logger,
		timers:   make(map[string]*clock.Timer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start activates a VIP pack for uid. Starting while already active
// overwrites the prior pack and expiry instead of extending it; the prior
// timer is replaced.
func (m *Manager) Start(uid, pack string, durationDays int) (models.VIPState, error) {
	if pack == "" || durationDays <= 0 {
		return models.VIPState{}, contracts.WrapCategorizedError(contracts.ErrorCategoryLifecycle, contracts.ErrInvalidInput)
	}
	if _, err := m.profiles.Get(uid); err != nil {
		return models.VIPState{}, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return models.VIPState{}, contracts.WrapCategorizedError(contracts.ErrorCategoryLifecycle, contracts.ErrNotFound)
	}
	m.stopTimerLocked(uid)

	state := models.VIPState{
		Phase:     models.VIPPhaseActive,
		Pack:      pack,
		ExpiresAt: m.clock.Now().UTC().Add(time.Duration(durationDays) * 24 * time.Hour),
	}
	profile, err := m.profiles.SetVIP(uid, state)
	if err != nil {
		m.mu.Unlock()
		return models.VIPState{}, err
	}
	m.timers[uid] = m.clock.AfterFunc(state.ExpiresAt.Sub(m.clock.Now()), func() {
		if _, err := m.Tick(uid); err != nil {
			m.logger.Error("vip expiry tick failed", "uid", uid, "error", err)
		}
	})
	m.mu.Unlock()

	m.logger.Info("vip activated", "uid", uid, "pack", pack, "expires_at", state.ExpiresAt)
	m.emitChange(uid, profile.VIP)
	return state, nil
}

// Cancel drops an active subscription immediately. Cancelling a user that
// is not active is a no-op.
func (m *Manager) Cancel(uid string) error {
	m.mu.Lock()
	profile, err := m.profiles.Get(uid)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.stopTimerLocked(uid)
	if profile.VIP.Phase != models.VIPPhaseActive {
		m.mu.Unlock()
		return nil
	}
	state := models.VIPState{Phase: models.VIPPhaseNone}
	if _, err := m.profiles.SetVIP(uid, state); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	m.logger.Info("vip cancelled", "uid", uid)
	m.emitChange(uid, state)
	return nil
}

// Tick materializes expiry once the wall clock passes expiresAt. A second
// tick after the transition is a no-op: the expired notification fires
// exactly once per expiry.
func (m *Manager) Tick(uid string) (bool, error) {
	m.mu.Lock()
	// Re-read under the manager lock so two concurrent ticks cannot both
	// observe the active state and double-fire the expired notification.
	profile, err := m.profiles.Get(uid)
	if err != nil {
		m.mu.Unlock()
		return false, err
	}
	if profile.VIP.Phase != models.VIPPhaseActive || m.clock.Now().Before(profile.VIP.ExpiresAt) {
		m.mu.Unlock()
		return false, nil
	}
	m.stopTimerLocked(uid)
	state := models.VIPState{Phase: models.VIPPhaseExpired}
	if _, err := m.profiles.SetVIP(uid, state); err != nil {
		m.mu.Unlock()
		return false, err
	}
	m.mu.Unlock()

	m.logger.Info("vip expired", "uid", uid, "pack", profile.VIP.Pack)
	if m.onExpired != nil {
		m.onExpired(uid)
	}
	m.emitChange(uid, state)
	return true, nil
}

// State reads the user's VIP state with the live-expiry rule applied, so a
// not-yet-ticked expiry is never reported as active.
func (m *Manager) State(uid string) (models.VIPState, error) {
	profile, err := m.profiles.Get(uid)
	if err != nil {
		return models.VIPState{}, err
	}
	state := profile.VIP
	if state.EffectivePhase(m.clock.Now()) == models.VIPPhaseExpired {
		return models.VIPState{Phase: models.VIPPhaseExpired}, nil
	}
	return state, nil
}

// Close stops every outstanding expiry timer. Used on session teardown so
// no timer keeps firing for a torn-down session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for uid := range m.timers {
		m.stopTimerLocked(uid)
	}
}

func (m *Manager) stopTimerLocked(uid string) {
	if timer, ok := m.timers[uid]; ok {
		timer.Stop()
		delete(m.timers, uid)
	}
}

func (m *Manager) emitChange(uid string, state models.VIPState) {
	if m.onChange != nil {
		m.onChange(uid, state)
	}
}
