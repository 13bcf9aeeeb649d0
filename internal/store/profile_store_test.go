package store

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"echo-message/go-backend/internal/contracts"
	"echo-message/go-backend/pkg/models"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestProfileStoreUpsertCreatesWithDefaults(t *testing.T) {
	clk := clock.NewMock()
	s := NewProfileStore(clk)

	profile, err := s.Upsert("u1", models.ProfilePatch{Name: strPtr("Alice")})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if profile.UID != "u1" || profile.Name != "Alice" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.Kind != models.ContactKindHuman {
		t.Fatalf("expected human kind, got %q", profile.Kind)
	}
	if profile.Verified {
		t.Fatal("fresh non-privileged profile must not be verified")
	}
	if profile.VIP.Phase != models.VIPPhaseNone {
		t.Fatalf("expected vip phase none, got %q", profile.VIP.Phase)
	}
	if profile.CreatedAt.IsZero() || profile.LastSeen.IsZero() {
		t.Fatal("createdAt/lastSeen must be stamped on creation")
	}
}

func TestProfileStorePrivilegedUIDsDefaultVerified(t *testing.T) {
	clk := clock.NewMock()
	s := NewProfileStore(clk, "bot-1", "dev-1")

	bot, err := s.Upsert("bot-1", models.ProfilePatch{})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if !bot.Verified {
		t.Fatal("privileged uid must be created verified")
	}

	plain, err := s.Upsert("other", models.ProfilePatch{})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if plain.Verified {
		t.Fatal("non-privileged uid must not be created verified")
	}
}

func TestProfileStoreUpsertMergesOnlySetFields(t *testing.T) {
	clk := clock.NewMock()
	s := NewProfileStore(clk)

	if _, err := s.Upsert("u1", models.ProfilePatch{
		Name:  strPtr("Alice"),
		Email: strPtr("alice@example.com"),
	}); err != nil {
		t.Fatalf("initial upsert failed: %v", err)
	}

	updated, err := s.Upsert("u1", models.ProfilePatch{Verified: boolPtr(true)})
	if err != nil {
		t.Fatalf("patch upsert failed: %v", err)
	}
	if updated.Name != "Alice" || updated.Email != "alice@example.com" {
		t.Fatalf("unset patch fields must not clobber existing values: %+v", updated)
	}
	if !updated.Verified {
		t.Fatal("verified patch must apply")
	}
}

func TestProfileStoreCreatedAtImmutable(t *testing.T) {
	clk := clock.NewMock()
	s := NewProfileStore(clk)

	first, err := s.Upsert("u1", models.ProfilePatch{})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	clk.Add(time.Hour)
	second, err := s.Upsert("u1", models.ProfilePatch{Name: strPtr("Renamed")})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("createdAt changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
}

func TestProfileStoreDuplicateEmailRejected(t *testing.T) {
	clk := clock.NewMock()
	s := NewProfileStore(clk)

	if _, err := s.Upsert("u1", models.ProfilePatch{Email: strPtr("shared@example.com")}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	_, err := s.Upsert("u2", models.ProfilePatch{Email: strPtr("SHARED@example.com ")})
	if !errors.Is(err, contracts.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	// Re-asserting your own email is not a conflict.
	if _, err := s.Upsert("u1", models.ProfilePatch{Email: strPtr("shared@example.com")}); err != nil {
		t.Fatalf("self re-upsert failed: %v", err)
	}
}

func TestProfileStoreFindByEmailCaseInsensitive(t *testing.T) {
	clk := clock.NewMock()
	s := NewProfileStore(clk)

	if _, err := s.Upsert("u1", models.ProfilePatch{Email: strPtr("Alice@Example.com")}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	found, err := s.FindByEmail("  alice@example.COM ")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found.UID != "u1" {
		t.Fatalf("expected u1, got %q", found.UID)
	}

	if _, err := s.FindByEmail("missing@example.com"); !errors.Is(err, contracts.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.FindByEmail("   "); !errors.Is(err, contracts.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank email, got %v", err)
	}
}

func TestProfileStoreGetUnknown(t *testing.T) {
	s := NewProfileStore(clock.NewMock())
	_, err := s.Get("ghost")
	if !errors.Is(err, contracts.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if contracts.ErrorCategory(err) != contracts.ErrorCategoryStore {
		t.Fatalf("expected store category, got %q", contracts.ErrorCategory(err))
	}
}

func TestProfileStoreUpsertBlankUID(t *testing.T) {
	s := NewProfileStore(clock.NewMock())
	_, err := s.Upsert("   ", models.ProfilePatch{})
	if !errors.Is(err, contracts.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestProfileStoreTouchLastSeen(t *testing.T) {
	clk := clock.NewMock()
	s := NewProfileStore(clk)

	before, err := s.Upsert("u1", models.ProfilePatch{})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	clk.Add(10 * time.Minute)
	s.TouchLastSeen("u1")
	after, err := s.Get("u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !after.LastSeen.After(before.LastSeen) {
		t.Fatalf("lastSeen not advanced: %v -> %v", before.LastSeen, after.LastSeen)
	}

	// Unknown uid is a no-op.
	s.TouchLastSeen("ghost")
}

func TestProfileStoreSetVIP(t *testing.T) {
	clk := clock.NewMock()
	s := NewProfileStore(clk)

	if _, err := s.Upsert("u1", models.ProfilePatch{}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	expires := clk.Now().UTC().Add(24 * time.Hour)
	profile, err := s.SetVIP("u1", models.VIPState{Phase: models.VIPPhaseActive, Pack: "Gold VIP", ExpiresAt: expires})
	if err != nil {
		t.Fatalf("setVIP failed: %v", err)
	}
	if profile.VIP.Phase != models.VIPPhaseActive || profile.VIP.Pack != "Gold VIP" {
		t.Fatalf("unexpected vip state: %+v", profile.VIP)
	}

	if _, err := s.SetVIP("ghost", models.VIPState{}); !errors.Is(err, contracts.ErrNotFound) {
		t.Fatalf("expected not found for unknown uid, got %v", err)
	}
}
