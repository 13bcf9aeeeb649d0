package models

import (
	"strings"
	"time"
)

type ContactKind string

const (
	ContactKindHuman   ContactKind = "human"
	ContactKindBot     ContactKind = "bot"
	ContactKindDevTeam ContactKind = "devteam"
)

func NormalizeContactKind(raw string) ContactKind {
	switch ContactKind(strings.TrimSpace(strings.ToLower(raw))) {
	case ContactKindBot:
		return ContactKindBot
	case ContactKindDevTeam:
		return ContactKindDevTeam
	default:
		return ContactKindHuman
	}
}

type VIPPhase string

const (
	VIPPhaseNone    VIPPhase = "none"
	VIPPhaseActive  VIPPhase = "active"
	VIPPhaseExpired VIPPhase = "expired"
)

type VIPState struct {
	Phase     VIPPhase  `json:"phase"`
	Pack      string    `json:"pack,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// EffectivePhase applies the live-expiry rule: an Active state whose expiry
// instant has passed reads as Expired even before a tick materializes the
// transition.
func (s VIPState) EffectivePhase(now time.Time) VIPPhase {
	if s.Phase == VIPPhaseActive && !now.Before(s.ExpiresAt) {
		return VIPPhaseExpired
	}
	return s.Phase
}

func (s VIPState) ActiveAt(now time.Time) bool {
	return s.EffectivePhase(now) == VIPPhaseActive
}

type UserProfile struct {
	UID       string      `json:"uid"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	AvatarRef string      `json:"avatar_ref,omitempty"`
	Kind      ContactKind `json:"kind"`
	Verified  bool        `json:"verified"`
	VIP       VIPState    `json:"vip"`
	CreatedAt time.Time   `json:"created_at"`
	LastSeen  time.Time   `json:"last_seen"`
}

// ProfilePatch carries optional field updates for Upsert. Nil fields are
// left untouched; UID and CreatedAt are never patchable.
type ProfilePatch struct {
	Name      *string      `json:"name,omitempty"`
	Email     *string      `json:"email,omitempty"`
	AvatarRef *string      `json:"avatar_ref,omitempty"`
	Kind      *ContactKind `json:"kind,omitempty"`
	Verified  *bool        `json:"verified,omitempty"`
	LastSeen  *time.Time   `json:"last_seen,omitempty"`
}

type Chat struct {
	ID                  string    `json:"id"`
	Participants        [2]string `json:"participants"`
	LastMessageText     string    `json:"last_message_text"`
	LastMessageSenderID string    `json:"last_message_sender_id"`
	LastMessageAt       time.Time `json:"last_message_at"`
	CreatedAt           time.Time `json:"created_at"`
}

// HasParticipant reports whether uid is one of the chat's two participants.
func (c Chat) HasParticipant(uid string) bool {
	return c.Participants[0] == uid || c.Participants[1] == uid
}

// OtherParticipant returns the participant that is not uid. When uid is not
// in the chat at all the second participant is returned; callers validate
// membership separately.
func (c Chat) OtherParticipant(uid string) string {
	if c.Participants[0] == uid {
		return c.Participants[1]
	}
	return c.Participants[0]
}

type Message struct {
	ID       string    `json:"id"`
	ChatID   string    `json:"chat_id"`
	SenderID string    `json:"sender_id"`
	Text     string    `json:"text"`
	ImageRef string    `json:"image_ref,omitempty"`
	Seq      uint64    `json:"seq"`
	SentAt   time.Time `json:"sent_at"`
}

// ChatSummary is one element of a chat-list topic snapshot: the chat plus
// the resolved profile of the participant that is not the topic's viewer.
type ChatSummary struct {
	Chat    Chat        `json:"chat"`
	Contact UserProfile `json:"contact"`
}
