package models

import "time"

// ChatListItem is one row of the projected chat list.
type ChatListItem struct {
	ChatID             string      `json:"chat_id"`
	ContactUID         string      `json:"contact_uid"`
	Name               string      `json:"name"`
	AvatarRef          string      `json:"avatar_ref,omitempty"`
	Kind               ContactKind `json:"kind"`
	Verified           bool        `json:"verified"`
	ContactVIP         bool        `json:"contact_vip"`
	Online             bool        `json:"online"`
	LastMessageDisplay string      `json:"last_message_display"`
	LastMessageAt      time.Time   `json:"last_message_at"`
	TimestampLabel     string      `json:"timestamp_label"`
}

// ChatListView partitions the viewer's chats. Verified is populated only
// while the viewer's own VIP state is active.
type ChatListView struct {
	Regular  []ChatListItem `json:"regular"`
	Verified []ChatListItem `json:"verified"`
}
