package chatlist

import (
	"sort"
	"strings"
	"time"

	"echo-message/go-backend/pkg/models"
)

// PresenceWindow is the lastSeen threshold for showing a contact as online.
// The boundary is inclusive: exactly five minutes still counts.
const PresenceWindow = 5 * time.Minute

// SelfMarker prefixes the last-message preview when the viewer sent it.
const SelfMarker = "You: "

// ProfileResolver looks up a participant profile during projection.
type ProfileResolver func(uid string) (models.UserProfile, bool)

// Online reports whether a contact counts as online at now.
func Online(lastSeen, now time.Time) bool {
	if lastSeen.IsZero() {
		return false
	}
	return now.Sub(lastSeen) <= PresenceWindow
}

// InVerifiedBucket classifies a contact for the VIP-only section: the dev
// team always qualifies, bots never do regardless of their verified flag,
// and everyone else qualifies iff verified.
func InVerifiedBucket(p models.UserProfile) bool {
	switch p.Kind {
	case models.ContactKindDevTeam:
		return true
	case models.ContactKindBot:
		return false
	default:
		return p.Verified
	}
}

// Project derives the partitioned, filtered, ordered chat list for a
// viewer. It holds no state and is safe to recompute on every snapshot.
func Project(viewerUID string, viewerVIPActive bool, chats []models.Chat, resolve ProfileResolver, searchTerm string, now time.Time) models.ChatListView {
	view := models.ChatListView{
		Regular:  []models.ChatListItem{},
		Verified: []models.ChatListItem{},
	}
	needle := strings.ToLower(strings.TrimSpace(searchTerm))

	for _, chat := range chats {
		if !chat.HasParticipant(viewerUID) {
			continue
		}
		contactUID := chat.OtherParticipant(viewerUID)
		contact, known := resolve(contactUID)
		if !known {
			contact = models.UserProfile{UID: contactUID, Name: "Unknown User", Kind: models.ContactKindHuman}
		}

		if needle != "" && !strings.Contains(strings.ToLower(contact.Name), needle) {
			continue
		}

		item := models.ChatListItem{
			ChatID:             chat.ID,
			ContactUID:         contactUID,
			Name:               contact.Name,
			AvatarRef:          contact.AvatarRef,
			Kind:               contact.Kind,
			Verified:           contact.Verified,
			ContactVIP:         contact.Kind == models.ContactKindHuman && contact.VIP.ActiveAt(now),
			Online:             Online(contact.LastSeen, now),
			LastMessageDisplay: lastMessageDisplay(chat, viewerUID),
			LastMessageAt:      chat.LastMessageAt,
			TimestampLabel:     FormatTimestamp(chat.LastMessageAt, now),
		}

		// Non-VIP viewers get no verified section; those contacts stay
		// inline with the regular list.
		if viewerVIPActive && InVerifiedBucket(contact) {
			view.Verified = append(view.Verified, item)
		} else {
			view.Regular = append(view.Regular, item)
		}
	}

	sortItems(view.Regular)
	sortItems(view.Verified)
	return view
}

func lastMessageDisplay(chat models.Chat, viewerUID string) string {
	if chat.LastMessageText == "" {
		return ""
	}
	if chat.LastMessageSenderID == viewerUID {
		return SelfMarker + chat.LastMessageText
	}
	return chat.LastMessageText
}

// sortItems orders by most recent last message first; ties break on chat ID
// so the ordering is deterministic.
func sortItems(items []models.ChatListItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].LastMessageAt.Equal(items[j].LastMessageAt) {
			return items[i].LastMessageAt.After(items[j].LastMessageAt)
		}
		return items[i].ChatID < items[j].ChatID
	})
}
