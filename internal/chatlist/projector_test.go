package chatlist

import (
	"testing"
	"time"

	"echo-message/go-backend/pkg/models"
)

var projectionNow = time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)

func testChat(id, a, b string, lastText, lastSender string, lastAt time.Time) models.Chat {
	first, second := a, b
	if first > second {
		first, second = second, first
	}
	return models.Chat{
		ID:                  id,
		Participants:        [2]string{first, second},
		LastMessageText:     lastText,
		LastMessageSenderID: lastSender,
		LastMessageAt:       lastAt,
	}
}

func resolverFor(profiles ...models.UserProfile) ProfileResolver {
	byUID := make(map[string]models.UserProfile, len(profiles))
	for _, p := range profiles {
		byUID[p.UID] = p
	}
	return func(uid string) (models.UserProfile, bool) {
		p, ok := byUID[uid]
		return p, ok
	}
}

func TestOnlineBoundaryInclusive(t *testing.T) {
	if !Online(projectionNow.Add(-PresenceWindow), projectionNow) {
		t.Fatal("exactly five minutes ago must count as online")
	}
	if Online(projectionNow.Add(-PresenceWindow-time.Second), projectionNow) {
		t.Fatal("just past five minutes must count as offline")
	}
	if Online(time.Time{}, projectionNow) {
		t.Fatal("zero lastSeen must be offline")
	}
}

func TestInVerifiedBucketRules(t *testing.T) {
	cases := []struct {
		name    string
		profile models.UserProfile
		want    bool
	}{
		{"devteam unverified", models.UserProfile{Kind: models.ContactKindDevTeam}, true},
		{"bot verified", models.UserProfile{Kind: models.ContactKindBot, Verified: true}, false},
		{"human verified", models.UserProfile{Kind: models.ContactKindHuman, Verified: true}, true},
		{"human unverified", models.UserProfile{Kind: models.ContactKindHuman}, false},
	}
	for _, tc := range cases {
		if got := InVerifiedBucket(tc.profile); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestProjectPartitionsForVIPViewer(t *testing.T) {
	chats := []models.Chat{
		testChat("chat_a", "viewer", "verified-1", "hey", "verified-1", projectionNow.Add(-time.Minute)),
		testChat("chat_b", "viewer", "plain-1", "yo", "plain-1", projectionNow.Add(-2*time.Minute)),
		testChat("chat_c", "viewer", "bot-1", "beep", "bot-1", projectionNow.Add(-3*time.Minute)),
	}
	resolve := resolverFor(
		models.UserProfile{UID: "verified-1", Name: "Vera", Kind: models.ContactKindHuman, Verified: true},
		models.UserProfile{UID: "plain-1", Name: "Pat", Kind: models.ContactKindHuman},
		models.UserProfile{UID: "bot-1", Name: "Bot", Kind: models.ContactKindBot, Verified: true},
	)

	view := Project("viewer", true, chats, resolve, "", projectionNow)
	if len(view.Verified) != 1 || view.Verified[0].ContactUID != "verified-1" {
		t.Fatalf("verified section wrong: %+v", view.Verified)
	}
	if len(view.Regular) != 2 {
		t.Fatalf("expected bot and plain contact in regular, got %+v", view.Regular)
	}
}

func TestProjectNonVIPViewerGetsSingleList(t *testing.T) {
	chats := []models.Chat{
		testChat("chat_a", "viewer", "verified-1", "hey", "verified-1", projectionNow.Add(-time.Minute)),
		testChat("chat_b", "viewer", "plain-1", "yo", "plain-1", projectionNow.Add(-2*time.Minute)),
	}
	resolve := resolverFor(
		models.UserProfile{UID: "verified-1", Name: "Vera", Kind: models.ContactKindHuman, Verified: true},
		models.UserProfile{UID: "plain-1", Name: "Pat", Kind: models.ContactKindHuman},
	)

	view := Project("viewer", false, chats, resolve, "", projectionNow)
	if len(view.Verified) != 0 {
		t.Fatalf("non-VIP viewer must have empty verified section: %+v", view.Verified)
	}
	if len(view.Regular) != 2 {
		t.Fatalf("verified contacts must fold into regular: %+v", view.Regular)
	}
}

func TestProjectOrdersByRecency(t *testing.T) {
	chats := []models.Chat{
		testChat("chat_old", "viewer", "u1", "old", "u1", projectionNow.Add(-time.Hour)),
		testChat("chat_new", "viewer", "u2", "new", "u2", projectionNow.Add(-time.Minute)),
		testChat("chat_tie_b", "viewer", "u3", "tie", "u3", projectionNow.Add(-time.Hour)),
	}
	view := Project("viewer", false, chats, resolverFor(), "", projectionNow)

	if len(view.Regular) != 3 {
		t.Fatalf("expected 3 items, got %d", len(view.Regular))
	}
	if view.Regular[0].ChatID != "chat_new" {
		t.Fatalf("most recent first, got %q", view.Regular[0].ChatID)
	}
	// Equal timestamps break ties on chat id.
	if view.Regular[1].ChatID != "chat_old" || view.Regular[2].ChatID != "chat_tie_b" {
		t.Fatalf("tie break wrong: %q then %q", view.Regular[1].ChatID, view.Regular[2].ChatID)
	}
}

func TestProjectSearchFiltersByName(t *testing.T) {
	chats := []models.Chat{
		testChat("chat_a", "viewer", "u1", "hi", "u1", projectionNow),
		testChat("chat_b", "viewer", "u2", "hi", "u2", projectionNow),
	}
	resolve := resolverFor(
		models.UserProfile{UID: "u1", Name: "Maria Oishee", Kind: models.ContactKindHuman},
		models.UserProfile{UID: "u2", Name: "Rakib", Kind: models.ContactKindHuman},
	)

	view := Project("viewer", false, chats, resolve, "  mArIa ", projectionNow)
	if len(view.Regular) != 1 || view.Regular[0].Name != "Maria Oishee" {
		t.Fatalf("search must match case-insensitively: %+v", view.Regular)
	}

	view = Project("viewer", false, chats, resolve, "zzz", projectionNow)
	if len(view.Regular) != 0 || len(view.Verified) != 0 {
		t.Fatalf("no-match search must return empty sections, got %+v", view)
	}
	if view.Regular == nil || view.Verified == nil {
		t.Fatal("sections must be empty slices, not nil")
	}
}

func TestProjectSelfMarkerAndUnknownContact(t *testing.T) {
	chats := []models.Chat{
		testChat("chat_a", "viewer", "ghost", "see you then", "viewer", projectionNow),
	}
	view := Project("viewer", false, chats, resolverFor(), "", projectionNow)

	if len(view.Regular) != 1 {
		t.Fatalf("expected 1 item, got %d", len(view.Regular))
	}
	item := view.Regular[0]
	if item.Name != "Unknown User" {
		t.Fatalf("unresolved contact must render placeholder, got %q", item.Name)
	}
	if item.LastMessageDisplay != "You: see you then" {
		t.Fatalf("viewer's own message must carry the self marker, got %q", item.LastMessageDisplay)
	}
}

func TestProjectSkipsForeignChats(t *testing.T) {
	chats := []models.Chat{
		testChat("chat_a", "other1", "other2", "private", "other1", projectionNow),
	}
	view := Project("viewer", false, chats, resolverFor(), "", projectionNow)
	if len(view.Regular) != 0 || len(view.Verified) != 0 {
		t.Fatalf("chats without the viewer must be skipped: %+v", view)
	}
}

func TestProjectContactVIPBadge(t *testing.T) {
	chats := []models.Chat{
		testChat("chat_a", "viewer", "vip-1", "hi", "vip-1", projectionNow),
		testChat("chat_b", "viewer", "lapsed-1", "hi", "lapsed-1", projectionNow),
	}
	resolve := resolverFor(
		models.UserProfile{UID: "vip-1", Name: "Vip", Kind: models.ContactKindHuman, VIP: models.VIPState{
			Phase: models.VIPPhaseActive, Pack: "Gold VIP", ExpiresAt: projectionNow.Add(time.Hour),
		}},
		models.UserProfile{UID: "lapsed-1", Name: "Lapsed", Kind: models.ContactKindHuman, VIP: models.VIPState{
			Phase: models.VIPPhaseActive, Pack: "Gold VIP", ExpiresAt: projectionNow.Add(-time.Hour),
		}},
	)

	view := Project("viewer", false, chats, resolve, "", projectionNow)
	byUID := map[string]models.ChatListItem{}
	for _, item := range view.Regular {
		byUID[item.ContactUID] = item
	}
	if !byUID["vip-1"].ContactVIP {
		t.Fatal("active VIP contact must carry the badge")
	}
	if byUID["lapsed-1"].ContactVIP {
		t.Fatal("records past expiresAt must not carry the badge")
	}
}
