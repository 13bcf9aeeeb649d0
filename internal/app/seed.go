package app

import (
	"time"

	"echo-message/go-backend/pkg/models"
)

// Privileged system accounts. Profiles created under these uids default to
// verified.
const (
	BotUID     = "blue-bird-bot"
	DevTeamUID = "vip-dev"
)

const welcomeText = "Welcome to Echo Message! 🎉 I'm Blue Bird. How can I assist you today?"

// SendWelcomeMessage greets a freshly signed-up user from the bot account,
// creating the bot chat if needed. Greeting the bot itself is skipped.
func (s *Service) SendWelcomeMessage(uid string) error {
	if uid == BotUID {
		return nil
	}
	chatID, err := s.CreateChat(uid, BotUID)
	if err != nil {
		return err
	}
	_, err = s.SendMessage(chatID, BotUID, welcomeText, "")
	return err
}

type seedProfile struct {
	uid          string
	name         string
	email        string
	kind         models.ContactKind
	verified     bool
	vipPack      string
	vipDays      int
	lastSeenAgo  time.Duration
	avatarRef    string
	conversation []seedMessage
}

type seedMessage struct {
	fromContact bool
	text        string
}

// SeedDemoData loads the demo dataset: the system accounts, a set of
// contacts with varying verification/VIP/presence states, and a chat with
// recent history between each contact and demoUser. Seeding goes straight
// through the stores — nothing is subscribed yet, so no fan-out is due.
func (s *Service) SeedDemoData(demoUser string) error {
	seeds := []seedProfile{
		{
			uid: BotUID, name: "Blue Bird", email: "bot@example.com",
			kind: models.ContactKindBot, verified: true,
			lastSeenAgo: 24 * time.Hour, avatarRef: "blue-bird-icon",
			conversation: []seedMessage{
				{text: "Hi Blue Bird!"},
				{fromContact: true, text: "Hi, how can I help?"},
			},
		},
		{
			uid: DevTeamUID, name: "Dev Team", email: "devteam@example.com",
			kind: models.ContactKindDevTeam, verified: true,
			lastSeenAgo: 2 * time.Minute, avatarRef: "dev-team-svg",
			conversation: []seedMessage{
				{text: "Hello Dev Team!"},
				{fromContact: true, text: "Hi, how can we help?"},
			},
		},
		{
			uid: "verified-contact-1", name: "Twaha", email: "twaha@example.com",
			verified: true, vipPack: "Gold VIP", vipDays: 30,
			lastSeenAgo: time.Minute, avatarRef: "https://picsum.photos/seed/twaha/200",
			conversation: []seedMessage{
				{text: "Hey Twaha, are we still on for tomorrow?"},
				{fromContact: true, text: "Yes, absolutely! 10 AM, right?"},
				{text: "Excellent!"},
			},
		},
		{
			uid: "verified-contact-2", name: "Rakib", email: "rakib@example.com",
			verified:    true,
			lastSeenAgo: 10 * time.Minute, avatarRef: "https://picsum.photos/seed/rakib/200",
			conversation: []seedMessage{
				{text: "Rakib, did you get the files I sent over?"},
				{fromContact: true, text: "Yep, got them. Thanks! Will review them tonight."},
			},
		},
		{
			uid: "regular-user-1", name: "Ashadul", email: "ashadul@example.com",
			lastSeenAgo: 30 * time.Minute, avatarRef: "https://picsum.photos/seed/ashadul/200",
			conversation: []seedMessage{
				{text: "Ashadul, are you free for lunch today?"},
				{fromContact: true, text: "Yeah, I think so. What time were you thinking?"},
				{text: "Around 1 PM? There's a new cafe I wanted to try."},
			},
		},
		{
			uid: "vip-user-2", name: "Maria Oishee", email: "maria@example.com",
			verified: true, vipPack: "Silver VIP", vipDays: 20,
			lastSeenAgo: time.Minute, avatarRef: "https://picsum.photos/seed/maria/200",
			conversation: []seedMessage{
				{text: "Hello Maria! How are you doing today?"},
				{fromContact: true, text: "Hi! Doing well, thanks. Just working on a new design."},
			},
		},
		{
			uid: "monk-user-1", name: "Peaceful Monk", email: "monk1@example.com",
			lastSeenAgo: 2 * time.Hour, avatarRef: "https://picsum.photos/seed/monk1/200",
			conversation: []seedMessage{
				{text: "Greetings, Peaceful Monk."},
				{fromContact: true, text: "Peace be with you."},
			},
		},
	}

	if _, err := s.profiles.Upsert(demoUser, seedPatch(seedProfile{
		uid: demoUser, name: "Test User", email: "test@example.com", verified: true,
	})); err != nil {
		return err
	}

	for _, seed := range seeds {
		if _, err := s.profiles.Upsert(seed.uid, seedPatch(seed)); err != nil {
			return err
		}
		if seed.lastSeenAgo > 0 {
			lastSeen := s.clock.Now().UTC().Add(-seed.lastSeenAgo)
			if _, err := s.profiles.Upsert(seed.uid, models.ProfilePatch{LastSeen: &lastSeen}); err != nil {
				return err
			}
		}
		if seed.vipPack != "" {
			if _, err := s.vip.Start(seed.uid, seed.vipPack, seed.vipDays); err != nil {
				return err
			}
		}
		if err := s.seedConversation(demoUser, seed); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) seedConversation(demoUser string, seed seedProfile) error {
	if len(seed.conversation) == 0 {
		return nil
	}
	chatID, _, err := s.chats.CreateChat(demoUser, seed.uid)
	if err != nil {
		return err
	}
	for _, msg := range seed.conversation {
		sender := demoUser
		if msg.fromContact {
			sender = seed.uid
		}
		if _, err := s.chats.SendMessage(chatID, sender, msg.text, ""); err != nil {
			return err
		}
	}
	return nil
}

func seedPatch(seed seedProfile) models.ProfilePatch {
	kind := seed.kind
	if kind == "" {
		kind = models.ContactKindHuman
	}
	name, email, avatar := seed.name, seed.email, seed.avatarRef
	verified := seed.verified
	return models.ProfilePatch{
		Name:      &name,
		Email:     &email,
		AvatarRef: &avatar,
		Kind:      &kind,
		Verified:  &verified,
	}
}
