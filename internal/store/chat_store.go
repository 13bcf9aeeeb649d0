package store

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"echo-message/go-backend/internal/contracts"
	"echo-message/go-backend/pkg/models"
)

// ChatMessageStore holds chat metadata and per-chat message sequences.
// A participant pair maps to exactly one chat via the canonical sorted key.
type ChatMessageStore struct {
	mu        sync.RWMutex
	chats     map[string]models.Chat
	chatByKey map[string]string
	messages  map[string][]models.Message
	nextSeq   map[string]uint64
	clock     clock.Clock
}

func NewChatMessageStore(clk clock.Clock) *ChatMessageStore {
	if clk == nil {
		clk = clock.New()
	}
	return &ChatMessageStore{
		chats:     make(map[string]models.Chat),
		chatByKey: make(map[string]string),
		messages:  make(map[string][]models.Message),
		nextSeq:   make(map[string]uint64),
		clock:     clk,
	}
}

func canonicalPairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func (s *ChatMessageStore) FindChatBetween(a, b string) (string, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return "", contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrInvalidInput)
	}
	if a == b {
		return "", contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrSelfChat)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.chatByKey[canonicalPairKey(a, b)]
	if !ok {
		return "", contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrNotFound)
	}
	return id, nil
}

// CreateChat is idempotent: an existing chat for the pair is returned with
// created=false instead of creating a duplicate.
func (s *ChatMessageStore) CreateChat(a, b string) (string, bool, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return "", false, contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrInvalidInput)
	}
	if a == b {
		return "", false, contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrSelfChat)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := canonicalPairKey(a, b)
	if id, ok := s.chatByKey[key]; ok {
		return id, false, nil
	}

	id, err := generatePrefixedID("chat")
	if err != nil {
		return "", false, contracts.WrapCategorizedError(contracts.ErrorCategoryStore, err)
	}
	first, second := a, b
	if first > second {
		first, second = second, first
	}
	now := s.clock.Now().UTC()
	s.chats[id] = models.Chat{
		ID:            id,
		Participants:  [2]string{first, second},
		LastMessageAt: now,
		CreatedAt:     now,
	}
	s.chatByKey[key] = id
	s.messages[id] = nil
	return id, true, nil
}

// SendMessage appends a message and updates the chat's lastMessage fields
// under the same lock, so readers never observe the two out of sync.
func (s *ChatMessageStore) SendMessage(chatID, senderID, text, imageRef string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && strings.TrimSpace(imageRef) == "" {
		return models.Message{}, contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return models.Message{}, contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrNotFound)
	}
	if !chat.HasParticipant(senderID) {
		return models.Message{}, contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrNotAParticipant)
	}

	s.nextSeq[chatID]++
	msg := models.Message{
		ID:       uuid.NewString(),
		ChatID:   chatID,
		SenderID: senderID,
		Text:     text,
		ImageRef: imageRef,
		Seq:      s.nextSeq[chatID],
		SentAt:   s.clock.Now().UTC(),
	}
	s.messages[chatID] = append(s.messages[chatID], msg)

	chat.LastMessageText = lastMessagePreview(msg)
	chat.LastMessageSenderID = senderID
	chat.LastMessageAt = msg.SentAt
	s.chats[chatID] = chat

	return msg, nil
}

// ListMessages returns the chat's messages ordered by seq ascending. The
// slice is a copy, safe to hand to listeners.
func (s *ChatMessageStore) ListMessages(chatID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.chats[chatID]; !ok {
		return nil, contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrNotFound)
	}
	return append([]models.Message(nil), s.messages[chatID]...), nil
}

func (s *ChatMessageStore) GetChat(chatID string) (models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return models.Chat{}, contracts.WrapCategorizedError(contracts.ErrorCategoryStore, contracts.ErrNotFound)
	}
	return chat, nil
}

// ListChatsFor returns every chat uid participates in, ordered by chat ID
// for determinism.
func (s *ChatMessageStore) ListChatsFor(uid string) []models.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Chat, 0)
	for _, chat := range s.chats {
		if chat.HasParticipant(uid) {
			out = append(out, chat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// lastMessagePreview mirrors what the chat list shows: image messages
// collapse to a placeholder.
func lastMessagePreview(msg models.Message) string {
	if msg.ImageRef != "" {
		return "[Photo]"
	}
	return msg.Text
}

func generatePrefixedID(prefix string) (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return prefix + "_" + hex.EncodeToString(buf), nil
}
