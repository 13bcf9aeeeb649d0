package app

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"echo-message/go-backend/internal/chatlist"
	"echo-message/go-backend/internal/config"
	"echo-message/go-backend/internal/contracts"
	"echo-message/go-backend/internal/notify"
	"echo-message/go-backend/internal/platform/ratelimiter"
	"echo-message/go-backend/internal/store"
	"echo-message/go-backend/internal/vip"
	"echo-message/go-backend/pkg/models"
)

const (
	chatListTopicPrefix = "chatlist/"
	messagesTopicPrefix = "chat/"
)

// Service is the facade the UI/session layer talks to. It owns the stores,
// the subscription registry, and the VIP lifecycle manager; a single write
// mutex serializes store mutations together with their notification
// fan-out, so no reader ever observes a chat whose lastMessage fields lag
// its message sequence.
type Service struct {
	writeMu  sync.Mutex
	clock    clock.Clock
	logger   *slog.Logger
	cfg      config.CoreConfig
	profiles *store.ProfileStore
	chats    *store.ChatMessageStore
	registry *notify.Registry
	vip      *vip.Manager
	limiter  *ratelimiter.SenderLimiter
	metrics  *MetricsState
}

func NewService(cfg config.CoreConfig, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = DefaultLogger()
	}
	metrics := NewMetricsState()
	s := &Service{
		clock:    clk,
		logger:   logger,
		cfg:      cfg,
		profiles: store.NewProfileStore(clk, BotUID, DevTeamUID),
		chats:    store.NewChatMessageStore(clk),
		metrics:  metrics,
		limiter:  ratelimiter.New(cfg.RateLimitPerSec, cfg.RateLimitBurst, cfg.RateLimitIdleTTL),
	}
	s.registry = notify.NewRegistry(clk, logger,
		notify.WithSnapshotDelay(cfg.SnapshotDelay),
		notify.WithListenerErrorHook(func(string) { metrics.RecordListenerError() }),
	)
	s.vip = vip.NewManager(s.profiles, clk, logger,
		vip.WithChangeHook(func(uid string, _ models.VIPState) { s.publishProfileChange(uid) }),
	)
	return s
}

// Close tears the session down: every outstanding VIP expiry timer stops.
func (s *Service) Close() {
	s.vip.Close()
}

// Metrics returns the service's counter state (read by the prometheus
// bridge).
func (s *Service) Metrics() *MetricsState {
	return s.metrics
}

func (s *Service) MetricsSnapshot() models.MetricsSnapshot {
	return s.metrics.Snapshot()
}

func (s *Service) GetProfile(uid string) (models.UserProfile, error) {
	return s.profiles.Get(uid)
}

func (s *Service) FindProfileByEmail(email string) (models.UserProfile, error) {
	return s.profiles.FindByEmail(email)
}

// UpsertProfile creates or merges a profile and re-publishes the chat-list
// topics whose enrichment the change is visible in: the user's own and
// those of everyone they share a chat with.
func (s *Service) UpsertProfile(uid string, patch models.ProfilePatch) (models.UserProfile, error) {
	started := time.Now()
	defer s.metrics.RecordOp("upsert_profile", started)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	profile, err := s.profiles.Upsert(uid, patch)
	if err != nil {
		s.metrics.RecordOpError("upsert_profile")
		s.metrics.RecordError(contracts.ErrorCategory(err))
		return models.UserProfile{}, err
	}
	s.publishProfileChange(uid)
	return profile, nil
}

func (s *Service) FindChat(a, b string) (string, error) {
	return s.chats.FindChatBetween(a, b)
}

// CreateChat returns the pair's chat id, creating the chat when the pair
// has none. Only an actual creation fans out to the participants'
// chat-list topics; the idempotent re-create mutates nothing and stays
// silent.
func (s *Service) CreateChat(a, b string) (string, error) {
	started := time.Now()
	defer s.metrics.RecordOp("create_chat", started)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id, created, err := s.chats.CreateChat(a, b)
	if err != nil {
		s.metrics.RecordOpError("create_chat")
		s.metrics.RecordError(contracts.ErrorCategory(err))
		return "", err
	}
	if created {
		s.publishChatList(a)
		s.publishChatList(b)
	}
	return id, nil
}

// SendMessage appends to the chat and returns only after the mutation and
// its fan-out (message topic plus both participants' chat-list topics)
// have committed. Simulated network latency, when configured, runs before
// the mutation.
func (s *Service) SendMessage(chatID, senderID, text, imageRef string) (string, error) {
	started := time.Now()
	defer s.metrics.RecordOp("send_message", started)

	if !s.limiter.Allow(senderID, s.clock.Now()) {
		err := contracts.WrapCategorizedError(contracts.ErrorCategoryAPI, contracts.ErrRateLimited)
		s.metrics.RecordOpError("send_message")
		s.metrics.RecordError(contracts.ErrorCategory(err))
		return "", err
	}
	if s.cfg.SendLatency > 0 {
		s.clock.Sleep(s.cfg.SendLatency)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	msg, err := s.chats.SendMessage(chatID, senderID, text, imageRef)
	if err != nil {
		s.metrics.RecordOpError("send_message")
		s.metrics.RecordError(contracts.ErrorCategory(err))
		return "", err
	}

	chat, err := s.chats.GetChat(chatID)
	if err != nil {
		return "", err
	}
	s.publishMessages(chatID)
	s.publishChatList(chat.Participants[0])
	s.publishChatList(chat.Participants[1])
	return msg.ID, nil
}

// SubscribeChatList registers a chat-list listener for uid. The returned
// function unsubscribes; it is idempotent and safe to call from inside the
// snapshot callback.
func (s *Service) SubscribeChatList(uid string, onSnapshot func([]models.ChatSummary), onError func(error)) func() {
	sub := s.registry.Subscribe(chatListTopicPrefix+uid,
		func() (any, error) { return s.chatListSnapshot(uid), nil },
		func(snapshot any) {
			if summaries, ok := snapshot.([]models.ChatSummary); ok {
				onSnapshot(summaries)
			}
		},
		onError,
	)
	return sub.Cancel
}

// SubscribeMessages registers a full-refresh message-stream listener for a
// chat.
func (s *Service) SubscribeMessages(chatID string, onSnapshot func([]models.Message), onError func(error)) func() {
	sub := s.registry.Subscribe(messagesTopicPrefix+chatID,
		func() (any, error) { return s.chats.ListMessages(chatID) },
		func(snapshot any) {
			if messages, ok := snapshot.([]models.Message); ok {
				onSnapshot(messages)
			}
		},
		onError,
	)
	return sub.Cancel
}

func (s *Service) StartVIP(uid, pack string, durationDays int) (models.VIPState, error) {
	started := time.Now()
	defer s.metrics.RecordOp("start_vip", started)
	state, err := s.vip.Start(uid, pack, durationDays)
	if err != nil {
		s.metrics.RecordOpError("start_vip")
		s.metrics.RecordError(contracts.ErrorCategory(err))
	}
	return state, err
}

func (s *Service) CancelVIP(uid string) error {
	started := time.Now()
	defer s.metrics.RecordOp("cancel_vip", started)
	if err := s.vip.Cancel(uid); err != nil {
		s.metrics.RecordOpError("cancel_vip")
		s.metrics.RecordError(contracts.ErrorCategory(err))
		return err
	}
	return nil
}

// VIPState reports uid's state with the live-expiry rule applied.
func (s *Service) VIPState(uid string) (models.VIPState, error) {
	return s.vip.State(uid)
}

// TickVIP materializes a pending expiry; exposed for callers driving time
// explicitly (the manager's own timer calls it too).
func (s *Service) TickVIP(uid string) (bool, error) {
	return s.vip.Tick(uid)
}

// ProjectChatList derives the viewer's partitioned chat list. The verified
// section only populates while the viewer's VIP state is live-active.
func (s *Service) ProjectChatList(viewerUID, searchTerm string) (models.ChatListView, error) {
	started := time.Now()
	defer s.metrics.RecordOp("project_chat_list", started)

	if _, err := s.profiles.Get(viewerUID); err != nil {
		s.metrics.RecordOpError("project_chat_list")
		return models.ChatListView{}, err
	}
	vipState, err := s.vip.State(viewerUID)
	if err != nil {
		return models.ChatListView{}, err
	}

	resolver := func(uid string) (models.UserProfile, bool) {
		profile, err := s.profiles.Get(uid)
		return profile, err == nil
	}
	now := s.clock.Now()
	view := chatlist.Project(viewerUID, vipState.Phase == models.VIPPhaseActive,
		s.chats.ListChatsFor(viewerUID), resolver, searchTerm, now)
	return view, nil
}

func (s *Service) chatListSnapshot(uid string) []models.ChatSummary {
	chats := s.chats.ListChatsFor(uid)
	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		contactUID := chat.OtherParticipant(uid)
		contact, err := s.profiles.Get(contactUID)
		if err != nil {
			contact = models.UserProfile{UID: contactUID, Name: "Unknown User", Kind: models.ContactKindHuman}
		}
		summaries = append(summaries, models.ChatSummary{Chat: chat, Contact: contact})
	}
	return summaries
}

func (s *Service) publishChatList(uid string) {
	s.registry.Publish(chatListTopicPrefix+uid, s.chatListSnapshot(uid))
}

func (s *Service) publishMessages(chatID string) {
	messages, err := s.chats.ListMessages(chatID)
	if err != nil {
		return
	}
	s.registry.Publish(messagesTopicPrefix+chatID, messages)
}

// publishProfileChange refreshes every chat-list topic the profile change
// is visible in.
func (s *Service) publishProfileChange(uid string) {
	s.publishChatList(uid)
	for _, chat := range s.chats.ListChatsFor(uid) {
		s.publishChatList(chat.OtherParticipant(uid))
	}
}
