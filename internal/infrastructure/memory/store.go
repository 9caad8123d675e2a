// Package memory хранит все данные ядра в памяти процесса.
// Используется для локальной разработки (STORE_BACKEND=memory) и в тестах.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
)

type txKey struct{}

type notificationState struct {
	events []entity.NotificationEvent
	unread int
}

type state struct {
	requests      map[uuid.UUID]entity.ServiceRequest
	engagements   map[uuid.UUID]entity.EngagementLink
	threads       map[uuid.UUID]entity.ChatThread
	messages      map[uuid.UUID][]entity.ChatMessage
	notifications map[entity.NotificationOwner]notificationState
	updates       map[uuid.UUID][]entity.ServiceUpdate
	nextEventID   int64
}

func newState() state {
	return state{
		requests:      make(map[uuid.UUID]entity.ServiceRequest),
		engagements:   make(map[uuid.UUID]entity.EngagementLink),
		threads:       make(map[uuid.UUID]entity.ChatThread),
		messages:      make(map[uuid.UUID][]entity.ChatMessage),
		notifications: make(map[entity.NotificationOwner]notificationState),
		updates:       make(map[uuid.UUID][]entity.ServiceUpdate),
	}
}

func (s state) clone() state {
	c := state{
		requests:      maps.Clone(s.requests),
		engagements:   maps.Clone(s.engagements),
		threads:       maps.Clone(s.threads),
		messages:      make(map[uuid.UUID][]entity.ChatMessage, len(s.messages)),
		notifications: make(map[entity.NotificationOwner]notificationState, len(s.notifications)),
		updates:       make(map[uuid.UUID][]entity.ServiceUpdate, len(s.updates)),
		nextEventID:   s.nextEventID,
	}
	for k, v := range s.messages {
		c.messages[k] = slices.Clone(v)
	}
	for k, v := range s.notifications {
		c.notifications[k] = notificationState{events: slices.Clone(v.events), unread: v.unread}
	}
	for k, v := range s.updates {
		c.updates[k] = slices.Clone(v)
	}
	return c
}

// Store реализует все репозитории поверх одного мьютекса.
// Транзакция держит мьютекс целиком и откатывает изменения при ошибке.
type Store struct {
	mu   sync.Mutex
	data state

	dirMu    sync.RWMutex
	clients  map[uuid.UUID]entity.ClientProfile
	services map[uuid.UUID]entity.ServiceInfo
	partners map[uuid.UUID]struct{}
}

func NewStore() *Store {
	return &Store{
		data:     newState(),
		clients:  make(map[uuid.UUID]entity.ClientProfile),
		services: make(map[uuid.UUID]entity.ServiceInfo),
		partners: make(map[uuid.UUID]struct{}),
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// do выполняет fn под мьютексом, если вызов не находится внутри транзакции.
func (s *Store) do(ctx context.Context, fn func() error) error {
	if s.inTx(ctx) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) Requests() *RequestRepository           { return &RequestRepository{s: s} }
func (s *Store) Engagements() *EngagementRepository     { return &EngagementRepository{s: s} }
func (s *Store) Threads() *ThreadRepository             { return &ThreadRepository{s: s} }
func (s *Store) Messages() *MessageRepository           { return &MessageRepository{s: s} }
func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s: s} }
func (s *Store) Updates() *ServiceUpdateRepository      { return &ServiceUpdateRepository{s: s} }
func (s *Store) Directory() *DirectoryRepository        { return &DirectoryRepository{s: s} }
