package entity

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

// ChannelKey определяет канал переписки. Для канала может существовать
// не более одного открытого чата.
type ChannelKey struct {
	ClientID  uuid.UUID
	Kind      valueobject.ChannelKind
	ServiceID *uuid.UUID
}

func NewChannelKey(clientID uuid.UUID, kind valueobject.ChannelKind, serviceID *uuid.UUID) (ChannelKey, error) {
	if clientID == uuid.Nil {
		return ChannelKey{}, apperror.New(apperror.ErrCodeValidation, "клиент обязателен")
	}
	if !kind.IsValid() {
		return ChannelKey{}, apperror.New(apperror.ErrCodeValidation, "некорректный тип канала")
	}
	if kind == valueobject.ChannelInternal {
		return ChannelKey{ClientID: clientID, Kind: kind}, nil
	}
	if serviceID == nil || *serviceID == uuid.Nil {
		return ChannelKey{}, apperror.New(apperror.ErrCodeValidation, "для канала услуги требуется serviceId")
	}
	id := *serviceID
	return ChannelKey{ClientID: clientID, Kind: kind, ServiceID: &id}, nil
}

// Slot - значение, по которому строится уникальный индекс открытых чатов клиента.
func (k ChannelKey) Slot() string {
	if k.Kind == valueobject.ChannelInternal || k.ServiceID == nil {
		return string(valueobject.ChannelInternal)
	}
	return "service:" + k.ServiceID.String()
}

func (k ChannelKey) String() string {
	return k.ClientID.String() + "/" + k.Slot()
}

type ChatThread struct {
	ID              uuid.UUID
	ClientID        uuid.UUID
	Kind            valueobject.ChannelKind
	ServiceID       *uuid.UUID
	RequestID       *uuid.UUID
	Status          valueobject.ThreadStatus
	UnreadForClient int
	UnreadForStaff  int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewChatThread(key ChannelKey) *ChatThread {
	now := time.Now()
	return &ChatThread{
		ID:        uuid.New(),
		ClientID:  key.ClientID,
		Kind:      key.Kind,
		ServiceID: key.ServiceID,
		Status:    valueobject.ThreadStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (t *ChatThread) Key() ChannelKey {
	return ChannelKey{ClientID: t.ClientID, Kind: t.Kind, ServiceID: t.ServiceID}
}

func (t *ChatThread) IsOpen() bool {
	return t.Status == valueobject.ThreadStatusOpen
}

// Close возвращает false, если чат уже был закрыт.
func (t *ChatThread) Close() bool {
	if !t.IsOpen() {
		return false
	}
	t.Status = valueobject.ThreadStatusClosed
	t.UpdatedAt = time.Now()
	return true
}

func (t *ChatThread) UnreadFor(side valueobject.ChatSide) int {
	if side == valueobject.ChatSideClient {
		return t.UnreadForClient
	}
	return t.UnreadForStaff
}

// RecordMessage увеличивает счётчик непрочитанных у получателя.
func (t *ChatThread) RecordMessage(sender valueobject.ChatSide) {
	if sender == valueobject.ChatSideClient {
		t.UnreadForStaff++
	} else {
		t.UnreadForClient++
	}
	t.UpdatedAt = time.Now()
}

func (t *ChatThread) ResetUnread(reader valueobject.ChatSide) {
	if reader == valueobject.ChatSideClient {
		t.UnreadForClient = 0
	} else {
		t.UnreadForStaff = 0
	}
}

type MessageOptions struct {
	ActionFlag string
	Pinned     bool
}

type ChatMessage struct {
	ID           uuid.UUID
	ThreadID     uuid.UUID
	Text         string
	Sender       valueobject.ChatSide
	SentAt       time.Time
	ReadByClient bool
	ReadByStaff  bool
	ActionFlag   *string
	Pinned       bool
}

func NewChatMessage(threadID uuid.UUID, sender valueobject.ChatSide, text string, opts MessageOptions) (*ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "сообщение не может быть пустым")
	}
	if sender != valueobject.ChatSideClient && sender != valueobject.ChatSideStaff {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный отправитель")
	}

	msg := &ChatMessage{
		ID:           uuid.New(),
		ThreadID:     threadID,
		Text:         text,
		Sender:       sender,
		SentAt:       time.Now(),
		ReadByClient: sender == valueobject.ChatSideClient,
		ReadByStaff:  sender == valueobject.ChatSideStaff,
		Pinned:       opts.Pinned,
	}
	if opts.ActionFlag != "" {
		flag := opts.ActionFlag
		msg.ActionFlag = &flag
	}
	return msg, nil
}

func (m *ChatMessage) IsReadBy(side valueobject.ChatSide) bool {
	if side == valueobject.ChatSideClient {
		return m.ReadByClient
	}
	return m.ReadByStaff
}

func (m *ChatMessage) MarkReadBy(side valueobject.ChatSide) {
	if side == valueobject.ChatSideClient {
		m.ReadByClient = true
	} else {
		m.ReadByStaff = true
	}
}

// SortMessages упорядочивает сообщения по времени отправки.
func SortMessages(msgs []*ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
}
