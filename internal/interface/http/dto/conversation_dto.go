package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/usecase/conversation"
)

// SendMessageRequest - clientId обязателен только для сотрудника.
type SendMessageRequest struct {
	ClientID    uuid.UUID  `json:"clientId"`
	Text        string     `json:"text" binding:"required"`
	ChannelKind string     `json:"channelKind" binding:"required,oneof=internal non-internal"`
	ServiceID   *uuid.UUID `json:"serviceId"`
}

type InternalConversationRequest struct {
	Message   string      `json:"message" binding:"required"`
	ClientIDs []uuid.UUID `json:"clientIds" binding:"required,min=1"`
}

type ThreadResponse struct {
	ID              uuid.UUID  `json:"id"`
	ClientID        uuid.UUID  `json:"clientId"`
	ChannelKind     string     `json:"channelKind"`
	ServiceID       *uuid.UUID `json:"serviceId,omitempty"`
	RequestID       *uuid.UUID `json:"requestId,omitempty"`
	Status          string     `json:"status"`
	UnreadForClient int        `json:"unreadForClient"`
	UnreadForStaff  int        `json:"unreadForStaff"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type MessageResponse struct {
	ID           uuid.UUID `json:"id"`
	ThreadID     uuid.UUID `json:"threadId"`
	Text         string    `json:"text"`
	Sender       string    `json:"sender"`
	SentAt       time.Time `json:"sentAt"`
	ReadByClient bool      `json:"readByClient"`
	ReadByStaff  bool      `json:"readByStaff"`
	ActionFlag   *string   `json:"actionFlag,omitempty"`
	Pinned       bool      `json:"pinned"`
}

type ChatResponse struct {
	Thread   *ThreadResponse   `json:"thread"`
	Messages []MessageResponse `json:"messages"`
}

type InternalConversationResponse struct {
	Delivered int `json:"delivered"`
}

func ToThreadResponse(t *entity.ChatThread) ThreadResponse {
	return ThreadResponse{
		ID:              t.ID,
		ClientID:        t.ClientID,
		ChannelKind:     string(t.Kind),
		ServiceID:       t.ServiceID,
		RequestID:       t.RequestID,
		Status:          string(t.Status),
		UnreadForClient: t.UnreadForClient,
		UnreadForStaff:  t.UnreadForStaff,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func ToThreadResponses(threads []*entity.ChatThread) []ThreadResponse {
	result := make([]ThreadResponse, len(threads))
	for i, t := range threads {
		result[i] = ToThreadResponse(t)
	}
	return result
}

func ToMessageResponse(m *entity.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:           m.ID,
		ThreadID:     m.ThreadID,
		Text:         m.Text,
		Sender:       string(m.Sender),
		SentAt:       m.SentAt,
		ReadByClient: m.ReadByClient,
		ReadByStaff:  m.ReadByStaff,
		ActionFlag:   m.ActionFlag,
		Pinned:       m.Pinned,
	}
}

func ToMessageResponses(msgs []*entity.ChatMessage) []MessageResponse {
	result := make([]MessageResponse, len(msgs))
	for i, m := range msgs {
		result[i] = ToMessageResponse(m)
	}
	return result
}

// ToChatResponse допускает отсутствие чата: тогда thread равен null.
func ToChatResponse(thread *entity.ChatThread, msgs []*entity.ChatMessage) ChatResponse {
	resp := ChatResponse{Messages: ToMessageResponses(msgs)}
	if thread != nil {
		t := ToThreadResponse(thread)
		resp.Thread = &t
	}
	return resp
}

func ToClosedChatResponses(closed []conversation.ClosedThread) []ChatResponse {
	result := make([]ChatResponse, len(closed))
	for i, ct := range closed {
		result[i] = ToChatResponse(ct.Thread, ct.Messages)
	}
	return result
}
