package dto

import (
	"time"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
)

// MarkNotificationReadRequest - индекс события в журнале, 0 допустим.
type MarkNotificationReadRequest struct {
	Index *int `json:"index" binding:"required,gte=0"`
}

type NotificationResponse struct {
	ID        int64             `json:"id"`
	Message   string            `json:"message"`
	Kind      string            `json:"kind"`
	Payload   map[string]string `json:"payload"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"createdAt"`
}

type NotificationLogResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}

func ToNotificationLogResponse(log *entity.NotificationLog) NotificationLogResponse {
	items := make([]NotificationResponse, len(log.Events))
	for i, e := range log.Events {
		items[i] = NotificationResponse{
			ID:        e.ID,
			Message:   e.Message,
			Kind:      string(e.Kind),
			Payload:   e.Payload,
			Read:      e.Read,
			CreatedAt: e.CreatedAt,
		}
	}
	return NotificationLogResponse{Notifications: items, UnreadCount: log.UnreadCount}
}
