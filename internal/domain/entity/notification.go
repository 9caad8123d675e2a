package entity

import (
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

// NotificationOwner - ключ журнала уведомлений. У сотрудников один общий журнал.
type NotificationOwner string

const StaffOwner NotificationOwner = "staff"

func ClientOwner(clientID uuid.UUID) NotificationOwner {
	return NotificationOwner("client:" + clientID.String())
}

func PartnerOwner(partnerID uuid.UUID) NotificationOwner {
	return NotificationOwner("partner:" + partnerID.String())
}

// NotificationPayload - данные для навигации клиента (navigate, serviceId, clientId и т.п.).
type NotificationPayload map[string]string

type NotificationEvent struct {
	ID        int64
	Owner     NotificationOwner
	Message   string
	Kind      valueobject.NotificationKind
	Payload   NotificationPayload
	Read      bool
	CreatedAt time.Time
}

func NewNotificationEvent(owner NotificationOwner, kind valueobject.NotificationKind, payload NotificationPayload) (*NotificationEvent, error) {
	if owner == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "получатель уведомления обязателен")
	}
	if !kind.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип уведомления")
	}
	if payload == nil {
		payload = NotificationPayload{}
	}
	return &NotificationEvent{
		Owner:     owner,
		Message:   kind.Message(),
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now(),
	}, nil
}

// SameAs сравнивает события по тройке (message, kind, payload).
func (e *NotificationEvent) SameAs(other *NotificationEvent) bool {
	return e.Message == other.Message &&
		e.Kind == other.Kind &&
		maps.Equal(e.Payload, other.Payload)
}

type NotificationLog struct {
	Owner       NotificationOwner
	Events      []*NotificationEvent
	UnreadCount int
}

func NewNotificationLog(owner NotificationOwner) *NotificationLog {
	return &NotificationLog{Owner: owner}
}

func (l *NotificationLog) Append(e *NotificationEvent) {
	l.Events = append(l.Events, e)
	if !e.Read {
		l.UnreadCount++
	}
}

// Acknowledge удаляет событие с индексом index вместе со всеми структурно
// одинаковыми событиями и уменьшает счётчик на число удалённых.
func (l *NotificationLog) Acknowledge(index int) ([]*NotificationEvent, error) {
	if index < 0 || index >= len(l.Events) {
		return nil, apperror.ErrNotificationIndex
	}

	target := l.Events[index]
	kept := make([]*NotificationEvent, 0, len(l.Events))
	var removed []*NotificationEvent
	for i, e := range l.Events {
		if i == index || e.SameAs(target) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}

	l.Events = kept
	l.UnreadCount -= len(removed)
	if l.UnreadCount < 0 {
		l.UnreadCount = 0
	}
	return removed, nil
}
