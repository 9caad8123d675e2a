package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/engagement-backend/internal/interface/http/dto"
	"github.com/ignatzorin/engagement-backend/internal/interface/http/response"
	"github.com/ignatzorin/engagement-backend/internal/usecase/notification"
)

// NotificationHandler отдаёт журнал уведомлений текущего актора.
// У всех сотрудников журнал общий.
type NotificationHandler struct {
	notifications *notification.Service
}

func NewNotificationHandler(notifications *notification.Service) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	log, err := h.notifications.List(c.Request.Context(), actor.NotificationOwner())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToNotificationLogResponse(log))
}

// MarkRead удаляет событие по индексу вместе с его дубликатами.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.MarkNotificationReadRequest
	if !bindJSON(c, &req) {
		return
	}

	log, err := h.notifications.MarkRead(c.Request.Context(), actor.NotificationOwner(), *req.Index)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToNotificationLogResponse(log))
}
