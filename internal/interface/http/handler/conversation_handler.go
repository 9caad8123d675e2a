package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/interface/http/dto"
	"github.com/ignatzorin/engagement-backend/internal/interface/http/response"
	"github.com/ignatzorin/engagement-backend/internal/usecase/conversation"
	"github.com/ignatzorin/engagement-backend/internal/validation"
)

type ConversationHandler struct {
	sendMessageUC *conversation.SendMessageUseCase
	readThreadUC  *conversation.ReadThreadUseCase
	listClosedUC  *conversation.ListClosedThreadsUseCase
	broadcastUC   *conversation.StartInternalConversationUseCase
	threads       *conversation.ThreadService
}

func NewConversationHandler(
	sendMessageUC *conversation.SendMessageUseCase,
	readThreadUC *conversation.ReadThreadUseCase,
	listClosedUC *conversation.ListClosedThreadsUseCase,
	broadcastUC *conversation.StartInternalConversationUseCase,
	threads *conversation.ThreadService,
) *ConversationHandler {
	return &ConversationHandler{
		sendMessageUC: sendMessageUC,
		readThreadUC:  readThreadUC,
		listClosedUC:  listClosedUC,
		broadcastUC:   broadcastUC,
		threads:       threads,
	}
}

// SendMessage обрабатывает POST send-message для клиента и сотрудника.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := validation.ValidateMessageText(req.Text); err != nil {
		response.Error(c, err)
		return
	}

	msg, err := h.sendMessageUC.Execute(c.Request.Context(), actor, conversation.ChannelInput{
		ClientID:  req.ClientID,
		Kind:      valueobject.ChannelKind(req.ChannelKind),
		ServiceID: req.ServiceID,
	}, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToMessageResponse(msg))
}

// MyChats обрабатывает GET my-chats?channelKind=&serviceId=.
func (h *ConversationHandler) MyChats(c *gin.Context) {
	h.readThread(c, uuid.Nil)
}

// ClientChats обрабатывает GET chats/:clientId для сотрудника.
func (h *ConversationHandler) ClientChats(c *gin.Context) {
	clientID, ok := parseUUIDParam(c, "clientId", "некорректный ID клиента")
	if !ok {
		return
	}
	h.readThread(c, clientID)
}

func (h *ConversationHandler) readThread(c *gin.Context, clientID uuid.UUID) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	kind, err := valueobject.NewChannelKind(c.Query("channelKind"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serviceID, ok := parseOptionalUUIDQuery(c, "serviceId")
	if !ok {
		return
	}

	thread, msgs, err := h.readThreadUC.Execute(c.Request.Context(), actor, conversation.ChannelInput{
		ClientID:  clientID,
		Kind:      kind,
		ServiceID: serviceID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToChatResponse(thread, msgs))
}

// OpenChats - входящие сотрудника: все открытые чаты, свежие первыми.
func (h *ConversationHandler) OpenChats(c *gin.Context) {
	threads, err := h.threads.ListOpenThreads(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToThreadResponses(threads))
}

// ClosedChats обрабатывает GET closed-chats?requestId=.
func (h *ConversationHandler) ClosedChats(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(c.Query("requestId"))
	if err != nil {
		response.BadRequest(c, "некорректный ID заявки")
		return
	}

	closed, err := h.listClosedUC.Execute(c.Request.Context(), actor, requestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToClosedChatResponses(closed))
}

// InternalConversation рассылает сообщение сотрудника нескольким клиентам.
func (h *ConversationHandler) InternalConversation(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.InternalConversationRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := validation.ValidateMessageText(req.Message); err != nil {
		response.Error(c, err)
		return
	}
	if err := validation.ValidateBroadcastSize(len(req.ClientIDs)); err != nil {
		response.Error(c, err)
		return
	}

	delivered, err := h.broadcastUC.Execute(c.Request.Context(), actor, req.Message, req.ClientIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.InternalConversationResponse{Delivered: delivered})
}
