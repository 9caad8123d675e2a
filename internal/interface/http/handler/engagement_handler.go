package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/interface/http/dto"
	"github.com/ignatzorin/engagement-backend/internal/interface/http/response"
	"github.com/ignatzorin/engagement-backend/internal/usecase/engagement"
	"github.com/ignatzorin/engagement-backend/internal/validation"
)

// EngagementUseCases собирает сценарии заявок и услуг, которые обслуживает EngagementHandler.
type EngagementUseCases struct {
	CreateRequest *engagement.CreateRequestUseCase
	QuotePrice    *engagement.QuotePriceUseCase
	ListRequests  *engagement.ListRequestsUseCase
	Accept        *engagement.AcceptEngagementUseCase
	MarkPaid      *engagement.MarkPaidUseCase
	PostUpdate    *engagement.PostServiceUpdateUseCase
	ListUpdates   *engagement.ListServiceUpdatesUseCase
	EditUpdate    *engagement.EditServiceUpdateUseCase
	DeleteUpdate  *engagement.DeleteServiceUpdateUseCase
	AssignPartner *engagement.AssignPartnerUseCase
	MarkFulfilled *engagement.MarkFulfilledUseCase
	Purchase      *engagement.PurchaseForClientUseCase
	List          *engagement.ListEngagementsUseCase
	Find          *engagement.FindEngagementUseCase
}

type EngagementHandler struct {
	uc             EngagementUseCases
	maxUploadBytes int64
}

func NewEngagementHandler(uc EngagementUseCases, maxUploadBytes int64) *EngagementHandler {
	return &EngagementHandler{uc: uc, maxUploadBytes: maxUploadBytes}
}

// RequestService обрабатывает POST request-service. Клиент создаёт заявку
// для себя, партнёр указывает clientId своего клиента.
func (h *EngagementHandler) RequestService(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateRequestRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := validation.ValidateRequirement(req.Requirement); err != nil {
		response.Error(c, err)
		return
	}

	created, err := h.uc.CreateRequest.Execute(c.Request.Context(), actor, engagement.CreateRequestInput{
		ClientID:    req.ClientID,
		ServiceID:   req.ServiceID,
		Requirement: req.Requirement,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.CreatedRequestResponse{RequestID: created.ID})
}

func (h *EngagementHandler) QuotePrice(c *gin.Context) {
	var req dto.QuotePriceRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := validation.ValidatePrice(req.Price); err != nil {
		response.Error(c, err)
		return
	}
	if err := validation.ValidateNote(req.Note); err != nil {
		response.Error(c, err)
		return
	}

	quoted, err := h.uc.QuotePrice.Execute(c.Request.Context(), engagement.QuoteInput{
		RequestID: req.RequestID,
		ClientID:  req.ClientID,
		ServiceID: req.ServiceID,
		Price:     req.Price,
		Note:      req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToRequestResponse(quoted))
}

// ListRequests обрабатывает GET requests; сотрудник передаёт ?clientId=.
func (h *EngagementHandler) ListRequests(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	clientID, ok := parseOptionalUUIDQuery(c, "clientId")
	if !ok {
		return
	}

	requests, err := h.uc.ListRequests.Execute(c.Request.Context(), actor, valueOrNil(clientID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToRequestResponses(requests))
}

// PayLater принимает выставленную цену без оплаты.
func (h *EngagementHandler) PayLater(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.PayLaterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.uc.Accept.PayLater(c.Request.Context(), actor, req.RequestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAcceptResponse(result))
}

// ListEngagements обрабатывает GET engagements (клиент) и
// GET clients/:clientId/engagements (партнёр).
func (h *EngagementHandler) ListEngagements(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	clientID := uuid.Nil
	if c.Param("clientId") != "" {
		clientID, ok = parseUUIDParam(c, "clientId", "некорректный ID клиента")
		if !ok {
			return
		}
	}

	links, err := h.uc.List.Execute(c.Request.Context(), actor, clientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEngagementResponses(links))
}

func (h *EngagementHandler) GetEngagement(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "некорректный ID услуги")
	if !ok {
		return
	}

	link, err := h.uc.Find.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEngagementResponse(link))
}

func (h *EngagementHandler) ListUpdates(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "некорректный ID услуги")
	if !ok {
		return
	}

	views, err := h.uc.ListUpdates.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToUpdateResponses(views))
}

// PostUpdate обрабатывает multipart POST engagements/:id/updates:
// поля description, folderId, subFolderId и файл artifact.
func (h *EngagementHandler) PostUpdate(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "некорректный ID услуги")
	if !ok {
		return
	}

	description := c.PostForm("description")
	if err := validation.ValidateUpdateDescription(description); err != nil {
		response.Error(c, err)
		return
	}
	folderID, ok := parseOptionalUUIDForm(c, "folderId")
	if !ok {
		return
	}
	subFolderID, ok := parseOptionalUUIDForm(c, "subFolderId")
	if !ok {
		return
	}

	header, err := c.FormFile("artifact")
	if err != nil {
		response.BadRequest(c, "поле artifact обязательно")
		return
	}
	artifact, file, err := openArtifact(header, h.maxUploadBytes)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	update, err := h.uc.PostUpdate.Execute(c.Request.Context(), engagement.PostUpdateInput{
		EngagementID: id,
		Description:  description,
		FolderID:     folderID,
		SubFolderID:  subFolderID,
		Artifact:     artifact,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToUpdateResponse(update, ""))
}

// EditUpdate обрабатывает multipart PUT engagements/:id/updates/:updateId:
// поле description обязательно, файл artifact заменяет документ, если передан.
func (h *EngagementHandler) EditUpdate(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "некорректный ID услуги")
	if !ok {
		return
	}
	updateID, ok := parseUUIDParam(c, "updateId", "некорректный ID обновления")
	if !ok {
		return
	}

	description := c.PostForm("description")
	if err := validation.ValidateUpdateDescription(description); err != nil {
		response.Error(c, err)
		return
	}

	in := engagement.EditUpdateInput{EngagementID: id, UpdateID: updateID, Description: description}
	header, err := c.FormFile("artifact")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		response.BadRequest(c, "некорректное поле artifact")
		return
	default:
		artifact, file, err := openArtifact(header, h.maxUploadBytes)
		if err != nil {
			response.Error(c, err)
			return
		}
		defer file.Close()
		in.Artifact = &artifact
	}

	update, err := h.uc.EditUpdate.Execute(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToUpdateResponse(update, ""))
}

func (h *EngagementHandler) DeleteUpdate(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "некорректный ID услуги")
	if !ok {
		return
	}
	updateID, ok := parseUUIDParam(c, "updateId", "некорректный ID обновления")
	if !ok {
		return
	}

	if err := h.uc.DeleteUpdate.Execute(c.Request.Context(), id, updateID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.DeletedUpdateResponse{UpdateID: updateID})
}

func (h *EngagementHandler) AssignPartner(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "некорректный ID услуги")
	if !ok {
		return
	}
	var req dto.AssignPartnerRequest
	if !bindJSON(c, &req) {
		return
	}

	link, err := h.uc.AssignPartner.Execute(c.Request.Context(), id, req.PartnerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEngagementResponse(link))
}

func (h *EngagementHandler) Complete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "некорректный ID услуги")
	if !ok {
		return
	}

	link, err := h.uc.MarkFulfilled.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEngagementResponse(link))
}

// MarkPaid переводит отложенную оплату в paid; повтор ничего не меняет.
func (h *EngagementHandler) MarkPaid(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "некорректный ID услуги")
	if !ok {
		return
	}

	link, err := h.uc.MarkPaid.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEngagementResponse(link))
}

// Purchase оформляет услугу клиенту без заявки.
func (h *EngagementHandler) Purchase(c *gin.Context) {
	var req dto.PurchaseRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := validation.ValidatePrice(req.Cost); err != nil {
		response.Error(c, err)
		return
	}
	if err := validation.ValidateNote(req.Note); err != nil {
		response.Error(c, err)
		return
	}

	link, err := h.uc.Purchase.Execute(c.Request.Context(), engagement.PurchaseInput{
		ClientID:      req.ClientID,
		ServiceID:     req.ServiceID,
		Cost:          req.Cost,
		Note:          req.Note,
		Requirement:   req.Requirement,
		PaymentStatus: valueobject.PaymentStatus(req.PaymentStatus),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToEngagementResponse(link))
}

func valueOrNil(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
