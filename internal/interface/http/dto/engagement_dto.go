package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/usecase/engagement"
)

type CreateRequestRequest struct {
	ClientID    uuid.UUID `json:"clientId"`
	ServiceID   uuid.UUID `json:"serviceId" binding:"required"`
	Requirement string    `json:"requirement" binding:"required"`
}

// QuotePriceRequest - заявка указывается либо requestId, либо парой clientId и serviceId.
type QuotePriceRequest struct {
	RequestID *uuid.UUID `json:"requestId"`
	ClientID  uuid.UUID  `json:"clientId"`
	ServiceID uuid.UUID  `json:"serviceId"`
	Price     float64    `json:"price"`
	Note      string     `json:"note"`
}

type PayLaterRequest struct {
	RequestID uuid.UUID `json:"requestId" binding:"required"`
}

type PurchaseRequest struct {
	ClientID      uuid.UUID `json:"clientId" binding:"required"`
	ServiceID     uuid.UUID `json:"serviceId" binding:"required"`
	Cost          float64   `json:"cost" binding:"gte=0"`
	Note          string    `json:"note"`
	Requirement   string    `json:"requirement"`
	PaymentStatus string    `json:"paymentStatus" binding:"omitempty,oneof=due paid"`
}

type AssignPartnerRequest struct {
	PartnerID uuid.UUID `json:"partnerId" binding:"required"`
}

type CreatedRequestResponse struct {
	RequestID uuid.UUID `json:"requestId"`
}

type RequestResponse struct {
	ID          uuid.UUID `json:"id"`
	ClientID    uuid.UUID `json:"clientId"`
	ServiceID   uuid.UUID `json:"serviceId"`
	RequestedBy string    `json:"requestedBy"`
	Status      string    `json:"status"`
	Requirement string    `json:"requirement"`
	QuotedCost  *float64  `json:"quotedCost,omitempty"`
	QuotedPrice string    `json:"quotedPrice,omitempty"`
	Note        *string   `json:"note,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type EngagementResponse struct {
	ID                uuid.UUID  `json:"id"`
	ClientID          uuid.UUID  `json:"clientId"`
	ServiceID         uuid.UUID  `json:"serviceId"`
	RequestID         *uuid.UUID `json:"requestId,omitempty"`
	Cost              float64    `json:"cost"`
	Price             string     `json:"price"`
	Note              string     `json:"note,omitempty"`
	Requirement       string     `json:"requirement,omitempty"`
	PaymentStatus     string     `json:"paymentStatus"`
	FulfillmentStatus string     `json:"fulfillmentStatus"`
	AssignmentStatus  string     `json:"assignmentStatus"`
	OwnerRole         string     `json:"ownerRole"`
	PartnerID         *uuid.UUID `json:"partnerId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// AcceptResponse - changed равен false, если заявка уже была принята ранее.
type AcceptResponse struct {
	Request    *RequestResponse   `json:"request,omitempty"`
	Engagement EngagementResponse `json:"engagement"`
	Changed    bool               `json:"changed"`
}

type UpdateResponse struct {
	ID           uuid.UUID  `json:"id"`
	EngagementID uuid.UUID  `json:"engagementId"`
	ClientID     uuid.UUID  `json:"clientId"`
	Description  string     `json:"description"`
	ArtifactURL  string     `json:"artifactUrl,omitempty"`
	FolderID     *uuid.UUID `json:"folderId,omitempty"`
	SubFolderID  *uuid.UUID `json:"subFolderId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type DeletedUpdateResponse struct {
	UpdateID uuid.UUID `json:"updateId"`
}

func ToRequestResponse(r *entity.ServiceRequest) RequestResponse {
	resp := RequestResponse{
		ID:          r.ID,
		ClientID:    r.ClientID,
		ServiceID:   r.ServiceID,
		RequestedBy: string(r.RequestedBy),
		Status:      string(r.Status),
		Requirement: r.Requirement,
		QuotedCost:  r.QuotedCost,
		Note:        r.Note,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if price, ok := r.Price(); ok {
		resp.QuotedPrice = price.String()
	}
	return resp
}

func ToRequestResponses(requests []*entity.ServiceRequest) []RequestResponse {
	result := make([]RequestResponse, len(requests))
	for i, r := range requests {
		result[i] = ToRequestResponse(r)
	}
	return result
}

func ToEngagementResponse(l *entity.EngagementLink) EngagementResponse {
	return EngagementResponse{
		ID:                l.ID,
		ClientID:          l.ClientID,
		ServiceID:         l.ServiceID,
		RequestID:         l.RequestID,
		Cost:              l.Cost,
		Price:             l.Price().String(),
		Note:              l.Note,
		Requirement:       l.Requirement,
		PaymentStatus:     string(l.PaymentStatus),
		FulfillmentStatus: string(l.FulfillmentStatus),
		AssignmentStatus:  string(l.AssignmentStatus),
		OwnerRole:         string(l.OwnerRole),
		PartnerID:         l.PartnerID,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func ToEngagementResponses(links []*entity.EngagementLink) []EngagementResponse {
	result := make([]EngagementResponse, len(links))
	for i, l := range links {
		result[i] = ToEngagementResponse(l)
	}
	return result
}

func ToAcceptResponse(r *engagement.AcceptResult) AcceptResponse {
	resp := AcceptResponse{
		Engagement: ToEngagementResponse(r.Link),
		Changed:    r.Changed,
	}
	if r.Request != nil {
		req := ToRequestResponse(r.Request)
		resp.Request = &req
	}
	return resp
}

func ToUpdateResponse(u *entity.ServiceUpdate, url string) UpdateResponse {
	return UpdateResponse{
		ID:           u.ID,
		EngagementID: u.EngagementID,
		ClientID:     u.ClientID,
		Description:  u.Description,
		ArtifactURL:  url,
		FolderID:     u.FolderID,
		SubFolderID:  u.SubFolderID,
		CreatedAt:    u.CreatedAt,
	}
}

func ToUpdateResponses(views []engagement.UpdateView) []UpdateResponse {
	result := make([]UpdateResponse, len(views))
	for i, v := range views {
		result[i] = ToUpdateResponse(v.Update, v.URL)
	}
	return result
}
