package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

// EngagementLink - оплаченная или отложенная к оплате услуга клиента.
type EngagementLink struct {
	ID                uuid.UUID
	ClientID          uuid.UUID
	ServiceID         uuid.UUID
	RequestID         *uuid.UUID
	Cost              float64
	Note              string
	Requirement       string
	PaymentStatus     valueobject.PaymentStatus
	FulfillmentStatus valueobject.FulfillmentStatus
	AssignmentStatus  valueobject.AssignmentStatus
	OwnerRole         valueobject.RequesterType
	PartnerID         *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewEngagementFromRequest создаёт связь для уже принятой заявки.
func NewEngagementFromRequest(req *ServiceRequest, payment valueobject.PaymentStatus, partnerID *uuid.UUID) (*EngagementLink, error) {
	if !req.IsAccepted() {
		return nil, apperror.New(apperror.ErrCodeConflict, "заявка ещё не принята")
	}
	price, ok := req.Price()
	if !ok {
		return nil, apperror.ErrQuotationNotSent
	}

	requestID := req.ID
	link := newEngagement(req.ClientID, req.ServiceID, price.Amount, req.NoteText(), req.Requirement, payment, req.RequestedBy, partnerID)
	link.RequestID = &requestID
	return link, nil
}

// NewDirectEngagement - покупка услуги сотрудником за клиента, без заявки.
func NewDirectEngagement(clientID, serviceID uuid.UUID, cost float64, note, requirement string, payment valueobject.PaymentStatus, owner valueobject.RequesterType, partnerID *uuid.UUID) (*EngagementLink, error) {
	if clientID == uuid.Nil || serviceID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "клиент и услуга обязательны")
	}
	if cost < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "стоимость не может быть отрицательной")
	}
	if !owner.IsValid() {
		owner = valueobject.RequesterAdmin
	}
	return newEngagement(clientID, serviceID, cost, note, requirement, payment, owner, partnerID), nil
}

func newEngagement(clientID, serviceID uuid.UUID, cost float64, note, requirement string, payment valueobject.PaymentStatus, owner valueobject.RequesterType, partnerID *uuid.UUID) *EngagementLink {
	now := time.Now()
	link := &EngagementLink{
		ID:                uuid.New(),
		ClientID:          clientID,
		ServiceID:         serviceID,
		Cost:              cost,
		Note:              note,
		Requirement:       requirement,
		PaymentStatus:     payment,
		FulfillmentStatus: valueobject.FulfillmentPending,
		AssignmentStatus:  valueobject.AssignmentUnassigned,
		OwnerRole:         owner,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	// партнёр закрепляется только за услугами, заказанными через партнёра
	if owner == valueobject.RequesterPartner && partnerID != nil {
		id := *partnerID
		link.PartnerID = &id
	}
	return link
}

// MarkPaid возвращает false, если услуга уже была оплачена.
func (l *EngagementLink) MarkPaid() bool {
	if l.PaymentStatus == valueobject.PaymentStatusPaid {
		return false
	}
	l.PaymentStatus = valueobject.PaymentStatusPaid
	l.UpdatedAt = time.Now()
	return true
}

func (l *EngagementLink) AssignPartner(partnerID uuid.UUID) error {
	if partnerID == uuid.Nil {
		return apperror.New(apperror.ErrCodeValidation, "партнёр обязателен")
	}
	l.PartnerID = &partnerID
	l.AssignmentStatus = valueobject.AssignmentAssigned
	l.UpdatedAt = time.Now()
	return nil
}

// MarkFulfilled возвращает false, если услуга уже завершена.
func (l *EngagementLink) MarkFulfilled() bool {
	if l.FulfillmentStatus == valueobject.FulfillmentCompleted {
		return false
	}
	l.FulfillmentStatus = valueobject.FulfillmentCompleted
	if l.AssignmentStatus == valueobject.AssignmentAssigned {
		l.AssignmentStatus = valueobject.AssignmentCompleted
	}
	l.UpdatedAt = time.Now()
	return true
}

func (l *EngagementLink) IsPaid() bool {
	return l.PaymentStatus == valueobject.PaymentStatusPaid
}

// Price - стоимость услуги в рупиях.
func (l *EngagementLink) Price() valueobject.Money {
	return valueobject.Money{Amount: l.Cost, Currency: valueobject.CurrencyINR}
}
