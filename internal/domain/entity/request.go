package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

// ServiceRequest - запрос клиента на услугу до оплаты и принятия.
type ServiceRequest struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	ServiceID   uuid.UUID
	RequestedBy valueobject.RequesterType
	Status      valueobject.RequestStatus
	Requirement string
	QuotedCost  *float64
	Note        *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewServiceRequest(clientID, serviceID uuid.UUID, requestedBy valueobject.RequesterType, requirement string) (*ServiceRequest, error) {
	requirement = strings.TrimSpace(requirement)
	if clientID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "клиент обязателен")
	}
	if serviceID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "услуга обязательна")
	}
	if requirement == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "описание требований обязательно")
	}
	if !requestedBy.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип заявителя")
	}

	now := time.Now()
	return &ServiceRequest{
		ID:          uuid.New(),
		ClientID:    clientID,
		ServiceID:   serviceID,
		RequestedBy: requestedBy,
		Status:      valueobject.RequestStatusPending,
		Requirement: requirement,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Quote выставляет цену. Повторное выставление до принятия перезаписывает цену.
func (r *ServiceRequest) Quote(price valueobject.Money, note string) error {
	if r.Status == valueobject.RequestStatusAccepted {
		return apperror.ErrAlreadyAccepted
	}
	if !r.Status.CanTransitionTo(valueobject.RequestStatusQuotationSent) {
		return apperror.New(apperror.ErrCodeConflict, "нельзя выставить цену в текущем статусе")
	}

	cost := price.Amount
	r.QuotedCost = &cost
	r.Note = &note
	r.Status = valueobject.RequestStatusQuotationSent
	r.UpdatedAt = time.Now()
	return nil
}

func (r *ServiceRequest) Accept() error {
	switch r.Status {
	case valueobject.RequestStatusAccepted:
		return apperror.ErrAlreadyAccepted
	case valueobject.RequestStatusPending:
		return apperror.ErrQuotationNotSent
	}
	r.Status = valueobject.RequestStatusAccepted
	r.UpdatedAt = time.Now()
	return nil
}

func (r *ServiceRequest) IsAccepted() bool {
	return r.Status == valueobject.RequestStatusAccepted
}

// Price возвращает выставленную цену; до выставления цены значение не определено.
func (r *ServiceRequest) Price() (valueobject.Money, bool) {
	if r.QuotedCost == nil || r.Status == valueobject.RequestStatusPending {
		return valueobject.Money{}, false
	}
	m, err := valueobject.NewMoney(*r.QuotedCost, valueobject.CurrencyINR)
	if err != nil {
		return valueobject.Money{}, false
	}
	return m, true
}

func (r *ServiceRequest) NoteText() string {
	if r.Note == nil {
		return ""
	}
	return *r.Note
}
