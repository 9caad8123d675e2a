package entity

import (
	"github.com/google/uuid"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

// ClientProfile - сведения о клиенте из внешнего справочника.
type ClientProfile struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Type      valueobject.RequesterType
	PartnerID *uuid.UUID
}

type ServiceInfo struct {
	ID   uuid.UUID
	Name string
}

// Actor - участник процесса: клиент, партнёр или сотрудник.
type Actor interface {
	ID() uuid.UUID
	Role() valueobject.Role
	NotificationOwner() NotificationOwner
	// ChatSide возвращает сторону переписки; false, если актор в чатах не участвует.
	ChatSide() (valueobject.ChatSide, bool)
	CanViewThread(t *ChatThread) bool
	CanActFor(client *ClientProfile) bool
	// RequesterType - тип заявителя для заявок, созданных этим актором.
	RequesterType(client *ClientProfile) valueobject.RequesterType
}

func NewActor(id uuid.UUID, role valueobject.Role) (Actor, error) {
	if id == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	switch role {
	case valueobject.RoleClient:
		return Client{id: id}, nil
	case valueobject.RolePartner:
		return Partner{id: id}, nil
	case valueobject.RoleStaff:
		return Staff{id: id}, nil
	}
	return nil, apperror.ErrForbidden
}

type Client struct{ id uuid.UUID }

func NewClientActor(id uuid.UUID) Client { return Client{id: id} }

func (c Client) ID() uuid.UUID                        { return c.id }
func (c Client) Role() valueobject.Role               { return valueobject.RoleClient }
func (c Client) NotificationOwner() NotificationOwner { return ClientOwner(c.id) }

func (c Client) ChatSide() (valueobject.ChatSide, bool) {
	return valueobject.ChatSideClient, true
}

func (c Client) CanViewThread(t *ChatThread) bool {
	return t != nil && t.ClientID == c.id
}

func (c Client) CanActFor(client *ClientProfile) bool {
	return client != nil && client.ID == c.id
}

func (c Client) RequesterType(client *ClientProfile) valueobject.RequesterType {
	if client != nil && client.Type.IsValid() {
		return client.Type
	}
	return valueobject.RequesterSelf
}

type Partner struct{ id uuid.UUID }

func NewPartnerActor(id uuid.UUID) Partner { return Partner{id: id} }

func (p Partner) ID() uuid.UUID                        { return p.id }
func (p Partner) Role() valueobject.Role               { return valueobject.RolePartner }
func (p Partner) NotificationOwner() NotificationOwner { return PartnerOwner(p.id) }

func (p Partner) ChatSide() (valueobject.ChatSide, bool) {
	return "", false
}

func (p Partner) CanViewThread(*ChatThread) bool {
	return false
}

// CanActFor разрешает партнёру действовать только за закреплённых за ним клиентов.
func (p Partner) CanActFor(client *ClientProfile) bool {
	return client != nil && client.PartnerID != nil && *client.PartnerID == p.id
}

func (p Partner) RequesterType(*ClientProfile) valueobject.RequesterType {
	return valueobject.RequesterPartner
}

type Staff struct{ id uuid.UUID }

func NewStaffActor(id uuid.UUID) Staff { return Staff{id: id} }

func (s Staff) ID() uuid.UUID                        { return s.id }
func (s Staff) Role() valueobject.Role               { return valueobject.RoleStaff }
func (s Staff) NotificationOwner() NotificationOwner { return StaffOwner }

func (s Staff) ChatSide() (valueobject.ChatSide, bool) {
	return valueobject.ChatSideStaff, true
}

func (s Staff) CanViewThread(t *ChatThread) bool     { return t != nil }
func (s Staff) CanActFor(client *ClientProfile) bool { return client != nil }

func (s Staff) RequesterType(*ClientProfile) valueobject.RequesterType {
	return valueobject.RequesterAdmin
}
