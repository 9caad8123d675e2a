package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
)

// TxManager выполняет fn в одной транзакции. Репозитории, получившие ctx
// из fn, работают внутри этой транзакции.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type RequestRepository interface {
	Create(ctx context.Context, req *entity.ServiceRequest) error
	Update(ctx context.Context, req *entity.ServiceRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ServiceRequest, error)
	// FindByIDForUpdate блокирует заявку до конца транзакции.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.ServiceRequest, error)
	// FindOpenByClientAndService ищет последнюю ещё не принятую заявку.
	FindOpenByClientAndService(ctx context.Context, clientID, serviceID uuid.UUID) (*entity.ServiceRequest, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.ServiceRequest, error)
}

type EngagementRepository interface {
	Create(ctx context.Context, link *entity.EngagementLink) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.EngagementLink, error)
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*entity.EngagementLink, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.EngagementLink, error)
	// MarkPaid переводит due -> paid условным обновлением; false, если статус уже paid.
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)
	// AssignPartner меняет только партнёра и статус назначения и возвращает актуальную связь.
	AssignPartner(ctx context.Context, id, partnerID uuid.UUID) (*entity.EngagementLink, error)
	// MarkFulfilled завершает услугу условным обновлением; false, если она уже завершена.
	MarkFulfilled(ctx context.Context, id uuid.UUID) (bool, error)
}

type ServiceUpdateRepository interface {
	Create(ctx context.Context, update *entity.ServiceUpdate) error
	ListByEngagement(ctx context.Context, engagementID uuid.UUID) ([]*entity.ServiceUpdate, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ServiceUpdate, error)
	// Update перезаписывает описание и ключ документа.
	Update(ctx context.Context, update *entity.ServiceUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DirectoryRepository - чтение справочника клиентов, партнёров и услуг.
type DirectoryRepository interface {
	GetClient(ctx context.Context, id uuid.UUID) (*entity.ClientProfile, error)
	GetService(ctx context.Context, id uuid.UUID) (*entity.ServiceInfo, error)
	PartnerExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type NotificationRepository interface {
	// Append сохраняет событие и атомарно увеличивает счётчик непрочитанных.
	Append(ctx context.Context, event *entity.NotificationEvent) error
	Load(ctx context.Context, owner entity.NotificationOwner) (*entity.NotificationLog, error)
	// LoadForUpdate блокирует журнал владельца до конца транзакции.
	LoadForUpdate(ctx context.Context, owner entity.NotificationOwner) (*entity.NotificationLog, error)
	Remove(ctx context.Context, owner entity.NotificationOwner, events []*entity.NotificationEvent) error
}
