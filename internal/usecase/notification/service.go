package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/repository"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/logger"
)

// Publisher доставляет сохранённые события подключённым клиентам (best effort).
type Publisher interface {
	Publish(owner entity.NotificationOwner, event *entity.NotificationEvent)
}

// Recipient описывает получателя уведомления.
type Recipient struct {
	owner         entity.NotificationOwner
	partnerOfUser *uuid.UUID
}

func ToClient(clientID uuid.UUID) Recipient {
	return Recipient{owner: entity.ClientOwner(clientID)}
}

func ToPartner(partnerID uuid.UUID) Recipient {
	return Recipient{owner: entity.PartnerOwner(partnerID)}
}

func ToStaff() Recipient {
	return Recipient{owner: entity.StaffOwner}
}

// ToPartnerOfClient адресует партнёра, закреплённого за клиентом.
// Если партнёра нет, уведомление молча пропускается.
func ToPartnerOfClient(clientID uuid.UUID) Recipient {
	return Recipient{partnerOfUser: &clientID}
}

type Service struct {
	repo      repository.NotificationRepository
	tx        repository.TxManager
	directory repository.DirectoryRepository
	publisher Publisher
}

func NewService(repo repository.NotificationRepository, tx repository.TxManager, directory repository.DirectoryRepository) *Service {
	return &Service{repo: repo, tx: tx, directory: directory}
}

func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

func (s *Service) resolve(ctx context.Context, to Recipient) (entity.NotificationOwner, bool, error) {
	if to.partnerOfUser == nil {
		return to.owner, to.owner != "", nil
	}
	client, err := s.directory.GetClient(ctx, *to.partnerOfUser)
	if err != nil {
		return "", false, err
	}
	if client.PartnerID == nil {
		return "", false, nil
	}
	return entity.PartnerOwner(*client.PartnerID), true, nil
}

// Append добавляет событие в журнал получателя. Возвращает nil без ошибки,
// если получатель не определён (клиент без партнёра).
func (s *Service) Append(ctx context.Context, to Recipient, kind valueobject.NotificationKind, payload entity.NotificationPayload) (*entity.NotificationEvent, error) {
	owner, ok, err := s.resolve(ctx, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	event, err := entity.NewNotificationEvent(owner, kind, payload)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("notification service: append %w", err)
	}

	if s.publisher != nil {
		s.publisher.Publish(owner, event)
	}
	return event, nil
}

// Notify - Append для побочных эффектов: ошибка логируется и не возвращается.
func (s *Service) Notify(ctx context.Context, to Recipient, kind valueobject.NotificationKind, payload entity.NotificationPayload) {
	if _, err := s.Append(ctx, to, kind, payload); err != nil {
		logger.Component("notification").WithFields(logrus.Fields{
			"kind":  kind,
			"error": err.Error(),
		}).Error("не удалось сохранить уведомление")
	}
}

// MarkRead подтверждает событие с индексом index и удаляет все его структурные дубликаты.
func (s *Service) MarkRead(ctx context.Context, owner entity.NotificationOwner, index int) (*entity.NotificationLog, error) {
	var result *entity.NotificationLog
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		log, err := s.repo.LoadForUpdate(ctx, owner)
		if err != nil {
			return err
		}
		removed, err := log.Acknowledge(index)
		if err != nil {
			return err
		}
		if err := s.repo.Remove(ctx, owner, removed); err != nil {
			return err
		}
		result = log
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) List(ctx context.Context, owner entity.NotificationOwner) (*entity.NotificationLog, error) {
	return s.repo.Load(ctx, owner)
}
