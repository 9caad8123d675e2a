package engagement

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/repository"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/logger"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
	"github.com/ignatzorin/engagement-backend/internal/usecase/notification"
)

// Artifact - загруженный документ к обновлению услуги.
type Artifact struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type PostUpdateInput struct {
	EngagementID uuid.UUID
	Description  string
	FolderID     *uuid.UUID
	SubFolderID  *uuid.UUID
	Artifact     Artifact
}

type PostServiceUpdateUseCase struct {
	engagements repository.EngagementRepository
	updates     repository.ServiceUpdateRepository
	storage     repository.ObjectStorage
	notifier    Notifier
}

func NewPostServiceUpdateUseCase(engagements repository.EngagementRepository, updates repository.ServiceUpdateRepository, storage repository.ObjectStorage, notifier Notifier) *PostServiceUpdateUseCase {
	return &PostServiceUpdateUseCase{engagements: engagements, updates: updates, storage: storage, notifier: notifier}
}

// Execute сохраняет документ в хранилище, публикует обновление и
// уведомляет клиента и закреплённого партнёра.
func (uc *PostServiceUpdateUseCase) Execute(ctx context.Context, in PostUpdateInput) (*entity.ServiceUpdate, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "описание обновления обязательно")
	}
	if in.Artifact.Body == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "документ обязателен")
	}

	link, err := uc.engagements.FindByID(ctx, in.EngagementID)
	if err != nil {
		return nil, err
	}

	stored, err := storeArtifact(ctx, uc.storage, link, in.Artifact)
	if err != nil {
		return nil, err
	}

	update, err := entity.NewServiceUpdate(link, in.Description, stored, in.FolderID, in.SubFolderID)
	if err != nil {
		return nil, err
	}
	if err := uc.updates.Create(ctx, update); err != nil {
		return nil, err
	}

	notifyUpdate(ctx, uc.notifier, link)
	return update, nil
}

func storeArtifact(ctx context.Context, storage repository.ObjectStorage, link *entity.EngagementLink, a Artifact) (string, error) {
	key := "updates/" + link.ClientID.String() + "/" + link.ID.String() + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(a.FileName))
	return storage.Store(ctx, key, a.Body, a.Size, a.ContentType)
}

// discardArtifact удаляет документ, на который больше нет ссылок. Ошибка
// только логируется: запись об обновлении уже изменена.
func discardArtifact(ctx context.Context, storage repository.ObjectStorage, key string) {
	if key == "" {
		return
	}
	if err := storage.Remove(ctx, key); err != nil {
		logger.Component("engagement").WithFields(logrus.Fields{
			"artifact_key": key,
			"error":        err.Error(),
		}).Warn("не удалось удалить документ")
	}
}

func notifyUpdate(ctx context.Context, notifier Notifier, link *entity.EngagementLink) {
	notifier.Notify(ctx, notification.ToClient(link.ClientID), valueobject.NotificationUpdate, notification.ClientServicePayload(link.ID))
	if link.PartnerID != nil {
		notifier.Notify(ctx, notification.ToPartner(*link.PartnerID), valueobject.NotificationUpdate, notification.PartnerServicePayload(link.ClientID, link.ID))
	}
}

type EditUpdateInput struct {
	EngagementID uuid.UUID
	UpdateID     uuid.UUID
	Description  string
	// Artifact равен nil, если документ не меняется.
	Artifact *Artifact
}

type EditServiceUpdateUseCase struct {
	engagements repository.EngagementRepository
	updates     repository.ServiceUpdateRepository
	storage     repository.ObjectStorage
	notifier    Notifier
}

func NewEditServiceUpdateUseCase(engagements repository.EngagementRepository, updates repository.ServiceUpdateRepository, storage repository.ObjectStorage, notifier Notifier) *EditServiceUpdateUseCase {
	return &EditServiceUpdateUseCase{engagements: engagements, updates: updates, storage: storage, notifier: notifier}
}

// Execute заменяет описание обновления и, если загружен новый документ,
// сам документ. Прежний документ удаляется из хранилища.
func (uc *EditServiceUpdateUseCase) Execute(ctx context.Context, in EditUpdateInput) (*entity.ServiceUpdate, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "описание обновления обязательно")
	}
	update, err := findUpdate(ctx, uc.updates, in.EngagementID, in.UpdateID)
	if err != nil {
		return nil, err
	}
	link, err := uc.engagements.FindByID(ctx, update.EngagementID)
	if err != nil {
		return nil, err
	}

	var stored string
	if in.Artifact != nil && in.Artifact.Body != nil {
		if stored, err = storeArtifact(ctx, uc.storage, link, *in.Artifact); err != nil {
			return nil, err
		}
	}
	replaced, err := update.Revise(in.Description, stored)
	if err != nil {
		discardArtifact(ctx, uc.storage, stored)
		return nil, err
	}
	if err := uc.updates.Update(ctx, update); err != nil {
		discardArtifact(ctx, uc.storage, stored)
		return nil, err
	}
	discardArtifact(ctx, uc.storage, replaced)

	notifyUpdate(ctx, uc.notifier, link)
	return update, nil
}

type DeleteServiceUpdateUseCase struct {
	updates repository.ServiceUpdateRepository
	storage repository.ObjectStorage
}

func NewDeleteServiceUpdateUseCase(updates repository.ServiceUpdateRepository, storage repository.ObjectStorage) *DeleteServiceUpdateUseCase {
	return &DeleteServiceUpdateUseCase{updates: updates, storage: storage}
}

func (uc *DeleteServiceUpdateUseCase) Execute(ctx context.Context, engagementID, updateID uuid.UUID) error {
	update, err := findUpdate(ctx, uc.updates, engagementID, updateID)
	if err != nil {
		return err
	}
	if err := uc.updates.Delete(ctx, update.ID); err != nil {
		return err
	}
	discardArtifact(ctx, uc.storage, update.ArtifactKey)
	return nil
}

// findUpdate не раскрывает обновления чужой услуги.
func findUpdate(ctx context.Context, updates repository.ServiceUpdateRepository, engagementID, updateID uuid.UUID) (*entity.ServiceUpdate, error) {
	update, err := updates.FindByID(ctx, updateID)
	if err != nil {
		return nil, err
	}
	if update.EngagementID != engagementID {
		return nil, apperror.ErrUpdateNotFound
	}
	return update, nil
}

// UpdateView - обновление со ссылкой на скачивание документа.
type UpdateView struct {
	Update *entity.ServiceUpdate
	URL    string
}

type ListServiceUpdatesUseCase struct {
	engagements repository.EngagementRepository
	updates     repository.ServiceUpdateRepository
	directory   repository.DirectoryRepository
	storage     repository.ObjectStorage
}

func NewListServiceUpdatesUseCase(engagements repository.EngagementRepository, updates repository.ServiceUpdateRepository, directory repository.DirectoryRepository, storage repository.ObjectStorage) *ListServiceUpdatesUseCase {
	return &ListServiceUpdatesUseCase{engagements: engagements, updates: updates, directory: directory, storage: storage}
}

func (uc *ListServiceUpdatesUseCase) Execute(ctx context.Context, actor entity.Actor, engagementID uuid.UUID) ([]UpdateView, error) {
	link, err := uc.engagements.FindByID(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if !uc.canView(ctx, actor, link) {
		return nil, apperror.ErrForbidden
	}

	updates, err := uc.updates.ListByEngagement(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	views := make([]UpdateView, 0, len(updates))
	for _, u := range updates {
		url, err := uc.storage.Presign(ctx, u.ArtifactKey)
		if err != nil {
			logger.Component("engagement").WithFields(logrus.Fields{
				"update_id": u.ID,
				"error":     err.Error(),
			}).Warn("не удалось получить ссылку на документ")
		}
		views = append(views, UpdateView{Update: u, URL: url})
	}
	return views, nil
}

func (uc *ListServiceUpdatesUseCase) canView(ctx context.Context, actor entity.Actor, link *entity.EngagementLink) bool {
	if link.PartnerID != nil && actor.Role() == valueobject.RolePartner && *link.PartnerID == actor.ID() {
		return true
	}
	client, err := uc.directory.GetClient(ctx, link.ClientID)
	if err != nil {
		return false
	}
	return actor.CanActFor(client)
}

type AssignPartnerUseCase struct {
	engagements repository.EngagementRepository
	directory   repository.DirectoryRepository
	notifier    Notifier
}

func NewAssignPartnerUseCase(engagements repository.EngagementRepository, directory repository.DirectoryRepository, notifier Notifier) *AssignPartnerUseCase {
	return &AssignPartnerUseCase{engagements: engagements, directory: directory, notifier: notifier}
}

func (uc *AssignPartnerUseCase) Execute(ctx context.Context, engagementID, partnerID uuid.UUID) (*entity.EngagementLink, error) {
	if partnerID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "партнёр обязателен")
	}
	exists, err := uc.directory.PartnerExists(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.ErrPartnerNotFound
	}

	// обновляются только поля назначения: параллельное подтверждение оплаты не затирается
	link, err := uc.engagements.AssignPartner(ctx, engagementID, partnerID)
	if err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, notification.ToPartner(partnerID), valueobject.NotificationUpdate, notification.PartnerServicePayload(link.ClientID, link.ID))
	return link, nil
}

type MarkFulfilledUseCase struct {
	engagements repository.EngagementRepository
	notifier    Notifier
}

func NewMarkFulfilledUseCase(engagements repository.EngagementRepository, notifier Notifier) *MarkFulfilledUseCase {
	return &MarkFulfilledUseCase{engagements: engagements, notifier: notifier}
}

// Execute завершает услугу; повторный вызов возвращает связь без изменений.
func (uc *MarkFulfilledUseCase) Execute(ctx context.Context, engagementID uuid.UUID) (*entity.EngagementLink, error) {
	changed, err := uc.engagements.MarkFulfilled(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	link, err := uc.engagements.FindByID(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return link, nil
	}
	uc.notifier.Notify(ctx, notification.ToClient(link.ClientID), valueobject.NotificationUpdate, notification.ClientServicePayload(link.ID))
	return link, nil
}

type PurchaseInput struct {
	ClientID      uuid.UUID
	ServiceID     uuid.UUID
	Cost          float64
	Note          string
	Requirement   string
	PaymentStatus valueobject.PaymentStatus
}

type PurchaseForClientUseCase struct {
	engagements repository.EngagementRepository
	directory   repository.DirectoryRepository
	notifier    Notifier
}

func NewPurchaseForClientUseCase(engagements repository.EngagementRepository, directory repository.DirectoryRepository, notifier Notifier) *PurchaseForClientUseCase {
	return &PurchaseForClientUseCase{engagements: engagements, directory: directory, notifier: notifier}
}

// Execute оформляет услугу клиенту напрямую, минуя заявку и переговоры.
func (uc *PurchaseForClientUseCase) Execute(ctx context.Context, in PurchaseInput) (*entity.EngagementLink, error) {
	client, err := uc.directory.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.directory.GetService(ctx, in.ServiceID); err != nil {
		return nil, err
	}
	if in.PaymentStatus == "" {
		in.PaymentStatus = valueobject.PaymentStatusDue
	}

	link, err := entity.NewDirectEngagement(client.ID, in.ServiceID, in.Cost, in.Note, in.Requirement, in.PaymentStatus, client.Type, client.PartnerID)
	if err != nil {
		return nil, err
	}
	if err := uc.engagements.Create(ctx, link); err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, notification.ToClient(client.ID), valueobject.NotificationUpdate, notification.ClientServicePayload(link.ID))
	return link, nil
}

type ListEngagementsUseCase struct {
	engagements repository.EngagementRepository
	directory   repository.DirectoryRepository
}

func NewListEngagementsUseCase(engagements repository.EngagementRepository, directory repository.DirectoryRepository) *ListEngagementsUseCase {
	return &ListEngagementsUseCase{engagements: engagements, directory: directory}
}

func (uc *ListEngagementsUseCase) Execute(ctx context.Context, actor entity.Actor, clientID uuid.UUID) ([]*entity.EngagementLink, error) {
	client, err := authorizeClient(ctx, uc.directory, actor, clientID)
	if err != nil {
		return nil, err
	}
	return uc.engagements.ListByClient(ctx, client.ID)
}

// FindEngagementUseCase возвращает одну связь, если актор вправе её видеть.
type FindEngagementUseCase struct {
	engagements repository.EngagementRepository
	directory   repository.DirectoryRepository
}

func NewFindEngagementUseCase(engagements repository.EngagementRepository, directory repository.DirectoryRepository) *FindEngagementUseCase {
	return &FindEngagementUseCase{engagements: engagements, directory: directory}
}

func (uc *FindEngagementUseCase) Execute(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.EngagementLink, error) {
	link, err := uc.engagements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeClient(ctx, uc.directory, actor, link.ClientID); err != nil {
		return nil, err
	}
	if actor.Role() == valueobject.RoleClient && link.ClientID != actor.ID() {
		return nil, apperror.ErrForbidden
	}
	return link, nil
}
