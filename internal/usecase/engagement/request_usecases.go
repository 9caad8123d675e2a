package engagement

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/repository"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/logger"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
	"github.com/ignatzorin/engagement-backend/internal/usecase/conversation"
	"github.com/ignatzorin/engagement-backend/internal/usecase/notification"
)

type Notifier interface {
	Notify(ctx context.Context, to notification.Recipient, kind valueobject.NotificationKind, payload entity.NotificationPayload)
}

// authorizeClient находит клиента, от имени которого действует актор.
func authorizeClient(ctx context.Context, directory repository.DirectoryRepository, actor entity.Actor, clientID uuid.UUID) (*entity.ClientProfile, error) {
	if actor.Role() == valueobject.RoleClient {
		clientID = actor.ID()
	}
	client, err := directory.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !actor.CanActFor(client) {
		return nil, apperror.ErrForbidden
	}
	return client, nil
}

func serviceChannel(clientID, serviceID uuid.UUID) (entity.ChannelKey, error) {
	return entity.NewChannelKey(clientID, valueobject.ChannelNonInternal, &serviceID)
}

type CreateRequestInput struct {
	ClientID    uuid.UUID
	ServiceID   uuid.UUID
	Requirement string
}

type CreateRequestUseCase struct {
	tx        repository.TxManager
	requests  repository.RequestRepository
	directory repository.DirectoryRepository
	threads   *conversation.ThreadService
	notifier  Notifier
}

func NewCreateRequestUseCase(tx repository.TxManager, requests repository.RequestRepository, directory repository.DirectoryRepository, threads *conversation.ThreadService, notifier Notifier) *CreateRequestUseCase {
	return &CreateRequestUseCase{tx: tx, requests: requests, directory: directory, threads: threads, notifier: notifier}
}

// Execute создаёт заявку и закрепляет её за чатом услуги, куда первым
// сообщением попадают требования клиента.
func (uc *CreateRequestUseCase) Execute(ctx context.Context, actor entity.Actor, in CreateRequestInput) (*entity.ServiceRequest, error) {
	client, err := authorizeClient(ctx, uc.directory, actor, in.ClientID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.directory.GetService(ctx, in.ServiceID); err != nil {
		return nil, err
	}

	req, err := entity.NewServiceRequest(client.ID, in.ServiceID, actor.RequesterType(client), in.Requirement)
	if err != nil {
		return nil, err
	}
	key, err := serviceChannel(client.ID, in.ServiceID)
	if err != nil {
		return nil, err
	}

	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		// чат услуги ведёт одну заявку, пока её не примут
		if _, err := uc.requests.FindOpenByClientAndService(ctx, client.ID, in.ServiceID); err == nil {
			return apperror.ErrRequestPending
		} else if !apperror.IsNotFound(err) {
			return err
		}
		if err := uc.requests.Create(ctx, req); err != nil {
			return err
		}
		thread, err := uc.threads.EnsureThread(ctx, key)
		if err != nil {
			return err
		}
		if err := uc.threads.AttachRequest(ctx, thread.ID, req.ID); err != nil {
			return err
		}
		_, err = uc.threads.PostMessage(ctx, thread.ID, valueobject.ChatSideClient, "Requirements: "+req.Requirement, entity.MessageOptions{Pinned: true})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, notification.ToStaff(), valueobject.NotificationMessage, notification.StaffChatPayload(client.ID, &in.ServiceID))
	return req, nil
}

type QuoteInput struct {
	RequestID *uuid.UUID
	ClientID  uuid.UUID
	ServiceID uuid.UUID
	Price     float64
	Note      string
}

type QuotePriceUseCase struct {
	tx          repository.TxManager
	requests    repository.RequestRepository
	threads     *conversation.ThreadService
	notifier    Notifier
	sms         repository.SMSDispatcher
	smsTemplate string
}

func NewQuotePriceUseCase(tx repository.TxManager, requests repository.RequestRepository, threads *conversation.ThreadService, notifier Notifier, sms repository.SMSDispatcher, smsTemplate string) *QuotePriceUseCase {
	return &QuotePriceUseCase{tx: tx, requests: requests, threads: threads, notifier: notifier, sms: sms, smsTemplate: smsTemplate}
}

// Execute выставляет цену по заявке. Для заявок самих клиентов цена
// дублируется в чат услуги сообщением с кнопкой принятия.
func (uc *QuotePriceUseCase) Execute(ctx context.Context, in QuoteInput) (*entity.ServiceRequest, error) {
	price, err := valueobject.NewPrice(in.Price)
	if err != nil {
		return nil, err
	}

	var req *entity.ServiceRequest
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		requestID, err := uc.resolveRequestID(ctx, in)
		if err != nil {
			return err
		}
		req, err = uc.requests.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if err := req.Quote(price, in.Note); err != nil {
			return err
		}
		if err := uc.requests.Update(ctx, req); err != nil {
			return err
		}

		if !req.RequestedBy.QuotedInChat() {
			return nil
		}
		key, err := serviceChannel(req.ClientID, req.ServiceID)
		if err != nil {
			return err
		}
		thread, err := uc.threads.FindOpen(ctx, key)
		if err != nil {
			return err
		}
		text := "Please pay " + price.String() + " to start service"
		_, err = uc.threads.PostMessage(ctx, thread.ID, valueobject.ChatSideStaff, text, entity.MessageOptions{ActionFlag: valueobject.ActionAcceptButton})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, notification.ToClient(req.ClientID), valueobject.NotificationMessageQuotation, notification.ClientChatPayload(&req.ServiceID))
	if req.RequestedBy == valueobject.RequesterPartner {
		uc.notifier.Notify(ctx, notification.ToPartnerOfClient(req.ClientID), valueobject.NotificationMessageQuotation, notification.ClientChatPayload(&req.ServiceID))
	}
	if uc.sms != nil {
		job := entity.SMSJob{ClientID: req.ClientID, Template: uc.smsTemplate, Text: "Quotation for your service: " + price.String()}
		if err := uc.sms.Dispatch(ctx, job); err != nil {
			logger.Component("engagement").WithFields(logrus.Fields{
				"request_id": req.ID,
				"error":      err.Error(),
			}).Warn("не удалось поставить SMS о цене в очередь")
		}
	}
	return req, nil
}

func (uc *QuotePriceUseCase) resolveRequestID(ctx context.Context, in QuoteInput) (uuid.UUID, error) {
	if in.RequestID != nil {
		return *in.RequestID, nil
	}
	if in.ClientID == uuid.Nil || in.ServiceID == uuid.Nil {
		return uuid.Nil, apperror.New(apperror.ErrCodeValidation, "требуется requestId либо clientId и serviceId")
	}
	req, err := uc.requests.FindOpenByClientAndService(ctx, in.ClientID, in.ServiceID)
	if err != nil {
		return uuid.Nil, err
	}
	return req.ID, nil
}

type ListRequestsUseCase struct {
	requests  repository.RequestRepository
	directory repository.DirectoryRepository
}

func NewListRequestsUseCase(requests repository.RequestRepository, directory repository.DirectoryRepository) *ListRequestsUseCase {
	return &ListRequestsUseCase{requests: requests, directory: directory}
}

func (uc *ListRequestsUseCase) Execute(ctx context.Context, actor entity.Actor, clientID uuid.UUID) ([]*entity.ServiceRequest, error) {
	client, err := authorizeClient(ctx, uc.directory, actor, clientID)
	if err != nil {
		return nil, err
	}
	return uc.requests.ListByClient(ctx, client.ID)
}
