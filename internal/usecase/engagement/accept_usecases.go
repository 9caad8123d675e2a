package engagement

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/repository"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
	"github.com/ignatzorin/engagement-backend/internal/usecase/conversation"
	"github.com/ignatzorin/engagement-backend/internal/usecase/notification"
)

// AcceptResult описывает итог принятия. Changed=false означает, что
// повторный вызов ничего не изменил и уведомления не отправлялись.
type AcceptResult struct {
	Request *entity.ServiceRequest
	Link    *entity.EngagementLink
	Changed bool
}

type AcceptEngagementUseCase struct {
	tx          repository.TxManager
	requests    repository.RequestRepository
	engagements repository.EngagementRepository
	directory   repository.DirectoryRepository
	threads     *conversation.ThreadService
	notifier    Notifier
}

func NewAcceptEngagementUseCase(tx repository.TxManager, requests repository.RequestRepository, engagements repository.EngagementRepository, directory repository.DirectoryRepository, threads *conversation.ThreadService, notifier Notifier) *AcceptEngagementUseCase {
	return &AcceptEngagementUseCase{
		tx:          tx,
		requests:    requests,
		engagements: engagements,
		directory:   directory,
		threads:     threads,
		notifier:    notifier,
	}
}

// PayLater принимает цену без оплаты: связь создаётся со статусом due.
// Повторное принятие отклоняется.
func (uc *AcceptEngagementUseCase) PayLater(ctx context.Context, actor entity.Actor, requestID uuid.UUID) (*AcceptResult, error) {
	req, err := uc.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeClient(ctx, uc.directory, actor, req.ClientID); err != nil {
		return nil, err
	}
	if actor.Role() == valueobject.RoleClient && req.ClientID != actor.ID() {
		return nil, apperror.ErrForbidden
	}

	var result *AcceptResult
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := uc.requests.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.IsAccepted() {
			return apperror.ErrAlreadyAccepted
		}
		result, err = uc.accept(ctx, req, valueobject.PaymentStatusDue)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.announce(ctx, result)
	return result, nil
}

// PaymentConfirmed принимает заявку после подтверждённой оплаты. Повторные
// подтверждения не создают новых связей: due переводится в paid, paid остаётся как есть.
func (uc *AcceptEngagementUseCase) PaymentConfirmed(ctx context.Context, requestID uuid.UUID) (*AcceptResult, error) {
	var result *AcceptResult
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := uc.requests.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.IsAccepted() {
			result, err = uc.accept(ctx, req, valueobject.PaymentStatusPaid)
			return err
		}

		link, err := uc.engagements.FindByRequestID(ctx, req.ID)
		if err != nil {
			return err
		}
		changed, err := uc.engagements.MarkPaid(ctx, link.ID)
		if err != nil {
			return err
		}
		if changed {
			link.MarkPaid()
		}
		result = &AcceptResult{Request: req, Link: link, Changed: changed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.announce(ctx, result)
	return result, nil
}

// LinkPaymentConfirmed отмечает оплату уже существующей связи.
func (uc *AcceptEngagementUseCase) LinkPaymentConfirmed(ctx context.Context, linkID uuid.UUID) (*AcceptResult, error) {
	changed, err := uc.engagements.MarkPaid(ctx, linkID)
	if err != nil {
		return nil, err
	}
	link, err := uc.engagements.FindByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	result := &AcceptResult{Link: link, Changed: changed}
	uc.announce(ctx, result)
	return result, nil
}

// accept выполняется внутри транзакции с заблокированной заявкой.
func (uc *AcceptEngagementUseCase) accept(ctx context.Context, req *entity.ServiceRequest, payment valueobject.PaymentStatus) (*AcceptResult, error) {
	if err := req.Accept(); err != nil {
		return nil, err
	}
	if err := uc.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	key, err := serviceChannel(req.ClientID, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.threads.CloseForRequest(ctx, key, req.ID); err != nil {
		return nil, err
	}

	client, err := uc.directory.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	link, err := entity.NewEngagementFromRequest(req, payment, client.PartnerID)
	if err != nil {
		return nil, err
	}
	if err := uc.engagements.Create(ctx, link); err != nil {
		return nil, err
	}
	return &AcceptResult{Request: req, Link: link, Changed: true}, nil
}

func (uc *AcceptEngagementUseCase) announce(ctx context.Context, result *AcceptResult) {
	if !result.Changed {
		return
	}
	link := result.Link
	uc.notifier.Notify(ctx, notification.ToStaff(), valueobject.NotificationMessageQuotation, notification.StaffAcceptancePayload(link))
	uc.notifier.Notify(ctx, notification.ToClient(link.ClientID), valueobject.NotificationUpdate, notification.ClientServicePayload(link.ID))
	if link.PartnerID != nil {
		uc.notifier.Notify(ctx, notification.ToPartner(*link.PartnerID), valueobject.NotificationUpdate, notification.PartnerServicePayload(link.ClientID, link.ID))
	}
}

type MarkPaidUseCase struct {
	engagements repository.EngagementRepository
	notifier    Notifier
}

func NewMarkPaidUseCase(engagements repository.EngagementRepository, notifier Notifier) *MarkPaidUseCase {
	return &MarkPaidUseCase{engagements: engagements, notifier: notifier}
}

// Execute отмечает связь оплаченной вручную; для уже оплаченной связи ничего не меняет.
func (uc *MarkPaidUseCase) Execute(ctx context.Context, linkID uuid.UUID) (*entity.EngagementLink, error) {
	changed, err := uc.engagements.MarkPaid(ctx, linkID)
	if err != nil {
		return nil, err
	}
	link, err := uc.engagements.FindByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if changed {
		uc.notifier.Notify(ctx, notification.ToClient(link.ClientID), valueobject.NotificationUpdate, notification.ClientServicePayload(link.ID))
	}
	return link, nil
}
