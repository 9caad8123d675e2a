package conversation

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/repository"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/logger"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
	"github.com/ignatzorin/engagement-backend/internal/usecase/notification"
)

type Notifier interface {
	Notify(ctx context.Context, to notification.Recipient, kind valueobject.NotificationKind, payload entity.NotificationPayload)
}

// ChannelInput адресует канал переписки. ClientID игнорируется, если пишет сам клиент.
type ChannelInput struct {
	ClientID  uuid.UUID
	Kind      valueobject.ChannelKind
	ServiceID *uuid.UUID
}

func resolveChannel(actor entity.Actor, in ChannelInput) (entity.ChannelKey, valueobject.ChatSide, error) {
	side, ok := actor.ChatSide()
	if !ok {
		return entity.ChannelKey{}, "", apperror.ErrForbidden
	}
	clientID := in.ClientID
	if actor.Role() == valueobject.RoleClient {
		clientID = actor.ID()
	}
	key, err := entity.NewChannelKey(clientID, in.Kind, in.ServiceID)
	return key, side, err
}

func dispatchSMS(ctx context.Context, sms repository.SMSDispatcher, job entity.SMSJob) {
	if sms == nil {
		return
	}
	if err := sms.Dispatch(ctx, job); err != nil {
		logger.Component("conversation").WithFields(logrus.Fields{
			"client_id": job.ClientID,
			"error":     err.Error(),
		}).Warn("не удалось поставить SMS в очередь")
	}
}

type SendMessageUseCase struct {
	threads     *ThreadService
	directory   repository.DirectoryRepository
	notifier    Notifier
	sms         repository.SMSDispatcher
	smsTemplate string
}

func NewSendMessageUseCase(threads *ThreadService, directory repository.DirectoryRepository, notifier Notifier, sms repository.SMSDispatcher, smsTemplate string) *SendMessageUseCase {
	return &SendMessageUseCase{threads: threads, directory: directory, notifier: notifier, sms: sms, smsTemplate: smsTemplate}
}

// Execute отправляет сообщение в открытый чат канала. Внутренний канал
// открывается при первом сообщении, канал услуги должен быть уже открыт заявкой.
func (uc *SendMessageUseCase) Execute(ctx context.Context, actor entity.Actor, in ChannelInput, text string) (*entity.ChatMessage, error) {
	key, side, err := resolveChannel(actor, in)
	if err != nil {
		return nil, err
	}
	if _, err := uc.directory.GetClient(ctx, key.ClientID); err != nil {
		return nil, err
	}

	var thread *entity.ChatThread
	if key.Kind == valueobject.ChannelInternal {
		thread, err = uc.threads.OpenOrGetThread(ctx, key)
	} else {
		thread, err = uc.threads.FindOpen(ctx, key)
	}
	if err != nil {
		return nil, err
	}
	if !actor.CanViewThread(thread) {
		return nil, apperror.ErrForbidden
	}

	msg, err := uc.threads.PostMessage(ctx, thread.ID, side, text, entity.MessageOptions{})
	if err != nil {
		return nil, err
	}

	if side == valueobject.ChatSideClient {
		uc.notifier.Notify(ctx, notification.ToStaff(), valueobject.NotificationMessage, notification.StaffChatPayload(key.ClientID, key.ServiceID))
	} else {
		uc.notifier.Notify(ctx, notification.ToClient(key.ClientID), valueobject.NotificationMessage, notification.ClientChatPayload(key.ServiceID))
		dispatchSMS(ctx, uc.sms, entity.SMSJob{ClientID: key.ClientID, Template: uc.smsTemplate, Text: "You have a new message"})
	}
	return msg, nil
}

type ReadThreadUseCase struct {
	threads *ThreadService
}

func NewReadThreadUseCase(threads *ThreadService) *ReadThreadUseCase {
	return &ReadThreadUseCase{threads: threads}
}

// Execute возвращает сообщения открытого чата канала и отмечает их прочитанными
// для стороны читателя. Если открытого чата нет, возвращается пустой список.
func (uc *ReadThreadUseCase) Execute(ctx context.Context, actor entity.Actor, in ChannelInput) (*entity.ChatThread, []*entity.ChatMessage, error) {
	key, side, err := resolveChannel(actor, in)
	if err != nil {
		return nil, nil, err
	}

	thread, err := uc.threads.FindOpen(ctx, key)
	if apperror.IsNotFound(err) {
		return nil, []*entity.ChatMessage{}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if !actor.CanViewThread(thread) {
		return nil, nil, apperror.ErrForbidden
	}

	msgs, err := uc.threads.ListMessages(ctx, thread.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := uc.threads.MarkRead(ctx, thread.ID, side); err != nil {
		return nil, nil, err
	}
	thread.ResetUnread(side)
	return thread, msgs, nil
}

type ClosedThread struct {
	Thread   *entity.ChatThread
	Messages []*entity.ChatMessage
}

type ListClosedThreadsUseCase struct {
	threads  *ThreadService
	requests repository.RequestRepository
}

func NewListClosedThreadsUseCase(threads *ThreadService, requests repository.RequestRepository) *ListClosedThreadsUseCase {
	return &ListClosedThreadsUseCase{threads: threads, requests: requests}
}

// Execute возвращает историю завершённых переговоров по заявке.
func (uc *ListClosedThreadsUseCase) Execute(ctx context.Context, actor entity.Actor, requestID uuid.UUID) ([]ClosedThread, error) {
	req, err := uc.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.Role() == valueobject.RoleClient && req.ClientID != actor.ID() {
		return nil, apperror.ErrForbidden
	}

	threads, err := uc.threads.ListClosedThreads(ctx, requestID)
	if err != nil {
		return nil, err
	}

	result := make([]ClosedThread, 0, len(threads))
	for _, t := range threads {
		if !actor.CanViewThread(t) {
			continue
		}
		msgs, err := uc.threads.ListMessages(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, ClosedThread{Thread: t, Messages: msgs})
	}
	return result, nil
}

type StartInternalConversationUseCase struct {
	threads     *ThreadService
	directory   repository.DirectoryRepository
	notifier    Notifier
	sms         repository.SMSDispatcher
	smsTemplate string
}

func NewStartInternalConversationUseCase(threads *ThreadService, directory repository.DirectoryRepository, notifier Notifier, sms repository.SMSDispatcher, smsTemplate string) *StartInternalConversationUseCase {
	return &StartInternalConversationUseCase{threads: threads, directory: directory, notifier: notifier, sms: sms, smsTemplate: smsTemplate}
}

// Execute рассылает сообщение сотрудника во внутренние чаты клиентов.
// Возвращает число клиентов, которым сообщение доставлено.
func (uc *StartInternalConversationUseCase) Execute(ctx context.Context, actor entity.Actor, text string, clientIDs []uuid.UUID) (int, error) {
	if actor.Role() != valueobject.RoleStaff {
		return 0, apperror.ErrForbidden
	}
	if len(clientIDs) == 0 {
		return 0, apperror.New(apperror.ErrCodeValidation, "список клиентов пуст")
	}
	if _, err := entity.NewChatMessage(uuid.Nil, valueobject.ChatSideStaff, text, entity.MessageOptions{}); err != nil {
		return 0, err
	}

	var delivered atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, clientID := range clientIDs {
		g.Go(func() error {
			if _, err := uc.directory.GetClient(gctx, clientID); err != nil {
				return err
			}
			key, err := entity.NewChannelKey(clientID, valueobject.ChannelInternal, nil)
			if err != nil {
				return err
			}
			thread, err := uc.threads.OpenOrGetThread(gctx, key)
			if err != nil {
				return err
			}
			if _, err := uc.threads.PostMessage(gctx, thread.ID, valueobject.ChatSideStaff, text, entity.MessageOptions{}); err != nil {
				return err
			}
			delivered.Add(1)
			uc.notifier.Notify(ctx, notification.ToClient(clientID), valueobject.NotificationMessage, notification.ClientChatPayload(nil))
			dispatchSMS(ctx, uc.sms, entity.SMSJob{ClientID: clientID, Template: uc.smsTemplate, Text: "You have a new message"})
			return nil
		})
	}
	err := g.Wait()
	return int(delivered.Load()), err
}
