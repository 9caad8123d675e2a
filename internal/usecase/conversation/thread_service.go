package conversation

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/repository"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

// ThreadService - хранилище чатов: не более одного открытого чата на канал,
// счётчики непрочитанных меняются атомарно на стороне хранилища.
type ThreadService struct {
	threads  repository.ThreadRepository
	messages repository.MessageRepository
	opening  singleflight.Group
}

func NewThreadService(threads repository.ThreadRepository, messages repository.MessageRepository) *ThreadService {
	return &ThreadService{threads: threads, messages: messages}
}

// OpenOrGetThread возвращает открытый чат канала или создаёт его.
// Одновременные вызовы с одним ключом внутри процесса объединяются,
// между процессами единственность гарантирует хранилище.
func (s *ThreadService) OpenOrGetThread(ctx context.Context, key entity.ChannelKey) (*entity.ChatThread, error) {
	// отмена первого вызова не должна обрывать присоединившихся
	detached := context.WithoutCancel(ctx)
	v, err, _ := s.opening.Do(key.String(), func() (interface{}, error) {
		thread, _, err := s.threads.OpenOrCreate(detached, key)
		return thread, err
	})
	if err != nil {
		return nil, err
	}
	thread := *v.(*entity.ChatThread)
	return &thread, nil
}

// EnsureThread открывает чат канала без объединения вызовов. Используется
// внутри транзакции, где результат нельзя разделять с другими вызывающими.
func (s *ThreadService) EnsureThread(ctx context.Context, key entity.ChannelKey) (*entity.ChatThread, error) {
	thread, _, err := s.threads.OpenOrCreate(ctx, key)
	return thread, err
}

func (s *ThreadService) FindOpen(ctx context.Context, key entity.ChannelKey) (*entity.ChatThread, error) {
	return s.threads.FindOpen(ctx, key)
}

func (s *ThreadService) FindByID(ctx context.Context, id uuid.UUID) (*entity.ChatThread, error) {
	return s.threads.FindByID(ctx, id)
}

func (s *ThreadService) AttachRequest(ctx context.Context, threadID, requestID uuid.UUID) error {
	return s.threads.AttachRequest(ctx, threadID, requestID)
}

// PostMessage добавляет сообщение и увеличивает счётчик непрочитанных у другой стороны.
func (s *ThreadService) PostMessage(ctx context.Context, threadID uuid.UUID, sender valueobject.ChatSide, text string, opts entity.MessageOptions) (*entity.ChatMessage, error) {
	msg, err := entity.NewChatMessage(threadID, sender, text, opts)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages возвращает сообщения в порядке отправки независимо от порядка хранения.
func (s *ThreadService) ListMessages(ctx context.Context, threadID uuid.UUID) ([]*entity.ChatMessage, error) {
	msgs, err := s.messages.ListByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	entity.SortMessages(msgs)
	return msgs, nil
}

func (s *ThreadService) MarkRead(ctx context.Context, threadID uuid.UUID, reader valueobject.ChatSide) error {
	return s.messages.MarkRead(ctx, threadID, reader)
}

// CloseThread закрывает чат; повторное закрытие ничего не меняет.
func (s *ThreadService) CloseThread(ctx context.Context, threadID uuid.UUID) error {
	_, err := s.threads.Close(ctx, threadID)
	return err
}

// CloseForRequest закрывает открытый чат канала, только если он ведёт заявку requestID.
// Возвращает false, если закрывать нечего.
func (s *ThreadService) CloseForRequest(ctx context.Context, key entity.ChannelKey, requestID uuid.UUID) (bool, error) {
	thread, err := s.threads.FindOpen(ctx, key)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if thread.RequestID == nil || *thread.RequestID != requestID {
		return false, nil
	}
	return s.threads.Close(ctx, thread.ID)
}

func (s *ThreadService) ListOpenThreads(ctx context.Context) ([]*entity.ChatThread, error) {
	return s.threads.ListOpen(ctx)
}

func (s *ThreadService) ListClosedThreads(ctx context.Context, requestID uuid.UUID) ([]*entity.ChatThread, error) {
	return s.threads.ListClosedByRequest(ctx, requestID)
}
