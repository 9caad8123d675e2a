package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
)

type ThreadRepository interface {
	// OpenOrCreate атомарно возвращает открытый чат канала или создаёт новый.
	OpenOrCreate(ctx context.Context, key entity.ChannelKey) (*entity.ChatThread, bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ChatThread, error)
	FindOpen(ctx context.Context, key entity.ChannelKey) (*entity.ChatThread, error)
	ListOpen(ctx context.Context) ([]*entity.ChatThread, error)
	ListClosedByRequest(ctx context.Context, requestID uuid.UUID) ([]*entity.ChatThread, error)
	AttachRequest(ctx context.Context, threadID, requestID uuid.UUID) error
	// Close возвращает false, если чат уже закрыт.
	Close(ctx context.Context, threadID uuid.UUID) (bool, error)
}

type MessageRepository interface {
	// Append добавляет сообщение и увеличивает счётчик непрочитанных другой стороны.
	Append(ctx context.Context, msg *entity.ChatMessage) error
	ListByThread(ctx context.Context, threadID uuid.UUID) ([]*entity.ChatMessage, error)
	MarkRead(ctx context.Context, threadID uuid.UUID, reader valueobject.ChatSide) error
}
