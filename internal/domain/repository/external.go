package repository

import (
	"context"
	"io"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
)

type PaymentGateway interface {
	Initiate(ctx context.Context, intent entity.PaymentIntent) (string, error)
	Status(ctx context.Context, transactionID string) (*entity.PaymentStatusReport, error)
}

type ObjectStorage interface {
	Store(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Presign(ctx context.Context, key string) (string, error)
	// Remove удаляет объект; отсутствующий объект не считается ошибкой.
	Remove(ctx context.Context, key string) error
}

// SMSDispatcher ставит SMS в очередь; доставка не подтверждается.
type SMSDispatcher interface {
	Dispatch(ctx context.Context, job entity.SMSJob) error
}
