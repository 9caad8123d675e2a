package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

// DirectoryRepositoryAdapter читает справочник клиентов, партнёров и услуг.
// Таблицы наполняются внешней системой учёта.
type DirectoryRepositoryAdapter struct {
	db *sqlx.DB
}

func NewDirectoryRepositoryAdapter(db *sqlx.DB) *DirectoryRepositoryAdapter {
	return &DirectoryRepositoryAdapter{db: db}
}

func (r *DirectoryRepositoryAdapter) GetClient(ctx context.Context, id uuid.UUID) (*entity.ClientProfile, error) {
	var row clientRow
	query := `SELECT id, name, phone, client_type, partner_id FROM clients WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrClientNotFound
		}
		return nil, dbError(err, "не удалось получить клиента")
	}
	return &entity.ClientProfile{
		ID:        row.ID,
		Name:      row.Name,
		Phone:     row.Phone,
		Type:      valueobject.RequesterType(row.Type),
		PartnerID: row.PartnerID,
	}, nil
}

func (r *DirectoryRepositoryAdapter) GetService(ctx context.Context, id uuid.UUID) (*entity.ServiceInfo, error) {
	var svc entity.ServiceInfo
	query := `SELECT id, name FROM services WHERE id = $1`
	if err := executor(ctx, r.db).QueryRowxContext(ctx, query, id).Scan(&svc.ID, &svc.Name); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrServiceNotFound
		}
		return nil, dbError(err, "не удалось получить услугу")
	}
	return &svc, nil
}

func (r *DirectoryRepositoryAdapter) PartnerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM partners WHERE id = $1)`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &exists, query, id); err != nil {
		return false, dbError(err, "не удалось проверить партнёра")
	}
	return exists, nil
}

type clientRow struct {
	ID        uuid.UUID  `db:"id"`
	Name      string     `db:"name"`
	Phone     string     `db:"phone"`
	Type      string     `db:"client_type"`
	PartnerID *uuid.UUID `db:"partner_id"`
}
