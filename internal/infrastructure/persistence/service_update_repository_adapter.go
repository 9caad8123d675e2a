package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

type ServiceUpdateRepositoryAdapter struct {
	db *sqlx.DB
}

func NewServiceUpdateRepositoryAdapter(db *sqlx.DB) *ServiceUpdateRepositoryAdapter {
	return &ServiceUpdateRepositoryAdapter{db: db}
}

func (r *ServiceUpdateRepositoryAdapter) Create(ctx context.Context, u *entity.ServiceUpdate) error {
	query := `INSERT INTO service_updates (id, engagement_id, client_id, description, artifact_key, folder_id, sub_folder_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		u.ID, u.EngagementID, u.ClientID, u.Description, u.ArtifactKey, u.FolderID, u.SubFolderID, u.CreatedAt)
	return dbError(err, "не удалось сохранить обновление услуги")
}

const serviceUpdateColumns = `id, engagement_id, client_id, description, artifact_key, folder_id, sub_folder_id, created_at`

func (r *ServiceUpdateRepositoryAdapter) ListByEngagement(ctx context.Context, engagementID uuid.UUID) ([]*entity.ServiceUpdate, error) {
	var rows []serviceUpdateRow
	query := `SELECT ` + serviceUpdateColumns + ` FROM service_updates WHERE engagement_id = $1 ORDER BY created_at`
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, engagementID); err != nil {
		return nil, dbError(err, "не удалось получить обновления услуги")
	}
	result := make([]*entity.ServiceUpdate, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

func (r *ServiceUpdateRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.ServiceUpdate, error) {
	var row serviceUpdateRow
	query := `SELECT ` + serviceUpdateColumns + ` FROM service_updates WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrUpdateNotFound
		}
		return nil, dbError(err, "не удалось получить обновление услуги")
	}
	return row.toEntity(), nil
}

func (r *ServiceUpdateRepositoryAdapter) Update(ctx context.Context, u *entity.ServiceUpdate) error {
	query := `UPDATE service_updates SET description = $2, artifact_key = $3 WHERE id = $1`
	res, err := executor(ctx, r.db).ExecContext(ctx, query, u.ID, u.Description, u.ArtifactKey)
	if err != nil {
		return dbError(err, "не удалось изменить обновление услуги")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrUpdateNotFound
	}
	return nil
}

func (r *ServiceUpdateRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM service_updates WHERE id = $1`, id)
	if err != nil {
		return dbError(err, "не удалось удалить обновление услуги")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrUpdateNotFound
	}
	return nil
}

type serviceUpdateRow struct {
	ID           uuid.UUID  `db:"id"`
	EngagementID uuid.UUID  `db:"engagement_id"`
	ClientID     uuid.UUID  `db:"client_id"`
	Description  string     `db:"description"`
	ArtifactKey  string     `db:"artifact_key"`
	FolderID     *uuid.UUID `db:"folder_id"`
	SubFolderID  *uuid.UUID `db:"sub_folder_id"`
	CreatedAt    time.Time  `db:"created_at"`
}

func (row serviceUpdateRow) toEntity() *entity.ServiceUpdate {
	return &entity.ServiceUpdate{
		ID:           row.ID,
		EngagementID: row.EngagementID,
		ClientID:     row.ClientID,
		Description:  row.Description,
		ArtifactKey:  row.ArtifactKey,
		FolderID:     row.FolderID,
		SubFolderID:  row.SubFolderID,
		CreatedAt:    row.CreatedAt,
	}
}
