package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

const requestColumns = `id, client_id, service_id, requested_by, status, requirement, quoted_cost, note, created_at, updated_at`

type RequestRepositoryAdapter struct {
	db *sqlx.DB
}

func NewRequestRepositoryAdapter(db *sqlx.DB) *RequestRepositoryAdapter {
	return &RequestRepositoryAdapter{db: db}
}

func (r *RequestRepositoryAdapter) Create(ctx context.Context, req *entity.ServiceRequest) error {
	query := `INSERT INTO service_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		req.ID, req.ClientID, req.ServiceID, req.RequestedBy, req.Status, req.Requirement,
		req.QuotedCost, req.Note, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == "uq_service_requests_open" {
				return apperror.ErrRequestPending
			}
			return apperror.New(apperror.ErrCodeConflict, "заявка уже существует")
		}
		return dbError(err, "не удалось создать заявку")
	}
	return nil
}

func (r *RequestRepositoryAdapter) Update(ctx context.Context, req *entity.ServiceRequest) error {
	query := `UPDATE service_requests
		SET status = $2, requirement = $3, quoted_cost = $4, note = $5, updated_at = $6
		WHERE id = $1`
	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		req.ID, req.Status, req.Requirement, req.QuotedCost, req.Note, req.UpdatedAt)
	if err != nil {
		return dbError(err, "не удалось обновить заявку")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.ServiceRequest, error) {
	return r.get(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE id = $1`, id)
}

func (r *RequestRepositoryAdapter) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.ServiceRequest, error) {
	return r.get(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *RequestRepositoryAdapter) FindOpenByClientAndService(ctx context.Context, clientID, serviceID uuid.UUID) (*entity.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests
		WHERE client_id = $1 AND service_id = $2 AND status <> 'accepted'
		ORDER BY created_at DESC LIMIT 1`
	return r.get(ctx, query, clientID, serviceID)
}

func (r *RequestRepositoryAdapter) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.ServiceRequest, error) {
	var rows []requestRow
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE client_id = $1 ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, clientID); err != nil {
		return nil, dbError(err, "не удалось получить заявки")
	}
	result := make([]*entity.ServiceRequest, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

func (r *RequestRepositoryAdapter) get(ctx context.Context, query string, args ...interface{}) (*entity.ServiceRequest, error) {
	var row requestRow
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, args...); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, dbError(err, "не удалось получить заявку")
	}
	return row.toEntity(), nil
}

type requestRow struct {
	ID          uuid.UUID `db:"id"`
	ClientID    uuid.UUID `db:"client_id"`
	ServiceID   uuid.UUID `db:"service_id"`
	RequestedBy string    `db:"requested_by"`
	Status      string    `db:"status"`
	Requirement string    `db:"requirement"`
	QuotedCost  *float64  `db:"quoted_cost"`
	Note        *string   `db:"note"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *requestRow) toEntity() *entity.ServiceRequest {
	return &entity.ServiceRequest{
		ID:          r.ID,
		ClientID:    r.ClientID,
		ServiceID:   r.ServiceID,
		RequestedBy: valueobject.RequesterType(r.RequestedBy),
		Status:      valueobject.RequestStatus(r.Status),
		Requirement: r.Requirement,
		QuotedCost:  r.QuotedCost,
		Note:        r.Note,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
