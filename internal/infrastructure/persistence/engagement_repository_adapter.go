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

const engagementColumns = `id, client_id, service_id, request_id, cost, note, requirement, payment_status,
	fulfillment_status, assignment_status, owner_role, partner_id, created_at, updated_at`

type EngagementRepositoryAdapter struct {
	db *sqlx.DB
}

func NewEngagementRepositoryAdapter(db *sqlx.DB) *EngagementRepositoryAdapter {
	return &EngagementRepositoryAdapter{db: db}
}

// Create опирается на UNIQUE(request_id): вторая связь для той же заявки невозможна.
func (r *EngagementRepositoryAdapter) Create(ctx context.Context, link *entity.EngagementLink) error {
	query := `INSERT INTO engagement_links (` + engagementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		link.ID, link.ClientID, link.ServiceID, link.RequestID, link.Cost, link.Note, link.Requirement,
		link.PaymentStatus, link.FulfillmentStatus, link.AssignmentStatus, link.OwnerRole, link.PartnerID,
		link.CreatedAt, link.UpdatedAt)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return apperror.ErrAlreadyAccepted
		}
		return dbError(err, "не удалось создать услугу клиента")
	}
	return nil
}

func (r *EngagementRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.EngagementLink, error) {
	return r.get(ctx, `SELECT `+engagementColumns+` FROM engagement_links WHERE id = $1`, id)
}

func (r *EngagementRepositoryAdapter) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*entity.EngagementLink, error) {
	return r.get(ctx, `SELECT `+engagementColumns+` FROM engagement_links WHERE request_id = $1`, requestID)
}

func (r *EngagementRepositoryAdapter) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.EngagementLink, error) {
	var rows []engagementRow
	query := `SELECT ` + engagementColumns + ` FROM engagement_links WHERE client_id = $1 ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, clientID); err != nil {
		return nil, dbError(err, "не удалось получить услуги клиента")
	}
	result := make([]*entity.EngagementLink, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

// MarkPaid - условное обновление due -> paid; повторный вызов ничего не меняет.
func (r *EngagementRepositoryAdapter) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE engagement_links SET payment_status = 'paid', updated_at = $2
		WHERE id = $1 AND payment_status = 'due'`
	res, err := executor(ctx, r.db).ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return false, dbError(err, "не удалось отметить оплату")
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return true, nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *EngagementRepositoryAdapter) AssignPartner(ctx context.Context, id, partnerID uuid.UUID) (*entity.EngagementLink, error) {
	query := `UPDATE engagement_links SET partner_id = $2, assignment_status = 'assigned', updated_at = $3
		WHERE id = $1
		RETURNING ` + engagementColumns
	return r.get(ctx, query, id, partnerID, time.Now())
}

func (r *EngagementRepositoryAdapter) MarkFulfilled(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE engagement_links
		SET fulfillment_status = 'completed',
			assignment_status = CASE WHEN assignment_status = 'assigned' THEN 'completed' ELSE assignment_status END,
			updated_at = $2
		WHERE id = $1 AND fulfillment_status <> 'completed'`
	res, err := executor(ctx, r.db).ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return false, dbError(err, "не удалось завершить услугу")
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return true, nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *EngagementRepositoryAdapter) get(ctx context.Context, query string, args ...interface{}) (*entity.EngagementLink, error) {
	var row engagementRow
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, args...); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrEngagementNotFound
		}
		return nil, dbError(err, "не удалось получить услугу клиента")
	}
	return row.toEntity(), nil
}

type engagementRow struct {
	ID                uuid.UUID  `db:"id"`
	ClientID          uuid.UUID  `db:"client_id"`
	ServiceID         uuid.UUID  `db:"service_id"`
	RequestID         *uuid.UUID `db:"request_id"`
	Cost              float64    `db:"cost"`
	Note              string     `db:"note"`
	Requirement       string     `db:"requirement"`
	PaymentStatus     string     `db:"payment_status"`
	FulfillmentStatus string     `db:"fulfillment_status"`
	AssignmentStatus  string     `db:"assignment_status"`
	OwnerRole         string     `db:"owner_role"`
	PartnerID         *uuid.UUID `db:"partner_id"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func (r *engagementRow) toEntity() *entity.EngagementLink {
	return &entity.EngagementLink{
		ID:                r.ID,
		ClientID:          r.ClientID,
		ServiceID:         r.ServiceID,
		RequestID:         r.RequestID,
		Cost:              r.Cost,
		Note:              r.Note,
		Requirement:       r.Requirement,
		PaymentStatus:     valueobject.PaymentStatus(r.PaymentStatus),
		FulfillmentStatus: valueobject.FulfillmentStatus(r.FulfillmentStatus),
		AssignmentStatus:  valueobject.AssignmentStatus(r.AssignmentStatus),
		OwnerRole:         valueobject.RequesterType(r.OwnerRole),
		PartnerID:         r.PartnerID,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
