package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
)

type NotificationRepositoryAdapter struct {
	db *sqlx.DB
}

func NewNotificationRepositoryAdapter(db *sqlx.DB) *NotificationRepositoryAdapter {
	return &NotificationRepositoryAdapter{db: db}
}

func (r *NotificationRepositoryAdapter) Append(ctx context.Context, event *entity.NotificationEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return dbError(err, "не удалось сериализовать уведомление")
	}
	unread := 1
	if event.Read {
		unread = 0
	}

	return withinTx(ctx, r.db, func(ctx context.Context) error {
		exec := executor(ctx, r.db)
		_, err := exec.ExecContext(ctx, `INSERT INTO notification_logs (owner, unread_count) VALUES ($1, $2)
			ON CONFLICT (owner) DO UPDATE SET unread_count = notification_logs.unread_count + EXCLUDED.unread_count`,
			event.Owner, unread)
		if err != nil {
			return dbError(err, "не удалось обновить журнал уведомлений")
		}

		query := `INSERT INTO notification_events (owner, message, kind, payload, is_read, created_at)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
		err = sqlx.GetContext(ctx, exec, &event.ID, query,
			event.Owner, event.Message, event.Kind, payload, event.Read, event.CreatedAt)
		return dbError(err, "не удалось сохранить уведомление")
	})
}

func (r *NotificationRepositoryAdapter) Load(ctx context.Context, owner entity.NotificationOwner) (*entity.NotificationLog, error) {
	return r.load(ctx, owner, `SELECT unread_count FROM notification_logs WHERE owner = $1`)
}

// LoadForUpdate создаёт пустой журнал при необходимости, чтобы было что блокировать.
func (r *NotificationRepositoryAdapter) LoadForUpdate(ctx context.Context, owner entity.NotificationOwner) (*entity.NotificationLog, error) {
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO notification_logs (owner) VALUES ($1) ON CONFLICT (owner) DO NOTHING`, owner)
	if err != nil {
		return nil, dbError(err, "не удалось создать журнал уведомлений")
	}
	return r.load(ctx, owner, `SELECT unread_count FROM notification_logs WHERE owner = $1 FOR UPDATE`)
}

func (r *NotificationRepositoryAdapter) load(ctx context.Context, owner entity.NotificationOwner, headQuery string) (*entity.NotificationLog, error) {
	exec := executor(ctx, r.db)
	log := entity.NewNotificationLog(owner)

	err := sqlx.GetContext(ctx, exec, &log.UnreadCount, headQuery, owner)
	if isNoRows(err) {
		return log, nil
	}
	if err != nil {
		return nil, dbError(err, "не удалось получить журнал уведомлений")
	}

	var rows []notificationRow
	query := `SELECT id, owner, message, kind, payload, is_read, created_at
		FROM notification_events WHERE owner = $1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, exec, &rows, query, owner); err != nil {
		return nil, dbError(err, "не удалось получить уведомления")
	}
	for _, row := range rows {
		event, err := row.toEntity()
		if err != nil {
			return nil, dbError(err, "повреждённое уведомление")
		}
		log.Events = append(log.Events, event)
	}
	return log, nil
}

// Remove уменьшает счётчик ровно на число удалённых строк.
func (r *NotificationRepositoryAdapter) Remove(ctx context.Context, owner entity.NotificationOwner, events []*entity.NotificationEvent) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}

	return withinTx(ctx, r.db, func(ctx context.Context) error {
		exec := executor(ctx, r.db)
		res, err := exec.ExecContext(ctx,
			`DELETE FROM notification_events WHERE owner = $1 AND id = ANY($2)`, owner, pq.Array(ids))
		if err != nil {
			return dbError(err, "не удалось удалить уведомления")
		}
		removed, _ := res.RowsAffected()
		_, err = exec.ExecContext(ctx,
			`UPDATE notification_logs SET unread_count = GREATEST(unread_count - $2, 0) WHERE owner = $1`,
			owner, removed)
		return dbError(err, "не удалось обновить счётчик уведомлений")
	})
}

type notificationRow struct {
	ID        int64     `db:"id"`
	Owner     string    `db:"owner"`
	Message   string    `db:"message"`
	Kind      string    `db:"kind"`
	Payload   []byte    `db:"payload"`
	Read      bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

func (n *notificationRow) toEntity() (*entity.NotificationEvent, error) {
	payload := entity.NotificationPayload{}
	if len(n.Payload) > 0 {
		if err := json.Unmarshal(n.Payload, &payload); err != nil {
			return nil, err
		}
	}
	return &entity.NotificationEvent{
		ID:        n.ID,
		Owner:     entity.NotificationOwner(n.Owner),
		Message:   n.Message,
		Kind:      valueobject.NotificationKind(n.Kind),
		Payload:   payload,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}, nil
}
