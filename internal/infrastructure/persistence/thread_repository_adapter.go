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

const threadColumns = `id, client_id, channel_kind, service_id, request_id, status,
	unread_for_client, unread_for_staff, created_at, updated_at`

// openOrCreateAttempts - сколько раз повторять вставку, если найденный
// открытый чат успели закрыть между INSERT и SELECT.
const openOrCreateAttempts = 3

type ThreadRepositoryAdapter struct {
	db *sqlx.DB
}

func NewThreadRepositoryAdapter(db *sqlx.DB) *ThreadRepositoryAdapter {
	return &ThreadRepositoryAdapter{db: db}
}

// OpenOrCreate полагается на частичный уникальный индекс
// (client_id, channel_key) WHERE status = 'open'.
func (r *ThreadRepositoryAdapter) OpenOrCreate(ctx context.Context, key entity.ChannelKey) (*entity.ChatThread, bool, error) {
	insert := `INSERT INTO chat_threads (id, client_id, channel_kind, channel_key, service_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (client_id, channel_key) WHERE status = 'open' DO NOTHING`

	for attempt := 0; attempt < openOrCreateAttempts; attempt++ {
		thread := entity.NewChatThread(key)
		res, err := executor(ctx, r.db).ExecContext(ctx, insert,
			thread.ID, thread.ClientID, thread.Kind, key.Slot(), thread.ServiceID, thread.Status,
			thread.CreatedAt, thread.UpdatedAt)
		if err != nil {
			return nil, false, dbError(err, "не удалось создать чат")
		}
		if n, _ := res.RowsAffected(); n == 1 {
			return thread, true, nil
		}

		existing, err := r.FindOpen(ctx, key)
		if err == nil {
			return existing, false, nil
		}
		if !apperror.IsNotFound(err) {
			return nil, false, err
		}
	}
	return nil, false, apperror.New(apperror.ErrCodeConflict, "не удалось открыть чат, повторите запрос")
}

func (r *ThreadRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.ChatThread, error) {
	return r.get(ctx, `SELECT `+threadColumns+` FROM chat_threads WHERE id = $1`, id)
}

func (r *ThreadRepositoryAdapter) FindOpen(ctx context.Context, key entity.ChannelKey) (*entity.ChatThread, error) {
	query := `SELECT ` + threadColumns + ` FROM chat_threads
		WHERE client_id = $1 AND channel_key = $2 AND status = 'open'`
	return r.get(ctx, query, key.ClientID, key.Slot())
}

func (r *ThreadRepositoryAdapter) ListOpen(ctx context.Context) ([]*entity.ChatThread, error) {
	return r.list(ctx, `SELECT `+threadColumns+` FROM chat_threads WHERE status = 'open' ORDER BY updated_at DESC`)
}

func (r *ThreadRepositoryAdapter) ListClosedByRequest(ctx context.Context, requestID uuid.UUID) ([]*entity.ChatThread, error) {
	query := `SELECT ` + threadColumns + ` FROM chat_threads
		WHERE request_id = $1 AND status = 'closed' ORDER BY updated_at DESC`
	return r.list(ctx, query, requestID)
}

func (r *ThreadRepositoryAdapter) AttachRequest(ctx context.Context, threadID, requestID uuid.UUID) error {
	res, err := executor(ctx, r.db).ExecContext(ctx,
		`UPDATE chat_threads SET request_id = $2, updated_at = $3 WHERE id = $1`,
		threadID, requestID, time.Now())
	if err != nil {
		return dbError(err, "не удалось привязать заявку к чату")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrThreadNotFound
	}
	return nil
}

func (r *ThreadRepositoryAdapter) Close(ctx context.Context, threadID uuid.UUID) (bool, error) {
	res, err := executor(ctx, r.db).ExecContext(ctx,
		`UPDATE chat_threads SET status = 'closed', updated_at = $2 WHERE id = $1 AND status = 'open'`,
		threadID, time.Now())
	if err != nil {
		return false, dbError(err, "не удалось закрыть чат")
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return true, nil
	}
	if _, err := r.FindByID(ctx, threadID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *ThreadRepositoryAdapter) get(ctx context.Context, query string, args ...interface{}) (*entity.ChatThread, error) {
	var row threadRow
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, args...); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrThreadNotFound
		}
		return nil, dbError(err, "не удалось получить чат")
	}
	return row.toEntity(), nil
}

func (r *ThreadRepositoryAdapter) list(ctx context.Context, query string, args ...interface{}) ([]*entity.ChatThread, error) {
	var rows []threadRow
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, args...); err != nil {
		return nil, dbError(err, "не удалось получить чаты")
	}
	result := make([]*entity.ChatThread, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

type threadRow struct {
	ID              uuid.UUID  `db:"id"`
	ClientID        uuid.UUID  `db:"client_id"`
	Kind            string     `db:"channel_kind"`
	ServiceID       *uuid.UUID `db:"service_id"`
	RequestID       *uuid.UUID `db:"request_id"`
	Status          string     `db:"status"`
	UnreadForClient int        `db:"unread_for_client"`
	UnreadForStaff  int        `db:"unread_for_staff"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (t *threadRow) toEntity() *entity.ChatThread {
	return &entity.ChatThread{
		ID:              t.ID,
		ClientID:        t.ClientID,
		Kind:            valueobject.ChannelKind(t.Kind),
		ServiceID:       t.ServiceID,
		RequestID:       t.RequestID,
		Status:          valueobject.ThreadStatus(t.Status),
		UnreadForClient: t.UnreadForClient,
		UnreadForStaff:  t.UnreadForStaff,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

type MessageRepositoryAdapter struct {
	db *sqlx.DB
}

func NewMessageRepositoryAdapter(db *sqlx.DB) *MessageRepositoryAdapter {
	return &MessageRepositoryAdapter{db: db}
}

// Append сохраняет сообщение и увеличивает счётчик получателя в одной транзакции.
func (r *MessageRepositoryAdapter) Append(ctx context.Context, msg *entity.ChatMessage) error {
	counter := `UPDATE chat_threads SET unread_for_staff = unread_for_staff + 1, updated_at = $2
		WHERE id = $1 AND status = 'open'`
	if msg.Sender == valueobject.ChatSideStaff {
		counter = `UPDATE chat_threads SET unread_for_client = unread_for_client + 1, updated_at = $2
		WHERE id = $1 AND status = 'open'`
	}

	return withinTx(ctx, r.db, func(ctx context.Context) error {
		exec := executor(ctx, r.db)
		res, err := exec.ExecContext(ctx, counter, msg.ThreadID, msg.SentAt)
		if err != nil {
			return dbError(err, "не удалось обновить чат")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var status string
			err := sqlx.GetContext(ctx, exec, &status, `SELECT status FROM chat_threads WHERE id = $1`, msg.ThreadID)
			if isNoRows(err) {
				return apperror.ErrThreadNotFound
			}
			if err != nil {
				return dbError(err, "не удалось получить чат")
			}
			return apperror.ErrThreadClosed
		}

		query := `INSERT INTO chat_messages (id, thread_id, text, sender, sent_at, read_by_client, read_by_staff, action_flag, pinned)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		_, err = exec.ExecContext(ctx, query, msg.ID, msg.ThreadID, msg.Text, msg.Sender, msg.SentAt,
			msg.ReadByClient, msg.ReadByStaff, msg.ActionFlag, msg.Pinned)
		return dbError(err, "не удалось сохранить сообщение")
	})
}

func (r *MessageRepositoryAdapter) ListByThread(ctx context.Context, threadID uuid.UUID) ([]*entity.ChatMessage, error) {
	var rows []messageRow
	query := `SELECT id, thread_id, text, sender, sent_at, read_by_client, read_by_staff, action_flag, pinned
		FROM chat_messages WHERE thread_id = $1 ORDER BY sent_at`
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, threadID); err != nil {
		return nil, dbError(err, "не удалось получить сообщения")
	}
	result := make([]*entity.ChatMessage, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

func (r *MessageRepositoryAdapter) MarkRead(ctx context.Context, threadID uuid.UUID, reader valueobject.ChatSide) error {
	messages := `UPDATE chat_messages SET read_by_staff = TRUE WHERE thread_id = $1 AND NOT read_by_staff`
	counter := `UPDATE chat_threads SET unread_for_staff = 0 WHERE id = $1`
	if reader == valueobject.ChatSideClient {
		messages = `UPDATE chat_messages SET read_by_client = TRUE WHERE thread_id = $1 AND NOT read_by_client`
		counter = `UPDATE chat_threads SET unread_for_client = 0 WHERE id = $1`
	}

	return withinTx(ctx, r.db, func(ctx context.Context) error {
		exec := executor(ctx, r.db)
		res, err := exec.ExecContext(ctx, counter, threadID)
		if err != nil {
			return dbError(err, "не удалось сбросить счётчик")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperror.ErrThreadNotFound
		}
		_, err = exec.ExecContext(ctx, messages, threadID)
		return dbError(err, "не удалось отметить сообщения прочитанными")
	})
}

type messageRow struct {
	ID           uuid.UUID `db:"id"`
	ThreadID     uuid.UUID `db:"thread_id"`
	Text         string    `db:"text"`
	Sender       string    `db:"sender"`
	SentAt       time.Time `db:"sent_at"`
	ReadByClient bool      `db:"read_by_client"`
	ReadByStaff  bool      `db:"read_by_staff"`
	ActionFlag   *string   `db:"action_flag"`
	Pinned       bool      `db:"pinned"`
}

func (m *messageRow) toEntity() *entity.ChatMessage {
	return &entity.ChatMessage{
		ID:           m.ID,
		ThreadID:     m.ThreadID,
		Text:         m.Text,
		Sender:       valueobject.ChatSide(m.Sender),
		SentAt:       m.SentAt,
		ReadByClient: m.ReadByClient,
		ReadByStaff:  m.ReadByStaff,
		ActionFlag:   m.ActionFlag,
		Pinned:       m.Pinned,
	}
}
