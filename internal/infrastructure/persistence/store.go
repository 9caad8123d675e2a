package persistence

import (
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/engagement-backend/internal/domain/repository"
)

var (
	_ repository.TxManager               = (*TxManager)(nil)
	_ repository.RequestRepository       = (*RequestRepositoryAdapter)(nil)
	_ repository.EngagementRepository    = (*EngagementRepositoryAdapter)(nil)
	_ repository.ThreadRepository        = (*ThreadRepositoryAdapter)(nil)
	_ repository.MessageRepository       = (*MessageRepositoryAdapter)(nil)
	_ repository.NotificationRepository  = (*NotificationRepositoryAdapter)(nil)
	_ repository.ServiceUpdateRepository = (*ServiceUpdateRepositoryAdapter)(nil)
	_ repository.DirectoryRepository     = (*DirectoryRepositoryAdapter)(nil)
)

// Store собирает адаптеры PostgreSQL с тем же набором методов, что и memory.Store.
type Store struct {
	*TxManager
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{TxManager: NewTxManager(db), db: db}
}

func (s *Store) Requests() *RequestRepositoryAdapter { return NewRequestRepositoryAdapter(s.db) }
func (s *Store) Engagements() *EngagementRepositoryAdapter {
	return NewEngagementRepositoryAdapter(s.db)
}
func (s *Store) Threads() *ThreadRepositoryAdapter   { return NewThreadRepositoryAdapter(s.db) }
func (s *Store) Messages() *MessageRepositoryAdapter { return NewMessageRepositoryAdapter(s.db) }
func (s *Store) Notifications() *NotificationRepositoryAdapter {
	return NewNotificationRepositoryAdapter(s.db)
}
func (s *Store) Updates() *ServiceUpdateRepositoryAdapter {
	return NewServiceUpdateRepositoryAdapter(s.db)
}
func (s *Store) Directory() *DirectoryRepositoryAdapter { return NewDirectoryRepositoryAdapter(s.db) }
