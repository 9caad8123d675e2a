package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

// ServiceUpdate - отчёт сотрудника о ходе работ по услуге клиента.
// Хранится только ключ артефакта в объектном хранилище.
type ServiceUpdate struct {
	ID           uuid.UUID
	EngagementID uuid.UUID
	ClientID     uuid.UUID
	Description  string
	ArtifactKey  string
	FolderID     *uuid.UUID
	SubFolderID  *uuid.UUID
	CreatedAt    time.Time
}

func NewServiceUpdate(link *EngagementLink, description, artifactKey string, folderID, subFolderID *uuid.UUID) (*ServiceUpdate, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "описание обновления обязательно")
	}
	if artifactKey == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "документ обязателен")
	}
	return &ServiceUpdate{
		ID:           uuid.New(),
		EngagementID: link.ID,
		ClientID:     link.ClientID,
		Description:  description,
		ArtifactKey:  artifactKey,
		FolderID:     folderID,
		SubFolderID:  subFolderID,
		CreatedAt:    time.Now(),
	}, nil
}

// Revise заменяет описание и, если передан ключ, документ. Возвращает
// ключ документа, который больше не нужен, или пустую строку.
func (u *ServiceUpdate) Revise(description, artifactKey string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", apperror.New(apperror.ErrCodeValidation, "описание обновления обязательно")
	}
	u.Description = description
	if artifactKey == "" || artifactKey == u.ArtifactKey {
		return "", nil
	}
	replaced := u.ArtifactKey
	u.ArtifactKey = artifactKey
	return replaced, nil
}
