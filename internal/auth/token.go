// Package auth проверяет bearer-токены, выпущенные сервисом учётных записей.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

// TokenManager проверяет access токены. Выпуск нужен локальной разработке и тестам:
// в бою токены выдаёт внешний сервис с тем же секретом.
type TokenManager struct {
	accessSecret []byte
	accessTTL    time.Duration
}

func NewTokenManager(accessSecret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret: []byte(accessSecret),
		accessTTL:    accessTTL,
	}
}

// IssueAccess выпускает access токен для актора с ролью role.
func (m *TokenManager) IssueAccess(id uuid.UUID, role valueobject.Role) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  id.String(),
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(m.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.accessSecret)
}

// ParseAccess извлекает id и роль из access токена.
func (m *TokenManager) ParseAccess(token string) (uuid.UUID, valueobject.Role, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return m.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return uuid.Nil, "", apperror.Wrap(err, apperror.ErrCodeUnauthorized, "токен невалиден")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", apperror.Wrap(jwt.ErrTokenInvalidClaims, apperror.ErrCodeUnauthorized, "токен невалиден")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, "", apperror.Wrap(jwt.ErrTokenInvalidClaims, apperror.ErrCodeUnauthorized, "токен невалиден")
	}
	role, _ := claims["role"].(string)

	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", apperror.Wrap(err, apperror.ErrCodeUnauthorized, "токен невалиден")
	}
	return id, valueobject.Role(role), nil
}

// Actor проверяет токен и строит актора по роли из клеймов.
func (m *TokenManager) Actor(token string) (entity.Actor, error) {
	id, role, err := m.ParseAccess(token)
	if err != nil {
		return nil, err
	}
	return entity.NewActor(id, role)
}
