package payment

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

// CallbackContextTTL ограничивает время, за которое браузер должен вернуться со шлюза.
const CallbackContextTTL = time.Hour

// CallbackContext переживает переход через платёжную страницу шлюза:
// по нему подтверждение восстанавливает цель оплаты без серверной сессии.
type CallbackContext struct {
	ClientID      uuid.UUID  `json:"c"`
	RequestID     *uuid.UUID `json:"r,omitempty"`
	LinkID        *uuid.UUID `json:"l,omitempty"`
	TransactionID string     `json:"t"`
	Role          string     `json:"role"`
}

type callbackClaims struct {
	CallbackContext
	jwt.RegisteredClaims
}

func (c CallbackContext) validate() error {
	if c.ClientID == uuid.Nil || c.TransactionID == "" {
		return apperror.ErrPaymentContext
	}
	if (c.RequestID == nil) == (c.LinkID == nil) {
		return apperror.ErrPaymentContext
	}
	return nil
}

// EncodeCallbackContext подписывает контекст как HS256 JWT со сроком CallbackContextTTL.
func EncodeCallbackContext(secret string, c CallbackContext) (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}
	now := time.Now()
	claims := callbackClaims{
		CallbackContext: c,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.ClientID.String(),
			ID:        c.TransactionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(CallbackContextTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сформировать контекст платежа")
	}
	return signed, nil
}

// DecodeCallbackContext проверяет подпись и срок действия и разбирает контекст.
func DecodeCallbackContext(secret, token string) (CallbackContext, error) {
	var claims callbackClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return CallbackContext{}, apperror.ErrPaymentContext
	}
	if err := claims.CallbackContext.validate(); err != nil {
		return CallbackContext{}, err
	}
	return claims.CallbackContext, nil
}
