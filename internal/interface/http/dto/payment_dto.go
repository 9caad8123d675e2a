package dto

import "github.com/google/uuid"

// AcceptPaymentRequest - оплачивается либо заявка (requestId), либо уже
// созданная услуга с отложенной оплатой (engagementId). Сумма не передаётся.
type AcceptPaymentRequest struct {
	ClientID      uuid.UUID  `json:"clientId"`
	RequestID     *uuid.UUID `json:"requestId"`
	EngagementID  *uuid.UUID `json:"engagementId"`
	TransactionID string     `json:"transactionId"`
	Mobile        string     `json:"mobile"`
}

type PaymentRedirectResponse struct {
	TransactionID string `json:"transactionId"`
	RedirectURL   string `json:"redirectUrl"`
}
