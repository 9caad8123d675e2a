package entity

import "github.com/google/uuid"

// PaymentIntent - данные для формирования платёжной страницы шлюза.
type PaymentIntent struct {
	TransactionID  string
	MerchantUserID string
	AmountMinor    int64
	RedirectURL    string
	CallbackURL    string
	MobileNumber   string
}

// PaymentStatusReport - ответ шлюза о статусе транзакции.
type PaymentStatusReport struct {
	TransactionID string
	Success       bool
	Code          string
	AmountMinor   int64
}

// SMSJob - задание на отправку SMS клиенту; телефон определяется при выполнении.
type SMSJob struct {
	ClientID uuid.UUID `json:"client_id"`
	Template string    `json:"template"`
	Text     string    `json:"text"`
}
