package valueobject

import "github.com/ignatzorin/engagement-backend/internal/pkg/apperror"

type RequestStatus string

const (
	RequestStatusPending       RequestStatus = "pending"
	RequestStatusQuotationSent RequestStatus = "quotation-sent"
	RequestStatusAccepted      RequestStatus = "accepted"
)

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusQuotationSent, RequestStatusAccepted:
		return true
	}
	return false
}

// CanTransitionTo не допускает пропуска quotation-sent.
// Повторное выставление цены (quotation-sent -> quotation-sent) разрешено.
func (s RequestStatus) CanTransitionTo(newStatus RequestStatus) bool {
	transitions := map[RequestStatus][]RequestStatus{
		RequestStatusPending:       {RequestStatusQuotationSent},
		RequestStatusQuotationSent: {RequestStatusQuotationSent, RequestStatusAccepted},
		RequestStatusAccepted:      {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

// RequesterType - тип клиента, от имени которого создана заявка.
type RequesterType string

const (
	RequesterSelf    RequesterType = "self"
	RequesterPartner RequesterType = "partner"
	RequesterAdmin   RequesterType = "admin"
)

func (t RequesterType) IsValid() bool {
	switch t {
	case RequesterSelf, RequesterPartner, RequesterAdmin:
		return true
	}
	return false
}

// QuotedInChat сообщает, идёт ли согласование цены через чат с клиентом.
func (t RequesterType) QuotedInChat() bool {
	return t == RequesterSelf
}

type PaymentStatus string

const (
	PaymentStatusDue  PaymentStatus = "due"
	PaymentStatusPaid PaymentStatus = "paid"
)

func NewPaymentStatus(status string) (PaymentStatus, error) {
	s := PaymentStatus(status)
	if s != PaymentStatusDue && s != PaymentStatusPaid {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус оплаты")
	}
	return s, nil
}

type FulfillmentStatus string

const (
	FulfillmentPending   FulfillmentStatus = "pending"
	FulfillmentCompleted FulfillmentStatus = "completed"
)

type AssignmentStatus string

const (
	AssignmentUnassigned AssignmentStatus = "unassigned"
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentCompleted  AssignmentStatus = "completed"
)

type ThreadStatus string

const (
	ThreadStatusOpen   ThreadStatus = "open"
	ThreadStatusClosed ThreadStatus = "closed"
)

type ChannelKind string

const (
	ChannelInternal    ChannelKind = "internal"
	ChannelNonInternal ChannelKind = "non-internal"
)

func (k ChannelKind) IsValid() bool {
	return k == ChannelInternal || k == ChannelNonInternal
}

func NewChannelKind(kind string) (ChannelKind, error) {
	k := ChannelKind(kind)
	if !k.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный тип канала")
	}
	return k, nil
}

// ChatSide - сторона переписки. Партнёры в чатах не участвуют.
type ChatSide string

const (
	ChatSideClient ChatSide = "client"
	ChatSideStaff  ChatSide = "staff"
)

func (s ChatSide) Opposite() ChatSide {
	if s == ChatSideClient {
		return ChatSideStaff
	}
	return ChatSideClient
}

type Role string

const (
	RoleClient  Role = "client"
	RolePartner Role = "partner"
	RoleStaff   Role = "staff"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleClient, RolePartner, RoleStaff:
		return true
	}
	return false
}

type NotificationKind string

const (
	NotificationUpdate           NotificationKind = "update"
	NotificationMessage          NotificationKind = "message"
	NotificationMessageQuotation NotificationKind = "message-quotation"
	NotificationNewClient        NotificationKind = "new-client"
)

func (k NotificationKind) IsValid() bool {
	switch k {
	case NotificationUpdate, NotificationMessage, NotificationMessageQuotation, NotificationNewClient:
		return true
	}
	return false
}

// Message возвращает текст события, который видит получатель.
func (k NotificationKind) Message() string {
	switch k {
	case NotificationUpdate:
		return "A new update"
	case NotificationMessage:
		return "A new message"
	case NotificationMessageQuotation:
		return "Accept Quotation"
	case NotificationNewClient:
		return "A new client joined"
	}
	return ""
}

const ActionAcceptButton = "accept-button"
