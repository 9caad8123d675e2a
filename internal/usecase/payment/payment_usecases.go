package payment

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/repository"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/logger"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
	"github.com/ignatzorin/engagement-backend/internal/usecase/engagement"
)

type Config struct {
	// PublicBaseURL - внешний адрес API, на него шлюз возвращает пользователя.
	PublicBaseURL string
	FrontendURL   string
	ContextSecret string
	StatusTimeout time.Duration
}

// Acceptor - шаг принятия, вызываемый после подтверждённой оплаты.
type Acceptor interface {
	PaymentConfirmed(ctx context.Context, requestID uuid.UUID) (*engagement.AcceptResult, error)
	LinkPaymentConfirmed(ctx context.Context, linkID uuid.UUID) (*engagement.AcceptResult, error)
}

type InitiateInput struct {
	ClientID      uuid.UUID
	RequestID     *uuid.UUID
	LinkID        *uuid.UUID
	TransactionID string
	Mobile        string
}

type InitiateResult struct {
	TransactionID string
	RedirectURL   string
}

type Service struct {
	cfg         Config
	gateway     repository.PaymentGateway
	requests    repository.RequestRepository
	engagements repository.EngagementRepository
	directory   repository.DirectoryRepository
	acceptor    Acceptor
}

func NewService(cfg Config, gateway repository.PaymentGateway, requests repository.RequestRepository, engagements repository.EngagementRepository, directory repository.DirectoryRepository, acceptor Acceptor) *Service {
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = 10 * time.Second
	}
	return &Service{
		cfg:         cfg,
		gateway:     gateway,
		requests:    requests,
		engagements: engagements,
		directory:   directory,
		acceptor:    acceptor,
	}
}

// Initiate формирует платёж по заявке или по уже созданной связи.
// Сумма берётся из выставленной цены, а не из запроса вызывающего.
func (s *Service) Initiate(ctx context.Context, actor entity.Actor, in InitiateInput) (*InitiateResult, error) {
	role, err := payerRole(actor)
	if err != nil {
		return nil, err
	}
	if (in.RequestID == nil) == (in.LinkID == nil) {
		return nil, apperror.New(apperror.ErrCodeValidation, "укажите либо requestId, либо engagementId")
	}
	if actor.Role() == valueobject.RoleClient {
		in.ClientID = actor.ID()
	}
	client, err := s.directory.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if !actor.CanActFor(client) {
		return nil, apperror.ErrForbidden
	}

	amount, err := s.expectedAmount(ctx, client.ID, in.RequestID, in.LinkID, true)
	if err != nil {
		return nil, err
	}

	txn := in.TransactionID
	if txn == "" {
		txn = NewTransactionID()
	}
	token, err := EncodeCallbackContext(s.cfg.ContextSecret, CallbackContext{
		ClientID:      client.ID,
		RequestID:     in.RequestID,
		LinkID:        in.LinkID,
		TransactionID: txn,
		Role:          role,
	})
	if err != nil {
		return nil, err
	}
	callback := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/api/v1/" + role + "/status/" + url.PathEscape(txn) + "?ctx=" + url.QueryEscape(token)

	mobile := in.Mobile
	if mobile == "" {
		mobile = client.Phone
	}
	redirect, err := s.gateway.Initiate(ctx, entity.PaymentIntent{
		TransactionID:  txn,
		MerchantUserID: client.ID.String(),
		AmountMinor:    amount,
		RedirectURL:    callback,
		CallbackURL:    callback,
		MobileNumber:   mobile,
	})
	if err != nil {
		return nil, err
	}
	return &InitiateResult{TransactionID: txn, RedirectURL: redirect}, nil
}

// Confirm сверяет транзакцию со шлюзом и возвращает адрес, куда
// перенаправить браузер. При любой неудаче состояние не меняется.
func (s *Service) Confirm(ctx context.Context, role, transactionID, token string) (string, error) {
	failure := s.destination(role, false)

	cc, err := DecodeCallbackContext(s.cfg.ContextSecret, token)
	if err != nil {
		return failure, err
	}
	if cc.TransactionID != transactionID || cc.Role != role {
		return failure, apperror.ErrPaymentContext
	}

	log := logger.Component("payment").WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"client_id":      cc.ClientID,
	})

	statusCtx, cancel := context.WithTimeout(ctx, s.cfg.StatusTimeout)
	defer cancel()
	report, err := s.gateway.Status(statusCtx, transactionID)
	if err != nil {
		log.WithField("error", err.Error()).Warn("шлюз не подтвердил платёж")
		return failure, err
	}
	if !report.Success {
		log.WithField("code", report.Code).Info("платёж не прошёл")
		return failure, nil
	}

	expected, err := s.expectedAmount(ctx, cc.ClientID, cc.RequestID, cc.LinkID, false)
	if err != nil {
		return failure, err
	}
	if report.AmountMinor > 0 && report.AmountMinor != expected {
		log.WithFields(logrus.Fields{
			"expected": expected,
			"reported": report.AmountMinor,
		}).Warn("сумма платежа не совпадает с ценой")
		return failure, nil
	}

	var result *engagement.AcceptResult
	if cc.RequestID != nil {
		result, err = s.acceptor.PaymentConfirmed(ctx, *cc.RequestID)
	} else {
		result, err = s.acceptor.LinkPaymentConfirmed(ctx, *cc.LinkID)
	}
	if err != nil {
		return failure, err
	}
	log.WithFields(logrus.Fields{
		"engagement_id": result.Link.ID,
		"changed":       result.Changed,
	}).Info("платёж подтверждён")
	return s.destination(role, true), nil
}

// expectedAmount проверяет принадлежность цели клиенту и возвращает сумму в пайсах.
// При инициации оплаченная цель отклоняется, при подтверждении допускается повтор.
func (s *Service) expectedAmount(ctx context.Context, clientID uuid.UUID, requestID, linkID *uuid.UUID, initiating bool) (int64, error) {
	if requestID != nil {
		req, err := s.requests.FindByID(ctx, *requestID)
		if err != nil {
			return 0, err
		}
		if req.ClientID != clientID {
			return 0, apperror.ErrForbidden
		}
		if initiating && req.IsAccepted() {
			return 0, apperror.ErrAlreadyAccepted
		}
		price, ok := req.Price()
		if !ok {
			return 0, apperror.ErrQuotationNotSent
		}
		return price.MinorUnits(), nil
	}

	link, err := s.engagements.FindByID(ctx, *linkID)
	if err != nil {
		return 0, err
	}
	if link.ClientID != clientID {
		return 0, apperror.ErrForbidden
	}
	if initiating && link.IsPaid() {
		return 0, apperror.ErrAlreadyPaid
	}
	return link.Price().MinorUnits(), nil
}

func (s *Service) destination(role string, success bool) string {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	if role != string(valueobject.RolePartner) {
		role = string(valueobject.RoleClient)
	}
	return strings.TrimRight(s.cfg.FrontendURL, "/") + "/" + role + "/" + outcome
}

func payerRole(actor entity.Actor) (string, error) {
	switch actor.Role() {
	case valueobject.RoleClient, valueobject.RolePartner:
		return string(actor.Role()), nil
	default:
		return "", apperror.ErrForbidden
	}
}

// NewTransactionID - идентификатор транзакции в допустимом для шлюза формате (до 35 символов).
func NewTransactionID() string {
	return "TXN" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
