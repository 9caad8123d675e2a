// Package gateway - HTTP-клиент платёжного шлюза с подписью запросов X-VERIFY.
package gateway

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/logger"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

const (
	payPath        = "/pg/v1/pay"
	statusPathBase = "/pg/v1/status/"
	successCode    = "PAYMENT_SUCCESS"
)

type Config struct {
	BaseURL    string
	MerchantID string
	SaltKey    string
	SaltIndex  string
	Timeout    time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Checksum = sha256hex(body + path + salt) + "###" + индекс ключа.
func Checksum(body, path, salt, index string) string {
	sum := sha256.Sum256([]byte(body + path + salt))
	return hex.EncodeToString(sum[:]) + "###" + index
}

type payPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber,omitempty"`
	PaymentInstrument     map[string]string `json:"paymentInstrument"`
}

type gatewayResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		Amount                int64  `json:"amount"`
		State                 string `json:"state"`
		InstrumentResponse    struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

// Initiate регистрирует платёж и возвращает адрес платёжной страницы.
func (c *Client) Initiate(ctx context.Context, intent entity.PaymentIntent) (string, error) {
	payload, err := json.Marshal(payPayload{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: intent.TransactionID,
		MerchantUserID:        intent.MerchantUserID,
		Amount:                intent.AmountMinor,
		RedirectURL:           intent.RedirectURL,
		RedirectMode:          http.MethodPost,
		CallbackURL:           intent.CallbackURL,
		MobileNumber:          intent.MobileNumber,
		PaymentInstrument:     map[string]string{"type": "PAY_PAGE"},
	})
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сформировать платёж")
	}
	encoded := base64.StdEncoding.EncodeToString(payload)
	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сформировать платёж")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+payPath, bytes.NewReader(body))
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сформировать платёж")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", Checksum(encoded, payPath, c.cfg.SaltKey, c.cfg.SaltIndex))

	resp, err := c.do(req, intent.TransactionID)
	if err != nil {
		return "", err
	}
	redirect := resp.Data.InstrumentResponse.RedirectInfo.URL
	if !resp.Success || redirect == "" {
		c.logRejected(intent.TransactionID, resp)
		return "", apperror.ErrGatewayUnavailable
	}
	return redirect, nil
}

// Status запрашивает у шлюза итог транзакции со свежей подписью.
func (c *Client) Status(ctx context.Context, transactionID string) (*entity.PaymentStatusReport, error) {
	path := statusPathBase + c.cfg.MerchantID + "/" + transactionID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сформировать запрос статуса")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", Checksum("", path, c.cfg.SaltKey, c.cfg.SaltIndex))
	req.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)

	resp, err := c.do(req, transactionID)
	if err != nil {
		return nil, err
	}
	return &entity.PaymentStatusReport{
		TransactionID: transactionID,
		Success:       resp.Success && resp.Code == successCode,
		Code:          resp.Code,
		AmountMinor:   resp.Data.Amount,
	}, nil
}

// do выполняет запрос. Ответы 4xx разбираются как отказ шлюза, сетевые ошибки и 5xx
// превращаются в UPSTREAM_FAILURE без деталей провайдера.
func (c *Client) do(req *http.Request, transactionID string) (*gatewayResponse, error) {
	log := logger.Component("gateway").WithField("transaction_id", transactionID)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithField("error", err.Error()).Warn("шлюз не ответил")
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstreamFailure, "платёжный шлюз недоступен")
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstreamFailure, "платёжный шлюз недоступен")
	}
	if httpResp.StatusCode >= 500 {
		log.WithField("status", httpResp.StatusCode).Warn("шлюз вернул ошибку")
		return nil, apperror.Wrap(fmt.Errorf("gateway: код ответа %d", httpResp.StatusCode), apperror.ErrCodeUpstreamFailure, "платёжный шлюз недоступен")
	}

	var resp gatewayResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		log.WithField("status", httpResp.StatusCode).Warn("не удалось разобрать ответ шлюза")
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstreamFailure, "платёжный шлюз недоступен")
	}
	return &resp, nil
}

func (c *Client) logRejected(transactionID string, resp *gatewayResponse) {
	logger.Component("gateway").WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"code":           resp.Code,
		"message":        resp.Message,
	}).Warn("шлюз отклонил платёж")
}
