// Package sms отправляет SMS клиентам через HTTP API провайдера.
package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/repository"
	"github.com/ignatzorin/engagement-backend/internal/logger"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

const defaultRegion = "IN"

type Config struct {
	APIURL        string
	APIKey        string
	SenderID      string
	DefaultRegion string
	Timeout       time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.DefaultRegion == "" {
		cfg.DefaultRegion = defaultRegion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

// NormalizeE164 приводит номер к E.164. Номера без кода страны считаются номерами региона.
func NormalizeE164(raw, region string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", apperror.New(apperror.ErrCodeValidation, "номер телефона не указан")
	}
	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный номер телефона")
	}
	return phonenumbers.Format(number, phonenumbers.E164), nil
}

// Send отправляет текст по шаблону провайдера.
func (c *Client) Send(ctx context.Context, phone, template, text string) error {
	if c.cfg.APIURL == "" {
		return apperror.New(apperror.ErrCodeInternal, "SMS-провайдер не настроен")
	}
	number, err := NormalizeE164(phone, c.cfg.DefaultRegion)
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("apikey", c.cfg.APIKey)
	q.Set("senderid", c.cfg.SenderID)
	q.Set("templateid", template)
	q.Set("number", strings.TrimPrefix(number, "+"))
	q.Set("message", text)

	endpoint := c.cfg.APIURL
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + q.Encode()
	} else {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сформировать запрос SMS")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeUpstreamFailure, "SMS-провайдер недоступен")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return apperror.Wrap(fmt.Errorf("sms: код ответа %d", resp.StatusCode), apperror.ErrCodeUpstreamFailure, "SMS-провайдер отклонил запрос")
	}
	return nil
}

type Sender interface {
	Send(ctx context.Context, phone, template, text string) error
}

// Handler выполняет задание на SMS: находит телефон клиента и отправляет текст.
type Handler struct {
	directory repository.DirectoryRepository
	sender    Sender
}

func NewHandler(directory repository.DirectoryRepository, sender Sender) *Handler {
	return &Handler{directory: directory, sender: sender}
}

func (h *Handler) Handle(ctx context.Context, job entity.SMSJob) error {
	if job.ClientID == uuid.Nil {
		return apperror.New(apperror.ErrCodeValidation, "клиент не указан")
	}
	client, err := h.directory.GetClient(ctx, job.ClientID)
	if err != nil {
		return err
	}
	if err := h.sender.Send(ctx, client.Phone, job.Template, job.Text); err != nil {
		logger.Component("sms").WithFields(logrus.Fields{
			"client_id": job.ClientID,
			"error":     err.Error(),
		}).Warn("SMS не отправлено")
		return err
	}
	return nil
}
