package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/engagement-backend/internal/interface/http/dto"
	"github.com/ignatzorin/engagement-backend/internal/interface/http/response"
	"github.com/ignatzorin/engagement-backend/internal/logger"
	"github.com/ignatzorin/engagement-backend/internal/usecase/payment"
	"github.com/ignatzorin/engagement-backend/internal/validation"
)

type PaymentHandler struct {
	payments *payment.Service
}

func NewPaymentHandler(payments *payment.Service) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// AcceptPayment обрабатывает POST accept-payment и возвращает адрес страницы шлюза.
func (h *PaymentHandler) AcceptPayment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.AcceptPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := validation.ValidateTransactionID(req.TransactionID); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.payments.Initiate(c.Request.Context(), actor, payment.InitiateInput{
		ClientID:      req.ClientID,
		RequestID:     req.RequestID,
		LinkID:        req.EngagementID,
		TransactionID: req.TransactionID,
		Mobile:        strings.TrimSpace(req.Mobile),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.PaymentRedirectResponse{
		TransactionID: result.TransactionID,
		RedirectURL:   result.RedirectURL,
	})
}

// Status обрабатывает возврат браузера со шлюза. Ответ всегда редирект:
// на страницу успеха или неудачи для роли из пути.
func (h *PaymentHandler) Status(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := c.Param("transactionId")
		destination, err := h.payments.Confirm(c.Request.Context(), role, txn, c.Query("ctx"))
		if err != nil {
			logger.Component("payment").WithFields(logrus.Fields{
				"transaction_id": txn,
				"role":           role,
				"error":          err.Error(),
			}).Warn("подтверждение платежа не удалось")
		}
		c.Redirect(http.StatusFound, destination)
	}
}
