package gateway_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/infrastructure/gateway"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

func newClient(url string) *gateway.Client {
	return gateway.NewClient(gateway.Config{BaseURL: url + "/", MerchantID: "MERCHANT", SaltKey: "salt", SaltIndex: "1"})
}

func TestChecksum(t *testing.T) {
	// sha256("abc")
	got := gateway.Checksum("a", "b", "c", "1")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad###1", got)
}

func TestInitiate_SignsPayloadAndReturnsRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pg/v1/pay", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, gateway.Checksum(body["request"], "/pg/v1/pay", "salt", "1"), r.Header.Get("X-VERIFY"))

		raw, err := base64.StdEncoding.DecodeString(body["request"])
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "MERCHANT", payload["merchantId"])
		assert.Equal(t, float64(50000), payload["amount"])

		_, _ = w.Write([]byte(`{"success":true,"code":"PAYMENT_INITIATED","data":{"instrumentResponse":{"redirectInfo":{"url":"https://pay.example.com/p/1"}}}}`))
	}))
	defer srv.Close()

	redirect, err := newClient(srv.URL).Initiate(context.Background(), entity.PaymentIntent{TransactionID: "TXN1", AmountMinor: 50000})

	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/p/1", redirect)
}

func TestInitiate_RejectionIsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"code":"BAD_REQUEST","message":"internal provider detail"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Initiate(context.Background(), entity.PaymentIntent{TransactionID: "TXN1"})

	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeUpstreamFailure, apperror.CodeOf(err))
	assert.NotContains(t, err.Error(), "internal provider detail")
}

func TestStatus_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pg/v1/status/MERCHANT/TXN1", r.URL.Path)
		assert.Equal(t, "MERCHANT", r.Header.Get("X-MERCHANT-ID"))
		assert.Equal(t, gateway.Checksum("", "/pg/v1/status/MERCHANT/TXN1", "salt", "1"), r.Header.Get("X-VERIFY"))
		_, _ = w.Write([]byte(`{"success":true,"code":"PAYMENT_SUCCESS","data":{"amount":50000,"state":"COMPLETED"}}`))
	}))
	defer srv.Close()

	report, err := newClient(srv.URL).Status(context.Background(), "TXN1")

	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, int64(50000), report.AmountMinor)
}

func TestStatus_PendingIsNotSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"code":"PAYMENT_PENDING"}`))
	}))
	defer srv.Close()

	report, err := newClient(srv.URL).Status(context.Background(), "TXN1")

	require.NoError(t, err)
	assert.False(t, report.Success)
}

func TestStatus_ServerErrorIsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Status(context.Background(), "TXN1")

	assert.Equal(t, apperror.ErrCodeUpstreamFailure, apperror.CodeOf(err))
}

func TestStatus_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newClient(srv.URL).Status(ctx, "TXN1")

	assert.Equal(t, apperror.ErrCodeUpstreamFailure, apperror.CodeOf(err))
}
