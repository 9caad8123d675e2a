package sms_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/engagement-backend/internal/infrastructure/sms"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "national", raw: "98765 43210", want: "+919876543210"},
		{name: "international", raw: "+91 98765-43210", want: "+919876543210"},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "garbage", raw: "12", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sms.NormalizeE164(tt.raw, "IN")
			if tt.wantErr {
				assert.True(t, apperror.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "key", q.Get("apikey"))
		assert.Equal(t, "SNDR", q.Get("senderid"))
		assert.Equal(t, "tpl", q.Get("templateid"))
		assert.Equal(t, "919876543210", q.Get("number"))
		assert.Equal(t, "You have a new message", q.Get("message"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	client := sms.NewClient(sms.Config{APIURL: srv.URL, APIKey: "key", SenderID: "SNDR"})

	err := client.Send(context.Background(), "9876543210", "tpl", "You have a new message")

	require.NoError(t, err)
}

func TestClientSend_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := sms.NewClient(sms.Config{APIURL: srv.URL}).Send(context.Background(), "9876543210", "tpl", "hi")

	assert.Equal(t, apperror.ErrCodeUpstreamFailure, apperror.CodeOf(err))
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, phone, template, text string) error {
	return m.Called(ctx, phone, template, text).Error(0)
}

func TestHandler_ResolvesPhone(t *testing.T) {
	store := memory.NewStore()
	client := entity.ClientProfile{ID: uuid.New(), Phone: "9876543210", Type: valueobject.RequesterSelf}
	store.AddClient(client)
	sender := new(mockSender)
	sender.On("Send", mock.Anything, "9876543210", "tpl", "hello").Return(nil).Once()

	err := sms.NewHandler(store.Directory(), sender).Handle(context.Background(), entity.SMSJob{ClientID: client.ID, Template: "tpl", Text: "hello"})

	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestHandler_UnknownClient(t *testing.T) {
	sender := new(mockSender)

	err := sms.NewHandler(memory.NewStore().Directory(), sender).Handle(context.Background(), entity.SMSJob{ClientID: uuid.New()})

	assert.True(t, apperror.IsNotFound(err))
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
