package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/engagement-backend/internal/auth"
	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/http/handlers"
	"github.com/ignatzorin/engagement-backend/internal/http/router"
	"github.com/ignatzorin/engagement-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/engagement-backend/internal/interface/http/handler"
	"github.com/ignatzorin/engagement-backend/internal/storage"
	"github.com/ignatzorin/engagement-backend/internal/usecase/conversation"
	"github.com/ignatzorin/engagement-backend/internal/usecase/engagement"
	"github.com/ignatzorin/engagement-backend/internal/usecase/notification"
	"github.com/ignatzorin/engagement-backend/internal/usecase/payment"
	"github.com/ignatzorin/engagement-backend/internal/ws"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeGateway запоминает платёжные намерения и подтверждает любую транзакцию.
type fakeGateway struct {
	mu      sync.Mutex
	intents map[string]entity.PaymentIntent
	fail    bool
}

func (g *fakeGateway) Initiate(ctx context.Context, intent entity.PaymentIntent) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[intent.TransactionID] = intent
	return "https://gateway.test/pay/" + intent.TransactionID, nil
}

func (g *fakeGateway) Status(ctx context.Context, transactionID string) (*entity.PaymentStatusReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent := g.intents[transactionID]
	return &entity.PaymentStatusReport{
		TransactionID: transactionID,
		Success:       !g.fail,
		Code:          "PAYMENT_SUCCESS",
		AmountMinor:   intent.AmountMinor,
	}, nil
}

func (g *fakeGateway) intent(txn string) entity.PaymentIntent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.intents[txn]
}

type testApp struct {
	engine    *gin.Engine
	store     *memory.Store
	gateway   *fakeGateway
	client    entity.ClientProfile
	partnered entity.ClientProfile
	partnerID uuid.UUID
	serviceID uuid.UUID
	mediaRoot string

	clientToken  string
	partnerToken string
	staffToken   string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store := memory.NewStore()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	app := &testApp{
		store:     store,
		gateway:   &fakeGateway{intents: map[string]entity.PaymentIntent{}},
		partnerID: uuid.New(),
		serviceID: uuid.New(),
	}
	app.client = entity.ClientProfile{ID: uuid.New(), Name: "Asha", Phone: "9876543210", Type: valueobject.RequesterSelf}
	app.partnered = entity.ClientProfile{ID: uuid.New(), Name: "Ravi", Phone: "9876543211", Type: valueobject.RequesterPartner, PartnerID: &app.partnerID}
	store.AddClient(app.client)
	store.AddClient(app.partnered)
	store.AddPartner(app.partnerID)
	store.AddService(entity.ServiceInfo{ID: app.serviceID, Name: "GST Registration"})

	mediaRoot := t.TempDir()
	app.mediaRoot = mediaRoot
	objects, err := storage.NewLocalStorage(mediaRoot, "http://api.test", 1)
	require.NoError(t, err)

	notifications := notification.NewService(store.Notifications(), store, store.Directory())
	threads := conversation.NewThreadService(store.Threads(), store.Messages())
	accept := engagement.NewAcceptEngagementUseCase(store, store.Requests(), store.Engagements(), store.Directory(), threads, notifications)
	payments := payment.NewService(payment.Config{
		PublicBaseURL: "http://api.test",
		FrontendURL:   "http://app.test",
		ContextSecret: "salt",
	}, app.gateway, store.Requests(), store.Engagements(), store.Directory(), accept)

	app.engine = router.SetupRouter(router.Options{
		Env:             "test",
		AllowedOrigins:  []string{"*"},
		RateLimitLimit:  1000,
		RateLimitPeriod: time.Minute,
		MediaRoot:       mediaRoot,
	}, router.Handlers{
		Health: handlers.NewHealthHandler(nil, "memory"),
		WS:     handlers.NewWSHandler(ws.NewHub(), tokens),
		Conversation: handler.NewConversationHandler(
			conversation.NewSendMessageUseCase(threads, store.Directory(), notifications, nil, ""),
			conversation.NewReadThreadUseCase(threads),
			conversation.NewListClosedThreadsUseCase(threads, store.Requests()),
			conversation.NewStartInternalConversationUseCase(threads, store.Directory(), notifications, nil, ""),
			threads,
		),
		Engagement: handler.NewEngagementHandler(handler.EngagementUseCases{
			CreateRequest: engagement.NewCreateRequestUseCase(store, store.Requests(), store.Directory(), threads, notifications),
			QuotePrice:    engagement.NewQuotePriceUseCase(store, store.Requests(), threads, notifications, nil, ""),
			ListRequests:  engagement.NewListRequestsUseCase(store.Requests(), store.Directory()),
			Accept:        accept,
			MarkPaid:      engagement.NewMarkPaidUseCase(store.Engagements(), notifications),
			PostUpdate:    engagement.NewPostServiceUpdateUseCase(store.Engagements(), store.Updates(), objects, notifications),
			ListUpdates:   engagement.NewListServiceUpdatesUseCase(store.Engagements(), store.Updates(), store.Directory(), objects),
			EditUpdate:    engagement.NewEditServiceUpdateUseCase(store.Engagements(), store.Updates(), objects, notifications),
			DeleteUpdate:  engagement.NewDeleteServiceUpdateUseCase(store.Updates(), objects),
			AssignPartner: engagement.NewAssignPartnerUseCase(store.Engagements(), store.Directory(), notifications),
			MarkFulfilled: engagement.NewMarkFulfilledUseCase(store.Engagements(), notifications),
			Purchase:      engagement.NewPurchaseForClientUseCase(store.Engagements(), store.Directory(), notifications),
			List:          engagement.NewListEngagementsUseCase(store.Engagements(), store.Directory()),
			Find:          engagement.NewFindEngagementUseCase(store.Engagements(), store.Directory()),
		}, 1024*1024),
		Notification: handler.NewNotificationHandler(notifications),
		Payment:      handler.NewPaymentHandler(payments),
	}, tokens, nil)

	issue := func(id uuid.UUID, role valueobject.Role) string {
		token, err := tokens.IssueAccess(id, role)
		require.NoError(t, err)
		return token
	}
	app.clientToken = issue(app.client.ID, valueobject.RoleClient)
	app.partnerToken = issue(app.partnerID, valueobject.RolePartner)
	app.staffToken = issue(uuid.New(), valueobject.RoleStaff)
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decode(t *testing.T, raw json.RawMessage, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, out))
}

func (a *testApp) createQuotedRequest(t *testing.T, price float64) uuid.UUID {
	t.Helper()
	w, env := a.do(t, http.MethodPost, "/api/v1/client/request-service", a.clientToken, map[string]interface{}{
		"serviceId":   a.serviceID,
		"requirement": "Need GST registration for my shop",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		RequestID uuid.UUID `json:"requestId"`
	}
	decode(t, env.Data, &created)

	w, _ = a.do(t, http.MethodPost, "/api/v1/admin/quote-price", a.staffToken, map[string]interface{}{
		"requestId": created.RequestID,
		"price":     price,
		"note":      "includes filing fee",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return created.RequestID
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	w, _ := app.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"backend":"memory"`)
}

func TestRoleGuards(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodPost, "/api/v1/admin/quote-price", "", map[string]interface{}{"price": 10})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)

	w, env = app.do(t, http.MethodPost, "/api/v1/admin/quote-price", app.clientToken, map[string]interface{}{"price": 10})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Code)
}

func TestRequestQuotePayLaterFlow(t *testing.T) {
	app := newTestApp(t)
	requestID := app.createQuotedRequest(t, 500)

	path := "/api/v1/client/my-chats?channelKind=non-internal&serviceId=" + app.serviceID.String()
	w, env := app.do(t, http.MethodGet, path, app.clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var chat struct {
		Thread   map[string]interface{}   `json:"thread"`
		Messages []map[string]interface{} `json:"messages"`
	}
	decode(t, env.Data, &chat)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, true, chat.Messages[0]["pinned"])
	assert.Equal(t, "Please pay ₹500 to start service", chat.Messages[1]["text"])
	assert.Equal(t, valueobject.ActionAcceptButton, chat.Messages[1]["actionFlag"])

	w, env = app.do(t, http.MethodPost, "/api/v1/client/pay-later", app.clientToken, map[string]interface{}{"requestId": requestID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var accepted struct {
		Engagement struct {
			PaymentStatus string `json:"paymentStatus"`
			Price         string `json:"price"`
		} `json:"engagement"`
		Changed bool `json:"changed"`
	}
	decode(t, env.Data, &accepted)
	assert.Equal(t, "due", accepted.Engagement.PaymentStatus)
	assert.Equal(t, "₹500", accepted.Engagement.Price)
	assert.True(t, accepted.Changed)

	w, env = app.do(t, http.MethodPost, "/api/v1/client/pay-later", app.clientToken, map[string]interface{}{"requestId": requestID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", env.Code)

	w, env = app.do(t, http.MethodGet, "/api/v1/client/engagements", app.clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var links []map[string]interface{}
	decode(t, env.Data, &links)
	assert.Len(t, links, 1)

	// переговоры по заявке закрыты и доступны в истории
	w, env = app.do(t, http.MethodGet, "/api/v1/client/closed-chats?requestId="+requestID.String(), app.clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var closed []map[string]interface{}
	decode(t, env.Data, &closed)
	assert.Len(t, closed, 1)
}

func TestAcceptPaymentCallbackIsIdempotent(t *testing.T) {
	app := newTestApp(t)
	requestID := app.createQuotedRequest(t, 750)

	w, env := app.do(t, http.MethodPost, "/api/v1/client/accept-payment", app.clientToken, map[string]interface{}{
		"requestId":     requestID,
		"transactionId": "TXN-1001",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var redirect struct {
		TransactionID string `json:"transactionId"`
		RedirectURL   string `json:"redirectUrl"`
	}
	decode(t, env.Data, &redirect)
	assert.Equal(t, "TXN-1001", redirect.TransactionID)
	assert.Equal(t, "https://gateway.test/pay/TXN-1001", redirect.RedirectURL)

	intent := app.gateway.intent("TXN-1001")
	assert.Equal(t, int64(75000), intent.AmountMinor)
	callback, err := url.Parse(intent.CallbackURL)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/client/status/TXN-1001", callback.Path)

	for i := 0; i < 2; i++ {
		w, _ = app.do(t, http.MethodPost, callback.RequestURI(), "", nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "http://app.test/client/success", w.Header().Get("Location"))
	}

	links, err := app.store.Engagements().ListByClient(context.Background(), app.client.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, valueobject.PaymentStatusPaid, links[0].PaymentStatus)
}

func TestPaymentCallbackRejectsTamperedContext(t *testing.T) {
	app := newTestApp(t)
	requestID := app.createQuotedRequest(t, 300)

	w, _ := app.do(t, http.MethodPost, "/api/v1/client/accept-payment", app.clientToken, map[string]interface{}{
		"requestId":     requestID,
		"transactionId": "TXN-2002",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/v1/client/status/TXN-2002?ctx=forged.token", "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://app.test/client/failure", w.Header().Get("Location"))

	links, err := app.store.Engagements().ListByClient(context.Background(), app.client.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestAcceptPaymentRejectsBadTransactionID(t *testing.T) {
	app := newTestApp(t)
	requestID := app.createQuotedRequest(t, 300)

	w, env := app.do(t, http.MethodPost, "/api/v1/client/accept-payment", app.clientToken, map[string]interface{}{
		"requestId":     requestID,
		"transactionId": "TXN 1; drop",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)
}

func TestStaffNotificationsMarkRead(t *testing.T) {
	app := newTestApp(t)
	app.createQuotedRequest(t, 100)
	// пока заявка не принята, вторая по той же услуге отклоняется
	w, env := app.do(t, http.MethodPost, "/api/v1/client/request-service", app.clientToken, map[string]interface{}{
		"serviceId":   app.serviceID,
		"requirement": "One more",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", env.Code)

	// сообщение клиента в чат услуги даёт структурный дубликат уведомления сотрудникам
	w, _ = app.do(t, http.MethodPost, "/api/v1/client/send-message", app.clientToken, map[string]interface{}{
		"text":        "Any update?",
		"channelKind": "non-internal",
		"serviceId":   app.serviceID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = app.do(t, http.MethodGet, "/api/v1/admin/notifications", app.staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var before struct {
		Notifications []map[string]interface{} `json:"notifications"`
		UnreadCount   int                      `json:"unreadCount"`
	}
	decode(t, env.Data, &before)
	require.Len(t, before.Notifications, 2)
	assert.Equal(t, 2, before.UnreadCount)

	w, env = app.do(t, http.MethodPost, "/api/v1/admin/mark-notification-read", app.staffToken, map[string]interface{}{"index": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var after struct {
		Notifications []map[string]interface{} `json:"notifications"`
		UnreadCount   int                      `json:"unreadCount"`
	}
	decode(t, env.Data, &after)
	assert.Empty(t, after.Notifications)
	assert.Equal(t, 0, after.UnreadCount)

	w, env = app.do(t, http.MethodPost, "/api/v1/admin/mark-notification-read", app.staffToken, map[string]interface{}{"index": 5})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestInternalConversationBroadcast(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodPost, "/api/v1/admin/internal-conversation", app.staffToken, map[string]interface{}{
		"message":   "Documents are due Friday",
		"clientIds": []uuid.UUID{app.client.ID, app.partnered.ID},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		Delivered int `json:"delivered"`
	}
	decode(t, env.Data, &result)
	assert.Equal(t, 2, result.Delivered)

	w, env = app.do(t, http.MethodGet, "/api/v1/client/my-chats?channelKind=internal", app.clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var chat struct {
		Messages []map[string]interface{} `json:"messages"`
	}
	decode(t, env.Data, &chat)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, "staff", chat.Messages[0]["sender"])

	w, env = app.do(t, http.MethodGet, "/api/v1/admin/open-chats", app.staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var open []map[string]interface{}
	decode(t, env.Data, &open)
	assert.Len(t, open, 2)
}

func (a *testApp) upload(t *testing.T, engagementID uuid.UUID, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	return a.multipart(t, http.MethodPost, "/api/v1/admin/engagements/"+engagementID.String()+"/updates", "Registration filed", filename, content)
}

// multipart отправляет форму от имени сотрудника; пустой filename - без файла.
func (a *testApp) multipart(t *testing.T, method, path, description, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("description", description))
	if filename != "" {
		part, err := mw.CreateFormFile("artifact", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.staffToken)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func TestPurchaseUploadUpdateAndPartnerView(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodPost, "/api/v1/admin/engagements", app.staffToken, map[string]interface{}{
		"clientId":      app.partnered.ID,
		"serviceId":     app.serviceID,
		"cost":          1200,
		"paymentStatus": "due",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var link struct {
		ID        uuid.UUID  `json:"id"`
		PartnerID *uuid.UUID `json:"partnerId"`
	}
	decode(t, env.Data, &link)
	require.NotNil(t, link.PartnerID)
	assert.Equal(t, app.partnerID, *link.PartnerID)

	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF")
	w = app.upload(t, link.ID, "certificate.pdf", pdf)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// содержимое PDF под видом картинки отклоняется
	w = app.upload(t, link.ID, "certificate.png", pdf)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = app.do(t, http.MethodGet, "/api/v1/partner/engagements/"+link.ID.String()+"/updates", app.partnerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updates []struct {
		Description string `json:"description"`
		ArtifactURL string `json:"artifactUrl"`
	}
	decode(t, env.Data, &updates)
	require.Len(t, updates, 1)
	assert.Equal(t, "Registration filed", updates[0].Description)
	assert.True(t, strings.HasPrefix(updates[0].ArtifactURL, "http://api.test/media/updates/"))

	w, env = app.do(t, http.MethodGet, "/api/v1/partner/clients/"+app.partnered.ID.String()+"/engagements", app.partnerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var links []map[string]interface{}
	decode(t, env.Data, &links)
	assert.Len(t, links, 1)

	w, _ = app.do(t, http.MethodPost, "/api/v1/admin/engagements/"+link.ID.String()+"/mark-paid", app.staffToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = app.do(t, http.MethodPost, "/api/v1/admin/engagements/"+link.ID.String()+"/complete", app.staffToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStaffEditsAndDeletesUpdate(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodPost, "/api/v1/admin/engagements", app.staffToken, map[string]interface{}{
		"clientId":  app.client.ID,
		"serviceId": app.serviceID,
		"cost":      900,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var link struct {
		ID uuid.UUID `json:"id"`
	}
	decode(t, env.Data, &link)

	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF")
	w = app.upload(t, link.ID, "draft.pdf", pdf)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	decode(t, env.Data, &created)

	updatesPath := "/api/v1/admin/engagements/" + link.ID.String() + "/updates"
	listUpdates := func() []struct {
		Description string `json:"description"`
		ArtifactURL string `json:"artifactUrl"`
	} {
		w, env := app.do(t, http.MethodGet, updatesPath, app.staffToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var updates []struct {
			Description string `json:"description"`
			ArtifactURL string `json:"artifactUrl"`
		}
		decode(t, env.Data, &updates)
		return updates
	}
	before := listUpdates()
	require.Len(t, before, 1)
	oldFile := filepath.Join(app.mediaRoot, filepath.FromSlash(strings.TrimPrefix(before[0].ArtifactURL, "http://api.test/media/")))
	require.FileExists(t, oldFile)

	itemPath := updatesPath + "/" + created.ID.String()

	// без файла меняется только описание
	w = app.multipart(t, http.MethodPut, itemPath, "Draft reviewed", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	after := listUpdates()
	require.Len(t, after, 1)
	assert.Equal(t, "Draft reviewed", after[0].Description)
	assert.Equal(t, before[0].ArtifactURL, after[0].ArtifactURL)

	w = app.multipart(t, http.MethodPut, itemPath, "Final certificate", "final.pdf", pdf)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	after = listUpdates()
	require.Len(t, after, 1)
	assert.Equal(t, "Final certificate", after[0].Description)
	assert.NotEqual(t, before[0].ArtifactURL, after[0].ArtifactURL)
	assert.NoFileExists(t, oldFile)

	w, _ = app.do(t, http.MethodPut, itemPath, app.clientToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(t, http.MethodDelete, itemPath, app.staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, listUpdates())

	w, env = app.do(t, http.MethodDelete, itemPath, app.staffToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestPartnerCannotReadOtherPartnersClients(t *testing.T) {
	app := newTestApp(t)

	w, _ := app.do(t, http.MethodGet, "/api/v1/partner/clients/"+app.client.ID.String()+"/engagements", app.partnerToken, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
