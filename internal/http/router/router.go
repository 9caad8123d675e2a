package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/engagement-backend/internal/auth"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/http/handlers"
	"github.com/ignatzorin/engagement-backend/internal/http/middleware"
	"github.com/ignatzorin/engagement-backend/internal/interface/http/handler"
)

type Options struct {
	Env             string
	AllowedOrigins  []string
	RateLimitLimit  int64
	RateLimitPeriod time.Duration
	// MediaRoot раздаётся по /media, когда документы хранятся на диске.
	MediaRoot string
}

type Handlers struct {
	Health       *handlers.HealthHandler
	WS           *handlers.WSHandler
	Conversation *handler.ConversationHandler
	Engagement   *handler.EngagementHandler
	Notification *handler.NotificationHandler
	Payment      *handler.PaymentHandler
}

// SetupRouter собирает маршруты API. Лимит запросов применяется к изменяющим маршрутам.
// limitStore может быть nil, тогда счётчики хранятся в памяти процесса.
func SetupRouter(opts Options, h Handlers, tokens *auth.TokenManager, limitStore limiter.Store) *gin.Engine {
	if opts.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(opts.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	if opts.MediaRoot != "" {
		r.StaticFS("/media", http.Dir(opts.MediaRoot))
	}

	writeLimit := middleware.RateLimitMiddleware(limitStore, opts.RateLimitLimit, opts.RateLimitPeriod)

	api := r.Group("/api/v1")
	api.GET("/ws", h.WS.Handle)

	// возврат со шлюза приходит из браузера без bearer токена
	api.POST("/client/status/:transactionId", h.Payment.Status(string(valueobject.RoleClient)))
	api.POST("/partner/status/:transactionId", h.Payment.Status(string(valueobject.RolePartner)))

	authn := middleware.AuthMiddleware(tokens)

	client := api.Group("/client", authn, middleware.RequireRole(valueobject.RoleClient))
	{
		client.POST("/request-service", writeLimit, h.Engagement.RequestService)
		client.POST("/send-message", writeLimit, h.Conversation.SendMessage)
		client.GET("/my-chats", h.Conversation.MyChats)
		client.GET("/closed-chats", h.Conversation.ClosedChats)
		client.GET("/requests", h.Engagement.ListRequests)
		client.GET("/engagements", h.Engagement.ListEngagements)
		client.GET("/engagements/:id", middleware.UUIDValidator("id"), h.Engagement.GetEngagement)
		client.GET("/engagements/:id/updates", middleware.UUIDValidator("id"), h.Engagement.ListUpdates)
		client.POST("/pay-later", writeLimit, h.Engagement.PayLater)
		client.POST("/accept-payment", writeLimit, h.Payment.AcceptPayment)
		client.GET("/notifications", h.Notification.List)
		client.POST("/mark-notification-read", h.Notification.MarkRead)
	}

	partner := api.Group("/partner", authn, middleware.RequireRole(valueobject.RolePartner))
	{
		partner.POST("/request-service", writeLimit, h.Engagement.RequestService)
		partner.POST("/accept-payment", writeLimit, h.Payment.AcceptPayment)
		partner.GET("/clients/:clientId/engagements", middleware.UUIDValidator("clientId"), h.Engagement.ListEngagements)
		partner.GET("/engagements/:id", middleware.UUIDValidator("id"), h.Engagement.GetEngagement)
		partner.GET("/engagements/:id/updates", middleware.UUIDValidator("id"), h.Engagement.ListUpdates)
		partner.GET("/notifications", h.Notification.List)
		partner.POST("/mark-notification-read", h.Notification.MarkRead)
	}

	admin := api.Group("/admin", authn, middleware.RequireRole(valueobject.RoleStaff))
	{
		admin.POST("/quote-price", writeLimit, h.Engagement.QuotePrice)
		admin.POST("/pay-later", writeLimit, h.Engagement.PayLater)
		admin.GET("/requests", h.Engagement.ListRequests)
		admin.POST("/send-message", writeLimit, h.Conversation.SendMessage)
		admin.GET("/chats/:clientId", middleware.UUIDValidator("clientId"), h.Conversation.ClientChats)
		admin.GET("/open-chats", h.Conversation.OpenChats)
		admin.GET("/closed-chats", h.Conversation.ClosedChats)
		admin.POST("/internal-conversation", writeLimit, h.Conversation.InternalConversation)
		admin.POST("/engagements", writeLimit, h.Engagement.Purchase)
		admin.GET("/engagements/:id", middleware.UUIDValidator("id"), h.Engagement.GetEngagement)
		admin.GET("/engagements/:id/updates", middleware.UUIDValidator("id"), h.Engagement.ListUpdates)
		admin.POST("/engagements/:id/updates", middleware.UUIDValidator("id"), writeLimit, h.Engagement.PostUpdate)
		admin.PUT("/engagements/:id/updates/:updateId", middleware.UUIDValidator("id"), middleware.UUIDValidator("updateId"), writeLimit, h.Engagement.EditUpdate)
		admin.DELETE("/engagements/:id/updates/:updateId", middleware.UUIDValidator("id"), middleware.UUIDValidator("updateId"), writeLimit, h.Engagement.DeleteUpdate)
		admin.POST("/engagements/:id/assign", middleware.UUIDValidator("id"), h.Engagement.AssignPartner)
		admin.POST("/engagements/:id/complete", middleware.UUIDValidator("id"), h.Engagement.Complete)
		admin.POST("/engagements/:id/mark-paid", middleware.UUIDValidator("id"), h.Engagement.MarkPaid)
		admin.GET("/notifications", h.Notification.List)
		admin.POST("/mark-notification-read", h.Notification.MarkRead)
	}

	return r
}
