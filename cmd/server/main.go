package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/engagement-backend/internal/auth"
	"github.com/ignatzorin/engagement-backend/internal/config"
	"github.com/ignatzorin/engagement-backend/internal/db"
	"github.com/ignatzorin/engagement-backend/internal/domain/repository"
	"github.com/ignatzorin/engagement-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/engagement-backend/internal/http/handlers"
	"github.com/ignatzorin/engagement-backend/internal/http/middleware"
	httpRouter "github.com/ignatzorin/engagement-backend/internal/http/router"
	"github.com/ignatzorin/engagement-backend/internal/infrastructure/gateway"
	"github.com/ignatzorin/engagement-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/engagement-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/engagement-backend/internal/infrastructure/sms"
	"github.com/ignatzorin/engagement-backend/internal/infrastructure/tasks"
	"github.com/ignatzorin/engagement-backend/internal/interface/http/handler"
	"github.com/ignatzorin/engagement-backend/internal/logger"
	"github.com/ignatzorin/engagement-backend/internal/storage"
	"github.com/ignatzorin/engagement-backend/internal/usecase/conversation"
	"github.com/ignatzorin/engagement-backend/internal/usecase/engagement"
	"github.com/ignatzorin/engagement-backend/internal/usecase/notification"
	"github.com/ignatzorin/engagement-backend/internal/usecase/payment"
	"github.com/ignatzorin/engagement-backend/internal/ws"
	"github.com/ignatzorin/engagement-backend/migrations"
)

// repositories - набор хранилищ, одинаковый для PostgreSQL и памяти.
type repositories struct {
	tx            repository.TxManager
	requests      repository.RequestRepository
	engagements   repository.EngagementRepository
	threads       repository.ThreadRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	updates       repository.ServiceUpdateRepository
	directory     repository.DirectoryRepository
}

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init(cfg.LogLevel)
	}
	mainLog := logger.Component("main")

	recovery := goroutine.NewRecoveryHandler(logger.ErrorfLogger{})
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	// Хранилище.
	var (
		dbConn *sqlx.DB
		repos  repositories
	)
	switch cfg.StoreBackend {
	case config.BackendMemory:
		store := memory.NewStore()
		seedDevelopment(store, tokens)
		repos = repositories{
			tx:            store,
			requests:      store.Requests(),
			engagements:   store.Engagements(),
			threads:       store.Threads(),
			messages:      store.Messages(),
			notifications: store.Notifications(),
			updates:       store.Updates(),
			directory:     store.Directory(),
		}
	default:
		dbConn, err = db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(ctx, dbConn, migrations.FS); err != nil {
			log.Fatalf("main: ошибка миграций: %v", err)
		}
		store := persistence.NewStore(dbConn)
		repos = repositories{
			tx:            store,
			requests:      store.Requests(),
			engagements:   store.Engagements(),
			threads:       store.Threads(),
			messages:      store.Messages(),
			notifications: store.Notifications(),
			updates:       store.Updates(),
			directory:     store.Directory(),
		}
	}

	// Документы обновлений.
	var (
		objects   repository.ObjectStorage
		mediaRoot string
	)
	if cfg.Storage.MinIOEnabled() {
		objects, err = storage.NewMinIOStorage(ctx, storage.MinIOConfig{
			Endpoint:  cfg.Storage.MinIOEndpoint,
			AccessKey: cfg.Storage.MinIOAccessKey,
			SecretKey: cfg.Storage.MinIOSecretKey,
			UseSSL:    cfg.Storage.MinIOUseSSL,
			Bucket:    cfg.Storage.MinIOBucket,
		})
		if err != nil {
			log.Fatalf("main: не удалось подключить MinIO: %v", err)
		}
	} else {
		local, err := storage.NewLocalStorage(cfg.Storage.MediaStoragePath, cfg.Payment.PublicBaseURL, cfg.Storage.MaxUploadSizeMB)
		if err != nil {
			log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
		}
		objects = local
		mediaRoot = local.Root()
	}

	// SMS: через очередь asynq при наличии Redis, иначе в фоне текущего процесса.
	smsHandler := sms.NewHandler(repos.directory, sms.NewClient(sms.Config{
		APIURL:        cfg.SMS.APIURL,
		APIKey:        cfg.SMS.APIKey,
		SenderID:      cfg.SMS.SenderID,
		DefaultRegion: cfg.SMS.DefaultRegion,
	}))
	var (
		smsDispatcher repository.SMSDispatcher
		limitStore    limiter.Store
	)
	if cfg.Queue.RedisURL != "" {
		taskClient, err := tasks.NewClient(cfg.Queue.RedisURL, cfg.Queue.Queue)
		if err != nil {
			log.Fatalf("main: не удалось подключить очередь задач: %v", err)
		}
		defer taskClient.Close()
		smsDispatcher = taskClient

		worker, err := tasks.NewWorker(cfg.Queue.RedisURL, cfg.Queue.Queue, cfg.Queue.Concurrency, smsHandler)
		if err != nil {
			log.Fatalf("main: не удалось создать воркер задач: %v", err)
		}
		recovery.SafeGoWithContext(ctx, worker.Run)

		redisOpt, err := redis.ParseURL(cfg.Queue.RedisURL)
		if err != nil {
			log.Fatalf("main: некорректный REDIS_URL: %v", err)
		}
		redisClient := redis.NewClient(redisOpt)
		defer redisClient.Close()
		limitStore, err = middleware.NewRedisRateLimitStore(redisClient)
		if err != nil {
			log.Fatalf("main: не удалось создать хранилище лимитов: %v", err)
		}
	} else {
		smsDispatcher = tasks.NewInlineDispatcher(smsHandler, recovery)
	}

	// Уведомления и вебсокеты.
	hub := ws.NewHub()
	recovery.SafeGoWithContext(ctx, hub.Run)
	notifications := notification.NewService(repos.notifications, repos.tx, repos.directory)
	notifications.SetPublisher(hub)

	// Сценарии.
	threads := conversation.NewThreadService(repos.threads, repos.messages)
	acceptUC := engagement.NewAcceptEngagementUseCase(repos.tx, repos.requests, repos.engagements, repos.directory, threads, notifications)
	payments := payment.NewService(payment.Config{
		PublicBaseURL: cfg.Payment.PublicBaseURL,
		FrontendURL:   cfg.Payment.FrontendURL,
		ContextSecret: cfg.Payment.SaltKey,
		StatusTimeout: cfg.Payment.Timeout,
	}, gateway.NewClient(gateway.Config{
		BaseURL:    cfg.Payment.GatewayURL,
		MerchantID: cfg.Payment.MerchantID,
		SaltKey:    cfg.Payment.SaltKey,
		SaltIndex:  cfg.Payment.SaltIndex,
		Timeout:    cfg.Payment.Timeout,
	}), repos.requests, repos.engagements, repos.directory, acceptUC)

	engagementHandler := handler.NewEngagementHandler(handler.EngagementUseCases{
		CreateRequest: engagement.NewCreateRequestUseCase(repos.tx, repos.requests, repos.directory, threads, notifications),
		QuotePrice:    engagement.NewQuotePriceUseCase(repos.tx, repos.requests, threads, notifications, smsDispatcher, cfg.SMS.TemplateQuotation),
		ListRequests:  engagement.NewListRequestsUseCase(repos.requests, repos.directory),
		Accept:        acceptUC,
		MarkPaid:      engagement.NewMarkPaidUseCase(repos.engagements, notifications),
		PostUpdate:    engagement.NewPostServiceUpdateUseCase(repos.engagements, repos.updates, objects, notifications),
		ListUpdates:   engagement.NewListServiceUpdatesUseCase(repos.engagements, repos.updates, repos.directory, objects),
		EditUpdate:    engagement.NewEditServiceUpdateUseCase(repos.engagements, repos.updates, objects, notifications),
		DeleteUpdate:  engagement.NewDeleteServiceUpdateUseCase(repos.updates, objects),
		AssignPartner: engagement.NewAssignPartnerUseCase(repos.engagements, repos.directory, notifications),
		MarkFulfilled: engagement.NewMarkFulfilledUseCase(repos.engagements, notifications),
		Purchase:      engagement.NewPurchaseForClientUseCase(repos.engagements, repos.directory, notifications),
		List:          engagement.NewListEngagementsUseCase(repos.engagements, repos.directory),
		Find:          engagement.NewFindEngagementUseCase(repos.engagements, repos.directory),
	}, cfg.Storage.MaxUploadBytes())
	conversationHandler := handler.NewConversationHandler(
		conversation.NewSendMessageUseCase(threads, repos.directory, notifications, smsDispatcher, cfg.SMS.TemplateMessage),
		conversation.NewReadThreadUseCase(threads),
		conversation.NewListClosedThreadsUseCase(threads, repos.requests),
		conversation.NewStartInternalConversationUseCase(threads, repos.directory, notifications, smsDispatcher, cfg.SMS.TemplateMessage),
		threads,
	)

	// Роутер.
	engine := httpRouter.SetupRouter(httpRouter.Options{
		Env:             cfg.Env,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitLimit:  cfg.RateLimitLimit,
		RateLimitPeriod: cfg.RateLimitPeriod,
		MediaRoot:       mediaRoot,
	}, httpRouter.Handlers{
		Health:       httpHandlers.NewHealthHandler(dbConn, cfg.StoreBackend),
		WS:           httpHandlers.NewWSHandler(hub, tokens),
		Conversation: conversationHandler,
		Engagement:   engagementHandler,
		Notification: handler.NewNotificationHandler(notifications),
		Payment:      handler.NewPaymentHandler(payments),
	}, tokens, limitStore)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			mainLog.WithField("error", err.Error()).Error("ошибка остановки http сервера")
		}
	}()

	mainLog.WithFields(logrus.Fields{
		"port":    cfg.HTTPPort,
		"backend": cfg.StoreBackend,
		"queue":   cfg.Queue.RedisURL != "",
		"minio":   cfg.Storage.MinIOEnabled(),
	}).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}

	// фоновые задачи (SMS, воркер, хаб) дорабатывают до выхода
	recovery.Wait()
	mainLog.Info("сервер остановлен")
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
