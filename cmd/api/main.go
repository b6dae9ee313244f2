package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"webugs/internal/adapter/api"
	"webugs/internal/adapter/api/handler"
	apimiddleware "webugs/internal/adapter/api/middleware"
	"webugs/internal/adapter/api/router"
	"webugs/internal/adapter/repository"
	"webugs/internal/adapter/repository/memory"
	"webugs/internal/domain/chat"
	domainrepo "webugs/internal/domain/repository"
	"webugs/internal/domain/service"
	"webugs/internal/infrastructure/firebase"
	"webugs/internal/infrastructure/ratelimit"
	"webugs/internal/infrastructure/storage"
	"webugs/internal/infrastructure/websocket"
	"webugs/internal/usecase"
	"webugs/pkg/config"
)

type stores struct {
	rooms      domainrepo.RoomRepository
	requests   domainrepo.RequestRepository
	histories  domainrepo.HistoryRepository
	users      domainrepo.UserRepository
	transactor domainrepo.Transactor
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []option.ClientOption
	if cfg.ServiceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	} else if cfg.ServiceAccountPath != "" {
		log.Printf("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountPath))
	}

	var authClient *auth.Client
	var st stores
	switch cfg.StoreBackend {
	case "memory":
		log.Printf("Using in-memory store; data is lost on restart")
		mem := memory.NewStore()
		st = stores{mem.Rooms(), mem.Requests(), mem.Histories(), mem.Users(), mem}
	default:
		firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		authClient, err = firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}
		firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		defer firestoreClient.Close()

		st = stores{
			rooms:      repository.NewFirestoreRoomRepository(firestoreClient),
			requests:   repository.NewFirestoreRequestRepository(firestoreClient),
			histories:  repository.NewFirestoreHistoryRepository(firestoreClient),
			users:      repository.NewFirestoreUserRepository(firestoreClient),
			transactor: repository.NewFirestoreTransactor(firestoreClient),
		}
	}

	var uploader service.MediaUploader
	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, cfg.ServiceAccountJSON, cfg.ServiceAccountPath)
		if err != nil {
			log.Fatalf("Failed to initialize Cloud Storage: %v", err)
		}
		defer storageClient.Close()
		uploader = storageClient
	} else {
		log.Printf("STORAGE_BUCKET is not set; media messages are disabled")
	}

	var devTokens *firebase.DevTokens
	if cfg.IsDevelopment() {
		devTokens = firebase.NewDevTokens(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second)
	}
	verifier := firebase.NewAuthClient(authClient, devTokens)

	wsManager := websocket.NewManager()

	limiter := ratelimit.NewRateLimiter(ratelimit.DefaultLimits(cfg.SendRatePerMinute))
	limiter.StartCleanupRoutine(ctx)

	codec := chat.NewCodec(chat.SystemClock, chat.UUIDGenerator)
	profiles := usecase.NewProfileResolver(st.users, cfg.ProfileLookupBatchSize, 5*time.Minute)

	completionUseCase := usecase.NewCompletionUseCase(st.rooms, st.requests, st.transactor, wsManager, codec, limiter)
	chatUseCase := usecase.NewChatUseCase(st.rooms, profiles, uploader, wsManager, completionUseCase, codec, limiter, usecase.ChatConfig{
		RoomIDScheme: chat.ParseRoomIDScheme(cfg.RoomIDScheme),
		Locale:       chat.ParseLocale(cfg.DisplayLocale, cfg.DisplayTimezone),
	})
	chatListUseCase := usecase.NewChatListUseCase(st.rooms, profiles, wsManager)
	requestUseCase := usecase.NewRequestUseCase(st.requests)
	historyUseCase := usecase.NewHistoryUseCase(st.histories)

	handlers := router.Handlers{
		Chat:       handler.NewChatHandler(chatUseCase, chatListUseCase),
		Completion: handler.NewCompletionHandler(completionUseCase),
		Request:    handler.NewRequestHandler(requestUseCase),
		History:    handler.NewHistoryHandler(historyUseCase),
		WebSocket:  handler.NewWebSocketHandler(wsManager, chatUseCase, chatListUseCase),
		Health:     handler.NewHealthHandler(cfg.StoreBackend),
	}
	if devTokens != nil {
		handlers.DevToken = handler.NewDevTokenHandler(devTokens, st.users)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Validator = api.NewValidator()

	router.Setup(e, handlers, apimiddleware.NewAuthMiddleware(verifier), apimiddleware.RateLimit(limiter))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
