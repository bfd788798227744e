package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"talentlink/internal/adapter/api"
	"talentlink/internal/adapter/api/handler"
	apimiddleware "talentlink/internal/adapter/api/middleware"
	"talentlink/internal/adapter/api/router"
	"talentlink/internal/adapter/repository"
	"talentlink/internal/infrastructure/storage"
	"talentlink/internal/infrastructure/websocket"
	"talentlink/internal/usecase"
	"talentlink/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption
	credentialsPath := ""

	// Service account from environment variable (production) with a file
	// path fallback (local development).
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		credentialsPath = os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if credentialsPath == "" {
			credentialsPath = "./serviceAccountKey.json"
		}

		if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", credentialsPath)
		}

		log.Printf("Using Firebase service account from file: %s", credentialsPath)
		opt = option.WithCredentialsFile(credentialsPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	uploader, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, cfg.MaxUploadBytes, credentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer uploader.Close()

	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	callRepo := repository.NewFirestoreCallRepository(firestoreClient)

	wsManager := websocket.NewManager()

	chatUseCase := usecase.NewChatUseCase(conversationRepo, uploader, wsManager)
	callUseCase := usecase.NewCallUseCase(callRepo, conversationRepo, wsManager)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	chatHandler := handler.NewChatHandler(chatUseCase)
	callHandler := handler.NewCallHandler(callUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware, chatUseCase)
	healthHandler := handler.NewHealthHandler(firestoreClient)

	router.SetupChatRouter(e, chatHandler, authMiddleware)
	router.SetupCallRouter(e, callHandler, authMiddleware)
	router.SetupWebSocketRouter(e, wsHandler)
	router.SetupHealthRouter(e, healthHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
