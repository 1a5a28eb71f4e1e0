package bootstrap

import (
	"context"
	"log"
	"os"

	"medibuddy-be/internal/config"
	"medibuddy-be/internal/controller"
	"medibuddy-be/internal/handler"
	"medibuddy-be/internal/pkg/logger"
	"medibuddy-be/internal/pkg/mailer"
	"medibuddy-be/internal/pkg/serverutils"
	"medibuddy-be/internal/repository/implementation"
	"medibuddy-be/internal/repository/memory"
	"medibuddy-be/internal/repository/unitofwork"
	"medibuddy-be/internal/service"
	"medibuddy-be/internal/websocket"
	"medibuddy-be/pkg/calendar"
	"medibuddy-be/pkg/embedding"
	"medibuddy-be/pkg/embedding/jina"
	"medibuddy-be/pkg/extraction"
	"medibuddy-be/pkg/llm/factory"
	pktNats "medibuddy-be/pkg/nats"
	"medibuddy-be/pkg/rag/answer"
	"medibuddy-be/pkg/rag/graph"
	"medibuddy-be/pkg/rag/history"
	"medibuddy-be/pkg/rag/retrieval"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController         controller.IAuthController
	PrescriptionController controller.IPrescriptionController
	ChatController         controller.IChatController
	ReminderController     controller.IReminderController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	serverutils.SetJwtSecret(cfg.Jwt.Secret)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmAPIKey := cfg.Keys.GoogleGemini
	llmBaseURL := cfg.Ai.LLMBaseURL
	switch cfg.Ai.LLMProvider {
	case "huggingface":
		llmAPIKey = cfg.Keys.HuggingFace
	case "ollama":
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL,
		llmAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	extractor := extraction.NewExtractor(llmProvider)

	// In-memory per-user view state
	viewStateRepo := memory.NewViewStateRepository()

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		sysLogger.Warn("Bootstrap", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Retrieval Pipeline
	ragLogger := log.New(os.Stdout, "", log.LstdFlags)

	searcher := service.NewChunkSearcher(uowFactory)
	retrieverCfg := retrieval.DefaultConfig()
	retrieverCfg.TopK = cfg.Rag.TopK
	retriever := retrieval.NewRetriever(embeddingProvider, searcher, retrieverCfg, ragLogger)
	generator := answer.NewGenerator(llmProvider, 0, ragLogger)

	engine, err := graph.NewEngine(context.Background(), retriever, generator, ragLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to compile chat graph: %v", err)
	}

	historyLoader := history.NewLoader(uowFactory)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.EmbedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.EmbedTopic,
		uowFactory,
		embeddingProvider,
		natsPub,
	)

	authService := service.NewAuthService(uowFactory, emailService, natsPub, cfg.Jwt.Secret, cfg.Jwt.ExpiryHours)
	prescriptionService := service.NewPrescriptionService(uowFactory, extractor, publisherService, viewStateRepo)
	chatService := service.NewChatService(uowFactory, engine, historyLoader, cfg.Rag.HistoryLimit, viewStateRepo)

	calendarManager := calendar.NewManager(cfg.Calendar.CredentialsPath, cfg.Calendar.TokenPath)
	reminderService := service.NewReminderService(uowFactory, calendarManager, natsPub)

	// 7. Notification System
	notifRepo := implementation.NewNotificationRepository(db)
	notifService := service.NewNotificationService(notifRepo, natsSub, wsHub, wsLogger)

	if natsSub != nil {
		go notifService.Start()
	}

	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	// 8. Controllers
	return &Container{
		AuthController:         controller.NewAuthController(authService),
		PrescriptionController: controller.NewPrescriptionController(prescriptionService),
		ChatController:         controller.NewChatController(chatService),
		ReminderController:     controller.NewReminderController(reminderService),

		ConsumerService: consumerService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}
}
