package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ClareAI/astra-meeting-service/internal/adapters/chat"
	"github.com/ClareAI/astra-meeting-service/internal/adapters/llm"
	"github.com/ClareAI/astra-meeting-service/internal/adapters/video"
	"github.com/ClareAI/astra-meeting-service/internal/cache"
	"github.com/ClareAI/astra-meeting-service/internal/config"
	"github.com/ClareAI/astra-meeting-service/internal/core/task"
	"github.com/ClareAI/astra-meeting-service/internal/observability"
	"github.com/ClareAI/astra-meeting-service/internal/repository"
	"github.com/ClareAI/astra-meeting-service/internal/services/assistant"
	"github.com/ClareAI/astra-meeting-service/internal/services/connector"
	"github.com/ClareAI/astra-meeting-service/internal/services/pipeline"
	"github.com/ClareAI/astra-meeting-service/internal/webhook"
	"github.com/ClareAI/astra-meeting-service/pkg/logger"
	"github.com/ClareAI/astra-meeting-service/pkg/redis"
)

const agentCacheTTL = 5 * time.Minute

// HandlerManager creates and wires all handlers and services.
type HandlerManager struct {
	config  *config.Config
	repos   repository.Manager
	metrics *observability.Metrics

	webhookHandler *WebhookHandler
	agentHandler   *AgentHandler
	meetingHandler *MeetingHandler

	worker  *pipeline.Worker
	taskBus task.Bus
}

// NewHandlerManager initializes the database, Redis, adapters and all
// services, and returns a manager ready to register routes.
func NewHandlerManager(cfg *config.Config) (*HandlerManager, error) {
	db, err := repository.NewDatabaseConnection(repository.LoadDatabaseConfigFromEnv())
	if err != nil {
		logger.Base().Error("failed to connect to database", zap.Error(err))
		return nil, err
	}
	if err := repository.AutoMigrate(db); err != nil {
		logger.Base().Error("failed to run migrations", zap.Error(err))
		return nil, err
	}
	repos := repository.NewGormManager(db)

	// Redis backs the task bus and pipeline checkpoints. When it is not
	// reachable the service still runs, with in-process fallbacks that
	// only cover a single instance.
	redisSvc, err := redis.NewService(&redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Base().Warn("failed to initialize redis, using in-process task bus and checkpoints",
			zap.Error(err))
	}

	var taskBus task.Bus
	var checkpoints pipeline.CheckpointStore
	if redisSvc != nil {
		taskBus = task.NewRedisBus(redisSvc)
		checkpoints = pipeline.NewRedisCheckpointStore(redisSvc, cfg.CheckpointTTL)
		logger.Base().Info("redis task bus and checkpoint store initialized",
			zap.String("instance_id", cfg.InstanceID))
	} else {
		taskBus = task.NewLocalBus()
		checkpoints = pipeline.NewMemoryCheckpointStore()
	}

	metrics := observability.Default()

	rooms := video.NewHTTPService(cfg.CallProviderBaseURL, cfg.CallProviderAPIKey)
	chatSvc := chat.NewHTTPService(cfg.ChatProviderBaseURL, cfg.ChatProviderAPIKey)
	completions := llm.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)

	agentCache := cache.NewAgentCache(repos.Agents(), agentCacheTTL)
	conn := connector.New(agentCache, rooms)
	responder := assistant.New(repos, chatSvc, completions, cfg.AssistantModel)

	pipe := pipeline.New(repos, completions, cfg.SummarizeModel, checkpoints,
		&http.Client{Timeout: 60 * time.Second}, metrics, pipeline.Options{
			StepRetries:  cfg.PipelineStepRetries,
			RetryBackoff: cfg.PipelineRetryBackoff,
			LockTTL:      cfg.PipelineLockTTL,
		})
	worker := pipeline.NewWorker(pipe, taskBus)

	verifier := webhook.NewVerifier(cfg.WebhookSecret, cfg.WebhookAPIKey)
	webhookHandler := NewWebhookHandler(verifier, repos, conn, rooms, responder, taskBus, metrics)

	return &HandlerManager{
		config:         cfg,
		repos:          repos,
		metrics:        metrics,
		webhookHandler: webhookHandler,
		agentHandler:   NewAgentHandler(repos, agentCache),
		meetingHandler: NewMeetingHandler(repos),
		worker:         worker,
		taskBus:        taskBus,
	}, nil
}

// Start launches the background pipeline worker.
func (hm *HandlerManager) Start(ctx context.Context) error {
	if err := hm.worker.Start(ctx); err != nil {
		logger.Base().Error("failed to start pipeline worker", zap.Error(err))
		return err
	}
	logger.Base().Info("pipeline worker started")
	return nil
}

// SetupAllRoutes registers all routes with middleware.
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	router.Use(CORSMiddleware)
	router.Use(LoggingMiddleware)

	router.HandleFunc("/webhook", hm.webhookHandler.HandleWebhook).Methods("POST")

	hm.SetupAPIRoutes(router)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", hm.handleHealth).Methods("GET")

	router.PathPrefix("/").HandlerFunc(handleCORSPreflight).Methods("OPTIONS")

	logger.Base().Info("all application routes registered")
}

// SetupAPIRoutes registers the authenticated CRUD API.
func (hm *HandlerManager) SetupAPIRoutes(router *mux.Router) {
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(AuthMiddleware(hm.config.APIJWTSecret))

	apiRouter.HandleFunc("/agents", hm.agentHandler.Create).Methods("POST")
	apiRouter.HandleFunc("/agents", hm.agentHandler.List).Methods("GET")
	apiRouter.HandleFunc("/agents/{id}", hm.agentHandler.Get).Methods("GET")
	apiRouter.HandleFunc("/agents/{id}", hm.agentHandler.Update).Methods("PUT")
	apiRouter.HandleFunc("/agents/{id}", hm.agentHandler.Delete).Methods("DELETE")

	apiRouter.HandleFunc("/meetings", hm.meetingHandler.Create).Methods("POST")
	apiRouter.HandleFunc("/meetings", hm.meetingHandler.List).Methods("GET")
	apiRouter.HandleFunc("/meetings/{id}", hm.meetingHandler.Get).Methods("GET")
	apiRouter.HandleFunc("/meetings/{id}", hm.meetingHandler.Update).Methods("PUT")
	apiRouter.HandleFunc("/meetings/{id}", hm.meetingHandler.Delete).Methods("DELETE")
	apiRouter.HandleFunc("/meetings/{id}/cancel", hm.meetingHandler.Cancel).Methods("POST")

	logger.Base().Info("crud api routes registered")
}

// GetRepoManager returns the repository manager.
func (hm *HandlerManager) GetRepoManager() repository.Manager {
	return hm.repos
}

func (hm *HandlerManager) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := hm.repos.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"instance": hm.config.InstanceID,
	})
}

// handleCORSPreflight answers CORS preflight requests.
func handleCORSPreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, x-signature, x-api-key")
	w.WriteHeader(http.StatusOK)
}
