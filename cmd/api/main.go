// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/capitalize-ai/multilingual-assistant/internal/config"
	"github.com/capitalize-ai/multilingual-assistant/internal/handler"
	"github.com/capitalize-ai/multilingual-assistant/internal/llm"
	"github.com/capitalize-ai/multilingual-assistant/internal/middleware"
	natsclient "github.com/capitalize-ai/multilingual-assistant/internal/nats"
	"github.com/capitalize-ai/multilingual-assistant/internal/prompt"
	"github.com/capitalize-ai/multilingual-assistant/internal/search"
	"github.com/capitalize-ai/multilingual-assistant/internal/service"
	"github.com/capitalize-ai/multilingual-assistant/internal/voice"
	"github.com/capitalize-ai/multilingual-assistant/pkg/logger"
	"github.com/capitalize-ai/multilingual-assistant/pkg/tracing"
)

const serviceName = "multilingual-assistant"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server", zap.String("provider", cfg.LLMProvider))

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, serviceName, cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Initialize the generation client
	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		log.Fatal("failed to create generation client", zap.Error(err))
	}
	generator = llm.Instrument(generator, log)

	// NATS carries the speech bridge and the turn feed; both are optional.
	var (
		natsClient  *natsclient.Client
		publisher   service.TurnPublisher
		recognizer  voice.Recognizer  = voice.Unavailable{}
		synthesizer voice.Synthesizer = voice.Unavailable{}
	)
	if cfg.NATSEnabled {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
			Name:     serviceName,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		feed := natsclient.NewTurnFeed(natsClient)
		if err := feed.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		publisher = feed

		bridge := voice.NewNATSBridge(natsClient.Conn(), cfg.SpeechTimeout)
		recognizer, synthesizer = bridge, bridge
	}

	voiceSvc := voice.NewService(recognizer, synthesizer, log)
	initCtx, cancelInit := context.WithTimeout(ctx, cfg.SpeechTimeout)
	if err := voiceSvc.Initialize(initCtx); err != nil {
		log.Warn("speech voices unavailable", zap.Error(err))
	}
	cancelInit()

	// Initialize services
	conversationSvc := service.NewConversationService(service.Dependencies{
		Generator: generator,
		Composer: prompt.NewComposer(prompt.Params{
			ChatTemperature:   cfg.ChatTemperature,
			FileTemperature:   cfg.FileTemperature,
			SearchTemperature: cfg.SearchTemperature,
			TopP:              cfg.TopP,
			TopK:              cfg.TopK,
			MaxOutputTokens:   cfg.MaxOutputTokens,
		}),
		Searcher:  search.NewPlaceholder(),
		Voice:     voiceSvc,
		Publisher: publisher,
		Options: service.Options{
			HistoryWindow:  cfg.HistoryWindow,
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
	}, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient, generator.Name())
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	messageHandler := handler.NewMessageHandler(conversationSvc, handler.UploadLimits{
		MaxFiles:     cfg.MaxUploadFiles,
		MaxFileBytes: cfg.MaxUploadBytes,
	}, log)
	streamHandler := handler.NewStreamHandler(conversationSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/languages", handler.Languages)

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.RequireConversationID)

				r.Get("/", conversationHandler.Get)
				r.Delete("/", conversationHandler.Delete)
				r.Get("/turns", conversationHandler.Turns)

				// Streaming
				r.Get("/stream", streamHandler.Stream)

				// Turn cycles
				r.Group(func(r chi.Router) {
					r.Use(middleware.ConversationRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

					r.Post("/messages", messageHandler.Send)
					r.Post("/files", messageHandler.Upload)
					r.Get("/files", messageHandler.ListFiles)
					r.Delete("/files/{name}", messageHandler.RemoveFile)
					r.Post("/search", messageHandler.Search)
					r.Post("/voice", messageHandler.Voice)
					r.Post("/voice/stop", messageHandler.StopVoice)
					r.Post("/speech", messageHandler.Speech)
				})
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func newGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	provider := llm.Provider(cfg.LLMProvider)

	opts := llm.Options{}
	switch provider {
	case llm.ProviderOpenAI:
		opts.APIKey, opts.Model = cfg.OpenAIAPIKey, cfg.OpenAIModel
	case llm.ProviderAnthropic:
		opts.APIKey, opts.Model = cfg.AnthropicAPIKey, cfg.AnthropicModel
	default:
		opts.APIKey, opts.Model, opts.BaseURL = cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiAPIURL
	}

	return llm.NewClient(ctx, provider, opts)
}
