package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"family-tree-backend/internal/config"
	"family-tree-backend/internal/database"
	"family-tree-backend/internal/handlers"
	"family-tree-backend/internal/middleware"
	"family-tree-backend/internal/repository"
	"family-tree-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load environment from .env when present, then configuration
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize repositories
	memberRepo := repository.NewMemberRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	shareLinkRepo := repository.NewShareLinkRepository(db)
	layoutRepo := repository.NewLayoutRepository(db)
	knowledgeRepo := repository.NewKnowledgeRepository(db)

	// Initialize services
	eventHub := services.NewEventHub()
	storage, err := services.NewS3Storage(context.Background(), cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create object storage")
	}

	memberService := services.NewMemberService(memberRepo, eventHub)
	photoService := services.NewPhotoService(photoRepo, storage, eventHub)
	shareLinkService := services.NewShareLinkService(shareLinkRepo, eventHub)
	accessService := services.NewAccessService(shareLinkRepo, cfg.JWT.Secret)
	treeService := services.NewTreeService()
	layoutService := services.NewLayoutService(memberRepo, layoutRepo, eventHub)
	aiService := services.NewAIService(cfg.OpenAI, memberService, photoRepo, knowledgeRepo)

	// Initialize handlers
	memberHandler := handlers.NewMemberHandler(memberService)
	photoHandler := handlers.NewPhotoHandler(photoService, cfg.Upload.MaxPhotoMB)
	shareLinkHandler := handlers.NewShareLinkHandler(shareLinkService)
	sessionHandler := handlers.NewSessionHandler(accessService)
	treeHandler := handlers.NewTreeHandler(memberService, treeService)
	layoutHandler := handlers.NewLayoutHandler(layoutService, layoutRepo)
	knowledgeHandler := handlers.NewKnowledgeHandler(knowledgeRepo)
	aiHandler := handlers.NewAIHandler(aiService, cfg.Upload.MaxImageMB)
	wsHandler := handlers.NewWebSocketHandler(eventHub)
	healthHandler := handlers.NewHealthHandler(db)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.ShareTokenHeader},
	}).Handler)
	r.Use(middleware.Metrics)
	r.Use(middleware.ResolveCapability(accessService))

	// Routes
	r.Route("/api", func(r chi.Router) {
		// The session endpoint resolves access itself so the counter
		// increments exactly once per page load.
		r.Post("/session", sessionHandler.Resolve)

		// Viewer routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireView)
			r.Get("/members", memberHandler.List)
			r.Get("/members/{id}", memberHandler.Get)
			r.Get("/members/{id}/ancestors", treeHandler.Ancestors)
			r.Get("/members/{id}/descendants", treeHandler.Descendants)
			r.Get("/tree", treeHandler.Get)
			r.Get("/layout", layoutHandler.GetMerged)
			r.Get("/tree-layouts", layoutHandler.ListRecords)
			r.Get("/photos", photoHandler.List)
			r.Get("/knowledge-documents", knowledgeHandler.List)
			r.Post("/ai/chat", aiHandler.Chat)
			r.Post("/ai/transcribe", aiHandler.Transcribe)
		})

		// Editor routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireEdit)
			r.Post("/members", memberHandler.Create)
			r.Put("/members/{id}", memberHandler.Update)
			r.Delete("/members/{id}", memberHandler.Delete)
			r.Put("/layout", layoutHandler.Save)
			r.Post("/tree-layouts", layoutHandler.CreateRecord)
			r.Put("/tree-layouts/{id}", layoutHandler.UpdateRecord)
			r.Delete("/tree-layouts/{id}", layoutHandler.DeleteRecord)
			r.Post("/photos", photoHandler.Upload)
			r.Put("/photos/{id}", photoHandler.Update)
			r.Delete("/photos/{id}", photoHandler.Delete)
			r.Post("/ai/analyze", aiHandler.AnalyzeImage)
			r.Post("/ai/generate-portrait", aiHandler.GeneratePortrait)
		})

		// Owner routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOwner)
			r.Get("/share-links", shareLinkHandler.List)
			r.Post("/share-links", shareLinkHandler.Create)
			r.Put("/share-links/{id}", shareLinkHandler.Update)
			r.Delete("/share-links/{id}", shareLinkHandler.Delete)
		})
	})

	// WebSocket route checks the capability itself on the upgrade request
	r.Get("/ws", wsHandler.Serve)

	r.Get("/health", healthHandler.Check)
	r.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
