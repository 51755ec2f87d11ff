package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-generator-backend/internal/config"
	"catalog-generator-backend/internal/database"
	"catalog-generator-backend/internal/handlers"
	"catalog-generator-backend/internal/middleware"
	"catalog-generator-backend/internal/n8n"
	"catalog-generator-backend/internal/services"
	"catalog-generator-backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Run migrations before anything touches the schema.
	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(); err != nil {
		migrator.Close()
		log.Fatalf("Migration failed: %v", err)
	}
	migrator.Close()

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database client: %v", err)
	}
	defer dbClient.Close()

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}
	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	n8nClient := n8n.NewClient(cfg.N8NWebhookBaseURL, n8n.Webhooks{
		LogoProcessing: cfg.N8NLogoProcessingWebhook,
		PageGenerator:  cfg.N8NPageGeneratorWebhook,
		PDFAssembly:    cfg.N8NPDFAssemblyWebhook,
	}, cfg.StageTimeout, cfg.StageMaxRetries, cfg.StageRetryBase)

	catalogService := services.NewCatalogService(
		dbClient, storageClient, n8nClient, realtimeClient,
		cfg.MaxLogoBytes, cfg.StaleJobTimeout,
	)

	// Fail jobs orphaned by a previous crash, then keep sweeping.
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go catalogService.StartReaper(reaperCtx)

	catalogHandler := handlers.NewCatalogHandler(catalogService, cfg.MaxLogoBytes)
	jobsHandler := handlers.NewJobsHandler(catalogService)
	templatesHandler := handlers.NewTemplatesHandler(dbClient)

	router := gin.Default()

	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api/v1")

	api.POST("/catalogs", catalogHandler.Generate)

	api.GET("/jobs/:job_id", jobsHandler.GetJob)
	api.GET("/jobs/:job_id/pages", jobsHandler.GetJobPages)

	api.GET("/templates", templatesHandler.List)
	api.GET("/templates/grouped", templatesHandler.ListGrouped)
	api.GET("/templates/:item_name/:color", templatesHandler.Get)

	// Template registration is an operator action.
	admin := api.Group("")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.POST("/templates", templatesHandler.Create)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
