package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"concierge/internal/catalog"
	"concierge/internal/config"
	"concierge/internal/handler"
	"concierge/internal/metrics"
	"concierge/internal/repository"
	"concierge/internal/service"
	"concierge/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Print version info
	log.Printf("Harbour Concierge")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(cfg.Server.GinMode)
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)
	m := metrics.New()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}()

	// Catalog
	cat, pg, err := openCatalog(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	if pg != nil {
		closers = append(closers, pg)
	}

	// Lead profile store
	kv, err := openKeyValue(cfg)
	if err != nil {
		log.Fatalf("Failed to open profile store: %v", err)
	}
	if c, ok := kv.(io.Closer); ok {
		closers = append(closers, c)
	}

	// Lead intake
	intake, err := openLeadIntake(ctx, cfg, pg, logger)
	if err != nil {
		log.Fatalf("Failed to open lead intake: %v", err)
	}
	if c, ok := intake.(io.Closer); ok {
		closers = append(closers, c)
	}

	// Initialize services
	calculator := service.NewMortgageCalculator(cfg.Mortgage)
	listings := service.NewListingService(cat, service.NewDefaultRanker(), calculator, cfg.Catalog, m)
	sessions := service.NewSessionManager(
		service.NewIntentClassifier(service.NewTimeSeededRand()),
		service.NewLeadExtractor(),
		service.NewProfileStore(kv, cfg.Profile.StorageKey),
		intake,
		cfg.Chat,
		service.WithLogger(logger),
		service.WithMetrics(m),
	)
	defer sessions.CloseAll()

	log.Println("✅ Services initialized")

	// Initialize handlers
	handlers := &handler.Handlers{
		Listings:   handler.NewListingHandler(listings),
		Embeddings: handler.NewEmbeddingHandler(listings),
		Sessions:   handler.NewSessionHandler(sessions, listings, time.Duration(cfg.Chat.ReplyWait)*time.Second),
		Leads:      handler.NewLeadHandler(sessions),
		Voice:      handler.NewVoiceHandler(sessions, cfg.Voice.Enabled, cfg.Voice.Lang, logger, m),
	}

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitList(cfg.Server.AllowedOrigins)
	corsConfig.AllowMethods = splitList(cfg.Server.AllowedMethods)
	corsConfig.AllowHeaders = splitList(cfg.Server.AllowedHeaders)
	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "concierge",
			"catalog":    cfg.Catalog.Backend,
			"sessions":   sessions.Count(),
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	router.GET("/metrics", gin.WrapH(m.Handler()))

	// API routes
	handlers.Register(router.Group("/api/v1"))

	// Serve static files (frontend)
	// This function is implemented in embed.go (production) or static_dev.go (development)
	setupStaticFiles(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("🛑 Shutting down server...")
		sessions.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️  Shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 API: http://localhost:%d/api/v1", cfg.Server.Port)
	log.Printf("🌐 Web UI: http://localhost:%d", cfg.Server.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Println("✅ Server stopped")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// openCatalog returns the configured catalog and, for postgres, the
// repository so its connection can be shared and closed
func openCatalog(ctx context.Context, cfg *config.Config) (catalog.Catalog, *repository.PostgresCatalog, error) {
	if cfg.Catalog.Backend != "postgres" {
		cat, err := catalog.NewSeedCatalog()
		if err != nil {
			return nil, nil, err
		}
		log.Printf("✅ Loaded in-memory catalog (%d listings)", len(cat.All()))
		return cat, nil, nil
	}

	repo, err := repository.NewPostgresCatalog(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return nil, nil, err
	}
	properties, neighborhoods, err := catalog.Seed()
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	if err := repo.Seed(ctx, properties, neighborhoods); err != nil {
		repo.Close()
		return nil, nil, err
	}
	log.Println("✅ Connected to PostgreSQL catalog")
	return repo, repo, nil
}

func openKeyValue(cfg *config.Config) (storage.KeyValue, error) {
	if cfg.Profile.Backend != "redis" {
		log.Println("✅ Using in-memory profile store")
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.NewRedisStore(cfg.Redis.URL, cfg.Redis.KeyPrefix)
	if err != nil {
		return nil, err
	}
	log.Println("✅ Connected to Redis profile store")
	return store, nil
}

func openLeadIntake(ctx context.Context, cfg *config.Config, pg *repository.PostgresCatalog, logger *slog.Logger) (service.LeadIntake, error) {
	switch cfg.Leads.Backend {
	case "http":
		log.Printf("✅ Forwarding leads to %s", cfg.Leads.IntakeURL)
		return service.NewHTTPLeadIntake(cfg.Leads.IntakeURL,
			service.WithTimeout(time.Duration(cfg.Leads.Timeout)*time.Second)), nil
	case "log":
		log.Println("⚠️  Leads are only logged")
		return service.NewLogLeadIntake(logger), nil
	}

	if cfg.Leads.DBDriver == "postgres" {
		if pg != nil {
			log.Println("✅ Storing leads in the catalog database")
			return repository.NewLeadRepositoryWithDB(ctx, pg.DB())
		}
		return repository.NewLeadRepository(ctx, "postgres", cfg.GetPostgreSQLDSN())
	}
	log.Printf("✅ Storing leads in %s (%s)", cfg.Leads.DBDSN, cfg.Leads.DBDriver)
	return repository.NewLeadRepository(ctx, cfg.Leads.DBDriver, cfg.Leads.DBDSN)
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
