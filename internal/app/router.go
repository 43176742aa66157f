package app

import (
	"fmt"
	"log"
	"time"

	"ranklist/internal/config"
	"ranklist/internal/middleware"
	"ranklist/internal/model"
	"ranklist/internal/repository"
	"ranklist/internal/service"
	"ranklist/internal/util"
	"ranklist/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	// Set Gin mode
	if cfg.ServerPort == "5000" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware(cfg.ClientURL))

	// Rate limiting middleware (if enabled)
	if cfg.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
		log.Printf("Rate limiting enabled: %d req/sec, burst: %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}

	// Auto migrate
	if err := db.AutoMigrate(&model.User{}, &model.Category{}, &model.Ranking{}, &model.RankingItem{}, &model.Comment{}, &model.Reaction{}); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// Fix incorrect foreign key constraints for the polymorphic reactions table.
	// GORM may create foreign key constraints on target_id during AutoMigrate,
	// but target_id can reference rankings, comments or ranking items.
	fixReactionsTableConstraints(db)

	// Initialize Redis with retry logic
	redisClient := initRedisWithRetry(cfg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	rankingRepo := repository.NewRankingRepository(db, redisClient)
	commentRepo := repository.NewCommentRepository(db, redisClient)
	reactionRepo := repository.NewReactionRepository(db, redisClient)

	// Initialize RabbitMQ with retry logic
	rabbitMQ := initRabbitMQWithRetry(cfg)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("WebSocket hub started")

	// Initialize event publisher and worker
	eventPublisher := service.NewEventPublisher(rabbitMQ, wsHub)
	if rabbitMQ != nil {
		eventWorker := service.NewEventWorker(rabbitMQ, wsHub)
		if err := eventWorker.Start(); err != nil {
			log.Printf("Warning: Failed to start event worker: %v", err)
		} else {
			log.Println("Event worker started successfully")
		}
	} else {
		log.Println("Event worker not started - RabbitMQ connection failed. Events will be sent directly via WebSocket.")
	}

	// Initialize services
	rankingService := service.NewRankingService(rankingRepo, categoryRepo, userRepo)
	commentService := service.NewCommentService(commentRepo, rankingRepo, reactionRepo, eventPublisher)
	reactionService := service.NewReactionService(reactionRepo, rankingRepo, commentRepo, eventPublisher)
	discoverService := service.NewDiscoverService(rankingRepo, nil)

	// Initialize handlers
	rankingHandler := NewRankingHandler(rankingService)
	discoverHandler := NewDiscoverHandler(discoverService)
	commentHandler := NewCommentHandler(commentService)
	reactionHandler := NewReactionHandler(reactionService)

	requireAuth := middleware.RequireAuth(cfg.JWTSecret)
	optionalAuth := middleware.OptionalAuth(cfg.JWTSecret)

	// API routes
	api := r.Group("/api/v1")
	{
		// Ranking routes
		rankings := api.Group("/rankings")
		{
			// Public routes
			// IMPORTANT: More specific routes must be registered before wildcard routes
			rankings.GET("/featured", discoverHandler.Featured)
			rankings.GET("/trending", discoverHandler.Trending)
			rankings.GET("/:id/comments", commentHandler.List)
			rankings.GET("/:id", rankingHandler.Get)
			rankings.GET("", rankingHandler.List)

			// Protected routes
			rankings.POST("", requireAuth, rankingHandler.Create)
			rankings.POST("/:id/comments", requireAuth, commentHandler.Create)
		}

		// Category routes
		api.GET("/categories", rankingHandler.ListCategories)

		// Comment routes
		comments := api.Group("/comments")
		comments.Use(requireAuth)
		{
			comments.DELETE("/:id", commentHandler.Delete)
			comments.POST("/:id/like", reactionHandler.ToggleCommentLike)
		}

		// Reaction routes
		reactions := api.Group("/reactions")
		{
			reactions.GET("", optionalAuth, reactionHandler.List)
			reactions.POST("", requireAuth, reactionHandler.Toggle)
		}
	}

	// WebSocket route
	r.GET("/ws", func(c *gin.Context) {
		websocket.ServeWS(wsHub, cfg.JWTSecret).ServeHTTP(c.Writer, c.Request)
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = "host=" + cfg.PostgresHost +
			" port=" + cfg.PostgresPort +
			" user=" + cfg.PostgresUser +
			" password=" + cfg.PostgresPassword +
			" dbname=" + cfg.PostgresDB +
			" sslmode=" + cfg.PostgresSSLMode
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// initRabbitMQWithRetry attempts to connect to RabbitMQ with exponential backoff retry
func initRabbitMQWithRetry(cfg *config.Config) *util.RabbitMQClient {
	maxRetries := 10
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		rabbitMQ, err := util.NewRabbitMQClient(cfg)
		if err == nil {
			log.Printf("RabbitMQ connected successfully on attempt %d", attempt)
			return rabbitMQ
		}

		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}

			log.Printf("Failed to connect to RabbitMQ (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to RabbitMQ after %d attempts: %v. Event fan-out will fall back to direct WebSocket delivery.", maxRetries, err)
		}
	}

	return nil
}

// initRedisWithRetry attempts to connect to Redis with exponential backoff retry
func initRedisWithRetry(cfg *config.Config) *util.RedisClient {
	maxRetries := 10
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		redisClient, err := util.NewRedisClient(cfg)
		if err == nil {
			log.Printf("Redis connected successfully on attempt %d", attempt)
			return redisClient
		}

		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}

			log.Printf("Failed to connect to Redis (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to Redis after %d attempts: %v. Caching will be disabled.", maxRetries, err)
			log.Println("Note: Application will continue without Redis caching")
		}
	}

	return nil
}

// fixReactionsTableConstraints removes incorrect foreign key constraints from the
// reactions table. Since reactions.target_id is polymorphic, we cannot have a
// foreign key constraint on it. GORM may create such constraints during AutoMigrate.
func fixReactionsTableConstraints(db *gorm.DB) {
	query := `
		SELECT constraint_name
		FROM information_schema.table_constraints
		WHERE table_name = 'reactions'
		AND constraint_type = 'FOREIGN KEY'
		AND constraint_name IN (
			SELECT constraint_name
			FROM information_schema.key_column_usage
			WHERE table_name = 'reactions'
			AND column_name = 'target_id'
		)
	`

	var constraints []struct {
		ConstraintName string `gorm:"column:constraint_name"`
	}

	if err := db.Raw(query).Scan(&constraints).Error; err != nil {
		log.Printf("Warning: Failed to query foreign key constraints on reactions table: %v", err)
		return
	}

	for _, constraint := range constraints {
		dropQuery := fmt.Sprintf("ALTER TABLE reactions DROP CONSTRAINT IF EXISTS %s", constraint.ConstraintName)
		if err := db.Exec(dropQuery).Error; err != nil {
			log.Printf("Warning: Failed to drop constraint %s: %v", constraint.ConstraintName, err)
		} else {
			log.Printf("Dropped incorrect foreign key constraint: %s", constraint.ConstraintName)
		}
	}

	// Also try to drop known constraint names that might exist
	knownConstraints := []string{
		"reactions_target_id_fkey",
		"fk_reactions_rankings",
		"fk_reactions_comments",
		"fk_reactions_ranking_items",
	}

	for _, constraintName := range knownConstraints {
		dropQuery := fmt.Sprintf("ALTER TABLE reactions DROP CONSTRAINT IF EXISTS %s", constraintName)
		if err := db.Exec(dropQuery).Error; err != nil {
			log.Printf("Note: Constraint %s does not exist or already dropped", constraintName)
		}
	}
}

func corsMiddleware(clientURL string) gin.HandlerFunc {
	// Allowed origins (whitelist)
	allowedOrigins := []string{
		clientURL, // Default from config
		"http://localhost:3000",
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is in whitelist
		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin {
				allowed = true
				break
			}
		}

		// If origin is allowed, set it; otherwise, use default
		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", clientURL)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
