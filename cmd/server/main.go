package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fside/backend/api/handlers"
	"github.com/fside/backend/internal/db"
	"github.com/fside/backend/internal/eventlog"
	"github.com/fside/backend/internal/hub"
	"github.com/fside/backend/internal/project"
	"github.com/fside/backend/internal/repository"
	"github.com/fside/backend/internal/ws"
)

func main() {
	// Get configuration from environment
	port := getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", "data/fside.db")
	logDir := getEnv("LOG_DIR", "data/logs")
	tailSize := getEnvInt("CHAT_TAIL_SIZE", hub.DefaultTailSize)
	idleGrace := getEnvDuration("SESSION_IDLE_GRACE", hub.DefaultIdleGrace)

	// Ensure data directories exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(database)
	chatRepo := repository.NewChatRepository(database)

	// Initialize project service
	projectService := project.NewService(projectRepo)

	// Initialize hub manager with the durable chat log and per-project
	// event recording
	hubManager := hub.NewManager(hub.Config{
		TailSize:  tailSize,
		IdleGrace: idleGrace,
		ChatLog:   chatRepo,
		EventLogFactory: func(projectID string) (hub.EventRecorder, error) {
			return eventlog.NewLogger(filepath.Join(logDir, projectID+".jsonl"), projectID)
		},
	})
	defer hubManager.Close()

	// Initialize the session gateway
	gateway := ws.NewGateway(hubManager, projectService)

	// Initialize handlers
	projectHandler := handlers.NewProjectHandler(projectService)
	collabHandler := handlers.NewCollaborationHandler(projectService, gateway, chatRepo)

	// Initialize Gin router
	r := gin.Default()

	// Enable CORS for development
	r.Use(corsMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		projectHandler.RegisterRoutes(api)
		collabHandler.RegisterRoutes(api)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down server...")
		hubManager.Close()
		db.CloseDB()
		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting server on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid value for %s, using default %s", key, defaultValue)
	}
	return defaultValue
}

// corsMiddleware returns a CORS middleware for development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
