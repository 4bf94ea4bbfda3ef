package main

import (
	"net/http"
	"os"
	"time"

	"sellerdesk-automation-api/internal/api"
	"sellerdesk-automation-api/internal/automation"
	"sellerdesk-automation-api/internal/database"
	"sellerdesk-automation-api/internal/logger"
	"sellerdesk-automation-api/internal/store"
	"sellerdesk-automation-api/internal/worker"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration (.env)
	_ = godotenv.Load()

	// 2. Initialize logger
	log, err := logger.NewLogger()
	if err != nil {
		panic("Could not initialize logger: " + err.Error()) // Can't log if logger fails
	}
	defer log.Sync()

	// 3. Connect to the database
	pool, err := database.ConnectDB(log)
	if err != nil {
		log.Error("could not connect to the database", zap.Error(err))
		return
	}
	defer pool.Close()

	// 4. Apply migrations
	if err := database.RunMigrations(os.Getenv("DATABASE_URL"), log); err != nil {
		log.Error("database migrations failed", zap.Error(err))
		return
	}

	// 5. Initialize the store layer
	dbStore := store.NewStore(pool, log)

	// 6. Wire the automation engine. The delivery channel is a logging stub
	// until a real email/marketplace transport is configured.
	channel := automation.NewLoggingChannel(log)
	engine := automation.NewOrchestrator(dbStore, dbStore, dbStore, dbStore, channel, log)

	// 7. Start the background worker
	appWorker := worker.NewWorker(dbStore, engine, log)
	appWorker.Start()
	defer appWorker.Stop()

	// 8. Initialize and start the API server
	apiServer := api.NewServer(dbStore, engine, log)

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	log.Info("starting API server", zap.String("port", port), zap.String("component", "main"))

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      apiServer.Router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("could not start server", zap.Error(err))
	}
}
