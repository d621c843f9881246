package main

import (
	stdlog "log"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/fraudstream/backend/src/config"
	"github.com/username/fraudstream/backend/src/database"
	"github.com/username/fraudstream/backend/src/generator"
	"github.com/username/fraudstream/backend/src/handlers"
	"github.com/username/fraudstream/backend/src/logger"
	"github.com/username/fraudstream/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter *rate.Limiter

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// The generator feed is an open testing API with no auth, so CORS is
// wide open.
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Fraudstream transaction API starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing export job cache...")
	jobCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	logger.L.Info("Initializing services and handlers...")
	gen := generator.New(nil, nil)
	streamService := services.NewStreamService(gen)
	exportService := services.NewExportService(gen, jobCache, config.Cfg.ExportDir, config.Cfg.MaxExportRows)

	txHandler := handlers.NewTransactionHandler(gen, config.Cfg.MaxBatchSize)
	streamHandler := handlers.NewStreamHandler(streamService)
	exportHandler := handlers.NewExportHandler(exportService)

	logger.L.Info("Configuring routes...")
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", streamHandler.HandleRoot)

	mux.HandleFunc("GET /api/config", streamHandler.HandleGetConfig)
	mux.HandleFunc("POST /api/config", streamHandler.HandleUpdateConfig)

	mux.HandleFunc("GET /api/transaction", txHandler.HandleGetTransaction)
	mux.HandleFunc("GET /api/transactions/{count}", txHandler.HandleGetTransactionsBatch)

	mux.HandleFunc("GET /api/stream", streamHandler.HandleStream)
	mux.HandleFunc("POST /api/stream/start", streamHandler.HandleStart)
	mux.HandleFunc("POST /api/stream/stop", streamHandler.HandleStop)
	mux.HandleFunc("GET /api/status", streamHandler.HandleStatus)

	mux.HandleFunc("POST /api/export", exportHandler.HandleExport)
	mux.HandleFunc("GET /api/export/{id}", exportHandler.HandleGetExport)
	mux.HandleFunc("GET /api/exports", exportHandler.HandleListExports)

	logger.L.Info("Applying global middleware...")
	limiter = rate.NewLimiter(rate.Limit(config.Cfg.RateLimitPerSecond), config.Cfg.RateLimitBurst)
	finalHandler := enableCORS(rateLimitMiddleware(mux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     finalHandler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /api/stream holds its connection open for the
		// lifetime of the SSE session.
		IdleTimeout: 60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
