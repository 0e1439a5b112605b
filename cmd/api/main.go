package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/finsight/finance-service/internal/config"
	"github.com/finsight/finance-service/internal/handler"
	"github.com/finsight/finance-service/internal/middleware"
	"github.com/finsight/finance-service/internal/repository"
	"github.com/finsight/finance-service/internal/service"
	"github.com/finsight/finance-service/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	var notifier service.Notifier
	if cfg.NotificationsEnabled() {
		notifier = email.NewSender(cfg, logger)
	}
	svc := service.NewService(repo, logger, notifier)
	h := handler.NewHandler(svc)

	// Scheduled detection runs
	if cfg.DetectionSchedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.DetectionSchedule, func() {
			created, err := svc.RunAnomalyDetection()
			if err != nil {
				logger.Errorf("Scheduled fraud check failed: %v", err)
				return
			}
			logger.Infof("Scheduled fraud check complete: %d new alerts", created)
		}); err != nil {
			logger.Fatalf("Invalid detection schedule %q: %v", cfg.DetectionSchedule, err)
		}
		c.Start()
		defer c.Stop()
	}

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/fraud-alerts", h.RunFraudCheck).Methods("POST")
	authRouter.HandleFunc("/fraud-alerts", h.ListFraudAlerts).Methods("GET")
	authRouter.HandleFunc("/fraud-alerts/{id}", h.ResolveFraudAlert).Methods("PUT")
	authRouter.HandleFunc("/daily-transactions", h.DailyTransactions).Methods("GET")
	authRouter.HandleFunc("/expense-forecast", h.ExpenseForecast).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
