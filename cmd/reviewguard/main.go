package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/reviewguard/reviewguard/internal/analysis"
	"github.com/reviewguard/reviewguard/internal/classifier"
	"github.com/reviewguard/reviewguard/internal/config"
	"github.com/reviewguard/reviewguard/internal/export"
	"github.com/reviewguard/reviewguard/internal/models"
	"github.com/reviewguard/reviewguard/internal/notifications"
	"github.com/reviewguard/reviewguard/internal/page"
	"github.com/reviewguard/reviewguard/internal/pipeline"
	"github.com/reviewguard/reviewguard/internal/storage"
	"github.com/reviewguard/reviewguard/internal/watch"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting ReviewGuard")

	// Initialize storage backend
	backend, err := newStorageBackend(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	settings := storage.NewSettings(backend)

	// The persisted API key wins over the environment one, matching how the
	// key was managed before.
	apiKey := cfg.GeminiAPIKey
	if values, err := settings.Get([]string{storage.KeyAPIKey}); err == nil {
		if stored, ok := values[storage.KeyAPIKey]; ok && stored != "" {
			apiKey = stored
		}
	}

	selectors := page.DefaultSelectors()
	fetcher := page.NewFetcher(cfg.FetchTimeout, time.Second)
	watcher := watch.NewService(cfg, fetcher, selectors)

	classifierService := classifier.NewHTTPService(cfg.ClassifierURL, apiKey, cfg.ClassifierTimeout)
	cache := analysis.NewCache(cfg.CacheTTL, cfg.CacheCapacity)
	status := pipeline.NewTransientStatus(10 * time.Second)
	annotator := page.NewVerdictAnnotator(selectors)

	orchestrator := pipeline.NewOrchestrator(cfg, watcher, classifierService, cache, annotator, status, pipeline.NewClock(), selectors)
	watcher.Bind(orchestrator)

	notificationService := notifications.NewService(cfg)
	exportService := export.NewService(backend)

	orchestrator.SetReportHandler(func(report *models.AnalysisReport) {
		go func() {
			if settings.GetBool(storage.KeyAutoUpload, cfg.AutoUpload) {
				if _, err := exportService.ExportCSV(report); err != nil {
					logrus.Errorf("Failed to export CSV: %v", err)
				}
				if _, err := exportService.ExportReport(report); err != nil {
					logrus.Errorf("Failed to export report: %v", err)
				}
			}
			if err := notificationService.SendReport(report); err != nil {
				logrus.Errorf("Failed to send notifications: %v", err)
			}
		}()
	})

	if settings.GetBool(storage.KeyAutoExtract, cfg.AutoExtract) {
		if err := watcher.Start(); err != nil {
			logrus.Fatalf("Failed to start watcher: %v", err)
		}
		defer watcher.Stop()
	} else {
		logrus.Info("Auto-extract disabled, waiting for manual triggers")
	}

	// Set up HTTP server
	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(orchestrator)).Methods("GET")
	router.HandleFunc("/trigger", triggerHandler(orchestrator)).Methods("POST")
	router.HandleFunc("/results", resultsHandler(orchestrator, status)).Methods("GET")
	router.HandleFunc("/reset", resetHandler(orchestrator)).Methods("POST")
	router.HandleFunc("/export", exportHandler(orchestrator, exportService)).Methods("POST")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func newStorageBackend(cfg *config.Config) (storage.StorageInterface, error) {
	if cfg.StorageBackend == "azure" {
		return storage.NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
	}
	return storage.NewLocalStorage(cfg.LocalStoragePath)
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func metricsHandler(orchestrator *pipeline.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(orchestrator.GetMetrics()))
	}
}

func triggerHandler(orchestrator *pipeline.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orchestrator.TriggerManual()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Extraction pass triggered"}`))
	}
}

func resultsHandler(orchestrator *pipeline.Orchestrator, status *pipeline.TransientStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]interface{}{
			"state":   orchestrator.State().String(),
			"error":   status.Current(),
			"records": orchestrator.Records(),
			"results": orchestrator.Results(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logrus.Errorf("Failed to encode results: %v", err)
		}
	}
}

func resetHandler(orchestrator *pipeline.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orchestrator.ResetAccumulation()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Accumulated comments cleared"}`))
	}
}

func exportHandler(orchestrator *pipeline.Orchestrator, exportService *export.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := orchestrator.Report()
		if report == nil {
			http.Error(w, `{"error":"no completed analysis to export"}`, http.StatusConflict)
			return
		}

		filename, err := exportService.ExportCSV(report)
		if err != nil {
			http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"message":"Exported","filename":%q}`, filename)
	}
}
