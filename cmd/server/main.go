package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cpu-anomaly-detector/internal/analytics"
	"cpu-anomaly-detector/internal/cache"
	"cpu-anomaly-detector/internal/config"
	"cpu-anomaly-detector/internal/fetcher"
	"cpu-anomaly-detector/internal/handlers"
	"cpu-anomaly-detector/internal/pipeline"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	log.Println("Starting CPU Anomaly Detection Service...")

	// Конфигурация из файла и environment variables
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// Клиент CloudWatch
	cw, err := fetcher.NewFromRegion(ctx, cfg.Region, cfg.CloudWatchEndpoint)
	if err != nil {
		log.Fatalf("Failed to create CloudWatch client: %v", err)
	}

	detector := analytics.NewDetector(analytics.DefaultDetectorConfig())
	p := pipeline.New(cw, detector, pipeline.Config{
		ResourceID: cfg.ResourceID,
		Window:     cfg.Window,
		Period:     cfg.Period,
	})
	log.Printf("Analyzing instance %s in %s, window: %s, period: %s\n",
		cfg.ResourceID, cfg.Region, cfg.Window, cfg.Period)

	// Redis опционален: только счетчики для /stats
	var stats handlers.StatsStore
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.StatsRetention)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		stats = redisCache
		log.Println("Connected to Redis")
	}

	handler := handlers.NewHandler(p, stats, cfg.Server.Debug)

	// Настройка HTTP router
	mux := http.NewServeMux()
	handler.Routes(mux)

	// Prometheus metrics endpoint
	mux.Handle("/prometheus", promhttp.Handler())

	// HTTP сервер. WriteTimeout покрывает запрос к CloudWatch и обучение модели.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.WithRequestLog(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server listening on port %s\n", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}
