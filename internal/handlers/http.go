package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"cpu-anomaly-detector/internal/cache"
	"cpu-anomaly-detector/internal/metrics"
	"cpu-anomaly-detector/internal/models"
)

const statsTimeout = 2 * time.Second

// Analyzer выполняет полный анализ одного ресурса
type Analyzer interface {
	ResourceID() string
	RunFullAnalysis(ctx context.Context) (*models.AnalysisResult, error)
}

// StatsStore операционные счетчики запусков (Redis)
type StatsStore interface {
	RecordRun(ctx context.Context, resourceID, status string, anomalies int, at time.Time) error
	GetRunStats(ctx context.Context, resourceID string) (cache.RunStats, error)
	Ping(ctx context.Context) error
	GetPoolStats() map[string]interface{}
}

// Handler обработчик HTTP запросов
type Handler struct {
	analyzer Analyzer
	stats    StatsStore
	debug    bool
}

// NewHandler создает новый обработчик. stats может быть nil, если Redis не настроен.
func NewHandler(analyzer Analyzer, stats StatsStore, debug bool) *Handler {
	return &Handler{
		analyzer: analyzer,
		stats:    stats,
		debug:    debug,
	}
}

// Routes регистрирует обработчики
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/analyze", h.Analyze)
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/stats", h.GetStats)
}

// Analyze обрабатывает GET /analyze. SUCCESS и NO_DATA возвращаются с 200.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.RequestDuration.WithLabelValues(r.Method, "/analyze").Observe(duration)
	}()

	if r.Method != http.MethodGet {
		metrics.RequestsTotal.WithLabelValues(r.Method, "/analyze", "405").Inc()
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log.Println("API endpoint '/analyze' was hit. Running analysis...")

	result, err := h.analyzer.RunFullAnalysis(r.Context())
	if err != nil {
		log.Printf("Analysis failed: %v\n", err)
		h.recordRun(r.Context(), "ERROR", 0)
		metrics.RequestsTotal.WithLabelValues(r.Method, "/analyze", "500").Inc()

		message := http.StatusText(http.StatusInternalServerError)
		if h.debug {
			message = err.Error()
		}
		http.Error(w, message, http.StatusInternalServerError)
		return
	}

	h.recordRun(r.Context(), string(result.Status), result.AnomalyCount())
	metrics.RequestsTotal.WithLabelValues(r.Method, "/analyze", "200").Inc()

	writeJSON(w, http.StatusOK, result)
}

// recordRun пишет счетчики в Redis. Ошибка Redis не влияет на ответ.
func (h *Handler) recordRun(ctx context.Context, status string, anomalies int) {
	if h.stats == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statsTimeout)
	defer cancel()

	if err := h.stats.RecordRun(ctx, h.analyzer.ResourceID(), status, anomalies, time.Now()); err != nil {
		log.Printf("Failed to record run stats: %v\n", err)
		metrics.RedisOperations.WithLabelValues("record_run", "error").Inc()
		return
	}
	metrics.RedisOperations.WithLabelValues("record_run", "success").Inc()
}

// HealthCheck обрабатывает GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK
	redisState := "disabled"

	// Проверяем Redis
	if h.stats != nil {
		redisState = "ok"
		if err := h.stats.Ping(r.Context()); err != nil {
			redisState = "unreachable"
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"redis":     redisState,
		"timestamp": time.Now().UTC(),
	})
}

// GetStats обрабатывает GET /stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.RequestDuration.WithLabelValues(r.Method, "/stats").Observe(duration)
	}()

	if r.Method != http.MethodGet {
		metrics.RequestsTotal.WithLabelValues(r.Method, "/stats", "405").Inc()
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.stats == nil {
		metrics.RequestsTotal.WithLabelValues(r.Method, "/stats", "200").Inc()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"enabled":     false,
			"resource_id": h.analyzer.ResourceID(),
		})
		return
	}

	runStats, err := h.stats.GetRunStats(r.Context(), h.analyzer.ResourceID())
	if err != nil {
		log.Printf("Failed to get run stats: %v\n", err)
		metrics.RedisOperations.WithLabelValues("get_run_stats", "error").Inc()
		metrics.RequestsTotal.WithLabelValues(r.Method, "/stats", "500").Inc()
		http.Error(w, "Failed to retrieve stats", http.StatusInternalServerError)
		return
	}

	metrics.RedisOperations.WithLabelValues("get_run_stats", "success").Inc()
	metrics.RequestsTotal.WithLabelValues(r.Method, "/stats", "200").Inc()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"enabled": true,
		"stats":   runStats,
		"redis":   h.stats.GetPoolStats(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to write response: %v\n", err)
	}
}
