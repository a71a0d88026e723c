package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"cpu-anomaly-detector/internal/fetcher"
	"cpu-anomaly-detector/internal/metrics"
	"cpu-anomaly-detector/internal/models"
)

// NoDataMessage сообщение ответа NO_DATA
const NoDataMessage = "Could not retrieve metrics from CloudWatch."

// Fetcher источник значений метрики
type Fetcher interface {
	Fetch(ctx context.Context, resourceID string, q fetcher.Query) (models.SampleSet, error)
}

// Scorer модель разметки выбросов
type Scorer interface {
	Score(samples []models.Sample) ([]models.ScoredSample, error)
}

// Config параметры одного запуска
type Config struct {
	ResourceID string
	Window     time.Duration
	Period     time.Duration
}

// Pipeline общий для CLI и HTTP путь fetch -> score
type Pipeline struct {
	fetcher Fetcher
	scorer  Scorer
	config  Config
	now     func() time.Time
}

// New создает pipeline
func New(f Fetcher, s Scorer, config Config) *Pipeline {
	return &Pipeline{
		fetcher: f,
		scorer:  s,
		config:  config,
		now:     time.Now,
	}
}

// ResourceID ресурс, который анализирует pipeline
func (p *Pipeline) ResourceID() string {
	return p.config.ResourceID
}

// Detect загружает окно и размечает его. Пустой результат без ошибки
// означает, что у CloudWatch нет данных.
func (p *Pipeline) Detect(ctx context.Context) ([]models.ScoredSample, error) {
	samples, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return []models.ScoredSample{}, nil
	}
	return p.score(samples)
}

// RunFullAnalysis полный запуск для HTTP ответа
func (p *Pipeline) RunFullAnalysis(ctx context.Context) (*models.AnalysisResult, error) {
	log.Println("--- Running Full Analysis ---")

	samples, err := p.fetch(ctx)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(p.config.ResourceID, "ERROR").Inc()
		return nil, err
	}

	if len(samples) == 0 {
		metrics.AnalysesTotal.WithLabelValues(p.config.ResourceID, string(models.StatusNoData)).Inc()
		return &models.AnalysisResult{
			Status:  models.StatusNoData,
			Message: NoDataMessage,
		}, nil
	}

	scored, err := p.score(samples)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(p.config.ResourceID, "ERROR").Inc()
		return nil, err
	}

	analyzedAt := p.now().UTC()
	result := &models.AnalysisResult{
		Status:            models.StatusSuccess,
		ResourceID:        p.config.ResourceID,
		AnalysisTimestamp: &analyzedAt,
		Samples:           scored,
	}

	metrics.AnalysesTotal.WithLabelValues(p.config.ResourceID, string(models.StatusSuccess)).Inc()
	return result, nil
}

func (p *Pipeline) fetch(ctx context.Context) (models.SampleSet, error) {
	start := time.Now()
	samples, err := p.fetcher.Fetch(ctx, p.config.ResourceID, fetcher.Query{
		Window: p.config.Window,
		Period: p.config.Period,
	})
	metrics.FetchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	metrics.SamplesFetched.WithLabelValues(p.config.ResourceID).Set(float64(len(samples)))
	return samples, nil
}

func (p *Pipeline) score(samples models.SampleSet) ([]models.ScoredSample, error) {
	log.Println("Running anomaly detection model...")

	start := time.Now()
	scored, err := p.scorer.Score(samples)
	metrics.ScoringLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("anomaly detection failed: %w", err)
	}

	anomalies := 0
	for _, s := range scored {
		if s.IsAnomaly() {
			anomalies++
		}
	}
	metrics.AnomaliesDetected.WithLabelValues(p.config.ResourceID).Add(float64(anomalies))

	log.Println("Anomaly detection complete.")
	return scored, nil
}
