package analytics

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"cpu-anomaly-detector/internal/models"
)

// ErrInvalidSample значение метрики не пригодно для модели (NaN, Inf)
var ErrInvalidSample = errors.New("invalid sample value")

// DetectorConfig параметры isolation forest
type DetectorConfig struct {
	NumTrees      int
	MaxSamples    int
	Contamination float64
	Seed          uint64
}

// DefaultDetectorConfig 100 деревьев, до 256 значений на дерево, 5% выбросов, seed 42
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		NumTrees:      100,
		MaxSamples:    256,
		Contamination: 0.05,
		Seed:          42,
	}
}

// Detector размечает значения окна как NORMAL или ANOMALY.
// Модель обучается заново при каждом вызове Score и нигде не сохраняется.
type Detector struct {
	config DetectorConfig
}

// NewDetector создает детектор, заполняя невалидные поля значениями по умолчанию
func NewDetector(config DetectorConfig) *Detector {
	defaults := DefaultDetectorConfig()
	if config.NumTrees <= 0 {
		config.NumTrees = defaults.NumTrees
	}
	if config.MaxSamples <= 0 {
		config.MaxSamples = defaults.MaxSamples
	}
	if config.Contamination <= 0 || config.Contamination > 0.5 {
		config.Contamination = defaults.Contamination
	}
	return &Detector{config: config}
}

// Config возвращает действующие параметры
func (d *Detector) Config() DetectorConfig {
	return d.config
}

// Score обучает лес на samples и размечает каждое значение.
// Порядок и количество значений сохраняются.
func (d *Detector) Score(samples []models.Sample) ([]models.ScoredSample, error) {
	if len(samples) == 0 {
		return []models.ScoredSample{}, nil
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return nil, fmt.Errorf("%w: sample %d at %s has value %v",
				ErrInvalidSample, i, s.Timestamp.Format(time.RFC3339), s.Value)
		}
		values[i] = s.Value
	}

	rng := rand.New(rand.NewPCG(d.config.Seed, d.config.Seed))
	forest := fitForest(values, d.config.NumTrees, d.config.MaxSamples, rng)

	scores := make([]float64, len(values))
	for i, v := range values {
		scores[i] = forest.score(v)
	}

	threshold := percentile(scores, 1-d.config.Contamination)

	scored := make([]models.ScoredSample, len(samples))
	for i, s := range samples {
		label := models.LabelNormal
		if scores[i] > threshold {
			label = models.LabelAnomaly
		}
		scored[i] = models.ScoredSample{
			Timestamp: s.Timestamp,
			Value:     s.Value,
			Score:     scores[i],
			Label:     label,
		}
	}

	return scored, nil
}

// percentile квантиль q (0..1) с линейной интерполяцией между соседними рангами
func percentile(values []float64, q float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}

	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
