package models

import "time"

// Sample одно значение метрики за интервал агрегации
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// SampleSet упорядоченные по времени значения одного ресурса за окно запроса.
// Пустой набор означает, что у бэкенда нет данных.
type SampleSet []Sample

// AnomalyLabel метка, выставленная моделью
type AnomalyLabel string

const (
	LabelNormal  AnomalyLabel = "NORMAL"
	LabelAnomaly AnomalyLabel = "ANOMALY"
)

// ScoredSample значение метрики с оценкой модели
type ScoredSample struct {
	Timestamp time.Time    `json:"timestamp"`
	Value     float64      `json:"value"`
	Score     float64      `json:"anomaly_score"`
	Label     AnomalyLabel `json:"anomaly_label"`
}

// IsAnomaly true если модель пометила значение как выброс
func (s ScoredSample) IsAnomaly() bool {
	return s.Label == LabelAnomaly
}

// Status итог одного запуска анализа
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusNoData  Status = "NO_DATA"
)

// AnalysisResult ответ сервиса. Для NO_DATA заполняются только Status и
// Message, остальные поля в JSON отсутствуют.
type AnalysisResult struct {
	Status            Status         `json:"status"`
	Message           string         `json:"message,omitempty"`
	ResourceID        string         `json:"resource_id,omitempty"`
	AnalysisTimestamp *time.Time     `json:"analysis_timestamp,omitempty"`
	Samples           []ScoredSample `json:"samples,omitempty"`
}

// AnomalyCount считает помеченные как ANOMALY значения
func (r *AnalysisResult) AnomalyCount() int {
	count := 0
	for _, s := range r.Samples {
		if s.IsAnomaly() {
			count++
		}
	}
	return count
}
