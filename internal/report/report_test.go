package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpu-anomaly-detector/internal/models"
)

func window(values []float64, anomalyAt ...int) []models.ScoredSample {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	scored := make([]models.ScoredSample, len(values))
	for i, v := range values {
		scored[i] = models.ScoredSample{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Value:     v,
			Score:     0.4,
			Label:     models.LabelNormal,
		}
	}
	for _, i := range anomalyAt {
		scored[i].Label = models.LabelAnomaly
		scored[i].Score = 0.8
	}
	return scored
}

func TestWrite_WithAnomalies(t *testing.T) {
	values := []float64{20, 21, 95, 20, 19, 20, 22, 21}
	var buf bytes.Buffer

	require.NoError(t, Write(&buf, window(values, 2)))
	out := buf.String()

	assert.Contains(t, out, "Most Recent 5 Data Points")
	assert.Contains(t, out, "Detected 1 potential anomalies:")
	assert.Contains(t, out, "95.00")
	assert.Contains(t, out, "ANOMALY")
	assert.NotContains(t, out, "No anomalies detected")

	recent := out[:strings.Index(out, "Detected")]
	assert.NotContains(t, recent, "2026-03-10T09:00:00Z")
	assert.Contains(t, recent, "2026-03-10T09:15:00Z")
	assert.Contains(t, recent, "2026-03-10T09:35:00Z")
}

func TestWrite_NoAnomalies(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Write(&buf, window([]float64{20, 20, 20})))
	out := buf.String()

	assert.Contains(t, out, "No anomalies detected in the dataset.")
	assert.Contains(t, out, "2026-03-10T09:00:00Z")
	assert.NotContains(t, out, "Detected")
}
