package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"cpu-anomaly-detector/internal/models"
)

// RecentCount сколько последних значений показывать
const RecentCount = 5

var titleStyle = lipgloss.NewStyle().Bold(true)

// Write печатает последние RecentCount значений и все выбросы окна
func Write(w io.Writer, scored []models.ScoredSample) error {
	recent := scored[max(len(scored)-RecentCount, 0):]

	if _, err := fmt.Fprintf(w, "\n%s\n%s\n",
		titleStyle.Render(fmt.Sprintf("--- Analysis Results (Most Recent %d Data Points) ---", RecentCount)),
		render(recent)); err != nil {
		return err
	}

	var anomalies []models.ScoredSample
	for _, s := range scored {
		if s.IsAnomaly() {
			anomalies = append(anomalies, s)
		}
	}

	if len(anomalies) == 0 {
		_, err := fmt.Fprintln(w, "\nNo anomalies detected in the dataset.")
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n",
		titleStyle.Render(fmt.Sprintf("Detected %d potential anomalies:", len(anomalies))),
		render(anomalies))
	return err
}

func render(samples []models.ScoredSample) string {
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []string{
			s.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(s.Value, 'f', 2, 64),
			strconv.FormatFloat(s.Score, 'f', 3, 64),
			string(s.Label),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TIMESTAMP", "VALUE", "SCORE", "LABEL").
		Rows(rows...).
		String()
}
