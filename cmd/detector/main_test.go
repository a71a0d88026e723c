package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpu-anomaly-detector/internal/config"
	"cpu-anomaly-detector/internal/fetcher"
	"cpu-anomaly-detector/internal/models"
)

const banner = "--- Starting Cloud Service Anomaly Detector ---"

type fakeFetcher struct {
	samples    models.SampleSet
	err        error
	resourceID string
}

func (f *fakeFetcher) Fetch(_ context.Context, resourceID string, _ fetcher.Query) (models.SampleSet, error) {
	f.resourceID = resourceID
	return f.samples, f.err
}

func testConfig() *config.Config {
	cfg := config.Default()
	return &cfg
}

// spikeWindow 3 часа с шагом 5 минут: 20.0 и один всплеск 95.0
func spikeWindow() models.SampleSet {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	samples := make(models.SampleSet, 36)
	for i := range samples {
		samples[i] = models.Sample{Timestamp: start.Add(time.Duration(i) * 5 * time.Minute), Value: 20.0}
	}
	samples[20].Value = 95.0
	return samples
}

func TestRun_NoData(t *testing.T) {
	var out bytes.Buffer
	f := &fakeFetcher{samples: models.SampleSet{}}

	require.NoError(t, run(context.Background(), testConfig(), f, &out))

	assert.Equal(t, banner+"\n", out.String())
	assert.Equal(t, "i-0293dc76e816f7b99", f.resourceID)
}

func TestRun_Report(t *testing.T) {
	var out bytes.Buffer
	f := &fakeFetcher{samples: spikeWindow()}

	require.NoError(t, run(context.Background(), testConfig(), f, &out))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, banner+"\n"))
	assert.Contains(t, text, "Most Recent 5 Data Points")
	assert.Contains(t, text, "Detected 1 potential anomalies:")
	assert.NotContains(t, text, "No anomalies detected in the dataset.")
}

func TestRun_FetchError(t *testing.T) {
	var out bytes.Buffer
	backendErr := errors.New("expired token")

	err := run(context.Background(), testConfig(), &fakeFetcher{err: backendErr}, &out)

	assert.ErrorIs(t, err, backendErr)
	assert.Equal(t, banner+"\n", out.String())
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"unexpected"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	assert.Error(t, cmd.Execute())
}

func TestRootCmd_ConfigError(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	assert.ErrorContains(t, cmd.Execute(), "failed to read config")
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"config", "resource-id", "region"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}
