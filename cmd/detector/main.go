package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"cpu-anomaly-detector/internal/analytics"
	"cpu-anomaly-detector/internal/config"
	"cpu-anomaly-detector/internal/fetcher"
	"cpu-anomaly-detector/internal/pipeline"
	"cpu-anomaly-detector/internal/report"
)

func main() {
	// Прогресс и отчет идут в один поток
	log.SetOutput(os.Stdout)
	log.SetFlags(0)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		resourceID string
		region     string
	)

	cmd := &cobra.Command{
		Use:          "detector",
		Short:        "Detect CPU utilization anomalies for one EC2 instance",
		Long:         "Fetches the last window of CPUUtilization from CloudWatch, labels outliers with an isolation forest and prints a report.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if resourceID != "" {
				cfg.ResourceID = resourceID
			}
			if region != "" {
				cfg.Region = region
			}

			cw, err := fetcher.NewFromRegion(cmd.Context(), cfg.Region, cfg.CloudWatchEndpoint)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cw, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to YAML config")
	cmd.Flags().StringVar(&resourceID, "resource-id", "", "EC2 instance id (overrides config)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (overrides config)")

	return cmd
}

// run печатает баннер, запускает fetch -> score и пишет отчет в out.
// Пустое окно завершается без отчета и без ошибки.
func run(ctx context.Context, cfg *config.Config, f pipeline.Fetcher, out io.Writer) error {
	fmt.Fprintln(out, "--- Starting Cloud Service Anomaly Detector ---")

	p := pipeline.New(f, analytics.NewDetector(analytics.DefaultDetectorConfig()), pipeline.Config{
		ResourceID: cfg.ResourceID,
		Window:     cfg.Window,
		Period:     cfg.Period,
	})

	scored, err := p.Detect(ctx)
	if err != nil {
		return err
	}
	if len(scored) == 0 {
		return nil
	}

	return report.Write(out, scored)
}
