package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/smithy-go"

	"cpu-anomaly-detector/internal/models"
)

const (
	// DefaultWindow окно запроса по умолчанию
	DefaultWindow = 3 * time.Hour
	// DefaultPeriod шаг агрегации по умолчанию
	DefaultPeriod = 5 * time.Minute

	namespace     = "AWS/EC2"
	metricName    = "CPUUtilization"
	dimensionName = "InstanceId"
	statistic     = "Average"
	queryID       = "cpu_utilization_query"
)

var (
	// ErrInvalidQuery окно или период запроса заданы неверно
	ErrInvalidQuery = errors.New("invalid metric query")
	// ErrMalformedResponse CloudWatch вернул разное число timestamps и values
	ErrMalformedResponse = errors.New("malformed metric data response")
)

// Query окно и шаг агрегации запроса
type Query struct {
	Window time.Duration
	Period time.Duration
}

// DefaultQuery последние 3 часа с шагом 5 минут
func DefaultQuery() Query {
	return Query{Window: DefaultWindow, Period: DefaultPeriod}
}

func (q Query) validate() error {
	if q.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %s", ErrInvalidQuery, q.Window)
	}
	if q.Period < time.Second || q.Period%time.Second != 0 {
		return fmt.Errorf("%w: period must be a whole number of seconds, got %s", ErrInvalidQuery, q.Period)
	}
	if q.Period > q.Window {
		return fmt.Errorf("%w: period %s exceeds window %s", ErrInvalidQuery, q.Period, q.Window)
	}
	return nil
}

// CloudWatchFetcher загружает CPUUtilization одного инстанса из CloudWatch
type CloudWatchFetcher struct {
	client cloudwatch.GetMetricDataAPIClient
	region string
	now    func() time.Time
}

// New создает fetcher поверх готового клиента CloudWatch
func New(client cloudwatch.GetMetricDataAPIClient, region string) *CloudWatchFetcher {
	return &CloudWatchFetcher{
		client: client,
		region: region,
		now:    time.Now,
	}
}

// NewFromRegion создает клиент CloudWatch для региона из стандартной цепочки
// AWS credentials. Непустой endpoint переопределяет адрес сервиса.
func NewFromRegion(ctx context.Context, region, endpoint string) (*CloudWatchFetcher, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := cloudwatch.NewFromConfig(cfg, func(o *cloudwatch.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return New(client, region), nil
}

// Fetch возвращает средние значения CPU за [now-window, now], отсортированные
// по времени. Отсутствие данных не ошибка: возвращается пустой набор.
func (f *CloudWatchFetcher) Fetch(ctx context.Context, resourceID string, q Query) (models.SampleSet, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	log.Printf("Fetching CPU metrics for instance: %s in region %s...\n", resourceID, f.region)

	end := f.now().UTC()
	input := &cloudwatch.GetMetricDataInput{
		MetricDataQueries: []types.MetricDataQuery{
			{
				Id: aws.String(queryID),
				MetricStat: &types.MetricStat{
					Metric: &types.Metric{
						Namespace:  aws.String(namespace),
						MetricName: aws.String(metricName),
						Dimensions: []types.Dimension{
							{Name: aws.String(dimensionName), Value: aws.String(resourceID)},
						},
					},
					Period: aws.Int32(int32(q.Period / time.Second)),
					Stat:   aws.String(statistic),
				},
				ReturnData: aws.Bool(true),
			},
		},
		StartTime: aws.Time(end.Add(-q.Window)),
		EndTime:   aws.Time(end),
	}

	var samples models.SampleSet
	paginator := cloudwatch.NewGetMetricDataPaginator(f.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logAPIError(err)
			return nil, fmt.Errorf("failed to get metric data for %s: %w", resourceID, err)
		}

		for _, result := range page.MetricDataResults {
			if aws.ToString(result.Id) != queryID {
				continue
			}
			if len(result.Timestamps) != len(result.Values) {
				return nil, fmt.Errorf("%w: %d timestamps, %d values",
					ErrMalformedResponse, len(result.Timestamps), len(result.Values))
			}
			for i, ts := range result.Timestamps {
				samples = append(samples, models.Sample{Timestamp: ts, Value: result.Values[i]})
			}
		}
	}

	if len(samples) == 0 {
		log.Println("Warning: No data returned from CloudWatch. The instance may be too new.")
		return models.SampleSet{}, nil
	}

	slices.SortStableFunc(samples, func(a, b models.Sample) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	log.Printf("Successfully fetched %d data points.\n", len(samples))
	return samples, nil
}

// logAPIError логирует код ошибки AWS API, если он есть
func logAPIError(err error) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		log.Printf("CloudWatch API error: code=%s message=%s\n", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
}
