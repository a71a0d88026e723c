package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunStats счетчики запусков анализа по ресурсу
type RunStats struct {
	ResourceID string     `json:"resource_id"`
	Runs       int64      `json:"runs"`
	Success    int64      `json:"success"`
	NoData     int64      `json:"no_data"`
	Errors     int64      `json:"errors"`
	Anomalies  int64      `json:"anomalies"`
	LastRun    *time.Time `json:"last_run,omitempty"`
}

// RedisCache хранит операционные счетчики запусков. Результаты анализа и
// параметры модели сюда не пишутся.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache создает новый Redis кэш
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 1,
		MaxRetries:   3,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func statsKey(resourceID string) string {
	return fmt.Sprintf("runs:%s", resourceID)
}

// RecordRun увеличивает счетчики одним pipeline. status: SUCCESS, NO_DATA или ERROR.
func (r *RedisCache) RecordRun(ctx context.Context, resourceID, status string, anomalies int, at time.Time) error {
	key := statsKey(resourceID)

	pipe := r.client.TxPipeline()
	pipe.HIncrBy(ctx, key, "runs", 1)
	pipe.HIncrBy(ctx, key, "status:"+status, 1)
	if anomalies > 0 {
		pipe.HIncrBy(ctx, key, "anomalies", int64(anomalies))
	}
	pipe.HSet(ctx, key, "last_run", at.UTC().Unix())
	pipe.Expire(ctx, key, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// GetRunStats читает счетчики ресурса. Отсутствующий ключ дает нулевые счетчики.
func (r *RedisCache) GetRunStats(ctx context.Context, resourceID string) (RunStats, error) {
	fields, err := r.client.HGetAll(ctx, statsKey(resourceID)).Result()
	if err != nil {
		return RunStats{}, fmt.Errorf("failed to get run stats: %w", err)
	}

	stats := RunStats{
		ResourceID: resourceID,
		Runs:       parseInt(fields["runs"]),
		Success:    parseInt(fields["status:SUCCESS"]),
		NoData:     parseInt(fields["status:NO_DATA"]),
		Errors:     parseInt(fields["status:ERROR"]),
		Anomalies:  parseInt(fields["anomalies"]),
	}
	if ts := parseInt(fields["last_run"]); ts > 0 {
		lastRun := time.Unix(ts, 0).UTC()
		stats.LastRun = &lastRun
	}

	return stats, nil
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Close закрывает соединение с Redis
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Ping проверяет доступность Redis
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// GetPoolStats возвращает статистику пула соединений
func (r *RedisCache) GetPoolStats() map[string]interface{} {
	stats := r.client.PoolStats()

	return map[string]interface{}{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}
