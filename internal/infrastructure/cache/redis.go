package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"job-tracker/internal/config"
	"job-tracker/internal/domain/job"
	"job-tracker/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultTTL = 10 * time.Minute

// Redis keeps the last good list and dashboard payload per user. A nil
// client means Redis is unavailable and every call is a no-op miss.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration

	warnedUnavailable atomic.Bool
}

// NewRedis connects when cfg.Host is set. Connection failures are logged
// and leave the store in bypass mode.
func NewRedis(cfg config.RedisConfig, log *zap.Logger) *Redis {
	log = logger.OrNop(log)
	r := &Redis{logger: log, ttl: cfg.TTL}
	if r.ttl <= 0 {
		r.ttl = DefaultTTL
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		log.Info("redis not configured, snapshots disabled")
		return r
	}
	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = "6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, bypassing snapshots", zap.Error(err))
		_ = client.Close()
		return r
	}
	r.client = client
	return r
}

func (r *Redis) Available() bool {
	return r != nil && r.client != nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Warn("redis unavailable, bypassing snapshots", zap.Error(err))
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	if !r.Available() {
		return errors.New("redis unavailable")
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if !r.Available() {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if !r.Available() {
		return false, nil
	}
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		r.warnUnavailableOnce(err)
		return false, err
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) SetJSON(ctx context.Context, key string, value any) error {
	if !r.Available() {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, b, r.ttl).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) DeleteByPattern(ctx context.Context, pattern string) error {
	if !r.Available() {
		return nil
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil
	}
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if err := r.client.Del(ctx, k).Err(); err != nil {
			r.logger.Warn("redis delete failed", zap.String("key", k), zap.String("pattern", pattern), zap.Error(err))
		}
	}
	return iter.Err()
}

func listKey(userID string) string      { return "snapshot:" + userID + ":list" }
func dashboardKey(userID string) string { return "snapshot:" + userID + ":dashboard" }

func (r *Redis) SaveRecords(ctx context.Context, userID string, recs []job.Record) error {
	return r.SetJSON(ctx, listKey(userID), recs)
}

func (r *Redis) Records(ctx context.Context, userID string) ([]job.Record, bool, error) {
	var recs []job.Record
	ok, err := r.GetJSON(ctx, listKey(userID), &recs)
	if !ok || err != nil {
		return nil, false, err
	}
	if recs == nil {
		recs = []job.Record{}
	}
	return recs, true, nil
}

func (r *Redis) SaveDashboard(ctx context.Context, userID string, d job.Dashboard) error {
	return r.SetJSON(ctx, dashboardKey(userID), d)
}

func (r *Redis) Dashboard(ctx context.Context, userID string) (job.Dashboard, bool, error) {
	var d job.Dashboard
	ok, err := r.GetJSON(ctx, dashboardKey(userID), &d)
	if !ok || err != nil {
		return job.Dashboard{}, false, err
	}
	return d, true, nil
}

// Forget drops every snapshot kept for userID.
func (r *Redis) Forget(ctx context.Context, userID string) error {
	return r.DeleteByPattern(ctx, "snapshot:"+userID+":*")
}
