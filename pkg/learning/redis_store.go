package learning

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStoreConfig holds Redis model persistence settings
type RedisStoreConfig struct {
	RedisURL    string `json:"redis_url" yaml:"redis_url"`
	KeyPrefix   string `json:"key_prefix" yaml:"key_prefix"`
	DatabaseNum int    `json:"database_num" yaml:"database_num"`
}

// DefaultRedisStoreConfig returns default Redis settings
func DefaultRedisStoreConfig() *RedisStoreConfig {
	return &RedisStoreConfig{
		RedisURL:    "redis://localhost:6379",
		KeyPrefix:   "chamadas:model",
		DatabaseNum: 0,
	}
}

// RedisStore persists the model in Redis: one hash for the weights plus a
// small metadata hash under the same key prefix.
type RedisStore struct {
	client *redis.Client
	config *RedisStoreConfig
	ctx    context.Context
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(config *RedisStoreConfig) (*RedisStore, error) {
	if config == nil {
		config = DefaultRedisStoreConfig()
	}

	opt, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %v", err)
	}
	opt.DB = config.DatabaseNum
	client := redis.NewClient(opt)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis connection failed: %v", err)
	}

	return &RedisStore{
		client: client,
		config: config,
		ctx:    ctx,
	}, nil
}

func (s *RedisStore) weightsKey() string {
	return s.config.KeyPrefix + ":weights"
}

func (s *RedisStore) metaKey() string {
	return s.config.KeyPrefix + ":meta"
}

// Save writes the snapshot to Redis atomically via a pipeline.
func (s *RedisStore) Save(snap *Snapshot) error {
	weights := make(map[string]interface{}, len(snap.Weights))
	for name, w := range snap.Weights {
		weights[name] = strconv.FormatFloat(w, 'g', -1, 64)
	}

	configJSON, err := json.Marshal(snap.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal model config: %v", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(s.ctx, s.weightsKey())
	if len(weights) > 0 {
		pipe.HSet(s.ctx, s.weightsKey(), weights)
	}
	pipe.HSet(s.ctx, s.metaKey(), map[string]interface{}{
		"bias":         strconv.FormatFloat(snap.Bias, 'g', -1, 64),
		"samples":      snap.Samples,
		"agreed":       snap.Agreed,
		"last_trained": snap.LastTrained.Format(time.RFC3339Nano),
		"config":       string(configJSON),
	})

	if _, err := pipe.Exec(s.ctx); err != nil {
		return fmt.Errorf("failed to save model to Redis: %v", err)
	}
	return nil
}

// Load reads a snapshot from Redis. An absent model yields nil, nil.
func (s *RedisStore) Load() (*Snapshot, error) {
	meta, err := s.client.HGetAll(s.ctx, s.metaKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load model metadata: %v", err)
	}
	if len(meta) == 0 {
		return nil, nil
	}

	rawWeights, err := s.client.HGetAll(s.ctx, s.weightsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load model weights: %v", err)
	}

	snap := &Snapshot{Weights: make(map[string]float64, len(rawWeights))}
	for name, raw := range rawWeights {
		w, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt weight %s: %v", name, err)
		}
		snap.Weights[name] = w
	}

	if raw, ok := meta["bias"]; ok {
		if snap.Bias, err = strconv.ParseFloat(raw, 64); err != nil {
			return nil, fmt.Errorf("corrupt bias: %v", err)
		}
	}
	if raw, ok := meta["samples"]; ok {
		snap.Samples, _ = strconv.Atoi(raw)
	}
	if raw, ok := meta["agreed"]; ok {
		snap.Agreed, _ = strconv.Atoi(raw)
	}
	if raw, ok := meta["last_trained"]; ok {
		snap.LastTrained, _ = time.Parse(time.RFC3339Nano, raw)
	}
	if raw, ok := meta["config"]; ok && raw != "" && raw != "null" {
		var cfg Config
		if err := json.Unmarshal([]byte(raw), &cfg); err == nil {
			snap.Config = &cfg
		}
	}

	return snap, nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
