package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tiago918/app-chamadas/pkg/config"
	"github.com/tiago918/app-chamadas/pkg/detector"
	"github.com/tiago918/app-chamadas/pkg/learning"
	"github.com/tiago918/app-chamadas/pkg/logging"
	"github.com/tiago918/app-chamadas/pkg/rules"
)

// buildDetector assembles the engine the way every command needs it:
// config, logger, rule store and the configured model backend.
func buildDetector(configPath string) (*detector.Detector, *config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %v", err)
	}

	modelStore, err := buildModelStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	ruleStore := rules.NewFileStore(cfg.Rules.Path)
	det, err := detector.New(cfg, ruleStore, modelStore, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create detector: %v", err)
	}
	return det, cfg, nil
}

func buildModelStore(cfg *config.Config, logger *zap.Logger) (learning.ModelStore, error) {
	switch cfg.Learning.Backend {
	case "redis":
		store, err := learning.NewRedisStore(&learning.RedisStoreConfig{
			RedisURL:    cfg.Learning.Redis.URL,
			KeyPrefix:   cfg.Learning.Redis.KeyPrefix,
			DatabaseNum: cfg.Learning.Redis.DatabaseNum,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis backend: %v", err)
		}
		logger.Info("using Redis model backend",
			zap.String("key_prefix", cfg.Learning.Redis.KeyPrefix))
		return store, nil
	default:
		return learning.NewFileStore(cfg.Learning.ModelPath), nil
	}
}
