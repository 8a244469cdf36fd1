package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the full detection engine configuration
type Config struct {
	// Score fusion and result caching
	Detection DetectionConfig `yaml:"detection"`

	// Per-sender behavioral profiling
	Profile ProfileConfig `yaml:"profile"`

	// Online learned scorer
	Learning LearningConfig `yaml:"learning"`

	// Rule matching
	Rules RulesConfig `yaml:"rules"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// DetectionConfig contains fusion and classification parameters
type DetectionConfig struct {
	// Classification thresholds on the fused score
	SpamThreshold         float64 `yaml:"spam_threshold"`
	SuspiciousThreshold   float64 `yaml:"suspicious_threshold"`
	QuestionableThreshold float64 `yaml:"questionable_threshold"`

	// Base fusion weights, renormalized after confidence redistribution
	Weights FusionWeights `yaml:"weights"`

	// Behavioral confidence below this value shifts weight mass to the
	// learned and rule signals
	MinBehaviorConfidence float64 `yaml:"min_behavior_confidence"`

	// Result cache
	CacheSize   int `yaml:"cache_size"`
	CacheTTLMin int `yaml:"cache_ttl_min"`

	// Keywords scanned in message content, shared by the feature
	// extractor and the behavioral profiler
	Keywords []string `yaml:"keywords"`
}

// FusionWeights defines the base share of each signal in the fused score
type FusionWeights struct {
	Learned  float64 `yaml:"learned"`
	Behavior float64 `yaml:"behavior"`
	Rule     float64 `yaml:"rule"`
}

// ProfileConfig contains behavioral profiler parameters
type ProfileConfig struct {
	// Minimum observations before a profile yields a verdict
	MinDataPoints int `yaml:"min_data_points"`

	// Activity older than this is trimmed from profiles
	WindowDays int `yaml:"window_days"`

	// Bounded containers
	TopKeywords  int `yaml:"top_keywords"`
	MaxIntervals int `yaml:"max_intervals"`

	// Anomaly thresholds
	MaxCallsPerDay    float64 `yaml:"max_calls_per_day"`
	MaxSMSPerDay      float64 `yaml:"max_sms_per_day"`
	OffHoursRatio     float64 `yaml:"off_hours_ratio"`
	ShortCallSeconds  int     `yaml:"short_call_seconds"`
	BusinessHourStart int     `yaml:"business_hour_start"`
	BusinessHourEnd   int     `yaml:"business_hour_end"`
}

// LearningConfig contains online scorer settings
type LearningConfig struct {
	LearningRate float64 `yaml:"learning_rate"`

	// Absolute bound applied to every weight after a gradient step
	MaxWeight float64 `yaml:"max_weight"`

	// Backend selection: "file" or "redis"
	Backend string `yaml:"backend"`

	// File backend
	ModelPath string `yaml:"model_path"`

	// Redis backend
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis model persistence settings
type RedisConfig struct {
	URL         string `yaml:"url"`
	KeyPrefix   string `yaml:"key_prefix"`
	DatabaseNum int    `yaml:"database_num"`
}

// RulesConfig contains rule store and matcher settings
type RulesConfig struct {
	// Path of the YAML rule store
	Path string `yaml:"path"`

	// Loaded rules are cached this long before re-reading the store
	RefreshIntervalMin int `yaml:"refresh_interval_min"`

	// For international rules: numbers not starting with this prefix
	// are treated as foreign
	HomePrefix string `yaml:"home_prefix"`

	// Senders at most this many digits are treated as short codes
	ShortCodeMaxDigits int `yaml:"short_code_max_digits"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() *Config {
	return &Config{
		Detection: DetectionConfig{
			SpamThreshold:         0.7,
			SuspiciousThreshold:   0.5,
			QuestionableThreshold: 0.3,
			Weights: FusionWeights{
				Learned:  0.40,
				Behavior: 0.35,
				Rule:     0.25,
			},
			MinBehaviorConfidence: 0.5,
			CacheSize:             1000,
			CacheTTLMin:           60,
			Keywords: []string{
				"grátis", "gratis", "prêmio", "premio", "promoção", "promocao",
				"sorteio", "ganhou", "parabéns", "urgente", "clique", "resgate",
				"crédito", "empréstimo", "desconto", "oferta",
				"free", "winner", "prize", "urgent", "click here", "congratulations",
				"limited time", "act now", "loan", "credit",
			},
		},
		Profile: ProfileConfig{
			MinDataPoints:     10,
			WindowDays:        30,
			TopKeywords:       50,
			MaxIntervals:      256,
			MaxCallsPerDay:    10,
			MaxSMSPerDay:      20,
			OffHoursRatio:     0.8,
			ShortCallSeconds:  10,
			BusinessHourStart: 8,
			BusinessHourEnd:   20,
		},
		Learning: LearningConfig{
			LearningRate: 0.1,
			MaxWeight:    8.0,
			Backend:      "file",
			ModelPath:    "chamadas-model.json",
			Redis: RedisConfig{
				URL:         "redis://localhost:6379",
				KeyPrefix:   "chamadas:model",
				DatabaseNum: 0,
			},
		},
		Rules: RulesConfig{
			Path:               "rules.yml",
			RefreshIntervalMin: 5,
			HomePrefix:         "+55",
			ShortCodeMaxDigits: 6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a file, falling back to defaults
// when no path is given
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}

	return config, nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %v", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	d := &c.Detection
	if d.SpamThreshold <= 0 || d.SpamThreshold > 1 {
		return fmt.Errorf("spam_threshold must be in (0, 1]")
	}
	if d.SuspiciousThreshold >= d.SpamThreshold {
		return fmt.Errorf("suspicious_threshold must be below spam_threshold")
	}
	if d.QuestionableThreshold >= d.SuspiciousThreshold {
		return fmt.Errorf("questionable_threshold must be below suspicious_threshold")
	}

	if d.Weights.Learned+d.Weights.Behavior+d.Weights.Rule <= 0 {
		return fmt.Errorf("fusion weights must sum to a positive value")
	}

	if d.CacheSize < 1 {
		return fmt.Errorf("cache_size must be >= 1")
	}
	if d.CacheTTLMin < 1 {
		return fmt.Errorf("cache_ttl_min must be >= 1")
	}

	if c.Profile.MinDataPoints < 1 {
		return fmt.Errorf("min_data_points must be >= 1")
	}
	if c.Profile.WindowDays < 1 {
		return fmt.Errorf("window_days must be >= 1")
	}
	if c.Profile.TopKeywords < 1 {
		return fmt.Errorf("top_keywords must be >= 1")
	}

	if c.Learning.LearningRate <= 0 || c.Learning.LearningRate > 1 {
		return fmt.Errorf("learning_rate must be in (0, 1]")
	}
	if c.Learning.Backend != "file" && c.Learning.Backend != "redis" {
		return fmt.Errorf("learning backend must be 'file' or 'redis'")
	}

	if c.Rules.RefreshIntervalMin < 1 {
		return fmt.Errorf("refresh_interval_min must be >= 1")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	validLevel := false
	for _, level := range validLevels {
		if c.Logging.Level == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	return nil
}
