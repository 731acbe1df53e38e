package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrConfig marks configuration errors. They are fatal and reported before a
// sweep starts.
var ErrConfig = eris.New("configuration error")

// Config holds the full application configuration.
type Config struct {
	Maps       MapsConfig       `yaml:"maps" mapstructure:"maps"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Sweep      SweepConfig      `yaml:"sweep" mapstructure:"sweep"`
	Progress   ProgressConfig   `yaml:"progress" mapstructure:"progress"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// MapsConfig configures the Google Maps Static API client.
type MapsConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Scale            int     `yaml:"scale" mapstructure:"scale"`
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	Model      string `yaml:"model" mapstructure:"model"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	MaxRetries int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// ClassifierConfig configures what the model is asked and how.
type ClassifierConfig struct {
	Target           string `yaml:"target" mapstructure:"target"`
	TargetPrompt     string `yaml:"target_prompt" mapstructure:"target_prompt"`
	TargetLabel      string `yaml:"target_label" mapstructure:"target_label"`
	ImageMode        string `yaml:"image_mode" mapstructure:"image_mode"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxTokens        int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	CacheTTL         string `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	BreakerThreshold int    `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int    `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// SweepConfig holds defaults for sweep parameters; CLI flags override them.
type SweepConfig struct {
	OutputDir    string  `yaml:"output_dir" mapstructure:"output_dir"`
	NamePrefix   string  `yaml:"name_prefix" mapstructure:"name_prefix"`
	TileKm       float64 `yaml:"tile_km" mapstructure:"tile_km"`
	Size         int     `yaml:"size" mapstructure:"size"`
	MapType      string  `yaml:"maptype" mapstructure:"maptype"`
	DelayMs      int     `yaml:"delay_ms" mapstructure:"delay_ms"`
	Workers      int     `yaml:"workers" mapstructure:"workers"`
	HaltOnOutage bool    `yaml:"halt_on_outage" mapstructure:"halt_on_outage"`
}

// ProgressConfig selects the progress store backend.
type ProgressConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Dir         string `yaml:"dir" mapstructure:"dir"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TILESWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("maps.key", "TILESWEEP_MAPS_KEY", "GOOGLE_MAPS_STATIC_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind maps key")
	}
	if err := v.BindEnv("anthropic.key", "TILESWEEP_ANTHROPIC_KEY", "ANTHROPIC_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind anthropic key")
	}

	// Defaults
	v.SetDefault("maps.timeout_secs", 30)
	v.SetDefault("maps.scale", 2)
	v.SetDefault("maps.max_retries", 3)
	v.SetDefault("maps.initial_backoff_ms", 500)
	v.SetDefault("maps.max_backoff_ms", 10000)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_retries", 2)
	v.SetDefault("classifier.target", "aaa")
	v.SetDefault("classifier.target_label", "yes")
	v.SetDefault("classifier.image_mode", "inline")
	v.SetDefault("classifier.timeout_secs", 60)
	v.SetDefault("classifier.max_tokens", 32)
	v.SetDefault("classifier.cache_ttl", "1h")
	v.SetDefault("classifier.breaker_threshold", 5)
	v.SetDefault("classifier.breaker_reset_secs", 30)
	v.SetDefault("sweep.output_dir", "output")
	v.SetDefault("sweep.name_prefix", "AAA")
	v.SetDefault("sweep.tile_km", 2.0)
	v.SetDefault("sweep.size", 1024)
	v.SetDefault("sweep.maptype", "satellite")
	v.SetDefault("sweep.delay_ms", 200)
	v.SetDefault("sweep.workers", 1)
	v.SetDefault("progress.driver", "file")
	v.SetDefault("progress.dir", ".tilesweep")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
