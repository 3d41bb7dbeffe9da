package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Usage struct {
		StateFile     string         `yaml:"state_file"`
		GlobalLimits  map[string]int `yaml:"global_limits"`
		PerUserLimits map[string]int `yaml:"per_user_limits"`
		AlwaysGlobal  []string       `yaml:"always_global"`
	} `yaml:"usage"`
	Sources struct {
		BridgeURL        string        `yaml:"bridge_url"`
		TelegramChannels []string      `yaml:"telegram_channels"`
		YouTubeVideos    []string      `yaml:"youtube_videos"`
		TwitterQueries   []string      `yaml:"twitter_queries"`
		RedditSubreddits []string      `yaml:"reddit_subreddits"`
		MaxPerUnit       int           `yaml:"max_per_unit"`
		Timeout          time.Duration `yaml:"timeout"`
	} `yaml:"sources"`
	Market struct {
		Endpoint string        `yaml:"endpoint"`
		Symbols  []string      `yaml:"symbols"`
		Lookback time.Duration `yaml:"lookback"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"market"`
	Scorer struct {
		GeminiAPIKey string        `yaml:"gemini_api_key"`
		GeminiModel  string        `yaml:"gemini_model"`
		LocalURL     string        `yaml:"local_url"`
		BatchSize    int           `yaml:"batch_size"`
		MaxRetries   int           `yaml:"max_retries"`
		BackoffBase  time.Duration `yaml:"backoff_base"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"scorer"`
	Pipeline struct {
		Mode               string        `yaml:"mode"` // test or live
		Lookback           time.Duration `yaml:"lookback"`
		VelocityWindow     time.Duration `yaml:"velocity_window"`
		IdealPostThreshold int           `yaml:"ideal_post_threshold"`
		ScoreBatchLimit    int           `yaml:"score_batch_limit"`
	} `yaml:"pipeline"`
	Publisher struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		MaxAttempts  int      `yaml:"max_attempts"`
	} `yaml:"publisher"`
	Scheduler struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"scheduler"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Scorer.GeminiAPIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Market.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("PIPELINE_MODE"); v != "" {
		c.Pipeline.Mode = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Scheduler.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Publisher.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOCAL_SCORER_URL"); v != "" {
		c.Scorer.LocalURL = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/crowdpulse.db"
	}
	if c.Usage.StateFile == "" {
		c.Usage.StateFile = "data/api_usage.json"
	}
	if len(c.Usage.GlobalLimits) == 0 {
		c.Usage.GlobalLimits = map[string]int{
			"telegram": 200, "youtube": 500, "twitter": 50, "market": 500, "gemini": 1500,
		}
	}
	if len(c.Usage.PerUserLimits) == 0 {
		c.Usage.PerUserLimits = map[string]int{"telegram": 200, "twitter": 100}
	}
	if len(c.Usage.AlwaysGlobal) == 0 {
		c.Usage.AlwaysGlobal = []string{"youtube", "market", "gemini"}
	}
	if c.Sources.MaxPerUnit == 0 {
		c.Sources.MaxPerUnit = 200
	}
	if c.Sources.Timeout == 0 {
		c.Sources.Timeout = 30 * time.Second
	}
	if c.Market.Lookback == 0 {
		c.Market.Lookback = 5 * 24 * time.Hour
	}
	if c.Market.Timeout == 0 {
		c.Market.Timeout = 15 * time.Second
	}
	if c.Scorer.GeminiModel == "" {
		c.Scorer.GeminiModel = "gemini-2.0-flash"
	}
	if c.Scorer.BatchSize == 0 {
		c.Scorer.BatchSize = 20
	}
	if c.Scorer.MaxRetries == 0 {
		c.Scorer.MaxRetries = 3
	}
	if c.Scorer.BackoffBase == 0 {
		c.Scorer.BackoffBase = time.Second
	}
	if c.Scorer.Timeout == 0 {
		c.Scorer.Timeout = 60 * time.Second
	}
	if c.Pipeline.Mode == "" {
		c.Pipeline.Mode = "test"
	}
	if c.Pipeline.Lookback == 0 {
		c.Pipeline.Lookback = 24 * time.Hour
	}
	if c.Pipeline.VelocityWindow == 0 {
		c.Pipeline.VelocityWindow = 60 * time.Minute
	}
	if c.Pipeline.IdealPostThreshold == 0 {
		c.Pipeline.IdealPostThreshold = 100
	}
	if c.Pipeline.ScoreBatchLimit == 0 {
		c.Pipeline.ScoreBatchLimit = 200
	}
	if c.Scheduler.Interval == 0 {
		c.Scheduler.Interval = 15 * time.Minute
	}
	if c.Publisher.MaxAttempts == 0 {
		c.Publisher.MaxAttempts = 3
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Pipeline.Mode != "test" && c.Pipeline.Mode != "live" {
		return fmt.Errorf("pipeline.mode must be test or live, got %q", c.Pipeline.Mode)
	}
	if len(c.Market.Symbols) == 0 {
		return fmt.Errorf("market.symbols is required")
	}
	if c.Pipeline.Mode == "live" && c.Sources.BridgeURL == "" {
		return fmt.Errorf("sources.bridge_url is required in live mode")
	}
	if c.Publisher.Enabled && len(c.Publisher.Brokers) == 0 {
		return fmt.Errorf("publisher.brokers is required when publisher is enabled")
	}
	if c.Scheduler.Enabled && c.Scheduler.Addr == "" {
		return fmt.Errorf("scheduler.addr is required when scheduler is enabled")
	}
	for svc, lim := range c.Usage.GlobalLimits {
		if lim < 0 {
			return fmt.Errorf("usage.global_limits[%s] must be >= 0", svc)
		}
	}
	return nil
}
