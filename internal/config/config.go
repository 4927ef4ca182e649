package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	AI      AIConfig      `yaml:"ai"`
	Game    GameConfig    `yaml:"game"`
	Storage StorageConfig `yaml:"storage"`
	Filters FiltersConfig `yaml:"filters"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type AIConfig struct {
	// Backend selects the generator implementation: "openai" or "local".
	Backend string `yaml:"backend"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`

	// Timeout is the wall-clock generation bound in seconds; <= 0 means
	// effectively unbounded.
	Timeout float64 `yaml:"timeout"`
	// Memory is the prompt window size in interleaved transcript entries;
	// <= 0 means the whole story.
	Memory int `yaml:"memory"`

	MaxLength         int     `yaml:"max_length"`
	BeamSearches      int     `yaml:"beam_searches"`
	Temperature       float64 `yaml:"temperature"`
	TopK              int     `yaml:"top_k"`
	TopP              float64 `yaml:"top_p"`
	RepetitionPenalty float64 `yaml:"repetition_penalty"`
}

type GameConfig struct {
	// Autosave persists the adventure after every recorded turn and edit.
	Autosave bool `yaml:"autosave"`
}

type StorageConfig struct {
	// Backend selects the save store: "file", "redis" or "mysql".
	Backend string      `yaml:"backend"`
	File    FileConfig  `yaml:"file"`
	Redis   RedisConfig `yaml:"redis"`
	MySQL   MySQLConfig `yaml:"mysql"`
}

type FileConfig struct {
	Dir string `yaml:"dir"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MySQLConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type FiltersConfig struct {
	Input   []string `yaml:"input"`
	Output  []string `yaml:"output"`
	Display string   `yaml:"display"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file and applies defaults and
// environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if apiKey := os.Getenv("INKLORE_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}

	return &cfg, nil
}

// Default returns the built-in configuration used when no config file is
// present.
func Default() *Config {
	cfg := &Config{}
	cfg.Game.Autosave = true
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Minute
	}

	if c.AI.Backend == "" {
		c.AI.Backend = "local"
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "http://localhost:5000"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-neo"
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 20.0
	}
	if c.AI.Memory == 0 {
		c.AI.Memory = 20
	}
	if c.AI.MaxLength == 0 {
		c.AI.MaxLength = 60
	}
	if c.AI.BeamSearches == 0 {
		c.AI.BeamSearches = 1
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.8
	}
	if c.AI.TopK == 0 {
		c.AI.TopK = 40
	}
	if c.AI.TopP == 0 {
		c.AI.TopP = 0.9
	}
	if c.AI.RepetitionPenalty == 0 {
		c.AI.RepetitionPenalty = 1.1
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.File.Dir == "" {
		c.Storage.File.Dir = "data/adventures"
	}

	if len(c.Filters.Input) == 0 {
		c.Filters.Input = []string{"trim", "collapse_space"}
	}
	if len(c.Filters.Output) == 0 {
		c.Filters.Output = []string{"strip_markup", "collapse_space", "trim"}
	}
	if c.Filters.Display == "" {
		c.Filters.Display = "plain"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
