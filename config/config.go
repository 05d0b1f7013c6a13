package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// YAMLConfig mirrors dss.yaml. Zero values mean "keep the default".
type YAMLConfig struct {
	LLM struct {
		Backend      string `yaml:"backend"`
		URL          string `yaml:"url"`
		Model        string `yaml:"model"`
		APIKey       string `yaml:"api_key"`
		Timeout      string `yaml:"timeout"`
		MaxNewTokens int    `yaml:"max_new_tokens"`
	} `yaml:"llm"`

	Pipeline struct {
		Python         string   `yaml:"python"`
		StrategyScript string   `yaml:"strategy_script"`
		RLScript       string   `yaml:"rl_script"`
		Launcher       string   `yaml:"launcher"`
		LauncherArgs   []string `yaml:"launcher_args"`
		NProcs         *int     `yaml:"n_procs"`
		Alpha          *float64 `yaml:"alpha"`
		Generator      string   `yaml:"generator"`
	} `yaml:"pipeline"`

	Sentiment struct {
		Backend  string   `yaml:"backend"`
		Command  []string `yaml:"command"`
		Encoding string   `yaml:"encoding"`
	} `yaml:"sentiment"`

	Dataset struct {
		Root  string `yaml:"root"`
		Seed  *int64 `yaml:"seed"`
		Days  int    `yaml:"days"`
		Start string `yaml:"start"`
	} `yaml:"dataset"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty *bool  `yaml:"pretty"`
	} `yaml:"log"`
}

type LLMConfig struct {
	Backend      string // ollama | gemini | anthropic
	URL          string // empty means the backend's default endpoint
	Model        string
	APIKey       string
	Timeout      time.Duration
	MaxNewTokens int
}

type PipelineConfig struct {
	Python         string
	StrategyScript string
	RLScript       string
	Launcher       string
	LauncherArgs   []string
	NProcs         int
	Alpha          float64
	Generator      string // script | llm
}

type SentimentConfig struct {
	Backend  string // command | llm
	Command  []string
	Encoding string
}

type DatasetConfig struct {
	Root  string
	Seed  int64
	Days  int
	Start time.Time
}

// Config is the resolved configuration.
type Config struct {
	LLM       LLMConfig
	Pipeline  PipelineConfig
	Sentiment SentimentConfig
	Dataset   DatasetConfig
	Port      int
	StorePath string
	LogLevel  string
	LogPretty bool
}

// Default returns a fresh copy of the defaults.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Backend:      "ollama",
			Model:        "llama2:7b-chat",
			Timeout:      10 * time.Minute,
			MaxNewTokens: 512,
		},
		Pipeline: PipelineConfig{
			Python:         "python3",
			StrategyScript: "FinRobot/experiments/multi_factor_agents.py",
			RLScript:       "FinRL_llm/train_ppo_llm.py",
			Launcher:       "mpirun",
			NProcs:         8,
			Alpha:          0.1,
			Generator:      "script",
		},
		Sentiment: SentimentConfig{
			Backend:  "command",
			Command:  []string{"python3", "-m", "finemotion.cli"},
			Encoding: "utf-8",
		},
		Dataset: DatasetConfig{
			Root:  ".",
			Seed:  42,
			Days:  90,
			Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Port:      19530,
		StorePath: "dss.db",
		LogLevel:  "info",
		LogPretty: true,
	}
}

// LoadFromFile applies a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var y YAMLConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	if err := cfg.apply(y); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) apply(y YAMLConfig) error {
	if y.LLM.Backend != "" {
		c.LLM.Backend = y.LLM.Backend
	}
	if y.LLM.URL != "" {
		c.LLM.URL = y.LLM.URL
	}
	if y.LLM.Model != "" {
		c.LLM.Model = y.LLM.Model
	}
	if y.LLM.APIKey != "" {
		c.LLM.APIKey = y.LLM.APIKey
	}
	if y.LLM.Timeout != "" {
		d, err := time.ParseDuration(y.LLM.Timeout)
		if err != nil {
			return fmt.Errorf("llm.timeout: %w", err)
		}
		c.LLM.Timeout = d
	}
	if y.LLM.MaxNewTokens > 0 {
		c.LLM.MaxNewTokens = y.LLM.MaxNewTokens
	}

	if y.Pipeline.Python != "" {
		c.Pipeline.Python = y.Pipeline.Python
	}
	if y.Pipeline.StrategyScript != "" {
		c.Pipeline.StrategyScript = y.Pipeline.StrategyScript
	}
	if y.Pipeline.RLScript != "" {
		c.Pipeline.RLScript = y.Pipeline.RLScript
	}
	if y.Pipeline.Launcher != "" {
		c.Pipeline.Launcher = y.Pipeline.Launcher
	}
	if len(y.Pipeline.LauncherArgs) > 0 {
		c.Pipeline.LauncherArgs = y.Pipeline.LauncherArgs
	}
	if y.Pipeline.NProcs != nil {
		c.Pipeline.NProcs = *y.Pipeline.NProcs
	}
	if y.Pipeline.Alpha != nil {
		c.Pipeline.Alpha = *y.Pipeline.Alpha
	}
	if y.Pipeline.Generator != "" {
		c.Pipeline.Generator = y.Pipeline.Generator
	}

	if y.Sentiment.Backend != "" {
		c.Sentiment.Backend = y.Sentiment.Backend
	}
	if len(y.Sentiment.Command) > 0 {
		c.Sentiment.Command = y.Sentiment.Command
	}
	if y.Sentiment.Encoding != "" {
		c.Sentiment.Encoding = y.Sentiment.Encoding
	}

	if y.Dataset.Root != "" {
		c.Dataset.Root = y.Dataset.Root
	}
	if y.Dataset.Seed != nil {
		c.Dataset.Seed = *y.Dataset.Seed
	}
	if y.Dataset.Days > 0 {
		c.Dataset.Days = y.Dataset.Days
	}
	if y.Dataset.Start != "" {
		t, err := time.Parse("2006-01-02", y.Dataset.Start)
		if err != nil {
			return fmt.Errorf("dataset.start: %w", err)
		}
		c.Dataset.Start = t
	}

	if y.Server.Port > 0 {
		c.Port = y.Server.Port
	}
	if y.Store.Path != "" {
		c.StorePath = y.Store.Path
	}
	if y.Log.Level != "" {
		c.LogLevel = y.Log.Level
	}
	if y.Log.Pretty != nil {
		c.LogPretty = *y.Log.Pretty
	}
	return nil
}

// Load resolves configuration. Priority: environment > config file > defaults.
// An empty path falls back to ./dss.yaml when present. A .env file in the working
// directory is loaded first and never overrides variables already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	p := strings.TrimSpace(path)
	if p == "" {
		if _, err := os.Stat("dss.yaml"); err == nil {
			p = "dss.yaml"
		}
	}
	if p != "" {
		fc, err := LoadFromFile(p)
		if err != nil {
			return nil, err
		}
		cfg = *fc
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.LLM.Backend = getEnv("DSS_LLM_BACKEND", c.LLM.Backend)
	c.LLM.URL = getEnv("DSS_LLM_URL", c.LLM.URL)
	c.LLM.Model = getEnv("DSS_LLM_MODEL", c.LLM.Model)
	if key := getAPIKey(c.LLM.Backend); key != "" {
		c.LLM.APIKey = key
	}
	c.Pipeline.Python = getEnv("DSS_PYTHON", c.Pipeline.Python)
	c.Pipeline.Launcher = getEnv("DSS_LAUNCHER", c.Pipeline.Launcher)
	c.StorePath = getEnv("DSS_STORE_PATH", c.StorePath)
	c.LogLevel = getEnv("DSS_LOG_LEVEL", c.LogLevel)
	c.Port = getEnvAsInt("DSS_PORT", c.Port)
}

func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Backend {
	case "ollama", "gemini", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("llm.backend must be ollama, gemini or anthropic (got %q)", c.LLM.Backend))
	}
	if c.LLM.MaxNewTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_new_tokens must be > 0"))
	}
	switch c.Pipeline.Generator {
	case "script", "llm":
	default:
		errs = append(errs, fmt.Errorf("pipeline.generator must be script or llm (got %q)", c.Pipeline.Generator))
	}
	switch c.Sentiment.Backend {
	case "command", "llm":
	default:
		errs = append(errs, fmt.Errorf("sentiment.backend must be command or llm (got %q)", c.Sentiment.Backend))
	}
	if c.Sentiment.Backend == "command" && len(c.Sentiment.Command) == 0 {
		errs = append(errs, fmt.Errorf("sentiment.command must not be empty"))
	}
	if c.Dataset.Days <= 1 {
		errs = append(errs, fmt.Errorf("dataset.days must be > 1"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range"))
	}
	return errors.Join(errs...)
}

// getAPIKey reads ANTHROPIC_API_KEY for the anthropic backend, otherwise
// GEMINI_API_KEY then GOOGLE_API_KEY.
func getAPIKey(backend string) string {
	if backend == "anthropic" {
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
