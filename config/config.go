// Package config loads service configuration from defaults, an optional YAML
// file, an optional .env file and environment overrides, in that order, and
// builds the collaborators (model, history store, fixtures, logger) the
// service is wired from.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/rephrase/core"
)

// Providers lists the supported oracle providers.
var Providers = []string{"openai", "anthropic", "gemini", "mock"}

// HistoryBackends lists the supported history stores.
var HistoryBackends = []string{"memory", "json", "sqlite", "redis"}

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	History  HistoryConfig  `yaml:"history"`
	Fixtures FixturesConfig `yaml:"fixtures"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// OracleConfig selects and configures the text-generation provider.
type OracleConfig struct {
	Provider    string  `yaml:"provider"` // openai, anthropic, gemini, mock
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
	// Project and Location route gemini through Vertex AI.
	Project  string `yaml:"project"`
	Location string `yaml:"location"`
}

// PipelineConfig tunes the coordinator.
type PipelineConfig struct {
	StepTimeout     string   `yaml:"step_timeout"`
	Precedence      []string `yaml:"precedence"`
	HistoryTurns    int      `yaml:"history_turns"`
	ScoreConfidence bool     `yaml:"score_confidence"`
	Autocomplete    bool     `yaml:"autocomplete"`
	CompletionWords int      `yaml:"completion_words"`
}

// HistoryConfig selects the sent-message store.
type HistoryConfig struct {
	Backend  string `yaml:"backend"` // memory, json, sqlite, redis
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
	RedisKey string `yaml:"redis_key"`
}

// FixturesConfig points at the task and calendar fixtures.
type FixturesConfig struct {
	Tasks  string `yaml:"tasks"`
	Events string `yaml:"events"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // json or text
	AddSource bool   `yaml:"add_source"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "5000",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Oracle: OracleConfig{
			Temperature: 0.7,
			MaxTokens:   512,
		},
		Pipeline: PipelineConfig{
			StepTimeout:     "15s",
			Precedence:      tierNames(core.Tiers),
			HistoryTurns:    5,
			Autocomplete:    true,
			CompletionWords: 10,
		},
		History: HistoryConfig{
			Backend:  "json",
			Path:     "data/chat_history.json",
			RedisKey: "rephrase:history",
		},
		Fixtures: FixturesConfig{
			Tasks:  "data/tasks.json",
			Events: "data/calendar.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func tierNames(tiers []core.Tier) []string {
	out := make([]string, len(tiers))
	for i, t := range tiers {
		out[i] = string(t)
	}
	return out
}

// Load reads configuration from a YAML file and applies environment
// overrides. A missing file or empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.resolveProvider()
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none are
// named) into the process environment. Missing files are ignored; variables
// already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

var providerKeys = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("REPHRASE_PROVIDER"); v != "" {
		c.Oracle.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		c.Oracle.Model = v
	}
	if v := os.Getenv("ORACLE_BASE_URL"); v != "" {
		c.Oracle.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("REPHRASE_HISTORY_BACKEND"); v != "" {
		c.History.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("REPHRASE_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.History.RedisURL = v
	}
	if v := os.Getenv("REPHRASE_STEP_TIMEOUT"); v != "" {
		c.Pipeline.StepTimeout = v
	}
	if v := os.Getenv("REPHRASE_PRECEDENCE"); v != "" {
		c.Pipeline.Precedence = splitList(v)
	}
	if v := os.Getenv("REPHRASE_SCORE_CONFIDENCE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REPHRASE_SCORE_CONFIDENCE: %w", err)
		}
		c.Pipeline.ScoreConfidence = b
	}
	if v := os.Getenv("REPHRASE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		c.Oracle.Project = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_LOCATION"); v != "" {
		c.Oracle.Location = v
	}

	if env, ok := providerKeys[c.Oracle.Provider]; ok {
		if key := os.Getenv(env); key != "" {
			c.Oracle.APIKey = key
		}
	}
	return nil
}

// resolveProvider picks a provider when none was configured: the first one
// with a credential in the environment, else the offline mock.
func (c *Config) resolveProvider() {
	if c.Oracle.Provider != "" {
		return
	}
	for _, p := range []string{"openai", "anthropic", "gemini"} {
		if key := os.Getenv(providerKeys[p]); key != "" {
			c.Oracle.Provider = p
			if c.Oracle.APIKey == "" {
				c.Oracle.APIKey = key
			}
			return
		}
	}
	if c.Oracle.APIKey != "" {
		c.Oracle.Provider = "openai"
		return
	}
	c.Oracle.Provider = "mock"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// StepTimeout returns the per-step timeout.
func (c *Config) StepTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Pipeline.StepTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid step timeout %q: %w", c.Pipeline.StepTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("step timeout must be positive, got %s", d)
	}
	return d, nil
}

// Precedence returns the merge order as tiers. The "jira" alias maps to the
// task tier.
func (c *Config) Precedence() ([]core.Tier, error) {
	if len(c.Pipeline.Precedence) == 0 {
		return nil, errors.New("precedence must name at least one tier")
	}
	seen := make(map[core.Tier]bool)
	out := make([]core.Tier, 0, len(c.Pipeline.Precedence))
	for _, name := range c.Pipeline.Precedence {
		t, err := core.ParseTier(name)
		if err != nil {
			return nil, fmt.Errorf("invalid precedence: %w", err)
		}
		if seen[t] {
			return nil, fmt.Errorf("invalid precedence: duplicate tier %q", t)
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(Providers, c.Oracle.Provider) {
		return fmt.Errorf("invalid oracle provider: %s (valid: %v)", c.Oracle.Provider, Providers)
	}
	vertex := c.Oracle.Provider == "gemini" && c.Oracle.Project != "" && c.Oracle.Location != ""
	if c.Oracle.Provider != "mock" && c.Oracle.APIKey == "" && !vertex {
		return fmt.Errorf("oracle API key not configured (set %s)", providerKeys[c.Oracle.Provider])
	}
	if _, err := c.StepTimeout(); err != nil {
		return err
	}
	if _, err := c.Precedence(); err != nil {
		return err
	}
	if !contains(HistoryBackends, c.History.Backend) {
		return fmt.Errorf("invalid history backend: %s (valid: %v)", c.History.Backend, HistoryBackends)
	}
	if c.History.Backend == "redis" && c.History.RedisURL == "" {
		return errors.New("redis history backend requires REDIS_URL")
	}
	if (c.History.Backend == "json" || c.History.Backend == "sqlite") && c.History.Path == "" {
		return fmt.Errorf("%s history backend requires a path", c.History.Backend)
	}
	if c.Server.Port == "" {
		return errors.New("server port must not be empty")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
