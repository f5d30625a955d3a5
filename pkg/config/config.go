// Package config loads notes-agent settings from a YAML file, a .env file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// NOTES_AGENT_LLM_MODEL for llm.model.
const EnvPrefix = "NOTES_AGENT"

// Embedding provider names.
const (
	EmbeddingOpenAI  = "openai"
	EmbeddingHashing = "hashing"
)

// Chunk length units.
const (
	LengthRunes  = "runes"
	LengthTokens = "tokens"
)

type Config struct {
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Notes     NotesConfig     `yaml:"notes" mapstructure:"notes"`
	Agent     AgentConfig     `yaml:"agent" mapstructure:"agent"`
	Chunking  ChunkingConfig  `yaml:"chunking" mapstructure:"chunking"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
}

type LLMConfig struct {
	Model       string  `yaml:"model" mapstructure:"model"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

type EmbeddingConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	Model    string `yaml:"model" mapstructure:"model"`
}

type NotesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`

	// Root, if set, confines every notes directory to Root or the
	// directories in Allow.
	Root  string   `yaml:"root" mapstructure:"root"`
	Allow []string `yaml:"allow" mapstructure:"allow"`
}

type AgentConfig struct {
	// MaxSteps caps reasoning steps per conversation; 0 is unbounded.
	MaxSteps          int  `yaml:"max_steps" mapstructure:"max_steps"`
	RecoverToolErrors bool `yaml:"recover_tool_errors" mapstructure:"recover_tool_errors"`
}

type ChunkingConfig struct {
	Separator string `yaml:"separator" mapstructure:"separator"`
	Size      int    `yaml:"size" mapstructure:"size"`
	Overlap   int    `yaml:"overlap" mapstructure:"overlap"`
	Length    string `yaml:"length" mapstructure:"length"`
}

type SearchConfig struct {
	K int `yaml:"k" mapstructure:"k"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	Dir   string `yaml:"dir" mapstructure:"dir"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:       "gpt-3.5-turbo",
			Temperature: 0,
		},
		Embedding: EmbeddingConfig{
			Provider: EmbeddingOpenAI,
			Model:    "text-embedding-ada-002",
		},
		Notes: NotesConfig{Path: "./notes/"},
		Agent: AgentConfig{MaxSteps: 0},
		Chunking: ChunkingConfig{
			Separator: "\n\n",
			Size:      4000,
			Overlap:   200,
			Length:    LengthRunes,
		},
		Search: SearchConfig{K: 1},
		Log:    LogConfig{Level: "info"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("llm.model", cfg.LLM.Model)
	v.SetDefault("llm.base_url", cfg.LLM.BaseURL)
	v.SetDefault("llm.api_key", cfg.LLM.APIKey)
	v.SetDefault("llm.temperature", cfg.LLM.Temperature)
	v.SetDefault("embedding.provider", cfg.Embedding.Provider)
	v.SetDefault("embedding.model", cfg.Embedding.Model)
	v.SetDefault("notes.path", cfg.Notes.Path)
	v.SetDefault("notes.root", cfg.Notes.Root)
	v.SetDefault("notes.allow", cfg.Notes.Allow)
	v.SetDefault("agent.max_steps", cfg.Agent.MaxSteps)
	v.SetDefault("agent.recover_tool_errors", cfg.Agent.RecoverToolErrors)
	v.SetDefault("chunking.separator", cfg.Chunking.Separator)
	v.SetDefault("chunking.size", cfg.Chunking.Size)
	v.SetDefault("chunking.overlap", cfg.Chunking.Overlap)
	v.SetDefault("chunking.length", cfg.Chunking.Length)
	v.SetDefault("search.k", cfg.Search.K)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.dir", cfg.Log.Dir)
	v.SetDefault("server.addr", cfg.Server.Addr)
}

// Load reads configuration. If path is non-empty that file must exist;
// otherwise notes-agent.yaml is looked up in the working directory and
// then ~/.config/notes-agent/config.yaml, and a missing file is not an
// error. A .env file in the working directory is loaded first.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unprefixed names used by the OpenAI tooling.
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.base_url", EnvPrefix+"_LLM_BASE_URL", "OPENAI_BASE_URL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigType("yaml")
		v.SetConfigName("notes-agent")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
			if err := readUserConfig(v); err != nil {
				return nil, err
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readUserConfig(v *viper.Viper) error {
	dir, err := UserConfigDir()
	if err != nil {
		return nil
	}
	file := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(file); err != nil {
		return nil
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", file, err)
	}
	return nil
}

// UserConfigDir returns ~/.config/notes-agent, honouring XDG_CONFIG_HOME.
func UserConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "notes-agent"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: home directory: %w", err)
	}
	return filepath.Join(home, ".config", "notes-agent"), nil
}

// LoadDotEnv sets process environment variables from a KEY=VALUE file.
// Variables already set are left alone. A missing file is not an error.
func LoadDotEnv(file string) error {
	if _, err := os.Stat(file); err != nil {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", file, err)
	}

	// viper lower-cases keys; environment names are conventionally upper case.
	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return fmt.Errorf("config: set %s: %w", name, err)
		}
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("config: llm.model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("config: llm.temperature %v must be in [0, 2]", c.LLM.Temperature)
	}
	switch c.Embedding.Provider {
	case EmbeddingOpenAI, EmbeddingHashing:
	default:
		return fmt.Errorf("config: embedding.provider %q is invalid (must be %s or %s)", c.Embedding.Provider, EmbeddingOpenAI, EmbeddingHashing)
	}
	if c.Notes.Path == "" {
		return fmt.Errorf("config: notes.path is required")
	}
	if c.Notes.Root == "" && len(c.Notes.Allow) > 0 {
		return fmt.Errorf("config: notes.allow requires notes.root")
	}
	if c.Agent.MaxSteps < 0 {
		return fmt.Errorf("config: agent.max_steps must be >= 0, got %d", c.Agent.MaxSteps)
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("config: chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("config: chunking.overlap %d must be in [0, %d)", c.Chunking.Overlap, c.Chunking.Size)
	}
	switch c.Chunking.Length {
	case LengthRunes, LengthTokens:
	default:
		return fmt.Errorf("config: chunking.length %q is invalid (must be %s or %s)", c.Chunking.Length, LengthRunes, LengthTokens)
	}
	if c.Search.K < 1 {
		return fmt.Errorf("config: search.k must be >= 1, got %d", c.Search.K)
	}
	return nil
}
