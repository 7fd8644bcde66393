package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "MEDCREW"

	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"

	SearchSerper = "serper"
	SearchBrave  = "brave"

	FetchHTTP     = "http"
	FetchChromedp = "chromedp"

	StoreFile   = "file"
	StoreMemory = "memory"
)

// Config holds all configuration for the service
type Config struct {
	General  GeneralConfig  `mapstructure:"general"`
	Server   ServerConfig   `mapstructure:"server"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Search   SearchConfig   `mapstructure:"search"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Agents   AgentsConfig   `mapstructure:"agents"`
	Document DocumentConfig `mapstructure:"document"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug bool `mapstructure:"debug"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	PublicURL      string        `mapstructure:"public_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LLMConfig describes the single chat-completion endpoint shared by every stage
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // azure or openai
	Endpoint    string        `mapstructure:"endpoint"`
	APIKey      string        `mapstructure:"api_key"`
	APIVersion  string        `mapstructure:"api_version"`
	Model       string        `mapstructure:"model"` // deployment name on azure
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SearchConfig contains web search settings
type SearchConfig struct {
	Provider     string        `mapstructure:"provider"`
	SerperAPIKey string        `mapstructure:"serper_api_key"`
	BraveAPIKey  string        `mapstructure:"brave_api_key"`
	MaxResults   int           `mapstructure:"max_results"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// FetchConfig contains page scraping settings
type FetchConfig struct {
	Type     string        `mapstructure:"type"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
	Disallow []string      `mapstructure:"disallow"` // hosts the scrape tool refuses to read
}

// AgentsConfig contains stage execution settings
type AgentsConfig struct {
	MaxToolRounds int `mapstructure:"max_tool_rounds"`
}

// DocumentConfig controls where rendered documents are kept
type DocumentConfig struct {
	Store string `mapstructure:"store"`
	Dir   string `mapstructure:"dir"`
	Keep  int    `mapstructure:"keep"`
}

// ConfigurationError reports a missing or invalid setting. It is fatal at startup.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s %s", e.Key, e.Reason)
}

// legacyEnv maps config keys to the environment names the service historically used.
var legacyEnv = map[string][]string{
	"search.serper_api_key": {"SERPER_API_KEY"},
	"search.brave_api_key":  {"BRAVE_API_KEY"},
	"llm.api_key":           {"AZURE_OPENAI_KEY", "OPENAI_API_KEY"},
	"llm.endpoint":          {"AZURE_OPENAI_ENDPOINT"},
	"llm.api_version":       {"AZURE_OPENAI_API_VERSION"},
	"llm.model":             {"AZURE_OPENAI_MODEL"},
}

var keys = []string{
	"general.debug",
	"server.address", "server.public_url", "server.request_timeout",
	"llm.provider", "llm.endpoint", "llm.api_key", "llm.api_version", "llm.model",
	"llm.temperature", "llm.max_tokens", "llm.timeout",
	"search.provider", "search.serper_api_key", "search.brave_api_key", "search.max_results", "search.timeout",
	"fetch.type", "fetch.timeout", "fetch.max_chars", "fetch.disallow",
	"agents.max_tool_rounds",
	"document.store", "document.dir", "document.keep",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("server.address", ":5000")
	v.SetDefault("server.request_timeout", time.Duration(0))
	v.SetDefault("llm.provider", ProviderAzure)
	v.SetDefault("llm.api_version", "2024-02-15-preview")
	v.SetDefault("llm.model", "gpt35turbo16k")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 8000)
	v.SetDefault("llm.timeout", 120*time.Second)
	v.SetDefault("search.provider", SearchSerper)
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.timeout", 15*time.Second)
	v.SetDefault("fetch.type", FetchHTTP)
	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.max_chars", 20000)
	v.SetDefault("agents.max_tool_rounds", 8)
	v.SetDefault("document.store", StoreFile)
	v.SetDefault("document.dir", "./data")
	v.SetDefault("document.keep", 50)
}

// LoadConfig reads .env, an optional config file and the environment, then validates
// the result. An empty path searches the usual locations and tolerates no file at all.
func LoadConfig(path string) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)
			v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		names := []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		names = append(names, legacyEnv[key]...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, &ConfigurationError{Key: key, Reason: err.Error()}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, &ConfigurationError{Key: "config file", Reason: err.Error()}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigurationError{Key: "config", Reason: err.Error()}
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize trims string settings and lower-cases enum values.
func (c *Config) Normalize() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.LLM.Endpoint = strings.TrimRight(strings.TrimSpace(c.LLM.Endpoint), "/")
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.Search.Provider = strings.ToLower(strings.TrimSpace(c.Search.Provider))
	c.Fetch.Type = strings.ToLower(strings.TrimSpace(c.Fetch.Type))
	c.Fetch.Disallow = sanitizeDomainList(c.Fetch.Disallow)
	c.Document.Store = strings.ToLower(strings.TrimSpace(c.Document.Store))
	c.Server.PublicURL = strings.TrimRight(strings.TrimSpace(c.Server.PublicURL), "/")
}

// Validate checks every required setting. The first problem found is returned.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.Fetch.Validate(); err != nil {
		return err
	}
	if c.Agents.MaxToolRounds < 0 {
		return &ConfigurationError{Key: "agents.max_tool_rounds", Reason: "cannot be negative"}
	}
	if err := c.Document.Validate(); err != nil {
		return err
	}
	if c.Server.RequestTimeout < 0 {
		return &ConfigurationError{Key: "server.request_timeout", Reason: "cannot be negative"}
	}
	return nil
}

func (l LLMConfig) Validate() error {
	switch l.Provider {
	case ProviderAzure:
		if l.Endpoint == "" {
			return &ConfigurationError{Key: "llm.endpoint", Reason: "is required"}
		}
		if strings.TrimSpace(l.APIVersion) == "" {
			return &ConfigurationError{Key: "llm.api_version", Reason: "is required"}
		}
	case ProviderOpenAI:
	default:
		return &ConfigurationError{Key: "llm.provider", Reason: fmt.Sprintf("unsupported value %q", l.Provider)}
	}
	if l.APIKey == "" {
		return &ConfigurationError{Key: "llm.api_key", Reason: "is required"}
	}
	if l.Model == "" {
		return &ConfigurationError{Key: "llm.model", Reason: "is required"}
	}
	if l.MaxTokens < 0 {
		return &ConfigurationError{Key: "llm.max_tokens", Reason: "cannot be negative"}
	}
	return nil
}

func (s SearchConfig) Validate() error {
	switch s.Provider {
	case SearchSerper:
		if strings.TrimSpace(s.SerperAPIKey) == "" {
			return &ConfigurationError{Key: "search.serper_api_key", Reason: "is required"}
		}
	case SearchBrave:
		if strings.TrimSpace(s.BraveAPIKey) == "" {
			return &ConfigurationError{Key: "search.brave_api_key", Reason: "is required"}
		}
	default:
		return &ConfigurationError{Key: "search.provider", Reason: fmt.Sprintf("unsupported value %q", s.Provider)}
	}
	if s.MaxResults <= 0 {
		return &ConfigurationError{Key: "search.max_results", Reason: "must be greater than zero"}
	}
	return nil
}

func (f FetchConfig) Validate() error {
	if f.Type != FetchHTTP && f.Type != FetchChromedp {
		return &ConfigurationError{Key: "fetch.type", Reason: fmt.Sprintf("unsupported value %q", f.Type)}
	}
	return nil
}

func (d DocumentConfig) Validate() error {
	switch d.Store {
	case StoreMemory:
	case StoreFile:
		if strings.TrimSpace(d.Dir) == "" {
			return &ConfigurationError{Key: "document.dir", Reason: "is required for the file store"}
		}
	default:
		return &ConfigurationError{Key: "document.store", Reason: fmt.Sprintf("unsupported value %q", d.Store)}
	}
	if d.Keep < 1 {
		return &ConfigurationError{Key: "document.keep", Reason: "must be at least 1"}
	}
	return nil
}
