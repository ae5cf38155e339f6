package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Provider names accepted in InsightProviders.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// KnownProviders lists every remote provider name the engine can build.
var KnownProviders = []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini}

// MaxInsightTokens is the largest accepted insight_max_tokens. Providers
// send the cap as an int32.
const MaxInsightTokens = 1 << 20

// configFiles are tried in order inside the base directory.
// YAML is a superset of JSON, so both are parsed with the YAML decoder.
var configFiles = []string{"config.yaml", "config.yml", "config.json"}

// Config holds application configuration.
type Config struct {
	// MaxFeedbackChars is the maximum character count for a submission
	MaxFeedbackChars int `yaml:"max_feedback_chars"`

	// Bind and Port are the HTTP listen address for `murmur serve`.
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`

	// AdminPassword protects the admin API. Login fails with a server
	// configuration error while it is unset.
	AdminPassword string `yaml:"admin_password"`

	// AdminPasswordHash is a bcrypt hash checked instead of AdminPassword
	// when set.
	AdminPasswordHash string `yaml:"admin_password_hash,omitempty"`

	// SessionTTLHours is how long an admin session stays valid.
	SessionTTLHours int `yaml:"session_ttl_hours"`

	// LoginFailureDelayMillis slows down wrong-password responses.
	// Negative disables the delay.
	LoginFailureDelayMillis int `yaml:"login_failure_delay_ms"`

	// SecureCookies sets the Secure attribute on the session cookie.
	SecureCookies bool `yaml:"secure_cookies,omitempty"`

	// AIAPIKey is the shared credential for every remote provider.
	// Provider-specific keys below take precedence when set.
	AIAPIKey        string `yaml:"ai_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`

	// InsightProviders is the ordered remote provider chain.
	// An explicitly configured list replaces the default; it is not merged.
	InsightProviders []string `yaml:"insight_providers"`

	OpenAIModel    string `yaml:"openai_model"`
	AnthropicModel string `yaml:"anthropic_model"`
	GeminiModel    string `yaml:"gemini_model"`

	// Base URLs are empty for the public endpoints.
	OpenAIBaseURL    string `yaml:"openai_base_url,omitempty"`
	AnthropicBaseURL string `yaml:"anthropic_base_url,omitempty"`
	GeminiBaseURL    string `yaml:"gemini_base_url,omitempty"`

	// InsightTimeoutSeconds bounds each remote provider call.
	InsightTimeoutSeconds int `yaml:"insight_timeout_seconds"`

	// InsightMaxTokens caps the length of a remote response.
	InsightMaxTokens int `yaml:"insight_max_tokens"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `yaml:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `yaml:"db_max_idle_conns,omitempty"`

	// RedisAddr selects the Redis session store, as host:port or a
	// redis:// URL. Empty keeps sessions in the SQLite database.
	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `yaml:"disabled_tools,omitempty"`

	// SessionPurgeSchedule is a cron expression for deleting expired sessions.
	SessionPurgeSchedule string `yaml:"session_purge_schedule"`

	// DigestSchedule enables the Slack insight digest when set together
	// with SlackBotToken and DigestChannelID.
	DigestSchedule  string `yaml:"digest_schedule,omitempty"`
	SlackBotToken   string `yaml:"slack_bot_token,omitempty"`
	DigestChannelID string `yaml:"digest_channel_id,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxFeedbackChars:        5000,
		Bind:                    "127.0.0.1",
		Port:                    3000,
		SessionTTLHours:         24,
		LoginFailureDelayMillis: 1000,
		InsightProviders:        []string{ProviderOpenAI, ProviderAnthropic},
		OpenAIModel:             "gpt-3.5-turbo",
		AnthropicModel:          "claude-3-haiku-20240307",
		GeminiModel:             "gemini-1.5-flash",
		InsightTimeoutSeconds:   30,
		InsightMaxTokens:        1000,
		SessionPurgeSchedule:    "@every 15m",
	}
}

// Load loads configuration from baseDir and the process environment.
// Precedence: environment, then config file, then defaults.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.murmur.
func Load(baseDir string) (*Config, error) {
	fileCfg, err := loadDir(baseDir)
	if err != nil {
		return nil, err
	}
	cfg := Merge(DefaultConfig(), fileCfg)
	applyEnv(cfg, os.Getenv)
	return cfg, nil
}

// loadDir loads the first config file found in dir.
// Returns zero-valued config if none exists (not defaults).
func loadDir(dir string) (*Config, error) {
	for _, name := range configFiles {
		cfg, err := loadFileRaw(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return &Config{}, nil
}

// loadFileRaw loads configuration from a specific file path.
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}
	return cfg, nil
}

// applyEnv overrides config values from environment variables.
func applyEnv(cfg *Config, getenv func(string) string) {
	envOverride(getenv, &cfg.AIAPIKey, "AI_API_KEY")
	envOverride(getenv, &cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(getenv, &cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(getenv, &cfg.GeminiAPIKey, "GEMINI_API_KEY")
	envOverride(getenv, &cfg.AdminPassword, "ADMIN_PASSWORD")
	envOverride(getenv, &cfg.AdminPasswordHash, "ADMIN_PASSWORD_HASH")
	envOverride(getenv, &cfg.RedisAddr, "REDIS_URL")
	envOverride(getenv, &cfg.Bind, "MURMUR_BIND")
	envOverrideInt(getenv, &cfg.Port, "PORT")
	envOverride(getenv, &cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(getenv, &cfg.DigestChannelID, "DIGEST_CHANNEL_ID")
	envOverride(getenv, &cfg.DigestSchedule, "DIGEST_SCHEDULE")

	if names := getenv("INSIGHT_PROVIDERS"); names != "" {
		cfg.InsightProviders = splitList(names)
	}
}

func envOverride(getenv func(string) string, field *string, key string) {
	if val := getenv(key); val != "" {
		*field = val
	}
}

// envOverrideInt ignores unparsable values so a typo cannot zero a setting.
func envOverrideInt(getenv func(string) string, field *int, key string) {
	if val := getenv(key); val != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			*field = parsed
		}
	}
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; DisabledTools is merged and
// deduplicated; InsightProviders is replaced as a whole.
func Merge(base, overlay *Config) *Config {
	result := *base

	overrideInt(&result.MaxFeedbackChars, overlay.MaxFeedbackChars)
	overrideInt(&result.Port, overlay.Port)
	overrideInt(&result.SessionTTLHours, overlay.SessionTTLHours)
	overrideInt(&result.LoginFailureDelayMillis, overlay.LoginFailureDelayMillis)
	overrideInt(&result.InsightTimeoutSeconds, overlay.InsightTimeoutSeconds)
	overrideInt(&result.InsightMaxTokens, overlay.InsightMaxTokens)
	overrideInt(&result.DBMaxOpenConns, overlay.DBMaxOpenConns)
	overrideInt(&result.DBMaxIdleConns, overlay.DBMaxIdleConns)
	overrideInt(&result.RedisDB, overlay.RedisDB)

	overrideString(&result.Bind, overlay.Bind)
	overrideString(&result.AdminPassword, overlay.AdminPassword)
	overrideString(&result.AdminPasswordHash, overlay.AdminPasswordHash)
	overrideString(&result.RedisAddr, overlay.RedisAddr)
	overrideString(&result.RedisPassword, overlay.RedisPassword)
	overrideString(&result.AIAPIKey, overlay.AIAPIKey)
	overrideString(&result.OpenAIAPIKey, overlay.OpenAIAPIKey)
	overrideString(&result.AnthropicAPIKey, overlay.AnthropicAPIKey)
	overrideString(&result.GeminiAPIKey, overlay.GeminiAPIKey)
	overrideString(&result.OpenAIModel, overlay.OpenAIModel)
	overrideString(&result.AnthropicModel, overlay.AnthropicModel)
	overrideString(&result.GeminiModel, overlay.GeminiModel)
	overrideString(&result.OpenAIBaseURL, overlay.OpenAIBaseURL)
	overrideString(&result.AnthropicBaseURL, overlay.AnthropicBaseURL)
	overrideString(&result.GeminiBaseURL, overlay.GeminiBaseURL)
	overrideString(&result.SessionPurgeSchedule, overlay.SessionPurgeSchedule)
	overrideString(&result.DigestSchedule, overlay.DigestSchedule)
	overrideString(&result.SlackBotToken, overlay.SlackBotToken)
	overrideString(&result.DigestChannelID, overlay.DigestChannelID)

	// Booleans: overlay wins if true, else base
	result.SecureCookies = base.SecureCookies || overlay.SecureCookies

	if overlay.InsightProviders != nil {
		result.InsightProviders = mergeStringSlice(nil, overlay.InsightProviders)
	} else {
		result.InsightProviders = mergeStringSlice(nil, base.InsightProviders)
	}
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return &result
}

func overrideInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func overrideString(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}

// ProviderKey returns the credential for a named provider, falling back to
// the shared AIAPIKey.
func (c *Config) ProviderKey(name string) string {
	var specific string
	switch name {
	case ProviderOpenAI:
		specific = c.OpenAIAPIKey
	case ProviderAnthropic:
		specific = c.AnthropicAPIKey
	case ProviderGemini:
		specific = c.GeminiAPIKey
	}
	if strings.TrimSpace(specific) != "" {
		return strings.TrimSpace(specific)
	}
	return strings.TrimSpace(c.AIAPIKey)
}

// AdminConfigured reports whether any admin credential is set.
func (c *Config) AdminConfigured() bool {
	return c.AdminPassword != "" || strings.TrimSpace(c.AdminPasswordHash) != ""
}

// DigestEnabled reports whether the Slack digest job should run.
func (c *Config) DigestEnabled() bool {
	return strings.TrimSpace(c.DigestSchedule) != "" &&
		strings.TrimSpace(c.SlackBotToken) != "" &&
		strings.TrimSpace(c.DigestChannelID) != ""
}

// Validate checks values that cannot be corrected by defaults.
func (c *Config) Validate() error {
	known := make(map[string]bool, len(KnownProviders))
	for _, p := range KnownProviders {
		known[p] = true
	}
	for _, p := range c.InsightProviders {
		if !known[p] {
			return fmt.Errorf("insight_providers: unknown provider %q (known: %s)", p, strings.Join(KnownProviders, ", "))
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.MaxFeedbackChars < 1 {
		return fmt.Errorf("max_feedback_chars must be >= 1, got %d", c.MaxFeedbackChars)
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("session_ttl_hours must be >= 1, got %d", c.SessionTTLHours)
	}
	if c.InsightTimeoutSeconds < 1 {
		return fmt.Errorf("insight_timeout_seconds must be >= 1, got %d", c.InsightTimeoutSeconds)
	}
	if c.InsightMaxTokens < 1 || c.InsightMaxTokens > MaxInsightTokens {
		return fmt.Errorf("insight_max_tokens must be between 1 and %d, got %d", MaxInsightTokens, c.InsightMaxTokens)
	}
	if h := strings.TrimSpace(c.AdminPasswordHash); h != "" {
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return fmt.Errorf("admin_password_hash is not a bcrypt hash: %w", err)
		}
	}
	if s := strings.TrimSpace(c.SessionPurgeSchedule); s != "" {
		if _, err := cron.ParseStandard(s); err != nil {
			return fmt.Errorf("invalid session_purge_schedule %q: %w", s, err)
		}
	}
	if s := strings.TrimSpace(c.DigestSchedule); s != "" {
		if _, err := cron.ParseStandard(s); err != nil {
			return fmt.Errorf("invalid digest_schedule %q: %w", s, err)
		}
	}
	return nil
}

// splitList splits a comma-separated value into trimmed, non-empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
