package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

type LLMProvider string

const (
	LLMProviderOpenAI    LLMProvider = "openai"
	LLMProviderAnthropic LLMProvider = "anthropic"
	LLMProviderGemini    LLMProvider = "gemini"
	LLMProviderMock      LLMProvider = "mock"
)

// DefaultAdminPasscode is the publicly known passcode of the bootstrap admin.
// It must be rotated after the first start.
const DefaultAdminPasscode = "Learningapp12345"

// Config holds the configuration for the EduQuest server and its dependencies.
type Config struct {
	// Listen is the address the EduQuest server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the public URL of the server, used in notifications.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// SessionKey is the key used to encrypt session data.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a login session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// SecureCookies marks the session cookie as secure (https only).
	SecureCookies bool `yaml:"secure_cookies" mapstructure:"secure_cookies"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Bootstrap holds the identity of the admin created on first run.
	Bootstrap *BootstrapConfig `yaml:"bootstrap" mapstructure:"bootstrap"`
	// LLM holds the configuration of the text generation provider.
	LLM *LLMConfig `yaml:"llm" mapstructure:"llm"`
	// Cache holds the configuration for the learner context cache.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Learner holds settings for in-flight learning sessions.
	Learner *LearnerConfig `yaml:"learner" mapstructure:"learner"`
	// Schedule holds the cron expressions of the background jobs.
	Schedule *ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`
	// History holds settings for the audit history.
	History *HistoryConfig `yaml:"history" mapstructure:"history"`
	// Email is the configuration for email notifications.
	Email *EmailConfig `yaml:"email" mapstructure:"email"`
	// Ntfy is the configuration for ntfy push notifications.
	Ntfy *NtfyConfig `yaml:"ntfy" mapstructure:"ntfy"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// BootstrapConfig holds the bootstrap admin identity.
type BootstrapConfig struct {
	AdminName     string `yaml:"admin_name" mapstructure:"admin_name"`
	AdminPasscode string `yaml:"admin_passcode" mapstructure:"admin_passcode"`
}

// LLMConfig holds the configuration of the lesson generator.
type LLMConfig struct {
	// Provider is one of "openai", "anthropic", "gemini" or "mock".
	Provider LLMProvider `yaml:"provider" mapstructure:"provider"`
	// APIKey is the credential for the provider.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// Model overrides the provider's default model.
	Model string `yaml:"model" mapstructure:"model"`
	// BaseURL overrides the provider endpoint (OpenAI compatible servers, tests).
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// MaxTokens caps the length of the generated lesson and quiz.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`
	// Timeout bounds a single generation call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig holds the configuration for the cache engine.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the URL for the Redis cache if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
}

// LearnerConfig holds settings for in-flight learning sessions.
type LearnerConfig struct {
	// ContextTTL is how long an idle learning session is kept before it is abandoned.
	ContextTTL time.Duration `yaml:"context_ttl" mapstructure:"context_ttl"`
}

// ScheduleConfig holds cron expressions (5 fields) for the background jobs.
type ScheduleConfig struct {
	ReviewDigest string `yaml:"review_digest" mapstructure:"review_digest"`
	Maintenance  string `yaml:"maintenance" mapstructure:"maintenance"`
}

type HistoryConfig struct {
	// Retention is how long history events are kept. Zero keeps them forever.
	Retention time.Duration `yaml:"retention" mapstructure:"retention"`
}

// EmailConfig holds the email notification configuration.
type EmailConfig struct {
	// Enabled indicates whether email notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// SMTPHost is the SMTP server host.
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	// SMTPPort is the SMTP server port.
	SMTPPort int `yaml:"smtp_port" mapstructure:"smtp_port"`
	// Username is the SMTP username.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the SMTP password.
	Password string `yaml:"password" mapstructure:"password"`
	// FromEmail is the email address from which notifications are sent.
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	// FromName is the name from which notifications are sent.
	FromName string `yaml:"from_name" mapstructure:"from_name"`
	// Recipients receive all admin notifications.
	Recipients []string `yaml:"recipients" mapstructure:"recipients"`
	// UseTLS indicates whether to use TLS for the SMTP connection.
	UseTLS bool `yaml:"use_tls" mapstructure:"use_tls"`
	// UseSSL indicates whether to use SSL for the SMTP connection.
	UseSSL bool `yaml:"use_ssl" mapstructure:"use_ssl"`
	// InsecureSkipVerify indicates whether to skip TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// NtfyConfig holds the ntfy notification configuration.
type NtfyConfig struct {
	// Enabled indicates whether ntfy notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ServerURL is the URL of the ntfy server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// Topic is the ntfy topic to publish notifications to.
	Topic string `yaml:"topic" mapstructure:"topic"`
	// Username for basic auth.
	Username string `yaml:"username" mapstructure:"username"`
	// Password for basic auth.
	Password string `yaml:"password" mapstructure:"password"`
	// Token for bearer auth. Takes precedence over username/password.
	Token string `yaml:"token" mapstructure:"token"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("EDUQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindNestedEnv(v)

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.eduquest")
		v.AddConfigPath("/etc/eduquest")
	}

	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with the EDUQUEST_ prefix override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)
	applyProviderKeyFallback(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	if c.Bootstrap.AdminPasscode == DefaultAdminPasscode {
		log.Warn("The bootstrap admin uses the default passcode, rotate it with `eduquest user passcode`", "name", c.Bootstrap.AdminName)
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3003")
	v.SetDefault("server_url", "http://localhost:3003")
	v.SetDefault("session_key", "")
	v.SetDefault("session_max_age", 172800) // 48 hour
	v.SetDefault("secure_cookies", false)

	v.SetDefault("database.path", "./data/eduquest.db")

	v.SetDefault("bootstrap.admin_name", "Parent")
	v.SetDefault("bootstrap.admin_passcode", DefaultAdminPasscode)

	v.SetDefault("llm.provider", LLMProviderOpenAI)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_tokens", 3500)
	v.SetDefault("llm.timeout", 2*time.Minute)

	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")

	v.SetDefault("learner.context_ttl", 4*time.Hour)

	v.SetDefault("schedule.review_digest", "0 18 * * *")
	v.SetDefault("schedule.maintenance", "0 3 * * *")

	v.SetDefault("history.retention", 90*24*time.Hour)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from_email", "")
	v.SetDefault("email.from_name", "EduQuest")
	v.SetDefault("email.recipients", []string{})
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.insecure_skip_verify", false)

	v.SetDefault("ntfy.enabled", false)
	v.SetDefault("ntfy.server_url", "https://ntfy.sh")
	v.SetDefault("ntfy.topic", "eduquest")
	v.SetDefault("ntfy.username", "")
	v.SetDefault("ntfy.password", "")
	v.SetDefault("ntfy.token", "")
}

// keys without a default are not picked up by AutomaticEnv on Unmarshal,
// so they have to be bound by hand.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv("llm.api_key", "EDUQUEST_LLM_API_KEY")
}

// applyProviderKeyFallback reads the conventional environment variable of the
// selected provider when no key was configured.
func applyProviderKeyFallback(c *Config) {
	if c.LLM == nil || c.LLM.APIKey != "" {
		return
	}
	var env string
	switch c.LLM.Provider {
	case LLMProviderOpenAI:
		env = "OPENAI_API_KEY"
	case LLMProviderAnthropic:
		env = "ANTHROPIC_API_KEY"
	case LLMProviderGemini:
		env = "GEMINI_API_KEY"
	default:
		return
	}
	c.LLM.APIKey = os.Getenv(env)
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing eduquest config")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("session max age must be greater than 0")
	}

	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Bootstrap == nil || strings.TrimSpace(c.Bootstrap.AdminName) == "" {
		return fmt.Errorf("bootstrap admin name is required")
	}
	if c.Bootstrap.AdminPasscode == "" {
		return fmt.Errorf("bootstrap admin passcode is required")
	}

	if c.LLM == nil {
		return fmt.Errorf("llm config is required")
	}
	switch c.LLM.Provider {
	case LLMProviderOpenAI, LLMProviderAnthropic, LLMProviderGemini:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm api key is required for provider %q", c.LLM.Provider)
		}
	case LLMProviderMock:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max tokens must be greater than 0")
	}

	if c.Cache == nil {
		return fmt.Errorf("cache config is required")
	}
	switch c.Cache.Type {
	case CacheTypeMemory:
	case CacheTypeRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("redis URL is required when using redis cache")
		}
	default:
		return fmt.Errorf("unknown cache type %q", c.Cache.Type)
	}

	if c.Learner == nil || c.Learner.ContextTTL <= 0 {
		return fmt.Errorf("learner context ttl must be greater than 0")
	}

	if c.Schedule != nil {
		for name, expr := range map[string]string{
			"review digest": c.Schedule.ReviewDigest,
			"maintenance":   c.Schedule.Maintenance,
		} {
			// Basic validation for cron format (5 fields)
			if len(strings.Fields(expr)) != 5 {
				return fmt.Errorf("%s schedule must be a valid cron expression with 5 fields (minute hour day month weekday)", name)
			}
		}
	}

	if c.Email != nil && c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("SMTP host is required when email notifications are enabled")
		}
		if c.Email.FromEmail == "" {
			return fmt.Errorf("from email is required when email notifications are enabled")
		}
		if len(c.Email.Recipients) == 0 {
			return fmt.Errorf("at least one recipient is required when email notifications are enabled")
		}
	}

	if c.Ntfy != nil && c.Ntfy.Enabled {
		if c.Ntfy.ServerURL == "" {
			return fmt.Errorf("ntfy server URL is required when ntfy notifications are enabled")
		}
		if c.Ntfy.Topic == "" {
			return fmt.Errorf("ntfy topic is required when ntfy notifications are enabled")
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}

	if c.LLM != nil {
		c.LLM.BaseURL = urlSanitize(c.LLM.BaseURL)
		c.LLM.Provider = LLMProvider(strings.ToLower(strings.TrimSpace(string(c.LLM.Provider))))
	}

	if c.Ntfy != nil {
		c.Ntfy.ServerURL = urlSanitize(c.Ntfy.ServerURL)
	}

	if c.Bootstrap != nil {
		c.Bootstrap.AdminName = strings.TrimSpace(c.Bootstrap.AdminName)
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}
