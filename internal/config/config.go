package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/studioluxe/leadflow/pkg/notion"
)

// Config holds the full application configuration. It is read once at
// startup and never mutated afterwards.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Email     EmailConfig     `yaml:"email" mapstructure:"email"`
	CRM       CRMConfig       `yaml:"crm" mapstructure:"crm"`
	Business  BusinessConfig  `yaml:"business" mapstructure:"business"`
	Timeouts  TimeoutConfig   `yaml:"timeouts" mapstructure:"timeouts"`
	Submit    SubmitConfig    `yaml:"submit" mapstructure:"submit"`
}

// ServerConfig configures the HTTP server that receives form submissions.
type ServerConfig struct {
	Port             int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ReadTimeoutSecs  int      `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
	WriteTimeoutSecs int      `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
	MaxBodyBytes     int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnthropicConfig holds Anthropic API settings for the lead analyzer.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// EmailConfig holds SendGrid credentials and the sender/operator addresses.
type EmailConfig struct {
	SendGridKey     string `yaml:"sendgrid_key" mapstructure:"sendgrid_key"`
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	FromEmail       string `yaml:"from_email" mapstructure:"from_email"`
	FromName        string `yaml:"from_name" mapstructure:"from_name"`
	SystemFromEmail string `yaml:"system_from_email" mapstructure:"system_from_email"`
	SystemFromName  string `yaml:"system_from_name" mapstructure:"system_from_name"`
	OperatorEmail   string `yaml:"operator_email" mapstructure:"operator_email"`
}

// CRMConfig selects and configures the optional CRM sink.
type CRMConfig struct {
	Provider   string           `yaml:"provider" mapstructure:"provider"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
}

// NotionConfig holds the Notion integration token and lead database.
type NotionConfig struct {
	Token      string  `yaml:"token" mapstructure:"token"`
	DatabaseID string  `yaml:"database_id" mapstructure:"database_id"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
	SObject  string `yaml:"sobject" mapstructure:"sobject"`

	// RateLimit caps API calls per second. Zero disables throttling.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// BusinessConfig holds the agency details embedded in analyzer prompts.
type BusinessConfig struct {
	AgencyName  string `yaml:"agency_name" mapstructure:"agency_name"`
	BookingURL  string `yaml:"booking_url" mapstructure:"booking_url"`
	ServicesURL string `yaml:"services_url" mapstructure:"services_url"`
	AuditPrice  string `yaml:"audit_price" mapstructure:"audit_price"`
}

// TimeoutConfig bounds each outbound call made by the pipeline.
type TimeoutConfig struct {
	AnalyzeSecs int `yaml:"analyze_secs" mapstructure:"analyze_secs"`
	EmailSecs   int `yaml:"email_secs" mapstructure:"email_secs"`
	CRMSecs     int `yaml:"crm_secs" mapstructure:"crm_secs"`
}

// Analyze returns the analyzer timeout.
func (t TimeoutConfig) Analyze() time.Duration { return seconds(t.AnalyzeSecs, 45) }

// Email returns the per-send email timeout.
func (t TimeoutConfig) Email() time.Duration { return seconds(t.EmailSecs, 10) }

// CRM returns the CRM write timeout.
func (t TimeoutConfig) CRM() time.Duration { return seconds(t.CRMSecs, 15) }

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

// SubmitConfig configures the offline submit command.
type SubmitConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// CRM provider names.
const (
	ProviderNotion     = "notion"
	ProviderSalesforce = "salesforce"
)

// CRMEnabled reports whether the configured CRM provider has the credentials
// and target collection it needs. When false the sync stage never runs.
func (c *Config) CRMEnabled() bool {
	switch c.CRM.Provider {
	case ProviderNotion:
		return c.CRM.Notion.Token != "" && notion.NormalizeDatabaseID(c.CRM.Notion.DatabaseID) != ""
	case ProviderSalesforce:
		return c.CRM.Salesforce.ClientID != "" && c.CRM.Salesforce.SObject != ""
	default:
		return false
	}
}

// Validate checks the settings a command needs before it starts. A missing
// operator address is deliberately not checked here: the pipeline reports
// it on every submission.
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "serve", "submit":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
		if c.Email.SendGridKey == "" {
			errs = append(errs, "email.sendgrid_key is required")
		}
		if c.Email.FromEmail == "" {
			errs = append(errs, "email.from_email is required")
		}
		if mode == "serve" && c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "leads":
		if c.CRM.Notion.Token == "" {
			errs = append(errs, "crm.notion.token is required")
		}
		if c.CRM.Notion.DatabaseID == "" {
			errs = append(errs, "crm.notion.database_id is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.CRM.Provider {
	case "", ProviderNotion, ProviderSalesforce:
	default:
		errs = append(errs, fmt.Sprintf("crm.provider %q is not supported", c.CRM.Provider))
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets have no default, so AutomaticEnv alone would not surface them
	// through Unmarshal.
	for _, key := range []string{
		"anthropic.key",
		"email.sendgrid_key",
		"email.operator_email",
		"crm.notion.token",
		"crm.notion.database_id",
		"crm.salesforce.client_id",
		"crm.salesforce.username",
		"crm.salesforce.key_path",
	} {
		_ = v.BindEnv(key)
	}

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"https://studioluxe.design"})
	v.SetDefault("server.read_timeout_secs", 10)
	v.SetDefault("server.write_timeout_secs", 120)
	v.SetDefault("server.max_body_bytes", 64<<10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("email.from_email", "onboarding@studioluxe.design")
	v.SetDefault("email.from_name", "StudioLuxe")
	v.SetDefault("email.system_from_email", "system@studioluxe.design")
	v.SetDefault("email.system_from_name", "StudioLuxe System")
	v.SetDefault("crm.provider", ProviderNotion)
	v.SetDefault("crm.notion.rate_limit", 3)
	v.SetDefault("crm.salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("crm.salesforce.sobject", "Lead")
	v.SetDefault("crm.salesforce.rate_limit", 5)
	v.SetDefault("business.agency_name", "StudioLuxe")
	v.SetDefault("business.booking_url", "https://cal.com/studioluxe/intro")
	v.SetDefault("business.services_url", "https://studioluxe.design/services")
	v.SetDefault("business.audit_price", "$500")
	v.SetDefault("timeouts.analyze_secs", 45)
	v.SetDefault("timeouts.email_secs", 10)
	v.SetDefault("timeouts.crm_secs", 15)
	v.SetDefault("submit.max_concurrent", 2)

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
