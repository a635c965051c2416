package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the bridge service. Values come from
// environment variables, optionally seeded by a config.defaults.yaml file.
type Config struct {
	Port     int    `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	TwilioAccountSID  string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `mapstructure:"TWILIO_PHONE_NUMBER"`

	UltravoxAPIKey  string `mapstructure:"ULTRAVOX_API_KEY"`
	UltravoxBaseURL string `mapstructure:"ULTRAVOX_BASE_URL"`

	// HighLevel CRM is optional; tagging tools are only declared when both
	// the API key and location ID are present.
	HighLevelAPIKey     string `mapstructure:"HIGHLEVEL_API_KEY"`
	HighLevelLocationID string `mapstructure:"HIGHLEVEL_LOCATION_ID"`
	HighLevelBaseURL    string `mapstructure:"HIGHLEVEL_BASE_URL"`

	// CrmWebhookURL is the third-party endpoint for the pass-through
	// addContact tool. The voice provider calls it directly.
	CrmWebhookURL string `mapstructure:"CRM_WEBHOOK_URL"`

	// ServerBaseURL is the externally reachable URL of this service. Required
	// for any tool callback to work off of localhost.
	ServerBaseURL     string `mapstructure:"SERVER_BASE_URL"`
	RenderExternalURL string `mapstructure:"RENDER_EXTERNAL_URL"`
	VercelURL         string `mapstructure:"VERCEL_URL"`

	// WebhookSecret, when set, turns on JWT verification for the tool
	// callback endpoints.
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET"`

	// PostgresDSN, when set, enables the call-audit log.
	PostgresDSN string `mapstructure:"POSTGRES_DSN"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config.defaults")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Defaults also register keys so AutomaticEnv picks them up.
	v.SetDefault("PORT", 10000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_PHONE_NUMBER", "")
	v.SetDefault("ULTRAVOX_API_KEY", "")
	v.SetDefault("ULTRAVOX_BASE_URL", "https://api.ultravox.ai/api")
	v.SetDefault("HIGHLEVEL_API_KEY", "")
	v.SetDefault("HIGHLEVEL_LOCATION_ID", "")
	v.SetDefault("HIGHLEVEL_BASE_URL", "https://services.leadconnectorhq.com")
	v.SetDefault("CRM_WEBHOOK_URL", "")
	v.SetDefault("SERVER_BASE_URL", "")
	v.SetDefault("RENDER_EXTERNAL_URL", "")
	v.SetDefault("VERCEL_URL", "")
	v.SetDefault("WEBHOOK_SECRET", "")
	v.SetDefault("POSTGRES_DSN", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Base configuration file ('config.defaults.yaml') not found; using defaults and environment variables.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the required variables that are missing. The process must
// exit before serving traffic when this returns an error.
func (c *Config) Validate() error {
	var missing []string
	if c.TwilioAccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if c.TwilioAuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if c.TwilioPhoneNumber == "" {
		missing = append(missing, "TWILIO_PHONE_NUMBER")
	}
	if c.UltravoxAPIKey == "" {
		missing = append(missing, "ULTRAVOX_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CrmEnabled reports whether the HighLevel client can be constructed.
func (c *Config) CrmEnabled() bool {
	return c.HighLevelAPIKey != "" && c.HighLevelLocationID != ""
}

// PublicBaseURL resolves the externally reachable base URL for tool
// callbacks: explicit config first, then detected cloud platform URLs, then a
// localhost fallback that only works for local testing.
func (c *Config) PublicBaseURL() string {
	if c.ServerBaseURL != "" {
		return strings.TrimRight(c.ServerBaseURL, "/")
	}
	if c.RenderExternalURL != "" {
		return strings.TrimRight(c.RenderExternalURL, "/")
	}
	if c.VercelURL != "" {
		return "https://" + strings.TrimRight(c.VercelURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Port)
}
