// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the contact relay.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultMaxBodyBytes caps the request body at 1 MiB.
const defaultMaxBodyBytes = 1 << 20

// Config holds the complete application configuration.
type Config struct {
	// Provider selects the outbound transport: ses, graph, smtp or stdout.
	// Empty means auto-detect.
	Provider string        `yaml:"provider"`
	Contact  ContactConfig `yaml:"contact"`
	Auth     AuthConfig    `yaml:"auth"`
	HTTP     HTTPConfig    `yaml:"http"`
	CORS     CORSConfig    `yaml:"cors"`
	SES      SESConfig     `yaml:"ses"`
	Graph    GraphConfig   `yaml:"graph"`
	SMTP     SMTPConfig    `yaml:"smtp"`
	TLS      TLSConfig     `yaml:"tls"`
	Tracing  TracingConfig `yaml:"tracing"`
	Logging  LoggingConfig `yaml:"logging"`
}

// ContactConfig holds the fixed operator addresses.
type ContactConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// AuthConfig holds the shared secret callers present as a bearer token.
type AuthConfig struct {
	Token string `yaml:"token"`
}

// HTTPConfig holds HTTP listener configuration.
type HTTPConfig struct {
	Listen       string `yaml:"listen"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// CORSConfig lists browser origins allowed to call the endpoint.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region           string `yaml:"region"`
	AccessKeyID      string `yaml:"access_key_id"`
	SecretAccessKey  string `yaml:"secret_access_key"`
	ConfigurationSet string `yaml:"configuration_set"`
}

// GraphConfig holds Microsoft Graph API configuration.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Sender       string `yaml:"sender"`
}

// SMTPConfig holds outbound SMTP relay configuration.
type SMTPConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	ImplicitTLS bool   `yaml:"implicit_tls"`
}

// TLSConfig controls HTTPS on the listener. Without cert files a
// self-signed certificate is generated.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// TracingConfig holds DataDog tracer settings.
type TracingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Service string `yaml:"service"`
	Env     string `yaml:"env"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()
	cfg.Provider = strings.ToLower(cfg.Provider)

	return cfg, nil
}

// GraphConfigured returns true if all four Graph API credentials are set.
func (c *Config) GraphConfigured() bool {
	return c.Graph.TenantID != "" &&
		c.Graph.ClientID != "" &&
		c.Graph.ClientSecret != "" &&
		c.Graph.Sender != ""
}

// SESConfigured returns true if an SES region is set. Credentials may come
// from the default AWS chain.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != ""
}

// SMTPConfigured returns true if an SMTP relay host is set.
func (c *Config) SMTPConfigured() bool {
	return c.SMTP.Host != ""
}

// AuthEnabled returns true if a shared secret is configured. Requests are
// rejected when it is not.
func (c *Config) AuthEnabled() bool {
	return c.Auth.Token != ""
}

// Missing returns the names of required settings that are empty.
func (c *Config) Missing() []string {
	var missing []string
	if c.Auth.Token == "" {
		missing = append(missing, "TOKEN")
	}
	if c.Contact.From == "" {
		missing = append(missing, "CONTACT_FROM")
	}
	if c.Contact.To == "" {
		missing = append(missing, "CONTACT_TO")
	}
	return missing
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.HTTP.Listen = ":8787"
	c.HTTP.MaxBodyBytes = defaultMaxBodyBytes
	c.SMTP.Port = 587
	c.Tracing.Service = "contact-relay"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("CONTACT_FROM"); v != "" {
		c.Contact.From = v
	}
	if v := os.Getenv("CONTACT_TO"); v != "" {
		c.Contact.To = v
	}
	if v := os.Getenv("TOKEN"); v != "" {
		c.Auth.Token = v
	}

	if v := os.Getenv("HTTP_LISTEN"); v != "" {
		c.HTTP.Listen = v
	}
	if v := os.Getenv("HTTP_MAX_BODY_BYTES"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil && size > 0 {
			c.HTTP.MaxBodyBytes = size
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_CONFIGURATION_SET"); v != "" {
		c.SES.ConfigurationSet = v
	}

	if v := os.Getenv("GRAPH_TENANT_ID"); v != "" {
		c.Graph.TenantID = v
	}
	if v := os.Getenv("GRAPH_CLIENT_ID"); v != "" {
		c.Graph.ClientID = v
	}
	if v := os.Getenv("GRAPH_CLIENT_SECRET"); v != "" {
		c.Graph.ClientSecret = v
	}
	if v := os.Getenv("GRAPH_SENDER"); v != "" {
		c.Graph.Sender = v
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_IMPLICIT_TLS"); v != "" {
		c.SMTP.ImplicitTLS = parseBool(v, c.SMTP.ImplicitTLS)
	}

	if v := os.Getenv("TLS_ENABLED"); v != "" {
		c.TLS.Enabled = parseBool(v, c.TLS.Enabled)
	}
	if v := os.Getenv("TLS_CERT_FILE"); v != "" {
		c.TLS.CertFile = v
	}
	if v := os.Getenv("TLS_KEY_FILE"); v != "" {
		c.TLS.KeyFile = v
	}

	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		c.Tracing.Enabled = parseBool(v, c.Tracing.Enabled)
	}
	if v := os.Getenv("DD_SERVICE"); v != "" {
		c.Tracing.Service = v
	}
	if v := os.Getenv("DD_ENV"); v != "" {
		c.Tracing.Env = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseBool parses v, keeping fallback when v is not a boolean.
func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}
