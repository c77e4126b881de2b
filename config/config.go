package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete certificate authentication configuration
type Config struct {
	Directory DirectoryConfig `yaml:"directory" json:"directory"`
	Resolver  ResolverConfig  `yaml:"resolver" json:"resolver"`
	Warn      WarnConfig      `yaml:"warn" json:"warn"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	TLS       TLSConfig       `yaml:"tls" json:"tls"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Transport TransportConfig `yaml:"transport" json:"transport"`
}

// DirectoryConfig defines directory server connection settings
type DirectoryConfig struct {
	URL          string        `yaml:"url" json:"url"` // ldap:// or ldaps://
	BindDN       string        `yaml:"bind_dn" json:"bind_dn"`
	BindPassword string        `yaml:"bind_password" json:"bind_password"`
	StartTLS     bool          `yaml:"start_tls" json:"start_tls"`
	SkipVerify   bool          `yaml:"skip_verify" json:"skip_verify"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	SearchBases  []string      `yaml:"search_bases" json:"search_bases"`
}

// AttributePairConfig maps one certificate subject attribute to one
// directory attribute
type AttributePairConfig struct {
	CertAttribute      string `yaml:"cert_attribute" json:"cert_attribute"`
	DirectoryAttribute string `yaml:"directory_attribute" json:"directory_attribute"`
}

// ResolverConfig defines how certificates resolve to directory identities
type ResolverConfig struct {
	// AttributeMapping is walked in order; the first pair that matches
	// a directory entry wins. Defaults to UID -> uid.
	AttributeMapping []AttributePairConfig `yaml:"attribute_mapping" json:"attribute_mapping"`

	// StoredCertificateAttributes names the entry attributes holding
	// certificate blobs for the byte-level cross-check. An empty list
	// disables the cross-check entirely.
	StoredCertificateAttributes []string `yaml:"stored_certificate_attributes" json:"stored_certificate_attributes"`

	// IdentityAttributes restricts which entry attributes are returned
	// on success. Empty means all attributes.
	IdentityAttributes []string `yaml:"identity_attributes" json:"identity_attributes"`
}

// WarnConfig defines the certificate expiry warning interruption
type WarnConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	DaysBefore int    `yaml:"days_before" json:"days_before"` // default 30
	RenewURL   string `yaml:"renew_url" json:"renew_url"`
	WarningURL string `yaml:"warning_url" json:"warning_url"`
}

// StoreConfig defines where suspended flow state is kept
type StoreConfig struct {
	Backend         string        `yaml:"backend" json:"backend"` // memory, sqlite
	DSN             string        `yaml:"dsn" json:"dsn"`         // for sqlite backend
	TTL             time.Duration `yaml:"ttl" json:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// TLSConfig defines the server certificate and client CA settings
type TLSConfig struct {
	CertFile     string `yaml:"cert_file" json:"cert_file"`
	KeyFile      string `yaml:"key_file" json:"key_file"`
	ClientCAFile string `yaml:"client_ca_file" json:"client_ca_file"`
	MinVersion   string `yaml:"min_version" json:"min_version"` // TLS1.2, TLS1.3
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`           // debug, info, warn, error
	Format    string `yaml:"format" json:"format"`         // json, text
	Output    string `yaml:"output" json:"output"`         // stdout, file
	AuditFile string `yaml:"audit_file" json:"audit_file"` // audit log file path
}

// TransportConfig defines HTTP server configuration
type TransportConfig struct {
	HTTPAddr      string        `yaml:"http_addr" json:"http_addr"`
	ReadTimeout   time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	EnableMetrics bool          `yaml:"enable_metrics" json:"enable_metrics"`
}

// Loader provides configuration loading functionality
type Loader struct{}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses configuration from file
func (l *Loader) Load(path string) (*Config, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Determine format by extension
	ext := filepath.Ext(path)

	var config Config
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	// Validate configuration
	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Set defaults
	l.setDefaults(&config)

	return &config, nil
}

// Validate checks configuration validity
func (l *Loader) Validate(config *Config) error {
	// Validate directory URL scheme
	if config.Directory.URL != "" {
		u, err := url.Parse(config.Directory.URL)
		if err != nil {
			return fmt.Errorf("invalid directory.url: %w", err)
		}
		switch u.Scheme {
		case "ldap", "ldaps":
			// valid
		default:
			return fmt.Errorf("invalid directory.url scheme: %s (must be ldap/ldaps)", u.Scheme)
		}
	}

	// Validate attribute mapping pairs are complete
	for i, pair := range config.Resolver.AttributeMapping {
		if pair.CertAttribute == "" || pair.DirectoryAttribute == "" {
			return fmt.Errorf("resolver.attribute_mapping[%d]: both cert_attribute and directory_attribute are required", i)
		}
	}

	// Warn settings only matter when enabled
	if config.Warn.Enabled {
		if config.Warn.DaysBefore < 0 {
			return fmt.Errorf("warn.days_before must not be negative")
		}
		if config.Warn.WarningURL == "" {
			return fmt.Errorf("warn.warning_url is required when warn is enabled")
		}
	}

	// Validate store backend
	switch config.Store.Backend {
	case "memory", "sqlite", "":
		// valid
	default:
		return fmt.Errorf("invalid store backend: %s (must be memory/sqlite)", config.Store.Backend)
	}
	if config.Store.Backend == "sqlite" && config.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required when backend=sqlite")
	}

	// Validate TLS files exist
	if config.TLS.CertFile != "" {
		if _, err := os.Stat(config.TLS.CertFile); err != nil {
			return fmt.Errorf("cert_file not found: %s", config.TLS.CertFile)
		}
	}
	if config.TLS.KeyFile != "" {
		if _, err := os.Stat(config.TLS.KeyFile); err != nil {
			return fmt.Errorf("key_file not found: %s", config.TLS.KeyFile)
		}
	}
	if config.TLS.ClientCAFile != "" {
		if _, err := os.Stat(config.TLS.ClientCAFile); err != nil {
			return fmt.Errorf("client_ca_file not found: %s", config.TLS.ClientCAFile)
		}
	}

	// Validate logging level
	switch config.Logging.Level {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("invalid logging level: %s", config.Logging.Level)
	}

	// Validate logging format
	switch config.Logging.Format {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("invalid logging format: %s", config.Logging.Format)
	}

	return nil
}

// setDefaults sets default values for optional fields
func (l *Loader) setDefaults(config *Config) {
	// Directory defaults
	if config.Directory.Timeout == 0 {
		config.Directory.Timeout = 10 * time.Second
	}

	// Resolver defaults: match on UID unless told otherwise
	if len(config.Resolver.AttributeMapping) == 0 {
		config.Resolver.AttributeMapping = []AttributePairConfig{
			{CertAttribute: "UID", DirectoryAttribute: "uid"},
		}
	}

	// Warn defaults
	if config.Warn.DaysBefore == 0 {
		config.Warn.DaysBefore = 30
	}

	// Store defaults
	if config.Store.Backend == "" {
		config.Store.Backend = "memory"
	}
	if config.Store.TTL == 0 {
		config.Store.TTL = 3600 * time.Second // 1 hour
	}
	if config.Store.CleanupInterval == 0 {
		config.Store.CleanupInterval = 300 * time.Second
	}

	// Logging defaults
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "json"
	}
	if config.Logging.Output == "" {
		config.Logging.Output = "stdout"
	}

	// Transport defaults
	if config.Transport.HTTPAddr == "" {
		config.Transport.HTTPAddr = ":8443"
	}
	if config.Transport.ReadTimeout == 0 {
		config.Transport.ReadTimeout = 30 * time.Second
	}
	if config.Transport.WriteTimeout == 0 {
		config.Transport.WriteTimeout = 30 * time.Second
	}
	if config.Transport.IdleTimeout == 0 {
		config.Transport.IdleTimeout = 120 * time.Second
	}
}

// Redacted returns a copy safe for logging, with secrets masked
func (c *Config) Redacted() *Config {
	out := *c
	if out.Directory.BindPassword != "" {
		out.Directory.BindPassword = strings.Repeat("*", 8)
	}
	return &out
}
