package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoader_Load_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	yamlContent := `directory:
  url: ldaps://ldap.example.com:636
  bind_dn: cn=reader,dc=example,dc=com
  bind_password: secret
  timeout: 5s
  search_bases:
    - ou=people,dc=example,dc=com
    - ou=service,dc=example,dc=com

resolver:
  attribute_mapping:
    - cert_attribute: UID
      directory_attribute: uid
    - cert_attribute: CN
      directory_attribute: cn
  stored_certificate_attributes:
    - userCertificate;binary
  identity_attributes:
    - uid
    - mail

warn:
  enabled: true
  days_before: 14
  renew_url: https://pki.example.com/renew
  warning_url: https://auth.example.com/cert-warning

store:
  backend: memory
  ttl: 1800s

logging:
  level: debug
  format: text
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	loader := NewLoader()
	config, err := loader.Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Directory.URL != "ldaps://ldap.example.com:636" {
		t.Errorf("Expected ldaps URL, got %s", config.Directory.URL)
	}
	if len(config.Directory.SearchBases) != 2 {
		t.Errorf("Expected 2 search bases, got %d", len(config.Directory.SearchBases))
	}
	if config.Directory.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", config.Directory.Timeout)
	}

	if len(config.Resolver.AttributeMapping) != 2 {
		t.Fatalf("Expected 2 mapping pairs, got %d", len(config.Resolver.AttributeMapping))
	}
	if config.Resolver.AttributeMapping[0].CertAttribute != "UID" {
		t.Errorf("Expected first pair cert attribute UID, got %s", config.Resolver.AttributeMapping[0].CertAttribute)
	}
	if config.Resolver.StoredCertificateAttributes[0] != "userCertificate;binary" {
		t.Errorf("Unexpected stored cert attributes: %v", config.Resolver.StoredCertificateAttributes)
	}

	if !config.Warn.Enabled || config.Warn.DaysBefore != 14 {
		t.Errorf("Unexpected warn config: %+v", config.Warn)
	}
	if config.Store.TTL != 1800*time.Second {
		t.Errorf("Expected TTL 1800s, got %v", config.Store.TTL)
	}
}

func TestLoader_Load_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.json")

	jsonContent := `{
  "directory": {
    "url": "ldap://localhost:389"
  },
  "warn": {
    "enabled": true,
    "warning_url": "https://auth.example.com/cert-warning"
  }
}`

	if err := os.WriteFile(configPath, []byte(jsonContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	loader := NewLoader()
	config, err := loader.Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Directory.URL != "ldap://localhost:389" {
		t.Errorf("Unexpected directory URL: %s", config.Directory.URL)
	}
}

func TestLoader_Load_UnsupportedFormat(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.toml")
	os.WriteFile(configPath, []byte("x = 1"), 0644)

	loader := NewLoader()
	if _, err := loader.Load(configPath); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestLoader_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")
	os.WriteFile(configPath, []byte("directory:\n  url: ldap://localhost\n"), 0644)

	loader := NewLoader()
	config, err := loader.Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Default mapping is UID -> uid
	if len(config.Resolver.AttributeMapping) != 1 {
		t.Fatalf("Expected default mapping, got %v", config.Resolver.AttributeMapping)
	}
	if config.Resolver.AttributeMapping[0].DirectoryAttribute != "uid" {
		t.Errorf("Expected default directory attribute uid, got %s", config.Resolver.AttributeMapping[0].DirectoryAttribute)
	}

	if config.Warn.DaysBefore != 30 {
		t.Errorf("Expected default days_before 30, got %d", config.Warn.DaysBefore)
	}
	if config.Store.Backend != "memory" {
		t.Errorf("Expected default store backend memory, got %s", config.Store.Backend)
	}
	if config.Store.TTL != 3600*time.Second {
		t.Errorf("Expected default TTL 1h, got %v", config.Store.TTL)
	}
	if config.Logging.Level != "info" {
		t.Errorf("Expected default logging level info, got %s", config.Logging.Level)
	}
	if config.Transport.HTTPAddr != ":8443" {
		t.Errorf("Expected default http_addr :8443, got %s", config.Transport.HTTPAddr)
	}
}

func TestLoader_Validate_Errors(t *testing.T) {
	loader := NewLoader()

	tests := []struct {
		name   string
		config Config
	}{
		{
			name: "bad directory scheme",
			config: Config{
				Directory: DirectoryConfig{URL: "http://example.com"},
			},
		},
		{
			name: "incomplete mapping pair",
			config: Config{
				Resolver: ResolverConfig{
					AttributeMapping: []AttributePairConfig{{CertAttribute: "UID"}},
				},
			},
		},
		{
			name: "warn enabled without warning_url",
			config: Config{
				Warn: WarnConfig{Enabled: true, DaysBefore: 30},
			},
		},
		{
			name: "negative days_before",
			config: Config{
				Warn: WarnConfig{Enabled: true, DaysBefore: -1, WarningURL: "https://x/warn"},
			},
		},
		{
			name: "unknown store backend",
			config: Config{
				Store: StoreConfig{Backend: "redis"},
			},
		},
		{
			name: "sqlite without dsn",
			config: Config{
				Store: StoreConfig{Backend: "sqlite"},
			},
		},
		{
			name: "bad logging level",
			config: Config{
				Logging: LoggingConfig{Level: "verbose"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := loader.Validate(&tt.config); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}

func TestConfig_Redacted(t *testing.T) {
	config := &Config{
		Directory: DirectoryConfig{
			URL:          "ldap://localhost",
			BindPassword: "hunter2",
		},
	}

	redacted := config.Redacted()
	if redacted.Directory.BindPassword == "hunter2" {
		t.Error("Expected bind password to be masked")
	}
	// Original untouched
	if config.Directory.BindPassword != "hunter2" {
		t.Error("Original config must not be modified")
	}
}
