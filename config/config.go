// Package config loads settings from a YAML file, a .env file and
// process environment, in increasing order of priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/petopia/pipecodec/backup"
	"github.com/petopia/pipecodec/u"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// directory for daily log files; empty means log only to stdout
	LogDir  string `yaml:"log_dir"`
	Verbose bool   `yaml:"verbose"`

	Store  StoreConfig  `yaml:"store"`
	Script ScriptConfig `yaml:"script"`
	Backup BackupConfig `yaml:"backup"`
}

type StoreConfig struct {
	Dir      string `yaml:"dir"`
	Compress bool   `yaml:"compress"`
}

// ScriptConfig configures the spreadsheet web app and the proxy server
type ScriptConfig struct {
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"`
	// address of proxy server e.g. ":8080"
	Addr string `yaml:"addr"`
}

type BackupConfig struct {
	// "s3" or "sftp"
	Target string     `yaml:"target"`
	Prefix string     `yaml:"prefix"`
	S3     S3Config   `yaml:"s3"`
	SFTP   SFTPConfig `yaml:"sftp"`
}

type S3Config struct {
	Endpoint string `yaml:"endpoint"`
	Access   string `yaml:"access"`
	Secret   string `yaml:"secret"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Insecure bool   `yaml:"insecure"`
}

type SFTPConfig struct {
	User    string `yaml:"user"`
	Host    string `yaml:"host"`
	KeyPath string `yaml:"key_path"`
	Dir     string `yaml:"dir"`
}

func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Dir: "data",
		},
		Script: ScriptConfig{
			Addr: ":8080",
		},
		Backup: BackupConfig{
			Prefix: "pipecodec",
		},
	}
}

// Load reads config from yamlPath and overrides it with variables from
// envPath and environment. Missing files are not an error.
func Load(yamlPath string, envPath string) (*Config, error) {
	cfg := Default()
	if yamlPath != "" {
		d, err := os.ReadFile(yamlPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err = yaml.Unmarshal(d, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config '%s': %w", yamlPath, err)
			}
		}
	}
	var dotEnv map[string]string
	if envPath != "" {
		d, err := os.ReadFile(envPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
		if err == nil {
			if dotEnv, err = u.ParseEnv(d); err != nil {
				return nil, err
			}
		}
	}
	cfg.ApplyEnv(func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotEnv[key]
	})
	return cfg, nil
}

var envKeys = []string{
	"SCRIPT_PROD_URL",
	"GAS_API_SECRET",
	"PIPECODEC_LOG_DIR",
	"PIPECODEC_STORE_DIR",
	"S3_ACCESS",
	"S3_SECRET",
	"S3_BUCKET",
	"S3_ENDPOINT",
}

// ApplyEnv overrides fields with non-empty values returned by getenv
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Script.URL, "SCRIPT_PROD_URL")
	set(&c.Script.Secret, "GAS_API_SECRET")
	set(&c.LogDir, "PIPECODEC_LOG_DIR")
	set(&c.Store.Dir, "PIPECODEC_STORE_DIR")
	set(&c.Backup.S3.Access, "S3_ACCESS")
	set(&c.Backup.S3.Secret, "S3_SECRET")
	set(&c.Backup.S3.Bucket, "S3_BUCKET")
	set(&c.Backup.S3.Endpoint, "S3_ENDPOINT")
}

// Validate checks that settings required by what is configured are set
func (c *Config) Validate() error {
	if c.Store.Dir == "" {
		return fmt.Errorf("store.dir is not set")
	}
	if (c.Script.URL == "") != (c.Script.Secret == "") {
		return fmt.Errorf("script.url and script.secret must be set together (SCRIPT_PROD_URL, GAS_API_SECRET)")
	}
	switch c.Backup.Target {
	case "":
	case "s3":
		s3 := c.Backup.S3
		if s3.Endpoint == "" || s3.Access == "" || s3.Secret == "" || s3.Bucket == "" {
			return fmt.Errorf("backup to s3 requires endpoint, access, secret and bucket (S3_ENDPOINT, S3_ACCESS, S3_SECRET, S3_BUCKET)")
		}
	case "sftp":
		s := c.Backup.SFTP
		if s.User == "" || s.Host == "" || s.KeyPath == "" || s.Dir == "" {
			return fmt.Errorf("backup to sftp requires user, host, key_path and dir")
		}
	default:
		return fmt.Errorf("unknown backup.target '%s', must be 's3' or 'sftp'", c.Backup.Target)
	}
	return nil
}

func (c *Config) S3() *backup.S3Config {
	s3 := c.Backup.S3
	return &backup.S3Config{
		Endpoint: s3.Endpoint,
		Access:   s3.Access,
		Secret:   s3.Secret,
		Bucket:   s3.Bucket,
		Region:   s3.Region,
		Insecure: s3.Insecure,
	}
}

func (c *Config) SFTP() *backup.SFTPConfig {
	s := c.Backup.SFTP
	keyPath := s.KeyPath
	if strings.HasPrefix(keyPath, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			keyPath = filepath.Join(home, keyPath[2:])
		}
	}
	return &backup.SFTPConfig{
		User:    s.User,
		Host:    s.Host,
		KeyPath: keyPath,
		Dir:     s.Dir,
	}
}

// Save writes config as YAML
func (c *Config) Save(path string) error {
	d, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, d, 0644)
}
