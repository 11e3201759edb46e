package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, s string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(s), 0644))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "none.yaml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.Store.Dir)
	assert.Equal(t, ":8080", cfg.Script.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadPriority(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "config.yaml", `
log_dir: logs
verbose: true
store:
  dir: /var/store
  compress: true
script:
  url: https://example.com/yaml
  secret: yaml-secret
  addr: ":9000"
backup:
  target: s3
  prefix: bk
  s3:
    endpoint: s3.example.com
    bucket: yaml-bucket
`)
	envPath := writeFile(t, dir, ".env", `
# comment
SCRIPT_PROD_URL="https://example.com/dotenv"
S3_ACCESS=dotenv-access
export S3_SECRET='dotenv-secret'
`)
	t.Setenv("S3_ACCESS", "env-access")
	t.Setenv("S3_BUCKET", "")

	cfg, err := Load(yamlPath, envPath)
	require.NoError(t, err)
	exp := &Config{
		LogDir:  "logs",
		Verbose: true,
		Store:   StoreConfig{Dir: "/var/store", Compress: true},
		Script: ScriptConfig{
			URL:    "https://example.com/dotenv",
			Secret: "yaml-secret",
			Addr:   ":9000",
		},
		Backup: BackupConfig{
			Target: "s3",
			Prefix: "bk",
			S3: S3Config{
				Endpoint: "s3.example.com",
				Access:   "env-access",
				Secret:   "dotenv-secret",
				Bucket:   "yaml-bucket",
			},
		},
	}
	if diff := cmp.Diff(exp, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "env-access", cfg.S3().Access)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(writeFile(t, dir, "bad.yaml", "store: [1, 2"), "")
	assert.Error(t, err)
	_, err = Load("", writeFile(t, dir, ".env", "NOT A VAR"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		fn   func(c *Config)
		ok   bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"no store dir", func(c *Config) { c.Store.Dir = "" }, false},
		{"url without secret", func(c *Config) { c.Script.URL = "https://x" }, false},
		{"url and secret", func(c *Config) { c.Script.URL = "https://x"; c.Script.Secret = "s" }, true},
		{"s3 incomplete", func(c *Config) { c.Backup.Target = "s3" }, false},
		{"sftp incomplete", func(c *Config) { c.Backup.Target = "sftp"; c.Backup.SFTP.User = "u" }, false},
		{"sftp", func(c *Config) {
			c.Backup.Target = "sftp"
			c.Backup.SFTP = SFTPConfig{User: "u", Host: "h", KeyPath: "k", Dir: "/d"}
		}, true},
		{"unknown target", func(c *Config) { c.Backup.Target = "ftp" }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.fn(c)
			err := c.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	c := Default()
	c.Backup.Target = "sftp"
	c.Backup.SFTP = SFTPConfig{User: "u", Host: "h", KeyPath: "/k", Dir: "/d"}
	require.NoError(t, c.Save(path))
	got, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, c.Backup, got.Backup)
	assert.Equal(t, "/k", got.SFTP().KeyPath)
}
