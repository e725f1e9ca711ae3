package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	Addr    string        `split_words:"true" default:":8000"`
	Timeout time.Duration `split_words:"true" default:"5s"`
	Mode    string        `split_words:"true" default:"keep"`
}

func (c *sampleConfig) Validate() error {
	if c.Mode != "keep" && c.Mode != "reset" {
		return errors.New("bad mode")
	}
	return nil
}

func TestFromEnvDefaultsAndOverrides(t *testing.T) {
	t.Setenv("SAMPLE_ADDR", ":9090")

	cfg, err := FromEnv[sampleConfig]("SAMPLE")
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("Addr = %q, want :9090", cfg.Addr)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("Timeout = %v, want 5s", cfg.Timeout)
	}
}

func TestFromEnvRunsValidator(t *testing.T) {
	t.Setenv("SAMPLE_MODE", "sometimes")

	_, err := FromEnv[sampleConfig]("SAMPLE")
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestExportEnvironmentKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "CFGTEST_ALPHA=from-file\nCFGTEST_BETA=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("CFGTEST_ALPHA", "from-process")
	t.Setenv("CFGTEST_BETA", "")
	os.Unsetenv("CFGTEST_BETA")

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("CFGTEST_ALPHA"); got != "from-process" {
		t.Fatalf("CFGTEST_ALPHA = %q, want from-process", got)
	}
	if got := os.Getenv("CFGTEST_BETA"); got != "from-file" {
		t.Fatalf("CFGTEST_BETA = %q, want from-file", got)
	}
}

func TestExportEnvironmentIfExistsMissingFile(t *testing.T) {
	t.Parallel()

	if err := exportEnvironmentIfExists(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("exportEnvironmentIfExists() error = %v", err)
	}
}
