package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	ListenAddr string        `split_words:"true" default:":8080"`
	MaxItems   int           `split_words:"true" default:"20"`
	Timeout    time.Duration `default:"5s"`
	Token      string        `required:"true"`
}

type checkedConfig struct {
	Driver string `default:"memory"`
}

var errBadDriver = errors.New("bad driver")

func (c checkedConfig) Validate() error {
	if c.Driver != "memory" && c.Driver != "sqlite" {
		return errBadDriver
	}
	return nil
}

func TestNewAppliesDefaultsAndOverrides(t *testing.T) {
	t.Setenv("CFGTEST_TOKEN", "secret")
	t.Setenv("CFGTEST_MAX_ITEMS", "7")

	conf, err := New[sampleConfig]("CFGTEST")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.ListenAddr != ":8080" || conf.MaxItems != 7 || conf.Timeout != 5*time.Second || conf.Token != "secret" {
		t.Fatalf("unexpected config %+v", conf)
	}
}

func TestNewRequiresFields(t *testing.T) {
	if _, err := New[sampleConfig]("CFGMISSING"); err == nil {
		t.Fatal("expected error for missing required field")
	}
}

func TestNewRunsValidate(t *testing.T) {
	t.Setenv("CFGCHECK_DRIVER", "mysql")

	_, err := New[checkedConfig]("CFGCHECK")
	if !errors.Is(err, errBadDriver) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExportEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CFGFILE_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("CFGFILE_VALUE") })

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("CFGFILE_VALUE"); got != "from-file" {
		t.Fatalf("CFGFILE_VALUE = %q", got)
	}
}

func TestExportEnvironmentKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CFGKEEP_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CFGKEEP_VALUE", "from-env")

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("CFGKEEP_VALUE"); got != "from-env" {
		t.Fatalf("environment must win over the file, got %q", got)
	}
}

func TestExportEnvironmentIfExistsIgnoresMissingFile(t *testing.T) {
	if err := exportEnvironmentIfExists(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file must be ignored, got %v", err)
	}
}
