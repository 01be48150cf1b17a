// Package config loads typed settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const defaultEnvFile = ".env"

var (
	envFilePath string
	parseOnce   sync.Once

	loadOnce sync.Once
	loadErr  error
)

// Validator is implemented by config structs that check themselves after loading.
type Validator interface {
	Validate() error
}

func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New fills a T from environment variables under prefix. The env file named
// by -env, or ./.env when present, is read once per process; variables
// already set in the environment win over the file.
func New[T any](prefix string) (*T, error) {
	loadOnce.Do(func() {
		loadErr = loadEnvFile(resolveEnvPath())
	})
	if loadErr != nil {
		return nil, loadErr
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("load %s config: %w", displayPrefix(prefix), err)
	}

	if v, ok := any(&conf).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s config: %w", displayPrefix(prefix), err)
		}
	}
	return &conf, nil
}

func displayPrefix(prefix string) string {
	if prefix == "" {
		return "root"
	}
	return prefix
}

func resolveEnvPath() string {
	parseOnce.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFilePath, "env", "", "path to .env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})
	return strings.TrimSpace(envFilePath)
}

func loadEnvFile(explicit string) error {
	if explicit != "" {
		if err := exportEnvironment(explicit); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
		return nil
	}
	if err := exportEnvironmentIfExists(defaultEnvFile); err != nil {
		return fmt.Errorf("failed to load default env file: %w", err)
	}
	return nil
}

func exportEnvironmentIfExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(path)
}

// exportEnvironment copies the file's keys into the process environment
// without overriding variables that are already set.
func exportEnvironment(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}
	return nil
}
