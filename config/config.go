package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cube2222/octoframe/journal"
)

const (
	EnvExecutorAddress = "OCTOFRAME_EXECUTOR_ADDRESS"
	EnvListenAddress   = "OCTOFRAME_LISTEN_ADDRESS"
)

type Config struct {
	// ExecutorAddress is where graphs are sent.
	ExecutorAddress string `yaml:"executor_address" validate:"required,hostname_port"`
	// ListenAddress is where the executor connects back with its response.
	ListenAddress string `yaml:"listen_address" validate:"required,hostname_port"`

	// ResponseTimeout bounds every wait for the executor's reply.
	ResponseTimeout time.Duration `yaml:"response_timeout" validate:"gt=0"`
	DialTimeout     time.Duration `yaml:"dial_timeout" validate:"gte=0"`

	// ContextMode is "reset" to clear the whole graph after every flush,
	// or "retain" to keep the lazy operations for the next eager one.
	ContextMode string `yaml:"context_mode" validate:"oneof=reset retain"`

	Framing            string `yaml:"framing" validate:"oneof=raw drain length-prefixed"`
	MaxResponseSize    int    `yaml:"max_response_size" validate:"gt=0"`
	PersistentListener bool   `yaml:"persistent_listener"`

	// JournalDir is where completed flushes are recorded. Empty disables the journal.
	JournalDir string `yaml:"journal_dir"`
}

var validate = validator.New()

// Dir returns ~/.octoframe.
func Dir() (string, error) {
	dir, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "couldn't get user home directory")
	}
	return filepath.Join(dir, ".octoframe"), nil
}

func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

func Default() *Config {
	cfg := &Config{
		ExecutorAddress: "127.0.0.1:8000",
		ListenAddress:   "127.0.0.1:8001",
		ResponseTimeout: 30 * time.Second,
		DialTimeout:     5 * time.Second,
		ContextMode:     "reset",
		Framing:         "raw",
		MaxResponseSize: 512,
	}
	if dir, err := journal.DefaultDir(); err == nil {
		cfg.JournalDir = dir
	}
	return cfg
}

// Read loads the configuration at path, or at DefaultPath if path is empty.
// A missing file yields the defaults. Environment overrides are applied last.
func Read(path string) (*Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "couldn't stat config file")
	}

	if addr := os.Getenv(EnvExecutorAddress); addr != "" {
		cfg.ExecutorAddress = addr
	}
	if addr := os.Getenv(EnvListenAddress); addr != "" {
		cfg.ListenAddress = addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadConfig loads the file at path on top of the defaults, without environment overrides.
func ReadConfig(path string) (*Config, error) {
	cfg := Default()
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.Wrap(err, "couldn't decode yaml configuration")
	}
	return nil
}
