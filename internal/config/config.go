package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/contractcatalog/internal/foundation"
	ferrors "git.home.luguber.info/inful/contractcatalog/internal/foundation/errors"
)

// DefaultConfigFile is the file name looked up when no --config flag is given.
const DefaultConfigFile = "contractcatalog.yaml"

// ErrConfigNotFound is returned by Load when an explicitly named file is missing.
var ErrConfigNotFound = errors.New("configuration file not found")

// Config represents the application configuration.
type Config struct {
	Contracts ContractsConfig `yaml:"contracts"`
	Output    OutputConfig    `yaml:"output"`
	Site      SiteConfig      `yaml:"site"`
	External  ExternalConfig  `yaml:"external"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Environment is detected at load time and never read from YAML.
	Environment Environment `yaml:"-"`
}

// ContractsConfig locates the contracts root.
type ContractsConfig struct {
	Dir        string      `yaml:"dir"`
	Exclude    []string    `yaml:"exclude,omitempty"` // doublestar patterns relative to Dir
	Repository *Repository `yaml:"repository,omitempty"`
}

// Repository is an optional git remote holding the contracts tree.
type Repository struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
	Path   string `yaml:"path,omitempty"` // subdirectory inside the clone
	Token  string `yaml:"token,omitempty"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// SiteConfig controls page rendering.
type SiteConfig struct {
	Title        string `yaml:"title"`
	Architecture bool   `yaml:"architecture"`
	RedocBundle  string `yaml:"redoc_bundle,omitempty"` // local redoc.standalone.js to ship with the site
}

// ExternalConfig controls use of collaborating command line tools.
type ExternalConfig struct {
	Mode                ExternalMode `yaml:"mode"`
	DataContractCommand string       `yaml:"datacontract_command"`
	AsyncAPICommand     string       `yaml:"asyncapi_command,omitempty"`
	AsyncAPIDocs        bool         `yaml:"asyncapi_docs"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.Output.Clean = true
	cfg.Site.Architecture = true
	applyDefaults(cfg)
	return cfg
}

// Load reads path, expands ${VAR} references and applies defaults.
// An empty path loads DefaultConfigFile when present and plain defaults otherwise.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse configuration").
				WithContext("file", path).
				Fatal().
				Build()
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case errors.Is(err, os.ErrNotExist):
		return nil, ferrors.WrapError(fmt.Errorf("%w: %s", ErrConfigNotFound, path), ferrors.CategoryConfig, "failed to load configuration").
			Fatal().
			Build()
	default:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read configuration").
			WithContext("file", path).
			Fatal().
			Build()
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	cfg.Environment = DetectEnvironment(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Contracts.Dir) == "" {
		cfg.Contracts.Dir = "./contracts"
	}
	if strings.TrimSpace(cfg.Output.Directory) == "" {
		cfg.Output.Directory = "./output"
	}
	if strings.TrimSpace(cfg.Site.Title) == "" {
		cfg.Site.Title = "Contract Catalog"
	}
	cfg.External.Mode = NormalizeExternalMode(string(cfg.External.Mode))
	if cfg.External.DataContractCommand == "" {
		cfg.External.DataContractCommand = "datacontract"
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	if r := cfg.Contracts.Repository; r != nil && r.Branch == "" {
		r.Branch = "main"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONTRACTCATALOG_EXTERNAL_TOOLS"); v != "" {
		cfg.External.Mode = ExternalMode(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv("CONTRACTCATALOG_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = NormalizeLogLevel(v)
	}
}

// Validate reports every invalid field as one config error.
func (c *Config) Validate() error {
	chain := foundation.NewValidatorChain(
		foundation.Required("contracts.dir", func(c *Config) string { return c.Contracts.Dir }),
		foundation.Required("output.directory", func(c *Config) string { return c.Output.Directory }),
		func(c *Config) foundation.ValidationResult {
			return foundation.OneOf("external.mode", externalModes)(c.External.Mode)
		},
	)
	if c.Contracts.Repository != nil {
		chain.Add(foundation.Required("contracts.repository.url", func(c *Config) string { return c.Contracts.Repository.URL }))
	}
	return chain.Validate(c).ToError(ferrors.CategoryConfig)
}
