package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for whackadep.
type Config struct {
	Registry   RegistryConfig   `yaml:"registry"`
	Advisories AdvisoriesConfig `yaml:"advisories"`
	Review     ReviewConfig     `yaml:"review"`
	Cargo      CargoConfig      `yaml:"cargo"`
}

// RegistryConfig points at the package registry API.
type RegistryConfig struct {
	BaseURL  string `yaml:"base_url"`  // Inline or ${ENV_VAR}
	RetryMax int    `yaml:"retry_max"` // Bounded retries against a rate-limited host
}

// AdvisoriesConfig points at the security advisory API.
type AdvisoriesConfig struct {
	BaseURL  string `yaml:"base_url"`
	RetryMax int    `yaml:"retry_max"`
}

// ReviewConfig holds review-run settings.
type ReviewConfig struct {
	Parallelism int `yaml:"parallelism"` // Concurrent package reviews
}

// CargoConfig locates the cargo binary used for graph resolution.
type CargoConfig struct {
	Binary string `yaml:"binary"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Registry:   RegistryConfig{BaseURL: "https://crates.io", RetryMax: 4},
		Advisories: AdvisoriesConfig{BaseURL: "https://api.osv.dev", RetryMax: 4},
		Review:     ReviewConfig{Parallelism: 4},
		Cargo:      CargoConfig{Binary: "cargo"},
	}
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Load reads and parses a configuration file, expanding environment
// variables and filling unset fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	cfg := Default()
	if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	cfg.Registry.BaseURL = expandEnv(cfg.Registry.BaseURL)
	cfg.Advisories.BaseURL = expandEnv(cfg.Advisories.BaseURL)
	applyDefaults(cfg)

	if validateErr := validate(cfg); validateErr != nil {
		return nil, validateErr
	}
	return cfg, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".whackadep.yaml",
		".whackadep.yml",
		"whackadep.yaml",
		"whackadep.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// expandEnv replaces ${ENV_VAR} references with their values.
func expandEnv(raw string) string {
	if raw == "" {
		return raw
	}
	return envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})
}

func applyDefaults(cfg *Config) {
	defaults := Default()
	if cfg.Registry.BaseURL == "" {
		cfg.Registry.BaseURL = defaults.Registry.BaseURL
	}
	if cfg.Registry.RetryMax <= 0 {
		cfg.Registry.RetryMax = defaults.Registry.RetryMax
	}
	if cfg.Advisories.BaseURL == "" {
		cfg.Advisories.BaseURL = defaults.Advisories.BaseURL
	}
	if cfg.Advisories.RetryMax <= 0 {
		cfg.Advisories.RetryMax = defaults.Advisories.RetryMax
	}
	if cfg.Review.Parallelism <= 0 {
		cfg.Review.Parallelism = defaults.Review.Parallelism
	}
	if cfg.Cargo.Binary == "" {
		cfg.Cargo.Binary = defaults.Cargo.Binary
	}
}

func validate(cfg *Config) error {
	if cfg.Registry.BaseURL == "" {
		return errors.New("registry.base_url must not be empty")
	}
	if cfg.Advisories.BaseURL == "" {
		return errors.New("advisories.base_url must not be empty")
	}
	return nil
}
