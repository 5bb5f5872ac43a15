package stravastats

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxPerPage = 200

// Race is a competition result of the athlete
type Race struct {
	Date  string `yaml:"date" json:"date"`
	Place int    `yaml:"place" json:"place"`
	Field int    `yaml:"field" json:"field"`
}

// Profile describes the athlete for the insight report
type Profile struct {
	Gender string  `yaml:"gender"`
	Age    int     `yaml:"age"`
	Weight float64 `yaml:"weight"`
	Goal   string  `yaml:"goal"`
	Races  []Race  `yaml:"races"`
}

// Config holds the settings of a run. Secrets are never read from the config file.
type Config struct {
	Credentials Credentials `yaml:"-"`
	GeminiKey   string      `yaml:"-"`
	Model       string      `yaml:"model"`
	PerPage     int         `yaml:"per_page"`
	MaxPages    int         `yaml:"max_pages"`
	Output      string      `yaml:"output"`
	Report      string      `yaml:"report"`
	Database    string      `yaml:"database"`
	Types       []string    `yaml:"types"`
	Profile     Profile     `yaml:"profile"`
}

// LoadConfig returns the embedded defaults overlaid with the file at path, if any
func LoadConfig(path string) (*Config, error) {
	data, err := Content.ReadFile("etc/stravastats.yaml")
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse defaults: %w", ErrConfig, err)
	}
	if path == "" {
		return &cfg, nil
	}
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read config file: %w", ErrConfig, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config file: %w", ErrConfig, err)
	}
	return &cfg, nil
}

// Validate reports every missing credential
func (c Credentials) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if c.RefreshToken == "" {
		missing = append(missing, "refresh token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks the settings needed to fetch activities
func (c *Config) Validate() error {
	if err := c.Credentials.Validate(); err != nil {
		return err
	}
	if c.PerPage < 1 || c.PerPage > maxPerPage {
		return fmt.Errorf("%w: per_page must be between 1 and %d", ErrConfig, maxPerPage)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("%w: max_pages must not be negative", ErrConfig)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: missing output path", ErrConfig)
	}
	return nil
}
