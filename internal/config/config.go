package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/hazz-dev/sitewatch/internal/checker"
	"github.com/hazz-dev/sitewatch/internal/scheduler"
	"github.com/hazz-dev/sitewatch/internal/timeunit"
)

// Duration is a time.Duration that unmarshals from a YAML string like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// RequestConfig describes the polled URL and the delay between polls.
type RequestConfig struct {
	URL            string            `yaml:"url" env:"URL"`
	MinDelay       int64             `yaml:"min_delay"`
	MaxDelay       int64             `yaml:"max_delay"`
	DelayUnit      string            `yaml:"delay_unit"`
	RandomnessUnit string            `yaml:"randomness_unit"`
	Periodic       bool              `yaml:"periodic_scheduling"`
	Verbose        bool              `yaml:"verbose"`
	Timeout        Duration          `yaml:"timeout"`
	Headers        map[string]string `yaml:"headers,omitempty"`
}

// CheckerConfig selects the checker implementation.
type CheckerConfig struct {
	Name string `yaml:"name"`
	// ConfigFile overrides the file name the checker declares.
	ConfigFile string `yaml:"config_file,omitempty"`
}

// MailConfig holds SMTP settings for positive-result mails.
type MailConfig struct {
	Enabled  bool                `yaml:"enabled"`
	Host     string              `yaml:"host" env:"HOST"`
	Port     int                 `yaml:"port"`
	Username string              `yaml:"username" env:"USERNAME"`
	Password string              `yaml:"password" env:"PASSWORD"`
	From     string              `yaml:"from" env:"FROM"`
	FromName string              `yaml:"from_name"`
	To       []string            `yaml:"to"`
	Content  checker.MailContent `yaml:"content"`
}

// WebhookConfig holds alert webhook settings.
type WebhookConfig struct {
	URL      string   `yaml:"url" env:"URL"`
	Cooldown Duration `yaml:"cooldown"`
}

// AlertsConfig holds all alert configuration.
type AlertsConfig struct {
	Mail    MailConfig    `yaml:"mail" envPrefix:"MAIL_"`
	Webhook WebhookConfig `yaml:"webhook" envPrefix:"WEBHOOK_"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address  string `yaml:"address" env:"ADDRESS"`
	Disabled bool   `yaml:"disabled"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// Config is the root application configuration.
type Config struct {
	Request RequestConfig `yaml:"request" envPrefix:"REQUEST_"`
	Checker CheckerConfig `yaml:"checker"`
	Alerts  AlertsConfig  `yaml:"alerts" envPrefix:"ALERTS_"`
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
}

// EnvPrefix prefixes the environment variables that override file values,
// e.g. SITEWATCH_ALERTS_MAIL_PASSWORD.
const EnvPrefix = "SITEWATCH_"

// Load reads, parses, and validates the config file at path. Environment
// variables override the file. All validation problems are reported together.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "sitewatch.db"
	}
	if c.Request.Timeout.Duration == 0 {
		c.Request.Timeout = Duration{30 * time.Second}
	}
	if c.Alerts.Webhook.URL != "" && c.Alerts.Webhook.Cooldown.Duration == 0 {
		c.Alerts.Webhook.Cooldown = Duration{time.Hour}
	}
	if c.Alerts.Mail.Enabled && c.Alerts.Mail.Port == 0 {
		c.Alerts.Mail.Port = 465
	}
}

// Validate checks every field and joins the problems it finds.
func (c *Config) Validate() error {
	var errs []error
	r := c.Request

	if strings.TrimSpace(r.URL) == "" {
		errs = append(errs, errors.New("request.url is required"))
	}
	delayUnit, delayOK := timeunit.Resolve(r.DelayUnit)
	if !delayOK {
		errs = append(errs, fmt.Errorf("request.delay_unit %q is not one of %s", r.DelayUnit, strings.Join(timeunit.Names(), ", ")))
	}
	randomnessUnit, randomnessOK := timeunit.Resolve(r.RandomnessUnit)
	if !randomnessOK {
		errs = append(errs, fmt.Errorf("request.randomness_unit %q is not one of %s", r.RandomnessUnit, strings.Join(timeunit.Names(), ", ")))
	}
	if r.MinDelay < 0 {
		errs = append(errs, fmt.Errorf("request.min_delay must not be negative, got %d", r.MinDelay))
	}
	if r.MinDelay > r.MaxDelay {
		errs = append(errs, fmt.Errorf("request.min_delay %d is larger than request.max_delay %d", r.MinDelay, r.MaxDelay))
	}
	if delayOK && !timeunit.Fits(r.MaxDelay, delayUnit) {
		errs = append(errs, fmt.Errorf("request.max_delay %d %s is longer than the longest supported delay", r.MaxDelay, delayUnit))
	}
	if delayOK && randomnessOK && !timeunit.Compatible(delayUnit, randomnessUnit) {
		errs = append(errs, fmt.Errorf("request.randomness_unit %s is less precise than request.delay_unit %s", randomnessUnit, delayUnit))
	}
	if r.Timeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("request.timeout must not be negative"))
	}

	if strings.TrimSpace(c.Checker.Name) == "" {
		errs = append(errs, errors.New("checker.name is required"))
	}

	if m := c.Alerts.Mail; m.Enabled {
		if m.Host == "" {
			errs = append(errs, errors.New("alerts.mail.host is required when mail is enabled"))
		}
		if m.Port <= 0 || m.Port > 65535 {
			errs = append(errs, fmt.Errorf("alerts.mail.port %d is out of range", m.Port))
		}
		if m.From == "" {
			errs = append(errs, errors.New("alerts.mail.from is required when mail is enabled"))
		}
		if len(m.To) == 0 {
			errs = append(errs, errors.New("alerts.mail.to needs at least one recipient"))
		}
	}

	return errors.Join(errs...)
}

// Policy converts the request section into a scheduler policy.
// It assumes the config has been validated.
func (c *Config) Policy() scheduler.Policy {
	delayUnit, _ := timeunit.Resolve(c.Request.DelayUnit)
	randomnessUnit, _ := timeunit.Resolve(c.Request.RandomnessUnit)
	return scheduler.Policy{
		URL:            c.Request.URL,
		MinDelay:       c.Request.MinDelay,
		MaxDelay:       c.Request.MaxDelay,
		DelayUnit:      delayUnit,
		RandomnessUnit: randomnessUnit,
		Periodic:       c.Request.Periodic,
	}
}
