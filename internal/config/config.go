package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Limits are the engine's enforcement constants.
type Limits struct {
	MaxActivePerQuarter  int
	MaxFocusedPerQuarter int
	CheckInCooldown      time.Duration
	CheckInCadence       time.Duration
	CareerRequired       int
}

// DefaultLimits returns the stock limit set.
func DefaultLimits() Limits {
	return Limits{
		MaxActivePerQuarter:  5,
		MaxFocusedPerQuarter: 2,
		CheckInCooldown:      30 * time.Second,
		CheckInCadence:       14 * 24 * time.Hour,
		CareerRequired:       4,
	}
}

// Config is the workspace-level configuration.
type Config struct {
	Limits Limits
	Notify bool
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{Limits: DefaultLimits(), Notify: false}
}

type rawConfig struct {
	Limits struct {
		MaxActivePerQuarter  *int `yaml:"max_active_per_quarter"`
		MaxFocusedPerQuarter *int `yaml:"max_focused_per_quarter"`
		CheckInCooldownSecs  *int `yaml:"checkin_cooldown_seconds"`
		CheckInCadenceDays   *int `yaml:"checkin_cadence_days"`
		CareerRequired       *int `yaml:"career_qualifying_required"`
	} `yaml:"limits"`
	Notify *bool `yaml:"notify"`
}

// Load reads the config file at path, applying defaults for omitted
// fields. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if raw.Limits.MaxActivePerQuarter != nil {
		cfg.Limits.MaxActivePerQuarter = *raw.Limits.MaxActivePerQuarter
	}
	if raw.Limits.MaxFocusedPerQuarter != nil {
		cfg.Limits.MaxFocusedPerQuarter = *raw.Limits.MaxFocusedPerQuarter
	}
	if raw.Limits.CheckInCooldownSecs != nil {
		cfg.Limits.CheckInCooldown = time.Duration(*raw.Limits.CheckInCooldownSecs) * time.Second
	}
	if raw.Limits.CheckInCadenceDays != nil {
		cfg.Limits.CheckInCadence = time.Duration(*raw.Limits.CheckInCadenceDays) * 24 * time.Hour
	}
	if raw.Limits.CareerRequired != nil {
		cfg.Limits.CareerRequired = *raw.Limits.CareerRequired
	}
	if raw.Notify != nil {
		cfg.Notify = *raw.Notify
	}

	if err := cfg.Limits.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (l Limits) validate() error {
	if l.MaxActivePerQuarter < 1 {
		return fmt.Errorf("max_active_per_quarter must be at least 1")
	}
	if l.MaxFocusedPerQuarter < 1 {
		return fmt.Errorf("max_focused_per_quarter must be at least 1")
	}
	if l.CheckInCooldown < 0 {
		return fmt.Errorf("checkin_cooldown_seconds must not be negative")
	}
	if l.CheckInCadence <= 0 {
		return fmt.Errorf("checkin_cadence_days must be positive")
	}
	if l.CareerRequired < 1 {
		return fmt.Errorf("career_qualifying_required must be at least 1")
	}
	return nil
}

// WriteDefault writes a commented default config file at path.
func WriteDefault(path string) error {
	content := `# okrpulse workspace configuration.
limits:
  max_active_per_quarter: 5
  max_focused_per_quarter: 2
  checkin_cooldown_seconds: 30
  checkin_cadence_days: 14
  career_qualifying_required: 4
notify: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
