// Package config provides Viper-based configuration loading for the combat simulator.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json", "console", or "silent".
	Format string `mapstructure:"format"`
}

// ContentConfig locates the static content consumed at startup.
type ContentConfig struct {
	// ClassesDir holds one YAML class table per file.
	ClassesDir string `mapstructure:"classes_dir"`
	// ScriptsDir holds Lua skill resolvers. Empty disables scripting.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// ScenarioFile is the default battle scenario.
	ScenarioFile string `mapstructure:"scenario_file"`
}

// ScriptingConfig holds Lua VM limits.
type ScriptingConfig struct {
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// EnduranceCurveConfig parameterises the logistic damage reduction curve.
type EnduranceCurveConfig struct {
	Ceiling   float64 `mapstructure:"ceiling"`
	Steepness float64 `mapstructure:"steepness"`
	Midpoint  float64 `mapstructure:"midpoint"`
}

// CombatConfig holds the balancing constants of the combat core.
type CombatConfig struct {
	EnduranceCurve       EnduranceCurveConfig `mapstructure:"endurance_curve"`
	XPPerLevel           int                  `mapstructure:"xp_per_level"`
	XPDropPerLevel       int                  `mapstructure:"xp_drop_per_level"`
	DeathLevelPenalty    int                  `mapstructure:"death_level_penalty"`
	PocketCapacity       int                  `mapstructure:"pocket_capacity"`
	ResurrectFraction    float64              `mapstructure:"resurrect_fraction"`
	WeaknessMultiplier   float64              `mapstructure:"weakness_multiplier"`
	ResilienceMultiplier float64              `mapstructure:"resilience_multiplier"`
	MaxRounds            int                  `mapstructure:"max_rounds"`
}

// Balance converts the combat section into the ruleset representation used by
// the game packages.
//
// Postcondition: Returns a Balance carrying every constant of c.
func (c CombatConfig) Balance() ruleset.Balance {
	return ruleset.Balance{
		EnduranceCeiling:     c.EnduranceCurve.Ceiling,
		EnduranceSteepness:   c.EnduranceCurve.Steepness,
		EnduranceMidpoint:    c.EnduranceCurve.Midpoint,
		XPPerLevel:           c.XPPerLevel,
		XPDropPerLevel:       c.XPDropPerLevel,
		DeathLevelPenalty:    c.DeathLevelPenalty,
		PocketCapacity:       c.PocketCapacity,
		ResurrectFraction:    c.ResurrectFraction,
		WeaknessMultiplier:   c.WeaknessMultiplier,
		ResilienceMultiplier: c.ResilienceMultiplier,
		MaxRounds:            c.MaxRounds,
	}
}

// SimulationConfig controls the battle runner.
type SimulationConfig struct {
	// Seed fixes the random source; 0 selects a crypto-backed source.
	Seed int64 `mapstructure:"seed"`
	// Runs is the number of independent battles to simulate.
	Runs int `mapstructure:"runs"`
	// Concurrency bounds how many battles run at once.
	Concurrency int `mapstructure:"concurrency"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Content    ContentConfig    `mapstructure:"content"`
	Scripting  ScriptingConfig  `mapstructure:"scripting"`
	Combat     CombatConfig     `mapstructure:"combat"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Content.ClassesDir == "" {
		errs = append(errs, "content.classes_dir must not be empty")
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.EnduranceCurve.Ceiling < 0 || c.EnduranceCurve.Ceiling >= 1 {
		errs = append(errs, fmt.Sprintf("combat.endurance_curve.ceiling must be in [0, 1), got %g", c.EnduranceCurve.Ceiling))
	}
	if c.XPPerLevel < 1 {
		errs = append(errs, fmt.Sprintf("combat.xp_per_level must be >= 1, got %d", c.XPPerLevel))
	}
	if c.XPDropPerLevel < 0 {
		errs = append(errs, fmt.Sprintf("combat.xp_drop_per_level must be >= 0, got %d", c.XPDropPerLevel))
	}
	if c.DeathLevelPenalty < 0 {
		errs = append(errs, fmt.Sprintf("combat.death_level_penalty must be >= 0, got %d", c.DeathLevelPenalty))
	}
	if c.PocketCapacity < 0 {
		errs = append(errs, fmt.Sprintf("combat.pocket_capacity must be >= 0, got %d", c.PocketCapacity))
	}
	if c.ResurrectFraction <= 0 || c.ResurrectFraction > 1 {
		errs = append(errs, fmt.Sprintf("combat.resurrect_fraction must be in (0, 1], got %g", c.ResurrectFraction))
	}
	if c.WeaknessMultiplier <= 0 || c.ResilienceMultiplier <= 0 {
		errs = append(errs, "combat.weakness_multiplier and combat.resilience_multiplier must be > 0")
	}
	if c.MaxRounds < 1 {
		errs = append(errs, fmt.Sprintf("combat.max_rounds must be >= 1, got %d", c.MaxRounds))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	if s.Runs < 1 {
		return fmt.Errorf("simulation.runs must be >= 1, got %d", s.Runs)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("simulation.concurrency must be >= 1, got %d", s.Concurrency)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true, "silent": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console, silent], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SKIRMISH_ prefix
	v.SetEnvPrefix("SKIRMISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// Default returns the configuration produced by defaults alone.
//
// Postcondition: Returns a Config that passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := LoadFromViper(v)
	if err != nil {
		panic("config: defaults do not validate: " + err.Error())
	}
	return cfg
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "skirmish")
	v.SetDefault("database.password", "skirmish")
	v.SetDefault("database.name", "skirmish")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("content.classes_dir", "content/classes")
	v.SetDefault("content.scripts_dir", "content/scripts")
	v.SetDefault("content.scenario_file", "content/scenarios/skirmish.yaml")

	v.SetDefault("scripting.instruction_limit", 100_000)

	d := ruleset.DefaultBalance()
	v.SetDefault("combat.endurance_curve.ceiling", d.EnduranceCeiling)
	v.SetDefault("combat.endurance_curve.steepness", d.EnduranceSteepness)
	v.SetDefault("combat.endurance_curve.midpoint", d.EnduranceMidpoint)
	v.SetDefault("combat.xp_per_level", d.XPPerLevel)
	v.SetDefault("combat.xp_drop_per_level", d.XPDropPerLevel)
	v.SetDefault("combat.death_level_penalty", d.DeathLevelPenalty)
	v.SetDefault("combat.pocket_capacity", d.PocketCapacity)
	v.SetDefault("combat.resurrect_fraction", d.ResurrectFraction)
	v.SetDefault("combat.weakness_multiplier", d.WeaknessMultiplier)
	v.SetDefault("combat.resilience_multiplier", d.ResilienceMultiplier)
	v.SetDefault("combat.max_rounds", d.MaxRounds)

	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.runs", 1)
	v.SetDefault("simulation.concurrency", 4)
}
