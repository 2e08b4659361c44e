// Package config provides Viper-based configuration loading for the GOAP
// simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GOAP_PLANNER_MAX_DEPTH.
const EnvPrefix = "GOAP"

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// PlannerConfig bounds the planner's search.
type PlannerConfig struct {
	// MaxDepth is the longest plan considered.
	MaxDepth int `mapstructure:"max_depth"`
	// MaxNodes caps the search arena per goal.
	MaxNodes int `mapstructure:"max_nodes"`
	// RecentGoalPenalty is subtracted from the last completed goal's priority.
	RecentGoalPenalty float64 `mapstructure:"recent_goal_penalty"`
	// Exhaustive searches every branch for the cheapest plan.
	Exhaustive bool `mapstructure:"exhaustive"`
}

// SchedulerConfig controls the tick loop.
type SchedulerConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// Workers is the number of agents ticked in parallel.
	Workers int `mapstructure:"workers"`
}

// ContentConfig locates behavior documents and scripts.
type ContentConfig struct {
	BehaviorDir string `mapstructure:"behavior_dir"`
	ScriptDir   string `mapstructure:"script_dir"`
	// InstructionLimit caps Lua opcodes per hook call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
	// Watch reloads scripts when files in ScriptDir change.
	Watch bool `mapstructure:"watch"`
}

// SimConfig configures the headless simulation.
type SimConfig struct {
	// Agents is how many independent agents to run.
	Agents int `mapstructure:"agents"`
	// Behavior is the behavior document id every agent runs.
	Behavior string `mapstructure:"behavior"`
	// Duration stops the run after this long; 0 runs until signalled.
	Duration time.Duration `mapstructure:"duration"`
	// StatsInterval is the health drift and stats reporting period.
	StatsInterval time.Duration `mapstructure:"stats_interval"`
	// Seed makes the run reproducible; 0 draws from crypto/rand.
	Seed uint64 `mapstructure:"seed"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Planner   PlannerConfig   `mapstructure:"planner"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Content   ContentConfig   `mapstructure:"content"`
	Sim       SimConfig       `mapstructure:"sim"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateLogging(c.Logging),
		validatePlanner(c.Planner),
		validateScheduler(c.Scheduler),
		validateContent(c.Content),
		validateSim(c.Sim),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validatePlanner(p PlannerConfig) error {
	var errs []string
	if p.MaxDepth < 1 {
		errs = append(errs, fmt.Sprintf("planner.max_depth must be >= 1, got %d", p.MaxDepth))
	}
	if p.MaxNodes < 1 {
		errs = append(errs, fmt.Sprintf("planner.max_nodes must be >= 1, got %d", p.MaxNodes))
	}
	if p.RecentGoalPenalty < 0 {
		errs = append(errs, fmt.Sprintf("planner.recent_goal_penalty must be >= 0, got %v", p.RecentGoalPenalty))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScheduler(s SchedulerConfig) error {
	var errs []string
	if s.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("scheduler.tick_interval must be > 0, got %s", s.TickInterval))
	}
	if s.Workers < 1 {
		errs = append(errs, fmt.Sprintf("scheduler.workers must be >= 1, got %d", s.Workers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.BehaviorDir == "" {
		errs = append(errs, "content.behavior_dir must not be empty")
	}
	if c.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("content.instruction_limit must be >= 0, got %d", c.InstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSim(s SimConfig) error {
	var errs []string
	if s.Agents < 1 {
		errs = append(errs, fmt.Sprintf("sim.agents must be >= 1, got %d", s.Agents))
	}
	if s.Behavior == "" {
		errs = append(errs, "sim.behavior must not be empty")
	}
	if s.Duration < 0 {
		errs = append(errs, "sim.duration must not be negative")
	}
	if s.StatsInterval <= 0 {
		errs = append(errs, fmt.Sprintf("sim.stats_interval must be > 0, got %s", s.StatsInterval))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result. An empty path uses defaults
// and the environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
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

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are static and always decode.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("planner.max_depth", 16)
	v.SetDefault("planner.max_nodes", 4096)
	v.SetDefault("planner.recent_goal_penalty", 0.01)
	v.SetDefault("planner.exhaustive", false)

	v.SetDefault("scheduler.tick_interval", "100ms")
	v.SetDefault("scheduler.workers", 4)

	v.SetDefault("content.behavior_dir", "content/behaviors")
	v.SetDefault("content.script_dir", "content/scripts")
	v.SetDefault("content.instruction_limit", 100000)
	v.SetDefault("content.watch", false)

	v.SetDefault("sim.agents", 1)
	v.SetDefault("sim.behavior", "mechromancer")
	v.SetDefault("sim.duration", "0s")
	v.SetDefault("sim.stats_interval", "2s")
	v.SetDefault("sim.seed", 0)
}
