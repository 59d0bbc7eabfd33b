// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

// Package config loads and validates the Lectern configuration with
// the precedence defaults < file < environment.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// Config is the top-level Lectern configuration.
type Config struct {
	Reasoning ReasoningConfig           `mapstructure:"reasoning"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Models    ModelsConfig              `mapstructure:"models"`
	Sessions  SessionsConfig            `mapstructure:"sessions"`
	Storage   StorageConfig             `mapstructure:"storage"`
	Knowledge KnowledgeConfig           `mapstructure:"knowledge"`
}

// ReasoningConfig tunes the round loop.
type ReasoningConfig struct {
	MaxRounds             int           `mapstructure:"max_rounds"`
	CompletionTimeout     time.Duration `mapstructure:"completion_timeout"`
	ToolTimeout           time.Duration `mapstructure:"tool_timeout"`
	ReplyAfterToolFailure bool          `mapstructure:"reply_after_tool_failure"`
	PromptFile            string        `mapstructure:"prompt_file"`
}

// ProviderConfig holds credentials and endpoint for an LLM provider.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// ModelsConfig controls model selection and failover.
type ModelsConfig struct {
	Default  string   `mapstructure:"default"`
	Failover []string `mapstructure:"failover"`
}

// SessionsConfig controls session behavior.
type SessionsConfig struct {
	HistoryWindow int `mapstructure:"history_window"`
}

// StorageConfig selects the session-history backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// KnowledgeConfig locates the course-content index.
type KnowledgeConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix LECTERN_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("reasoning.max_rounds", 2)
	v.SetDefault("reasoning.completion_timeout", "60s")
	v.SetDefault("reasoning.tool_timeout", "15s")
	v.SetDefault("reasoning.reply_after_tool_failure", false)
	v.SetDefault("models.default", "anthropic/claude-sonnet-4-5")
	v.SetDefault("sessions.history_window", 2)
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.path", "lectern-history.db")
	v.SetDefault("knowledge.path", "lectern-knowledge.db")

	// Environment
	v.SetEnvPrefix("LECTERN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, lecternerr.Errorf(lecternerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, lecternerr.Errorf(lecternerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, lecternerr.Errorf(lecternerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns a
// slice of all validation errors found, collecting all issues rather
// than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateReasoning()...)
	errs = append(errs, c.validateModels()...)
	errs = append(errs, c.validateSessions()...)
	errs = append(errs, c.validateStorage()...)

	return errs
}

func (c *Config) validateReasoning() []error {
	var errs []error

	if c.Reasoning.MaxRounds < 1 {
		errs = append(errs, lecternerr.Errorf(lecternerr.CodeConfigValidateInvalidValue,
			"config: reasoning.max_rounds must be at least 1, got %d",
			c.Reasoning.MaxRounds,
		))
	}

	if c.Reasoning.CompletionTimeout < 0 {
		errs = append(errs, lecternerr.Errorf(lecternerr.CodeConfigValidateInvalidValue,
			"config: reasoning.completion_timeout must not be negative, got %s",
			c.Reasoning.CompletionTimeout,
		))
	}

	if c.Reasoning.ToolTimeout < 0 {
		errs = append(errs, lecternerr.Errorf(lecternerr.CodeConfigValidateInvalidValue,
			"config: reasoning.tool_timeout must not be negative, got %s",
			c.Reasoning.ToolTimeout,
		))
	}

	return errs
}

func (c *Config) validateModels() []error {
	var errs []error

	if c.Models.Default == "" {
		errs = append(errs, lecternerr.Errorf(lecternerr.CodeConfigValidateInvalidValue, "config: models.default must not be empty"))
	} else if !strings.Contains(c.Models.Default, "/") {
		errs = append(errs, lecternerr.Errorf(lecternerr.CodeConfigValidateInvalidValue,
			"config: models.default must be in \"provider/model\" format, got %q",
			c.Models.Default,
		))
	} else if c.Providers != nil {
		// Only cross-reference providers when the providers section
		// exists in config; defaults-only runs are valid.
		providerName := providerFromModel(c.Models.Default)
		if _, ok := c.Providers[providerName]; !ok {
			errs = append(errs, lecternerr.Errorf(lecternerr.CodeConfigValidateInvalidValue,
				"config: models.default %q references provider %q which is not configured",
				c.Models.Default, providerName,
			))
		}
	}

	for i, model := range c.Models.Failover {
		if !strings.Contains(model, "/") {
			errs = append(errs, lecternerr.Errorf(lecternerr.CodeConfigValidateInvalidValue,
				"config: models.failover[%d] must be in \"provider/model\" format, got %q",
				i, model,
			))
			continue
		}
		if c.Providers != nil {
			providerName := providerFromModel(model)
			if _, ok := c.Providers[providerName]; !ok {
				errs = append(errs, lecternerr.Errorf(lecternerr.CodeConfigValidateInvalidValue,
					"config: models.failover[%d] %q references provider %q which is not configured",
					i, model, providerName,
				))
			}
		}
	}

	return errs
}

func (c *Config) validateSessions() []error {
	var errs []error

	if c.Sessions.HistoryWindow < 0 {
		errs = append(errs, lecternerr.Errorf(lecternerr.CodeConfigValidateInvalidValue,
			"config: sessions.history_window must not be negative, got %d",
			c.Sessions.HistoryWindow,
		))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"memory": true, "sqlite": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, lecternerr.Errorf(lecternerr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [memory, sqlite], got %q",
			c.Storage.Backend,
		))
	}

	if c.Storage.Backend == "sqlite" && c.Storage.Path == "" {
		errs = append(errs, lecternerr.Errorf(lecternerr.CodeConfigValidateInvalidValue,
			"config: storage.path must not be empty when storage.backend is sqlite"))
	}

	return errs
}

// providerFromModel extracts the provider prefix from a "provider/model" string.
func providerFromModel(model string) string {
	if idx := strings.Index(model, "/"); idx > 0 {
		return model[:idx]
	}
	return model
}
