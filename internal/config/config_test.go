// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-ai/lectern/internal/config"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Reasoning.MaxRounds)
	assert.Equal(t, 60*time.Second, cfg.Reasoning.CompletionTimeout)
	assert.Equal(t, 15*time.Second, cfg.Reasoning.ToolTimeout)
	assert.False(t, cfg.Reasoning.ReplyAfterToolFailure)
	assert.Equal(t, "anthropic/claude-sonnet-4-5", cfg.Models.Default)
	assert.Equal(t, 2, cfg.Sessions.HistoryWindow)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "lectern.yaml")

	content := `
reasoning:
  max_rounds: 4
  completion_timeout: 30s
models:
  default: "openai/gpt-4.1"
providers:
  openai:
    api_key: "test-key"
storage:
  backend: sqlite
  path: /tmp/history.db
`
	err := os.WriteFile(cfgPath, []byte(content), 0o644)
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Reasoning.MaxRounds)
	assert.Equal(t, 30*time.Second, cfg.Reasoning.CompletionTimeout)
	assert.Equal(t, "openai/gpt-4.1", cfg.Models.Default)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "test-key", cfg.Providers["openai"].APIKey)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LECTERN_REASONING_MAX_ROUNDS", "5")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Reasoning.MaxRounds)
}

func TestLoad_ValidationCalledAtLoadTime(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "lectern.yaml")

	content := `
reasoning:
  max_rounds: 0
`
	err := os.WriteFile(cfgPath, []byte(content), 0o644)
	require.NoError(t, err)

	_, err = config.Load(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reasoning.max_rounds")
}

func TestValidate_MissingProvider(t *testing.T) {
	cfg := &config.Config{
		Reasoning: config.ReasoningConfig{MaxRounds: 2},
		Models: config.ModelsConfig{
			Default: "anthropic/claude-sonnet-4-5",
		},
		Providers: map[string]config.ProviderConfig{},
		Storage:   config.StorageConfig{Backend: "memory"},
	}

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), `references provider "anthropic"`)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &config.Config{
		Reasoning: config.ReasoningConfig{MaxRounds: 0, ToolTimeout: -time.Second},
		Models:    config.ModelsConfig{Default: "no-slash"},
		Sessions:  config.SessionsConfig{HistoryWindow: -1},
		Storage:   config.StorageConfig{Backend: "postgres"},
	}

	errs := cfg.Validate()
	assert.Len(t, errs, 5)
}

func TestValidate_FailoverFormat(t *testing.T) {
	cfg := &config.Config{
		Reasoning: config.ReasoningConfig{MaxRounds: 2},
		Models: config.ModelsConfig{
			Default:  "anthropic/claude-sonnet-4-5",
			Failover: []string{"gpt-4.1"},
		},
		Storage: config.StorageConfig{Backend: "memory"},
	}

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "models.failover[0]")
}

func TestValidate_SQLiteNeedsPath(t *testing.T) {
	cfg := &config.Config{
		Reasoning: config.ReasoningConfig{MaxRounds: 2},
		Models:    config.ModelsConfig{Default: "anthropic/claude-sonnet-4-5"},
		Storage:   config.StorageConfig{Backend: "sqlite"},
	}

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "storage.path")
}
