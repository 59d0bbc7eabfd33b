// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/lectern-ai/lectern/internal/assistant"
	"github.com/lectern-ai/lectern/internal/config"
	"github.com/lectern-ai/lectern/internal/knowledge"
	"github.com/lectern-ai/lectern/internal/orchestrator"
	"github.com/lectern-ai/lectern/internal/provider"
	anthropicprov "github.com/lectern-ai/lectern/internal/provider/anthropic"
	googleprov "github.com/lectern-ai/lectern/internal/provider/google"
	openaiprov "github.com/lectern-ai/lectern/internal/provider/openai"
	"github.com/lectern-ai/lectern/internal/store"
	"github.com/lectern-ai/lectern/internal/tool"
	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Assistant *assistant.Assistant
	Providers *provider.Registry
	Knowledge knowledge.Store
	History   store.HistoryStore
}

// WireApp creates all subsystems and wires them together. An empty
// modelRef uses the configured default with failover.
func WireApp(ctx context.Context, cfg *config.Config, modelRef string) (*App, error) {
	providers := provider.NewRegistry()
	registerBuiltinProviders(ctx, cfg, providers)

	if cfg.Models.Default != "" {
		if err := providers.SetDefault(cfg.Models.Default); err != nil {
			return nil, lecternerr.Wrapf(err, lecternerr.CodeCLISetupFailure, "setting default provider: %s", cfg.Models.Default)
		}
	}
	if len(cfg.Models.Failover) > 0 {
		if err := providers.SetFailover(cfg.Models.Failover); err != nil {
			return nil, lecternerr.Wrapf(err, lecternerr.CodeCLISetupFailure, "setting failover chain")
		}
	}

	completion, model, err := providers.Resolve(ctx, modelRef)
	if err != nil {
		_ = providers.Close()
		return nil, err
	}

	kstore, err := knowledge.NewSQLiteStore(cfg.Knowledge.Path)
	if err != nil {
		_ = providers.Close()
		return nil, err
	}

	tools := tool.NewRegistry()
	tools.Register(tool.NewSearchTool(kstore))
	tools.Register(tool.NewOutlineTool(kstore))

	history, err := newHistoryStore(cfg)
	if err != nil {
		_ = kstore.Close()
		_ = providers.Close()
		return nil, err
	}

	systemPrompt := ""
	if cfg.Reasoning.PromptFile != "" {
		prompt, err := orchestrator.LoadPrompt(cfg.Reasoning.PromptFile)
		if err != nil {
			_ = history.Close()
			_ = kstore.Close()
			_ = providers.Close()
			return nil, err
		}
		systemPrompt = prompt.Content
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Completion:            completion,
		Model:                 model,
		Tools:                 tools,
		SystemPrompt:          systemPrompt,
		MaxRounds:             cfg.Reasoning.MaxRounds,
		CompletionTimeout:     cfg.Reasoning.CompletionTimeout,
		ToolTimeout:           cfg.Reasoning.ToolTimeout,
		ReplyAfterToolFailure: cfg.Reasoning.ReplyAfterToolFailure,
		Logger:                slog.Default(),
	})
	if err != nil {
		_ = history.Close()
		_ = kstore.Close()
		_ = providers.Close()
		return nil, err
	}

	asst, err := assistant.New(assistant.Config{
		Orchestrator:  orch,
		History:       history,
		HistoryWindow: cfg.Sessions.HistoryWindow,
		Logger:        slog.Default(),
	})
	if err != nil {
		_ = history.Close()
		_ = kstore.Close()
		_ = providers.Close()
		return nil, err
	}

	return &App{
		Assistant: asst,
		Providers: providers,
		Knowledge: kstore,
		History:   history,
	}, nil
}

// Close releases all resources held by the app.
func (a *App) Close() error {
	var errs []error
	if err := a.History.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Knowledge.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Providers.Close(); err != nil {
		errs = append(errs, err)
	}
	return lecternerr.Join(errs...)
}

// providerFactories maps config provider names to constructors.
var providerFactories = map[string]func(ctx context.Context, pc config.ProviderConfig) (provider.CompletionService, error){
	"anthropic": func(_ context.Context, pc config.ProviderConfig) (provider.CompletionService, error) {
		return anthropicprov.New(anthropicprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
	},
	"openai": func(_ context.Context, pc config.ProviderConfig) (provider.CompletionService, error) {
		return openaiprov.New(openaiprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
	},
	"google": func(ctx context.Context, pc config.ProviderConfig) (provider.CompletionService, error) {
		return googleprov.New(ctx, googleprov.Config{APIKey: pc.APIKey})
	},
}

// registerBuiltinProviders iterates configured providers and registers
// matching built-in implementations. Unknown names or empty API keys
// are logged and skipped, neither is fatal at startup.
func registerBuiltinProviders(ctx context.Context, cfg *config.Config, reg *provider.Registry) {
	for name, pc := range cfg.Providers {
		if pc.APIKey == "" {
			slog.Warn("skipping provider with empty API key", "provider", name)
			continue
		}
		factory, ok := providerFactories[name]
		if !ok {
			slog.Warn("unknown provider in config, skipping", "provider", name)
			continue
		}
		svc, err := factory(ctx, pc)
		if err != nil {
			slog.Warn("provider setup failed, skipping", "provider", name, "error", err)
			continue
		}
		reg.Register(name, svc)
	}
}

// newHistoryStore builds the configured session-history backend.
func newHistoryStore(cfg *config.Config) (store.HistoryStore, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return store.NewMemoryHistory(), nil
	case "sqlite":
		return store.NewSQLiteHistory(cfg.Storage.Path)
	default:
		return nil, lecternerr.Errorf(lecternerr.CodeStoreBackendUnsupported, "unsupported storage backend %q", cfg.Storage.Backend)
	}
}
