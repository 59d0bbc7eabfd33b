// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package provider

import (
	"context"
	"strings"
	"sync"

	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// Registry manages completion service registration, lookup, and
// resolution with failover. Refs use "provider/model" format.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]CompletionService

	defaultRef string   // "provider/model"
	failover   []string // ordered list of "provider/model" refs
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]CompletionService),
	}
}

// Register adds a completion service to the registry.
func (r *Registry) Register(name string, svc CompletionService) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = svc
}

// Get retrieves a completion service by name.
func (r *Registry) Get(name string) (CompletionService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.providers[name]
	if !ok {
		return nil, lecternerr.New(
			lecternerr.CodeProviderNotFound,
			"provider not found: "+name,
			lecternerr.FieldProvider(name),
		)
	}
	return svc, nil
}

// SetDefault sets the default "provider/model" reference. Returns an
// error if the provider portion of the ref is not registered.
func (r *Registry) SetDefault(ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	provName, _, err := parseRef(ref)
	if err != nil {
		return err
	}
	if _, ok := r.providers[provName]; !ok {
		return lecternerr.New(
			lecternerr.CodeProviderNotFound,
			"SetDefault: provider not registered: "+provName,
			lecternerr.FieldProvider(provName),
		)
	}
	r.defaultRef = ref
	return nil
}

// SetFailover sets the ordered failover chain of "provider/model" refs.
// Returns an error if any provider portion of the refs is not registered.
func (r *Registry) SetFailover(chain []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ref := range chain {
		provName, _, err := parseRef(ref)
		if err != nil {
			return err
		}
		if _, ok := r.providers[provName]; !ok {
			return lecternerr.New(
				lecternerr.CodeProviderNotFound,
				"SetFailover: provider not registered: "+provName,
				lecternerr.FieldProvider(provName),
			)
		}
	}
	r.failover = append([]string(nil), chain...)
	return nil
}

// Resolve selects a completion service and model for the given ref.
// When ref is empty the default is used; unavailable providers fall
// through to the failover chain in order.
func (r *Registry) Resolve(ctx context.Context, ref string) (CompletionService, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ref == "" {
		ref = r.defaultRef
	}
	if ref == "" {
		return nil, "", lecternerr.New(
			lecternerr.CodeProviderNoDefault,
			"no default provider configured",
		)
	}

	if svc, model, err := r.tryRef(ctx, ref); err == nil {
		return svc, model, nil
	}

	for _, fallback := range r.failover {
		if fallback == ref {
			continue
		}
		if svc, model, err := r.tryRef(ctx, fallback); err == nil {
			return svc, model, nil
		}
	}

	return nil, "", lecternerr.New(
		lecternerr.CodeProviderNotFound,
		"no available provider for ref: "+ref,
	)
}

// tryRef resolves a single ref and checks availability. Caller holds r.mu.
func (r *Registry) tryRef(ctx context.Context, ref string) (CompletionService, string, error) {
	provName, model, err := parseRef(ref)
	if err != nil {
		return nil, "", err
	}
	svc, ok := r.providers[provName]
	if !ok {
		return nil, "", lecternerr.New(
			lecternerr.CodeProviderNotFound,
			"provider not registered: "+provName,
			lecternerr.FieldProvider(provName),
		)
	}
	if !svc.Available(ctx) {
		return nil, "", lecternerr.New(
			lecternerr.CodeProviderNotFound,
			"provider unavailable: "+provName,
			lecternerr.FieldProvider(provName),
		)
	}
	return svc, model, nil
}

// Close shuts down all registered completion services.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, svc := range r.providers {
		if err := svc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return lecternerr.Join(errs...)
	}
	return nil
}

// parseRef splits a "provider/model" reference. The model portion may
// itself contain slashes.
func parseRef(ref string) (provider, model string, err error) {
	provider, model, ok := strings.Cut(ref, "/")
	if !ok || provider == "" || model == "" {
		return "", "", lecternerr.New(
			lecternerr.CodeProviderInvalidModelRef,
			"invalid model ref, want provider/model: "+ref,
		)
	}
	return provider, model, nil
}
