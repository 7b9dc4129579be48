package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Factory builds a provider client for an API key and model ("" = provider default).
type Factory func(apiKey, model string) Client

// Registry resolves a provider client per request. Server-side keys are the
// defaults; a user-supplied key overrides them for a single request.
type Registry struct {
	Default     string
	Model       string
	Timeout     time.Duration
	MaxAttempts int

	mu        sync.RWMutex
	factories map[string]Factory
	keys      map[string]string
}

func NewRegistry(defaultProvider, model string, timeout time.Duration, attempts int) *Registry {
	return &Registry{
		Default:     NormalizeProvider(defaultProvider),
		Model:       model,
		Timeout:     timeout,
		MaxAttempts: attempts,
		factories:   make(map[string]Factory),
		keys:        make(map[string]string),
	}
}

// Register adds a provider with its server-side key, which may be empty.
func (r *Registry) Register(provider string, key string, f Factory) {
	provider = NormalizeProvider(provider)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[provider] = f
	r.keys[provider] = strings.TrimSpace(key)
}

// Resolve returns a retrying client for provider, or the default provider when
// provider is empty. It returns ErrNotConfigured when no key is available and
// nil, nil for the template provider.
func (r *Registry) Resolve(provider, userKey string) (Client, error) {
	provider = NormalizeProvider(provider)
	if provider == "" {
		provider = r.Default
	}
	if provider == ProviderTemplate {
		return nil, nil
	}

	r.mu.RLock()
	f, ok := r.factories[provider]
	key := r.keys[provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	if k := strings.TrimSpace(userKey); k != "" {
		key = k
	}
	if key == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, provider)
	}

	model := ""
	if provider == r.Default {
		model = r.Model
	}
	return WithRetry(f(key, model), r.Timeout, r.MaxAttempts), nil
}

// Providers lists the registered provider names.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
