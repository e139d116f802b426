// Package registry maps provider names to constructors so callers can pick a
// backend from configuration without importing every adapter.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	llm "github.com/benno-ai/benno/internal/adapter/llm"
	"github.com/benno-ai/benno/internal/adapter/llm/anthropic"
	"github.com/benno-ai/benno/internal/adapter/llm/gemini"
	"github.com/benno-ai/benno/internal/adapter/llm/groq"
	"github.com/benno-ai/benno/internal/adapter/llm/ollama"
	"github.com/benno-ai/benno/internal/adapter/llm/openai"
)

// Constructor builds a provider from construction options.
type Constructor func(opts llm.Options) llm.Provider

// Registry holds named provider constructors. Names are case-insensitive;
// they are canonicalized to lower case on registration and lookup.
type Registry struct {
	mu           sync.Mutex
	constructors map[string]Constructor
	builtinsOnce sync.Once
}

// New returns an empty registry. Built-in providers are registered lazily on
// first Create or Names call.
func New() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

var defaultRegistry = New()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

func (r *Registry) registerBuiltins() {
	r.builtinsOnce.Do(func() {
		r.put("openai", func(opts llm.Options) llm.Provider { return openai.New(opts) })
		r.put("anthropic", func(opts llm.Options) llm.Provider { return anthropic.New(opts) })
		r.put("gemini", func(opts llm.Options) llm.Provider { return gemini.New(opts) })
		r.put("groq", func(opts llm.Options) llm.Provider { return groq.New(opts) })
		r.put("ollama", func(opts llm.Options) llm.Provider { return ollama.New(opts) })
	})
}

func (r *Registry) put(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[strings.ToLower(name)] = ctor
}

// Register adds a constructor under the given name, replacing any existing
// registration for it. Built-ins are populated first, so a registration under
// a built-in name wins no matter when it happens.
func (r *Registry) Register(name string, ctor Constructor) {
	r.registerBuiltins()
	r.put(name, ctor)
}

// Create builds the named provider. Unknown names return an error listing
// the registered providers.
func (r *Registry) Create(name string, opts llm.Options) (llm.Provider, error) {
	r.registerBuiltins()

	r.mu.Lock()
	ctor, ok := r.constructors[strings.ToLower(name)]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)",
			name, strings.Join(r.Names(), ", "))
	}
	return ctor(opts), nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.registerBuiltins()

	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds the named provider from the default registry.
func Create(name string, opts llm.Options) (llm.Provider, error) {
	return defaultRegistry.Create(name, opts)
}

// Names lists the default registry's provider names.
func Names() []string {
	return defaultRegistry.Names()
}
