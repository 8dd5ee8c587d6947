package gateway

import (
	"sort"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// Registry maps plugin names to the ordered set of path prefixes they
// own. It is built from registration messages and is append-only for the
// lifetime of a session: Reset only runs on a full application reset,
// never on a render. The bus listener is its single writer.
type Registry struct {
	mu      sync.RWMutex
	routes  map[string][]string      // plugin name -> path prefixes, registration order
	configs map[string]PluginConfig  // keyed by link
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		routes:  make(map[string][]string),
		configs: make(map[string]PluginConfig),
	}
}

// AddRoute records a registration. A link already registered, by any
// plugin, yields ErrDuplicateRoute and leaves the registry untouched.
func (r *Registry) AddRoute(cfg PluginConfig) error {
	if err := cfg.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid plugin registration")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[cfg.Link]; exists {
		return ErrDuplicateRoute.Clone().WithMetadata(map[string]any{
			"plugin": cfg.Plugin,
			"link":   cfg.Link,
		})
	}

	r.configs[cfg.Link] = cfg
	r.routes[cfg.Plugin] = append(r.routes[cfg.Plugin], cfg.Link)
	return nil
}

// Routes returns the path prefixes a plugin registered, in order.
func (r *Registry) Routes(plugin string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := r.routes[plugin]
	out := make([]string, len(routes))
	copy(out, routes)
	return out
}

// Config returns the registration keyed by link.
func (r *Registry) Config(link string) (PluginConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[link]
	return cfg, ok
}

// PluginOwning resolves which plugin mounts for a URL: the plugin whose
// longest registered prefix matches the path.
func (r *Registry) PluginOwning(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := ""
	bestLen := -1
	for plugin, prefixes := range r.routes {
		for _, prefix := range prefixes {
			if pathHasPrefix(path, prefix) && len(prefix) > bestLen {
				best = plugin
				bestLen = len(prefix)
			}
		}
	}
	return best, bestLen >= 0
}

// Plugins lists the registered plugin names, sorted for stable output.
func (r *Registry) Plugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset drops every registration. Only called on full application reset.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes = make(map[string][]string)
	r.configs = make(map[string]PluginConfig)
}

func pathHasPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	// "/plugin" must not own "/pluginother"
	return len(path) == len(prefix) || prefix == "/" || path[len(prefix)] == '/'
}
