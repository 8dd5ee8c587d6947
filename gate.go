package gateway

import (
	"sync"
	"time"
)

// GateRequest is everything the route gate needs to decide what a URL
// renders right now.
type GateRequest struct {
	// Loading is the site-wide or provider-specific loading flag.
	Loading   bool
	LoggedIn  bool
	AdminOnly bool
	Admin     bool
	// HomepageURL is the public landing override, empty when unset.
	HomepageURL string
	Path        string
}

// GateDecision is the outcome of evaluating a protected route.
type GateDecision int

const (
	// DecisionNotFound renders the placeholder. During boot this is
	// deliberate: never the protected view and never a redirect, which
	// would flicker.
	DecisionNotFound GateDecision = iota
	// DecisionRender shows the protected view.
	DecisionRender
	// DecisionRedirectLogin sends the user to the login view carrying
	// the rejected path as referrer for post-login return.
	DecisionRedirectLogin
)

// GateVerdict pairs the decision with its redirect referrer.
type GateVerdict struct {
	Decision GateDecision
	Referrer string
}

// EvaluateRoute applies the authorization decision table.
func EvaluateRoute(req GateRequest) GateVerdict {
	if req.Loading {
		return GateVerdict{Decision: DecisionNotFound}
	}

	if !req.LoggedIn {
		if req.HomepageURL != "" && req.HomepageURL == req.Path {
			return GateVerdict{Decision: DecisionRender}
		}
		return GateVerdict{Decision: DecisionRedirectLogin, Referrer: req.Path}
	}

	if req.AdminOnly && !req.Admin {
		return GateVerdict{Decision: DecisionNotFound}
	}

	return GateVerdict{Decision: DecisionRender}
}

// Watchdog defaults for plugins whose bundle failed to self-mount.
const (
	DefaultMountPollInterval = 500 * time.Millisecond
	DefaultMountPollAttempts = 10
)

// MountProbe inspects the view: whether the plugin's mount element
// appeared and whether the fallback placeholder is still up.
type MountProbe func() (mounted bool, placeholderPresent bool)

// Gate drives plugin (re)mounting around session-state transitions and
// owns the stalled-plugin watchdog.
type Gate struct {
	dispatcher Dispatcher
	logger     Logger

	mu           sync.Mutex
	prevLoading  bool
	prevLoggedIn bool
	seeded       bool

	pollInterval time.Duration
	pollAttempts int
}

// NewGate builds a gate dispatching rerender broadcasts into host state.
func NewGate(dispatcher Dispatcher) *Gate {
	return &Gate{
		dispatcher:   dispatcher,
		logger:       defLogger{},
		pollInterval: DefaultMountPollInterval,
		pollAttempts: DefaultMountPollAttempts,
	}
}

func (g *Gate) WithLogger(logger Logger) *Gate {
	if logger != nil {
		g.logger = logger
	}
	return g
}

func (g *Gate) WithMountPolling(interval time.Duration, attempts int) *Gate {
	if interval > 0 {
		g.pollInterval = interval
	}
	if attempts > 0 {
		g.pollAttempts = attempts
	}
	return g
}

// Observe records the current flags. On every loading->not-loading and
// logged-out->logged-in transition it broadcasts a plugin rerender so
// mounted plugins refresh auth-dependent UI.
func (g *Gate) Observe(loading, loggedIn bool) {
	g.mu.Lock()
	becameIdle := g.seeded && g.prevLoading && !loading
	becameLoggedIn := g.seeded && !g.prevLoggedIn && loggedIn
	g.prevLoading = loading
	g.prevLoggedIn = loggedIn
	g.seeded = true
	g.mu.Unlock()

	if becameIdle || becameLoggedIn {
		g.dispatcher.Dispatch(Action{
			Type:      PluginRerenderType,
			Payload:   map[string]any{},
			Broadcast: true,
		})
	}
}

// MountWatch is a running stalled-plugin watchdog.
type MountWatch struct {
	stop chan struct{}
	once sync.Once
}

// Stop cancels the watch, e.g. when the view unmounts. Idempotent.
func (w *MountWatch) Stop() {
	w.once.Do(func() { close(w.stop) })
}

// WatchMount covers bundles that failed to self-mount due to a race.
// The acknowledgement channel is preferred: receiving on it cancels the
// watch immediately. The polling fallback is bounded; if the probe finds
// the mount element while the fallback placeholder is still present, the
// plugin is force-remounted through its registration and the poll ends.
func (g *Gate) WatchMount(plugin string, ack <-chan struct{}, probe MountProbe, remount func(plugin string)) *MountWatch {
	watch := &MountWatch{stop: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(g.pollInterval)
		defer ticker.Stop()

		for attempt := 0; attempt < g.pollAttempts; attempt++ {
			select {
			case <-watch.stop:
				return
			case <-ack:
				g.logger.Debug("plugin %s acknowledged mount", plugin)
				return
			case <-ticker.C:
				if probe == nil {
					return
				}
				mounted, placeholder := probe()
				if mounted && placeholder {
					g.logger.Info("plugin %s stalled behind its placeholder, remounting", plugin)
					if remount != nil {
						remount(plugin)
					}
					return
				}
				if mounted {
					return
				}
			}
		}
	}()

	return watch
}
