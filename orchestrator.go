package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// DefaultReadinessTimeout bounds how long the shell waits for a plugin
// to claim the current URL before first paint is forced. It exists so a
// slow or broken plugin can never hang the shell indefinitely.
const DefaultReadinessTimeout = 3 * time.Second

// ShellRoutes are the URLs the shell renders itself; readiness for them
// never waits on a plugin registration.
var ShellRoutes = []string{"/", "/login", "/logout", "/admin", "/help", "/cookies"}

// Orchestrator runs the boot sequence exactly once: fetch remote
// configuration, select the auth provider, re-establish or auto-create a
// session, load plugin bundles and decide when the site is ready.
type Orchestrator struct {
	configURL string
	client    *http.Client

	store    Store
	sessions *SessionManager
	bus      *Bus
	registry *Registry
	state    *HostState
	loader   *PluginLoader
	logger   Logger

	systemPrefs      SystemPreferenceQuery
	readinessTimeout time.Duration

	mu       sync.RWMutex
	provider Provider
}

// NewOrchestrator wires the boot sequence. The provider slot starts with
// the pending placeholder so nothing observes a nil provider.
func NewOrchestrator(configURL string, store Store, bus *Bus, registry *Registry, state *HostState) *Orchestrator {
	sessions := NewSessionManager(store)
	return &Orchestrator{
		configURL:        configURL,
		client:           &http.Client{Timeout: 10 * time.Second},
		store:            store,
		sessions:         sessions,
		bus:              bus,
		registry:         registry,
		state:            state,
		loader:           NewPluginLoader(state),
		logger:           defLogger{},
		readinessTimeout: DefaultReadinessTimeout,
		provider:         NewPendingProvider(),
	}
}

func (o *Orchestrator) WithLogger(logger Logger) *Orchestrator {
	if logger != nil {
		o.logger = logger
		o.sessions.WithLogger(logger)
		o.loader.WithLogger(logger)
	}
	return o
}

func (o *Orchestrator) WithHTTPClient(client *http.Client) *Orchestrator {
	if client != nil {
		o.client = client
		o.loader.WithHTTPClient(client)
	}
	return o
}

func (o *Orchestrator) WithSystemPreferenceQuery(query SystemPreferenceQuery) *Orchestrator {
	o.systemPrefs = query
	return o
}

func (o *Orchestrator) WithReadinessTimeout(timeout time.Duration) *Orchestrator {
	if timeout > 0 {
		o.readinessTimeout = timeout
	}
	return o
}

// Sessions exposes the session manager the orchestrator owns.
func (o *Orchestrator) Sessions() *SessionManager { return o.sessions }

// Provider returns the live provider: pending until configuration
// selected the real one.
func (o *Orchestrator) Provider() Provider {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.provider
}

func (o *Orchestrator) setProvider(p Provider) {
	o.mu.Lock()
	o.provider = p
	o.mu.Unlock()
}

// Run executes the boot sequence. Every step is best-effort except
// provider selection: an unrecognized provider name is returned as a
// fatal configuration fault because no safe default exists.
func (o *Orchestrator) Run(ctx context.Context, currentPath string) error {
	// display preference resolution has no ordering dependency on the
	// rest of the sequence
	prefsDone := make(chan DisplayPreferences, 1)
	go func() {
		prefsDone <- ResolveDisplayPreferences(ctx, o.store, o.systemPrefs)
	}()
	defer func() {
		o.state.Dispatch(Action{
			Type:    ActionDisplayPreferences,
			Payload: map[string]any{"preferences": <-prefsDone},
		})
	}()

	cfg, err := FetchSiteConfig(ctx, o.client, o.configURL, o.logger)
	if err != nil {
		// degraded but running: the shell still paints, with the
		// pending provider keeping every route at the login screen
		o.logger.Error("site configuration unavailable: %s", err)
		o.awaitReadiness(ctx, currentPath)
		return nil
	}

	provider, err := NewProvider(cfg.ProviderName(), ProviderConfig{
		AuthURL:    cfg.AuthURL,
		AutoLogin:  cfg.AutoLogin,
		SubVariant: cfg.ProviderSubVariant(),
		HTTPClient: o.client,
		Sessions:   o.sessions,
		Bus:        o.bus,
		Logger:     o.logger,
	})
	if err != nil {
		return err
	}
	o.setProvider(provider)

	o.establishAuth(ctx, provider)
	o.dispatchConfig(cfg)
	o.loader.LoadAll(ctx, cfg.EnabledPlugins())
	o.awaitReadiness(ctx, currentPath)

	return nil
}

// establishAuth re-validates a persisted session or attempts an
// auto-login, resolving to a definite logged-in or logged-out state.
func (o *Orchestrator) establishAuth(ctx context.Context, provider Provider) {
	if err := o.sessions.Load(ctx); err != nil {
		o.logger.Info("persisted session unusable: %s", err)
	}

	if o.sessions.Token() != "" {
		if err := provider.VerifyLogIn(ctx); err == nil {
			o.state.Dispatch(Action{Type: ActionAuthSuccess, Payload: map[string]any{}})
			return
		}
		o.logger.Info("silent verification failed, session needs re-establishing")
		o.tryAutoLogin(ctx, provider)
		return
	}

	if supportsAutoLogin(provider) {
		o.tryAutoLogin(ctx, provider)
	}
}

// tryAutoLogin attempts a credential-less session, marking auth loading
// for the duration. Every exit path clears the loading flag.
func (o *Orchestrator) tryAutoLogin(ctx context.Context, provider Provider) {
	ap, ok := provider.(AutoLoginProvider)
	if !ok || !ap.AutoLoginEnabled() {
		o.invalidate(ctx, provider)
		return
	}

	o.state.Dispatch(Action{Type: ActionAuthLoading, Payload: map[string]any{"loading": true}})
	defer o.state.Dispatch(Action{Type: ActionAuthLoading, Payload: map[string]any{"loading": false}})

	if err := ap.AutoLogin(ctx); err != nil {
		o.logger.Info("auto-login failed: %s", err)
		o.invalidate(ctx, provider)
		return
	}

	o.state.Dispatch(Action{Type: ActionAuthSuccess, Payload: map[string]any{}})
}

// invalidate resolves the session to a definite logged-out state.
func (o *Orchestrator) invalidate(ctx context.Context, provider Provider) {
	if provider.IsLoggedIn() {
		provider.LogOut(ctx)
	}
	o.state.Dispatch(Action{Type: ActionAuthFailure, Payload: map[string]any{}})
}

// dispatchConfig pushes the non-auth configuration into host state. The
// dispatches are order-independent with respect to authentication.
func (o *Orchestrator) dispatchConfig(cfg *SiteConfig) {
	if len(cfg.Features) > 0 {
		o.state.Dispatch(Action{
			Type:    ActionConfigureFeatures,
			Payload: map[string]any{"features": cfg.Features},
		})
	}

	if cfg.UIStringsPath != "" {
		o.state.Dispatch(Action{
			Type:    ActionConfigureStrings,
			Payload: map[string]any{"path": cfg.UIStringsPath},
		})
	}

	if len(cfg.HelpTourSteps) > 0 {
		o.state.Dispatch(Action{
			Type:    ActionAddHelpTourSteps,
			Payload: map[string]any{"steps": cfg.HelpTourSteps},
		})
	}

	if cfg.HomepageURL != "" || cfg.StartURL != "" {
		o.state.Dispatch(Action{
			Type: ActionConfigureURLs,
			Payload: map[string]any{
				"homepageUrl": cfg.HomepageURL,
				"startUrl":    cfg.StartURL,
			},
		})
	}

	if cfg.GATrackingID != "" {
		o.state.Dispatch(Action{
			Type:    ActionConfigureAnalytics,
			Payload: map[string]any{"id": cfg.GATrackingID},
		})
	}
}

// awaitReadiness computes "site ready". Shell-owned routes are ready as
// soon as the preceding steps settled; any other URL waits for a
// matching plugin route registration, bounded by the readiness timeout.
// Whichever resolution fires first cancels the other.
func (o *Orchestrator) awaitReadiness(ctx context.Context, currentPath string) {
	defer o.state.Dispatch(Action{
		Type:      SiteLoadedType,
		Payload:   map[string]any{},
		Broadcast: true,
	})

	if isShellRoute(currentPath) {
		return
	}
	if _, owned := o.registry.PluginOwning(currentPath); owned {
		return
	}

	done := make(chan struct{})
	var once sync.Once

	sub := o.bus.Subscribe(func(msg Message) {
		if msg.Type != RegisterRouteType {
			return
		}
		link, _ := msg.Payload["link"].(string)
		if link != "" && pathHasPrefix(currentPath, link) {
			once.Do(func() { close(done) })
		}
	})
	defer sub.Unsubscribe()

	timer := time.NewTimer(o.readinessTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		o.logger.Info("no plugin registered %s in time, forcing readiness", currentPath)
	case <-ctx.Done():
	}
}

func supportsAutoLogin(provider Provider) bool {
	ap, ok := provider.(AutoLoginProvider)
	return ok && ap.AutoLoginEnabled()
}

func isShellRoute(path string) bool {
	for _, route := range ShellRoutes {
		if path == route {
			return true
		}
	}
	return false
}
