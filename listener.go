package gateway

import (
	"context"
	"encoding/json"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Listener is the host side of the message bus: it interprets inbound
// plugin messages and turns the recognized ones into host state changes.
// It is the single writer of the plugin registry.
type Listener struct {
	bus        *Bus
	registry   *Registry
	dispatcher Dispatcher
	sessions   *SessionManager
	provider   func() Provider
	logger     Logger

	sub *Subscription
}

// NewListener wires the listener. The provider accessor is a function
// because the live provider can be swapped on a configuration change.
func NewListener(bus *Bus, registry *Registry, dispatcher Dispatcher, sessions *SessionManager, provider func() Provider) *Listener {
	return &Listener{
		bus:        bus,
		registry:   registry,
		dispatcher: dispatcher,
		sessions:   sessions,
		provider:   provider,
		logger:     defLogger{},
	}
}

func (l *Listener) WithLogger(logger Logger) *Listener {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Start subscribes to the bus. Idempotent.
func (l *Listener) Start() {
	if l.sub != nil {
		return
	}
	l.sub = l.bus.Subscribe(l.handle)
}

// Stop removes the subscription.
func (l *Listener) Stop() {
	if l.sub == nil {
		return
	}
	l.sub.Unsubscribe()
	l.sub = nil
}

func (l *Listener) handle(msg Message) {
	switch msg.Type {
	case RegisterRouteType:
		l.registerRoute(msg)

	case NotificationType:
		l.dispatcher.Dispatch(Action{Type: NotificationType, Payload: msg.Payload})

	case SignOutType:
		// child-originated: clear the session without re-broadcasting,
		// the message already reached every other subscriber
		l.sessions.Clear(context.Background())
		l.dispatcher.Dispatch(Action{Type: SignOutType, Payload: map[string]any{}})

	case InvalidateTokenType:
		l.invalidateToken()

	case PluginRerenderType, SiteLoadedType:
		// host-originated broadcasts, consumed by plugins only

	default:
		l.logger.Info("message %s received but not dispatched", msg.Type)
	}
}

// registerRoute validates the registration and appends it to the
// registry. Duplicate links are rejected and logged, never merged.
func (l *Listener) registerRoute(msg Message) {
	cfg, err := pluginConfigFromPayload(msg.Payload)
	if err != nil {
		l.logger.Error("malformed route registration: %s", err)
		return
	}

	if err := l.registry.AddRoute(cfg); err != nil {
		l.logger.Error("route registration for %s rejected: %s", cfg.Link, err)
		return
	}

	l.dispatcher.Dispatch(Action{Type: RegisterRouteType, Payload: msg.Payload})

	if cfg.HelpText != "" {
		l.dispatcher.Dispatch(Action{
			Type: ActionAddHelpTourSteps,
			Payload: map[string]any{
				"steps": []HelpTourStep{{
					Target:  helpStepSelector(cfg.Link),
					Content: cfg.HelpText,
				}},
			},
		})
	}
}

// invalidateToken handles a plugin claiming the token is dead. The host
// does not take the plugin's word for it: it refreshes first, so a
// single plugin's transient network blip cannot evict a valid session.
func (l *Listener) invalidateToken() {
	provider := l.provider()
	if provider == nil {
		return
	}

	ctx := context.Background()
	if err := provider.Refresh(ctx); err != nil {
		l.logger.Info("refresh after plugin invalidation failed, applying: %s", err)
		if provider.IsLoggedIn() {
			provider.LogOut(ctx)
		}
		l.dispatcher.Dispatch(Action{Type: ActionAuthFailure, Payload: map[string]any{}})
	}
}

func pluginConfigFromPayload(payload map[string]any) (PluginConfig, error) {
	cfg := PluginConfig{}

	raw, err := json.Marshal(payload)
	if err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryValidation, "unreadable registration payload")
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryValidation, "unreadable registration payload")
	}

	return cfg, nil
}

// helpStepSelector derives a stable DOM-ish selector from a route path,
// e.g. "/demo/page" -> "#plugin-link-demo-page".
func helpStepSelector(link string) string {
	path, _, _ := strings.Cut(link, "?")

	var b strings.Builder
	lastDash := true
	for _, r := range path {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return "#plugin-link-" + strings.TrimSuffix(b.String(), "-")
}
