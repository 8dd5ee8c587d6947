package gateway

import (
	"sync"
)

// Internal action types. They share the "gateway:" namespace with bus
// messages but sit outside the MessageScope, so they can never be
// injected from a plugin.
const (
	ActionSiteLoading          = "gateway:site_loading"
	ActionAuthLoading          = "gateway:auth_loading"
	ActionAuthSuccess          = "gateway:auth_success"
	ActionAuthFailure          = "gateway:auth_failure"
	ActionConfigureFeatures    = "gateway:configure_features"
	ActionConfigureStrings     = "gateway:configure_strings"
	ActionConfigureURLs        = "gateway:configure_urls"
	ActionConfigureAnalytics   = "gateway:configure_analytics"
	ActionAddHelpTourSteps     = "gateway:add_help_tour_steps"
	ActionPluginLoaded         = "gateway:plugin_loaded"
	ActionMaintenance          = "gateway:maintenance"
	ActionScheduledMaintenance = "gateway:scheduled_maintenance"
	ActionDisplayPreferences   = "gateway:display_preferences"
)

// Action is a host state mutation. Actions whose Broadcast flag is set
// are re-emitted on the bus after being applied, so plugins observe the
// same-shaped payload without direct store coupling.
type Action struct {
	Type      string
	Payload   map[string]any
	Broadcast bool
}

// HostState is the shell's own view of the world: loading flags,
// notifications, configuration pushed from the site document, and plugin
// load attempts. All mutation goes through Dispatch.
type HostState struct {
	mu     sync.RWMutex
	bus    *Bus
	logger Logger

	siteLoading   bool
	ready         bool
	authLoading   bool
	notifications []Notification
	features      map[string]bool
	helpSteps     []HelpTourStep
	uiStringsPath string
	homepageURL   string
	startURL      string
	gaTrackingID  string
	maintenance   MaintenanceState
	scheduled     MaintenanceState
	display       DisplayPreferences
	pluginsLoaded map[string]bool
}

var _ Dispatcher = (*HostState)(nil)

// NewHostState creates host state wired to the given bus for broadcasts.
// The site starts in the loading state.
func NewHostState(bus *Bus) *HostState {
	return &HostState{
		bus:           bus,
		logger:        defLogger{},
		siteLoading:   true,
		features:      make(map[string]bool),
		pluginsLoaded: make(map[string]bool),
	}
}

func (h *HostState) WithLogger(logger Logger) *HostState {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Dispatch applies the action and then re-broadcasts it if flagged.
func (h *HostState) Dispatch(action Action) {
	h.apply(action)

	if action.Broadcast && h.bus != nil {
		payload := action.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		if err := h.bus.Publish(Message{Type: action.Type, Payload: payload}); err != nil {
			h.logger.Error("broadcast of %s failed: %s", action.Type, err)
		}
	}
}

func (h *HostState) apply(action Action) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch action.Type {
	case ActionSiteLoading:
		h.siteLoading, _ = action.Payload["loading"].(bool)

	case SiteLoadedType:
		h.siteLoading = false
		h.ready = true

	case ActionAuthLoading:
		h.authLoading, _ = action.Payload["loading"].(bool)

	case ActionAuthSuccess:
		h.authLoading = false

	case ActionAuthFailure, SignOutType:
		h.authLoading = false

	case NotificationType:
		message, _ := action.Payload["message"].(string)
		severity, _ := action.Payload["severity"].(string)
		if severity == "" {
			severity = string(SeverityInfo)
		}
		h.addNotification(Notification{Message: message, Severity: NotificationSeverity(severity)})

	case ActionConfigureFeatures:
		if features, ok := action.Payload["features"].(map[string]bool); ok {
			for name, enabled := range features {
				h.features[name] = enabled
			}
		}

	case ActionConfigureStrings:
		h.uiStringsPath, _ = action.Payload["path"].(string)

	case ActionConfigureURLs:
		if homepage, ok := action.Payload["homepageUrl"].(string); ok && homepage != "" {
			h.homepageURL = homepage
		}
		if start, ok := action.Payload["startUrl"].(string); ok && start != "" {
			h.startURL = start
		}

	case ActionConfigureAnalytics:
		h.gaTrackingID, _ = action.Payload["id"].(string)

	case ActionAddHelpTourSteps:
		if steps, ok := action.Payload["steps"].([]HelpTourStep); ok {
			h.helpSteps = append(h.helpSteps, steps...)
		}

	case ActionPluginLoaded:
		if name, ok := action.Payload["plugin"].(string); ok {
			loaded, _ := action.Payload["loaded"].(bool)
			h.pluginsLoaded[name] = loaded
		}

	case ActionMaintenance:
		if state, ok := action.Payload["state"].(MaintenanceState); ok {
			h.maintenance = state
		}

	case ActionScheduledMaintenance:
		if state, ok := action.Payload["state"].(MaintenanceState); ok {
			h.scheduled = state
		}

	case ActionDisplayPreferences:
		if prefs, ok := action.Payload["preferences"].(DisplayPreferences); ok {
			h.display = prefs
		}

	case RegisterRouteType, PluginRerenderType, InvalidateTokenType:
		// handled by the bus listener, nothing to fold into host state

	default:
		h.logger.Debug("action %s has no reducer", action.Type)
	}
}

// addNotification dedups toasts: an identical message already present is
// not re-added.
func (h *HostState) addNotification(n Notification) {
	for _, existing := range h.notifications {
		if existing.Message == n.Message && existing.Severity == n.Severity {
			return
		}
	}
	h.notifications = append(h.notifications, n)
}

// SiteLoading reports whether the shell is still booting.
func (h *HostState) SiteLoading() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.siteLoading
}

// Ready reports whether first paint was released.
func (h *HostState) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// AuthLoading reports whether a verify/auto-login attempt is in flight.
func (h *HostState) AuthLoading() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.authLoading
}

// Notifications returns a copy of the notification list.
func (h *HostState) Notifications() []Notification {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Notification, len(h.notifications))
	copy(out, h.notifications)
	return out
}

// Feature reports a feature switch, defaulting to off.
func (h *HostState) Feature(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.features[name]
}

// HelpSteps returns the accumulated guided-tour steps.
func (h *HostState) HelpSteps() []HelpTourStep {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]HelpTourStep, len(h.helpSteps))
	copy(out, h.helpSteps)
	return out
}

// UIStringsPath returns the configured string-resource path.
func (h *HostState) UIStringsPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.uiStringsPath
}

// HomepageURL returns the public landing override, empty when unset.
func (h *HostState) HomepageURL() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.homepageURL
}

// StartURL returns the configured post-login destination.
func (h *HostState) StartURL() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.startURL
}

// AnalyticsID returns the tracking id, empty when analytics is off.
func (h *HostState) AnalyticsID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.gaTrackingID
}

// Maintenance returns the live maintenance state.
func (h *HostState) Maintenance() MaintenanceState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.maintenance
}

// ScheduledMaintenance returns the scheduled maintenance state.
func (h *HostState) ScheduledMaintenance() MaintenanceState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.scheduled
}

// Display returns the resolved display preferences.
func (h *HostState) Display() DisplayPreferences {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.display
}

// PluginLoaded reports whether a bundle load attempt succeeded.
func (h *HostState) PluginLoaded(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pluginsLoaded[name]
}
