package gateway_test

import (
	"context"
	"testing"

	gateway "github.com/goliatone/go-gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listenerHarness struct {
	bus        *gateway.Bus
	registry   *gateway.Registry
	dispatcher *recordingDispatcher
	sessions   *gateway.SessionManager
	provider   *stubProvider
	logger     *recordingLogger
	listener   *gateway.Listener
}

func newListenerHarness(t *testing.T) *listenerHarness {
	t.Helper()

	h := &listenerHarness{
		bus:        gateway.NewBus(),
		registry:   gateway.NewRegistry(),
		dispatcher: &recordingDispatcher{},
		sessions:   gateway.NewSessionManager(gateway.NewMemoryStore()),
		provider:   &stubProvider{name: "stub"},
		logger:     &recordingLogger{},
	}

	h.listener = gateway.NewListener(
		h.bus, h.registry, h.dispatcher, h.sessions,
		func() gateway.Provider { return h.provider },
	).WithLogger(h.logger)
	h.listener.Start()
	t.Cleanup(h.listener.Stop)

	return h
}

func registrationPayload(plugin, link string) map[string]any {
	return map[string]any{
		"plugin":      plugin,
		"link":        link,
		"section":     "Browse",
		"displayName": plugin,
	}
}

func TestListenerRegistersRoute(t *testing.T) {
	h := newListenerHarness(t)

	require.NoError(t, h.bus.Publish(gateway.Message{
		Type:    gateway.RegisterRouteType,
		Payload: registrationPayload("demo", "/demo"),
	}))

	assert.Equal(t, []string{"/demo"}, h.registry.Routes("demo"))
	assert.Len(t, h.dispatcher.byType(gateway.RegisterRouteType), 1)
}

func TestListenerRejectsDuplicateRegistration(t *testing.T) {
	h := newListenerHarness(t)

	msg := gateway.Message{
		Type:    gateway.RegisterRouteType,
		Payload: registrationPayload("demo", "/demo"),
	}
	require.NoError(t, h.bus.Publish(msg))
	require.NoError(t, h.bus.Publish(msg))

	assert.Equal(t, []string{"/demo"}, h.registry.Routes("demo"), "one registration survives")
	assert.Len(t, h.dispatcher.byType(gateway.RegisterRouteType), 1, "the duplicate is not dispatched")
	assert.NotEmpty(t, h.logger.errors())
}

func TestListenerIgnoresMalformedRegistration(t *testing.T) {
	h := newListenerHarness(t)

	require.NoError(t, h.bus.Publish(gateway.Message{
		Type:    gateway.RegisterRouteType,
		Payload: map[string]any{"plugin": "demo"},
	}))

	assert.Empty(t, h.registry.Routes("demo"))
	assert.NotEmpty(t, h.logger.errors())
}

func TestListenerSynthesizesHelpStep(t *testing.T) {
	h := newListenerHarness(t)

	payload := registrationPayload("demo", "/demo/page")
	payload["helpText"] = "This is the demo page"

	require.NoError(t, h.bus.Publish(gateway.Message{
		Type:    gateway.RegisterRouteType,
		Payload: payload,
	}))

	helpActions := h.dispatcher.byType(gateway.ActionAddHelpTourSteps)
	require.Len(t, helpActions, 1)

	steps, ok := helpActions[0].Payload["steps"].([]gateway.HelpTourStep)
	require.True(t, ok)
	require.Len(t, steps, 1)
	assert.Equal(t, "#plugin-link-demo-page", steps[0].Target)
	assert.Equal(t, "This is the demo page", steps[0].Content)
}

func TestListenerNoHelpStepWithoutHelpText(t *testing.T) {
	h := newListenerHarness(t)

	require.NoError(t, h.bus.Publish(gateway.Message{
		Type:    gateway.RegisterRouteType,
		Payload: registrationPayload("demo", "/demo"),
	}))

	assert.Empty(t, h.dispatcher.byType(gateway.ActionAddHelpTourSteps))
}

func TestListenerForwardsNotifications(t *testing.T) {
	h := newListenerHarness(t)

	require.NoError(t, h.bus.Publish(gateway.Message{
		Type:    gateway.NotificationType,
		Payload: map[string]any{"message": "from a plugin", "severity": "warning"},
	}))

	forwarded := h.dispatcher.byType(gateway.NotificationType)
	require.Len(t, forwarded, 1)
	assert.Equal(t, "from a plugin", forwarded[0].Payload["message"])
}

func TestListenerSignOutClearsSessionWithoutEcho(t *testing.T) {
	h := newListenerHarness(t)
	ctx := context.Background()

	require.NoError(t, h.sessions.Establish(ctx, mintUserToken(t, "demo"), &gateway.User{Username: "demo"}))

	signOuts := countMessages(h.bus, gateway.SignOutType)

	require.NoError(t, h.bus.Publish(gateway.Message{
		Type:    gateway.SignOutType,
		Payload: map[string]any{},
	}))

	assert.False(t, h.sessions.LoggedIn())
	assert.Len(t, h.dispatcher.byType(gateway.SignOutType), 1)
	assert.Equal(t, 1, *signOuts, "the listener never re-broadcasts a remote sign-out")
}

func TestListenerInvalidateTokenRefreshFirst(t *testing.T) {
	h := newListenerHarness(t)
	h.provider.loggedIn = true

	require.NoError(t, h.bus.Publish(gateway.Message{
		Type:    gateway.InvalidateTokenType,
		Payload: map[string]any{},
	}))

	// a single plugin's claim is not taken at face value
	assert.Equal(t, 1, h.provider.refreshCount())
	assert.Zero(t, h.provider.logoutCount())
	assert.Empty(t, h.dispatcher.byType(gateway.ActionAuthFailure))
}

func TestListenerInvalidateTokenRefreshFailure(t *testing.T) {
	h := newListenerHarness(t)
	h.provider.loggedIn = true
	h.provider.refreshErr = gateway.ErrAuthenticationFailed

	require.NoError(t, h.bus.Publish(gateway.Message{
		Type:    gateway.InvalidateTokenType,
		Payload: map[string]any{},
	}))

	assert.Equal(t, 1, h.provider.refreshCount())
	assert.Equal(t, 1, h.provider.logoutCount())
	assert.Len(t, h.dispatcher.byType(gateway.ActionAuthFailure), 1)
}

func TestListenerIgnoresHostOriginatedBroadcasts(t *testing.T) {
	h := newListenerHarness(t)

	for _, msgType := range []string{gateway.PluginRerenderType, gateway.SiteLoadedType} {
		require.NoError(t, h.bus.Publish(gateway.Message{
			Type:    msgType,
			Payload: map[string]any{},
		}))
	}

	assert.Empty(t, h.dispatcher.all())
	assert.Empty(t, h.logger.infoLines())
}

func TestListenerLogsUnknownScopedTypes(t *testing.T) {
	h := newListenerHarness(t)

	require.NoError(t, h.bus.Publish(gateway.Message{
		Type:    gateway.MessageScope + ":from_the_future",
		Payload: map[string]any{},
	}))

	assert.Empty(t, h.dispatcher.all())
	require.Len(t, h.logger.infoLines(), 1)
	assert.Contains(t, h.logger.infoLines()[0], "from_the_future")
}

func TestListenerStopStopsHandling(t *testing.T) {
	h := newListenerHarness(t)
	h.listener.Stop()

	require.NoError(t, h.bus.Publish(gateway.Message{
		Type:    gateway.RegisterRouteType,
		Payload: registrationPayload("demo", "/demo"),
	}))

	assert.Empty(t, h.registry.Routes("demo"))
}
