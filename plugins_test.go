package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	gateway "github.com/goliatone/go-gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluginLoaderLoadAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bundles/good.js":
			_, _ = w.Write([]byte("export default {};"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	dispatcher := &recordingDispatcher{}
	loader := gateway.NewPluginLoader(dispatcher).
		WithHTTPClient(srv.Client()).
		WithLogger(&recordingLogger{})

	loader.LoadAll(context.Background(), []gateway.PluginDef{
		{Name: "good", Src: srv.URL + "/bundles/good.js", Enable: true},
		{Name: "missing", Src: srv.URL + "/bundles/missing.js", Enable: true},
	})

	attempts := dispatcher.byType(gateway.ActionPluginLoaded)
	require.Len(t, attempts, 2, "every bundle attempt settles")

	outcomes := map[string]bool{}
	for _, a := range attempts {
		name := a.Payload["plugin"].(string)
		outcomes[name] = a.Payload["loaded"].(bool)
	}
	assert.True(t, outcomes["good"])
	assert.False(t, outcomes["missing"])

	// a failed bundle surfaces as a user-facing error notification
	notifications := dispatcher.byType(gateway.NotificationType)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Payload["message"], "missing")
	assert.Equal(t, string(gateway.SeverityError), notifications[0].Payload["severity"])
}

func TestPluginLoaderRejectsInvalidDefinition(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	loader := gateway.NewPluginLoader(dispatcher).WithLogger(&recordingLogger{})

	loader.LoadAll(context.Background(), []gateway.PluginDef{
		{Name: "no-src", Enable: true},
	})

	attempts := dispatcher.byType(gateway.ActionPluginLoaded)
	require.Len(t, attempts, 1)
	assert.False(t, attempts[0].Payload["loaded"].(bool))
}

func TestPluginLoaderEmptyList(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	loader := gateway.NewPluginLoader(dispatcher)

	loader.LoadAll(context.Background(), nil)

	assert.Empty(t, dispatcher.all())
}
