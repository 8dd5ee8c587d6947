package gateway_test

import (
	"sync/atomic"
	"testing"
	"time"

	gateway "github.com/goliatone/go-gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateRoute(t *testing.T) {
	tests := []struct {
		name string
		req  gateway.GateRequest
		want gateway.GateDecision
	}{
		{
			name: "loading renders the placeholder, never a redirect",
			req:  gateway.GateRequest{Loading: true, Path: "/demo"},
			want: gateway.DecisionNotFound,
		},
		{
			name: "loading wins even for a logged-in admin",
			req:  gateway.GateRequest{Loading: true, LoggedIn: true, Admin: true, Path: "/demo"},
			want: gateway.DecisionNotFound,
		},
		{
			name: "logged out redirects to login",
			req:  gateway.GateRequest{Path: "/demo"},
			want: gateway.DecisionRedirectLogin,
		},
		{
			name: "logged out on the public homepage renders",
			req:  gateway.GateRequest{HomepageURL: "/welcome", Path: "/welcome"},
			want: gateway.DecisionRender,
		},
		{
			name: "logged out off the public homepage redirects",
			req:  gateway.GateRequest{HomepageURL: "/welcome", Path: "/demo"},
			want: gateway.DecisionRedirectLogin,
		},
		{
			name: "logged in renders",
			req:  gateway.GateRequest{LoggedIn: true, Path: "/demo"},
			want: gateway.DecisionRender,
		},
		{
			name: "admin route hides from plain users",
			req:  gateway.GateRequest{LoggedIn: true, AdminOnly: true, Path: "/admin/tools"},
			want: gateway.DecisionNotFound,
		},
		{
			name: "admin route renders for admins",
			req:  gateway.GateRequest{LoggedIn: true, AdminOnly: true, Admin: true, Path: "/admin/tools"},
			want: gateway.DecisionRender,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			verdict := gateway.EvaluateRoute(tc.req)
			assert.Equal(t, tc.want, verdict.Decision)
		})
	}
}

func TestEvaluateRouteCarriesReferrer(t *testing.T) {
	verdict := gateway.EvaluateRoute(gateway.GateRequest{Path: "/demo/detail/42"})

	require.Equal(t, gateway.DecisionRedirectLogin, verdict.Decision)
	assert.Equal(t, "/demo/detail/42", verdict.Referrer)
}

func TestGateObserveEmitsOnTransitions(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	gate := gateway.NewGate(dispatcher)

	// first observation only seeds, nothing to compare against yet
	gate.Observe(true, false)
	assert.Empty(t, dispatcher.byType(gateway.PluginRerenderType))

	// loading -> idle
	gate.Observe(false, false)
	assert.Len(t, dispatcher.byType(gateway.PluginRerenderType), 1)

	// steady state emits nothing
	gate.Observe(false, false)
	assert.Len(t, dispatcher.byType(gateway.PluginRerenderType), 1)

	// logged out -> logged in
	gate.Observe(false, true)
	assert.Len(t, dispatcher.byType(gateway.PluginRerenderType), 2)

	// logging out is not a rerender trigger
	gate.Observe(false, false)
	assert.Len(t, dispatcher.byType(gateway.PluginRerenderType), 2)
}

func TestGateObserveBroadcastFlag(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	gate := gateway.NewGate(dispatcher)

	gate.Observe(true, false)
	gate.Observe(false, false)

	rerenders := dispatcher.byType(gateway.PluginRerenderType)
	require.Len(t, rerenders, 1)
	assert.True(t, rerenders[0].Broadcast, "plugins must observe the rerender")
}

func TestWatchMountAckCancelsPolling(t *testing.T) {
	gate := gateway.NewGate(&recordingDispatcher{}).
		WithMountPolling(10*time.Millisecond, 50)

	ack := make(chan struct{})
	var probes int32

	watch := gate.WatchMount("demo", ack, func() (bool, bool) {
		atomic.AddInt32(&probes, 1)
		return false, true
	}, func(string) {})
	defer watch.Stop()

	close(ack)
	time.Sleep(50 * time.Millisecond)

	assert.LessOrEqual(t, atomic.LoadInt32(&probes), int32(1), "acknowledged mounts stop the poll")
}

func TestWatchMountRemountsStalledPlugin(t *testing.T) {
	gate := gateway.NewGate(&recordingDispatcher{}).
		WithMountPolling(5*time.Millisecond, 50)

	remounted := make(chan string, 1)

	// the bundle mounted but the placeholder never went away
	watch := gate.WatchMount("demo", nil, func() (bool, bool) {
		return true, true
	}, func(plugin string) {
		remounted <- plugin
	})
	defer watch.Stop()

	select {
	case plugin := <-remounted:
		assert.Equal(t, "demo", plugin)
	case <-time.After(time.Second):
		t.Fatal("stalled plugin was never remounted")
	}
}

func TestWatchMountStalledPluginWithoutRemount(t *testing.T) {
	gate := gateway.NewGate(&recordingDispatcher{}).
		WithMountPolling(5*time.Millisecond, 50)

	var probes int32
	// a stalled mount with no remount hook must end the poll, not panic
	watch := gate.WatchMount("demo", nil, func() (bool, bool) {
		atomic.AddInt32(&probes, 1)
		return true, true
	}, nil)
	defer watch.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&probes))
}

func TestWatchMountGivesUpAfterBoundedAttempts(t *testing.T) {
	gate := gateway.NewGate(&recordingDispatcher{}).
		WithMountPolling(2*time.Millisecond, 3)

	var probes int32
	watch := gate.WatchMount("demo", nil, func() (bool, bool) {
		atomic.AddInt32(&probes, 1)
		return false, true
	}, func(string) {
		t.Error("an unmounted plugin must not be remounted")
	})
	defer watch.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&probes), "the poll is bounded")
}

func TestWatchMountStop(t *testing.T) {
	gate := gateway.NewGate(&recordingDispatcher{}).
		WithMountPolling(5*time.Millisecond, 1000)

	var probes int32
	watch := gate.WatchMount("demo", nil, func() (bool, bool) {
		atomic.AddInt32(&probes, 1)
		return false, false
	}, func(string) {})

	watch.Stop()
	watch.Stop() // idempotent

	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(&probes), int32(1))
}
