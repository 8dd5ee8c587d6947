package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// PluginLoader fetches plugin bundles declared in site configuration.
// Bundles load concurrently; a failure is caught per plugin and surfaced
// as a user-facing error notification, never a crash of the host.
type PluginLoader struct {
	client     *http.Client
	dispatcher Dispatcher
	logger     Logger
}

// NewPluginLoader builds a loader dispatching into the given host state.
func NewPluginLoader(dispatcher Dispatcher) *PluginLoader {
	return &PluginLoader{
		client:     &http.Client{Timeout: 30 * time.Second},
		dispatcher: dispatcher,
		logger:     defLogger{},
	}
}

func (l *PluginLoader) WithLogger(logger Logger) *PluginLoader {
	if logger != nil {
		l.logger = logger
	}
	return l
}

func (l *PluginLoader) WithHTTPClient(client *http.Client) *PluginLoader {
	if client != nil {
		l.client = client
	}
	return l
}

// LoadAll fetches every enabled bundle and returns once all attempts
// have settled, successes and failures both counting as "attempted".
func (l *PluginLoader) LoadAll(ctx context.Context, defs []PluginDef) {
	group, ctx := errgroup.WithContext(ctx)

	for _, def := range defs {
		group.Go(func() error {
			l.load(ctx, def)
			// failures are reported per plugin, never propagated: one
			// bad bundle must not cancel its siblings
			return nil
		})
	}

	_ = group.Wait()
}

func (l *PluginLoader) load(ctx context.Context, def PluginDef) {
	if err := def.Validate(); err != nil {
		l.fail(def, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, def.Src, nil)
	if err != nil {
		l.fail(def, err)
		return
	}

	res, err := l.client.Do(req)
	if err != nil {
		l.fail(def, err)
		return
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		l.fail(def, fmt.Errorf("bundle fetch returned status %d", res.StatusCode))
		return
	}

	if _, err := io.Copy(io.Discard, res.Body); err != nil {
		l.fail(def, err)
		return
	}

	l.logger.Debug("plugin %s loaded from %s", def.Name, def.Src)
	l.dispatcher.Dispatch(Action{
		Type:    ActionPluginLoaded,
		Payload: map[string]any{"plugin": def.Name, "loaded": true},
	})
}

func (l *PluginLoader) fail(def PluginDef, err error) {
	l.logger.Error("failed to load plugin %s from %s: %s", def.Name, def.Src, err)

	l.dispatcher.Dispatch(Action{
		Type:    ActionPluginLoaded,
		Payload: map[string]any{"plugin": def.Name, "loaded": false},
	})
	l.dispatcher.Dispatch(Action{
		Type: NotificationType,
		Payload: map[string]any{
			"message":  fmt.Sprintf("Failed to load plugin %q from %s", def.Name, def.Src),
			"severity": string(SeverityError),
		},
	})
}
