package gateway_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	gateway "github.com/goliatone/go-gateway"
	"github.com/stretchr/testify/require"
)

// testSigningKey signs the tokens minted for tests. The shell never
// verifies signatures, so the key only needs to be stable.
var testSigningKey = []byte("test-signing-key")

// mintToken builds a compact three-segment token carrying the given
// claims.
func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	require.NoError(t, err)
	return token
}

// mintUserToken is the common case: a token for a plain user.
func mintUserToken(t *testing.T, username string) string {
	t.Helper()
	return mintToken(t, jwt.MapClaims{"username": username})
}

// recordingLogger implements gateway.Logger capturing every line.
type recordingLogger struct {
	mu      sync.Mutex
	debugs  []string
	infos   []string
	errLogs []string
}

func (l *recordingLogger) Debug(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugs = append(l.debugs, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Info(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Error(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errLogs = append(l.errLogs, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.errLogs))
	copy(out, l.errLogs)
	return out
}

func (l *recordingLogger) infoLines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.infos))
	copy(out, l.infos)
	return out
}

// recordingDispatcher implements gateway.Dispatcher capturing actions.
type recordingDispatcher struct {
	mu      sync.Mutex
	actions []gateway.Action
}

func (d *recordingDispatcher) Dispatch(action gateway.Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, action)
}

func (d *recordingDispatcher) all() []gateway.Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]gateway.Action, len(d.actions))
	copy(out, d.actions)
	return out
}

func (d *recordingDispatcher) byType(actionType string) []gateway.Action {
	var out []gateway.Action
	for _, a := range d.all() {
		if a.Type == actionType {
			out = append(out, a)
		}
	}
	return out
}

// stubProvider implements gateway.Provider with settable capabilities.
type stubProvider struct {
	name       string
	redirect   string
	loggedIn   bool
	admin      bool
	loginErr   error
	verifyErr  error
	refreshErr error

	mu         sync.Mutex
	refreshes  int
	logouts    int
}

func (p *stubProvider) Name() string        { return p.name }
func (p *stubProvider) RedirectURL() string { return p.redirect }
func (p *stubProvider) IsLoggedIn() bool    { return p.loggedIn }
func (p *stubProvider) IsAdmin() bool       { return p.admin }

func (p *stubProvider) LogIn(context.Context, string, string) error { return p.loginErr }
func (p *stubProvider) VerifyLogIn(context.Context) error           { return p.verifyErr }

func (p *stubProvider) Refresh(context.Context) error {
	p.mu.Lock()
	p.refreshes++
	p.mu.Unlock()
	return p.refreshErr
}

func (p *stubProvider) LogOut(context.Context) {
	p.mu.Lock()
	p.logouts++
	p.mu.Unlock()
	p.loggedIn = false
}

func (p *stubProvider) logoutCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logouts
}

func (p *stubProvider) refreshCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshes
}

// countMessages subscribes a counter for one message type. Publication
// is synchronous, so reads after Publish need no synchronization beyond
// the bus's own.
func countMessages(bus *gateway.Bus, msgType string) *int {
	count := new(int)
	bus.Subscribe(func(msg gateway.Message) {
		if msg.Type == msgType {
			*count++
		}
	})
	return count
}
