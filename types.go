package gateway

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Store is durable key/value persistence for session state and display
// preferences. Implementations must survive process restarts; the memory
// implementation exists for tests and ephemeral shells.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Provider is the capability surface every auth backend implements.
// Exactly one instance is live at a time, held in host state.
type Provider interface {
	Name() string
	// RedirectURL is non-empty only for redirect-based flows.
	RedirectURL() string
	// IsLoggedIn is true iff a token is present AND a user was derived from it.
	IsLoggedIn() bool
	IsAdmin() bool
	LogIn(ctx context.Context, identifier, secret string) error
	// VerifyLogIn confirms the current token without changing it. On
	// rejection providers that support refresh attempt it as a fallback.
	VerifyLogIn(ctx context.Context) error
	Refresh(ctx context.Context) error
	// LogOut clears token and user, is idempotent, and broadcasts a
	// remote sign-out message so mounted plugins drop their cached view.
	LogOut(ctx context.Context)
}

// AutoLoginProvider is implemented by providers that can establish a
// credential-less session when the backend and configuration permit it.
type AutoLoginProvider interface {
	Provider
	AutoLogin(ctx context.Context) error
	// AutoLoginEnabled reports whether the current configuration allows
	// a credential-less session at all.
	AutoLoginEnabled() bool
}

// Dispatcher receives host actions from the orchestrator, the bus
// listener and the route gate.
type Dispatcher interface {
	Dispatch(action Action)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(action Action)

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(action Action) {
	if f == nil {
		return
	}
	f(action)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] GATEWAY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] GATEWAY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] GATEWAY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
