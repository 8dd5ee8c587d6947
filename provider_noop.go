package gateway

import "context"

// AnonProvider is the no-op variant used when no authentication is
// configured: always logged in, never admin, every operation trivially
// succeeds.
type AnonProvider struct{}

var _ Provider = AnonProvider{}

// NewAnonProvider returns the no-op provider.
func NewAnonProvider() AnonProvider { return AnonProvider{} }

// Name implements Provider.
func (AnonProvider) Name() string { return ProviderAnon }

// RedirectURL implements Provider.
func (AnonProvider) RedirectURL() string { return "" }

// IsLoggedIn implements Provider.
func (AnonProvider) IsLoggedIn() bool { return true }

// IsAdmin implements Provider.
func (AnonProvider) IsAdmin() bool { return false }

// LogIn implements Provider.
func (AnonProvider) LogIn(context.Context, string, string) error { return nil }

// VerifyLogIn implements Provider.
func (AnonProvider) VerifyLogIn(context.Context) error { return nil }

// Refresh implements Provider.
func (AnonProvider) Refresh(context.Context) error { return nil }

// LogOut implements Provider. There is no session to clear and nothing
// to broadcast.
func (AnonProvider) LogOut(context.Context) {}

// PendingProvider is the safe placeholder held in host state until the
// real provider has been selected from configuration. Always logged
// out; every operation rejects with a well-defined error.
type PendingProvider struct{}

var _ Provider = PendingProvider{}

// NewPendingProvider returns the placeholder provider.
func NewPendingProvider() PendingProvider { return PendingProvider{} }

// Name implements Provider.
func (PendingProvider) Name() string { return "pending" }

// RedirectURL implements Provider.
func (PendingProvider) RedirectURL() string { return "" }

// IsLoggedIn implements Provider.
func (PendingProvider) IsLoggedIn() bool { return false }

// IsAdmin implements Provider.
func (PendingProvider) IsAdmin() bool { return false }

// LogIn implements Provider.
func (PendingProvider) LogIn(context.Context, string, string) error {
	return ErrStillInitializing
}

// VerifyLogIn implements Provider.
func (PendingProvider) VerifyLogIn(context.Context) error {
	return ErrStillInitializing
}

// Refresh implements Provider.
func (PendingProvider) Refresh(context.Context) error {
	return ErrStillInitializing
}

// LogOut implements Provider.
func (PendingProvider) LogOut(context.Context) {}
