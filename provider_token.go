package gateway

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// TokenProvider exchanges username/password for a bearer token against a
// dedicated identity backend and keeps the session alive through its
// verify and refresh endpoints. It is the base for the ldap and icat
// variants.
type TokenProvider struct {
	api      *apiClient
	sessions *SessionManager
	bus      *Bus
	logger   Logger
}

var _ Provider = (*TokenProvider)(nil)

type tokenRequest struct {
	Token string `json:"token"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewTokenProvider builds the token-backend provider.
func NewTokenProvider(cfg ProviderConfig) *TokenProvider {
	logger := cfg.logger()
	return &TokenProvider{
		api: &apiClient{
			baseURL: cfg.AuthURL,
			client:  cfg.httpClient(),
			logger:  logger,
		},
		sessions: cfg.Sessions,
		bus:      cfg.Bus,
		logger:   logger,
	}
}

// Name implements Provider.
func (p *TokenProvider) Name() string { return ProviderToken }

// RedirectURL implements Provider. The token flow never redirects.
func (p *TokenProvider) RedirectURL() string { return "" }

// IsLoggedIn implements Provider.
func (p *TokenProvider) IsLoggedIn() bool {
	return p.sessions.LoggedIn()
}

// IsAdmin implements Provider. The backend embeds an explicit flag.
func (p *TokenProvider) IsAdmin() bool {
	user := p.sessions.User()
	return user != nil && user.IsAdmin
}

// LogIn implements Provider. On failure the session is left exactly as
// it was: no partial mutation.
func (p *TokenProvider) LogIn(ctx context.Context, identifier, secret string) error {
	out := tokenResponse{}
	status, err := p.api.postJSON(ctx, "/login", credentialsRequest{
		Username: identifier,
		Password: secret,
	}, &out)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "login request failed")
	}
	if status != http.StatusOK || out.Token == "" {
		return ErrAuthenticationFailed
	}

	return p.establish(ctx, out.Token)
}

// VerifyLogIn implements Provider. The backend confirms the current
// token without changing it; on rejection a refresh is attempted before
// giving up.
func (p *TokenProvider) VerifyLogIn(ctx context.Context) error {
	token := p.sessions.Token()
	if token == "" {
		return ErrAuthenticationFailed
	}

	status, err := p.api.postJSON(ctx, "/verify", tokenRequest{Token: token}, nil)
	if err == nil && status == http.StatusOK {
		return nil
	}
	if err != nil {
		p.logger.Debug("verify transport error, attempting refresh: %s", err)
	}

	return p.Refresh(ctx)
}

// Refresh implements Provider. The long-lived refresh credential rides a
// cookie the backend set at login; a failed exchange fully logs out.
func (p *TokenProvider) Refresh(ctx context.Context) error {
	token := p.sessions.Token()
	if token == "" {
		return ErrAuthenticationFailed
	}

	out := tokenResponse{}
	status, err := p.api.postJSON(ctx, "/refresh", tokenRequest{Token: token}, &out)
	if err != nil || status != http.StatusOK || out.Token == "" {
		p.LogOut(ctx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryAuth, "token refresh failed").
				WithTextCode(textCodeAuthFailure)
		}
		return ErrAuthenticationFailed
	}

	return p.sessions.ReplaceToken(ctx, out.Token)
}

// LogOut implements Provider. Idempotent; always broadcasts the remote
// sign-out message so mounted plugins invalidate their own session view.
func (p *TokenProvider) LogOut(ctx context.Context) {
	p.sessions.Clear(ctx)

	if p.bus != nil {
		if err := p.bus.Publish(Message{Type: SignOutType, Payload: map[string]any{}}); err != nil {
			p.logger.Error("sign-out broadcast failed: %s", err)
		}
	}
}

// FetchMaintenance reads the backend's live maintenance document.
func (p *TokenProvider) FetchMaintenance(ctx context.Context) (*MaintenanceState, error) {
	return p.fetchMaintenance(ctx, "/maintenance")
}

// FetchScheduledMaintenance reads the scheduled maintenance document.
func (p *TokenProvider) FetchScheduledMaintenance(ctx context.Context) (*MaintenanceState, error) {
	return p.fetchMaintenance(ctx, "/scheduled_maintenance")
}

// SetMaintenance updates the live maintenance document. The backend
// authorizes the call with the session token.
func (p *TokenProvider) SetMaintenance(ctx context.Context, state MaintenanceState) error {
	return p.setMaintenance(ctx, "/maintenance", state)
}

// SetScheduledMaintenance updates the scheduled maintenance document.
func (p *TokenProvider) SetScheduledMaintenance(ctx context.Context, state MaintenanceState) error {
	return p.setMaintenance(ctx, "/scheduled_maintenance", state)
}

func (p *TokenProvider) fetchMaintenance(ctx context.Context, path string) (*MaintenanceState, error) {
	state := &MaintenanceState{}
	status, err := p.api.getJSON(ctx, p.api.baseURL+path, state)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "maintenance fetch failed")
	}
	if status != http.StatusOK {
		return nil, goerrors.New("maintenance fetch rejected", goerrors.CategoryOperation)
	}
	return state, nil
}

type maintenanceUpdate struct {
	Token string           `json:"token"`
	State MaintenanceState `json:"maintenance"`
}

func (p *TokenProvider) setMaintenance(ctx context.Context, path string, state MaintenanceState) error {
	status, err := p.api.putJSON(ctx, path, maintenanceUpdate{
		Token: p.sessions.Token(),
		State: state,
	}, nil)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "maintenance update failed")
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return ErrAuthenticationFailed
	}
	if status != http.StatusOK {
		return goerrors.New("maintenance update rejected", goerrors.CategoryOperation)
	}
	return nil
}

// establish derives the user from a fresh token and persists both. A
// token whose payload carries no username is unusable and rejected.
func (p *TokenProvider) establish(ctx context.Context, token string) error {
	claims, err := ParseTokenClaims(token)
	if err != nil {
		return err
	}

	user := &User{
		Username: claims.Username,
		IsAdmin:  claims.UserIsAdmin,
	}

	if err := p.sessions.Establish(ctx, token, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "persisting session failed")
	}
	return nil
}

// claims parses the current token's payload, nil when logged out or the
// token is unusable.
func (p *TokenProvider) claims() *TokenClaims {
	token := p.sessions.Token()
	if token == "" {
		return nil
	}
	parsed, err := ParseTokenClaims(token)
	if err != nil {
		return nil
	}
	return parsed
}
