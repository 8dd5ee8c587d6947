package gateway

import (
	"context"
	"net/http"
	"net/url"

	goerrors "github.com/goliatone/go-errors"
)

const (
	defaultGithubAuthorizeURL = "https://github.com/login/oauth/authorize"
	defaultGithubAPIURL       = "https://api.github.com"
)

// GithubProvider is the identity-federation variant. The user arrives
// back from GitHub with an authorization code in the query string; LogIn
// receives that code instead of a password. There is no refresh
// credential in this flow.
type GithubProvider struct {
	api      *apiClient
	sessions *SessionManager
	bus      *Bus
	logger   Logger

	authorizeURL string
	apiURL       string
	clientID     string
}

var _ Provider = (*GithubProvider)(nil)

type codeRequest struct {
	Code string `json:"code"`
}

type githubUserResponse struct {
	AvatarURL string `json:"avatar_url"`
}

// NewGithubProvider builds the github variant.
func NewGithubProvider(cfg ProviderConfig) *GithubProvider {
	logger := cfg.logger()
	return &GithubProvider{
		api: &apiClient{
			baseURL: cfg.AuthURL,
			client:  cfg.httpClient(),
			logger:  logger,
		},
		sessions:     cfg.Sessions,
		bus:          cfg.Bus,
		logger:       logger,
		authorizeURL: defaultGithubAuthorizeURL,
		apiURL:       defaultGithubAPIURL,
		clientID:     cfg.GithubClientID,
	}
}

// Name implements Provider.
func (p *GithubProvider) Name() string { return ProviderGithub }

// WithAuthorizeURL overrides the authorization endpoint, e.g. for a
// GitHub Enterprise host.
func (p *GithubProvider) WithAuthorizeURL(url string) *GithubProvider {
	if url != "" {
		p.authorizeURL = url
	}
	return p
}

// WithAPIURL overrides the user API endpoint the avatar lookup uses.
func (p *GithubProvider) WithAPIURL(url string) *GithubProvider {
	if url != "" {
		p.apiURL = url
	}
	return p
}

// RedirectURL implements Provider: where the login view sends the user
// to start the authorization dance.
func (p *GithubProvider) RedirectURL() string {
	params := url.Values{"client_id": {p.clientID}}
	return p.authorizeURL + "?" + params.Encode()
}

// IsLoggedIn implements Provider.
func (p *GithubProvider) IsLoggedIn() bool {
	return p.sessions.LoggedIn()
}

// IsAdmin implements Provider. Federation identities are never admins.
func (p *GithubProvider) IsAdmin() bool { return false }

// LogIn implements Provider. The identifier is the authorization code
// extracted from the page query string; the secret is unused.
func (p *GithubProvider) LogIn(ctx context.Context, identifier, _ string) error {
	out := tokenResponse{}
	status, err := p.api.postJSON(ctx, "/login", codeRequest{Code: identifier}, &out)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "code exchange failed")
	}
	if status != http.StatusOK || out.Token == "" {
		return ErrAuthenticationFailed
	}

	claims, err := ParseTokenClaims(out.Token)
	if err != nil {
		return err
	}

	user := &User{Username: claims.Username}
	user.AvatarURL = p.fetchAvatar(ctx, claims.Username)

	if err := p.sessions.Establish(ctx, out.Token, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "persisting session failed")
	}
	return nil
}

// VerifyLogIn implements Provider. No refresh fallback exists in this
// flow, so a rejection is final.
func (p *GithubProvider) VerifyLogIn(ctx context.Context) error {
	token := p.sessions.Token()
	if token == "" {
		return ErrAuthenticationFailed
	}

	status, err := p.api.postJSON(ctx, "/verify", tokenRequest{Token: token}, nil)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "verify request failed")
	}
	if status != http.StatusOK {
		return ErrAuthenticationFailed
	}
	return nil
}

// Refresh implements Provider with a descriptive rejection.
func (p *GithubProvider) Refresh(context.Context) error {
	return ErrRefreshUnsupported
}

// LogOut implements Provider.
func (p *GithubProvider) LogOut(ctx context.Context) {
	p.sessions.Clear(ctx)

	if p.bus != nil {
		if err := p.bus.Publish(Message{Type: SignOutType, Payload: map[string]any{}}); err != nil {
			p.logger.Error("sign-out broadcast failed: %s", err)
		}
	}
}

// fetchAvatar enriches the user with their GitHub avatar. Best effort:
// a missing avatar never fails a login.
func (p *GithubProvider) fetchAvatar(ctx context.Context, username string) string {
	out := githubUserResponse{}
	status, err := p.api.getJSON(ctx, p.apiURL+"/users/"+url.PathEscape(username), &out)
	if err != nil || status != http.StatusOK {
		p.logger.Debug("avatar lookup for %q failed (status %d): %v", username, status, err)
		return ""
	}
	return out.AvatarURL
}
