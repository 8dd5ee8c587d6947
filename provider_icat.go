package gateway

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// AnonMnemonic is the reserved authenticator for credential-less logins.
const AnonMnemonic = "anon"

// DefaultMnemonic is the authenticator used when the user picked none.
const DefaultMnemonic = "simple"

// ICATProvider logs in against a facility catalog whose login payload
// selects one of several authenticators by mnemonic. When configuration
// permits, it can auto-establish an anonymous session, which an explicit
// login later replaces transparently.
type ICATProvider struct {
	*TokenProvider

	mnemonic  string
	autoLogin bool
}

var (
	_ Provider          = (*ICATProvider)(nil)
	_ AutoLoginProvider = (*ICATProvider)(nil)
)

type mnemonicCredentials struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

type mnemonicRequest struct {
	Mnemonic    string              `json:"mnemonic"`
	Credentials mnemonicCredentials `json:"credentials"`
}

// NewICATProvider builds the icat variant. The configuration sub-variant
// (e.g. "icat.anon") preselects the mnemonic and enables auto-login.
func NewICATProvider(cfg ProviderConfig) *ICATProvider {
	p := &ICATProvider{
		TokenProvider: NewTokenProvider(cfg),
		mnemonic:      DefaultMnemonic,
		autoLogin:     cfg.AutoLogin,
	}

	if cfg.SubVariant != "" {
		p.mnemonic = cfg.SubVariant
	}
	if cfg.SubVariant == AnonMnemonic {
		p.autoLogin = true
	}

	return p
}

// Name implements Provider.
func (p *ICATProvider) Name() string { return ProviderICAT }

// SetMnemonic selects the authenticator for the next explicit login.
func (p *ICATProvider) SetMnemonic(mnemonic string) {
	if mnemonic != "" {
		p.mnemonic = mnemonic
	}
}

// Mnemonic returns the currently selected authenticator.
func (p *ICATProvider) Mnemonic() string { return p.mnemonic }

// AutoLoginEnabled implements AutoLoginProvider.
func (p *ICATProvider) AutoLoginEnabled() bool { return p.autoLogin }

// LogIn implements Provider. An explicit login while an auto-login
// session is active tears the stale session down first, producing
// exactly one remote sign-out broadcast before the fresh session.
func (p *ICATProvider) LogIn(ctx context.Context, identifier, secret string) error {
	token, err := p.exchange(ctx, p.mnemonic, identifier, secret)
	if err != nil {
		return err
	}

	if p.sessions.AutoLogin(ctx) && p.sessions.LoggedIn() {
		p.TokenProvider.LogOut(ctx)
	}

	if err := p.establish(ctx, token); err != nil {
		return err
	}

	p.sessions.SetAutoLogin(ctx, false)
	return nil
}

// AutoLogin implements AutoLoginProvider. Calling it while an auto-login
// session is already active is a no-op success, so repeated attempts
// never stack sessions or recurse.
func (p *ICATProvider) AutoLogin(ctx context.Context) error {
	if !p.autoLogin {
		return goerrors.New("auto-login not configured", goerrors.CategoryOperation)
	}

	if p.sessions.AutoLogin(ctx) && p.sessions.LoggedIn() {
		return nil
	}

	token, err := p.exchange(ctx, AnonMnemonic, "", "")
	if err != nil {
		p.sessions.SetAutoLogin(ctx, false)
		return err
	}

	if err := p.establish(ctx, token); err != nil {
		p.sessions.SetAutoLogin(ctx, false)
		return err
	}

	p.sessions.SetAutoLogin(ctx, true)
	return nil
}

// exchange performs the backend login without touching the session, so
// failed attempts leave whatever session existed untouched.
func (p *ICATProvider) exchange(ctx context.Context, mnemonic, username, password string) (string, error) {
	out := tokenResponse{}
	status, err := p.api.postJSON(ctx, "/login", mnemonicRequest{
		Mnemonic: mnemonic,
		Credentials: mnemonicCredentials{
			Username: username,
			Password: password,
		},
	}, &out)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "login request failed")
	}
	if status != http.StatusOK || out.Token == "" {
		return "", ErrAuthenticationFailed
	}
	return out.Token, nil
}
