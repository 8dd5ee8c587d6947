package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider variant names recognized in site configuration. The
// configuration string may carry a "."-separated sub-variant, e.g.
// "icat.anon" selects the icat provider with the anonymous mnemonic.
const (
	ProviderToken  = "token"
	ProviderLDAP   = "ldap"
	ProviderGithub = "github"
	ProviderICAT   = "icat"
	ProviderAnon   = "anon"
)

// ProviderConfig carries the dependencies every variant needs. Sessions
// and Bus are required for all but the trivial variants.
type ProviderConfig struct {
	AuthURL    string
	AutoLogin  bool
	SubVariant string

	// GithubClientID feeds the OAuth redirect URL for the github variant.
	GithubClientID string

	HTTPClient *http.Client
	Sessions   *SessionManager
	Bus        *Bus
	Logger     Logger
}

func (c ProviderConfig) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c ProviderConfig) logger() Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return defLogger{}
}

// NewProvider maps a configuration string to a constructed variant.
// An unrecognized name is the one fatal configuration fault: there is no
// safe default provider, so silent continuation would be wrong.
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	switch name {
	case ProviderToken:
		return NewTokenProvider(cfg), nil
	case ProviderLDAP:
		return NewLDAPProvider(cfg), nil
	case ProviderGithub:
		return NewGithubProvider(cfg), nil
	case ProviderICAT:
		return NewICATProvider(cfg), nil
	case ProviderAnon:
		return NewAnonProvider(), nil
	default:
		return nil, ErrUnknownProvider.Clone().WithMetadata(map[string]any{
			"provider": name,
		})
	}
}

// apiClient is the thin JSON transport the backend-talking variants share.
type apiClient struct {
	baseURL string
	client  *http.Client
	logger  Logger
}

func (a *apiClient) postJSON(ctx context.Context, path string, body any, out any) (int, error) {
	return a.doJSON(ctx, http.MethodPost, path, body, out)
}

func (a *apiClient) putJSON(ctx context.Context, path string, body any, out any) (int, error) {
	return a.doJSON(ctx, http.MethodPut, path, body, out)
}

func (a *apiClient) getJSON(ctx context.Context, url string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	return a.send(req, out)
}

func (a *apiClient) doJSON(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	return a.send(req, out)
}

func (a *apiClient) send(req *http.Request, out any) (int, error) {
	res, err := a.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, err
	}

	if out != nil && res.StatusCode >= 200 && res.StatusCode < 300 && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return res.StatusCode, fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
		}
	}

	return res.StatusCode, nil
}
