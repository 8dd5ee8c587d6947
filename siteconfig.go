package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// SiteConfig is the remote configuration document fetched once at boot.
// Unknown keys are ignored; absent optional keys fall back to defaults.
type SiteConfig struct {
	AuthProvider  string          `json:"auth-provider"`
	AuthURL       string          `json:"authUrl"`
	AutoLogin     bool            `json:"autoLogin"`
	Plugins       []PluginDef     `json:"plugins"`
	Features      map[string]bool `json:"features"`
	UIStringsPath string          `json:"ui-strings"`
	HelpTourSteps []HelpTourStep  `json:"help-tour-steps"`
	HomepageURL   string          `json:"homepageUrl"`
	StartURL      string          `json:"startUrl"`
	GATrackingID  string          `json:"ga-tracking-id"`
}

// ProviderName returns the base provider variant, dropping any
// "."-separated sub-variant (e.g. "icat.anon" -> "icat").
func (c *SiteConfig) ProviderName() string {
	name, _, _ := strings.Cut(c.AuthProvider, ".")
	return name
}

// ProviderSubVariant returns the sub-variant, empty when there is none.
func (c *SiteConfig) ProviderSubVariant() string {
	_, sub, _ := strings.Cut(c.AuthProvider, ".")
	return sub
}

// EnabledPlugins filters the declared plugin list to loadable entries.
func (c *SiteConfig) EnabledPlugins() []PluginDef {
	out := make([]PluginDef, 0, len(c.Plugins))
	for _, p := range c.Plugins {
		if p.Enable {
			out = append(out, p)
		}
	}
	return out
}

// normalize applies the documented key defaults. A ui-strings path may
// omit the leading slash; it is added here so consumers never care.
func (c *SiteConfig) normalize() {
	if c.UIStringsPath != "" && !strings.HasPrefix(c.UIStringsPath, "/") {
		c.UIStringsPath = "/" + c.UIStringsPath
	}
}

// FetchSiteConfig downloads and decodes the configuration document. A
// transport failure or a payload that is not a well-formed object is an
// error the orchestrator logs and survives; it is never fatal.
func FetchSiteConfig(ctx context.Context, client *http.Client, url string, logger Logger) (*SiteConfig, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = defLogger{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "building settings request")
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "fetching settings")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, goerrors.New(
			fmt.Sprintf("settings fetch returned status %d", res.StatusCode),
			goerrors.CategoryOperation,
		)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "reading settings body")
	}

	cfg := &SiteConfig{}
	if err := json.Unmarshal(body, cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "settings payload is not a well-formed object")
	}

	cfg.normalize()

	for _, plugin := range cfg.Plugins {
		if err := plugin.Validate(); err != nil {
			logger.Error("invalid plugin entry %q: %s", plugin.Name, err)
		}
	}

	logger.Debug("site configuration: %s", print.MaybePrettyJSON(cfg))
	return cfg, nil
}
