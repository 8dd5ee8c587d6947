package gateway

import (
	"net/http"
	"net/url"
	"time"

	"github.com/goliatone/go-router"
)

// ReferrerCookie carries the rejected path so the login flow can return
// the user where they were headed.
const ReferrerCookie = "gateway_referrer"

// GateMiddleware adapts the route gate to HTTP routing.
type GateMiddleware struct {
	gate     *Gate
	state    *HostState
	sessions *SessionManager
	provider func() Provider
	Logger   Logger
}

// NewGateMiddleware wires the gate into a router middleware.
func NewGateMiddleware(gate *Gate, state *HostState, sessions *SessionManager, provider func() Provider) *GateMiddleware {
	return &GateMiddleware{
		gate:     gate,
		state:    state,
		sessions: sessions,
		provider: provider,
		Logger:   defLogger{},
	}
}

// Protect guards a route. adminOnly additionally requires the admin
// capability of the live provider.
func (m *GateMiddleware) Protect(adminOnly bool) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			provider := m.provider()

			req := GateRequest{
				Loading:     m.state.SiteLoading() || m.state.AuthLoading(),
				LoggedIn:    provider.IsLoggedIn(),
				AdminOnly:   adminOnly,
				Admin:       provider.IsAdmin(),
				HomepageURL: m.state.HomepageURL(),
				Path:        c.Path(),
			}

			m.gate.Observe(req.Loading, req.LoggedIn)

			verdict := EvaluateRoute(req)
			switch verdict.Decision {
			case DecisionRender:
				if user := m.sessions.User(); user != nil {
					c.SetContext(WithUser(c.Context(), user))
				}
				return next(c)

			case DecisionRedirectLogin:
				m.SetReferrer(c, verdict.Referrer)
				target := "/login?referrer=" + url.QueryEscape(verdict.Referrer)
				return c.Redirect(target, http.StatusFound)

			default:
				return c.Status(http.StatusNotFound).Render("errors/404", router.ViewContext{
					"path": req.Path,
				})
			}
		}
	}
}

// SetReferrer stores the rejected path in a short-lived cookie.
func (m *GateMiddleware) SetReferrer(c router.Context, path string) {
	m.Logger.Info("setting referrer cookie, path %s", path)

	c.Cookie(&router.Cookie{
		Name:     ReferrerCookie,
		Value:    path,
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// GetReferrer pops the stored referrer, falling back to def.
func (m *GateMiddleware) GetReferrer(c router.Context, def ...string) string {
	r := c.Cookies(ReferrerCookie)
	if r == "" {
		if len(def) > 0 {
			return def[0]
		}
		return "/"
	}

	c.Cookie(&router.Cookie{
		Name:     ReferrerCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
	return r
}
