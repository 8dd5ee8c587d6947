package gateway

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
)

// FiberHandler is the fiber-native rendition of Protect for apps that
// mount the shell directly on a fiber application instead of go-router.
func (m *GateMiddleware) FiberHandler(adminOnly bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
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
				c.SetUserContext(WithUser(c.UserContext(), user))
			}
			return c.Next()

		case DecisionRedirectLogin:
			c.Cookie(&fiber.Cookie{
				Name:     ReferrerCookie,
				Value:    verdict.Referrer,
				Expires:  time.Now().Add(time.Minute * 5),
				HTTPOnly: true,
				Secure:   true,
				SameSite: "Lax",
			})
			return c.Redirect("/login?referrer="+url.QueryEscape(verdict.Referrer), fiber.StatusFound)

		default:
			return c.SendStatus(fiber.StatusNotFound)
		}
	}
}
