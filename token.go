package gateway

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenClaims is the payload of the three-segment bearer token. Only the
// fields the shell needs are mapped; providers ignore the rest. Signature
// validity is enforced by the remote identity service, the shell only
// decodes the payload for display and routing decisions.
type TokenClaims struct {
	Username         string   `json:"username"`
	UserIsAdmin      bool     `json:"userIsAdmin,omitempty"`
	SessionID        string   `json:"sessionId,omitempty"`
	AuthorisedRoutes []string `json:"authorised_routes,omitempty"`
	ExpiresAt        int64    `json:"exp,omitempty"`
}

// HasAuthorisedRoute checks the claim for a privileged "METHOD /path" pair.
func (c *TokenClaims) HasAuthorisedRoute(method, route string) bool {
	needle := strings.ToUpper(method) + " " + route
	for _, r := range c.AuthorisedRoutes {
		if strings.EqualFold(strings.TrimSpace(r), needle) {
			return true
		}
	}
	return false
}

var segmentParser = jwt.NewParser()

// DecodeTokenPayload extracts the middle segment of a compact token,
// reverses the URL-safe base64 substitutions and returns the decoded
// UTF-8 JSON text. Callers parse the text for type safety.
func DecodeTokenPayload(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrTokenMalformed
	}

	raw, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return "", goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	return string(raw), nil
}

// ParseTokenClaims decodes the payload segment and unmarshals it. A
// payload without a username is unusable and rejected so callers force a
// logout instead of carrying a half-valid session.
func ParseTokenClaims(token string) (*TokenClaims, error) {
	payload, err := DecodeTokenPayload(token)
	if err != nil {
		return nil, err
	}

	claims := &TokenClaims{}
	if err := json.Unmarshal([]byte(payload), claims); err != nil {
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims.Username == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
