package gateway

import "net/http"

// The ldap backend does not issue an explicit admin flag. Instead the
// token carries an allow-list of server routes the user may call; holding
// the maintenance-update route is what makes an operator.
const (
	privilegedRouteMethod = http.MethodPut
	privilegedRoutePath   = "/maintenance"
)

// LDAPProvider is the claims-elevated variant of the token provider:
// identical session lifecycle, admin capability computed from the
// authorised_routes claim.
type LDAPProvider struct {
	*TokenProvider
}

var _ Provider = (*LDAPProvider)(nil)

// NewLDAPProvider builds the ldap variant.
func NewLDAPProvider(cfg ProviderConfig) *LDAPProvider {
	return &LDAPProvider{TokenProvider: NewTokenProvider(cfg)}
}

// Name implements Provider.
func (p *LDAPProvider) Name() string { return ProviderLDAP }

// IsAdmin implements Provider using the route allow-list claim.
func (p *LDAPProvider) IsAdmin() bool {
	claims := p.claims()
	if claims == nil {
		return false
	}
	return claims.HasAuthorisedRoute(privilegedRouteMethod, privilegedRoutePath)
}
