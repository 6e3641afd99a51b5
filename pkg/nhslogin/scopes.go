package nhslogin

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// ScopeOpenID is the mandatory OpenID Connect scope.
const ScopeOpenID = "openid"

// scopeCatalog lists every scope NHS login accepts, in display order.
var scopeCatalog = []string{
	ScopeOpenID,
	"profile",
	"profile_extended",
	"email",
	"phone",
	"gp_registration_details",
	"gp_integration_credentials",
	"client_metadata",
}

// KnownScopes returns the scope catalog.
func KnownScopes() []string {
	return slices.Clone(scopeCatalog)
}

// ScopeOption describes one catalog scope for a selection UI.
type ScopeOption struct {
	Name string `json:"name"`

	// Enabled is true when the scope is in the configured set.
	Enabled bool `json:"enabled"`

	// Disabled is a UI hint that the scope cannot be deselected.
	Disabled bool `json:"disabled"`
}

func scopeOptions(configured []string) []ScopeOption {
	options := make([]ScopeOption, 0, len(scopeCatalog))
	for _, name := range scopeCatalog {
		options = append(options, ScopeOption{
			Name:     name,
			Enabled:  slices.Contains(configured, name),
			Disabled: name == ScopeOpenID,
		})
	}
	return options
}

// ValidateScopes checks scopes against the catalog. SetScopes does not call
// it; hosts that build scope lists from user input should.
func ValidateScopes(scopes []string) error {
	for _, s := range scopes {
		if !slices.Contains(scopeCatalog, s) {
			return fmt.Errorf("%w: %s", ErrUnknownScope, s)
		}
	}
	if !slices.Contains(scopes, ScopeOpenID) {
		return ErrMissingOpenIDScope
	}
	return nil
}

// Scopes returns the catalog annotated with the configured selection.
func (c *Coordinator) Scopes() []ScopeOption {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return scopeOptions(c.auth.Scopes)
}

// SetScopes replaces the configured scope set verbatim. The last call wins.
func (c *Coordinator) SetScopes(scopes []string) {
	c.logger.Info("scopes updated", zap.Strings("scopes", scopes))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth.Scopes = slices.Clone(scopes)
}
