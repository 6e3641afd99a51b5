package nhslogin

import (
	"crypto/tls"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jeremyhahn/go-nhslogin/pkg/kvstore"
)

// envPrefix is prepended to every environment variable read by LoadAuthConfigurationFromEnv.
const envPrefix = "NHSLOGIN_"

// AuthConfiguration describes the authorize request sent to the identity provider.
type AuthConfiguration struct {
	// Issuer is the identity provider base URL; /authorize is appended to it.
	Issuer string `env:"ISSUER" envDefault:"https://auth.sandpit.signin.nhs.uk"`

	// ClientID is the registered client identifier. Empty means not ready.
	ClientID string `env:"CLIENT_ID" envDefault:"du-nhs-login"`

	// RedirectURL receives the authorization code and hands it back to the app.
	RedirectURL string `env:"REDIRECT_URL" envDefault:"https://du-nhs-login.herokuapp.com/code"`

	// Scopes are requested in order, joined with %20.
	Scopes []string `env:"SCOPES" envDefault:"openid,profile" envSeparator:","`

	// VTR is the vector of trust requested from the provider. It is carried
	// with the configuration but not sent on the authorize URL.
	VTR string `env:"VTR" envDefault:"[\"P0.Cp\"]"`
}

// DefaultAuthConfiguration returns the sandpit configuration.
func DefaultAuthConfiguration() AuthConfiguration {
	return AuthConfiguration{
		Issuer:      "https://auth.sandpit.signin.nhs.uk",
		ClientID:    "du-nhs-login",
		RedirectURL: "https://du-nhs-login.herokuapp.com/code",
		Scopes:      []string{ScopeOpenID, "profile"},
		VTR:         `["P0.Cp"]`,
	}
}

// LoadAuthConfigurationFromEnv reads NHSLOGIN_* variables, falling back to
// the sandpit defaults for anything unset.
func LoadAuthConfigurationFromEnv() (AuthConfiguration, error) {
	var cfg AuthConfiguration
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return AuthConfiguration{}, fmt.Errorf("%w: parse env: %v", ErrInvalidConfiguration, err)
	}
	return cfg, nil
}

// Ready reports whether an authorize attempt is permitted.
func (a AuthConfiguration) Ready() bool {
	return strings.TrimSpace(a.ClientID) != ""
}

// Clone returns a deep copy.
func (a AuthConfiguration) Clone() AuthConfiguration {
	a.Scopes = slices.Clone(a.Scopes)
	return a
}

func (a AuthConfiguration) isZero() bool {
	return a.Issuer == "" && a.ClientID == "" && a.RedirectURL == "" && len(a.Scopes) == 0 && a.VTR == ""
}

// VerificationConfig controls ID token signature verification.
type VerificationConfig struct {
	// Enabled switches from unverified payload decoding to JWKS verification.
	Enabled bool

	// JWKSURL overrides the jwks_uri found through OIDC discovery.
	JWKSURL string

	// Audience is the expected aud claim. Defaults to the active client id.
	Audience string

	// ClockSkew allows for clock drift between device and provider.
	ClockSkew time.Duration

	// DiscoveryCacheTTL is how long a discovery document is reused.
	DiscoveryCacheTTL time.Duration
}

// Config contains the complete coordinator configuration.
type Config struct {
	// Auth is the initial authorize configuration. A zero value selects
	// DefaultAuthConfiguration.
	Auth AuthConfiguration

	// Store persists the selected environment. Required.
	Store kvstore.Store

	// Launcher opens authorize URLs on the platform. Required.
	Launcher Launcher

	// Biometrics supplies FIDO UAF assertions for FingerprintLogin (optional).
	Biometrics AssertionProvider

	// Messaging is instantiated after an exchange that enables messaging (optional).
	Messaging MessagingFactory

	// HTTPClient overrides the client used for the relay exchange.
	HTTPClient HTTPClient

	// Decoder overrides ID token decoding. When nil, Verification decides.
	Decoder IDTokenDecoder

	// Verification contains ID token verification settings.
	Verification VerificationConfig

	// Timeout is the HTTP client timeout for relay and discovery requests.
	Timeout time.Duration

	// TLSConfig allows custom TLS configuration.
	TLSConfig *tls.Config

	// InsecureSkipVerify disables TLS certificate verification (not recommended).
	InsecureSkipVerify bool

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// Registerer receives the coordinator metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfiguration)
	}

	if c.Store == nil {
		return fmt.Errorf("%w: store is required", ErrInvalidConfiguration)
	}

	if c.Launcher == nil {
		return fmt.Errorf("%w: launcher is required", ErrInvalidConfiguration)
	}

	if c.Auth.isZero() {
		c.Auth = DefaultAuthConfiguration()
	}

	if strings.TrimSpace(c.Auth.RedirectURL) == "" {
		return fmt.Errorf("%w: redirect_url is required", ErrInvalidConfiguration)
	}

	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}

	if c.Verification.ClockSkew <= 0 {
		c.Verification.ClockSkew = 60 * time.Second
	}

	if c.Verification.DiscoveryCacheTTL <= 0 {
		c.Verification.DiscoveryCacheTTL = 24 * time.Hour
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	return nil
}
