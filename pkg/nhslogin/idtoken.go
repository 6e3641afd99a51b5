package nhslogin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// IDTokenDecoder turns the relay's raw ID token into typed claims. auth is
// the configuration the login was started with.
type IDTokenDecoder interface {
	Decode(ctx context.Context, rawIDToken string, auth AuthConfiguration) (*IDTokenClaims, error)
}

// UnverifiedDecoder decodes the ID token payload without checking its
// signature, issuer or audience. The claims are only as trustworthy as the
// relay that returned them; use JWKSVerifier when that is not enough.
type UnverifiedDecoder struct{}

// Decode implements IDTokenDecoder.
func (UnverifiedDecoder) Decode(_ context.Context, rawIDToken string, _ AuthConfiguration) (*IDTokenClaims, error) {
	if strings.TrimSpace(rawIDToken) == "" {
		return nil, ErrMissingIDToken
	}

	token, _, err := jwt.NewParser().ParseUnverified(rawIDToken, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	return parseIDTokenClaims(token)
}

var signingMethods = []string{
	"RS256", "RS384", "RS512",
	"ES256", "ES384", "ES512",
	"PS256", "PS384", "PS512",
}

// JWKSVerifier verifies the ID token signature against the issuer's
// published keys, then checks issuer, audience and time claims.
type JWKSVerifier struct {
	config    VerificationConfig
	discovery *discoveryClient

	// ctx scopes the background JWKS refresh goroutines.
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	sets map[string]keyfunc.Keyfunc
}

// NewJWKSVerifier creates a verifier. httpClient is used for discovery.
func NewJWKSVerifier(cfg VerificationConfig, httpClient *http.Client) *JWKSVerifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JWKSVerifier{
		config:    cfg,
		discovery: newDiscoveryClient(httpClient, cfg.DiscoveryCacheTTL),
		ctx:       ctx,
		cancel:    cancel,
		sets:      make(map[string]keyfunc.Keyfunc),
	}
}

// Decode implements IDTokenDecoder.
func (v *JWKSVerifier) Decode(ctx context.Context, rawIDToken string, auth AuthConfiguration) (*IDTokenClaims, error) {
	if strings.TrimSpace(rawIDToken) == "" {
		return nil, ErrMissingIDToken
	}

	jwksURL := v.config.JWKSURL
	if jwksURL == "" {
		doc, err := v.discovery.get(ctx, auth.Issuer)
		if err != nil {
			return nil, err
		}
		jwksURL = doc.JWKSURI
	}

	kf, err := v.keyfunc(jwksURL)
	if err != nil {
		return nil, err
	}

	audience := v.config.Audience
	if audience == "" {
		audience = auth.ClientID
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(signingMethods),
		jwt.WithLeeway(v.config.ClockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(audience),
	}
	if auth.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(auth.Issuer))
	}

	token, err := jwt.Parse(rawIDToken, kf.Keyfunc, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", ErrInvalidIDToken)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	return parseIDTokenClaims(token)
}

func (v *JWKSVerifier) keyfunc(jwksURL string) (keyfunc.Keyfunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if kf, ok := v.sets[jwksURL]; ok {
		return kf, nil
	}

	kf, err := keyfunc.NewDefaultCtx(v.ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	v.sets[jwksURL] = kf
	return kf, nil
}

// Close stops background key refreshes.
func (v *JWKSVerifier) Close() {
	v.cancel()
}
