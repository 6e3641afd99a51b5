package nhslogin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DiscoveryDocument is the subset of the OIDC discovery document the
// coordinator relies on.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`

	FetchedAt time.Time `json:"-"`
}

// Validate checks the fields needed for ID token verification.
func (d *DiscoveryDocument) Validate() error {
	if d.Issuer == "" {
		return fmt.Errorf("%w: missing issuer", ErrDiscoveryFailed)
	}
	if d.JWKSURI == "" {
		return fmt.Errorf("%w: missing jwks_uri", ErrDiscoveryFailed)
	}
	return nil
}

// discoveryClient fetches discovery documents, caching one per issuer since
// the active issuer changes with the selected environment.
type discoveryClient struct {
	mu         sync.RWMutex
	httpClient *http.Client
	ttl        time.Duration
	cache      map[string]*DiscoveryDocument
}

func newDiscoveryClient(httpClient *http.Client, ttl time.Duration) *discoveryClient {
	return &discoveryClient{
		httpClient: httpClient,
		ttl:        ttl,
		cache:      make(map[string]*DiscoveryDocument),
	}
}

// get returns the discovery document for issuer, using the cache when fresh.
func (dc *discoveryClient) get(ctx context.Context, issuer string) (*DiscoveryDocument, error) {
	dc.mu.RLock()
	cached := dc.cache[issuer]
	dc.mu.RUnlock()

	if cached != nil && time.Since(cached.FetchedAt) < dc.ttl {
		return cached, nil
	}

	doc, err := dc.fetch(ctx, issuer)
	if err != nil {
		// Serve a stale document rather than failing the login
		if cached != nil {
			return cached, nil
		}
		return nil, err
	}

	dc.mu.Lock()
	dc.cache[issuer] = doc
	dc.mu.Unlock()

	return doc, nil
}

func (dc *discoveryClient) fetch(ctx context.Context, issuer string) (*DiscoveryDocument, error) {
	if strings.TrimSpace(issuer) == "" {
		return nil, fmt.Errorf("%w: issuer is required", ErrDiscoveryFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, buildDiscoveryURL(issuer), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create discovery request: %v", ErrDiscoveryFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := dc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch discovery document: %v", ErrDiscoveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: unexpected status %d: %s", ErrDiscoveryFailed, resp.StatusCode, string(body))
	}

	var doc DiscoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse discovery document: %v", ErrDiscoveryFailed, err)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	doc.FetchedAt = time.Now()
	return &doc, nil
}

// buildDiscoveryURL constructs the standard OIDC discovery URL from an issuer.
func buildDiscoveryURL(issuer string) string {
	issuer = strings.TrimSpace(issuer)
	issuer = strings.TrimSuffix(issuer, "/")
	return issuer + "/.well-known/openid-configuration"
}
