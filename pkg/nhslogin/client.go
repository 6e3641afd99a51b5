package nhslogin

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// HTTPClient sends the relay and discovery requests. Tests and hosts with
// their own transport stack supply one through Config.HTTPClient.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// relayHTTPClient is used when no HTTPClient is configured. A login makes
// one relay call and at most one discovery call, so it keeps a single idle
// connection and never retries: authorization codes are single use.
type relayHTTPClient struct {
	client *http.Client
}

func newRelayHTTPClient(timeout time.Duration, tlsConfig *tls.Config, insecureSkipVerify bool) *relayHTTPClient {
	var tlsCfg *tls.Config
	if tlsConfig != nil {
		tlsCfg = tlsConfig.Clone()
	} else {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if insecureSkipVerify {
		tlsCfg.InsecureSkipVerify = true
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSClientConfig:       tlsCfg,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          1,
		MaxIdleConnsPerHost:   1,
		IdleConnTimeout:       30 * time.Second,
	}

	return &relayHTTPClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			// The relay answers /token directly; a redirect would replay the code.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *relayHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

// stdClient returns the *http.Client behind c, for libraries that need one.
func stdClient(c HTTPClient) *http.Client {
	switch hc := c.(type) {
	case *relayHTTPClient:
		return hc.client
	case *http.Client:
		return hc
	}
	return http.DefaultClient
}
