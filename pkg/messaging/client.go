// Package messaging is the entry point to the app's messaging service. A
// Client is created once the relay has issued an app access token and
// enabled messaging for the user.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/jeremyhahn/go-nhslogin/pkg/nhslogin"
)

var (
	// ErrMissingServerURL indicates no messaging server URL was supplied.
	ErrMissingServerURL = errors.New("messaging: server url is required")

	// ErrMissingAccessToken indicates no app access token was supplied.
	ErrMissingAccessToken = errors.New("messaging: access token is required")
)

// Client talks to the messaging endpoints of the app server with the app
// access token attached as a bearer token.
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// New creates a client for serverURL authenticated with accessToken.
func New(ctx context.Context, serverURL, accessToken string) (*Client, error) {
	serverURL = strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if serverURL == "" {
		return nil, ErrMissingServerURL
	}
	if accessToken == "" {
		return nil, ErrMissingAccessToken
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})

	return &Client{
		serverURL:  serverURL,
		httpClient: oauth2.NewClient(ctx, ts),
	}, nil
}

// ServerURL returns the app server the client talks to.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// NewRequest builds a request for path relative to the server URL.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("messaging: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Do sends req with the bearer token attached.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// Factory creates messaging clients for the coordinator.
type Factory struct{}

// New implements nhslogin.MessagingFactory.
func (Factory) New(ctx context.Context, serverURL, accessToken string) (nhslogin.Messaging, error) {
	return New(ctx, serverURL, accessToken)
}
