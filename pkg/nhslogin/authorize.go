package nhslogin

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// PresentationMode selects how the authorize URL is shown to the user.
type PresentationMode string

const (
	// PresentBrowser opens the system browser.
	PresentBrowser PresentationMode = "browser"

	// PresentWebView opens an in-app web view.
	PresentWebView PresentationMode = "webview"

	// PresentCustomTab opens a platform custom tab.
	PresentCustomTab PresentationMode = "tab"
)

// Valid reports whether m is a known presentation mode.
func (m PresentationMode) Valid() bool {
	switch m {
	case PresentBrowser, PresentWebView, PresentCustomTab:
		return true
	}
	return false
}

// Launcher opens an authorize URL on the platform. nav is the host's
// navigation handle, passed through untouched; web view presentation
// typically needs it.
type Launcher interface {
	Launch(ctx context.Context, url string, mode PresentationMode, nav any) error
}

// QueryParam is an extra authorize parameter appended after the standard ones.
type QueryParam struct {
	Key   string
	Value string
}

// BuildAuthorizeURL composes the authorize request URL. Values are inserted
// as-is; only the scope list is joined with %20. An empty client id still
// yields a URL, so callers check Ready first.
func BuildAuthorizeURL(cfg AuthConfiguration, extra ...QueryParam) string {
	var b strings.Builder
	b.WriteString(cfg.Issuer)
	b.WriteString("/authorize?client_id=")
	b.WriteString(cfg.ClientID)
	b.WriteString("&scope=")
	b.WriteString(strings.Join(cfg.Scopes, "%20"))
	b.WriteString("&response_type=code&redirect_uri=")
	b.WriteString(cfg.RedirectURL)
	for _, p := range extra {
		b.WriteByte('&')
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// ReadyToAuthorise reports whether a client id is configured.
func (c *Coordinator) ReadyToAuthorise() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth.Ready()
}

// AuthorizeURL builds the authorize URL for the current configuration.
func (c *Coordinator) AuthorizeURL() string {
	return BuildAuthorizeURL(c.AuthConfiguration())
}

// Authorize launches the authorize URL and returns a handle that resolves
// when the redirect carrying the resulting code has been exchanged.
func (c *Coordinator) Authorize(ctx context.Context, mode PresentationMode, nav any) (*Attempt, error) {
	return c.launch(ctx, mode, nav)
}

func (c *Coordinator) launch(ctx context.Context, mode PresentationMode, nav any, extra ...QueryParam) (*Attempt, error) {
	if err := c.checkLaunch(mode); err != nil {
		return nil, err
	}

	cfg := c.AuthConfiguration()
	url := BuildAuthorizeURL(cfg, extra...)

	c.logger.Info("logging in",
		zap.String("mode", string(mode)),
		zap.Strings("scopes", cfg.Scopes),
		zap.Bool("fido", len(extra) > 0))

	// The redirect can arrive before Launch returns, so the attempt is
	// registered first and withdrawn if the launch fails.
	attempt := newAttempt(mode)
	c.pending.register(attempt)

	if err := c.launcher.Launch(ctx, url, mode, nav); err != nil {
		err = fmt.Errorf("%w: %v", ErrLaunchFailed, err)
		c.pending.withdraw(attempt, err)
		return nil, err
	}

	return attempt, nil
}

func (c *Coordinator) checkLaunch(mode PresentationMode) error {
	if c.closed.Load() {
		return ErrCoordinatorClosed
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedPresentation, mode)
	}
	if !c.ReadyToAuthorise() {
		return ErrNotReady
	}
	return nil
}
