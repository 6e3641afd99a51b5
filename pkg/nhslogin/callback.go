package nhslogin

import (
	"context"
	"regexp"
	"sync"

	"go.uber.org/zap"
)

// CallbackState names the stages a redirect event passes through.
type CallbackState int

const (
	CallbackIdle CallbackState = iota
	CallbackReceived
	CallbackCodeValidated
	CallbackExchangePending
	CallbackComplete
	CallbackFailed
)

func (s CallbackState) String() string {
	switch s {
	case CallbackIdle:
		return "idle"
	case CallbackReceived:
		return "received"
	case CallbackCodeValidated:
		return "code_validated"
	case CallbackExchangePending:
		return "exchange_pending"
	case CallbackComplete:
		return "complete"
	case CallbackFailed:
		return "failed"
	}
	return "unknown"
}

// undefinedCode is what some hosts deliver when the redirect had no code.
const undefinedCode = "undefined"

var redirectParamPattern = regexp.MustCompile(`[?&]([^=#]+)=([^&#]*)`)

// ParseRedirectParams extracts key=value pairs from the query and fragment of
// a redirect URL. Values are returned as they appear, without decoding, and
// the last occurrence of a key wins.
func ParseRedirectParams(rawURL string) map[string]string {
	params := make(map[string]string)
	for _, m := range redirectParamPattern.FindAllStringSubmatch(rawURL, -1) {
		params[m[1]] = m[2]
	}
	return params
}

// codeGuard remembers the last accepted authorization code.
type codeGuard struct {
	mu   sync.Mutex
	last string
}

// accept records code and returns true unless it is empty, "undefined" or a
// repeat of the previous accepted code.
func (g *codeGuard) accept(code string) bool {
	if code == "" || code == undefinedCode {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if code == g.last {
		return false
	}
	g.last = code
	return true
}

// HandleRedirect processes a deep-link redirect. Redirects without a usable
// code, or repeating the last accepted code, are ignored and return nil. An
// accepted code is exchanged before HandleRedirect returns; exchange errors
// are logged, reject the pending attempt and are returned.
func (c *Coordinator) HandleRedirect(ctx context.Context, rawURL string) error {
	if c.closed.Load() {
		return ErrCoordinatorClosed
	}

	code := ParseRedirectParams(rawURL)["code"]

	if !c.guard.accept(code) {
		c.logger.Debug("redirect ignored", zap.Bool("has_code", code != ""))
		c.metrics.observeCallback(CallbackFailed)
		return nil
	}

	c.logger.Info("authorization code received", zap.String("code", code))
	c.metrics.observeCallback(CallbackCodeValidated)

	return c.exchange(ctx, code)
}
