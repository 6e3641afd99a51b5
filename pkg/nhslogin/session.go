package nhslogin

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Messaging is the downstream messaging collaborator created after login.
type Messaging interface {
	ServerURL() string
}

// MessagingFactory creates the messaging collaborator from the relay URL and
// the app access token.
type MessagingFactory interface {
	New(ctx context.Context, serverURL, accessToken string) (Messaging, error)
}

// Session is the identity and token state produced by a successful exchange.
// The zero value means no login has completed.
type Session struct {
	// Claims are the decoded ID token claims.
	Claims *IDTokenClaims

	// IDToken is the raw ID token returned by the relay.
	IDToken string

	// NHSAccessToken is the NHS login access token.
	NHSAccessToken string

	// AppAccessToken authenticates the app against its own relay.
	AppAccessToken string

	// AppServerURL is the relay the tokens were obtained from.
	AppServerURL string

	// MessagingEnabled reports whether the relay enabled messaging.
	MessagingEnabled bool

	// MessagingDisabledReason explains why messaging is off.
	MessagingDisabledReason string

	// Messaging is set when MessagingEnabled and a factory is configured.
	Messaging Messaging

	// HydratedAt is when the exchange completed.
	HydratedAt time.Time
}

// Authenticated reports whether the session has been hydrated.
func (s Session) Authenticated() bool {
	return !s.HydratedAt.IsZero()
}

// AppToken returns the app access token as an oauth2 bearer token.
func (s Session) AppToken() *oauth2.Token {
	return bearer(s.AppAccessToken)
}

// NHSToken returns the NHS login access token as an oauth2 bearer token.
func (s Session) NHSToken() *oauth2.Token {
	return bearer(s.NHSAccessToken)
}

func bearer(token string) *oauth2.Token {
	if token == "" {
		return nil
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
}

// sessionState guards the current session. Writers replace it whole.
type sessionState struct {
	mu      sync.RWMutex
	current Session
}

func (s *sessionState) load() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *sessionState) store(next Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = next
}
