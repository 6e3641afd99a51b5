package nhslogin

import (
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jeremyhahn/go-nhslogin/pkg/kvstore"
)

// instanceHeld is set while a coordinator is live in the process.
var instanceHeld atomic.Bool

// Coordinator owns the authorize configuration and session state and drives
// the authorization code flow. At most one coordinator may be live per
// process; New fails with ErrCoordinatorExists until the current one is
// closed. It is safe for concurrent use.
type Coordinator struct {
	mu           sync.RWMutex
	auth         AuthConfiguration
	env          Environment
	appServerURL string

	store      kvstore.Store
	launcher   Launcher
	biometrics AssertionProvider
	messaging  MessagingFactory
	decoder    IDTokenDecoder
	relay      *relayClient

	guard    codeGuard
	inflight singleflight.Group
	pending  pendingSlot
	session  sessionState

	logger  *zap.Logger
	metrics *metrics
	tracer  trace.Tracer

	verifier  *JWKSVerifier
	closed    atomic.Bool
	closeOnce sync.Once
}

// New creates the process coordinator. Call Load afterwards to restore the
// persisted environment.
func New(config *Config) (*Coordinator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if !instanceHeld.CompareAndSwap(false, true) {
		return nil, ErrCoordinatorExists
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = newRelayHTTPClient(config.Timeout, config.TLSConfig, config.InsecureSkipVerify)
	}

	logger := config.Logger.Named("nhslogin")

	c := &Coordinator{
		auth:       config.Auth.Clone(),
		store:      config.Store,
		launcher:   config.Launcher,
		biometrics: config.Biometrics,
		messaging:  config.Messaging,
		decoder:    config.Decoder,
		relay:      &relayClient{httpClient: httpClient},
		logger:     logger,
		metrics:    newMetrics(config.Registerer),
		tracer:     otel.Tracer("github.com/jeremyhahn/go-nhslogin/pkg/nhslogin"),
	}

	if c.decoder == nil {
		if config.Verification.Enabled {
			c.verifier = NewJWKSVerifier(config.Verification, stdClient(httpClient))
			c.decoder = c.verifier
		} else {
			logger.Warn("id token signatures are not verified; enable Verification to check them against the issuer keys")
			c.decoder = UnverifiedDecoder{}
		}
	}

	return c, nil
}

// AuthConfiguration returns a copy of the current authorize configuration.
func (c *Coordinator) AuthConfiguration() AuthConfiguration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth.Clone()
}

// Session returns the current session. It is the zero Session until an
// exchange succeeds.
func (c *Coordinator) Session() Session {
	return c.session.load()
}

// Close rejects any pending attempt, stops key refreshes and releases the
// process slot so a new coordinator can be created.
func (c *Coordinator) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if a := c.pending.take(); a != nil {
			a.reject(ErrCoordinatorClosed)
		}
		if c.verifier != nil {
			c.verifier.Close()
		}
		instanceHeld.Store(false)
	})
	return nil
}
