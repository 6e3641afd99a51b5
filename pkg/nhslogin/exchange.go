package nhslogin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// maxExchangeResponse bounds the relay response body.
const maxExchangeResponse = 1 << 20

// tokenResponse is the relay's /token response.
type tokenResponse struct {
	IDToken                 string `json:"id_token"`
	AccessToken             string `json:"access_token"`
	NHSAccessToken          string `json:"nhs_access_token"`
	MessagingEnabled        bool   `json:"messaging_enabled"`
	MessagingDisabledReason string `json:"messaging_disabled_reason,omitempty"`
}

// relayClient performs the code exchange against the app's backend relay.
type relayClient struct {
	httpClient HTTPClient
}

// exchangeCode posts code to {serverURL}/token. The code is sent exactly as
// it arrived on the redirect; the environment name is query-escaped.
func (r *relayClient) exchangeCode(ctx context.Context, serverURL, code, envName string) (*tokenResponse, error) {
	if strings.TrimSpace(serverURL) == "" {
		return nil, fmt.Errorf("%w: app server url not configured", ErrTokenExchangeFailed)
	}

	endpoint := serverURL + "/token?code=" + code + "&env=" + url.QueryEscape(envName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExchangeResponse))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrTokenExchangeFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTokenExchangeFailed, resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrTokenExchangeFailed, err)
	}

	return &tr, nil
}

// exchange runs at most one exchange per code at a time.
func (c *Coordinator) exchange(ctx context.Context, code string) error {
	_, err, _ := c.inflight.Do(code, func() (interface{}, error) {
		return nil, c.runExchange(ctx, code)
	})
	return err
}

func (c *Coordinator) runExchange(ctx context.Context, code string) error {
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "nhslogin.exchange")
	defer span.End()

	c.mu.RLock()
	serverURL := c.appServerURL
	envName := c.env.Name
	auth := c.auth.Clone()
	c.mu.RUnlock()

	span.SetAttributes(attribute.String("nhslogin.env", envName))
	c.logger.Debug("auth code exchange", zap.String("server_url", serverURL), zap.String("env", envName))

	tr, err := c.relay.exchangeCode(ctx, serverURL, code, envName)
	if err != nil {
		return c.failExchange(span, start, err)
	}

	claims, err := c.decoder.Decode(ctx, tr.IDToken, auth)
	if err != nil {
		return c.failExchange(span, start, err)
	}

	next := Session{
		Claims:           claims,
		IDToken:          tr.IDToken,
		NHSAccessToken:   tr.NHSAccessToken,
		AppAccessToken:   tr.AccessToken,
		AppServerURL:     serverURL,
		MessagingEnabled: tr.MessagingEnabled,
	}

	if tr.MessagingEnabled {
		if c.messaging != nil {
			m, err := c.messaging.New(ctx, serverURL, tr.AccessToken)
			if err != nil {
				return c.failExchange(span, start, fmt.Errorf("%w: %v", ErrMessagingFailed, err))
			}
			next.Messaging = m
		}
	} else {
		next.MessagingDisabledReason = tr.MessagingDisabledReason
	}

	next.HydratedAt = time.Now()
	c.session.store(next)

	c.metrics.observeExchange(CallbackComplete, start)
	c.logger.Info("login complete",
		zap.String("sub", claims.Subject),
		zap.Bool("messaging_enabled", next.MessagingEnabled),
		zap.Duration("elapsed", time.Since(start)))

	if a := c.pending.take(); a != nil {
		a.resolve(next)
	}

	return nil
}

// failExchange records a failed exchange. The session is left untouched.
func (c *Coordinator) failExchange(span trace.Span, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "exchange failed")

	c.metrics.observeExchange(CallbackFailed, start)
	c.logger.Warn("auth code exchange failed", zap.Error(err))

	if a := c.pending.take(); a != nil {
		a.reject(err)
	}

	return err
}
