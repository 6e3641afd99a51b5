package nhslogin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeremyhahn/go-nhslogin/pkg/kvstore"
)

// Persisted keys.
const (
	KeyServerURL   = "server_url"
	KeyEnvironment = "env"
)

// Load restores the relay URL and environment from the store and re-derives
// the authorize configuration. Missing keys yield zero values, which leaves
// the coordinator not ready to authorise until UpdateEnvironment is called.
func (c *Coordinator) Load(ctx context.Context) error {
	serverURL, err := c.store.Get(ctx, KeyServerURL)
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return fmt.Errorf("%w: read %s: %v", ErrStoreFailed, KeyServerURL, err)
	}

	var env Environment
	raw, err := c.store.Get(ctx, KeyEnvironment)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
	case err != nil:
		return fmt.Errorf("%w: read %s: %v", ErrStoreFailed, KeyEnvironment, err)
	default:
		var stored Environment
		if err := json.Unmarshal(raw, &stored); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEnvironment, err)
		}
		if stored.ClientID != "" {
			env = stored
		}
	}

	c.mu.Lock()
	c.appServerURL = string(serverURL)
	c.env = env
	env.apply(&c.auth)
	c.mu.Unlock()

	c.logger.Info("environment loaded",
		zap.String("env", env.Name),
		zap.String("issuer", env.URL),
		zap.String("server_url", string(serverURL)))

	return nil
}

// UpdateEnvironment persists serverURL and env in one store transaction and
// switches subsequent authorize attempts to the new issuer and client. When
// the write fails the in-memory state is unchanged.
func (c *Coordinator) UpdateEnvironment(ctx context.Context, serverURL string, env Environment) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnvironment, err)
	}

	err = c.store.SetMany(ctx, map[string][]byte{
		KeyServerURL:   []byte(serverURL),
		KeyEnvironment: raw,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	c.mu.Lock()
	c.appServerURL = serverURL
	c.env = env
	env.apply(&c.auth)
	c.mu.Unlock()

	c.logger.Info("environment updated",
		zap.String("env", env.Name),
		zap.String("issuer", env.URL),
		zap.String("server_url", serverURL))

	return nil
}

// Environment returns the active environment.
func (c *Coordinator) Environment() Environment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.env
}

// AppServerURL returns the active relay URL.
func (c *Coordinator) AppServerURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.appServerURL
}
