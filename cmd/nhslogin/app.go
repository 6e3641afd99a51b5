package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jeremyhahn/go-nhslogin/internal/logging"
	"github.com/jeremyhahn/go-nhslogin/pkg/kvstore"
	"github.com/jeremyhahn/go-nhslogin/pkg/messaging"
	"github.com/jeremyhahn/go-nhslogin/pkg/nhslogin"
)

// keyScopes holds the scope selection saved by "scopes set".
const keyScopes = "cli_scopes"

// options are the persistent flags shared by every subcommand.
type options struct {
	envFile      string
	redisAddr    string
	redisPrefix  string
	logLevel     string
	logEnv       string
	scopes       []string
	fidoResponse string
	verify       bool
}

// session bundles what a subcommand needs; close releases all of it.
type session struct {
	coord     *nhslogin.Coordinator
	store     kvstore.Store
	logger    *zap.Logger
	persisted bool
	closers   []func() error
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("close failed", zap.Error(err))
		}
	}
}

// loadDotEnv reads path, or ./.env when path is empty and the file exists.
func loadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// open builds the store, logger and coordinator and restores the saved
// environment and scopes.
func open(ctx context.Context, opts *options, out io.Writer) (*session, error) {
	logger, err := logging.New(logging.Config{Env: opts.logEnv, Level: opts.logLevel})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	s := &session{logger: logger}
	s.closers = append(s.closers, func() error {
		// Sync reports EINVAL on terminals; nothing to act on
		_ = logger.Sync()
		return nil
	})

	if opts.redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		s.closers = append(s.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			s.close()
			return nil, fmt.Errorf("redis %s: %w", opts.redisAddr, err)
		}
		s.store = kvstore.NewRedis(client, kvstore.WithKeyPrefix(opts.redisPrefix))
		s.persisted = true
	} else {
		s.store = kvstore.NewMemory()
	}

	auth, err := nhslogin.LoadAuthConfigurationFromEnv()
	if err != nil {
		s.close()
		return nil, err
	}

	cfg := &nhslogin.Config{
		Auth:      auth,
		Store:     s.store,
		Launcher:  printLauncher{out: out},
		Messaging: messaging.Factory{},
		Logger:    logger,
		Verification: nhslogin.VerificationConfig{
			Enabled: opts.verify,
		},
	}
	if opts.fidoResponse != "" {
		cfg.Biometrics = fileAssertion{path: opts.fidoResponse}
	}

	coord, err := nhslogin.New(cfg)
	if err != nil {
		s.close()
		return nil, err
	}
	s.coord = coord
	s.closers = append(s.closers, coord.Close)

	if err := coord.Load(ctx); err != nil {
		s.close()
		return nil, err
	}

	if err := s.seedEnvironment(ctx, auth); err != nil {
		s.close()
		return nil, err
	}

	if err := s.restoreScopes(ctx, opts.scopes); err != nil {
		s.close()
		return nil, err
	}

	return s, nil
}

// seedEnvironment selects the NHSLOGIN_ISSUER / NHSLOGIN_CLIENT_ID
// environment when the store has none saved. A saved environment wins.
func (s *session) seedEnvironment(ctx context.Context, auth nhslogin.AuthConfiguration) error {
	if !s.coord.Environment().IsZero() {
		return nil
	}
	if os.Getenv("NHSLOGIN_ISSUER") == "" && os.Getenv("NHSLOGIN_CLIENT_ID") == "" {
		return nil
	}

	env := environmentFor(auth)
	s.logger.Info("using environment from NHSLOGIN_* settings",
		zap.String("env", env.Name),
		zap.String("issuer", env.URL))
	return s.coord.UpdateEnvironment(ctx, s.coord.AppServerURL(), env)
}

// environmentFor names auth's issuer after the matching preset, or "custom".
func environmentFor(auth nhslogin.AuthConfiguration) nhslogin.Environment {
	env := nhslogin.Environment{ClientID: auth.ClientID, URL: auth.Issuer, Name: "custom"}
	for _, name := range []string{nhslogin.EnvironmentSandpit, nhslogin.EnvironmentIntegration, nhslogin.EnvironmentProduction} {
		if preset, err := nhslogin.Preset(name, auth.ClientID); err == nil && preset.URL == auth.Issuer {
			return preset
		}
	}
	return env
}

// restoreScopes applies override when given, otherwise the saved selection.
func (s *session) restoreScopes(ctx context.Context, override []string) error {
	if len(override) > 0 {
		if err := nhslogin.ValidateScopes(override); err != nil {
			return err
		}
		s.coord.SetScopes(override)
		return nil
	}

	raw, err := s.store.Get(ctx, keyScopes)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", nhslogin.ErrStoreFailed, err)
	}

	var scopes []string
	if err := json.Unmarshal(raw, &scopes); err != nil {
		s.logger.Warn("ignoring saved scopes", zap.Error(err))
		return nil
	}
	s.coord.SetScopes(scopes)
	return nil
}
