package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeremyhahn/go-nhslogin/pkg/nhslogin"
)

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "nhslogin",
		Short:         "Sign in with NHS login from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadDotEnv(opts.envFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file with NHSLOGIN_* settings (default ./.env if present)")
	flags.StringVar(&opts.redisAddr, "redis-addr", "", "Redis address for persisting the environment (in-memory when empty)")
	flags.StringVar(&opts.redisPrefix, "redis-prefix", "nhslogin:", "Redis key prefix")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug|info|warn|error")
	flags.StringVar(&opts.logEnv, "log-env", "dev", "log format: dev|prod")
	flags.StringSliceVar(&opts.scopes, "scopes", nil, "scopes for this run, overriding the saved selection")
	flags.StringVar(&opts.fidoResponse, "fido-assertion", "", "file holding a FIDO UAF authentication response")
	flags.BoolVar(&opts.verify, "verify", false, "verify ID token signatures against the issuer JWKS")

	root.AddCommand(newEnvCommand(opts))
	root.AddCommand(newScopesCommand(opts))
	root.AddCommand(newAuthorizeURLCommand(opts))
	root.AddCommand(newLoginCommand(opts))

	return root
}

// selection picks an environment from a preset or a catalog file.
type selection struct {
	serverURL string
	preset    string
	clientID  string
	catalog   string
	name      string
}

func (sel *selection) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sel.serverURL, "server-url", "", "app server relay URL")
	cmd.Flags().StringVar(&sel.preset, "preset", "", "environment preset: sandpit|integration|production")
	cmd.Flags().StringVar(&sel.clientID, "client-id", "", "client id registered with the preset environment")
	cmd.Flags().StringVar(&sel.catalog, "catalog", "", "YAML environment catalog")
	cmd.Flags().StringVar(&sel.name, "name", "", "environment name within --catalog")
}

func (sel *selection) empty() bool {
	return sel.preset == "" && sel.catalog == ""
}

// resolve returns the relay URL and environment the flags describe.
func (sel *selection) resolve() (string, nhslogin.Environment, error) {
	if sel.catalog != "" {
		catalog, err := nhslogin.LoadEnvironments(sel.catalog)
		if err != nil {
			return "", nhslogin.Environment{}, err
		}
		env, ok := catalog.Find(sel.name)
		if !ok {
			return "", nhslogin.Environment{}, fmt.Errorf("environment %q not in %s", sel.name, sel.catalog)
		}
		serverURL := sel.serverURL
		if serverURL == "" {
			serverURL = catalog.ServerURL
		}
		return serverURL, env, nil
	}

	if sel.preset == nhslogin.EnvironmentSandpit && sel.clientID == "" {
		return sel.serverURL, nhslogin.Sandpit(), nil
	}

	env, err := nhslogin.Preset(sel.preset, sel.clientID)
	if err != nil {
		return "", nhslogin.Environment{}, err
	}
	return sel.serverURL, env, nil
}

// apply switches the coordinator to the selected environment, if any.
func (sel *selection) apply(ctx context.Context, s *session) error {
	if sel.empty() {
		return nil
	}
	serverURL, env, err := sel.resolve()
	if err != nil {
		return err
	}
	return s.coord.UpdateEnvironment(ctx, serverURL, env)
}

func newEnvCommand(opts *options) *cobra.Command {
	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Show or select the NHS login environment",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.close()
			printEnvironment(cmd.OutOrStdout(), s.coord)
			return nil
		},
	}

	var sel selection
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Select and persist an environment and relay URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sel.empty() {
				return errors.New("one of --preset or --catalog is required")
			}
			s, err := open(cmd.Context(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.close()

			if err := sel.apply(cmd.Context(), s); err != nil {
				return err
			}
			if !s.persisted {
				s.logger.Warn("environment kept in memory only; pass --redis-addr to persist it")
			}
			printEnvironment(cmd.OutOrStdout(), s.coord)
			return nil
		},
	}
	sel.bind(setCmd)

	envCmd.AddCommand(showCmd, setCmd)
	return envCmd
}

func printEnvironment(w io.Writer, c *nhslogin.Coordinator) {
	env := c.Environment()
	auth := c.AuthConfiguration()
	fmt.Fprintf(w, "name:       %s\n", env.Name)
	fmt.Fprintf(w, "issuer:     %s\n", auth.Issuer)
	fmt.Fprintf(w, "client_id:  %s\n", auth.ClientID)
	fmt.Fprintf(w, "server_url: %s\n", c.AppServerURL())
	fmt.Fprintf(w, "ready:      %t\n", c.ReadyToAuthorise())
}

func newScopesCommand(opts *options) *cobra.Command {
	scopesCmd := &cobra.Command{
		Use:   "scopes",
		Short: "Show or choose the requested scopes",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the scope catalog with the current selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.close()

			for _, o := range s.coord.Scopes() {
				mark := " "
				if o.Enabled {
					mark = "x"
				}
				suffix := ""
				if o.Disabled {
					suffix = " (required)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s%s\n", mark, o.Name, suffix)
			}
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set SCOPE...",
		Short: "Save the scope selection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := nhslogin.ValidateScopes(args); err != nil {
				return err
			}
			s, err := open(cmd.Context(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.close()

			raw, err := json.Marshal(args)
			if err != nil {
				return err
			}
			if err := s.store.Set(cmd.Context(), keyScopes, raw); err != nil {
				return fmt.Errorf("%w: %v", nhslogin.ErrStoreFailed, err)
			}
			s.coord.SetScopes(args)
			if !s.persisted {
				s.logger.Warn("scopes kept in memory only; pass --redis-addr to persist them")
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(args, " "))
			return nil
		},
	}

	scopesCmd.AddCommand(listCmd, setCmd)
	return scopesCmd
}

func newAuthorizeURLCommand(opts *options) *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "authorize-url",
		Short: "Print the authorize URL for the active configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.close()

			if err := sel.apply(cmd.Context(), s); err != nil {
				return err
			}
			if !s.coord.ReadyToAuthorise() {
				return nhslogin.ErrNotReady
			}

			var extra []nhslogin.QueryParam
			if opts.fidoResponse != "" {
				response, err := fileAssertion{path: opts.fidoResponse}.Authenticate(cmd.Context())
				if err != nil {
					return fmt.Errorf("%w: %v", nhslogin.ErrAssertionFailed, err)
				}
				encoded, err := nhslogin.EncodeUAFResponse(response)
				if err != nil {
					return err
				}
				extra = append(extra, nhslogin.QueryParam{Key: "fido_auth_response", Value: encoded})
			}

			fmt.Fprintln(cmd.OutOrStdout(), nhslogin.BuildAuthorizeURL(s.coord.AuthConfiguration(), extra...))
			return nil
		},
	}
	sel.bind(cmd)
	return cmd
}

func newLoginCommand(opts *options) *cobra.Command {
	var (
		sel     selection
		mode    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Run the authorization code flow, reading the redirect URL from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			s, err := open(ctx, opts, out)
			if err != nil {
				return err
			}
			defer s.close()

			if err := sel.apply(ctx, s); err != nil {
				return err
			}

			presentation := nhslogin.PresentationMode(mode)
			var attempt *nhslogin.Attempt
			if opts.fidoResponse != "" {
				attempt, err = s.coord.FingerprintLogin(ctx, presentation, nil)
			} else {
				attempt, err = s.coord.Authorize(ctx, presentation, nil)
			}
			if err != nil {
				return err
			}

			if err := readRedirects(ctx, s.coord, attempt, cmd.InOrStdin(), out); err != nil {
				return err
			}

			session, err := attempt.Wait(ctx)
			if err != nil {
				return err
			}
			s.logger.Debug("attempt resolved", zap.String("attempt", attempt.ID()))
			return printSession(out, session)
		},
	}

	sel.bind(cmd)
	cmd.Flags().StringVar(&mode, "mode", string(nhslogin.PresentBrowser), "presentation mode: browser|webview|tab")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "how long to wait for the redirect")

	return cmd
}

// readRedirects feeds pasted redirect URLs to the coordinator until the
// attempt resolves or ctx ends. Lines without a usable code are ignored.
func readRedirects(ctx context.Context, c *nhslogin.Coordinator, attempt *nhslogin.Attempt, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-attempt.Done():
			return nil
		default:
		}

		fmt.Fprint(out, "Redirect URL: ")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-attempt.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return err
					}
				default:
				}
				return errors.New("no redirect URL received")
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if err := c.HandleRedirect(ctx, line); err != nil {
				return err
			}
		}
	}
}

// sessionSummary is what login prints. Tokens are left out.
type sessionSummary struct {
	Subject                 string    `json:"sub"`
	NHSNumber               string    `json:"nhs_number,omitempty"`
	IdentityProofingLevel   string    `json:"identity_proofing_level,omitempty"`
	VectorOfTrust           string    `json:"vot,omitempty"`
	AppServerURL            string    `json:"app_server_url"`
	MessagingEnabled        bool      `json:"messaging_enabled"`
	MessagingDisabledReason string    `json:"messaging_disabled_reason,omitempty"`
	HydratedAt              time.Time `json:"hydrated_at"`
}

func printSession(w io.Writer, s nhslogin.Session) error {
	summary := sessionSummary{
		AppServerURL:            s.AppServerURL,
		MessagingEnabled:        s.MessagingEnabled,
		MessagingDisabledReason: s.MessagingDisabledReason,
		HydratedAt:              s.HydratedAt,
	}
	if s.Claims != nil {
		summary.Subject = s.Claims.Subject
		summary.NHSNumber = s.Claims.NHSNumber
		summary.IdentityProofingLevel = s.Claims.IdentityProofingLevel
		summary.VectorOfTrust = s.Claims.VectorOfTrust
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
