// Package nhslogin drives the NHS login OAuth 2.0 authorization code flow
// from a device, with an optional FIDO UAF biometric step.
//
// A single Coordinator owns the flow. It builds the authorize URL from the
// selected Environment and scopes, hands it to a platform Launcher, accepts
// the redirect delivered by the platform deep-link dispatcher, and exchanges
// the authorization code through the app's backend relay. The resulting
// tokens and ID token claims are exposed as a Session.
//
// # Environment
//
// The relay URL and the selected environment are persisted in a
// kvstore.Store under the keys server_url and env. Both are written in one
// transaction by UpdateEnvironment.
//
//	coord, err := nhslogin.New(&nhslogin.Config{
//	    Store:    kvstore.NewMemory(),
//	    Launcher: launcher,
//	    Logger:   logger,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer coord.Close()
//
//	if err := coord.Load(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := coord.UpdateEnvironment(ctx, "https://relay.example.com", nhslogin.Sandpit()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Authorize
//
// Authorize launches the authorize URL and returns an Attempt. The Attempt
// resolves once the redirect for it has been exchanged:
//
//	attempt, err := coord.Authorize(ctx, nhslogin.PresentCustomTab, nil)
//	if err != nil {
//	    return err
//	}
//
//	// from the deep-link handler
//	_ = coord.HandleRedirect(ctx, redirectURL)
//
//	session, err := attempt.Wait(ctx)
//
// FingerprintLogin does the same after obtaining a UAF assertion from the
// configured AssertionProvider and appending it as fido_auth_response.
//
// # Redirects
//
// HandleRedirect ignores redirects with no code, the literal code
// "undefined", or the same code as the previous accepted redirect, because
// platforms may deliver a deep link more than once. Each accepted code is
// exchanged at most once.
//
// # ID tokens
//
// By default the ID token payload is decoded without verifying its
// signature, trusting the relay. Set Config.Verification.Enabled to verify
// it against the issuer's JWKS, discovered from the issuer's
// .well-known/openid-configuration.
package nhslogin
