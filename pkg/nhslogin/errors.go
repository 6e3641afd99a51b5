package nhslogin

import "errors"

var (
	// ErrInvalidConfiguration indicates the coordinator configuration is invalid.
	ErrInvalidConfiguration = errors.New("nhslogin: invalid configuration")

	// ErrNotReady indicates no client id is configured, so an authorize
	// request would be rejected by the identity provider.
	ErrNotReady = errors.New("nhslogin: not ready to authorise")

	// ErrCoordinatorExists indicates a coordinator is already live in this process.
	ErrCoordinatorExists = errors.New("nhslogin: coordinator already exists")

	// ErrCoordinatorClosed indicates the coordinator was closed.
	ErrCoordinatorClosed = errors.New("nhslogin: coordinator closed")

	// ErrInvalidEnvironment indicates the persisted environment record could not be decoded.
	ErrInvalidEnvironment = errors.New("nhslogin: invalid environment")

	// ErrStoreFailed indicates the key-value store rejected a read or write.
	ErrStoreFailed = errors.New("nhslogin: store operation failed")

	// ErrUnknownScope indicates a scope outside the catalog.
	ErrUnknownScope = errors.New("nhslogin: unknown scope")

	// ErrMissingOpenIDScope indicates the mandatory openid scope was removed.
	ErrMissingOpenIDScope = errors.New("nhslogin: openid scope is required")

	// ErrUnsupportedPresentation indicates an unknown presentation mode.
	ErrUnsupportedPresentation = errors.New("nhslogin: unsupported presentation mode")

	// ErrLaunchFailed indicates the platform launcher could not open the authorize URL.
	ErrLaunchFailed = errors.New("nhslogin: launch failed")

	// ErrAssertionFailed indicates the biometric assertion could not be obtained or parsed.
	ErrAssertionFailed = errors.New("nhslogin: biometric assertion failed")

	// ErrTokenExchangeFailed indicates the relay code exchange failed.
	ErrTokenExchangeFailed = errors.New("nhslogin: token exchange failed")

	// ErrMissingIDToken indicates the relay response carried no ID token.
	ErrMissingIDToken = errors.New("nhslogin: missing id token")

	// ErrInvalidIDToken indicates the ID token is malformed or failed verification.
	ErrInvalidIDToken = errors.New("nhslogin: invalid id token")

	// ErrClaimsSchema indicates the ID token payload does not match the expected claim types.
	ErrClaimsSchema = errors.New("nhslogin: id token claims schema mismatch")

	// ErrDiscoveryFailed indicates the OIDC discovery document could not be fetched.
	ErrDiscoveryFailed = errors.New("nhslogin: oidc discovery failed")

	// ErrJWKSFetchFailed indicates JWKS retrieval failed.
	ErrJWKSFetchFailed = errors.New("nhslogin: jwks fetch failed")

	// ErrMessagingFailed indicates the messaging collaborator could not be created.
	ErrMessagingFailed = errors.New("nhslogin: messaging setup failed")

	// ErrAttemptSuperseded indicates a newer authorize attempt replaced this one.
	ErrAttemptSuperseded = errors.New("nhslogin: attempt superseded")

	// ErrAttemptPending indicates the attempt has no result yet.
	ErrAttemptPending = errors.New("nhslogin: attempt pending")
)
