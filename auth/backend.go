package auth

import "context"

// SessionInfo is the backend's view of an authenticated session.
type SessionInfo struct {
	UserID string
}

// SignUpMetadata travels with identity creation so the provider can attach
// it to the new user record.
type SignUpMetadata struct {
	Username    string
	DisplayName string
}

// SessionChange receives out-of-band session updates from the backend.
// info is nil when the backend reports the session as ended (expiry,
// revocation); non-nil on refresh or external sign-in.
type SessionChange func(info *SessionInfo)

// Backend is the seam to the remote identity provider. Every call must
// eventually resolve; the provider owns timeouts, callers may bound latency
// through ctx.
type Backend interface {
	SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (*SessionInfo, error)
	SignIn(ctx context.Context, email, password string) (*SessionInfo, error)
	SignOut(ctx context.Context) error

	// CurrentSession returns the existing valid session, or nil when there
	// is none.
	CurrentSession(ctx context.Context) (*SessionInfo, error)

	// OnSessionChange registers cb for out-of-band session changes and
	// returns a function that unregisters it.
	OnSessionChange(cb SessionChange) (unsubscribe func())
}
