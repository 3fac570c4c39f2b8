// Package session holds the local representation of whether a user is
// authenticated and who they are. The Store is the single source of truth
// consumed by navigation; only the auth controller writes to it.
package session

// Status is the authentication state of the local session.
type Status string

const (
	StatusSignedOut      Status = "signed_out"
	StatusAuthenticating Status = "authenticating"
	StatusSignedIn       Status = "signed_in"
	StatusAuthError      Status = "auth_error"
)

// Session is an immutable snapshot of the authentication state.
// UserID is set if and only if Status is StatusSignedIn. ErrDetail is set
// only while Status is StatusAuthError.
type Session struct {
	Status    Status
	UserID    string
	ErrDetail error
}

// SignedOut returns the initial, signed-out session.
func SignedOut() Session {
	return Session{Status: StatusSignedOut}
}

// Authenticating returns a session for an in-flight credential submission.
func Authenticating() Session {
	return Session{Status: StatusAuthenticating}
}

// SignedIn returns an authenticated session for userID.
func SignedIn(userID string) Session {
	return Session{Status: StatusSignedIn, UserID: userID}
}

// AuthError returns the transient error session published before the
// controller reverts to SignedOut.
func AuthError(err error) Session {
	return Session{Status: StatusAuthError, ErrDetail: err}
}

// IsSignedIn reports whether the session carries an authenticated user.
func (s Session) IsSignedIn() bool {
	return s.Status == StatusSignedIn
}
