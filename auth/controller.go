package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/snapgram/go-feed-core/internal/metrics"
	"github.com/snapgram/go-feed-core/session"
)

// SessionController is the single authority for the local Session: it is the
// only component permitted to write the session.Store it owns. It drives the
// store from explicit user actions (SubmitLogin, SubmitLogout) and from
// out-of-band backend notifications (ObserveSessionChanges).
type SessionController struct {
	backend Backend
	store   *session.Store
	log     zerolog.Logger
	metrics *metrics.Collector

	mu           sync.Mutex
	authInFlight bool
	unobserve    func()
}

// SessionControllerOption defines a function type to modify the SessionController instance.
type SessionControllerOption func(*SessionController)

// WithLogger sets the controller's logger.
func WithLogger(log zerolog.Logger) SessionControllerOption {
	return func(sc *SessionController) {
		sc.log = log
	}
}

// WithMetrics sets the metrics collector. A nil collector is a no-op.
func WithMetrics(m *metrics.Collector) SessionControllerOption {
	return func(sc *SessionController) {
		sc.metrics = m
	}
}

// NewSessionController initializes a new SessionController with required dependencies.
func NewSessionController(backend Backend, store *session.Store, options ...SessionControllerOption) (*SessionController, error) {
	if backend == nil {
		return nil, errors.New("[NewSessionController] backend is required")
	}
	if store == nil {
		return nil, errors.New("[NewSessionController] session store is required")
	}

	controller := &SessionController{
		backend: backend,
		store:   store,
		log:     zerolog.Nop(),
	}

	for _, opt := range options {
		opt(controller)
	}

	return controller, nil
}

// SubmitLogin authenticates against the backend with the given credentials.
// The session passes through Authenticating and settles on SignedIn or, on
// failure, publishes one AuthError snapshot and reverts to SignedOut. A call
// made while another attempt is in flight is rejected with AuthInFlightErr
// without touching the session.
func (sc *SessionController) SubmitLogin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return EmailRequiredErr
	}
	if password == "" {
		return PasswordRequiredErr
	}

	sc.mu.Lock()
	if sc.authInFlight {
		sc.mu.Unlock()
		return AuthInFlightErr
	}
	if sc.store.Current().IsSignedIn() {
		sc.mu.Unlock()
		return AlreadySignedInErr
	}
	sc.authInFlight = true
	sc.store.Set(session.Authenticating())
	sc.mu.Unlock()

	info, err := sc.backend.SignIn(ctx, email, password)

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.authInFlight = false

	if err != nil {
		classified := ClassifyBackendError(err)
		sc.log.Warn().Err(err).Str("email", email).Msg("sign-in failed")
		sc.metrics.RecordAuthAttempt("failure")
		// Surface the error, then auto-revert to SignedOut.
		sc.store.Set(session.AuthError(classified))
		sc.store.Set(session.SignedOut())
		return errors.Wrap(classified, "[SubmitLogin] backend.SignIn")
	}

	sc.metrics.RecordAuthAttempt("success")
	sc.log.Info().Str("user_id", info.UserID).Msg("signed in")
	sc.store.Set(session.SignedIn(info.UserID))
	return nil
}

// SubmitLogout signs the user out. The local session is forced to SignedOut
// before the remote call settles: sign-out must never leave the device
// looking logged in, even when the network call fails. A remote failure is
// logged and reported to metrics but not returned.
func (sc *SessionController) SubmitLogout(ctx context.Context) error {
	sc.mu.Lock()
	if sc.authInFlight {
		sc.mu.Unlock()
		return AuthInFlightErr
	}
	if !sc.store.Current().IsSignedIn() {
		sc.mu.Unlock()
		return NotSignedInErr
	}
	sc.store.Set(session.SignedOut())
	sc.mu.Unlock()

	if err := sc.backend.SignOut(ctx); err != nil {
		sc.log.Warn().Err(err).Msg("remote sign-out failed, local session already cleared")
	}
	return nil
}

// RestoreSession is called once at startup. It asks the backend for an
// existing valid session and settles directly on SignedIn or SignedOut,
// never passing through Authenticating (no user credentials are involved).
func (sc *SessionController) RestoreSession(ctx context.Context) error {
	info, err := sc.backend.CurrentSession(ctx)

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err != nil {
		sc.log.Warn().Err(err).Msg("session restore failed")
		sc.store.Set(session.SignedOut())
		return errors.Wrap(ClassifyBackendError(err), "[RestoreSession] backend.CurrentSession")
	}

	if info == nil {
		sc.store.Set(session.SignedOut())
		return nil
	}

	sc.log.Info().Str("user_id", info.UserID).Msg("session restored")
	sc.store.Set(session.SignedIn(info.UserID))
	return nil
}

// ObserveSessionChanges subscribes to the backend's out-of-band session
// change stream (token refresh, remote revocation) and mirrors changes into
// the session store. Changes arriving while a credential submission is in
// flight are dropped; the in-flight attempt settles the session itself.
func (sc *SessionController) ObserveSessionChanges() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.unobserve != nil {
		return
	}
	sc.unobserve = sc.backend.OnSessionChange(func(info *SessionInfo) {
		sc.mu.Lock()
		defer sc.mu.Unlock()

		if sc.authInFlight {
			sc.log.Debug().Msg("dropping session change during in-flight authentication")
			return
		}

		current := sc.store.Current()
		if info == nil {
			if current.Status != session.StatusSignedOut {
				sc.log.Info().Msg("session ended by backend")
				sc.store.Set(session.SignedOut())
			}
			return
		}
		if current.IsSignedIn() && current.UserID == info.UserID {
			return // token refresh for the same user, nothing to mirror
		}
		sc.log.Info().Str("user_id", info.UserID).Msg("session updated by backend")
		sc.store.Set(session.SignedIn(info.UserID))
	})
}

// Close unregisters the backend session-change subscription.
func (sc *SessionController) Close() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.unobserve != nil {
		sc.unobserve()
		sc.unobserve = nil
	}
}
