package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/snapgram/go-feed-core/auth"
	"github.com/snapgram/go-feed-core/auth/backendfakes"
	apperrors "github.com/snapgram/go-feed-core/internal/errors"
	"github.com/snapgram/go-feed-core/session"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail    = "a@b.com"
	testUserPassword = "secret1"
	testUserID       = "U1"
)

type testFixture struct {
	backend    *backendfakes.FakeBackend
	store      *session.Store
	controller *auth.SessionController
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	backend := backendfakes.NewFakeBackend()
	store := session.NewStore()
	controller, err := auth.NewSessionController(backend, store)
	require.NoError(t, err)

	return &testFixture{backend: backend, store: store, controller: controller}
}

func TestNewSessionController_RequiresDependencies(t *testing.T) {
	store := session.NewStore()

	_, err := auth.NewSessionController(nil, store)
	require.Error(t, err)

	_, err = auth.NewSessionController(backendfakes.NewFakeBackend(), nil)
	require.Error(t, err)
}

func TestSubmitLogin_Success(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.RegisterWithID(testUserID, testUserEmail, testUserPassword)

	var transitions []session.Session
	f.store.Subscribe(func(s session.Session) { transitions = append(transitions, s) })

	err := f.controller.SubmitLogin(context.Background(), testUserEmail, testUserPassword)
	require.NoError(t, err)

	current := f.store.Current()
	require.Equal(t, session.StatusSignedIn, current.Status)
	require.Equal(t, testUserID, current.UserID)

	require.Len(t, transitions, 2)
	require.Equal(t, session.StatusAuthenticating, transitions[0].Status)
	require.Equal(t, session.StatusSignedIn, transitions[1].Status)
}

func TestSubmitLogin_BadCredentials(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.RegisterWithID(testUserID, testUserEmail, testUserPassword)

	var transitions []session.Session
	f.store.Subscribe(func(s session.Session) { transitions = append(transitions, s) })

	err := f.controller.SubmitLogin(context.Background(), testUserEmail, "wrong-password")
	require.Error(t, err)
	require.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	require.Equal(t, "Incorrect email or password.", apperrors.MessageOf(err))

	// AuthError is surfaced, then the session auto-reverts to SignedOut.
	require.Len(t, transitions, 3)
	require.Equal(t, session.StatusAuthenticating, transitions[0].Status)
	require.Equal(t, session.StatusAuthError, transitions[1].Status)
	require.Error(t, transitions[1].ErrDetail)
	require.Equal(t, session.StatusSignedOut, transitions[2].Status)
	require.Equal(t, session.StatusSignedOut, f.store.Current().Status)
}

func TestSubmitLogin_EmptyCredentialsRejectedLocally(t *testing.T) {
	f := setupTestFixture(t)

	require.ErrorIs(t, f.controller.SubmitLogin(context.Background(), "", "pw"), auth.EmailRequiredErr)
	require.ErrorIs(t, f.controller.SubmitLogin(context.Background(), "a@b.com", ""), auth.PasswordRequiredErr)

	require.Zero(t, f.backend.SignInCalls)
	require.Equal(t, session.StatusSignedOut, f.store.Current().Status)
}

func TestSubmitLogin_RejectedWhileAuthenticating(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.RegisterWithID(testUserID, testUserEmail, testUserPassword)

	gate := make(chan struct{})
	f.backend.SignInGate = gate

	done := make(chan error, 1)
	go func() {
		done <- f.controller.SubmitLogin(context.Background(), testUserEmail, testUserPassword)
	}()

	require.Eventually(t, func() bool {
		return f.store.Current().Status == session.StatusAuthenticating
	}, time.Second, time.Millisecond)

	// A second login and a logout are both rejected without touching the session.
	require.ErrorIs(t, f.controller.SubmitLogin(context.Background(), testUserEmail, testUserPassword), auth.AuthInFlightErr)
	require.ErrorIs(t, f.controller.SubmitLogout(context.Background()), auth.AuthInFlightErr)
	require.Equal(t, session.StatusAuthenticating, f.store.Current().Status)

	close(gate)
	require.NoError(t, <-done)
	require.Equal(t, session.StatusSignedIn, f.store.Current().Status)
	require.Equal(t, 1, f.backend.SignInCalls)
}

func TestSubmitLogin_RejectedWhenAlreadySignedIn(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.RegisterWithID(testUserID, testUserEmail, testUserPassword)
	require.NoError(t, f.controller.SubmitLogin(context.Background(), testUserEmail, testUserPassword))

	err := f.controller.SubmitLogin(context.Background(), testUserEmail, testUserPassword)
	require.ErrorIs(t, err, auth.AlreadySignedInErr)
}

func TestSubmitLogout_Success(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.RegisterWithID(testUserID, testUserEmail, testUserPassword)
	require.NoError(t, f.controller.SubmitLogin(context.Background(), testUserEmail, testUserPassword))

	require.NoError(t, f.controller.SubmitLogout(context.Background()))
	require.Equal(t, session.StatusSignedOut, f.store.Current().Status)
	require.Equal(t, 1, f.backend.SignOutCalls)
}

func TestSubmitLogout_LocalSignOutSurvivesRemoteFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.RegisterWithID(testUserID, testUserEmail, testUserPassword)
	require.NoError(t, f.controller.SubmitLogin(context.Background(), testUserEmail, testUserPassword))

	f.backend.SignOutErr = context.DeadlineExceeded

	require.NoError(t, f.controller.SubmitLogout(context.Background()))
	require.Equal(t, session.StatusSignedOut, f.store.Current().Status)
}

func TestSubmitLogout_RequiresSignedIn(t *testing.T) {
	f := setupTestFixture(t)
	require.ErrorIs(t, f.controller.SubmitLogout(context.Background()), auth.NotSignedInErr)
}

func TestRestoreSession(t *testing.T) {
	t.Run("existing session restores to SignedIn without Authenticating", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.RegisterWithID(testUserID, testUserEmail, testUserPassword)
		_, err := f.backend.SignIn(context.Background(), testUserEmail, testUserPassword)
		require.NoError(t, err)

		var transitions []session.Session
		f.store.Subscribe(func(s session.Session) { transitions = append(transitions, s) })

		require.NoError(t, f.controller.RestoreSession(context.Background()))

		require.Len(t, transitions, 1)
		require.Equal(t, session.StatusSignedIn, transitions[0].Status)
		require.Equal(t, testUserID, transitions[0].UserID)
	})

	t.Run("no session restores to SignedOut", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.controller.RestoreSession(context.Background()))
		require.Equal(t, session.StatusSignedOut, f.store.Current().Status)
	})

	t.Run("lookup failure resets to SignedOut", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.CurrentSessionErr = context.DeadlineExceeded

		err := f.controller.RestoreSession(context.Background())
		require.Error(t, err)
		require.Equal(t, apperrors.KindTransient, apperrors.KindOf(err))
		require.Equal(t, session.StatusSignedOut, f.store.Current().Status)
	})
}

func TestObserveSessionChanges(t *testing.T) {
	t.Run("remote revocation signs the session out", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.RegisterWithID(testUserID, testUserEmail, testUserPassword)
		require.NoError(t, f.controller.SubmitLogin(context.Background(), testUserEmail, testUserPassword))

		f.controller.ObserveSessionChanges()
		defer f.controller.Close()

		f.backend.FireSessionChange(nil)
		require.Equal(t, session.StatusSignedOut, f.store.Current().Status)
	})

	t.Run("external sign-in is mirrored", func(t *testing.T) {
		f := setupTestFixture(t)
		f.controller.ObserveSessionChanges()
		defer f.controller.Close()

		f.backend.FireSessionChange(&auth.SessionInfo{UserID: "U9"})

		current := f.store.Current()
		require.Equal(t, session.StatusSignedIn, current.Status)
		require.Equal(t, "U9", current.UserID)
	})

	t.Run("token refresh for the same user publishes nothing", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.RegisterWithID(testUserID, testUserEmail, testUserPassword)
		require.NoError(t, f.controller.SubmitLogin(context.Background(), testUserEmail, testUserPassword))

		f.controller.ObserveSessionChanges()
		defer f.controller.Close()

		publishes := 0
		f.store.Subscribe(func(session.Session) { publishes++ })

		f.backend.FireSessionChange(&auth.SessionInfo{UserID: testUserID})
		require.Zero(t, publishes)
	})

	t.Run("changes are dropped after Close", func(t *testing.T) {
		f := setupTestFixture(t)
		f.controller.ObserveSessionChanges()
		f.controller.Close()

		f.backend.FireSessionChange(&auth.SessionInfo{UserID: "U9"})
		require.Equal(t, session.StatusSignedOut, f.store.Current().Status)
	})
}
