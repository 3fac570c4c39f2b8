package session_test

import (
	"errors"
	"testing"

	"github.com/snapgram/go-feed-core/session"
	"github.com/stretchr/testify/require"
)

func TestStore_StartsSignedOut(t *testing.T) {
	store := session.NewStore()
	require.Equal(t, session.StatusSignedOut, store.Current().Status)
	require.Empty(t, store.Current().UserID)
}

func TestStore_SetNotifiesListeners(t *testing.T) {
	store := session.NewStore()

	var seen []session.Session
	store.Subscribe(func(s session.Session) {
		seen = append(seen, s)
	})

	store.Set(session.Authenticating())
	store.Set(session.SignedIn("user-1"))

	require.Len(t, seen, 2)
	require.Equal(t, session.StatusAuthenticating, seen[0].Status)
	require.Equal(t, session.StatusSignedIn, seen[1].Status)
	require.Equal(t, "user-1", seen[1].UserID)
}

func TestStore_Unsubscribe(t *testing.T) {
	store := session.NewStore()

	calls := 0
	id := store.Subscribe(func(session.Session) { calls++ })

	store.Set(session.Authenticating())
	store.Unsubscribe(id)
	store.Set(session.SignedOut())

	require.Equal(t, 1, calls)
}

func TestStore_ListenerMayReadStore(t *testing.T) {
	store := session.NewStore()

	var inside session.Session
	store.Subscribe(func(session.Session) {
		inside = store.Current()
	})

	store.Set(session.SignedIn("user-2"))
	require.Equal(t, "user-2", inside.UserID)
}

func TestSession_Constructors(t *testing.T) {
	t.Run("signed in carries user id", func(t *testing.T) {
		s := session.SignedIn("U1")
		require.True(t, s.IsSignedIn())
		require.Equal(t, "U1", s.UserID)
	})

	t.Run("auth error carries detail and no user id", func(t *testing.T) {
		cause := errors.New("invalid login credentials")
		s := session.AuthError(cause)
		require.False(t, s.IsSignedIn())
		require.Empty(t, s.UserID)
		require.ErrorIs(t, s.ErrDetail, cause)
	})
}
