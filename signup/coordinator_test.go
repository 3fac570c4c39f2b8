package signup_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	authfakes "github.com/snapgram/go-feed-core/auth/backendfakes"
	"github.com/snapgram/go-feed-core/content"
	contentfakes "github.com/snapgram/go-feed-core/content/backendfakes"
	apperrors "github.com/snapgram/go-feed-core/internal/errors"
	"github.com/snapgram/go-feed-core/signup"
	"github.com/stretchr/testify/require"
)

type coordinatorFixture struct {
	authBackend    *authfakes.FakeBackend
	contentBackend *contentfakes.FakeBackend
	coordinator    *signup.Coordinator
}

func setupCoordinator(t *testing.T) *coordinatorFixture {
	t.Helper()

	authBackend := authfakes.NewFakeBackend()
	contentBackend := contentfakes.NewFakeBackend()
	coordinator, err := signup.NewCoordinator(signup.Backends{
		Auth:    authBackend,
		Content: contentBackend,
	})
	require.NoError(t, err)

	return &coordinatorFixture{
		authBackend:    authBackend,
		contentBackend: contentBackend,
		coordinator:    coordinator,
	}
}

func TestNewCoordinator_RequiresBackends(t *testing.T) {
	_, err := signup.NewCoordinator(signup.Backends{Content: contentfakes.NewFakeBackend()})
	require.Error(t, err)

	_, err = signup.NewCoordinator(signup.Backends{Auth: authfakes.NewFakeBackend()})
	require.Error(t, err)
}

func TestSignUp_Success(t *testing.T) {
	f := setupCoordinator(t)

	outcome, err := f.coordinator.SignUp(context.Background(), validDraft())
	require.NoError(t, err)
	require.NotEmpty(t, outcome.UserID)
	require.Equal(t, "Check your email to confirm your account.", outcome.Confirmation)
	require.NoError(t, outcome.ProfileWarning)

	require.True(t, f.contentBackend.HasProfile(outcome.UserID))
	require.Equal(t, 1, f.authBackend.SignUpCalls)
}

func TestSignUp_ValidationShortCircuitsBeforeNetwork(t *testing.T) {
	f := setupCoordinator(t)

	d := validDraft()
	d.Username = "jo"

	_, err := f.coordinator.SignUp(context.Background(), d)
	require.Error(t, err)
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	require.Equal(t, "username", apperrors.FieldOf(err))

	require.Zero(t, f.authBackend.SignUpCalls)
	require.Zero(t, f.contentBackend.InsertProfileCalls)
}

func TestSignUp_TakenUsernameNeverCreatesIdentity(t *testing.T) {
	f := setupCoordinator(t)
	f.contentBackend.TakeUsername("jo.doe")

	_, err := f.coordinator.SignUp(context.Background(), validDraft())
	require.Error(t, err)
	require.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	require.Equal(t, "username", apperrors.FieldOf(err))

	require.Zero(t, f.authBackend.SignUpCalls)
}

func TestSignUp_IdentityCreationFailureStopsPipeline(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind apperrors.Kind
	}{
		{"duplicate email", "User already registered", apperrors.KindConflict},
		{"weak password", "Password should be at least 6 characters", apperrors.KindValidation},
		{"signups disabled", "Signups not allowed for this instance", apperrors.KindFatalConfig},
		{"network failure", "dial tcp: i/o timeout", apperrors.KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupCoordinator(t)
			f.authBackend.SignUpErr = errors.New(tt.raw)

			_, err := f.coordinator.SignUp(context.Background(), validDraft())
			require.Error(t, err)
			require.Equal(t, tt.wantKind, apperrors.KindOf(err))

			// No profile row is created when identity creation fails.
			require.Zero(t, f.contentBackend.InsertProfileCalls)
		})
	}
}

func TestSignUp_ExistingProfileRowIsSuccess(t *testing.T) {
	f := setupCoordinator(t)

	// A server-side trigger may have created the row already; the insert
	// reports the duplicate and the attempt is still a success.
	f.contentBackend.InsertProfileErr = content.AlreadyExistsErr

	outcome, err := f.coordinator.SignUp(context.Background(), validDraft())
	require.NoError(t, err)
	require.NotEmpty(t, outcome.UserID)
	require.NoError(t, outcome.ProfileWarning)
	require.Equal(t, 1, f.contentBackend.InsertProfileCalls)
}

func TestSignUp_ProfileInsertFailureIsNonFatalWarning(t *testing.T) {
	f := setupCoordinator(t)
	f.contentBackend.InsertProfileErr = errors.New("connection reset by peer")

	outcome, err := f.coordinator.SignUp(context.Background(), validDraft())
	require.NoError(t, err)
	require.NotEmpty(t, outcome.UserID)
	require.Error(t, outcome.ProfileWarning)
	require.Equal(t, apperrors.KindTransient, apperrors.KindOf(outcome.ProfileWarning))
}

func TestSignUp_UsernameCheckFailurePropagates(t *testing.T) {
	f := setupCoordinator(t)
	f.contentBackend.UsernameExistsErr = errors.New("dial tcp: i/o timeout")

	_, err := f.coordinator.SignUp(context.Background(), validDraft())
	require.Error(t, err)
	require.Equal(t, apperrors.KindTransient, apperrors.KindOf(err))
	require.Zero(t, f.authBackend.SignUpCalls)
}
