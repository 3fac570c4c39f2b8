package signup

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/snapgram/go-feed-core/auth"
	"github.com/snapgram/go-feed-core/content"
	apperrors "github.com/snapgram/go-feed-core/internal/errors"
)

// Backends holds the two collaborator seams the Coordinator writes through.
type Backends struct {
	Auth    auth.Backend
	Content content.Backend
}

// Coordinator runs the sign-up sequence. Each step gates the next: local
// validation, username availability, identity creation, profile row insert.
// The username is checked before any identity is created so a taken name
// never leaves an orphaned auth user behind.
type Coordinator struct {
	backends Backends
	log      zerolog.Logger
}

// CoordinatorOption defines a function type to modify the Coordinator instance.
type CoordinatorOption func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(log zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.log = log
	}
}

// NewCoordinator initializes a new Coordinator with required dependencies.
func NewCoordinator(backends Backends, options ...CoordinatorOption) (*Coordinator, error) {
	if backends.Auth == nil {
		return nil, errors.New("[NewCoordinator] auth backend is required")
	}
	if backends.Content == nil {
		return nil, errors.New("[NewCoordinator] content backend is required")
	}

	coordinator := &Coordinator{
		backends: backends,
		log:      zerolog.Nop(),
	}

	for _, opt := range options {
		opt(coordinator)
	}

	return coordinator, nil
}

// Outcome is the result of a successful sign-up attempt. The session is not
// transitioned: most providers require email confirmation before a session
// is usable, so navigation stays where it is and Confirmation is shown to
// the user. ProfileWarning is set when the profile row insert failed; the
// attempt still counts as success because the row is created idempotently
// and the server-side trigger can retry it.
type Outcome struct {
	UserID         string
	Confirmation   string
	ProfileWarning error
}

// SignUp executes one sign-up attempt for the given draft.
func (c *Coordinator) SignUp(ctx context.Context, draft ProfileDraft) (*Outcome, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(draft.Username)

	taken, err := c.backends.Content.UsernameExists(ctx, username)
	if err != nil {
		return nil, errors.Wrap(auth.ClassifyBackendError(err), "[SignUp] usernameExists")
	}
	if taken {
		return nil, &apperrors.Classified{Kind: apperrors.KindConflict, Field: "username", Message: "this username is already taken"}
	}

	info, err := c.backends.Auth.SignUp(ctx, strings.TrimSpace(draft.Email), draft.Password, auth.SignUpMetadata{
		Username:    username,
		DisplayName: draft.DisplayName,
	})
	if err != nil {
		return nil, errors.Wrap(auth.ClassifyBackendError(err), "[SignUp] backend.SignUp")
	}

	outcome := &Outcome{
		UserID:       info.UserID,
		Confirmation: "Check your email to confirm your account.",
	}

	// Insert-or-ignore keyed by user ID: some backends create the row via a
	// trigger fired by identity creation, so "already exists" is success.
	if err := c.backends.Content.InsertProfile(ctx, info.UserID, username, draft.DisplayName); err != nil && !errors.Is(err, content.AlreadyExistsErr) {
		c.log.Warn().Err(err).Str("user_id", info.UserID).Msg("profile row insert failed after identity creation")
		outcome.ProfileWarning = auth.ClassifyBackendError(err)
	}

	return outcome, nil
}
