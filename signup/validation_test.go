package signup_test

import (
	"testing"

	apperrors "github.com/snapgram/go-feed-core/internal/errors"
	"github.com/snapgram/go-feed-core/signup"
	"github.com/stretchr/testify/require"
)

func validDraft() signup.ProfileDraft {
	return signup.ProfileDraft{
		Email:           "jo@example.com",
		Password:        "secret1",
		PasswordConfirm: "secret1",
		Username:        "jo.doe",
		DisplayName:     "Jo Doe",
	}
}

func TestProfileDraft_Validate(t *testing.T) {
	t.Run("valid draft passes", func(t *testing.T) {
		require.NoError(t, validDraft().Validate())
	})

	t.Run("display name is optional", func(t *testing.T) {
		d := validDraft()
		d.DisplayName = ""
		require.NoError(t, d.Validate())
	})

	tests := []struct {
		name      string
		mutate    func(*signup.ProfileDraft)
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing email",
			mutate:    func(d *signup.ProfileDraft) { d.Email = "" },
			wantField: "email",
			wantMsg:   "email is required",
		},
		{
			name:      "malformed email",
			mutate:    func(d *signup.ProfileDraft) { d.Email = "not-an-email" },
			wantField: "email",
			wantMsg:   "enter a valid email address",
		},
		{
			name:      "email without domain dot",
			mutate:    func(d *signup.ProfileDraft) { d.Email = "jo@localhost" },
			wantField: "email",
			wantMsg:   "enter a valid email address",
		},
		{
			name:      "missing password",
			mutate:    func(d *signup.ProfileDraft) { d.Password = "" },
			wantField: "password",
			wantMsg:   "password is required",
		},
		{
			name:      "short password",
			mutate:    func(d *signup.ProfileDraft) { d.Password, d.PasswordConfirm = "five5", "five5" },
			wantField: "password",
			wantMsg:   "password must be at least 6 characters",
		},
		{
			name:      "confirmation mismatch",
			mutate:    func(d *signup.ProfileDraft) { d.PasswordConfirm = "secret2" },
			wantField: "password_confirm",
			wantMsg:   "passwords do not match",
		},
		{
			name:      "missing username",
			mutate:    func(d *signup.ProfileDraft) { d.Username = "" },
			wantField: "username",
			wantMsg:   "username is required",
		},
		{
			name:      "two character username",
			mutate:    func(d *signup.ProfileDraft) { d.Username = "jo" },
			wantField: "username",
			wantMsg:   "username must be at least 3 characters",
		},
		{
			name:      "username with illegal characters",
			mutate:    func(d *signup.ProfileDraft) { d.Username = "jo doe!" },
			wantField: "username",
			wantMsg:   "username may only contain letters, numbers, dots and underscores",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			err := d.Validate()
			require.Error(t, err)
			require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
			require.Equal(t, tt.wantField, apperrors.FieldOf(err))
			require.Equal(t, tt.wantMsg, apperrors.MessageOf(err))
		})
	}
}
