// Package signup executes the account creation pipeline: local validation,
// username availability, identity creation and the idempotent profile row
// insert.
package signup

// ProfileDraft is the ephemeral input of one sign-up attempt. It is owned by
// the Coordinator for the duration of the attempt and discarded afterwards.
type ProfileDraft struct {
	Email           string
	Password        string
	PasswordConfirm string
	Username        string
	DisplayName     string // optional
}
