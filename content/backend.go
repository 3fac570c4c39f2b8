// Package content defines the seam to the remote content store: profile
// rows and the per-viewer like/save state of feed items.
package content

import (
	"context"
	"errors"
)

// AlreadyExistsErr is returned by InsertProfile when the row is already
// present, e.g. created by a server-side trigger during identity creation.
// Callers treat it as success.
var AlreadyExistsErr = errors.New("row already exists")

// LikeResult carries the backend's authoritative like count after a write.
type LikeResult struct {
	AuthoritativeCount int
}

// Backend is the seam to the remote content store.
type Backend interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	InsertProfile(ctx context.Context, userID, username, displayName string) error
	SetLiked(ctx context.Context, itemID string, liked bool) (*LikeResult, error)
	SetSaved(ctx context.Context, itemID string, saved bool) error
}
