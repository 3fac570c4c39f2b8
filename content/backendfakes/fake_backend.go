package backendfakes

import (
	"context"
	"sync"

	"github.com/snapgram/go-feed-core/content"
)

var _ content.Backend = (*FakeBackend)(nil)

// LikeCall records one SetLiked invocation.
type LikeCall struct {
	ItemID string
	Liked  bool
}

// SaveCall records one SetSaved invocation.
type SaveCall struct {
	ItemID string
	Saved  bool
}

type profileRow struct {
	UserID      string
	Username    string
	DisplayName string
}

// FakeBackend is an in-memory content store. Error fields, when set, are
// returned by the corresponding call. WriteGate, when non-nil, blocks
// SetLiked/SetSaved until the gate is closed so tests can hold writes in
// flight. Calls are recorded at entry, before the gate.
type FakeBackend struct {
	lock       sync.Mutex
	usernames  map[string]bool
	profiles   map[string]profileRow
	likeCounts map[string]int

	UsernameExistsErr error
	InsertProfileErr  error
	SetLikedErr       error
	SetSavedErr       error
	WriteGate         chan struct{}

	LikeCalls          []LikeCall
	SaveCalls          []SaveCall
	InsertProfileCalls int
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		usernames:  make(map[string]bool),
		profiles:   make(map[string]profileRow),
		likeCounts: make(map[string]int),
	}
}

// TakeUsername marks a username as taken.
func (fb *FakeBackend) TakeUsername(username string) {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	fb.usernames[username] = true
}

// SeedLikeCount sets the authoritative like count of an item, excluding the
// viewer's own like.
func (fb *FakeBackend) SeedLikeCount(itemID string, count int) {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	fb.likeCounts[itemID] = count
}

// SeedProfile inserts an existing profile row, as a server-side trigger
// would.
func (fb *FakeBackend) SeedProfile(userID, username, displayName string) {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	fb.profiles[userID] = profileRow{UserID: userID, Username: username, DisplayName: displayName}
	fb.usernames[username] = true
}

// HasProfile reports whether a profile row exists for userID.
func (fb *FakeBackend) HasProfile(userID string) bool {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	_, ok := fb.profiles[userID]
	return ok
}

func (fb *FakeBackend) UsernameExists(ctx context.Context, username string) (bool, error) {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	if fb.UsernameExistsErr != nil {
		return false, fb.UsernameExistsErr
	}
	return fb.usernames[username], nil
}

func (fb *FakeBackend) InsertProfile(ctx context.Context, userID, username, displayName string) error {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	fb.InsertProfileCalls++

	if fb.InsertProfileErr != nil {
		return fb.InsertProfileErr
	}
	if _, ok := fb.profiles[userID]; ok {
		return content.AlreadyExistsErr
	}
	fb.profiles[userID] = profileRow{UserID: userID, Username: username, DisplayName: displayName}
	fb.usernames[username] = true
	return nil
}

func (fb *FakeBackend) SetLiked(ctx context.Context, itemID string, liked bool) (*content.LikeResult, error) {
	fb.lock.Lock()
	fb.LikeCalls = append(fb.LikeCalls, LikeCall{ItemID: itemID, Liked: liked})
	gate := fb.WriteGate
	fb.lock.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	fb.lock.Lock()
	defer fb.lock.Unlock()

	if fb.SetLikedErr != nil {
		return nil, fb.SetLikedErr
	}

	count := fb.likeCounts[itemID]
	if liked {
		count++
	}
	return &content.LikeResult{AuthoritativeCount: count}, nil
}

func (fb *FakeBackend) SetSaved(ctx context.Context, itemID string, saved bool) error {
	fb.lock.Lock()
	fb.SaveCalls = append(fb.SaveCalls, SaveCall{ItemID: itemID, Saved: saved})
	gate := fb.WriteGate
	fb.lock.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	fb.lock.Lock()
	defer fb.lock.Unlock()

	if fb.SetSavedErr != nil {
		return fb.SetSavedErr
	}
	return nil
}
