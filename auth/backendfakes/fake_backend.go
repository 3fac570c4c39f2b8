package backendfakes

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/snapgram/go-feed-core/auth"
	"golang.org/x/crypto/bcrypt"
)

var _ auth.Backend = (*FakeBackend)(nil)

type registeredUser struct {
	ID           string
	Email        string
	PasswordHash string
	Username     string
	DisplayName  string
}

// FakeBackend is an in-memory identity provider. Passwords are bcrypt-hashed
// like a real provider would. Error fields, when set, are returned by the
// corresponding call; SignInGate, when non-nil, blocks SignIn until the gate
// is closed so tests can hold an attempt in flight.
type FakeBackend struct {
	lock         sync.Mutex
	usersByEmail map[string]*registeredUser
	current      *auth.SessionInfo
	callbacks    map[int]auth.SessionChange
	nextCallback int

	SignUpErr         error
	SignInErr         error
	SignOutErr        error
	CurrentSessionErr error
	SignInGate        chan struct{}

	SignUpCalls  int
	SignInCalls  int
	SignOutCalls int
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		usersByEmail: make(map[string]*registeredUser),
		callbacks:    make(map[int]auth.SessionChange),
	}
}

// Register seeds a user and returns its generated ID.
func (fb *FakeBackend) Register(email, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	fb.lock.Lock()
	defer fb.lock.Unlock()
	id := uuid.New().String()
	fb.usersByEmail[email] = &registeredUser{ID: id, Email: email, PasswordHash: string(hash)}
	return id
}

// RegisterWithID seeds a user with a fixed ID.
func (fb *FakeBackend) RegisterWithID(id, email, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	fb.lock.Lock()
	defer fb.lock.Unlock()
	fb.usersByEmail[email] = &registeredUser{ID: id, Email: email, PasswordHash: string(hash)}
}

func (fb *FakeBackend) SignUp(ctx context.Context, email, password string, meta auth.SignUpMetadata) (*auth.SessionInfo, error) {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	fb.SignUpCalls++

	if fb.SignUpErr != nil {
		return nil, fb.SignUpErr
	}
	if _, ok := fb.usersByEmail[email]; ok {
		return nil, errors.New("user already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	id := uuid.New().String()
	fb.usersByEmail[email] = &registeredUser{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
		Username:     meta.Username,
		DisplayName:  meta.DisplayName,
	}
	return &auth.SessionInfo{UserID: id}, nil
}

func (fb *FakeBackend) SignIn(ctx context.Context, email, password string) (*auth.SessionInfo, error) {
	fb.lock.Lock()
	gate := fb.SignInGate
	fb.SignInCalls++
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

	if fb.SignInErr != nil {
		return nil, fb.SignInErr
	}

	user, ok := fb.usersByEmail[email]
	if !ok {
		return nil, errors.New("invalid login credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errors.New("invalid login credentials")
	}

	fb.current = &auth.SessionInfo{UserID: user.ID}
	return &auth.SessionInfo{UserID: user.ID}, nil
}

func (fb *FakeBackend) SignOut(ctx context.Context) error {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	fb.SignOutCalls++

	if fb.SignOutErr != nil {
		return fb.SignOutErr
	}
	fb.current = nil
	return nil
}

func (fb *FakeBackend) CurrentSession(ctx context.Context) (*auth.SessionInfo, error) {
	fb.lock.Lock()
	defer fb.lock.Unlock()

	if fb.CurrentSessionErr != nil {
		return nil, fb.CurrentSessionErr
	}
	if fb.current == nil {
		return nil, nil
	}
	info := *fb.current
	return &info, nil
}

func (fb *FakeBackend) OnSessionChange(cb auth.SessionChange) func() {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	id := fb.nextCallback
	fb.nextCallback++
	fb.callbacks[id] = cb
	return func() {
		fb.lock.Lock()
		defer fb.lock.Unlock()
		delete(fb.callbacks, id)
	}
}

// FireSessionChange delivers an out-of-band session change to every
// registered callback, as the real backend does on refresh or revocation.
func (fb *FakeBackend) FireSessionChange(info *auth.SessionInfo) {
	fb.lock.Lock()
	fb.current = info
	callbacks := make([]auth.SessionChange, 0, len(fb.callbacks))
	for _, cb := range fb.callbacks {
		callbacks = append(callbacks, cb)
	}
	fb.lock.Unlock()

	for _, cb := range callbacks {
		cb(info)
	}
}
