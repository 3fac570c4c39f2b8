package httpbackend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/snapgram/go-feed-core/auth"
	"golang.org/x/oauth2"
)

// refreshLeeway is how long before token expiry the refresh fires.
const refreshLeeway = 30 * time.Second

var _ auth.Backend = (*AuthClient)(nil)

// AuthClientConfig holds the connection settings for the identity provider.
type AuthClientConfig struct {
	BaseURL string // e.g. "https://project.example.co"
	APIKey  string // publishable key sent with every request

	// Issuer enables OIDC verification of access tokens. Empty disables
	// verification; token claims are still parsed for the subject.
	Issuer string

	HTTPClient *http.Client
}

// AuthClient talks to a REST identity provider. Sign-in is an OAuth2
// password grant; the returned access token's subject claim identifies the
// user. A background loop refreshes the token shortly before expiry and
// reports each refresh (and any refresh failure, as a revocation) through
// OnSessionChange.
type AuthClient struct {
	cfg      AuthClientConfig
	http     *http.Client
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
	log      zerolog.Logger

	lock          sync.Mutex
	token         *oauth2.Token
	userID        string
	callbacks     map[int]auth.SessionChange
	nextCallback  int
	refreshCancel context.CancelFunc
}

// AuthClientOption defines a function type to modify the AuthClient instance.
type AuthClientOption func(*AuthClient)

// WithAuthLogger sets the client's logger.
func WithAuthLogger(log zerolog.Logger) AuthClientOption {
	return func(c *AuthClient) {
		c.log = log
	}
}

// NewAuthClient initializes a new AuthClient. When cfg.Issuer is set, the
// provider's OIDC discovery document is fetched and access tokens are
// verified against its keys.
func NewAuthClient(ctx context.Context, cfg AuthClientConfig, options ...AuthClientOption) (*AuthClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("[NewAuthClient] base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("[NewAuthClient] API key is required")
	}

	client := &AuthClient{
		cfg:       cfg,
		http:      cfg.HTTPClient,
		log:       zerolog.Nop(),
		callbacks: make(map[int]auth.SessionChange),
	}
	if client.http == nil {
		client.http = defaultHTTPClient()
	}

	client.oauth = &oauth2.Config{
		ClientID: cfg.APIKey,
		Endpoint: oauth2.Endpoint{
			TokenURL:  strings.TrimRight(cfg.BaseURL, "/") + "/auth/v1/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	if cfg.Issuer != "" {
		provider, err := oidc.NewProvider(oidc.ClientContext(ctx, client.http), cfg.Issuer)
		if err != nil {
			return nil, errors.Wrap(err, "[NewAuthClient] oidc discovery")
		}
		client.verifier = provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

type signUpRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

type signUpResponse struct {
	ID   string `json:"id"`
	User *struct {
		ID string `json:"id"`
	} `json:"user"`
}

// SignUp creates an identity. The provider may require email confirmation
// before the identity is usable; no session is established here.
func (c *AuthClient) SignUp(ctx context.Context, email, password string, meta auth.SignUpMetadata) (*auth.SessionInfo, error) {
	payload := signUpRequest{
		Email:    email,
		Password: password,
		Data: map[string]any{
			"username": meta.Username,
		},
	}
	if meta.DisplayName != "" {
		payload.Data["display_name"] = meta.DisplayName
	}

	req, err := newJSONRequest(ctx, http.MethodPost, c.endpoint("/auth/v1/signup"), c.cfg.APIKey, "", payload)
	if err != nil {
		return nil, errors.Wrap(err, "[SignUp]")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[SignUp] request failed")
	}
	body := readBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrap(statusError(resp.StatusCode, body), "[SignUp]")
	}

	var decoded signUpResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.Wrap(err, "[SignUp] decode response")
	}
	userID := decoded.ID
	if userID == "" && decoded.User != nil {
		userID = decoded.User.ID
	}
	if userID == "" {
		return nil, errors.New("[SignUp] response carried no user id")
	}
	return &auth.SessionInfo{UserID: userID}, nil
}

// SignIn performs the password grant and starts the refresh loop.
func (c *AuthClient) SignIn(ctx context.Context, email, password string) (*auth.SessionInfo, error) {
	token, err := c.oauth.PasswordCredentialsToken(c.oauthContext(ctx), email, password)
	if err != nil {
		return nil, errors.Wrap(err, "[SignIn] password grant")
	}

	userID, err := c.subjectOf(ctx, token.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[SignIn]")
	}

	c.lock.Lock()
	c.token = token
	c.userID = userID
	c.restartRefreshLocked()
	c.lock.Unlock()

	return &auth.SessionInfo{UserID: userID}, nil
}

// SignOut revokes the session remotely and always clears local token state,
// even when the remote call fails.
func (c *AuthClient) SignOut(ctx context.Context) error {
	c.lock.Lock()
	token := c.token
	c.token = nil
	c.userID = ""
	if c.refreshCancel != nil {
		c.refreshCancel()
		c.refreshCancel = nil
	}
	c.lock.Unlock()

	if token == nil {
		return nil
	}

	req, err := newJSONRequest(ctx, http.MethodPost, c.endpoint("/auth/v1/logout"), c.cfg.APIKey, token.AccessToken, nil)
	if err != nil {
		return errors.Wrap(err, "[SignOut]")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "[SignOut] request failed")
	}
	body := readBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Wrap(statusError(resp.StatusCode, body), "[SignOut]")
	}
	return nil
}

// CurrentSession reports the locally held session, refreshing it first when
// the access token has expired but a refresh token remains.
func (c *AuthClient) CurrentSession(ctx context.Context) (*auth.SessionInfo, error) {
	c.lock.Lock()
	token := c.token
	userID := c.userID
	c.lock.Unlock()

	if token == nil {
		return nil, nil
	}
	if token.Valid() {
		return &auth.SessionInfo{UserID: userID}, nil
	}
	if token.RefreshToken == "" {
		return nil, nil
	}

	info, err := c.refresh(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[CurrentSession] refresh")
	}
	return info, nil
}

// OnSessionChange registers cb for refresh and revocation events.
func (c *AuthClient) OnSessionChange(cb auth.SessionChange) func() {
	c.lock.Lock()
	defer c.lock.Unlock()
	id := c.nextCallback
	c.nextCallback++
	c.callbacks[id] = cb
	return func() {
		c.lock.Lock()
		defer c.lock.Unlock()
		delete(c.callbacks, id)
	}
}

// AccessToken returns the current bearer token, or "" when signed out.
// The content client uses this to authenticate row-level access.
func (c *AuthClient) AccessToken() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.token == nil {
		return ""
	}
	return c.token.AccessToken
}

// Close stops the background refresh loop.
func (c *AuthClient) Close() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.refreshCancel != nil {
		c.refreshCancel()
		c.refreshCancel = nil
	}
}

func (c *AuthClient) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

// oauthContext routes the oauth2 package's requests through our HTTP client.
func (c *AuthClient) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

// subjectOf extracts the user ID from an access token, verifying the token
// against the OIDC provider when one is configured.
func (c *AuthClient) subjectOf(ctx context.Context, rawToken string) (string, error) {
	if c.verifier != nil {
		verified, err := c.verifier.Verify(oidc.ClientContext(ctx, c.http), rawToken)
		if err != nil {
			return "", errors.Wrap(err, "verify access token")
		}
		if verified.Subject == "" {
			return "", errors.New("verified token carried no subject")
		}
		return verified.Subject, nil
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return "", errors.Wrap(err, "parse access token")
	}
	if claims.Subject == "" {
		return "", errors.New("access token carried no subject")
	}
	return claims.Subject, nil
}

// restartRefreshLocked restarts the refresh loop for the current token.
// Caller holds c.lock.
func (c *AuthClient) restartRefreshLocked() {
	if c.refreshCancel != nil {
		c.refreshCancel()
	}
	if c.token == nil || c.token.Expiry.IsZero() || c.token.RefreshToken == "" {
		c.refreshCancel = nil
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.refreshCancel = cancel
	go c.refreshLoop(ctx)
}

func (c *AuthClient) refreshLoop(ctx context.Context) {
	for {
		c.lock.Lock()
		token := c.token
		c.lock.Unlock()
		if token == nil || token.Expiry.IsZero() {
			return
		}

		wait := time.Until(token.Expiry) - refreshLeeway
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		info, err := c.refresh(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// The provider would not renew the session; report it ended.
			c.log.Warn().Err(err).Msg("token refresh failed, session ended")
			c.lock.Lock()
			c.token = nil
			c.userID = ""
			c.refreshCancel = nil
			c.lock.Unlock()
			c.fire(nil)
			return
		}

		c.log.Debug().Str("user_id", info.UserID).Msg("token refreshed")
		c.fire(info)
	}
}

// refresh exchanges the refresh token for a new token pair and updates local
// state.
func (c *AuthClient) refresh(ctx context.Context) (*auth.SessionInfo, error) {
	c.lock.Lock()
	token := c.token
	c.lock.Unlock()
	if token == nil {
		return nil, errors.New("no session to refresh")
	}

	if token.RefreshToken == "" {
		return nil, errors.New("no refresh token")
	}

	// Hand the token source only the refresh token so it performs a real
	// exchange instead of returning the still-valid access token.
	refreshed, err := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: token.RefreshToken}).Token()
	if err != nil {
		return nil, err
	}

	userID, err := c.subjectOf(ctx, refreshed.AccessToken)
	if err != nil {
		return nil, err
	}

	c.lock.Lock()
	c.token = refreshed
	c.userID = userID
	c.lock.Unlock()

	return &auth.SessionInfo{UserID: userID}, nil
}

func (c *AuthClient) fire(info *auth.SessionInfo) {
	c.lock.Lock()
	callbacks := make([]auth.SessionChange, 0, len(c.callbacks))
	for _, cb := range c.callbacks {
		callbacks = append(callbacks, cb)
	}
	c.lock.Unlock()

	for _, cb := range callbacks {
		cb(info)
	}
}
