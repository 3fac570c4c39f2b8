package httpbackend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/snapgram/go-feed-core/content"
	"github.com/snapgram/go-feed-core/internal/utils"
)

var _ content.Backend = (*ContentClient)(nil)

// ContentClientConfig holds the connection settings for the content store.
type ContentClientConfig struct {
	BaseURL string
	APIKey  string

	// AccessToken supplies the viewer's bearer token per request so row
	// level security applies. Wire it to AuthClient.AccessToken. Empty
	// results fall back to anonymous access.
	AccessToken func() string

	HTTPClient *http.Client
}

// ContentClient talks to a PostgREST-style content API: profile rows, plus
// like and save rows keyed by (item, viewer). Like writes go through an RPC
// that returns the authoritative like count in the same round trip.
type ContentClient struct {
	cfg  ContentClientConfig
	http *http.Client
	log  zerolog.Logger
}

// ContentClientOption defines a function type to modify the ContentClient instance.
type ContentClientOption func(*ContentClient)

// WithContentLogger sets the client's logger.
func WithContentLogger(log zerolog.Logger) ContentClientOption {
	return func(c *ContentClient) {
		c.log = log
	}
}

// NewContentClient initializes a new ContentClient.
func NewContentClient(cfg ContentClientConfig, options ...ContentClientOption) (*ContentClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("[NewContentClient] base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("[NewContentClient] API key is required")
	}

	client := &ContentClient{
		cfg:  cfg,
		http: cfg.HTTPClient,
		log:  zerolog.Nop(),
	}
	if client.http == nil {
		client.http = defaultHTTPClient()
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

// UsernameExists queries the profiles table for the username.
func (c *ContentClient) UsernameExists(ctx context.Context, username string) (bool, error) {
	endpoint := c.endpoint("/rest/v1/profiles") +
		"?select=id&limit=1&username=eq." + url.QueryEscape(username)

	req, err := newJSONRequest(ctx, http.MethodGet, endpoint, c.cfg.APIKey, c.bearer(), nil)
	if err != nil {
		return false, errors.Wrap(err, "[UsernameExists]")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "[UsernameExists] request failed")
	}
	body := readBody(resp)
	if resp.StatusCode != http.StatusOK {
		return false, errors.Wrap(statusError(resp.StatusCode, body), "[UsernameExists]")
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return false, errors.Wrap(err, "[UsernameExists] decode response")
	}
	return len(rows) > 0, nil
}

type profileRow struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"display_name,omitempty"` // nullable column
}

// InsertProfile inserts the profile row keyed by the identity's ID. A
// duplicate reports content.AlreadyExistsErr, which callers treat as
// success; the row may already exist via a server-side trigger.
func (c *ContentClient) InsertProfile(ctx context.Context, userID, username, displayName string) error {
	row := profileRow{ID: userID, Username: username}
	if displayName != "" {
		row.DisplayName = utils.Ptr(displayName)
	}
	req, err := newJSONRequest(ctx, http.MethodPost, c.endpoint("/rest/v1/profiles"), c.cfg.APIKey, c.bearer(), row)
	if err != nil {
		return errors.Wrap(err, "[InsertProfile]")
	}
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "[InsertProfile] request failed")
	}
	body := readBody(resp)
	switch {
	case resp.StatusCode == http.StatusConflict:
		return content.AlreadyExistsErr
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return errors.Wrap(statusError(resp.StatusCode, body), "[InsertProfile]")
	}
	return nil
}

type setLikedRequest struct {
	ItemID string `json:"item_id"`
	Liked  bool   `json:"liked"`
}

type setLikedResponse struct {
	LikeCount int `json:"like_count"`
}

// SetLiked writes the viewer's like state through an RPC that returns the
// authoritative count, so the cached count can be corrected in one round
// trip.
func (c *ContentClient) SetLiked(ctx context.Context, itemID string, liked bool) (*content.LikeResult, error) {
	req, err := newJSONRequest(ctx, http.MethodPost, c.endpoint("/rest/v1/rpc/set_liked"), c.cfg.APIKey, c.bearer(), setLikedRequest{
		ItemID: itemID,
		Liked:  liked,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[SetLiked]")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[SetLiked] request failed")
	}
	body := readBody(resp)
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrap(statusError(resp.StatusCode, body), "[SetLiked]")
	}

	var decoded setLikedResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.Wrap(err, "[SetLiked] decode response")
	}
	return &content.LikeResult{AuthoritativeCount: decoded.LikeCount}, nil
}

type saveRow struct {
	ItemID string `json:"item_id"`
}

// SetSaved inserts or deletes the viewer's save row. Saving an already
// saved item and unsaving a never-saved one are both acks.
func (c *ContentClient) SetSaved(ctx context.Context, itemID string, saved bool) error {
	var req *http.Request
	var err error
	if saved {
		req, err = newJSONRequest(ctx, http.MethodPost, c.endpoint("/rest/v1/saves"), c.cfg.APIKey, c.bearer(), saveRow{ItemID: itemID})
		if err == nil {
			req.Header.Set("Prefer", "resolution=ignore-duplicates,return=minimal")
		}
	} else {
		endpoint := c.endpoint("/rest/v1/saves") + "?item_id=eq." + url.QueryEscape(itemID)
		req, err = newJSONRequest(ctx, http.MethodDelete, endpoint, c.cfg.APIKey, c.bearer(), nil)
	}
	if err != nil {
		return errors.Wrap(err, "[SetSaved]")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "[SetSaved] request failed")
	}
	body := readBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Wrap(statusError(resp.StatusCode, body), "[SetSaved]")
	}
	return nil
}

func (c *ContentClient) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func (c *ContentClient) bearer() string {
	if c.cfg.AccessToken == nil {
		return ""
	}
	return c.cfg.AccessToken()
}
