// Package httpbackend implements the auth and content backend seams against
// a REST identity provider and content store (GoTrue/PostgREST style API).
package httpbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	apperrors "github.com/snapgram/go-feed-core/internal/errors"
)

const defaultTimeout = 30 * time.Second

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// newJSONRequest builds a request with the standard headers every backend
// call carries: the API key, a per-request ID, and a bearer token when one
// is available.
func newJSONRequest(ctx context.Context, method, url, apiKey, bearer string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	req.Header.Set("apikey", apiKey)
	req.Header.Set("X-Request-ID", uuid.New().String())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req, nil
}

// statusError turns a non-2xx response into an error whose text keeps the
// backend's own message, so the auth layer's substring classification can
// see it. Server-side failures are classified transient here.
func statusError(status int, body []byte) error {
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = http.StatusText(status)
	}

	raw := errors.Errorf("%s (status %d): %s", strings.ToLower(http.StatusText(status)), status, message)
	if status >= 500 || status == http.StatusTooManyRequests {
		return apperrors.Transient("The server had a problem. Please try again.", raw)
	}
	return raw
}

func readBody(resp *http.Response) []byte {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return body
}
