// ABOUTME: Authenticated HTTP client for the backend's edge functions
// ABOUTME: Bearer tokens come from the auth session through an oauth2 transport
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// maxErrorBody caps how much of a failed response is kept for the error.
const maxErrorBody = 512

// Client issues authenticated requests against /functions/v1.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a client whose requests carry the anon key in the apikey
// header and the session's access token as a bearer token.
func NewClient(baseURL, anonKey string, auth *AuthClient, opts ...Option) *Client {
	o := buildOptions(opts)
	base := o.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	transport := &oauth2.Transport{
		Source: auth.TokenSource(context.Background()),
		Base:   &apiKeyTransport{key: anonKey, base: base},
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   o.http.Timeout,
		},
		logger: o.logger,
	}
}

// FunctionURL returns the endpoint URL of an edge function.
func (c *Client) FunctionURL(name string) string {
	return c.baseURL + "/functions/v1/" + strings.TrimLeft(name, "/")
}

func (c *Client) HTTPClient() *http.Client { return c.http }

type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.key == "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("apikey", t.key)
	return t.base.RoundTrip(clone)
}

// doJSON sends req and decodes a 2xx body into dst. Everything else maps to
// ErrUnavailable.
func doJSON(client *http.Client, req *http.Request, dst any) error {
	op := req.Method + " " + req.URL.Path
	resp, err := client.Do(req)
	if err != nil {
		return unavailable(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     req.Method,
			URL:        req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return unavailable(op, err)
	}
	if raw, ok := dst.(*json.RawMessage); ok {
		if len(strings.TrimSpace(string(data))) == 0 {
			*raw = nil
			return nil
		}
		if !json.Valid(data) {
			return unavailable(op, fmt.Errorf("invalid json body"))
		}
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return unavailable(op, fmt.Errorf("decode body: %w", err))
	}
	return nil
}

func asStatus(err error, target **StatusError) bool {
	return errors.As(err, target)
}
