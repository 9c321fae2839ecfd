package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Collection is one module's remote endpoint: GET lists, POST creates or
// updates, DELETE /<id> removes.
type Collection[T any] struct {
	client   *Client
	endpoint string
	envelope string
	item     string
}

// NewCollection binds the edge function name. envelope is the list key the
// endpoint may wrap results in (e.g. "tasks"); item is the key a saved record
// may come back under (e.g. "task").
func NewCollection[T any](client *Client, function, envelope, item string) *Collection[T] {
	return &Collection[T]{
		client:   client,
		endpoint: client.FunctionURL(function),
		envelope: envelope,
		item:     item,
	}
}

func (c *Collection[T]) Endpoint() string { return c.endpoint }

// List accepts either a bare JSON array or an object carrying the array under
// the envelope key.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var raw json.RawMessage
	if err := doJSON(c.client.http, req, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, unavailable("GET "+c.endpoint, fmt.Errorf("empty body"))
	}

	var items []T
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, unavailable("GET "+c.endpoint, err)
		}
		return nonNil(items), nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, unavailable("GET "+c.endpoint, err)
	}
	if err := envelopeError(wrapped); err != nil {
		return nil, unavailable("GET "+c.endpoint, err)
	}
	list, ok := wrapped[c.envelope]
	if !ok {
		return nil, unavailable("GET "+c.endpoint, fmt.Errorf("response has no %q field", c.envelope))
	}
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, unavailable("GET "+c.endpoint, err)
	}
	return nonNil(items), nil
}

// Save posts item. The response may be the saved record, the record under the
// item key, or empty, in which case item is echoed back.
func (c *Collection[T]) Save(ctx context.Context, item T) (T, error) {
	var zero T
	payload, err := json.Marshal(item)
	if err != nil {
		return zero, fmt.Errorf("failed to encode record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return zero, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var raw json.RawMessage
	if err := doJSON(c.client.http, req, &raw); err != nil {
		return zero, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return item, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return zero, unavailable("POST "+c.endpoint, err)
	}
	if err := envelopeError(wrapped); err != nil {
		return zero, unavailable("POST "+c.endpoint, err)
	}
	body := json.RawMessage(trimmed)
	if inner, ok := wrapped[c.item]; ok && c.item != "" {
		body = inner
	} else if _, ok := wrapped["success"]; ok {
		return item, nil
	}

	saved := item
	if err := json.Unmarshal(body, &saved); err != nil {
		return zero, unavailable("POST "+c.endpoint, err)
	}
	return saved, nil
}

// Delete removes id remotely.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint+"/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return doJSON(c.client.http, req, nil)
}

// envelopeError reports a 2xx body that still signals failure with a
// non-null "error" field or "success": false.
func envelopeError(wrapped map[string]json.RawMessage) error {
	if msg, ok := wrapped["error"]; ok && string(bytes.TrimSpace(msg)) != "null" {
		return fmt.Errorf("backend error: %s", msg)
	}
	if flag, ok := wrapped["success"]; ok && string(bytes.TrimSpace(flag)) == "false" {
		return fmt.Errorf("backend reported success=false")
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
