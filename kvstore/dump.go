package kvstore

import (
	"context"
	"encoding/json"
	"strings"
)

// Export returns every record under the base prefix keyed by its full storage
// key, the same shape a browser localStorage dump uses.
func (s *Store) Export(ctx context.Context) (map[string]json.RawMessage, error) {
	entries, err := s.GetByPrefix(ctx, "")
	if err != nil {
		return nil, err
	}
	dump := make(map[string]json.RawMessage, len(entries))
	for _, e := range entries {
		dump[s.prefix+e.Key] = e.Value
	}
	return dump, nil
}

// Import writes every dump entry whose key carries the base prefix and
// returns how many were written. Unrelated keys are ignored.
func (s *Store) Import(ctx context.Context, dump map[string]json.RawMessage) (int, error) {
	written := 0
	for fullKey, value := range dump {
		if !strings.HasPrefix(fullKey, s.prefix) {
			continue
		}
		raw := normalizeDumpValue(value)
		if raw == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := s.backend.Set([]byte(fullKey), raw); err != nil {
			return written, &StorageError{Op: "import", Key: fullKey, Err: err}
		}
		written++
	}
	return written, nil
}

// normalizeDumpValue unwraps objects and arrays exported as JSON text
// (localStorage holds serialized strings) and rejects anything that is not JSON.
// Plain strings such as the offline flags stay strings.
func normalizeDumpValue(value json.RawMessage) []byte {
	var text string
	if err := json.Unmarshal(value, &text); err == nil {
		trimmed := strings.TrimSpace(text)
		if (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) && json.Valid([]byte(trimmed)) {
			return []byte(trimmed)
		}
		return []byte(value)
	}
	if json.Valid(value) {
		return []byte(value)
	}
	return nil
}
