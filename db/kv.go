// ABOUTME: SQLite implementation of the key-value store backend
// ABOUTME: Alternative to badger for installs that prefer a single database file
package db

import (
	"database/sql"
	"errors"
	"time"
)

// KV stores raw key/value pairs in the kv table.
type KV struct {
	db *sql.DB
}

// OpenKV opens the SQLite file at path as a key-value backend.
func OpenKV(path string) (*KV, error) {
	database, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	return &KV{db: database}, nil
}

// NewKV wraps an already opened database. The schema must exist.
func NewKV(database *sql.DB) *KV {
	return &KV{db: database}
}

func (k *KV) Get(key []byte) ([]byte, error) {
	var value []byte
	err := k.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, string(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (k *KV) Set(key, value []byte) error {
	_, err := k.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, string(key), value, time.Now().UTC())
	return err
}

func (k *KV) Delete(key []byte) error {
	_, err := k.db.Exec(`DELETE FROM kv WHERE key = ?`, string(key))
	return err
}

func (k *KV) Keys() ([][]byte, error) {
	return k.query(`SELECT key FROM kv ORDER BY key`)
}

// KeysWithPrefix lists keys starting with prefix, compared byte for byte.
// SQLite LIKE folds ASCII case, so a range scan is used instead.
func (k *KV) KeysWithPrefix(prefix []byte) ([][]byte, error) {
	if len(prefix) == 0 {
		return k.Keys()
	}
	upper, ok := prefixUpperBound(prefix)
	if !ok {
		return k.query(`SELECT key FROM kv WHERE key >= ? ORDER BY key`, string(prefix))
	}
	return k.query(`SELECT key FROM kv WHERE key >= ? AND key < ? ORDER BY key`, string(prefix), string(upper))
}

func (k *KV) query(q string, args ...any) ([][]byte, error) {
	rows, err := k.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys [][]byte
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, []byte(key))
	}
	return keys, rows.Err()
}

// Close releases the database.
func (k *KV) Close() error {
	return k.db.Close()
}

// prefixUpperBound returns the smallest key greater than every key starting
// with prefix. ok is false when prefix is all 0xff bytes.
func prefixUpperBound(prefix []byte) ([]byte, bool) {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1], true
		}
	}
	return nil, false
}
