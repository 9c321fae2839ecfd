// ABOUTME: Identifier generation for portal records
// ABOUTME: Keeps the task-<ts> and lead-<ts>-<rand> formats used by persisted data
package models

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewTaskID returns task-<unix millis>.
func NewTaskID(now time.Time) string {
	return "task-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// NewLeadID returns lead-<unix millis>-<9 random base36 chars>.
func NewLeadID(now time.Time) string {
	var b strings.Builder
	b.WriteString("lead-")
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('-')
	for i := 0; i < 9; i++ {
		b.WriteByte(base36[rand.IntN(len(base36))])
	}
	return b.String()
}

// NewActivityID returns a lowercase ULID so activities sort by creation time.
func NewActivityID(at time.Time) string {
	if at.IsZero() {
		at = time.Now()
	}
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String())
}

// NewRecordID returns an opaque id for posts and clients.
func NewRecordID() string {
	return uuid.NewString()
}
