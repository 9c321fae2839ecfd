package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/duoproservices/portal/models"
)

type fakeCalendar struct {
	mu       sync.Mutex
	events   map[string]calendar.Event
	requests []string
}

func (f *fakeCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	var ev calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPost:
		if _, ok := f.events[ev.Id]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":{"code":409,"message":"The requested identifier already exists."}}`))
			return
		}
	case http.MethodPut:
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		ev.Id = id
	}
	f.events[ev.Id] = ev
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ev)
}

func newTestPublisher(t *testing.T) (*Publisher, *fakeCalendar) {
	t.Helper()
	fake := &fakeCalendar{events: map[string]calendar.Event{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	p, err := NewPublisher(context.Background(), nil, "", time.UTC, nil,
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return p, fake
}

func scheduledPost(id string) models.SocialPost {
	return models.SocialPost{
		ID:       id,
		Date:     "2026-03-14",
		Time:     "10:30",
		Platform: models.PlatformLinkedIn,
		Content:  "Filing season is here. Book your appointment today!",
		Status:   models.PostScheduled,
	}
}

func TestPublishCreatesThenUpdates(t *testing.T) {
	p, fake := newTestPublisher(t)
	ctx := context.Background()
	post := scheduledPost("3f2a")

	outcome, err := p.Publish(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, Created, outcome)

	post.Content = "Updated copy"
	outcome, err = p.Publish(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, Updated, outcome)

	require.Len(t, fake.events, 1)
	ev := fake.events[EventID("3f2a")]
	assert.Equal(t, "Updated copy", ev.Description)
	assert.Equal(t, "2026-03-14T10:30:00Z", ev.Start.DateTime)
	assert.Equal(t, "2026-03-14T11:00:00Z", ev.End.DateTime)
	assert.Equal(t, []string{
		"POST /calendars/primary/events",
		"POST /calendars/primary/events",
		"PUT /calendars/primary/events/" + EventID("3f2a"),
	}, fake.requests)
}

func TestPublishSkipsDrafts(t *testing.T) {
	p, fake := newTestPublisher(t)
	post := scheduledPost("d1")
	post.Status = models.PostDraft

	outcome, err := p.Publish(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)
	assert.Empty(t, fake.requests)
}

func TestPublishAllReport(t *testing.T) {
	p, _ := newTestPublisher(t)
	draft := scheduledPost("b")
	draft.Status = models.PostDraft

	report, err := p.PublishAll(context.Background(), []models.SocialPost{scheduledPost("a"), draft, scheduledPost("c")})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, []string{"a", "c"}, report.Published)
}

func TestEventIDUsesCalendarAlphabet(t *testing.T) {
	id := EventID("550e8400-e29b-41d4-a716-446655440000")
	for _, r := range id {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'v'), "unexpected %q", r)
	}
	assert.Equal(t, id, EventID("550e8400-e29b-41d4-a716-446655440000"))
}

func TestEventSummaryIsTruncated(t *testing.T) {
	p, _ := newTestPublisher(t)
	post := scheduledPost("x")
	post.Content = strings.Repeat("word ", 40)

	ev, err := p.Event(post)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ev.Summary, "[linkedin] word"))
	assert.True(t, strings.HasSuffix(ev.Summary, "..."))
	assert.Nil(t, ev.Source)
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duopro", TokenFileName)
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}
	require.NoError(t, SaveToken(path, tok))

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.AccessToken)
	assert.Equal(t, "r", loaded.RefreshToken)

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestTokenSourceNeedsCredentials(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	_, err := TokenSource(context.Background(), "unused")
	assert.Error(t, err)
}
