// ABOUTME: Publishes scheduled social posts as Google Calendar events
// ABOUTME: Event ids derive from post ids so publishing twice updates in place
package gcal

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/duoproservices/portal/models"
)

// EventDuration is the length of the calendar block for one post.
const EventDuration = 30 * time.Minute

// Publisher writes posts into one calendar.
type Publisher struct {
	service    *calendar.Service
	calendarID string
	loc        *time.Location
	logger     *zap.Logger
}

// Outcome reports what happened to one post.
type Outcome string

const (
	Created Outcome = "created"
	Updated Outcome = "updated"
	Skipped Outcome = "skipped"
)

// Report summarizes a batch publish.
type Report struct {
	Created   int
	Updated   int
	Skipped   int
	Published []string
}

// NewPublisher creates a calendar service authenticated by ts. Extra client
// options are appended, which is how tests point it at a fake server.
func NewPublisher(ctx context.Context, ts oauth2.TokenSource, calendarID string, loc *time.Location, logger *zap.Logger, opts ...option.ClientOption) (*Publisher, error) {
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOpts := []option.ClientOption{}
	if ts != nil {
		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := calendar.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &Publisher{service: service, calendarID: calendarID, loc: loc, logger: logger}, nil
}

// EventID maps a post id onto the calendar's base32hex id alphabet.
func EventID(postID string) string {
	return "post" + hex.EncodeToString([]byte(postID))
}

// Event builds the calendar event for post.
func (p *Publisher) Event(post models.SocialPost) (*calendar.Event, error) {
	start, err := post.ScheduledAt(p.loc)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", post.ID, err)
	}
	end := start.Add(EventDuration)

	return &calendar.Event{
		Id:          EventID(post.ID),
		Summary:     fmt.Sprintf("[%s] %s", post.Platform, summarize(post.Content, 60)),
		Description: post.Content,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: p.loc.String()},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: p.loc.String()},
		Source:      sourceFor(post),
	}, nil
}

// Publish creates or updates the event for post. Drafts are skipped.
func (p *Publisher) Publish(ctx context.Context, post models.SocialPost) (Outcome, error) {
	if post.Status == models.PostDraft || post.Status == "" {
		return Skipped, nil
	}

	event, err := p.Event(post)
	if err != nil {
		return "", err
	}

	_, err = p.service.Events.Insert(p.calendarID, event).Context(ctx).Do()
	if err == nil {
		p.logger.Info("published post to calendar", zap.String("post", post.ID), zap.String("event", event.Id))
		return Created, nil
	}
	if !isConflict(err) {
		return "", fmt.Errorf("failed to insert event for post %s: %w", post.ID, err)
	}

	if _, err := p.service.Events.Update(p.calendarID, event.Id, event).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("failed to update event for post %s: %w", post.ID, err)
	}
	p.logger.Info("updated calendar event", zap.String("post", post.ID), zap.String("event", event.Id))
	return Updated, nil
}

// PublishAll publishes posts in order and stops at the first failure.
func (p *Publisher) PublishAll(ctx context.Context, posts []models.SocialPost) (Report, error) {
	var report Report
	for _, post := range posts {
		outcome, err := p.Publish(ctx, post)
		if err != nil {
			return report, err
		}
		switch outcome {
		case Created:
			report.Created++
		case Updated:
			report.Updated++
		case Skipped:
			report.Skipped++
			continue
		}
		report.Published = append(report.Published, post.ID)
	}
	return report, nil
}

func isConflict(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}

func sourceFor(post models.SocialPost) *calendar.EventSource {
	if post.ImageURL == "" {
		return nil
	}
	return &calendar.EventSource{Title: string(post.Platform), Url: post.ImageURL}
}

func summarize(content string, max int) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max-3]) + "..."
}
