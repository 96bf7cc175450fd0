package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/converter"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/database"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/deploy"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/testhelpers"
)

type fakeConverter struct {
	mu      sync.Mutex
	calls   int
	convert func(ctx context.Context, source string) (*models.ConversionResult, error)
}

func (f *fakeConverter) Name() string { return "fake" }

func (f *fakeConverter) Convert(ctx context.Context, source string) (*models.ConversionResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.convert(ctx, source)
}

func failingConverter(msg string) *fakeConverter {
	return &fakeConverter{convert: func(context.Context, string) (*models.ConversionResult, error) {
		return nil, converter.NewError(converter.ErrorTypeEndpoint, msg, false, nil)
	}}
}

func blockingConverter() *fakeConverter {
	return &fakeConverter{convert: func(ctx context.Context, _ string) (*models.ConversionResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
}

type fakeDeployer struct {
	err     error
	scripts []deploy.Script
	// during runs while the scripts are "on the wire".
	during func()
}

func (d *fakeDeployer) Deploy(_ context.Context, scripts []deploy.Script) error {
	d.scripts = append(d.scripts, scripts...)
	if d.during != nil {
		d.during()
	}
	return d.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.LifecycleEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e models.LifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = fmt.Sprintf("%s.%s", e.Entity, e.Event)
	}
	return out
}

type fakeArchiver struct {
	archived map[string][]byte
	removed  []uuid.UUID
}

func (a *fakeArchiver) Archive(_ context.Context, userID, projectID uuid.UUID, fileName string, content []byte) (string, error) {
	if a.archived == nil {
		a.archived = map[string][]byte{}
	}
	path := fmt.Sprintf("users/%s/projects/%s/%s", userID, projectID, fileName)
	a.archived[path] = content
	return "https://storage.example/" + path, nil
}

func (a *fakeArchiver) RemoveProject(_ context.Context, _, projectID uuid.UUID) error {
	a.removed = append(a.removed, projectID)
	return errors.New("bucket unavailable")
}

// stepClock returns a later time on every call so creation order is stable.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestController(t *testing.T, conv converter.Converter, opts Options) (*Controller, *database.DB) {
	t.Helper()
	db := testhelpers.NewSQLiteDB(t)
	if conv == nil {
		conv = converter.NewRuleConverter()
	}
	if opts.Now == nil {
		clock := &stepClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
		opts.Now = clock.Now
	}
	return NewController(db, conv, zap.NewNop(), opts), db
}
