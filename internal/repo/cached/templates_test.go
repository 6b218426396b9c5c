package cached

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/redisclient"
	"github.com/geocoder89/eventprint/internal/utils"
)

type fakeSource struct {
	calls    int
	activeFn func(ctx context.Context, eventID string, kind template.Kind) (template.Template, error)
	byIDFn   func(ctx context.Context, id string) (template.Template, error)
}

func (f *fakeSource) GetActive(ctx context.Context, eventID string, kind template.Kind) (template.Template, error) {
	f.calls++
	if f.activeFn != nil {
		return f.activeFn(ctx, eventID, kind)
	}
	return template.Template{}, template.ErrNotFound
}

func (f *fakeSource) GetByID(ctx context.Context, id string) (template.Template, error) {
	f.calls++
	if f.byIDFn != nil {
		return f.byIDFn(ctx, id)
	}
	return template.Template{}, template.ErrNotFound
}

type fakeRemote struct {
	mu    sync.Mutex
	data  map[string][]byte
	getFn func(key string) ([]byte, error)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: make(map[string][]byte)}
}

func (f *fakeRemote) Get(_ context.Context, key string) ([]byte, error) {
	if f.getFn != nil {
		return f.getFn(key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.data[key]
	if !ok {
		return nil, redisclient.ErrMiss
	}
	return b, nil
}

func (f *fakeRemote) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = val
	return nil
}

func (f *fakeRemote) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

type tally struct {
	counts map[string]int
}

func (t *tally) observe(tier string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	t.counts[tier+":"+outcome]++
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func badge() template.Template {
	return template.Template{ID: "tpl-1", EventID: "ev-1", Kind: template.KindBadge, OutputSize: "4x6"}
}

func TestGetActive_FillsBothTiers(t *testing.T) {
	src := &fakeSource{activeFn: func(context.Context, string, template.Kind) (template.Template, error) {
		return badge(), nil
	}}
	remote := newFakeRemote()
	tl := &tally{counts: map[string]int{}}
	c := NewTemplates(src, time.Minute, WithRemote(remote), WithObserver(tl.observe), WithLogger(quiet()))

	for i := 0; i < 3; i++ {
		got, err := c.GetActive(context.Background(), "ev-1", template.KindBadge)
		if err != nil || got.ID != "tpl-1" {
			t.Fatalf("call %d: got %+v (%v)", i, got, err)
		}
	}

	if src.calls != 1 {
		t.Fatalf("expected one source call, got %d", src.calls)
	}
	if _, ok := remote.data[utils.BuildActiveTemplateCacheKey("ev-1", "badge")]; !ok {
		t.Fatal("expected redis entry to be written")
	}
	if tl.counts["local:hit"] != 2 || tl.counts["redis:miss"] != 1 {
		t.Fatalf("unexpected cache counts %v", tl.counts)
	}
}

func TestGetActive_ServesFromRedis(t *testing.T) {
	remote := newFakeRemote()
	raw, _ := json.Marshal(badge())
	remote.data[utils.BuildActiveTemplateCacheKey("ev-1", "badge")] = raw

	src := &fakeSource{}
	c := NewTemplates(src, time.Minute, WithRemote(remote), WithLogger(quiet()))

	got, err := c.GetActive(context.Background(), "EV-1", template.KindBadge)
	if err != nil || got.OutputSize != "4x6" {
		t.Fatalf("got %+v (%v)", got, err)
	}
	if src.calls != 0 {
		t.Fatalf("expected no source call, got %d", src.calls)
	}
}

func TestGetActive_RedisFailureFallsBack(t *testing.T) {
	remote := newFakeRemote()
	remote.getFn = func(string) ([]byte, error) { return nil, errors.New("connection refused") }
	src := &fakeSource{activeFn: func(context.Context, string, template.Kind) (template.Template, error) {
		return badge(), nil
	}}
	c := NewTemplates(src, time.Minute, WithRemote(remote), WithLogger(quiet()))

	if _, err := c.GetActive(context.Background(), "ev-1", template.KindBadge); err != nil {
		t.Fatalf("expected fallback to source, got %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected one source call, got %d", src.calls)
	}
}

func TestGetActive_MissIsNotCached(t *testing.T) {
	src := &fakeSource{}
	c := NewTemplates(src, time.Minute, WithLogger(quiet()))

	for i := 0; i < 2; i++ {
		if _, err := c.GetActive(context.Background(), "ev-1", template.KindCertificate); !errors.Is(err, template.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if src.calls != 2 {
		t.Fatalf("expected both lookups to reach the source, got %d", src.calls)
	}
}

func TestInvalidate(t *testing.T) {
	version := "4x6"
	src := &fakeSource{activeFn: func(context.Context, string, template.Kind) (template.Template, error) {
		tpl := badge()
		tpl.OutputSize = version
		return tpl, nil
	}}
	remote := newFakeRemote()
	c := NewTemplates(src, time.Minute, WithRemote(remote), WithLogger(quiet()))
	ctx := context.Background()

	if _, err := c.GetActive(ctx, "ev-1", template.KindBadge); err != nil {
		t.Fatal(err)
	}
	version = "4x3"
	if err := c.Invalidate(ctx, "ev-1", template.KindBadge); err != nil {
		t.Fatal(err)
	}

	got, err := c.GetActive(ctx, "ev-1", template.KindBadge)
	if err != nil || got.OutputSize != "4x3" {
		t.Fatalf("expected fresh template after invalidate, got %+v (%v)", got, err)
	}
}

func TestInvalidate_DropsByIDEntryUsedByStations(t *testing.T) {
	version := "4x6"
	load := func() template.Template {
		tpl := badge()
		tpl.OutputSize = version
		return tpl
	}
	src := &fakeSource{
		activeFn: func(context.Context, string, template.Kind) (template.Template, error) { return load(), nil },
		byIDFn:   func(context.Context, string) (template.Template, error) { return load(), nil },
	}
	remote := newFakeRemote()
	c := NewTemplates(src, time.Minute, WithRemote(remote), WithLogger(quiet()))
	ctx := context.Background()

	if _, err := c.GetActive(ctx, "ev-1", template.KindBadge); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetByID(ctx, "tpl-1"); err != nil {
		t.Fatal(err)
	}

	version = "4x3"
	if err := c.Invalidate(ctx, "ev-1", template.KindBadge); err != nil {
		t.Fatal(err)
	}

	if _, ok := remote.data[utils.BuildTemplateCacheKey("tpl-1")]; ok {
		t.Fatal("expected redis by-id entry removed")
	}
	got, err := c.GetByID(ctx, "tpl-1")
	if err != nil || got.OutputSize != "4x3" {
		t.Fatalf("expected fresh template on the station path, got %+v (%v)", got, err)
	}
}

func TestInvalidate_SourceFailureStillDropsActive(t *testing.T) {
	calls := 0
	src := &fakeSource{activeFn: func(context.Context, string, template.Kind) (template.Template, error) {
		calls++
		if calls > 1 {
			return template.Template{}, errors.New("db down")
		}
		return badge(), nil
	}}
	c := NewTemplates(src, time.Minute, WithLogger(quiet()))
	ctx := context.Background()

	if _, err := c.GetActive(ctx, "ev-1", template.KindBadge); err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate(ctx, "ev-1", template.KindBadge); err == nil {
		t.Fatal("expected the source error to be reported")
	}
	if c.local.Len() != 0 {
		t.Fatalf("expected local entries dropped, got %d", c.local.Len())
	}
}
