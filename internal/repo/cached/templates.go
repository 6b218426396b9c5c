// Package cached puts a two tier cache in front of template lookups. Every
// render reads a template, templates change rarely, and kiosks print in bursts.
package cached

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/eventprint/internal/cache"
	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/redisclient"
	"github.com/geocoder89/eventprint/internal/utils"
)

const (
	TierLocal = "local"
	TierRedis = "redis"

	localEntries = 256
)

type TemplateSource interface {
	GetByID(ctx context.Context, id string) (template.Template, error)
	GetActive(ctx context.Context, eventID string, kind template.Kind) (template.Template, error)
}

// RemoteStore is the shared tier. *redisclient.Client satisfies it.
type RemoteStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Option func(*Templates)

func WithRemote(r RemoteStore) Option {
	return func(t *Templates) { t.remote = r }
}

func WithObserver(fn func(tier string, hit bool)) Option {
	return func(t *Templates) { t.observe = fn }
}

func WithLogger(log *slog.Logger) Option {
	return func(t *Templates) { t.log = log }
}

type Templates struct {
	src     TemplateSource
	local   *cache.Cache[template.Template]
	remote  RemoteStore
	ttl     time.Duration
	observe func(tier string, hit bool)
	log     *slog.Logger
}

func NewTemplates(src TemplateSource, ttl time.Duration, opts ...Option) *Templates {
	t := &Templates{
		src:     src,
		local:   cache.New[template.Template](ttl, localEntries),
		ttl:     ttl,
		observe: func(string, bool) {},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Templates) GetByID(ctx context.Context, id string) (template.Template, error) {
	return t.get(ctx, utils.BuildTemplateCacheKey(id), func() (template.Template, error) {
		return t.src.GetByID(ctx, id)
	})
}

func (t *Templates) GetActive(ctx context.Context, eventID string, kind template.Kind) (template.Template, error) {
	return t.get(ctx, utils.BuildActiveTemplateCacheKey(eventID, string(kind)), func() (template.Template, error) {
		return t.src.GetActive(ctx, eventID, kind)
	})
}

// Invalidate drops the active template of one kind from both tiers, together
// with the by-id entries of every template that was or now is active. Stations
// print through the by-id entry, so it has to go as well.
func (t *Templates) Invalidate(ctx context.Context, eventID string, kind template.Kind) error {
	activeKey := utils.BuildActiveTemplateCacheKey(eventID, string(kind))

	ids := make(map[string]struct{}, 2)
	if tpl, ok := t.local.Get(activeKey); ok {
		ids[tpl.ID] = struct{}{}
	}
	if t.remote != nil {
		if raw, err := t.remote.Get(ctx, activeKey); err == nil {
			var tpl template.Template
			if json.Unmarshal(raw, &tpl) == nil {
				ids[tpl.ID] = struct{}{}
			}
		}
	}

	var errs []error
	switch cur, err := t.src.GetActive(ctx, eventID, kind); {
	case err == nil:
		ids[cur.ID] = struct{}{}
	case !errors.Is(err, template.ErrNotFound):
		errs = append(errs, fmt.Errorf("load active template: %w", err))
	}

	keys := []string{activeKey}
	for id := range ids {
		if id != "" {
			keys = append(keys, utils.BuildTemplateCacheKey(id))
		}
	}
	for _, k := range keys {
		t.local.Delete(k)
	}
	if t.remote != nil {
		if err := t.remote.Del(ctx, keys...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Templates) get(ctx context.Context, key string, load func() (template.Template, error)) (template.Template, error) {
	if tpl, ok := t.local.Get(key); ok {
		t.observe(TierLocal, true)
		return tpl, nil
	}
	t.observe(TierLocal, false)

	if tpl, ok := t.fromRemote(ctx, key); ok {
		t.local.Set(key, tpl)
		return tpl, nil
	}

	tpl, err := load()
	if err != nil {
		// misses are not cached so a newly activated template shows up at once
		return template.Template{}, err
	}

	t.local.Set(key, tpl)
	t.toRemote(ctx, key, tpl)
	return tpl, nil
}

// fromRemote treats every redis failure as a miss; the database stays the
// source of truth.
func (t *Templates) fromRemote(ctx context.Context, key string) (template.Template, bool) {
	if t.remote == nil {
		return template.Template{}, false
	}

	raw, err := t.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redisclient.ErrMiss) {
			t.log.WarnContext(ctx, "template cache read failed", "key", key, "err", err)
		}
		t.observe(TierRedis, false)
		return template.Template{}, false
	}

	var tpl template.Template
	if err := json.Unmarshal(raw, &tpl); err != nil {
		t.log.WarnContext(ctx, "template cache entry unreadable", "key", key, "err", err)
		t.observe(TierRedis, false)
		return template.Template{}, false
	}

	t.observe(TierRedis, true)
	return tpl, true
}

func (t *Templates) toRemote(ctx context.Context, key string, tpl template.Template) {
	if t.remote == nil {
		return
	}

	raw, err := json.Marshal(tpl)
	if err != nil {
		t.log.WarnContext(ctx, "template cache encode failed", "key", key, "err", err)
		return
	}
	if err := t.remote.Set(ctx, key, raw, t.ttl); err != nil {
		t.log.WarnContext(ctx, "template cache write failed", "key", key, "err", err)
	}
}
