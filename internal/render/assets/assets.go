// Package assets fetches the images a template references. Formats are decided
// by sniffing the payload, never by the declared content type.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("asset exceeds size limit")
	ErrUnsupportedRef    = errors.New("unsupported asset reference")
	ErrStatus            = errors.New("unexpected asset status")
)

type Asset struct {
	Ref    string
	Format Format
	Data   []byte
}

// Source loads raw bytes for a reference.
type Source interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Sniff classifies data by its leading bytes.
func Sniff(data []byte) (Format, error) {
	if len(data) < 2 {
		return "", ErrUnsupportedFormat
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is("image/png"):
		return FormatPNG, nil
	case mt.Is("image/jpeg"):
		return FormatJPEG, nil
	}

	// truncated headers still carry the two-byte magic
	switch {
	case data[0] == 0x89 && data[1] == 0x50:
		return FormatPNG, nil
	case data[0] == 0xFF && data[1] == 0xD8:
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
}

type Config struct {
	Timeout     time.Duration
	MaxBytes    int64
	Concurrency int
}

type Fetcher struct {
	cfg     Config
	http    Source
	s3      Source
	log     *slog.Logger
	observe func(result string)
}

type Option func(*Fetcher)

// WithS3 enables s3://bucket/key references.
func WithS3(src Source) Option {
	return func(f *Fetcher) { f.s3 = src }
}

func WithLogger(log *slog.Logger) Option {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// WithObserver receives one of "ok", "error", "unsupported" per fetch.
func WithObserver(fn func(result string)) Option {
	return func(f *Fetcher) { f.observe = fn }
}

func NewFetcher(httpSrc Source, cfg Config, opts ...Option) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	f := &Fetcher{
		cfg:  cfg,
		http: httpSrc,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch loads and classifies one reference.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (Asset, error) {
	src, err := f.sourceFor(ref)
	if err != nil {
		return Asset{}, err
	}

	fctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	data, err := src.Fetch(fctx, ref)
	if err != nil {
		return Asset{}, err
	}
	if int64(len(data)) > f.cfg.MaxBytes {
		return Asset{}, ErrTooLarge
	}

	format, err := Sniff(data)
	if err != nil {
		return Asset{}, err
	}
	return Asset{Ref: ref, Format: format, Data: data}, nil
}

func (f *Fetcher) sourceFor(ref string) (Source, error) {
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		if f.http != nil {
			return f.http, nil
		}
	case strings.HasPrefix(lower, "s3://"):
		if f.s3 != nil {
			return f.s3, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedRef, ref)
}

// Set holds the assets fetched for one render. It is owned by that render.
type Set struct {
	assets   map[string]Asset
	failures map[string]error
}

// NewSet builds a set from already loaded assets.
func NewSet(list ...Asset) Set {
	set := Set{assets: make(map[string]Asset, len(list)), failures: map[string]error{}}
	for _, a := range list {
		set.assets[a.Ref] = a
	}
	return set
}

func (s Set) Get(ref string) (Asset, bool) {
	a, ok := s.assets[ref]
	return a, ok
}

// Failure returns the reason ref could not be fetched, if it was attempted.
func (s Set) Failure(ref string) error {
	return s.failures[ref]
}

func (s Set) Len() int {
	return len(s.assets)
}

// Prefetch fetches every reference concurrently. It never fails: refs that
// cannot be loaded are logged and recorded as failures.
func (f *Fetcher) Prefetch(ctx context.Context, refs []string) Set {
	type result struct {
		asset Asset
		err   error
	}
	results := make([]result, len(refs))

	var g errgroup.Group
	g.SetLimit(f.cfg.Concurrency)

	for i, ref := range refs {
		g.Go(func() error {
			a, err := f.Fetch(ctx, ref)
			results[i] = result{asset: a, err: err}
			return nil
		})
	}
	_ = g.Wait()

	set := Set{
		assets:   make(map[string]Asset, len(refs)),
		failures: make(map[string]error),
	}
	for i, ref := range refs {
		r := results[i]
		if r.err != nil {
			set.failures[ref] = r.err
			f.log.WarnContext(ctx, "asset fetch failed", "ref", ref, "err", r.err)
			f.record(r.err)
			continue
		}
		set.assets[ref] = r.asset
		f.record(nil)
	}
	return set
}

func (f *Fetcher) record(err error) {
	if f.observe == nil {
		return
	}
	switch {
	case err == nil:
		f.observe("ok")
	case errors.Is(err, ErrUnsupportedFormat):
		f.observe("unsupported")
	default:
		f.observe("error")
	}
}
