// Package docs fetches and memoises documentation for Google Ads error types.
//
// Lookups are best effort. Any failure, whether a timeout, a non-200 answer,
// or a network error, yields ("", false) and is not cached, so a later call
// may try again. Nothing here is on the retry path.
package docs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/p-blackswan/google-ads-mcp/internal/adserr"
	"github.com/p-blackswan/google-ads-mcp/lru"
)

// Recorder observes cache behaviour.
type Recorder interface {
	RecordDocsLookup(result string)
}

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configure a Lookup.
type Options struct {
	HTTPClient HTTPClient
	Timeout    time.Duration
	CacheSize  int
	// CacheTTL expires verified entries; zero keeps them until evicted.
	CacheTTL time.Duration
	Recorder Recorder
	Logger   zerolog.Logger
	// URLFor overrides the link derivation (tests).
	URLFor func(e *adserr.Error) (string, bool)
}

// Lookup resolves documentation for classified errors.
type Lookup struct {
	client  HTTPClient
	timeout time.Duration
	cache   *lru.Cache[string, string]
	group   singleflight.Group
	rec     Recorder
	urlFor  func(e *adserr.Error) (string, bool)
	logger  zerolog.Logger
}

// NewLookup creates a Lookup with a 10s fetch timeout and 256 cached types
// unless overridden.
func NewLookup(opts Options) *Lookup {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.URLFor == nil {
		opts.URLFor = (*adserr.Error).DocumentationURL
	}
	l := &Lookup{
		client:  opts.HTTPClient,
		timeout: opts.Timeout,
		rec:     opts.Recorder,
		urlFor:  opts.URLFor,
		logger:  opts.Logger.With().Str("component", "docs").Logger(),
	}
	l.cache = lru.New[string, string](opts.CacheSize,
		lru.WithTTL[string, string](opts.CacheTTL),
		lru.WithOnEvict[string, string](func(string, string) { l.record("evict") }),
	)
	return l
}

// Lookup returns a documentation blurb for e, fetching its reference page
// once per error type. Callers waiting on the same type share one fetch,
// which is not cut short when the caller that started it goes away.
func (l *Lookup) Lookup(ctx context.Context, e *adserr.Error) (string, bool) {
	key := e.Type()
	if blurb, ok := l.cache.Get(key); ok {
		l.record("hit")
		return blurb, true
	}

	url, ok := l.urlFor(e)
	if !ok {
		l.record("unresolvable")
		return "", false
	}

	shared := context.WithoutCancel(ctx)
	v, err, _ := l.group.Do(key, func() (any, error) {
		if blurb, ok := l.cache.Peek(key); ok {
			return blurb, nil
		}
		if err := l.fetch(shared, url); err != nil {
			return nil, err
		}
		blurb := fmt.Sprintf("Documentation: %s\nSee the official docs for detailed error explanations.", url)
		l.cache.Put(key, blurb)
		return blurb, nil
	})
	if err != nil {
		l.logger.Warn().Err(err).Str("error_type", key).Msg("failed to fetch documentation")
		l.record("error")
		return "", false
	}
	l.record("miss")
	return v.(string), true
}

// Resolve returns the documentation link for e only when its page has
// already been verified. It never waits on the network: a type not yet in
// the cache is fetched in the background and yields no link this time.
// It satisfies response.DocResolver.
func (l *Lookup) Resolve(ctx context.Context, e *adserr.Error) (string, bool) {
	if _, ok := l.cache.Get(e.Type()); ok {
		l.record("hit")
		return l.urlFor(e)
	}
	if _, ok := l.urlFor(e); ok {
		go l.Lookup(context.WithoutCancel(ctx), e)
	}
	return "", false
}

func (l *Lookup) fetch(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}
	return nil
}

func (l *Lookup) record(result string) {
	if l.rec != nil {
		l.rec.RecordDocsLookup(result)
	}
}
