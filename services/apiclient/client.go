// Package apiclient is a client of the Pathways REST API.
//
// GET responses are cached by method, URL and body. Concurrent identical GETs share one request.
// A successful mutation drops the cached reads it may have changed.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/pathways/core"
	"github.com/trezcool/pathways/services/apicache"
)

const (
	// Timeout bounds every HTTP request. There is no retry.
	Timeout = 30 * time.Second

	revalidateTimeout = 30 * time.Second
)

type (
	Options struct {
		BaseURL  string // e.g. http://localhost:8000/v1
		CacheTTL time.Duration
		Logger   core.Logger
		Cache    *apicache.Cache // optional; a new one is made if nil
	}

	Client struct {
		baseURL string
		http    *http.Client
		cache   *apicache.Cache
		ttl     time.Duration
		logger  core.Logger

		mu    sync.RWMutex
		token string
		gen   uint64 // bumped by every new session and successful mutation

		background sync.WaitGroup
	}

	callOptions struct {
		background bool
		noCache    bool
	}

	// CallOption changes how one call uses the cache.
	CallOption func(*callOptions)
)

// WithBackground serves a GET from the cache, stale or not, and refreshes the cache asynchronously.
// With nothing cached the call fetches as usual.
func WithBackground() CallOption {
	return func(o *callOptions) { o.background = true }
}

// WithNoCache skips the cache for one call.
func WithNoCache() CallOption {
	return func(o *callOptions) { o.noCache = true }
}

// OptionsFromConfig returns the Options set in conf.
func OptionsFromConfig(conf *core.Config, logger core.Logger) Options {
	return Options{
		BaseURL:  conf.Client.BaseURL,
		CacheTTL: conf.Client.CacheTTL,
		Logger:   logger,
	}
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("invalid base url %q", opts.BaseURL)
	}
	if opts.Logger == nil {
		return nil, errors.New("a logger is required")
	}

	cache := opts.Cache
	if cache == nil {
		cache = apicache.New(apicache.WithDefaultTTL(opts.CacheTTL))
	}
	return &Client{
		baseURL: strings.TrimRight(base.String(), "/"),
		http:    &http.Client{Timeout: Timeout},
		cache:   cache,
		ttl:     opts.CacheTTL,
		logger:  opts.Logger,
	}, nil
}

// SetToken sets the bearer token sent with every request.
// A new session drops every cached read, and reads still in flight are not cached.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != token {
		c.token = token
		c.gen++
		c.cache.Clear()
	}
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Wait blocks until every background refresh is done.
func (c *Client) Wait() {
	c.background.Wait()
}

func cacheKey(method, url string, body []byte) string {
	return method + ":" + url + ":" + string(body)
}

// Do sends a request to path, relative to the base URL, and decodes the response into out.
// body is encoded to JSON unless nil; out may be nil.
// Every failure is returned as an *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}, opts ...CallOption) error {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return c.fail(requestError(method, path, err, "encoding request body"))
		}
	}

	var (
		data []byte
		err  error
	)
	switch {
	case method != http.MethodGet:
		if data, err = c.send(ctx, method, path, payload); err != nil {
			return err
		}
		c.invalidate(path)
	case co.noCache:
		if data, err = c.send(ctx, method, path, payload); err != nil {
			return err
		}
	default:
		if data, err = c.cachedGet(ctx, path, payload, co.background); err != nil {
			return err
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, out); err != nil {
		return c.fail(requestError(method, path, err, "decoding response body"))
	}
	return nil
}

func (c *Client) cachedGet(ctx context.Context, path string, payload []byte, background bool) ([]byte, error) {
	key := cacheKey(http.MethodGet, c.baseURL+path, payload)

	if background {
		// Peek before Get: Get evicts what has expired.
		if val, ok := c.cache.Peek(key); ok {
			c.revalidate(key, path, payload)
			return val.([]byte), nil
		}
	} else if val, ok := c.cache.Get(key); ok {
		return val.([]byte), nil
	}
	return c.fetch(ctx, key, path, payload)
}

// fetch GETs path once for every concurrent caller of key and caches the response.
// Callers only share a request started in their generation,
// and a response is not cached if the generation changed while it was in flight.
func (c *Client) fetch(ctx context.Context, key, path string, payload []byte) ([]byte, error) {
	gen := c.generation()
	flight := key + "#" + strconv.FormatUint(gen, 10)

	val, err := c.cache.Deduplicate(ctx, flight, func(ctx context.Context) (interface{}, error) {
		data, err := c.send(ctx, http.MethodGet, path, payload)
		if err != nil {
			return nil, err
		}
		c.mu.RLock()
		if c.gen == gen {
			c.cache.Set(key, data, c.ttl)
		}
		c.mu.RUnlock()
		return data, nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			// the shared request goes on, this caller stopped waiting
			return nil, c.failUnlessCanceled(ctx, networkError(http.MethodGet, path, err))
		}
		return nil, err
	}
	return val.([]byte), nil
}

func (c *Client) revalidate(key, path string, payload []byte) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), revalidateTimeout)
		defer cancel()
		_, _ = c.fetch(ctx, key, path, payload) // failures are logged by send
	}()
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, c.fail(requestError(method, path, err, "building request"))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.failUnlessCanceled(ctx, networkError(method, path, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.failUnlessCanceled(ctx, networkError(method, path, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(serverError(method, path, resp.StatusCode, data))
	}
	return data, nil
}

// fail reports err to the logger.
func (c *Client) fail(err *APIError) error {
	if err.Kind == KindServer && err.Status < http.StatusInternalServerError {
		c.logger.Warn("api request failed", err)
	} else {
		c.logger.Error("api request failed", err)
	}
	return err
}

// failUnlessCanceled reports err unless the caller cancelled ctx.
func (c *Client) failUnlessCanceled(ctx context.Context, err *APIError) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return err
	}
	return c.fail(err)
}

// invalidate drops the cached reads a mutation of path may have changed:
//  - /students and /students/{id}: everything under /students
//  - /students/{id}/{kind}[/...]: everything under that collection
//  - anything else: everything under its first segment
func (c *Client) invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.cache.InvalidatePattern(invalidationPattern(c.baseURL, path))
}

func invalidationPattern(baseURL, path string) *regexp.Regexp {
	path = strings.SplitN(path, "?", 2)[0]
	segs := strings.Split(strings.Trim(path, "/"), "/")

	prefix := "/" + segs[0]
	if segs[0] == "students" && len(segs) >= 3 {
		prefix = "/students/" + segs[1] + "/" + segs[2]
	}
	return regexp.MustCompile("^" + regexp.QuoteMeta(http.MethodGet+":"+baseURL+prefix) + "[/?:]")
}
