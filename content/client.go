// Package content is a read-only client for a Ghost-style content API.
//
// Every fetch operation degrades to an empty or nil result on failure. The
// error return carries a *FetchError describing what went wrong so callers and
// tests can inspect it, but callers are free to ignore it and render the
// fallback.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Resource is a content API collection.
type Resource string

const (
	ResourcePosts Resource = "posts"
	ResourcePages Resource = "pages"
	ResourceTags  Resource = "tags"
)

func (r Resource) valid() bool {
	switch r {
	case ResourcePosts, ResourcePages, ResourceTags:
		return true
	}
	return false
}

const (
	// DefaultPostLimit is the page size of the home feed.
	DefaultPostLimit = 5
	// DefaultTagPostLimit is the number of posts shown per topic card.
	DefaultTagPostLimit = 3
	// MaxPostLimit approximates "all posts" for archive and path enumeration.
	MaxPostLimit = 100

	apiPrefix      = "/ghost/api/content"
	maxBodyBytes   = 8 << 20
	cacheEntries   = 256
	defaultTimeout = 10 * time.Second
)

// Params are query parameters for BuildURL. Values must be scalars.
type Params map[string]any

// Observer receives one call per fetch operation. Outcome is "ok" or a Kind name.
type Observer interface {
	ObserveFetch(resource Resource, outcome string, elapsed time.Duration)
}

// Client talks to the content API. It holds no mutable state apart from the
// optional response cache, and is safe for concurrent use.
type Client struct {
	base       *url.URL
	key        string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	observer   Observer
	cacheTTL   time.Duration
	cache      *expirable.LRU[string, []byte]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each outbound request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for failure events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers a metrics hook.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithCacheTTL enables an in-memory cache of successful responses keyed by URL.
// A zero TTL (the default) re-fetches on every call.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// NewClient validates the base URL and key and returns a Client. A missing or
// malformed value yields a *ConfigError.
func NewClient(baseURL, key string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	key = strings.TrimSpace(key)
	if baseURL == "" {
		return nil, &ConfigError{Field: "base URL", Reason: "is required"}
	}
	if key == "" {
		return nil, &ConfigError{Field: "content API key", Reason: "is required"}
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, &ConfigError{Field: "base URL", Reason: err.Error()}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ConfigError{Field: "base URL", Reason: "must be an absolute http(s) URL"}
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawPath = ""

	c := &Client{
		base:    u,
		key:     key,
		timeout: defaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.cacheTTL > 0 {
		c.cache = expirable.NewLRU[string, []byte](cacheEntries, nil, c.cacheTTL)
	}
	return c, nil
}

// BuildURL returns the absolute URL for resource with the API key first and the
// caller's params after it in name order. A caller-supplied "key" is ignored.
func (c *Client) BuildURL(resource Resource, params Params) (string, error) {
	if !resource.valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, string(resource))
	}
	names := make([]string, 0, len(params))
	for name := range params {
		if name == "key" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var q strings.Builder
	q.WriteString("key=")
	q.WriteString(url.QueryEscape(c.key))
	for _, name := range names {
		v, err := formatParam(params[name])
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrInvalidParam, name, err)
		}
		q.WriteByte('&')
		q.WriteString(url.QueryEscape(name))
		q.WriteByte('=')
		q.WriteString(url.QueryEscape(v))
	}

	u := *c.base
	u.Path = path.Join(c.base.Path, apiPrefix, string(resource)) + "/"
	u.RawQuery = q.String()
	return u.String(), nil
}

func formatParam(v any) (string, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	}
	return "", fmt.Errorf("unsupported value of type %T", v)
}

// Posts returns up to limit public posts in backend order. limit <= 0 yields an
// empty result without a request; limits above MaxPostLimit are clamped.
func (c *Client) Posts(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 {
		return []Post{}, nil
	}
	if limit > MaxPostLimit {
		limit = MaxPostLimit
	}
	start := time.Now()
	posts, err := fetchList[Post](ctx, c, "posts", ResourcePosts, Params{
		"limit":   limit,
		"include": "tags,authors",
	})
	c.finish(ctx, "posts", ResourcePosts, start, err, slog.Int("limit", limit))
	if err != nil {
		return []Post{}, err
	}
	return truncate(FilterPublicPosts(posts), limit), nil
}

// PostBySlug returns the post whose slug equals slug, or nil when there is none
// or the request failed. Internal posts are returned; they are only hidden
// from listings.
func (c *Client) PostBySlug(ctx context.Context, slug string) (*Post, error) {
	return c.bySlug(ctx, "post_by_slug", ResourcePosts, slug, "tags,authors")
}

// PageBySlug returns the page whose slug equals slug, or nil.
func (c *Client) PageBySlug(ctx context.Context, slug string) (*Page, error) {
	return c.bySlug(ctx, "page_by_slug", ResourcePages, slug, "authors")
}

func (c *Client) bySlug(ctx context.Context, op string, resource Resource, slug, include string) (*Post, error) {
	if slug == "" {
		return nil, ErrEmptySlug
	}
	start := time.Now()
	items, err := fetchList[Post](ctx, c, op, resource, Params{
		"filter":  "slug:" + filterValue(slug),
		"include": include,
	})
	c.finish(ctx, op, resource, start, err, slog.String("slug", slug))
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Slug == slug {
			p := items[i]
			return &p, nil
		}
	}
	if len(items) > 0 {
		c.logger.DebugContext(ctx, "content: slug filter returned no exact match",
			slog.String("op", op), slog.String("slug", slug), slog.Int("returned", len(items)))
	}
	return nil, nil
}

// PostsByTag returns up to limit public posts carrying tagSlug.
func (c *Client) PostsByTag(ctx context.Context, tagSlug string, limit int) ([]Post, error) {
	if tagSlug == "" {
		return []Post{}, ErrEmptySlug
	}
	if limit <= 0 {
		return []Post{}, nil
	}
	if limit > MaxPostLimit {
		limit = MaxPostLimit
	}
	start := time.Now()
	posts, err := fetchList[Post](ctx, c, "posts_by_tag", ResourcePosts, Params{
		"filter":  "tag:" + filterValue(tagSlug),
		"limit":   limit,
		"include": "tags,authors",
	})
	c.finish(ctx, "posts_by_tag", ResourcePosts, start, err,
		slog.String("tag", tagSlug), slog.Int("limit", limit))
	if err != nil {
		return []Post{}, err
	}
	return truncate(FilterPublicPosts(posts), limit), nil
}

// Tags returns every public tag with its post count.
func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	start := time.Now()
	tags, err := fetchList[Tag](ctx, c, "tags", ResourceTags, Params{
		"include": "count.posts",
		"limit":   "all",
	})
	c.finish(ctx, "tags", ResourceTags, start, err)
	if err != nil {
		return []Tag{}, err
	}
	return FilterPublicTags(tags), nil
}

func (c *Client) finish(ctx context.Context, op string, resource Resource, start time.Time, err error, attrs ...slog.Attr) {
	elapsed := time.Since(start)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if k := KindOf(err); k != 0 {
			outcome = k.String()
		}
		args := []slog.Attr{
			slog.String("op", op),
			slog.String("resource", string(resource)),
			slog.String("kind", outcome),
			slog.Any("error", err),
		}
		var fe *FetchError
		if errors.As(err, &fe) && fe.Status != 0 {
			args = append(args, slog.Int("status", fe.Status))
		}
		args = append(args, attrs...)
		c.logger.LogAttrs(ctx, slog.LevelError, "content: fetch failed", args...)
	}
	if c.observer != nil {
		c.observer.ObserveFetch(resource, outcome, elapsed)
	}
}

func fetchList[T any](ctx context.Context, c *Client, op string, resource Resource, params Params) ([]T, error) {
	body, err := c.get(ctx, op, resource, params)
	if err != nil {
		return nil, err
	}
	malformed := func(err error) error {
		return &FetchError{Op: op, Resource: resource, Kind: KindMalformed, Err: err}
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, malformed(err)
	}
	raw, ok := envelope[string(resource)]
	if !ok {
		return nil, malformed(fmt.Errorf("missing %q field", resource))
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, malformed(fmt.Errorf("%q field is not an array", resource))
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformed(err)
	}
	return items, nil
}

func (c *Client) get(ctx context.Context, op string, resource Resource, params Params) ([]byte, error) {
	target, err := c.BuildURL(resource, params)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if body, ok := c.cache.Get(target); ok {
			return body, nil
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Op: op, Resource: resource, Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Op: op, Resource: resource, Kind: KindNetwork, Err: redact(err, c.key)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{Op: op, Resource: resource, Kind: KindHTTPStatus, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Op: op, Resource: resource, Kind: KindNetwork, Err: redact(err, c.key)}
	}
	if c.cache != nil {
		c.cache.Add(target, body)
	}
	return body, nil
}

// redact strips the API key from transport errors, which embed the request
// URL and so carry the key in its query-escaped form.
func redact(err error, key string) error {
	if key == "" {
		return err
	}
	msg := err.Error()
	out := msg
	for _, form := range []string{key, url.QueryEscape(key)} {
		out = strings.ReplaceAll(out, form, "REDACTED")
	}
	if out == msg {
		return err
	}
	return errors.New(out)
}

// filterValue quotes v for the API's filter syntax unless it is a plain slug.
func filterValue(v string) string {
	plain := true
	for _, r := range v {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			plain = false
			break
		}
	}
	if plain {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
}

func truncate(posts []Post, limit int) []Post {
	if len(posts) > limit {
		return posts[:limit]
	}
	return posts
}
