package content

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultCreditsSlug is the post that holds tag photo credits as a JSON object.
const DefaultCreditsSlug = "tag-photo-credits"

// CreditsSource resolves photo credits keyed by tag slug. Implementations never
// fail; an unavailable source yields an empty map.
type CreditsSource interface {
	Credits(ctx context.Context) map[string]string
}

// StaticCredits is a fixed credit table, typically from the config file.
type StaticCredits map[string]string

func (s StaticCredits) Credits(context.Context) map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// PostFetcher is the part of Client that PostCredits needs.
type PostFetcher interface {
	PostBySlug(ctx context.Context, slug string) (*Post, error)
}

// PostCredits reads credits from the body of a backend post whose text is a
// single JSON object, e.g. <p>{"news": "Photo: Jane Doe"}</p>.
type PostCredits struct {
	Posts  PostFetcher
	Slug   string
	Logger *slog.Logger
}

func (p PostCredits) Credits(ctx context.Context) map[string]string {
	slug := p.Slug
	if slug == "" {
		slug = DefaultCreditsSlug
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	post, err := p.Posts.PostBySlug(ctx, slug)
	if err != nil || post == nil || post.HTML == "" {
		return map[string]string{}
	}
	credits, err := ParseCredits(post.HTML)
	if err != nil {
		logger.ErrorContext(ctx, "content: parse photo credits",
			slog.String("slug", slug), slog.Any("error", err))
		return map[string]string{}
	}
	return credits
}

// ParseCredits extracts the text of an HTML fragment and decodes it as a JSON
// object of strings.
func ParseCredits(fragment string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(strings.ReplaceAll(doc.Text(), "\u00a0", " "))
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return nil, errors.New("photo credits are not a JSON object")
	}
	var credits map[string]string
	if err := json.Unmarshal([]byte(text), &credits); err != nil {
		return nil, err
	}
	return credits, nil
}

// ChainCredits returns the first non-empty result of its sources.
type ChainCredits []CreditsSource

func (c ChainCredits) Credits(ctx context.Context) map[string]string {
	for _, src := range c {
		if m := src.Credits(ctx); len(m) > 0 {
			return m
		}
	}
	return map[string]string{}
}
