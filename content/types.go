package content

import (
	"time"
)

// Visibility values used by the content API on tags.
const (
	VisibilityPublic   = "public"
	VisibilityInternal = "internal"
)

// Author is the author summary embedded in posts and pages.
type Author struct {
	Name         string `json:"name"`
	Slug         string `json:"slug,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// TagCount carries the optional count.posts include.
type TagCount struct {
	Posts int `json:"posts"`
}

// Tag is a topic as returned by the tags resource, or as a summary embedded in a post.
type Tag struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	FeatureImage string    `json:"feature_image,omitempty"`
	Visibility   string    `json:"visibility"`
	Count        *TagCount `json:"count,omitempty"`
}

// Internal reports whether the tag is editorial-only.
func (t Tag) Internal() bool {
	return t.Visibility == VisibilityInternal
}

// Post is an article from the posts resource.
type Post struct {
	ID                  string  `json:"id"`
	Slug                string  `json:"slug"`
	Title               string  `json:"title"`
	Excerpt             string  `json:"excerpt,omitempty"`
	HTML                string  `json:"html,omitempty"`
	URL                 string  `json:"url,omitempty"`
	PublishedAt         string  `json:"published_at"`
	FeatureImage        string  `json:"feature_image,omitempty"`
	FeatureImageAlt     string  `json:"feature_image_alt,omitempty"`
	FeatureImageCaption string  `json:"feature_image_caption,omitempty"`
	PrimaryAuthor       *Author `json:"primary_author,omitempty"`
	Tags                []Tag   `json:"tags,omitempty"`
}

// Page has the same shape as Post but is addressed by a fixed slug.
type Page = Post

// Published parses PublishedAt. The second result is false when the
// timestamp is missing or not RFC 3339.
func (p Post) Published() (time.Time, bool) {
	if p.PublishedAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, p.PublishedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HasInternalTag reports whether any of the post's tags is internal.
func (p Post) HasInternalTag() bool {
	for _, t := range p.Tags {
		if t.Internal() {
			return true
		}
	}
	return false
}

// HasTag reports whether the post carries the tag with the given slug.
func (p Post) HasTag(slug string) bool {
	for _, t := range p.Tags {
		if t.Slug == slug {
			return true
		}
	}
	return false
}
