package content

import (
	"sort"
	"strconv"
)

// FilterPublicPosts drops every post carrying an internal tag. It never
// modifies its input and applying it twice gives the same result as once.
func FilterPublicPosts(posts []Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if !p.HasInternalTag() {
			out = append(out, p)
		}
	}
	return out
}

// FilterPublicTags drops internal tags.
func FilterPublicTags(tags []Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if !t.Internal() {
			out = append(out, t)
		}
	}
	return out
}

// YearGroup is one section of the archive.
type YearGroup struct {
	Year  string
	Posts []Post
}

// GroupByYear groups posts by publication year, newest year first. Posts keep
// their relative order inside a year; undated posts are grouped under "".
func GroupByYear(posts []Post) []YearGroup {
	index := make(map[string]int)
	var groups []YearGroup
	for _, p := range posts {
		year := ""
		if t, ok := p.Published(); ok {
			year = strconv.Itoa(t.Year())
		}
		i, ok := index[year]
		if !ok {
			i = len(groups)
			index[year] = i
			groups = append(groups, YearGroup{Year: year})
		}
		groups[i].Posts = append(groups[i].Posts, p)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, _ := strconv.Atoi(groups[i].Year)
		b, _ := strconv.Atoi(groups[j].Year)
		return a > b
	})
	return groups
}

// GroupByTag maps each tag slug to the posts carrying it, in input order.
func GroupByTag(posts []Post) map[string][]Post {
	out := make(map[string][]Post)
	for _, p := range posts {
		for _, t := range p.Tags {
			out[t.Slug] = append(out[t.Slug], p)
		}
	}
	return out
}

// FindTag returns the tag with the given slug.
func FindTag(tags []Tag, slug string) (Tag, bool) {
	for _, t := range tags {
		if t.Slug == slug {
			return t, true
		}
	}
	return Tag{}, false
}
