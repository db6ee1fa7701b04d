package ai

import (
	"net/url"
	"strings"
)

// aestheticKeywords are appended to every fallback image query.
var aestheticKeywords = []string{"aesthetic", "minimal", "soft-light"}

// FallbackImageURL builds an image search link from the mood, the emotions
// and the fixed aesthetic keywords. Equal inputs always yield the same URL.
func FallbackImageURL(endpoint, mood string, emotions []string) string {
	terms := make([]string, 0, len(emotions)+len(aestheticKeywords)+1)
	seen := make(map[string]struct{}, cap(terms))
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return
		}
		if _, dup := seen[term]; dup {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, url.QueryEscape(term))
	}

	add(mood)
	for _, e := range emotions {
		add(e)
	}
	for _, k := range aestheticKeywords {
		add(k)
	}

	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + strings.Join(terms, ",")
}
