// Package classify maps source URLs to content types.
package classify

import (
	"strings"

	"github.com/IshaanNene/linkarchive/internal/types"
)

var videoMarkers = []string{"youtube.com", "youtu.be"}

var blogMarkers = []string{"blog", "medium.com", "dev.to", "substack.com", "hashnode"}

// Classify returns the content type for a URL. Rules are evaluated in order and the
// first match wins; anything unrecognised is an article.
func Classify(rawURL string) types.ContentType {
	u := strings.ToLower(rawURL)

	if containsAny(u, videoMarkers) {
		return types.ContentVideo
	}
	if containsAny(u, blogMarkers) {
		return types.ContentBlogPost
	}
	return types.ContentArticle
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
