package blogservice

import "github.com/microcosm-cc/bluemonday"

// contentPolicy keeps the formatting elements of user and AI written articles.
// Scripts, styles, event handlers and javascript: URLs are dropped.
var contentPolicy = bluemonday.UGCPolicy()

func sanitizeHTML(html string) string {
	return contentPolicy.Sanitize(html)
}
