// Package htmlsanitize cleans user-supplied text before it is stored.
// Descriptions (organizations down to preems, race course details) keep a
// safe subset of markup; contribution messages keep none.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richOnce sync.Once
	rich     *bluemonday.Policy

	plainOnce sync.Once
	plain     *bluemonday.Policy
)

func richPolicy() *bluemonday.Policy {
	richOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("u", "mark")
		p.AllowAttrs("class").OnElements("table", "tr", "td", "th")
		p.AllowStyles("text-align", "width").OnElements("table", "tr", "td", "th")
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		rich = p
	})
	return rich
}

func plainPolicy() *bluemonday.Policy {
	plainOnce.Do(func() {
		plain = bluemonday.StrictPolicy()
	})
	return plain
}

// Sanitize strips scripts, event handlers and unsafe URLs from a
// description, keeping formatting, lists, tables and links.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return richPolicy().Sanitize(s)
}

// PlainText removes every tag from s, keeping only the text content, and
// trims surrounding space.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(plainPolicy().Sanitize(s))
}
