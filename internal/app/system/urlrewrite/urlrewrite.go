// Package urlrewrite maps short, human-facing URLs onto a page target plus a
// canonical document path.
//
// The rule table is plain data (see DefaultRules). A request first picks its
// namespace ("manage" when the first segment is manage, otherwise "view").
// Inside the namespace the rule with the most literal-or-parameter segments
// wins; rules with equal segment counts are tried in declaration order.
// The canonical path never appears in the visible URL: it is passed to the
// page in the "path" query parameter.
package urlrewrite

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/dalemusser/preemhub/internal/app/system/docpath"
)

// Namespace groups rules that share a URL prefix.
type Namespace string

const (
	Manage Namespace = "manage"
	View   Namespace = "view"
)

// PathParam is the query parameter carrying the canonical path.
const PathParam = "path"

// ErrInvalidRule is returned by New for a malformed rule table.
var ErrInvalidRule = errors.New("invalid rewrite rule")

// ErrInvalidURL is returned by Resolve for input that is not a URL.
var ErrInvalidURL = errors.New("invalid url")

// Rule is one row of the rewrite table.
//
// Pattern segments starting with ':' capture one path segment. A final "*"
// segment matches any remaining segments (it is not counted towards the
// rule's specificity). PathTemplate may reference captures by name; when it
// is empty the page is reached without a path parameter.
type Rule struct {
	Namespace    Namespace
	Pattern      string
	Page         string
	PathTemplate string
}

// Resolution is the outcome of matching a URL against the table.
type Resolution struct {
	PageTarget    string `json:"pageTarget"`
	CanonicalPath string `json:"canonicalPath,omitempty"`
	Matched       bool   `json:"matched"`
	Pattern       string `json:"pattern,omitempty"`
}

type compiledRule struct {
	Rule
	segs     []string
	wildcard bool
}

func (c compiledRule) specificity() int { return len(c.segs) }

// Rewriter evaluates a rule table. It is immutable after New and safe for
// concurrent use.
type Rewriter struct {
	rules    map[Namespace][]compiledRule
	reserved map[string]struct{}
}

// New compiles rules. reserved lists first segments (after the namespace
// prefix, for manage) that always pass through unchanged.
func New(rules []Rule, reserved []string) (*Rewriter, error) {
	rw := &Rewriter{
		rules:    make(map[Namespace][]compiledRule),
		reserved: make(map[string]struct{}, len(reserved)),
	}
	for _, r := range reserved {
		rw.reserved[r] = struct{}{}
	}

	for _, r := range rules {
		c, err := compile(r)
		if err != nil {
			return nil, err
		}
		rw.rules[r.Namespace] = append(rw.rules[r.Namespace], c)
	}
	for ns := range rw.rules {
		list := rw.rules[ns]
		sort.SliceStable(list, func(a, b int) bool {
			return list[a].specificity() > list[b].specificity()
		})
	}
	return rw, nil
}

// Default compiles DefaultRules with DefaultReserved. It panics if the
// built-in table does not compile.
func Default() *Rewriter {
	rw, err := New(DefaultRules(), DefaultReserved())
	if err != nil {
		panic(err)
	}
	return rw
}

func compile(r Rule) (compiledRule, error) {
	bad := func(reason string) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidRule, r.Pattern, reason)
	}
	if r.Namespace != Manage && r.Namespace != View {
		return compiledRule{}, bad("unknown namespace " + string(r.Namespace))
	}
	if !strings.HasPrefix(r.Pattern, "/") || r.Page == "" {
		return compiledRule{}, bad("pattern must start with '/' and page must be set")
	}

	segs := splitPath(r.Pattern)
	c := compiledRule{Rule: r}
	if n := len(segs); n > 0 && segs[n-1] == "*" {
		c.wildcard = true
		segs = segs[:n-1]
	}
	if len(segs) == 0 {
		return compiledRule{}, bad("pattern has no segments")
	}
	if r.Namespace == Manage && segs[0] != string(Manage) {
		return compiledRule{}, bad("manage rules must start with /manage")
	}
	if r.Namespace == View && segs[0] == string(Manage) {
		return compiledRule{}, bad("view rules cannot start with /manage")
	}
	c.segs = segs

	params := map[string]bool{}
	for _, s := range segs {
		if strings.HasPrefix(s, ":") {
			if params[s[1:]] {
				return compiledRule{}, bad("duplicate parameter " + s)
			}
			params[s[1:]] = true
		}
	}

	if r.PathTemplate != "" {
		sample := map[string]string{}
		for p := range params {
			sample[p] = "x"
		}
		out, err := expand(r.PathTemplate, sample)
		if err != nil {
			return compiledRule{}, bad(err.Error())
		}
		if err := validCanonical(out); err != nil {
			return compiledRule{}, bad(err.Error())
		}
	}
	return c, nil
}

// Match evaluates urlPath (no query) against the table.
func (rw *Rewriter) Match(urlPath string) Resolution {
	segs := splitPath(urlPath)
	pass := Resolution{PageTarget: urlPath}
	if len(segs) == 0 {
		return pass
	}

	ns := View
	first := segs[0]
	if first == string(Manage) {
		ns = Manage
		first = ""
		if len(segs) > 1 {
			first = segs[1]
		}
	}
	if _, ok := rw.reserved[first]; ok {
		return pass
	}

	for _, c := range rw.rules[ns] {
		captures, ok := c.match(segs)
		if !ok {
			continue
		}
		res := Resolution{PageTarget: c.Page, Matched: true, Pattern: c.Pattern}
		if c.PathTemplate != "" {
			p, err := expand(c.PathTemplate, captures)
			if err != nil || validCanonical(p) != nil {
				continue
			}
			res.CanonicalPath = p
		}
		return res
	}
	return pass
}

func (c compiledRule) match(segs []string) (map[string]string, bool) {
	if c.wildcard {
		if len(segs) < len(c.segs) {
			return nil, false
		}
	} else if len(segs) != len(c.segs) {
		return nil, false
	}

	captures := make(map[string]string)
	for i, want := range c.segs {
		got := segs[i]
		if strings.HasPrefix(want, ":") {
			captures[want[1:]] = got
			continue
		}
		if want != got {
			return nil, false
		}
	}
	return captures, true
}

// Rewrite returns the rewritten URL for u, or (u, false) when no rule
// matches. Incoming query parameters are kept; "path" is overwritten with
// the canonical path.
func (rw *Rewriter) Rewrite(u *url.URL) (*url.URL, bool) {
	res := rw.Match(u.Path)
	if !res.Matched {
		return u, false
	}

	out := *u
	out.Path = res.PageTarget
	out.RawPath = ""
	q := u.Query()
	if res.CanonicalPath != "" {
		q.Set(PathParam, res.CanonicalPath)
	}
	out.RawQuery = q.Encode()
	return &out, true
}

// Resolve parses rawURL (absolute or path-only) and resolves it.
func (rw *Rewriter) Resolve(rawURL string) (Resolution, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Resolution{}, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	return rw.Match(p), nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	segs := strings.Split(p, "/")
	for _, s := range segs {
		if s == "" {
			return nil
		}
	}
	return segs
}

func expand(template string, captures map[string]string) (string, error) {
	parts := strings.Split(template, "/")
	for i, part := range parts {
		if !strings.HasPrefix(part, ":") {
			continue
		}
		v, ok := captures[part[1:]]
		if !ok {
			return "", fmt.Errorf("template parameter %s is not captured", part)
		}
		parts[i] = v
	}
	return strings.Join(parts, "/"), nil
}

// validCanonical accepts a document path or a collection path under one.
func validCanonical(p string) error {
	if docpath.Validate(p) == nil {
		return nil
	}
	parent, collection, err := docpath.SplitCollectionPath(p)
	if err != nil {
		return err
	}
	if parent == docpath.Root {
		if collection != docpath.Organizations {
			return fmt.Errorf("unknown root collection %q", collection)
		}
		return nil
	}
	kind := docpath.KindOf(parent)
	if kind == docpath.KindUnknown {
		return docpath.Validate(parent)
	}
	if child, ok := kind.ChildCollection(); !ok || child != collection {
		return fmt.Errorf("%q is not a child collection of %s", collection, kind)
	}
	return nil
}
