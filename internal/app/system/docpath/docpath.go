// Package docpath builds and parses canonical document paths.
//
// A canonical path alternates collection names and document ids:
//
//	organizations/<org>/series/<series>/events/<event>/races/<race>/preems/<preem>/contributions/<id>
//
// Every other package goes through docpath for path math. Nothing here
// performs I/O.
package docpath

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is matched (errors.Is) by every malformed-path failure.
var ErrInvalidPath = errors.New("invalid document path")

// InvalidPathError carries the offending path and the reason it was rejected.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid document path %q: %s", e.Path, e.Reason)
}

func (e *InvalidPathError) Unwrap() error { return ErrInvalidPath }

func invalid(path, reason string) error {
	return &InvalidPathError{Path: path, Reason: reason}
}

// Root is the parent of a top-level document (an Organization or a User).
const Root = ""

// Collection names, in hierarchy order.
const (
	Organizations = "organizations"
	Series        = "series"
	Events        = "events"
	Races         = "races"
	Preems        = "preems"
	Contributions = "contributions"

	// Users is a root collection outside the race hierarchy; contributors
	// reference it.
	Users = "users"
)

var hierarchy = [...]string{Organizations, Series, Events, Races, Preems, Contributions}

// MaxDepth is the depth of a Contribution, the deepest document.
const MaxDepth = len(hierarchy)

// Kind identifies which entity a path addresses.
type Kind int

const (
	KindUnknown Kind = iota
	KindOrganization
	KindSeries
	KindEvent
	KindRace
	KindPreem
	KindContribution
	KindUser
)

func (k Kind) String() string {
	switch k {
	case KindOrganization:
		return "organization"
	case KindSeries:
		return "series"
	case KindEvent:
		return "event"
	case KindRace:
		return "race"
	case KindPreem:
		return "preem"
	case KindContribution:
		return "contribution"
	case KindUser:
		return "user"
	}
	return "unknown"
}

// Depth returns the hierarchy level of k (1 = Organization … 6 = Contribution).
// Users sit at depth 1 of their own root collection.
func (k Kind) Depth() int {
	switch {
	case k >= KindOrganization && k <= KindContribution:
		return int(k - KindOrganization + 1)
	case k == KindUser:
		return 1
	}
	return 0
}

// Collection returns the collection name documents of kind k live in.
func (k Kind) Collection() string {
	if k == KindUser {
		return Users
	}
	if d := k.Depth(); d > 0 {
		return hierarchy[d-1]
	}
	return ""
}

// ChildCollection returns the collection directly below k, or false for
// leaves (Contribution, User).
func (k Kind) ChildCollection() (string, bool) {
	if k >= KindOrganization && k < KindContribution {
		return hierarchy[k.Depth()], true
	}
	return "", false
}

// KindAtDepth returns the hierarchy kind for depth d (1..MaxDepth).
func KindAtDepth(d int) Kind {
	if d < 1 || d > MaxDepth {
		return KindUnknown
	}
	return KindOrganization + Kind(d-1)
}

// Join builds a canonical path from alternating collection/id segments.
func Join(segments ...string) (string, error) {
	joined := strings.Join(segments, "/")
	if len(segments) == 0 {
		return "", invalid(joined, "no segments")
	}
	if len(segments)%2 != 0 {
		return "", invalid(joined, "odd number of segments")
	}
	for i, s := range segments {
		if s == "" {
			if i%2 == 0 {
				return "", invalid(joined, "empty collection segment")
			}
			return "", invalid(joined, "empty id segment")
		}
		if strings.Contains(s, "/") {
			return "", invalid(joined, fmt.Sprintf("segment %q contains '/'", s))
		}
	}
	return joined, nil
}

// Segments splits a path and checks its generic shape (even, non-empty
// segments). It does not check collection names; see Validate.
func Segments(path string) ([]string, error) {
	if path == "" {
		return nil, invalid(path, "empty path")
	}
	segs := strings.Split(path, "/")
	if _, err := Join(segs...); err != nil {
		return nil, err
	}
	return segs, nil
}

// Parent drops the last collection/id pair. A top-level document returns Root.
func Parent(path string) (string, error) {
	segs, err := Segments(path)
	if err != nil {
		return "", err
	}
	if len(segs) == 2 {
		return Root, nil
	}
	return strings.Join(segs[:len(segs)-2], "/"), nil
}

// IDOf returns the trailing id segment, or "" when path is malformed.
func IDOf(path string) string {
	segs, err := Segments(path)
	if err != nil {
		return ""
	}
	return segs[len(segs)-1]
}

// Depth returns the number of id segments, or 0 when path is malformed.
func Depth(path string) int {
	segs, err := Segments(path)
	if err != nil {
		return 0
	}
	return len(segs) / 2
}

// Validate checks shape and that collection names follow the hierarchy.
func Validate(path string) error {
	_, err := kindOf(path)
	return err
}

// KindOf returns the kind a valid path addresses, or KindUnknown.
func KindOf(path string) Kind {
	k, err := kindOf(path)
	if err != nil {
		return KindUnknown
	}
	return k
}

func kindOf(path string) (Kind, error) {
	segs, err := Segments(path)
	if err != nil {
		return KindUnknown, err
	}
	if segs[0] == Users {
		if len(segs) != 2 {
			return KindUnknown, invalid(path, "users documents have no sub-collections")
		}
		return KindUser, nil
	}
	depth := len(segs) / 2
	if depth > MaxDepth {
		return KindUnknown, invalid(path, "path is deeper than the hierarchy")
	}
	for i := 0; i < depth; i++ {
		if segs[2*i] != hierarchy[i] {
			return KindUnknown, invalid(path, fmt.Sprintf("expected collection %q at level %d, got %q", hierarchy[i], i+1, segs[2*i]))
		}
	}
	return KindAtDepth(depth), nil
}

// Child appends a collection/id pair to a document path.
func Child(path, collection, id string) (string, error) {
	segs, err := Segments(path)
	if err != nil {
		return "", err
	}
	return Join(append(segs, collection, id)...)
}

// CollectionPath returns the path of a sub-collection of path. For Root it
// returns the collection name itself.
func CollectionPath(path, collection string) (string, error) {
	if collection == "" || strings.Contains(collection, "/") {
		return "", invalid(path+"/"+collection, "collection must be a single segment")
	}
	if path == Root {
		return collection, nil
	}
	if _, err := Segments(path); err != nil {
		return "", err
	}
	return path + "/" + collection, nil
}

// SplitCollectionPath splits a collection path (odd number of segments)
// into its owning document path and the collection name.
func SplitCollectionPath(collPath string) (parent, collection string, err error) {
	if collPath == "" {
		return "", "", invalid(collPath, "empty collection path")
	}
	segs := strings.Split(collPath, "/")
	if len(segs)%2 != 1 {
		return "", "", invalid(collPath, "collection path must have an odd number of segments")
	}
	for _, s := range segs {
		if s == "" {
			return "", "", invalid(collPath, "empty segment")
		}
	}
	collection = segs[len(segs)-1]
	if len(segs) == 1 {
		return Root, collection, nil
	}
	return strings.Join(segs[:len(segs)-1], "/"), collection, nil
}

// Ancestors returns every ancestor document path of path, root first.
func Ancestors(path string) ([]string, error) {
	segs, err := Segments(path)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(segs)/2-1)
	for i := 2; i < len(segs); i += 2 {
		out = append(out, strings.Join(segs[:i], "/"))
	}
	return out, nil
}

// ToURLPath keeps only the id segments of a hierarchy path, which is the
// shape used in public URLs: organizations/a/series/b → a/b. User paths map
// to user/<id>.
func ToURLPath(docPath string) (string, error) {
	k, err := kindOf(docPath)
	if err != nil {
		return "", err
	}
	segs := strings.Split(docPath, "/")
	if k == KindUser {
		return "user/" + segs[1], nil
	}
	ids := make([]string, 0, len(segs)/2)
	for i := 1; i < len(segs); i += 2 {
		ids = append(ids, segs[i])
	}
	return strings.Join(ids, "/"), nil
}

// FromURLPath is the inverse of ToURLPath. A leading "view/" before a user
// path is accepted.
func FromURLPath(urlPath string) (string, error) {
	trimmed := strings.Trim(urlPath, "/")
	if trimmed == "" {
		return "", invalid(urlPath, "empty url path")
	}
	segs := strings.Split(trimmed, "/")
	if len(segs) > 1 && segs[0] == "view" && segs[1] == "user" {
		segs = segs[1:]
	}
	if segs[0] == "user" {
		if len(segs) != 2 || segs[1] == "" {
			return "", invalid(urlPath, "user url path must be user/<id>")
		}
		return Users + "/" + segs[1], nil
	}
	if len(segs) > MaxDepth {
		return "", invalid(urlPath, "url path is deeper than the hierarchy")
	}
	pairs := make([]string, 0, 2*len(segs))
	for i, id := range segs {
		pairs = append(pairs, hierarchy[i], id)
	}
	return Join(pairs...)
}
