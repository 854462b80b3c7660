package artifact

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/apiforge/schemagen/internal/naming"
)

// ErrConvention reports a schema path that does not follow the
// <root>/<resource>/schemas/<action>/<kind>.schema.json layout.
var ErrConvention = errors.New("schema path does not follow the directory convention")

// DefaultCode is used for response schemas without a parsable status code.
const DefaultCode = 200

// Kind is the request or response part a schema file describes.
type Kind string

const (
	Headers     Kind = "headers"
	Params      Kind = "params"
	Querystring Kind = "querystring"
	Body        Kind = "body"
	Response    Kind = "response"
)

// Kinds lists every kind in the order fragments are emitted.
var Kinds = []Kind{Headers, Params, Querystring, Body, Response}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Identifier is the capitalised form used for declaration and field names.
func (k Kind) Identifier() string {
	return naming.Sanitize(string(k))
}

// Location is the classification of one discovered schema file.
type Location struct {
	Path         string
	Dir          string
	Resource     string
	ResourcePath string
	Action       string
	Kind         Kind
	Code         int
}

// HasCode reports whether the location addresses a response slot.
func (l Location) HasCode() bool {
	return l.Kind == Response
}

func (l Location) String() string {
	s := path.Join(l.Resource, l.Action, string(l.Kind))
	if l.HasCode() {
		s += "/" + strconv.Itoa(l.Code)
	}
	return s
}

// ResourceName returns the directory segment right after the first /marker/ in
// dir, along with the prefix of dir that ends with it.
func ResourceName(dir, marker string) (name, prefix string, ok bool) {
	needle := "/" + marker + "/"
	padded := "/" + strings.Trim(dir, "/") + "/"
	i := strings.Index(padded, needle)
	if i < 0 {
		return "", "", false
	}
	rest := padded[i+len(needle):]
	name, _, _ = strings.Cut(rest, "/")
	if name == "" {
		return "", "", false
	}
	prefix = strings.Trim(padded[:i+len(needle)]+name, "/")
	return name, prefix, true
}

// ActionName returns the last segment of dir.
func ActionName(dir string) string {
	return path.Base(dir)
}

// ParameterName returns the part of a file name before its first dot.
func ParameterName(name string) string {
	p, _, _ := strings.Cut(path.Base(name), ".")
	return p
}

// Code returns the status code encoded in a response file name. Names that
// do not start with "response." have no code; a missing or non-numeric code
// falls back to DefaultCode.
func Code(name string) (int, bool) {
	base := strings.TrimSuffix(path.Base(name), ".schema.json")
	base = strings.TrimSuffix(base, ".json")
	if base == string(Response) {
		return DefaultCode, true
	}
	rest, ok := strings.CutPrefix(base, string(Response)+".")
	if !ok {
		return 0, false
	}
	seg, _, _ := strings.Cut(rest, ".")
	return leadingInt(seg), true
}

// leadingInt reads an optionally signed decimal prefix of s after leading
// whitespace, like JavaScript's parseInt with radix 10. No digits yields
// DefaultCode.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	start := 0
	if start < len(s) && (s[start] == '-' || s[start] == '+') {
		start++
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return DefaultCode
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return DefaultCode
	}
	return n
}

// Classify derives a Location from a slash-separated schema path. marker is
// the name of the directory that holds the resources.
func Classify(p, marker string) (Location, error) {
	dir := path.Dir(p)
	resource, prefix, ok := ResourceName(dir, marker)
	if !ok {
		return Location{}, fmt.Errorf("%w: %s: no %q directory in path", ErrConvention, p, marker)
	}
	kind, ok := ParseKind(ParameterName(p))
	if !ok {
		return Location{}, fmt.Errorf("%w: %s: unknown parameter %q", ErrConvention, p, ParameterName(p))
	}
	loc := Location{
		Path:         p,
		Dir:          dir,
		Resource:     resource,
		ResourcePath: prefix,
		Action:       ActionName(dir),
		Kind:         kind,
	}
	if kind == Response {
		loc.Code, _ = Code(p)
	}
	return loc, nil
}
