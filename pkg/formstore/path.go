package formstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a Path: either a mapping key or a sequence index.
type Segment struct {
	Key     string
	Index   int
	isIndex bool
}

// Key returns a mapping-key segment.
func Key(name string) Segment {
	return Segment{Key: name}
}

// Index returns a sequence-index segment.
func Index(i int) Segment {
	return Segment{Index: i, isIndex: true}
}

// IsIndex reports whether the segment addresses a sequence element.
func (s Segment) IsIndex() bool {
	return s.isIndex
}

func (s Segment) String() string {
	if s.isIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Path addresses one node of a Document.
type Path []Segment

// P builds a Path from strings (keys) and ints (indices). It panics on any
// other element type; use ParsePath for untrusted input.
func P(parts ...any) Path {
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		switch v := part.(type) {
		case string:
			path = append(path, Key(v))
		case int:
			path = append(path, Index(v))
		case Segment:
			path = append(path, v)
		default:
			panic(fmt.Sprintf("formstore: unsupported path element %T", part))
		}
	}
	return path
}

// ParsePath accepts dotted (`benefits.2.text`), bracketed (`benefits[2].text`)
// and JSON pointer (`/benefits/2/text`) notations. All-digit segments become
// indices. An empty string yields the root path.
func ParsePath(raw string) (Path, error) {
	segments := parsePathSegments(raw)
	path := make(Path, 0, len(segments))
	for _, segment := range segments {
		if isNumeric(segment) {
			idx, err := strconv.Atoi(segment)
			if err != nil {
				return nil, fmt.Errorf("formstore: parse path %q: %w", raw, err)
			}
			path = append(path, Index(idx))
			continue
		}
		path = append(path, Key(segment))
	}
	return path, nil
}

// String renders the path in dotted notation.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, segment := range p {
		parts[i] = segment.String()
	}
	return strings.Join(parts, ".")
}

// Append returns a new path extended by the given segments.
func (p Path) Append(segments ...Segment) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// HasPrefix reports whether prefix addresses p or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if prefix[i] != p[i] {
			return false
		}
	}
	return true
}

// Overlaps reports whether one path contains the other.
func (p Path) Overlaps(other Path) bool {
	return p.HasPrefix(other) || other.HasPrefix(p)
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return nil
	}
	clean = strings.TrimPrefix(clean, "#/")
	clean = strings.TrimPrefix(clean, "$.")
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = strings.TrimLeft(clean, "#/.$")
	}

	replacer := strings.NewReplacer("[", ".", "]", "")
	clean = replacer.Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
