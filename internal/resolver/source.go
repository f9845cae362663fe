package resolver

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/kolah/drygen/internal/model"
)

// Kind is the fragment kind a reference is expected to produce.
type Kind int

const (
	KindPathItem Kind = iota
	KindParameter
	KindSchema
)

func (k Kind) String() string {
	switch k {
	case KindPathItem:
		return "path_item"
	case KindParameter:
		return "parameter"
	case KindSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// section is the #/components segment a same-document pointer of this kind
// must name.
func (k Kind) section() model.ComponentKind {
	switch k {
	case KindParameter:
		return model.ComponentParameters
	case KindSchema:
		return model.ComponentSchemas
	default:
		return ""
	}
}

// Source is an external artifact. Key is its canonical identity: an absolute,
// symlink-free file path or an absolute URL without fragment.
type Source struct {
	Key    string
	Remote bool
	Format model.Format
}

// Reference is a classified reference token: either a same-document component
// pointer (Component set) or an external Source.
type Reference struct {
	Token     string
	Component string
	Source    *Source
}

// IsLocalPointer reports whether the token points into the current document.
func (r Reference) IsLocalPointer() bool {
	return r.Source == nil
}

// Parse classifies token for the expected kind. Relative file paths are
// resolved against baseDir.
func Parse(token string, kind Kind, baseDir string) (Reference, error) {
	if strings.HasPrefix(token, "#") {
		name, err := parsePointer(token, kind)
		if err != nil {
			return Reference{}, newError(token, kind, "", ErrInvalidPointer, err)
		}
		return Reference{Token: token, Component: name}, nil
	}

	location, _, _ := strings.Cut(token, "#")
	src, err := NewSource(location, baseDir)
	if err != nil {
		return Reference{}, &Error{Token: token, Kind: kind, Source: location, Err: err}
	}
	return Reference{Token: token, Source: &src}, nil
}

// NewSource classifies location as a remote URL (http/https) or a local file
// and derives its artifact format from the extension.
func NewSource(location, baseDir string) (Source, error) {
	if location == "" {
		return Source{}, fmt.Errorf("%w: empty location", ErrFetch)
	}

	if isRemote(location) {
		u, err := url.Parse(location)
		if err != nil {
			return Source{}, fmt.Errorf("%w: %w", ErrFetch, err)
		}
		u.Fragment = ""
		format, err := model.FormatFromPath(u.Path)
		if err != nil {
			return Source{}, fmt.Errorf("%w: %w", ErrUnsupportedExtension, err)
		}
		return Source{Key: u.String(), Remote: true, Format: format}, nil
	}

	format, err := model.FormatFromPath(location)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %w", ErrUnsupportedExtension, err)
	}

	key, err := canonicalPath(location, baseDir)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return Source{Key: key, Format: format}, nil
}

func isRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// canonicalPath turns differently spelled paths to the same file into one key.
// The file must exist.
func canonicalPath(location, baseDir string) (string, error) {
	p := location
	if !filepath.IsAbs(p) && baseDir != "" {
		p = filepath.Join(baseDir, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// parsePointer validates #/components/<section>/<name> for kind and returns
// the unescaped component name.
func parsePointer(token string, kind Kind) (string, error) {
	section := kind.section()
	if section == "" {
		return "", fmt.Errorf("%s fragments cannot be referenced by component pointer", kind)
	}

	pointer := strings.TrimPrefix(token, "#")
	if !strings.HasPrefix(pointer, "/") {
		return "", fmt.Errorf("pointer must start with #/")
	}

	segments := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	if len(segments) != 3 || segments[0] != "components" || segments[2] == "" {
		return "", fmt.Errorf("expected #/components/%s/<name>", section)
	}
	if segments[1] != string(section) {
		return "", fmt.Errorf("expected #/components/%s/<name>, got section %q", section, segments[1])
	}

	name, err := url.PathUnescape(segments[2])
	if err != nil {
		return "", err
	}
	name = strings.ReplaceAll(name, "~1", "/")
	name = strings.ReplaceAll(name, "~0", "~")
	return name, nil
}
