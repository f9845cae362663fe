package model

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"go.yaml.in/yaml/v4"
)

// Format is the serialization of a document or referenced artifact.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unrecognized file extension")

// FormatFromPath derives the artifact format from the extension of a file
// path or URL path.
func FormatFromPath(p string) (Format, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, p)
	}
}

// Decode parses data of the given format into a T. JSON is read as YAML flow
// syntax, so both formats keep mapping order through yaml.Node decoding.
func Decode[T any](data []byte, format Format) (*T, error) {
	var out T
	switch format {
	case FormatJSON, FormatYAML:
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &out, nil
}

// DecodeDocument parses a root API document.
func DecodeDocument(data []byte, format Format) (*Document, error) {
	doc, err := Decode[Document](data, format)
	if err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}
