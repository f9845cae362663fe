package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pb33f/libopenapi"
	validator "github.com/pb33f/libopenapi-validator"

	"github.com/kolah/drygen/internal/model"
	"github.com/kolah/drygen/internal/resolver"
)

var ErrUnsupportedVersion = errors.New("unsupported OpenAPI version")

type Result struct {
	Document *model.Document
	Version  string
	Warnings []string
	RawData  []byte
	// BaseDir is the directory relative file references resolve against.
	BaseDir string
	// Source is the canonical key of the root document, empty for raw bytes.
	Source string
}

type Options struct {
	// Validate runs a structural check of the whole document and reports
	// findings as warnings.
	Validate bool
	Fetcher  resolver.Fetcher
	Logger   *slog.Logger
}

func LoadFile(path string) (*Result, error) {
	return Load(context.Background(), path, Options{})
}

// Load reads the root document from a local path or an http(s) URL.
func Load(ctx context.Context, location string, opts Options) (*Result, error) {
	src, err := resolver.NewSource(location, "")
	if err != nil {
		return nil, fmt.Errorf("reading spec %s: %w", location, err)
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = resolver.NewSourceFetcher(resolver.DefaultSettings(), opts.Logger)
	}

	data, err := fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("reading spec %s: %w", location, err)
	}

	result, err := load(data, src.Format, opts)
	if err != nil {
		return nil, err
	}

	result.Source = src.Key
	if !src.Remote {
		result.BaseDir = filepath.Dir(src.Key)
	}
	return result, nil
}

// LoadBytes parses an in-memory document. Relative references resolve
// against the working directory.
func LoadBytes(data []byte, format model.Format, opts Options) (*Result, error) {
	result, err := load(data, format, opts)
	if err != nil {
		return nil, err
	}
	if wd, err := os.Getwd(); err == nil {
		result.BaseDir = wd
	}
	return result, nil
}

func load(data []byte, format model.Format, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	doc, err := libopenapi.NewDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}

	version := doc.GetVersion()
	if !strings.HasPrefix(version, "3.") {
		return nil, fmt.Errorf("%w: %s (only 3.x supported)", ErrUnsupportedVersion, version)
	}

	parsed, err := model.DecodeDocument(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}

	result := &Result{
		Document: parsed,
		Version:  version,
		RawData:  data,
	}

	if opts.Validate {
		result.Warnings = append(result.Warnings, validate(doc)...)
	}

	logger.Info("document loaded", "version", version, "paths", parsed.Paths.Len())
	return result, nil
}

func validate(doc libopenapi.Document) []string {
	v, errs := validator.NewValidator(doc)
	if len(errs) > 0 {
		warnings := make([]string, 0, len(errs))
		for _, err := range errs {
			warnings = append(warnings, fmt.Sprintf("document validation unavailable: %v", err))
		}
		return warnings
	}

	valid, findings := v.ValidateDocument()
	if valid {
		return nil
	}

	warnings := make([]string, 0, len(findings))
	for _, f := range findings {
		msg := f.Message
		if f.Reason != "" {
			msg += ": " + f.Reason
		}
		warnings = append(warnings, "document validation: "+msg)
	}
	return warnings
}
