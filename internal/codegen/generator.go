package codegen

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/kolah/drygen/internal/config"
	"github.com/kolah/drygen/internal/ir"
	"github.com/kolah/drygen/internal/loader"
	"github.com/kolah/drygen/internal/metrics"
	"github.com/kolah/drygen/internal/model"
	"github.com/kolah/drygen/internal/resolver"
	"github.com/kolah/drygen/internal/ruby"
	"github.com/kolah/drygen/internal/templates"
	embeddedtmpl "github.com/kolah/drygen/templates"
)

const (
	schemasTemplate = "ruby/schemas.rb.tmpl"
	defaultFilename = "schemas.rb"
)

type Generator struct {
	config  *config.Config
	engine  templates.Engine
	logger  *slog.Logger
	metrics *metrics.Metrics
	fetcher resolver.Fetcher
}

type Option func(*Generator)

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithFetcher shares a fetcher, and with it the per-host circuit breakers,
// with the loader.
func WithFetcher(f resolver.Fetcher) Option {
	return func(g *Generator) { g.fetcher = f }
}

type Output struct {
	Filename string
	Content  string
}

// Definition is one rendered operation.
type Definition struct {
	Name        string
	OperationID string
	Path        string
	Method      string
	Code        string
}

// Document is the data passed to the output template.
type Document struct {
	Title       string
	Version     string
	Source      string
	Definitions []Definition
}

type Result struct {
	Output      Output
	Definitions []Definition
	Diagnostics []string
	// Skipped counts operations without an operationId.
	Skipped int
}

func New(cfg *config.Config, opts ...Option) (*Generator, error) {
	g := &Generator{config: cfg}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	if g.metrics == nil {
		g.metrics = metrics.New()
	}
	if g.fetcher == nil {
		g.fetcher = resolver.NewSourceFetcher(cfg.Resolver.Settings(), g.logger)
	}

	engine, err := templates.NewEngine(embeddedtmpl.FS, cfg.Templates.Dir, ruby.TemplateFuncs())
	if err != nil {
		return nil, fmt.Errorf("creating template engine: %w", err)
	}
	g.engine = engine

	return g, nil
}

func (g *Generator) Generate(ctx context.Context, loaded *loader.Result) (*Result, error) {
	baseDir := loaded.BaseDir
	if g.config.Resolver.BaseDir != "" {
		baseDir = g.config.Resolver.BaseDir
	}

	res := resolver.New(loaded.Document,
		resolver.WithBaseDir(baseDir),
		resolver.WithFetcher(g.fetcher),
		resolver.WithLogger(g.logger),
		resolver.WithMetrics(g.metrics),
		resolver.WithRemote(g.config.Resolver.AllowRemote),
	)

	defs, diagnostics, skipped, err := Translate(ctx, loaded.Document, res, loader.BuildOptions{
		Logger:  g.logger,
		Metrics: g.metrics,
	})
	if err != nil {
		return nil, err
	}

	content, err := g.engine.Execute(schemasTemplate, Document{
		Title:       loaded.Document.Info.Title,
		Version:     loaded.Document.Info.Version,
		Source:      loaded.Source,
		Definitions: defs,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering output: %w", err)
	}

	return &Result{
		Output: Output{
			Filename: g.filename(loaded.Source),
			Content:  content,
		},
		Definitions: defs,
		Diagnostics: diagnostics,
		Skipped:     skipped,
	}, nil
}

// Translate builds the schema tree of doc and renders one definition per
// operation that has an id, in document order.
func Translate(ctx context.Context, doc *model.Document, res *resolver.Resolver, opts loader.BuildOptions) ([]Definition, []string, int, error) {
	tr, diagnostics, err := loader.Transform(ctx, doc, res, opts)
	if err != nil {
		return nil, diagnostics, 0, err
	}

	var (
		defs    []Definition
		skipped int
	)
	for _, op := range tr.Operations {
		if !op.HasID() {
			skipped++
			continue
		}
		def := ir.Normalize(op)
		defs = append(defs, Definition{
			Name:        ruby.ConstantName(def.Name),
			OperationID: op.ID,
			Path:        op.Path,
			Method:      op.Method,
			Code:        ruby.Generate(def),
		})
	}
	return defs, diagnostics, skipped, nil
}

// filename derives "<stem>.rb" from the input document name unless one is
// configured.
func (g *Generator) filename(source string) string {
	if g.config.Filename != "" {
		return g.config.Filename
	}
	if source == "" {
		return defaultFilename
	}

	base := filepath.Base(source)
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Host != "" {
		base = path.Base(u.Path)
	}

	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		return defaultFilename
	}
	return stem + ".rb"
}
