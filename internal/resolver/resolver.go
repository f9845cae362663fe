// Package resolver turns reference tokens into path item, parameter and
// schema fragments, fetching external artifacts at most once per kind.
package resolver

import (
	"context"
	"log/slog"
	"os"

	"github.com/kolah/drygen/internal/metrics"
	"github.com/kolah/drygen/internal/model"
)

// Resolver is single-use per generation run. It is not safe for concurrent
// use.
type Resolver struct {
	doc         *model.Document
	baseDir     string
	allowRemote bool
	fetcher     Fetcher
	logger      *slog.Logger
	metrics     *metrics.Metrics

	pathItems  map[string]*model.PathItem
	parameters map[string]*model.Parameter
	schemas    map[string]*model.Schema
	inProgress map[string]bool
}

type Option func(*Resolver)

// WithBaseDir sets the directory relative file references resolve against.
func WithBaseDir(dir string) Option {
	return func(r *Resolver) { r.baseDir = dir }
}

func WithFetcher(f Fetcher) Option {
	return func(r *Resolver) { r.fetcher = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithRemote toggles whether http(s) references may be fetched.
func WithRemote(allow bool) Option {
	return func(r *Resolver) { r.allowRemote = allow }
}

func New(doc *model.Document, opts ...Option) *Resolver {
	r := &Resolver{
		doc:         doc,
		allowRemote: true,
		pathItems:   make(map[string]*model.PathItem),
		parameters:  make(map[string]*model.Parameter),
		schemas:     make(map[string]*model.Schema),
		inProgress:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			r.baseDir = wd
		}
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	if r.fetcher == nil {
		r.fetcher = NewSourceFetcher(DefaultSettings(), r.logger)
	}
	return r
}

// PathItem resolves a path item reference. Only external tokens are valid
// for this kind.
func (r *Resolver) PathItem(ctx context.Context, token string) (*model.PathItem, error) {
	return resolve(ctx, r, token, kindOps[model.PathItem]{
		kind:  KindPathItem,
		cache: r.pathItems,
		ref:   func(p *model.PathItem) string { return p.Ref },
	})
}

// Parameter resolves a parameter reference. A same-document token must have
// the shape #/components/parameters/<name>.
func (r *Resolver) Parameter(ctx context.Context, token string) (*model.Parameter, error) {
	return resolve(ctx, r, token, kindOps[model.Parameter]{
		kind:      KindParameter,
		cache:     r.parameters,
		component: r.doc.ParameterByName,
		ref:       func(p *model.Parameter) string { return p.Ref },
	})
}

// Schema resolves a schema reference. A same-document token must have the
// shape #/components/schemas/<name>.
func (r *Resolver) Schema(ctx context.Context, token string) (*model.Schema, error) {
	return resolve(ctx, r, token, kindOps[model.Schema]{
		kind:      KindSchema,
		cache:     r.schemas,
		component: r.doc.SchemaByName,
		ref:       func(s *model.Schema) string { return s.Ref },
	})
}

type kindOps[T any] struct {
	kind      Kind
	cache     map[string]*T
	component func(name string) *T
	ref       func(*T) string
}

// resolve follows token, and any reference the produced fragment itself
// carries, until an inline fragment is reached.
func resolve[T any](ctx context.Context, r *Resolver, token string, ops kindOps[T]) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ref, err := Parse(token, ops.kind, r.baseDir)
	if err != nil {
		return nil, err
	}

	id := ops.kind.String() + "|" + token
	if !ref.IsLocalPointer() {
		id = ops.kind.String() + "|" + ref.Source.Key
	}
	if r.inProgress[id] {
		return nil, newError(token, ops.kind, sourceKey(ref), ErrReferenceCycle, nil)
	}
	r.inProgress[id] = true
	defer delete(r.inProgress, id)

	var fragment *T
	if ref.IsLocalPointer() {
		fragment = ops.component(ref.Component)
		if fragment == nil {
			return nil, newError(token, ops.kind, "", ErrComponentNotFound, nil)
		}
	} else {
		fragment, err = external(ctx, r, token, *ref.Source, ops)
		if err != nil {
			return nil, err
		}
	}

	if next := ops.ref(fragment); next != "" {
		return resolve(ctx, r, next, ops)
	}
	return fragment, nil
}

func external[T any](ctx context.Context, r *Resolver, token string, src Source, ops kindOps[T]) (*T, error) {
	if cached, ok := ops.cache[src.Key]; ok {
		r.metrics.CacheHits.WithLabelValues(ops.kind.String()).Inc()
		r.logger.Debug("reference cache hit", "kind", ops.kind.String(), "source", src.Key)
		return cached, nil
	}

	if src.Remote && !r.allowRemote {
		return nil, newError(token, ops.kind, src.Key, ErrRemoteDisabled, nil)
	}

	data, err := r.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, newError(token, ops.kind, src.Key, ErrFetch, err)
	}
	r.metrics.Fetches.WithLabelValues(ops.kind.String(), sourceLabel(src)).Inc()
	r.logger.Debug("reference fetched", "kind", ops.kind.String(), "source", src.Key, "bytes", len(data))

	fragment, err := model.Decode[T](data, src.Format)
	if err != nil {
		return nil, newError(token, ops.kind, src.Key, ErrParse, err)
	}
	ops.cache[src.Key] = fragment
	return fragment, nil
}

func sourceKey(ref Reference) string {
	if ref.Source == nil {
		return ""
	}
	return ref.Source.Key
}

func sourceLabel(src Source) string {
	if src.Remote {
		return "remote"
	}
	return "local"
}
