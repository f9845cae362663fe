package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/kolah/drygen/internal/metrics"
	"github.com/kolah/drygen/internal/model"
	"github.com/kolah/drygen/internal/resolver"
	"github.com/kolah/drygen/internal/tree"
)

// Unsupported construct names used in diagnostics.
const (
	constructAllOf   = "AllOf"
	constructOneOf   = "OneOf"
	constructAnyOf   = "AnyOf"
	constructNot     = "Not"
	constructAny     = "Any"
	constructContent = "Content"
)

// ErrBoundOutOfRange is returned when an integer bound cannot be represented
// as a 64-bit integer.
var ErrBoundOutOfRange = errors.New("integer bound out of range")

type BuildOptions struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

type transformer struct {
	doc      *model.Document
	resolver *resolver.Resolver
	logger   *slog.Logger
	metrics  *metrics.Metrics

	diagnostics []string
}

// Transform builds the schema tree for every operation in doc. Unsupported
// constructs are reported as diagnostics and omitted; unresolvable references
// abort the build.
func Transform(ctx context.Context, doc *model.Document, res *resolver.Resolver, opts BuildOptions) (*tree.Tree, []string, error) {
	t := &transformer{
		doc:      doc,
		resolver: res,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	if t.metrics == nil {
		t.metrics = metrics.New()
	}

	out := &tree.Tree{}
	for path, item := range doc.Paths.FromOldest() {
		if item == nil {
			continue
		}
		ops, err := t.transformPath(ctx, path, item)
		if err != nil {
			return nil, t.diagnostics, err
		}
		out.Operations = append(out.Operations, ops...)
	}

	return out, t.diagnostics, nil
}

func (t *transformer) transformPath(ctx context.Context, path string, item *model.PathItem) ([]tree.Operation, error) {
	if item.Ref != "" {
		resolved, err := t.resolver.PathItem(ctx, item.Ref)
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", path, err)
		}
		item = resolved
	}

	shared, err := t.resolveParameters(ctx, item.Parameters)
	if err != nil {
		return nil, fmt.Errorf("path %s: %w", path, err)
	}

	var ops []tree.Operation
	for _, mo := range item.Operations() {
		op, err := t.transformOperation(ctx, path, mo, shared)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", mo.Method, path, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (t *transformer) transformOperation(ctx context.Context, path string, mo model.MethodOperation, shared []*model.Parameter) (tree.Operation, error) {
	op := tree.Operation{
		Path:   path,
		Method: string(mo.Method),
		ID:     mo.Operation.OperationID,
	}
	if !op.HasID() {
		t.diagnose(fmt.Sprintf("`operationId` is not found in %s %s", path, mo.Method))
	}

	own, err := t.resolveParameters(ctx, mo.Operation.Parameters)
	if err != nil {
		return op, err
	}

	sc := scope{path: path, operationID: op.ID}
	for _, p := range mergeParameters(shared, own) {
		if p.Location() != model.LocationQuery {
			t.logger.Debug("skipping non-query parameter", "path", path, "method", mo.Method, "name", p.Name, "in", p.In)
			continue
		}

		param, ok, err := t.transformParameter(ctx, sc, p)
		if err != nil {
			return op, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		if ok {
			op.Parameters = append(op.Parameters, param)
		}
	}
	return op, nil
}

func (t *transformer) resolveParameters(ctx context.Context, params []*model.Parameter) ([]*model.Parameter, error) {
	out := make([]*model.Parameter, 0, len(params))
	for _, p := range params {
		if p == nil {
			continue
		}
		if p.Ref != "" {
			resolved, err := t.resolver.Parameter(ctx, p.Ref)
			if err != nil {
				return nil, err
			}
			p = resolved
		}
		out = append(out, p)
	}
	return out, nil
}

// mergeParameters overlays operation parameters on path-level ones. An
// operation parameter with the same location and name replaces the shared
// one in place.
func mergeParameters(shared, own []*model.Parameter) []*model.Parameter {
	if len(shared) == 0 {
		return own
	}

	type key struct {
		in   model.ParameterLocation
		name string
	}

	merged := make([]*model.Parameter, len(shared))
	copy(merged, shared)
	index := make(map[key]int, len(shared))
	for i, p := range shared {
		index[key{p.Location(), p.Name}] = i
	}

	for _, p := range own {
		k := key{p.Location(), p.Name}
		if i, ok := index[k]; ok {
			merged[i] = p
			continue
		}
		index[k] = len(merged)
		merged = append(merged, p)
	}
	return merged
}

// scope attributes diagnostics to their path and operation.
type scope struct {
	path        string
	operationID string
}

func (t *transformer) transformParameter(ctx context.Context, sc scope, p *model.Parameter) (tree.Param, bool, error) {
	if p.HasContent() {
		t.unsupported(sc, constructContent, p.Name)
		return tree.Param{}, false, nil
	}
	if p.Schema == nil {
		t.unsupported(sc, constructAny, p.Name)
		return tree.Param{}, false, nil
	}

	ty, ok, err := t.transformSchema(ctx, sc, p.Schema, p.Name)
	if err != nil || !ok {
		return tree.Param{}, false, err
	}
	return tree.Param{Name: p.Name, Required: p.Required, Type: ty}, true, nil
}

// transformSchema maps a schema to a tree type. at is the dotted location
// of the schema below its parameter, used in diagnostics.
func (t *transformer) transformSchema(ctx context.Context, sc scope, s *model.Schema, at string) (tree.Type, bool, error) {
	if s.Ref != "" {
		resolved, err := t.resolver.Schema(ctx, s.Ref)
		if err != nil {
			return nil, false, err
		}
		s = resolved
	}

	if construct := compositionOf(s); construct != "" {
		t.unsupported(sc, construct, at)
		return nil, false, nil
	}

	switch schemaType(s) {
	case model.TypeInteger:
		v, err := integerBounds(s)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", at, err)
		}
		return tree.Integer{Validates: v}, true, nil
	case model.TypeNumber:
		return tree.Number{Validates: numberBounds(s)}, true, nil
	case model.TypeString:
		var v []tree.Validate
		if s.MaxLength != nil {
			v = append(v, tree.MaxLength{Value: *s.MaxLength})
		}
		if s.MinLength != nil {
			v = append(v, tree.MinLength{Value: *s.MinLength})
		}
		return tree.String{Validates: v}, true, nil
	case model.TypeBoolean:
		return tree.Boolean{}, true, nil
	case model.TypeArray:
		return t.transformArray(ctx, sc, s, at)
	case model.TypeObject:
		return t.transformObject(ctx, sc, s, at)
	default:
		t.unsupported(sc, constructAny, at)
		return nil, false, nil
	}
}

func (t *transformer) transformArray(ctx context.Context, sc scope, s *model.Schema, at string) (tree.Type, bool, error) {
	arr := tree.Array{}
	if s.MaxItems != nil {
		arr.Validates = append(arr.Validates, tree.MaxItems{Value: *s.MaxItems})
	}
	if s.MinItems != nil {
		arr.Validates = append(arr.Validates, tree.MinItems{Value: *s.MinItems})
	}

	if s.Items != nil {
		item, ok, err := t.transformSchema(ctx, sc, s.Items, at+"[]")
		if err != nil {
			return nil, false, err
		}
		if ok {
			arr.Item = item
		}
	}
	return arr, true, nil
}

func (t *transformer) transformObject(ctx context.Context, sc scope, s *model.Schema, at string) (tree.Type, bool, error) {
	obj := tree.Object{}
	for name, prop := range s.Properties.FromOldest() {
		if prop == nil {
			continue
		}
		ty, ok, err := t.transformSchema(ctx, sc, prop, at+"."+name)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		obj.Properties = append(obj.Properties, tree.Param{
			Name:     name,
			Required: s.IsRequired(name),
			Type:     ty,
		})
	}
	return obj, true, nil
}

func compositionOf(s *model.Schema) string {
	switch {
	case len(s.AllOf) > 0:
		return constructAllOf
	case len(s.OneOf) > 0:
		return constructOneOf
	case len(s.AnyOf) > 0:
		return constructAnyOf
	case s.Not != nil:
		return constructNot
	default:
		return ""
	}
}

// schemaType returns the declared type, inferring object or array from
// properties or items when no type is given.
func schemaType(s *model.Schema) model.SchemaType {
	if ty := s.Type.Primary(); ty != "" {
		return ty
	}
	switch {
	case s.Properties.Len() > 0:
		return model.TypeObject
	case s.Items != nil:
		return model.TypeArray
	default:
		return ""
	}
}

// bound folds an exclusive marker into an inclusive bound. A numeric
// exclusive bound (3.1 form) replaces the plain one.
func bound(plain *float64, exclusive model.Exclusive) (float64, bool, bool) {
	if exclusive.Bound != nil {
		return *exclusive.Bound, true, true
	}
	if plain == nil {
		return 0, false, false
	}
	return *plain, exclusive.Flag, true
}

// integerBounds rounds bounds inward to the nearest integer an instance may
// take: an inclusive minimum rounds up, an exclusive one moves past it.
func integerBounds(s *model.Schema) ([]tree.Validate, error) {
	var v []tree.Validate
	if hi, excl, ok := bound(s.Maximum, s.ExclusiveMaximum); ok {
		n := math.Floor(hi)
		if excl {
			n = math.Ceil(hi) - 1
		}
		upper, err := toInt64(n, hi)
		if err != nil {
			return nil, fmt.Errorf("maximum: %w", err)
		}
		v = append(v, tree.Max{Value: upper})
	}
	if lo, excl, ok := bound(s.Minimum, s.ExclusiveMinimum); ok {
		n := math.Ceil(lo)
		if excl {
			n = math.Floor(lo) + 1
		}
		lower, err := toInt64(n, lo)
		if err != nil {
			return nil, fmt.Errorf("minimum: %w", err)
		}
		v = append(v, tree.Min{Value: lower})
	}
	return v, nil
}

func toInt64(n, declared float64) (int64, error) {
	if !(n >= -0x1p63 && n < 0x1p63) {
		return 0, fmt.Errorf("%w: %v", ErrBoundOutOfRange, declared)
	}
	return int64(n), nil
}

func numberBounds(s *model.Schema) []tree.Validate {
	var v []tree.Validate
	if hi, excl, ok := bound(s.Maximum, s.ExclusiveMaximum); ok {
		if excl {
			hi--
		}
		v = append(v, tree.MaxF{Value: hi})
	}
	if lo, excl, ok := bound(s.Minimum, s.ExclusiveMinimum); ok {
		if excl {
			lo++
		}
		v = append(v, tree.MinF{Value: lo})
	}
	return v
}

func (t *transformer) unsupported(sc scope, construct, at string) {
	msg := fmt.Sprintf("`%s` is not supported in %s in %s", construct, at, sc.path)
	if sc.operationID != "" {
		msg += " " + sc.operationID
	}
	t.diagnose(msg)
}

func (t *transformer) diagnose(msg string) {
	t.metrics.Diagnostics.Inc()
	t.logger.Debug("diagnostic", "message", msg)
	t.diagnostics = append(t.diagnostics, msg)
}
