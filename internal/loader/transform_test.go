package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/kolah/drygen/internal/metrics"
	"github.com/kolah/drygen/internal/model"
	"github.com/kolah/drygen/internal/resolver"
	"github.com/kolah/drygen/internal/tree"
)

func transformYAML(t *testing.T, dir, src string) (*tree.Tree, []string, error) {
	t.Helper()
	doc, err := model.DecodeDocument([]byte(src), model.FormatYAML)
	require.NoError(t, err)
	res := resolver.New(doc, resolver.WithBaseDir(dir))
	return Transform(context.Background(), doc, res, BuildOptions{})
}

func TestTransformScalarParameters(t *testing.T) {
	out, diags, err := transformYAML(t, t.TempDir(), `
openapi: 3.0.0
paths:
  /users:
    get:
      operationId: listUsers
      parameters:
        - name: user_id
          in: query
          required: true
          schema:
            type: integer
            minimum: 10
            maximum: 20
        - name: page
          in: query
          schema:
            type: integer
            minimum: 10
            exclusiveMinimum: true
            maximum: 20
            exclusiveMaximum: true
        - name: ratio
          in: query
          schema:
            type: number
            minimum: 0.5
            maximum: 4
        - name: q
          in: query
          schema:
            type: string
            minLength: 1
            maxLength: 64
        - name: active
          in: query
          schema:
            type: boolean
        - name: X-Request-Id
          in: header
          schema:
            type: string
`)
	require.NoError(t, err)
	require.Empty(t, diags)
	require.Len(t, out.Operations, 1)

	op := out.Operations[0]
	require.Equal(t, "/users", op.Path)
	require.Equal(t, "get", op.Method)
	require.Equal(t, "listUsers", op.ID)
	require.Equal(t, []tree.Param{
		{Name: "user_id", Required: true, Type: tree.Integer{Validates: []tree.Validate{tree.Max{Value: 20}, tree.Min{Value: 10}}}},
		{Name: "page", Type: tree.Integer{Validates: []tree.Validate{tree.Max{Value: 19}, tree.Min{Value: 11}}}},
		{Name: "ratio", Type: tree.Number{Validates: []tree.Validate{tree.MaxF{Value: 4}, tree.MinF{Value: 0.5}}}},
		{Name: "q", Type: tree.String{Validates: []tree.Validate{tree.MaxLength{Value: 64}, tree.MinLength{Value: 1}}}},
		{Name: "active", Type: tree.Boolean{}},
	}, op.Parameters)
}

func TestTransformNumericExclusiveBounds(t *testing.T) {
	out, _, err := transformYAML(t, t.TempDir(), `
openapi: 3.1.0
paths:
  /range:
    get:
      operationId: range
      parameters:
        - name: n
          in: query
          schema:
            type: [integer, "null"]
            exclusiveMinimum: 0
            exclusiveMaximum: 100
`)
	require.NoError(t, err)
	require.Equal(t, tree.Integer{Validates: []tree.Validate{tree.Max{Value: 99}, tree.Min{Value: 1}}}, out.Operations[0].Parameters[0].Type)
}

func TestTransformNestedTypes(t *testing.T) {
	out, diags, err := transformYAML(t, t.TempDir(), `
openapi: 3.0.0
paths:
  /search:
    get:
      operationId: search
      parameters:
        - name: matrix
          in: query
          required: true
          schema:
            type: array
            minItems: 1
            maxItems: 3
            items:
              type: array
              minItems: 2
              maxItems: 6
              items:
                type: string
                minLength: 15
                maxLength: 20
        - name: tags
          in: query
          schema:
            type: array
        - name: filter
          in: query
          schema:
            type: object
            required: [kind]
            properties:
              kind:
                type: string
              limit:
                type: integer
                maximum: 50
        - name: empty
          in: query
          schema:
            type: object
`)
	require.NoError(t, err)
	require.Empty(t, diags)

	require.Equal(t, []tree.Param{
		{
			Name:     "matrix",
			Required: true,
			Type: tree.Array{
				Validates: []tree.Validate{tree.MaxItems{Value: 3}, tree.MinItems{Value: 1}},
				Item: tree.Array{
					Validates: []tree.Validate{tree.MaxItems{Value: 6}, tree.MinItems{Value: 2}},
					Item:      tree.String{Validates: []tree.Validate{tree.MaxLength{Value: 20}, tree.MinLength{Value: 15}}},
				},
			},
		},
		{Name: "tags", Type: tree.Array{}},
		{
			Name: "filter",
			Type: tree.Object{Properties: []tree.Param{
				{Name: "kind", Required: true, Type: tree.String{}},
				{Name: "limit", Type: tree.Integer{Validates: []tree.Validate{tree.Max{Value: 50}}}},
			}},
		},
		{Name: "empty", Type: tree.Object{}},
	}, out.Operations[0].Parameters)
}

func TestTransformUnsupportedConstructs(t *testing.T) {
	m := metrics.New()
	doc, err := model.DecodeDocument([]byte(`
openapi: 3.0.0
paths:
  /things:
    get:
      operationId: listThings
      parameters:
        - name: composed
          in: query
          schema:
            allOf:
              - type: string
        - name: either
          in: query
          schema:
            oneOf:
              - type: string
              - type: integer
        - name: json
          in: query
          content:
            application/json:
              schema:
                type: object
        - name: anything
          in: query
          schema: {}
        - name: ids
          in: query
          schema:
            type: array
            items:
              anyOf:
                - type: string
        - name: filter
          in: query
          schema:
            type: object
            properties:
              kind:
                not:
                  type: string
              size:
                type: integer
        - name: ok
          in: query
          schema:
            type: string
    post:
      parameters:
        - name: bad
          in: query
          schema:
            allOf: []
            not:
              type: string
`), model.FormatYAML)
	require.NoError(t, err)

	out, diags, err := Transform(context.Background(), doc, resolver.New(doc), BuildOptions{Metrics: m})
	require.NoError(t, err)

	require.Equal(t, []string{
		"`AllOf` is not supported in composed in /things listThings",
		"`OneOf` is not supported in either in /things listThings",
		"`Content` is not supported in json in /things listThings",
		"`Any` is not supported in anything in /things listThings",
		"`AnyOf` is not supported in ids[] in /things listThings",
		"`Not` is not supported in filter.kind in /things listThings",
		"`operationId` is not found in /things post",
		"`Not` is not supported in bad in /things",
	}, diags)
	require.Equal(t, float64(len(diags)), testutil.ToFloat64(m.Diagnostics))

	require.Len(t, out.Operations, 2)
	require.Equal(t, []tree.Param{
		{Name: "ids", Type: tree.Array{}},
		{Name: "filter", Type: tree.Object{Properties: []tree.Param{{Name: "size", Type: tree.Integer{}}}}},
		{Name: "ok", Type: tree.String{}},
	}, out.Operations[0].Parameters)

	require.False(t, out.Operations[1].HasID())
	require.Empty(t, out.Operations[1].Parameters)
}

func TestTransformOperationOrder(t *testing.T) {
	out, _, err := transformYAML(t, t.TempDir(), `
openapi: 3.0.0
paths:
  /b:
    delete: {operationId: deleteB}
    put: {operationId: putB}
    patch: {operationId: patchB}
    post: {operationId: postB}
    get: {operationId: getB}
    head: {operationId: headB}
  /a:
    get: {operationId: getA}
`)
	require.NoError(t, err)

	var ids []string
	for _, op := range out.Operations {
		ids = append(ids, op.ID)
	}
	require.Equal(t, []string{"getB", "postB", "patchB", "putB", "deleteB", "getA"}, ids)
}

func TestTransformPathLevelParameters(t *testing.T) {
	out, _, err := transformYAML(t, t.TempDir(), `
openapi: 3.0.0
paths:
  /items:
    parameters:
      - name: limit
        in: query
        schema: {type: integer}
      - name: tenant
        in: query
        required: true
        schema: {type: string}
    get:
      operationId: listItems
      parameters:
        - name: limit
          in: query
          required: true
          schema: {type: integer, maximum: 10}
        - name: cursor
          in: query
          schema: {type: string}
`)
	require.NoError(t, err)
	require.Equal(t, []tree.Param{
		{Name: "limit", Required: true, Type: tree.Integer{Validates: []tree.Validate{tree.Max{Value: 10}}}},
		{Name: "tenant", Required: true, Type: tree.String{}},
		{Name: "cursor", Type: tree.String{}},
	}, out.Operations[0].Parameters)
}

func TestTransformReferences(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "paths"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "paths", "orders.yaml"), []byte(`
get:
  operationId: listOrders
  parameters:
    - $ref: '#/components/parameters/StringKeyParam'
    - $ref: 'params/status.json'
`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "params"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "params", "status.json"),
		[]byte(`{"name": "status", "in": "query", "schema": {"$ref": "#/components/schemas/Status"}}`), 0o644))

	out, diags, err := transformYAML(t, dir, `
openapi: 3.0.0
paths:
  /orders:
    $ref: paths/orders.yaml
components:
  parameters:
    StringKeyParam:
      in: query
      name: string_key
      schema:
        type: string
  schemas:
    Status:
      type: string
      maxLength: 8
`)
	require.NoError(t, err)
	require.Empty(t, diags)
	require.Equal(t, "listOrders", out.Operations[0].ID)
	require.Equal(t, []tree.Param{
		{Name: "string_key", Type: tree.String{}},
		{Name: "status", Type: tree.String{Validates: []tree.Validate{tree.MaxLength{Value: 8}}}},
	}, out.Operations[0].Parameters)
}

func TestTransformUnresolvableReferenceIsFatal(t *testing.T) {
	_, _, err := transformYAML(t, t.TempDir(), `
openapi: 3.0.0
paths:
  /orders:
    get:
      operationId: listOrders
      parameters:
        - $ref: '#/components/parameters/Missing'
`)
	require.ErrorIs(t, err, resolver.ErrComponentNotFound)
	require.ErrorContains(t, err, "get /orders")
}

func integerParamDoc(schema string) string {
	return `
openapi: 3.1.0
paths:
  /items:
    get:
      operationId: listItems
      parameters:
        - name: n
          in: query
          schema:
            type: integer
` + schema
}

func TestTransformFractionalIntegerBounds(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		expected []tree.Validate
	}{
		{
			name:     "inclusive bounds round inward",
			schema:   "            minimum: 1.5\n            maximum: 9.5\n",
			expected: []tree.Validate{tree.Max{Value: 9}, tree.Min{Value: 2}},
		},
		{
			name:     "negative inclusive bounds round inward",
			schema:   "            minimum: -1.5\n            maximum: -0.5\n",
			expected: []tree.Validate{tree.Max{Value: -1}, tree.Min{Value: -1}},
		},
		{
			name:     "exclusive flags with fractional bounds",
			schema:   "            minimum: 1.5\n            exclusiveMinimum: true\n            maximum: 9.5\n            exclusiveMaximum: true\n",
			expected: []tree.Validate{tree.Max{Value: 9}, tree.Min{Value: 2}},
		},
		{
			name:     "numeric exclusive fractional bounds",
			schema:   "            exclusiveMinimum: 0.25\n            exclusiveMaximum: 3.75\n",
			expected: []tree.Validate{tree.Max{Value: 3}, tree.Min{Value: 1}},
		},
		{
			name:     "integral exclusive bounds fold by one",
			schema:   "            exclusiveMinimum: 2\n            exclusiveMaximum: 4\n",
			expected: []tree.Validate{tree.Max{Value: 3}, tree.Min{Value: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := transformYAML(t, t.TempDir(), integerParamDoc(tt.schema))
			require.NoError(t, err)
			require.Equal(t, tree.Integer{Validates: tt.expected}, out.Operations[0].Parameters[0].Type)
		})
	}
}

func TestTransformIntegerBoundOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		errMsg string
	}{
		{name: "maximum", schema: "            maximum: 1.0e+19\n", errMsg: "maximum"},
		{name: "minimum", schema: "            minimum: -1.0e+19\n", errMsg: "minimum"},
		{name: "exclusive maximum", schema: "            exclusiveMaximum: 1.0e+30\n", errMsg: "maximum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := transformYAML(t, t.TempDir(), integerParamDoc(tt.schema))
			require.ErrorIs(t, err, ErrBoundOutOfRange)
			require.ErrorContains(t, err, "parameter n")
			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}
