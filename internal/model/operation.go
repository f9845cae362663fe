package model

import "strings"

// PathItem is either an inline set of operations or a reference to one.
type PathItem struct {
	Ref        string       `yaml:"$ref"`
	Get        *Operation   `yaml:"get"`
	Post       *Operation   `yaml:"post"`
	Patch      *Operation   `yaml:"patch"`
	Put        *Operation   `yaml:"put"`
	Delete     *Operation   `yaml:"delete"`
	Parameters []*Parameter `yaml:"parameters"`
}

type Operation struct {
	OperationID string       `yaml:"operationId"`
	Summary     string       `yaml:"summary"`
	Parameters  []*Parameter `yaml:"parameters"`
}

type Method string

const (
	MethodGet    Method = "get"
	MethodPost   Method = "post"
	MethodPatch  Method = "patch"
	MethodPut    Method = "put"
	MethodDelete Method = "delete"
)

// MethodOperation pairs an HTTP verb with the operation declared for it.
type MethodOperation struct {
	Method    Method
	Operation *Operation
}

// Operations returns the declared operations in the fixed order
// get, post, patch, put, delete.
func (p *PathItem) Operations() []MethodOperation {
	methods := []MethodOperation{
		{MethodGet, p.Get},
		{MethodPost, p.Post},
		{MethodPatch, p.Patch},
		{MethodPut, p.Put},
		{MethodDelete, p.Delete},
	}

	var ops []MethodOperation
	for _, m := range methods {
		if m.Operation == nil {
			continue
		}
		ops = append(ops, m)
	}
	return ops
}

type ParameterLocation string

const (
	LocationPath   ParameterLocation = "path"
	LocationQuery  ParameterLocation = "query"
	LocationHeader ParameterLocation = "header"
	LocationCookie ParameterLocation = "cookie"
)

// Parameter is either an inline parameter or a reference to one. Exactly one
// of Schema and Content is expected on an inline parameter.
type Parameter struct {
	Ref         string            `yaml:"$ref"`
	Name        string            `yaml:"name"`
	In          ParameterLocation `yaml:"in"`
	Description string            `yaml:"description"`
	Required    bool              `yaml:"required"`
	Schema      *Schema           `yaml:"schema"`
	Content     Map[*MediaType]   `yaml:"content"`
}

// Location returns the normalized parameter location.
func (p *Parameter) Location() ParameterLocation {
	return ParameterLocation(strings.ToLower(string(p.In)))
}

// HasContent reports whether the parameter is described by media types
// rather than a single schema.
func (p *Parameter) HasContent() bool {
	return p.Content.Len() > 0
}

type MediaType struct {
	Schema *Schema `yaml:"schema"`
}
