package model

// Document is the subset of an OpenAPI 3 document consumed by the generator.
type Document struct {
	OpenAPI    string         `yaml:"openapi"`
	Info       Info           `yaml:"info"`
	Paths      Map[*PathItem] `yaml:"paths"`
	Components Components     `yaml:"components"`
}

type Info struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

type Components struct {
	Parameters Map[*Parameter] `yaml:"parameters"`
	Schemas    Map[*Schema]    `yaml:"schemas"`
}

// ComponentKind names a section under #/components addressable by a pointer.
type ComponentKind string

const (
	ComponentParameters ComponentKind = "parameters"
	ComponentSchemas    ComponentKind = "schemas"
)

// ParameterByName returns a component parameter, or nil if it is not declared.
func (d *Document) ParameterByName(name string) *Parameter {
	p, _ := d.Components.Parameters.Get(name)
	return p
}

// SchemaByName returns a component schema, or nil if it is not declared.
func (d *Document) SchemaByName(name string) *Schema {
	s, _ := d.Components.Schemas.Get(name)
	return s
}
