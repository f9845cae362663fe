package model

import (
	"fmt"

	"go.yaml.in/yaml/v4"
)

type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
	TypeObject  SchemaType = "object"
	TypeNull    SchemaType = "null"
)

// Schema is either an inline schema or a reference to one.
type Schema struct {
	Ref         string `yaml:"$ref"`
	Description string `yaml:"description"`
	Type        Types  `yaml:"type"`
	Format      string `yaml:"format"`
	Nullable    bool   `yaml:"nullable"`

	// Object properties
	Properties Map[*Schema] `yaml:"properties"`
	Required   []string     `yaml:"required"`

	// Array items
	Items *Schema `yaml:"items"`

	// Composition
	AllOf []*Schema `yaml:"allOf"`
	OneOf []*Schema `yaml:"oneOf"`
	AnyOf []*Schema `yaml:"anyOf"`
	Not   *Schema   `yaml:"not"`

	// Constraints
	Minimum          *float64  `yaml:"minimum"`
	Maximum          *float64  `yaml:"maximum"`
	ExclusiveMinimum Exclusive `yaml:"exclusiveMinimum"`
	ExclusiveMaximum Exclusive `yaml:"exclusiveMaximum"`
	MinLength        *uint64   `yaml:"minLength"`
	MaxLength        *uint64   `yaml:"maxLength"`
	MinItems         *uint64   `yaml:"minItems"`
	MaxItems         *uint64   `yaml:"maxItems"`
}

// IsRequired reports whether name is listed in the schema's required set.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Types holds the declared type keyword. OpenAPI 3.0 uses a single string,
// 3.1 allows a list such as [string, "null"].
type Types []SchemaType

// Primary returns the first declared non-null type, or "" when none is declared.
func (t Types) Primary() SchemaType {
	for _, st := range t {
		if st != TypeNull {
			return st
		}
	}
	return ""
}

func (t *Types) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return nil
		}
		*t = Types{SchemaType(node.Value)}
		return nil
	case yaml.SequenceNode:
		var list []SchemaType
		if err := node.Decode(&list); err != nil {
			return err
		}
		*t = list
		return nil
	default:
		return fmt.Errorf("line %d: type must be a string or a list of strings", node.Line)
	}
}

// Exclusive captures exclusiveMinimum/exclusiveMaximum in both encodings: the
// 3.0 boolean flag modifying minimum/maximum, and the 3.1 numeric bound.
type Exclusive struct {
	Flag  bool
	Bound *float64
}

// IsSet reports whether the bound is exclusive in either encoding.
func (e Exclusive) IsSet() bool {
	return e.Flag || e.Bound != nil
}

func (e *Exclusive) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: exclusive bound must be a boolean or a number", node.Line)
	}

	switch node.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		return node.Decode(&e.Flag)
	case "!!int", "!!float":
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		e.Bound = &v
		return nil
	default:
		return fmt.Errorf("line %d: exclusive bound must be a boolean or a number, got %q", node.Line, node.Value)
	}
}
