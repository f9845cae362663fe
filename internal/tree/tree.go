// Package tree holds the normalized schema tree built from an API document:
// one Operation per (path, verb) with its query parameters as recursive
// Param nodes.
package tree

// Tree is the set of operations of one document, in path declaration order
// and then get, post, patch, put, delete order.
type Tree struct {
	Operations []Operation
}

// Operation is one (path, verb) pair. An empty ID means the document did not
// declare an operationId; such operations cannot be named and are not emitted.
type Operation struct {
	Path       string
	Method     string
	ID         string
	Parameters []Param
}

// HasID reports whether the operation can be given a definition name.
func (o Operation) HasID() bool {
	return o.ID != ""
}

// Param is a query parameter or an object property.
type Param struct {
	Name     string
	Required bool
	Type     Type
}

// Type is one of Integer, Number, String, Boolean, Array or Object.
type Type interface {
	isType()
	Validations() []Validate
}

type Integer struct{ Validates []Validate }
type Number struct{ Validates []Validate }
type String struct{ Validates []Validate }
type Boolean struct{}

// Array carries a nil Item when the source schema declares no item shape.
type Array struct {
	Validates []Validate
	Item      Type
}

// Object keeps properties in declaration order.
type Object struct {
	Validates  []Validate
	Properties []Param
}

func (Integer) isType() {}
func (Number) isType()  {}
func (String) isType()  {}
func (Boolean) isType() {}
func (Array) isType()   {}
func (Object) isType()  {}

func (t Integer) Validations() []Validate { return t.Validates }
func (t Number) Validations() []Validate  { return t.Validates }
func (t String) Validations() []Validate  { return t.Validates }
func (Boolean) Validations() []Validate   { return nil }
func (t Array) Validations() []Validate   { return t.Validates }
func (t Object) Validations() []Validate  { return t.Validates }

// Validate is a single bound. Exclusive bounds are already folded into the
// value, so no exclusivity flag exists at this level.
type Validate interface {
	isValidate()
}

type Max struct{ Value int64 }
type Min struct{ Value int64 }
type MaxF struct{ Value float64 }
type MinF struct{ Value float64 }
type MaxLength struct{ Value uint64 }
type MinLength struct{ Value uint64 }
type MaxItems struct{ Value uint64 }
type MinItems struct{ Value uint64 }

func (Max) isValidate()       {}
func (Min) isValidate()       {}
func (MaxF) isValidate()      {}
func (MinF) isValidate()      {}
func (MaxLength) isValidate() {}
func (MinLength) isValidate() {}
func (MaxItems) isValidate()  {}
func (MinItems) isValidate()  {}
