// Package ir is the statement/block form of a schema tree, ready for direct
// emission as Dry::Schema text.
package ir

// Tag is the DSL type of a value.
type Tag int

const (
	TagInteger Tag = iota
	TagFloat
	TagString
	TagBoolean
	TagArray
	TagHash
)

// Value returns the type symbol used by value(...), without the colon.
func (t Tag) Value() string {
	switch t {
	case TagInteger:
		return "integer"
	case TagFloat:
		return "float"
	case TagString:
		return "string"
	case TagBoolean:
		return "boolean"
	case TagArray:
		return "array"
	case TagHash:
		return "hash"
	default:
		return "any"
	}
}

// Predicate returns the predicate symbol used by each(...) and schema(...).
func (t Tag) Predicate() string {
	switch t {
	case TagInteger:
		return "int?"
	case TagFloat:
		return "float?"
	case TagString:
		return "str?"
	case TagBoolean:
		return "bool?"
	case TagArray:
		return "array?"
	case TagHash:
		return "hash?"
	default:
		return "filled?"
	}
}

type SchemaClass int

const (
	ClassParams SchemaClass = iota
)

// Def is one named schema definition.
type Def struct {
	Name  string
	Class SchemaClass
	Block Block
}

type Block struct {
	Stmts []Stmt
}

// Stmt is one of Required, Optional or Schema.
type Stmt interface {
	isStmt()
}

type Required struct {
	Name  string
	Macro Macro
}

type Optional struct {
	Name  string
	Macro Macro
}

// Schema restates an item type inside a nested block. It never appears at
// the top level of a Def.
type Schema struct {
	Tag   Tag
	Macro Macro
}

func (Required) isStmt() {}
func (Optional) isStmt() {}
func (Schema) isStmt()   {}

// Macro is one of Value or Each.
type Macro interface {
	isMacro()
}

// Value constrains a key. Nested is nil, an Each chained onto the value, or a
// Block of property statements.
type Value struct {
	Tag       Tag
	Validates []Validate
	Nested    Nested
}

// Each constrains every element of an array. Block is nil for leaf elements.
type Each struct {
	Tag       Tag
	Validates []Validate
	Block     *Block
}

func (Value) isMacro() {}
func (Each) isMacro()  {}

// Nested is what a Value may carry: an Each or a Block.
type Nested interface {
	isNested()
}

func (Each) isNested()   {}
func (*Block) isNested() {}

// Validate is one of Min, MinF, MinSize, Max, MaxF or MaxSize.
type Validate interface {
	rank() int
}

type Min struct{ Value int64 }
type MinF struct{ Value float64 }
type MinSize struct{ Value uint64 }
type Max struct{ Value int64 }
type MaxF struct{ Value float64 }
type MaxSize struct{ Value uint64 }

func (Min) rank() int     { return 0 }
func (MinF) rank() int    { return 1 }
func (MinSize) rank() int { return 2 }
func (Max) rank() int     { return 3 }
func (MaxF) rank() int    { return 4 }
func (MaxSize) rank() int { return 5 }
