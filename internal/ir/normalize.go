package ir

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/kolah/drygen/internal/tree"
)

// Normalize converts one operation into a definition named after its id.
func Normalize(op tree.Operation) Def {
	stmts := make([]Stmt, 0, len(op.Parameters))
	for _, p := range op.Parameters {
		stmts = append(stmts, statement(p))
	}
	return Def{
		Name:  op.ID,
		Class: ClassParams,
		Block: Block{Stmts: stmts},
	}
}

func statement(p tree.Param) Stmt {
	m := value(p.Type)
	if p.Required {
		return Required{Name: p.Name, Macro: m}
	}
	return Optional{Name: p.Name, Macro: m}
}

func value(t tree.Type) Value {
	v := Value{Tag: tagOf(t), Validates: Validations(t)}
	switch t := t.(type) {
	case tree.Array:
		if t.Item != nil {
			v.Nested = each(t.Item)
		}
	case tree.Object:
		if b := properties(t); b != nil {
			v.Nested = b
		}
	}
	return v
}

// each describes the elements of an array. A compound element opens a block:
// an array element restates itself with a Schema statement that chains the
// next level, an object element lists its properties.
func each(t tree.Type) Each {
	e := Each{Tag: tagOf(t), Validates: Validations(t)}
	switch t := t.(type) {
	case tree.Array:
		if t.Item != nil {
			e.Block = &Block{Stmts: []Stmt{Schema{Tag: TagArray, Macro: each(t.Item)}}}
		}
	case tree.Object:
		e.Block = properties(t)
	}
	return e
}

func properties(o tree.Object) *Block {
	if len(o.Properties) == 0 {
		return nil
	}
	b := &Block{Stmts: make([]Stmt, 0, len(o.Properties))}
	for _, p := range o.Properties {
		b.Stmts = append(b.Stmts, statement(p))
	}
	return b
}

func tagOf(t tree.Type) Tag {
	switch t.(type) {
	case tree.Integer:
		return TagInteger
	case tree.Number:
		return TagFloat
	case tree.String:
		return TagString
	case tree.Boolean:
		return TagBoolean
	case tree.Array:
		return TagArray
	case tree.Object:
		return TagHash
	default:
		panic(fmt.Sprintf("ir: unexpected tree type %T", t))
	}
}

// Validations maps a node's constraints into canonical order: Min, MinF,
// MinSize, Max, MaxF, MaxSize. Source declaration order never leaks through.
func Validations(t tree.Type) []Validate {
	src := t.Validations()
	if len(src) == 0 {
		return nil
	}

	out := make([]Validate, 0, len(src))
	for _, v := range src {
		switch v := v.(type) {
		case tree.Min:
			out = append(out, Min{Value: v.Value})
		case tree.MinF:
			out = append(out, MinF{Value: v.Value})
		case tree.MinLength:
			out = append(out, MinSize{Value: v.Value})
		case tree.MinItems:
			out = append(out, MinSize{Value: v.Value})
		case tree.Max:
			out = append(out, Max{Value: v.Value})
		case tree.MaxF:
			out = append(out, MaxF{Value: v.Value})
		case tree.MaxLength:
			out = append(out, MaxSize{Value: v.Value})
		case tree.MaxItems:
			out = append(out, MaxSize{Value: v.Value})
		}
	}

	slices.SortStableFunc(out, func(a, b Validate) int {
		return cmp.Compare(a.rank(), b.rank())
	})
	return out
}
