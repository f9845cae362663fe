// Package ruby renders IR definitions as Dry::Schema source text.
package ruby

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kolah/drygen/internal/ir"
)

const indentUnit = "  "

// Generate renders def as "<Name> = Dry::Schema::Params do ... end\n".
// It never fails: every IR node is renderable by construction.
func Generate(def ir.Def) string {
	var b strings.Builder
	b.WriteString(ConstantName(def.Name))
	b.WriteString(" = ")
	b.WriteString(className(def.Class))
	b.WriteString(" ")
	writeBlock(&b, def.Block, 1)
	b.WriteString("\n")
	return b.String()
}

func className(c ir.SchemaClass) string {
	switch c {
	case ir.ClassParams:
		return "Dry::Schema::Params"
	default:
		panic(fmt.Sprintf("ruby: unexpected schema class %d", c))
	}
}

// writeBlock writes "do", the statements at depth, and a closing "end"
// indented one level less. The caller terminates the line.
func writeBlock(b *strings.Builder, block ir.Block, depth int) {
	b.WriteString("do\n")
	for _, stmt := range block.Stmts {
		b.WriteString(strings.Repeat(indentUnit, depth))
		writeStmt(b, stmt, depth)
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat(indentUnit, depth-1))
	b.WriteString("end")
}

func writeStmt(b *strings.Builder, stmt ir.Stmt, depth int) {
	switch s := stmt.(type) {
	case ir.Required:
		fmt.Fprintf(b, "required(%s)", Symbol(s.Name))
		writeMacro(b, s.Macro, depth)
	case ir.Optional:
		fmt.Fprintf(b, "optional(%s)", Symbol(s.Name))
		writeMacro(b, s.Macro, depth)
	case ir.Schema:
		fmt.Fprintf(b, "schema(:%s)", s.Tag.Predicate())
		writeMacro(b, s.Macro, depth)
	}
}

func writeMacro(b *strings.Builder, m ir.Macro, depth int) {
	switch m := m.(type) {
	case ir.Value:
		writeCall(b, "value", m.Tag.Value(), m.Validates)
		switch n := m.Nested.(type) {
		case ir.Each:
			writeMacro(b, n, depth)
		case *ir.Block:
			if n != nil {
				b.WriteString(" ")
				writeBlock(b, *n, depth+1)
			}
		}
	case ir.Each:
		writeCall(b, "each", m.Tag.Predicate(), m.Validates)
		if m.Block != nil {
			b.WriteString(" ")
			writeBlock(b, *m.Block, depth+1)
		}
	}
}

func writeCall(b *strings.Builder, method, symbol string, validates []ir.Validate) {
	fmt.Fprintf(b, ".%s(:%s", method, symbol)
	for _, v := range validates {
		b.WriteString(", ")
		b.WriteString(validateArg(v))
	}
	b.WriteString(")")
}

func validateArg(v ir.Validate) string {
	switch v := v.(type) {
	case ir.Min:
		return "min: " + strconv.FormatInt(v.Value, 10)
	case ir.MinF:
		return "min: " + floatLiteral(v.Value)
	case ir.MinSize:
		return "min_size: " + strconv.FormatUint(v.Value, 10)
	case ir.Max:
		return "max: " + strconv.FormatInt(v.Value, 10)
	case ir.MaxF:
		return "max: " + floatLiteral(v.Value)
	case ir.MaxSize:
		return "max_size: " + strconv.FormatUint(v.Value, 10)
	default:
		panic(fmt.Sprintf("ruby: unexpected validate %T", v))
	}
}

// floatLiteral renders f as a Ruby Float literal, forcing a fractional part
// so integral bounds stay floats.
func floatLiteral(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Float::INFINITY"
	case math.IsInf(f, -1):
		return "-Float::INFINITY"
	case math.IsNaN(f):
		return "Float::NAN"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
