package vm

import (
	"math"
	"strings"

	"github.com/gmlscript/gmlscript/internal/ast"
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
)

// evalUnary implements §3 "Value" unary coercions.
func evalUnary(op ast.UnOp, in *symbol.Interner, x value.Value) (value.Value, error) {
	switch op {
	case ast.OpPos:
		return x, nil
	case ast.OpNeg:
		f, ok := value.CoerceNumber(x, in)
		if !ok {
			return value.Value{}, &value.TypeError{Op: "unary -"}
		}
		return value.Real(-f), nil
	case ast.OpNot:
		return value.Bool(!x.IsTruthy()), nil
	case ast.OpBitNot:
		f, ok := value.CoerceNumber(x, in)
		if !ok {
			return value.Value{}, &value.TypeError{Op: "unary ~"}
		}
		return value.Real(float64(^int64(f))), nil
	case ast.OpFloor:
		f, ok := value.CoerceNumber(x, in)
		if !ok {
			return value.Value{}, &value.TypeError{Op: "unary floor"}
		}
		return value.Real(math.Floor(f)), nil
	default:
		return value.Value{}, &value.TypeError{Op: "unary"}
	}
}

// evalBinary implements §8's documented operator semantics: numeric
// arithmetic and comparisons promote strings by parse-or-error; `+` on
// two strings concatenates; equality across incompatible tags is false;
// div/mod by zero raise.
func evalBinary(op ast.BinOp, in *symbol.Interner, x, y value.Value) (value.Value, error) {
	switch op {
	case ast.OpAdd:
		if x.Tag == value.TagString && y.Tag == value.TagString {
			return value.String(in.Intern(in.Name(x.Str) + in.Name(y.Str))), nil
		}
		return numericBinary(op, in, x, y)
	case ast.OpEq:
		return value.Bool(equalValues(in, x, y)), nil
	case ast.OpNe:
		return value.Bool(!equalValues(in, x, y)), nil
	case ast.OpLt, ast.OpLe, ast.OpGe, ast.OpGt:
		return compareValues(op, in, x, y)
	case ast.OpAnd:
		return value.Bool(x.IsTruthy() && y.IsTruthy()), nil
	case ast.OpOr:
		return value.Bool(x.IsTruthy() || y.IsTruthy()), nil
	case ast.OpXor:
		return value.Bool(x.IsTruthy() != y.IsTruthy()), nil
	default:
		return numericBinary(op, in, x, y)
	}
}

func numericBinary(op ast.BinOp, in *symbol.Interner, x, y value.Value) (value.Value, error) {
	a, ok1 := value.CoerceNumber(x, in)
	b, ok2 := value.CoerceNumber(y, in)
	if !ok1 || !ok2 {
		return value.Value{}, &value.TypeError{Op: "arithmetic"}
	}
	switch op {
	case ast.OpAdd:
		return value.Real(a + b), nil
	case ast.OpSub:
		return value.Real(a - b), nil
	case ast.OpMul:
		return value.Real(a * b), nil
	case ast.OpDiv:
		if b == 0 {
			return value.Value{}, &value.DivideByZeroError{}
		}
		return value.Real(a / b), nil
	case ast.OpIntDiv:
		if b == 0 {
			return value.Value{}, &value.DivideByZeroError{}
		}
		return value.Real(float64(int64(a) / int64(b))), nil
	case ast.OpMod:
		if b == 0 {
			return value.Value{}, &value.DivideByZeroError{}
		}
		return value.Real(float64(int64(a) % int64(b))), nil
	case ast.OpBitAnd:
		return value.Real(float64(int64(a) & int64(b))), nil
	case ast.OpBitOr:
		return value.Real(float64(int64(a) | int64(b))), nil
	case ast.OpBitXor:
		return value.Real(float64(int64(a) ^ int64(b))), nil
	case ast.OpShl:
		return value.Real(float64(int64(a) << uint64(int64(b)))), nil
	case ast.OpShr:
		return value.Real(float64(int64(a) >> uint64(int64(b)))), nil
	default:
		return value.Value{}, &value.TypeError{Op: "arithmetic"}
	}
}

func compareValues(op ast.BinOp, in *symbol.Interner, x, y value.Value) (value.Value, error) {
	var c int
	if x.Tag == value.TagString && y.Tag == value.TagString {
		c = strings.Compare(in.Name(x.Str), in.Name(y.Str))
	} else {
		a, ok1 := value.CoerceNumber(x, in)
		b, ok2 := value.CoerceNumber(y, in)
		if !ok1 || !ok2 {
			return value.Value{}, &value.TypeError{Op: "comparison"}
		}
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		default:
			c = 0
		}
	}
	switch op {
	case ast.OpLt:
		return value.Bool(c < 0), nil
	case ast.OpLe:
		return value.Bool(c <= 0), nil
	case ast.OpGe:
		return value.Bool(c >= 0), nil
	case ast.OpGt:
		return value.Bool(c > 0), nil
	default:
		return value.Value{}, &value.TypeError{Op: "comparison"}
	}
}

// equalValues implements §4.H: "Equality across tag boundaries is false
// (except numeric/bool unification)" — every Value in this language is
// numeric-or-not, so the only unification needed is real-vs-real.
func equalValues(in *symbol.Interner, x, y value.Value) bool {
	if x.Tag != y.Tag {
		return false
	}
	switch x.Tag {
	case value.TagReal:
		return x.Real == y.Real
	case value.TagString:
		return x.Str == y.Str
	case value.TagEntity:
		return x.Entity == y.Entity
	default:
		return x.Array == y.Array
	}
}
