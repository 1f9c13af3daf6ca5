package ssa

import (
	"github.com/gmlscript/gmlscript/internal/ast"
	"github.com/gmlscript/gmlscript/internal/symbol"
)

func (b *Builder) emit(instr *Instr) Value { return b.fn.emit(b.cur, instr) }

func (b *Builder) lowerExpr(e ast.Expr) Value {
	switch n := e.(type) {
	case *ast.RealLit:
		return b.emit(&Instr{Op: OpConst, Const: Const{Kind: ConstReal, Real: n.Value}, Span: n.Sp})
	case *ast.StringLit:
		return b.emit(&Instr{Op: OpConst, Const: Const{Kind: ConstString, Str: n.Value}, Span: n.Sp})
	case *ast.Ident:
		return b.lowerIdentRead(n)
	case *ast.Unary:
		x := b.lowerExpr(n.X)
		return b.emit(&Instr{Op: OpUnary, UnOp: n.Op, Args: []Value{x}, Span: n.Sp})
	case *ast.Binary:
		x := b.lowerExpr(n.X)
		y := b.lowerExpr(n.Y)
		return b.emit(&Instr{Op: OpBinary, BinOp: n.Op, Args: []Value{x, y}, Span: n.Sp})
	case *ast.Field:
		return b.lowerFieldRead(n)
	case *ast.Index:
		base := b.lowerExpr(n.Base)
		args := []Value{base}
		for _, idx := range n.Indices {
			args = append(args, b.lowerExpr(idx))
		}
		return b.emit(&Instr{Op: OpLoadIndex, Args: args, Span: n.Sp})
	case *ast.Call:
		var args []Value
		for _, a := range n.Args {
			args = append(args, b.lowerExpr(a))
		}
		return b.emit(&Instr{Op: OpCall, Sym: n.Callee, Args: args, NumArgs: len(args), Span: n.Sp})
	default:
		return b.emit(&Instr{Op: OpConst, Const: Const{Kind: ConstReal, Real: 0}})
	}
}

func (b *Builder) lowerIdentRead(n *ast.Ident) Value {
	switch n.Name {
	case symbol.SymNoone:
		return b.emit(&Instr{Op: OpConst, Const: Const{Kind: ConstNoone}, Span: n.Sp})
	case symbol.SymSelf, symbol.SymOther:
		return b.readVar(n.Name, b.cur)
	}
	if b.locals[n.Name] {
		return b.readVar(n.Name, b.cur)
	}
	if b.globals[n.Name] {
		return b.emit(&Instr{Op: OpLoadGlobal, Sym: n.Name, Span: n.Sp})
	}
	if _, isObj := b.objects[n.Name]; isObj {
		return b.emit(&Instr{Op: OpCall, Sym: n.Name, Span: n.Sp}) // bare object id as a value (e.g. instance_create(x,y,obj))
	}
	self := b.readVar(symbol.SymSelf, b.cur)
	if b.getters[n.Name] {
		return b.emit(&Instr{Op: OpCall, Sym: n.Name, Args: []Value{self}, NumArgs: 1, Span: n.Sp})
	}
	// unqualified field access on self
	return b.emit(&Instr{Op: OpLoadMember, Args: []Value{self}, Sym: n.Name, Span: n.Sp})
}

// lowerFieldRead handles `target.name`. When target is a bare identifier
// naming a known object type, §4.D specifies this reads the first live
// instance of that object; otherwise target is evaluated as an ordinary
// entity-valued expression.
func (b *Builder) lowerFieldRead(n *ast.Field) Value {
	if ident, ok := n.Target.(*ast.Ident); ok {
		if objID, isObj := b.objects[ident.Name]; isObj {
			return b.emit(&Instr{
				Op:   OpCall,
				Sym:  n.Name,
				Args: []Value{b.emit(&Instr{Op: OpConst, Const: Const{Kind: ConstReal, Real: float64(objID)}})},
				NumArgs: -1, // sentinel: "object-first member read", resolved by codegen/vm
				Span: n.Sp,
			})
		}
	}
	target := b.lowerExpr(n.Target)
	if b.getters[n.Name] {
		return b.emit(&Instr{Op: OpCall, Sym: n.Name, Args: []Value{target}, NumArgs: 1, Span: n.Sp})
	}
	return b.emit(&Instr{Op: OpLoadMember, Args: []Value{target}, Sym: n.Name, Span: n.Sp})
}

// lowerAssignTarget writes value into the location named by lhs.
func (b *Builder) lowerAssignTarget(lhs ast.Expr, value Value) {
	switch n := lhs.(type) {
	case *ast.Ident:
		b.lowerIdentWrite(n, value)
	case *ast.Field:
		if ident, ok := n.Target.(*ast.Ident); ok {
			if objID, isObj := b.objects[ident.Name]; isObj {
				// obj.name = expr broadcasts to every live instance of obj
				// (§4.D); the VM performs the iteration natively.
				b.emit(&Instr{
					Op:      OpCall,
					Sym:     n.Name,
					Args:    []Value{b.emit(&Instr{Op: OpConst, Const: Const{Kind: ConstReal, Real: float64(objID)}}), value},
					NumArgs: -2, // sentinel: "object broadcast member write"
					Span:    n.Sp,
				})
				return
			}
		}
		target := b.lowerExpr(n.Target)
		if b.setters[n.Name] {
			b.emit(&Instr{Op: OpCall, Sym: n.Name, Args: []Value{target, value}, NumArgs: 2, Span: n.Sp})
			return
		}
		b.emit(&Instr{Op: OpStoreMember, Args: []Value{target, value}, Sym: n.Name, Span: n.Sp})
	case *ast.Index:
		base := b.lowerExpr(n.Base)
		args := []Value{base, value}
		for _, idx := range n.Indices {
			args = append(args, b.lowerExpr(idx))
		}
		b.emit(&Instr{Op: OpStoreIndex, Args: args, Span: n.Sp})
	}
}

func (b *Builder) lowerIdentWrite(n *ast.Ident, value Value) {
	switch n.Name {
	case symbol.SymSelf, symbol.SymOther:
		b.writeVar(n.Name, b.cur, value)
		return
	}
	if b.locals[n.Name] {
		b.writeVar(n.Name, b.cur, value)
		return
	}
	if b.globals[n.Name] {
		b.emit(&Instr{Op: OpStoreGlobal, Sym: n.Name, Args: []Value{value}, Span: n.Sp})
		return
	}
	self := b.readVar(symbol.SymSelf, b.cur)
	if b.setters[n.Name] {
		b.emit(&Instr{Op: OpCall, Sym: n.Name, Args: []Value{self, value}, NumArgs: 2, Span: n.Sp})
		return
	}
	b.emit(&Instr{Op: OpStoreMember, Args: []Value{self, value}, Sym: n.Name, Span: n.Sp})
}
