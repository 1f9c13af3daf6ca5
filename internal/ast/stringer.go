package ast

var binOpNames = map[BinOp]string{
	OpLt: "<", OpLe: "<=", OpEq: "==", OpNe: "!=", OpGe: ">=", OpGt: ">",
	OpAnd: "and", OpOr: "or", OpXor: "xor",
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpIntDiv: "div", OpMod: "mod",
	OpBitAnd: "&", OpBitOr: "|", OpBitXor: "^", OpShl: "<<", OpShr: ">>",
}

func (op BinOp) String() string {
	if s, ok := binOpNames[op]; ok {
		return s
	}
	return "?binop"
}

var unOpNames = map[UnOp]string{
	OpPos: "+", OpNeg: "-", OpNot: "!", OpBitNot: "~", OpFloor: "floor",
}

func (op UnOp) String() string {
	if s, ok := unOpNames[op]; ok {
		return s
	}
	return "?unop"
}
