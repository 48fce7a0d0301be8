package syntax

// BinaryOp is the operator code of a binary or assignment node.
type BinaryOp int

const (
	BinaryNone BinaryOp = iota
	OpPtrMemD           // .
	OpPtrMemI           // ->
	OpMul
	OpDiv
	OpRem
	OpAdd
	OpSub
	OpShl
	OpShr
	OpLT
	OpGT
	OpLE
	OpGE
	OpEQ
	OpNE
	OpAnd
	OpXor
	OpOr
	OpAndNot
	OpLAnd
	OpLOr
	OpAssign
	OpMulAssign
	OpDivAssign
	OpRemAssign
	OpAddAssign
	OpSubAssign
	OpShlAssign
	OpShrAssign
	OpAndAssign
	OpXorAssign
	OpOrAssign
	OpAndNotAssign
	OpComma
)

// UnaryOp is the operator code of a unary node.
type UnaryOp int

const (
	UnaryNone UnaryOp = iota
	OpPostInc
	OpPostDec
	OpPreInc
	OpPreDec
	OpAddrOf
	OpDeref
	OpPlus
	OpMinus
	OpNot
	OpLNot
	OpRecv
)
