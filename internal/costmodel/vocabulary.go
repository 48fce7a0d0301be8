package costmodel

import "gotick/internal/syntax"

// CallWeightName is the reserved name of the per-invocation weight.
const CallWeightName = "call()"

type constructName struct {
	name string
	kind syntax.Kind
}

type binaryName struct {
	name string
	op   syntax.BinaryOp
}

type unaryName struct {
	name string
	op   syntax.UnaryOp
}

// The order of these tables is the order of a saved template.
var constructNames = []constructName{
	{"break", syntax.KindBreak},
	{"catch", syntax.KindCatch},
	{"forin", syntax.KindForRange},
	{"try", syntax.KindTry},
	{"do", syntax.KindDo},
	{":?", syntax.KindConditional},
	{"[]", syntax.KindSubscript},
	{"const_cast", syntax.KindConstCast},
	{"dynamic_cast", syntax.KindDynamicCast},
	{"reinterpret_cast", syntax.KindReinterpretCast},
	{"static_cast", syntax.KindStaticCast},
	{"for", syntax.KindFor},
	{"if", syntax.KindIf},
	{"switch", syntax.KindSwitch},
	{"case", syntax.KindCase},
	{"default", syntax.KindDefault},
	{"while", syntax.KindWhile},
	{"operator()", syntax.KindOperatorCall},
	{"member()", syntax.KindMemberCall},
	{"function()", syntax.KindCall},
	{"lambda", syntax.KindLambda},
	{"new", syntax.KindNew},
	{"delete", syntax.KindDelete},
	{"continue", syntax.KindContinue},
	{"return", syntax.KindReturn},
	{"goto", syntax.KindGoto},
	{"fallthrough", syntax.KindFallthrough},
	{"go", syntax.KindGo},
	{"defer", syntax.KindDefer},
	{"select", syntax.KindSelect},
	{"send", syntax.KindSend},
}

var unaryNames = []unaryName{
	{"operand++", syntax.OpPostInc},
	{"operand--", syntax.OpPostDec},
	{"++operand", syntax.OpPreInc},
	{"--operand", syntax.OpPreDec},
	{"&operand", syntax.OpAddrOf},
	{"*operand", syntax.OpDeref},
	{"+operand", syntax.OpPlus},
	{"-operand", syntax.OpMinus},
	{"~", syntax.OpNot},
	{"!", syntax.OpLNot},
	{"<-operand", syntax.OpRecv},
}

var binaryNames = []binaryName{
	{".", syntax.OpPtrMemD},
	{"->", syntax.OpPtrMemI},
	{"*", syntax.OpMul},
	{"/", syntax.OpDiv},
	{"%", syntax.OpRem},
	{"+", syntax.OpAdd},
	{"-", syntax.OpSub},
	{"<<", syntax.OpShl},
	{">>", syntax.OpShr},
	{"<", syntax.OpLT},
	{">", syntax.OpGT},
	{"<=", syntax.OpLE},
	{">=", syntax.OpGE},
	{"==", syntax.OpEQ},
	{"!=", syntax.OpNE},
	{"&", syntax.OpAnd},
	{"^", syntax.OpXor},
	{"|", syntax.OpOr},
	{"&^", syntax.OpAndNot},
	{"&&", syntax.OpLAnd},
	{"||", syntax.OpLOr},
	{"=", syntax.OpAssign},
	{"*=", syntax.OpMulAssign},
	{"/=", syntax.OpDivAssign},
	{"%=", syntax.OpRemAssign},
	{"+=", syntax.OpAddAssign},
	{"-=", syntax.OpSubAssign},
	{"<<=", syntax.OpShlAssign},
	{">>=", syntax.OpShrAssign},
	{"&=", syntax.OpAndAssign},
	{"^=", syntax.OpXorAssign},
	{"|=", syntax.OpOrAssign},
	{"&^=", syntax.OpAndNotAssign},
	{",", syntax.OpComma},
}

var (
	constructByName = make(map[string]syntax.Kind, len(constructNames))
	unaryByName     = make(map[string]syntax.UnaryOp, len(unaryNames))
	binaryByName    = make(map[string]syntax.BinaryOp, len(binaryNames))
	namedKinds      = make(map[syntax.Kind]bool, len(constructNames))
)

func init() {
	for _, c := range constructNames {
		constructByName[c.name] = c.kind
		namedKinds[c.kind] = true
	}
	for _, u := range unaryNames {
		unaryByName[u.name] = u.op
	}
	for _, b := range binaryNames {
		binaryByName[b.name] = b.op
	}
}

// IsChargeable reports whether nodes of kind k carry a weight. Kinds without
// a vocabulary name (identifiers, blocks, wrappers) weigh nothing.
func IsChargeable(k syntax.Kind) bool {
	switch k {
	case syntax.KindBinary, syntax.KindUnary:
		return true
	}
	return namedKinds[k]
}

// ConstructNames returns the construct vocabulary in template order.
func ConstructNames() []string {
	names := make([]string, len(constructNames))
	for i, c := range constructNames {
		names[i] = c.name
	}
	return names
}
