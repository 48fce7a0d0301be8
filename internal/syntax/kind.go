// Package syntax defines the read-only tree contract shared by the front end,
// the cost model and the traversal engine.
package syntax

// Kind identifies a syntax construct. The set is closed: providers map their
// own node types onto these values.
type Kind int

const (
	KindOther Kind = iota // identifiers, literals and transparent wrappers
	KindUnit
	KindFunction
	KindMethod
	KindRecord
	KindGlobal
	KindDeclStmt
	KindVarDecl
	KindCompound
	KindLabeled

	KindIf
	KindFor
	KindForRange
	KindWhile
	KindDo
	KindSwitch
	KindSelect
	KindCase
	KindDefault
	KindBreak
	KindContinue
	KindReturn
	KindGoto
	KindFallthrough
	KindTry
	KindCatch
	KindGo
	KindDefer
	KindSend

	KindConditional
	KindSubscript
	KindConstCast
	KindDynamicCast
	KindReinterpretCast
	KindStaticCast
	KindCall
	KindMemberCall
	KindOperatorCall
	KindLambda
	KindNew
	KindDelete
	KindBinary
	KindUnary
)

var kindNames = [...]string{
	KindOther:           "other",
	KindUnit:            "unit",
	KindFunction:        "function",
	KindMethod:          "method",
	KindRecord:          "record",
	KindGlobal:          "global",
	KindDeclStmt:        "decl",
	KindVarDecl:         "var",
	KindCompound:        "compound",
	KindLabeled:         "labeled",
	KindIf:              "if",
	KindFor:             "for",
	KindForRange:        "forrange",
	KindWhile:           "while",
	KindDo:              "do",
	KindSwitch:          "switch",
	KindSelect:          "select",
	KindCase:            "case",
	KindDefault:         "default",
	KindBreak:           "break",
	KindContinue:        "continue",
	KindReturn:          "return",
	KindGoto:            "goto",
	KindFallthrough:     "fallthrough",
	KindTry:             "try",
	KindCatch:           "catch",
	KindGo:              "go",
	KindDefer:           "defer",
	KindSend:            "send",
	KindConditional:     "conditional",
	KindSubscript:       "subscript",
	KindConstCast:       "const_cast",
	KindDynamicCast:     "dynamic_cast",
	KindReinterpretCast: "reinterpret_cast",
	KindStaticCast:      "static_cast",
	KindCall:            "call",
	KindMemberCall:      "member_call",
	KindOperatorCall:    "operator_call",
	KindLambda:          "lambda",
	KindNew:             "new",
	KindDelete:          "delete",
	KindBinary:          "binary",
	KindUnary:           "unary",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsFunction reports whether k opens a function body scope.
func (k Kind) IsFunction() bool {
	return k == KindFunction || k == KindMethod
}

// IsDeclaration reports whether k is a unit-level declaration.
func (k Kind) IsDeclaration() bool {
	switch k {
	case KindFunction, KindMethod, KindRecord, KindGlobal:
		return true
	default:
		return false
	}
}

// IsLabel reports whether k is a case or default label.
func (k Kind) IsLabel() bool {
	return k == KindCase || k == KindDefault
}

// HasLoopHeader reports whether k is a loop whose condition is re-evaluated
// after each pass over its body. A range expression is evaluated once.
func (k Kind) HasLoopHeader() bool {
	switch k {
	case KindFor, KindWhile:
		return true
	default:
		return false
	}
}
