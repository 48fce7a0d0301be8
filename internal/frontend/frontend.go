// Package frontend maps parsed Go files onto the syntax tree contract.
package frontend

import (
	"go/ast"
	"go/token"
	"go/types"
	"path"
	"strconv"

	"gotick/internal/syntax"
)

var binaryOps = map[token.Token]syntax.BinaryOp{
	token.ADD:     syntax.OpAdd,
	token.SUB:     syntax.OpSub,
	token.MUL:     syntax.OpMul,
	token.QUO:     syntax.OpDiv,
	token.REM:     syntax.OpRem,
	token.AND:     syntax.OpAnd,
	token.OR:      syntax.OpOr,
	token.XOR:     syntax.OpXor,
	token.SHL:     syntax.OpShl,
	token.SHR:     syntax.OpShr,
	token.AND_NOT: syntax.OpAndNot,
	token.LAND:    syntax.OpLAnd,
	token.LOR:     syntax.OpLOr,
	token.EQL:     syntax.OpEQ,
	token.NEQ:     syntax.OpNE,
	token.LSS:     syntax.OpLT,
	token.GTR:     syntax.OpGT,
	token.LEQ:     syntax.OpLE,
	token.GEQ:     syntax.OpGE,
}

var assignOps = map[token.Token]syntax.BinaryOp{
	token.ASSIGN:         syntax.OpAssign,
	token.DEFINE:         syntax.OpAssign,
	token.ADD_ASSIGN:     syntax.OpAddAssign,
	token.SUB_ASSIGN:     syntax.OpSubAssign,
	token.MUL_ASSIGN:     syntax.OpMulAssign,
	token.QUO_ASSIGN:     syntax.OpDivAssign,
	token.REM_ASSIGN:     syntax.OpRemAssign,
	token.AND_ASSIGN:     syntax.OpAndAssign,
	token.OR_ASSIGN:      syntax.OpOrAssign,
	token.XOR_ASSIGN:     syntax.OpXorAssign,
	token.SHL_ASSIGN:     syntax.OpShlAssign,
	token.SHR_ASSIGN:     syntax.OpShrAssign,
	token.AND_NOT_ASSIGN: syntax.OpAndNotAssign,
}

var unaryOps = map[token.Token]syntax.UnaryOp{
	token.ADD:   syntax.OpPlus,
	token.SUB:   syntax.OpMinus,
	token.NOT:   syntax.OpLNot,
	token.XOR:   syntax.OpNot,
	token.AND:   syntax.OpAddrOf,
	token.MUL:   syntax.OpDeref,
	token.ARROW: syntax.OpRecv,
}

var branchKinds = map[token.Token]syntax.Kind{
	token.BREAK:       syntax.KindBreak,
	token.CONTINUE:    syntax.KindContinue,
	token.GOTO:        syntax.KindGoto,
	token.FALLTHROUGH: syntax.KindFallthrough,
}

type builder struct {
	file    *token.File
	info    *types.Info
	imports map[string]bool
}

// Build converts file into a unit tree. Offsets are relative to the start of
// the file. info may be nil or partial; missing type facts fall back to
// syntactic guesses.
func Build(fset *token.FileSet, file *ast.File, info *types.Info) *syntax.Element {
	b := &builder{
		file:    fset.File(file.Package),
		info:    info,
		imports: importNames(file),
	}

	unit := syntax.New(syntax.KindUnit, 0, b.file.Size())
	for _, decl := range file.Decls {
		unit.Append(b.decl(decl))
	}
	return unit
}

func importNames(file *ast.File) map[string]bool {
	names := make(map[string]bool, len(file.Imports))
	for _, spec := range file.Imports {
		if spec.Name != nil {
			if spec.Name.Name != "_" && spec.Name.Name != "." {
				names[spec.Name.Name] = true
			}
			continue
		}
		if p, err := strconv.Unquote(spec.Path.Value); err == nil {
			names[path.Base(p)] = true
		}
	}
	return names
}

func (b *builder) off(p token.Pos) int {
	if !p.IsValid() {
		return 0
	}
	return b.file.Offset(p)
}

func (b *builder) node(k syntax.Kind, n ast.Node, children ...*syntax.Element) *syntax.Element {
	return syntax.New(k, b.off(n.Pos()), b.off(n.End()), children...)
}

func (b *builder) decl(d ast.Decl) *syntax.Element {
	switch d := d.(type) {
	case *ast.FuncDecl:
		kind, name := syntax.KindFunction, d.Name.Name
		if d.Recv != nil && len(d.Recv.List) > 0 {
			kind = syntax.KindMethod
			name = receiverName(d.Recv.List[0].Type) + "::" + name
		}
		fn := syntax.New(kind, b.off(docPos(d.Doc, d.Pos())), b.off(d.End())).WithName(name)
		if d.Body != nil {
			fn.Append(b.block(d.Body))
		}
		return fn

	case *ast.GenDecl:
		start := b.off(docPos(d.Doc, d.Pos()))
		switch d.Tok {
		case token.IMPORT:
			return nil
		case token.TYPE:
			return syntax.New(syntax.KindRecord, start, b.off(d.End()))
		default:
			global := syntax.New(syntax.KindGlobal, start, b.off(d.End()))
			ast.Inspect(d, func(n ast.Node) bool {
				if lit, ok := n.(*ast.FuncLit); ok {
					global.Append(b.expr(lit))
					return false
				}
				return true
			})
			return global
		}
	}
	return nil
}

func docPos(doc *ast.CommentGroup, pos token.Pos) token.Pos {
	if doc != nil {
		return doc.Pos()
	}
	return pos
}

func receiverName(x ast.Expr) string {
	for {
		switch t := x.(type) {
		case *ast.StarExpr:
			x = t.X
		case *ast.ParenExpr:
			x = t.X
		case *ast.IndexExpr:
			x = t.X
		case *ast.IndexListExpr:
			x = t.X
		case *ast.Ident:
			return t.Name
		default:
			return types.ExprString(x)
		}
	}
}

func (b *builder) block(s *ast.BlockStmt) *syntax.Element {
	blk := syntax.New(syntax.KindCompound, b.off(s.Lbrace), b.off(s.Rbrace)+1)
	for _, st := range s.List {
		blk.Append(b.stmt(st))
	}
	if last := trailingExit(s.List); last != nil {
		blk.WithClose(b.off(last.Pos()))
	}
	return blk
}

// clauseBody wraps the statements of a case or comm clause in a block that
// starts after the colon.
func (b *builder) clauseBody(colon token.Pos, list []ast.Stmt, end token.Pos) *syntax.Element {
	blk := syntax.New(syntax.KindCompound, b.off(colon)+1, b.off(end))
	for _, st := range list {
		blk.Append(b.stmt(st))
	}
	closeAt := b.off(end)
	if last := trailingExit(list); last != nil {
		closeAt = b.off(last.Pos())
	}
	return blk.WithClose(closeAt)
}

// stmt converts a statement. The resulting node always spans the whole
// statement so that text inserted at its position precedes it.
func (b *builder) stmt(s ast.Stmt) *syntax.Element {
	if s == nil {
		return nil
	}
	if ls, ok := s.(*ast.LabeledStmt); ok && !isLabelTarget(ls.Stmt) {
		// a goto may jump to the label, so the count goes after it
		return b.stmt(ls.Stmt)
	}
	e := b.stmtNode(s)
	if e != nil {
		e.Start, e.Stop = b.off(s.Pos()), b.off(s.End())
	}
	return e
}

func (b *builder) stmtNode(s ast.Stmt) *syntax.Element {
	switch s := s.(type) {
	case *ast.BlockStmt:
		return b.block(s)

	case *ast.ExprStmt:
		if e := b.expr(s.X); e != nil {
			return e
		}
		return b.node(syntax.KindOther, s)

	case *ast.AssignStmt:
		n := b.node(syntax.KindBinary, s)
		n.Binary = assignOps[s.Tok]
		for _, x := range s.Lhs {
			n.Append(b.expr(x))
		}
		for _, x := range s.Rhs {
			n.Append(b.expr(x))
		}
		return n

	case *ast.IncDecStmt:
		n := b.node(syntax.KindUnary, s, b.expr(s.X))
		n.Unary = syntax.OpPostInc
		if s.Tok == token.DEC {
			n.Unary = syntax.OpPostDec
		}
		return n

	case *ast.DeclStmt:
		return b.declStmt(s)

	case *ast.IfStmt:
		return b.node(syntax.KindIf, s, b.stmt(s.Init), b.expr(s.Cond), b.block(s.Body), b.stmt(s.Else))

	case *ast.ForStmt:
		if s.Init == nil && s.Post == nil && s.Cond != nil {
			return b.node(syntax.KindWhile, s, b.expr(s.Cond), b.block(s.Body))
		}
		// post runs before every re-test of the condition, so it belongs to
		// the header
		return b.node(syntax.KindFor, s, b.stmt(s.Init), b.expr(s.Cond), b.stmt(s.Post), b.block(s.Body))

	case *ast.RangeStmt:
		return b.node(syntax.KindForRange, s, b.expr(s.X), b.block(s.Body))

	case *ast.SwitchStmt:
		n := b.node(syntax.KindSwitch, s, b.stmt(s.Init), b.expr(s.Tag))
		for _, c := range s.Body.List {
			n.Append(b.caseClause(c.(*ast.CaseClause), false))
		}
		return n

	case *ast.TypeSwitchStmt:
		n := b.node(syntax.KindSwitch, s, b.stmt(s.Init), b.stmt(s.Assign))
		for _, c := range s.Body.List {
			n.Append(b.caseClause(c.(*ast.CaseClause), true))
		}
		return n

	case *ast.SelectStmt:
		n := b.node(syntax.KindSelect, s)
		for _, c := range s.Body.List {
			cc := c.(*ast.CommClause)
			kind := syntax.KindCase
			if cc.Comm == nil {
				kind = syntax.KindDefault
			}
			n.Append(b.node(kind, cc, b.stmt(cc.Comm), b.clauseBody(cc.Colon, cc.Body, cc.End())))
		}
		return n

	case *ast.ReturnStmt:
		n := b.node(syntax.KindReturn, s)
		for _, x := range s.Results {
			n.Append(b.expr(x))
		}
		return n

	case *ast.BranchStmt:
		return b.node(branchKinds[s.Tok], s)

	case *ast.GoStmt:
		return b.node(syntax.KindGo, s, b.expr(s.Call))

	case *ast.DeferStmt:
		return b.node(syntax.KindDefer, s, b.expr(s.Call))

	case *ast.SendStmt:
		return b.node(syntax.KindSend, s, b.expr(s.Chan), b.expr(s.Value))

	case *ast.LabeledStmt:
		return b.node(syntax.KindLabeled, s, b.stmt(s.Stmt))
	}
	return nil
}

// isLabelTarget reports whether s can be named by break or continue, in
// which case the label must stay directly in front of it.
func isLabelTarget(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.ForStmt, *ast.RangeStmt, *ast.SwitchStmt, *ast.TypeSwitchStmt, *ast.SelectStmt:
		return true
	}
	return false
}

func (b *builder) caseClause(c *ast.CaseClause, typeSwitch bool) *syntax.Element {
	kind := syntax.KindCase
	if c.List == nil {
		kind = syntax.KindDefault
	}
	n := b.node(kind, c)
	if !typeSwitch {
		for _, x := range c.List {
			n.Append(b.expr(x))
		}
	}
	return n.Append(b.clauseBody(c.Colon, c.Body, c.End()))
}

// declStmt emits one VarDecl per declared variable. Constant and type
// declarations carry no runtime work.
func (b *builder) declStmt(s *ast.DeclStmt) *syntax.Element {
	n := b.node(syntax.KindDeclStmt, s)
	gen, ok := s.Decl.(*ast.GenDecl)
	if !ok || gen.Tok != token.VAR {
		return n
	}
	for _, spec := range gen.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for i, name := range vs.Names {
			vd := b.node(syntax.KindVarDecl, name)
			vd.Init = len(vs.Values) > 0
			switch {
			case len(vs.Values) == len(vs.Names):
				vd.Append(b.expr(vs.Values[i]))
			case i == 0:
				for _, x := range vs.Values {
					vd.Append(b.expr(x))
				}
			}
			n.Append(vd)
		}
	}
	return n
}

func (b *builder) expr(x ast.Expr) *syntax.Element {
	switch x := x.(type) {
	case nil:
		return nil

	case *ast.ParenExpr:
		return b.expr(x.X)

	case *ast.BinaryExpr:
		n := b.node(syntax.KindBinary, x, b.expr(x.X), b.expr(x.Y))
		n.Binary = binaryOps[x.Op]
		return n

	case *ast.UnaryExpr:
		n := b.node(syntax.KindUnary, x, b.expr(x.X))
		n.Unary = unaryOps[x.Op]
		return n

	case *ast.StarExpr:
		n := b.node(syntax.KindUnary, x, b.expr(x.X))
		n.Unary = syntax.OpDeref
		return n

	case *ast.CallExpr:
		return b.call(x)

	case *ast.SelectorExpr:
		return b.expr(x.X)

	case *ast.IndexExpr:
		if b.isType(x) {
			return nil
		}
		return b.node(syntax.KindSubscript, x, b.expr(x.X), b.expr(x.Index))

	case *ast.SliceExpr:
		return b.node(syntax.KindSubscript, x, b.expr(x.X), b.expr(x.Low), b.expr(x.High), b.expr(x.Max))

	case *ast.TypeAssertExpr:
		if x.Type == nil {
			// x.(type) in a type switch guard
			return b.expr(x.X)
		}
		return b.node(syntax.KindDynamicCast, x, b.expr(x.X))

	case *ast.FuncLit:
		return b.node(syntax.KindLambda, x, b.block(x.Body))

	case *ast.CompositeLit:
		n := b.node(syntax.KindOther, x)
		for _, elt := range x.Elts {
			n.Append(b.expr(elt))
		}
		return n

	case *ast.KeyValueExpr:
		return b.node(syntax.KindOther, x, b.expr(x.Key), b.expr(x.Value))
	}
	// identifiers, literals and type expressions
	return nil
}

func (b *builder) call(c *ast.CallExpr) *syntax.Element {
	withArgs := func(n *syntax.Element) *syntax.Element {
		for _, a := range c.Args {
			n.Append(b.expr(a))
		}
		return n
	}

	fun := ast.Unparen(c.Fun)
	if b.isConversion(fun) {
		kind := syntax.KindStaticCast
		if b.isUnsafePointer(fun) {
			kind = syntax.KindReinterpretCast
		}
		return withArgs(b.node(kind, c))
	}

	if name, ok := b.builtin(fun); ok {
		switch name {
		case "new", "make":
			return withArgs(b.node(syntax.KindNew, c))
		case "delete":
			return withArgs(b.node(syntax.KindDelete, c))
		}
		return withArgs(b.node(syntax.KindCall, c).WithName(name))
	}

	switch f := fun.(type) {
	case *ast.Ident:
		return withArgs(b.node(syntax.KindCall, c).WithName(f.Name))

	case *ast.SelectorExpr:
		if pkg, ok := b.packageName(f.X); ok {
			return withArgs(b.node(syntax.KindCall, c).WithName(pkg + "." + f.Sel.Name))
		}
		if recv, ok := b.methodReceiver(f); ok {
			n := b.node(syntax.KindMemberCall, c, b.expr(f.X)).WithName(recv + "::" + f.Sel.Name)
			return withArgs(n)
		}
		// field holding a function value
		return withArgs(b.node(syntax.KindCall, c, b.expr(f.X)).WithName(types.ExprString(f)))
	}

	return withArgs(b.node(syntax.KindCall, c, b.expr(fun)).WithName(types.ExprString(fun)))
}
