package frontend

import (
	"go/ast"
	"go/token"
)

// trailingExit returns the last statement of list when control cannot fall
// off its end, or when it is a jump. Text that must run before the block is
// left goes in front of that statement instead of before the closing brace.
func trailingExit(list []ast.Stmt) ast.Stmt {
	if len(list) == 0 {
		return nil
	}
	last := list[len(list)-1]
	for {
		ls, ok := last.(*ast.LabeledStmt)
		if !ok || isLabelTarget(ls.Stmt) {
			break
		}
		last = ls.Stmt
	}
	if _, ok := last.(*ast.BranchStmt); ok {
		return last
	}
	if isTerminating(last, "") {
		return last
	}
	return nil
}

// isTerminating follows the terminating statement rules of the language
// specification.
func isTerminating(s ast.Stmt, label string) bool {
	switch s := s.(type) {
	case *ast.ReturnStmt:
		return true

	case *ast.BranchStmt:
		return s.Tok == token.GOTO || s.Tok == token.FALLTHROUGH

	case *ast.ExprStmt:
		call, ok := ast.Unparen(s.X).(*ast.CallExpr)
		if !ok {
			return false
		}
		id, ok := ast.Unparen(call.Fun).(*ast.Ident)
		return ok && id.Name == "panic"

	case *ast.BlockStmt:
		return isTerminatingList(s.List, "")

	case *ast.LabeledStmt:
		return isTerminating(s.Stmt, s.Label.Name)

	case *ast.IfStmt:
		return s.Else != nil &&
			isTerminating(s.Body, "") &&
			isTerminating(s.Else, "")

	case *ast.ForStmt:
		return s.Cond == nil && !hasBreak(s.Body, label, true)

	case *ast.SwitchStmt:
		return clausesTerminate(s.Body, label)

	case *ast.TypeSwitchStmt:
		return clausesTerminate(s.Body, label)

	case *ast.SelectStmt:
		for _, c := range s.Body.List {
			cc := c.(*ast.CommClause)
			if !isTerminatingList(cc.Body, "") || hasBreakList(cc.Body, label, true) {
				return false
			}
		}
		return true
	}
	return false
}

func isTerminatingList(list []ast.Stmt, label string) bool {
	if len(list) == 0 {
		return false
	}
	return isTerminating(list[len(list)-1], label)
}

func clausesTerminate(body *ast.BlockStmt, label string) bool {
	hasDefault := false
	for _, c := range body.List {
		cc := c.(*ast.CaseClause)
		if cc.List == nil {
			hasDefault = true
		}
		if !isTerminatingList(cc.Body, "") || hasBreakList(cc.Body, label, true) {
			return false
		}
	}
	return hasDefault
}

// hasBreak reports whether s contains a break that leaves the statement
// being checked: an unlabeled break outside nested breakable statements
// when implicit is set, or a break naming label.
func hasBreak(s ast.Stmt, label string, implicit bool) bool {
	switch s := s.(type) {
	case *ast.BranchStmt:
		if s.Tok != token.BREAK {
			return false
		}
		if s.Label == nil {
			return implicit
		}
		return s.Label.Name == label

	case *ast.BlockStmt:
		return hasBreakList(s.List, label, implicit)

	case *ast.LabeledStmt:
		return hasBreak(s.Stmt, label, implicit)

	case *ast.IfStmt:
		return hasBreak(s.Body, label, implicit) || (s.Else != nil && hasBreak(s.Else, label, implicit))

	case *ast.CaseClause:
		return hasBreakList(s.Body, label, implicit)

	case *ast.CommClause:
		return hasBreakList(s.Body, label, implicit)

	case *ast.ForStmt:
		return label != "" && hasBreak(s.Body, label, false)

	case *ast.RangeStmt:
		return label != "" && hasBreak(s.Body, label, false)

	case *ast.SwitchStmt:
		return label != "" && hasBreak(s.Body, label, false)

	case *ast.TypeSwitchStmt:
		return label != "" && hasBreak(s.Body, label, false)

	case *ast.SelectStmt:
		return label != "" && hasBreak(s.Body, label, false)
	}
	return false
}

func hasBreakList(list []ast.Stmt, label string, implicit bool) bool {
	for _, s := range list {
		if hasBreak(s, label, implicit) {
			return true
		}
	}
	return false
}
