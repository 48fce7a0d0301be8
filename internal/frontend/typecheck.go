package frontend

import (
	"go/ast"
	"go/importer"
	"go/token"
	"go/types"
)

// Check type-checks the files of one package and returns whatever type
// information could be collected. Type errors are ignored: a file that does
// not fully check is still instrumented from syntax alone.
func Check(fset *token.FileSet, files []*ast.File) *types.Info {
	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Uses:       make(map[*ast.Ident]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
	}
	if len(files) == 0 {
		return info
	}

	conf := types.Config{
		Importer: importer.Default(),
		Error:    func(error) {},
	}
	_, _ = conf.Check(files[0].Name.Name, fset, files, info)
	return info
}

func (b *builder) typeOf(x ast.Expr) (types.TypeAndValue, bool) {
	if b.info == nil {
		return types.TypeAndValue{}, false
	}
	tv, ok := b.info.Types[x]
	return tv, ok && tv.Type != nil
}

func (b *builder) use(id *ast.Ident) types.Object {
	if b.info == nil {
		return nil
	}
	return b.info.Uses[id]
}

func (b *builder) isType(x ast.Expr) bool {
	tv, ok := b.typeOf(x)
	return ok && tv.IsType()
}

func (b *builder) isConversion(fun ast.Expr) bool {
	if tv, ok := b.typeOf(fun); ok {
		return tv.IsType()
	}
	switch f := fun.(type) {
	case *ast.ArrayType, *ast.MapType, *ast.ChanType, *ast.FuncType,
		*ast.InterfaceType, *ast.StructType, *ast.StarExpr:
		return true
	case *ast.Ident:
		obj := b.use(f)
		if obj == nil {
			obj = types.Universe.Lookup(f.Name)
		}
		_, ok := obj.(*types.TypeName)
		return ok
	case *ast.SelectorExpr:
		return isUnsafePointerExpr(f)
	}
	return false
}

func (b *builder) isUnsafePointer(fun ast.Expr) bool {
	if tv, ok := b.typeOf(fun); ok {
		return types.Identical(tv.Type, types.Typ[types.UnsafePointer])
	}
	sel, ok := fun.(*ast.SelectorExpr)
	return ok && isUnsafePointerExpr(sel)
}

func isUnsafePointerExpr(sel *ast.SelectorExpr) bool {
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == "unsafe" && sel.Sel.Name == "Pointer"
}

// builtin reports the name of a predeclared function called through fun.
func (b *builder) builtin(fun ast.Expr) (string, bool) {
	id, ok := fun.(*ast.Ident)
	if !ok {
		return "", false
	}
	obj := b.use(id)
	if obj == nil {
		obj = types.Universe.Lookup(id.Name)
	}
	_, ok = obj.(*types.Builtin)
	return id.Name, ok
}

func (b *builder) packageName(x ast.Expr) (string, bool) {
	id, ok := x.(*ast.Ident)
	if !ok {
		return "", false
	}
	if obj := b.use(id); obj != nil {
		_, ok := obj.(*types.PkgName)
		return id.Name, ok
	}
	return id.Name, b.imports[id.Name]
}

// methodReceiver returns the receiver type name of a method call. Without
// type information the receiver expression stands in for the type.
func (b *builder) methodReceiver(sel *ast.SelectorExpr) (string, bool) {
	if b.info != nil {
		if s, ok := b.info.Selections[sel]; ok {
			if s.Kind() == types.FieldVal {
				return "", false
			}
			return typeName(s.Recv()), true
		}
	}
	return types.ExprString(sel.X), true
}

func typeName(t types.Type) string {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	switch t := types.Unalias(t).(type) {
	case *types.Named:
		return t.Obj().Name()
	case *types.Pointer:
		return typeName(t.Elem())
	}
	return types.TypeString(t, func(*types.Package) string { return "" })
}
