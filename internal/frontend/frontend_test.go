package frontend

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"gotick/internal/costmodel"
	"gotick/internal/engine"
	"gotick/internal/rewrite"
	"gotick/internal/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `package sample

type stack struct {
	items []int
}

func (s *stack) push(v int) {
	s.items = append(s.items, v)
}

func (s *stack) pop() (int, bool) {
	if len(s.items) == 0 {
		return 0, false
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, true
}

var double = func(x int) int { return x * 2 }

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func classify(n int) string {
	switch {
	case n < 0:
		return "negative"
	case n == 0:
		fallthrough
	case n == 1:
		return "small"
	default:
		return "large"
	}
}

func describe(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case string:
		return len(t)
	}
	return -1
}

func loop(n int) int {
	i := 0
	for i < n {
		i++
	}
	for {
		if i > 10 {
			break
		}
		i += 2
	}
outer:
	for j := 0; j < n; j++ {
		for k := 0; k < j; k++ {
			if k == 3 {
				continue outer
			}
			if k == 5 {
				break outer
			}
		}
	}
	return i
}

func forever(ch chan int) int {
	for {
		select {
		case v := <-ch:
			if v > 0 {
				return v
			}
		case ch <- 1:
		default:
			panic("blocked")
		}
	}
}

func jump(n int) int {
	if n > 0 {
		goto done
	}
	n = -n
done:
	return n
}

func work(s *stack) (r int) {
	defer func() {
		r++
	}()
	done := make(chan struct{})
	go func() {
		s.push(double(3))
		close(done)
	}()
	<-done
	if v, ok := s.pop(); ok {
		return v
	} else {
		return 0
	}
}

func convert(f float64) int {
	var b byte = byte(f)
	m := map[string]int{"a": 1}
	delete(m, "a")
	p := new(int)
	*p = int(b) + m["a"]
	return *p
}
`

func parse(t *testing.T, src string) (*token.FileSet, *ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "sample.go", src, parser.ParseComments)
	require.NoError(t, err)
	return fset, file
}

func instrument(t *testing.T, src string, m *costmodel.Model, opts engine.Options) string {
	t.Helper()
	fset, file := parse(t, src)
	root := Build(fset, file, Check(fset, []*ast.File{file}))

	buf := rewrite.NewBuffer([]byte(src))
	_, err := engine.New(m, opts).Instrument(root, buf)
	require.NoError(t, err)
	return buf.String()
}

func goOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.ClosePrefix = ";"
	return opts
}

func names(root syntax.Node, kind syntax.Kind) []string {
	var out []string
	syntax.Inspect(root, func(n syntax.Node) bool {
		if n.Kind() == kind {
			out = append(out, n.Name())
		}
		return true
	})
	return out
}

func count(root syntax.Node, kind syntax.Kind) int {
	return len(names(root, kind))
}

func TestAssignmentIsChargedBeforeStatement(t *testing.T) {
	src := "package p\n\nfunc f(a, b, c int) int {\n\ta = b + c\n\treturn a\n}\n"
	m, err := costmodel.Read(strings.NewReader("+ 2\n= 1\ncall() 0\n"))
	require.NoError(t, err)

	out := instrument(t, src, m, goOptions())
	assert.Contains(t, out, "\tCLK(3);a = b + c\n")
	assert.Contains(t, out, "\tCLK(1);return a\n")
}

func TestIfElseBranches(t *testing.T) {
	src := "package p\n\nfunc g(x bool, y, z int) {\n\tif x {\n\t\ty++\n\t} else {\n\t\tz--\n\t}\n}\n"

	out := instrument(t, src, costmodel.Default(), goOptions())
	assert.Contains(t, out, "\tCLK(1);if x {")
	assert.Contains(t, out, "\t\tCLK(2);y++")
	assert.Contains(t, out, "\t\tCLK(2);z--")
}

func TestInstrumentedOutputTypeChecks(t *testing.T) {
	opts := goOptions()
	opts.Header = "var CLK = func(int) {}\n"

	for _, limit := range []int{1, 3, 50} {
		opts.MaxOperationCount = limit
		out := instrument(t, sample, costmodel.Default(), opts)
		assert.Equal(t, 1, strings.Count(out, opts.Header))

		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, "out.go", out, parser.ParseComments)
		require.NoError(t, err, out)

		conf := types.Config{}
		_, err = conf.Check("sample", fset, []*ast.File{file}, nil)
		require.NoError(t, err, out)
	}
}

func TestReturnStaysLast(t *testing.T) {
	src := "package p\n\nfunc f(n int) int {\n\tn++\n\treturn n\n}\n"
	opts := goOptions()
	opts.MaxOperationCount = 10

	out := instrument(t, src, costmodel.Default(), opts)
	assert.Contains(t, out, ";CLK(2);return n\n}")
}

func TestFallthroughStaysLast(t *testing.T) {
	src := "package p\n\nfunc f(n int) {\n\tswitch n {\n\tcase 0:\n\t\tfallthrough\n\tdefault:\n\t}\n}\n"

	out := instrument(t, src, costmodel.Default(), goOptions())
	_, err := parser.ParseFile(token.NewFileSet(), "out.go", out, 0)
	require.NoError(t, err, out)
	assert.Regexp(t, `fallthrough\n\tdefault:`, out)
}

func TestCountFollowsGotoLabel(t *testing.T) {
	src := "package p\n\nfunc f(r int) {\n\tif r > 0 {\n\t\tgoto done\n\t}\nloop:\n\tfor r < 10 {\n\t\tr++\n\t\tcontinue loop\n\t}\n\tr--\ndone:\n\tprintln(r)\n}\n"
	opts := goOptions()
	opts.Header = "var CLK = func(int) {}\n"

	out := instrument(t, src, costmodel.Default(), opts)
	assert.Contains(t, out, "done:\n\tCLK(1);println(r)")
	assert.NotContains(t, out, "CLK(1);done:")
	assert.Contains(t, out, "loop:\n\tfor r < 10")

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "out.go", out, 0)
	require.NoError(t, err, out)
	_, err = (&types.Config{}).Check("p", fset, []*ast.File{file}, nil)
	require.NoError(t, err, out)
}

func TestTypedMapping(t *testing.T) {
	fset, file := parse(t, sample)
	root := Build(fset, file, Check(fset, []*ast.File{file}))

	assert.ElementsMatch(t, []string{"stack::push", "stack::pop"}, names(root, syntax.KindMemberCall))
	assert.Equal(t, 2, count(root, syntax.KindStaticCast))
	assert.Equal(t, 2, count(root, syntax.KindNew))
	assert.Equal(t, 1, count(root, syntax.KindDelete))
	assert.Equal(t, 0, count(root, syntax.KindDynamicCast))
	assert.Equal(t, 3, count(root, syntax.KindLambda))
	assert.Equal(t, 1, count(root, syntax.KindWhile))
	assert.Equal(t, 1, count(root, syntax.KindForRange))
	assert.Equal(t, 1, count(root, syntax.KindSelect))
	assert.Equal(t, 1, count(root, syntax.KindGoto))
	assert.Equal(t, 1, count(root, syntax.KindFallthrough))
	assert.Contains(t, names(root, syntax.KindCall), "double")
	assert.Contains(t, names(root, syntax.KindCall), "panic")

	assert.ElementsMatch(t, []string{"stack::push", "stack::pop", "sum", "classify", "describe", "loop", "forever", "jump", "work", "convert"},
		append(names(root, syntax.KindFunction), names(root, syntax.KindMethod)...))
	assert.Equal(t, 1, count(root, syntax.KindRecord))
	assert.Equal(t, 1, count(root, syntax.KindGlobal))
}

func TestUntypedFallbacks(t *testing.T) {
	src := `package p

import (
	"strings"
	"unsafe"
)

func f(buf *strings.Builder, s string, p *int) {
	buf.WriteString(strings.ToUpper(s))
	_ = unsafe.Pointer(p)
	_ = []byte(s)
	_ = any(s).(string)
}
`
	fset, file := parse(t, src)
	root := Build(fset, file, nil)

	assert.Equal(t, []string{"buf::WriteString"}, names(root, syntax.KindMemberCall))
	assert.Equal(t, []string{"strings.ToUpper"}, names(root, syntax.KindCall))
	assert.Equal(t, 1, count(root, syntax.KindReinterpretCast))
	assert.Equal(t, 2, count(root, syntax.KindStaticCast))
	assert.Equal(t, 1, count(root, syntax.KindDynamicCast))
}

func TestOffsetsAreFileRelative(t *testing.T) {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "first.go", "package a\n\nvar x = 1\n", 0)
	require.NoError(t, err)

	src := "package b\n\nfunc f() {\n\tg()\n}\n\nfunc g() {}\n"
	file, err := parser.ParseFile(fset, "second.go", src, 0)
	require.NoError(t, err)

	root := Build(fset, file, nil)
	assert.Equal(t, len(src), root.End())

	var calls []syntax.Node
	syntax.Inspect(root, func(n syntax.Node) bool {
		if n.Kind() == syntax.KindCall {
			calls = append(calls, n)
		}
		return true
	})
	require.Len(t, calls, 1)
	assert.Equal(t, strings.Index(src, "g()"), calls[0].Pos())
}

func TestDocCommentStartsDeclaration(t *testing.T) {
	src := "package p\n\n// f does nothing.\nfunc f() {}\n"
	fset, file := parse(t, src)
	root := Build(fset, file, nil)

	children := root.Children()
	require.Len(t, children, 1)
	assert.Equal(t, strings.Index(src, "// f"), children[0].Pos())
}

func TestBlockCloseOffsets(t *testing.T) {
	src := "package p\n\nfunc f(n int) int {\n\tif n > 0 {\n\t\tn++\n\t}\n\treturn n\n}\n"
	fset, file := parse(t, src)
	root := Build(fset, file, nil)

	var closes []int
	syntax.Inspect(root, func(n syntax.Node) bool {
		if n.Kind() == syntax.KindCompound {
			closes = append(closes, n.Close())
		}
		return true
	})
	require.Len(t, closes, 2)
	assert.Equal(t, strings.Index(src, "return"), closes[0])
	assert.Equal(t, strings.Index(src, "\t}")+1, closes[1])
}

func TestTerminatingStatements(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"return", "return", true},
		{"panic", "panic(1)", true},
		{"infinite loop", "for {}", true},
		{"loop with break", "for { break }", false},
		{"loop with nested break", "for { switch { default: break } }", true},
		{"labeled break", "L: for { for { break L } }", false},
		{"if without else", "if true { return }", false},
		{"if else", "if true { return } else { panic(1) }", true},
		{"switch without default", "switch { case true: return }", false},
		{"switch with default", "switch { case true: return; default: return }", true},
		{"select", "select {}", true},
		{"call", "println()", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "package p\n\nfunc f() {\n" + tt.body + "\n}\n"
			_, file := parse(t, src)
			body := file.Decls[0].(*ast.FuncDecl).Body.List
			assert.Equal(t, tt.want, isTerminating(body[len(body)-1], ""))
		})
	}
}
