// Package engine walks a syntax tree and inserts counting calls that report
// the work performed by each statement.
package engine

import (
	"fmt"

	"gotick/internal/costmodel"
	"gotick/internal/syntax"
)

// DefaultFunctionName is the counting function called by inserted code.
const DefaultFunctionName = "CLK"

// Sink receives the textual insertions of a walk.
type Sink interface {
	InsertTextBefore(offset int, text string) error
}

// Options control where and how counting calls are emitted.
type Options struct {
	FunctionName      string
	MaxOperationCount int
	MaxStatementCount int
	// Header is inserted once per unit in front of the first declaration,
	// e.g. the import and declaration the counting function needs.
	Header string
	// ClosePrefix is written ahead of calls placed at a block's closing
	// position.
	ClosePrefix string
}

// DefaultOptions returns options that flush after every statement.
func DefaultOptions() Options {
	return Options{
		FunctionName:      DefaultFunctionName,
		MaxOperationCount: 1,
		MaxStatementCount: 1,
	}
}

// FunctionStats describes the calls emitted inside one declared function.
type FunctionStats struct {
	Name         string `json:"name"`
	Method       bool   `json:"method,omitempty"`
	Offset       int    `json:"offset"`
	DeclaredTick int    `json:"declared_tick"`
	Calls        int    `json:"calls"`
	Ticks        int    `json:"ticks"`
}

// Stats summarizes one walk.
type Stats struct {
	Calls     int             `json:"calls"`
	Ticks     int             `json:"ticks"`
	Functions []FunctionStats `json:"functions"`
}

// Engine prices nodes with a cost model and decides where counting calls go.
// An Engine is safe to reuse; every call to Instrument uses a fresh context.
type Engine struct {
	model *costmodel.Model
	opts  Options
}

// New returns an engine. Zero option values fall back to the defaults.
func New(model *costmodel.Model, opts Options) *Engine {
	if model == nil {
		model = costmodel.Default()
	}
	def := DefaultOptions()
	if opts.FunctionName == "" {
		opts.FunctionName = def.FunctionName
	}
	if opts.MaxOperationCount < 1 {
		opts.MaxOperationCount = def.MaxOperationCount
	}
	if opts.MaxStatementCount < 1 {
		opts.MaxStatementCount = def.MaxStatementCount
	}
	return &Engine{model: model, opts: opts}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Instrument walks the unit rooted at root and sends insertions to sink.
func (e *Engine) Instrument(root syntax.Node, sink Sink) (*Stats, error) {
	w := &walker{model: e.model, opts: e.opts, sink: sink, stats: &Stats{}}
	if err := syntax.Walk[*Context](root, w, NewContext()); err != nil {
		return w.stats, err
	}
	return w.stats, nil
}

type walker struct {
	model *costmodel.Model
	opts  Options
	sink  Sink
	stats *Stats
}

var _ syntax.Visitor[*Context] = (*walker)(nil)

func (w *walker) Enter(n syntax.Node, ctx *Context) (bool, error) {
	kind := n.Kind()
	switch {
	case kind == syntax.KindUnit:
		ctx.push(Frame{Kind: kind, State: StateUndefined, Pos: n.Pos()})
		return true, nil

	case kind.IsFunction():
		ctx.markHeader(n.Pos())
		w.enterFunction(n, ctx)
		return true, nil

	case kind.IsDeclaration():
		ctx.markHeader(n.Pos())
		ctx.push(Frame{Kind: kind, State: StateStatementBody, Pos: n.Pos()})
		return true, nil

	case kind == syntax.KindLambda:
		// the literal itself is work of the enclosing statement, its body
		// is counted in a scope of its own
		ctx.Acc.Operations += w.model.StatementTick(n)
		saved := ctx.saveScope()
		ctx.Acc.Operations += w.model.FunctionCallTick()
		ctx.push(Frame{Kind: kind, State: StateInsideFunction, Pos: n.Pos(), saved: saved})
		return true, nil

	case kind == syntax.KindCompound:
		w.enterBlock(n, ctx)
		return true, nil
	}

	parent := ctx.Top()
	if isBranch(parent, n) {
		enterBranch(parent, ctx)
	}

	frame := Frame{Kind: kind, State: StateStatementBody, Pos: n.Pos()}
	if parent.State != StateStatementStart && parent.State != StateStatementBody {
		frame.State = StateStatementStart
		if !kind.IsLabel() {
			if err := w.insertionPoint(ctx, n.Pos(), false); err != nil {
				return false, err
			}
			frame.Anchor = true
		}
	}
	frame.Points = ctx.points

	ctx.Acc.Operations += w.weight(n)
	ctx.push(frame)
	return true, nil
}

func (w *walker) Exit(n syntax.Node, ctx *Context) error {
	frame := ctx.pop()
	kind := n.Kind()

	switch {
	case kind == syntax.KindUnit:
		return nil

	case kind.IsFunction():
		w.exitFunction(n, ctx)
		return nil

	case kind.IsDeclaration():
		return nil

	case kind == syntax.KindLambda:
		ctx.restoreScope(frame.saved)

	case kind == syntax.KindCompound:
		w.flush(ctx, true)
		if err := w.insertionPoint(ctx, n.Close(), true); err != nil {
			return err
		}
		if parent := ctx.Top(); parent.Kind.HasLoopHeader() && parent.HasSnapshot {
			// the loop header runs again after every pass over the body
			ctx.Acc.Operations += parent.Snapshot
			w.flush(ctx, true)
		}

	default:
		if frame.State == StateStatementStart {
			w.flush(ctx, false)
			if frame.Anchor && frame.Points == ctx.points {
				// nothing was inserted inside the statement, so its count
				// goes right in front of it
				if err := w.write(ctx, frame.Pos, false); err != nil {
					return err
				}
			}
		}
	}

	if parent := ctx.Top(); parent.Kind == syntax.KindDo && parent.BodyIsBlock && kind != syntax.KindCompound {
		// charge the condition of a post-condition loop before the body
		// repeats
		live := ctx.Acc.Operations
		w.flush(ctx, true)
		ctx.Acc.Operations = live
		if err := w.write(ctx, parent.BodyClose, true); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) enterFunction(n syntax.Node, ctx *Context) {
	w.stats.Functions = append(w.stats.Functions, FunctionStats{
		Name:         n.Name(),
		Method:       n.Kind() == syntax.KindMethod,
		Offset:       n.Pos(),
		DeclaredTick: w.model.FunctionTick(n),
	})
	ctx.function = len(w.stats.Functions) - 1

	ctx.Acc.Statements = 0
	ctx.Acc.Operations = w.model.FunctionCallTick()
	ctx.push(Frame{Kind: n.Kind(), State: StateInsideFunction, Pos: n.Pos()})
}

func (w *walker) exitFunction(n syntax.Node, ctx *Context) {
	if n.Kind() == syntax.KindMethod {
		// declarations without a body never flush
		ctx.Acc.Operations = 0
	}
	ctx.function = -1
}

func (w *walker) enterBlock(n syntax.Node, ctx *Context) {
	parent := ctx.Top()

	carry := parent.Kind.IsLabel()
	if isBranch(parent, n) {
		enterBranch(parent, ctx)
		carry = true
	}
	if parent.Kind.HasLoopHeader() && !parent.HasSnapshot {
		parent.Snapshot = ctx.Acc.Operations
		parent.HasSnapshot = true
	}
	if parent.Kind == syntax.KindDo && parent.Blocks == 0 {
		parent.BodyIsBlock = true
		parent.BodyClose = n.Close()
	}
	parent.Blocks++

	if !carry {
		w.flush(ctx, true)
	}
	ctx.push(Frame{Kind: syntax.KindCompound, State: StateUndefined, Pos: n.Pos(), Points: ctx.points})
}

// isBranch reports whether n is one of the alternatives selected by the
// construct open in parent.
func isBranch(parent *Frame, n syntax.Node) bool {
	switch parent.Kind {
	case syntax.KindIf:
		return n.Kind() == syntax.KindCompound || (n.Kind() == syntax.KindIf && parent.Blocks > 0)
	case syntax.KindSwitch, syntax.KindSelect:
		return n.Kind().IsLabel()
	default:
		return false
	}
}

// enterBranch snapshots the condition cost on the first branch and charges
// it again to every later one.
func enterBranch(parent *Frame, ctx *Context) {
	if !parent.HasSnapshot {
		parent.Snapshot = ctx.Acc.Operations
		parent.HasSnapshot = true
		return
	}
	ctx.Acc.Operations += parent.Snapshot
}

func (w *walker) weight(n syntax.Node) int {
	if n.Kind() == syntax.KindVarDecl {
		return w.model.VariableDeclTick(n)
	}
	return w.model.StatementTick(n)
}

// flush turns the accumulated count into a pending call. Unless forced, it
// waits until both the statement and the operation thresholds are reached.
func (w *walker) flush(ctx *Context, force bool) {
	acc := &ctx.Acc
	acc.Statements++
	if acc.Operations == 0 {
		return
	}
	if !force && (acc.Statements < w.opts.MaxStatementCount || acc.Operations < w.opts.MaxOperationCount) {
		return
	}

	acc.Pending += fmt.Sprintf("%s(%d);", w.opts.FunctionName, acc.Operations)

	w.stats.Calls++
	w.stats.Ticks += acc.Operations
	if ctx.function >= 0 {
		fn := &w.stats.Functions[ctx.function]
		fn.Calls++
		fn.Ticks += acc.Operations
	}

	acc.Operations = 0
	acc.Statements = 0
}

func (w *walker) insertionPoint(ctx *Context, offset int, closing bool) error {
	ctx.points++
	return w.write(ctx, offset, closing)
}

// write sends the pending calls to the sink.
func (w *walker) write(ctx *Context, offset int, closing bool) error {
	if ctx.Acc.Pending == "" {
		return nil
	}
	if err := w.writeHeader(ctx); err != nil {
		return err
	}

	text := ctx.Acc.Pending
	if closing {
		text = w.opts.ClosePrefix + text
	}
	if err := w.sink.InsertTextBefore(offset, text); err != nil {
		return fmt.Errorf("insert at offset %d: %w", offset, err)
	}
	ctx.Acc.Pending = ""
	return nil
}

// writeHeader adds the header in front of the first declaration, once per
// unit and only when the unit receives calls.
func (w *walker) writeHeader(ctx *Context) error {
	if ctx.headerDone || !ctx.headerSeen {
		return nil
	}
	ctx.headerDone = true

	if w.opts.Header == "" {
		return nil
	}
	if err := w.sink.InsertTextBefore(ctx.headerPos, w.opts.Header); err != nil {
		return fmt.Errorf("insert header at offset %d: %w", ctx.headerPos, err)
	}
	return nil
}
