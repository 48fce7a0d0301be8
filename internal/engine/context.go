package engine

import "gotick/internal/syntax"

// State tracks whether a frame already belongs to an open statement.
type State int

const (
	StateUndefined State = iota
	StateInsideFunction
	StateStatementStart
	StateStatementBody
)

func (s State) String() string {
	switch s {
	case StateUndefined:
		return "undefined"
	case StateInsideFunction:
		return "insideFunction"
	case StateStatementStart:
		return "statementStart"
	case StateStatementBody:
		return "statementBody"
	default:
		return "unknown"
	}
}

// Frame describes one open ancestor of the node being visited. It keeps the
// data the placement rules need, never the node itself.
type Frame struct {
	Kind  syntax.Kind
	State State
	Pos   int

	// Anchor is set when opening this node was an insertion point.
	Anchor bool
	// Points is the insertion point counter right after the node opened.
	Points int

	// Snapshot is the operation count of the condition or loop header,
	// taken when the first branch or body was entered.
	Snapshot    int
	HasSnapshot bool
	Blocks      int

	// Post-condition loops remember where their block body closes.
	BodyIsBlock bool
	BodyClose   int

	saved *scope
}

// Accumulation is the work counted since the last flush.
type Accumulation struct {
	Operations int
	Statements int
	// Pending holds counting calls not yet written to the sink.
	Pending string
}

type scope struct {
	acc    Accumulation
	points int
}

// Context is the mutable traversal state of one translation unit.
type Context struct {
	frames []Frame
	Acc    Accumulation

	points   int
	function int

	headerPos  int
	headerSeen bool
	headerDone bool
}

// NewContext returns a context holding only the sentinel root frame.
func NewContext() *Context {
	return &Context{
		frames:   []Frame{{Kind: syntax.KindOther, State: StateUndefined}},
		function: -1,
	}
}

// Depth returns the number of open nodes.
func (c *Context) Depth() int {
	return len(c.frames) - 1
}

// Top returns the innermost open frame.
func (c *Context) Top() *Frame {
	return &c.frames[len(c.frames)-1]
}

func (c *Context) push(f Frame) {
	c.frames = append(c.frames, f)
}

func (c *Context) pop() Frame {
	f := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	return f
}

func (c *Context) saveScope() *scope {
	s := &scope{acc: c.Acc, points: c.points}
	c.Acc = Accumulation{}
	return s
}

func (c *Context) restoreScope(s *scope) {
	if s == nil {
		return
	}
	leftover := c.Acc.Pending
	c.Acc = s.acc
	c.Acc.Pending += leftover
	c.points = s.points
}

func (c *Context) markHeader(pos int) {
	if !c.headerSeen {
		c.headerSeen = true
		c.headerPos = pos
	}
}
