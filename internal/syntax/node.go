package syntax

// Node is a read-only handle on one element of a parsed program. Offsets are
// byte offsets into the source text of the unit the node belongs to.
type Node interface {
	Kind() Kind
	// Children returns the non-nil children in source order.
	Children() []Node
	BinaryOp() BinaryOp
	UnaryOp() UnaryOp
	// Name is the callee identity for call nodes ("name", "pkg.Name" or
	// "Type::Method") and the declared name for function nodes.
	Name() string
	// HasInit reports whether a variable declaration has an initializer.
	HasInit() bool
	Pos() int
	End() int
	// Close is the offset text must be inserted at to run before a block
	// is left. For non-block nodes it equals End.
	Close() int
}

// Element is the concrete Node built by providers and tests.
type Element struct {
	NodeKind  Kind
	Items     []*Element
	Binary    BinaryOp
	Unary     UnaryOp
	Ident     string
	Init      bool
	Start     int
	Stop      int
	CloseAt   int
	hasCloser bool
}

var _ Node = (*Element)(nil)

// New returns an element of kind k spanning [pos, end).
func New(k Kind, pos, end int, children ...*Element) *Element {
	e := &Element{NodeKind: k, Start: pos, Stop: end}
	e.Append(children...)
	return e
}

// Append adds the non-nil children to e.
func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		if c != nil {
			e.Items = append(e.Items, c)
		}
	}
	return e
}

// WithClose sets the closing insertion offset of a block.
func (e *Element) WithClose(off int) *Element {
	e.CloseAt = off
	e.hasCloser = true
	return e
}

// WithName sets the callee or declared name.
func (e *Element) WithName(name string) *Element {
	e.Ident = name
	return e
}

func (e *Element) Kind() Kind { return e.NodeKind }

func (e *Element) Children() []Node {
	nodes := make([]Node, len(e.Items))
	for i, c := range e.Items {
		nodes[i] = c
	}
	return nodes
}

func (e *Element) BinaryOp() BinaryOp { return e.Binary }
func (e *Element) UnaryOp() UnaryOp   { return e.Unary }
func (e *Element) Name() string       { return e.Ident }
func (e *Element) HasInit() bool      { return e.Init }
func (e *Element) Pos() int           { return e.Start }
func (e *Element) End() int           { return e.Stop }

func (e *Element) Close() int {
	if e.hasCloser {
		return e.CloseAt
	}
	if e.NodeKind == KindCompound && e.Stop > e.Start {
		// position of the closing brace
		return e.Stop - 1
	}
	return e.Stop
}
