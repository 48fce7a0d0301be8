package syntax

// Visitor receives pre-order and post-order hooks for every node of a walk,
// together with the caller's traversal context.
type Visitor[C any] interface {
	// Enter is called before the children of n are walked. Returning
	// descend=false skips the children; Exit is still called.
	Enter(n Node, ctx C) (descend bool, err error)
	Exit(n Node, ctx C) error
}

// Walk traverses the tree rooted at root depth-first. The first error
// returned by a hook aborts the walk.
func Walk[C any](root Node, v Visitor[C], ctx C) error {
	if root == nil {
		return nil
	}
	descend, err := v.Enter(root, ctx)
	if err != nil {
		return err
	}
	if descend {
		for _, child := range root.Children() {
			if err := Walk(child, v, ctx); err != nil {
				return err
			}
		}
	}
	return v.Exit(root, ctx)
}

// Inspect calls fn for every node of the tree in pre-order. If fn returns
// false the children of that node are skipped.
func Inspect(root Node, fn func(Node) bool) {
	if root == nil || !fn(root) {
		return
	}
	for _, child := range root.Children() {
		Inspect(child, fn)
	}
}
