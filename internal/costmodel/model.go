// Package costmodel maps syntax constructs to tick weights.
package costmodel

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gotick/internal/syntax"

	"fortio.org/safecast"
)

// DefaultWeight is the weight of any chargeable construct absent from the
// table.
const DefaultWeight = 1

// Model is an immutable cost table. Build one with Default, Load or Read.
type Model struct {
	constructs map[syntax.Kind]int
	binary     map[syntax.BinaryOp]int
	unary      map[syntax.UnaryOp]int
	functions  map[string]int
	callWeight int
}

// Default returns a model where every chargeable construct weighs 1.
func Default() *Model {
	return &Model{
		constructs: make(map[syntax.Kind]int),
		binary:     make(map[syntax.BinaryOp]int),
		unary:      make(map[syntax.UnaryOp]int),
		functions:  make(map[string]int),
		callWeight: DefaultWeight,
	}
}

// Load reads a cost file. Nothing is returned when the file cannot be
// opened or read.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cost model %s: %w", path, err)
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read cost model %s: %w", path, err)
	}
	return m, nil
}

// Read parses "name weight" lines. Names are resolved against the construct,
// unary and binary vocabularies in that order; the reserved call() name sets
// the per-invocation weight and any other name is a function name.
// Malformed weights count as 0. Later lines override earlier ones.
func Read(r io.Reader) (*Model, error) {
	m := Default()

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if fields := strings.Fields(line); len(fields) > 0 && !strings.HasPrefix(fields[0], "#") {
			weight := 0
			if len(fields) > 1 {
				weight = parseWeight(fields[1])
			}
			m.set(fields[0], weight)
		}
		if err == io.EOF {
			return m, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (m *Model) set(name string, weight int) {
	if name == CallWeightName {
		m.callWeight = weight
		return
	}
	if kind, ok := constructByName[name]; ok {
		m.constructs[kind] = weight
		return
	}
	if op, ok := unaryByName[name]; ok {
		m.unary[op] = weight
		return
	}
	if op, ok := binaryByName[name]; ok {
		m.binary[op] = weight
		return
	}
	m.functions[name] = weight
}

// parseWeight reads the leading decimal digits of s. Anything that does not
// start with a digit, or does not fit an int, is 0.
func parseWeight(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	u, err := strconv.ParseUint(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	w, err := safecast.Conv[int](u)
	if err != nil {
		return 0
	}
	return w
}

// Save writes the model as an editable template.
func (m *Model) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cost model directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cost model %s: %w", path, err)
	}
	if err := m.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write cost model %s: %w", path, err)
	}
	return f.Close()
}

// Write emits every construct, binary and unary operator name with its
// resolved weight, then the call weight and the configured functions.
func (m *Model) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, c := range constructNames {
		fmt.Fprintf(bw, "%s %d\n", c.name, lookup(m.constructs, c.kind))
	}
	for _, b := range binaryNames {
		fmt.Fprintf(bw, "%s %d\n", b.name, lookup(m.binary, b.op))
	}
	for _, u := range unaryNames {
		fmt.Fprintf(bw, "%s %d\n", u.name, lookup(m.unary, u.op))
	}
	fmt.Fprintf(bw, "%s %d\n", CallWeightName, m.callWeight)

	names := make([]string, 0, len(m.functions))
	for name := range m.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(bw, "%s %d\n", name, m.functions[name])
	}
	return bw.Flush()
}

func lookup[K comparable](table map[K]int, key K) int {
	if w, ok := table[key]; ok {
		return w
	}
	return DefaultWeight
}

// StatementTick returns the weight charged for visiting n.
func (m *Model) StatementTick(n syntax.Node) int {
	switch n.Kind() {
	case syntax.KindBinary:
		return lookup(m.binary, n.BinaryOp())
	case syntax.KindUnary:
		return lookup(m.unary, n.UnaryOp())
	case syntax.KindCall:
		return lookup(m.functions, n.Name())
	case syntax.KindMemberCall:
		if len(m.functions) == 0 {
			return DefaultWeight
		}
		return lookup(m.functions, n.Name())
	}
	if !IsChargeable(n.Kind()) {
		return 0
	}
	return lookup(m.constructs, n.Kind())
}

// FunctionTick returns the weight configured for a declared function.
func (m *Model) FunctionTick(decl syntax.Node) int {
	return lookup(m.functions, decl.Name())
}

// FunctionCallTick returns the per-invocation weight.
func (m *Model) FunctionCallTick() int {
	return m.callWeight
}

// VariableDeclTick returns the assignment weight of an initialized
// declaration, or 0.
func (m *Model) VariableDeclTick(decl syntax.Node) int {
	if !decl.HasInit() {
		return 0
	}
	return lookup(m.binary, syntax.OpAssign)
}

// FunctionCount returns the number of configured function weights.
func (m *Model) FunctionCount() int {
	return len(m.functions)
}
