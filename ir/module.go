package ir

import (
	"fmt"
	"reflect"
)

// Module is an ordered sequence of operations plus a monotonically
// increasing next-identifier counter (§3). Invariants: every op references
// only identifiers produced by earlier ops; identifiers are dense and never
// reused within a module.
type Module struct {
	Ops    []Op
	nextID Id
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{nextID: 1}
}

// AllocID mints a fresh identifier, advancing the module's counter. Ids
// start at 1 so that 0 (InvalidId) never names a real value.
func (m *Module) AllocID() Id {
	id := m.nextID
	m.nextID++
	return id
}

// Append adds op to the module's op list.
func (m *Module) Append(op Op) {
	m.Ops = append(m.Ops, op)
}

// Len returns the number of ops in the module.
func (m *Module) Len() int { return len(m.Ops) }

// Validate checks the §3/§8 invariant that every op's arguments refer to
// identifiers produced earlier in the module.
func (m *Module) Validate() error {
	produced := make(map[Id]bool, len(m.Ops))
	for i, op := range m.Ops {
		for _, arg := range op.Args() {
			if arg == InvalidId {
				continue
			}
			if !produced[arg] {
				return fmt.Errorf("ir: op %d (%s) references id %d before it is produced", i, op.Kind(), arg)
			}
		}
		produced[op.Result()] = true
	}
	return nil
}

// CommonPrefixLength returns the length of the longest prefix of ops that
// are pairwise equal between a and b, used by the engine's reusable-set
// computation (§4.6, §9: "prefix equality... is sufficient to make slider
// dragging interactive").
func CommonPrefixLength(a, b *Module) int {
	if a == nil || b == nil {
		return 0
	}
	n := len(a.Ops)
	if len(b.Ops) < n {
		n = len(b.Ops)
	}
	i := 0
	for ; i < n; i++ {
		// reflect.DeepEqual, not ==: several variants (ApplyCurve) hold a
		// []Point, which makes the interface's dynamic type uncomparable.
		if !reflect.DeepEqual(a.Ops[i], b.Ops[i]) {
			break
		}
	}
	return i
}
