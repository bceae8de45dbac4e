package engine

import (
	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/ir"
)

// ExecutionContext holds the value store an Engine writes intermediate
// results into plus enough history to decide, on the next execution,
// which of those values can be reused rather than recomputed (§4.6, §9).
type ExecutionContext struct {
	ValueStore ir.ValueStore

	lastModule  *ir.Module
	lastInputID gpucore.TextureID
	haveLast    bool
}

// NewExecutionContext returns a context with an empty value store and no
// execution history, so the first ExecuteModule call always recomputes
// everything.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{ValueStore: *ir.NewValueStore()}
}

// computeReusableIDs returns the set of result ids that do not need to be
// recomputed: those produced by the longest prefix module shares with the
// last module executed, provided the input image is the same one (§9:
// "prefix equality against the previous module, PLUS identity of the
// input image, is sufficient to make slider dragging interactive").
func (ec *ExecutionContext) computeReusableIDs(module *ir.Module, inputID gpucore.TextureID) map[ir.Id]bool {
	reusable := make(map[ir.Id]bool)
	if !ec.haveLast || ec.lastInputID != inputID {
		return reusable
	}
	n := ir.CommonPrefixLength(ec.lastModule, module)
	for i := 0; i < n; i++ {
		reusable[module.Ops[i].Result()] = true
	}
	return reusable
}

func (ec *ExecutionContext) setLast(module *ir.Module, inputID gpucore.TextureID) {
	ec.lastModule = module
	ec.lastInputID = inputID
	ec.haveLast = true
}
