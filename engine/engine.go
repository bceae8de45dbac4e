// Package engine drives a module's ops against the GPU, keeping one
// lazily constructed Implementation per op variant alive across
// executions and reusing whatever values a module's common prefix with
// the previous one lets it skip recomputing (§4.6).
package engine

import (
	"fmt"

	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/ops"
	"github.com/lumenforge/salon/runtime"
)

// Engine owns the toolbox every op implementation dispatches through and
// the implementations themselves, one per op variant ever seen.
type Engine struct {
	tb    *runtime.Toolbox
	impls map[string]ops.Implementation
}

// New returns an Engine with no implementations constructed yet; they are
// built lazily, on first use of their variant, by ExecuteModule.
func New(tb *runtime.Toolbox) *Engine {
	return &Engine{tb: tb, impls: make(map[string]ops.Implementation)}
}

// ExecuteModule runs module against inputImg, writing every non-reusable
// op's result into execution_context's value store.
//
// Per op, not per module, a fresh command encoder is opened and
// submitted. The donor batches a whole module into a single encoder and
// submits once at the end; a handful of this module's ops (basic
// statistics, dehaze preparation, histogram, resize, rotate-and-crop,
// framing) read GPU-resident state back synchronously inside
// EncodeCommands instead of queuing a dispatch for later, so a later op
// reading their output would see stale data if it ran before an earlier
// queued dispatch had actually executed. The software device runs a
// Dispatch synchronously at Submit regardless of how many other commands
// share the encoder, so submitting after every op is observably
// identical to one encoder for the whole module and removes that hazard.
func (e *Engine) ExecuteModule(module *ir.Module, inputImg *runtime.Image, ec *ExecutionContext) error {
	e.resetImpls(module)

	reusable := ec.computeReusableIDs(module, inputImg.ID)

	for _, op := range module.Ops {
		if reusable[op.Result()] {
			continue
		}

		if _, isInput := op.(ir.Input); isInput {
			ec.ValueStore.Set(op.Result(), ir.ImageValue(inputImg))
			continue
		}

		impl, ok := e.impls[op.Kind()]
		if !ok {
			return fmt.Errorf("engine: no implementation registered for op kind %q", op.Kind())
		}

		enc := e.tb.Runtime().NewEncoder(op.Kind())
		if err := impl.EncodeCommands(enc, op, &ec.ValueStore, e.tb); err != nil {
			return fmt.Errorf("engine: %s: %w", op.Kind(), err)
		}
		enc.Submit()
	}

	ec.setLast(module, inputImg.ID)
	return nil
}

// resetImpls constructs (once per variant, lazily) and resets the
// implementation for every op kind module uses. Reset marks each
// implementation's ring buffer available and clears its bind-group cache
// (§4.5) so stale bindings from a previous execution are never reused.
func (e *Engine) resetImpls(module *ir.Module) {
	for _, op := range module.Ops {
		kind := op.Kind()
		if kind == "Input" {
			continue
		}
		impl, ok := e.impls[kind]
		if !ok {
			ctor, ok := ops.Registry[kind]
			if !ok {
				continue
			}
			impl = ctor(e.tb)
			e.impls[kind] = impl
		}
		impl.Reset()
	}
}
