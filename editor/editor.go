// Package editor is the top-level orchestration layer (§4.7): it keeps one
// EditContext per image the user has looked at, lowers the active edit
// into a module via editgen, runs it through an engine.Engine whose
// ExecutionContext persists across calls (so sibling edits on the same
// image reuse whatever their common prefix allows), and assembles the
// resulting images/histogram into an EditResult the UI reads.
package editor

import (
	"context"

	"github.com/lumenforge/salon/edit"
	"github.com/lumenforge/salon/editgen"
	"github.com/lumenforge/salon/engine"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/library"
	"github.com/lumenforge/salon/runtime"
	"github.com/lumenforge/salon/services"
)

// Editor owns every open image's edit history and the single engine used
// to render all of them.
type Editor struct {
	engine  *engine.Engine
	execCtx *engine.ExecutionContext

	rt          *runtime.Runtime
	tb          *runtime.Toolbox
	editWriter  *services.EditWriterService
	storageRoot string

	currentImageIdentifier *library.Identifier
	editContexts           map[library.Identifier]*EditContext
}

// New creates an Editor bound to rt's toolbox, persisting committed edits
// through editWriter (which may be nil: persistence then becomes a no-op,
// useful in tests) under storageRoot.
func New(rt *runtime.Runtime, editWriter *services.EditWriterService, storageRoot string) *Editor {
	return &Editor{
		engine:      engine.New(rt.Toolbox()),
		execCtx:     engine.NewExecutionContext(),
		rt:          rt,
		tb:          rt.Toolbox(),
		editWriter:  editWriter,
		storageRoot: storageRoot,

		editContexts: make(map[library.Identifier]*EditContext),
	}
}

// SetCurrentImage makes identifier the active image, loading its persisted
// edit (if any) the first time it is seen, and executes its current edit
// immediately (§4.7).
func (ed *Editor) SetCurrentImage(identifier library.Identifier, image *runtime.Image) {
	if ed.currentImageIdentifier != nil && *ed.currentImageIdentifier == identifier {
		return
	}

	if ctx, ok := ed.editContexts[identifier]; ok {
		ctx.inputImage = image
	} else {
		initial := edit.Trivial()
		if loaded, err := edit.Load(ed.storageRoot, string(identifier)); err == nil {
			initial = loaded
		}
		ed.editContexts[identifier] = newEditContext(image, initial)
	}

	id := identifier
	ed.currentImageIdentifier = &id
	ed.executeCurrentEdit()
}

// CurrentImageIdentifier returns the active image identifier, if any.
func (ed *Editor) CurrentImageIdentifier() (library.Identifier, bool) {
	if ed.currentImageIdentifier == nil {
		return "", false
	}
	return *ed.currentImageIdentifier, true
}

// ClearCurrentImage deselects the active image without dropping its
// EditContext (a later SetCurrentImage for it resumes exactly where it
// left off).
func (ed *Editor) ClearCurrentImage() {
	ed.currentImageIdentifier = nil
}

// CurrentEditContext returns the active image's EditContext, or nil if no
// image is selected.
func (ed *Editor) CurrentEditContext() *EditContext {
	if ed.currentImageIdentifier == nil {
		return nil
	}
	return ed.editContexts[*ed.currentImageIdentifier]
}

// UpdateTransientEdit stores newEdit as the active context's transient
// edit if it actually changed anything, re-executing immediately when
// execute is true (§4.7: "update_transient_edit").
func (ed *Editor) UpdateTransientEdit(newEdit edit.Edit, execute bool) {
	ctx := ed.CurrentEditContext()
	if ctx == nil {
		return
	}
	if ctx.updateTransientEdit(newEdit) && execute {
		ed.executeTransientEdit()
	}
}

// CommitTransientEdit folds the active context's transient edit into its
// history (truncating any redo tail), persists the new committed edit, and
// optionally re-executes. Reports whether anything was actually committed
// (§4.7, §8 "Undo then new commit truncates the redo stack").
func (ed *Editor) CommitTransientEdit(execute bool) bool {
	ctx := ed.CurrentEditContext()
	if ctx == nil {
		return false
	}
	committed := ctx.commitTransientEdit()
	if committed {
		ed.persistCurrentEdit()
	}
	if committed && execute {
		ed.executeCurrentEdit()
	}
	return committed
}

func (ed *Editor) persistCurrentEdit() {
	if ed.editWriter == nil || ed.currentImageIdentifier == nil {
		return
	}
	ctx := ed.editContexts[*ed.currentImageIdentifier]
	ed.editWriter.RequestUpdate(ctx.CurrentEdit(), string(*ed.currentImageIdentifier))
}

// CanUndo reports whether the active context has an earlier committed
// edit.
func (ed *Editor) CanUndo() bool {
	ctx := ed.CurrentEditContext()
	return ctx != nil && ctx.CanUndo()
}

// CanRedo reports whether the active context has a truncated redo tail.
func (ed *Editor) CanRedo() bool {
	ctx := ed.CurrentEditContext()
	return ctx != nil && ctx.CanRedo()
}

// MaybeUndo steps the active context back one committed edit, re-executes,
// and persists. Reports whether an undo actually happened (§8 "Undo past
// initial").
func (ed *Editor) MaybeUndo() bool {
	ctx := ed.CurrentEditContext()
	if ctx == nil || !ctx.maybeUndo() {
		return false
	}
	ed.executeCurrentEdit()
	ed.persistCurrentEdit()
	return true
}

// MaybeRedo steps the active context forward one committed edit, if an
// undo left one available, re-executes, and persists.
func (ed *Editor) MaybeRedo() bool {
	ctx := ed.CurrentEditContext()
	if ctx == nil || !ctx.maybeRedo() {
		return false
	}
	ed.executeCurrentEdit()
	ed.persistCurrentEdit()
	return true
}

func (ed *Editor) executeCurrentEdit() {
	ctx := ed.CurrentEditContext()
	module, idStore := editgen.Lower(ctx.CurrentEdit(), editgen.Options{ComputeHistogram: true})
	ed.runModule(ctx, module, idStore)
}

func (ed *Editor) executeTransientEdit() {
	ctx := ed.CurrentEditContext()
	module, idStore := editgen.Lower(ctx.TransientEdit(), editgen.Options{ComputeHistogram: true})
	ed.runModule(ctx, module, idStore)
}

func (ed *Editor) runModule(ctx *EditContext, module *ir.Module, idStore editgen.IdStore) {
	if err := ed.engine.ExecuteModule(module, ctx.inputImage, ed.execCtx); err != nil {
		panic(engine.ProgrammerError{Msg: err.Error()})
	}
	ctx.CurrentResult = ed.collectResult(ctx, idStore)
}

// GetFullSizeEdit returns the active context's current edit with its
// resize factor cleared, so lowering it renders at the input image's
// native resolution (§4.7: "get_full_size_edit").
func (ed *Editor) GetFullSizeEdit() edit.Edit {
	ctx := ed.CurrentEditContext()
	engine.Assertf(ctx != nil, "get_full_size_edit: no current image is selected")
	e := ctx.CurrentEdit()
	e.ResizeFactor = nil
	return e
}

// GetFullSizeEditedImage lowers and executes the active context's edit at
// full resolution without a histogram, caching the result until the
// committed edit next changes (§4.7, SUPPLEMENTED FEATURES
// "Editor.GetFullSizeEditedImage").
func (ed *Editor) GetFullSizeEditedImage() *runtime.Image {
	ctx := ed.CurrentEditContext()
	engine.Assertf(ctx != nil, "get_full_size_editted_image: no current image is selected")
	if ctx.CurrentFullSizeEditedImage != nil {
		return ctx.CurrentFullSizeEditedImage
	}

	fullSizeEdit := ed.GetFullSizeEdit()
	module, idStore := editgen.Lower(fullSizeEdit, editgen.Options{ComputeHistogram: false})

	if err := ed.engine.ExecuteModule(module, ctx.inputImage, ed.execCtx); err != nil {
		panic(engine.ProgrammerError{Msg: err.Error()})
	}
	result := ed.collectResult(ctx, idStore)

	ctx.CurrentFullSizeEditedImage = result.FinalImage
	return result.FinalImage
}

// collectResult walks idStore's identifiers through the execution
// context's value store to assemble an EditResult, carrying the previous
// frame's histogram value forward until the new asynchronous read
// completes (§4.7: "collect_result").
func (ed *Editor) collectResult(ctx *EditContext, idStore editgen.IdStore) *EditResult {
	var fallback Histogram
	haveFallback := false
	if ctx.CurrentResult != nil && ctx.CurrentResult.Histogram != nil {
		fallback, haveFallback = ctx.CurrentResult.Histogram.Poll()
	}

	store := &ed.execCtx.ValueStore

	finalImage := mustImage(store, idStore.FinalImage, "final image")
	geometryOnly := mustImage(store, idStore.GeometryOnly, "geometry-applied image")
	beforeFraming := mustImage(store, idStore.BeforeFraming, "image before framing")
	ed.regenerateMipmaps(finalImage, geometryOnly, beforeFraming)

	var histogramReader *HistogramReader
	if idStore.FinalHistogram != ir.InvalidId {
		buf := mustBuffer(store, idStore.FinalHistogram, "final histogram")
		reader, err := runtime.NewBufferReader(context.Background(), ed.rt, buf, DecodeHistogram)
		if err != nil {
			panic(engine.ProgrammerError{Msg: err.Error()})
		}
		histogramReader = newHistogramReader(reader, fallback, haveFallback)
	}

	maskedEditResults := make([]MaskedEditResult, 0, len(idStore.MaskedEditIDs))
	for _, me := range idStore.MaskedEditIDs {
		mask := mustImage(store, me.MaskID, "mask")
		resultImage := mustImage(store, me.ResultImageID, "masked edit result image")
		terms := make([]*runtime.Image, len(me.TermIDs))
		for i, termID := range me.TermIDs {
			terms[i] = mustImage(store, termID, "mask term")
		}
		maskedEditResults = append(maskedEditResults, MaskedEditResult{
			Mask:        mask,
			MaskTerms:   terms,
			ResultImage: resultImage,
		})
	}

	return &EditResult{
		FinalImage:        finalImage,
		GeometryOnly:      geometryOnly,
		BeforeFraming:     beforeFraming,
		Histogram:         histogramReader,
		MaskedEditResults: maskedEditResults,
	}
}

// regenerateMipmaps runs the toolbox's mipmap generator over each non-nil
// image, sharing one encoder (§9: "the reference regenerates
// unconditionally after mask-producing ops" — collect_result does the
// same for every image it hands back to the UI).
func (ed *Editor) regenerateMipmaps(images ...*runtime.Image) {
	enc := ed.rt.NewEncoder("collect-result-mipmaps")
	for _, img := range images {
		if img == nil {
			continue
		}
		if err := ed.tb.Mipmaps().GenerateMipmaps(img, enc); err != nil {
			panic(engine.ProgrammerError{Msg: err.Error()})
		}
	}
	enc.Submit()
}

func mustImage(store *ir.ValueStore, id ir.Id, what string) *runtime.Image {
	v, ok := store.Get(id)
	engine.Assertf(ok && v.IsImage(), "collect_result: %s (id %d) is not an image in the value store", what, id)
	return v.Image
}

func mustBuffer(store *ir.ValueStore, id ir.Id, what string) *runtime.Buffer {
	v, ok := store.Get(id)
	engine.Assertf(ok && v.IsBuffer(), "collect_result: %s (id %d) is not a buffer in the value store", what, id)
	return v.Buffer
}
