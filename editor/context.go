package editor

import (
	"github.com/lumenforge/salon/edit"
	"github.com/lumenforge/salon/runtime"
)

// EditContext is one image's edit history plus its most recent execution
// results (§4.7). Editor keeps one per image identifier it has ever shown.
type EditContext struct {
	inputImage       *runtime.Image
	editHistory      []edit.Edit
	currentEditIndex int

	// transientEdit is a not-yet-committed edit under active modification
	// (a slider mid-drag); nil when nothing is transient.
	transientEdit *edit.Edit

	CurrentResult              *EditResult
	CurrentFullSizeEditedImage *runtime.Image
}

func newEditContext(inputImage *runtime.Image, initial edit.Edit) *EditContext {
	return &EditContext{
		inputImage:       inputImage,
		editHistory:      []edit.Edit{initial},
		currentEditIndex: 0,
	}
}

// InputImage returns the image this context's edits apply to.
func (c *EditContext) InputImage() *runtime.Image { return c.inputImage }

// CurrentEdit returns the committed edit at the current history index.
func (c *EditContext) CurrentEdit() edit.Edit { return c.editHistory[c.currentEditIndex] }

// TransientEdit returns the transient edit if one is in flight, otherwise
// the committed edit.
func (c *EditContext) TransientEdit() edit.Edit {
	if c.transientEdit == nil {
		return c.CurrentEdit()
	}
	return *c.transientEdit
}

// CloneEditHistory returns the committed history up to and including the
// current index (§4.7: "clone_edit_history").
func (c *EditContext) CloneEditHistory() []edit.Edit {
	out := make([]edit.Edit, c.currentEditIndex+1)
	copy(out, c.editHistory[:c.currentEditIndex+1])
	return out
}

// updateTransientEdit stores e as the transient edit if it differs from
// whatever is currently "live" (the existing transient, or the committed
// edit if none). Reports whether it replaced anything.
func (c *EditContext) updateTransientEdit(e edit.Edit) bool {
	var needsUpdate bool
	if c.transientEdit != nil {
		needsUpdate = !c.transientEdit.Equal(e)
	} else {
		needsUpdate = !c.editHistory[c.currentEditIndex].Equal(e)
	}
	if needsUpdate {
		c.transientEdit = &e
	}
	return needsUpdate
}

// commitTransientEdit, if the transient edit differs from the committed
// one, truncates the forward (redo) history, pushes the transient edit as
// the new current entry, and invalidates the full-size cache. Reports
// whether history actually changed.
func (c *EditContext) commitTransientEdit() bool {
	needsCommit := c.transientEdit != nil && !c.transientEdit.Equal(c.editHistory[c.currentEditIndex])
	if needsCommit {
		c.editHistory = append(c.editHistory[:c.currentEditIndex+1], *c.transientEdit)
		c.currentEditIndex = len(c.editHistory) - 1
		c.CurrentFullSizeEditedImage = nil
	}
	c.transientEdit = nil
	return needsCommit
}

// CanUndo reports whether there is an earlier committed edit.
func (c *EditContext) CanUndo() bool { return c.currentEditIndex > 0 }

// CanRedo reports whether a later committed edit was truncated by an undo
// and is still available to redo.
func (c *EditContext) CanRedo() bool { return c.currentEditIndex < len(c.editHistory)-1 }

func (c *EditContext) maybeUndo() bool {
	if c.currentEditIndex == 0 {
		return false
	}
	c.currentEditIndex--
	c.transientEdit = nil
	c.CurrentFullSizeEditedImage = nil
	return true
}

func (c *EditContext) maybeRedo() bool {
	if c.currentEditIndex >= len(c.editHistory)-1 {
		return false
	}
	c.currentEditIndex++
	c.transientEdit = nil
	c.CurrentFullSizeEditedImage = nil
	return true
}

// OverrideResizeFactor forces factor onto every committed edit and the
// transient edit, if any — used by a UI that lets the interactive preview
// run at a different resolution than what is persisted.
func (c *EditContext) OverrideResizeFactor(factor float32) {
	if c.transientEdit != nil {
		f := factor
		c.transientEdit.ResizeFactor = &f
	}
	for i := range c.editHistory {
		f := factor
		c.editHistory[i].ResizeFactor = &f
	}
}
