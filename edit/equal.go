package edit

import "reflect"

// editEqual compares two Edits structurally. reflect.DeepEqual handles the
// pointer fields (ResizeFactor, CropRect, Framing) and the slice fields
// (MaskedEdits, Curve.ControlPoints, Mask.Terms) correctly, which a plain
// == cannot: Edit is not a comparable type.
func editEqual(a, b Edit) bool {
	return reflect.DeepEqual(a, b)
}
