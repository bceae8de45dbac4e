package ir

import "testing"

func TestModuleValidateDetectsForwardReference(t *testing.T) {
	m := NewModule()
	in := m.AllocID()
	bogus := m.AllocID() // allocated but never produced by an appended op
	m.Append(Input{ResultID: in})
	m.Append(AdjustExposure{ResultID: m.AllocID(), Arg: bogus, Exposure: 1})

	if err := m.Validate(); err == nil {
		t.Fatal("expected Validate to reject a forward reference")
	}
}

func TestModuleValidateAcceptsWellFormedChain(t *testing.T) {
	m := NewModule()
	in := m.AllocID()
	m.Append(Input{ResultID: in})
	resized := m.AllocID()
	m.Append(Resize{ResultID: resized, Arg: in, Factor: 0.5})
	m.Append(AdjustExposure{ResultID: m.AllocID(), Arg: resized, Exposure: 0.3})

	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestCommonPrefixLength(t *testing.T) {
	a := NewModule()
	in := a.AllocID()
	a.Append(Input{ResultID: in})
	a.Append(AdjustExposure{ResultID: a.AllocID(), Arg: in, Exposure: 0.5})

	b := NewModule()
	bin := b.AllocID()
	b.Append(Input{ResultID: bin})
	b.Append(AdjustExposure{ResultID: b.AllocID(), Arg: bin, Exposure: 0.9})

	if got := CommonPrefixLength(a, b); got != 1 {
		t.Errorf("CommonPrefixLength = %d, want 1 (only Input matches)", got)
	}
}

func TestCommonPrefixLengthHandlesSliceFields(t *testing.T) {
	a := NewModule()
	in := a.AllocID()
	a.Append(Input{ResultID: in})
	a.Append(ApplyCurve{ResultID: a.AllocID(), Arg: in, ControlPoints: []Point{{0, 0}, {1, 1}}})

	b := NewModule()
	bin := b.AllocID()
	b.Append(Input{ResultID: bin})
	b.Append(ApplyCurve{ResultID: b.AllocID(), Arg: bin, ControlPoints: []Point{{0, 0}, {1, 1}}})

	if got := CommonPrefixLength(a, b); got != 2 {
		t.Errorf("CommonPrefixLength = %d, want 2 (identical ApplyCurve ops)", got)
	}
}

func TestValueStorePendingRead(t *testing.T) {
	s := NewValueStore()
	id := Id(1)
	if s.HasPendingRead(id) {
		t.Fatal("expected no pending read initially")
	}
	s.MarkPendingRead(id)
	if !s.HasPendingRead(id) {
		t.Fatal("expected pending read after MarkPendingRead")
	}
	s.ClearPendingRead(id)
	if s.HasPendingRead(id) {
		t.Fatal("expected pending read cleared")
	}
}
