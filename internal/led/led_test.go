package led

import "testing"

func TestStub_RecordsStateAndTransitions(t *testing.T) {
	s := NewStub()

	if s.On() {
		t.Fatalf("new stub should be off")
	}

	for _, on := range []bool{true, true, false, true} {
		if err := s.Set(on); err != nil {
			t.Fatalf("Set(%v) error: %v", on, err)
		}
	}
	if !s.On() {
		t.Fatalf("expected on after final Set(true)")
	}
	// off->on, on->off, off->on; the repeated Set(true) is not an edge.
	if got := s.Transitions(); got != 3 {
		t.Fatalf("transitions=%d want 3", got)
	}
}

func TestStub_CloseTurnsOff(t *testing.T) {
	s := NewStub()
	_ = s.Set(true)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if s.On() {
		t.Fatalf("expected off after Close")
	}
}

type fakeOutput struct {
	last bool
	sets int
}

func (f *fakeOutput) Set(on bool) error {
	f.last = on
	f.sets++
	return nil
}

func (f *fakeOutput) Close() error { return nil }

func TestTracked_ReportsLastCommandedState(t *testing.T) {
	f := &fakeOutput{}
	tr := &tracked{out: f}

	if tr.On() {
		t.Fatalf("new output should report off")
	}
	if err := tr.Set(true); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if !tr.On() || !f.last {
		t.Fatalf("on=%v backend=%v want both true", tr.On(), f.last)
	}
	if err := tr.Set(false); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if tr.On() || f.last {
		t.Fatalf("on=%v backend=%v want both false", tr.On(), f.last)
	}
	if f.sets != 2 {
		t.Fatalf("backend sets=%d want 2", f.sets)
	}
}

func TestOpen_DefaultsToStub(t *testing.T) {
	l, err := Open(Config{})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if _, ok := l.(*Stub); !ok {
		t.Fatalf("Open(Config{})=%T want *Stub", l)
	}
}

func TestOpen_RejectsUnknownBackend(t *testing.T) {
	if _, err := Open(Config{Backend: "morse"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
