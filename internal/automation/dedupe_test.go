package automation

import "testing"

func TestTracker(t *testing.T) {
	tr := NewTracker()

	if tr.Seen("a.jpg") {
		t.Error("fresh tracker should not have seen anything")
	}
	if tr.Len() != 0 {
		t.Errorf("expected empty tracker, got %d", tr.Len())
	}

	tr.Record("a.jpg")
	if !tr.Seen("a.jpg") {
		t.Error("expected a.jpg to be seen")
	}
	if tr.Seen("b.jpg") {
		t.Error("b.jpg was never recorded")
	}

	// Recording the same id twice is a no-op.
	tr.Record("a.jpg")
	if tr.Len() != 1 {
		t.Errorf("expected 1 recorded id, got %d", tr.Len())
	}
}
