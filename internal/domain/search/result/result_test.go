package result

import "testing"

func TestNew(t *testing.T) {
	r := New("p-1", 0.95, map[string]any{"section": "skills"})

	if r.ID() != "p-1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Score() != 0.95 {
		t.Errorf("Score() = %f", r.Score())
	}
	if r.Payload()["section"] != "skills" {
		t.Errorf("Payload() = %v", r.Payload())
	}
}

func TestAboveThreshold(t *testing.T) {
	scores := []float64{0.95, 0.91, 0.6, 0.4, 0.3}
	in := make([]Result, 0, len(scores))
	for i, s := range scores {
		in = append(in, New(string(rune('a'+i)), s, nil))
	}

	out := AboveThreshold(in, 0.9)
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0].ID() != "a" || out[1].ID() != "b" {
		t.Errorf("unexpected order: %q, %q", out[0].ID(), out[1].ID())
	}
}

func TestAboveThreshold_Inclusive(t *testing.T) {
	out := AboveThreshold([]Result{New("x", 0.8, nil)}, 0.8)
	if len(out) != 1 {
		t.Errorf("score equal to threshold must be kept")
	}
}
