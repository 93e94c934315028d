package collection

import (
	"strings"
	"testing"
)

func TestNew_Valid(t *testing.T) {
	col, err := New("ResumeCollection", DefaultDimension, "", []string{"company", "section", "company"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Name() != "ResumeCollection" {
		t.Errorf("Name() = %q", col.Name())
	}
	if col.Dimension() != 768 {
		t.Errorf("Dimension() = %d, want 768", col.Dimension())
	}
	if col.Distance() != DistanceCosine {
		t.Errorf("Distance() = %q, want cosine", col.Distance())
	}
	got := strings.Join(col.FilterFields(), ",")
	if got != "section,company" {
		t.Errorf("FilterFields() = %q, want section,company", got)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		colName  string
		dim      int
		distance Distance
		errPart  string
	}{
		{"empty name", "", 768, DistanceCosine, "required"},
		{"bad chars", "jobs collection", 768, DistanceCosine, "alphanumeric"},
		{"long name", strings.Repeat("a", 65), 768, DistanceCosine, "too long"},
		{"zero dim", "JobCollection", 0, DistanceCosine, "positive"},
		{"bad distance", "JobCollection", 768, "manhattan", "distance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.colName, tt.dim, tt.distance, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error = %q, want substring %q", err, tt.errPart)
			}
		})
	}
}
