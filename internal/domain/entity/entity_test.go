package entity

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"job", TypeJob, false},
		{"Resume", TypeResume, false},
		{" job ", TypeJob, false},
		{"", "", true},
		{"candidate", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestType_Collection(t *testing.T) {
	if TypeJob.Collection() != "JobCollection" {
		t.Errorf("job collection = %q", TypeJob.Collection())
	}
	if TypeResume.Collection() != "ResumeCollection" {
		t.Errorf("resume collection = %q", TypeResume.Collection())
	}
}

func TestType_IDFrom(t *testing.T) {
	if got := TypeJob.IDFrom(map[string]any{"job_id": "j-1"}); got != "j-1" {
		t.Errorf("IDFrom = %q, want j-1", got)
	}
	if got := TypeResume.IDFrom(map[string]any{"resume_id": 42}); got != "42" {
		t.Errorf("IDFrom = %q, want 42", got)
	}
	if got := TypeResume.IDFrom(map[string]any{"job_id": "j-1"}); got != UnknownID {
		t.Errorf("IDFrom = %q, want %q", got, UnknownID)
	}
	if got := TypeJob.IDFrom(nil); got != UnknownID {
		t.Errorf("IDFrom(nil) = %q, want %q", got, UnknownID)
	}
}
