package workflow

import (
	"reflect"
	"testing"
)

func TestSeverityCounts_Aggregation(t *testing.T) {
	tests := []struct {
		name   string
		issues []Issue
		want   map[string]int
	}{
		{
			name: "mixed severities",
			issues: []Issue{
				{"severity": "critical", "description": "Critical security flaw"},
				{"severity": "high", "description": "High performance issue"},
				{"severity": "high", "description": "Another high issue"},
				{"severity": "medium", "description": "Medium code quality issue"},
				{"severity": "medium", "description": "Another medium issue"},
				{"severity": "medium", "description": "Third medium issue"},
				{"severity": "low", "description": "Low style issue"},
				{"severity": "unknown", "description": "Issue without severity"},
			},
			want: map[string]int{"critical": 1, "high": 2, "medium": 3, "low": 1, "unknown": 1},
		},
		{
			name:   "empty issues",
			issues: nil,
			want:   map[string]int{},
		},
		{
			name: "missing severity field counts as unknown",
			issues: []Issue{
				{"description": "Issue without severity"},
				{"severity": "high", "description": "Issue with severity"},
				{"other_field": "value"},
			},
			want: map[string]int{"unknown": 2, "high": 1},
		},
		{
			name: "case sensitive and non-string values",
			issues: []Issue{
				{"severity": "CRITICAL"},
				{"severity": "Critical"},
				{"severity": "critical"},
				{"severity": ""},
				{"severity": nil},
				{"severity": 123},
			},
			want: map[string]int{"CRITICAL": 1, "Critical": 1, "critical": 1, "unknown": 3},
		},
		{
			name:   "nil issue entry counts as unknown",
			issues: []Issue{nil, {"severity": "low"}},
			want:   map[string]int{"unknown": 1, "low": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConsolidatedFindings()
			if err := c.Update(StepData{Issues: tt.issues}); err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			got := c.SeverityCounts()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SeverityCounts() = %v, want %v", got, tt.want)
			}

			// Counts must sum to the number of issues
			sum := 0
			for _, n := range got {
				sum += n
			}
			if sum != len(tt.issues) {
				t.Errorf("counts sum = %d, want %d", sum, len(tt.issues))
			}
		})
	}
}

func TestSeverityCounts_Memoization(t *testing.T) {
	c := NewConsolidatedFindings()
	if err := c.Update(StepData{Issues: []Issue{{"severity": "critical"}}}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	first := c.SeverityCounts()
	second := c.SeverityCounts()

	if reflect.ValueOf(first).Pointer() != reflect.ValueOf(second).Pointer() {
		t.Error("repeated SeverityCounts() calls should return the identical cached map")
	}
}

func TestSeverityCounts_InvalidatedOnUpdate(t *testing.T) {
	c := NewConsolidatedFindings()
	if err := c.Update(StepData{Issues: []Issue{{"severity": "critical"}}}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	before := c.SeverityCounts()
	if before["critical"] != 1 {
		t.Fatalf("critical count = %d, want 1", before["critical"])
	}

	if err := c.Update(StepData{Issues: []Issue{
		{"severity": "critical"},
		{"severity": "critical"},
	}}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	after := c.SeverityCounts()
	if after["critical"] != 3 {
		t.Errorf("critical count after update = %d, want 3", after["critical"])
	}
	if reflect.ValueOf(before).Pointer() == reflect.ValueOf(after).Pointer() {
		t.Error("cache should have been invalidated by the update")
	}
}

func TestSeverityCounts_InvalidatedOnFailedUpdate(t *testing.T) {
	c := NewConsolidatedFindings()
	if err := c.Update(StepData{Issues: []Issue{{"severity": "high"}}}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	first := c.SeverityCounts()

	// Invalid confidence makes the update fail after issues were appended
	err := c.Update(StepData{
		Issues:     []Issue{{"severity": "high"}},
		Confidence: Confidence("not_a_real_level"),
	})
	if err == nil {
		t.Fatal("expected update with invalid confidence to fail")
	}

	second := c.SeverityCounts()
	if reflect.ValueOf(first).Pointer() == reflect.ValueOf(second).Pointer() {
		t.Error("failed update must still invalidate the cache")
	}
}

func TestUpdate_SetUnionAndAppend(t *testing.T) {
	c := NewConsolidatedFindings()

	if err := c.Update(StepData{
		Findings:     "step one findings",
		FilesChecked: []string{"a.go", "b.go"},
		Hypotheses:   []string{"race condition"},
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := c.Update(StepData{
		Findings:     "step two findings",
		FilesChecked: []string{"b.go", "c.go"},
		Hypotheses:   []string{"race condition"},
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	wantFiles := []string{"a.go", "b.go", "c.go"}
	if !reflect.DeepEqual(c.FilesChecked, wantFiles) {
		t.Errorf("FilesChecked = %v, want %v", c.FilesChecked, wantFiles)
	}
	if len(c.Findings) != 2 {
		t.Errorf("Findings length = %d, want 2", len(c.Findings))
	}
	// Hypotheses append, they are not a set
	if len(c.Hypotheses) != 2 {
		t.Errorf("Hypotheses length = %d, want 2", len(c.Hypotheses))
	}
}
