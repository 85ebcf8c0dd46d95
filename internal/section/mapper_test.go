package section

import "testing"

func TestMap(t *testing.T) {
	tests := []struct {
		label string
		paper string
		want  string
	}{
		{"Paper 1", "TMUA", "Paper 1"},
		{"paper 2", "TMUA 2021", "Paper 2"},
		{"P1", "TMUA", "Paper 1"},
		{"Section 1A", "ENGAA 2019", "Mathematics and Physics"},
		{"Section 1 Part B", "ENGAA", "Advanced Mathematics and Advanced Physics"},
		{"Section 2", "ENGAA", "Advanced Physics"},
		{"Section 1 Part A", "NSAA 2020", "Mathematics"},
		{"1C", "NSAA", "Chemistry"},
		{"Section 1 Part D", "NSAA", "Biology"},
		{"Section 2", "NSAA", "Section 2"},
		// ESAT labels are ambiguous: always empty, positional fallback applies.
		{"Part 1", "ESAT", ""},
		{"", "ESAT 2024", ""},
		// Unknown families pass the label through.
		{"Mechanics", "STEP 2", "Mechanics"},
		{"  Algebra  ", "MAT", "Algebra"},
		{"", "MAT", ""},
		// Unrecognized label within a known family.
		{"Section 9", "TMUA", ""},
	}

	for _, tt := range tests {
		if got := Map(tt.label, tt.paper); got != tt.want {
			t.Errorf("Map(%q, %q) = %q, want %q", tt.label, tt.paper, got, tt.want)
		}
	}
}

func TestMapIsDeterministic(t *testing.T) {
	first := Map("Section 1A", "ENGAA")
	for i := 0; i < 100; i++ {
		if got := Map("Section 1A", "ENGAA"); got != first {
			t.Fatalf("Map returned %q after %q for identical input", got, first)
		}
	}
}

func TestByPosition(t *testing.T) {
	tests := []struct {
		ordinal int
		total   int
		paper   string
		want    string
	}{
		{1, 135, "ESAT", "Mathematics 1"},
		{27, 135, "ESAT", "Mathematics 1"},
		{28, 135, "ESAT", "Physics"},
		{54, 135, "ESAT", "Physics"},
		{55, 135, "ESAT", "Chemistry"},
		{82, 135, "ESAT", "Biology"},
		{109, 135, "ESAT", "Mathematics 2"},
		{135, 135, "ESAT", "Mathematics 2"},
		// Out-of-range ordinals clamp instead of panicking.
		{0, 135, "ESAT", "Mathematics 1"},
		{999, 135, "ESAT", "Mathematics 2"},
		// Non-ESAT papers never use positional mapping.
		{10, 100, "ENGAA", ""},
		{10, 0, "ESAT", ""},
	}

	for _, tt := range tests {
		if got := ByPosition(tt.ordinal, tt.total, tt.paper); got != tt.want {
			t.Errorf("ByPosition(%d, %d, %q) = %q, want %q", tt.ordinal, tt.total, tt.paper, got, tt.want)
		}
	}
}

// Partitioning a full ESAT paper by position must cover every question exactly
// once with no empty module.
func TestByPositionPartitionsCompletely(t *testing.T) {
	total := 135
	counts := make(map[string]int)
	for i := 1; i <= total; i++ {
		sec := ByPosition(i, total, "ESAT")
		if sec == "" {
			t.Fatalf("question %d got no section", i)
		}
		counts[sec]++
	}

	if len(counts) != len(esatModules) {
		t.Fatalf("expected %d modules, got %d: %v", len(esatModules), len(counts), counts)
	}
	sum := 0
	for _, n := range counts {
		sum += n
	}
	if sum != total {
		t.Fatalf("partition covers %d questions, want %d", sum, total)
	}
}
