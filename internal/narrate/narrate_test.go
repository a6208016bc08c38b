package narrate

import (
	"strings"
	"testing"

	"github.com/MrWong99/lookout/pkg/types"
)

func TestFormat_Empty(t *testing.T) {
	t.Parallel()

	if got := Format(nil); got != NothingDetected {
		t.Errorf("Format(nil) = %q, want %q", got, NothingDetected)
	}
	if got := Format(types.DetectionSet{}); got != NothingDetected {
		t.Errorf("Format(empty) = %q, want %q", got, NothingDetected)
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   types.DetectionSet
		want string
	}{
		{
			name: "single",
			in:   types.DetectionSet{{Label: "dog", Confidence: 0.9}},
			want: "I detect a dog with 90% confidence.",
		},
		{
			name: "two items",
			in: types.DetectionSet{
				{Label: "cat", Confidence: 0.81},
				{Label: "chair", Confidence: 0.55},
			},
			want: "I detect a cat with 81% confidence and a chair with 55% confidence.",
		},
		{
			name: "three items oxford comma",
			in: types.DetectionSet{
				{Label: "person", Confidence: 0.97},
				{Label: "elephant", Confidence: 0.6},
				{Label: "cup", Confidence: 0.514},
			},
			want: "I detect a person with 97% confidence, an elephant with 60% confidence, and a cup with 51% confidence.",
		},
		{
			name: "uppercase vowel",
			in:   types.DetectionSet{{Label: "Umbrella", Confidence: 0.706}},
			want: "I detect an Umbrella with 71% confidence.",
		},
		{
			name: "empty label",
			in:   types.DetectionSet{{Label: "", Confidence: 0.5}},
			want: "I detect an object with 50% confidence.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Format(tt.in); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat_TruncatesInEngineOrder(t *testing.T) {
	t.Parallel()

	in := types.DetectionSet{
		{Label: "a1", Confidence: 0.1},
		{Label: "b2", Confidence: 0.9},
		{Label: "c3", Confidence: 0.2},
		{Label: "d4", Confidence: 0.8},
		{Label: "e5", Confidence: 0.3},
		{Label: "f6", Confidence: 0.99},
	}
	got := Format(in)
	if strings.Contains(got, "f6") {
		t.Errorf("sixth detection should be dropped: %q", got)
	}
	if !strings.HasPrefix(got, "I detect an a1 with 10% confidence, a b2") {
		t.Errorf("engine order not preserved: %q", got)
	}
	if !strings.HasSuffix(got, "and an e5 with 30% confidence.") {
		t.Errorf("unexpected tail: %q", got)
	}
}

func TestFormatter_MaxItems(t *testing.T) {
	t.Parallel()

	in := types.DetectionSet{
		{Label: "cat", Confidence: 0.9},
		{Label: "dog", Confidence: 0.8},
	}
	got := Formatter{MaxItems: 1}.Format(in)
	want := "I detect a cat with 90% confidence."
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFormat_Idempotent(t *testing.T) {
	t.Parallel()

	in := types.DetectionSet{
		{Label: "apple", Confidence: 0.66},
		{Label: "banana", Confidence: 0.77},
		{Label: "orange", Confidence: 0.88},
	}
	first := Format(in)
	second := Format(in)
	if first != second {
		t.Errorf("Format not idempotent: %q vs %q", first, second)
	}
	if in[0].Label != "apple" || len(in) != 3 {
		t.Error("Format mutated its input")
	}
}

func TestArticle(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"elephant": "an",
		"dog":      "a",
		"Orange":   "an",
		"umbrella": "an",
		"hydrant":  "a",
		"":         "a",
	}
	for word, want := range tests {
		if got := Article(word); got != want {
			t.Errorf("Article(%q) = %q, want %q", word, got, want)
		}
	}
}

func TestJoinNatural(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"x"}, "x"},
		{[]string{"x", "y"}, "x and y"},
		{[]string{"x", "y", "z"}, "x, y, and z"},
		{[]string{"w", "x", "y", "z"}, "w, x, y, and z"},
	}
	for _, tt := range tests {
		if got := JoinNatural(tt.in, "and"); got != tt.want {
			t.Errorf("JoinNatural(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
