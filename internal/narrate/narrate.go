// Package narrate turns detection results into the sentences read back to
// the user. Everything here is pure: the same input always yields the same
// sentence and no function returns an error.
package narrate

import (
	"fmt"
	"math"
	"strings"

	"github.com/MrWong99/lookout/pkg/types"
)

// DefaultMaxItems is the number of detections mentioned in one sentence.
const DefaultMaxItems = 5

// NothingDetected is spoken when no detection survives filtering.
const NothingDetected = "I cannot clearly identify any objects."

// fallbackLabel replaces empty labels.
const fallbackLabel = "object"

// Formatter renders detection sets. The zero value mentions
// [DefaultMaxItems] detections.
type Formatter struct {
	// MaxItems caps how many detections are mentioned. Values <= 0 mean
	// DefaultMaxItems.
	MaxItems int
}

// Format renders detections with the default settings.
func Format(detections types.DetectionSet) string {
	return Formatter{}.Format(detections)
}

// Format renders detections as "I detect a cat with 81% confidence and a
// chair with 55% confidence." The first MaxItems detections are used in
// engine order.
func (f Formatter) Format(detections types.DetectionSet) string {
	if len(detections) == 0 {
		return NothingDetected
	}
	limit := f.MaxItems
	if limit <= 0 {
		limit = DefaultMaxItems
	}
	if len(detections) > limit {
		detections = detections[:limit]
	}

	parts := make([]string, len(detections))
	for i, d := range detections {
		parts[i] = phrase(d)
	}
	return "I detect " + JoinNatural(parts, "and") + "."
}

// phrase renders one detection as "an apple with 93% confidence".
func phrase(d types.Detection) string {
	label := strings.TrimSpace(d.Label)
	if label == "" {
		label = fallbackLabel
	}
	pct := int(math.Round(d.Confidence * 100))
	return fmt.Sprintf("%s %s with %d%% confidence", Article(label), label, pct)
}

// Article returns "an" when word starts with a vowel letter (case-insensitive)
// and "a" otherwise.
func Article(word string) string {
	if word == "" {
		return "a"
	}
	switch word[0] {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return "an"
	}
	return "a"
}

// JoinNatural joins items as an English list: "x", "x and y",
// "x, y, and z".
func JoinNatural(items []string, conj string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " " + conj + " " + items[1]
	}
	last := len(items) - 1
	return strings.Join(items[:last], ", ") + ", " + conj + " " + items[last]
}
