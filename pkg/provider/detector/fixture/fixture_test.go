package fixture

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/MrWong99/lookout/pkg/provider/detector"
	"github.com/MrWong99/lookout/pkg/types"
)

const twoFrames = `
frames:
  - []
  - - {label: cat, confidence: 0.81}
    - {label: chair, confidence: 0.55}
`

var someFrame = types.Frame{Data: []byte{1}, Format: "png", Width: 1, Height: 1}

func TestParse_CyclesFrames(t *testing.T) {
	t.Parallel()
	eng, err := Parse(strings.NewReader(twoFrames))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []types.DetectionSet{
		{},
		{{Label: "cat", Confidence: 0.81}, {Label: "chair", Confidence: 0.55}},
		{},
	}
	for i, w := range want {
		got, err := eng.Detect(context.Background(), someFrame)
		if err != nil {
			t.Fatalf("Detect #%d: %v", i, err)
		}
		if len(got) != len(w) || (len(w) > 0 && !reflect.DeepEqual(got, w)) {
			t.Errorf("Detect #%d = %v, want %v", i, got, w)
		}
	}
}

func TestParse_ReturnsCopies(t *testing.T) {
	t.Parallel()
	eng, _ := Parse(strings.NewReader("frames:\n  - - {label: cat, confidence: 0.9}\n"))

	first, _ := eng.Detect(context.Background(), someFrame)
	first[0].Label = "dog"
	second, _ := eng.Detect(context.Background(), someFrame)
	if second[0].Label != "cat" {
		t.Errorf("label = %q, mutation leaked into the fixture", second[0].Label)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		doc  string
	}{
		{"no frames", "frames: []\n"},
		{"confidence above one", "frames:\n  - - {label: cat, confidence: 1.5}\n"},
		{"negative confidence", "frames:\n  - - {label: cat, confidence: -0.1}\n"},
		{"unknown field", "frames: []\nmodel: yolo\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse(strings.NewReader(tt.doc)); err == nil {
				t.Error("Parse: want error")
			}
		})
	}
}

func TestDetect_EmptyFrameUnreadable(t *testing.T) {
	t.Parallel()
	eng, _ := Parse(strings.NewReader(twoFrames))

	_, err := eng.Detect(context.Background(), types.Frame{})
	if kind, _ := detector.KindOf(err); kind != detector.KindFrameUnreadable {
		t.Errorf("err = %v, want frame-unreadable", err)
	}
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "detections.yaml")
	if err := os.WriteFile(path, []byte(twoFrames), 0o644); err != nil {
		t.Fatal(err)
	}

	eng, err := New(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if eng == nil {
		t.Fatal("Load returned nil engine")
	}
}

func TestLoader_LoadErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("frames: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.yaml"), bad} {
		_, err := New(path).Load(context.Background())
		if kind, _ := detector.KindOf(err); kind != detector.KindNotLoaded {
			t.Errorf("Load(%s) err = %v, want not-loaded", filepath.Base(path), err)
		}
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New("unused.yaml").Load(ctx); err == nil {
		t.Error("Load with cancelled ctx: want error")
	}
}
