package pipeline_test

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/JaimeStill/photosort/internal/cache"
	"github.com/JaimeStill/photosort/internal/pipeline"
	"github.com/JaimeStill/photosort/internal/rules"
	"github.com/JaimeStill/photosort/internal/vision"
)

type fakeDetector struct {
	mu        sync.Mutex
	responses map[string][]vision.Label
	calls     map[string]int
}

func newFakeDetector(responses map[string][]vision.Label) *fakeDetector {
	return &fakeDetector{
		responses: responses,
		calls:     make(map[string]int),
	}
}

func (f *fakeDetector) Detect(_ context.Context, _ []byte, model string, _ float32) ([]vision.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[model]++
	return f.responses[model], nil
}

func (f *fakeDetector) callCount(model string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[model]
}

type fakeGenerator struct {
	mu     sync.Mutex
	output string
	calls  int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.output, nil
}

func writeJPEG(t *testing.T, path string) {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 48)), nil); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write test image: %v", err)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	path := filepath.Join(input, "p1.jpg")
	writeJPEG(t, path)

	// The location model sees nothing, so the image defers to material
	// classification; the material model sees an OCC scale photo with a
	// readable sign.
	detector := newFakeDetector(map[string][]vision.Label{
		"scale-model": nil,
		"material-model": {
			{Name: "OCC_scale", Confidence: 70},
			{Name: "sign", Confidence: 60},
		},
	})
	generator := &fakeGenerator{output: "A paper sign with a code.\nHSCODE 9876 - None"}

	rt := &pipeline.Runtime{
		Store:         cache.NewStore(output),
		Detector:      detector,
		Generator:     generator,
		ScaleModel:    "scale-model",
		MaterialModel: "material-model",
		ScaleRules:    rules.Scales(),
		MaterialRules: rules.Materials(),
		ReadingRules:  rules.Reading(),
		Prompt:        "read the digits",
		InputDir:      input,
		OutputDir:     output,
		Workers:       1,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	files := []string{path}
	if err := pipeline.Run(context.Background(), rt, files); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	recordPath := filepath.Join(output, "json", "p1.json")
	first, err := os.ReadFile(recordPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	rec, err := rt.Store.Read("p1")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if rec.ScaleClass != rules.ClassNextStage {
		t.Errorf("ScaleClass = %q, want %q", rec.ScaleClass, rules.ClassNextStage)
	}
	if rec.MaterialClass != "OCC - scale" {
		t.Errorf("MaterialClass = %q, want %q", rec.MaterialClass, "OCC - scale")
	}
	if rec.TextReading == nil || rec.TextReading.Digit != "9876" || rec.TextReading.Flagged {
		t.Errorf("TextReading = %+v, want digit 9876 unflagged", rec.TextReading)
	}

	copied := filepath.Join(output, filepath.FromSlash("classified/5.地面秤重 4070-10 OCC"), "p1.jpg")
	if _, err := os.Stat(copied); err != nil {
		t.Errorf("dispatched copy missing: %v", err)
	}

	if err := pipeline.Run(context.Background(), rt, files); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if got := detector.callCount("scale-model"); got != 1 {
		t.Errorf("scale model calls after re-run = %d, want 1", got)
	}
	if got := detector.callCount("material-model"); got != 1 {
		t.Errorf("material model calls after re-run = %d, want 1", got)
	}
	if generator.calls != 1 {
		t.Errorf("generator calls after re-run = %d, want 1", generator.calls)
	}

	second, err := os.ReadFile(recordPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("re-run changed the persisted record, want byte-identical")
	}
}

func TestRunLocationOnly(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	path := filepath.Join(input, "p2.jpg")
	writeJPEG(t, path)

	detector := newFakeDetector(map[string][]vision.Label{
		"scale-model": {{Name: "6_IT_0", Confidence: 92}},
	})
	generator := &fakeGenerator{output: "0000 - None"}

	rt := &pipeline.Runtime{
		Store:         cache.NewStore(output),
		Detector:      detector,
		Generator:     generator,
		ScaleModel:    "scale-model",
		MaterialModel: "material-model",
		ScaleRules:    rules.Scales(),
		MaterialRules: rules.Materials(),
		ReadingRules:  rules.Reading(),
		Prompt:        "read the digits",
		InputDir:      input,
		OutputDir:     output,
		Workers:       1,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := pipeline.Run(context.Background(), rt, []string{path}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := detector.callCount("material-model"); got != 0 {
		t.Errorf("material model calls = %d, want 0 for an unforwarded image", got)
	}
	if generator.calls != 0 {
		t.Errorf("generator calls = %d, want 0", generator.calls)
	}

	copied := filepath.Join(output, filepath.FromSlash("classified/locations/6 IT"), "p2.jpg")
	if _, err := os.Stat(copied); err != nil {
		t.Errorf("dispatched copy missing: %v", err)
	}
}
