package cache_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JaimeStill/photosort/internal/cache"
	"github.com/JaimeStill/photosort/internal/vision"
)

func strPtr(s string) *string { return &s }

func TestReadMissing(t *testing.T) {
	store := cache.NewStore(t.TempDir())

	rec, err := store.Read("IMG_0001")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if rec.ImageName != "IMG_0001" {
		t.Errorf("ImageName = %q, want %q", rec.ImageName, "IMG_0001")
	}
	if rec.HasScaleLabels() {
		t.Error("HasScaleLabels() = true for missing record, want false")
	}
	if rec.HasMaterialLabels() {
		t.Error("HasMaterialLabels() = true for missing record, want false")
	}
}

func TestWriteMergePreservesSiblings(t *testing.T) {
	store := cache.NewStore(t.TempDir())

	labels := []vision.Label{{Name: "6_IT_0", Confidence: 91.5}}
	if err := store.Write("IMG_0002", cache.Update{
		ScaleLabels: labels,
		ScaleClass:  strPtr("6_IT_0"),
	}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if err := store.Write("IMG_0002", cache.Update{
		MaterialLabels: []vision.Label{{Name: "OCC_scale", Confidence: 70}},
		MaterialClass:  strPtr("OCC - scale"),
	}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if err := store.Write("IMG_0002", cache.Update{
		TextReading: &cache.Reading{Digit: "123456", Flagged: true},
	}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	rec, err := store.Read("IMG_0002")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if len(rec.ScaleLabels) != 1 || rec.ScaleLabels[0].Name != "6_IT_0" {
		t.Errorf("ScaleLabels = %v, want the originally written labels", rec.ScaleLabels)
	}
	if rec.ScaleClass != "6_IT_0" {
		t.Errorf("ScaleClass = %q, want %q", rec.ScaleClass, "6_IT_0")
	}
	if rec.MaterialClass != "OCC - scale" {
		t.Errorf("MaterialClass = %q, want %q", rec.MaterialClass, "OCC - scale")
	}
	if rec.TextReading == nil || rec.TextReading.Digit != "123456" || !rec.TextReading.Flagged {
		t.Errorf("TextReading = %+v, want digit 123456 flagged", rec.TextReading)
	}
}

func TestWriteEmptyLabelsIsProcessed(t *testing.T) {
	store := cache.NewStore(t.TempDir())

	if err := store.Write("IMG_0003", cache.Update{
		ScaleLabels: []vision.Label{},
		ScaleClass:  strPtr("next_stage"),
	}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	rec, err := store.Read("IMG_0003")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if !rec.HasScaleLabels() {
		t.Error("HasScaleLabels() = false after writing an empty label set, want true")
	}
}

func TestWriteRepeatIsByteIdentical(t *testing.T) {
	root := t.TempDir()
	store := cache.NewStore(root)

	up := cache.Update{
		ScaleLabels: []vision.Label{{Name: "9_OAK_0", Confidence: 88.2}},
		ScaleClass:  strPtr("9_OAK_0"),
	}

	if err := store.Write("IMG_0004", up); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	first, err := os.ReadFile(filepath.Join(root, "json", "IMG_0004.json"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if err := store.Write("IMG_0004", up); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	second, err := os.ReadFile(filepath.Join(root, "json", "IMG_0004.json"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if string(first) != string(second) {
		t.Error("repeated identical write changed the persisted record")
	}
}

func TestIdentities(t *testing.T) {
	store := cache.NewStore(t.TempDir())

	for _, id := range []string{"IMG_b", "IMG_a", "IMG_c"} {
		if err := store.Write(id, cache.Update{ScaleClass: strPtr("next_stage")}); err != nil {
			t.Fatalf("Write(%s) error = %v", id, err)
		}
	}

	ids, err := store.Identities()
	if err != nil {
		t.Fatalf("Identities() error = %v", err)
	}

	want := []string{"IMG_a", "IMG_b", "IMG_c"}
	if len(ids) != len(want) {
		t.Fatalf("Identities() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Identities()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestIdentitiesMissingDir(t *testing.T) {
	store := cache.NewStore(filepath.Join(t.TempDir(), "never-created"))

	ids, err := store.Identities()
	if err != nil {
		t.Fatalf("Identities() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Identities() = %v, want empty", ids)
	}
}

func TestInvalidIdentity(t *testing.T) {
	store := cache.NewStore(t.TempDir())

	tests := []struct {
		name string
		id   string
		want error
	}{
		{"empty", "", cache.ErrEmptyID},
		{"separator", "a/b", cache.ErrInvalidID},
		{"traversal", "..", cache.ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Read(tt.id); !errors.Is(err, tt.want) {
				t.Errorf("Read(%q) error = %v, want %v", tt.id, err, tt.want)
			}
			if err := store.Write(tt.id, cache.Update{}); !errors.Is(err, tt.want) {
				t.Errorf("Write(%q) error = %v, want %v", tt.id, err, tt.want)
			}
		})
	}
}
