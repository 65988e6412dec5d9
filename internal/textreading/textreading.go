// Package textreading implements the enrichment stage: for cached images
// whose labels indicate a readable digit or sign, it crops the screen
// region when geometry is available, asks the vision-language model to
// read the digits, and persists the structured reading.
package textreading

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/JaimeStill/photosort/internal/cache"
	"github.com/JaimeStill/photosort/internal/reader"
	"github.com/JaimeStill/photosort/internal/rules"
	"github.com/JaimeStill/photosort/internal/vision"
	"github.com/JaimeStill/photosort/pkg/imaging"
	"github.com/JaimeStill/photosort/pkg/progress"
)

// Stage runs text reading over every image identity in the cache. It is
// not gated on the classifier stages' forwarding lists: eligibility is a
// pure re-scan of persisted labels, so a resumed run needs nothing beyond
// the cache and the original input folder.
type Stage struct {
	Store     *cache.Store
	Generator reader.Generator
	Prompt    string
	InputDir  string
	Rules     rules.ReadingRules
	Logger    *slog.Logger
	Observer  progress.Observer
}

// Run processes the cache sequentially. A persisted reading is final and
// never recomputed; service and resolution failures are logged and leave
// the record without a reading so the image is retried on the next run.
func (s *Stage) Run(ctx context.Context) error {
	ids, err := s.Store.Identities()
	if err != nil {
		return fmt.Errorf("list cached identities: %w", err)
	}
	total := len(ids)

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		current := i + 1
		s.Observer.Progress(current, total, s.process(ctx, id, current, total))
	}

	return nil
}

func (s *Stage) process(ctx context.Context, id string, current, total int) string {
	rec, err := s.Store.Read(id)
	if err != nil {
		s.Logger.Warn("cache read failed", "image", id, "error", err)
		return fmt.Sprintf("Skipping %s (cache read failed)", id)
	}

	if rec.TextReading != nil {
		return fmt.Sprintf("Skipping %s (already has text_reading)", id)
	}
	if !Eligible(&rec, s.Rules) {
		return fmt.Sprintf("Skipping %s (no target labels)", id)
	}

	path, err := imaging.Resolve(s.InputDir, id)
	if err != nil {
		s.Logger.Warn("image not resolvable", "image", id, "error", err)
		return fmt.Sprintf("Image not found for %s, skipping", id)
	}

	img, err := imaging.Load(path)
	if err != nil {
		s.Logger.Warn("image load failed", "image", id, "error", err)
		return fmt.Sprintf("Skipping %s (image load failed)", id)
	}

	data, err := imaging.Compress(cropScreen(img, rec.ScaleLabels, s.Rules), imaging.MaxDimension, imaging.Quality)
	if err != nil {
		s.Logger.Warn("image compress failed", "image", id, "error", err)
		return fmt.Sprintf("Skipping %s (image compress failed)", id)
	}

	raw, err := s.Generator.Generate(ctx, s.Prompt, data)
	if err != nil {
		s.Logger.Warn("text reading failed", "image", id, "error", err)
		return fmt.Sprintf("Text reading failed for %s", id)
	}

	digit, flagged := reader.ParseReading(raw)
	reading := &cache.Reading{Digit: digit, Flagged: flagged}
	if err := s.Store.Write(id, cache.Update{TextReading: reading}); err != nil {
		s.Logger.Error("cache write failed", "image", id, "error", err)
		return fmt.Sprintf("Text reading failed for %s", id)
	}

	return fmt.Sprintf("Processed %d/%d images for text_reading", current, total)
}

// Eligible reports whether the record's persisted labels qualify the image
// for text reading: a screen-type location label at or above the screen
// floor, or any configured target label at or above its threshold in
// either stage's labels.
func Eligible(rec *cache.Record, rr rules.ReadingRules) bool {
	for _, label := range rec.ScaleLabels {
		if hasScreenPrefix(label.Name) && label.Confidence >= rr.ScreenFloor {
			return true
		}
		if threshold, ok := rr.Thresholds[label.Name]; ok && label.Confidence >= threshold {
			return true
		}
	}
	for _, label := range rec.MaterialLabels {
		if threshold, ok := rr.Thresholds[label.Name]; ok && label.Confidence >= threshold {
			return true
		}
	}
	return false
}

// cropScreen crops the image to the best screen bounding box among the
// location labels, padded to the configured minimum size. With no crop
// label above the screen floor, or no geometry, the full image is used.
func cropScreen(img image.Image, labels []vision.Label, rr rules.ReadingRules) image.Image {
	best := rr.ScreenFloor
	var box *vision.BoundingBox

	for _, label := range labels {
		if !isCropLabel(label.Name, rr.CropLabels) {
			continue
		}
		if b := label.Box(); b != nil && label.Confidence > best {
			best = label.Confidence
			box = b
		}
	}

	if box == nil {
		return img
	}
	return imaging.CropRegion(img, box.Left, box.Top, box.Width, box.Height, rr.MinCropW, rr.MinCropH)
}

func hasScreenPrefix(name string) bool {
	return strings.HasPrefix(name, rules.ScreenPrefix)
}

func isCropLabel(name string, cropLabels []string) bool {
	for _, c := range cropLabels {
		if name == c {
			return true
		}
	}
	return false
}
