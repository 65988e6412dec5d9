// Package dispatch implements the terminal pass: once every upstream stage
// has written its results, each cached image is copied into the output
// directory its decided category maps to. The pass reads the cache but
// never writes it, so it is safe to re-run at any time.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JaimeStill/photosort/internal/cache"
	"github.com/JaimeStill/photosort/internal/rules"
	"github.com/JaimeStill/photosort/pkg/imaging"
	"github.com/JaimeStill/photosort/pkg/progress"
)

// Stage copies classified images into their destination directories.
type Stage struct {
	Store     *cache.Store
	InputDir  string
	OutputDir string
	Materials rules.RuleSet
	Scales    rules.RuleSet
	Logger    *slog.Logger
	Observer  progress.Observer
}

// Run dispatches every cached identity. The material mapping takes
// priority over the location mapping; an unmapped concrete material
// category falls back to the unknown directory, while a location class
// dispatches only when explicitly mapped. Identities with no decided
// destination are skipped with a progress note, not an error.
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
		s.Observer.Progress(current, total, s.process(id, current, total))
	}

	return nil
}

func (s *Stage) process(id string, current, total int) string {
	rec, err := s.Store.Read(id)
	if err != nil {
		s.Logger.Warn("cache read failed", "image", id, "error", err)
		return fmt.Sprintf("Copy: skipping %s (cache read failed)", id)
	}

	dir, ok := s.destination(&rec)
	if !ok {
		return fmt.Sprintf("Copy: skipping %s (no copy destination)", id)
	}

	path, err := imaging.Resolve(s.InputDir, id)
	if err != nil {
		s.Logger.Warn("image not resolvable", "image", id, "error", err)
		return fmt.Sprintf("Copy: image not found for %s", id)
	}

	if err := s.copy(path, dir, id); err != nil {
		s.Logger.Warn("copy failed", "image", id, "error", err)
		return fmt.Sprintf("Copy: failed for %s", id)
	}

	return fmt.Sprintf("Copying %d/%d to classified folders...", current, total)
}

func (s *Stage) destination(rec *cache.Record) (string, bool) {
	if rec.MaterialClass != "" {
		if dir, ok := s.Materials.Dir(rec.MaterialClass); ok {
			return dir, true
		}
		return rules.UnknownDir, true
	}
	if rec.ScaleClass != "" {
		if dir, ok := s.Scales.Dir(rec.ScaleClass); ok {
			return dir, true
		}
	}
	return "", false
}

func (s *Stage) copy(path, dir, id string) error {
	data, err := imaging.LoadCompressed(path)
	if err != nil {
		return err
	}

	target := filepath.Join(s.OutputDir, filepath.FromSlash(dir))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if err := os.WriteFile(filepath.Join(target, id+".jpg"), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	return nil
}
