// Package pipeline sequences the classification stages over a batch:
// device/location classification, material classification over the
// forwarded subset, text-reading enrichment over the cache, and the
// terminal dispatch pass. Every stage consults the result cache first, so
// a re-run after an interruption redoes no completed work.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/photosort/internal/cache"
	"github.com/JaimeStill/photosort/internal/dispatch"
	"github.com/JaimeStill/photosort/internal/materials"
	"github.com/JaimeStill/photosort/internal/reader"
	"github.com/JaimeStill/photosort/internal/rules"
	"github.com/JaimeStill/photosort/internal/scales"
	"github.com/JaimeStill/photosort/internal/textreading"
	"github.com/JaimeStill/photosort/internal/vision"
	"github.com/JaimeStill/photosort/pkg/progress"
)

// Detection minimums per classifier stage. The location model filters at a
// high floor service-side; the material model returns everything and lets
// the rule thresholds decide.
const (
	ScaleMinConfidence    float32 = 75
	MaterialMinConfidence float32 = 10
)

// Runtime bundles the dependencies the pipeline stages require. It is
// constructed by the driver from configuration and ready service clients.
type Runtime struct {
	Store         *cache.Store
	Detector      vision.Detector
	Generator     reader.Generator
	ScaleModel    string
	MaterialModel string
	ScaleRules    rules.RuleSet
	MaterialRules rules.RuleSet
	ReadingRules  rules.ReadingRules
	Prompt        string
	InputDir      string
	OutputDir     string
	Workers       int
	Logger        *slog.Logger
	Observer      progress.Observer
}

// Run executes the full pipeline over files. Per-image failures never
// abort the batch; an error return means a stage-level failure
// (cancellation or an unreadable cache directory).
func Run(ctx context.Context, rt *Runtime, files []string) error {
	observer := rt.Observer
	if observer == nil {
		observer = progress.Discard
	}

	scaleStage := &scales.Stage{
		Store:         rt.Store,
		Detector:      rt.Detector,
		Model:         rt.ScaleModel,
		Rules:         rt.ScaleRules,
		MinConfidence: ScaleMinConfidence,
		Workers:       rt.Workers,
		Logger:        rt.Logger,
		Observer:      observer,
	}

	result, err := scaleStage.Run(ctx, files)
	if err != nil {
		return fmt.Errorf("scale classification: %w", err)
	}

	rt.Logger.Info(
		"scale classification complete",
		"forwarded", len(result.Forward),
		"device_hints", len(result.DeviceHints),
	)

	materialStage := &materials.Stage{
		Store:         rt.Store,
		Detector:      rt.Detector,
		Model:         rt.MaterialModel,
		Rules:         rt.MaterialRules,
		MinConfidence: MaterialMinConfidence,
		Workers:       rt.Workers,
		Logger:        rt.Logger,
		Observer:      observer,
	}

	if err := materialStage.Run(ctx, result.Forward, result.DeviceHints); err != nil {
		return fmt.Errorf("material classification: %w", err)
	}

	readingStage := &textreading.Stage{
		Store:     rt.Store,
		Generator: rt.Generator,
		Prompt:    rt.Prompt,
		InputDir:  rt.InputDir,
		Rules:     rt.ReadingRules,
		Logger:    rt.Logger,
		Observer:  observer,
	}

	if err := readingStage.Run(ctx); err != nil {
		return fmt.Errorf("text reading: %w", err)
	}

	dispatchStage := &dispatch.Stage{
		Store:     rt.Store,
		InputDir:  rt.InputDir,
		OutputDir: rt.OutputDir,
		Materials: rt.MaterialRules,
		Scales:    rt.ScaleRules,
		Logger:    rt.Logger,
		Observer:  observer,
	}

	if err := dispatchStage.Run(ctx); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	return nil
}
