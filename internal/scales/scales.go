// Package scales implements the device/location classification stage: the
// first pass over the batch, deciding which site a photo was taken at or
// deferring it to material classification.
package scales

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/photosort/internal/cache"
	"github.com/JaimeStill/photosort/internal/rules"
	"github.com/JaimeStill/photosort/internal/vision"
	"github.com/JaimeStill/photosort/pkg/imaging"
	"github.com/JaimeStill/photosort/pkg/progress"
)

// Stage runs device/location classification over an explicit file list.
type Stage struct {
	Store         *cache.Store
	Detector      vision.Detector
	Model         string
	Rules         rules.RuleSet
	MinConfidence float32
	Workers       int
	Logger        *slog.Logger
	Observer      progress.Observer
}

// Result carries this run's forwarding decisions: the images the material
// stage should process, in input order, and the device hint discovered for
// each forwarded image (absent for plain deferrals). Both are transient;
// a resumed run rederives them from cached classes rather than trusting a
// prior run's lists.
type Result struct {
	Forward     []string
	DeviceHints map[string]string
}

// Run classifies every supported image in files. Per-image failures are
// logged and skipped; only cancellation aborts the pass. Images with
// cached labels are reclassified from the cache without a service call.
func (s *Stage) Run(ctx context.Context, files []string) (*Result, error) {
	var filtered []string
	for _, path := range files {
		if imaging.IsImagePath(path) {
			filtered = append(filtered, path)
		}
	}
	total := len(filtered)

	classes := make([]string, total)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Workers, 1))

	for i, path := range filtered {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			classes[i] = s.process(gctx, path)

			current := int(done.Add(1))
			s.Observer.Progress(current, total, fmt.Sprintf("Classifying %d/%d files...", current, total))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{DeviceHints: make(map[string]string)}
	for i, path := range filtered {
		forward, hint := forwardDecision(classes[i], &s.Rules)
		if !forward {
			continue
		}
		result.Forward = append(result.Forward, path)
		if hint != "" {
			result.DeviceHints[path] = hint
		}
	}

	return result, nil
}

// process classifies one image and persists its labels and class. It
// returns the decided class, or the empty string when the image was
// skipped this run.
func (s *Stage) process(ctx context.Context, path string) string {
	id := imaging.Identity(path)

	rec, err := s.Store.Read(id)
	if err != nil {
		s.Logger.Warn("cache read failed", "image", id, "error", err)
		return ""
	}

	labels := rec.ScaleLabels
	cached := rec.HasScaleLabels()

	if !cached {
		data, err := imaging.LoadCompressed(path)
		if err != nil {
			s.Logger.Warn("image load failed", "image", id, "error", err)
			return ""
		}

		labels, err = s.Detector.Detect(ctx, data, s.Model, s.MinConfidence)
		if err != nil {
			s.Logger.Warn("classify failed", "image", id, "error", err)
			return ""
		}
		if labels == nil {
			labels = []vision.Label{}
		}
	}

	class := Classify(labels, s.Rules)

	up := cache.Update{ScaleClass: &class}
	if !cached {
		up.ScaleLabels = labels
	}
	if err := s.Store.Write(id, up); err != nil {
		s.Logger.Error("cache write failed", "image", id, "error", err)
		return ""
	}

	return class
}

// Classify decides the location/device class for one label set. The scan
// selects the best location and device candidates; a device winner takes
// priority over the plain location, a qualifying floor modifier redirects
// to the floor bucket, and with no location at all the decision is
// unknown_device when a screen was observed, otherwise the next_stage
// deferral sentinel.
func Classify(labels []vision.Label, rs rules.RuleSet) string {
	c := rs.Scan(labels)

	if c.Primary == "" {
		if c.ScreenSeen {
			return rules.ClassUnknownDevice
		}
		return rules.ClassNextStage
	}

	if c.Object != "" {
		return c.Object
	}
	if rs.Floor != "" && c.HasExtra(rs.Floor) {
		return rules.ClassFloor
	}
	return c.Primary
}

// forwardDecision reports whether a class forwards the image to material
// classification, and the device hint to carry when the class is itself a
// device type.
func forwardDecision(class string, rs *rules.RuleSet) (bool, string) {
	if class == rules.ClassNextStage {
		return true, ""
	}
	for _, device := range rs.Objects {
		if class == device {
			return true, device
		}
	}
	return false, ""
}
