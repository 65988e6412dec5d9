// Package materials implements the material classification stage: the
// second pass, run only over images the device/location stage forwarded,
// deciding the paper-material category and photo role.
package materials

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/photosort/internal/cache"
	"github.com/JaimeStill/photosort/internal/rules"
	"github.com/JaimeStill/photosort/internal/vision"
	"github.com/JaimeStill/photosort/pkg/imaging"
	"github.com/JaimeStill/photosort/pkg/progress"
)

// Stage runs material classification over the forwarded file list.
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

// Run classifies every supported forwarded image. hints maps image path to
// the device type the location stage discovered; a hint overrides any
// object label the material model detects, since the location model's
// device signal is the more reliable one. Per-image failures are logged
// and skipped; only cancellation aborts the pass.
func (s *Stage) Run(ctx context.Context, files []string, hints map[string]string) error {
	var filtered []string
	for _, path := range files {
		if imaging.IsImagePath(path) {
			filtered = append(filtered, path)
		}
	}
	total := len(filtered)

	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Workers, 1))

	for _, path := range filtered {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			s.process(gctx, path, hints[path])

			current := int(done.Add(1))
			s.Observer.Progress(current, total, fmt.Sprintf("Classifying %d/%d files...", current, total))
			return nil
		})
	}

	return g.Wait()
}

func (s *Stage) process(ctx context.Context, path, hint string) {
	id := imaging.Identity(path)

	rec, err := s.Store.Read(id)
	if err != nil {
		s.Logger.Warn("cache read failed", "image", id, "error", err)
		return
	}

	labels := rec.MaterialLabels
	cached := rec.HasMaterialLabels()

	if !cached {
		data, err := imaging.LoadCompressed(path)
		if err != nil {
			s.Logger.Warn("image load failed", "image", id, "error", err)
			return
		}

		labels, err = s.Detector.Detect(ctx, data, s.Model, s.MinConfidence)
		if err != nil {
			s.Logger.Warn("classify failed", "image", id, "error", err)
			return
		}
		if labels == nil {
			labels = []vision.Label{}
		}
	}

	class := Classify(labels, hint, s.Rules)

	up := cache.Update{MaterialClass: &class}
	if !cached {
		up.MaterialLabels = labels
	}
	if err := s.Store.Write(id, up); err != nil {
		s.Logger.Error("cache write failed", "image", id, "error", err)
	}
}

// Classify decides the material category for one label set. hint, when
// non-empty, is a device type from the location stage; it is translated
// into this stage's object vocabulary and replaces the detected object.
func Classify(labels []vision.Label, hint string, rs rules.RuleSet) string {
	c := rs.Scan(labels)

	if hint != "" {
		if object, ok := rs.HintTranslate[hint]; ok {
			c.Object = object
		}
	}

	return Compose(c, rs)
}

// Compose builds the final category string from scan candidates via the
// fixed decision tree: water-meter devices pair the material prefix with
// the device name; a radiometer yields the closeup bucket, or the floor
// bucket (dropping the prefix) when a floor modifier was seen; a sign
// keeps the material's own role suffix; any remaining material falls into
// the unpacking bucket; no material at all is unknown.
func Compose(c rules.Candidates, rs rules.RuleSet) string {
	if c.Primary == "" {
		return rules.ClassUnknown
	}

	prefix := materialPrefix(c.Primary, rs)

	switch {
	case strings.Contains(c.Object, "Watermeter"):
		return prefix + " - " + c.Object
	case strings.Contains(c.Object, "radiometer"):
		if rs.Floor != "" && c.HasExtra(rs.Floor) {
			return "radiometer - floor"
		}
		return prefix + " - radiometer - closeup"
	case c.Object == "sign":
		for _, suffix := range []string{"closeup", "scale", "inventory"} {
			if strings.Contains(c.Primary, suffix) {
				return prefix + " - " + suffix
			}
		}
	}

	return prefix + " - unpacking"
}

// materialPrefix strips the role suffix from a material-location name and
// applies any configured family normalization.
func materialPrefix(name string, rs rules.RuleSet) string {
	prefix, _, _ := strings.Cut(name, "_")
	if normalized, ok := rs.Normalize[prefix]; ok {
		prefix = normalized
	}
	return prefix
}
