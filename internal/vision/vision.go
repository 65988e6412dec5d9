// Package vision defines the label-detection contract the classification
// stages depend on, along with the AWS Rekognition implementation.
package vision

import "context"

// BoundingBox locates a detected label within an image. All fields are
// fractions of the full image dimensions in the range 0–1.
type BoundingBox struct {
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
}

// Geometry carries the optional spatial information attached to a label.
type Geometry struct {
	BoundingBox *BoundingBox `json:"BoundingBox,omitempty"`
}

// Label is one detection result from the label service. Confidence is a
// 0–100 percentage. Labels are immutable once returned and are persisted
// verbatim into the result cache.
type Label struct {
	Name       string    `json:"Name"`
	Confidence float64   `json:"Confidence"`
	Geometry   *Geometry `json:"Geometry,omitempty"`
}

// Box returns the label's bounding box, or nil if the service supplied none.
func (l Label) Box() *BoundingBox {
	if l.Geometry == nil {
		return nil
	}
	return l.Geometry.BoundingBox
}

// Detector detects custom labels in an image. Model identifies the trained
// model version to run; minConfidence filters results below the given
// percentage at the service side.
type Detector interface {
	Detect(ctx context.Context, image []byte, model string, minConfidence float32) ([]Label, error)
}
