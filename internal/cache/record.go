// Package cache implements the per-image result store that makes the
// pipeline resumable. Each image identity owns one JSON file under the
// output root's json/ directory; writes merge supplied fields over the
// persisted record so stages never clobber each other's results.
package cache

import "github.com/JaimeStill/photosort/internal/vision"

// Reading is the structured output of the text-reading enrichment stage.
// Once persisted it is final and never recomputed.
type Reading struct {
	Digit   string `json:"digit"`
	Flagged bool   `json:"flagged"`
}

// Record is the cache unit for one image identity. Label slices are nil
// until the corresponding stage has run; a non-nil (possibly empty) slice
// is the "already processed" signal for that stage. Class fields hold the
// decided category, including the unknown_device and next_stage sentinels.
type Record struct {
	ImageName      string         `json:"image_name"`
	ScaleLabels    []vision.Label `json:"scale_labels"`
	ScaleClass     string         `json:"scale_class,omitempty"`
	MaterialLabels []vision.Label `json:"material_labels"`
	MaterialClass  string         `json:"material_class,omitempty"`
	TextReading    *Reading       `json:"text_reading,omitempty"`
}

// HasScaleLabels reports whether the device/location stage has recorded
// its raw detection output for this image.
func (r *Record) HasScaleLabels() bool {
	return r.ScaleLabels != nil
}

// HasMaterialLabels reports whether the material stage has recorded its
// raw detection output for this image.
func (r *Record) HasMaterialLabels() bool {
	return r.MaterialLabels != nil
}

// Update carries a partial record write. Nil fields are left untouched in
// the persisted record; non-nil fields overwrite.
type Update struct {
	ScaleLabels    []vision.Label
	ScaleClass     *string
	MaterialLabels []vision.Label
	MaterialClass  *string
	TextReading    *Reading
}

func (r *Record) apply(up Update) {
	if up.ScaleLabels != nil {
		r.ScaleLabels = up.ScaleLabels
	}
	if up.ScaleClass != nil {
		r.ScaleClass = *up.ScaleClass
	}
	if up.MaterialLabels != nil {
		r.MaterialLabels = up.MaterialLabels
	}
	if up.MaterialClass != nil {
		r.MaterialClass = *up.MaterialClass
	}
	if up.TextReading != nil {
		r.TextReading = up.TextReading
	}
}
