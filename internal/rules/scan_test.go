package rules_test

import (
	"testing"

	"github.com/JaimeStill/photosort/internal/rules"
	"github.com/JaimeStill/photosort/internal/vision"
)

func TestScanPerLabelThreshold(t *testing.T) {
	rs := rules.Materials()

	// OCC_scale carries the higher confidence but misses its own floor of
	// 60; OCC_inventory clears its floor of 55 and wins.
	labels := []vision.Label{
		{Name: "OCC_scale", Confidence: 58},
		{Name: "OCC_inventory", Confidence: 57},
	}

	c := rs.Scan(labels)
	if c.Primary != "OCC_inventory" {
		t.Errorf("Primary = %q, want %q", c.Primary, "OCC_inventory")
	}
	if c.PrimaryConfidence != 57 {
		t.Errorf("PrimaryConfidence = %v, want 57", c.PrimaryConfidence)
	}
}

func TestScanRelaxedFallback(t *testing.T) {
	rs := rules.Materials()

	// Nothing clears a threshold, so the relaxed pass picks the best
	// primary anyway and admits the floor modifier below its floor.
	labels := []vision.Label{
		{Name: "OCC_scale", Confidence: 40},
		{Name: "MIX_closeup", Confidence: 35},
		{Name: "floor", Confidence: 30},
	}

	c := rs.Scan(labels)
	if c.Primary != "OCC_scale" {
		t.Errorf("Primary = %q, want %q", c.Primary, "OCC_scale")
	}
	if !c.HasExtra("floor") {
		t.Error("HasExtra(floor) = false, want true in relaxed pass")
	}
}

func TestScanScreenLabels(t *testing.T) {
	rs := rules.Scales()

	labels := []vision.Label{
		{Name: "LCD_SCREEN_0", Confidence: 95},
		{Name: "LCD_SCREEN_0_MAIN", Confidence: 90},
	}

	c := rs.Scan(labels)
	if !c.ScreenSeen {
		t.Error("ScreenSeen = false, want true")
	}
	if c.Primary != "" {
		t.Errorf("Primary = %q, want empty", c.Primary)
	}
}

func TestScanObjectCanonical(t *testing.T) {
	rs := rules.Scales()

	tests := []struct {
		name  string
		label string
		want  string
	}{
		{"exact", "7_MOISTURE", "7_MOISTURE"},
		{"variant", "7_MOISTURE_CLOSEUP", "7_MOISTURE"},
		{"radiation", "RADIATION_DEVICE", "RADIATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := rs.Scan([]vision.Label{{Name: tt.label, Confidence: 80}})
			if c.Object != tt.want {
				t.Errorf("Object = %q, want %q", c.Object, tt.want)
			}
		})
	}
}

func TestScanExtrasGatedByThreshold(t *testing.T) {
	rs := rules.Scales()

	labels := []vision.Label{
		{Name: "6_IT_0", Confidence: 90},
		{Name: "HAND", Confidence: 60},
		{Name: "OCC_PAPER", Confidence: 50},
	}

	c := rs.Scan(labels)
	if !c.HasExtra("HAND") {
		t.Error("HasExtra(HAND) = false, want true at 60 over floor 55")
	}
	if c.HasExtra("OCC_PAPER") {
		t.Error("HasExtra(OCC_PAPER) = true, want false at 50 under floor 55")
	}
}

func TestDir(t *testing.T) {
	rs := rules.Scales()

	if dir, ok := rs.Dir("6_IT_0"); !ok || dir != "classified/locations/6 IT" {
		t.Errorf("Dir(6_IT_0) = %q, %v", dir, ok)
	}
	if _, ok := rs.Dir(rules.ClassNextStage); ok {
		t.Error("Dir(next_stage) mapped, want unmapped")
	}
}
