package rules

import (
	"strings"

	"github.com/JaimeStill/photosort/internal/vision"
)

// Candidates is the outcome of scanning one label set against a rule set:
// at most one primary winner, at most one object winner, the qualifying
// extra modifiers, and whether any screen-type label was observed.
type Candidates struct {
	Primary           string
	PrimaryConfidence float64
	Object            string
	ObjectConfidence  float64
	Extras            []string
	ScreenSeen        bool
}

// HasExtra reports whether name was collected into the extras list.
func (c *Candidates) HasExtra(name string) bool {
	for _, e := range c.Extras {
		if e == name {
			return true
		}
	}
	return false
}

// Scan partitions labels into the rule set's priority groups in a single
// pass, tracking the highest-confidence label per group whose confidence
// exceeds that label's own threshold. When no primary label clears its
// threshold, a relaxed second pass picks the highest-confidence primary
// label regardless of threshold, and a floor modifier qualifies for the
// extras list even below its threshold. Object names match canonically:
// a label whose name contains a configured object name counts as that
// object, so model-specific variants collapse onto the canonical device.
func (rs *RuleSet) Scan(labels []vision.Label) Candidates {
	var c Candidates

	primary := memberSet(rs.Primary)
	extras := memberSet(rs.Extras)

	for _, label := range labels {
		if strings.Contains(label.Name, ScreenPrefix) {
			c.ScreenSeen = true
			continue
		}

		switch {
		case primary[label.Name]:
			if label.Confidence > rs.Threshold(label.Name) && label.Confidence > c.PrimaryConfidence {
				c.PrimaryConfidence = label.Confidence
				c.Primary = label.Name
			}
		case rs.object(label.Name) != "":
			object := rs.object(label.Name)
			if label.Confidence > rs.Threshold(object) && label.Confidence > c.ObjectConfidence {
				c.ObjectConfidence = label.Confidence
				c.Object = object
			}
		case extras[label.Name]:
			if label.Confidence > rs.Threshold(label.Name) {
				c.Extras = append(c.Extras, label.Name)
			}
		}
	}

	if c.Primary == "" {
		for _, label := range labels {
			if primary[label.Name] && label.Confidence > c.PrimaryConfidence {
				c.PrimaryConfidence = label.Confidence
				c.Primary = label.Name
			}
			if rs.Floor != "" && label.Name == rs.Floor && !c.HasExtra(rs.Floor) {
				c.Extras = append(c.Extras, rs.Floor)
			}
		}
	}

	return c
}

// object returns the canonical object name the label collapses onto, or
// the empty string when the label is not an object.
func (rs *RuleSet) object(name string) string {
	for _, o := range rs.Objects {
		if strings.Contains(name, o) {
			return o
		}
	}
	return ""
}

func memberSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}
