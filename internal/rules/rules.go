// Package rules holds the classification rule tables as explicit values.
// Each classifier stage receives its RuleSet as a parameter so alternate
// deployments (different thresholds or directory trees) can coexist and be
// tested independently of the production tables.
package rules

// Sentinel decisions shared by the device/location stage.
const (
	ClassUnknownDevice = "unknown_device"
	ClassNextStage     = "next_stage"
	ClassUnknown       = "unknown"
	ClassFloor         = "floor"
)

// ScreenPrefix marks screen-type labels; their presence without any
// location match yields the unknown_device decision.
const ScreenPrefix = "LCD_SCREEN"

// RuleSet drives one classification stage's threshold decision.
//
// Thresholds maps a label name to its per-label confidence floor; names
// absent from the map threshold at zero. Primary, Objects, and Extras are
// the ordered tie-break priority groups: primary names (locations or
// material-locations) compete for one winner, object/device names compete
// for one winner, extras accumulate. Dirs maps a decided class to its
// relative output directory. HintTranslate converts a device hint carried
// over from the prior stage into this stage's object vocabulary. Normalize
// rewrites a family prefix onto another before composing class names.
type RuleSet struct {
	Thresholds    map[string]float64
	Primary       []string
	Objects       []string
	Extras        []string
	Floor         string
	Dirs          map[string]string
	HintTranslate map[string]string
	Normalize     map[string]string
}

// Threshold returns the confidence floor configured for the label name.
func (rs *RuleSet) Threshold(name string) float64 {
	return rs.Thresholds[name]
}

// Dir returns the output directory mapped to class, and whether one exists.
func (rs *RuleSet) Dir(class string) (string, bool) {
	dir, ok := rs.Dirs[class]
	return dir, ok
}

// ReadingRules gates text-reading eligibility and cropping. Thresholds
// lists exact label names with their floors; ScreenFloor applies to any
// label carrying the screen prefix. CropLabels are the screen labels whose
// bounding box selects the crop region.
type ReadingRules struct {
	Thresholds  map[string]float64
	ScreenFloor float64
	CropLabels  []string
	MinCropW    int
	MinCropH    int
}

// Scales returns the production device/location rule set. Primary names
// are the trained site classes; object names are the material-measurement
// devices that defer final classification to the material stage.
func Scales() RuleSet {
	dirs := map[string]string{
		"6_IT_0":            "classified/locations/6 IT",
		"6_BE_0":            "classified/locations/6 BE",
		"6_BE_180":          "classified/locations/6 BE",
		"6_CA_OAK_0":        "classified/locations/6 CA OAK",
		"6_CA_WILMINGTON_0": "classified/locations/6 CA WILMINGTON",
		"6_CA_WILMINGTON_180": "classified/locations/6 CA WILMINGTON",
		"6_ES_180":          "classified/locations/6 ES",
		"6_ES_0":            "classified/locations/6 ES",
		"6_FR_0":            "classified/locations/6 FR",
		"6_GA_0":            "classified/locations/6 GA",
		"6_GB_90_CW":        "classified/locations/6 GB",
		"6_GB_0":            "classified/locations/6 GB",
		"6_GR_0":            "classified/locations/6 GR",
		"6_HALIFAX_0":       "classified/locations/6 HALIFAX",
		"6_HALIFAX_180":     "classified/locations/6 HALIFAX",
		"6_HR_0":            "classified/locations/6 HR",
		"6_WA_0":            "classified/locations/6 WA",
		"6_PL_0":            "classified/locations/6 PL",
		"6_NJ_NY_0":         "classified/locations/6 NJ NY",
		"6_VANCOUVER_0":     "classified/locations/6 VANCOUVER",
		"6_NL_0":            "classified/locations/6 NL",
		"6_NEW_SCALES_0":    "classified/locations/6 NEW SCALES",
		"9_WA_0":            "classified/trashLocations/9 WA",
		"9_TW_0":            "classified/trashLocations/9 TW",
		"9_CALIFORNIA_0":    "classified/trashLocations/9 CALIFORNIA",
		"9_EU_0":            "classified/trashLocations/9 EU",
		"9_GA_0":            "classified/trashLocations/9 GA",
		"9_JAPAN_0":         "classified/trashLocations/9 JAPAN",
		"9_KR_0":            "classified/trashLocations/9 KR",
		"9_NJ_NY_0":         "classified/trashLocations/9 NJ NY",
		"9_OAK_0":           "classified/trashLocations/9 OAK",
		"9_OAK_90_CCW":      "classified/trashLocations/9 OAK",
		"9_OAK_180":         "classified/trashLocations/9 OAK",
		"9_VANCOUVER_0":     "classified/trashLocations/9 VANCOUVER",
		"9_NEW_SCALES_0":    "classified/trashLocations/9 NEW SCALES",
		ClassUnknownDevice:  "classified/unknown_device",
		ClassFloor:          "classified/floor",
	}

	primary := make([]string, 0, len(dirs))
	thresholds := make(map[string]float64, len(dirs))
	for name := range dirs {
		if name == ClassUnknownDevice || name == ClassFloor {
			continue
		}
		primary = append(primary, name)
		thresholds[name] = 75
	}

	objects := []string{"7_MOISTURE", "NEW_MOISTURE", "RADIATION"}
	for _, name := range objects {
		thresholds[name] = 75
	}

	extras := []string{"FLOOR", "OCC_PAPER", "MIX_PAPER", "WHITE_PAPER", "NON_PAPER_MATERIAL", "HAND"}
	for _, name := range extras {
		thresholds[name] = 55
	}

	return RuleSet{
		Thresholds: thresholds,
		Primary:    primary,
		Objects:    objects,
		Extras:     extras,
		Floor:      "FLOOR",
		Dirs:       dirs,
	}
}

// Materials returns the production material rule set. Device thresholds sit
// at 99 so the device signal discovered by the location stage, carried in as
// a hint, outranks anything the material model detects on its own.
func Materials() RuleSet {
	return RuleSet{
		Thresholds: map[string]float64{
			"OCC_inventory": 55,
			"OCC_closeup":   55,
			"OCC_scale":     60,
			"OCC_unpacking": 55,
			"MIX_inventory": 70,
			"MIX_closeup":   55,
			"MIX_scale":     70,
			"WHITE_closeup":   55,
			"WHITE_inventory": 55,
			"WHITE_scale":     55,
			"WHITE_unpacking": 55,

			"newWatermeter": 99,
			"oldWatermeter": 99,
			"radiometer":    99,

			"sign":  55,
			"floor": 55,
		},
		Primary: []string{
			"OCC_inventory", "OCC_closeup", "OCC_scale", "OCC_unpacking",
			"WHITE_inventory", "WHITE_closeup", "WHITE_scale", "WHITE_unpacking",
			"MIX_inventory", "MIX_closeup", "MIX_scale",
		},
		Objects: []string{"sign", "radiometer", "oldWatermeter", "newWatermeter"},
		Extras:  []string{"floor"},
		Floor:   "floor",
		Dirs: map[string]string{
			"OCC - inventory":            "classified/1.堆場 4070-10 OCC",
			"OCC - closeup":              "classified/2.貨包 4070-10 OCC",
			"OCC - radiometer - closeup": "classified/4.輻射儀貨包 4070-10 OCC",
			"OCC - scale":                "classified/5.地面秤重 4070-10 OCC",
			"OCC - newWatermeter":        "classified/7.新款水分儀 4070-10 OCC",
			"OCC - oldWatermeter":        "classified/7.水分儀 4070-10 OCC",
			"OCC - unpacking":            "classified/8.拆包 4070-10 OCC",

			"MIX - inventory":            "classified/1.堆場 4070-30 MIX",
			"MIX - closeup":              "classified/2.貨包 4070-30 MIX",
			"MIX - radiometer - closeup": "classified/4.輻射儀貨包 4070-30 MIX",
			"MIX - scale":                "classified/5.地面秤重 4070-30 MIX",
			"MIX - newWatermeter":        "classified/7.新款水分儀 4070-30 MIX",
			"MIX - oldWatermeter":        "classified/7.水分儀 4070-30 MIX",
			"MIX - unpacking":            "classified/8.拆包 4070-30 MIX",

			"WHITE - inventory":            "classified/1.堆場 4070-20 WHITE",
			"WHITE - closeup":              "classified/2.貨包 4070-20 WHITE",
			"WHITE - radiometer - closeup": "classified/4.輻射儀貨包 4070-20 WHITE",
			"WHITE - scale":                "classified/5.地面秤重 4070-20 WHITE",
			"WHITE - newWatermeter":        "classified/7.新款水分儀 4070-20 WHITE",
			"WHITE - oldWatermeter":        "classified/7.水分儀 4070-20 WHITE",
			"WHITE - unpacking":            "classified/8.拆包 4070-20 WHITE",

			"radiometer - floor": "classified/4. 輻射儀地面",
			ClassUnknown:         "classified/unknown",
		},
		HintTranslate: map[string]string{
			"7_MOISTURE":   "oldWatermeter",
			"NEW_MOISTURE": "newWatermeter",
			"RADIATION":    "radiometer",
		},
	}
}

// Reading returns the production text-reading eligibility rules.
func Reading() ReadingRules {
	return ReadingRules{
		Thresholds: map[string]float64{
			"sign":          55,
			"oldWatermeter": 50,
			"newWatermeter": 50,
			"radiometer":    50,
		},
		ScreenFloor: 60,
		CropLabels:  []string{"LCD_SCREEN_0", "LCD_SCREEN_0_MAIN"},
		MinCropW:    60,
		MinCropH:    30,
	}
}

// UnknownDir is the fallback output directory for concrete categories that
// have no explicit mapping.
const UnknownDir = "classified/unknown"
