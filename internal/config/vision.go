package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvAwsProfile        = "PHOTOSORT_AWS_PROFILE"
	EnvMinInferenceUnits = "PHOTOSORT_MIN_INFERENCE_UNITS"

	EnvScaleProjectArn  = "PHOTOSORT_SCALE_PROJECT_ARN"
	EnvScaleVersionArn  = "PHOTOSORT_SCALE_VERSION_ARN"
	EnvScaleVersionName = "PHOTOSORT_SCALE_VERSION_NAME"

	EnvMaterialProjectArn  = "PHOTOSORT_MATERIAL_PROJECT_ARN"
	EnvMaterialVersionArn  = "PHOTOSORT_MATERIAL_VERSION_ARN"
	EnvMaterialVersionName = "PHOTOSORT_MATERIAL_VERSION_NAME"
)

// VisionConfig identifies the custom-label models and the AWS profile that
// can reach them.
type VisionConfig struct {
	Profile           string      `toml:"profile"`
	MinInferenceUnits int32       `toml:"min_inference_units"`
	Scale             ModelConfig `toml:"scale"`
	Material          ModelConfig `toml:"material"`
}

// ModelConfig identifies one trained custom-label model version.
type ModelConfig struct {
	ProjectArn  string `toml:"project_arn"`
	VersionArn  string `toml:"version_arn"`
	VersionName string `toml:"version_name"`
}

// Merge overwrites non-empty fields from overlay.
func (c *VisionConfig) Merge(overlay *VisionConfig) {
	if overlay == nil {
		return
	}
	if overlay.Profile != "" {
		c.Profile = overlay.Profile
	}
	if overlay.MinInferenceUnits != 0 {
		c.MinInferenceUnits = overlay.MinInferenceUnits
	}
	c.Scale.Merge(&overlay.Scale)
	c.Material.Merge(&overlay.Material)
}

// Finalize applies defaults and environment overrides, then validates that
// both models are fully identified.
func (c *VisionConfig) Finalize() error {
	if c.MinInferenceUnits == 0 {
		c.MinInferenceUnits = 1
	}

	if v := os.Getenv(EnvAwsProfile); v != "" {
		c.Profile = v
	}
	if v := os.Getenv(EnvMinInferenceUnits); v != "" {
		if units, err := strconv.ParseInt(v, 10, 32); err == nil {
			c.MinInferenceUnits = int32(units)
		}
	}

	c.Scale.loadEnv(EnvScaleProjectArn, EnvScaleVersionArn, EnvScaleVersionName)
	c.Material.loadEnv(EnvMaterialProjectArn, EnvMaterialVersionArn, EnvMaterialVersionName)

	if err := c.Scale.validate(); err != nil {
		return fmt.Errorf("scale model: %w", err)
	}
	if err := c.Material.validate(); err != nil {
		return fmt.Errorf("material model: %w", err)
	}
	return nil
}

// Merge overwrites non-empty fields from overlay.
func (c *ModelConfig) Merge(overlay *ModelConfig) {
	if overlay == nil {
		return
	}
	if overlay.ProjectArn != "" {
		c.ProjectArn = overlay.ProjectArn
	}
	if overlay.VersionArn != "" {
		c.VersionArn = overlay.VersionArn
	}
	if overlay.VersionName != "" {
		c.VersionName = overlay.VersionName
	}
}

func (c *ModelConfig) loadEnv(projectKey, versionKey, nameKey string) {
	if v := os.Getenv(projectKey); v != "" {
		c.ProjectArn = v
	}
	if v := os.Getenv(versionKey); v != "" {
		c.VersionArn = v
	}
	if v := os.Getenv(nameKey); v != "" {
		c.VersionName = v
	}
}

func (c *ModelConfig) validate() error {
	if c.ProjectArn == "" {
		return fmt.Errorf("project_arn is required")
	}
	if c.VersionArn == "" {
		return fmt.Errorf("version_arn is required")
	}
	if c.VersionName == "" {
		return fmt.Errorf("version_name is required")
	}
	return nil
}
