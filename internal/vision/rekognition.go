package vision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// Rekognition implements Detector against AWS Rekognition Custom Labels.
// It also exposes the model lifecycle operations the driver uses to gate
// a run on both project versions being RUNNING.
type Rekognition struct {
	client *rekognition.Client
	logger *slog.Logger
}

// NewRekognition wraps an AWS config-derived Rekognition client.
func NewRekognition(cfg aws.Config, logger *slog.Logger) *Rekognition {
	return &Rekognition{
		client: rekognition.NewFromConfig(cfg),
		logger: logger.With("system", "vision"),
	}
}

// Detect calls DetectCustomLabels with the given project version ARN and
// converts the response into domain labels. Geometry is carried over only
// when the service supplied a bounding box.
func (r *Rekognition) Detect(ctx context.Context, image []byte, model string, minConfidence float32) ([]Label, error) {
	out, err := r.client.DetectCustomLabels(ctx, &rekognition.DetectCustomLabelsInput{
		Image:             &types.Image{Bytes: image},
		ProjectVersionArn: aws.String(model),
		MinConfidence:     aws.Float32(minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetectFailed, err)
	}

	labels := make([]Label, 0, len(out.CustomLabels))
	for _, cl := range out.CustomLabels {
		label := Label{
			Name:       aws.ToString(cl.Name),
			Confidence: float64(aws.ToFloat32(cl.Confidence)),
		}
		if cl.Geometry != nil && cl.Geometry.BoundingBox != nil {
			box := cl.Geometry.BoundingBox
			label.Geometry = &Geometry{
				BoundingBox: &BoundingBox{
					Left:   float64(aws.ToFloat32(box.Left)),
					Top:    float64(aws.ToFloat32(box.Top)),
					Width:  float64(aws.ToFloat32(box.Width)),
					Height: float64(aws.ToFloat32(box.Height)),
				},
			}
		}
		labels = append(labels, label)
	}

	return labels, nil
}

// Status returns the status string of a project version, e.g. "RUNNING".
func (r *Rekognition) Status(ctx context.Context, projectARN, versionName string) (string, error) {
	out, err := r.client.DescribeProjectVersions(ctx, &rekognition.DescribeProjectVersionsInput{
		ProjectArn:   aws.String(projectARN),
		VersionNames: []string{versionName},
	})
	if err != nil {
		return "", fmt.Errorf("describe project versions: %w", err)
	}
	if len(out.ProjectVersionDescriptions) == 0 {
		return "", fmt.Errorf("%w: version %s not found", ErrModelNotReady, versionName)
	}
	return string(out.ProjectVersionDescriptions[0].Status), nil
}

// Start launches a project version and blocks until it reports RUNNING.
func (r *Rekognition) Start(ctx context.Context, projectARN, versionARN, versionName string, minInferenceUnits int32, maxWait time.Duration) error {
	r.logger.Info("starting model version", "version", versionName)

	_, err := r.client.StartProjectVersion(ctx, &rekognition.StartProjectVersionInput{
		ProjectVersionArn: aws.String(versionARN),
		MinInferenceUnits: aws.Int32(minInferenceUnits),
	})
	if err != nil {
		return fmt.Errorf("start project version: %w", err)
	}

	waiter := rekognition.NewProjectVersionRunningWaiter(r.client)
	err = waiter.Wait(ctx, &rekognition.DescribeProjectVersionsInput{
		ProjectArn:   aws.String(projectARN),
		VersionNames: []string{versionName},
	}, maxWait)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrModelNotReady, err)
	}

	r.logger.Info("model version running", "version", versionName)
	return nil
}

// Stop shuts down a project version.
func (r *Rekognition) Stop(ctx context.Context, versionARN string) error {
	out, err := r.client.StopProjectVersion(ctx, &rekognition.StopProjectVersionInput{
		ProjectVersionArn: aws.String(versionARN),
	})
	if err != nil {
		return fmt.Errorf("stop project version: %w", err)
	}

	r.logger.Info("model version stopping", "status", string(out.Status))
	return nil
}
