package reader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// Inference bounds for the Converse call. Digit reading needs short,
// near-deterministic output.
const (
	maxTokens   = 512
	temperature = 0.1
	topP        = 0.9
)

// Bedrock implements Generator against the AWS Bedrock Converse API with a
// fixed model identifier.
type Bedrock struct {
	client  *bedrockruntime.Client
	modelID string
	logger  *slog.Logger
}

// NewBedrock wraps an AWS config-derived Bedrock runtime client.
func NewBedrock(cfg aws.Config, modelID string, logger *slog.Logger) *Bedrock {
	return &Bedrock{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
		logger:  logger.With("system", "reader"),
	}
}

// Generate sends one user message carrying the prompt and a JPEG image
// block, returning the first text block of the model's reply.
func (b *Bedrock) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	out, err := b.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.modelID),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: prompt},
					&types.ContentBlockMemberImage{
						Value: types.ImageBlock{
							Format: types.ImageFormatJpeg,
							Source: &types.ImageSourceMemberBytes{Value: image},
						},
					},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(maxTokens),
			Temperature: aws.Float32(temperature),
			TopP:        aws.Float32(topP),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerateFailed, err)
	}

	message, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", nil
	}
	for _, block := range message.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			return text.Value, nil
		}
	}

	return "", nil
}
