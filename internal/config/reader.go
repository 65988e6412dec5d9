package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	EnvBedrockRegion  = "PHOTOSORT_BEDROCK_REGION"
	EnvBedrockModelID = "PHOTOSORT_BEDROCK_MODEL_ID"
	EnvReadingPrompt  = "PHOTOSORT_READING_PROMPT"
	EnvPromptFile     = "PHOTOSORT_READING_PROMPT_FILE"

	DefaultBedrockRegion  = "us-east-2"
	DefaultBedrockModelID = "us.meta.llama3-2-90b-instruct-v1:0"
)

// DefaultPrompt is the minimal reading instruction used when neither an
// inline prompt nor a prompt file is configured. The last-line contract is
// what the reading parser expects.
const DefaultPrompt = "You are reading digits from photos of paper signs and device screens.\n" +
	"Return a brief reasoning, then on the last line output \"{digit/HSCODE} - {flagged/None}\"."

// ReaderConfig identifies the vision-language model used for text reading
// and the prompt sent with every image.
type ReaderConfig struct {
	Region     string `toml:"region"`
	ModelID    string `toml:"model_id"`
	Prompt     string `toml:"prompt"`
	PromptFile string `toml:"prompt_file"`
}

// Merge overwrites non-empty fields from overlay.
func (c *ReaderConfig) Merge(overlay *ReaderConfig) {
	if overlay == nil {
		return
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.ModelID != "" {
		c.ModelID = overlay.ModelID
	}
	if overlay.Prompt != "" {
		c.Prompt = overlay.Prompt
	}
	if overlay.PromptFile != "" {
		c.PromptFile = overlay.PromptFile
	}
}

// Finalize applies defaults and environment overrides, then resolves the
// effective prompt. A prompt file wins over an inline prompt; an inline
// prompt may carry literal \n sequences for multi-line text.
func (c *ReaderConfig) Finalize() error {
	if v := os.Getenv(EnvBedrockRegion); v != "" {
		c.Region = v
	}
	if v := os.Getenv(EnvBedrockModelID); v != "" {
		c.ModelID = v
	}
	if v := os.Getenv(EnvReadingPrompt); v != "" {
		c.Prompt = v
	}
	if v := os.Getenv(EnvPromptFile); v != "" {
		c.PromptFile = v
	}

	if c.Region == "" {
		c.Region = DefaultBedrockRegion
	}
	if c.ModelID == "" {
		c.ModelID = DefaultBedrockModelID
	}

	prompt, err := c.resolvePrompt()
	if err != nil {
		return err
	}
	c.Prompt = prompt

	return nil
}

func (c *ReaderConfig) resolvePrompt() (string, error) {
	if c.PromptFile != "" {
		data, err := os.ReadFile(c.PromptFile)
		if err != nil {
			return "", fmt.Errorf("read prompt file: %w", err)
		}
		return string(data), nil
	}

	if prompt := strings.TrimSpace(c.Prompt); prompt != "" {
		return strings.ReplaceAll(prompt, `\n`, "\n"), nil
	}

	return DefaultPrompt, nil
}
