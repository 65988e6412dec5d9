// Package reader defines the vision-language generation contract used by
// the text-reading stage, the AWS Bedrock implementation, and the parser
// that imposes structure on the model's free-form output.
package reader

import (
	"context"
	"strings"
)

// Generator produces free-form text from a prompt and an image. The model
// enforces no output contract; ParseReading imposes all structure.
type Generator interface {
	Generate(ctx context.Context, prompt string, image []byte) (string, error)
}

const (
	separator  = " - "
	codePrefix = "HSCODE"
	flagMarker = "flagged"
)

// ParseReading extracts the digit string and review flag from raw model
// output. The contract is a final line of the form "{digit} - {flag}": the
// last non-empty line is split on the first " - "; a leading HSCODE token
// is stripped from the value; the flag is true iff the flag part contains
// "flagged" case-insensitively. Output with no separator on its last line
// is unusable, not an error, and yields the empty reading.
func ParseReading(raw string) (digit string, flagged bool) {
	last := ""
	for _, line := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			last = trimmed
		}
	}

	left, right, ok := strings.Cut(last, separator)
	if !ok {
		return "", false
	}

	digit = strings.TrimSpace(left)
	if strings.HasPrefix(strings.ToUpper(digit), codePrefix) {
		fields := strings.SplitN(digit, " ", 2)
		if len(fields) == 2 {
			digit = strings.TrimSpace(fields[1])
		} else {
			digit = ""
		}
	}

	flagged = strings.Contains(strings.ToLower(right), flagMarker)
	return digit, flagged
}
