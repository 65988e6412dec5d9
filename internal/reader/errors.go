package reader

import "errors"

// ErrGenerateFailed indicates the vision-language service call did not
// complete.
var ErrGenerateFailed = errors.New("text generation failed")
