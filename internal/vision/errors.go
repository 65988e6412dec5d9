package vision

import "errors"

var (
	// ErrDetectFailed indicates the label service call did not complete.
	ErrDetectFailed = errors.New("label detection failed")
	// ErrModelNotReady indicates the model version is not in a runnable state.
	ErrModelNotReady = errors.New("model version not ready")
)
