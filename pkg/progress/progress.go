// Package progress defines the observer contract stages use to report
// per-image advancement back to the driver.
package progress

// Observer receives a synchronous progress report after each per-image step.
// Implementations must be safe for concurrent use when stages run with more
// than one worker.
type Observer interface {
	Progress(current, total int, message string)
}

// Func adapts a plain function to the Observer interface.
type Func func(current, total int, message string)

func (f Func) Progress(current, total int, message string) {
	f(current, total, message)
}

// Discard is an Observer that drops all reports.
var Discard Observer = Func(func(int, int, string) {})
