package engine

import "errors"

// ============================================================================
// LIVINGCOST ENGINE — Local evaluation of chart transforms
// ============================================================================
// The external renderer evaluates a spec's transforms in the browser. The
// engine evaluates the same transforms in Go so charts can be previewed,
// dumped as rows, and tested without a browser.
//
// Dependency: engine depends only on chart and zap.
// ============================================================================

var (
	// ErrUnknownOp is returned for aggregate, window, or stack ops the engine
	// does not implement.
	ErrUnknownOp = errors.New("unknown op")

	// ErrUnknownParam is returned when a filter references an undeclared param.
	ErrUnknownParam = errors.New("unknown param")

	// ErrNoEvaluator is returned when an expression transform carries no Go
	// function to evaluate it locally.
	ErrNoEvaluator = errors.New("expression has no local evaluator")
)

// Step records the row count after one transform, for tracing.
type Step struct {
	Kind string `json:"kind"`
	Rows int    `json:"rows"`
}
