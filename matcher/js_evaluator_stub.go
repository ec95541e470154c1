//go:build !js_eval

package matcher

// NewJSEvaluator is unavailable without the js_eval build tag.
func NewJSEvaluator(opts ...JSOption) Evaluator {
	_ = applyJSOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
