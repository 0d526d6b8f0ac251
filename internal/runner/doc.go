// Package runner dispatches a compiled plan to an execution backend.
//
// Steps run one at a time in plan order. Each step's inputs are resolved
// from the outputs of the steps that ran before it; declared outputs are
// filled from the backend's result and flow on to downstream inputs. When a
// step fails, every step that depends on it, directly or through another
// skipped step, is skipped instead of dispatched.
package runner
