// Package artifacts defines the stage artifact data model and the
// namespace-scoped JSON document store that persists stage inputs and
// outputs.
package artifacts
