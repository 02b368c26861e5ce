// Package logging provides the slog construction and the bounded log sink
// backing every stage's audit trail. The sink caps its file at a configured
// line count; components receive constructed logger handles rather than
// touching a global.
package logging
