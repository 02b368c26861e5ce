// Package notes persists the note registry and the vocabulary table in a
// SQLite database. The registry keeps one row per namespace with the latest
// text snapshot of every pipeline stage; stage runs write their output here
// after persisting the artifact files.
package notes
