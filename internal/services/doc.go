// Package services defines the shared error taxonomy and context plumbing
// used by stage processors and stores. External collaborators (transcription
// engine, chat completion, web search, translation) live in subpackages and
// tag their failures with the sentinel markers defined here.
package services
