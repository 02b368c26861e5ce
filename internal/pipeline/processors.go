package pipeline

import (
	"context"

	"echonote/internal/artifacts"
	"echonote/internal/services/chat"
)

// Transcriber converts one raw audio segment into a fragment.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (artifacts.Fragment, error)
}

// TextProcessor transforms one integrated text into another. Revision and
// summarization both satisfy this contract.
type TextProcessor interface {
	Process(ctx context.Context, text string) (string, error)
}

// Analyzer turns summary text into enrichment records.
type Analyzer interface {
	Analyze(ctx context.Context, text string) ([]artifacts.SearchRecord, error)
}

// Completer is the completion surface the prompt processor needs from the
// chat client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// PromptProcessor adapts a completion client plus a prompt template into a
// TextProcessor. The template's text placeholder is filled with the input.
type PromptProcessor struct {
	client   Completer
	template string
}

// NewPromptProcessor builds a TextProcessor from a completion client and a
// prompt template.
func NewPromptProcessor(client Completer, template string) *PromptProcessor {
	return &PromptProcessor{client: client, template: template}
}

// Process renders the template with the input text and returns the model's
// reply.
func (p *PromptProcessor) Process(ctx context.Context, text string) (string, error) {
	return p.client.Complete(ctx, chat.RenderPrompt(p.template, text))
}
