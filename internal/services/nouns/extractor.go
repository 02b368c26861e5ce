// Package nouns wraps the external noun-phrase extraction command used by
// the analysis stage. The command receives text on stdin and prints one
// candidate phrase per line.
package nouns

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"echonote/internal/services"
)

// Command is the default extractor binary name.
const Command = "echonote-nouns"

// Config captures the runtime settings for the extractor.
type Config struct {
	// Language is the BCP 47 tag passed to the extractor so it loads the
	// matching language model.
	Language string
	// Binary overrides the extractor command name.
	Binary string
}

// Extractor shells out to the noun-phrase extraction command.
type Extractor struct {
	cfg           Config
	binary        string
	commandRunner func(ctx context.Context, stdin string, name string, args ...string) ([]byte, error)
}

// NewExtractor creates an extractor with the given configuration.
func NewExtractor(cfg Config) *Extractor {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = Command
	}
	return &Extractor{cfg: cfg, binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Extractor) WithCommandRunner(runner func(ctx context.Context, stdin string, name string, args ...string) ([]byte, error)) {
	e.commandRunner = runner
}

// ExtractNouns runs the extractor over the text and returns the candidate
// phrases in output order, duplicates preserved.
func (e *Extractor) ExtractNouns(ctx context.Context, text string) ([]string, error) {
	args := []string{}
	if lang := strings.TrimSpace(e.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	output, err := e.run(ctx, text, e.binary, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "analyze", "extract", "extractor failed", err)
	}

	var phrases []string
	for _, line := range strings.Split(string(output), "\n") {
		if phrase := strings.TrimSpace(line); phrase != "" {
			phrases = append(phrases, phrase)
		}
	}
	return phrases, nil
}

func (e *Extractor) run(ctx context.Context, stdin string, name string, args ...string) ([]byte, error) {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, stdin, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdin = strings.NewReader(stdin)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}
