// Package whisper wraps the external speech-to-text command used by the
// transcription stage. The engine shells out to the whisper CLI and reads the
// JSON output it writes alongside the audio file.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"echonote/internal/artifacts"
	"echonote/internal/services"
)

// Command is the default whisper binary name.
const Command = "whisper"

// knownEngines lists the model sizes the CLI accepts.
var knownEngines = map[string]struct{}{
	"small":    {},
	"medium":   {},
	"large":    {},
	"large-v2": {},
}

// Config captures the runtime settings for the transcription engine.
type Config struct {
	// EngineName selects the model size ("small", "medium", "large", "large-v2").
	EngineName string
	// Device is the compute device passed to the CLI ("cpu" or "cuda").
	Device string
	// Binary overrides the whisper command name.
	Binary string
}

// Engine runs the external transcription command. Load must succeed before
// Transcribe is usable.
type Engine struct {
	cfg           Config
	binary        string
	loaded        bool
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewEngine creates an engine with the given configuration. The engine is
// not usable until Load is called.
func NewEngine(cfg Config) *Engine {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = Command
	}
	return &Engine{cfg: cfg, binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Engine) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	e.commandRunner = runner
}

// Name returns the configured engine name for logging.
func (e *Engine) Name() string {
	return e.cfg.EngineName
}

// Load validates the engine name and marks the engine ready. Unknown engine
// names fail so misconfiguration surfaces before any audio is touched.
func (e *Engine) Load() error {
	name := strings.TrimSpace(e.cfg.EngineName)
	if _, ok := knownEngines[name]; !ok {
		return services.Wrap(services.ErrConfiguration, "transcribe", "load",
			fmt.Sprintf("unknown engine %q", name), nil)
	}
	e.loaded = true
	return nil
}

// Transcribe runs the engine on one audio file and returns the resulting
// fragment. The fragment timestamp is the audio file's modification time so
// ordering follows recording order, not processing order.
func (e *Engine) Transcribe(ctx context.Context, audioPath string) (artifacts.Fragment, error) {
	var fragment artifacts.Fragment
	if !e.loaded {
		return fragment, services.Wrap(services.ErrProcessorUnavailable, "transcribe", "run",
			"engine not loaded", nil)
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return fragment, services.Wrap(services.ErrInvalidInput, "transcribe", "run",
			fmt.Sprintf("audio file %s", audioPath), err)
	}

	outputDir, err := os.MkdirTemp("", "echonote-whisper-*")
	if err != nil {
		return fragment, fmt.Errorf("transcribe: temp dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	args := e.buildArgs(audioPath, outputDir)
	if err := e.run(ctx, e.binary, args...); err != nil {
		return fragment, services.Wrap(services.ErrUpstream, "transcribe", "run",
			fmt.Sprintf("engine failed for %s", filepath.Base(audioPath)), err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	text, err := loadTranscriptText(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return fragment, services.Wrap(services.ErrUpstream, "transcribe", "run",
			"engine produced no readable output", err)
	}

	fragment.Text = text
	fragment.Timestamp = info.ModTime().UTC().Format(time.RFC3339)
	fragment.Source = filepath.Base(audioPath)
	return fragment, nil
}

func (e *Engine) buildArgs(audioPath, outputDir string) []string {
	args := []string{
		audioPath,
		"--model", e.cfg.EngineName,
		"--output_dir", outputDir,
		"--output_format", "json",
	}
	if device := strings.TrimSpace(e.cfg.Device); device != "" {
		args = append(args, "--device", device)
	}
	return args
}

func (e *Engine) run(ctx context.Context, name string, args ...string) error {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Segment is one transcribed span from the engine's JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type enginePayload struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// loadTranscriptText reads the engine's JSON output and returns the full
// transcript, preferring the flat text field over joined segments.
func loadTranscriptText(jsonPath string) (string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", err
	}
	var payload enginePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("parse engine json: %w", err)
	}
	if text := strings.TrimSpace(payload.Text); text != "" {
		return text, nil
	}
	var parts []string
	for _, seg := range payload.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
