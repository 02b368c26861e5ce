// Package pipeline drives a namespace through the stage sequence:
// transcription fans out over raw segments, aggregation merges fragments,
// and revision, summarization, and analysis each transform the previous
// stage's integrated artifact. The coordinator owns state transitions and
// persistence; the actual transformations are injected processors.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"echonote/internal/aggregate"
	"echonote/internal/artifacts"
	"echonote/internal/logging"
	"echonote/internal/notes"
	"echonote/internal/services"
)

// Status is the lifecycle state of one (namespace, stage) pair.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// defaultWorkers bounds the transcription fan-out when no worker count is
// configured.
const defaultWorkers = 2

// runnableStages is the stage sequence RunAll drives, in dependency order.
var runnableStages = []artifacts.Stage{
	artifacts.StageTranscribed,
	artifacts.StageRevised,
	artifacts.StageSummarized,
	artifacts.StageSearched,
}

type stateKey struct {
	namespace string
	stage     artifacts.Stage
}

// Config carries the coordinator's own settings.
type Config struct {
	// Workers bounds parallel segment transcription.
	Workers int
}

// Coordinator runs stages for namespaces. Stages within one namespace never
// overlap; namespaces are independent.
type Coordinator struct {
	store      *artifacts.Store
	registry   *notes.Registry
	aggregator *aggregate.Aggregator
	logger     *slog.Logger
	workers    int

	transcriber Transcriber
	reviser     TextProcessor
	summarizer  TextProcessor
	analyzer    Analyzer

	mu     sync.Mutex
	states map[stateKey]Status
}

// NewCoordinator wires a coordinator from its collaborators. Processors may
// be nil when the corresponding stage is never run.
func NewCoordinator(
	cfg Config,
	store *artifacts.Store,
	registry *notes.Registry,
	transcriber Transcriber,
	reviser TextProcessor,
	summarizer TextProcessor,
	analyzer Analyzer,
	logger *slog.Logger,
) *Coordinator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Coordinator{
		store:       store,
		registry:    registry,
		aggregator:  aggregate.New(store, logger),
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		workers:     workers,
		transcriber: transcriber,
		reviser:     reviser,
		summarizer:  summarizer,
		analyzer:    analyzer,
		states:      make(map[stateKey]Status),
	}
}

// Status reports the lifecycle state of one (namespace, stage) pair.
func (c *Coordinator) Status(namespace string, stage artifacts.Stage) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if status, ok := c.states[stateKey{namespace, stage}]; ok {
		return status
	}
	return StatusIdle
}

// begin transitions the pair to Running, refusing when any stage is already
// running for the namespace.
func (c *Coordinator) begin(namespace string, stage artifacts.Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, status := range c.states {
		if key.namespace == namespace && status == StatusRunning {
			return fmt.Errorf("namespace %s: stage %s already running", namespace, key.stage)
		}
	}
	c.states[stateKey{namespace, stage}] = StatusRunning
	return nil
}

func (c *Coordinator) finish(namespace string, stage artifacts.Stage, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.states[stateKey{namespace, stage}] = StatusFailed
	} else {
		c.states[stateKey{namespace, stage}] = StatusDone
	}
}

// RunStage executes one stage for a namespace. Reruns are safe: every write
// is an idempotent overwrite, so retry after a failure is just another call.
func (c *Coordinator) RunStage(ctx context.Context, stage artifacts.Stage, namespace string) error {
	if err := c.begin(namespace, stage); err != nil {
		return err
	}

	requestID := uuid.NewString()
	stageCtx := services.WithRequestID(
		services.WithStage(services.WithNamespace(ctx, namespace), string(stage)),
		requestID,
	)
	stageLogger := logging.WithContext(stageCtx, c.logger)
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	err := c.execute(stageCtx, stageLogger, stage, namespace)
	c.finish(namespace, stage, err)
	if err != nil {
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failed"),
			logging.Error(err),
		)
		return err
	}
	stageLogger.Info("stage completed", logging.String(logging.FieldEventType, "stage_complete"))
	return nil
}

// RunAll drives the full stage sequence for a namespace, stopping at the
// first failure.
func (c *Coordinator) RunAll(ctx context.Context, namespace string) error {
	for _, stage := range runnableStages {
		if err := c.RunStage(ctx, stage, namespace); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the namespace's raw segments and returns every stage of the
// namespace to Idle. Refused while a stage is running.
func (c *Coordinator) Reset(ctx context.Context, namespace string) error {
	c.mu.Lock()
	for key, status := range c.states {
		if key.namespace == namespace && status == StatusRunning {
			c.mu.Unlock()
			return fmt.Errorf("namespace %s: stage %s still running", namespace, key.stage)
		}
	}
	for key := range c.states {
		if key.namespace == namespace {
			delete(c.states, key)
		}
	}
	c.mu.Unlock()

	if err := c.store.ResetNamespace(namespace); err != nil {
		return err
	}
	logging.WithContext(services.WithNamespace(ctx, namespace), c.logger).Info("namespace reset")
	return nil
}

func (c *Coordinator) execute(ctx context.Context, logger *slog.Logger, stage artifacts.Stage, namespace string) error {
	switch stage {
	case artifacts.StageTranscribed:
		return c.runTranscribe(ctx, logger, namespace)
	case artifacts.StageRevised:
		return c.runTextStage(ctx, logger, namespace,
			artifacts.StageTranscribed, artifacts.StageRevised, c.reviser, notes.ColumnRevisedText)
	case artifacts.StageSummarized:
		return c.runTextStage(ctx, logger, namespace,
			artifacts.StageRevised, artifacts.StageSummarized, c.summarizer, notes.ColumnSummarizedText)
	case artifacts.StageSearched:
		return c.runAnalyze(ctx, logger, namespace)
	default:
		return fmt.Errorf("stage %s is not runnable", stage)
	}
}

func (c *Coordinator) runTranscribe(ctx context.Context, logger *slog.Logger, namespace string) error {
	if c.transcriber == nil {
		return services.Wrap(services.ErrProcessorUnavailable, "transcribe", "run", "no transcriber configured", nil)
	}

	segments, err := c.store.ListSegments(namespace)
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return services.Wrap(services.ErrMissingDependency, "transcribe", "inputs",
			fmt.Sprintf("no raw segments for namespace %s", namespace), nil)
	}
	logger.Info("transcribing segments",
		logging.Int("segments", len(segments)),
		logging.Int("workers", c.workers),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.workers)
	for _, segment := range segments {
		segment := segment
		group.Go(func() error {
			fragment, err := c.transcriber.Transcribe(groupCtx, c.store.SegmentPath(namespace, segment))
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(segment, filepath.Ext(segment)) + ".json"
			return c.store.WriteArtifact(artifacts.StageTranscribed, namespace, name, fragment)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	integrated, err := c.aggregator.Integrate(ctx, namespace)
	if err != nil {
		return err
	}
	return c.propagate(ctx, namespace, notes.ColumnTranscribedText, integrated.Text)
}

func (c *Coordinator) runTextStage(
	ctx context.Context,
	logger *slog.Logger,
	namespace string,
	input, output artifacts.Stage,
	processor TextProcessor,
	column string,
) error {
	if processor == nil {
		return services.Wrap(services.ErrProcessorUnavailable, string(output), "run", "no processor configured", nil)
	}

	var source artifacts.Integrated
	if err := c.store.ReadArtifact(input, namespace, artifacts.IntegratedName, &source); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return services.Wrap(services.ErrMissingDependency, string(output), "inputs",
				fmt.Sprintf("stage %s has not produced output for namespace %s", input, namespace), err)
		}
		return err
	}

	processed, err := processor.Process(ctx, source.Text)
	if err != nil {
		return err
	}
	logger.Debug("text stage processed", logging.Int("input_chars", len(source.Text)), logging.Int("output_chars", len(processed)))

	if err := c.store.WriteArtifact(output, namespace, artifacts.IntegratedName, artifacts.Integrated{Text: processed}); err != nil {
		return err
	}
	return c.propagate(ctx, namespace, column, processed)
}

func (c *Coordinator) runAnalyze(ctx context.Context, logger *slog.Logger, namespace string) error {
	if c.analyzer == nil {
		return services.Wrap(services.ErrProcessorUnavailable, "analyze", "run", "no analyzer configured", nil)
	}

	var summary artifacts.Integrated
	if err := c.store.ReadArtifact(artifacts.StageSummarized, namespace, artifacts.IntegratedName, &summary); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return services.Wrap(services.ErrMissingDependency, "analyze", "inputs",
				fmt.Sprintf("stage %s has not produced output for namespace %s", artifacts.StageSummarized, namespace), err)
		}
		return err
	}

	records, err := c.analyzer.Analyze(ctx, summary.Text)
	if err != nil {
		return err
	}
	logger.Info("analysis produced records", logging.Int("records", len(records)))

	if records == nil {
		records = []artifacts.SearchRecord{}
	}
	if err := c.store.WriteArtifact(artifacts.StageSearched, namespace, artifacts.SearchResultsName, records); err != nil {
		return err
	}

	encoded, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode search records: %w", err)
	}
	return c.propagate(ctx, namespace, notes.ColumnSearchedInfo, string(encoded))
}

// propagate stores the stage snapshot on the namespace's registry row,
// creating the row on first contact so the pipeline can run before an
// explicit note exists.
func (c *Coordinator) propagate(ctx context.Context, namespace, column, value string) error {
	if c.registry == nil {
		return nil
	}
	err := c.registry.Update(ctx, namespace, column, value)
	if errors.Is(err, services.ErrNotFound) {
		if _, createErr := c.registry.Create(ctx, namespace, namespace+".md"); createErr != nil {
			return createErr
		}
		err = c.registry.Update(ctx, namespace, column, value)
	}
	return err
}
