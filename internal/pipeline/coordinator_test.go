package pipeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echonote/internal/artifacts"
	"echonote/internal/logging"
	"echonote/internal/notes"
	"echonote/internal/pipeline"
	"echonote/internal/services"
	"echonote/internal/testsupport"
)

type fakeTranscriber struct {
	mu        sync.Mutex
	fragments map[string]artifacts.Fragment
	err       error
	inFlight  atomic.Int32
	maxSeen   atomic.Int32
	started   chan struct{}
	release   chan struct{}
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (artifacts.Fragment, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if current <= seen || f.maxSeen.CompareAndSwap(seen, current) {
			break
		}
	}
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return artifacts.Fragment{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fragment, ok := f.fragments[filepath.Base(audioPath)]
	if !ok {
		return artifacts.Fragment{}, errors.New("unexpected segment " + audioPath)
	}
	return fragment, nil
}

type fakeText struct {
	fn func(string) (string, error)
}

func (f *fakeText) Process(ctx context.Context, text string) (string, error) {
	return f.fn(text)
}

type fakeAnalyzer struct {
	records []artifacts.SearchRecord
	err     error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) ([]artifacts.SearchRecord, error) {
	return f.records, f.err
}

type fixture struct {
	store       *artifacts.Store
	registry    *notes.Registry
	coordinator *pipeline.Coordinator
}

func newFixture(t *testing.T, workers int, transcriber pipeline.Transcriber, reviser, summarizer pipeline.TextProcessor, analyzer pipeline.Analyzer) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(workers))
	store := testsupport.NewStore(t, cfg)
	registry := testsupport.MustOpenRegistry(t, cfg)
	coordinator := pipeline.NewCoordinator(
		pipeline.Config{Workers: cfg.Transcribe.Workers},
		store, registry, transcriber, reviser, summarizer, analyzer,
		logging.NewNop(),
	)
	return &fixture{store: store, registry: registry, coordinator: coordinator}
}

func TestTranscribeOrdersByTimestampNotFilename(t *testing.T) {
	transcriber := &fakeTranscriber{fragments: map[string]artifacts.Fragment{
		"a.wav": {Text: "world", Timestamp: "2024-01-01T00:00:01Z", Source: "a.wav"},
		"b.wav": {Text: "hello", Timestamp: "2024-01-01T00:00:00Z", Source: "b.wav"},
	}}
	fix := newFixture(t, 2, transcriber, nil, nil, nil)
	testsupport.SeedSegment(t, fix.store, "session1", "a.wav", []byte("RIFF"))
	testsupport.SeedSegment(t, fix.store, "session1", "b.wav", []byte("RIFF"))

	require.NoError(t, fix.coordinator.RunStage(context.Background(), artifacts.StageTranscribed, "session1"))

	var integrated artifacts.Integrated
	require.NoError(t, fix.store.ReadArtifact(artifacts.StageTranscribed, "session1", artifacts.IntegratedName, &integrated))
	assert.Equal(t, "hello。world。", integrated.Text)

	note, err := fix.registry.Get(context.Background(), "session1")
	require.NoError(t, err)
	assert.Equal(t, "hello。world。", note.TranscribedText)

	assert.Equal(t, pipeline.StatusDone, fix.coordinator.Status("session1", artifacts.StageTranscribed))
}

func TestTranscribeNoSegmentsIsMissingDependency(t *testing.T) {
	fix := newFixture(t, 2, &fakeTranscriber{}, nil, nil, nil)

	err := fix.coordinator.RunStage(context.Background(), artifacts.StageTranscribed, "empty")
	assert.True(t, errors.Is(err, services.ErrMissingDependency))
	assert.Equal(t, pipeline.StatusFailed, fix.coordinator.Status("empty", artifacts.StageTranscribed))
}

func TestTranscribeRespectsWorkerLimit(t *testing.T) {
	transcriber := &fakeTranscriber{fragments: map[string]artifacts.Fragment{}}
	fix := newFixture(t, 2, transcriber, nil, nil, nil)
	for _, name := range []string{"a.wav", "b.wav", "c.wav", "d.wav", "e.wav"} {
		transcriber.mu.Lock()
		transcriber.fragments[name] = artifacts.Fragment{
			Text: name, Timestamp: "2024-01-01T00:00:00Z", Source: name,
		}
		transcriber.mu.Unlock()
		testsupport.SeedSegment(t, fix.store, "bulk", name, []byte("RIFF"))
	}

	require.NoError(t, fix.coordinator.RunStage(context.Background(), artifacts.StageTranscribed, "bulk"))
	assert.LessOrEqual(t, transcriber.maxSeen.Load(), int32(2))
}

func TestTranscribeFailureMarksStageFailed(t *testing.T) {
	transcriber := &fakeTranscriber{err: services.Wrap(services.ErrUpstream, "transcribe", "run", "engine crashed", nil)}
	fix := newFixture(t, 2, transcriber, nil, nil, nil)
	testsupport.SeedSegment(t, fix.store, "session1", "a.wav", []byte("RIFF"))

	err := fix.coordinator.RunStage(context.Background(), artifacts.StageTranscribed, "session1")
	assert.True(t, errors.Is(err, services.ErrUpstream))
	assert.Equal(t, pipeline.StatusFailed, fix.coordinator.Status("session1", artifacts.StageTranscribed))
}

func TestReviseBeforeTranscribeIsMissingDependency(t *testing.T) {
	reviser := &fakeText{fn: func(text string) (string, error) { return text, nil }}
	fix := newFixture(t, 2, nil, reviser, nil, nil)

	err := fix.coordinator.RunStage(context.Background(), artifacts.StageRevised, "session1")
	assert.True(t, errors.Is(err, services.ErrMissingDependency))
}

func TestReviseWritesArtifactAndSnapshot(t *testing.T) {
	reviser := &fakeText{fn: func(text string) (string, error) {
		return strings.ToUpper(text), nil
	}}
	fix := newFixture(t, 2, nil, reviser, nil, nil)
	require.NoError(t, fix.store.WriteArtifact(
		artifacts.StageTranscribed, "session1", artifacts.IntegratedName,
		artifacts.Integrated{Text: "rough draft。"},
	))

	require.NoError(t, fix.coordinator.RunStage(context.Background(), artifacts.StageRevised, "session1"))

	var revised artifacts.Integrated
	require.NoError(t, fix.store.ReadArtifact(artifacts.StageRevised, "session1", artifacts.IntegratedName, &revised))
	assert.Equal(t, "ROUGH DRAFT。", revised.Text)

	note, err := fix.registry.Get(context.Background(), "session1")
	require.NoError(t, err)
	assert.Equal(t, "ROUGH DRAFT。", note.RevisedText)
}

func TestAnalyzeWritesRecordsAndSnapshot(t *testing.T) {
	analyzer := &fakeAnalyzer{records: []artifacts.SearchRecord{
		{Keyword: "go", Title: "The Go Programming Language", URL: "https://go.dev"},
	}}
	fix := newFixture(t, 2, nil, nil, nil, analyzer)
	require.NoError(t, fix.store.WriteArtifact(
		artifacts.StageSummarized, "session1", artifacts.IntegratedName,
		artifacts.Integrated{Text: "a summary about go"},
	))

	require.NoError(t, fix.coordinator.RunStage(context.Background(), artifacts.StageSearched, "session1"))

	var records []artifacts.SearchRecord
	require.NoError(t, fix.store.ReadArtifact(artifacts.StageSearched, "session1", artifacts.SearchResultsName, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "go", records[0].Keyword)

	note, err := fix.registry.Get(context.Background(), "session1")
	require.NoError(t, err)
	assert.Contains(t, note.SearchedInfo, "https://go.dev")
}

func TestNoStageOverlapWithinNamespace(t *testing.T) {
	transcriber := &fakeTranscriber{
		fragments: map[string]artifacts.Fragment{
			"a.wav": {Text: "hello", Timestamp: "2024-01-01T00:00:00Z", Source: "a.wav"},
		},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	fix := newFixture(t, 1, transcriber, &fakeText{fn: func(s string) (string, error) { return s, nil }}, nil, nil)
	testsupport.SeedSegment(t, fix.store, "session1", "a.wav", []byte("RIFF"))

	done := make(chan error, 1)
	go func() {
		done <- fix.coordinator.RunStage(context.Background(), artifacts.StageTranscribed, "session1")
	}()
	<-transcriber.started

	err := fix.coordinator.RunStage(context.Background(), artifacts.StageRevised, "session1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	close(transcriber.release)
	require.NoError(t, <-done)
}

func TestRunAllStopsAtFirstFailure(t *testing.T) {
	transcriber := &fakeTranscriber{fragments: map[string]artifacts.Fragment{
		"a.wav": {Text: "hello", Timestamp: "2024-01-01T00:00:00Z", Source: "a.wav"},
	}}
	reviser := &fakeText{fn: func(string) (string, error) {
		return "", services.Wrap(services.ErrUpstream, "revise", "complete", "rate limited", nil)
	}}
	summarizer := &fakeText{fn: func(string) (string, error) {
		t.Fatal("summarize must not run after revise fails")
		return "", nil
	}}
	fix := newFixture(t, 2, transcriber, reviser, summarizer, nil)
	testsupport.SeedSegment(t, fix.store, "session1", "a.wav", []byte("RIFF"))

	err := fix.coordinator.RunAll(context.Background(), "session1")
	assert.True(t, errors.Is(err, services.ErrUpstream))
	assert.Equal(t, pipeline.StatusDone, fix.coordinator.Status("session1", artifacts.StageTranscribed))
	assert.Equal(t, pipeline.StatusFailed, fix.coordinator.Status("session1", artifacts.StageRevised))
	assert.Equal(t, pipeline.StatusIdle, fix.coordinator.Status("session1", artifacts.StageSummarized))
}

func TestRerunAfterFailureSucceeds(t *testing.T) {
	var failFirst atomic.Bool
	failFirst.Store(true)
	reviser := &fakeText{fn: func(text string) (string, error) {
		if failFirst.Swap(false) {
			return "", services.Wrap(services.ErrUpstream, "revise", "complete", "transient", nil)
		}
		return text + " polished", nil
	}}
	fix := newFixture(t, 2, nil, reviser, nil, nil)
	require.NoError(t, fix.store.WriteArtifact(
		artifacts.StageTranscribed, "session1", artifacts.IntegratedName,
		artifacts.Integrated{Text: "draft"},
	))

	require.Error(t, fix.coordinator.RunStage(context.Background(), artifacts.StageRevised, "session1"))
	require.NoError(t, fix.coordinator.RunStage(context.Background(), artifacts.StageRevised, "session1"))

	var revised artifacts.Integrated
	require.NoError(t, fix.store.ReadArtifact(artifacts.StageRevised, "session1", artifacts.IntegratedName, &revised))
	assert.Equal(t, "draft polished", revised.Text)
}

func TestResetClearsSegmentsAndStates(t *testing.T) {
	transcriber := &fakeTranscriber{fragments: map[string]artifacts.Fragment{
		"a.wav": {Text: "hello", Timestamp: "2024-01-01T00:00:00Z", Source: "a.wav"},
	}}
	fix := newFixture(t, 2, transcriber, nil, nil, nil)
	testsupport.SeedSegment(t, fix.store, "session1", "a.wav", []byte("RIFF"))

	require.NoError(t, fix.coordinator.RunStage(context.Background(), artifacts.StageTranscribed, "session1"))
	require.NoError(t, fix.coordinator.Reset(context.Background(), "session1"))

	segments, err := fix.store.ListSegments("session1")
	require.NoError(t, err)
	assert.Empty(t, segments)
	assert.Equal(t, pipeline.StatusIdle, fix.coordinator.Status("session1", artifacts.StageTranscribed))
}

func TestNamespacesRunIndependently(t *testing.T) {
	transcriber := &fakeTranscriber{fragments: map[string]artifacts.Fragment{
		"a.wav": {Text: "hello", Timestamp: "2024-01-01T00:00:00Z", Source: "a.wav"},
	}}
	fix := newFixture(t, 2, transcriber, nil, nil, nil)
	testsupport.SeedSegment(t, fix.store, "one", "a.wav", []byte("RIFF"))
	testsupport.SeedSegment(t, fix.store, "two", "a.wav", []byte("RIFF"))

	require.NoError(t, fix.coordinator.RunStage(context.Background(), artifacts.StageTranscribed, "one"))
	require.NoError(t, fix.coordinator.RunStage(context.Background(), artifacts.StageTranscribed, "two"))

	var one, two artifacts.Integrated
	require.NoError(t, fix.store.ReadArtifact(artifacts.StageTranscribed, "one", artifacts.IntegratedName, &one))
	require.NoError(t, fix.store.ReadArtifact(artifacts.StageTranscribed, "two", artifacts.IntegratedName, &two))
	assert.Equal(t, one.Text, two.Text)
}
