package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"echonote/internal/analyze"
	"echonote/internal/artifacts"
	"echonote/internal/config"
	"echonote/internal/logging"
	"echonote/internal/notes"
	"echonote/internal/pipeline"
	"echonote/internal/services/chat"
	"echonote/internal/services/nouns"
	"echonote/internal/services/search"
	"echonote/internal/services/whisper"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, _, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// withRegistry opens the note registry for the duration of fn.
func (c *commandContext) withRegistry(fn func(*config.Config, *notes.Registry) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	registry, err := notes.Open(cfg.DatabasePath(), logger)
	if err != nil {
		return err
	}
	defer registry.Close()
	return fn(cfg, registry)
}

// withPipeline wires the full coordinator and holds the run lock so only one
// pipeline invocation touches the data directory at a time.
func (c *commandContext) withPipeline(fn func(*config.Config, *pipeline.Coordinator) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "echonote.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another echonote run is in progress (lock %s)", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	registry, err := notes.Open(cfg.DatabasePath(), logger)
	if err != nil {
		return err
	}
	defer registry.Close()

	coordinator, err := buildCoordinator(cfg, registry, logger)
	if err != nil {
		return err
	}
	return fn(cfg, coordinator)
}

func buildCoordinator(cfg *config.Config, registry *notes.Registry, logger *slog.Logger) (*pipeline.Coordinator, error) {
	store := artifacts.NewStore(cfg.Paths.DataDir, logger)

	engine := whisper.NewEngine(whisper.Config{
		EngineName: cfg.Transcribe.EngineName,
		Device:     cfg.Transcribe.Device,
	})
	if err := engine.Load(); err != nil {
		return nil, err
	}

	chatClient := chat.NewClient(chat.Config{
		APIKey:         cfg.Chat.APIKey,
		BaseURL:        cfg.Chat.BaseURL,
		Model:          cfg.Chat.Model,
		TimeoutSeconds: cfg.Chat.TimeoutSeconds,
	})
	reviser := pipeline.NewPromptProcessor(chatClient, cfg.Chat.RevisePrompt)
	summarizer := pipeline.NewPromptProcessor(chatClient, cfg.Chat.SummarizePrompt)

	extractor := nouns.NewExtractor(nouns.Config{
		Language: cfg.Analyze.Language,
		Binary:   cfg.Analyze.ExtractorCommand,
	})
	searcher := search.NewClient(search.Config{
		APIKey:          cfg.Analyze.SearchAPIKey,
		EngineID:        cfg.Analyze.SearchEngineID,
		BaseURL:         cfg.Analyze.SearchBaseURL,
		ResultsPerQuery: cfg.Analyze.ResultsPerQuery,
	})
	analyzer := analyze.NewAnalyzer(extractor, searcher, logger)

	return pipeline.NewCoordinator(
		pipeline.Config{Workers: cfg.Transcribe.Workers},
		store, registry, engine, reviser, summarizer, analyzer,
		logger,
	), nil
}
