package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var knownEngines = map[string]struct{}{
	"small":    {},
	"medium":   {},
	"large":    {},
	"large-v2": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscribe(); err != nil {
		return err
	}
	if err := c.validateAnalyze(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranscribe() error {
	if _, ok := knownEngines[c.Transcribe.EngineName]; !ok {
		return fmt.Errorf("transcribe.engine_name: unknown engine %q (known: small, medium, large, large-v2)", c.Transcribe.EngineName)
	}
	if c.Transcribe.Workers < 1 {
		return errors.New("transcribe.workers must be at least 1")
	}
	return nil
}

func (c *Config) validateAnalyze() error {
	if _, err := language.Parse(c.Analyze.Language); err != nil {
		return fmt.Errorf("analyze.language: invalid language tag %q: %w", c.Analyze.Language, err)
	}
	if c.Analyze.ResultsPerQuery < 1 {
		return errors.New("analyze.results_per_query must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.CapLines < 1 {
		return errors.New("logging.cap_lines must be at least 1")
	}
	if strings.TrimSpace(c.Logging.File) == "" {
		return errors.New("logging.file must be set")
	}
	return nil
}
