package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscribe()
	c.normalizeChat()
	c.normalizeAnalyze()
	c.normalizeTranslate()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabaseDir) == "" {
		c.Paths.DatabaseDir = defaultDatabaseDir
	}
	if c.Paths.DatabaseDir, err = expandPath(c.Paths.DatabaseDir); err != nil {
		return fmt.Errorf("paths.database_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscribe() {
	c.Transcribe.EngineName = strings.TrimSpace(c.Transcribe.EngineName)
	if c.Transcribe.EngineName == "" {
		c.Transcribe.EngineName = defaultEngineName
	}
	c.Transcribe.Device = strings.TrimSpace(c.Transcribe.Device)
	if c.Transcribe.Device == "" {
		c.Transcribe.Device = defaultDevice
	}
	if c.Transcribe.Workers <= 0 {
		c.Transcribe.Workers = defaultTranscribeWork
	}
}

func (c *Config) normalizeChat() {
	if c.Chat.APIKey == "" {
		if value, ok := os.LookupEnv("ECHONOTE_CHAT_API_KEY"); ok {
			c.Chat.APIKey = value
		}
	}
	c.Chat.BaseURL = strings.TrimSpace(c.Chat.BaseURL)
	if c.Chat.BaseURL == "" {
		c.Chat.BaseURL = defaultChatBaseURL
	}
	c.Chat.Model = strings.TrimSpace(c.Chat.Model)
	if c.Chat.Model == "" {
		c.Chat.Model = defaultChatModel
	}
	if c.Chat.TimeoutSeconds <= 0 {
		c.Chat.TimeoutSeconds = defaultChatTimeout
	}
	if strings.TrimSpace(c.Chat.RevisePrompt) == "" {
		c.Chat.RevisePrompt = defaultRevisePrompt
	}
	if strings.TrimSpace(c.Chat.SummarizePrompt) == "" {
		c.Chat.SummarizePrompt = defaultSummarizePrompt
	}
}

func (c *Config) normalizeAnalyze() {
	if c.Analyze.SearchAPIKey == "" {
		if value, ok := os.LookupEnv("ECHONOTE_SEARCH_API_KEY"); ok {
			c.Analyze.SearchAPIKey = value
		}
	}
	if c.Analyze.SearchEngineID == "" {
		if value, ok := os.LookupEnv("ECHONOTE_SEARCH_ENGINE_ID"); ok {
			c.Analyze.SearchEngineID = value
		}
	}
	c.Analyze.Language = strings.TrimSpace(c.Analyze.Language)
	if c.Analyze.Language == "" {
		c.Analyze.Language = defaultAnalyzeLanguage
	}
	if c.Analyze.ResultsPerQuery <= 0 {
		c.Analyze.ResultsPerQuery = defaultResultsPerQuery
	}
	c.Analyze.ExtractorCommand = strings.TrimSpace(c.Analyze.ExtractorCommand)
	if c.Analyze.ExtractorCommand == "" {
		c.Analyze.ExtractorCommand = defaultExtractorCommand
	}
	c.Analyze.SearchBaseURL = strings.TrimSpace(c.Analyze.SearchBaseURL)
	if c.Analyze.SearchBaseURL == "" {
		c.Analyze.SearchBaseURL = defaultSearchBaseURL
	}
}

func (c *Config) normalizeTranslate() {
	if c.Translate.APIKey == "" {
		if value, ok := os.LookupEnv("ECHONOTE_TRANSLATE_API_KEY"); ok {
			c.Translate.APIKey = value
		}
	}
	c.Translate.BaseURL = strings.TrimSpace(c.Translate.BaseURL)
	if c.Translate.BaseURL == "" {
		c.Translate.BaseURL = defaultTranslateBaseURL
	}
	c.Translate.SourceLang = strings.ToUpper(strings.TrimSpace(c.Translate.SourceLang))
	if c.Translate.SourceLang == "" {
		c.Translate.SourceLang = defaultSourceLang
	}
	c.Translate.TargetLang = strings.ToUpper(strings.TrimSpace(c.Translate.TargetLang))
	if c.Translate.TargetLang == "" {
		c.Translate.TargetLang = defaultTargetLang
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.CapLines <= 0 {
		c.Logging.CapLines = defaultLogCapLines
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File == "" {
		c.Logging.File = defaultLogFile
	}
}
