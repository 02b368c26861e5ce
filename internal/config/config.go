package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	LogDir      string `toml:"log_dir"`
	DatabaseDir string `toml:"database_dir"`
}

// Transcribe contains configuration for the speech-to-text engine.
type Transcribe struct {
	EngineName string `toml:"engine_name"`
	Device     string `toml:"device"`
	Workers    int    `toml:"workers"`
}

// Chat contains connection settings for the chat-completion service used by
// the revise and summarize stages.
type Chat struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	Model           string `toml:"model"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	RevisePrompt    string `toml:"revise_prompt"`
	SummarizePrompt string `toml:"summarize_prompt"`
}

// Analyze contains configuration for noun extraction and web search.
type Analyze struct {
	Language         string `toml:"language"`
	ResultsPerQuery  int    `toml:"results_per_query"`
	ExtractorCommand string `toml:"extractor_command"`
	SearchAPIKey     string `toml:"search_api_key"`
	SearchEngineID   string `toml:"search_engine_id"`
	SearchBaseURL    string `toml:"search_base_url"`
}

// Translate contains configuration for the translation service.
type Translate struct {
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	SourceLang string `toml:"source_lang"`
	TargetLang string `toml:"target_lang"`
}

// Logging contains configuration for log output and retention.
type Logging struct {
	Format   string `toml:"format"`
	Level    string `toml:"level"`
	CapLines int    `toml:"cap_lines"`
	File     string `toml:"file"`
}

// Config encapsulates all configuration values for echonote.
//
// Configuration sections by subsystem:
//   - Paths: artifact, log, and database directories
//   - Transcribe: speech-to-text engine name, device, and fan-out width
//   - Chat: chat-completion connection and stage prompt templates
//   - Analyze: extraction language, search credentials, results per query
//   - Translate: translation service credentials and language pair
//   - Logging: log format, level, and bounded-file retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	Transcribe Transcribe `toml:"transcribe"`
	Chat       Chat       `toml:"chat"`
	Analyze    Analyze    `toml:"analyze"`
	Translate  Translate  `toml:"translate"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/echonote/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("echonote.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for pipeline operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.DatabaseDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogFilePath returns the absolute path of the bounded pipeline log file.
func (c *Config) LogFilePath() string {
	file := strings.TrimSpace(c.Logging.File)
	if file == "" {
		file = "echonote.log"
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.Paths.LogDir, file)
}

// DatabasePath returns the absolute path of the notes registry database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DatabaseDir, "echonote.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
