package config

const (
	defaultDataDir          = "~/.local/share/echonote/data"
	defaultLogDir           = "~/.local/share/echonote/logs"
	defaultDatabaseDir      = "~/.local/share/echonote/db"
	defaultEngineName       = "small"
	defaultDevice           = "cpu"
	defaultTranscribeWork   = 2
	defaultChatBaseURL      = "https://api.openai.com/v1/chat/completions"
	defaultChatModel        = "gpt-4o-mini"
	defaultChatTimeout      = 120
	defaultAnalyzeLanguage  = "ja"
	defaultResultsPerQuery  = 3
	defaultExtractorCommand = "echonote-nouns"
	defaultSearchBaseURL    = "https://www.googleapis.com/customsearch/v1"
	defaultTranslateBaseURL = "https://api-free.deepl.com/v2/translate"
	defaultSourceLang       = "JA"
	defaultTargetLang       = "EN"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogCapLines      = 1000
	defaultLogFile          = "echonote.log"

	defaultRevisePrompt    = "以下の文章の文法をチェックして、見やすくして適宜に改行入れて出力してください。\n{{text}}\n出力:"
	defaultSummarizePrompt = "以下の内容を短く要約して下さい。\n{{text}}"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			DatabaseDir: defaultDatabaseDir,
		},
		Transcribe: Transcribe{
			EngineName: defaultEngineName,
			Device:     defaultDevice,
			Workers:    defaultTranscribeWork,
		},
		Chat: Chat{
			BaseURL:         defaultChatBaseURL,
			Model:           defaultChatModel,
			TimeoutSeconds:  defaultChatTimeout,
			RevisePrompt:    defaultRevisePrompt,
			SummarizePrompt: defaultSummarizePrompt,
		},
		Analyze: Analyze{
			Language:         defaultAnalyzeLanguage,
			ResultsPerQuery:  defaultResultsPerQuery,
			ExtractorCommand: defaultExtractorCommand,
			SearchBaseURL:    defaultSearchBaseURL,
		},
		Translate: Translate{
			BaseURL:    defaultTranslateBaseURL,
			SourceLang: defaultSourceLang,
			TargetLang: defaultTargetLang,
		},
		Logging: Logging{
			Format:   defaultLogFormat,
			Level:    defaultLogLevel,
			CapLines: defaultLogCapLines,
			File:     defaultLogFile,
		},
	}
}
