package notes

import (
	"strings"
	"time"
)

// Note is a registry row summarizing the latest state of a namespace across
// all stages. Title and NotePath are unique.
type Note struct {
	ID              int64
	Title           string
	NotePath        string
	TranscribedText string
	RevisedText     string
	SummarizedText  string
	SearchedInfo    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// VocabEntry is one collected word from the translation side-pipeline.
type VocabEntry struct {
	ID        int64
	Word      string
	Frequency int
	ExTexts   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Column names accepted by Registry.Update.
const (
	ColumnTranscribedText = "transcribed_text"
	ColumnRevisedText     = "revised_text"
	ColumnSummarizedText  = "summarized_text"
	ColumnSearchedInfo    = "searched_info"
	ColumnUpdatedAt       = "updated_at"
)

var updatableColumns = map[string]struct{}{
	ColumnTranscribedText: {},
	ColumnRevisedText:     {},
	ColumnSummarizedText:  {},
	ColumnSearchedInfo:    {},
	ColumnUpdatedAt:       {},
}

// ParseColumn normalizes a column name and reports whether Update accepts it.
func ParseColumn(value string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	_, ok := updatableColumns[normalized]
	return normalized, ok
}
