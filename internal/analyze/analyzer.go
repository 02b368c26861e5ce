// Package analyze extracts noun-phrase keywords from summary text, ranks
// them by TF-IDF, and enriches the top picks through an external search
// lookup. Extraction and search are injected capabilities; scoring and
// selection are the logic that lives here.
package analyze

import (
	"context"
	"log/slog"
	"strings"

	"echonote/internal/artifacts"
	"echonote/internal/logging"
	"echonote/internal/services"
)

// topKeywords is how many ranked phrases get an external lookup.
const topKeywords = 3

// Extractor produces noun-phrase candidates from text. Implementations tag
// the text with the configured language model before chunking.
type Extractor interface {
	ExtractNouns(ctx context.Context, text string) ([]string, error)
}

// Searcher looks up one keyword and returns enrichment records.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]artifacts.SearchRecord, error)
}

// Analyzer runs the full extract-rank-lookup sequence over one text.
type Analyzer struct {
	extractor Extractor
	searcher  Searcher
	logger    *slog.Logger
}

// NewAnalyzer wires an analyzer from its collaborators.
func NewAnalyzer(extractor Extractor, searcher Searcher, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		extractor: extractor,
		searcher:  searcher,
		logger:    logging.NewComponentLogger(logger, "analyze"),
	}
}

// Analyze extracts candidates from the text, selects the top-ranked
// keywords, and issues one lookup per keyword. Records are concatenated
// unfiltered in selection order. Lookup failures abort the run; no retries.
func (a *Analyzer) Analyze(ctx context.Context, text string) ([]artifacts.SearchRecord, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.Wrap(services.ErrInvalidInput, "analyze", "extract", "empty text", nil)
	}

	phrases, err := a.extractor.ExtractNouns(ctx, text)
	if err != nil {
		return nil, err
	}
	keywords := SelectKeywords(text, phrases, topKeywords)
	a.logger.Info("keywords selected",
		logging.Int("candidates", len(phrases)),
		logging.String("keywords", strings.Join(keywords, ", ")),
	)

	var records []artifacts.SearchRecord
	for _, keyword := range keywords {
		found, err := a.searcher.Search(ctx, keyword)
		if err != nil {
			return nil, err
		}
		records = append(records, found...)
	}
	return records, nil
}
