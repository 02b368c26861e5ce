package artifacts

// Stage identifies one pipeline step's artifact directory.
type Stage string

const (
	// StageRecorded holds raw audio segments uploaded for a namespace.
	StageRecorded Stage = "recorded"
	// StageTranscribed holds per-segment fragments and the integrated transcript.
	StageTranscribed Stage = "transcribed"
	// StageRevised holds the revised transcript.
	StageRevised Stage = "revised"
	// StageSummarized holds the summary.
	StageSummarized Stage = "summarized"
	// StageSearched holds the enrichment search records.
	StageSearched Stage = "searched"
)

// AllStages returns the stages in pipeline order.
func AllStages() []Stage {
	return []Stage{StageRecorded, StageTranscribed, StageRevised, StageSummarized, StageSearched}
}

// IntegratedName is the artifact name of a stage's namespace-wide document.
const IntegratedName = "integrated.json"

// SearchResultsName is the artifact name of the analyze stage output.
const SearchResultsName = "search_results.json"

// Fragment is a single-segment transcription result. Timestamp orders
// fragments during aggregation and is formatted RFC 3339.
type Fragment struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// Integrated is a namespace-wide merged or derived document.
type Integrated struct {
	Text string `json:"text"`
}

// SearchRecord is one enrichment lookup result from the analyze stage.
type SearchRecord struct {
	Keyword string `json:"keyword"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}
