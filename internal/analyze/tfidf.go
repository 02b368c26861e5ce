package analyze

import (
	"math"
	"sort"
	"strings"
)

// candidate is one distinct noun phrase with its occurrence statistics.
type candidate struct {
	term      string
	count     int
	firstSeen int
	score     float64
}

// splitSentences breaks analyzed text into the documents used for inverse
// document frequency. Japanese and Latin sentence terminators both split.
func splitSentences(text string) []string {
	splitter := func(r rune) bool {
		switch r {
		case '。', '.', '!', '?', '！', '？', '\n':
			return true
		}
		return false
	}
	var sentences []string
	for _, part := range strings.FieldsFunc(text, splitter) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

// scoreCandidates ranks distinct phrases from the extractor output by
// term frequency times inverse document frequency. Frequency comes from the
// extractor's phrase sequence; document frequency counts the sentences of the
// text containing the phrase. A higher occurrence count always outranks a
// lower one, and equal scores keep first-seen order.
func scoreCandidates(text string, phrases []string) []candidate {
	var (
		order     []string
		byTerm    = make(map[string]*candidate)
		sentences = splitSentences(text)
		totalDocs = len(sentences)
	)
	for _, phrase := range phrases {
		term := strings.TrimSpace(phrase)
		if term == "" {
			continue
		}
		if existing, ok := byTerm[term]; ok {
			existing.count++
			continue
		}
		byTerm[term] = &candidate{term: term, count: 1, firstSeen: len(order)}
		order = append(order, term)
	}

	result := make([]candidate, 0, len(order))
	for _, term := range order {
		cand := byTerm[term]
		df := 0
		for _, sentence := range sentences {
			if strings.Contains(sentence, term) {
				df++
			}
		}
		if df == 0 {
			df = 1
		}
		docs := totalDocs
		if docs == 0 {
			docs = 1
		}
		cand.score = float64(cand.count) * (1 + math.Log(float64(docs)/float64(df)))
		result = append(result, *cand)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].score > result[j].score
	})
	return result
}

// SelectKeywords returns the topK phrases from the extractor output ranked by
// TF-IDF over the text, ties broken by first-seen order.
func SelectKeywords(text string, phrases []string, topK int) []string {
	ranked := scoreCandidates(text, phrases)
	if topK > len(ranked) {
		topK = len(ranked)
	}
	keywords := make([]string, 0, topK)
	for _, cand := range ranked[:topK] {
		keywords = append(keywords, cand.term)
	}
	return keywords
}
