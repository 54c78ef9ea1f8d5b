// Keyword suggestion mining: frequency analysis of recently ingested article
// titles, proposing single words and adjacent word pairs not already tracked.
package suggest

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Suggestion types.
const (
	TypeWord = "word"
	TypePair = "pair"
)

// Suggestion is a mined keyword candidate with its occurrence count.
type Suggestion struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
	Type    string `json:"type"`
}

// Config makes the mining thresholds and window explicit rather than
// hard-coded, so synthetic data can exercise them.
type Config struct {
	StopWords      []string
	MinWordLen     int // single-word tokens must be longer than this
	MinPairWordLen int // pair members must be longer than this
	WordThreshold  int // minimum occurrences for a word candidate
	PairThreshold  int // minimum occurrences for a pair candidate
	TopN           int // candidates kept per type
	Window         time.Duration
}

// DefaultConfig mirrors the production deployment: Turkish function words,
// a trailing 24-hour window, and the 3/2 occurrence thresholds.
func DefaultConfig() Config {
	return Config{
		StopWords: []string{
			"bir", "ve", "bu", "da", "de", "ile", "mi", "mu", "ne", "o",
			"en", "son", "gibi", "icin", "olan", "oldu", "var", "ise",
			"kadar", "daha", "cok", "her", "ama", "ancak", "ya", "ki",
		},
		MinWordLen:     3,
		MinPairWordLen: 2,
		WordThreshold:  3,
		PairThreshold:  2,
		TopN:           10,
		Window:         24 * time.Hour,
	}
}

// Mine computes keyword candidates from an ordered sequence of titles.
// Candidates already present in existing (normalized form) are excluded.
// Single-word suggestions come first, then pairs; each group is ordered by
// count descending with lexicographic tie-breaking.
func Mine(titles []string, existing map[string]struct{}, cfg Config) []Suggestion {
	stop := make(map[string]struct{}, len(cfg.StopWords))
	for _, w := range cfg.StopWords {
		stop[w] = struct{}{}
	}

	wordFreq := make(map[string]int)
	pairFreq := make(map[string]int)

	for _, title := range titles {
		words := strings.Fields(strings.ToLower(title))

		for _, w := range words {
			// Length thresholds count characters, not bytes; Turkish
			// letters like ç and ğ are multibyte.
			if utf8.RuneCountInString(w) <= cfg.MinWordLen {
				continue
			}
			if _, ok := stop[w]; ok {
				continue
			}
			if _, ok := existing[w]; ok {
				continue
			}
			wordFreq[w]++
		}

		// Pairs use a looser length threshold so short words can still
		// anchor a meaningful bigram.
		var pairWords []string
		for _, w := range words {
			if utf8.RuneCountInString(w) <= cfg.MinPairWordLen {
				continue
			}
			if _, ok := stop[w]; ok {
				continue
			}
			pairWords = append(pairWords, w)
		}
		for i := 0; i+1 < len(pairWords); i++ {
			pair := pairWords[i] + " " + pairWords[i+1]
			if _, ok := existing[pair]; ok {
				continue
			}
			pairFreq[pair]++
		}
	}

	suggestions := topCandidates(wordFreq, cfg.WordThreshold, cfg.TopN, TypeWord)
	suggestions = append(suggestions, topCandidates(pairFreq, cfg.PairThreshold, cfg.TopN, TypePair)...)
	return suggestions
}

func topCandidates(freq map[string]int, threshold, topN int, kind string) []Suggestion {
	candidates := make([]Suggestion, 0, len(freq))
	for kw, count := range freq {
		if count >= threshold {
			candidates = append(candidates, Suggestion{Keyword: kw, Count: count, Type: kind})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Count != candidates[j].Count {
			return candidates[i].Count > candidates[j].Count
		}
		return candidates[i].Keyword < candidates[j].Keyword
	})
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}
