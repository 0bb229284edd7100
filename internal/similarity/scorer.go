// Package similarity scores text similarity with a pair-local TF-IDF cosine model.
//
// Document frequencies are computed over the two compared texts only, so the
// scorer carries no index and every call is independent of every other call.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLength is the shortest token kept after tokenization
const minTokenLength = 3

// synonyms folds a few domain words onto a shared term before weighting
var synonyms = map[string]string{
	"авторизация": "аутентификация",
	"логин":       "аутентификация",
	"вход":        "аутентификация",
	"получение":   "get",
	"создание":    "create",
}

// Candidate is one keyed text considered by MostSimilar
type Candidate struct {
	Key  string
	Text string
}

// Match is the best candidate found by MostSimilar
type Match struct {
	Key   string
	Score float64
}

// Scorer computes bounded similarity scores between texts. The zero value is ready to use.
type Scorer struct{}

// NewScorer creates a scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Similarity returns a score in [0, 1]; 1.0 means the normalized texts are identical
func (s *Scorer) Similarity(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)
	if na != "" && na == nb {
		return 1.0
	}

	ta := tokenize(na)
	tb := tokenize(nb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	df := documentFrequency(ta, tb)
	return cosine(tfidf(ta, df), tfidf(tb, df))
}

// MostSimilar scans candidates in slice order and returns the strictly best one.
// Ties keep the candidate seen first. ok is false when there are no candidates.
func (s *Scorer) MostSimilar(query string, candidates []Candidate) (Match, bool) {
	if len(candidates) == 0 {
		return Match{}, false
	}

	best := Match{Score: -1}
	for _, c := range candidates {
		score := s.Similarity(query, c.Text)
		if score > best.Score {
			best = Match{Key: c.Key, Score: score}
		}
	}
	return best, true
}

// Normalize lowercases text, turns every rune that is not a letter, digit or
// whitespace into a space, collapses whitespace runs and trims
func Normalize(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}

func tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenLength {
			continue
		}
		if mapped, ok := synonyms[f]; ok {
			f = mapped
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// documentFrequency counts, per term, how many of the two token lists contain it
func documentFrequency(docs ...[]string) map[string]int {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	return df
}

func tfidf(tokens []string, df map[string]int) map[string]float64 {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}

	const docCount = 2.0
	vec := make(map[string]float64, len(counts))
	for term, n := range counts {
		tf := float64(n) / float64(len(tokens))
		idf := math.Log(docCount/float64(df[term]+1)) + 1
		vec[term] = tf * idf
	}
	return vec
}

// cosine sums over the sorted union of keys so that swapping the operands
// yields a bit-identical result
func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var dot, normA, normB float64
	for _, k := range keys {
		va, vb := a[k], b[k]
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(0, math.Min(1, score))
}
