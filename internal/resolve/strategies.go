package resolve

import (
	"strings"
	"unicode"

	"github.com/felixgeelhaar/flowbind/internal/model"
	"github.com/felixgeelhaar/flowbind/internal/similarity"
)

// Confidence assigned by the rule-based strategies
const (
	ConfidenceOperationID    = 1.0
	ConfidenceDeclaredHint   = 0.95
	ConfidenceCustomProperty = 0.9
	// DescriptionWeight scales the best description similarity
	DescriptionWeight = 0.85
)

// Candidate is one strategy's proposal for a task
type Candidate struct {
	Endpoint   model.Endpoint
	Confidence float64
	Strategy   model.Strategy
}

// strategy proposes at most one endpoint for a task
type strategy func(task model.ProcessTask, catalog []model.Endpoint) (Candidate, bool)

// exact matches an operationId against the task id or name (1.0), falling back
// to the task's declared method/path hint (0.95)
func (r *Resolver) exact(task model.ProcessTask, catalog []model.Endpoint) (Candidate, bool) {
	for _, e := range catalog {
		if e.OperationID == "" {
			continue
		}
		if strings.EqualFold(e.OperationID, task.ID) || strings.EqualFold(e.OperationID, task.Name) {
			return Candidate{Endpoint: e, Confidence: ConfidenceOperationID, Strategy: model.StrategyExact}, true
		}
	}

	hint := task.Endpoint
	if hint == nil || hint.Method == "" || hint.Path == "" {
		return Candidate{}, false
	}
	for _, e := range catalog {
		if strings.EqualFold(hint.Method, e.Method) && hint.Path == e.Path {
			return Candidate{Endpoint: e, Confidence: ConfidenceDeclaredHint, Strategy: model.StrategyExact}, true
		}
	}
	return Candidate{}, false
}

// customProperty honours an explicit "METHOD /path" annotation present in the catalog
func (r *Resolver) customProperty(task model.ProcessTask, catalog []model.Endpoint) (Candidate, bool) {
	override, ok := task.EndpointOverride()
	if !ok {
		return Candidate{}, false
	}
	method, path, ok := ParseEndpointRef(override)
	if !ok {
		return Candidate{}, false
	}

	for _, e := range catalog {
		if e.Method == method && e.Path == path {
			return Candidate{Endpoint: e, Confidence: ConfidenceCustomProperty, Strategy: model.StrategyCustomProperty}, true
		}
	}
	return Candidate{}, false
}

// description scores the task text against every endpoint and keeps the best
func (r *Resolver) description(task model.ProcessTask, catalog []model.Endpoint) (Candidate, bool) {
	text := TaskText(task)
	if text == "" {
		return Candidate{}, false
	}

	var best Candidate
	bestScore := 0.0
	for _, e := range catalog {
		if sim := r.scorer.Similarity(text, e.ComposedText); sim > bestScore {
			bestScore = sim
			best = Candidate{Endpoint: e, Confidence: sim * DescriptionWeight, Strategy: model.StrategyDescription}
		}
	}
	return best, bestScore > 0
}

// semantic picks the most similar endpoint and keeps it only above the semantic floor
func (r *Resolver) semantic(task model.ProcessTask, catalog []model.Endpoint) (Candidate, bool) {
	text := TaskText(task)
	if text == "" || len(catalog) == 0 {
		return Candidate{}, false
	}

	candidates := make([]similarity.Candidate, len(catalog))
	index := make(map[string]model.Endpoint, len(catalog))
	for i, e := range catalog {
		key := e.Path + ":" + e.Method
		candidates[i] = similarity.Candidate{Key: key, Text: e.ComposedText}
		if _, ok := index[key]; !ok {
			index[key] = e
		}
	}

	match, ok := r.scorer.MostSimilar(text, candidates)
	if !ok || match.Score < r.thresholds.SemanticMatch {
		return Candidate{}, false
	}
	e, ok := index[match.Key]
	if !ok {
		return Candidate{}, false
	}
	return Candidate{Endpoint: e, Confidence: match.Score, Strategy: model.StrategySemantic}, true
}

// TaskText joins the task name, description and hint description for scoring
func TaskText(task model.ProcessTask) string {
	parts := make([]string, 0, 3)
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	add(task.Name)
	add(task.Description)
	if task.Endpoint != nil {
		add(task.Endpoint.Description)
	}
	return strings.Join(parts, " ")
}

// ParseEndpointRef splits "METHOD /path" into an upper-cased method and a path
func ParseEndpointRef(ref string) (method, path string, ok bool) {
	ref = strings.TrimSpace(ref)
	idx := strings.IndexFunc(ref, unicode.IsSpace)
	if idx <= 0 {
		return "", "", false
	}
	method = strings.ToUpper(ref[:idx])
	path = strings.TrimSpace(ref[idx:])
	if path == "" {
		return "", "", false
	}
	return method, path, true
}
