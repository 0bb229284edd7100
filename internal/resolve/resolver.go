// Package resolve binds process tasks to catalog endpoints.
//
// Each task runs through an ordered cascade of strategies (EXACT, CUSTOM_PROPERTY,
// DESCRIPTION, SEMANTIC). An EXACT hit at or above the exact threshold is accepted
// immediately; otherwise the highest-confidence candidate wins, provided it clears
// the minimum confidence. Resolution is greedy per task and endpoints may be reused.
package resolve

import (
	"fmt"
	"sort"

	"github.com/felixgeelhaar/flowbind/internal/log"
	"github.com/felixgeelhaar/flowbind/internal/model"
	"github.com/felixgeelhaar/flowbind/internal/similarity"
)

// Recommendation tiers attached to accepted mappings
const (
	RecommendationHigh   = "high confidence"
	RecommendationMedium = "medium confidence, verify manually"
	RecommendationLow    = "low confidence, manual review required"
)

// NoSimilarEndpoint is the single recommendation of a task with no close endpoint
const NoSimilarEndpoint = "no similar endpoint found"

const (
	// maxRecommendations bounds the suggestions listed for an unmatched task
	maxRecommendations = 3
	// recommendationFloor is the similarity an endpoint must exceed to be suggested
	recommendationFloor = 0.3
)

// Scorer is the text similarity model used by the resolver
type Scorer interface {
	Similarity(a, b string) float64
	MostSimilar(query string, candidates []similarity.Candidate) (similarity.Match, bool)
}

// Resolver runs the strategy cascade for every task of a process
type Resolver struct {
	scorer     Scorer
	thresholds model.Thresholds
	logger     *log.Logger
	strategies []strategy
}

// Option configures a Resolver
type Option func(*Resolver)

// WithThresholds overrides the default thresholds
func WithThresholds(t model.Thresholds) Option {
	return func(r *Resolver) { r.thresholds = t }
}

// WithLogger sets the logger used for per-task traces
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithScorer replaces the similarity model
func WithScorer(s Scorer) Option {
	return func(r *Resolver) { r.scorer = s }
}

// NewResolver creates a resolver with the stock scorer and thresholds
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		scorer:     similarity.NewScorer(),
		thresholds: model.DefaultThresholds(),
		logger:     log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.strategies = []strategy{r.exact, r.customProperty, r.description, r.semantic}
	return r
}

// Thresholds returns the thresholds in effect
func (r *Resolver) Thresholds() model.Thresholds {
	return r.thresholds
}

// Resolve maps every task onto the catalog. The returned result has no data-flow
// edges; those are inferred separately from the mappings.
func (r *Resolver) Resolve(tasks []model.ProcessTask, catalog []model.Endpoint) model.MappingResult {
	result := model.MappingResult{
		TaskMappings:   make(map[string]model.TaskEndpointMapping),
		DataFlowEdges:  []model.DataFlowEdge{},
		UnmatchedTasks: []model.UnmatchedElement{},
		TotalEndpoints: len(catalog),
	}

	seen := make(map[string]struct{}, len(tasks))
	usedEndpoints := make(map[string]struct{})
	confidences := make([]float64, 0, len(tasks))

	for _, task := range tasks {
		if _, dup := seen[task.ID]; dup {
			r.logger.Warn("duplicate task id ignored", "task_id", task.ID, "task_name", task.Name)
			continue
		}
		seen[task.ID] = struct{}{}

		best, ok := r.resolveTask(task, catalog)
		if ok && best.Confidence >= r.thresholds.MinConfidence {
			result.TaskMappings[task.ID] = newMapping(task, best)
			usedEndpoints[best.Endpoint.Key()] = struct{}{}
			confidences = append(confidences, best.Confidence)
			r.logger.Debug("task resolved",
				"task_id", task.ID,
				"endpoint", best.Endpoint.Method+" "+best.Endpoint.Path,
				"strategy", string(best.Strategy),
				"confidence", best.Confidence)
			continue
		}

		unmatched := r.unmatched(task, catalog)
		result.UnmatchedTasks = append(result.UnmatchedTasks, unmatched)
		r.logger.Debug("task unmatched", "task_id", task.ID, "max_similarity", unmatched.MaxConfidence)
	}

	result.TotalTasks = len(seen)
	result.MatchedTasks = len(result.TaskMappings)
	result.MatchedEndpoints = len(usedEndpoints)
	result.OverallConfidence = OverallConfidence(result.TotalTasks, confidences)
	return result
}

// resolveTask runs the cascade for one task
func (r *Resolver) resolveTask(task model.ProcessTask, catalog []model.Endpoint) (Candidate, bool) {
	var best Candidate
	found := false

	for _, try := range r.strategies {
		c, ok := try(task, catalog)
		if !ok {
			continue
		}
		if c.Strategy == model.StrategyExact && c.Confidence >= r.thresholds.ExactMatch {
			return c, true
		}
		// strictly greater keeps the earlier strategy on ties
		if !found || c.Confidence > best.Confidence {
			best = c
			found = true
		}
	}

	return best, found
}

func newMapping(task model.ProcessTask, c Candidate) model.TaskEndpointMapping {
	return model.TaskEndpointMapping{
		TaskID:            task.ID,
		TaskName:          task.Name,
		EndpointPath:      c.Endpoint.Path,
		EndpointMethod:    c.Endpoint.Method,
		OperationID:       c.Endpoint.OperationID,
		ConfidenceScore:   c.Confidence,
		Strategy:          c.Strategy,
		Recommendation:    Recommendation(c.Confidence),
		CustomRequestData: task.RequestOverrides,
	}
}

// Recommendation returns the review tier for an accepted confidence
func Recommendation(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return RecommendationHigh
	case confidence >= 0.7:
		return RecommendationMedium
	default:
		return RecommendationLow
	}
}

// unmatched ranks the whole catalog against the task text for manual follow-up
func (r *Resolver) unmatched(task model.ProcessTask, catalog []model.Endpoint) model.UnmatchedElement {
	el := model.UnmatchedElement{
		ElementID:   task.ID,
		ElementName: task.Name,
		ElementType: model.ElementTypeTask,
	}

	text := TaskText(task)
	var ranked []model.RankedEndpoint
	if text != "" {
		ranked = make([]model.RankedEndpoint, 0, len(catalog))
		for _, e := range catalog {
			sim := r.scorer.Similarity(text, e.ComposedText)
			if sim > el.MaxConfidence {
				el.MaxConfidence = sim
			}
			ranked = append(ranked, model.RankedEndpoint{Method: e.Method, Path: e.Path, Similarity: sim})
		}
		// stable sort keeps catalog order among equal scores
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Similarity > ranked[j].Similarity
		})
	}

	for _, c := range ranked {
		if len(el.Candidates) == maxRecommendations || c.Similarity <= recommendationFloor {
			break
		}
		el.Candidates = append(el.Candidates, c)
		el.Recommendations = append(el.Recommendations,
			fmt.Sprintf("%s %s (similarity: %.2f)", c.Method, c.Path, c.Similarity))
	}

	if len(el.Recommendations) == 0 {
		el.Recommendations = []string{NoSimilarEndpoint}
	}
	return el
}

// OverallConfidence blends coverage and mean accepted confidence:
// 0.6 x coverage + 0.4 x mean. It is 0 when there are no tasks or no mappings.
func OverallConfidence(totalTasks int, confidences []float64) float64 {
	if totalTasks == 0 || len(confidences) == 0 {
		return 0.0
	}

	var sum float64
	for _, c := range confidences {
		sum += c
	}
	mean := sum / float64(len(confidences))
	coverage := float64(len(confidences)) / float64(totalTasks)

	return 0.6*coverage + 0.4*mean
}
