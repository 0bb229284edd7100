// Package mapping runs a full resolution: catalog, task resolution and data flow.
package mapping

import (
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/felixgeelhaar/flowbind/internal/catalog"
	"github.com/felixgeelhaar/flowbind/internal/dataflow"
	"github.com/felixgeelhaar/flowbind/internal/log"
	"github.com/felixgeelhaar/flowbind/internal/model"
	"github.com/felixgeelhaar/flowbind/internal/resolve"
)

// Service composes the catalog builder, the resolver and the data-flow inferencer.
// It holds no per-call state and is safe for concurrent use.
type Service struct {
	thresholds model.Thresholds
	logger     *log.Logger
	resolver   *resolve.Resolver
	inferencer *dataflow.Inferencer
}

// Option configures a Service
type Option func(*serviceOptions)

type serviceOptions struct {
	thresholds model.Thresholds
	logger     *log.Logger
	scorer     resolve.Scorer
}

// WithThresholds sets the resolution and data-flow thresholds
func WithThresholds(t model.Thresholds) Option {
	return func(o *serviceOptions) { o.thresholds = t }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(o *serviceOptions) { o.logger = l }
}

// WithScorer replaces the text similarity model
func WithScorer(s resolve.Scorer) Option {
	return func(o *serviceOptions) { o.scorer = s }
}

// NewService creates a mapping service
func NewService(opts ...Option) *Service {
	o := serviceOptions{
		thresholds: model.DefaultThresholds(),
		logger:     log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	resolverOpts := []resolve.Option{
		resolve.WithThresholds(o.thresholds),
		resolve.WithLogger(o.logger),
	}
	if o.scorer != nil {
		resolverOpts = append(resolverOpts, resolve.WithScorer(o.scorer))
	}

	return &Service{
		thresholds: o.thresholds,
		logger:     o.logger,
		resolver:   resolve.NewResolver(resolverOpts...),
		inferencer: dataflow.NewInferencer(o.thresholds.DataFlowMin, o.logger),
	}
}

// Thresholds returns the thresholds in effect
func (s *Service) Thresholds() model.Thresholds {
	return s.thresholds
}

// Map resolves every task of the process against the API description and infers
// the data flow between the mapped tasks
func (s *Service) Map(process model.Process, doc *openapi3.T) model.MappingResult {
	start := time.Now()

	endpoints := catalog.Build(doc)
	result := s.resolver.Resolve(process.Tasks, endpoints)
	result.DataFlowEdges = s.inferencer.Infer(result.TaskMappings, process, doc)

	s.logger.ForProcess(process.ID).Info("process mapped",
		"total_tasks", result.TotalTasks,
		"matched_tasks", result.MatchedTasks,
		"unmatched_tasks", len(result.UnmatchedTasks),
		"endpoints", result.TotalEndpoints,
		"matched_endpoints", result.MatchedEndpoints,
		"edges", len(result.DataFlowEdges),
		"overall_confidence", result.OverallConfidence,
		"duration", time.Since(start))

	return result
}

// Catalog flattens the API description without resolving anything
func (s *Service) Catalog(doc *openapi3.T) []model.Endpoint {
	return catalog.Build(doc)
}

// Recommendations is the manual-review view of a mapping run
type Recommendations struct {
	UnmatchedTasks    []model.UnmatchedElement `json:"unmatched_tasks" yaml:"unmatched_tasks"`
	TotalTasks        int                      `json:"total_tasks" yaml:"total_tasks"`
	MatchedTasks      int                      `json:"matched_tasks" yaml:"matched_tasks"`
	OverallConfidence float64                  `json:"overall_confidence" yaml:"overall_confidence"`
}

// Recommend runs a mapping and keeps only what needs manual attention
func (s *Service) Recommend(process model.Process, doc *openapi3.T) Recommendations {
	result := s.Map(process, doc)
	return RecommendationsFor(result)
}

// RecommendationsFor extracts the review view from an existing result
func RecommendationsFor(result model.MappingResult) Recommendations {
	return Recommendations{
		UnmatchedTasks:    result.UnmatchedTasks,
		TotalTasks:        result.TotalTasks,
		MatchedTasks:      result.MatchedTasks,
		OverallConfidence: result.OverallConfidence,
	}
}

// Bind stores an explicit endpoint choice on a task so the next run resolves it as
// CUSTOM_PROPERTY. It reports false when no task has the given id.
func Bind(process *model.Process, taskID, method, path string) bool {
	for i := range process.Tasks {
		t := &process.Tasks[i]
		if t.ID != taskID {
			continue
		}
		if t.Properties == nil {
			t.Properties = make(map[string]string)
		}
		t.Properties[model.PropertyAPIEndpoint] = method + " " + path
		return true
	}
	return false
}
