// Package dataflow infers which task outputs feed which task inputs.
//
// Two heuristics contribute edges: a sequential one that looks at adjacent tasks
// and declared flows, and a text-hint one that mines the API description for
// "METHOD /path" references. Edges are merged first-writer-wins on
// (source, target, fields), sequential edges first.
package dataflow

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/felixgeelhaar/flowbind/internal/log"
	"github.com/felixgeelhaar/flowbind/internal/model"
)

// Confidence assigned by the sequential heuristic
const (
	ConfidenceSequential  = 0.5
	ConfidenceReadToWrite = 0.7
	PathContainmentBonus  = 0.2
	MaxSequential         = 0.9
)

// Generic field names used when no better carrier is known
const (
	FieldID   = "id"
	FieldData = "data"
)

// Inferencer builds data-flow edges over a resolved mapping
type Inferencer struct {
	minConfidence float64
	logger        *log.Logger
}

// NewInferencer creates an inferencer that keeps edges strictly above minConfidence
func NewInferencer(minConfidence float64, logger *log.Logger) *Inferencer {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Inferencer{minConfidence: minConfidence, logger: logger}
}

// Infer returns the merged edge set. Every edge references two distinct tasks that
// are both present in mappings.
func (i *Inferencer) Infer(mappings map[string]model.TaskEndpointMapping, process model.Process, doc *openapi3.T) []model.DataFlowEdge {
	edges := []model.DataFlowEdge{}
	if len(mappings) == 0 {
		return edges
	}

	m := newMerger()
	for _, e := range i.sequential(mappings, process) {
		m.add(e)
	}
	for _, e := range i.textHints(mappings, process, doc) {
		m.add(e)
	}

	edges = append(edges, m.edges...)
	i.logger.Debug("data flow inferred", "edges", len(edges), "duplicates", m.dropped)
	return edges
}

// sequential derives edges from adjacent tasks and from every declared flow
func (i *Inferencer) sequential(mappings map[string]model.TaskEndpointMapping, process model.Process) []model.DataFlowEdge {
	var edges []model.DataFlowEdge

	pair := func(sourceID, targetID string) {
		if sourceID == targetID {
			return
		}
		src, ok := mappings[sourceID]
		if !ok {
			return
		}
		dst, ok := mappings[targetID]
		if !ok {
			return
		}
		if e, ok := i.accept(sourceID, targetID, SequentialFields(src, dst), SequentialConfidence(src, dst)); ok {
			edges = append(edges, e)
		}
	}

	for n := 0; n+1 < len(process.Tasks); n++ {
		pair(process.Tasks[n].ID, process.Tasks[n+1].ID)
	}
	for _, f := range process.Flows {
		pair(f.Source, f.Target)
	}
	return edges
}

func (i *Inferencer) accept(sourceID, targetID string, fields []string, confidence float64) (model.DataFlowEdge, bool) {
	if confidence <= i.minConfidence || confidence > 1 {
		return model.DataFlowEdge{}, false
	}
	return model.DataFlowEdge{
		SourceTaskID: sourceID,
		TargetTaskID: targetID,
		Fields:       fields,
		Confidence:   confidence,
	}, true
}

// SequentialConfidence scores a source -> target pair by method shape and path overlap
func SequentialConfidence(src, dst model.TaskEndpointMapping) float64 {
	confidence := ConfidenceSequential
	if isMethod(src.EndpointMethod, "GET") && isWrite(dst.EndpointMethod) {
		confidence = ConfidenceReadToWrite
	}
	if src.EndpointPath != "" && dst.EndpointPath != "" &&
		(strings.Contains(src.EndpointPath, dst.EndpointPath) || strings.Contains(dst.EndpointPath, src.EndpointPath)) {
		confidence += PathContainmentBonus
		if confidence > MaxSequential {
			confidence = MaxSequential
		}
	}
	return confidence
}

// SequentialFields guesses the carried fields: a GET source contributes its first
// path parameter plus id and data, a POST/PUT target contributes its first path
// parameter. Falls back to data alone.
func SequentialFields(src, dst model.TaskEndpointMapping) []string {
	fields := newFieldSet()
	if isMethod(src.EndpointMethod, "GET") {
		if p, ok := PathParam(src.EndpointPath); ok {
			fields.add(p)
		}
		fields.add(FieldID)
		fields.add(FieldData)
	}
	if isWrite(dst.EndpointMethod) {
		if p, ok := PathParam(dst.EndpointPath); ok {
			fields.add(p)
		}
	}
	if len(fields.list) == 0 {
		fields.add(FieldData)
	}
	return fields.list
}

// PathParam returns the name of the first {param} segment of a templated path
func PathParam(path string) (string, bool) {
	start := strings.IndexByte(path, '{')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(path[start:], '}')
	if end <= 1 {
		return "", false
	}
	return path[start+1 : start+end], true
}

func isMethod(method, want string) bool {
	return strings.EqualFold(method, want)
}

func isWrite(method string) bool {
	return isMethod(method, "POST") || isMethod(method, "PUT")
}

// fieldSet keeps field names unique in insertion order
type fieldSet struct {
	seen map[string]struct{}
	list []string
}

func newFieldSet() *fieldSet {
	return &fieldSet{seen: make(map[string]struct{})}
}

func (s *fieldSet) add(name string) {
	if name == "" {
		return
	}
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	s.list = append(s.list, name)
}

// merger is a first-writer-wins reduction keyed on (source, target, sorted fields)
type merger struct {
	seen    map[string]struct{}
	edges   []model.DataFlowEdge
	dropped int
}

func newMerger() *merger {
	return &merger{seen: make(map[string]struct{})}
}

func (m *merger) add(e model.DataFlowEdge) {
	key := edgeKey(e)
	if _, ok := m.seen[key]; ok {
		m.dropped++
		return
	}
	m.seen[key] = struct{}{}
	m.edges = append(m.edges, e)
}

func edgeKey(e model.DataFlowEdge) string {
	fields := append([]string(nil), e.Fields...)
	sort.Strings(fields)
	return e.SourceTaskID + "\x00" + e.TargetTaskID + "\x00" + strings.Join(fields, "\x00")
}
