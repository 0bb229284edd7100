package model

// Strategy names the matching strategy that produced a task mapping
type Strategy string

const (
	StrategyExact          Strategy = "EXACT"
	StrategyCustomProperty Strategy = "CUSTOM_PROPERTY"
	StrategyDescription    Strategy = "DESCRIPTION"
	StrategySemantic       Strategy = "SEMANTIC"
)

// ElementTypeTask marks an unmatched process task
const ElementTypeTask = "TASK"

// Property keys that carry an explicit "METHOD /path" override on a task
const (
	PropertyAPIEndpoint    = "api.endpoint"
	PropertyAPIEndpointAlt = "apiEndpoint"
)

// Process is the parsed business process: ordered tasks plus declared flows
type Process struct {
	ID    string        `json:"id" yaml:"id"`
	Name  string        `json:"name,omitempty" yaml:"name,omitempty"`
	Tasks []ProcessTask `json:"tasks" yaml:"tasks"`
	Flows []Flow        `json:"flows,omitempty" yaml:"flows,omitempty"`
}

// Flow is an explicit directed link between two task ids
type Flow struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// ProcessTask is one step of the business process
type ProcessTask struct {
	ID               string            `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name"`
	Type             string            `json:"type,omitempty" yaml:"type,omitempty"` // ServiceTask, UserTask, Task
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	Endpoint         *EndpointHint     `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Properties       map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
	RequestOverrides map[string]any    `json:"request_overrides,omitempty" yaml:"request_overrides,omitempty"`
}

// EndpointHint is a method/path pair declared on the task itself
type EndpointHint struct {
	Method      string `json:"method" yaml:"method"`
	Path        string `json:"path" yaml:"path"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// EndpointOverride returns the explicit endpoint annotation, if any
func (t ProcessTask) EndpointOverride() (string, bool) {
	if t.Properties == nil {
		return "", false
	}
	if v, ok := t.Properties[PropertyAPIEndpoint]; ok && v != "" {
		return v, true
	}
	if v, ok := t.Properties[PropertyAPIEndpointAlt]; ok && v != "" {
		return v, true
	}
	return "", false
}

// Endpoint is a flattened (path, method) entry of the API description
type Endpoint struct {
	Path         string `json:"path" yaml:"path"`
	Method       string `json:"method" yaml:"method"`
	OperationID  string `json:"operation_id,omitempty" yaml:"operation_id,omitempty"`
	Summary      string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	ComposedText string `json:"composed_text" yaml:"composed_text"`
}

// Key identifies the endpoint as "METHOD:path"
func (e Endpoint) Key() string {
	return EndpointKey(e.Method, e.Path)
}

// EndpointKey builds the canonical "METHOD:path" identity of an endpoint
func EndpointKey(method, path string) string {
	return method + ":" + path
}

// TaskEndpointMapping binds a task to the endpoint that implements it
type TaskEndpointMapping struct {
	TaskID            string         `json:"task_id" yaml:"task_id"`
	TaskName          string         `json:"task_name" yaml:"task_name"`
	EndpointPath      string         `json:"endpoint_path" yaml:"endpoint_path"`
	EndpointMethod    string         `json:"endpoint_method" yaml:"endpoint_method"`
	OperationID       string         `json:"operation_id,omitempty" yaml:"operation_id,omitempty"`
	ConfidenceScore   float64        `json:"confidence_score" yaml:"confidence_score"`
	Strategy          Strategy       `json:"matching_strategy" yaml:"matching_strategy"`
	Recommendation    string         `json:"recommendation" yaml:"recommendation"`
	CustomRequestData map[string]any `json:"custom_request_data,omitempty" yaml:"custom_request_data,omitempty"`
}

// RankedEndpoint is a scored endpoint suggestion for an unmatched task
type RankedEndpoint struct {
	Method     string  `json:"method" yaml:"method"`
	Path       string  `json:"path" yaml:"path"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// UnmatchedElement records a task that could not be resolved
type UnmatchedElement struct {
	ElementID       string           `json:"element_id" yaml:"element_id"`
	ElementName     string           `json:"element_name" yaml:"element_name"`
	ElementType     string           `json:"element_type" yaml:"element_type"`
	Recommendations []string         `json:"recommendations" yaml:"recommendations"`
	Candidates      []RankedEndpoint `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	MaxConfidence   float64          `json:"max_confidence" yaml:"max_confidence"`
}

// DataFlowEdge states that fields produced by the source task feed the target task
type DataFlowEdge struct {
	SourceTaskID string   `json:"source_task_id" yaml:"source_task_id"`
	TargetTaskID string   `json:"target_task_id" yaml:"target_task_id"`
	Fields       []string `json:"fields" yaml:"fields"`
	Confidence   float64  `json:"confidence" yaml:"confidence"`
}

// MappingResult is the aggregate outcome of one resolution run
type MappingResult struct {
	TaskMappings      map[string]TaskEndpointMapping `json:"task_mappings" yaml:"task_mappings"`
	DataFlowEdges     []DataFlowEdge                 `json:"data_flow_edges" yaml:"data_flow_edges"`
	UnmatchedTasks    []UnmatchedElement             `json:"unmatched_tasks" yaml:"unmatched_tasks"`
	OverallConfidence float64                        `json:"overall_confidence" yaml:"overall_confidence"`
	TotalTasks        int                            `json:"total_tasks" yaml:"total_tasks"`
	MatchedTasks      int                            `json:"matched_tasks" yaml:"matched_tasks"`
	TotalEndpoints    int                            `json:"total_endpoints" yaml:"total_endpoints"`
	MatchedEndpoints  int                            `json:"matched_endpoints" yaml:"matched_endpoints"`
}
