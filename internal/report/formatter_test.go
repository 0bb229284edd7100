package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/flowbind/internal/mapping"
	"github.com/felixgeelhaar/flowbind/internal/model"
)

func sampleResult() model.MappingResult {
	return model.MappingResult{
		TaskMappings: map[string]model.TaskEndpointMapping{
			"pay": {
				TaskID: "pay", TaskName: "Pay", EndpointMethod: "POST", EndpointPath: "/payments",
				ConfidenceScore: 1.0, Strategy: model.StrategyExact, Recommendation: "high confidence",
			},
			"auth": {
				TaskID: "auth", TaskName: "Аутентификация", EndpointMethod: "POST", EndpointPath: "/auth/token",
				ConfidenceScore: 0.95, Strategy: model.StrategyExact, Recommendation: "high confidence",
			},
		},
		DataFlowEdges: []model.DataFlowEdge{
			{SourceTaskID: "auth", TargetTaskID: "pay", Fields: []string{"access_token"}, Confidence: 0.8},
		},
		UnmatchedTasks: []model.UnmatchedElement{
			{ElementID: "weather", ElementName: "Forecast weather", ElementType: model.ElementTypeTask,
				Recommendations: []string{"no similar endpoint found"}},
		},
		OverallConfidence: 0.84,
		TotalTasks:        3,
		MatchedTasks:      2,
		TotalEndpoints:    4,
		MatchedEndpoints:  2,
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"json format", "json", false},
		{"yaml format", "yaml", false},
		{"text format", "text", false},
		{"empty format defaults to text", "", false},
		{"unknown format", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFormatter(tt.format, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("json", &Options{Writer: &buf})
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}
	if err := formatter.Format(sampleResult()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	for _, key := range []string{"task_mappings", "data_flow_edges", "unmatched_tasks", "overall_confidence", "matched_endpoints"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSON output missing %q", key)
		}
	}
	if !strings.Contains(buf.String(), `"matching_strategy": "EXACT"`) {
		t.Errorf("expected matching_strategy in output: %s", buf.String())
	}
}

func TestJSONFormatterCompact(t *testing.T) {
	var buf bytes.Buffer
	formatter, _ := NewFormatter("json", &Options{Writer: &buf, Compact: true})
	if err := formatter.Format(sampleResult()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Count(buf.String(), "\n") > 1 {
		t.Errorf("compact JSON should be a single line, got: %s", buf.String())
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter, _ := NewFormatter("yaml", &Options{Writer: &buf})
	if err := formatter.Format(sampleResult()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded model.MappingResult
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if decoded.TaskMappings["auth"].EndpointPath != "/auth/token" {
		t.Errorf("YAML round trip lost the auth mapping: %+v", decoded.TaskMappings["auth"])
	}
	if len(decoded.DataFlowEdges) != 1 {
		t.Errorf("expected one edge, got %d", len(decoded.DataFlowEdges))
	}
}

func TestTextFormatter_Result(t *testing.T) {
	var buf bytes.Buffer
	formatter, _ := NewFormatter("text", &Options{Writer: &buf, NoColor: true})
	if err := formatter.Format(sampleResult()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Mapping summary",
		"2/3 matched",
		"2/4 used",
		"0.84",
		"POST /auth/token",
		"EXACT",
		"auth -> pay  [access_token]  0.80",
		"Unmatched tasks",
		"weather  Forecast weather",
		"- no similar endpoint found",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	// mappings are listed by task id
	if strings.Index(out, "/auth/token") > strings.Index(out, "/payments") {
		t.Errorf("expected auth before pay:\n%s", out)
	}
}

func TestTextFormatter_Pointer(t *testing.T) {
	var buf bytes.Buffer
	formatter, _ := NewFormatter("text", &Options{Writer: &buf, NoColor: true})
	result := sampleResult()
	if err := formatter.Format(&result); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Mapping summary") {
		t.Errorf("pointer result not rendered: %s", buf.String())
	}
}

func TestTextFormatter_Recommendations(t *testing.T) {
	var buf bytes.Buffer
	formatter, _ := NewFormatter("text", &Options{Writer: &buf, NoColor: true})

	if err := formatter.Format(mapping.RecommendationsFor(sampleResult())); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "2/3 tasks matched") || !strings.Contains(buf.String(), "weather") {
		t.Errorf("unexpected recommendations output:\n%s", buf.String())
	}

	buf.Reset()
	if err := formatter.Format(mapping.Recommendations{TotalTasks: 1, MatchedTasks: 1}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "every task is mapped") {
		t.Errorf("expected all-mapped notice, got:\n%s", buf.String())
	}
}

func TestTextFormatter_Catalog(t *testing.T) {
	var buf bytes.Buffer
	formatter, _ := NewFormatter("text", &Options{Writer: &buf, NoColor: true})

	endpoints := []model.Endpoint{
		{Method: "GET", Path: "/accounts", OperationID: "getAccounts"},
		{Method: "POST", Path: "/payments", Summary: "Create payment"},
	}
	if err := formatter.Format(endpoints); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Endpoints (2)") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "GET /accounts   getAccounts") {
		t.Errorf("expected padded endpoint row:\n%s", out)
	}
	if !strings.Contains(out, "POST /payments  Create payment") {
		t.Errorf("expected summary label:\n%s", out)
	}
}

func TestTextFormatter_Unsupported(t *testing.T) {
	formatter, _ := NewFormatter("text", &Options{Writer: &bytes.Buffer{}, NoColor: true})
	if err := formatter.Format(42); err == nil {
		t.Error("expected an error for an unsupported type")
	}
}
