package dataflow

import (
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/felixgeelhaar/flowbind/internal/catalog"
	"github.com/felixgeelhaar/flowbind/internal/model"
)

// Confidence assigned to endpoint mentions found in API text
const (
	ConfidenceDependencyHint = 0.8
	ConfidenceBareMention    = 0.5
)

var (
	endpointMention = regexp.MustCompile(`(?i)\b(GET|POST|PUT|DELETE)\s+(/[-\w{}./]+)`)
	dependencyHint  = regexp.MustCompile(`(?i)(подставить|возьмите|используйте|из ответа|response of|take from|\buses?\b)`)
	fieldHint       = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(поле|field|значение|token|identifier|id)[:\s]+([A-Za-z0-9_.-]+)`)
)

// Mention is a reference to another endpoint found in an operation's text
type Mention struct {
	Method     string
	Path       string
	Field      string
	Confidence float64
}

// ScanText extracts every endpoint mention from a single piece of text. All
// mentions in the text share its dependency phrasing and field hint.
func ScanText(text string) []Mention {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	confidence := ConfidenceBareMention
	if dependencyHint.MatchString(text) {
		confidence = ConfidenceDependencyHint
	}

	field := ""
	if m := fieldHint.FindStringSubmatch(text); m != nil {
		field = strings.TrimRight(m[2], ".")
	}

	var mentions []Mention
	for _, m := range endpointMention.FindAllStringSubmatch(text, -1) {
		path := strings.TrimRight(m[2], ".")
		if path == "" {
			continue
		}
		mentions = append(mentions, Mention{
			Method:     strings.ToUpper(m[1]),
			Path:       path,
			Field:      field,
			Confidence: confidence,
		})
	}
	return mentions
}

// OperationTexts returns the description, summary and parameter descriptions of
// an operation, in that order
func OperationTexts(op *openapi3.Operation) []string {
	if op == nil {
		return nil
	}

	texts := []string{op.Description, op.Summary}
	for _, ref := range op.Parameters {
		if ref == nil || ref.Value == nil {
			continue
		}
		texts = append(texts, ref.Value.Description)
		if ref.Value.Schema != nil && ref.Value.Schema.Value != nil {
			texts = append(texts, ref.Value.Schema.Value.Description)
		}
	}
	return texts
}

// textHints turns endpoint mentions in the API description into edges. The
// mentioned endpoint is the producer and the mentioning operation the consumer.
func (i *Inferencer) textHints(mappings map[string]model.TaskEndpointMapping, process model.Process, doc *openapi3.T) []model.DataFlowEdge {
	ops := catalog.Operations(doc)
	if len(ops) == 0 {
		return nil
	}

	owner := endpointOwners(mappings, process)
	var edges []model.DataFlowEdge

	for _, op := range ops {
		targetID, ok := owner[model.EndpointKey(op.Method, op.Path)]
		if !ok {
			continue
		}
		for _, text := range OperationTexts(op.Operation) {
			for _, mention := range ScanText(text) {
				sourceID, ok := owner[model.EndpointKey(mention.Method, mention.Path)]
				if !ok || sourceID == targetID {
					continue
				}
				fields := []string{FieldData}
				if mention.Field != "" {
					fields = []string{mention.Field}
				}
				if e, ok := i.accept(sourceID, targetID, fields, mention.Confidence); ok {
					edges = append(edges, e)
				}
			}
		}
	}
	return edges
}

// endpointOwners maps each mapped endpoint to the first task, in process order,
// that resolved to it
func endpointOwners(mappings map[string]model.TaskEndpointMapping, process model.Process) map[string]string {
	owner := make(map[string]string, len(mappings))
	claim := func(taskID string) {
		m, ok := mappings[taskID]
		if !ok {
			return
		}
		key := model.EndpointKey(strings.ToUpper(m.EndpointMethod), m.EndpointPath)
		if _, taken := owner[key]; !taken {
			owner[key] = taskID
		}
	}

	for _, t := range process.Tasks {
		claim(t.ID)
	}

	// mappings without a task in the process still get a deterministic owner
	rest := make([]string, 0, len(mappings))
	for id := range mappings {
		rest = append(rest, id)
	}
	sort.Strings(rest)
	for _, id := range rest {
		claim(id)
	}
	return owner
}
