package report

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/flowbind/internal/mapping"
	"github.com/felixgeelhaar/flowbind/internal/model"
)

// Styles holds the lipgloss styles of the text report
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Muted  lipgloss.Style
	High   lipgloss.Style
	Medium lipgloss.Style
	Low    lipgloss.Style
}

func newStyles(noColor bool) Styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return Styles{Title: plain, Header: plain, Muted: plain, High: plain, Medium: plain, Low: plain}
	}
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		High:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Medium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Low:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// confidence picks the style for a score
func (s Styles) confidence(score float64) lipgloss.Style {
	switch {
	case score >= 0.9:
		return s.High
	case score >= 0.7:
		return s.Medium
	default:
		return s.Low
	}
}

// TextFormatter renders results as a human-readable summary
type TextFormatter struct {
	opts   *Options
	styles Styles
}

// Format writes data as text. Mapping results, recommendations and catalogs get a
// dedicated layout; strings and Stringers are printed as is.
func (f *TextFormatter) Format(data interface{}) error {
	var out string
	switch v := data.(type) {
	case model.MappingResult:
		out = RenderResult(v, f.styles)
	case *model.MappingResult:
		out = RenderResult(*v, f.styles)
	case mapping.Recommendations:
		out = RenderRecommendations(v, f.styles)
	case []model.Endpoint:
		out = RenderCatalog(v, f.styles)
	case string:
		out = v
	case fmt.Stringer:
		out = v.String()
	default:
		return fmt.Errorf("text formatter cannot render %T", data)
	}
	_, err := fmt.Fprintln(f.opts.Writer, out)
	return err
}

// RenderResult renders the summary, mappings, data flow and unmatched tasks
func RenderResult(r model.MappingResult, s Styles) string {
	var b strings.Builder

	b.WriteString(s.Title.Render("Mapping summary"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %-12s %d/%d matched\n", "Tasks", r.MatchedTasks, r.TotalTasks)
	fmt.Fprintf(&b, "  %-12s %d/%d used\n", "Endpoints", r.MatchedEndpoints, r.TotalEndpoints)
	fmt.Fprintf(&b, "  %-12s %s\n", "Confidence", s.confidence(r.OverallConfidence).Render(fmt.Sprintf("%.2f", r.OverallConfidence)))

	if len(r.TaskMappings) > 0 {
		b.WriteString("\n")
		b.WriteString(s.Header.Render("Mappings"))
		b.WriteString("\n")

		ids := SortedTaskIDs(r.TaskMappings)
		idWidth, epWidth := 0, 0
		for _, id := range ids {
			m := r.TaskMappings[id]
			idWidth = max(idWidth, utf8.RuneCountInString(id))
			epWidth = max(epWidth, utf8.RuneCountInString(m.EndpointMethod+" "+m.EndpointPath))
		}
		for _, id := range ids {
			m := r.TaskMappings[id]
			ep := m.EndpointMethod + " " + m.EndpointPath
			fmt.Fprintf(&b, "  %-*s  %-*s  %-15s %s  %s\n",
				idWidth, id, epWidth, ep, m.Strategy,
				s.confidence(m.ConfidenceScore).Render(fmt.Sprintf("%.2f", m.ConfidenceScore)),
				s.Muted.Render(m.Recommendation))
		}
	}

	if len(r.DataFlowEdges) > 0 {
		b.WriteString("\n")
		b.WriteString(s.Header.Render("Data flow"))
		b.WriteString("\n")
		for _, e := range r.DataFlowEdges {
			fmt.Fprintf(&b, "  %s -> %s  [%s]  %s\n",
				e.SourceTaskID, e.TargetTaskID, strings.Join(e.Fields, ", "),
				s.confidence(e.Confidence).Render(fmt.Sprintf("%.2f", e.Confidence)))
		}
	}

	if len(r.UnmatchedTasks) > 0 {
		b.WriteString("\n")
		b.WriteString(renderUnmatched(r.UnmatchedTasks, s))
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderRecommendations renders the manual-review view
func RenderRecommendations(r mapping.Recommendations, s Styles) string {
	var b strings.Builder

	b.WriteString(s.Title.Render("Recommendations"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %d/%d tasks matched, overall confidence %.2f\n", r.MatchedTasks, r.TotalTasks, r.OverallConfidence)
	if len(r.UnmatchedTasks) == 0 {
		b.WriteString(s.High.Render("  every task is mapped"))
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(renderUnmatched(r.UnmatchedTasks, s))
	return strings.TrimRight(b.String(), "\n")
}

func renderUnmatched(tasks []model.UnmatchedElement, s Styles) string {
	var b strings.Builder
	b.WriteString(s.Header.Render("Unmatched tasks"))
	b.WriteString("\n")
	for _, u := range tasks {
		fmt.Fprintf(&b, "  %s  %s\n", s.Low.Render(u.ElementID), u.ElementName)
		for _, rec := range u.Recommendations {
			fmt.Fprintf(&b, "    - %s\n", s.Muted.Render(rec))
		}
	}
	return b.String()
}

// RenderCatalog lists the flattened endpoints in catalog order
func RenderCatalog(endpoints []model.Endpoint, s Styles) string {
	var b strings.Builder

	b.WriteString(s.Title.Render(fmt.Sprintf("Endpoints (%d)", len(endpoints))))
	b.WriteString("\n")

	width := 0
	for _, e := range endpoints {
		width = max(width, utf8.RuneCountInString(e.Method+" "+e.Path))
	}
	for _, e := range endpoints {
		label := e.Summary
		if label == "" {
			label = e.OperationID
		}
		fmt.Fprintf(&b, "  %-*s  %s\n", width, e.Method+" "+e.Path, s.Muted.Render(label))
	}
	return strings.TrimRight(b.String(), "\n")
}

// SortedTaskIDs returns the mapped task ids in lexical order
func SortedTaskIDs(mappings map[string]model.TaskEndpointMapping) []string {
	ids := make([]string, 0, len(mappings))
	for id := range mappings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
