package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/flowbind/internal/model"
)

// ReviewResult holds the outcome of a mapping review session
type ReviewResult struct {
	Approved bool
	Reason   string
}

type viewMode int

const (
	viewList viewMode = iota
	viewDetail
)

// reviewRow is one task line of the review list
type reviewRow struct {
	taskID    string
	mapping   *model.TaskEndpointMapping
	unmatched *model.UnmatchedElement
}

// reviewKeyMap defines the keyboard shortcuts of the review
type reviewKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Back    key.Binding
	Approve key.Binding
	Reject  key.Binding
	Quit    key.Binding
}

var reviewKeys = reviewKeyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:    key.NewBinding(key.WithKeys("enter", "right", "l"), key.WithHelp("enter", "details")),
	Back:    key.NewBinding(key.WithKeys("left", "h", "esc"), key.WithHelp("h/esc", "back")),
	Approve: key.NewBinding(key.WithKeys("a", "A"), key.WithHelp("a", "approve")),
	Reject:  key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "reject")),
	Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginLeft(2)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Bold(true).
				PaddingLeft(2)

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	unmatchedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9")).
				PaddingLeft(4)

	detailKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginLeft(2).
			MarginTop(1)

	approveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	rejectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)

// reviewModel is the bubbletea model of the mapping review
type reviewModel struct {
	result        model.MappingResult
	rows          []reviewRow
	cursor        int
	mode          viewMode
	editingReason bool
	reason        string
	outcome       *ReviewResult
	width         int
	height        int
}

func newReviewModel(result model.MappingResult) reviewModel {
	return reviewModel{result: result, rows: reviewRows(result), mode: viewList}
}

// reviewRows lists mapped tasks by id, followed by unmatched tasks in result order
func reviewRows(result model.MappingResult) []reviewRow {
	ids := make([]string, 0, len(result.TaskMappings))
	for id := range result.TaskMappings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]reviewRow, 0, len(ids)+len(result.UnmatchedTasks))
	for _, id := range ids {
		m := result.TaskMappings[id]
		rows = append(rows, reviewRow{taskID: id, mapping: &m})
	}
	for i := range result.UnmatchedTasks {
		u := result.UnmatchedTasks[i]
		rows = append(rows, reviewRow{taskID: u.ElementID, unmatched: &u})
	}
	return rows
}

// Init initializes the model
func (m reviewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editingReason {
			return m.updateReason(msg)
		}

		switch {
		case key.Matches(msg, reviewKeys.Quit):
			m.outcome = &ReviewResult{Approved: false, Reason: "review cancelled"}
			return m, tea.Quit

		case key.Matches(msg, reviewKeys.Up):
			if m.mode == viewList && m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, reviewKeys.Down):
			if m.mode == viewList && m.cursor < len(m.rows)-1 {
				m.cursor++
			}

		case key.Matches(msg, reviewKeys.Open):
			if m.mode == viewList && len(m.rows) > 0 {
				m.mode = viewDetail
			}

		case key.Matches(msg, reviewKeys.Back):
			m.mode = viewList

		case key.Matches(msg, reviewKeys.Approve):
			m.outcome = &ReviewResult{Approved: true}
			return m, tea.Quit

		case key.Matches(msg, reviewKeys.Reject):
			m.editingReason = true
		}
	}

	return m, nil
}

// updateReason edits the rejection reason; enter submits, esc abandons the rejection
func (m reviewModel) updateReason(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.editingReason = false
		m.outcome = &ReviewResult{Approved: false, Reason: strings.TrimSpace(m.reason)}
		return m, tea.Quit
	case tea.KeyEsc:
		m.editingReason = false
		m.reason = ""
	case tea.KeyCtrlC:
		m.outcome = &ReviewResult{Approved: false, Reason: "review cancelled"}
		return m, tea.Quit
	case tea.KeyBackspace:
		if r := []rune(m.reason); len(r) > 0 {
			m.reason = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.reason += " "
	case tea.KeyRunes:
		m.reason += string(msg.Runes)
	}
	return m, nil
}

// View renders the current state
func (m reviewModel) View() string {
	if m.outcome != nil {
		if m.outcome.Approved {
			return approveStyle.Render("\n✓ Mapping approved\n\n")
		}
		reason := m.outcome.Reason
		if reason == "" {
			reason = "no reason provided"
		}
		return rejectStyle.Render(fmt.Sprintf("\n✗ Mapping rejected\n  Reason: %s\n\n", reason))
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Mapping Review"))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%d/%d tasks matched | %d edges | confidence %.2f",
		m.result.MatchedTasks, m.result.TotalTasks, len(m.result.DataFlowEdges), m.result.OverallConfidence)))
	b.WriteString("\n\n")

	if m.mode == viewList {
		m.renderList(&b)
	} else {
		m.renderDetail(&b)
	}

	b.WriteString("\n")
	if m.editingReason {
		b.WriteString(rejectStyle.Render("✗ Rejection reason:"))
		b.WriteString("\n  ")
		b.WriteString(m.reason)
		b.WriteString("_\n\n")
		b.WriteString(helpStyle.Render("enter: submit | esc: cancel"))
	} else if m.mode == viewList {
		b.WriteString(helpStyle.Render("↑/↓: navigate | enter: details | a: approve | r: reject | q: quit"))
	} else {
		b.WriteString(helpStyle.Render("h/esc: back to list | a: approve | r: reject | q: quit"))
	}

	return b.String()
}

func (m reviewModel) renderList(b *strings.Builder) {
	for i, row := range m.rows {
		cursor := "  "
		style := itemStyle
		if row.unmatched != nil {
			style = unmatchedItemStyle
		}
		if i == m.cursor {
			cursor = "→ "
			style = selectedItemStyle
		}

		var line string
		if row.mapping != nil {
			line = fmt.Sprintf("%s%s | %s %s | %s | %.2f", cursor, row.taskID,
				row.mapping.EndpointMethod, row.mapping.EndpointPath, row.mapping.Strategy, row.mapping.ConfidenceScore)
		} else {
			line = fmt.Sprintf("%s%s | unmatched | %s", cursor, row.taskID, row.unmatched.ElementName)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
}

func (m reviewModel) renderDetail(b *strings.Builder) {
	row := m.rows[m.cursor]
	b.WriteString(headerStyle.Render(fmt.Sprintf("Task %d of %d", m.cursor+1, len(m.rows))))
	b.WriteString("\n\n")

	type detail struct{ key, value string }
	var details []detail
	if row.mapping != nil {
		mp := row.mapping
		details = []detail{
			{"Task", mp.TaskID},
			{"Name", mp.TaskName},
			{"Endpoint", mp.EndpointMethod + " " + mp.EndpointPath},
			{"Operation ID", mp.OperationID},
			{"Strategy", string(mp.Strategy)},
			{"Confidence", fmt.Sprintf("%.2f", mp.ConfidenceScore)},
			{"Review", mp.Recommendation},
		}
	} else {
		u := row.unmatched
		details = []detail{
			{"Task", u.ElementID},
			{"Name", u.ElementName},
			{"Best score", fmt.Sprintf("%.2f", u.MaxConfidence)},
		}
	}
	for _, d := range details {
		b.WriteString("  ")
		b.WriteString(detailKeyStyle.Render(fmt.Sprintf("%-13s:", d.key)))
		b.WriteString(" ")
		b.WriteString(detailValueStyle.Render(d.value))
		b.WriteString("\n")
	}

	if row.unmatched != nil {
		b.WriteString("\n  ")
		b.WriteString(detailKeyStyle.Render("Suggestions:"))
		b.WriteString("\n")
		for _, rec := range row.unmatched.Recommendations {
			fmt.Fprintf(b, "    • %s\n", rec)
		}
		return
	}

	var flows []string
	for _, e := range m.result.DataFlowEdges {
		switch row.taskID {
		case e.SourceTaskID:
			flows = append(flows, fmt.Sprintf("→ %s [%s] %.2f", e.TargetTaskID, strings.Join(e.Fields, ", "), e.Confidence))
		case e.TargetTaskID:
			flows = append(flows, fmt.Sprintf("← %s [%s] %.2f", e.SourceTaskID, strings.Join(e.Fields, ", "), e.Confidence))
		}
	}
	if len(flows) > 0 {
		b.WriteString("\n  ")
		b.WriteString(detailKeyStyle.Render("Data flow:"))
		b.WriteString("\n")
		for _, f := range flows {
			fmt.Fprintf(b, "    • %s\n", f)
		}
	}
}

// RunMappingReview launches an interactive review of a mapping result. A result
// without tasks is approved without prompting.
func RunMappingReview(result model.MappingResult) (*ReviewResult, error) {
	m := newReviewModel(result)
	if len(m.rows) == 0 {
		return &ReviewResult{Approved: true}, nil
	}

	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, fmt.Errorf("running mapping review UI: %w", err)
	}

	final, ok := finalModel.(reviewModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type: %T", finalModel)
	}
	if final.outcome == nil {
		return &ReviewResult{Approved: false, Reason: "review ended without a decision"}, nil
	}
	return final.outcome, nil
}
