package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/flowbind/internal/mapping"
	"github.com/felixgeelhaar/flowbind/internal/model"
	"github.com/felixgeelhaar/flowbind/internal/resolve"
)

// SkipBinding is the option value that leaves a task unbound
const SkipBinding = ""

// Choice is one selectable option of a prompt
type Choice struct {
	Label string
	Value string
}

// Selector asks the user to pick one of several choices
type Selector interface {
	Select(title string, choices []Choice) (string, error)
}

// HuhSelector prompts through a huh select form
type HuhSelector struct{}

// Select displays the choices and returns the chosen value
func (HuhSelector) Select(title string, choices []Choice) (string, error) {
	if len(choices) == 0 {
		return "", fmt.Errorf("no options provided")
	}

	options := make([]huh.Option[string], len(choices))
	for i, c := range choices {
		options[i] = huh.NewOption(c.Label, c.Value)
	}

	var selected string
	field := huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Value(&selected)

	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return selected, nil
}

// BindUnmatched asks, for every unmatched task, which endpoint implements it. The
// ranked candidates are offered when there are any, the whole catalog otherwise.
// Each choice is written to the task's api.endpoint property, so re-running the
// mapping binds it as CUSTOM_PROPERTY. It returns the number of bound tasks.
func BindUnmatched(process *model.Process, result model.MappingResult, catalog []model.Endpoint, sel Selector) (int, error) {
	if sel == nil {
		sel = HuhSelector{}
	}

	bound := 0
	for _, u := range result.UnmatchedTasks {
		choices := BindingChoices(u, catalog)
		if len(choices) == 1 {
			continue
		}

		value, err := sel.Select(fmt.Sprintf("Endpoint for %q (%s)", u.ElementName, u.ElementID), choices)
		if err != nil {
			return bound, err
		}
		if value == SkipBinding {
			continue
		}
		method, path, ok := resolve.ParseEndpointRef(value)
		if !ok {
			return bound, fmt.Errorf("invalid endpoint choice %q", value)
		}
		if mapping.Bind(process, u.ElementID, method, path) {
			bound++
		}
	}
	return bound, nil
}

// BindingChoices builds the options offered for an unmatched task, ending with skip
func BindingChoices(u model.UnmatchedElement, catalog []model.Endpoint) []Choice {
	var choices []Choice
	if len(u.Candidates) > 0 {
		for _, c := range u.Candidates {
			choices = append(choices, Choice{
				Label: fmt.Sprintf("%s %s (similarity %.2f)", c.Method, c.Path, c.Similarity),
				Value: c.Method + " " + c.Path,
			})
		}
	} else {
		for _, e := range catalog {
			label := e.Method + " " + e.Path
			if e.Summary != "" {
				label += " - " + e.Summary
			}
			choices = append(choices, Choice{Label: label, Value: e.Method + " " + e.Path})
		}
	}
	return append(choices, Choice{Label: "skip", Value: SkipBinding})
}
