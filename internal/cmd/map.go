package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowbind/internal/catalog"
	"github.com/felixgeelhaar/flowbind/internal/errors"
	"github.com/felixgeelhaar/flowbind/internal/mapping"
	"github.com/felixgeelhaar/flowbind/internal/model"
	"github.com/felixgeelhaar/flowbind/internal/process"
	"github.com/felixgeelhaar/flowbind/internal/report"
	"github.com/felixgeelhaar/flowbind/internal/tui"
)

type mapOptions struct {
	processPath     string
	openAPIPath     string
	format          string
	out             string
	recommendations bool
	review          bool
	bind            bool
	save            string
	failOnUnmatched bool
}

// interactive hooks, replaced in tests
var (
	runReview = tui.RunMappingReview
	selector  tui.Selector = tui.HuhSelector{}
	canPrompt              = tui.ShouldPrompt
)

func newMapCommand(a *app) *cobra.Command {
	opts := &mapOptions{}

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Resolve process tasks to OpenAPI endpoints",
		Long: `Resolve every task of a process description to an endpoint of an OpenAPI
document and infer the data flow between mapped tasks.

Unmatched tasks come with up to three suggested endpoints. Use --bind to
pick endpoints for them interactively and --save to write the bindings back
as 'api.endpoint' properties.`,
		Example: `  flowbind map --process payment.yaml --openapi bank.yaml
  flowbind map -p payment.yaml -a bank.yaml --format json --out mapping.json
  flowbind map -p payment.yaml -a bank.yaml --bind --save payment.yaml
  flowbind map -p payment.yaml -a bank.yaml --recommendations`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMap(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.processPath, "process", "p", "", "process description (YAML or JSON)")
	f.StringVarP(&opts.openAPIPath, "openapi", "a", "", "OpenAPI 3 document (YAML or JSON)")
	f.StringVarP(&opts.format, "format", "f", report.FormatText, "output format: text, json, yaml")
	f.StringVarP(&opts.out, "out", "o", "", "write output to a file instead of stdout")
	f.BoolVar(&opts.recommendations, "recommendations", false, "only report unmatched tasks and their suggestions")
	f.BoolVar(&opts.review, "review", false, "review the mapping interactively before writing it")
	f.BoolVar(&opts.bind, "bind", false, "choose endpoints for unmatched tasks interactively")
	f.StringVar(&opts.save, "save", "", "write the process with new bindings to this path")
	f.BoolVar(&opts.failOnUnmatched, "fail-on-unmatched", false, "exit non-zero when any task stays unmatched")
	_ = cmd.MarkFlagRequired("process")
	_ = cmd.MarkFlagRequired("openapi")

	return cmd
}

func (a *app) runMap(cmd *cobra.Command, opts *mapOptions) error {
	proc, err := process.Load(opts.processPath)
	if err != nil {
		return err
	}
	doc, err := catalog.NewLoader(a.logger).LoadFile(opts.openAPIPath)
	if err != nil {
		return err
	}

	svc := a.service()
	result := svc.Map(*proc, doc)

	if opts.bind && len(result.UnmatchedTasks) > 0 {
		if !canPrompt() {
			a.logger.Warn("skipping --bind: not an interactive terminal")
		} else {
			bound, err := tui.BindUnmatched(proc, result, svc.Catalog(doc), selector)
			if err != nil {
				return err
			}
			if bound > 0 {
				result = svc.Map(*proc, doc)
			}
		}
	}

	if opts.review {
		if !canPrompt() {
			a.logger.Warn("skipping --review: not an interactive terminal")
		} else {
			outcome, err := runReview(result)
			if err != nil {
				return err
			}
			if !outcome.Approved {
				return errors.NewReviewRejectedError(outcome.Reason)
			}
		}
	}

	if opts.save != "" {
		if err := process.Save(proc, opts.save); err != nil {
			return err
		}
		a.logger.Info("process saved", "path", opts.save)
	}

	var output any = result
	if opts.recommendations {
		output = mapping.RecommendationsFor(result)
	}
	if err := a.write(cmd, opts.format, opts.out, output); err != nil {
		return err
	}

	if opts.failOnUnmatched && len(result.UnmatchedTasks) > 0 {
		a.logger.Debug("unmatched tasks", "ids", unmatchedIDs(result))
		return errors.NewUnmatchedTasksError(len(result.UnmatchedTasks))
	}
	return nil
}

// write renders v in the given format to path, or to the command output when
// path is empty
func (a *app) write(cmd *cobra.Command, format, path string, v any) error {
	opts := &report.Options{Writer: cmd.OutOrStdout(), NoColor: a.noColor}
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to create %s", path), err)
		}
		defer file.Close()
		opts.Writer = file
		opts.NoColor = true
	}

	formatter, err := report.NewFormatter(format, opts)
	if err != nil {
		return err
	}
	return formatter.Format(v)
}

// unmatchedIDs lists the ids of tasks without an endpoint
func unmatchedIDs(result model.MappingResult) []string {
	ids := make([]string, 0, len(result.UnmatchedTasks))
	for _, u := range result.UnmatchedTasks {
		ids = append(ids, u.ElementID)
	}
	return ids
}
