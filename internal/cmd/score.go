package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowbind/internal/report"
	"github.com/felixgeelhaar/flowbind/internal/similarity"
)

// scoreResult is the output of the score command
type scoreResult struct {
	A          string  `json:"a" yaml:"a"`
	B          string  `json:"b" yaml:"b"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
	Accepted   bool    `json:"accepted" yaml:"accepted"`
}

func (r scoreResult) String() string {
	verdict := "below"
	if r.Accepted {
		verdict = "meets"
	}
	return fmt.Sprintf("similarity %.4f (%s the semantic threshold)", r.Similarity, verdict)
}

func newScoreCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "score <text> <text>",
		Short: "Score the similarity of two texts",
		Long: `Score two texts with the same similarity model the resolver uses and report
whether the score meets the configured semantic threshold.`,
		Example: `  flowbind score "Получение списка счетов" "getAccounts Получение списка счетов пользователя"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score := similarity.NewScorer().Similarity(args[0], args[1])
			return a.write(cmd, format, "", scoreResult{
				A:          args[0],
				B:          args[1],
				Similarity: score,
				Accepted:   score >= a.cfg.Thresholds.SemanticMatch,
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatText, "output format: text, json, yaml")
	return cmd
}
