package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowbind/internal/catalog"
	"github.com/felixgeelhaar/flowbind/internal/report"
)

func newCatalogCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "catalog <openapi-file>",
		Short: "List the endpoints of an OpenAPI document",
		Long: `List every GET, POST, PUT and DELETE operation of an OpenAPI document in
catalog order, with the composed text that similarity matching uses.`,
		Example: `  flowbind catalog bank.yaml
  flowbind catalog bank.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := catalog.NewLoader(a.logger).LoadFile(args[0])
			if err != nil {
				return err
			}
			return a.write(cmd, format, "", catalog.Build(doc))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatText, "output format: text, json, yaml")
	return cmd
}
