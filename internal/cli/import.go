package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/form"
)

func newImportCmd(app *App) *cobra.Command {
	var (
		operationID string
		outputPath  string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "import <openapi-document>",
		Short: "Build a form definition from an OpenAPI request body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := outputFormat(format, outputPath, form.FormatYAML)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read openapi document: %w", err)
			}
			def, err := form.FromOpenAPI(cmd.Context(), data, operationID)
			if err != nil {
				return err
			}
			app.logger.Debug().
				Str("operation", operationID).
				Int("fields", len(def.Fields)).
				Msg("definition imported")

			return writeOutput(cmd, outputPath, func(w io.Writer) error {
				return form.EncodeDefinition(w, outFormat, def)
			})
		},
	}

	cmd.Flags().StringVar(&operationID, "operation", "", "operationId to import")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the definition here instead of stdout")
	cmd.Flags().StringVar(&format, "format", "", "Output format: yaml, json or toml")
	_ = cmd.MarkFlagRequired("operation")
	return cmd
}
