package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/form"
)

func newCheckCmd(app *App) *cobra.Command {
	var (
		valuesPath string
		errorsPath string
	)

	cmd := &cobra.Command{
		Use:   "check <definition>",
		Short: "Validate a record against a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.loadForm(args[0], valuesPath)
			if err != nil {
				return err
			}

			var formLevel []string
			if errorsPath != "" {
				payload, err := form.LoadErrorPayload(errorsPath)
				if err != nil {
					return err
				}
				formLevel = f.ApplyErrorPayload(payload)
			}

			out := cmd.OutOrStdout()
			for _, text := range formLevel {
				fmt.Fprintf(out, "form [error] %s\n", text)
			}
			messages := f.Messages()
			for _, spec := range f.Specs() {
				for _, msg := range messages[spec.Name] {
					fmt.Fprintf(out, "%s [%s] %s\n", spec.Name, msg.Severity, msg.Text)
				}
			}

			if f.HasErrors() || len(formLevel) > 0 {
				return fmt.Errorf("check failed: %s", f.Definition().ID)
			}
			fmt.Fprintf(out, "ok: %d fields\n", len(f.Specs()))
			return nil
		},
	}

	cmd.Flags().StringVar(&valuesPath, "values", "", "Record to validate (yaml, json or toml)")
	cmd.Flags().StringVar(&errorsPath, "errors", "", "Server error payload to route onto fields")
	return cmd
}
