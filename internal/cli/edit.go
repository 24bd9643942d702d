package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/session"
)

func newEditCmd(app *App) *cobra.Command {
	var (
		valuesPath string
		outputPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "edit <definition>",
		Short: "Fill in a form interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := outputFormat(format, outputPath, form.FormatJSON)
			if err != nil {
				return err
			}
			f, err := app.loadForm(args[0], valuesPath)
			if err != nil {
				return err
			}

			options := []session.Option{session.WithLogger(app.logger)}
			if app.driver != nil {
				options = append(options, session.WithPromptDriver(app.driver))
			} else {
				options = append(options, session.WithPromptDriver(session.NewSurveyDriver(cmd.ErrOrStderr())))
			}
			s, err := session.New(f, options...)
			if err != nil {
				return err
			}

			result, err := s.Run(cmd.Context())
			if errors.Is(err, session.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.Saved {
				fmt.Fprintln(cmd.ErrOrStderr(), "No changes saved.")
				return nil
			}

			if err := writeOutput(cmd, outputPath, func(w io.Writer) error {
				return form.EncodeValues(w, outFormat, result.Values)
			}); err != nil {
				return fmt.Errorf("write values: %w", err)
			}
			if outputPath != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Values written to %s\n", outputPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&valuesPath, "values", "", "Record to start from (yaml, json or toml)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write saved values here instead of stdout")
	cmd.Flags().StringVar(&format, "format", "", "Output format: json, yaml or toml")
	return cmd
}
