package cli

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/internal/logging"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/session"
)

// App carries state shared by every subcommand.
type App struct {
	Verbose bool

	logger zerolog.Logger
	driver session.PromptDriver
}

// NewRootCmd assembles the formstate command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "formstate",
		Short:        "Edit, check and import declarative forms",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Fill in a form interactively and write the answers
  formstate edit signup.yaml --values current.yaml --output answers.json

  # Validate a record and route server errors onto fields
  formstate check signup.yaml --values answers.json --errors response.json

  # Turn an OpenAPI request body into a form definition
  formstate import openapi.yaml --operation createSignup --output signup.yaml
`),
	}

	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log debug output to stderr")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := logging.ConfigFor(logging.ProfileRuntime)
		if app.Verbose {
			cfg.Level = zerolog.DebugLevel
		}
		app.logger = logging.NewWithConfig("formstate", cfg, cmd.ErrOrStderr())
		return nil
	}

	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newCheckCmd(app))
	cmd.AddCommand(newImportCmd(app))
	return cmd
}

func (a *App) loadForm(definitionPath, valuesPath string) (*form.Form, error) {
	def, err := form.LoadDefinition(definitionPath)
	if err != nil {
		return nil, err
	}
	f, err := form.New(def, form.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	if valuesPath == "" {
		return f, nil
	}
	values, err := form.LoadValues(valuesPath)
	if err != nil {
		return nil, err
	}
	if err := f.LoadValues(values); err != nil {
		return nil, err
	}
	return f, nil
}

// outputFormat prefers an explicit --format, then the output extension, then
// fallback.
func outputFormat(explicit, outputPath string, fallback form.Format) (form.Format, error) {
	if explicit != "" {
		return form.ParseFormat(explicit)
	}
	if outputPath != "" {
		return form.FormatFromPath(outputPath)
	}
	return fallback, nil
}

// writeOutput writes to path, or to stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
