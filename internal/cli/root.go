// Package cli provides the officetext command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/asalih/go-officetext/internal/config"
)

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the command tree. version is printed by --version.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "officetext",
		Short: "Extract plain text from office documents",
		Long: `officetext - extract plain text from Word, PowerPoint and Excel documents.

Supports the binary 97-2003 formats (doc, ppt, xls), their Office Open XML
successors (docx, pptx, xlsx) and PDF.

Settings come from built-in defaults, then the file named by --config, then
OFFICETEXT_* environment variables (a .env file in the working directory is
loaded first), then command line flags.

Examples:
  officetext extract report.doc
  officetext extract --max-chars 4096 --jobs 8 --output-dir ./txt *.xls
  officetext sniff unknown.bin
  officetext entries --output yaml deck.ppt
  officetext cat deck.ppt "/PowerPoint Document" > stream.bin`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML settings file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newExtractCommand(a),
		newSniffCommand(a),
		newEntriesCommand(a),
		newCatCommand(a),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(version string) int {
	root := NewRootCommand(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.cfg.Logger = a.logger
	return nil
}
