package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

const (
	formatAuto = "auto"
	formatText = "text"
	formatJSON = "json"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "auto" | "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{formatAuto, formatText, formatJSON}

// NewRootCommand creates the root command of the keyset CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "keyset",
		Short: "Keyset pagination over SQL tables",
		Long: `Fetch pages of a table ordered by one or more columns, resuming from
an opaque bookmark instead of an offset.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", formatAuto, "output format (auto|json|text)")

	cmd.AddCommand(NewPageCommand(opts))

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()

	return GetExitCode(cmd.Execute())
}

// newLogger writes warnings, or debug records in verbose mode, to stderr.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
