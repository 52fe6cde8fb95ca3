package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [source-dir]",
		Short: "Validate declarations without touching the remote system",
		Long: `Validate CUE declarations of plugin steps and custom APIs.

Runs schema unification and every registration rule, reporting all
violations at once. User contexts are not checked here since they
can only be resolved against the remote system; diff and sync do.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			return runValidate(s, s.source(args))
		},
	}

	cmd.Flags().String("prefix", "", "publisher prefix required on custom API names (overrides the declaration)")
	cmd.Flags().String("solution", "", "solution name (overrides the declaration)")

	return cmd
}

func runValidate(s *session, dir string) error {
	decl, err := s.load(dir)
	if err != nil {
		return err
	}
	if err := s.validate(decl, nil); err != nil {
		return err
	}

	if s.out.JSON() {
		return s.out.Success(ValidationResult{
			Valid:       true,
			Solution:    decl.Solution,
			PluginTypes: len(decl.PluginTypes),
			CustomAPIs:  len(decl.CustomAPIs),
		})
	}

	_, err = fmt.Fprintf(s.out.Writer, "✓ Declaration valid: %d plugin type(s), %d custom API(s)\n",
		len(decl.PluginTypes), len(decl.CustomAPIs))
	return err
}
