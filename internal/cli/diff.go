package cli

import (
	"github.com/spf13/cobra"

	"github.com/delegateas/XrmSync-sub000/internal/reconcile"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [source-dir]",
		Short: "Print the plan that sync would apply",
		Long: `Validate the declaration, read the solution's remote snapshot
and print the ordered create, update and delete operations needed
to converge. Nothing is written.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			return runDiff(cmd, s, s.source(args))
		},
	}

	addRemoteFlags(cmd)

	return cmd
}

// addRemoteFlags registers the flags shared by commands that read the
// remote store.
func addRemoteFlags(cmd *cobra.Command) {
	cmd.Flags().String("db", "", "path to the remote store database (default xrmsync.db)")
	cmd.Flags().String("solution", "", "solution name (overrides the declaration)")
	cmd.Flags().String("prefix", "", "publisher prefix required on custom API names (overrides the declaration)")
}

func runDiff(cmd *cobra.Command, s *session, dir string) error {
	plan, st, _, err := s.plan(cmd.Context(), dir)
	if err != nil {
		return err
	}
	defer st.Close()

	if s.out.JSON() {
		return s.out.Success(plan)
	}
	return reconcile.Render(s.out.Writer, plan)
}
