package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/delegateas/XrmSync-sub000/internal/reconcile"
)

// SyncResult is the JSON payload of the sync command.
type SyncResult struct {
	Solution string         `json:"solution"`
	DryRun   bool           `json:"dry_run"`
	Applied  int            `json:"applied"`
	Plan     reconcile.Plan `json:"plan"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [source-dir]",
		Short: "Converge the remote solution on the declaration",
		Long: `Validate the declaration, diff it against the solution's remote
snapshot and apply the plan: deletes first (children before parents),
then creates (parents before children), then updates.

A validation failure aborts before anything is written. A failed
write stops the run; operations already applied stay applied.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			return runSync(cmd, s, s.source(args))
		},
	}

	addRemoteFlags(cmd)
	cmd.Flags().Bool("dry-run", false, "print the plan without applying it")

	return cmd
}

func runSync(cmd *cobra.Command, s *session, dir string) error {
	ctx := cmd.Context()

	plan, st, decl, err := s.plan(ctx, dir)
	if err != nil {
		return err
	}
	defer st.Close()

	result := SyncResult{Solution: decl.Solution, DryRun: s.cfg.DryRun, Plan: plan}
	if !s.out.JSON() {
		if err := reconcile.Render(s.out.Writer, plan); err != nil {
			return err
		}
	}

	if s.cfg.DryRun {
		s.logger.Info("dry run, plan not applied", "operations", len(plan.Operations))
		if s.out.JSON() {
			return s.out.Success(result)
		}
		_, err := fmt.Fprintln(s.out.Writer, "Dry run: no changes applied.")
		return err
	}

	exec := reconcile.NewExecutor(st.Writer(decl.Solution), reconcile.WithLogger(s.logger))
	result.Applied, err = exec.Apply(ctx, plan)
	if err != nil {
		var applyErr *reconcile.ApplyError
		if errors.As(err, &applyErr) {
			_ = s.out.Error(ErrCodeApply, err.Error(), map[string]any{
				"applied":   applyErr.Applied,
				"operation": reconcile.FormatOperation(applyErr.Op),
			})
			return WrapExitError(ExitCommandError, "sync failed", err)
		}
		return fail(s.out, ErrCodeApply, ExitCommandError, err.Error())
	}

	if s.out.JSON() {
		return s.out.Success(result)
	}
	if plan.Empty() {
		return nil
	}
	_, err = fmt.Fprintf(s.out.Writer, "Applied %d operation(s).\n", result.Applied)
	return err
}
