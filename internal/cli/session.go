package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/delegateas/XrmSync-sub000/internal/config"
	"github.com/delegateas/XrmSync-sub000/internal/declare"
	"github.com/delegateas/XrmSync-sub000/internal/difference"
	"github.com/delegateas/XrmSync-sub000/internal/model"
	"github.com/delegateas/XrmSync-sub000/internal/reconcile"
	"github.com/delegateas/XrmSync-sub000/internal/store"
	"github.com/delegateas/XrmSync-sub000/internal/validation"
)

// Error codes for failures outside declaration loading and validation.
const (
	ErrCodeConfig     = "E010" // Configuration could not be read or is invalid
	ErrCodeNoSolution = "E011" // No solution declared or configured
	ErrCodeStore      = "E012" // Remote store could not be opened or read
	ErrCodeApply      = "E013" // A plan operation failed
)

// flagKeys maps command flags onto configuration keys.
var flagKeys = map[string]string{
	"db":       "database",
	"solution": "solution",
	"prefix":   "prefix",
	"dry-run":  "dry_run",
}

// session is the per-invocation state shared by the commands.
type session struct {
	cfg    config.Config
	out    *OutputFormatter
	logger *slog.Logger
}

func newSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	out := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	v := viper.New()
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fail(out, ErrCodeConfig, ExitCommandError, fmt.Sprintf("binding --%s: %v", flag, err))
			}
		}
	}

	cfg, err := config.Load(v, opts.ConfigFile)
	if err != nil {
		return nil, fail(out, ErrCodeConfig, ExitCommandError, err.Error())
	}

	level := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	return &session{cfg: cfg, out: out, logger: logger}, nil
}

// fail reports an error in the configured format and returns the matching
// ExitError.
func fail(out *OutputFormatter, code string, exit int, message string) error {
	_ = out.Error(code, message, nil)
	return NewExitError(exit, fmt.Sprintf("%s: %s", code, message))
}

// source picks the declaration directory: the argument when given, the
// configured source otherwise.
func (s *session) source(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return s.cfg.Source
}

// load reads the declaration in dir and applies configured overrides.
func (s *session) load(dir string) (model.Declaration, error) {
	decl, err := declare.Load(dir)
	if err != nil {
		return model.Declaration{}, s.loadFailure(err)
	}

	if s.cfg.Solution != "" {
		decl.Solution = s.cfg.Solution
	}
	if s.cfg.Prefix != "" {
		decl.Prefix = s.cfg.Prefix
	}

	s.logger.Info("loaded declaration",
		"dir", dir,
		"solution", decl.Solution,
		"plugin_types", len(decl.PluginTypes),
		"custom_apis", len(decl.CustomAPIs))
	return decl, nil
}

func (s *session) loadFailure(err error) error {
	var loadErr *declare.LoadError
	if errors.As(err, &loadErr) {
		exit := ExitCommandError
		if loadErr.Code == declare.ErrCodeBuildFailed || loadErr.Code == declare.ErrCodeInvalid {
			exit = ExitFailure
		}
		message := loadErr.Message
		if loadErr.Pos.IsValid() {
			message = fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), message)
		}
		return fail(s.out, loadErr.Code, exit, message)
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return fail(s.out, declare.ErrCodeGeneric, ExitCommandError, err.Error())
	}

	messages := make([]string, len(merr.Errors))
	for i, e := range merr.Errors {
		messages[i] = e.Error()
	}
	if s.out.JSON() {
		_ = s.out.Error(declare.ErrCodeInvalid, fmt.Sprintf("declaration has %d error(s)", len(messages)), messages)
	} else {
		fmt.Fprintln(s.out.Writer, "✗ Declaration invalid")
		fmt.Fprintln(s.out.Writer)
		for _, m := range messages {
			fmt.Fprintf(s.out.Writer, "  %s\n", m)
		}
	}
	return WrapExitError(ExitFailure, "declaration invalid", err)
}

// ValidationResult is the JSON payload of validation outcomes.
type ValidationResult struct {
	Valid       bool                   `json:"valid"`
	Solution    string                 `json:"solution,omitempty"`
	PluginTypes int                    `json:"plugin_types"`
	CustomAPIs  int                    `json:"custom_apis"`
	Violations  []validation.Violation `json:"violations,omitempty"`
}

// validate runs the rule registry over decl and reports every violation.
func (s *session) validate(decl model.Declaration, missingUsers []uuid.UUID) error {
	err := validation.Validate(decl, validation.Options{
		Prefix:              decl.Prefix,
		MissingUserContexts: missingUsers,
	})
	if err == nil {
		s.logger.Debug("declaration valid", "solution", decl.Solution)
		return nil
	}

	violations := validation.Violations(err)
	if len(violations) == 0 {
		return fail(s.out, declare.ErrCodeGeneric, ExitCommandError, err.Error())
	}
	s.logger.Info("declaration rejected", "violations", len(violations))

	if s.out.JSON() {
		_ = s.out.encode(CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Solution:    decl.Solution,
				PluginTypes: len(decl.PluginTypes),
				CustomAPIs:  len(decl.CustomAPIs),
				Violations:  violations,
			},
			Error: &CLIError{
				Code:    violations[0].Code,
				Message: violations[0].Message,
			},
		})
	} else {
		fmt.Fprintln(s.out.Writer, "✗ Validation failed")
		fmt.Fprintln(s.out.Writer)
		for _, v := range violations {
			fmt.Fprintf(s.out.Writer, "  %s\n", v)
		}
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("validation failed with %d violation(s)", len(violations)), err)
}

// plan loads and validates the declaration in dir, then diffs it against
// the remote snapshot of its solution. The returned store is open; the
// caller closes it.
func (s *session) plan(ctx context.Context, dir string) (reconcile.Plan, *store.Store, model.Declaration, error) {
	decl, err := s.load(dir)
	if err != nil {
		return reconcile.Plan{}, nil, model.Declaration{}, err
	}
	if decl.Solution == "" {
		return reconcile.Plan{}, nil, model.Declaration{}, fail(s.out, ErrCodeNoSolution, ExitCommandError,
			"no solution: declare solution or pass --solution")
	}

	st, err := store.Open(s.cfg.Database)
	if err != nil {
		return reconcile.Plan{}, nil, model.Declaration{}, fail(s.out, ErrCodeStore, ExitCommandError, err.Error())
	}

	plan, err := s.diff(ctx, st, decl)
	if err != nil {
		st.Close()
		return reconcile.Plan{}, nil, model.Declaration{}, err
	}
	return plan, st, decl, nil
}

func (s *session) diff(ctx context.Context, st *store.Store, decl model.Declaration) (reconcile.Plan, error) {
	missing, err := st.MissingUserContexts(ctx, decl.UserContexts())
	if err != nil {
		return reconcile.Plan{}, fail(s.out, ErrCodeStore, ExitCommandError, err.Error())
	}
	if err := s.validate(decl, missing); err != nil {
		return reconcile.Plan{}, err
	}

	remote, err := st.Snapshot(ctx, decl.Solution)
	if err != nil {
		return reconcile.Plan{}, fail(s.out, ErrCodeStore, ExitCommandError, err.Error())
	}
	s.logger.Debug("read remote snapshot",
		"database", s.cfg.Database,
		"solution", decl.Solution,
		"plugin_types", len(remote.PluginTypes),
		"custom_apis", len(remote.CustomAPIs))

	plan := reconcile.NewPlan(difference.Calculate(decl, remote))
	creates, updates, deletes := plan.Totals()
	s.logger.Info("planned",
		"solution", decl.Solution,
		"creates", creates,
		"updates", updates,
		"deletes", deletes)
	return plan, nil
}
