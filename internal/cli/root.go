// Package cli implements the studyhall command tree.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vytor/studyhall/internal/config"
	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/logger"
)

// cliState is shared by every command of one invocation.
type cliState struct {
	configFile string
	dbPath     string
	logLevel   string
	userID     int64

	app *App
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRoot()
	return cmd
}

func newRoot() (*cobra.Command, *cliState) {
	st := &cliState{}

	cmd := &cobra.Command{
		Use:   "studyhall",
		Short: "Study sessions and spaced-repetition flashcards",
		Long: `studyhall coordinates study sessions and schedules flashcard reviews
with the SM-2 spaced repetition algorithm.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return st.close(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&st.configFile, "config", "", "path to a YAML config file")
	flags.StringVar(&st.dbPath, "db-path", "", "SQLite database file (default studyhall.db)")
	flags.StringVar(&st.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.Int64Var(&st.userID, "user", 0, "id of the acting user")

	cmd.AddCommand(
		newUserCmd(st),
		newDeckCmd(st),
		newCardCmd(st),
		newDueCmd(st),
		newReviewCmd(st),
		newStatsCmd(st),
		newSessionCmd(st),
		newNotifyCmd(st),
		newRemindersCmd(st),
	)
	return cmd, st
}

func (st *cliState) open(cmd *cobra.Command) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}
	cfg, err := config.Load(config.LoadOptions{ConfigFile: st.configFile, Flags: cmd.Flags()})
	if err != nil {
		return errors.NewBadRequestError(err.Error())
	}

	log := logger.New(
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(cfg.LogColors),
	)
	logger.SetDefault(log)
	log.Debug("configuration loaded: db_path=%s, log_level=%s, max_interval_days=%d", cfg.DBPath, cfg.LogLevel, cfg.MaxIntervalDays)

	ctx := logger.NewContext(cmd.Context(), log)
	cmd.SetContext(ctx)

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return errors.NewPersistenceError(err)
	}
	st.app = app
	return nil
}

func (st *cliState) close(cmd *cobra.Command) error {
	return st.shutdown(cmd.Context())
}

// shutdown closes the database if a command opened it. Safe to call twice.
func (st *cliState) shutdown(ctx context.Context) error {
	if st.app == nil {
		return nil
	}
	logger.FromContext(ctx).Debug("closing database connection")
	err := st.app.Close()
	st.app = nil
	return err
}

// actingUser returns the --user id after checking that the user exists.
func (st *cliState) actingUser(ctx context.Context) (int64, error) {
	if st.userID <= 0 {
		return 0, errors.NewBadRequestError("--user is required for this command")
	}
	if _, err := st.app.Users.GetUser(ctx, st.userID); err != nil {
		return 0, err
	}
	return st.userID, nil
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd, st := newRoot()
	defer st.shutdown(ctx)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if appErr, ok := errors.As(err); ok {
		msg := appErr.Message
		if appErr.Err != nil && (appErr.Code == errors.ErrCodePersistence || appErr.Code == errors.ErrCodeInternal || appErr.Code == errors.ErrCodeBadRequest) {
			msg = fmt.Sprintf("%s: %v", msg, appErr.Err)
		}
		fmt.Fprintf(stderr, "Error: %s\n", msg)
		return appErr.ExitCode
	}
	if stderrors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, "Error: interrupted")
		return errors.ExitInternal
	}
	// Anything else comes from cobra's argument and flag parsing.
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return errors.ExitUsage
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewBadRequestError(fmt.Sprintf("invalid %s id %q", what, s))
	}
	return id, nil
}
