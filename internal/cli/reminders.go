package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vytor/studyhall/internal/jobs"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/reminder"
	"github.com/vytor/studyhall/internal/worker"
)

func newRemindersCmd(st *cliState) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Notify users who have cards due for review",
		Long: `Runs the reminder scheduler: every reminder_interval it counts each
user's due cards and creates a review_due notification, at most once per
reminder_cooldown per user. With --once a single sweep runs and the command
exits when its notifications are written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := st.app.Config
			log := logger.FromContext(ctx).WithPrefix("reminders")

			pool := worker.NewPool(cfg.ReminderWorkers, cfg.ReminderQueueSize)
			pool.Start(ctx)
			defer pool.Stop()

			queue := jobs.NewWorkerQueue(pool, st.app.Notifications)
			sched := reminder.New(st.app.Progress, queue, cfg.ReminderInterval)

			if once {
				queued, err := sched.Sweep(ctx)
				if err != nil {
					return err
				}
				// Stop drains the queue before returning.
				pool.Stop()
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s\n", plural(queued, "reminder"))
				return nil
			}

			if err := sched.Start(ctx); err != nil {
				return err
			}
			defer sched.Stop()
			fmt.Fprintf(cmd.OutOrStdout(), "Sending reminders every %v. Press Ctrl+C to stop.\n", cfg.ReminderInterval)

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case sig := <-quit:
				log.Info("received %v, shutting down", sig)
			case <-ctx.Done():
				log.Info("context cancelled, shutting down")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run one sweep and exit")
	return cmd
}
