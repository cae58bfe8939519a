package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vytor/studyhall/internal/errors"
)

func newNotifyCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notify",
		Aliases: []string{"notifications", "inbox"},
		Short:   "Read your notifications",
	}

	var (
		unread bool
		limit  int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			items, err := st.app.Notifications.List(ctx, userID, unread, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No notifications.")
				return nil
			}
			tw := newTable(out, "ID", "", "WHEN", "TITLE", "MESSAGE")
			for _, n := range items {
				mark := " "
				if !n.IsRead {
					mark = "*"
				}
				row(tw, n.ID, mark, formatTime(n.CreatedAt), truncate(n.Title, 30), truncate(n.Message, 60))
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	list.Flags().IntVar(&limit, "limit", 50, "maximum number to show (0 for all)")

	var all bool
	read := &cobra.Command{
		Use:   "read [ID]",
		Short: "Mark a notification, or all of them, as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if all {
				n, err := st.app.Notifications.MarkAllRead(ctx, userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Marked %s as read\n", plural(int(n), "notification"))
				return nil
			}
			if len(args) != 1 {
				return errors.NewBadRequestError("give a notification id or --all")
			}
			id, err := parseID(args[0], "notification")
			if err != nil {
				return err
			}
			if err := st.app.Notifications.MarkRead(ctx, userID, id); err != nil {
				return err
			}
			fmt.Fprintf(out, "Marked notification %d as read\n", id)
			return nil
		},
	}
	read.Flags().BoolVar(&all, "all", false, "mark every notification as read")

	cmd.AddCommand(list, read)
	return cmd
}
