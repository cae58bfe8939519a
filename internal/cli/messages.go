package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vytor/studyhall/internal/models"
)

func newSessionMessageCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "message SESSION_ID TEXT",
		Short: "Post on a session's message board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			sessionID, err := parseID(args[0], "session")
			if err != nil {
				return err
			}
			msg, err := st.app.Messages.Post(ctx, userID, sessionID, models.NewMessage{Body: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted message %d\n", msg.ID)
			return nil
		},
	}
}

func newSessionReplyCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "reply MESSAGE_ID TEXT",
		Short: "Reply to a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			id, err := parseID(args[0], "message")
			if err != nil {
				return err
			}
			reply, err := st.app.Messages.Reply(ctx, userID, id, models.NewMessage{Body: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted reply %d in thread %d\n", reply.ID, *reply.ParentID)
			return nil
		},
	}
}

func newSessionMessagesCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "messages SESSION_ID",
		Short: "List the threads on a session's message board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0], "session")
			if err != nil {
				return err
			}
			messages, reactions, err := st.app.Messages.ListMessages(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(messages) == 0 {
				fmt.Fprintln(out, "No messages yet.")
				return nil
			}
			for _, m := range messages {
				printMessage(out, m, reactions[m.ID], "")
				switch {
				case m.ReplyCount == 1:
					fmt.Fprintln(out, "    (1 reply)")
				case m.ReplyCount > 1:
					fmt.Fprintf(out, "    (%d replies)\n", m.ReplyCount)
				}
			}
			return nil
		},
	}
}

func newSessionThreadCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "thread MESSAGE_ID",
		Short: "Show a message with all its replies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "message")
			if err != nil {
				return err
			}
			thread, err := st.app.Messages.GetThread(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printMessage(out, thread.Root, thread.Reactions[thread.Root.ID], "")
			for _, r := range thread.Replies {
				printMessage(out, r, thread.Reactions[r.ID], "    ")
			}
			return nil
		},
	}
}

func newSessionReactCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "react MESSAGE_ID EMOJI",
		Short: "Add a reaction to a message, or remove it if already there",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			id, err := parseID(args[0], "message")
			if err != nil {
				return err
			}
			present, err := st.app.Messages.ToggleReaction(ctx, userID, id, models.NewReaction{Emoji: args[1]})
			if err != nil {
				return err
			}
			if present {
				fmt.Fprintf(cmd.OutOrStdout(), "Reacted %s to message %d\n", args[1], id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from message %d\n", args[1], id)
			}
			return nil
		},
	}
}

func printMessage(w io.Writer, m models.Message, reactions []models.ReactionCount, indent string) {
	fmt.Fprintf(w, "%s#%d %s, %s\n", indent, m.ID, m.AuthorName, formatTime(m.CreatedAt))
	for _, line := range strings.Split(m.Body, "\n") {
		fmt.Fprintf(w, "%s  %s\n", indent, line)
	}
	if len(reactions) > 0 {
		parts := make([]string, len(reactions))
		for i, r := range reactions {
			parts[i] = fmt.Sprintf("%s %d", r.Emoji, r.Count)
		}
		fmt.Fprintf(w, "%s  [%s]\n", indent, strings.Join(parts, "  "))
	}
}
