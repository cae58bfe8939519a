package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/models"
)

func newSessionCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Schedule and join study sessions",
	}
	cmd.AddCommand(
		newSessionCreateCmd(st),
		newSessionListCmd(st),
		newSessionShowCmd(st),
		newSessionDeleteCmd(st),
		newSessionRSVPCmd(st),
		newSessionCancelCmd(st),
		newSessionMessageCmd(st),
		newSessionReplyCmd(st),
		newSessionMessagesCmd(st),
		newSessionThreadCmd(st),
		newSessionReactCmd(st),
	)
	return cmd
}

func newSessionCreateCmd(st *cliState) *cobra.Command {
	var (
		input    models.NewSession
		startsAt string
	)
	cmd := &cobra.Command{
		Use:   "create TITLE",
		Short: "Schedule a study session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			at, err := parseStartTime(startsAt)
			if err != nil {
				return err
			}
			input.Title = args[0]
			input.StartsAt = at
			session, err := st.app.Sessions.CreateSession(ctx, userID, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created session %d (%s) starting %s\n", session.ID, session.Title, formatTime(session.StartsAt))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&input.Type, "type", models.SessionInPerson, "in-person or remote")
	flags.StringVar(&input.Location, "location", "", "where an in-person session meets")
	flags.StringVar(&input.MeetingLink, "link", "", "meeting URL of a remote session")
	flags.StringVar(&startsAt, "starts-at", "", `start time, "YYYY-MM-DD HH:MM" local or RFC 3339`)
	flags.IntVar(&input.Capacity, "capacity", 0, "maximum attendees (0 for unlimited)")
	flags.StringVar(&input.Description, "description", "", "session description")
	_ = cmd.MarkFlagRequired("starts-at")
	return cmd
}

func parseStartTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(dateTimeLayout, s, time.Local); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.NewBadRequestError(fmt.Sprintf("invalid --starts-at %q: use \"YYYY-MM-DD HH:MM\" or RFC 3339", s))
}

func newSessionListCmd(st *cliState) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming study sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := st.app.Sessions.ListSessions(cmd.Context(), !all)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "TITLE", "TYPE", "STARTS", "SEATS", "WHERE")
			for _, s := range sessions {
				row(tw, s.ID, truncate(s.Title, 32), s.Type, formatTime(s.StartsAt), seats(s), truncate(venue(s), 32))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include sessions that already started")
	return cmd
}

func seats(s models.StudySession) string {
	if s.Capacity == 0 {
		return fmt.Sprintf("%d/-", s.RSVPCount)
	}
	return fmt.Sprintf("%d/%d", s.RSVPCount, s.Capacity)
}

func venue(s models.StudySession) string {
	if s.Type == models.SessionRemote {
		return s.MeetingLink
	}
	return s.Location
}

func newSessionShowCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a session and who is attending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "session")
			if err != nil {
				return err
			}
			s, err := st.app.Sessions.GetSession(ctx, id)
			if err != nil {
				return err
			}
			people, err := st.app.Sessions.Participants(ctx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (session %d)\n", s.Title, s.ID)
			if s.Description != "" {
				fmt.Fprintln(out, s.Description)
			}
			fmt.Fprintf(out, "Type:   %s\n", s.Type)
			fmt.Fprintf(out, "Where:  %s\n", venue(*s))
			fmt.Fprintf(out, "Starts: %s\n", formatTime(s.StartsAt))
			fmt.Fprintf(out, "Seats:  %s\n\n", seats(*s))

			if len(people) == 0 {
				fmt.Fprintln(out, "No one has RSVPed yet.")
				return nil
			}
			tw := newTable(out, "USER", "NAME", "RSVP AT")
			for _, p := range people {
				row(tw, p.UserID, p.Name, formatTime(p.RSVPAt))
			}
			return tw.Flush()
		},
	}
}

func newSessionDeleteCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Cancel a session you created",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			id, err := parseID(args[0], "session")
			if err != nil {
				return err
			}
			if err := st.app.Sessions.DeleteSession(ctx, userID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %d\n", id)
			return nil
		},
	}
}

func newSessionRSVPCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "rsvp ID",
		Short: "Reserve a seat in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			id, err := parseID(args[0], "session")
			if err != nil {
				return err
			}
			if _, err := st.app.Sessions.RSVP(ctx, userID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "You are attending session %d\n", id)
			return nil
		},
	}
}

func newSessionCancelCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Withdraw your RSVP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			id, err := parseID(args[0], "session")
			if err != nil {
				return err
			}
			if err := st.app.Sessions.CancelRSVP(ctx, userID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "RSVP to session %d cancelled\n", id)
			return nil
		},
	}
}
