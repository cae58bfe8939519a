package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vytor/studyhall/internal/models"
)

func newUserCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add NAME EMAIL",
			Short: "Create a user",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := st.app.Users.CreateUser(cmd.Context(), models.NewUser{Name: args[0], Email: args[1]})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", user.ID, user.Email)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				users, err := st.app.Users.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "EMAIL", "CREATED")
				for _, u := range users {
					row(tw, u.ID, u.Name, u.Email, formatTime(u.CreatedAt))
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a user with their decks, progress and RSVPs",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "user")
				if err != nil {
					return err
				}
				if err := st.app.Users.DeleteUser(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", id)
				return nil
			},
		},
	)
	return cmd
}
