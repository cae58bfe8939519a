package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/services"
)

func newDeckCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deck",
		Short: "Manage flashcard decks",
	}
	cmd.AddCommand(
		newDeckCreateCmd(st),
		newDeckListCmd(st),
		newDeckShowCmd(st),
		newDeckDeleteCmd(st),
		newDeckImportCmd(st),
	)
	return cmd
}

func newDeckCreateCmd(st *cliState) *cobra.Command {
	var (
		description string
		public      bool
		sessionID   int64
	)
	cmd := &cobra.Command{
		Use:   "create TITLE",
		Short: "Create an empty deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			input := models.NewDeck{Title: args[0], Description: description, IsPublic: public}
			if sessionID > 0 {
				input.SessionID = &sessionID
			}
			deck, err := st.app.Decks.CreateDeck(ctx, userID, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created deck %d (%s)\n", deck.ID, deck.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "deck description")
	cmd.Flags().BoolVar(&public, "public", false, "make the deck visible to everyone")
	cmd.Flags().Int64Var(&sessionID, "session", 0, "attach the deck to a study session")
	return cmd
}

func newDeckListCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your decks and public decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			decks, err := st.app.Decks.ListDecks(ctx, userID)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "TITLE", "CARDS", "OWNER", "PUBLIC")
			for _, d := range decks {
				owner := fmt.Sprint(d.OwnerID)
				if d.OwnerID == userID {
					owner = "you"
				}
				row(tw, d.ID, truncate(d.Title, 40), d.CardCount, owner, d.IsPublic)
			}
			return tw.Flush()
		},
	}
}

func newDeckShowCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a deck and its cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			deckID, err := parseID(args[0], "deck")
			if err != nil {
				return err
			}
			deck, err := st.app.Decks.GetDeck(ctx, userID, deckID)
			if err != nil {
				return err
			}
			cards, err := st.app.Decks.ListCards(ctx, userID, deckID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (deck %d, %s)\n", deck.Title, deck.ID, plural(len(cards), "card"))
			if deck.Description != "" {
				fmt.Fprintln(out, deck.Description)
			}
			if deck.SessionID != nil {
				fmt.Fprintf(out, "Session: %d\n", *deck.SessionID)
			}
			fmt.Fprintln(out)
			tw := newTable(out, "ID", "QUESTION", "ANSWER")
			for _, c := range cards {
				row(tw, c.ID, truncate(c.Question, 50), truncate(c.Answer, 30))
			}
			return tw.Flush()
		},
	}
}

func newDeckDeleteCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one of your decks with all its cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			deckID, err := parseID(args[0], "deck")
			if err != nil {
				return err
			}
			if err := st.app.Decks.DeleteDeck(ctx, userID, deckID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted deck %d\n", deckID)
			return nil
		},
	}
}

func newDeckImportCmd(st *cliState) *cobra.Command {
	opts := services.DefaultImportOptions()
	var noHeader bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create a deck from an .xlsx or .csv file (question, answer columns)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			opts.SkipHeader = !noHeader
			res, err := st.app.Imports.ImportDeck(ctx, userID, args[0], opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %s into deck %d (%s)\n", plural(res.Imported, "card"), res.Deck.ID, res.Deck.Title)
			for _, s := range res.Skipped {
				fmt.Fprintf(out, "  skipped row %d: %s\n", s.Row, s.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "deck title (default: file name)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "deck description")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "worksheet to read (default: first sheet)")
	cmd.Flags().StringVar(&opts.QuestionColumn, "question-column", opts.QuestionColumn, "column holding questions")
	cmd.Flags().StringVar(&opts.AnswerColumn, "answer-column", opts.AnswerColumn, "column holding answers")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "treat the first row as a card")
	cmd.Flags().BoolVar(&opts.IsPublic, "public", false, "make the deck visible to everyone")
	return cmd
}

func newCardCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage flashcards",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add DECK_ID QUESTION ANSWER",
			Short: "Add a card to one of your decks",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				userID, err := st.actingUser(ctx)
				if err != nil {
					return err
				}
				deckID, err := parseID(args[0], "deck")
				if err != nil {
					return err
				}
				card, err := st.app.Decks.AddCard(ctx, userID, deckID, models.NewFlashcard{Question: args[1], Answer: args[2]})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added card %d to deck %d\n", card.ID, deckID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list DECK_ID",
			Short: "List the cards of a deck",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				userID, err := st.actingUser(ctx)
				if err != nil {
					return err
				}
				deckID, err := parseID(args[0], "deck")
				if err != nil {
					return err
				}
				cards, err := st.app.Decks.ListCards(ctx, userID, deckID)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "QUESTION", "ANSWER")
				for _, c := range cards {
					row(tw, c.ID, truncate(c.Question, 50), truncate(c.Answer, 30))
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a card and everyone's progress on it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				userID, err := st.actingUser(ctx)
				if err != nil {
					return err
				}
				cardID, err := parseID(args[0], "card")
				if err != nil {
					return err
				}
				if err := st.app.Decks.DeleteCard(ctx, userID, cardID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %d\n", cardID)
				return nil
			},
		},
	)
	return cmd
}
