package cli

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/services"
	"github.com/vytor/studyhall/internal/srs"
)

func newDueCmd(st *cliState) *cobra.Command {
	var (
		deckID int64
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List cards due for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			cards, err := st.app.Reviews.DueCards(ctx, userID, deckID, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cards) == 0 {
				fmt.Fprintln(out, "Nothing due. Come back later.")
				return nil
			}
			tw := newTable(out, "CARD", "DECK", "QUESTION", "STATUS")
			for _, c := range cards {
				row(tw, c.ID, truncate(c.DeckTitle, 24), truncate(c.Question, 50), dueStatus(c))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s due\n", plural(len(cards), "card"))
			return nil
		},
	}
	cmd.Flags().Int64Var(&deckID, "deck", 0, "only cards from this deck")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of cards to list (0 for all)")
	return cmd
}

func dueStatus(c models.DueCard) string {
	if c.IsNew() || c.NextReviewDate == nil {
		return "new"
	}
	return "due since " + formatTime(*c.NextReviewDate)
}

func newReviewCmd(st *cliState) *cobra.Command {
	var (
		deckID int64
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review due cards interactively",
		Long: `Shows each due card's question, waits for Enter, reveals the answer and
asks for a quality rating from 0 to 5:

  0 blackout    complete failure to recall
  1 incorrect   wrong, but remembered once the answer was shown
  2 familiar    wrong, but the answer felt familiar
  3 difficult   right, with serious difficulty
  4 hesitation  right, after some hesitation
  5 perfect     right, immediately

Type q to stop early.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = st.app.Config.ReviewBatchSize
			}
			cards, err := st.app.Reviews.DueCards(ctx, userID, deckID, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cards) == 0 {
				fmt.Fprintln(out, "Nothing due. Come back later.")
				return nil
			}

			r := &reviewRun{
				reviews: st.app.Reviews,
				userID:  userID,
				runID:   st.app.Reviews.NewRunID(),
				in:      bufio.NewReader(cmd.InOrStdin()),
				out:     out,
			}
			log := logger.FromContext(ctx).WithPrefix("review").WithField("run_id", r.runID)
			log.Debug("starting review run with %d cards", len(cards))

			for i, card := range cards {
				fmt.Fprintf(out, "\n[%d/%d] %s\n", i+1, len(cards), card.DeckTitle)
				stop, err := r.reviewCard(cmd, card)
				if err != nil {
					return err
				}
				if stop {
					break
				}
			}

			fmt.Fprintf(out, "\nReviewed %s, %d recalled.\n", plural(r.reviewed, "card"), r.passed)
			log.Debug("review run finished: reviewed=%d passed=%d", r.reviewed, r.passed)
			return nil
		},
	}
	cmd.Flags().Int64Var(&deckID, "deck", 0, "only review cards from this deck")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of cards in this run (default review_batch_size)")
	return cmd
}

// reviewRun is one interactive pass over the due cards.
type reviewRun struct {
	reviews services.ReviewService
	userID  int64
	runID   string
	in      *bufio.Reader
	out     io.Writer

	reviewed int
	passed   int
}

// reviewCard asks about one card. It returns stop=true when the user quits or
// input ends.
func (r *reviewRun) reviewCard(cmd *cobra.Command, card models.DueCard) (bool, error) {
	started := time.Now()
	fmt.Fprintf(r.out, "Q: %s\n", card.Question)
	fmt.Fprint(r.out, "(press Enter to show the answer) ")
	line, eof := r.readLine()
	if eof || isQuit(line) {
		fmt.Fprintln(r.out)
		return true, nil
	}
	fmt.Fprintf(r.out, "A: %s\n", card.Answer)

	for {
		fmt.Fprint(r.out, "Quality 0-5 (q to quit): ")
		line, eof := r.readLine()
		if isQuit(line) || (eof && line == "") {
			fmt.Fprintln(r.out)
			return true, nil
		}

		quality, ok := parseRating(line)
		if !ok {
			fmt.Fprintf(r.out, "%q is not a rating. Use 0-5 or one of blackout, incorrect, familiar, difficult, hesitation, perfect.\n", line)
			if eof {
				return true, nil
			}
			continue
		}

		res, err := r.reviews.SubmitReview(cmd.Context(), services.ReviewRequest{
			UserID:      r.userID,
			FlashcardID: card.ID,
			Quality:     quality,
			TimeSeconds: time.Since(started).Seconds(),
			RunID:       r.runID,
		})
		switch {
		case err == nil:
		case errors.HasCode(err, errors.ErrCodeInvalidQuality):
			appErr, _ := errors.As(err)
			fmt.Fprintln(r.out, appErr.Message)
			if eof {
				return true, nil
			}
			continue
		case errors.HasCode(err, errors.ErrCodeConflict), errors.HasCode(err, errors.ErrCodeNotDue):
			fmt.Fprintln(r.out, "This card was reviewed elsewhere since it was listed; skipping it.")
			return eof, nil
		default:
			return true, err
		}

		r.reviewed++
		if srs.Quality(quality).IsSuccess() {
			r.passed++
		}
		p := res.Progress
		fmt.Fprintf(r.out, "Next review in %s, on %s (EF %.2f)\n",
			plural(p.IntervalDays, "day"), p.NextReviewDate.Local().Format("2006-01-02"), p.EasinessFactor)
		return eof, nil
	}
}

// readLine returns the next input line without its newline, and whether the
// input is exhausted.
func (r *reviewRun) readLine() (string, bool) {
	line, err := r.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil {
		if !stderrors.Is(err, io.EOF) {
			logger.Warn("reading input: %v", err)
		}
		return line, true
	}
	return line, false
}

func isQuit(s string) bool {
	s = strings.ToLower(s)
	return s == "q" || s == "quit"
}

// parseRating reads a rating as typed. Integers pass through unchecked so the
// review service decides their validity; names map to their level.
func parseRating(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	q, err := srs.ParseQuality(s)
	if err != nil {
		return 0, false
	}
	return int(q), true
}

func newStatsCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your review statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := st.actingUser(ctx)
			if err != nil {
				return err
			}
			s, err := st.app.Reviews.Stats(ctx, userID)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "METRIC", "VALUE")
			row(tw, "Cards available", s.TotalCards)
			row(tw, "Cards seen", s.CardsSeen)
			row(tw, "Mastered", s.CardsMastered)
			row(tw, "Struggling", s.CardsStruggling)
			row(tw, "Due now", s.CardsDue)
			row(tw, "Due within a week", s.CardsDueSoon)
			row(tw, "Average EF", fmt.Sprintf("%.2f", s.AvgEasinessFactor))
			row(tw, "Average interval", fmt.Sprintf("%.1f days", s.AvgIntervalDays))
			row(tw, "Reviews", s.TotalReviews)
			row(tw, "Accuracy", fmt.Sprintf("%.1f%%", s.Accuracy))
			row(tw, "Average time", fmt.Sprintf("%.1fs", s.AvgTimeSeconds))
			return tw.Flush()
		},
	}
}
