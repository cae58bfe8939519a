package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
	"github.com/vytor/studyhall/internal/repository/sqlite"
	"github.com/vytor/studyhall/internal/srs"
	"github.com/vytor/studyhall/internal/testutil"
)

type ProgressRepositorySuite struct {
	suite.Suite
	db     *sqlx.DB
	repo   repository.ProgressRepository
	now    time.Time
	userID int64
	deckID int64
}

func (s *ProgressRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewProgressRepository(s.db)
	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.userID = testutil.InsertUser(s.T(), s.db, "Ada", "ada@example.com")
	s.deckID = testutil.InsertDeck(s.T(), s.db, s.userID, "Biology", false)
}

func (s *ProgressRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *ProgressRepositorySuite) card(question string) int64 {
	return testutil.InsertCard(s.T(), s.db, s.deckID, question, "answer", s.now.Add(-time.Hour))
}

func (s *ProgressRepositorySuite) TestGetOrCreate_DefaultsAndIdempotent() {
	ctx := context.Background()
	cardID := s.card("What is ATP?")

	first, err := s.repo.GetOrCreate(ctx, cardID, s.userID, s.now)
	s.Require().NoError(err)
	s.Equal(srs.DefaultEasinessFactor, first.EasinessFactor)
	s.Equal(0, first.IntervalDays)
	s.Equal(0, first.Repetitions)
	s.Nil(first.LastReviewed)
	s.True(first.NextReviewDate.Equal(s.now))

	second, err := s.repo.GetOrCreate(ctx, cardID, s.userID, s.now.Add(48*time.Hour))
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.True(second.NextReviewDate.Equal(s.now), "existing row must not be reset")

	var rows int
	s.Require().NoError(s.db.Get(&rows, `SELECT COUNT(*) FROM flashcard_progress`))
	s.Equal(1, rows)
}

func (s *ProgressRepositorySuite) TestSave_OptimisticConcurrency() {
	ctx := context.Background()
	cardID := s.card("What is DNA?")

	p, err := s.repo.GetOrCreate(ctx, cardID, s.userID, s.now)
	s.Require().NoError(err)

	next, err := srs.ComputeNextReview(p.State(), 5, s.now)
	s.Require().NoError(err)
	updated := p.WithState(next)
	s.Require().NoError(s.repo.Save(ctx, updated, p.LastReviewed))

	// A second writer still holding the original snapshot loses.
	err = s.repo.Save(ctx, updated, p.LastReviewed)
	s.ErrorIs(err, repository.ErrConflict)

	reloaded, err := s.repo.GetOrCreate(ctx, cardID, s.userID, s.now)
	s.Require().NoError(err)
	s.Equal(1, reloaded.IntervalDays)
	s.Equal(1, reloaded.Repetitions)
	s.InDelta(2.6, reloaded.EasinessFactor, 1e-9)
	s.Require().NotNil(reloaded.LastReviewed)
	s.True(reloaded.LastReviewed.Equal(s.now))
	s.True(reloaded.NextReviewDate.Equal(s.now.AddDate(0, 0, 1)))

	// The fresh snapshot is accepted.
	again, err := srs.ComputeNextReview(reloaded.State(), 4, s.now.AddDate(0, 0, 1))
	s.Require().NoError(err)
	s.NoError(s.repo.Save(ctx, reloaded.WithState(again), reloaded.LastReviewed))
}

func (s *ProgressRepositorySuite) TestSave_MissingRow() {
	err := s.repo.Save(context.Background(), models.CardProgress{ID: 999, EasinessFactor: 2.5, NextReviewDate: s.now}, nil)
	s.ErrorIs(err, sql.ErrNoRows)
}

func (s *ProgressRepositorySuite) TestInTx_RollsBackOnError() {
	ctx := context.Background()
	cardID := s.card("Rollback?")

	err := s.repo.InTx(ctx, func(tx repository.ProgressRepository) error {
		if _, err := tx.GetOrCreate(ctx, cardID, s.userID, s.now); err != nil {
			return err
		}
		return repository.ErrConflict
	})
	s.ErrorIs(err, repository.ErrConflict)

	var rows int
	s.Require().NoError(s.db.Get(&rows, `SELECT COUNT(*) FROM flashcard_progress`))
	s.Equal(0, rows)
}

func (s *ProgressRepositorySuite) TestDueCards() {
	ctx := context.Background()
	overdue := s.card("overdue")
	future := s.card("future")
	unseen := s.card("unseen")
	notYetCreated := testutil.InsertCard(s.T(), s.db, s.deckID, "tomorrow", "a", s.now.Add(24*time.Hour))

	p, err := s.repo.GetOrCreate(ctx, overdue, s.userID, s.now.Add(-2*time.Hour))
	s.Require().NoError(err)
	s.NotZero(p.ID)

	fp, err := s.repo.GetOrCreate(ctx, future, s.userID, s.now)
	s.Require().NoError(err)
	state, err := srs.ComputeNextReview(fp.State(), 5, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.repo.Save(ctx, fp.WithState(state), nil))

	cards, err := s.repo.DueCards(ctx, models.DueFilter{UserID: s.userID, AsOf: s.now})
	s.Require().NoError(err)
	s.Require().Len(cards, 2)
	s.Equal(overdue, cards[0].ID)
	s.False(cards[0].IsNew())
	s.Equal("Biology", cards[0].DeckTitle)
	s.Equal(unseen, cards[1].ID)
	s.True(cards[1].IsNew())

	for _, c := range cards {
		s.NotEqual(notYetCreated, c.ID)
	}

	limited, err := s.repo.DueCards(ctx, models.DueFilter{UserID: s.userID, AsOf: s.now, Limit: 1})
	s.Require().NoError(err)
	s.Len(limited, 1)

	// Other users' private decks stay hidden.
	other := testutil.InsertUser(s.T(), s.db, "Bob", "bob@example.com")
	hidden, err := s.repo.DueCards(ctx, models.DueFilter{UserID: other, AsOf: s.now})
	s.Require().NoError(err)
	s.Empty(hidden)
}

func (s *ProgressRepositorySuite) TestDueCountsByUser() {
	ctx := context.Background()
	_, err := s.repo.GetOrCreate(ctx, s.card("a"), s.userID, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	_, err = s.repo.GetOrCreate(ctx, s.card("b"), s.userID, s.now.Add(time.Hour))
	s.Require().NoError(err)

	counts, err := s.repo.DueCountsByUser(ctx, s.now)
	s.Require().NoError(err)
	s.Equal([]models.DueCount{{UserID: s.userID, Due: 1}}, counts)
}

func (s *ProgressRepositorySuite) TestDueCountsByUser_MatchesDueCards() {
	ctx := context.Background()
	s.card("never seen 1")
	s.card("never seen 2")
	testutil.InsertCard(s.T(), s.db, s.deckID, "created later", "answer", s.now.Add(time.Hour))

	// Bob holds progress on a card in Ada's deck, which is private.
	bob := testutil.InsertUser(s.T(), s.db, "Bob", "bob@example.com")
	_, err := s.repo.GetOrCreate(ctx, s.card("shared once"), bob, s.now.Add(-time.Hour))
	s.Require().NoError(err)

	counts, err := s.repo.DueCountsByUser(ctx, s.now)
	s.Require().NoError(err)

	for _, userID := range []int64{s.userID, bob} {
		due, err := s.repo.DueCards(ctx, models.DueFilter{UserID: userID, AsOf: s.now})
		s.Require().NoError(err)
		got := 0
		for _, c := range counts {
			if c.UserID == userID {
				got = c.Due
			}
		}
		s.Equal(len(due), got, "user %d", userID)
	}
	s.Equal([]models.DueCount{{UserID: s.userID, Due: 3}}, counts)

	// Once the deck is public Bob's overdue card and the unseen ones count for him too.
	_, err = s.db.Exec(`UPDATE flashcard_decks SET is_public = 1 WHERE id = ?`, s.deckID)
	s.Require().NoError(err)
	counts, err = s.repo.DueCountsByUser(ctx, s.now)
	s.Require().NoError(err)
	s.Equal([]models.DueCount{{UserID: s.userID, Due: 3}, {UserID: bob, Due: 3}}, counts)
}

func (s *ProgressRepositorySuite) TestCascadeDelete() {
	ctx := context.Background()
	cardID := s.card("cascade")
	p, err := s.repo.GetOrCreate(ctx, cardID, s.userID, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.repo.InsertReviewHistory(ctx, models.ReviewHistory{ProgressID: p.ID, Quality: 4, ReviewedAt: s.now}))

	s.Require().NoError(sqlite.NewFlashcardRepository(s.db).Delete(ctx, cardID))

	var progressRows, historyRows int
	s.Require().NoError(s.db.Get(&progressRows, `SELECT COUNT(*) FROM flashcard_progress`))
	s.Require().NoError(s.db.Get(&historyRows, `SELECT COUNT(*) FROM review_history`))
	s.Zero(progressRows)
	s.Zero(historyRows)
}

func (s *ProgressRepositorySuite) TestStats() {
	ctx := context.Background()
	cardID := s.card("stats")
	s.card("never reviewed")

	p, err := s.repo.GetOrCreate(ctx, cardID, s.userID, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.repo.InsertReviewHistory(ctx, models.ReviewHistory{ProgressID: p.ID, Quality: 5, TimeSeconds: 4, RunID: "r1", ReviewedAt: s.now}))
	s.Require().NoError(s.repo.InsertReviewHistory(ctx, models.ReviewHistory{ProgressID: p.ID, Quality: 1, TimeSeconds: 6, RunID: "r1", ReviewedAt: s.now}))

	stats, err := s.repo.Stats(ctx, s.userID, s.now)
	s.Require().NoError(err)
	s.Equal(2, stats.TotalCards)
	s.Equal(1, stats.CardsSeen)
	s.Equal(1, stats.CardsDue)
	s.Equal(2, stats.TotalReviews)
	s.InDelta(50.0, stats.Accuracy, 1e-9)
	s.InDelta(5.0, stats.AvgTimeSeconds, 1e-9)
	s.InDelta(srs.DefaultEasinessFactor, stats.AvgEasinessFactor, 1e-9)
}

func TestProgressRepositorySuite(t *testing.T) {
	suite.Run(t, new(ProgressRepositorySuite))
}
