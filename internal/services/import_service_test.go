package services_test

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/services"
	"github.com/vytor/studyhall/internal/testutil/mocks"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	path := filepath.Join(t.TempDir(), "capitals.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportDeck_Excel(t *testing.T) {
	ctx := context.Background()
	decks := new(mocks.MockDeckRepository)
	cards := new(mocks.MockFlashcardRepository)
	svc := services.NewImportService(decks, cards)

	path := writeWorkbook(t, [][]any{
		{"Question", "Answer"},
		{"France", "Paris"},
		{"Peru", ""},
		{"", ""},
		{"Chad", "N'Djamena"},
	})

	decks.On("Create", ctx, int64(1), models.NewDeck{Title: "capitals"}).Return(&models.Deck{ID: 5, Title: "capitals", OwnerID: 1}, nil)
	cards.On("InsertBatch", ctx, int64(5), []models.NewFlashcard{
		{Question: "France", Answer: "Paris"},
		{Question: "Chad", Answer: "N'Djamena"},
	}).Return([]int64{1, 2}, nil)

	res, err := svc.ImportDeck(ctx, 1, path, services.DefaultImportOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 2, res.Deck.CardCount)
	assert.Equal(t, []services.SkippedRow{{Row: 3, Reason: "missing answer"}}, res.Skipped)
}

func TestImportDeck_CSVWithoutHeader(t *testing.T) {
	ctx := context.Background()
	decks := new(mocks.MockDeckRepository)
	cards := new(mocks.MockFlashcardRepository)
	svc := services.NewImportService(decks, cards)

	path := filepath.Join(t.TempDir(), "verbs.csv")
	require.NoError(t, os.WriteFile(path, []byte("go,went\nsee,saw\n"), 0o644))

	decks.On("Create", ctx, int64(1), models.NewDeck{Title: "Irregular verbs", IsPublic: true}).Return(&models.Deck{ID: 6}, nil)
	cards.On("InsertBatch", ctx, int64(6), mock.MatchedBy(func(c []models.NewFlashcard) bool { return len(c) == 2 })).Return([]int64{1, 2}, nil)

	opts := services.DefaultImportOptions()
	opts.SkipHeader = false
	opts.Title = "Irregular verbs"
	opts.IsPublic = true

	res, err := svc.ImportDeck(ctx, 1, path, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Empty(t, res.Skipped)
}

func TestImportDeck_RemovesDeckWhenCardsFail(t *testing.T) {
	ctx := context.Background()
	decks := new(mocks.MockDeckRepository)
	cards := new(mocks.MockFlashcardRepository)
	svc := services.NewImportService(decks, cards)

	path := filepath.Join(t.TempDir(), "deck.csv")
	require.NoError(t, os.WriteFile(path, []byte("q,a\n"), 0o644))

	decks.On("Create", ctx, int64(1), mock.Anything).Return(&models.Deck{ID: 7}, nil)
	cards.On("InsertBatch", ctx, int64(7), mock.Anything).Return(nil, stderrors.New("disk full"))
	decks.On("Delete", ctx, int64(7)).Return(nil)

	opts := services.DefaultImportOptions()
	opts.SkipHeader = false
	_, err := svc.ImportDeck(ctx, 1, path, opts)

	assert.True(t, errors.HasCode(err, errors.ErrCodePersistence))
	decks.AssertCalled(t, "Delete", ctx, int64(7))
}

func TestImportDeck_Rejects(t *testing.T) {
	ctx := context.Background()
	svc := services.NewImportService(new(mocks.MockDeckRepository), new(mocks.MockFlashcardRepository))
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	_, err := svc.ImportDeck(ctx, 1, txt, services.DefaultImportOptions())
	assert.True(t, errors.HasCode(err, errors.ErrCodeBadRequest))

	headerOnly := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(headerOnly, []byte("Question,Answer\n"), 0o644))
	_, err = svc.ImportDeck(ctx, 1, headerOnly, services.DefaultImportOptions())
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	_, err = svc.ImportDeck(ctx, 1, writeWorkbook(t, [][]any{{"q", "a"}}), services.ImportOptions{Sheet: "Missing"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	_, err = svc.ImportDeck(ctx, 1, headerOnly, services.ImportOptions{QuestionColumn: "1"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}
