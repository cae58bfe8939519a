package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ImportOptions controls how a spreadsheet becomes a deck.
type ImportOptions struct {
	Title          string // Deck title; defaults to the file name
	Description    string
	Sheet          string // Worksheet to read; defaults to the first one
	QuestionColumn string // Column letter holding questions
	AnswerColumn   string // Column letter holding answers
	SkipHeader     bool   // Ignore the first row
	IsPublic       bool
}

// DefaultImportOptions reads questions from column A and answers from
// column B, skipping a header row.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		QuestionColumn: "A",
		AnswerColumn:   "B",
		SkipHeader:     true,
	}
}

// SkippedRow is a row that could not become a card.
type SkippedRow struct {
	Row    int // 1-based, as shown by spreadsheet tools
	Reason string
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	Deck     *models.Deck
	Imported int
	Skipped  []SkippedRow
}

// ImportService creates decks from .xlsx and .csv files
type ImportService interface {
	ImportDeck(ctx context.Context, userID int64, path string, opts ImportOptions) (*ImportResult, error)
}

type importService struct {
	deckRepo repository.DeckRepository
	cardRepo repository.FlashcardRepository
}

// NewImportService creates a new ImportService
func NewImportService(deckRepo repository.DeckRepository, cardRepo repository.FlashcardRepository) ImportService {
	return &importService{deckRepo: deckRepo, cardRepo: cardRepo}
}

func (s *importService) ImportDeck(ctx context.Context, userID int64, path string, opts ImportOptions) (*ImportResult, error) {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"user_id": userID,
		"file":    filepath.Base(path),
	})
	log.Info("importing deck")

	qCol, err := columnIndex(opts.QuestionColumn, "A")
	if err != nil {
		return nil, errors.NewValidationError("question column", err.Error())
	}
	aCol, err := columnIndex(opts.AnswerColumn, "B")
	if err != nil {
		return nil, errors.NewValidationError("answer column", err.Error())
	}

	rows, err := readRows(path, opts.Sheet)
	if err != nil {
		log.WithError(err).Error("failed to read rows")
		return nil, err
	}

	result := &ImportResult{}
	cards := make([]models.NewFlashcard, 0, len(rows))
	for i, row := range rows {
		if i == 0 && opts.SkipHeader {
			continue
		}
		question := cell(row, qCol)
		answer := cell(row, aCol)
		switch {
		case question == "" && answer == "":
			continue
		case question == "":
			result.Skipped = append(result.Skipped, SkippedRow{Row: i + 1, Reason: "missing question"})
			continue
		case answer == "":
			result.Skipped = append(result.Skipped, SkippedRow{Row: i + 1, Reason: "missing answer"})
			continue
		}
		card := models.NewFlashcard{Question: question, Answer: answer}
		if err := validate.Struct(card); err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Row: i + 1, Reason: "too long"})
			continue
		}
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		return nil, errors.NewValidationError("file", "no rows with both a question and an answer")
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	deckInput := models.NewDeck{Title: title, Description: opts.Description, IsPublic: opts.IsPublic}
	if err := validate.Struct(deckInput); err != nil {
		return nil, validationError(err)
	}

	deck, err := s.deckRepo.Create(ctx, userID, deckInput)
	if err != nil {
		log.WithError(err).Error("failed to create deck")
		return nil, storeError(err, "deck", title)
	}

	ids, err := s.cardRepo.InsertBatch(ctx, deck.ID, cards)
	if err != nil {
		log.Error("failed to insert cards, removing deck %d: %v", deck.ID, err)
		if delErr := s.deckRepo.Delete(ctx, deck.ID); delErr != nil {
			log.Warn("failed to remove partial deck: %v", delErr)
		}
		return nil, storeError(err, "flashcard", "")
	}

	deck.CardCount = len(ids)
	result.Deck = deck
	result.Imported = len(ids)
	log.Info("import finished: deck_id=%d, imported=%d, skipped=%d", deck.ID, result.Imported, len(result.Skipped))
	return result, nil
}

// readRows returns every row of the file as strings.
func readRows(path, sheet string) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return readExcel(path, sheet)
	case ".csv":
		return readCSV(path)
	default:
		return nil, errors.NewBadRequestError(fmt.Sprintf("unsupported file type %q (want .xlsx or .csv)", ext))
	}
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewBadRequestError(fmt.Sprintf("failed to open spreadsheet: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewBadRequestError("spreadsheet has no sheets")
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return nil, errors.NewNotFoundError("sheet", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.NewBadRequestError(fmt.Sprintf("failed to read sheet %s: %v", sheet, err))
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewBadRequestError(fmt.Sprintf("failed to open CSV file: %v", err))
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewBadRequestError(fmt.Sprintf("error reading CSV: %v", err))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnIndex converts a column letter ("A", "AB") into a 0-based index.
func columnIndex(name, fallback string) (int, error) {
	if strings.TrimSpace(name) == "" {
		name = fallback
	}
	n, err := excelize.ColumnNameToNumber(strings.ToUpper(strings.TrimSpace(name)))
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
