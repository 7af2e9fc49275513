// Package importer turns pasted text into flashcards of a list.
//
// Every line is decoded with cardline. A single malformed line rejects the
// whole text and nothing is inserted; blank lines are skipped.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arcanaland/flashcards/internal/card"
	"github.com/arcanaland/flashcards/internal/cardline"
)

// Inserter stores a batch of cards atomically
type Inserter interface {
	InsertCards(ctx context.Context, cards []card.Card, listID int64) error
}

// Result of an import attempt. FailedLines is nil when the text was accepted.
type Result struct {
	FailedLines []int // 1-based, ascending
	Cards       []card.Card
}

// OK reports whether every non-blank line was valid
func (r Result) OK() bool {
	return len(r.FailedLines) == 0
}

// Importer converts text into cards and hands them to an Inserter
type Importer struct {
	repo   Inserter
	now    func() time.Time
	logger *slog.Logger
}

// New creates an Importer writing to repo
func New(repo Inserter, logger *slog.Logger) *Importer {
	return &Importer{
		repo:   repo,
		now:    time.Now,
		logger: logger.With("component", "importer"),
	}
}

// Check decodes text for listID without storing anything. It is the dry run
// used to highlight bad lines while the text is being edited.
func (im *Importer) Check(text string, listID int64) Result {
	results := cardline.DecodeText(text)
	if failed := cardline.FailedLines(results); len(failed) > 0 {
		return Result{FailedLines: failed}
	}

	modified := im.now()
	var cards []card.Card
	for _, r := range results {
		if r.Kind != cardline.Success {
			continue
		}
		cards = append(cards, card.New(r.UnknownWord, r.KnownWord, r.Comment, listID, modified))
	}
	return Result{Cards: cards}
}

// TryImport decodes text and, if every line is valid, inserts the cards into
// listID in one batch. Bad lines are reported in the Result, not as an error;
// the error is only for a failed insert.
func (im *Importer) TryImport(ctx context.Context, text string, listID int64) (Result, error) {
	res := im.Check(text, listID)
	if !res.OK() {
		im.logger.Debug("import rejected", "list_id", listID, "failed_lines", res.FailedLines)
		return res, nil
	}
	if len(res.Cards) == 0 {
		return res, nil
	}

	if err := im.repo.InsertCards(ctx, res.Cards, listID); err != nil {
		return Result{}, fmt.Errorf("importing into list %d: %w", listID, err)
	}

	im.logger.Info("cards imported", "list_id", listID, "count", len(res.Cards))
	return res, nil
}
