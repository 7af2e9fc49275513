package learn

import (
	"context"
	"fmt"

	"github.com/arcanaland/flashcards/internal/card"
)

// Source is the part of the card repository a learn session reads
type Source interface {
	WatchList(ctx context.Context, listID int64) (<-chan card.ListEvent, error)
	WatchCards(ctx context.Context, listID int64) (<-chan []card.Card, error)
}

// Snapshot is the combined state of a list and its cards
type Snapshot struct {
	Found bool
	List  card.List
	Cards []card.Card
}

// Follow merges the list and card streams of listID into one ordered stream
// of snapshots. A snapshot of an existing list is sent only once both the
// list and its cards are known. Cancelling ctx unsubscribes from the source
// and closes the channel.
func Follow(ctx context.Context, src Source, listID int64) (<-chan Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)

	lists, err := src.WatchList(ctx, listID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watching list %d: %w", listID, err)
	}
	cards, err := src.WatchCards(ctx, listID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watching cards of list %d: %w", listID, err)
	}

	out := make(chan Snapshot)
	go func() {
		defer close(out)
		defer cancel()

		var (
			list      card.ListEvent
			haveList  bool
			current   []card.Card
			haveCards bool
		)
		for lists != nil || cards != nil {
			select {
			case ev, ok := <-lists:
				if !ok {
					lists = nil
					continue
				}
				list, haveList = ev, true
			case cs, ok := <-cards:
				if !ok {
					cards = nil
					continue
				}
				current, haveCards = cs, true
			case <-ctx.Done():
				return
			}

			var snap Snapshot
			switch {
			case haveList && !list.Found:
				snap = Snapshot{Found: false}
			case haveList && haveCards:
				snap = Snapshot{Found: true, List: list.List, Cards: current}
			default:
				continue
			}

			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
