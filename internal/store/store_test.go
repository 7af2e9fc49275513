package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/flashcards/internal/card"
	"github.com/arcanaland/flashcards/internal/validator"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return openTestStore(t, filepath.Join(t.TempDir(), "cards.db"))
}

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(path, logger)
	require.NoError(t, err)
	s.pollInterval = 20 * time.Millisecond
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestCreateList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l, err := s.CreateList(ctx, "German")
	require.NoError(t, err)
	assert.NotZero(t, l.ID)
	assert.Equal(t, "German", l.Name)
	assert.False(t, l.Modified.IsZero())

	_, err = s.CreateList(ctx, "German")
	ve, ok := validator.AsValidationError(err)
	require.True(t, ok, "expected duplicate error, got %v", err)
	assert.Equal(t, validator.ReasonDuplicate, ve.Reason)

	_, err = s.CreateList(ctx, "   ")
	ve, ok = validator.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, validator.ReasonBlank, ve.Reason)
}

func TestListsOrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Spanish", "French", "German"} {
		_, err := s.CreateList(ctx, name)
		require.NoError(t, err)
	}

	lists, err := s.Lists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 3)
	assert.Equal(t, "French", lists[0].Name)
	assert.Equal(t, "Spanish", lists[2].Name)

	byName, err := s.ListByName(ctx, "German")
	require.NoError(t, err)
	assert.Equal(t, "German", byName.Name)

	_, err = s.ListByName(ctx, "Latin")
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestRenameList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateList(ctx, "a")
	require.NoError(t, err)
	_, err = s.CreateList(ctx, "b")
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	s.now = func() time.Time { return later }

	renamed, err := s.RenameList(ctx, a.ID, "c")
	require.NoError(t, err)
	assert.Equal(t, "c", renamed.Name)
	assert.WithinDuration(t, later, renamed.Modified, time.Second)

	// renaming to its own name is allowed
	_, err = s.RenameList(ctx, a.ID, "c")
	assert.NoError(t, err)

	_, err = s.RenameList(ctx, a.ID, "b")
	_, ok := validator.AsValidationError(err)
	assert.True(t, ok)

	_, err = s.RenameList(ctx, 999, "z")
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestCardCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l, err := s.CreateList(ctx, "German")
	require.NoError(t, err)

	c, err := s.CreateCard(ctx, card.New("Hund", "dog", strPtr(""), l.ID, time.Time{}))
	require.NoError(t, err)
	assert.True(t, c.IsSaved())
	assert.Nil(t, c.Comment, "empty comment stored as none")

	c.KnownWord = "hound"
	c.Comment = strPtr("der")
	updated, err := s.UpdateCard(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "hound", updated.KnownWord)
	require.NotNil(t, updated.Comment)
	assert.Equal(t, "der", *updated.Comment)

	got, err := s.Card(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "hound", got.KnownWord)

	_, err = s.UpdateCard(ctx, card.Card{ID: c.ID, UnknownWord: "", KnownWord: "x"})
	_, ok := validator.AsValidationError(err)
	assert.True(t, ok)

	require.NoError(t, s.DeleteCard(ctx, c.ID))
	_, err = s.Card(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCardNotFound)
	assert.ErrorIs(t, s.DeleteCard(ctx, c.ID), ErrCardNotFound)
}

func TestCreateCardUnknownList(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateCard(context.Background(), card.New("a", "b", nil, 42, time.Now()))
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestInsertCardsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l, err := s.CreateList(ctx, "German")
	require.NoError(t, err)

	cards := []card.Card{
		card.New("eins", "one", nil, card.UnsavedID, time.Now()),
		card.New("zwei", "two", strPtr("2"), card.UnsavedID, time.Now()),
	}
	require.NoError(t, s.InsertCards(ctx, cards, l.ID))

	stored, err := s.CardsInList(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "eins", stored[0].UnknownWord, "insertion order")
	assert.Equal(t, l.ID, stored[1].ListID)

	bad := []card.Card{
		card.New("drei", "three", nil, l.ID, time.Now()),
		card.New("vier", " ", nil, l.ID, time.Now()),
	}
	err = s.InsertCards(ctx, bad, l.ID)
	require.Error(t, err)

	stored, err = s.CardsInList(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2, "nothing inserted from a rejected batch")

	assert.ErrorIs(t, s.InsertCards(ctx, cards, 999), ErrListNotFound)
}

func TestDeleteListRemovesCards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l, err := s.CreateList(ctx, "German")
	require.NoError(t, err)
	require.NoError(t, s.InsertCards(ctx, []card.Card{card.New("a", "b", nil, l.ID, time.Now())}, l.ID))

	require.NoError(t, s.DeleteList(ctx, l.ID))

	_, err = s.List(ctx, l.ID)
	assert.ErrorIs(t, err, ErrListNotFound)
	cards, err := s.CardsInList(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, cards)
	assert.ErrorIs(t, s.DeleteList(ctx, l.ID), ErrListNotFound)
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for emission")
	}
	var zero T
	return zero
}

func TestWatchCards(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := s.CreateList(ctx, "German")
	require.NoError(t, err)

	ch, err := s.WatchCards(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, receive(t, ch))

	_, err = s.CreateCard(ctx, card.New("Hund", "dog", nil, l.ID, time.Now()))
	require.NoError(t, err)

	cards := receive(t, ch)
	require.Len(t, cards, 1)
	assert.Equal(t, "Hund", cards[0].UnknownWord)

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// a final pending emission may race with cancellation
			_, ok = <-ch
		}
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatchCardsCoalesces(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := s.CreateList(ctx, "German")
	require.NoError(t, err)

	ch, err := s.WatchCards(ctx, l.ID)
	require.NoError(t, err)

	for _, w := range []string{"a", "b", "c"} {
		_, err := s.CreateCard(ctx, card.New(w, w, nil, l.ID, time.Now()))
		require.NoError(t, err)
	}

	// emissions only ever grow and eventually reach the latest state
	last := -1
	for last < 3 {
		cards := receive(t, ch)
		require.GreaterOrEqual(t, len(cards), last)
		last = len(cards)
	}
}

func TestWatchListNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := s.CreateList(ctx, "German")
	require.NoError(t, err)

	ch, err := s.WatchList(ctx, l.ID)
	require.NoError(t, err)

	ev := receive(t, ch)
	assert.True(t, ev.Found)
	assert.Equal(t, "German", ev.List.Name)

	require.NoError(t, s.DeleteList(ctx, l.ID))
	ev = receive(t, ch)
	assert.False(t, ev.Found)
}

func TestUpdateUnsavedCard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l, err := s.CreateList(ctx, "German")
	require.NoError(t, err)

	_, err = s.UpdateCard(ctx, card.New("Hund", "dog", nil, l.ID, time.Now()))
	assert.ErrorIs(t, err, ErrCardNotFound)
}

// Writes made by another process on the same file reach the watchers too.
func TestWatchSeesWritesFromOtherStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.db")
	watcher := openTestStore(t, path)
	writer := openTestStore(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := writer.CreateList(ctx, "German")
	require.NoError(t, err)

	lists, err := watcher.WatchList(ctx, l.ID)
	require.NoError(t, err)
	cards, err := watcher.WatchCards(ctx, l.ID)
	require.NoError(t, err)

	assert.True(t, receive(t, lists).Found)
	assert.Empty(t, receive(t, cards))

	require.NoError(t, writer.InsertCards(ctx, []card.Card{
		card.New("Hund", "dog", nil, l.ID, time.Now()),
	}, l.ID))
	var got []card.Card
	for len(got) == 0 {
		got = receive(t, cards)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "Hund", got[0].UnknownWord)

	require.NoError(t, writer.DeleteList(ctx, l.ID))
	for {
		ev := receive(t, lists)
		if !ev.Found {
			break
		}
	}
}
