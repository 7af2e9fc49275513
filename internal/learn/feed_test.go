package learn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/flashcards/internal/card"
)

type fakeSource struct {
	lists    chan card.ListEvent
	cards    chan []card.Card
	cardsErr error
	ctx      context.Context
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		lists: make(chan card.ListEvent),
		cards: make(chan []card.Card),
	}
}

func (f *fakeSource) WatchList(ctx context.Context, _ int64) (<-chan card.ListEvent, error) {
	f.ctx = ctx
	return f.lists, nil
}

func (f *fakeSource) WatchCards(_ context.Context, _ int64) (<-chan []card.Card, error) {
	if f.cardsErr != nil {
		return nil, f.cardsErr
	}
	return f.cards, nil
}

func nextSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "feed closed")
		return snap
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot{}
}

func TestFollowWaitsForListAndCards(t *testing.T) {
	src := newFakeSource()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := Follow(ctx, src, testList.ID)
	require.NoError(t, err)

	cards := makeCards(2)
	src.cards <- cards
	src.lists <- card.ListEvent{Found: true, List: testList}

	snap := nextSnapshot(t, feed)
	assert.True(t, snap.Found)
	assert.Equal(t, testList, snap.List)
	assert.Equal(t, cards, snap.Cards)

	src.cards <- cards[:1]
	snap = nextSnapshot(t, feed)
	assert.Len(t, snap.Cards, 1)

	src.lists <- card.ListEvent{Found: false}
	snap = nextSnapshot(t, feed)
	assert.False(t, snap.Found)
}

func TestFollowNotFoundBeforeCards(t *testing.T) {
	src := newFakeSource()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := Follow(ctx, src, testList.ID)
	require.NoError(t, err)

	src.lists <- card.ListEvent{Found: false}
	assert.False(t, nextSnapshot(t, feed).Found)
}

func TestFollowCancel(t *testing.T) {
	src := newFakeSource()
	ctx, cancel := context.WithCancel(context.Background())

	feed, err := Follow(ctx, src, testList.ID)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-feed:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("feed not closed")
	}
	assert.Error(t, src.ctx.Err(), "source context cancelled")
}

func TestFollowSourceError(t *testing.T) {
	src := newFakeSource()
	src.cardsErr = errors.New("db closed")

	_, err := Follow(context.Background(), src, testList.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, src.cardsErr)
	assert.Error(t, src.ctx.Err(), "list subscription released")
}

func TestFollowDrivesSession(t *testing.T) {
	src := newFakeSource()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := Follow(ctx, src, testList.ID)
	require.NoError(t, err)

	s := NewSession(testList.ID)
	src.lists <- card.ListEvent{Found: true, List: testList}
	src.cards <- makeCards(3)
	s.Apply(nextSnapshot(t, feed))

	require.Equal(t, Learning, s.State().Stage)
	assert.Equal(t, 3, s.State().Learning.Total)
}
