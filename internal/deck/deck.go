package deck

import (
	"math/rand/v2"

	"github.com/arcanaland/flashcards/internal/card"
)

// Deck holds the cards of one learn session: the full set, the order of the
// current round, and which cards were remembered or forgotten.
//
// A Deck is owned by a single session and is not safe for concurrent use.
type Deck struct {
	all   []card.Card
	round []card.Card

	success *cardSet
	failure *cardSet

	cursor   int
	revealed bool
	showMode bool
}

// New creates an empty deck with no round in progress
func New() *Deck {
	return &Deck{
		success: newCardSet(),
		failure: newCardSet(),
	}
}

// Shuffle returns a shuffled copy of cards. The same seed and input always
// give the same order.
func Shuffle(cards []card.Card, seed int64) []card.Card {
	out := make([]card.Card, len(cards))
	copy(out, cards)
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// StartRound replaces the full card set with cards and starts a fresh
// shuffled round over them. Classifications are kept.
func (d *Deck) StartRound(cards []card.Card, seed int64) {
	d.all = copyCards(cards)
	d.round = Shuffle(d.all, seed)
	d.cursor = 0
	d.revealed = false
	d.showMode = false
}

// StartFailureRound starts a round over the forgotten cards. A shuffled round
// is a retry; an unshuffled one is a show-mode review with every answer revealed.
func (d *Deck) StartFailureRound(seed int64, shuffled bool) {
	failures := d.Failures()
	if shuffled {
		d.round = Shuffle(failures, seed)
	} else {
		d.round = failures
	}
	d.cursor = 0
	d.showMode = !shuffled
	d.revealed = d.showMode
}

// Reseed swaps in a new full card set and reshuffles the round over it while
// leaving the cursor and reveal flag as they were. The cursor is clamped to
// the new round length. Classified cards that are gone from cards are
// forgotten; the others take their new content.
func (d *Deck) Reseed(cards []card.Card, seed int64) {
	d.all = copyCards(cards)
	d.round = Shuffle(d.all, seed)
	if d.cursor > len(d.round) {
		d.cursor = len(d.round)
	}

	current := make(map[int64]card.Card, len(d.all))
	for _, c := range d.all {
		current[c.ID] = c
	}
	d.success.retain(current)
	d.failure.retain(current)
}

// ClearClassifications forgets every success and failure
func (d *Deck) ClearClassifications() {
	d.success.clear()
	d.failure.clear()
}

// Classify moves c into the success or failure set, taking it out of the other one
func (d *Deck) Classify(c card.Card, success bool) {
	if success {
		d.failure.remove(c.ID)
		d.success.add(c)
	} else {
		d.success.remove(c.ID)
		d.failure.add(c)
	}
}

// Advance moves to the next card. At the end of the round it does nothing.
func (d *Deck) Advance() {
	if d.cursor < len(d.round) {
		d.cursor++
	}
	d.revealed = d.showMode
}

// Reveal shows the answer side of the current card
func (d *Deck) Reveal() {
	d.revealed = true
}

// Current returns the card under the cursor
func (d *Deck) Current() (card.Card, bool) {
	if d.cursor >= len(d.round) {
		return card.Card{}, false
	}
	return d.round[d.cursor], true
}

// Previous returns the card judged just before the current one in this round
func (d *Deck) Previous() (card.Card, bool) {
	if d.cursor == 0 || d.cursor > len(d.round) {
		return card.Card{}, false
	}
	return d.round[d.cursor-1], true
}

// Finished reports whether the round has been walked to its end
func (d *Deck) Finished() bool {
	return d.cursor >= len(d.round)
}

func (d *Deck) Cursor() int    { return d.cursor }
func (d *Deck) RoundLen() int  { return len(d.round) }
func (d *Deck) Total() int     { return len(d.all) }
func (d *Deck) Revealed() bool { return d.revealed }
func (d *Deck) ShowMode() bool { return d.showMode }

func (d *Deck) SuccessCount() int { return d.success.len() }
func (d *Deck) FailureCount() int { return d.failure.len() }

func (d *Deck) IsSuccess(c card.Card) bool { return d.success.contains(c.ID) }
func (d *Deck) IsFailure(c card.Card) bool { return d.failure.contains(c.ID) }

// All returns a copy of the full card set
func (d *Deck) All() []card.Card { return copyCards(d.all) }

// Round returns a copy of the current round order
func (d *Deck) Round() []card.Card { return copyCards(d.round) }

// Failures returns the forgotten cards in the order they were first judged
func (d *Deck) Failures() []card.Card { return d.failure.cards() }

func copyCards(cards []card.Card) []card.Card {
	out := make([]card.Card, len(cards))
	copy(out, cards)
	return out
}
