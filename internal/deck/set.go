package deck

import "github.com/arcanaland/flashcards/internal/card"

// cardSet is an insertion-ordered set of cards keyed by card ID
type cardSet struct {
	index map[int64]struct{}
	order []card.Card
}

func newCardSet() *cardSet {
	return &cardSet{index: make(map[int64]struct{})}
}

func (s *cardSet) contains(id int64) bool {
	_, ok := s.index[id]
	return ok
}

// add keeps the existing position when the card is already present
func (s *cardSet) add(c card.Card) {
	if s.contains(c.ID) {
		return
	}
	s.index[c.ID] = struct{}{}
	s.order = append(s.order, c)
}

func (s *cardSet) remove(id int64) {
	if !s.contains(id) {
		return
	}
	delete(s.index, id)
	for i, c := range s.order {
		if c.ID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// retain drops cards whose ID is not in current and refreshes the stored
// value of the rest, keeping their order
func (s *cardSet) retain(current map[int64]card.Card) {
	kept := s.order[:0]
	for _, c := range s.order {
		fresh, ok := current[c.ID]
		if !ok {
			delete(s.index, c.ID)
			continue
		}
		kept = append(kept, fresh)
	}
	s.order = kept
}

func (s *cardSet) len() int {
	return len(s.order)
}

func (s *cardSet) clear() {
	s.index = make(map[int64]struct{})
	s.order = nil
}

func (s *cardSet) cards() []card.Card {
	out := make([]card.Card, len(s.order))
	copy(out, s.order)
	return out
}
