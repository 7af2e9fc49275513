package learn

import "github.com/arcanaland/flashcards/internal/card"

// Stage is the coarse state of a learn session
type Stage int

const (
	// NotReady means the cards have not been loaded yet
	NotReady Stage = iota
	// Learning means a card is waiting to be judged
	Learning
	// Done means the current round has been walked to its end
	Done
	// Empty means the list was deleted while the session was open
	Empty
)

func (s Stage) String() string {
	switch s {
	case NotReady:
		return "not_ready"
	case Learning:
		return "learning"
	case Done:
		return "done"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// LearningState describes the card currently shown
type LearningState struct {
	List          card.List
	Card          card.Card
	IsPrevSuccess bool // the card judged before this one was remembered
	Success       int
	Failures      int
	Index         int // 0-based position in the round
	Total         int // round length
	Revealed      bool
	ShowMode      bool
}

// Prompt is the question shown above the card
func (l LearningState) Prompt() string {
	switch {
	case l.ShowMode:
		return "Try to remember:"
	case l.Revealed:
		return "Did you remember this?"
	default:
		return "Can you remember this?"
	}
}

// IsLast reports whether this is the final card of the round
func (l LearningState) IsLast() bool {
	return l.Index == l.Total-1
}

// DoneState is the summary of a finished round. Total is the size of the
// whole list, so Success+Failures may be less than Total.
type DoneState struct {
	List     card.List
	Success  int
	Failures int
	Total    int
}

// State is what the UI renders. Exactly one of Learning and Done is set for
// the matching stage; both are nil otherwise.
type State struct {
	Stage    Stage
	Learning *LearningState
	Done     *DoneState
}
