// Package learn runs a learn session over one card list.
//
// A Session wraps a deck.Deck and turns it into a single State value that the
// UI renders. Every mutator recomputes and publishes the state before it
// returns. A Session must be driven from one goroutine: the UI loop feeds it
// repository snapshots (see Follow) and user actions one at a time.
package learn

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arcanaland/flashcards/internal/card"
	"github.com/arcanaland/flashcards/internal/deck"
)

var (
	// ErrNotLearning is returned by card actions outside the Learning stage
	ErrNotLearning = errors.New("no card is being learned")
	// ErrNotLoaded is returned by restarts before the cards have been loaded
	ErrNotLoaded = errors.New("cards are not loaded")
)

// Session is the learn session state machine
type Session struct {
	id     string
	listID int64
	deck   *deck.Deck

	list   card.List
	loaded bool
	gone   bool

	seed       int64
	seedSource func() int64

	state     State
	observers []observer
	nextObs   int

	logger *slog.Logger
}

type observer struct {
	id int
	fn func(State)
}

// Option configures a Session
type Option func(*Session)

// WithSeedSource replaces the time-based shuffle seed
func WithSeedSource(f func() int64) Option {
	return func(s *Session) { s.seedSource = f }
}

// WithLogger sets the session logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session for listID in the NotReady stage
func NewSession(listID int64, opts ...Option) *Session {
	s := &Session{
		id:         uuid.NewString(),
		listID:     listID,
		deck:       deck.New(),
		seedSource: func() int64 { return time.Now().UnixMilli() },
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "learn", "session", s.id, "list_id", listID)
	s.initSeed()
	s.update()
	return s
}

// ID identifies the session in logs
func (s *Session) ID() string { return s.id }

// ListID is the list this session learns
func (s *Session) ListID() int64 { return s.listID }

// State returns the last published state
func (s *Session) State() State { return s.state }

// Subscribe registers fn for every published state and calls it once with
// the current state. Observers are called in subscription order. The
// returned func unregisters fn.
func (s *Session) Subscribe(fn func(State)) (cancel func()) {
	id := s.nextObs
	s.nextObs++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	fn(s.state)
	return func() {
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Apply processes one repository snapshot. Every snapshot of an existing list
// reshuffles the round over the delivered cards with the current seed; the
// cursor and the success and failure sets are left as they are, even mid-round.
func (s *Session) Apply(snap Snapshot) {
	if !snap.Found {
		s.gone = true
		s.logger.Debug("list no longer exists")
		s.update()
		return
	}

	s.gone = false
	s.list = snap.List
	s.deck.Reseed(snap.Cards, s.seed)
	if !s.loaded {
		s.logger.Debug("cards loaded", "count", len(snap.Cards))
	} else {
		s.logger.Debug("cards reloaded", "count", len(snap.Cards), "cursor", s.deck.Cursor())
	}
	s.loaded = true
	s.update()
}

// MarkSuccess records that the current card was remembered and moves on.
// In show mode it only moves on.
func (s *Session) MarkSuccess() error {
	return s.judge(true)
}

// MarkFailure records that the current card was forgotten and moves on.
// In show mode it only moves on.
func (s *Session) MarkFailure() error {
	return s.judge(false)
}

func (s *Session) judge(success bool) error {
	if s.state.Stage != Learning {
		return ErrNotLearning
	}

	c, _ := s.deck.Current()
	if !s.deck.ShowMode() {
		s.deck.Classify(c, success)
	}
	s.deck.Advance()
	s.update()
	return nil
}

// Reveal shows the answer of the current card
func (s *Session) Reveal() error {
	if s.state.Stage != Learning {
		return ErrNotLearning
	}
	s.deck.Reveal()
	s.update()
	return nil
}

// RestartWithAllCards forgets every judgment and starts a new round over the whole list
func (s *Session) RestartWithAllCards() error {
	if !s.ready() {
		return ErrNotLoaded
	}
	s.initSeed()
	s.deck.ClearClassifications()
	s.deck.StartRound(s.deck.All(), s.seed)
	s.logger.Debug("restarted with all cards", "count", s.deck.RoundLen())
	s.update()
	return nil
}

// RestartWithFailures starts a new shuffled round over the forgotten cards.
// Judgments are kept, so cards can move between the sets again.
func (s *Session) RestartWithFailures() error {
	if !s.ready() {
		return ErrNotLoaded
	}
	s.initSeed()
	s.deck.StartFailureRound(s.seed, true)
	s.logger.Debug("restarted with failures", "count", s.deck.RoundLen())
	s.update()
	return nil
}

// ShowFailures starts a review round over the forgotten cards in the order
// they were judged, with every answer revealed
func (s *Session) ShowFailures() error {
	if !s.ready() {
		return ErrNotLoaded
	}
	s.deck.StartFailureRound(s.seed, false)
	s.update()
	return nil
}

func (s *Session) ready() bool {
	return s.loaded && !s.gone
}

func (s *Session) initSeed() {
	s.seed = s.seedSource()
}

func (s *Session) update() {
	s.state = s.derive()
	for _, o := range s.observers {
		o.fn(s.state)
	}
}

func (s *Session) derive() State {
	switch {
	case s.gone:
		return State{Stage: Empty}
	case !s.loaded:
		return State{Stage: NotReady}
	}

	current, ok := s.deck.Current()
	if !ok {
		return State{Stage: Done, Done: &DoneState{
			List:     s.list,
			Success:  s.deck.SuccessCount(),
			Failures: s.deck.FailureCount(),
			Total:    s.deck.Total(),
		}}
	}

	prev, hasPrev := s.deck.Previous()
	return State{Stage: Learning, Learning: &LearningState{
		List:          s.list,
		Card:          current,
		IsPrevSuccess: hasPrev && s.deck.IsSuccess(prev),
		Success:       s.deck.SuccessCount(),
		Failures:      s.deck.FailureCount(),
		Index:         s.deck.Cursor(),
		Total:         s.deck.RoundLen(),
		Revealed:      s.deck.Revealed(),
		ShowMode:      s.deck.ShowMode(),
	}}
}
