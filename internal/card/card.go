package card

import "time"

// UnsavedID marks a card or list that has not been persisted yet
const UnsavedID int64 = -1

// Card represents a flashcard: a word to learn and the word it translates to
type Card struct {
	ID          int64
	UnknownWord string    // The word being learned (answer side)
	KnownWord   string    // The word the learner already knows (question side)
	Comment     *string   // Optional note, nil when absent
	Modified    time.Time // Last modification time
	ListID      int64     // Owning list
}

// List represents a named list of flashcards
type List struct {
	ID       int64
	Name     string
	Modified time.Time
}

// New returns an unsaved card for the given list
func New(unknownWord, knownWord string, comment *string, listID int64, modified time.Time) Card {
	return Card{
		ID:          UnsavedID,
		UnknownWord: unknownWord,
		KnownWord:   knownWord,
		Comment:     comment,
		Modified:    modified,
		ListID:      listID,
	}
}

// IsSaved reports whether the card has a persisted identity
func (c Card) IsSaved() bool {
	return c.ID != UnsavedID
}

// CommentText returns the comment or an empty string
func (c Card) CommentText() string {
	if c.Comment == nil {
		return ""
	}
	return *c.Comment
}

// OptionalComment turns an empty comment into nil
func OptionalComment(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ListEvent is one emission of a watched list: its current state, or Found
// false once the list no longer exists
type ListEvent struct {
	Found bool
	List  List
}
