// Package store persists card lists and flashcards in SQLite through GORM.
//
// Besides plain CRUD it offers WatchList and WatchCards, which re-run their
// query after every write to the underlying table, whether made through this
// Store or by another process on the same file, and deliver the result on a
// channel until the caller's context is cancelled.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/arcanaland/flashcards/internal/card"
	"github.com/arcanaland/flashcards/internal/validator"
)

// defaultPollInterval is how often watchers look for writes from other processes
const defaultPollInterval = 500 * time.Millisecond

var (
	ErrListNotFound = errors.New("card list not found")
	ErrCardNotFound = errors.New("card not found")
)

type listRecord struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	Name     string    `gorm:"not null;uniqueIndex"`
	Modified time.Time `gorm:"not null"`
}

func (listRecord) TableName() string { return "card_lists" }

type cardRecord struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	UnknownWord string    `gorm:"not null"`
	KnownWord   string    `gorm:"not null"`
	Comment     *string   `gorm:"default:null"`
	Modified    time.Time `gorm:"not null"`
	ListID      int64     `gorm:"not null;index"`
}

func (cardRecord) TableName() string { return "flashcards" }

// Store is the card repository
type Store struct {
	db       *gorm.DB
	validate *validator.Validator
	logger   *slog.Logger
	hub      *hub
	now      func() time.Time

	pollInterval time.Duration
}

// Open opens (creating if needed) the SQLite database at path and migrates the schema
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting database handle: %w", err)
	}
	// one writer at a time keeps SQLite from reporting busy
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&listRecord{}, &cardRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &Store{
		db:       db,
		validate: validator.NewValidator(),
		logger:   logger.With("component", "store"),
		hub:      newHub(),
		now:      time.Now,

		pollInterval: defaultPollInterval,
	}, nil
}

// Close releases the database
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// dataVersion changes whenever another connection commits to the database file
func (s *Store) dataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := s.db.WithContext(ctx).Raw("PRAGMA data_version").Scan(&v).Error; err != nil {
		return 0, fmt.Errorf("reading data version: %w", err)
	}
	return v, nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// CreateList adds a list with a unique, non-blank name
func (s *Store) CreateList(ctx context.Context, name string) (card.List, error) {
	if err := s.validate.ListName(name); err != nil {
		return card.List{}, err
	}

	rec := listRecord{Name: name, Modified: s.timestamp()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, name, 0); err != nil {
			return err
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return card.List{}, fmt.Errorf("creating list %q: %w", name, err)
	}

	s.logger.Debug("list created", "list_id", rec.ID, "name", name)
	s.hub.publish(topicLists)
	return rec.toList(), nil
}

// RenameList changes a list's name and bumps its modification time
func (s *Store) RenameList(ctx context.Context, id int64, name string) (card.List, error) {
	if err := s.validate.ListName(name); err != nil {
		return card.List{}, err
	}

	var rec listRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, name, id); err != nil {
			return err
		}
		res := tx.Model(&listRecord{}).Where("id = ?", id).
			Updates(map[string]any{"name": name, "modified": s.timestamp()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrListNotFound
		}
		return tx.First(&rec, id).Error
	})
	if err != nil {
		return card.List{}, fmt.Errorf("renaming list %d: %w", id, err)
	}

	s.hub.publish(topicLists)
	return rec.toList(), nil
}

// DeleteList removes a list together with its cards
func (s *Store) DeleteList(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", id).Delete(&cardRecord{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&listRecord{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrListNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting list %d: %w", id, err)
	}

	s.logger.Debug("list deleted", "list_id", id)
	s.hub.publish(topicLists, topicCards)
	return nil
}

// Lists returns every list ordered by name
func (s *Store) Lists(ctx context.Context) ([]card.List, error) {
	var recs []listRecord
	if err := s.db.WithContext(ctx).Order("name").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("selecting lists: %w", err)
	}

	lists := make([]card.List, len(recs))
	for i, r := range recs {
		lists[i] = r.toList()
	}
	return lists, nil
}

// List returns a list by id
func (s *Store) List(ctx context.Context, id int64) (card.List, error) {
	var rec listRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return card.List{}, ErrListNotFound
		}
		return card.List{}, fmt.Errorf("selecting list %d: %w", id, err)
	}
	return rec.toList(), nil
}

// ListByName returns a list by its exact name
func (s *Store) ListByName(ctx context.Context, name string) (card.List, error) {
	var rec listRecord
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return card.List{}, ErrListNotFound
		}
		return card.List{}, fmt.Errorf("selecting list %q: %w", name, err)
	}
	return rec.toList(), nil
}

// CreateCard stores a new card. An empty comment is stored as none.
func (s *Store) CreateCard(ctx context.Context, c card.Card) (card.Card, error) {
	if err := s.validate.Card(c); err != nil {
		return card.Card{}, err
	}

	rec := newCardRecord(c, c.ListID, s.timestamp())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureListExists(tx, c.ListID); err != nil {
			return err
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return card.Card{}, fmt.Errorf("creating card: %w", err)
	}

	s.hub.publish(topicCards)
	return rec.toCard(), nil
}

// UpdateCard overwrites the words and comment of a stored card
func (s *Store) UpdateCard(ctx context.Context, c card.Card) (card.Card, error) {
	if !c.IsSaved() {
		return card.Card{}, fmt.Errorf("updating unsaved card: %w", ErrCardNotFound)
	}
	if err := s.validate.Card(c); err != nil {
		return card.Card{}, err
	}

	var rec cardRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&cardRecord{}).Where("id = ?", c.ID).Updates(map[string]any{
			"unknown_word": c.UnknownWord,
			"known_word":   c.KnownWord,
			"comment":      normalizeComment(c.Comment),
			"modified":     s.timestamp(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCardNotFound
		}
		return tx.First(&rec, c.ID).Error
	})
	if err != nil {
		return card.Card{}, fmt.Errorf("updating card %d: %w", c.ID, err)
	}

	s.hub.publish(topicCards)
	return rec.toCard(), nil
}

// DeleteCard removes a card
func (s *Store) DeleteCard(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&cardRecord{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting card %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("deleting card %d: %w", id, ErrCardNotFound)
	}

	s.hub.publish(topicCards)
	return nil
}

// Card returns a card by id
func (s *Store) Card(ctx context.Context, id int64) (card.Card, error) {
	var rec cardRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return card.Card{}, ErrCardNotFound
		}
		return card.Card{}, fmt.Errorf("selecting card %d: %w", id, err)
	}
	return rec.toCard(), nil
}

// CardsInList returns the cards of a list in insertion order
func (s *Store) CardsInList(ctx context.Context, listID int64) ([]card.Card, error) {
	var recs []cardRecord
	if err := s.db.WithContext(ctx).Where("list_id = ?", listID).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("selecting cards of list %d: %w", listID, err)
	}

	cards := make([]card.Card, len(recs))
	for i, r := range recs {
		cards[i] = r.toCard()
	}
	return cards, nil
}

// InsertCards adds all cards to the list in one transaction. Either every
// card is stored or none is.
func (s *Store) InsertCards(ctx context.Context, cards []card.Card, listID int64) error {
	if len(cards) == 0 {
		return nil
	}

	recs := make([]cardRecord, len(cards))
	for i, c := range cards {
		if err := s.validate.Card(c); err != nil {
			return fmt.Errorf("card %d of %d: %w", i+1, len(cards), err)
		}
		recs[i] = newCardRecord(c, listID, s.timestamp())
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureListExists(tx, listID); err != nil {
			return err
		}
		return tx.CreateInBatches(&recs, 100).Error
	})
	if err != nil {
		return fmt.Errorf("inserting %d cards into list %d: %w", len(cards), listID, err)
	}

	s.logger.Debug("cards inserted", "list_id", listID, "count", len(cards))
	s.hub.publish(topicCards)
	return nil
}

// WatchList emits the list's state now and after every change to lists.
// A deleted list is reported with Found false.
func (s *Store) WatchList(ctx context.Context, listID int64) (<-chan card.ListEvent, error) {
	return watch(ctx, s, topicLists, func(ctx context.Context) (card.ListEvent, error) {
		l, err := s.List(ctx, listID)
		if errors.Is(err, ErrListNotFound) {
			return card.ListEvent{}, nil
		}
		if err != nil {
			return card.ListEvent{}, err
		}
		return card.ListEvent{Found: true, List: l}, nil
	})
}

// WatchCards emits the list's cards now and after every change to cards
func (s *Store) WatchCards(ctx context.Context, listID int64) (<-chan []card.Card, error) {
	return watch(ctx, s, topicCards, func(ctx context.Context) ([]card.Card, error) {
		return s.CardsInList(ctx, listID)
	})
}

func ensureNameFree(tx *gorm.DB, name string, exceptID int64) error {
	var count int64
	if err := tx.Model(&listRecord{}).Where("name = ? AND id <> ?", name, exceptID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return validator.Duplicate("name")
	}
	return nil
}

func ensureListExists(tx *gorm.DB, listID int64) error {
	var count int64
	if err := tx.Model(&listRecord{}).Where("id = ?", listID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrListNotFound
	}
	return nil
}

func normalizeComment(c *string) *string {
	if c == nil || *c == "" {
		return nil
	}
	v := *c
	return &v
}

func newCardRecord(c card.Card, listID int64, now time.Time) cardRecord {
	modified := c.Modified.UTC()
	if c.Modified.IsZero() {
		modified = now
	}
	return cardRecord{
		UnknownWord: c.UnknownWord,
		KnownWord:   c.KnownWord,
		Comment:     normalizeComment(c.Comment),
		Modified:    modified,
		ListID:      listID,
	}
}

func (r listRecord) toList() card.List {
	return card.List{ID: r.ID, Name: r.Name, Modified: r.Modified}
}

func (r cardRecord) toCard() card.Card {
	return card.Card{
		ID:          r.ID,
		UnknownWord: r.UnknownWord,
		KnownWord:   r.KnownWord,
		Comment:     r.Comment,
		Modified:    r.Modified,
		ListID:      r.ListID,
	}
}
