package store

import (
	"context"
	"sync"
	"time"
)

type topic int

const (
	topicLists topic = iota
	topicCards
)

// hub wakes watchers after a table they read from has changed
type hub struct {
	mu   sync.Mutex
	next int
	subs map[topic]map[int]chan struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[topic]map[int]chan struct{})}
}

func (h *hub) subscribe(t topic) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan struct{}, 1)
	if h.subs[t] == nil {
		h.subs[t] = make(map[int]chan struct{})
	}
	h.subs[t][id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[t], id)
	}
}

// publish never blocks: a watcher with a wake-up already pending needs no second one
func (h *hub) publish(topics ...topic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, t := range topics {
		for _, ch := range h.subs[t] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// watch emits query results on subscribe and after every change to t.
// Changes committed by other connections to the same file, such as another
// flashcards process, are noticed by polling the SQLite data version.
// If newer data arrives before the consumer took the previous value, the
// previous value is dropped. The channel closes when ctx is done.
func watch[T any](ctx context.Context, s *Store, t topic, query func(context.Context) (T, error)) (<-chan T, error) {
	wake, unsubscribe := s.hub.subscribe(t)

	version, err := s.dataVersion(ctx)
	if err != nil {
		unsubscribe()
		return nil, err
	}
	value, err := query(ctx)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	out := make(chan T)
	go func() {
		defer close(out)
		defer unsubscribe()

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		pending := true
		for {
			var send chan<- T
			if pending {
				send = out
			}

			select {
			case send <- value:
				pending = false
				continue
			case <-wake:
			case <-ticker.C:
				v, err := s.dataVersion(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					s.logger.Debug("polling data version failed", "error", err)
					continue
				}
				if v == version {
					continue
				}
				version = v
			case <-ctx.Done():
				return
			}

			v, err := query(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Error("watch query failed", "error", err)
				continue
			}
			value, pending = v, true
		}
	}()

	return out, nil
}
