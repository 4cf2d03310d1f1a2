// Package events provides a minimal typed observer list used for change
// and status notifications.
package events

import "sync"

// Source dispatches values of type T to its current subscribers.
// Dispatch is synchronous; delivery order across subscribers is not
// guaranteed.
type Source[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(T)
}

// Subscribe registers fn and returns a token for Unsubscribe.
func (s *Source[T]) Subscribe(fn func(T)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func(T))
	}
	s.next++
	s.subs[s.next] = fn
	return s.next
}

// Unsubscribe removes a previously registered subscriber. Unknown tokens
// are ignored.
func (s *Source[T]) Unsubscribe(token int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, token)
}

// Notify delivers v to every subscriber.
func (s *Source[T]) Notify(v T) {
	s.mu.Lock()
	fns := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
