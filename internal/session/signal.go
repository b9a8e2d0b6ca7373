package session

import "sync"

type subscriber struct {
	id int
	fn func(reason error)
}

// Signal is the process-wide "session ended" notification. It fires when
// the credentials are discarded because they could not be renewed.
type Signal struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

// NewSignal creates a signal with no subscribers
func NewSignal() *Signal {
	return &Signal{}
}

// Subscribe registers fn and returns a function that unregisters it
func (s *Signal) Subscribe(fn func(reason error)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Fire calls every subscriber, in subscription order, with reason
func (s *Signal) Fire(reason error) {
	s.mu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(reason)
	}
}
