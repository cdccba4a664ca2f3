package inmemorygraph

import (
	"context"

	"github.com/vk/flowcalc/internal/graphstore"
)

// Subscribe registers l; listeners are called in subscription order.
func (s *Store) Subscribe(l graphstore.Listener) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, fn: l})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) listeners() []graphstore.Listener {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	out := make([]graphstore.Listener, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub.fn)
	}
	return out
}

// emit queues c and, unless a delivery loop is already running, delivers the
// queue in order. Must be called without s.mu held.
func (s *Store) emit(ctx context.Context, c graphstore.Change) {
	s.outMu.Lock()
	s.outbox = append(s.outbox, event{ctx: ctx, change: c})
	if s.dispatching {
		s.outMu.Unlock()
		return
	}
	s.dispatching = true
	s.outMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.outMu.Lock()
			s.outbox = nil
			s.dispatching = false
			s.outMu.Unlock()
			panic(r)
		}
	}()

	for {
		s.outMu.Lock()
		if len(s.outbox) == 0 {
			s.dispatching = false
			s.outMu.Unlock()
			return
		}
		ev := s.outbox[0]
		s.outbox = s.outbox[1:]
		s.outMu.Unlock()

		for _, l := range s.listeners() {
			l(ev.ctx, ev.change)
		}
	}
}
