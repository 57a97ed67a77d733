package report

import "sync"

// subscribers is an ordered callback list. It is not safe for concurrent use;
// owners guard it with their own mutex.
type subscribers[T any] struct {
	nextID  int
	entries []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

func (s *subscribers[T]) add(fn func(T)) int {
	s.nextID++
	s.entries = append(s.entries, subscriber[T]{id: s.nextID, fn: fn})
	return s.nextID
}

func (s *subscribers[T]) remove(id int) {
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return
		}
	}
}

func (s *subscribers[T]) snapshot() []func(T) {
	out := make([]func(T), len(s.entries))
	for i, e := range s.entries {
		out[i] = e.fn
	}
	return out
}

// dispatcher delivers committed values to subscribers in commit order.
//
// Owners call enqueue while holding their mutex, in the same critical section
// as the commit. If enqueue reports true the caller must call deliver after
// unlocking; otherwise another goroutine is already delivering and will pick
// the value up. Values enqueued from inside a callback are delivered after
// that callback returns, so callbacks may re-enter the owner.
type dispatcher[T any] struct {
	subs       subscribers[T]
	pending    []T
	delivering bool
}

func (d *dispatcher[T]) enqueue(v T) bool {
	d.pending = append(d.pending, v)
	if d.delivering {
		return false
	}
	d.delivering = true
	return true
}

// deliver drains the queue outside mu, one value at a time.
func (d *dispatcher[T]) deliver(mu sync.Locker) {
	for {
		mu.Lock()
		if len(d.pending) == 0 {
			d.delivering = false
			mu.Unlock()
			return
		}
		v := d.pending[0]
		var zero T
		d.pending[0] = zero
		d.pending = d.pending[1:]
		fns := d.subs.snapshot()
		mu.Unlock()

		for _, fn := range fns {
			fn(v)
		}
	}
}
