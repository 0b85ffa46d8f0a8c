package pipeline

import (
	"context"
	"iter"
	"sync"
)

// Subscribe registers an observer. The returned channel holds one slot and
// conflates: a slow reader always finds the most recent State, never a queue
// of stale ones. The current State is delivered immediately.
//
// The channel is closed by the returned cancel func or by Dispose.
// Subscribing to a disposed pipeline yields the final State and a closed channel.
func (p *Pipeline[T]) Subscribe() (<-chan State[T], func()) {
	ch := make(chan State[T], 1)

	p.mu.Lock()
	ch <- p.snapshotLocked()
	if p.disposed {
		p.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if c, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Observe returns a sequence of States starting with the current one.
// Each range over it is an independent subscription, so it can be ranged
// again after breaking out. Iteration ends when ctx is done, when the loop
// body breaks, or when the pipeline is disposed.
func (p *Pipeline[T]) Observe(ctx context.Context) iter.Seq[State[T]] {
	return func(yield func(State[T]) bool) {
		ch, cancel := p.Subscribe()
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-ch:
				if !ok {
					return
				}
				if !yield(s) {
					return
				}
			}
		}
	}
}

// publishLocked fans the current state out to every subscriber.
// Caller must hold mu.
func (p *Pipeline[T]) publishLocked() {
	if len(p.subs) > 0 {
		snap := p.snapshotLocked()
		for _, ch := range p.subs {
			offer(ch, snap)
		}
	}
	p.metrics.IncStatePublished()
}

// offer replaces whatever is buffered in ch with s. Only publishLocked and
// Subscribe send on subscriber channels, both under mu, so the final send
// always finds room.
func offer[T any](ch chan State[T], s State[T]) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- s
}
