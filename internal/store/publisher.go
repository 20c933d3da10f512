package store

import "sync"

// DayPublisher is a current-value broadcast for day view snapshots. Each
// subscriber owns a buffered channel of capacity one holding the latest
// snapshot; a slow subscriber never blocks a publish, it just observes the
// newest value when it next receives. Snapshots are replaced wholesale,
// never mutated in place, so receivers may read them without locking.
type DayPublisher struct {
	mu      sync.Mutex
	current []DiaryDay
	subs    []chan []DiaryDay
	closed  bool
}

func newDayPublisher() *DayPublisher {
	return &DayPublisher{}
}

// Current returns the latest published snapshot.
func (p *DayPublisher) Current() []DiaryDay {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Subscribe registers a new subscriber and primes its channel with the
// current snapshot.
func (p *DayPublisher) Subscribe() <-chan []DiaryDay {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan []DiaryDay, 1)
	if p.closed {
		close(ch)
		return ch
	}
	if p.current != nil {
		ch <- p.current
	}
	p.subs = append(p.subs, ch)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown
// channels are ignored.
func (p *DayPublisher) Unsubscribe(ch <-chan []DiaryDay) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, sub := range p.subs {
		if sub == ch {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Publish replaces the current snapshot and fans it out. Holding the lock
// while draining-then-sending on capacity-one channels makes the send
// non-blocking: stale values are dropped, the latest always lands.
func (p *DayPublisher) Publish(days []DiaryDay) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.current = days
	for _, sub := range p.subs {
		select {
		case <-sub:
		default:
		}
		sub <- days
	}
}

// close completes the stream: all subscriber channels are closed and later
// Subscribe calls return an already-closed channel.
func (p *DayPublisher) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	for _, sub := range p.subs {
		close(sub)
	}
	p.subs = nil
}
