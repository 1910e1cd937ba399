package engine

import "sync"

// Interrupts is a process-wide cooperative cancellation signal: a
// monotonically increasing generation counter broadcast to every subscriber.
// Long-running operations race their work against Subscription.Done; losing
// the race abandons the operation but does not necessarily stop it, so the
// underlying request may keep running in the background with its result
// discarded.
type Interrupts struct {
	mu  sync.Mutex
	gen uint64
	ch  chan struct{}
}

// NewInterrupts creates an Interrupts source at generation zero.
func NewInterrupts() *Interrupts {
	return &Interrupts{ch: make(chan struct{})}
}

// Notify advances the generation and wakes every current waiter.
func (i *Interrupts) Notify() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.gen++
	close(i.ch)
	i.ch = make(chan struct{})
}

// Generation returns the current generation counter.
func (i *Interrupts) Generation() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.gen
}

// Subscribe returns a subscription whose baseline is the current generation.
// Interrupts delivered before Subscribe are not observed.
func (i *Interrupts) Subscribe() *Subscription {
	i.mu.Lock()
	defer i.mu.Unlock()
	return &Subscription{src: i, seen: i.gen}
}

// closedChan is returned by Done when the generation has already advanced.
var closedChan = make(chan struct{})

func init() { close(closedChan) }

// Subscription tracks the last generation its owner acknowledged. The
// cancellation predicate is "has the generation changed since I last
// checked", so an interrupt that fires between two waits is still caught at
// the next wait rather than silently consumed. A Subscription has a single
// owner and is not safe for concurrent use.
//
// A nil *Subscription is valid and never signals: Done returns a nil channel
// (which blocks forever in a select) and Changed reports false.
type Subscription struct {
	src  *Interrupts
	seen uint64
}

// Done returns a channel that is closed once the generation moves past the
// last acknowledged value. Call it fresh before every wait; caching the
// channel across waits can miss a bump that lands in between.
func (s *Subscription) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	s.src.mu.Lock()
	defer s.src.mu.Unlock()
	if s.src.gen != s.seen {
		return closedChan
	}
	return s.src.ch
}

// Changed reports whether the generation moved since the last Ack (or since
// Subscribe). It does not acknowledge the change.
func (s *Subscription) Changed() bool {
	if s == nil {
		return false
	}
	s.src.mu.Lock()
	defer s.src.mu.Unlock()
	return s.src.gen != s.seen
}

// Clone returns an independent subscription with the same baseline. Each
// concurrently running task needs its own clone; a bump that lands between
// the parent's last check and the clone is still observed by the clone.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	s.src.mu.Lock()
	defer s.src.mu.Unlock()
	return &Subscription{src: s.src, seen: s.seen}
}

// Ack acknowledges everything observed so far. The next Done or Changed
// only reacts to bumps after this point.
func (s *Subscription) Ack() {
	if s == nil {
		return
	}
	s.src.mu.Lock()
	defer s.src.mu.Unlock()
	s.seen = s.src.gen
}
