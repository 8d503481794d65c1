package engine

import "time"

// Coalescer rate-limits a stream of values: the first value after a quiet
// interval is emitted at once, later ones replace a single pending slot that
// Flush emits once the interval has elapsed. Cancel drops the pending value.
type Coalescer[T any] struct {
	interval time.Duration
	emit     func(T)

	last       time.Time
	emitted    bool
	pending    T
	hasPending bool
}

func NewCoalescer[T any](interval time.Duration, emit func(T)) *Coalescer[T] {
	return &Coalescer[T]{interval: interval, emit: emit}
}

// Offer emits v immediately if allowed, otherwise parks it as the pending value.
// Returns true when v was emitted.
func (c *Coalescer[T]) Offer(now time.Time, v T) bool {
	if c.ready(now) {
		c.fire(now, v)
		return true
	}
	c.pending = v
	c.hasPending = true
	return false
}

// Flush emits the pending value if the interval has elapsed.
func (c *Coalescer[T]) Flush(now time.Time) bool {
	if !c.hasPending || !c.ready(now) {
		return false
	}
	c.fire(now, c.pending)
	return true
}

// Cancel drops any pending value without emitting it.
func (c *Coalescer[T]) Cancel() {
	var zero T
	c.pending = zero
	c.hasPending = false
}

// Reset cancels and forgets the last emission time, so the next Offer emits
// at once.
func (c *Coalescer[T]) Reset() {
	c.Cancel()
	c.emitted = false
}

func (c *Coalescer[T]) ready(now time.Time) bool {
	return !c.emitted || now.Sub(c.last) >= c.interval
}

func (c *Coalescer[T]) fire(now time.Time, v T) {
	c.Cancel()
	c.last = now
	c.emitted = true
	c.emit(v)
}
