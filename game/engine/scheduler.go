package engine

// Scheduler queues actions for the next tick.
type Scheduler struct {
	pending []func()
}

// Defer queues fn. Queued actions always run; there is no cancellation.
func (s *Scheduler) Defer(fn func()) {
	s.pending = append(s.pending, fn)
}

// Flush runs, in order, the actions queued before the call. Anything they
// defer waits for the next Flush.
func (s *Scheduler) Flush() int {
	batch := s.pending
	s.pending = nil
	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Pending returns the number of queued actions.
func (s *Scheduler) Pending() int {
	return len(s.pending)
}
