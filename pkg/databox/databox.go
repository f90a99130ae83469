// Package databox provides scoped result buffers and their publication to the
// task's consumer.
//
// A task acquires zeroed boxes, fills them over many acquisition rounds, and
// then either finishes them (hands them to the consumer) or discards them.
// Boxes that belong to one logical measurement are always finished together
// as a single atomic group: the consumer can never observe g1 without its
// paired g2, or a signal buffer without its background twin. A finished box
// must not be mutated again.
package databox

import "sync"

// Box is one result buffer. Exactly one of Int64s or Words is populated,
// depending on what the task produces (correlation sums vs. packed state
// records).
type Box struct {
	name   string
	Int64s []int64
	Words  []uint32

	done bool
}

// Name identifies the box inside its group (e.g. "g1_real").
func (b *Box) Name() string { return b.name }

// Group is a set of boxes published as one indivisible step.
type Group struct {
	Task  string
	Boxes []*Box
}

// Sink owns box lifecycle and delivers finished groups to a consumer channel.
type Sink struct {
	mu      sync.Mutex
	sending sync.WaitGroup
	groups  chan Group
	closed  bool
}

// NewSink returns a sink whose Groups channel buffers up to depth published
// groups. Once the buffer is full, FinishGroup blocks until the consumer
// drains; the consumer must keep receiving for the producing task to make
// progress.
func NewSink(depth int) *Sink {
	return &Sink{groups: make(chan Group, depth)}
}

// AcquireInt64 returns a fresh zero-initialized box of n int64 values.
func (s *Sink) AcquireInt64(name string, n int) *Box {
	return &Box{name: name, Int64s: make([]int64, n)}
}

// AcquireWords returns a fresh zero-initialized box of n uint32 words.
func (s *Sink) AcquireWords(name string, n int) *Box {
	return &Box{name: name, Words: make([]uint32, n)}
}

// FinishGroup marks every box finished and delivers the whole set to the
// consumer as one indivisible channel send. Boxes already finished or
// discarded are a programming error and are dropped from the group.
//
// Only the marking happens under the lock; a full consumer buffer stalls this
// publication but never Discard, Close or other producers.
func (s *Sink) FinishGroup(task string, boxes ...*Box) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	g := Group{Task: task, Boxes: make([]*Box, 0, len(boxes))}
	for _, b := range boxes {
		if b == nil || b.done {
			continue
		}
		b.done = true
		g.Boxes = append(g.Boxes, b)
	}
	s.sending.Add(1)
	s.mu.Unlock()

	s.groups <- g
	s.sending.Done()
}

// Discard releases a box without delivering it.
func (s *Sink) Discard(b *Box) {
	if b == nil {
		return
	}
	s.mu.Lock()
	b.done = true
	s.mu.Unlock()
}

// Groups is the consumer side: each receive is one atomic publication.
func (s *Sink) Groups() <-chan Group { return s.groups }

// Close ends publication. The consumer channel is closed after every in-flight
// FinishGroup send has been delivered, so the consumer must keep draining
// until the channel closes.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.sending.Wait()
	close(s.groups)
}
