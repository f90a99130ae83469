// Package ringdrain extracts state-history records from a wrapping on-device
// buffer while a hardware producer advances the write pointer independently.
//
// The producer offers no handshake: it is paced by a running sequencer and
// wraps modulo the buffer capacity. The drainer is a polling state machine
// with one hard ordering rule: the driving sequencer's busy flag is sampled
// BEFORE the write pointer, so that when the sequencer goes idle the loop
// still performs one final drain pass over whatever landed between the last
// pointer read and the end of the run. Records are copied out in address
// order, each exactly once, provided each poll completes before the producer
// can lap the buffer.
package ringdrain

// Capacity is the addressable size of a device ring buffer in words.
const Capacity = 1024

// Channel couples one hardware state channel's write-pointer register with a
// read-only view of its device buffer and the host slice records drain into.
type Channel struct {
	// NextAddress reads the hardware write pointer.
	NextAddress func() uint32
	// Buffer is the device ring buffer view; at least Capacity words.
	Buffer []uint32
	// Out receives drained words. Its length bounds how many words the
	// drainer will store; words beyond it are counted but dropped.
	Out []uint32

	lastAddr uint32
	count    int
}

// Count reports how many words have been drained from this channel so far.
func (c *Channel) Count() int { return c.count }

func (c *Channel) store(w uint32) {
	if c.count < len(c.Out) {
		c.Out[c.count] = w
	}
	c.count++
}

// Drainer polls a set of channels while a busy source reports the driving
// sequencer as running.
type Drainer struct {
	// Busy reports whether the driving sequencer is still running. Sampled
	// once per poll, before any pointer read.
	Busy func() bool
	// Channels are drained in order on every poll.
	Channels []*Channel
	// Progress, when set, is called after every poll with the first
	// channel's drained word count (the least progressed one, since it is
	// drained first).
	Progress func(words int)
}

// Poll runs one transition of the drain state machine and reports the busy
// flag that was sampled at its start. The caller keeps polling until Poll
// returns false; the pass that observes idle has already flushed the final
// records.
func (d *Drainer) Poll() bool {
	busy := d.Busy()

	for _, c := range d.Channels {
		next := c.NextAddress()
		if next < c.lastAddr {
			// Pointer wrapped: collect the tail of the buffer first,
			// then fall through to pick up the records after address 0.
			for i := c.lastAddr; i < Capacity; i++ {
				c.store(c.Buffer[i])
			}
			c.lastAddr = 0
		}
		if next > c.lastAddr {
			for i := c.lastAddr; i < next; i++ {
				c.store(c.Buffer[i])
			}
			c.lastAddr = next
		}
	}

	if d.Progress != nil && len(d.Channels) > 0 {
		d.Progress(d.Channels[0].count)
	}
	return busy
}

// Run polls until the driving sequencer reports idle. The iteration that
// samples the idle flag still drains, so no trailing records are lost.
func (d *Drainer) Run() {
	for d.Poll() {
	}
}
