package ringdrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// producer models the hardware side: it advances the ring between two
// software register reads, paced per busy poll. Word values are a running
// counter so the tests can detect lost or duplicated records.
type producer struct {
	buf     [Capacity]uint32
	next    uint32
	written int
	total   int
	perPoll int
}

// busy writes up to perPoll words, then reports whether the run is complete.
// Writing before reporting models records landing between the last pointer
// read and the sequencer going idle.
func (p *producer) busy() bool {
	for i := 0; i < p.perPoll && p.written < p.total; i++ {
		p.buf[p.next] = uint32(p.written)
		p.next = (p.next + 1) % Capacity
		p.written++
	}
	return p.written < p.total
}

func (p *producer) channel(out []uint32) *Channel {
	return &Channel{
		NextAddress: func() uint32 { return p.next },
		Buffer:      p.buf[:],
		Out:         out,
	}
}

func TestDrainDoubleWrap(t *testing.T) {
	const total = 2500 // laps the 1024-word ring twice
	p := &producer{total: total, perPoll: 700}
	out := make([]uint32, total)

	d := &Drainer{Busy: p.busy, Channels: []*Channel{p.channel(out)}}
	d.Run()

	require.Equal(t, total, d.Channels[0].Count())
	for i, w := range out {
		require.Equal(t, uint32(i), w, "word %d", i)
	}
}

func TestDrainFinalPassAfterIdle(t *testing.T) {
	// The whole run lands in a single poll: busy is false on the very first
	// sample, but that pass must still collect everything.
	const total = 100
	p := &producer{total: total, perPoll: total}
	out := make([]uint32, total)

	d := &Drainer{Busy: p.busy, Channels: []*Channel{p.channel(out)}}
	d.Run()

	assert.Equal(t, total, d.Channels[0].Count())
	assert.Equal(t, uint32(total-1), out[total-1])
}

func TestDrainOverflowCountsDroppedWords(t *testing.T) {
	const total = 100
	p := &producer{total: total, perPoll: 16}
	out := make([]uint32, 32)

	d := &Drainer{Busy: p.busy, Channels: []*Channel{p.channel(out)}}
	d.Run()

	assert.Equal(t, total, d.Channels[0].Count())
	for i, w := range out {
		assert.Equal(t, uint32(i), w, "word %d", i)
	}
}

func TestDrainLappedProducerLosesWords(t *testing.T) {
	// The producer advances more than a full buffer capacity between two
	// polls, so part of the run is overwritten before it can be read. The
	// drainer cannot recover the lost words, but the count must come up
	// short so the caller can report captured versus requested.
	const total = 2048
	p := &producer{total: total, perPoll: 1100}
	out := make([]uint32, total)

	d := &Drainer{Busy: p.busy, Channels: []*Channel{p.channel(out)}}
	d.Run()

	got := d.Channels[0].Count()
	assert.Less(t, got, total)
	// Two polls, each able to salvage at most the span between the old and
	// new pointer positions: 76 words, then the 948-word tail.
	assert.Equal(t, Capacity, got)
}

func TestDrainMultipleChannels(t *testing.T) {
	const total = 1500
	p1 := &producer{total: total, perPoll: 300}
	p2 := &producer{total: total, perPoll: 500}
	out1 := make([]uint32, total)
	out2 := make([]uint32, total)

	var progress []int
	d := &Drainer{
		Busy:     func() bool { b1 := p1.busy(); b2 := p2.busy(); return b1 || b2 },
		Channels: []*Channel{p1.channel(out1), p2.channel(out2)},
		Progress: func(words int) { progress = append(progress, words) },
	}
	d.Run()

	require.Equal(t, total, d.Channels[0].Count())
	require.Equal(t, total, d.Channels[1].Count())
	for i := 0; i < total; i++ {
		require.Equal(t, uint32(i), out1[i])
		require.Equal(t, uint32(i), out2[i])
	}

	require.NotEmpty(t, progress)
	assert.Equal(t, total, progress[len(progress)-1])
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
}
