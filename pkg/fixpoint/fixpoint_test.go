package fixpoint

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMul16(t *testing.T) {
	// 0.5 * 0.5 = 0.25 in Q15.
	assert.Equal(t, int16(0x2000), Mul16(0x4000, 0x4000))
	assert.Equal(t, int16(-0x2000), Mul16(-0x4000, 0x4000))
	assert.Equal(t, int16(0), Mul16(0, 0x7fff))
}

func TestMul16RoundsToNearest(t *testing.T) {
	// 3 * 0.5 = 1.5 exactly; the shifted-out bit rounds it up to 2.
	assert.Equal(t, int16(2), Mul16(3, 0x4000))
	assert.Equal(t, int16(1), Mul16(2, 0x4000))
}

func TestMul16MatchesFloat(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 1000; n++ {
		a := int16(rng.Intn(65536) - 32768)
		b := int16(rng.Intn(65536) - 32768)
		want := math.Round(float64(a) * float64(b) / 32768)
		got := float64(Mul16(a, b))
		assert.InDelta(t, want, got, 1, "a=%d b=%d", a, b)
	}
}

func TestMul32(t *testing.T) {
	assert.Equal(t, int32(0x20000000), Mul32(0x40000000, 0x40000000))
	assert.Equal(t, int32(-0x20000000), Mul32(-0x40000000, 0x40000000))
	// 3 * 0.5 = 1.5 rounds up.
	assert.Equal(t, int32(2), Mul32(3, 0x40000000))
}

func TestMul32MatchesFloat(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for n := 0; n < 1000; n++ {
		a := rng.Int31() - 1<<30
		b := rng.Int31() - 1<<30
		want := math.Round(float64(a) * float64(b) / float64(1<<31))
		got := float64(Mul32(a, b))
		assert.InDelta(t, want, got, 1, "a=%d b=%d", a, b)
	}
}
