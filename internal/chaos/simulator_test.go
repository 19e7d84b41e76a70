package chaos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyNoLossNoCorruptionPassesThrough(t *testing.T) {
	s := New(1)
	out, ok := s.Apply([]byte{0x01, 0x02, 0x03})
	assert.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, out)
}

func TestApplyFullLossAlwaysDrops(t *testing.T) {
	s := New(2)
	s.SetLossProb(1.0)
	for i := 0; i < 50; i++ {
		_, ok := s.Apply([]byte{0xAA})
		assert.False(t, ok)
	}
}

func TestApplyFullCorruptionFlipsLastByte(t *testing.T) {
	s := New(3)
	s.SetCorruptProb(1.0)
	out, ok := s.Apply([]byte{0x01, 0x02, 0x03})
	assert.True(t, ok)
	assert.Equal(t, byte(0x03^0xFF), out[len(out)-1])
	assert.Equal(t, byte(0x01), out[0])
}

func TestSetProbabilitiesClamp(t *testing.T) {
	s := New(4)
	s.SetLossProb(-1)
	assert.Equal(t, 0.0, s.LossProb())
	s.SetLossProb(2)
	assert.Equal(t, 1.0, s.LossProb())
	s.SetCorruptProb(5)
	assert.Equal(t, 1.0, s.CorruptProb())
}
