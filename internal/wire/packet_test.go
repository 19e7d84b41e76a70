package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		{},
		[]byte("GET / HTTP/1.0\r\nContent-Length: 0\r\n\r\n"),
		make([]byte, MaxDataSize),
	}

	for _, data := range payloads {
		encoded, err := Encode(42, 7, FlagData, data)
		require.NoError(t, err)

		decoded, err := Decode(encoded)
		require.NoError(t, err)

		assert.Equal(t, uint32(42), decoded.Seq)
		assert.Equal(t, uint32(7), decoded.Ack)
		assert.Equal(t, FlagData, decoded.Flags)
		assert.Equal(t, Checksum(data), decoded.Checksum)
		assert.Equal(t, len(data), len(decoded.Data))
		assert.True(t, VerifyChecksum(decoded))
	}
}

func TestChecksumDeterministic(t *testing.T) {
	data := []byte("Hello Server")
	c1 := Checksum(data)
	c2 := Checksum(append([]byte(nil), data...))
	assert.Equal(t, c1, c2)
}

func TestChecksumEmptyIsZero(t *testing.T) {
	assert.Equal(t, uint16(0), Checksum(nil))
	assert.Equal(t, uint16(0), Checksum([]byte{}))
}

func TestOversizedPayloadRejected(t *testing.T) {
	data := make([]byte, MaxDataSize+1)
	_, err := Encode(0, 0, FlagData, data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOversizedPayload)
}

func TestDecodeShortBufferIsParseError(t *testing.T) {
	_, err := Decode(make([]byte, HeaderSize-1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestCorruptionDetectable(t *testing.T) {
	data := []byte("Received: Hello Server")
	encoded, err := Encode(1, 1, FlagData, data)
	require.NoError(t, err)

	mutated := append([]byte(nil), encoded...)
	mutated[len(mutated)-1] ^= 0xFF

	decoded, err := Decode(mutated)
	require.NoError(t, err)
	assert.False(t, VerifyChecksum(decoded), "single-byte mutation in data region must be detected")
}

func TestFlagValuesAreNormative(t *testing.T) {
	assert.Equal(t, byte(0x00), FlagData)
	assert.Equal(t, byte(0x01), FlagACK)
	assert.Equal(t, byte(0x02), FlagSYN)
	assert.Equal(t, byte(0x03), FlagSYNACK)
	assert.Equal(t, byte(0x04), FlagFIN)
	// SYNACK is its own constant, compared by equality; its value coincides with SYN|ACK.
	assert.Equal(t, FlagSYN|FlagACK, FlagSYNACK)
}
