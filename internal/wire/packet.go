// Package wire implements the pure packet codec for the reliable datagram
// protocol: header layout, checksum, and encode/decode. It has no I/O and no
// state — the connection state machine in internal/transport owns the
// socket and all protocol state.
package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Flag values, normative on the wire.
const (
	FlagData   byte = 0x00
	FlagACK    byte = 0x01
	FlagSYN    byte = 0x02
	FlagSYNACK byte = 0x03 // distinct value, never SYN|ACK bitwise-OR'd
	FlagFIN    byte = 0x04
)

const (
	// HeaderSize is the fixed 11-byte header: seq(4) + ack(4) + flags(1) + checksum(2).
	HeaderSize = 11
	// MaxDataSize is the largest payload a packet may carry.
	MaxDataSize = 1000
)

// ErrOversizedPayload is returned by Encode when the payload exceeds MaxDataSize.
var ErrOversizedPayload = errors.New("wire: payload exceeds maximum data size")

// ErrParse is returned by Decode for any structurally invalid datagram. It is
// always recovered locally by the caller (silent drop) and never surfaced.
var ErrParse = errors.New("wire: malformed datagram")

// Packet is the single wire entity: header fields plus payload.
type Packet struct {
	Seq      uint32
	Ack      uint32
	Flags    byte
	Checksum uint16
	Data     []byte
}

// Checksum computes the integrity tag over data alone: the unsigned sum of
// its bytes reduced modulo 0xFFFF. It is 0 for an empty payload. This is
// intentionally weak — it only needs to catch the single-byte corruption the
// channel simulator injects — and is part of the wire contract, not an
// implementation detail.
func Checksum(data []byte) uint16 {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return uint16(sum % 0xFFFF)
}

// Encode produces the 11-byte header followed by data, big-endian throughout.
// The checksum is computed from data alone, never from seq/ack/flags.
func Encode(seq, ack uint32, flags byte, data []byte) ([]byte, error) {
	if len(data) > MaxDataSize {
		return nil, errors.Wrapf(ErrOversizedPayload, "%d bytes (max %d)", len(data), MaxDataSize)
	}

	buf := make([]byte, HeaderSize+len(data))
	binary.BigEndian.PutUint32(buf[0:4], seq)
	binary.BigEndian.PutUint32(buf[4:8], ack)
	buf[8] = flags
	binary.BigEndian.PutUint16(buf[9:11], Checksum(data))
	copy(buf[HeaderSize:], data)
	return buf, nil
}

// Decode parses a datagram into its fields. It accepts any input of at least
// HeaderSize bytes; anything shorter is ErrParse. It does not verify the
// checksum — that is the state machine's job, so that corruption and
// structural errors stay distinguishable (spec §4.1).
func Decode(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, errors.Wrapf(ErrParse, "got %d bytes, need at least %d", len(b), HeaderSize)
	}

	data := make([]byte, len(b)-HeaderSize)
	copy(data, b[HeaderSize:])

	return Packet{
		Seq:      binary.BigEndian.Uint32(b[0:4]),
		Ack:      binary.BigEndian.Uint32(b[4:8]),
		Flags:    b[8],
		Checksum: binary.BigEndian.Uint16(b[9:11]),
		Data:     data,
	}, nil
}

// VerifyChecksum reports whether p.Checksum matches the checksum recomputed
// over p.Data. Kept separate from Decode per spec §4.1.
func VerifyChecksum(p Packet) bool {
	return Checksum(p.Data) == p.Checksum
}
