package transport

import "github.com/pkg/errors"

// Error taxonomy (spec §7). Parse errors and checksum failures never reach
// this layer's callers — they are recovered locally inside the state
// machine (silent drop, rely on the peer's retransmit).
var (
	// ErrHandshakeFailed is returned when the client exhausts its handshake
	// retries without a valid SYNACK/ACK round-trip.
	ErrHandshakeFailed = errors.New("transport: handshake failed")

	// ErrRetriesExhausted is returned when a data send could not obtain an
	// ACK after the configured number of retries.
	ErrRetriesExhausted = errors.New("transport: retries exhausted")

	// ErrNotOpen is returned when an operation is invoked on a closed
	// connection.
	ErrNotOpen = errors.New("transport: connection is not open")

	// ErrConnectionClosed is returned by ReceiveMessage when the connection
	// closes while it was waiting for a datagram.
	ErrConnectionClosed = errors.New("transport: connection closed")
)
