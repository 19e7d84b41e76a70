// Package transport implements the connection state machine: the
// three-way handshake, stop-and-wait reliable send/receive, and FIN-based
// teardown that make up the core of the reliable datagram protocol. It owns
// the datagram socket exclusively for the lifetime of a Conn; nothing else
// reads or writes it.
package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"ruftp/internal/chaos"
	"ruftp/internal/wire"
	"ruftp/pkg/logger"
)

// Role identifies which side of the handshake a Conn plays.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// recvBufSize is large enough for the 11-byte header plus the 1000-byte max
// payload with headroom; datagrams never legitimately exceed this.
const recvBufSize = 2048

// Conn is one end of an established (or establishing) reliable datagram
// connection. A Conn is used by exactly one goroutine at a time except for
// Close, which may be called concurrently with a blocked Send/Receive to
// unwind a goroutine on shutdown (spec §5: single-threaded and synchronous
// per endpoint; Close is the one operation a supervisor may call from
// outside that loop).
type Conn struct {
	role       Role
	pc         net.PacketConn
	remoteAddr net.Addr
	cfg        Config
	sim        *chaos.Simulator
	log        *logrus.Entry
	sessionID  uuid.UUID

	seq uint32
	ack uint32

	closeMu sync.Mutex
	open    bool
}

// Simulator exposes the connection's channel simulator so callers can tune
// loss_prob/corrupt_prob at runtime (spec §4.2, §6.4).
func (c *Conn) Simulator() *chaos.Simulator { return c.sim }

// LocalAddr returns the connection's local socket address.
func (c *Conn) LocalAddr() net.Addr { return c.pc.LocalAddr() }

// RemoteAddr returns the learned peer address (nil before a handshake completes).
func (c *Conn) RemoteAddr() net.Addr { return c.remoteAddr }

// IsOpen reports whether the connection can still send and receive.
func (c *Conn) IsOpen() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.open
}

func (c *Conn) setClosed() {
	c.closeMu.Lock()
	c.open = false
	c.closeMu.Unlock()
}

// NewClient creates an unconnected client-side endpoint bound to localAddr,
// with remoteAddr already known (spec §6.3: "open | none (remote known at
// construction)"). Call Open to run the handshake.
func NewClient(cfg Config, sim *chaos.Simulator, localAddr, remoteAddr string) (*Conn, error) {
	pc, err := net.ListenPacket("udp", localAddr)
	if err != nil {
		return nil, errors.Wrap(err, "transport: bind local socket")
	}
	raddr, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		pc.Close()
		return nil, errors.Wrap(err, "transport: resolve remote address")
	}
	if sim == nil {
		sim = chaos.New(time.Now().UnixNano())
	}
	return &Conn{
		role:       RoleClient,
		pc:         pc,
		remoteAddr: raddr,
		cfg:        cfg,
		sim:        sim,
		log:        logger.Base().WithField("role", RoleClient.String()),
		seq:        cfg.InitialSeq,
		ack:        0,
		open:       false,
	}, nil
}

// Open performs the client's three-way handshake (spec §4.3.2). On success
// the connection transitions to ESTABLISHED; on exhaustion it returns
// ErrHandshakeFailed.
func (c *Conn) Open() error {
	seq0 := c.cfg.InitialSeq
	buf := make([]byte, recvBufSize)

	for attempt := 1; attempt <= c.cfg.HandshakeRetries; attempt++ {
		syn, err := wire.Encode(seq0, 0, wire.FlagSYN, nil)
		if err != nil {
			return errors.Wrap(err, "transport: build SYN")
		}
		if out, ok := c.sim.Apply(syn); ok {
			c.pc.WriteTo(out, c.remoteAddr)
		}

		c.pc.SetReadDeadline(time.Now().Add(c.cfg.Timeout))
		n, addr, err := c.pc.ReadFrom(buf)
		if err != nil {
			c.log.WithField("attempt", attempt).Debug("handshake: no SYNACK, retrying")
			time.Sleep(time.Duration(float64(100*time.Millisecond) * float64(attempt)))
			continue
		}

		pkt, err := wire.Decode(buf[:n])
		if err != nil || !wire.VerifyChecksum(pkt) || pkt.Flags != wire.FlagSYNACK || pkt.Ack != seq0+1 {
			time.Sleep(time.Duration(float64(100*time.Millisecond) * float64(attempt)))
			continue
		}

		c.remoteAddr = addr
		c.ack = pkt.Seq + 1
		c.seq = seq0 + 1

		ack, err := wire.Encode(c.seq, c.ack, wire.FlagACK, nil)
		if err != nil {
			return errors.Wrap(err, "transport: build handshake ACK")
		}
		if out, ok := c.sim.Apply(ack); ok {
			c.pc.WriteTo(out, c.remoteAddr)
		}

		c.sessionID = uuid.New()
		c.log = c.log.WithFields(logrus.Fields{
			"session":     c.sessionID.String(),
			"remote_addr": c.remoteAddr.String(),
		})
		c.setOpen()
		c.log.Info("handshake established")
		return nil
	}

	return errors.Wrapf(ErrHandshakeFailed, "exhausted %d attempts", c.cfg.HandshakeRetries)
}

func (c *Conn) setOpen() {
	c.closeMu.Lock()
	c.open = true
	c.closeMu.Unlock()
}

// Listener accepts a single reliable connection on a bound socket (spec §1:
// a single concurrent peer per endpoint).
type Listener struct {
	pc  net.PacketConn
	cfg Config
	sim *chaos.Simulator
	log *logrus.Entry
}

// Listen binds a server-side socket at localAddr.
func Listen(cfg Config, sim *chaos.Simulator, localAddr string) (*Listener, error) {
	pc, err := net.ListenPacket("udp", localAddr)
	if err != nil {
		return nil, errors.Wrap(err, "transport: bind listen socket")
	}
	if sim == nil {
		sim = chaos.New(time.Now().UnixNano())
	}
	return &Listener{pc: pc, cfg: cfg, sim: sim, log: logger.Base().WithField("role", RoleServer.String())}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr { return l.pc.LocalAddr() }

// Close releases the listening socket. Only meaningful before Accept hands
// its connection off; the returned Conn then owns the socket exclusively.
func (l *Listener) Close() error { return l.pc.Close() }

// Accept runs the server's handshake loop (spec §4.3.2) until a client
// completes the three-way handshake, or ctx is canceled. A timed-out or
// mismatched round with a candidate peer is not fatal — the server simply
// resumes accepting SYNs, per spec's "server handshake stays unbounded"
// design note; ctx is the implementer-added bound for graceful shutdown and
// test determinism that the same note allows.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	seq0 := l.cfg.InitialSeq
	buf := make([]byte, recvBufSize)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		l.pc.SetReadDeadline(time.Now().Add(l.cfg.Timeout))
		n, addr, err := l.pc.ReadFrom(buf)
		if err != nil {
			continue
		}

		pkt, err := wire.Decode(buf[:n])
		if err != nil || !wire.VerifyChecksum(pkt) || pkt.Flags != wire.FlagSYN {
			continue
		}

		ack := pkt.Seq + 1
		synack, err := wire.Encode(seq0, ack, wire.FlagSYNACK, nil)
		if err != nil {
			l.log.WithError(err).Error("build SYNACK")
			continue
		}
		if out, ok := l.sim.Apply(synack); ok {
			l.pc.WriteTo(out, addr)
		}

		l.pc.SetReadDeadline(time.Now().Add(l.cfg.Timeout))
		n2, addr2, err := l.pc.ReadFrom(buf)
		if err != nil {
			l.log.Debug("handshake: no third-ACK, resuming SYN accept")
			continue
		}
		pkt2, err := wire.Decode(buf[:n2])
		if err != nil || !wire.VerifyChecksum(pkt2) || pkt2.Flags != wire.FlagACK || pkt2.Ack != seq0+1 {
			continue
		}
		if addr2.String() != addr.String() {
			continue
		}

		sessionID := uuid.New()
		conn := &Conn{
			role:       RoleServer,
			pc:         l.pc,
			remoteAddr: addr,
			cfg:        l.cfg,
			sim:        l.sim,
			sessionID:  sessionID,
			seq:        seq0 + 1,
			ack:        ack,
			open:       true,
			log: l.log.WithFields(logrus.Fields{
				"session":     sessionID.String(),
				"remote_addr": addr.String(),
			}),
		}
		conn.log.Info("handshake established")
		return conn, nil
	}
}

// SendMessage frames data as a single DATA packet and reliably delivers it
// (spec §4.4); it is the façade's only framing: one application message per
// data packet, so the maximum message size is wire.MaxDataSize bytes.
func (c *Conn) SendMessage(data []byte) error {
	return c.sendPacket(data, wire.FlagData)
}

// sendPacket implements stop-and-wait reliable send (spec §4.3.3).
func (c *Conn) sendPacket(data []byte, flags byte) error {
	if !c.IsOpen() {
		return ErrNotOpen
	}

	buf := make([]byte, recvBufSize)

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		pkt, err := wire.Encode(c.seq, c.ack, flags, data)
		if err != nil {
			// Oversized payload is rejected at encode time, not retried.
			return err
		}

		out, ok := c.sim.Apply(pkt)
		if !ok {
			c.log.WithField("attempt", attempt).Debug("send: simulated loss")
			continue
		}
		if _, err := c.pc.WriteTo(out, c.remoteAddr); err != nil {
			continue
		}

		c.pc.SetReadDeadline(time.Now().Add(c.cfg.Timeout))
		n, _, err := c.pc.ReadFrom(buf)
		if err != nil {
			continue
		}

		rpkt, err := wire.Decode(buf[:n])
		if err != nil || !wire.VerifyChecksum(rpkt) || rpkt.Flags != wire.FlagACK || rpkt.Ack != c.seq+1 {
			continue
		}

		c.seq++
		return nil
	}

	return errors.Wrapf(ErrRetriesExhausted, "no ACK for seq=%d after %d attempts", c.seq, c.cfg.MaxRetries)
}

// ReceiveMessage implements reliable receive (spec §4.3.4): it loops on
// timeout, silently drops malformed or corrupt datagrams, deduplicates by
// sequence, and surfaces FIN to the caller instead of an error.
func (c *Conn) ReceiveMessage() ([]byte, byte, error) {
	buf := make([]byte, recvBufSize)

	for c.IsOpen() {
		c.pc.SetReadDeadline(time.Now().Add(c.cfg.Timeout))
		n, _, err := c.pc.ReadFrom(buf)
		if err != nil {
			continue // timeout: loop
		}

		pkt, err := wire.Decode(buf[:n])
		if err != nil {
			continue // structural parse failure: drop silently
		}
		if !wire.VerifyChecksum(pkt) {
			continue // corruption: drop silently, no NAK
		}

		if pkt.Flags&wire.FlagFIN != 0 {
			c.setClosed()
			ack, err := wire.Encode(c.seq, c.ack, wire.FlagACK, nil)
			if err == nil {
				c.pc.WriteTo(ack, c.remoteAddr)
			}
			c.log.Info("received FIN, connection closed")
			return nil, pkt.Flags, nil
		}

		if pkt.Seq == c.ack {
			c.ack++
			ack, err := wire.Encode(c.seq, c.ack, wire.FlagACK, nil)
			if err == nil {
				c.pc.WriteTo(ack, c.remoteAddr)
			}
			return pkt.Data, pkt.Flags, nil
		}

		// Duplicate or out-of-sequence: re-send the last ACK without
		// advancing state, to unblock a peer stuck retransmitting.
		ack, err := wire.Encode(c.seq, c.ack, wire.FlagACK, nil)
		if err == nil {
			c.pc.WriteTo(ack, c.remoteAddr)
		}
	}

	return nil, 0, ErrConnectionClosed
}

// Close tears down the connection (spec §4.3.5). It is infallible by
// design: send failures during the final FIN are logged and swallowed, and
// calling Close on an already-closed connection is a no-op.
func (c *Conn) Close() {
	if !c.IsOpen() {
		return
	}

	var merr *multierror.Error

	if c.remoteAddr != nil {
		fin, err := wire.Encode(c.seq, c.ack, wire.FlagFIN, nil)
		if err != nil {
			merr = multierror.Append(merr, errors.Wrap(err, "build FIN"))
		} else if _, err := c.pc.WriteTo(fin, c.remoteAddr); err != nil {
			merr = multierror.Append(merr, errors.Wrap(err, "send FIN"))
		}
		time.Sleep(100 * time.Millisecond)
	}

	c.setClosed()

	if err := c.pc.Close(); err != nil {
		merr = multierror.Append(merr, errors.Wrap(err, "close socket"))
	}

	if merr.ErrorOrNil() != nil {
		c.log.WithError(merr).Warn("non-fatal errors during close")
	} else {
		c.log.Info("connection closed")
	}
}
