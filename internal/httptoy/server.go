package httptoy

import (
	"context"

	"github.com/sirupsen/logrus"

	"ruftp/internal/chaos"
	"ruftp/internal/transport"
	"ruftp/internal/wire"
	"ruftp/pkg/logger"
)

// Server serves exactly one client session per Serve call, mirroring the
// original HTTPServer.run(): handshake once, answer requests until the
// client sends FIN, then return. Call Serve again on the same Server to
// accept the next client.
type Server struct {
	listener *transport.Listener
	log      *logrus.Entry
}

// NewServer binds a listening socket at addr.
func NewServer(cfg transport.Config, sim *chaos.Simulator, addr string) (*Server, error) {
	l, err := transport.Listen(cfg, sim, addr)
	if err != nil {
		return nil, err
	}
	return &Server{listener: l, log: logger.Base().WithField("component", "httptoy.server")}, nil
}

// Addr returns the bound local address.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Close releases the listening socket.
func (s *Server) Close() error { return s.listener.Close() }

// Serve accepts one client, then answers requests with Route until the
// client closes the connection (FIN) or ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	conn, err := s.listener.Accept(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		data, flags, err := conn.ReceiveMessage()
		if err != nil {
			return err
		}
		if flags&wire.FlagFIN != 0 {
			return nil
		}

		req, err := ParseRequest(data)
		var resp []byte
		if err != nil {
			s.log.WithError(err).Warn("malformed request, replying 400")
			resp = FormatResponse("400 Bad Request", "Bad Request")
		} else {
			resp = Route(req)
		}

		if err := conn.SendMessage(resp); err != nil {
			return err
		}
	}
}
