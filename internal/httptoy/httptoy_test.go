package httptoy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruftp/internal/chaos"
	"ruftp/internal/transport"
)

func scenarioConfig() transport.Config {
	cfg := transport.DefaultConfig()
	cfg.Timeout = 150 * time.Millisecond
	cfg.MaxRetries = 5
	cfg.HandshakeRetries = 5
	return cfg
}

func startServer(t *testing.T, cfg transport.Config, sim *chaos.Simulator) *Server {
	t.Helper()
	srv, err := NewServer(cfg, sim, "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Serve(ctx)
	}()

	return srv
}

func TestScenarioGetRoot(t *testing.T) {
	cfg := scenarioConfig()
	srv := startServer(t, cfg, chaos.New(1))
	client := NewClient(cfg, chaos.New(2), "127.0.0.1:0", srv.Addr())

	resp, err := client.Get("/")
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.0 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 13\r\n\r\nHello, World!", resp)
}

func TestScenarioPostWithBody(t *testing.T) {
	cfg := scenarioConfig()
	srv := startServer(t, cfg, chaos.New(3))
	client := NewClient(cfg, chaos.New(4), "127.0.0.1:0", srv.Addr())

	resp, err := client.Post("/", "Hello Server")
	require.NoError(t, err)
	assert.Contains(t, resp, "HTTP/1.0 200 OK")
	assert.Contains(t, resp, "Content-Type: text/plain")
	assert.Contains(t, resp, "Content-Length: 22")
	assert.Contains(t, resp, "Received: Hello Server")
}

func TestScenarioUnknownPath(t *testing.T) {
	cfg := scenarioConfig()
	srv := startServer(t, cfg, chaos.New(5))
	client := NewClient(cfg, chaos.New(6), "127.0.0.1:0", srv.Addr())

	resp, err := client.Get("/invalid")
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.0 404 Not Found\r\nContent-Type: text/plain\r\nContent-Length: 9\r\n\r\nNot Found", resp)
}

func TestScenarioLossyChannelStillCompletes(t *testing.T) {
	cfg := scenarioConfig()

	for _, seed := range []int64{11, 22, 33} {
		serverSim := chaos.New(seed)
		serverSim.SetLossProb(0.2)
		clientSim := chaos.New(seed + 1)
		clientSim.SetLossProb(0.2)

		srv := startServer(t, cfg, serverSim)
		client := NewClient(cfg, clientSim, "127.0.0.1:0", srv.Addr())

		resp, err := client.Get("/")
		require.NoError(t, err)
		assert.Equal(t, "HTTP/1.0 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 13\r\n\r\nHello, World!", resp)
	}
}

func TestScenarioCorruptChannelStillCompletes(t *testing.T) {
	cfg := scenarioConfig()

	serverSim := chaos.New(42)
	serverSim.SetCorruptProb(0.2)
	clientSim := chaos.New(43)
	clientSim.SetCorruptProb(0.2)

	srv := startServer(t, cfg, serverSim)
	client := NewClient(cfg, clientSim, "127.0.0.1:0", srv.Addr())

	resp, err := client.Get("/")
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.0 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 13\r\n\r\nHello, World!", resp)
}

func TestScenarioTotalLossFailsHandshake(t *testing.T) {
	cfg := scenarioConfig()
	cfg.HandshakeRetries = 2

	lossy := chaos.New(99)
	lossy.SetLossProb(1.0)

	srv := startServer(t, cfg, lossy)
	client := NewClient(cfg, lossy, "127.0.0.1:0", srv.Addr())

	_, err := client.Get("/")
	require.Error(t, err)
	assert.ErrorIs(t, err, transport.ErrHandshakeFailed)
}
