package httptoy

import (
	"fmt"

	"ruftp/internal/chaos"
	"ruftp/internal/transport"
)

// Client issues one request per call, each over its own handshake/FIN
// cycle — mirroring the original HTTPClient, where every send_request does
// its own handshake_client()...close(). This keeps one GET/POST mapped
// cleanly onto one data packet and one connection lifetime, matching
// spec §4.4's "each application message maps to exactly one data packet."
type Client struct {
	cfg                   transport.Config
	sim                   *chaos.Simulator
	localAddr, remoteAddr string
}

// NewClient records connection parameters for later per-request dialing.
func NewClient(cfg transport.Config, sim *chaos.Simulator, localAddr, remoteAddr string) *Client {
	return &Client{cfg: cfg, sim: sim, localAddr: localAddr, remoteAddr: remoteAddr}
}

// Get issues a GET request for path.
func (c *Client) Get(path string) (string, error) {
	return c.sendRequest("GET", path, "")
}

// Post issues a POST request for path with the given body.
func (c *Client) Post(path, body string) (string, error) {
	return c.sendRequest("POST", path, body)
}

func (c *Client) sendRequest(method, path, body string) (string, error) {
	conn, err := transport.NewClient(c.cfg, c.sim, c.localAddr, c.remoteAddr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if err := conn.Open(); err != nil {
		return "", err
	}

	request := fmt.Sprintf("%s %s HTTP/1.0\r\nContent-Length: %d\r\n\r\n%s", method, path, len(body), body)
	if err := conn.SendMessage([]byte(request)); err != nil {
		return "", err
	}

	resp, _, err := conn.ReceiveMessage()
	if err != nil {
		return "", err
	}

	return string(resp), nil
}
