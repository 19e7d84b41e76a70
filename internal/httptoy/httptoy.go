// Package httptoy is the out-of-core application layer (spec §1, §4.5): a
// trivial HTTP/1.0-like request/response format with a three-route table,
// built on top of the reliable transport. It is specified only by the
// byte-stream interface it consumes — one application message per data
// packet, at most wire.MaxDataSize bytes per direction.
package httptoy

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedRequest is returned by ParseRequest for a request line with
// fewer than two fields (method and path); the version token is not checked.
var ErrMalformedRequest = errors.New("httptoy: malformed request line")

// Request is the parsed form of a request datagram.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    string
}

// ParseRequest parses a request of the form:
//
//	METHOD PATH HTTP/1.0\r\n
//	Content-Length: N\r\n
//	\r\n
//	<body>
func ParseRequest(data []byte) (Request, error) {
	lines := strings.Split(string(data), "\r\n")
	if len(lines) == 0 {
		return Request{}, ErrMalformedRequest
	}

	fields := strings.Fields(lines[0])
	if len(fields) < 2 {
		return Request{}, ErrMalformedRequest
	}

	req := Request{
		Method:  fields[0],
		Path:    fields[1],
		Headers: make(map[string]string),
	}

	for i, line := range lines[1:] {
		if line == "" {
			req.Body = strings.Join(lines[i+2:], "\r\n")
			break
		}
		key, value, ok := strings.Cut(line, ": ")
		if ok {
			req.Headers[key] = value
		}
	}

	return req, nil
}

// FormatResponse renders an HTTP/1.0-style response with a plain-text body.
func FormatResponse(status, body string) []byte {
	lines := []string{
		"HTTP/1.0 " + status,
		"Content-Type: text/plain",
		fmt.Sprintf("Content-Length: %d", len(body)),
		"",
		body,
	}
	return []byte(strings.Join(lines, "\r\n"))
}

// Route implements the three-entry routing table of spec §8's literal
// end-to-end scenarios.
func Route(req Request) []byte {
	switch {
	case req.Method == "GET" && req.Path == "/":
		return FormatResponse("200 OK", "Hello, World!")
	case req.Method == "POST" && req.Path == "/":
		return FormatResponse("200 OK", "Received: "+req.Body)
	default:
		return FormatResponse("404 Not Found", "Not Found")
	}
}
