// Package live implements the connection to the Ableton remote script: a
// single Unix-socket channel carrying one JSON request and one JSON response
// per command.
//
// The peer writes each response as one complete JSON document with no length
// prefix and no delimiter, so message boundaries are discovered by
// successfully decoding the accumulated bytes (framing-by-parse). This is a
// fixed property of the remote script and must not be "upgraded" to a
// length-prefixed protocol.
package live

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// readChunkSize is the per-read buffer size for the receive loop.
const readChunkSize = 8192

// Command is one request to the remote script: an operation name plus named
// parameters. Commands have no identity beyond their content; the protocol
// is strictly one request in flight, one response out.
type Command struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// Conn wraps one established socket to the remote script and exchanges
// exactly one request and one response per call. It never reconnects; the
// Manager owns lifecycle.
type Conn struct {
	sock net.Conn
	log  zerolog.Logger
}

func newConn(sock net.Conn, log zerolog.Logger) *Conn {
	return &Conn{sock: sock, log: log}
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return c.sock.Close()
}

// probe checks cheaply whether the peer end is still open without issuing a
// command: a 1-byte read with a near-immediate deadline times out on a
// healthy idle connection and errors on a closed one. Stray buffered bytes
// also fail the probe; the socket is in an unknown state. The deadline must
// be slightly in the future: an already-expired deadline makes the runtime
// return ErrDeadlineExceeded without touching the socket at all.
func (c *Conn) probe() error {
	if err := c.sock.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return err
	}
	one := make([]byte, 1)
	n, err := c.sock.Read(one)
	if n > 0 {
		return errors.New("unexpected data on idle connection")
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return nil
	}
	if err == nil {
		return errors.New("zero-byte read on idle connection")
	}
	return err
}

// Exchange serializes cmd as a single JSON document, writes it in one send,
// then accumulates response bytes until they decode as one complete JSON
// document. timeout bounds both the send and the whole receive phase.
//
// A response with status "error" is returned as a *RemoteError: the peer is
// healthy and the caller must not invalidate the connection.
func (c *Conn) Exchange(cmd Command, timeout time.Duration) (map[string]any, error) {
	if cmd.Params == nil {
		cmd.Params = map[string]any{}
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshal command %q: %w", cmd.Type, err)
	}

	deadline := time.Now().Add(timeout)
	if err := c.sock.SetWriteDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if _, err := c.sock.Write(payload); err != nil {
		return nil, fmt.Errorf("%w: send %q: %v", ErrTransport, cmd.Type, err)
	}
	c.log.Debug().Str("command", cmd.Type).Int("bytes", len(payload)).Msg("command sent")

	if err := c.sock.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return c.receive(cmd.Type)
}

// receive runs the framing-by-parse loop: read available bytes, retry a full
// decode of the buffer after every read, and return as soon as one complete
// document appears.
func (c *Conn) receive(cmdType string) (map[string]any, error) {
	var acc []byte
	chunk := make([]byte, readChunkSize)

	for {
		n, err := c.sock.Read(chunk)
		if n > 0 {
			acc = append(acc, chunk[:n]...)
			doc, rest, derr := decodeDocument(acc)
			switch {
			case derr == nil:
				if len(rest) > 0 {
					// The peer never pipelines responses, so trailing
					// bytes after a complete document are junk.
					c.log.Warn().
						Str("command", cmdType).
						Int("bytes", len(rest)).
						Msg("discarding trailing bytes after complete response")
				}
				c.log.Debug().Str("command", cmdType).Int("bytes", len(acc)).Msg("complete response received")
				return responseFromDocument(doc)
			case errors.Is(derr, errIncompleteDocument):
				// keep accumulating
			default:
				return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, derr)
			}
		}

		if err == nil {
			continue
		}

		var nerr net.Error
		switch {
		case errors.As(err, &nerr) && nerr.Timeout():
			if len(acc) == 0 {
				return nil, fmt.Errorf("%w: command %q", ErrNoData, cmdType)
			}
			// Best effort: what arrived may already be a full document.
			doc, _, derr := decodeDocument(acc)
			if derr == nil {
				return responseFromDocument(doc)
			}
			return nil, fmt.Errorf("%w: command %q (%d bytes buffered)", ErrIncompleteResponse, cmdType, len(acc))
		case errors.Is(err, io.EOF):
			if len(acc) == 0 {
				return nil, fmt.Errorf("%w: command %q", ErrConnectionClosed, cmdType)
			}
			doc, _, derr := decodeDocument(acc)
			if derr == nil {
				return responseFromDocument(doc)
			}
			return nil, fmt.Errorf("%w: peer closed mid-response to %q", ErrIncompleteResponse, cmdType)
		default:
			return nil, fmt.Errorf("%w: receive for %q: %v", ErrTransport, cmdType, err)
		}
	}
}

// errIncompleteDocument marks a buffer that is a valid prefix of a JSON
// document but not yet complete.
var errIncompleteDocument = errors.New("incomplete JSON document")

// decodeDocument attempts to decode buf as one complete JSON document. On
// success it also returns whatever non-whitespace bytes trail the document.
func decodeDocument(buf []byte) (any, []byte, error) {
	dec := json.NewDecoder(bytes.NewReader(buf))
	var doc any
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil, errIncompleteDocument
		}
		return nil, nil, err
	}
	rest := bytes.TrimSpace(buf[dec.InputOffset():])
	return doc, rest, nil
}

// responseFromDocument validates the decoded document against the wire
// contract: an object with status "ok" (optional result) or status "error"
// (optional message).
func responseFromDocument(doc any) (map[string]any, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrMalformedResponse)
	}

	status, _ := obj["status"].(string)
	switch status {
	case "ok":
		switch result := obj["result"].(type) {
		case nil:
			return map[string]any{}, nil
		case map[string]any:
			return result, nil
		default:
			// Scalar or array results are legal JSON; keep them addressable.
			return map[string]any{"value": result}, nil
		}
	case "error":
		msg, _ := obj["message"].(string)
		if msg == "" {
			msg = "unknown error from Ableton"
		}
		return nil, &RemoteError{Message: msg}
	default:
		return nil, fmt.Errorf("%w: missing or unknown status %q", ErrMalformedResponse, status)
	}
}
