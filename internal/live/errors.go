package live

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionUnavailable is returned when acquisition exhausts all
	// connection attempts.
	ErrConnectionUnavailable = errors.New("could not connect to Ableton (is the remote script running?)")

	// ErrTransport is returned on socket-level failures mid-exchange
	// (broken pipe, reset, OS timeout during send).
	ErrTransport = errors.New("transport error")

	// ErrConnectionClosed is returned when the peer closes the socket
	// before any response bytes arrive.
	ErrConnectionClosed = errors.New("connection closed before receiving any data")

	// ErrIncompleteResponse is returned when the receive deadline passes
	// with a partial, unparseable document buffered.
	ErrIncompleteResponse = errors.New("incomplete response received")

	// ErrNoData is returned when the receive deadline passes without a
	// single byte from the peer.
	ErrNoData = errors.New("no data received")

	// ErrMalformedResponse is returned when the peer sends a complete JSON
	// document that is not a valid response object.
	ErrMalformedResponse = errors.New("malformed response")
)

// RemoteError is a well-formed error response from Ableton. It is an
// application-level failure, not a transport failure: the connection stays
// valid and is reused by the next command.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("ableton error: %s", e.Message)
}

// invalidates reports whether err means the socket is in an unknown state
// and the cached connection must be torn down. Remote errors never
// invalidate; every transport-layer kind does.
func invalidates(err error) bool {
	if err == nil {
		return false
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return false
	}
	return errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrConnectionClosed) ||
		errors.Is(err, ErrIncompleteResponse) ||
		errors.Is(err, ErrNoData) ||
		errors.Is(err, ErrMalformedResponse)
}
