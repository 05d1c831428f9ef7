package live

import (
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// testPair connects a Conn to an in-test peer over a real Unix socket.
func testPair(t *testing.T) (*Conn, net.Conn) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "live.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- c
	}()

	sock, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}

	peer := <-accepted
	t.Cleanup(func() {
		sock.Close()
		peer.Close()
	})

	return newConn(sock, zerolog.Nop()), peer
}

// readCommand decodes the single request the Conn sent.
func readCommand(t *testing.T, peer net.Conn) Command {
	t.Helper()
	var cmd Command
	if err := json.NewDecoder(peer).Decode(&cmd); err != nil {
		t.Fatalf("failed to decode command: %v", err)
	}
	return cmd
}

func TestExchangeRoundTrip(t *testing.T) {
	conn, peer := testPair(t)

	go func() {
		cmd := readCommand(t, peer)
		if cmd.Type != "get_session_info" {
			return
		}
		peer.Write([]byte(`{"status": "ok", "result": {"tempo": 120.0, "track_count": 4}}`))
	}()

	result, err := conn.Exchange(Command{Type: "get_session_info"}, time.Second)
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if result["tempo"] != 120.0 {
		t.Errorf("expected tempo 120.0, got %v", result["tempo"])
	}
	if result["track_count"] != 4.0 {
		t.Errorf("expected track_count 4, got %v", result["track_count"])
	}
}

func TestExchangeChunkedResponse(t *testing.T) {
	conn, peer := testPair(t)

	response := []byte(`{"status": "ok", "result": {"name": "My Song", "tempo": 128.5}}`)
	go func() {
		readCommand(t, peer)
		// Dribble the response out in small chunks to force the
		// accumulate-and-reparse path.
		for i := 0; i < len(response); i += 7 {
			end := i + 7
			if end > len(response) {
				end = len(response)
			}
			peer.Write(response[i:end])
			time.Sleep(5 * time.Millisecond)
		}
	}()

	result, err := conn.Exchange(Command{Type: "get_session_info"}, 2*time.Second)
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if result["name"] != "My Song" {
		t.Errorf("expected name 'My Song', got %v", result["name"])
	}
}

func TestExchangeTrailingBytesDiscarded(t *testing.T) {
	conn, peer := testPair(t)

	go func() {
		readCommand(t, peer)
		peer.Write([]byte(`{"status": "ok", "result": {"first": true}}{"status": "ok", "result": {"second": true}}`))
	}()

	result, err := conn.Exchange(Command{Type: "get_session_info"}, time.Second)
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if result["first"] != true {
		t.Errorf("expected first document, got %v", result)
	}
	if _, ok := result["second"]; ok {
		t.Error("trailing document leaked into the result")
	}
}

func TestExchangeRemoteError(t *testing.T) {
	conn, peer := testPair(t)

	go func() {
		readCommand(t, peer)
		peer.Write([]byte(`{"status": "error", "message": "Track index out of range"}`))
	}()

	_, err := conn.Exchange(Command{Type: "set_track_name", Params: map[string]any{"track_index": 99}}, time.Second)
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remoteErr.Message != "Track index out of range" {
		t.Errorf("unexpected message: %q", remoteErr.Message)
	}
}

func TestExchangeRemoteErrorWithoutMessage(t *testing.T) {
	conn, peer := testPair(t)

	go func() {
		readCommand(t, peer)
		peer.Write([]byte(`{"status": "error"}`))
	}()

	_, err := conn.Exchange(Command{Type: "set_tempo"}, time.Second)
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remoteErr.Message != "unknown error from Ableton" {
		t.Errorf("unexpected message: %q", remoteErr.Message)
	}
}

func TestExchangeNullResult(t *testing.T) {
	conn, peer := testPair(t)

	go func() {
		readCommand(t, peer)
		peer.Write([]byte(`{"status": "ok"}`))
	}()

	result, err := conn.Exchange(Command{Type: "start_playback"}, time.Second)
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if result == nil || len(result) != 0 {
		t.Errorf("expected empty result map, got %v", result)
	}
}

func TestExchangeScalarResult(t *testing.T) {
	conn, peer := testPair(t)

	go func() {
		readCommand(t, peer)
		peer.Write([]byte(`{"status": "ok", "result": 42}`))
	}()

	result, err := conn.Exchange(Command{Type: "get_playback_position"}, time.Second)
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if result["value"] != 42.0 {
		t.Errorf("expected scalar wrapped as value, got %v", result)
	}
}

func TestExchangeMalformedResponse(t *testing.T) {
	conn, peer := testPair(t)

	go func() {
		readCommand(t, peer)
		peer.Write([]byte(`this is not json`))
	}()

	_, err := conn.Exchange(Command{Type: "get_session_info"}, time.Second)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestExchangeNonObjectResponse(t *testing.T) {
	conn, peer := testPair(t)

	go func() {
		readCommand(t, peer)
		peer.Write([]byte(`[1, 2, 3]`))
	}()

	_, err := conn.Exchange(Command{Type: "get_session_info"}, time.Second)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestExchangeClosedBeforeResponse(t *testing.T) {
	conn, peer := testPair(t)

	go func() {
		readCommand(t, peer)
		peer.Close()
	}()

	_, err := conn.Exchange(Command{Type: "get_session_info"}, time.Second)
	if !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}
}

func TestExchangeClosedMidResponse(t *testing.T) {
	conn, peer := testPair(t)

	go func() {
		readCommand(t, peer)
		peer.Write([]byte(`{"status": "ok", "result": {"tru`))
		peer.Close()
	}()

	_, err := conn.Exchange(Command{Type: "get_session_info"}, time.Second)
	if !errors.Is(err, ErrIncompleteResponse) {
		t.Fatalf("expected ErrIncompleteResponse, got %v", err)
	}
}

func TestExchangeTimeoutNoData(t *testing.T) {
	conn, peer := testPair(t)

	done := make(chan struct{})
	go func() {
		readCommand(t, peer)
		<-done
	}()
	defer close(done)

	_, err := conn.Exchange(Command{Type: "get_session_info"}, 50*time.Millisecond)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestExchangeTimeoutPartialData(t *testing.T) {
	conn, peer := testPair(t)

	done := make(chan struct{})
	go func() {
		readCommand(t, peer)
		peer.Write([]byte(`{"status": "ok", "resu`))
		<-done
	}()
	defer close(done)

	_, err := conn.Exchange(Command{Type: "get_session_info"}, 100*time.Millisecond)
	if !errors.Is(err, ErrIncompleteResponse) {
		t.Fatalf("expected ErrIncompleteResponse, got %v", err)
	}
}

func TestProbeIdleConnection(t *testing.T) {
	conn, _ := testPair(t)

	if err := conn.probe(); err != nil {
		t.Fatalf("probe on healthy idle connection failed: %v", err)
	}
}

func TestProbeClosedConnection(t *testing.T) {
	conn, peer := testPair(t)
	peer.Close()

	// Give the close time to propagate through the kernel.
	time.Sleep(10 * time.Millisecond)

	if err := conn.probe(); err == nil {
		t.Fatal("probe on closed connection should fail")
	}
}

func TestProbeStrayBytes(t *testing.T) {
	conn, peer := testPair(t)
	peer.Write([]byte("x"))
	time.Sleep(10 * time.Millisecond)

	if err := conn.probe(); err == nil {
		t.Fatal("probe should fail when unsolicited bytes are buffered")
	}
}

func TestDecodeDocumentIncomplete(t *testing.T) {
	for _, prefix := range []string{`{`, `{"status"`, `{"status": "ok", "result": {"a": [1, 2`} {
		_, _, err := decodeDocument([]byte(prefix))
		if !errors.Is(err, errIncompleteDocument) {
			t.Errorf("prefix %q: expected errIncompleteDocument, got %v", prefix, err)
		}
	}
}

func TestDecodeDocumentTrailing(t *testing.T) {
	doc, rest, err := decodeDocument([]byte(`{"status": "ok"}  {"next": true}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if doc == nil {
		t.Fatal("expected a document")
	}
	if string(rest) != `{"next": true}` {
		t.Errorf("unexpected trailing bytes: %q", rest)
	}
}
