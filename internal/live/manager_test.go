package live

import (
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeScript plays the part of the remote script: it accepts connections on
// a Unix socket and answers each decoded command through a handler.
type fakeScript struct {
	ln      net.Listener
	handler func(cmd Command) map[string]any

	mu       sync.Mutex
	accepted int
	commands []string
	conns    []net.Conn
}

func startFakeScript(t *testing.T, handler func(cmd Command) map[string]any) (*fakeScript, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ableton.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	fs := &fakeScript{ln: ln, handler: handler}
	if fs.handler == nil {
		fs.handler = func(cmd Command) map[string]any {
			return map[string]any{"status": "ok", "result": map[string]any{}}
		}
	}

	go fs.acceptLoop()
	t.Cleanup(func() { ln.Close() })
	return fs, path
}

func (fs *fakeScript) acceptLoop() {
	for {
		conn, err := fs.ln.Accept()
		if err != nil {
			return
		}
		fs.mu.Lock()
		fs.accepted++
		fs.conns = append(fs.conns, conn)
		fs.mu.Unlock()
		go fs.serve(conn)
	}
}

func (fs *fakeScript) serve(conn net.Conn) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	for {
		var cmd Command
		if err := dec.Decode(&cmd); err != nil {
			return
		}
		fs.mu.Lock()
		fs.commands = append(fs.commands, cmd.Type)
		fs.mu.Unlock()

		resp := fs.handler(cmd)
		if resp == nil {
			return // handler requests a hangup
		}
		payload, err := json.Marshal(resp)
		if err != nil {
			return
		}
		if _, err := conn.Write(payload); err != nil {
			return
		}
	}
}

func (fs *fakeScript) acceptCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.accepted
}

// dropConnections closes every accepted connection, simulating a remote
// script restart while the listener stays up.
func (fs *fakeScript) dropConnections() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, c := range fs.conns {
		c.Close()
	}
	fs.conns = nil
}

func (fs *fakeScript) commandLog() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.commands...)
}

func testManager(path string) *Manager {
	return NewManager(Options{
		SocketPath:   path,
		MaxAttempts:  3,
		RetryBackoff: 5 * time.Millisecond,
		DialTimeout:  time.Second,
		Logger:       zerolog.Nop(),
	})
}

func TestExecuteLazyConnectAndValidate(t *testing.T) {
	fs, path := startFakeScript(t, func(cmd Command) map[string]any {
		return map[string]any{"status": "ok", "result": map[string]any{"tempo": 120.0}}
	})

	m := testManager(path)
	defer m.Close()

	// Nothing is dialed before the first command.
	if got := fs.acceptCount(); got != 0 {
		t.Fatalf("expected no connections before first Execute, got %d", got)
	}

	result, err := m.Execute("get_session_info", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result["tempo"] != 120.0 {
		t.Errorf("unexpected result: %v", result)
	}

	// One acceptance: the validation round-trip and the actual command
	// share a connection.
	if got := fs.acceptCount(); got != 1 {
		t.Errorf("expected 1 connection, got %d", got)
	}
	log := fs.commandLog()
	if len(log) != 2 || log[0] != "get_session_info" {
		t.Errorf("expected validation then command, got %v", log)
	}
}

func TestExecuteReusesConnection(t *testing.T) {
	fs, path := startFakeScript(t, nil)

	m := testManager(path)
	defer m.Close()

	for i := 0; i < 3; i++ {
		if _, err := m.Execute("get_session_info", nil); err != nil {
			t.Fatalf("Execute %d failed: %v", i, err)
		}
	}

	if got := fs.acceptCount(); got != 1 {
		t.Errorf("expected 1 connection across repeated commands, got %d", got)
	}
}

func TestExecuteUnavailableAfterBoundedRetries(t *testing.T) {
	// Nothing listens on this path.
	path := filepath.Join(t.TempDir(), "absent.sock")

	m := testManager(path)
	defer m.Close()

	_, err := m.Execute("get_session_info", nil)
	if !errors.Is(err, ErrConnectionUnavailable) {
		t.Fatalf("expected ErrConnectionUnavailable, got %v", err)
	}
}

func TestExecuteRetriesUntilScriptAppears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.sock")

	m := NewManager(Options{
		SocketPath:   path,
		MaxAttempts:  3,
		RetryBackoff: 60 * time.Millisecond,
		DialTimeout:  time.Second,
		Logger:       zerolog.Nop(),
	})
	defer m.Close()

	// Bring the listener up while the manager is backing off after its
	// first failed attempt.
	go func() {
		time.Sleep(30 * time.Millisecond)
		ln, err := net.Listen("unix", path)
		if err != nil {
			return
		}
		fs := &fakeScript{ln: ln}
		fs.handler = func(cmd Command) map[string]any {
			return map[string]any{"status": "ok", "result": map[string]any{}}
		}
		go fs.acceptLoop()
	}()

	if _, err := m.Execute("get_session_info", nil); err != nil {
		t.Fatalf("Execute should succeed on a later attempt: %v", err)
	}
}

func TestExecuteSucceedsOnThirdAttempt(t *testing.T) {
	var failures int
	var mu sync.Mutex
	fs, path := startFakeScript(t, func(cmd Command) map[string]any {
		mu.Lock()
		defer mu.Unlock()
		// Hang up on the first two validation round-trips so only the
		// third acquisition attempt survives.
		if failures < 2 {
			failures++
			return nil
		}
		return map[string]any{"status": "ok", "result": map[string]any{}}
	})

	m := testManager(path)
	defer m.Close()

	if _, err := m.Execute("get_session_info", nil); err != nil {
		t.Fatalf("Execute should succeed on the third attempt: %v", err)
	}
	if got := fs.acceptCount(); got != 3 {
		t.Errorf("expected exactly 3 dials, got %d", got)
	}
}

func TestExecuteRemoteErrorKeepsConnection(t *testing.T) {
	fs, path := startFakeScript(t, func(cmd Command) map[string]any {
		if cmd.Type == "set_tempo" {
			return map[string]any{"status": "error", "message": "tempo out of range"}
		}
		return map[string]any{"status": "ok", "result": map[string]any{}}
	})

	m := testManager(path)
	defer m.Close()

	_, err := m.Execute("set_tempo", map[string]any{"tempo": -1})
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}

	// The rejected command must not cost us the connection.
	if _, err := m.Execute("get_session_info", nil); err != nil {
		t.Fatalf("Execute after remote error failed: %v", err)
	}
	if got := fs.acceptCount(); got != 1 {
		t.Errorf("expected connection to survive remote error, got %d connections", got)
	}
}

func TestExecuteReacquiresAfterPeerRestart(t *testing.T) {
	var hangup bool
	var mu sync.Mutex
	fs, path := startFakeScript(t, func(cmd Command) map[string]any {
		mu.Lock()
		defer mu.Unlock()
		if hangup && cmd.Type == "get_track_info" {
			hangup = false
			return nil // close without answering
		}
		return map[string]any{"status": "ok", "result": map[string]any{}}
	})

	m := testManager(path)
	defer m.Close()

	if _, err := m.Execute("get_session_info", nil); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}

	mu.Lock()
	hangup = true
	mu.Unlock()

	// The peer hangs up mid-command: the command fails and the cached
	// connection is torn down.
	if _, err := m.Execute("get_track_info", map[string]any{"track_index": 0}); !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}

	// The next command transparently acquires a fresh connection.
	if _, err := m.Execute("get_session_info", nil); err != nil {
		t.Fatalf("Execute after reconnect failed: %v", err)
	}
	if got := fs.acceptCount(); got != 2 {
		t.Errorf("expected a second connection after hangup, got %d", got)
	}
}

func TestExecuteProbeDetectsStaleConnection(t *testing.T) {
	fs, path := startFakeScript(t, nil)

	m := testManager(path)
	defer m.Close()

	if _, err := m.Execute("get_session_info", nil); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}

	// Kill the peer side while the manager's connection sits idle. The
	// probe must notice before the next command is sent.
	fs.dropConnections()
	time.Sleep(10 * time.Millisecond)

	if _, err := m.Execute("get_session_info", nil); err != nil {
		t.Fatalf("Execute after stale connection failed: %v", err)
	}
	if got := fs.acceptCount(); got != 2 {
		t.Errorf("expected a fresh connection after stale probe, got %d", got)
	}
}

func TestExecuteMutatingSettleDelay(t *testing.T) {
	_, path := startFakeScript(t, func(cmd Command) map[string]any {
		if cmd.Type == "set_tempo" {
			time.Sleep(50 * time.Millisecond)
		}
		return map[string]any{"status": "ok", "result": map[string]any{}}
	})

	m := testManager(path)
	defer m.Close()

	// Warm up the connection so the measurement covers only the command.
	if _, err := m.Execute("get_session_info", nil); err != nil {
		t.Fatalf("warmup failed: %v", err)
	}

	start := time.Now()
	if _, err := m.Execute("set_tempo", map[string]any{"tempo": 128.0}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	elapsed := time.Since(start)

	// Settle before send plus settle after success.
	if elapsed < 2*settleDelay {
		t.Errorf("mutating command finished in %v, expected at least %v", elapsed, 2*settleDelay)
	}

	start = time.Now()
	if _, err := m.Execute("get_session_info", nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if readElapsed := time.Since(start); readElapsed >= settleDelay {
		t.Errorf("read-only command took %v, should not settle", readElapsed)
	}
}
