package live

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultSocketPath is the well-known address the remote script listens on.
const DefaultSocketPath = "/tmp/ableton_mcp.sock"

// validationCommand is the lightweight read-only round-trip used to confirm
// a freshly dialed connection actually reaches a responsive remote script.
const validationCommand = "get_session_info"

// Options configures a Manager.
type Options struct {
	// SocketPath is the Unix socket address of the remote script.
	SocketPath string
	// MaxAttempts bounds full acquisition (dial + validate) attempts.
	MaxAttempts int
	// RetryBackoff is the fixed wait between acquisition attempts.
	RetryBackoff time.Duration
	// DialTimeout bounds each individual dial.
	DialTimeout time.Duration
	// Logger receives structured connection and exchange events.
	Logger zerolog.Logger
}

// Manager owns the single cached connection to the remote script. It hides
// reconnection from the tool layer: every Execute either reuses a validated
// connection or performs a fresh bounded acquisition inline.
//
// All exchanges are serialized through one mutex; framing relies on exactly
// one message being in flight per connection.
type Manager struct {
	mu   sync.Mutex
	conn *Conn
	opts Options
}

// NewManager creates a connection manager. The connection itself is lazy:
// nothing is dialed until the first Execute.
func NewManager(opts Options) *Manager {
	if opts.SocketPath == "" {
		opts.SocketPath = DefaultSocketPath
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return &Manager{opts: opts}
}

// SocketPath returns the configured socket address.
func (m *Manager) SocketPath() string {
	return m.opts.SocketPath
}

// Execute sends one command to the remote script and returns its result
// payload. Timeout and settling delays come from the command's policy. Any
// transport-class failure tears down the cached connection so the next call
// re-acquires from scratch; a RemoteError leaves it cached. A failed
// in-flight command is never retried (mutating commands are not idempotent).
func (m *Manager) Execute(name string, params map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, err := m.acquireLocked()
	if err != nil {
		return nil, err
	}

	policy := PolicyFor(name)
	log := m.opts.Logger.With().
		Str("command", name).
		Str("call_id", uuid.NewString()).
		Logger()

	if policy.Mutating {
		time.Sleep(policy.SettleDelay)
	}

	result, err := conn.Exchange(Command{Type: name, Params: params}, policy.Timeout)
	if err != nil {
		if invalidates(err) {
			log.Error().Err(err).Msg("exchange failed, invalidating connection")
			m.invalidateLocked()
		} else {
			log.Warn().Err(err).Msg("command rejected by Ableton")
		}
		return nil, err
	}

	if policy.Mutating {
		time.Sleep(policy.SettleDelay)
	}
	log.Debug().Msg("command completed")
	return result, nil
}

// Invalidate closes and forgets the cached connection. Idempotent; safe to
// call at any time, including process shutdown.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateLocked()
}

// Close releases the cached connection. The Manager stays usable; a later
// Execute acquires again.
func (m *Manager) Close() error {
	m.Invalidate()
	return nil
}

func (m *Manager) invalidateLocked() {
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
}

// acquireLocked returns a validated connection, reusing the cache when the
// probe passes. A failed probe does not consume an acquisition attempt.
func (m *Manager) acquireLocked() (*Conn, error) {
	if m.conn != nil {
		err := m.conn.probe()
		if err == nil {
			return m.conn, nil
		}
		m.opts.Logger.Warn().Err(err).Msg("cached connection is no longer valid")
		m.invalidateLocked()
	}

	for attempt := 1; attempt <= m.opts.MaxAttempts; attempt++ {
		m.opts.Logger.Info().
			Int("attempt", attempt).
			Int("max_attempts", m.opts.MaxAttempts).
			Str("socket", m.opts.SocketPath).
			Msg("connecting to Ableton")

		conn, err := m.connectAndValidate()
		if err != nil {
			m.opts.Logger.Error().Err(err).Int("attempt", attempt).Msg("connection attempt failed")
		} else {
			m.conn = conn
			m.opts.Logger.Info().Msg("connection to Ableton validated")
			return conn, nil
		}

		if attempt < m.opts.MaxAttempts {
			time.Sleep(m.opts.RetryBackoff)
		}
	}

	return nil, fmt.Errorf("%w (socket %s, %d attempts)",
		ErrConnectionUnavailable, m.opts.SocketPath, m.opts.MaxAttempts)
}

// connectAndValidate dials the socket and confirms liveness with a real
// round-trip. Any failure, including an error response to the validation
// command, discards the socket.
func (m *Manager) connectAndValidate() (*Conn, error) {
	sock, err := net.DialTimeout("unix", m.opts.SocketPath, m.opts.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", m.opts.SocketPath, err)
	}

	conn := newConn(sock, m.opts.Logger)
	if _, err := conn.Exchange(Command{Type: validationCommand}, readOnlyTimeout); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("validate connection: %w", err)
	}
	return conn, nil
}
