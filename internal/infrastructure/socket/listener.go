// Package socket maintains the real-time notification connection: one
// websocket per user, reopened after abnormal closes with a fixed delay.
package socket

import (
	"fmt"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fieldops/companion/internal/metrics"
)

const (
	defaultReconnectDelay = 3 * time.Second
	defaultOpenTimeout    = 5 * time.Second
	closeWriteWait        = time.Second
)

// BuildURL derives the notification socket endpoint from the API base:
// http/https schemes become ws/wss, the user id parameterizes the path, and
// the access token travels as a query parameter because the handshake cannot
// carry a bearer header on the consuming platforms.
func BuildURL(base, userID, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("socket: parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// Already a socket scheme (explicit override).
	default:
		return "", fmt.Errorf("socket: unsupported scheme %q", u.Scheme)
	}
	u.Path = path.Join(u.Path, "ws", "notifications", userID)
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Config configures a Listener.
type Config struct {
	URL     string
	OnFrame func(data []byte)
	// ReconnectDelay is the fixed wait before reopening after an abnormal
	// close. Defaults to 3s.
	ReconnectDelay time.Duration
	// OpenTimeout is how long a dial may stay pending before a warning is
	// logged. The warning is not fatal. Defaults to 5s.
	OpenTimeout time.Duration
	// Dialer overrides the websocket dialer (tests).
	Dialer *websocket.Dialer
}

// Listener owns one notification socket connection and its reconnect timer.
// The timer is held by the listener and stopped in Close, so it cannot
// outlive the owner.
type Listener struct {
	url            string
	onFrame        func([]byte)
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	openTimeout    time.Duration
	log            zerolog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	timer  *time.Timer
	closed bool
}

func NewListener(cfg Config, log zerolog.Logger) *Listener {
	l := &Listener{
		url:            cfg.URL,
		onFrame:        cfg.OnFrame,
		dialer:         cfg.Dialer,
		reconnectDelay: cfg.ReconnectDelay,
		openTimeout:    cfg.OpenTimeout,
		log:            log,
	}
	if l.dialer == nil {
		l.dialer = websocket.DefaultDialer
	}
	if l.reconnectDelay <= 0 {
		l.reconnectDelay = defaultReconnectDelay
	}
	if l.openTimeout <= 0 {
		l.openTimeout = defaultOpenTimeout
	}
	return l
}

// Start dials the socket and begins reading frames. A failed dial is not
// fatal: the regular reconnect path takes over.
func (l *Listener) Start() {
	l.connect()
}

func (l *Listener) connect() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	warn := time.AfterFunc(l.openTimeout, func() {
		l.log.Warn().Dur("timeout", l.openTimeout).Msg("notification socket still connecting")
	})
	conn, _, err := l.dialer.Dial(l.url, nil)
	warn.Stop()

	if err != nil {
		l.log.Warn().Err(err).Msg("notification socket dial failed")
		l.scheduleReconnect()
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		_ = conn.Close()
		return
	}
	l.conn = conn
	l.mu.Unlock()

	l.log.Info().Msg("notification socket connected")
	go l.readLoop(conn)
}

func (l *Listener) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err == nil {
			l.onFrame(data)
			continue
		}

		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return
		}

		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			l.log.Info().Msg("notification socket closed normally")
			return
		}

		// A torn connection surfaces as a read error here; that is the
		// abnormal-close signal. Frame-level errors never reach this branch,
		// so there is exactly one reconnect per drop.
		l.log.Warn().Err(err).Msg("notification socket dropped")
		l.scheduleReconnect()
		return
	}
}

func (l *Listener) scheduleReconnect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	metrics.SocketReconnectsTotal.Inc()
	l.log.Info().Dur("delay", l.reconnectDelay).Msg("scheduling socket reconnect")
	l.timer = time.AfterFunc(l.reconnectDelay, l.connect)
}

// Close cancels any pending reconnect and closes the connection with a
// normal closure code so the server side does not assume a crash.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	timer := l.timer
	conn := l.conn
	l.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
		return conn.Close()
	}
	return nil
}
