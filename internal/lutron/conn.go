// Package lutron talks to a RadioRA 2 main repeater: it enumerates keypad
// buttons from the integration database and delivers button press and
// release notifications from the integration session.
package lutron

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/sweeney/lutron-bridge/internal/logic"
)

// Integration protocol tokens.
const (
	promptLogin    = "login: "
	promptPassword = "password: "
	promptGNET     = "GNET> "

	// Button actions reported in ~DEVICE lines.
	actionPress   = 3
	actionRelease = 4
)

// monitoringCommands turn off the prompt and everything except button
// events.
var monitoringCommands = []string{
	"#MONITORING,12,2",
	"#MONITORING,255,2",
	"#MONITORING,3,1",
}

const loginTimeout = 10 * time.Second

// Handler receives raw events for one button. A returned error is logged.
type Handler func(kind logic.RawEvent) error

// DialFunc opens the network connection to the repeater.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Config holds the session settings.
type Config struct {
	Addr           string
	Username       string
	Password       string
	ReconnectDelay time.Duration
	// Dial defaults to a net.Dialer with a 10 second timeout.
	Dial DialFunc
}

type buttonKey struct {
	device    int
	component int
}

// Conn is an integration session with the main repeater. It logs in, turns
// on button monitoring and dispatches button events to subscribers until
// its context is cancelled, reconnecting after connection loss.
//
// Handlers run on the session's reader goroutine, one line at a time.
type Conn struct {
	cfg Config
	log zerolog.Logger

	subMu sync.RWMutex
	subs  map[buttonKey][]Handler

	connected atomic.Bool

	writeMu sync.Mutex
	nc      net.Conn
}

// NewConn creates a session. Call Run to connect.
func NewConn(cfg Config, log zerolog.Logger) *Conn {
	if cfg.Dial == nil {
		d := &net.Dialer{Timeout: 10 * time.Second}
		cfg.Dial = d.DialContext
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	return &Conn{
		cfg:  cfg,
		log:  log,
		subs: make(map[buttonKey][]Handler),
	}
}

// Subscribe registers h for raw events of the given keypad button.
// Several handlers may be registered for the same button.
func (c *Conn) Subscribe(deviceID, component int, h Handler) {
	key := buttonKey{deviceID, component}
	c.subMu.Lock()
	c.subs[key] = append(c.subs[key], h)
	c.subMu.Unlock()
}

// IsConnected reports whether a logged-in session is active.
func (c *Conn) IsConnected() bool {
	return c.connected.Load()
}

// Run keeps a session open until ctx is cancelled. It returns nil on
// cancellation and ErrLoginFailed if the repeater rejects the credentials.
func (c *Conn) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, ErrLoginFailed) {
			return err
		}
		c.log.Warn().Err(err).Dur("retry_in", c.cfg.ReconnectDelay).Msg("repeater session ended")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

func (c *Conn) session(ctx context.Context) error {
	nc, err := c.cfg.Dial(ctx, "tcp", c.cfg.Addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.Addr, err)
	}
	defer nc.Close()
	stop := context.AfterFunc(ctx, func() { nc.Close() })
	defer stop()

	r := bufio.NewReader(nc)
	if err := c.login(nc, r); err != nil {
		return err
	}

	c.writeMu.Lock()
	c.nc = nc
	c.writeMu.Unlock()
	defer func() {
		c.connected.Store(false)
		c.writeMu.Lock()
		c.nc = nil
		c.writeMu.Unlock()
	}()

	for _, cmd := range monitoringCommands {
		if err := c.Send(cmd); err != nil {
			return err
		}
	}
	c.connected.Store(true)
	c.log.Info().Str("addr", c.cfg.Addr).Msg("connected to main repeater")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		c.dispatch(line)
	}
}

func (c *Conn) login(nc net.Conn, r *bufio.Reader) error {
	if err := nc.SetDeadline(time.Now().Add(loginTimeout)); err != nil {
		return fmt.Errorf("set login deadline: %w", err)
	}

	if _, err := expect(r, promptLogin); err != nil {
		return fmt.Errorf("wait for login prompt: %w", err)
	}
	if _, err := fmt.Fprintf(nc, "%s\r\n", c.cfg.Username); err != nil {
		return fmt.Errorf("send username: %w", err)
	}
	if _, err := expect(r, promptPassword); err != nil {
		return fmt.Errorf("wait for password prompt: %w", err)
	}
	if _, err := fmt.Fprintf(nc, "%s\r\n", c.cfg.Password); err != nil {
		return fmt.Errorf("send password: %w", err)
	}

	// A rejected login is answered with another login prompt.
	got, err := expect(r, promptGNET, promptLogin)
	if err != nil {
		return fmt.Errorf("wait for GNET prompt: %w", err)
	}
	if got == promptLogin {
		return ErrLoginFailed
	}

	return nc.SetDeadline(time.Time{})
}

// expect reads until the input ends with one of tokens and returns it.
func expect(r *bufio.Reader, tokens ...string) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		buf = append(buf, b)
		for _, tok := range tokens {
			if strings.HasSuffix(string(buf), tok) {
				return tok, nil
			}
		}
	}
}

// Send writes one integration command to the repeater.
func (c *Conn) Send(cmd string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.nc == nil {
		return ErrNotConnected
	}
	if _, err := c.nc.Write([]byte(cmd + "\r\n")); err != nil {
		return fmt.Errorf("send %q: %w", cmd, err)
	}
	return nil
}

func (c *Conn) dispatch(line string) {
	device, component, action, ok := parseDeviceLine(line)
	if !ok {
		return
	}

	var kind logic.RawEvent
	switch action {
	case actionPress:
		kind = logic.Press
	case actionRelease:
		kind = logic.Release
	default:
		c.log.Debug().Int("device", device).Int("component", component).Int("action", action).Msg("ignoring device action")
		return
	}

	c.subMu.RLock()
	handlers := c.subs[buttonKey{device, component}]
	c.subMu.RUnlock()

	for _, h := range handlers {
		if err := h(kind); err != nil {
			c.log.Error().Err(err).Int("device", device).Int("component", component).Stringer("event", kind).Msg("button handler failed")
		}
	}
}

// parseDeviceLine parses "~DEVICE,<id>,<component>,<action>[,...]".
// A leading GNET prompt is tolerated.
func parseDeviceLine(line string) (device, component, action int, ok bool) {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, strings.TrimSpace(promptGNET))
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "~DEVICE,") {
		return 0, 0, 0, false
	}

	fields := strings.Split(line, ",")
	if len(fields) < 4 {
		return 0, 0, 0, false
	}

	var err error
	if device, err = strconv.Atoi(fields[1]); err != nil {
		return 0, 0, 0, false
	}
	if component, err = strconv.Atoi(fields[2]); err != nil {
		return 0, 0, 0, false
	}
	if action, err = strconv.Atoi(fields[3]); err != nil {
		return 0, 0, 0, false
	}
	return device, component, action, true
}
