package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	retryInterval     = 5 * time.Second
	maxRetryInterval  = time.Minute
	keepAlive         = 60 * time.Second
	disconnectQuiesce = 1000 // milliseconds
)

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// BufferSize is the number of messages kept while disconnected.
	BufferSize int
}

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	log    zerolog.Logger

	mu  sync.Mutex
	buf *ringBuffer
	// online is set once the buffer has been replayed after a connect and
	// cleared on connection loss. Publishes are queued while it is false.
	online bool

	everConnected atomic.Bool
}

// NewRealPublisher creates a publisher and starts connecting to the broker
// in the background.
func NewRealPublisher(o Options, log zerolog.Logger) (*RealPublisher, error) {
	if o.Broker == "" {
		return nil, errors.New("mqtt: broker is required")
	}

	p := &RealPublisher{
		log: log,
		buf: newRingBuffer(o.BufferSize),
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "unexpected_disconnect"})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval).
		SetMaxReconnectInterval(maxRetryInterval).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	p.client = paho.NewClient(opts)
	p.client.Connect()
	p.log.Info().Str("broker", o.Broker).Msg("connecting to broker")

	return p, nil
}

// Publish sends a button event to the broker, QoS 0, not retained.
func (p *RealPublisher) Publish(event ButtonEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(Topic(event.FullID()), 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the broker, QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.online || !p.client.IsConnectionOpen() {
		if p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained}) {
			p.log.Warn().Int("capacity", p.buf.capacity).Msg("publish buffer full, dropping oldest")
		}
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	return p.send(topic, qos, retained, payload)
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// onConnect runs on paho's goroutine after every successful connect.
// Buffered messages go out first; live publishes keep queueing behind them
// until the buffer is empty.
func (p *RealPublisher) onConnect(paho.Client) {
	reconnect := p.everConnected.Swap(true)

	replayed := 0
	for {
		p.mu.Lock()
		if !p.client.IsConnectionOpen() {
			p.mu.Unlock()
			p.log.Warn().Int("replayed", replayed).Msg("connection lost during replay")
			return
		}
		pending := p.buf.drainAll()
		if len(pending) == 0 {
			p.online = true
			p.mu.Unlock()
			break
		}
		p.mu.Unlock()

		for _, m := range pending {
			if err := p.send(m.topic, m.qos, m.retained, m.payload); err != nil {
				p.log.Error().Err(err).Msg("replay buffered message")
			}
		}
		replayed += len(pending)
	}
	p.log.Info().Bool("reconnect", reconnect).Int("buffered", replayed).Msg("connected to broker")

	if reconnect {
		if err := p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"}); err != nil {
			p.log.Error().Err(err).Msg("publish RECONNECTED")
		}
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.online = false
	p.mu.Unlock()
	p.log.Warn().Err(err).Msg("broker connection lost")
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker. Buffered messages are discarded.
func (p *RealPublisher) Close() error {
	p.mu.Lock()
	dropped := p.buf.len()
	p.mu.Unlock()
	if dropped > 0 {
		p.log.Warn().Int("dropped", dropped).Msg("discarding buffered messages on close")
	}
	p.client.Disconnect(disconnectQuiesce)
	return nil
}
