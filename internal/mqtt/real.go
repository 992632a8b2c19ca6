package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/pushbutton/internal/logic"
)

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string
	Topic    string // base topic; events and system topics hang off it
}

// conn is the part of the paho client the publisher needs.
type conn interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Disconnect()
}

type pahoConn struct {
	client paho.Client
}

func (c pahoConn) IsConnectionOpen() bool {
	return c.client.IsConnectionOpen()
}

func (c pahoConn) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return errors.New("publish timeout")
	}
	return token.Error()
}

func (c pahoConn) Disconnect() {
	c.client.Disconnect(1000) // 1 second timeout
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	conn   conn
	events string
	system string

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool // set after the first successful connect
}

func newPublisher(c conn, topic string) *RealPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &RealPublisher{
		conn:   c,
		events: EventsTopic(topic),
		system: SystemTopic(topic),
		buf:    newRingBuffer(DefaultBufferSize),
	}
}

// NewRealPublisher creates a publisher for the given broker. If the broker is
// not reachable yet the client keeps retrying in the background and messages
// are buffered until it connects.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	if opts.ClientID == "" {
		opts.ClientID = "pushbutton"
	}
	p := newPublisher(nil, opts.Topic)

	copts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(p.system, string(WillPayload(time.Now())), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnf("mqtt: connection lost: %v", err)
		})

	client := paho.NewClient(copts)
	p.conn = pahoConn{client: client}

	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.Warnf("mqtt: broker %s not reachable yet, buffering until connected", opts.Broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// Publish sends a button event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 1: a press should not be lost on a flaky link.
	if err := p.send(bufferedMsg{topic: p.events, payload: payload, qos: 1}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	msg := bufferedMsg{topic: p.system, payload: payload, qos: 1, retained: event.Retained}
	if err := p.send(msg); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	p.mu.Lock()
	if !p.conn.IsConnectionOpen() {
		p.buf.push(msg)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	if err := p.conn.Publish(msg.topic, msg.qos, msg.retained, msg.payload); err != nil {
		p.mu.Lock()
		p.buf.push(msg)
		p.mu.Unlock()
		return err
	}
	return nil
}

// onConnect replays buffered messages and announces reconnects.
func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	pending := p.buf.drainAll()
	reconnect := p.connected
	p.connected = true
	p.mu.Unlock()

	if reconnect {
		log.Infof("mqtt: reconnected")
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		pending = append(pending, bufferedMsg{topic: p.system, payload: payload, qos: 1})
	}

	for i, msg := range pending {
		if err := p.conn.Publish(msg.topic, msg.qos, msg.retained, msg.payload); err != nil {
			log.Warnf("mqtt: replay failed after %d of %d messages: %v", i, len(pending), err)
			p.mu.Lock()
			for _, m := range pending[i:] {
				p.buf.push(m)
			}
			p.mu.Unlock()
			return
		}
	}
	if len(pending) > 0 {
		log.Infof("mqtt: replayed %d buffered messages", len(pending))
	}
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// IsConnected reports whether the broker connection is currently open.
func (p *RealPublisher) IsConnected() bool {
	return p.conn.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.conn.Disconnect()
	return nil
}
