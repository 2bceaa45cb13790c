package console

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/itohio/gothrust/pkg/config"
)

// MQTT is a wireless console: every byte of a message on the command topic
// is a command byte, and lines are echoed as plain text on the echo topic.
type MQTT struct {
	client       mqtt.Client
	commandTopic string
	echoTopic    string
	q            *byteQueue
}

// DialMQTT connects to the broker and subscribes to the command topic.
func DialMQTT(cfg config.MQTTConfig) (*MQTT, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Server).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)

	m := newMQTT(nil, cfg.CommandTopic, cfg.EchoTopic)
	// Resubscribe after every (re)connect.
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		if token := c.Subscribe(m.commandTopic, 0, m.onMessage); token.Wait() && token.Error() != nil {
			log.Printf("console: mqtt subscribe %s: %v", m.commandTopic, token.Error())
		}
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	m.client = client
	return m, nil
}

func newMQTT(client mqtt.Client, commandTopic, echoTopic string) *MQTT {
	return &MQTT{
		client:       client,
		commandTopic: commandTopic,
		echoTopic:    echoTopic,
		q:            newByteQueue(DefaultQueueSize),
	}
}

// Name returns the channel name.
func (m *MQTT) Name() string { return "mqtt" }

// HasByte reports whether a command byte is waiting.
func (m *MQTT) HasByte() bool { return m.q.hasByte() }

// ReadByte returns the next command byte or ErrNoByte.
func (m *MQTT) ReadByte() (byte, error) { return m.q.readByte() }

// WriteLine publishes text on the echo topic. It does not wait for delivery.
func (m *MQTT) WriteLine(text string) error {
	if m.client == nil {
		return fmt.Errorf("mqtt client not connected")
	}
	token := m.client.Publish(m.echoTopic, 0, false, text)
	select {
	case <-token.Done():
		return token.Error()
	default:
		return nil
	}
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	m.q.stop()
	if m.client != nil {
		m.client.Disconnect(250)
	}
	return nil
}

func (m *MQTT) onMessage(_ mqtt.Client, msg mqtt.Message) {
	for _, b := range msg.Payload() {
		if !m.q.offer(b) {
			log.Printf("console: mqtt queue full, dropping %d bytes", len(msg.Payload()))
			return
		}
	}
}
