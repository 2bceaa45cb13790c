package console

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestMQTT_OnMessageQueuesEveryByte(t *testing.T) {
	m := newMQTT(nil, "thrust/cmd", "thrust/console")

	m.onMessage(nil, fakeMessage{topic: "thrust/cmd", payload: []byte("250\n")})

	var got []byte
	for m.HasByte() {
		b, err := m.ReadByte()
		require.NoError(t, err)
		got = append(got, b)
	}
	assert.Equal(t, "250\n", string(got))
}

func TestMQTT_OnMessageDropsWhenFull(t *testing.T) {
	m := newMQTT(nil, "thrust/cmd", "thrust/console")

	m.onMessage(nil, fakeMessage{payload: []byte(strings.Repeat("m", DefaultQueueSize+10))})

	n := 0
	for m.HasByte() {
		_, _ = m.ReadByte()
		n++
	}
	assert.Equal(t, DefaultQueueSize, n)
}

func TestMQTT_WriteLineNotConnected(t *testing.T) {
	m := newMQTT(nil, "thrust/cmd", "thrust/console")
	assert.Error(t, m.WriteLine("hello"))
	assert.NoError(t, m.Close())
	assert.Equal(t, "mqtt", m.Name())
}
