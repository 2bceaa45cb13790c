package loadcell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    int32
		wantErr bool
	}{
		{name: "positive", line: "123456", want: 123456},
		{name: "negative", line: "-98765", want: -98765},
		{name: "zero", line: "0", want: 0},
		{name: "max 24-bit", line: "8388607", want: 8388607},
		{name: "min 24-bit", line: "-8388608", want: -8388608},
		{name: "invalid - above 24-bit", line: "8388608", wantErr: true},
		{name: "invalid - below 24-bit", line: "-8388609", wantErr: true},
		{name: "invalid - non-numeric", line: "abc", wantErr: true},
		{name: "invalid - float", line: "12.5", wantErr: true},
		{name: "invalid - csv", line: "1,2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewSerial(t *testing.T) {
	dev := NewSerial("/dev/ttyACM0", 57600, 10)
	assert.NotNil(t, dev)
	assert.Equal(t, "/dev/ttyACM0", dev.port)
	assert.Equal(t, 57600, dev.baudRate)
	assert.Equal(t, 10, dev.bufSize)
	assert.False(t, dev.IsConnected())
}

func TestNewSerial_Defaults(t *testing.T) {
	dev := NewSerial("/dev/ttyACM0", 0, 0)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_PollNotConnected(t *testing.T) {
	dev := NewSerial("/dev/ttyACM0", 0, 0)
	_, ok, err := dev.Poll()
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestSerial_ReadConversions(t *testing.T) {
	dev := NewSerial("/dev/ttyACM0", 0, 10)

	// Garbage and blank lines are skipped.
	dev.readConversions(strings.NewReader("100\n\ngarbage\n-200\r\n300\n"))

	var got []int32
	for {
		v, ok, _ := dev.Poll()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int32{100, -200, 300}, got)
}

func TestSerial_ReadConversionsDropsWhenFull(t *testing.T) {
	dev := NewSerial("/dev/ttyACM0", 0, 2)

	dev.readConversions(strings.NewReader("1\n2\n3\n4\n"))

	assert.Len(t, dev.raw, 2)
}

func TestSerial_CloseNotConnected(t *testing.T) {
	dev := NewSerial("/dev/ttyACM0", 0, 0)
	assert.NoError(t, dev.Close())
}
