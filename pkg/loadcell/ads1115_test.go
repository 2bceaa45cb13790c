package loadcell

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigWord(t *testing.T) {
	tests := []struct {
		name     string
		dataRate int
		msb, lsb byte
		wantErr  bool
	}{
		// PGA 101 -> bits 11:9, continuous -> bit 8 clear
		{name: "128 SPS", dataRate: 128, msb: 0x0A, lsb: 0x83},
		{name: "8 SPS", dataRate: 8, msb: 0x0A, lsb: 0x03},
		{name: "860 SPS", dataRate: 860, msb: 0x0A, lsb: 0xE3},
		{name: "unsupported", dataRate: 100, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msb, lsb, err := configWord(tt.dataRate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.msb, msb, "msb %02X", msb)
			assert.Equal(t, tt.lsb, lsb, "lsb %02X", lsb)
		})
	}
}

func TestNewADS1115(t *testing.T) {
	a := NewADS1115("1", 0x48, 0)
	assert.Equal(t, uint16(0x48), a.addr)
	assert.Equal(t, 128, a.dataRate)
	assert.Equal(t, time.Second/128, a.period)
	assert.False(t, a.IsConnected())
}

func TestADS1115_PollNotConnected(t *testing.T) {
	a := NewADS1115("1", 0x48, 860)
	_, ok, err := a.Poll()
	assert.False(t, ok)
	assert.Error(t, err)
	assert.NoError(t, a.Close())
}
