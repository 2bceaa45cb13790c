//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"runtime/interrupt"
	"time"
)

func main() {
	PIN_HX711_SCK.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_HX711_DOUT.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_HX711_SCK.Low()

	machine.Serial.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})

	for {
		// DOUT goes low when a conversion is ready
		if PIN_HX711_DOUT.Get() {
			time.Sleep(POLL_INTERVAL_US * time.Microsecond)
			continue
		}

		raw := readConversion()

		// Output format: "raw\n", signed 24-bit counts
		// Example: "-8123\n"
		print(raw)
		print("\n")
	}
}

// readConversion shifts out one 24-bit two's complement conversion and
// clocks the extra pulses selecting channel and gain for the next one.
// SCK must not stay high for more than 60us or the HX711 powers down, so
// interrupts are held off while clocking.
func readConversion() int32 {
	state := interrupt.Disable()
	defer interrupt.Restore(state)

	var v uint32
	for range 24 {
		PIN_HX711_SCK.High()
		v <<= 1
		if PIN_HX711_DOUT.Get() {
			v |= 1
		}
		PIN_HX711_SCK.Low()
	}
	for range GAIN_PULSES {
		PIN_HX711_SCK.High()
		PIN_HX711_SCK.Low()
	}

	if v&0x800000 != 0 {
		v |= 0xFF000000
	}
	return int32(v)
}
