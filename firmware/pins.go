//go:build tinygo

package main

import "machine"

const (
	// HX711 wiring
	PIN_HX711_DOUT = machine.D2
	PIN_HX711_SCK  = machine.D3

	// Pulses after the 24 data bits select the next conversion:
	// 1 = channel A gain 128, 2 = channel B gain 32, 3 = channel A gain 64
	GAIN_PULSES = 1

	// Data-ready polling interval. The HX711 converts at 10 or 80 SPS.
	POLL_INTERVAL_US = 100

	// Serial configuration
	// Longest line is "-8388608\n" = 9 bytes
	// 80 lines/sec * 9 bytes/line = 720 bytes/sec, 7,200 baud minimum
	// 115200 provides 16x headroom and matches the host default
	UART_BAUD_RATE = 115200
)
