package main

import (
	"fmt"
	"log"

	"github.com/itohio/gothrust/pkg/config"
	"github.com/itohio/gothrust/pkg/console"
	"github.com/itohio/gothrust/pkg/loadcell"
)

// newDriver builds the raw load cell driver selected by the configuration.
func newDriver(cfg *config.Config) (loadcell.Driver, error) {
	switch cfg.Sensor.Driver {
	case config.DriverSerial:
		return loadcell.NewSerial(cfg.Sensor.Port, cfg.Sensor.BaudRate, 0), nil
	case config.DriverADS1115:
		return loadcell.NewADS1115(cfg.Sensor.I2CBus, cfg.Sensor.I2CAddress, cfg.Sensor.DataRate), nil
	case config.DriverMock:
		mock := cfg.Mock
		return loadcell.NewMock(&mock), nil
	default:
		return nil, fmt.Errorf("unknown sensor driver %q", cfg.Sensor.Driver)
	}
}

// newConsole opens every configured console transport. A transport that
// fails to open is logged and skipped; having none at all is an error.
func newConsole(cfg config.ConsoleConfig) (*console.Mux, error) {
	mux := console.NewMux()

	if cfg.Stdio {
		mux.Add(console.NewStdio(), true)
	}

	for _, sc := range cfg.Serial {
		ch, err := console.OpenSerial(sc.Name, sc.Port, sc.BaudRate)
		if err != nil {
			log.Printf("Console %s on %s unavailable: %v", sc.Name, sc.Port, err)
			continue
		}
		mux.Add(ch, sc.Enabled)
	}

	if cfg.MQTT.Enabled {
		ch, err := console.DialMQTT(cfg.MQTT)
		if err != nil {
			log.Printf("MQTT console unavailable: %v", err)
		} else {
			mux.Add(ch, true)
		}
	}

	if mux.Len() == 0 {
		return nil, fmt.Errorf("no console channel available")
	}
	return mux, nil
}

// toggleChannel resolves the channel flipped by the 'b' command: the named
// one, or the last registered when no name is configured.
func toggleChannel(mux *console.Mux, name string) int {
	if name == "" {
		return mux.Len() - 1
	}
	id, ok := mux.Lookup(name)
	if !ok {
		log.Printf("Toggle channel %q not found", name)
		return -1
	}
	return id
}
