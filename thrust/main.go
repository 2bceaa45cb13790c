package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/gothrust/pkg/calibration"
	"github.com/itohio/gothrust/pkg/config"
	"github.com/itohio/gothrust/pkg/loadcell"
	"github.com/itohio/gothrust/pkg/session"
	"github.com/itohio/gothrust/pkg/storage"
)

func main() {
	var (
		configFlag    = flag.String("config", "config.yaml", "Configuration file path")
		portFlag      = flag.String("p", "", "Sensor serial port override (e.g., COM3 or /dev/ttyACM0)")
		dirFlag       = flag.String("dir", "", "Log directory override")
		mockFlag      = flag.Bool("mock", false, "Use a simulated load cell instead of hardware")
		listPortsFlag = flag.Bool("list-ports", false, "List serial ports and exit")
		writeConfig   = flag.String("write-config", "", "Write the effective configuration to this file and exit")
	)
	flag.Parse()

	if *listPortsFlag {
		if err := listPorts(); err != nil {
			log.Fatalf("Failed to list ports: %v", err)
		}
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Sensor.Port = *portFlag
	}
	if *dirFlag != "" {
		cfg.Storage.Dir = *dirFlag
	}
	if *mockFlag {
		cfg.Sensor.Driver = config.DriverMock
	}

	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store := newStore(cfg.Calibration)

	drv, err := newDriver(cfg)
	if err != nil {
		return err
	}
	cell := loadcell.NewCell(drv, cfg.Sensor.FilterSamples, cfg.Sensor.TareSamples, store.Load())

	log.Printf("Waiting for %s load cell...", cfg.Sensor.Driver)
	if err := cell.Start(ctx, cfg.Sensor.BootTimeout); err != nil {
		cell.Close()
		return fmt.Errorf("load cell boot failed: %w", err)
	}
	defer cell.Close()
	log.Printf("Load cell ready, tare offset %.1f, calibration factor %.2f", cell.TareOffset(), cell.CalibrationFactor())

	mux, err := newConsole(cfg.Console)
	if err != nil {
		return err
	}
	defer func() {
		if err := mux.Close(); err != nil {
			log.Printf("Failed to close console: %v", err)
		}
	}()

	if cfg.Storage.CreateDir {
		if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
			log.Printf("Failed to create log directory %s: %v", cfg.Storage.Dir, err)
		}
	}
	logs := storage.NewOS(storage.Options{
		Dir:         cfg.Storage.Dir,
		Prefix:      cfg.Storage.Prefix,
		FlushEvery:  cfg.Storage.FlushEvery,
		ShortHeader: cfg.Storage.ShortHeader,
	})

	ctrl := session.New(cell, mux, logs, store, session.Options{
		SampleInterval: cfg.Session.SampleInterval,
		BurnThreshold:  cfg.Session.BurnThreshold,
		IdleSleep:      cfg.Session.IdleSleep,
		ShortHeader:    cfg.Storage.ShortHeader,
		ToggleChannel:  toggleChannel(mux, cfg.Console.ToggleChannel),
	})
	return ctrl.Run(ctx)
}

func newStore(cfg config.CalibrationConfig) calibration.Store {
	if cfg.File == "" {
		return &calibration.Memory{Def: cfg.DefaultFactor}
	}
	return calibration.NewFileStore(cfg.File, cfg.DefaultFactor)
}

func listPorts() error {
	ports, err := loadcell.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Println(p.Name)
	}
	return nil
}
