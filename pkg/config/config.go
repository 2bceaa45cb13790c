package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Sensor driver names.
const (
	DriverSerial  = "serial"
	DriverADS1115 = "ads1115"
	DriverMock    = "mock"
)

// DefaultCalibrationFactor is used when no valid factor has been persisted.
const DefaultCalibrationFactor = 217.84

// Config represents the application configuration.
type Config struct {
	Sensor      SensorConfig      `yaml:"sensor"`
	Console     ConsoleConfig     `yaml:"console"`
	Storage     StorageConfig     `yaml:"storage"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Session     SessionConfig     `yaml:"session"`
	Mock        MockConfig        `yaml:"mock"`
}

// SensorConfig selects and configures the load cell driver.
type SensorConfig struct {
	Driver        string        `yaml:"driver"`         // serial | ads1115 | mock
	Port          string        `yaml:"port"`           // HX711 bridge serial port
	BaudRate      int           `yaml:"baud_rate"`      // HX711 bridge baud rate
	I2CBus        string        `yaml:"i2c_bus"`        // ADS1115 bus name
	I2CAddress    int           `yaml:"i2c_address"`    // ADS1115 address
	DataRate      int           `yaml:"data_rate"`      // ADS1115 samples per second
	FilterSamples int           `yaml:"filter_samples"` // Moving average window
	TareSamples   int           `yaml:"tare_samples"`   // Conversions averaged into the tare offset
	BootTimeout   time.Duration `yaml:"boot_timeout"`   // Signal and tare timeout at boot
}

// ConsoleConfig lists the operator console transports.
type ConsoleConfig struct {
	Stdio         bool           `yaml:"stdio"`
	Serial        []SerialConfig `yaml:"serial"`
	MQTT          MQTTConfig     `yaml:"mqtt"`
	ToggleChannel string         `yaml:"toggle_channel"` // Channel flipped by the 'b' command; empty means the last one
}

// SerialConfig describes one serial console (wired UART or Bluetooth SPP).
type SerialConfig struct {
	Name     string `yaml:"name"`
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	Enabled  bool   `yaml:"enabled"`
}

// MQTTConfig describes the MQTT text console.
type MQTTConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Server       string `yaml:"server"`
	ClientID     string `yaml:"client_id"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	CommandTopic string `yaml:"command_topic"`
	EchoTopic    string `yaml:"echo_topic"`
}

// StorageConfig contains log storage parameters.
type StorageConfig struct {
	Dir         string `yaml:"dir"`
	Prefix      string `yaml:"prefix"`
	FlushEvery  int    `yaml:"flush_every"`
	ShortHeader bool   `yaml:"short_header"` // t,w,f instead of Time(s),Weight(g),Force(N)
	CreateDir   bool   `yaml:"create_dir"`   // Create Dir at startup instead of treating it as a missing medium
}

// CalibrationConfig contains where the calibration factor is persisted.
type CalibrationConfig struct {
	File          string  `yaml:"file"`
	DefaultFactor float64 `yaml:"default_factor"`
}

// SessionConfig contains measurement loop parameters.
type SessionConfig struct {
	SampleInterval time.Duration `yaml:"sample_interval"`
	BurnThreshold  float64       `yaml:"burn_threshold"` // Force (N) above which the motor is considered burning
	IdleSleep      time.Duration `yaml:"idle_sleep"`     // Pause between loop iterations
}

// MockConfig contains mock load cell configuration.
type MockConfig struct {
	Offset      float64       `yaml:"offset"`       // Raw counts with no load
	Factor      float64       `yaml:"factor"`       // Simulated counts per gram
	NoiseLevel  float64       `yaml:"noise_level"`  // Noise amplitude (counts)
	PeakThrust  float64       `yaml:"peak_thrust"`  // Simulated peak thrust (g)
	BurnTime    time.Duration `yaml:"burn_time"`    // Simulated burn duration
	BurnPeriod  time.Duration `yaml:"burn_period"`  // Time between simulated burns
	SampleRate  time.Duration `yaml:"sample_rate"`  // Conversion period
	StartupTime time.Duration `yaml:"startup_time"` // Delay before the first conversion
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Sensor: SensorConfig{
			Driver:        DriverSerial,
			Port:          "/dev/ttyACM0",
			BaudRate:      115200,
			I2CBus:        "1",
			I2CAddress:    0x48,
			DataRate:      128,
			FilterSamples: 16,
			TareSamples:   16,
			BootTimeout:   3 * time.Second,
		},
		Console: ConsoleConfig{
			Stdio: true,
			MQTT: MQTTConfig{
				Server:       "tcp://localhost:1883",
				ClientID:     "thrust-stand",
				CommandTopic: "thrust/cmd",
				EchoTopic:    "thrust/console",
			},
		},
		Storage: StorageConfig{
			Dir:        "logs",
			Prefix:     "T",
			FlushEvery: 20,
			CreateDir:  true,
		},
		Calibration: CalibrationConfig{
			File:          "calibration.yaml",
			DefaultFactor: DefaultCalibrationFactor,
		},
		Session: SessionConfig{
			SampleInterval: 20 * time.Millisecond,
			BurnThreshold:  0.5,
			IdleSleep:      time.Millisecond,
		},
		Mock: MockConfig{
			Offset:      8388,
			Factor:      DefaultCalibrationFactor,
			NoiseLevel:  40,
			PeakThrust:  1200,
			BurnTime:    1600 * time.Millisecond,
			BurnPeriod:  20 * time.Second,
			SampleRate:  12500 * time.Microsecond, // 80 SPS like an HX711
			StartupTime: 50 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Sensor.Driver == "" {
		c.Sensor.Driver = def.Sensor.Driver
	}
	if c.Sensor.BaudRate == 0 {
		c.Sensor.BaudRate = def.Sensor.BaudRate
	}
	if c.Sensor.I2CBus == "" {
		c.Sensor.I2CBus = def.Sensor.I2CBus
	}
	if c.Sensor.I2CAddress == 0 {
		c.Sensor.I2CAddress = def.Sensor.I2CAddress
	}
	if c.Sensor.DataRate == 0 {
		c.Sensor.DataRate = def.Sensor.DataRate
	}
	if c.Sensor.FilterSamples <= 0 {
		c.Sensor.FilterSamples = def.Sensor.FilterSamples
	}
	if c.Sensor.TareSamples <= 0 {
		c.Sensor.TareSamples = def.Sensor.TareSamples
	}
	if c.Sensor.BootTimeout == 0 {
		c.Sensor.BootTimeout = def.Sensor.BootTimeout
	}

	for i := range c.Console.Serial {
		if c.Console.Serial[i].BaudRate == 0 {
			c.Console.Serial[i].BaudRate = def.Sensor.BaudRate
		}
		if c.Console.Serial[i].Name == "" {
			c.Console.Serial[i].Name = c.Console.Serial[i].Port
		}
	}
	if c.Console.MQTT.Server == "" {
		c.Console.MQTT.Server = def.Console.MQTT.Server
	}
	if c.Console.MQTT.ClientID == "" {
		c.Console.MQTT.ClientID = def.Console.MQTT.ClientID
	}
	if c.Console.MQTT.CommandTopic == "" {
		c.Console.MQTT.CommandTopic = def.Console.MQTT.CommandTopic
	}
	if c.Console.MQTT.EchoTopic == "" {
		c.Console.MQTT.EchoTopic = def.Console.MQTT.EchoTopic
	}

	if c.Storage.Dir == "" {
		c.Storage.Dir = def.Storage.Dir
	}
	if c.Storage.Prefix == "" {
		c.Storage.Prefix = def.Storage.Prefix
	}
	if c.Storage.FlushEvery <= 0 {
		c.Storage.FlushEvery = def.Storage.FlushEvery
	}

	if c.Calibration.File == "" {
		c.Calibration.File = def.Calibration.File
	}
	if c.Calibration.DefaultFactor <= 0 {
		c.Calibration.DefaultFactor = def.Calibration.DefaultFactor
	}

	if c.Session.SampleInterval == 0 {
		c.Session.SampleInterval = def.Session.SampleInterval
	}
	if c.Session.BurnThreshold == 0 {
		c.Session.BurnThreshold = def.Session.BurnThreshold
	}
	if c.Session.IdleSleep == 0 {
		c.Session.IdleSleep = def.Session.IdleSleep
	}

	if c.Mock.Factor == 0 {
		c.Mock.Factor = def.Mock.Factor
	}
	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.BurnTime == 0 {
		c.Mock.BurnTime = def.Mock.BurnTime
	}
	if c.Mock.BurnPeriod == 0 {
		c.Mock.BurnPeriod = def.Mock.BurnPeriod
	}
}
