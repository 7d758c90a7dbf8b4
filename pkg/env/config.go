// Package env builds the decoding pipeline from configuration.
package env

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/chimu.go/pkg/chimu"
	"github.com/robotalks/chimu.go/pkg/publish"
	"github.com/robotalks/chimu.go/pkg/serial"
)

// NodeType is the node type used in published topics.
const NodeType = "chimu"

// Config provides options to run a CHIMU decoder.
type Config struct {
	Info publish.NodeInfo `yaml:"node"`

	// Device is the serial port path. Empty reads from stdin.
	Device string             `yaml:"device"`
	Port   serial.PortOptions `yaml:"port"`
	// OwnDevice is the device ID frames must be addressed to (or broadcast).
	OwnDevice uint `yaml:"own_device"`
	// Checksum names the frame checksum algorithm.
	Checksum      string `yaml:"checksum"`
	QuatEstimator bool   `yaml:"quat_estimator"`
	// Timeout drops partial frames after the line stays idle.
	Timeout time.Duration `yaml:"timeout"`

	// Codec names the encoding of published updates.
	Codec string `yaml:"codec"`
	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `yaml:"mqtt"`
	// WebsocketAddr is the listen address of the websocket server.
	WebsocketAddr string `yaml:"websocket"`
	// RecordFile receives encoded updates.
	RecordFile string `yaml:"record"`
	// CaptureFile receives raw bytes read from the device.
	CaptureFile    string        `yaml:"capture"`
	HealthInterval time.Duration `yaml:"health_interval"`
}

var defaultConfig = Config{
	Info: publish.NodeInfo{
		Ref: publish.NodeRef{Type: NodeType},
		Meta: publish.NodeMeta{
			Description: "CHIMU inertial measurement unit",
		},
	},
	Port:           serial.PortOptions{BaudRate: serial.DefaultBaudRate},
	OwnDevice:      uint(chimu.DefaultDevice),
	Checksum:       "crc32",
	MQTTBrokerURL:  "mqtt://localhost:1883/",
	HealthInterval: 10 * time.Second,
}

func init() {
	loadEnv(&defaultConfig, os.Getenv)
	if defaultConfig.Info.Ref.ID == "" {
		defaultConfig.Info.Ref.ID = MachineID()
	}
}

func loadEnv(c *Config, getenv func(string) string) {
	if val := getenv("CHIMU_ID"); val != "" {
		c.Info.Ref.ID = val
	}
	if val := getenv("CHIMU_DEVICE"); val != "" {
		c.Device = val
	}
	if val := getenv("CHIMU_BAUD"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Port.BaudRate = n
		}
	}
	if val := getenv("CHIMU_CHECKSUM"); val != "" {
		c.Checksum = val
	}
	if val := getenv("CHIMU_MQTT_URL"); val != "" {
		c.MQTTBrokerURL = val
	}
	if val := getenv("CHIMU_WEBSOCKET"); val != "" {
		c.WebsocketAddr = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	SetupFlagSet(flag.CommandLine, &defaultConfig)
}

// SetupFlagSet binds flags in fs to c.
func SetupFlagSet(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.Info.Ref.ID, "id", c.Info.Ref.ID, "Node ID")
	fs.StringVar(&c.Device, "device", c.Device, "Serial port, stdin if empty")
	fs.IntVar(&c.Port.BaudRate, "baud", c.Port.BaudRate, "Serial baud rate")
	fs.UintVar(&c.OwnDevice, "own-device", c.OwnDevice, "Device ID to accept besides broadcast")
	fs.StringVar(&c.Checksum, "checksum", c.Checksum, "Frame checksum: "+fmt.Sprint(chimu.ChecksumNames()))
	fs.BoolVar(&c.QuatEstimator, "quat-estimator", c.QuatEstimator, "Recompute Euler angles from quaternion")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Drop partial frames after idle duration, 0 disables")
	fs.StringVar(&c.Codec, "codec", c.Codec, "Publishing codec: proto or json")
	fs.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL, empty disables")
	fs.StringVar(&c.WebsocketAddr, "websocket", c.WebsocketAddr, "Websocket listen address, empty disables")
	fs.StringVar(&c.RecordFile, "record", c.RecordFile, "File to record encoded updates")
	fs.StringVar(&c.CaptureFile, "capture", c.CaptureFile, "File to capture raw bytes")
	fs.DurationVar(&c.HealthInterval, "health-interval", c.HealthInterval, "Interval of health reports, 0 disables")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadFile overrides the config with values from a YAML file.
func (c *Config) LoadFile(fn string) error {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s error: %v", fn, err)
	}
	return nil
}

// MustLoadFile loads the config file and fails on error.
func (c *Config) MustLoadFile(fn string) *Config {
	if err := c.LoadFile(fn); err != nil {
		log.Fatalln(err)
	}
	return c
}

// Validate checks the config.
func (c *Config) Validate() error {
	if !c.Info.Ref.IsValid() {
		return fmt.Errorf("node type and id must be specified")
	}
	if c.OwnDevice > 0xff {
		return fmt.Errorf("invalid own device %d", c.OwnDevice)
	}
	if _, err := chimu.ChecksumByName(c.Checksum); err != nil {
		return err
	}
	if _, err := publish.CodecByName(c.Codec); err != nil {
		return err
	}
	if _, err := c.Port.Normalize(); err != nil {
		return err
	}
	return nil
}

// NewParser creates a Parser from the config.
func (c *Config) NewParser() (*chimu.Parser, error) {
	if c.OwnDevice > 0xff {
		return nil, fmt.Errorf("invalid own device %d", c.OwnDevice)
	}
	checksum, err := chimu.ChecksumByName(c.Checksum)
	if err != nil {
		return nil, err
	}
	return chimu.NewParser(byte(c.OwnDevice),
		chimu.WithChecksum(checksum),
		chimu.WithQuatEstimator(c.QuatEstimator)), nil
}
