package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Serial struct {
	Dev           string `yaml:"dev"`             // e.g. /dev/ttyS1
	Baud          int    `yaml:"baud"`            // fixed link rate, e.g. 115200
	ReadTimeoutMs int    `yaml:"read_timeout_ms"` // per-poll serial read timeout
}

type SPI struct {
	Dev     string `yaml:"dev,omitempty"` // empty picks the first port
	SpeedHz int    `yaml:"speed_hz"`
}

type Monitor struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // e.g. :8089
}

type Config struct {
	Driver     string  `yaml:"driver"` // "spi" | "capture"
	Brightness int     `yaml:"brightness"`
	FrameMs    int     `yaml:"frame_ms"`
	StorageDir string  `yaml:"storage_dir"`
	Serial     Serial  `yaml:"serial"`
	SPI        SPI     `yaml:"spi,omitempty"`
	Monitor    Monitor `yaml:"monitor,omitempty"`
}

// Default is the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Driver:     "spi",
		Brightness: 128,
		FrameMs:    16,
		StorageDir: "images",
		Serial:     Serial{Dev: "/dev/ttyS1", Baud: 115200, ReadTimeoutMs: 50},
		SPI:        SPI{SpeedHz: 2400000},
		Monitor:    Monitor{Addr: ":8089"},
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	c.clamp()
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) clamp() {
	if c.Brightness < 0 {
		c.Brightness = 0
	}
	if c.Brightness > 255 {
		c.Brightness = 255
	}
	if c.FrameMs < 1 {
		c.FrameMs = 1
	}
	if c.FrameMs > 1000 {
		c.FrameMs = 1000
	}
	if c.Serial.ReadTimeoutMs < 1 {
		c.Serial.ReadTimeoutMs = 50
	}
}
