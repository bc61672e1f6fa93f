package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Machine MachineConfig `yaml:"machine"`
	Web     WebConfig     `yaml:"web"`
}

type MachineConfig struct {
	Board        string        `yaml:"board"`
	Listen       string        `yaml:"listen"`
	TickInterval time.Duration `yaml:"tick_interval"`
	LED          LEDConfig     `yaml:"led"`
	BankFile     string        `yaml:"bank_file"`
	BankSize     int           `yaml:"bank_size"`
}

type LEDConfig struct {
	Backend string `yaml:"backend"`
	Pin     int    `yaml:"pin"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr"`
	// PasswordHash is a bcrypt hash; empty disables authentication.
	PasswordHash string `yaml:"password_hash"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Machine.Board == "" {
		cfg.Machine.Board = "spin5"
	}
	switch cfg.Machine.Board {
	case "spin3", "spin5":
	default:
		return Config{}, fmt.Errorf("machine.board must be 'spin3' or 'spin5'")
	}

	if cfg.Machine.Listen == "" {
		cfg.Machine.Listen = ":17893"
	}
	if cfg.Machine.TickInterval == 0 {
		cfg.Machine.TickInterval = 10 * time.Millisecond
	}
	if cfg.Machine.TickInterval < 0 {
		return Config{}, fmt.Errorf("machine.tick_interval must be > 0")
	}

	if cfg.Machine.LED.Backend == "" {
		cfg.Machine.LED.Backend = "stub"
	}
	switch cfg.Machine.LED.Backend {
	case "stub", "gpiod", "rpio", "periph":
	default:
		return Config{}, fmt.Errorf("machine.led.backend must be one of 'stub', 'gpiod', 'rpio', 'periph'")
	}
	if cfg.Machine.LED.Backend != "stub" {
		if cfg.Machine.LED.Pin == 0 {
			cfg.Machine.LED.Pin = 47
		}
		if cfg.Machine.LED.Pin < 0 {
			return Config{}, fmt.Errorf("machine.led.pin must be > 0")
		}
	}

	if cfg.Machine.BankSize != 0 && cfg.Machine.BankSize < 4 {
		return Config{}, fmt.Errorf("machine.bank_size must be 0 (default) or at least 4")
	}

	if cfg.Web.Enable && cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}

	return cfg, nil
}
