// Package config loads and validates the TOML configuration for the
// hyperion-echo demo binary: listen address, dial address, operating
// mode, and logging level.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Mode selects which wire encoding an Engine uses.
type Mode string

const (
	// ModeForced always uses the chunked framing engine, even for
	// payloads small enough for lightweight or direct encoding.
	ModeForced Mode = "forced"
	// ModeSmart uses the adaptive dispatcher's size-based selection.
	ModeSmart Mode = "smart"
)

// EchoConfig configures the hyperion-echo demo client/server.
type EchoConfig struct {
	ListenAddr string `toml:"listen_addr"`
	DialAddr   string `toml:"dial_addr"`
	Mode       Mode   `toml:"mode"`
	LogLevel   string `toml:"log_level"`
}

// Load reads and validates an EchoConfig from a TOML file at path,
// applying defaults for the optional fields left unset. listen_addr is
// required and has no default.
func Load(path string) (EchoConfig, error) {
	var cfg EchoConfig
	if err := loadToml(path, &cfg); err != nil {
		return EchoConfig{}, err
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return EchoConfig{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *EchoConfig) {
	if cfg.DialAddr == "" {
		cfg.DialAddr = cfg.ListenAddr
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeSmart
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func loadToml(path string, out any) error {
	if _, err := toml.DecodeFile(path, out); err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	return nil
}

// Validate checks that cfg's required fields are present and its mode
// is one Hyperion recognizes.
func Validate(cfg EchoConfig) error {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return fmt.Errorf("config missing listen_addr")
	}
	switch cfg.Mode {
	case ModeForced, ModeSmart:
	default:
		return fmt.Errorf("config mode must be %q or %q, got %q", ModeForced, ModeSmart, cfg.Mode)
	}
	return nil
}
