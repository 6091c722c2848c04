/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"

	serial "github.com/allbin/go-serial-hal"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

var errNoDevice = errors.New("no serial device given: use --device, SERIALHAL_DEVICE or \"device\" in the config file")

// portConfig is the device section of the configuration.
type portConfig struct {
	Device          string `mapstructure:"device"`
	serial.Settings `mapstructure:",squash"`
}

// loadPortConfig decodes the device and line settings from v.
func loadPortConfig(v *viper.Viper) (portConfig, error) {
	var cfg portConfig
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return portConfig{}, fmt.Errorf("decoding configuration: %w", err)
	}

	if cfg.Device == "" {
		return portConfig{}, errNoDevice
	}
	if err := cfg.Settings.Validate(); err != nil {
		return portConfig{}, err
	}
	return cfg, nil
}

// configurePort loads the configuration and commits it to the process-wide port.
// A device that cannot be opened ends the process.
func configurePort() (portConfig, error) {
	cfg, err := loadPortConfig(viper.GetViper())
	if err != nil {
		return portConfig{}, err
	}
	serial.ConfigureSerial(cfg.Device, cfg.Settings)
	return cfg, nil
}
