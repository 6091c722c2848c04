/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialhal",
	Short: "Talk to a serial port through the process-wide byte capability",
	Long: `serialhal configures one serial port for the whole process and drives it
through the same byte-level read/write capability that protocol code uses.

The port is chosen with --device (or SERIALHAL_DEVICE, or "device" in the
config file) and configured once per run. Line settings default to 115200 8N1
without flow control.

Example usage:
  serialhal list --table
  serialhal send "AT" --device /dev/ttyUSB0 --newline
  serialhal listen -d /dev/ttyACM0 -b 9600
  serialhal loopback -d /dev/ttyUSB0`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.serialhal.yaml)")
	pf.StringP("device", "d", "", "Serial device path, e.g. /dev/ttyUSB0")
	pf.IntP("baud", "b", 115200, "Baud rate")
	pf.Int("char-size", 8, "Data bits per character: 5, 6, 7 or 8")
	pf.Int("stop-bits", 1, "Stop bits: 1 or 2")
	pf.String("parity", "none", "Parity: none, odd, even")
	pf.StringP("flow-control", "f", "none", "Flow control: none, software, hardware")
	pf.Duration("timeout", 5*time.Second, "How long one send or round trip may wait on the device")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")

	if err := viper.BindPFlags(pf); err != nil {
		log.Fatal("binding flags", "err", err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".serialhal")
	}

	viper.SetEnvPrefix("SERIALHAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debug("using config file", "file", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		log.Fatal("reading config file", "file", cfgFile, "err", err)
	}
}
