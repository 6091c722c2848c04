/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	serial "github.com/allbin/go-serial-hal"
	"github.com/allbin/go-serial-hal/internal/tui/components"
	"github.com/allbin/go-serial-hal/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var lineEndings = map[string]string{
	"none": "",
	"lf":   "\n",
	"cr":   "\r",
	"crlf": "\r\n",
}

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Interactive terminal on the configured serial port",
	Long: `Open the configured serial port in a terminal user interface.

Incoming bytes are shown as they arrive in hex and ASCII. Press 'i' to enter
insert mode and type a message; Enter sends it, Tab switches between ASCII and
hex input. Esc returns to normal mode, where:
- c clears the buffer
- h, a and t toggle hex, ASCII and timestamps
- ? shows all key bindings
- q quits

Log output would corrupt the screen, so it is discarded unless --log-file is set.

Example usage:
  serialhal listen -d /dev/ttyUSB0
  serialhal listen -d /dev/ttyUSB0 --baud 9600 --line-ending crlf
  serialhal listen -d /dev/ttyACM0 --log-file serial.log --log-level debug`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		noTimestamps, _ := cmd.Flags().GetBool("no-timestamps")
		lineEnding, _ := cmd.Flags().GetString("line-ending")
		logFile, _ := cmd.Flags().GetString("log-file")

		ending, ok := lineEndings[lineEnding]
		if !ok {
			return fmt.Errorf("unknown line ending %q: use none, lf, cr or crlf", lineEnding)
		}

		cfg, err := loadPortConfig(viper.GetViper())
		if err != nil {
			return err
		}

		// Must happen before the process-wide registry takes its logger
		var logOut io.Writer = io.Discard
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer f.Close()
			logOut = f
		}
		log.SetOutput(logOut)

		m := models.NewSerialModel(serial.Default(), models.Options{
			Device:   cfg.Device,
			Settings: cfg.Settings,
			Display: components.DisplayMode{
				ShowHex:        true,
				ShowASCII:      true,
				ShowTimestamps: !noTimestamps,
			},
			LineEnding:   ending,
			WriteTimeout: viper.GetDuration("timeout"),
		})
		defer m.Close()

		_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().Bool("no-timestamps", false, "Hide timestamps from output")
	listenCmd.Flags().String("line-ending", "lf", "Appended to ASCII messages: none, lf, cr, crlf")
	listenCmd.Flags().String("log-file", "", "Write log output to this file")
}
