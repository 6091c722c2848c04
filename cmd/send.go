/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	serial "github.com/allbin/go-serial-hal"
	"github.com/allbin/go-serial-hal/hal"
	"github.com/allbin/go-serial-hal/internal/tui/components"
	"github.com/allbin/go-serial-hal/internal/tui/styles"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data]",
	Short: "Send data to the configured serial port",
	Long: `Send data to the configured serial port.

Data can be provided as:
- Command line argument: send "Hello World"
- From stdin (pipe): echo "test data" | serialhal send
- Interactive mode: serialhal send (prompts for input)

The command returns once every byte has been written and the driver reports
its output flushed, or fails when --timeout expires first.

Example usage:
  serialhal send "Hello World" -d /dev/ttyUSB0
  serialhal send "AT+GMR" -d /dev/ttyUSB0 --newline
  serialhal send 48656c6c6f --hex -d /dev/ttyUSB0
  echo "test" | serialhal send -d /dev/ttyUSB0`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")

		var (
			input string
			err   error
		)
		if len(args) == 1 {
			input = args[0]
		} else {
			input, err = readInput()
			if err != nil {
				return err
			}
		}

		data, err := buildPayload(input, hexMode, addNewline)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return fmt.Errorf("nothing to send")
		}

		cfg, err := configurePort()
		if err != nil {
			return err
		}
		fmt.Printf("%s Opened %s (%s)\n", styles.InfoStyle.Render("⚡"), cfg.Device, cfg.Settings)

		ctx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration("timeout"))
		defer cancel()

		return sendData(ctx, serial.Serial{}, data)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
}

// readInput takes data from a pipe, or prompts for it on a terminal
func readInput() (string, error) {
	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		fmt.Print(styles.InfoStyle.Render("Enter data to send: "))
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			return scanner.Text(), nil
		}
		return "", scanner.Err()
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// buildPayload applies --hex and --newline. A newline is never added to hex data.
func buildPayload(input string, hexMode, addNewline bool) ([]byte, error) {
	if hexMode {
		data, err := components.ParseHex(input)
		if err != nil {
			return nil, fmt.Errorf("invalid hex data: %w", err)
		}
		return data, nil
	}
	if addNewline {
		input += "\n"
	}
	return []byte(input), nil
}

func sendData(ctx context.Context, port hal.ByteWriter, data []byte) error {
	fmt.Printf("%s Sending %d bytes...\n", styles.InfoStyle.Render("📤"), len(data))

	n, err := hal.Write(ctx, port, data)
	if err != nil {
		return fmt.Errorf("%s sent %d of %d bytes: %w", styles.ErrorStyle.Render("✗"), n, len(data), err)
	}
	if err := hal.Flush(ctx, port); err != nil {
		return fmt.Errorf("%s flushing output: %w", styles.ErrorStyle.Render("✗"), err)
	}

	fmt.Printf("%s Successfully sent %d bytes\n", styles.SuccessStyle.Render("✓"), n)

	preview := data
	if len(preview) > 50 {
		preview = preview[:50]
	}
	suffix := ""
	if len(data) > 50 {
		suffix = "..."
	}
	fmt.Printf("%s Data: %s%s\n", styles.InfoStyle.Render("📋"), components.Printable(preview), suffix)
	return nil
}
