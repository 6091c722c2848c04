/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	serial "github.com/allbin/go-serial-hal"
	"github.com/allbin/go-serial-hal/hal"
	"github.com/spf13/cobra"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <output-file>",
	Short: "Capture serial data to a file",
	Long: `Capture incoming serial data to a file for later parsing.

Reads data from the configured serial port and writes it directly to the
output file. Runs continuously until interrupted (Ctrl+C).

The output file is opened in append mode, allowing you to resume captures
without overwriting existing data.

Example usage:
  serialhal capture data.log -d /dev/ttyUSB0
  serialhal capture output.txt -d /dev/ttyUSB0 --baud 9600
  serialhal capture capture.log -d /dev/ttyUSB0 --console`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bufferSize, _ := cmd.Flags().GetInt("buffer")
		showConsole, _ := cmd.Flags().GetBool("console")
		if bufferSize < 1 {
			return fmt.Errorf("buffer size must be positive, got %d", bufferSize)
		}

		file, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		defer file.Close()

		cfg, err := configurePort()
		if err != nil {
			return err
		}

		var console io.Writer
		if showConsole {
			console = os.Stdout
		}

		fmt.Fprintf(os.Stderr, "Capturing data from %s (%s) to %s\n", cfg.Device, cfg.Settings, args[0])
		fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

		start := time.Now()
		n, err := capture(cmd.Context(), serial.Serial{}, file, console, bufferSize)
		fmt.Fprintf(os.Stderr, "\nCapture complete: %d bytes written in %v\n", n, time.Since(start).Round(time.Millisecond))
		return err
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().Int("buffer", 4096, "Read buffer size")
	captureCmd.Flags().BoolP("console", "c", false, "Display incoming data on console while capturing")
}

// capture copies bytes from port to out until ctx is done. console, when set,
// receives a copy of everything written. Cancellation is a clean stop.
func capture(ctx context.Context, port hal.ByteReader, out, console io.Writer, bufferSize int) (int64, error) {
	buf := make([]byte, bufferSize)
	var written int64

	for {
		n, err := hal.ReadSome(ctx, port, buf)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return written, nil
			}
			return written, fmt.Errorf("read error: %w", err)
		}

		w, err := out.Write(buf[:n])
		written += int64(w)
		if err != nil {
			return written, fmt.Errorf("write error: %w", err)
		}
		if console != nil {
			console.Write(buf[:n])
		}
	}
}
