/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bytes"
	"context"
	"fmt"

	serial "github.com/allbin/go-serial-hal"
	"github.com/allbin/go-serial-hal/hal"
	"github.com/allbin/go-serial-hal/internal/tui/components"
	"github.com/allbin/go-serial-hal/internal/tui/styles"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loopbackCmd represents the loopback command
var loopbackCmd = &cobra.Command{
	Use:   "loopback",
	Short: "Check a port whose TX is wired to its RX",
	Long: `Write a pattern to the configured port and expect to read it back.

Connect the TX and RX pins of the adapter (or use a loopback plug) before
running. The default pattern is the single byte 0x41 ('A').

Example usage:
  serialhal loopback -d /dev/ttyUSB0
  serialhal loopback -d /dev/ttyUSB0 --pattern 55AA00FF --count 10`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		patternHex, _ := cmd.Flags().GetString("pattern")
		count, _ := cmd.Flags().GetInt("count")

		pattern, err := components.ParseHex(patternHex)
		if err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
		if len(pattern) == 0 {
			return fmt.Errorf("pattern must not be empty")
		}

		cfg, err := configurePort()
		if err != nil {
			return err
		}
		fmt.Printf("%s Loopback on %s (%s)\n", styles.InfoStyle.Render("⚡"), cfg.Device, cfg.Settings)

		port := serial.Serial{}
		for i := range count {
			ctx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration("timeout"))
			got, err := roundTrip(ctx, port, pattern)
			cancel()
			if err != nil {
				return fmt.Errorf("%s round %d: %w", styles.ErrorStyle.Render("✗"), i+1, err)
			}
			fmt.Printf("%s round %d: % X\n", styles.SuccessStyle.Render("✓"), i+1, got)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loopbackCmd)

	loopbackCmd.Flags().String("pattern", "41", "Hex bytes to send")
	loopbackCmd.Flags().Int("count", 1, "Number of round trips")
}

// roundTrip writes pattern, flushes, and reads back as many bytes.
func roundTrip(ctx context.Context, port hal.ByteReadWriter, pattern []byte) ([]byte, error) {
	if _, err := hal.Write(ctx, port, pattern); err != nil {
		return nil, fmt.Errorf("writing: %w", err)
	}
	if err := hal.Flush(ctx, port); err != nil {
		return nil, fmt.Errorf("flushing: %w", err)
	}

	got := make([]byte, len(pattern))
	n, err := hal.ReadFull(ctx, port, got)
	if err != nil {
		return got[:n], fmt.Errorf("read %d of %d bytes back: %w", n, len(pattern), err)
	}
	if !bytes.Equal(got, pattern) {
		return got, fmt.Errorf("read back % X, expected % X", got, pattern)
	}
	return got, nil
}
