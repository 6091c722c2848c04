/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	serial "github.com/allbin/go-serial-hal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [port]",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about a serial port including USB metadata.

Examples:
  serialhal info /dev/ttyUSB0
  serialhal info --device /dev/ttyACM0

For USB devices, this displays vendor/product IDs, serial numbers, interface
numbers, and other USB-specific metadata extracted from sysfs. The line
settings that would be used to configure the port are shown as well.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			viper.Set("device", args[0])
		}
		cfg, err := loadPortConfig(viper.GetViper())
		if err != nil {
			return err
		}

		info, err := serial.GetPortInfo(cfg.Device)
		if err != nil {
			return fmt.Errorf("getting port info for %s: %w", cfg.Device, err)
		}

		fmt.Printf("Port Information: %s\n\n", info.Path)
		fmt.Printf("  Name:        %s\n", info.Name)
		fmt.Printf("  Description: %s\n", info.Description)
		fmt.Printf("  Settings:    %s\n", cfg.Settings)

		if info.IsUSB() {
			fmt.Println("\nUSB Device Information:")
			printField("Vendor ID", info.VendorID)
			printField("Product ID", info.ProductID)
			printField("Serial", info.SerialNumber)
			printField("Interface", info.InterfaceNumber)
			printField("Manufacturer", info.Manufacturer)
			printField("Product", info.Product)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printField(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("  %-13s %s\n", label+":", value)
}
