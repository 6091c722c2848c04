/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"slices"
	"strings"

	serial "github.com/allbin/go-serial-hal"
	"github.com/allbin/go-serial-hal/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all available serial ports on the system.

This command scans for communication-capable serial devices including:
- USB serial adapters (ttyUSB*)
- USB CDC/ACM devices (ttyACM*)
- Standard serial ports (ttyS*)
- ARM/Raspberry Pi ports (ttyAMA*)
- And other platform-specific serial devices

Virtual terminals and pseudo-terminals are excluded from the listing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		infos, err := serial.ListPortInfo()
		if err != nil {
			return fmt.Errorf("listing ports: %w", err)
		}

		infos, err = filterPorts(infos, filterType)
		if err != nil {
			return err
		}

		if len(infos) == 0 {
			if filterType != "" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial ports found")
			}
			return nil
		}

		if tableFormat {
			fmt.Printf("Found %d serial port(s):\n\n", len(infos))
			fmt.Println(renderTable(infos))
		} else {
			for _, info := range infos {
				fmt.Println(info.Path)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("filter", "", "Filter by port type: usb, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// portFilters maps a --filter value to the port types it keeps
var portFilters = map[string][]string{
	"usb":      {"USB Serial", "USB CDC/ACM"},
	"standard": {"Standard Serial"},
	"arm":      {"ARM Serial"},
}

// filterPorts keeps the ports matching filterType. An empty filter or "all"
// keeps everything.
func filterPorts(infos []serial.PortInfo, filterType string) ([]serial.PortInfo, error) {
	filterType = strings.ToLower(filterType)
	if filterType == "" || filterType == "all" {
		return infos, nil
	}
	types, ok := portFilters[filterType]
	if !ok {
		return nil, fmt.Errorf("unknown filter %q: use usb, standard, arm or all", filterType)
	}

	var filtered []serial.PortInfo
	for _, info := range infos {
		if slices.Contains(types, getPortType(info.Name)) {
			filtered = append(filtered, info)
		}
	}
	return filtered, nil
}

const (
	columnKeyPort    = "port"
	columnKeyType    = "type"
	columnKeyDesc    = "desc"
	columnKeyUSBID   = "usbid"
	columnKeyProduct = "product"
)

// renderTable renders the port list as a static bordered table
func renderTable(infos []serial.PortInfo) string {
	columns := []table.Column{
		table.NewColumn(columnKeyPort, "Port", 12),
		table.NewColumn(columnKeyType, "Type", 16),
		table.NewColumn(columnKeyDesc, "Description", 22),
		table.NewColumn(columnKeyUSBID, "VID:PID", 10),
		table.NewColumn(columnKeyProduct, "Product", 24),
	}

	rows := make([]table.Row, 0, len(infos))
	for _, info := range infos {
		usbID := ""
		if info.IsUSB() {
			usbID = info.VendorID + ":" + info.ProductID
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyPort:    info.Name,
			columnKeyType:    getPortType(info.Name),
			columnKeyDesc:    info.Description,
			columnKeyUSBID:   usbID,
			columnKeyProduct: info.Product,
		}))
	}

	return table.New(columns).
		WithRows(rows).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(colors.Mauve)).
		WithBaseStyle(lipgloss.NewStyle().Foreground(colors.Text).BorderForeground(colors.Surface2).Align(lipgloss.Left)).
		View()
}

// getPortType returns a more specific type classification for the port
func getPortType(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial"
	case strings.HasPrefix(name, "ttySAC"):
		return "Samsung Serial"
	case strings.HasPrefix(name, "ttyTHS"):
		return "Tegra Serial"
	case strings.HasPrefix(name, "ttyO"):
		return "OMAP Serial"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial"
	default:
		return "Serial Port"
	}
}
