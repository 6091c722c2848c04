package serial

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// PortInfo describes a serial device found on the system
type PortInfo struct {
	Name        string
	Path        string
	Description string

	// USB metadata, empty for on-board UARTs
	VendorID        string
	ProductID       string
	SerialNumber    string
	Manufacturer    string
	Product         string
	InterfaceNumber string
}

// IsUSB reports whether USB metadata was found for the port
func (p PortInfo) IsUSB() bool {
	return p.VendorID != "" || p.ProductID != ""
}

// portKinds maps device name prefixes to descriptions. Longer prefixes come first
// so that ttySAC is not taken for ttyS.
var portKinds = []struct {
	prefix      string
	description string
}{
	{"ttyUSB", "USB Serial Port"},
	{"ttyACM", "USB CDC/ACM Device"},
	{"ttyAMA", "ARM Serial Port"},
	{"ttymxc", "i.MX Serial Port"},
	{"ttySAC", "Samsung Serial Port"},
	{"ttyTHS", "Tegra Serial Port"},
	{"ttyO", "OMAP Serial Port"},
	{"ttyS", "Standard Serial Port"},
}

var serialName = regexp.MustCompile(`^(ttyUSB|ttyACM|ttyAMA|ttymxc|ttySAC|ttyTHS|ttyO|ttyS)\d+$`)

var (
	devDir    = "/dev"
	sysfsRoot = "/sys"
)

// ListPorts returns the paths of the serial devices present on the system, sorted
func ListPorts() ([]string, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		if !isSerialName(entry.Name()) {
			continue
		}
		path := filepath.Join(devDir, entry.Name())
		if isCharacterDevice(path) {
			ports = append(ports, path)
		}
	}

	sort.Strings(ports)
	return ports, nil
}

// ListPortInfo returns PortInfo for every port ListPorts finds
func ListPortInfo() ([]PortInfo, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}

	infos := make([]PortInfo, 0, len(ports))
	for _, path := range ports {
		info, err := GetPortInfo(path)
		if err != nil {
			continue
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

// GetPortInfo returns detailed information about a specific port
func GetPortInfo(path string) (*PortInfo, error) {
	if !isCharacterDevice(path) {
		return nil, ErrDeviceNotFound
	}

	name := filepath.Base(path)
	info := &PortInfo{
		Name:        name,
		Path:        path,
		Description: describePort(name),
	}

	if strings.HasPrefix(name, "ttyUSB") || strings.HasPrefix(name, "ttyACM") {
		_ = enrichUSBInfo(info, sysfsRoot)
	}

	return info, nil
}

func isSerialName(name string) bool {
	return serialName.MatchString(name)
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// describePort provides human-readable descriptions for different port types
func describePort(name string) string {
	for _, kind := range portKinds {
		if strings.HasPrefix(name, kind.prefix) {
			return kind.description
		}
	}
	return "Serial Port"
}

var errNoUSBInfo = errors.New("USB device information not available")

// enrichUSBInfo fills USB metadata from sysfs. The tty's device link points at
// the USB interface directory; the USB device directory is its parent.
func enrichUSBInfo(info *PortInfo, root string) error {
	link := filepath.Join(root, "class", "tty", info.Name, "device")
	iface, err := filepath.EvalSymlinks(link)
	if err != nil {
		return errNoUSBInfo
	}

	// ttyUSB devices sit one level below the interface, ttyACM devices on it
	if readSysfsFile(filepath.Join(iface, "bInterfaceNumber")) == "" {
		iface = filepath.Dir(iface)
	}
	usbDevice := filepath.Dir(iface)

	info.InterfaceNumber = readSysfsFile(filepath.Join(iface, "bInterfaceNumber"))
	info.VendorID = readSysfsFile(filepath.Join(usbDevice, "idVendor"))
	info.ProductID = readSysfsFile(filepath.Join(usbDevice, "idProduct"))
	info.SerialNumber = readSysfsFile(filepath.Join(usbDevice, "serial"))
	info.Manufacturer = readSysfsFile(filepath.Join(usbDevice, "manufacturer"))
	info.Product = readSysfsFile(filepath.Join(usbDevice, "product"))

	if !info.IsUSB() {
		return errNoUSBInfo
	}
	return nil
}

// readSysfsFile returns the trimmed content of a sysfs attribute, or "" if unreadable
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
