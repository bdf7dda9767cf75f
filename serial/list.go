package serial

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// sysfsRoot is replaced in tests with a fake tree.
var sysfsRoot = "/sys"

var (
	devDir = "/dev"

	portPattern    = regexp.MustCompile(`^tty(USB|ACM|S|AMA|mxc|O|SAC|THS)\d+$`)
	virtualPattern = regexp.MustCompile(`^(tty\d+|console|ptmx|pty.*)$`)
)

// ListPorts returns the serial character devices under /dev, sorted.
func ListPorts() ([]string, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		name := entry.Name()
		if virtualPattern.MatchString(name) || !portPattern.MatchString(name) {
			continue
		}
		fullPath := filepath.Join(devDir, name)
		if isCharacterDevice(fullPath) {
			ports = append(ports, fullPath)
		}
	}
	sort.Strings(ports)
	return ports, nil
}

func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// PortInfo describes a serial device and, for USB adapters, the USB device
// behind it.
type PortInfo struct {
	Name        string
	Path        string
	Description string

	VendorID        string
	ProductID       string
	SerialNumber    string
	Manufacturer    string
	Product         string
	InterfaceNumber string
	BusNumber       string
	DeviceNumber    string
}

// IsUSB reports whether USB metadata was found for the port.
func (i *PortInfo) IsUSB() bool {
	return i.VendorID != "" && i.ProductID != ""
}

// Identity returns the USB identity of the port.
func (i *PortInfo) Identity() Identity {
	return Identity{VendorID: i.VendorID, ProductID: i.ProductID, SerialNumber: i.SerialNumber}
}

// GetPortInfo returns detailed information about a specific port. Symlinks
// such as /dev/serial/by-id entries are resolved first.
func GetPortInfo(portPath string) (*PortInfo, error) {
	if !isCharacterDevice(portPath) {
		return nil, ErrDeviceNotFound
	}
	resolved := portPath
	if r, err := filepath.EvalSymlinks(portPath); err == nil {
		resolved = r
	}

	name := filepath.Base(resolved)
	info := &PortInfo{
		Name:        name,
		Path:        portPath,
		Description: getPortDescription(name),
	}
	if strings.HasPrefix(name, "ttyUSB") || strings.HasPrefix(name, "ttyACM") {
		enrichUSBInfo(info)
	}
	return info, nil
}

func getPortDescription(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial Port"
	default:
		return "Serial Port"
	}
}

// enrichUSBInfo walks /sys/class/tty/<name>/device up to the interface
// directory and then the USB device directory holding the descriptors.
func enrichUSBInfo(info *PortInfo) {
	link := filepath.Join(sysfsRoot, "class", "tty", info.Name, "device")
	resolved, err := filepath.EvalSymlinks(link)
	if err != nil {
		return
	}

	// ttyUSB devices hang one level below the interface, ttyACM devices
	// are the interface itself.
	ifaceDir := resolved
	if readSysfsFile(filepath.Join(ifaceDir, "bInterfaceNumber")) == "" {
		ifaceDir = filepath.Dir(resolved)
	}
	info.InterfaceNumber = readSysfsFile(filepath.Join(ifaceDir, "bInterfaceNumber"))

	usbDir := filepath.Dir(ifaceDir)
	info.VendorID = readSysfsFile(filepath.Join(usbDir, "idVendor"))
	info.ProductID = readSysfsFile(filepath.Join(usbDir, "idProduct"))
	info.SerialNumber = readSysfsFile(filepath.Join(usbDir, "serial"))
	info.Manufacturer = readSysfsFile(filepath.Join(usbDir, "manufacturer"))
	info.Product = readSysfsFile(filepath.Join(usbDir, "product"))
	info.BusNumber = readSysfsFile(filepath.Join(usbDir, "busnum"))
	info.DeviceNumber = readSysfsFile(filepath.Join(usbDir, "devnum"))

	if info.Product != "" {
		info.Description = info.Product
	}
}

func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
