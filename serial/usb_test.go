package serial

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReadSysfsFile(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		expected string
		setup    func(string) error
	}{
		{
			name:     "normal file",
			expected: "1234",
			setup: func(path string) error {
				return os.WriteFile(path, []byte("1234\n"), 0644)
			},
		},
		{
			name:     "file with spaces",
			expected: "test value",
			setup: func(path string) error {
				return os.WriteFile(path, []byte("  test value  \n"), 0644)
			},
		},
		{
			name:     "nonexistent file",
			expected: "",
			setup:    func(path string) error { return nil },
		},
		{
			name:     "empty file",
			expected: "",
			setup: func(path string) error {
				return os.WriteFile(path, []byte(""), 0644)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(tmpDir, tt.name)
			if err := tt.setup(testFile); err != nil {
				t.Fatalf("Setup failed: %v", err)
			}
			if result := readSysfsFile(testFile); result != tt.expected {
				t.Errorf("readSysfsFile() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

// fakeSysfs builds class/tty/<tty>/device -> devices/.../<iface>[/<tty>]
// under a temp dir and points sysfsRoot at it.
func fakeSysfs(t *testing.T, tty string, nested bool, files map[string]string) {
	t.Helper()
	root := t.TempDir()

	devicePath := filepath.Join(root, "devices", "usb1", "1-1.4")
	interfacePath := filepath.Join(devicePath, "1-1.4:1.0")
	target := interfacePath
	if nested {
		target = filepath.Join(interfacePath, tty)
	}
	classPath := filepath.Join(root, "class", "tty", tty)

	for _, dir := range []string{target, classPath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(devicePath, name), []byte(content+"\n"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(interfacePath, "bInterfaceNumber"), []byte("00\n"), 0644); err != nil {
		t.Fatalf("write bInterfaceNumber: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(classPath, "device")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	old := sysfsRoot
	sysfsRoot = root
	t.Cleanup(func() { sysfsRoot = old })
}

var ultimakerFiles = map[string]string{
	"idVendor":     "2341",
	"idProduct":    "0042",
	"serial":       "75237333536351815111",
	"manufacturer": "Arduino (www.arduino.cc)",
	"product":      "Ultimaker Mega 2560",
	"busnum":       "1",
	"devnum":       "9",
}

func TestEnrichUSBInfo(t *testing.T) {
	for _, tc := range []struct {
		tty    string
		nested bool
	}{
		{"ttyACM0", false},
		{"ttyUSB0", true},
	} {
		t.Run(tc.tty, func(t *testing.T) {
			fakeSysfs(t, tc.tty, tc.nested, ultimakerFiles)

			info := &PortInfo{Name: tc.tty, Path: "/dev/" + tc.tty}
			enrichUSBInfo(info)

			tests := []struct {
				name     string
				got      string
				expected string
			}{
				{"VendorID", info.VendorID, "2341"},
				{"ProductID", info.ProductID, "0042"},
				{"SerialNumber", info.SerialNumber, "75237333536351815111"},
				{"InterfaceNumber", info.InterfaceNumber, "00"},
				{"BusNumber", info.BusNumber, "1"},
				{"DeviceNumber", info.DeviceNumber, "9"},
				{"Manufacturer", info.Manufacturer, "Arduino (www.arduino.cc)"},
				{"Product", info.Product, "Ultimaker Mega 2560"},
				{"Description", info.Description, "Ultimaker Mega 2560"},
			}
			for _, tt := range tests {
				if tt.got != tt.expected {
					t.Errorf("%s = %q, expected %q", tt.name, tt.got, tt.expected)
				}
			}
			if !info.IsUSB() {
				t.Error("IsUSB() = false")
			}
		})
	}
}

func TestEnrichUSBInfoGracefulFailure(t *testing.T) {
	old := sysfsRoot
	sysfsRoot = t.TempDir()
	defer func() { sysfsRoot = old }()

	info := &PortInfo{Name: "ttyUSB999", Path: "/dev/ttyUSB999"}
	enrichUSBInfo(info)

	if info.VendorID != "" || info.ProductID != "" || info.SerialNumber != "" {
		t.Errorf("expected empty USB fields, got %+v", info)
	}
}

func TestUSBPath(t *testing.T) {
	tests := []struct {
		bus      string
		device   string
		expected string
	}{
		{"5", "7", "005/007"},
		{"1", "2", "001/002"},
		{"123", "456", "123/456"},
		{"1", "10", "001/010"},
	}

	for _, tt := range tests {
		if got := usbPath(tt.bus, tt.device); got != tt.expected {
			t.Errorf("usbPath(%q, %q) = %q, expected %q", tt.bus, tt.device, got, tt.expected)
		}
	}
}

func TestResetUSBDeviceByIdentityNotFound(t *testing.T) {
	loc := NewLocatorWith(func() ([]Enumerated, error) { return nil, nil })
	err := ResetUSBDeviceByIdentity(context.Background(), loc, Identity{VendorID: "2341", ProductID: "0042"})
	if !errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("Expected ErrIdentityNotFound, got %v", err)
	}
}

func TestResetUSBDeviceNotUSB(t *testing.T) {
	err := ResetUSBDevice(context.Background(), "/dev/null")
	if !errors.Is(err, ErrUSBInfoNotAvailable) {
		t.Errorf("Expected ErrUSBInfoNotAvailable, got %v", err)
	}
}
