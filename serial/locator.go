package serial

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Identity is the part of a USB descriptor that survives re-enumeration.
// The device path usually does not.
type Identity struct {
	VendorID     string
	ProductID    string
	SerialNumber string
}

// IsZero reports whether no identity was captured.
func (id Identity) IsZero() bool {
	return id.VendorID == "" && id.ProductID == "" && id.SerialNumber == ""
}

// Matches compares identities case-insensitively, since VID/PID hex casing
// differs between enumeration sources.
func (id Identity) Matches(other Identity) bool {
	return strings.EqualFold(id.VendorID, other.VendorID) &&
		strings.EqualFold(id.ProductID, other.ProductID) &&
		id.SerialNumber == other.SerialNumber
}

func (id Identity) String() string {
	if id.SerialNumber == "" {
		return fmt.Sprintf("%s:%s", id.VendorID, id.ProductID)
	}
	return fmt.Sprintf("%s:%s/%s", id.VendorID, id.ProductID, id.SerialNumber)
}

// Enumerated is one port seen by an enumeration pass.
type Enumerated struct {
	Path     string
	IsUSB    bool
	Identity Identity
	Product  string
}

// EnumerateFunc lists the ports currently present.
type EnumerateFunc func() ([]Enumerated, error)

// Locator captures device identities and finds devices again after they
// come back under a different path.
type Locator struct {
	enumerate EnumerateFunc
}

// NewLocator returns a Locator backed by the platform enumerator, falling
// back to sysfs when the enumerator is unavailable.
func NewLocator() *Locator {
	return &Locator{enumerate: EnumeratePorts}
}

// NewLocatorWith returns a Locator using a custom enumeration source.
func NewLocatorWith(fn EnumerateFunc) *Locator {
	return &Locator{enumerate: fn}
}

// Ports lists everything the enumeration source currently sees.
func (l *Locator) Ports() ([]Enumerated, error) {
	return l.enumerate()
}

// Identify returns the identity of the device at path. The path may be a
// symlink or a bare device name.
func (l *Locator) Identify(path string) (Identity, error) {
	ports, err := l.enumerate()
	if err != nil {
		return Identity{}, err
	}
	want := candidates(path)
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		for c := range candidates(p.Path) {
			if want[c] {
				return p.Identity, nil
			}
		}
	}
	return Identity{}, fmt.Errorf("%s: %w", path, ErrUSBInfoNotAvailable)
}

// Find returns the current path of the device with identity id.
func (l *Locator) Find(id Identity) (string, error) {
	if id.IsZero() {
		return "", ErrIdentityNotFound
	}
	ports, err := l.enumerate()
	if err != nil {
		return "", err
	}
	for _, p := range ports {
		if p.IsUSB && p.Identity.Matches(id) {
			return p.Path, nil
		}
	}
	return "", fmt.Errorf("%s: %w", id, ErrIdentityNotFound)
}

func candidates(path string) map[string]bool {
	set := map[string]bool{path: true, filepath.Base(path): true}
	if r, err := filepath.EvalSymlinks(path); err == nil {
		set[r] = true
		set[filepath.Base(r)] = true
	}
	return set
}

// EnumeratePorts lists ports via go.bug.st/serial/enumerator, or via sysfs
// if that fails.
func EnumeratePorts() ([]Enumerated, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil || len(details) == 0 {
		return enumerateSysfs()
	}
	ports := make([]Enumerated, 0, len(details))
	for _, d := range details {
		ports = append(ports, Enumerated{
			Path:  d.Name,
			IsUSB: d.IsUSB,
			Identity: Identity{
				VendorID:     d.VID,
				ProductID:    d.PID,
				SerialNumber: d.SerialNumber,
			},
			Product: d.Product,
		})
	}
	return ports, nil
}

func enumerateSysfs() ([]Enumerated, error) {
	paths, err := ListPorts()
	if err != nil {
		return nil, err
	}
	ports := make([]Enumerated, 0, len(paths))
	for _, path := range paths {
		info, err := GetPortInfo(path)
		if err != nil {
			continue
		}
		ports = append(ports, Enumerated{
			Path:     path,
			IsUSB:    info.IsUSB(),
			Identity: info.Identity(),
			Product:  info.Product,
		})
	}
	return ports, nil
}
