package serial

import (
	"errors"
	"testing"
)

func fixedPorts(ports ...Enumerated) EnumerateFunc {
	return func() ([]Enumerated, error) { return ports, nil }
}

var printerID = Identity{VendorID: "2341", ProductID: "0042", SerialNumber: "7523733353635"}

func TestLocatorIdentify(t *testing.T) {
	loc := NewLocatorWith(fixedPorts(
		Enumerated{Path: "/dev/ttyS0"},
		Enumerated{Path: "/dev/ttyACM0", IsUSB: true, Identity: printerID},
	))

	id, err := loc.Identify("/dev/ttyACM0")
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if id != printerID {
		t.Errorf("Identify = %v, want %v", id, printerID)
	}

	// bare names match too
	if _, err := loc.Identify("ttyACM0"); err != nil {
		t.Errorf("Identify(bare name): %v", err)
	}

	if _, err := loc.Identify("/dev/ttyS0"); !errors.Is(err, ErrUSBInfoNotAvailable) {
		t.Errorf("Identify(non-USB) = %v, want ErrUSBInfoNotAvailable", err)
	}
}

func TestLocatorFindAfterReenumeration(t *testing.T) {
	ports := []Enumerated{{Path: "/dev/ttyACM0", IsUSB: true, Identity: printerID}}
	loc := NewLocatorWith(func() ([]Enumerated, error) { return ports, nil })

	id, err := loc.Identify("/dev/ttyACM0")
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}

	// device comes back under another name, with lower-case hex
	ports = []Enumerated{
		{Path: "/dev/ttyACM0", IsUSB: true, Identity: Identity{VendorID: "0403", ProductID: "6001", SerialNumber: "A1"}},
		{Path: "/dev/ttyACM1", IsUSB: true, Identity: Identity{VendorID: "2341", ProductID: "0042", SerialNumber: printerID.SerialNumber}},
	}
	path, err := loc.Find(id)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if path != "/dev/ttyACM1" {
		t.Errorf("Find = %q, want /dev/ttyACM1", path)
	}

	ports = nil
	if _, err := loc.Find(id); !errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("Find(gone) = %v, want ErrIdentityNotFound", err)
	}
	if _, err := loc.Find(Identity{}); !errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("Find(zero) = %v, want ErrIdentityNotFound", err)
	}
}

func TestLocatorEnumerateError(t *testing.T) {
	boom := errors.New("boom")
	loc := NewLocatorWith(func() ([]Enumerated, error) { return nil, boom })
	if _, err := loc.Identify("/dev/ttyACM0"); !errors.Is(err, boom) {
		t.Errorf("Identify = %v, want boom", err)
	}
	if _, err := loc.Find(printerID); !errors.Is(err, boom) {
		t.Errorf("Find = %v, want boom", err)
	}
}

func TestIdentityMatches(t *testing.T) {
	a := Identity{VendorID: "2341", ProductID: "00AB", SerialNumber: "X"}
	if !a.Matches(Identity{VendorID: "2341", ProductID: "00ab", SerialNumber: "X"}) {
		t.Error("hex case should not matter")
	}
	if a.Matches(Identity{VendorID: "2341", ProductID: "00AB", SerialNumber: "Y"}) {
		t.Error("serial must match exactly")
	}
	if a.String() != "2341:00AB/X" {
		t.Errorf("String() = %q", a.String())
	}
	if !(Identity{}).IsZero() {
		t.Error("zero identity should report IsZero")
	}
}
