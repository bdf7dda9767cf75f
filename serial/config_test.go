package serial

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 115200 {
		t.Errorf("Expected BaudRate 115200, got %d", config.BaudRate)
	}
	if config.DataBits != 8 {
		t.Errorf("Expected DataBits 8, got %d", config.DataBits)
	}
	if config.StopBits != 1 {
		t.Errorf("Expected StopBits 1, got %d", config.StopBits)
	}
	if config.Parity != ParityNone {
		t.Errorf("Expected Parity None, got %v", config.Parity)
	}
	if config.ReadTimeout != 100*time.Millisecond {
		t.Errorf("Expected ReadTimeout 100ms, got %v", config.ReadTimeout)
	}
	if config.InitialDTR != nil {
		t.Errorf("Expected InitialDTR unset, got %v", *config.InitialDTR)
	}
}

func TestFunctionalOptions(t *testing.T) {
	config := DefaultConfig()

	if err := WithBaudRate(250000)(&config); !errors.Is(err, ErrInvalidBaudRate) {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}

	steps := []struct {
		name string
		opt  Option
		chk  func() bool
	}{
		{"WithBaudRate", WithBaudRate(57600), func() bool { return config.BaudRate == 57600 }},
		{"WithDataBits", WithDataBits(7), func() bool { return config.DataBits == 7 }},
		{"WithStopBits", WithStopBits(2), func() bool { return config.StopBits == 2 }},
		{"WithParity", WithParity(ParityEven), func() bool { return config.Parity == ParityEven }},
		{"WithInitialDTR", WithInitialDTR(false), func() bool { return config.InitialDTR != nil && !*config.InitialDTR }},
		{"WithExclusive", WithExclusive(), func() bool { return config.Exclusive }},
	}
	for _, step := range steps {
		if err := step.opt(&config); err != nil {
			t.Errorf("%s failed: %v", step.name, err)
		}
		if !step.chk() {
			t.Errorf("%s did not apply", step.name)
		}
	}
}

func TestInvalidOptions(t *testing.T) {
	config := DefaultConfig()

	invalid := map[string]Option{
		"data bits 4":   WithDataBits(4),
		"data bits 9":   WithDataBits(9),
		"stop bits 3":   WithStopBits(3),
		"parity 7":      WithParity(Parity(7)),
		"baud 12345":    WithBaudRate(12345),
		"timeout -1ms":  WithReadTimeout(-time.Millisecond),
		"timeout 260ms": WithReadTimeout(260 * time.Millisecond),
	}
	for name, opt := range invalid {
		if err := opt(&config); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestWithReadTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		vtime   uint8
		wantErr bool
	}{
		{"0ms (non-blocking)", 0, 0, false},
		{"100ms (valid)", 100 * time.Millisecond, 1, false},
		{"500ms (valid)", 500 * time.Millisecond, 5, false},
		{"2500ms (valid)", 2500 * time.Millisecond, 25, false},
		{"25500ms (max)", 25500 * time.Millisecond, 255, false},
		{"150ms (not multiple of 100ms)", 150 * time.Millisecond, 0, true},
		{"250ns (not multiple of 100ms)", 250 * time.Nanosecond, 0, true},
		{"25600ms (exceeds max)", 25600 * time.Millisecond, 0, true},
		{"-100ms (negative)", -100 * time.Millisecond, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := WithReadTimeout(tt.timeout)(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithReadTimeout(%v) error = %v, wantErr %v", tt.timeout, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if config.ReadTimeout != tt.timeout {
				t.Errorf("ReadTimeout = %v, want %v", config.ReadTimeout, tt.timeout)
			}
			if got := config.vtime(); got != tt.vtime {
				t.Errorf("vtime() = %d, want %d", got, tt.vtime)
			}
		})
	}
}
