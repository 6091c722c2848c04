package serial

import (
	"errors"
	"testing"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.BaudRate != 115200 {
		t.Errorf("Expected BaudRate 115200, got %d", s.BaudRate)
	}
	if s.CharSize != CharSize8 {
		t.Errorf("Expected CharSize 8, got %d", s.CharSize)
	}
	if s.StopBits != StopBits1 {
		t.Errorf("Expected StopBits 1, got %d", s.StopBits)
	}
	if s.Parity != ParityNone {
		t.Errorf("Expected Parity None, got %v", s.Parity)
	}
	if s.FlowControl != FlowControlNone {
		t.Errorf("Expected FlowControl None, got %v", s.FlowControl)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Default settings should validate, got %v", err)
	}
}

func TestNewSettings(t *testing.T) {
	s, err := NewSettings(
		WithBaudRate(9600),
		WithCharSize(CharSize7),
		WithStopBits(StopBits2),
		WithParity(ParityEven),
		WithFlowControl(FlowControlHardware),
	)
	if err != nil {
		t.Fatalf("NewSettings failed: %v", err)
	}

	want := Settings{
		BaudRate:    9600,
		CharSize:    CharSize7,
		StopBits:    StopBits2,
		Parity:      ParityEven,
		FlowControl: FlowControlHardware,
	}
	if s != want {
		t.Errorf("Expected %+v, got %+v", want, s)
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{"baud rate", WithBaudRate(123456), ErrInvalidBaudRate},
		{"char size", WithCharSize(9), ErrInvalidConfig},
		{"stop bits", WithStopBits(3), ErrInvalidConfig},
		{"parity", WithParity(Parity(7)), ErrInvalidConfig},
		{"flow control", WithFlowControl(FlowControl(-1)), ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSettings(tt.opt)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     error
	}{
		{"zero value", Settings{}, ErrInvalidBaudRate},
		{"unknown rate", Settings{BaudRate: 1234, CharSize: 8, StopBits: 1}, ErrInvalidBaudRate},
		{"char size", Settings{BaudRate: 9600, CharSize: 4, StopBits: 1}, ErrInvalidConfig},
		{"stop bits", Settings{BaudRate: 9600, CharSize: 8, StopBits: 0}, ErrInvalidConfig},
		{"ok", Settings{BaudRate: 9600, CharSize: 8, StopBits: 1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSettingsString(t *testing.T) {
	tests := []struct {
		settings Settings
		expected string
	}{
		{DefaultSettings(), "115200 8N1"},
		{Settings{BaudRate: 9600, CharSize: 7, StopBits: 2, Parity: ParityEven}, "9600 7E2"},
		{Settings{BaudRate: 19200, CharSize: 8, StopBits: 1, Parity: ParityOdd, FlowControl: FlowControlHardware}, "19200 8O1 hardware"},
	}

	for _, test := range tests {
		if got := test.settings.String(); got != test.expected {
			t.Errorf("String() = %q, expected %q", got, test.expected)
		}
	}
}

func TestParityUnmarshalText(t *testing.T) {
	tests := []struct {
		input    string
		expected Parity
		hasError bool
	}{
		{"none", ParityNone, false},
		{"ODD", ParityOdd, false},
		{"even", ParityEven, false},
		{"e", ParityEven, false},
		{"mark", ParityNone, true},
	}

	for _, test := range tests {
		var p Parity
		err := p.UnmarshalText([]byte(test.input))
		if test.hasError {
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig for %q, got %v", test.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for %q: %v", test.input, err)
		}
		if p != test.expected {
			t.Errorf("UnmarshalText(%q) = %v, expected %v", test.input, p, test.expected)
		}
	}
}

func TestFlowControlUnmarshalText(t *testing.T) {
	tests := []struct {
		input    string
		expected FlowControl
		hasError bool
	}{
		{"none", FlowControlNone, false},
		{"software", FlowControlSoftware, false},
		{"xonxoff", FlowControlSoftware, false},
		{"Hardware", FlowControlHardware, false},
		{"rtscts", FlowControlHardware, false},
		{"cts", FlowControlNone, true},
	}

	for _, test := range tests {
		var fc FlowControl
		err := fc.UnmarshalText([]byte(test.input))
		if test.hasError {
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig for %q, got %v", test.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for %q: %v", test.input, err)
		}
		if fc != test.expected {
			t.Errorf("UnmarshalText(%q) = %v, expected %v", test.input, fc, test.expected)
		}
		if fc.String() == "" {
			t.Errorf("Empty String() for %v", fc)
		}
	}
}
