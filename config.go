package serial

import (
	"fmt"
	"slices"
	"strings"
)

// CharSize is the number of data bits per character (5, 6, 7 or 8)
type CharSize int

const (
	CharSize5 CharSize = 5
	CharSize6 CharSize = 6
	CharSize7 CharSize = 7
	CharSize8 CharSize = 8
)

// StopBits is the number of stop bits (1 or 2)
type StopBits int

const (
	StopBits1 StopBits = 1
	StopBits2 StopBits = 2
)

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone     FlowControl = iota
	FlowControlSoftware             // XON/XOFF
	FlowControlHardware             // RTS/CTS
)

// Settings holds the line settings a port is opened with.
// Settings values are comparable with ==.
type Settings struct {
	BaudRate    int         `mapstructure:"baud"`
	CharSize    CharSize    `mapstructure:"char-size"`
	StopBits    StopBits    `mapstructure:"stop-bits"`
	Parity      Parity      `mapstructure:"parity"`
	FlowControl FlowControl `mapstructure:"flow-control"`
}

// Option is a functional option for building Settings
type Option func(*Settings) error

// baudRates lists the rates the termios driver can encode.
var baudRates = []int{
	50, 75, 110, 134, 150, 200, 300, 600, 1200, 1800, 2400, 4800, 9600,
	19200, 38400, 57600, 115200, 230400, 460800, 500000, 576000, 921600,
	1000000, 1152000, 1500000, 2000000, 2500000, 3000000, 3500000, 4000000,
}

// DefaultSettings returns 115200 8N1 without flow control
func DefaultSettings() Settings {
	return Settings{
		BaudRate:    115200,
		CharSize:    CharSize8,
		StopBits:    StopBits1,
		Parity:      ParityNone,
		FlowControl: FlowControlNone,
	}
}

// NewSettings applies opts on top of DefaultSettings.
func NewSettings(opts ...Option) (Settings, error) {
	s := DefaultSettings()
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return Settings{}, err
		}
	}
	return s, nil
}

// Validate reports whether every field holds a value the driver can apply.
func (s Settings) Validate() error {
	if !slices.Contains(baudRates, s.BaudRate) {
		return fmt.Errorf("%w: %d", ErrInvalidBaudRate, s.BaudRate)
	}
	if s.CharSize < CharSize5 || s.CharSize > CharSize8 {
		return fmt.Errorf("%w: char size %d", ErrInvalidConfig, s.CharSize)
	}
	if s.StopBits != StopBits1 && s.StopBits != StopBits2 {
		return fmt.Errorf("%w: stop bits %d", ErrInvalidConfig, s.StopBits)
	}
	if s.Parity < ParityNone || s.Parity > ParityEven {
		return fmt.Errorf("%w: parity %d", ErrInvalidConfig, s.Parity)
	}
	if s.FlowControl < FlowControlNone || s.FlowControl > FlowControlHardware {
		return fmt.Errorf("%w: flow control %d", ErrInvalidConfig, s.FlowControl)
	}
	return nil
}

// String renders the settings in the usual "115200 8N1" form.
func (s Settings) String() string {
	out := fmt.Sprintf("%d %d%s%d", s.BaudRate, s.CharSize, s.Parity.short(), s.StopBits)
	if s.FlowControl != FlowControlNone {
		out += " " + s.FlowControl.String()
	}
	return out
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(s *Settings) error {
		if !slices.Contains(baudRates, rate) {
			return ErrInvalidBaudRate
		}
		s.BaudRate = rate
		return nil
	}
}

// WithCharSize sets the number of data bits (5, 6, 7, or 8)
func WithCharSize(size CharSize) Option {
	return func(s *Settings) error {
		if size < CharSize5 || size > CharSize8 {
			return ErrInvalidConfig
		}
		s.CharSize = size
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits StopBits) Option {
	return func(s *Settings) error {
		if bits != StopBits1 && bits != StopBits2 {
			return ErrInvalidConfig
		}
		s.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(s *Settings) error {
		if parity < ParityNone || parity > ParityEven {
			return ErrInvalidConfig
		}
		s.Parity = parity
		return nil
	}
}

// WithFlowControl sets the flow control mode
func WithFlowControl(fc FlowControl) Option {
	return func(s *Settings) error {
		if fc < FlowControlNone || fc > FlowControlHardware {
			return ErrInvalidConfig
		}
		s.FlowControl = fc
		return nil
	}
}

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	default:
		return fmt.Sprintf("Parity(%d)", int(p))
	}
}

func (p Parity) short() string {
	switch p {
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	default:
		return "N"
	}
}

// UnmarshalText accepts none, odd or even.
func (p *Parity) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "none", "n", "":
		*p = ParityNone
	case "odd", "o":
		*p = ParityOdd
	case "even", "e":
		*p = ParityEven
	default:
		return fmt.Errorf("%w: unknown parity %q (valid: none, odd, even)", ErrInvalidConfig, text)
	}
	return nil
}

func (fc FlowControl) String() string {
	switch fc {
	case FlowControlNone:
		return "none"
	case FlowControlSoftware:
		return "software"
	case FlowControlHardware:
		return "hardware"
	default:
		return fmt.Sprintf("FlowControl(%d)", int(fc))
	}
}

// UnmarshalText accepts none, software (xonxoff) or hardware (rtscts).
func (fc *FlowControl) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "none", "":
		*fc = FlowControlNone
	case "software", "xonxoff":
		*fc = FlowControlSoftware
	case "hardware", "rtscts":
		*fc = FlowControlHardware
	default:
		return fmt.Errorf("%w: unknown flow control %q (valid: none, software, hardware)", ErrInvalidConfig, text)
	}
	return nil
}
