// Package serial exposes one host serial port as a process-wide byte capability.
//
// Code written against the generic capability in package hal (ReadByte,
// WriteByte, Flush) runs unchanged against a real tty: the port is configured
// once, early in main, and any call site can then use a zero-value Serial
// without threading a handle through its APIs.
//
// # Basic Usage
//
// Configure the process-wide port once:
//
//	settings, err := serial.NewSettings(
//	    serial.WithBaudRate(9600),
//	    serial.WithParity(serial.ParityNone),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	serial.ConfigureSerial("/dev/ttyUSB0", settings)
//
// Then use the capability anywhere:
//
//	var port serial.Serial
//	if err := port.WriteByte('A'); err != nil { ... }
//	b, err := port.ReadByte()
//	if errors.Is(err, serial.ErrWouldBlock) {
//	    // nothing to read yet
//	}
//
// ConfigureSerial terminates the process if the device cannot be opened; later
// calls are ignored. Byte operations never block: they return ErrWouldBlock and
// leave retry policy to the caller, typically through hal.ReadByte and friends.
//
// # Explicit Registries
//
// The process-wide port is a Registry. Registries can also be built directly,
// which is how tests and programs that want typed setup errors use them:
//
//	reg := serial.NewRegistry(serial.WithDriver(serial.SystemDriver{}))
//	if err := reg.Configure("/dev/ttyS0", serial.DefaultSettings()); err != nil {
//	    return err // *SetupError, or ErrAlreadyConfigured on a mismatching repeat
//	}
//	port := reg.Serial()
//
// Byte operations on an unconfigured Registry return ErrNotConfigured.
//
// # Locking
//
// By default every byte operation runs under one lock, so reads and writes form a
// single total order. WithSplitLocks gives the read and write halves independent
// locks.
//
// # Default Settings
//
//   - BaudRate: 115200
//   - CharSize: 8
//   - StopBits: 1
//   - Parity: None
//   - FlowControl: None
package serial
