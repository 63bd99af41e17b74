// Package ptp implements the Picture Transfer Protocol container format.
//
// This package provides the container codec used by every PTP exchange
// and the byte-transport capability the rest of the module is built on.
//
// # Container Format
//
// Every PTP message is a container with a fixed 12-byte header followed
// by a variable trailing region:
//
//	[LENGTH(4)][TYPE(2)][CODE(2)][TRANSACTION_ID(4)][TRAILING...]
//
// Where:
//   - LENGTH = total container length including the header (little-endian)
//   - TYPE = 1 Command, 2 Data, 3 Response, 4 Event
//   - CODE = operation, response or event code depending on TYPE
//   - TRAILING = 32-bit parameters for Command/Response, raw payload for Data
//
// # Building Containers
//
//	cmd := ptp.NewCommand(ptp.OpOpenSession)
//	cmd.AddParam(1)
//	frame := cmd.Pack()
//
//	data := ptp.NewData(0x9999)
//	data.SetPayload(script)
//
// # Parsing Containers
//
// Unpack validates the header and keeps the trailing bytes as-is.
// Parameters are read on demand:
//
//	c, err := ptp.Unpack(frame)
//	if err != nil {
//	    return err
//	}
//	major, err := c.Param(0)
//
// # Transports
//
// The Transport interface is the only thing the protocol layer needs from
// the outside world: open state, Read, Write and Close. Timeouts reach a
// transport as context deadlines. USB, socket and in-memory implementations
// live in the usb and transport packages.
//
// # Errors
//
// Failures are reported through the sentinel errors in this package
// (ErrNotOpen, ErrTimeout, ErrMalformedContainer, ...) and the typed
// MismatchError and ResponseError, all usable with errors.Is and errors.As.
package ptp
