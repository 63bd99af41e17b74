// Package transport provides byte transports for the ptp package.
//
// Two implementations live here:
//   - Stream wraps any io.ReadWriteCloser (TCP connection, serial device
//     file) and maps context deadlines onto read/write deadlines
//   - Mock is a scripted in-memory device for tests and examples
//
// USB bulk transport is provided separately by the usb package.
//
// # Mock Device
//
// A Mock can answer every container the host writes:
//
//	m := transport.NewMock()
//	m.Device = func(c *ptp.Container) []*ptp.Container {
//	    resp := ptp.NewResponse(ptp.RespOK)
//	    resp.TransactionID = c.TransactionID
//	    return []*ptp.Container{resp}
//	}
//	eng := camera.NewEngine(m)
package transport
