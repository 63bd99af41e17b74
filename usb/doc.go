// Package usb implements the PTP transport over USB bulk endpoints using
// libusb through github.com/google/gousb.
//
// Open claims the first still-image class interface (class 0x06) that has
// a bulk IN and a bulk OUT endpoint, optionally filtered by vendor and
// product ID or serial number:
//
//	t, err := usb.Open(usb.WithSerial("0123456789ABCDEF"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Close()
//
//	cam := camera.NewCHDK(t)
//
// All open devices share one libusb context. It is created on the first
// Open and closed when the last device is closed.
//
// Context deadlines passed to Read and Write bound each bulk transfer; an
// expired transfer is reported as ptp.ErrTimeout.
package usb
