package usb

import "github.com/google/gousb"

type options struct {
	vendor  gousb.ID
	product gousb.ID
	serial  string
}

// Option selects which camera Open connects to.
type Option func(*options)

// WithVendorProduct restricts Open to devices with the given USB IDs.
func WithVendorProduct(vendor, product uint16) Option {
	return func(o *options) {
		o.vendor = gousb.ID(vendor)
		o.product = gousb.ID(product)
	}
}

// WithSerial restricts Open to the device with the given serial number.
func WithSerial(serial string) Option {
	return func(o *options) {
		o.serial = serial
	}
}

func (o options) matchDesc(desc *gousb.DeviceDesc) bool {
	if o.vendor != 0 && desc.Vendor != o.vendor {
		return false
	}
	if o.product != 0 && desc.Product != o.product {
		return false
	}
	return true
}

// serialNumberer is implemented by *gousb.Device.
type serialNumberer interface {
	SerialNumber() (string, error)
}

func (o options) matchSerial(dev serialNumberer) bool {
	if o.serial == "" {
		return true
	}
	s, err := dev.SerialNumber()
	return err == nil && s == o.serial
}
