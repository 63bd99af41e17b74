package usb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/gousb"
	"github.com/moffa90/go-ptp/ptp"
)

// ClassStillImage is the USB interface class of PTP devices.
const ClassStillImage = gousb.Class(0x06)

// libusbContext is the part of *gousb.Context the transport uses.
type libusbContext interface {
	OpenDevices(opener func(desc *gousb.DeviceDesc) bool) ([]*gousb.Device, error)
	Close() error
}

var newContext = func() libusbContext { return gousb.NewContext() }

// One libusb context is shared by every open Device. It is created by the
// first acquire and closed when the last reference is released.
var shared struct {
	mu   sync.Mutex
	ctx  libusbContext
	refs int
}

func acquireContext() libusbContext {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.refs == 0 {
		shared.ctx = newContext()
	}
	shared.refs++
	return shared.ctx
}

func releaseContext() error {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.refs == 0 {
		return nil
	}
	shared.refs--
	if shared.refs > 0 {
		return nil
	}
	err := shared.ctx.Close()
	shared.ctx = nil
	return err
}

// endpoints locates the PTP interface of a device.
type endpoints struct {
	config    int
	iface     int
	alternate int
	in        int
	out       int
}

// findPTP returns the first still-image interface with a bulk IN and a
// bulk OUT endpoint. Configurations and endpoint addresses are searched
// in ascending order.
func findPTP(desc *gousb.DeviceDesc) (endpoints, bool) {
	cfgNums := make([]int, 0, len(desc.Configs))
	for n := range desc.Configs {
		cfgNums = append(cfgNums, n)
	}
	sort.Ints(cfgNums)

	for _, cn := range cfgNums {
		for _, iface := range desc.Configs[cn].Interfaces {
			for _, alt := range iface.AltSettings {
				if alt.Class != ClassStillImage {
					continue
				}
				addrs := make([]int, 0, len(alt.Endpoints))
				for a := range alt.Endpoints {
					addrs = append(addrs, int(a))
				}
				sort.Ints(addrs)

				ep := endpoints{config: cn, iface: iface.Number, alternate: alt.Alternate, in: -1, out: -1}
				for _, a := range addrs {
					e := alt.Endpoints[gousb.EndpointAddress(a)]
					if e.TransferType != gousb.TransferTypeBulk {
						continue
					}
					if e.Direction == gousb.EndpointDirectionIn && ep.in < 0 {
						ep.in = e.Number
					}
					if e.Direction == gousb.EndpointDirectionOut && ep.out < 0 {
						ep.out = e.Number
					}
				}
				if ep.in >= 0 && ep.out >= 0 {
					return ep, true
				}
			}
		}
	}
	return endpoints{}, false
}

// Device is a PTP transport over the bulk endpoints of a USB camera.
// It satisfies ptp.Transport and ptp.Reopener.
type Device struct {
	opts options

	ctx  libusbContext
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	in   *gousb.InEndpoint
	out  *gousb.OutEndpoint
}

// Open connects to the first PTP camera matching the options.
//
// Example:
//
//	t, err := usb.Open(usb.WithVendorProduct(0x04a9, 0x31ea))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Close()
func Open(opts ...Option) (*Device, error) {
	d := &Device{}
	for _, opt := range opts {
		opt(&d.opts)
	}
	if err := d.Connect(); err != nil {
		return nil, err
	}
	return d, nil
}

// Connect claims the PTP interface. It fails with ptp.ErrAlreadyOpen if
// the device is already connected.
func (d *Device) Connect() error {
	if d.dev != nil {
		return ptp.ErrAlreadyOpen
	}

	ctx := acquireContext()
	found := map[*gousb.Device]endpoints{}
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if !d.opts.matchDesc(desc) {
			return false
		}
		_, ok := findPTP(desc)
		return ok
	})
	for _, dev := range devs {
		ep, _ := findPTP(dev.Desc)
		found[dev] = ep
	}
	if err != nil && len(devs) == 0 {
		_ = releaseContext()
		return fmt.Errorf("%w: %w", ptp.ErrConnectFailed, err)
	}

	var chosen *gousb.Device
	for _, dev := range devs {
		if chosen == nil && d.opts.matchSerial(dev) {
			chosen = dev
			continue
		}
		dev.Close()
	}
	if chosen == nil {
		_ = releaseContext()
		return fmt.Errorf("%w: no PTP device found", ptp.ErrConnectFailed)
	}

	if err := d.claim(chosen, found[chosen]); err != nil {
		chosen.Close()
		_ = releaseContext()
		return fmt.Errorf("%w: %w", ptp.ErrConnectFailed, err)
	}
	d.ctx = ctx
	return nil
}

func (d *Device) claim(dev *gousb.Device, ep endpoints) error {
	if err := dev.SetAutoDetach(true); err != nil {
		return fmt.Errorf("auto detach: %w", err)
	}

	cfg, err := dev.Config(ep.config)
	if err != nil {
		return fmt.Errorf("config %d: %w", ep.config, err)
	}
	intf, err := cfg.Interface(ep.iface, ep.alternate)
	if err != nil {
		cfg.Close()
		return fmt.Errorf("interface %d: %w", ep.iface, err)
	}
	in, err := intf.InEndpoint(ep.in)
	if err != nil {
		intf.Close()
		cfg.Close()
		return fmt.Errorf("in endpoint %d: %w", ep.in, err)
	}
	out, err := intf.OutEndpoint(ep.out)
	if err != nil {
		intf.Close()
		cfg.Close()
		return fmt.Errorf("out endpoint %d: %w", ep.out, err)
	}

	d.dev, d.cfg, d.intf, d.in, d.out = dev, cfg, intf, in, out
	return nil
}

// IsOpen reports whether the PTP interface is claimed.
func (d *Device) IsOpen() bool {
	return d.dev != nil
}

// Write sends all of p on the bulk OUT endpoint.
func (d *Device) Write(ctx context.Context, p []byte) error {
	if d.out == nil {
		return ptp.ErrNotOpen
	}
	for len(p) > 0 {
		n, err := d.out.WriteContext(ctx, p)
		if err != nil {
			return mapTransferError(ctx, "write", err)
		}
		p = p[n:]
	}
	return nil
}

// Read performs one bulk IN transfer into p.
func (d *Device) Read(ctx context.Context, p []byte) (int, error) {
	if d.in == nil {
		return 0, ptp.ErrNotOpen
	}
	n, err := d.in.ReadContext(ctx, p)
	if err != nil && n == 0 {
		return 0, mapTransferError(ctx, "read", err)
	}
	return n, nil
}

// Close releases the interface and the device, and drops this device's
// reference to the shared libusb context.
func (d *Device) Close() error {
	if d.dev == nil {
		return nil
	}

	var errs []error
	d.intf.Close()
	if err := d.cfg.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := d.dev.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := releaseContext(); err != nil {
		errs = append(errs, err)
	}

	d.dev, d.cfg, d.intf, d.in, d.out, d.ctx = nil, nil, nil, nil, nil, nil
	return errors.Join(errs...)
}

// Reopen closes the device and connects again with the same options.
func (d *Device) Reopen() error {
	_ = d.Close()
	return d.Connect()
}

func mapTransferError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil || errors.Is(err, gousb.TransferTimedOut) || errors.Is(err, gousb.TransferCancelled) {
		return fmt.Errorf("%w: %s: %w", ptp.ErrTimeout, op, err)
	}
	if errors.Is(err, gousb.ErrorNoDevice) || errors.Is(err, gousb.TransferNoDevice) {
		return fmt.Errorf("%w: %s: %w", ptp.ErrNotOpen, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
