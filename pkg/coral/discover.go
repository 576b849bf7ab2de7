package coral

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/groutine"
	"github.com/srg/coral/internal/scanner"
)

func infoFromDiscovered(d scanner.Discovered) Info {
	return Info{
		Name:    d.Name,
		Address: d.Address,
		Kind:    d.Coral.Kind,
		Color:   d.Coral.Color,
		Tag:     d.Coral.Tag,
	}
}

func build(adapter device.Adapter, d scanner.Discovered, opts *Options) (Peripheral, error) {
	transport, err := adapter.Transport(d.Address)
	if err != nil {
		return nil, fmt.Errorf("transport for %s: %w", d.Address, err)
	}
	return New(d.Coral.Kind, transport, infoFromDiscovered(d), opts)
}

// Discover scans once and returns a disconnected handle for every Coral
// device seen, ordered by address.
func Discover(ctx context.Context, adapter device.Adapter, scanOpts *scanner.ScanOptions, opts *Options) ([]Peripheral, error) {
	o := opts.withDefaults()
	found, err := scanner.NewScanner(adapter, o.Logger).Scan(ctx, scanOpts, nil)
	if err != nil {
		return nil, err
	}

	out := make([]Peripheral, 0, len(found))
	for _, d := range found {
		p, err := build(adapter, d, &o)
		if err != nil {
			o.Logger.WithError(err).WithField("address", d.Address).Warn("Skipping discovered device")
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Peripheral) int {
		return strings.Compare(a.Info().Address, b.Info().Address)
	})
	return out, nil
}

// ErrNotFound is returned by Find when the scan ends without the device.
var ErrNotFound = errors.New("device not found")

// Find scans until the Coral device at address advertises and returns a
// disconnected handle for it. The scan is bounded by scanOpts.Duration.
func Find(ctx context.Context, adapter device.Adapter, address string, scanOpts *scanner.ScanOptions, opts *Options) (Peripheral, error) {
	o := opts.withDefaults()
	so := scanner.DefaultScanOptions()
	if scanOpts != nil {
		copied := *scanOpts
		so = &copied
	}
	so.AllowList = []string{address}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var match Peripheral
	err := NewDiscovery(adapter, &o).Run(scanCtx, so, func(p Peripheral) {
		if match == nil && strings.EqualFold(p.Info().Address, address) {
			match = p
			cancel()
		}
	})
	if match != nil {
		return match, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
}

// Discovery reports devices as they appear. A device is reported once and
// not again until its handle disconnects.
type Discovery struct {
	adapter device.Adapter
	scanner *scanner.Scanner
	opts    Options
	logger  *logrus.Logger

	mu   sync.Mutex
	seen map[string]Peripheral
}

// NewDiscovery creates a discovery over adapter. Handles it builds use opts.
func NewDiscovery(adapter device.Adapter, opts *Options) *Discovery {
	o := opts.withDefaults()
	return &Discovery{
		adapter: adapter,
		scanner: scanner.NewScanner(adapter, o.Logger),
		opts:    o,
		logger:  o.Logger,
		seen:    make(map[string]Peripheral),
	}
}

// Run scans until ctx ends or scanOpts.Duration elapses, calling found for
// each newly seen device. found runs on the caller's goroutine.
func (d *Discovery) Run(ctx context.Context, scanOpts *scanner.ScanOptions, found func(Peripheral)) error {
	events := d.scanner.Events()
	done := make(chan error, 1)
	groutine.Go(ctx, "coral-discovery-scan", func(ctx context.Context) {
		_, err := d.scanner.Scan(ctx, scanOpts, nil)
		done <- err
	})

	for {
		select {
		case ev := <-events:
			d.handle(ev.Device, found)
		case err := <-done:
			for {
				select {
				case ev := <-events:
					d.handle(ev.Device, found)
				default:
					return err
				}
			}
		}
	}
}

func (d *Discovery) handle(dev scanner.Discovered, found func(Peripheral)) {
	d.mu.Lock()
	if _, ok := d.seen[dev.Address]; ok {
		d.mu.Unlock()
		return
	}
	p, err := build(d.adapter, dev, &d.opts)
	if err != nil {
		d.mu.Unlock()
		d.logger.WithError(err).WithField("address", dev.Address).Warn("Skipping discovered device")
		return
	}
	d.seen[dev.Address] = p
	d.mu.Unlock()

	addr := dev.Address
	var cancel func()
	cancel = p.On(EventDisconnect, func(DeviceEvent) {
		cancel()
		d.Forget(addr)
	})
	found(p)
}

// Forget lets address be reported again.
func (d *Discovery) Forget(address string) {
	d.mu.Lock()
	delete(d.seen, address)
	d.mu.Unlock()
	d.scanner.Forget(address)
}

// Known returns the handles reported and not yet disconnected.
func (d *Discovery) Known() []Peripheral {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Peripheral, 0, len(d.seen))
	for _, p := range d.seen {
		out = append(out, p)
	}
	return out
}
