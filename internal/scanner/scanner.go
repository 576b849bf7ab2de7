// Package scanner discovers Coral peripherals from BLE advertisements.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/internal/ringchan"
)

// ProgressCallback is called when the scan phase changes
type ProgressCallback func(phase string)

// EventType marks if the device was newly discovered or updated
type EventType int

const (
	EventNew EventType = iota
	EventUpdated
)

func (t EventType) String() string {
	if t == EventNew {
		return "new"
	}
	return "updated"
}

// Discovered is a classified Coral peripheral.
type Discovered struct {
	Address  string             `json:"address"`
	Name     string             `json:"name,omitempty"`
	RSSI     int                `json:"rssi"`
	Coral    CoralAdvertisement `json:"coral"`
	LastSeen time.Time          `json:"last_seen"`
}

// Event reports a discovery.
type Event struct {
	Type   EventType
	Device Discovered
}

// ScanOptions configures scanning behavior
type ScanOptions struct {
	Duration        time.Duration
	AllowDuplicates bool
	AllowList       []string
	BlockList       []string
	// Kinds restricts results to these device kinds; empty means all.
	Kinds []protocol.DeviceKind
}

// DefaultScanOptions returns default scanning options
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{Duration: 10 * time.Second}
}

// Scanner classifies advertisements into Coral devices.
type Scanner struct {
	adapter device.Scanner
	events  *ringchan.Ring[Event]
	logger  *logrus.Logger

	mu      sync.Mutex
	options *ScanOptions
	// devices is keyed by address in first-seen order.
	devices *orderedmap.OrderedMap[string, Discovered]
}

// NewScanner creates a scanner over adapter.
func NewScanner(adapter device.Scanner, logger *logrus.Logger) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scanner{
		adapter: adapter,
		devices: orderedmap.New[string, Discovered](),
		events:  ringchan.New[Event](100),
		logger:  logger,
	}
}

// Scan listens for opts.Duration (or until ctx ends) and returns every Coral
// device seen, keyed by address.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions, progress ProgressCallback) (map[string]Discovered, error) {
	if opts == nil {
		opts = DefaultScanOptions()
	}
	if progress == nil {
		progress = func(string) {}
	}

	s.mu.Lock()
	s.options = opts
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.options = nil
		s.mu.Unlock()
	}()

	scanCtx := ctx
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	s.logger.WithField("duration", opts.Duration).Info("Starting BLE scan...")
	progress("Scanning")

	err := s.adapter.Scan(scanCtx, opts.AllowDuplicates, s.handleAdvertisement)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan failed: %w", device.NormalizeError(err))
	}

	progress("Processing results")
	found := s.Devices()
	s.logger.WithField("device_count", len(found)).Info("BLE scan completed")
	return found, nil
}

// MatchesService reports whether an advertised service list contains the
// Coral service, in full or short form.
func MatchesService(services []string) bool {
	for _, uuid := range services {
		n := device.NormalizeUUID(uuid)
		if n == protocol.ServiceShortUUID || n == device.NormalizeUUID(protocol.ServiceUUID) {
			return true
		}
	}
	return false
}

// Classify returns the Coral identity of adv, or false if adv is not a
// Coral peripheral.
func Classify(adv device.Advertisement) (*CoralAdvertisement, bool) {
	if !MatchesService(adv.Services()) {
		return nil, false
	}
	return ParseCoral(adv.ManufacturerData())
}

func (s *Scanner) handleAdvertisement(adv device.Advertisement) {
	coral, ok := Classify(adv)
	if !ok {
		return
	}

	address := adv.Addr()
	seen := Discovered{
		Address:  address,
		Name:     adv.LocalName(),
		RSSI:     adv.RSSI(),
		Coral:    *coral,
		LastSeen: time.Now(),
	}

	s.mu.Lock()
	if s.options != nil && !shouldInclude(address, coral.Kind, s.options) {
		s.mu.Unlock()
		return
	}
	_, existed := s.devices.Set(address, seen)
	s.mu.Unlock()

	event := Event{Type: EventNew, Device: seen}
	if existed {
		event.Type = EventUpdated
	} else {
		s.logger.WithFields(logrus.Fields{
			"device":  seen.Name,
			"address": address,
			"kind":    coral.Kind.String(),
			"rssi":    seen.RSSI,
		}).Info("Discovered Coral device")
	}

	s.events.Send(event)
}

func shouldInclude(addr string, kind protocol.DeviceKind, opts *ScanOptions) bool {
	if slices.Contains(opts.BlockList, addr) {
		return false
	}
	if len(opts.AllowList) > 0 && !slices.Contains(opts.AllowList, addr) {
		return false
	}
	if len(opts.Kinds) > 0 && !slices.Contains(opts.Kinds, kind) {
		return false
	}
	return true
}

// Devices returns a snapshot of everything discovered so far.
func (s *Scanner) Devices() map[string]Discovered {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Discovered, s.devices.Len())
	for pair := s.devices.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// Forget drops address so the next advertisement reports it as new.
func (s *Scanner) Forget(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices.Delete(address)
}

// Events returns the discovery stream. Old events are dropped when nobody reads.
func (s *Scanner) Events() <-chan Event {
	return s.events.C()
}
