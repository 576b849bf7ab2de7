package scanner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/internal/scanner"
	"github.com/srg/coral/internal/testutils"
)

type ScannerTestSuite struct {
	suite.Suite
	logger *logrus.Logger
}

func (s *ScannerTestSuite) SetupTest() {
	s.logger = logrus.New()
	s.logger.SetLevel(logrus.PanicLevel)
}

func (s *ScannerTestSuite) scan(adapter device.Scanner, opts *scanner.ScanOptions) (*scanner.Scanner, map[string]scanner.Discovered) {
	sc := scanner.NewScanner(adapter, s.logger)
	if opts == nil {
		opts = &scanner.ScanOptions{}
	}
	opts.Duration = 20 * time.Millisecond

	var phases []string
	found, err := sc.Scan(context.Background(), opts, func(phase string) { phases = append(phases, phase) })
	s.Require().NoError(err)
	s.Equal([]string{"Scanning", "Processing results"}, phases)
	return sc, found
}

func (s *ScannerTestSuite) TestClassifiesCoralDevices() {
	// GOAL: only advertisements with the Coral service and vendor data are reported
	//
	// TEST SCENARIO: coral motor + coral controller + foreign device + coral service without vendor data → two devices
	adapter := testutils.NewMockAdapter(
		testutils.NewAdvertisementBuilder().WithAddress("AA:00:00:00:00:01").WithName("Motor").WithRSSI(-40).WithCoral(1, 0x03).Build(),
		testutils.NewAdvertisementBuilder().WithAddress("AA:00:00:00:00:02").WithName("Pad").WithCoral(3).Build(),
		testutils.NewAdvertisementBuilder().WithAddress("BB:00:00:00:00:01").WithName("Watch").
			WithServices("180d").WithManufacturerData([]byte{0x4C, 0x00, 0x02, 0x01}).Build(),
		testutils.NewAdvertisementBuilder().WithAddress("BB:00:00:00:00:02").WithServices(protocol.ServiceShortUUID).Build(),
	)

	_, found := s.scan(adapter, nil)

	s.Require().Len(found, 2)
	motor := found["AA:00:00:00:00:01"]
	s.Equal("Motor", motor.Name)
	s.Equal(-40, motor.RSSI)
	s.Equal(protocol.KindDoubleMotor, motor.Coral.Kind)
	s.Require().NotNil(motor.Coral.Color)
	s.Equal(protocol.ColorBlue, *motor.Coral.Color)
	s.Equal(protocol.KindController, found["AA:00:00:00:00:02"].Coral.Kind)
}

func (s *ScannerTestSuite) TestFilters() {
	adapter := testutils.NewMockAdapter(
		testutils.NewAdvertisementBuilder().WithAddress("AA:00:00:00:00:01").WithCoral(0).Build(),
		testutils.NewAdvertisementBuilder().WithAddress("AA:00:00:00:00:02").WithCoral(1).Build(),
		testutils.NewAdvertisementBuilder().WithAddress("AA:00:00:00:00:03").WithCoral(2).Build(),
	)

	s.Run("block list", func() {
		_, found := s.scan(adapter, &scanner.ScanOptions{BlockList: []string{"AA:00:00:00:00:01"}})
		s.Len(found, 2)
		s.NotContains(found, "AA:00:00:00:00:01")
	})
	s.Run("allow list", func() {
		_, found := s.scan(adapter, &scanner.ScanOptions{AllowList: []string{"AA:00:00:00:00:02"}})
		s.Len(found, 1)
		s.Contains(found, "AA:00:00:00:00:02")
	})
	s.Run("kinds", func() {
		_, found := s.scan(adapter, &scanner.ScanOptions{Kinds: []protocol.DeviceKind{protocol.KindColorSensor}})
		s.Len(found, 1)
		s.Contains(found, "AA:00:00:00:00:03")
	})
}

func (s *ScannerTestSuite) TestEvents() {
	// TEST SCENARIO: same device advertised twice → new then updated → Forget → next advertisement is new again
	adv := testutils.NewAdvertisementBuilder().WithAddress("AA:00:00:00:00:01").WithCoral(0).Build()
	adapter := testutils.NewMockAdapter(adv, adv)

	sc, _ := s.scan(adapter, &scanner.ScanOptions{AllowDuplicates: true})

	first := <-sc.Events()
	second := <-sc.Events()
	s.Equal(scanner.EventNew, first.Type)
	s.Equal(scanner.EventUpdated, second.Type)

	sc.Forget("AA:00:00:00:00:01")
	s.Empty(sc.Devices())
}

func (s *ScannerTestSuite) TestRegistryKeepsEveryAddressAcrossForget() {
	// GOAL: the registry holds every distinct address and Forget really removes one
	//
	// TEST SCENARIO: five devices advertised out of order → all five listed → forget two → rescan → forgotten ones are new again, others updated
	addresses := []string{"CC:00:00:00:00:03", "AA:00:00:00:00:01", "EE:00:00:00:00:05", "BB:00:00:00:00:02", "DD:00:00:00:00:04"}
	var ads []device.Advertisement
	for i, addr := range addresses {
		ads = append(ads, testutils.NewAdvertisementBuilder().WithAddress(addr).WithCoral(byte(i%4)).Build())
	}
	adapter := testutils.NewMockAdapter(ads...)
	sc := scanner.NewScanner(adapter, s.logger)
	opts := &scanner.ScanOptions{Duration: 20 * time.Millisecond}

	found, err := sc.Scan(context.Background(), opts, nil)
	s.Require().NoError(err)
	s.Len(found, len(addresses), "every distinct address MUST be listed")
	for _, addr := range addresses {
		s.Contains(found, addr)
	}
	s.drainEvents(sc, len(addresses))

	sc.Forget("AA:00:00:00:00:01")
	sc.Forget("DD:00:00:00:00:04")
	s.Len(sc.Devices(), 3, "forgotten devices MUST be gone")
	s.NotContains(sc.Devices(), "AA:00:00:00:00:01")
	sc.Forget("AA:00:00:00:00:01")

	found, err = sc.Scan(context.Background(), opts, nil)
	s.Require().NoError(err)
	s.Len(found, len(addresses), "forgotten devices MUST be re-added")

	types := map[string]scanner.EventType{}
	for _, e := range s.drainEvents(sc, len(addresses)) {
		types[e.Device.Address] = e.Type
	}
	s.Equal(scanner.EventNew, types["AA:00:00:00:00:01"])
	s.Equal(scanner.EventNew, types["DD:00:00:00:00:04"])
	s.Equal(scanner.EventUpdated, types["CC:00:00:00:00:03"])
	s.Equal(scanner.EventUpdated, types["EE:00:00:00:00:05"])
	s.Equal(scanner.EventUpdated, types["BB:00:00:00:00:02"])
}

func (s *ScannerTestSuite) drainEvents(sc *scanner.Scanner, n int) []scanner.Event {
	out := make([]scanner.Event, 0, n)
	for range n {
		select {
		case e := <-sc.Events():
			out = append(out, e)
		case <-time.After(time.Second):
			s.FailNow("event MUST arrive")
		}
	}
	return out
}

func (s *ScannerTestSuite) TestScanFailure() {
	adapter := testutils.NewMockAdapter().FailScan(errors.New("Bluetooth is turned off"))
	sc := scanner.NewScanner(adapter, s.logger)

	_, err := sc.Scan(context.Background(), &scanner.ScanOptions{Duration: time.Second}, nil)
	s.Require().Error(err)
	s.ErrorIs(err, device.ErrBluetoothOff, "backend errors MUST be normalized")
}

func TestScannerTestSuite(t *testing.T) {
	suite.Run(t, new(ScannerTestSuite))
}
