package coral_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/srg/coral/internal/connection"
	"github.com/srg/coral/internal/correlate"
	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/internal/testutils"
	"github.com/srg/coral/pkg/coral"
)

const testAddress = "AA:BB:CC:DD:EE:01"

type DeviceTestSuite struct {
	suite.Suite

	logger *logrus.Logger
}

func (s *DeviceTestSuite) SetupTest() {
	s.logger = logrus.New()
	s.logger.SetLevel(logrus.PanicLevel)
}

func (s *DeviceTestSuite) options() *coral.Options {
	opts := coral.DefaultOptions()
	opts.Logger = s.logger
	return opts
}

func (s *DeviceTestSuite) transportFor(sim *testutils.DeviceSim) *testutils.MockTransport {
	return testutils.NewMockTransport(testAddress).WithResponder(sim.Respond)
}

func (s *DeviceTestSuite) nextEvent(events <-chan coral.DeviceEvent, kind coral.EventKind) coral.DeviceEvent {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Kind == kind {
				return e
			}
		case <-deadline:
			s.FailNow("device event MUST arrive", "kind %s", kind)
			return coral.DeviceEvent{}
		}
	}
}

func (s *DeviceTestSuite) TestConnectRecordsVersions() {
	// GOAL: Connect verifies the product, stores versions and starts the sensor stream
	//
	// TEST SCENARIO: dual motor sim → Connect → info + notification request written, versions recorded
	transport := s.transportFor(testutils.NewDeviceSim(protocol.ProductCoralDualMotor))
	m := coral.NewDoubleMotor(transport, coral.Info{Name: "Coral Motor"}, s.options())

	s.Require().NoError(m.Connect(context.Background()))
	defer m.Disconnect()

	s.True(m.Connected(), "device MUST report connected")
	info := m.Info()
	s.Equal("1.4.85", info.Firmware.String())
	s.Equal("1.0.3", info.Bootloader.String())
	s.Equal(testAddress, info.Address, "address MUST default to the transport address")
	s.Equal("Coral Motor", info.Name)
	s.Equal(protocol.KindDoubleMotor, info.Kind)

	writes := transport.Writes()
	s.Require().Len(writes, 2)
	s.Equal([]byte{0}, writes[0], "first request MUST be InfoRequest")
	s.Equal([]byte{40, 50, 0}, writes[1], "second request MUST enable notifications at 50ms")
}

func (s *DeviceTestSuite) TestConnectUsesConfiguredInterval() {
	transport := s.transportFor(testutils.NewDeviceSim(protocol.ProductCoralColorSensor))
	opts := s.options()
	opts.NotificationInterval = 200 * time.Millisecond
	d := coral.NewColorSensor(transport, coral.Info{}, opts)

	s.Require().NoError(d.Connect(context.Background()))
	defer d.Disconnect()

	writes := transport.Writes()
	s.Equal([]byte{40, 200, 0}, writes[len(writes)-1])
}

func (s *DeviceTestSuite) TestConnectKindMismatch() {
	// GOAL: a peripheral reporting the wrong product is rejected and disconnected
	//
	// TEST SCENARIO: dual motor sim → SingleMotor.Connect → KindMismatchError → link closed
	tests := []struct {
		name     string
		product  protocol.ProductGroupDevice
		reported protocol.DeviceKind
	}{
		{"other coral product", protocol.ProductCoralDualMotor, protocol.KindDoubleMotor},
		{"non-coral product", protocol.ProductSpikePrime, protocol.KindUnknown},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			transport := s.transportFor(testutils.NewDeviceSim(tt.product))
			m := coral.NewSingleMotor(transport, coral.Info{}, s.options())

			err := m.Connect(context.Background())
			var mismatch *coral.KindMismatchError
			s.Require().ErrorAs(err, &mismatch, "Connect MUST fail with KindMismatchError")
			s.Equal(protocol.KindSingleMotor, mismatch.Expected)
			s.Equal(tt.reported, mismatch.Reported)
			s.Contains(err.Error(), "unexpected type '"+tt.reported.String()+"'")

			s.False(m.Connected())
			s.False(transport.Connected(), "transport MUST be disconnected after a failed connect")
			s.Equal(connection.StateClosed, m.Connection().State())
			s.Len(transport.Writes(), 1, "no notification request MAY follow a mismatch")
		})
	}
}

func (s *DeviceTestSuite) TestConnectFailsWhenNotificationsRejected() {
	sim := testutils.NewDeviceSim(protocol.ProductCoralJoystick).
		FailWith(protocol.OpDeviceNotificationRequest, uint8(protocol.ResponseNack))
	transport := s.transportFor(sim)
	c := coral.NewController(transport, coral.Info{}, s.options())

	err := c.Connect(context.Background())
	var status *protocol.StatusError
	s.Require().ErrorAs(err, &status)
	s.Equal(protocol.OpDeviceNotificationResponse, status.Type)
	s.False(c.Connected())
	s.False(transport.Connected())
}

func (s *DeviceTestSuite) TestConnectInfoTimeout() {
	sim := testutils.NewDeviceSim(protocol.ProductCoralJoystick).Ignore(protocol.OpInfoRequest)
	transport := s.transportFor(sim)
	opts := s.options()
	opts.RequestTimeout = 50 * time.Millisecond
	c := coral.NewController(transport, coral.Info{}, opts)

	err := c.Connect(context.Background())
	s.Require().ErrorIs(err, correlate.ErrTimeout)
	s.False(transport.Connected())
}

func (s *DeviceTestSuite) TestConnectFailsWhenTransportFails() {
	transport := s.transportFor(testutils.NewDeviceSim(protocol.ProductCoralJoystick)).
		FailConnect(errors.New("radio off"))
	c := coral.NewController(transport, coral.Info{}, s.options())

	err := c.Connect(context.Background())
	var phase *connection.PhaseError
	s.Require().ErrorAs(err, &phase)
	s.Equal(connection.PhaseConnect, phase.Phase)
}

func (s *DeviceTestSuite) TestConnectTwiceFails() {
	transport := s.transportFor(testutils.NewDeviceSim(protocol.ProductCoralJoystick))
	c := coral.NewController(transport, coral.Info{}, s.options())
	s.Require().NoError(c.Connect(context.Background()))
	defer c.Disconnect()

	s.ErrorIs(c.Connect(context.Background()), device.ErrAlreadyConnected)
}

func (s *DeviceTestSuite) TestCommandsBeforeConnectFail() {
	m := coral.NewSingleMotor(testutils.NewMockTransport(testAddress), coral.Info{}, s.options())
	s.ErrorIs(m.SetSpeed(context.Background(), 10), connection.ErrNotReady)
}

func (s *DeviceTestSuite) TestDuplicatePayloadsAreSuppressed() {
	// GOAL: the device re-publishes a sensor payload only when it changed
	//
	// TEST SCENARIO: joystick A → joystick A → joystick A' → two joystick events
	transport := s.transportFor(testutils.NewDeviceSim(protocol.ProductCoralJoystick))
	c := coral.NewController(transport, coral.Info{}, s.options())
	s.Require().NoError(c.Connect(context.Background()))
	defer c.Disconnect()

	var got []protocol.JoystickPayload
	cancel := c.On("joystick", func(e coral.DeviceEvent) {
		got = append(got, e.Payload.(protocol.JoystickPayload))
	})
	defer cancel()

	frame := testutils.NotificationFrame(testutils.JoystickRecord(10, -20, 90, -90))
	s.True(transport.Inject(frame))
	s.True(transport.Inject(frame))
	s.True(transport.Inject(testutils.NotificationFrame(testutils.JoystickRecord(11, -20, 90, -90))))

	s.Require().Len(got, 2, "identical payloads MUST be published once")
	s.Equal(int8(10), got[0].LeftPercent)
	s.Equal(int8(11), got[1].LeftPercent)
}

func (s *DeviceTestSuite) TestMotorPayloadsTrackedPerMask() {
	transport := s.transportFor(testutils.NewDeviceSim(protocol.ProductCoralDualMotor))
	m := coral.NewDoubleMotor(transport, coral.Info{}, s.options())
	s.Require().NoError(m.Connect(context.Background()))
	defer m.Disconnect()

	count := 0
	cancel := m.On("motor", func(coral.DeviceEvent) { count++ })
	defer cancel()

	left := testutils.MotorRecord(protocol.MotorLeft, protocol.MotorReady, 10, 0)
	right := testutils.MotorRecord(protocol.MotorRight, protocol.MotorReady, 10, 0)
	transport.Inject(testutils.NotificationFrame(left))
	transport.Inject(testutils.NotificationFrame(left))
	transport.Inject(testutils.NotificationFrame(right))
	transport.Inject(testutils.NotificationFrame(testutils.MotorRecord(protocol.MotorLeft, protocol.MotorReady, 11, 0)))

	s.Equal(3, count, "each motor mask MUST keep its own last payload")
}

func (s *DeviceTestSuite) TestMixedBatchPublishesOnlyChanges() {
	transport := s.transportFor(testutils.NewDeviceSim(protocol.ProductCoralJoystick))
	c := coral.NewController(transport, coral.Info{}, s.options())
	s.Require().NoError(c.Connect(context.Background()))
	defer c.Disconnect()

	var kinds []coral.EventKind
	cancel := c.Observe(func(e coral.DeviceEvent) { kinds = append(kinds, e.Kind) })
	defer cancel()

	joystick := testutils.JoystickRecord(0, 0, 0, 0)
	transport.Inject(testutils.NotificationFrame(joystick, testutils.ButtonRecord(false)))
	transport.Inject(testutils.NotificationFrame(joystick, testutils.ButtonRecord(true)))

	s.Equal([]coral.EventKind{"joystick", "button", "button"}, kinds)
}

func (s *DeviceTestSuite) TestEveryObserverReceivesEvents() {
	// GOAL: all registered observers run, in registration order, and cancel removes only its own
	//
	// TEST SCENARIO: four observers → button event → all four in order → cancel second → next event reaches three
	transport := s.transportFor(testutils.NewDeviceSim(protocol.ProductCoralJoystick))
	c := coral.NewController(transport, coral.Info{}, s.options())
	s.Require().NoError(c.Connect(context.Background()))
	defer c.Disconnect()

	var calls []int
	cancels := make([]func(), 4)
	for i := range cancels {
		cancels[i] = c.On("button", func(coral.DeviceEvent) { calls = append(calls, i) })
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	transport.Inject(testutils.NotificationFrame(testutils.ButtonRecord(true)))
	s.Equal([]int{0, 1, 2, 3}, calls, "every observer MUST run in registration order")

	cancels[1]()
	cancels[1]()
	calls = nil
	transport.Inject(testutils.NotificationFrame(testutils.ButtonRecord(false)))
	s.Equal([]int{0, 2, 3}, calls, "cancel MUST remove only its own observer")
}

func (s *DeviceTestSuite) TestDisconnectPublishesEventAndResetsFilter() {
	// GOAL: Disconnect emits one disconnect event and forgets last payloads
	//
	// TEST SCENARIO: payload → Disconnect → reconnect → same payload published again
	transport := s.transportFor(testutils.NewDeviceSim(protocol.ProductCoralJoystick))
	c := coral.NewController(transport, coral.Info{}, s.options())
	s.Require().NoError(c.Connect(context.Background()))

	count := 0
	cancel := c.On("button", func(coral.DeviceEvent) { count++ })
	defer cancel()

	frame := testutils.NotificationFrame(testutils.ButtonRecord(true))
	transport.Inject(frame)

	s.Require().NoError(c.Disconnect())
	s.False(c.Connected())
	s.False(transport.Connected())
	e := s.nextEvent(c.Events(), coral.EventDisconnect)
	s.NoError(e.Err, "caller-initiated disconnect MUST carry no cause")

	s.NoError(c.Disconnect(), "second Disconnect MUST be a no-op")
	select {
	case e := <-c.Events():
		s.Failf("no further events expected", "got %s", e.Kind)
	default:
	}

	s.Require().NoError(c.Connect(context.Background()))
	defer c.Disconnect()
	transport.Inject(frame)
	s.Equal(2, count, "payload MUST be republished after reconnect")
}

func (s *DeviceTestSuite) TestTransportDisconnect() {
	// GOAL: a link loss marks the device disconnected and publishes the cause
	//
	// TEST SCENARIO: connected → peripheral drops link → disconnect event with cause
	transport := s.transportFor(testutils.NewDeviceSim(protocol.ProductCoralSingleMotor))
	m := coral.NewSingleMotor(transport, coral.Info{}, s.options())
	s.Require().NoError(m.Connect(context.Background()))

	transport.DropLink()

	e := s.nextEvent(m.Events(), coral.EventDisconnect)
	s.ErrorIs(e.Err, device.ErrNotConnected)
	s.Eventually(func() bool { return !m.Connected() }, time.Second, 5*time.Millisecond)
	s.ErrorIs(m.Stop(context.Background()), connection.ErrNotReady)
}

func (s *DeviceTestSuite) TestCommonCommands() {
	sim := testutils.NewDeviceSim(protocol.ProductCoralColorSensor)
	transport := s.transportFor(sim)
	d := coral.NewColorSensor(transport, coral.Info{}, s.options())
	s.Require().NoError(d.Connect(context.Background()))
	defer d.Disconnect()
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want []byte
	}{
		{"light color", func() error { return d.SetLightColor(ctx, protocol.ColorRed) }, []byte{104, 9}},
		{"beep", func() error { return d.Beep(ctx, 440, 200) }, []byte{106, 0xB8, 0x01, 200, 0, 0, 0}},
		{"stop sound", func() error { return d.StopSound(ctx) }, []byte{108}},
		{"yaw face", func() error { return d.SetYawFace(ctx, 2) }, []byte{190, 2}},
		{"reset yaw", func() error { return d.ResetYawAxis(ctx, -90) }, []byte{192, 0xA6, 0xFF}},
		{"firmware update", func() error { return d.BeginFirmwareUpdate(ctx, 1024, 0xDEADBEEF) },
			[]byte{20, 0, 4, 0, 0, 0xEF, 0xBE, 0xAD, 0xDE}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Require().NoError(tt.call())
			writes := transport.Writes()
			s.Equal(tt.want, writes[len(writes)-1])
		})
	}
}

func (s *DeviceTestSuite) TestDeviceUUID() {
	transport := s.transportFor(testutils.NewDeviceSim(protocol.ProductCoralColorSensor))
	d := coral.NewColorSensor(transport, coral.Info{}, s.options())
	s.Require().NoError(d.Connect(context.Background()))
	defer d.Disconnect()

	uuid, err := d.DeviceUUID(context.Background())
	s.Require().NoError(err)
	s.Equal("c04a0102030405060708090a0b0c0d0e", uuid.String())
}

func (s *DeviceTestSuite) TestFirmwareUpdateNack() {
	sim := testutils.NewDeviceSim(protocol.ProductCoralColorSensor).
		FailWith(protocol.OpBeginFirmwareUpdateRequest, uint8(protocol.ResponseNack))
	d := coral.NewColorSensor(s.transportFor(sim), coral.Info{}, s.options())
	s.Require().NoError(d.Connect(context.Background()))
	defer d.Disconnect()

	err := d.BeginFirmwareUpdate(context.Background(), 10, 1)
	var status *protocol.StatusError
	s.Require().ErrorAs(err, &status)
	s.Equal("Nack", status.Name)
}

func (s *DeviceTestSuite) TestNewByKind() {
	transport := testutils.NewMockTransport(testAddress)
	tests := []struct {
		kind protocol.DeviceKind
		want any
	}{
		{protocol.KindSingleMotor, &coral.SingleMotor{}},
		{protocol.KindDoubleMotor, &coral.DoubleMotor{}},
		{protocol.KindColorSensor, &coral.ColorSensor{}},
		{protocol.KindController, &coral.Controller{}},
	}
	for _, tt := range tests {
		p, err := coral.New(tt.kind, transport, coral.Info{}, s.options())
		s.Require().NoError(err)
		s.IsType(tt.want, p)
		s.Equal(tt.kind, p.Kind())
	}

	_, err := coral.New(protocol.KindUnknown, transport, coral.Info{}, s.options())
	s.Error(err)
}

func TestDeviceTestSuite(t *testing.T) {
	suite.Run(t, new(DeviceTestSuite))
}
