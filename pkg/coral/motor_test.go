package coral_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/internal/testutils"
	"github.com/srg/coral/pkg/coral"
)

func quietOptions() *coral.Options {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	opts := coral.DefaultOptions()
	opts.Logger = logger
	return opts
}

// connected returns a connected handle built by mk and the transport recording its writes.
func connected[T coral.Peripheral](t *testing.T, product protocol.ProductGroupDevice, mk func(*testutils.MockTransport) T) (T, *testutils.MockTransport) {
	t.Helper()
	transport := testutils.NewMockTransport(testAddress).WithResponder(testutils.NewDeviceSim(product).Respond)
	d := mk(transport)
	require.NoError(t, d.Connect(context.Background()), "device MUST connect")
	t.Cleanup(func() { _ = d.Disconnect() })
	return d, transport
}

func TestClampSpeed(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{150.4, 100},
		{-170, -100},
		{-22.6, -23},
		{99.6, 100},
		{-0.4, 0},
		{250, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, coral.ClampSpeed(tt.in), "ClampSpeed(%v)", tt.in)
	}
}

func TestClampAcceleration(t *testing.T) {
	assert.Equal(t, 0, coral.ClampAcceleration(-5))
	assert.Equal(t, 12, coral.ClampAcceleration(12.4))
	assert.Equal(t, 255, coral.ClampAcceleration(300))
}

func TestSingleMotorCommands(t *testing.T) {
	// GOAL: every single motor command targets the left port with clamped values
	//
	// TEST SCENARIO: connected single motor → call → last written frame matches layout
	m, transport := connected(t, protocol.ProductCoralSingleMotor, func(tr *testutils.MockTransport) *coral.SingleMotor {
		return coral.NewSingleMotor(tr, coral.Info{}, quietOptions())
	})
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want []byte
	}{
		{"speed clamps high", func() error { return m.SetSpeed(ctx, 150.4) }, []byte{140, 1, 100}},
		{"speed clamps low", func() error { return m.SetSpeed(ctx, -170) }, []byte{140, 1, 0x9C}},
		{"power rounds", func() error { return m.SetPower(ctx, -22.6) }, []byte{132, 1, 0xE9, 0xFF}},
		{"start at power", func() error { return m.StartAtPower(ctx, 40) }, []byte{132, 1, 40, 0}},
		{"start ccw", func() error { return m.Start(ctx, protocol.DirectionCcw) }, []byte{122, 1, 1}},
		{"degrees", func() error { return m.RunForDegrees(ctx, 360, protocol.DirectionLongest) },
			[]byte{124, 1, 0x68, 0x01, 0, 0, 3}},
		{"time", func() error { return m.RunForTime(ctx, 1500, protocol.DirectionCw) },
			[]byte{126, 1, 0xDC, 0x05, 0, 0, 0}},
		{"absolute position", func() error { return m.RunToAbsolutePosition(ctx, 270, protocol.DirectionShortest) },
			[]byte{128, 1, 0x0E, 0x01, 2}},
		{"relative position", func() error { return m.RunToRelativePosition(ctx, -45) },
			[]byte{130, 1, 0xD3, 0xFF, 0xFF, 0xFF}},
		{"reset relative position", func() error { return m.ResetRelativePosition(ctx, 1024) },
			[]byte{120, 1, 0, 4, 0, 0}},
		{"stop", func() error { return m.Stop(ctx) }, []byte{138, 1}},
		{"end state", func() error { return m.SetEndState(ctx, protocol.EndStateHold) }, []byte{142, 1, 2}},
		{"acceleration clamps", func() error { return m.SetAcceleration(ctx, 300, -5) }, []byte{144, 1, 255, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			writes := transport.Writes()
			assert.Equal(t, tt.want, writes[len(writes)-1])
		})
	}
}

func TestDoubleMotorCommands(t *testing.T) {
	m, transport := connected(t, protocol.ProductCoralDualMotor, func(tr *testutils.MockTransport) *coral.DoubleMotor {
		return coral.NewDoubleMotor(tr, coral.Info{}, quietOptions())
	})
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want []byte
	}{
		{"port speed", func() error { return m.SetSpeed(ctx, protocol.MotorRight, 55) }, []byte{140, 2, 55}},
		{"port power", func() error { return m.SetPower(ctx, protocol.MotorBoth, -120) }, []byte{132, 3, 0x9C, 0xFF}},
		{"start", func() error { return m.Start(ctx, protocol.MotorLeft, protocol.DirectionCw) }, []byte{122, 1, 0}},
		{"degrees", func() error { return m.RunForDegrees(ctx, protocol.MotorRight, 90, protocol.DirectionCcw) },
			[]byte{124, 2, 90, 0, 0, 0, 1}},
		{"time", func() error { return m.RunForTime(ctx, protocol.MotorLeft, 250, protocol.DirectionCw) },
			[]byte{126, 1, 250, 0, 0, 0, 0}},
		{"absolute", func() error { return m.RunToAbsolutePosition(ctx, protocol.MotorRight, 10, protocol.DirectionShortest) },
			[]byte{128, 2, 10, 0, 2}},
		{"relative", func() error { return m.RunToRelativePosition(ctx, protocol.MotorLeft, 1) },
			[]byte{130, 1, 1, 0, 0, 0}},
		{"reset", func() error { return m.ResetRelativePosition(ctx, protocol.MotorBoth, 0) },
			[]byte{120, 3, 0, 0, 0, 0}},
		{"stop both", func() error { return m.Stop(ctx, protocol.MotorBoth) }, []byte{138, 3}},
		{"end state", func() error { return m.SetEndState(ctx, protocol.MotorLeft, protocol.EndStateBrake) }, []byte{142, 1, 1}},
		{"acceleration", func() error { return m.SetAcceleration(ctx, protocol.MotorRight, 10, 20) }, []byte{144, 2, 10, 20}},
		{"start moving", func() error { return m.StartMoving(ctx, protocol.MoveBackward) }, []byte{150, 1}},
		{"stop moving", func() error { return m.StopMoving(ctx) }, []byte{162}},
		{"move for time", func() error { return m.MoveForTime(ctx, 2000, protocol.MoveForward) },
			[]byte{152, 0xD0, 0x07, 0, 0, 0}},
		{"turn", func() error { return m.Turn(ctx, 90, protocol.MoveRight) }, []byte{154, 90, 0, 0, 0, 3}},
		{"move for distance", func() error { return m.MoveForDistance(ctx, -360, protocol.MoveBackward) },
			[]byte{154, 0x98, 0xFE, 0xFF, 0xFF, 1}},
		{"tank clamps", func() error { return m.MoveTank(ctx, 120.6, -0.4) }, []byte{156, 100, 0}},
		{"tank for time", func() error { return m.MoveTankForTime(ctx, 50, -50, 1000) },
			[]byte{158, 0xE8, 0x03, 0, 0, 50, 0xCE}},
		{"tank for degrees", func() error { return m.MoveTankForDegrees(ctx, 10, 20, 90) },
			[]byte{160, 90, 0, 0, 0, 10, 20}},
		{"movement speed clamps", func() error { return m.SetMovementSpeed(ctx, 250) }, []byte{164, 100}},
		{"movement end state", func() error { return m.SetMovementEndState(ctx, protocol.EndStateCoast) }, []byte{166, 0}},
		{"movement acceleration", func() error { return m.SetMovementAcceleration(ctx, 12.4, 300) }, []byte{168, 12, 255}},
		{"steering clamps", func() error { return m.SetMovementSteering(ctx, -101) }, []byte{170, 0x9C}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			writes := transport.Writes()
			assert.Equal(t, tt.want, writes[len(writes)-1])
		})
	}
}

func TestDoubleMotorPairsAreSequential(t *testing.T) {
	// GOAL: the paired setters send left then right as two requests
	//
	// TEST SCENARIO: SetSpeeds(10, -10) → {140,1,10} then {140,2,-10}
	m, transport := connected(t, protocol.ProductCoralDualMotor, func(tr *testutils.MockTransport) *coral.DoubleMotor {
		return coral.NewDoubleMotor(tr, coral.Info{}, quietOptions())
	})
	ctx := context.Background()

	before := len(transport.Writes())
	require.NoError(t, m.SetSpeeds(ctx, 10, -10))
	require.NoError(t, m.SetPowers(ctx, 101, 5))

	writes := transport.Writes()[before:]
	assert.Equal(t, [][]byte{
		{140, 1, 10},
		{140, 2, 0xF6},
		{132, 1, 100, 0},
		{132, 2, 5, 0},
	}, writes)
}

func TestMotorCommandFailureSurfacesStatus(t *testing.T) {
	sim := testutils.NewDeviceSim(protocol.ProductCoralSingleMotor).
		FailWith(protocol.OpMotorRunCommand, uint8(protocol.StatusInterrupted))
	transport := testutils.NewMockTransport(testAddress).WithResponder(sim.Respond)
	m := coral.NewSingleMotor(transport, coral.Info{}, quietOptions())
	require.NoError(t, m.Connect(context.Background()))
	defer m.Disconnect()

	err := m.Start(context.Background(), protocol.DirectionCw)
	var status *protocol.StatusError
	require.ErrorAs(t, err, &status, "Interrupted MUST surface as a StatusError")
	assert.Equal(t, "Interrupted", status.Name)
}
