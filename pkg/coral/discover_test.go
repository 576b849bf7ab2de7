package coral_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/internal/scanner"
	"github.com/srg/coral/internal/testutils"
	"github.com/srg/coral/pkg/coral"
)

func shortScan() *scanner.ScanOptions {
	return &scanner.ScanOptions{Duration: 30 * time.Millisecond}
}

func TestDiscoverBuildsHandlesByKind(t *testing.T) {
	// GOAL: Discover classifies advertisements and returns the matching handle type
	//
	// TEST SCENARIO: motor + controller + foreign ad → two handles sorted by address
	adapter := testutils.NewMockAdapter(
		testutils.NewAdvertisementBuilder().WithName("Motor").WithAddress("BB").WithCoral(1).Build(),
		testutils.NewAdvertisementBuilder().WithName("Stick").WithAddress("AA").WithCoral(3, byte(protocol.ColorRed)).Build(),
		testutils.NewAdvertisementBuilder().WithName("Headphones").WithAddress("CC").WithServices("180f").Build(),
	).
		WithTransport(testutils.NewMockTransport("AA")).
		WithTransport(testutils.NewMockTransport("BB"))

	found, err := coral.Discover(context.Background(), adapter, shortScan(), quietOptions())
	require.NoError(t, err)
	require.Len(t, found, 2)

	stick, ok := found[0].(*coral.Controller)
	require.True(t, ok, "AA MUST be a Controller, got %T", found[0])
	info := stick.Info()
	assert.Equal(t, "Stick", info.Name)
	assert.Equal(t, "AA", info.Address)
	require.NotNil(t, info.Color)
	assert.Equal(t, protocol.ColorRed, *info.Color)
	assert.Nil(t, info.Tag)
	assert.Equal(t, "0.0.0", info.Firmware.String(), "versions MUST be unknown until connect")

	_, ok = found[1].(*coral.DoubleMotor)
	assert.True(t, ok, "BB MUST be a DoubleMotor, got %T", found[1])
	assert.False(t, found[1].Connected())
}

func TestDiscoverSkipsUnreachableDevices(t *testing.T) {
	adapter := testutils.NewMockAdapter(
		testutils.NewAdvertisementBuilder().WithAddress("AA").WithCoral(2).Build(),
	)

	found, err := coral.Discover(context.Background(), adapter, shortScan(), quietOptions())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDiscoveryReportsOnceUntilDisconnect(t *testing.T) {
	// GOAL: a discovered device is not reported again until its handle disconnects
	//
	// TEST SCENARIO: scan → found → scan → nothing → connect+disconnect → scan → found again
	transport := testutils.NewMockTransport("AA").
		WithResponder(testutils.NewDeviceSim(protocol.ProductCoralJoystick).Respond)
	adapter := testutils.NewMockAdapter(
		testutils.NewAdvertisementBuilder().WithAddress("AA").WithCoral(3).Build(),
	).WithTransport(transport)

	discovery := coral.NewDiscovery(adapter, quietOptions())
	var found []coral.Peripheral
	collect := func(p coral.Peripheral) { found = append(found, p) }

	require.NoError(t, discovery.Run(context.Background(), shortScan(), collect))
	require.Len(t, found, 1)
	assert.Len(t, discovery.Known(), 1)

	require.NoError(t, discovery.Run(context.Background(), shortScan(), collect))
	assert.Len(t, found, 1, "known device MUST NOT be reported twice")

	p := found[0]
	require.NoError(t, p.Connect(context.Background()))
	require.NoError(t, p.Disconnect())
	assert.Empty(t, discovery.Known(), "disconnect MUST forget the device")

	require.NoError(t, discovery.Run(context.Background(), shortScan(), collect))
	assert.Len(t, found, 2, "device MUST be reported again after disconnect")
}

func TestDiscoverScanFailure(t *testing.T) {
	adapter := testutils.NewMockAdapter().FailScan(assert.AnError)

	_, err := coral.Discover(context.Background(), adapter, shortScan(), quietOptions())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestFindStopsAtRequestedAddress(t *testing.T) {
	// GOAL: Find returns as soon as the requested device advertises
	//
	// TEST SCENARIO: two ads, long scan window → handle for BB returned well before the window ends
	adapter := testutils.NewMockAdapter(
		testutils.NewAdvertisementBuilder().WithAddress("AA").WithCoral(3).Build(),
		testutils.NewAdvertisementBuilder().WithAddress("BB").WithCoral(0).Build(),
	).
		WithTransport(testutils.NewMockTransport("AA")).
		WithTransport(testutils.NewMockTransport("BB"))

	start := time.Now()
	p, err := coral.Find(context.Background(), adapter, "BB", &scanner.ScanOptions{Duration: 5 * time.Second}, quietOptions())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "Find MUST stop scanning once the device is seen")

	_, ok := p.(*coral.SingleMotor)
	assert.True(t, ok, "BB MUST be a SingleMotor, got %T", p)
	assert.Equal(t, "BB", p.Info().Address)
}

func TestFindReportsMissingDevice(t *testing.T) {
	adapter := testutils.NewMockAdapter(
		testutils.NewAdvertisementBuilder().WithAddress("AA").WithCoral(3).Build(),
	).WithTransport(testutils.NewMockTransport("AA"))

	_, err := coral.Find(context.Background(), adapter, "ZZ", shortScan(), quietOptions())
	assert.ErrorIs(t, err, coral.ErrNotFound)
}

func TestFindHonorsCallerContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := coral.Find(ctx, testutils.NewMockAdapter(), "AA", &scanner.ScanOptions{Duration: 5 * time.Second}, quietOptions())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
