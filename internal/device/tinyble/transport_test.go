package tinyble

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
)

type fakeGATT struct {
	mu       sync.Mutex
	writes   [][]byte
	writeErr error
	notify   func([]byte)
	enables  int
}

func (f *fakeGATT) WriteWithoutResponse(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (f *fakeGATT) EnableNotifications(callback func(buf []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enables++
	f.notify = callback
	return nil
}

func TestCharacteristicWritesWithoutResponse(t *testing.T) {
	// GOAL: every write goes through write-without-response regardless of the flag
	//
	// TEST SCENARIO: write with and without response → both frames land on WriteWithoutResponse
	gatt := &fakeGATT{}
	c := &characteristic{uuid: protocol.WriteCharUUID, char: gatt}

	require.NoError(t, c.Write([]byte{140, 1, 0xEF}, true))
	require.NoError(t, c.Write([]byte{0}, false))

	assert.Equal(t, [][]byte{{140, 1, 0xEF}, {0}}, gatt.writes)
	assert.Equal(t, protocol.WriteCharUUID, c.UUID())
}

func TestCharacteristicWriteErrorsAreNormalized(t *testing.T) {
	gatt := &fakeGATT{writeErr: errors.New("org.bluez.Error.NotReady: Adapter Not Powered")}
	c := &characteristic{uuid: protocol.WriteCharUUID, char: gatt}

	err := c.Write([]byte{0}, true)
	assert.ErrorIs(t, err, device.ErrBluetoothOff, "stack errors MUST map onto the shared sentinels")
}

func TestCharacteristicSubscribeCopiesBuffers(t *testing.T) {
	// GOAL: handlers own the bytes they receive; the stack reuses its buffer
	//
	// TEST SCENARIO: subscribe → stack delivers → stack overwrites its buffer → handler copy unchanged → unsubscribe clears callback
	gatt := &fakeGATT{}
	c := &characteristic{uuid: protocol.NotifyCharUUID, char: gatt}

	var got [][]byte
	require.NoError(t, c.Subscribe(func(b []byte) { got = append(got, b) }))

	buf := []byte{1, 0, 0}
	gatt.notify(buf)
	buf[0] = 0xFF

	require.Len(t, got, 1)
	assert.Equal(t, []byte{1, 0, 0}, got[0], "delivered frame MUST NOT alias the stack buffer")

	require.NoError(t, c.Unsubscribe())
	assert.Nil(t, gatt.notify, "unsubscribe MUST clear the callback")
	assert.Equal(t, 2, gatt.enables)
}
