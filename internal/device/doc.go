// Package device defines the Bluetooth LE transport contract the Coral driver
// consumes, together with the error vocabulary shared by every backend.
//
// A backend (go-ble, tinygo bluetooth, or a test double) implements Adapter.
// The connection layer only ever sees Transport and Characteristic: connect,
// discover the write and notify characteristics, subscribe, write, and
// disconnect.
package device
