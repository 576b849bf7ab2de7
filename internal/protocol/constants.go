package protocol

import "time"

// GATT identifiers of the Coral RPC service.
const (
	ServiceUUID      = "0000fd02-0000-1000-8000-00805f9b34fb"
	WriteCharUUID    = "0000fd02-0001-1000-8000-00805f9b34fb"
	NotifyCharUUID   = "0000fd02-0002-1000-8000-00805f9b34fb"
	ServiceShortUUID = "fd02"
)

// Advertisement layout constants.
const (
	CompanyID           uint16 = 0x0397
	ManufacturerMarker  byte   = 0x02
	deviceKindMask      byte   = 0x7f
	MinManufacturerData        = 4
)

const (
	// DefaultNotificationInterval is the sensor streaming period requested after connect.
	DefaultNotificationInterval = 50 * time.Millisecond

	// DefaultRequestTimeout bounds how long a request waits for its reply.
	DefaultRequestTimeout = 30 * time.Second
)
