package scanner

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/srg/coral/internal/protocol"
)

// UnknownCompanyID asks ParseManufacturerData to read the company identifier
// from the first two bytes of the payload.
const UnknownCompanyID uint16 = 0

// ManufacturerDataParser parses the manufacturer data of one company. The
// input includes the two company identifier bytes.
type ManufacturerDataParser func([]byte) (any, error)

// VendorInfo is implemented by parsed manufacturer data.
type VendorInfo interface {
	VendorID() uint16
	VendorName() string
}

var manufacturerDataParsers = map[uint16]ManufacturerDataParser{
	protocol.CompanyID: parseCoralManufacturerData,
}

// ParseManufacturerData parses raw manufacturer data for companyID. With
// UnknownCompanyID the identifier is read little-endian first, then
// big-endian, since some firmware emits it byte-swapped.
//
// Unknown companies yield (nil, nil).
func ParseManufacturerData(companyID uint16, raw []byte) (any, error) {
	if companyID == UnknownCompanyID {
		if len(raw) < 2 {
			return nil, fmt.Errorf("manufacturer data too short: %d bytes", len(raw))
		}
		companyID = binary.LittleEndian.Uint16(raw)
		if _, ok := manufacturerDataParsers[companyID]; !ok {
			companyID = binary.BigEndian.Uint16(raw)
		}
	}

	parser, ok := manufacturerDataParsers[companyID]
	if !ok {
		return nil, nil
	}
	return parser(raw)
}

// IsParsableManufacturerData reports whether a parser exists for companyID.
func IsParsableManufacturerData(companyID uint16) bool {
	_, ok := manufacturerDataParsers[companyID]
	return ok
}

// CoralAdvertisement is the decoded Coral manufacturer data.
//
// Layout after the company identifier: marker 0x02, hardware kind byte
// (low seven bits index the device kind), then an optional signed color byte
// and an optional little-endian tag id.
type CoralAdvertisement struct {
	Kind      protocol.DeviceKind `json:"kind"`
	KindIndex uint8               `json:"kind_index"`
	Color     *protocol.Color     `json:"color,omitempty"`
	Tag       *uint16             `json:"tag,omitempty"`
}

func (*CoralAdvertisement) VendorID() uint16   { return protocol.CompanyID }
func (*CoralAdvertisement) VendorName() string { return "LEGO" }

// ErrNotCoral is returned when manufacturer data carries the LEGO company id
// but not a recognised Coral payload.
var ErrNotCoral = errors.New("not a coral advertisement")

func parseCoralManufacturerData(raw []byte) (any, error) {
	if len(raw) < protocol.MinManufacturerData {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotCoral, len(raw))
	}
	payload := raw[2:]
	if payload[0] != protocol.ManufacturerMarker {
		return nil, fmt.Errorf("%w: marker 0x%02X", ErrNotCoral, payload[0])
	}

	adv := &CoralAdvertisement{
		KindIndex: payload[1] & 0x7f,
		Kind:      protocol.KindOfAdvertisedIndex(payload[1]),
	}
	if adv.Kind == protocol.KindUnknown {
		return nil, fmt.Errorf("%w: hardware kind %d", ErrNotCoral, adv.KindIndex)
	}
	if len(payload) >= 3 {
		c := protocol.Color(int8(payload[2]))
		adv.Color = &c
	}
	if len(payload) >= 5 {
		tag := binary.LittleEndian.Uint16(payload[3:5])
		adv.Tag = &tag
	}
	return adv, nil
}

// ParseCoral decodes Coral manufacturer data, accepting the company id in
// either byte order. It reports false for anything else.
func ParseCoral(raw []byte) (*CoralAdvertisement, bool) {
	if len(raw) < 2 {
		return nil, false
	}
	if binary.LittleEndian.Uint16(raw) != protocol.CompanyID && binary.BigEndian.Uint16(raw) != protocol.CompanyID {
		return nil, false
	}
	parsed, err := parseCoralManufacturerData(raw)
	if err != nil {
		return nil, false
	}
	return parsed.(*CoralAdvertisement), true
}
