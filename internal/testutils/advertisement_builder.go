package testutils

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
)

// MockAdvertisement is a plain device.Advertisement.
type MockAdvertisement struct {
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	Rssi          int      `json:"rssi"`
	ServiceList   []string `json:"services"`
	Manufacturer  []byte   `json:"manufacturer_data"`
	IsConnectable bool     `json:"connectable"`
}

func (a *MockAdvertisement) LocalName() string        { return a.Name }
func (a *MockAdvertisement) ManufacturerData() []byte { return a.Manufacturer }
func (a *MockAdvertisement) Services() []string       { return a.ServiceList }
func (a *MockAdvertisement) Connectable() bool        { return a.IsConnectable }
func (a *MockAdvertisement) RSSI() int                { return a.Rssi }
func (a *MockAdvertisement) Addr() string             { return a.Address }

// AdvertisementBuilder builds MockAdvertisement values with a fluent API.
type AdvertisementBuilder struct {
	adv MockAdvertisement
}

// NewAdvertisementBuilder returns a builder for a connectable advertisement.
func NewAdvertisementBuilder() *AdvertisementBuilder {
	return &AdvertisementBuilder{adv: MockAdvertisement{IsConnectable: true}}
}

// WithName sets the local name.
func (b *AdvertisementBuilder) WithName(name string) *AdvertisementBuilder {
	b.adv.Name = name
	return b
}

// WithAddress sets the device address.
func (b *AdvertisementBuilder) WithAddress(addr string) *AdvertisementBuilder {
	b.adv.Address = addr
	return b
}

// WithRSSI sets the signal strength.
func (b *AdvertisementBuilder) WithRSSI(rssi int) *AdvertisementBuilder {
	b.adv.Rssi = rssi
	return b
}

// WithServices adds service UUIDs in any notation.
func (b *AdvertisementBuilder) WithServices(uuids ...string) *AdvertisementBuilder {
	b.adv.ServiceList = append(b.adv.ServiceList, uuids...)
	return b
}

// WithManufacturerData sets the raw manufacturer data, company id included.
func (b *AdvertisementBuilder) WithManufacturerData(data []byte) *AdvertisementBuilder {
	b.adv.Manufacturer = data
	return b
}

// WithConnectable sets the connectable flag.
func (b *AdvertisementBuilder) WithConnectable(c bool) *AdvertisementBuilder {
	b.adv.IsConnectable = c
	return b
}

// WithCoral advertises the Coral service and manufacturer data for the
// device-kind index. Extra bytes (color, tag) are appended verbatim.
func (b *AdvertisementBuilder) WithCoral(kindIndex uint8, extra ...byte) *AdvertisementBuilder {
	data := make([]byte, 2, 4+len(extra))
	binary.LittleEndian.PutUint16(data, protocol.CompanyID)
	data = append(data, protocol.ManufacturerMarker, kindIndex)
	data = append(data, extra...)
	return b.WithServices(protocol.ServiceShortUUID).WithManufacturerData(data)
}

// FromJSON fills the builder from a JSON object using MockAdvertisement's
// field names. The format string is expanded with args first.
func (b *AdvertisementBuilder) FromJSON(jsonStrFmt string, args ...any) *AdvertisementBuilder {
	raw := fmt.Sprintf(jsonStrFmt, args...)
	if err := json.Unmarshal([]byte(raw), &b.adv); err != nil {
		panic(fmt.Sprintf("testutils: invalid advertisement JSON: %v", err))
	}
	return b
}

// Build returns the advertisement.
func (b *AdvertisementBuilder) Build() device.Advertisement {
	adv := b.adv
	return &adv
}
