package goble

import (
	"github.com/go-ble/ble"

	"github.com/srg/coral/internal/device"
)

// advertisement adapts ble.Advertisement to device.Advertisement.
type advertisement struct {
	adv ble.Advertisement
}

func newAdvertisement(adv ble.Advertisement) device.Advertisement {
	return &advertisement{adv: adv}
}

func (a *advertisement) LocalName() string        { return a.adv.LocalName() }
func (a *advertisement) ManufacturerData() []byte { return a.adv.ManufacturerData() }
func (a *advertisement) Connectable() bool        { return a.adv.Connectable() }
func (a *advertisement) RSSI() int                { return a.adv.RSSI() }
func (a *advertisement) Addr() string             { return a.adv.Addr().String() }

// Services merges the complete and overflow service lists.
func (a *advertisement) Services() []string {
	services, overflow := a.adv.Services(), a.adv.OverflowService()
	out := make([]string, 0, len(services)+len(overflow))
	for _, u := range services {
		out = append(out, u.String())
	}
	for _, u := range overflow {
		out = append(out, u.String())
	}
	return out
}
