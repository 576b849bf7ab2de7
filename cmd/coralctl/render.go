package main

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/coral/internal/protocol"
)

// fields is a JSON object that keeps struct field order when printed.
type fields = *orderedmap.OrderedMap[string, any]

func toFields(v any) (fields, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	om := orderedmap.New[string, any]()
	if err := json.Unmarshal(data, om); err != nil {
		return nil, fmt.Errorf("render %T: %w", v, err)
	}
	return om, nil
}

// prefixed returns a map starting with key=value followed by rest.
func prefixed(key string, value any, rest fields) fields {
	out := orderedmap.New[string, any]()
	out.Set(key, value)
	for pair := rest.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}

// describePayload renders a sensor record with its kind first and enum
// values by name.
func describePayload(p protocol.SensorPayload) (fields, error) {
	om, err := toFields(p)
	if err != nil {
		return nil, err
	}
	switch v := p.(type) {
	case protocol.MotorPayload:
		om.Set("motorBitMask", v.Motors.String())
		om.Set("state", v.State.String())
	case protocol.MotorGesturePayload:
		om.Set("motorBitMask", v.Motors.String())
	case protocol.TagPayload:
		om.Set("color", v.Color.String())
	case protocol.ColorPayload:
		om.Set("color", v.Color.String())
	}
	return prefixed("kind", p.Kind().String(), om), nil
}

// describeMessage renders a decoded inbound frame.
func describeMessage(msg protocol.Message) (fields, error) {
	om, err := toFields(msg)
	if err != nil {
		return nil, err
	}

	switch v := msg.(type) {
	case protocol.InfoResponse:
		om.Set("rpc", v.RPC.String())
		om.Set("firmware", v.Firmware.String())
		om.Set("bootloader", v.Bootloader.String())
		om.Set("productGroupDevice", v.ProductGroupDevice.String())
		om.Set("deviceKind", protocol.KindOfProduct(v.ProductGroupDevice).String())
	case protocol.DeviceUUIDResponse:
		om.Set("uuid", v.String())
	case protocol.DeviceNotificationResponse:
		om.Set("status", v.Status.String())
	case protocol.BeginFirmwareUpdateResponse:
		om.Set("status", v.Status.String())
	case protocol.MotorResult:
		om.Set("motorBitMask", v.Motors.String())
		om.Set("status", v.Status.String())
	case protocol.CommandResult:
		om.Set("status", v.Status.String())
	case protocol.Notification:
		records := make([]any, 0, len(v.Payloads))
		for _, p := range v.Payloads {
			rec, err := describePayload(p)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		om.Set("deviceData", records)
		if v.StreamErr != nil {
			om.Set("streamError", v.StreamErr.Error())
		}
	}

	out := prefixed("opcode", int(msg.Type()), om)
	return prefixed("type", msg.Type().String(), out), nil
}
