package protocol

import "fmt"

// SensorKind is the discriminant byte that prefixes each record of a
// DeviceNotification body.
type SensorKind uint8

const (
	SensorHubInfo       SensorKind = 0
	SensorMotion        SensorKind = 1
	SensorTag           SensorKind = 3
	SensorButton        SensorKind = 4
	SensorMotor         SensorKind = 10
	SensorColor         SensorKind = 12
	SensorJoystick      SensorKind = 15
	SensorMotionGesture SensorKind = 16
	SensorMotorGesture  SensorKind = 17
)

var sensorKindNames = map[SensorKind]string{
	SensorHubInfo:       "battery",
	SensorMotion:        "motion-sensor",
	SensorTag:           "tag",
	SensorButton:        "button",
	SensorMotor:         "motor",
	SensorColor:         "color",
	SensorJoystick:      "joystick",
	SensorMotionGesture: "motion-gesture",
	SensorMotorGesture:  "motor-gesture",
}

func (k SensorKind) String() string {
	if name, ok := sensorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SensorKind(%d)", uint8(k))
}

// Known reports whether k is a recognized record discriminant.
func (k SensorKind) Known() bool {
	_, ok := sensorKindNames[k]
	return ok
}

// SensorPayload is one record of a notification body. All implementations
// are comparable value types, so == is field-for-field equality.
type SensorPayload interface {
	Kind() SensorKind
	sensorPayload()
}

type BatteryPayload struct {
	Level         uint8 `json:"level"`
	USBPowerState uint8 `json:"usbPowerState"`
}

type MotionPayload struct {
	Orientation    uint8 `json:"orientation"`
	YawFace        uint8 `json:"yawFace"`
	Yaw            int16 `json:"yaw"`
	Pitch          int16 `json:"pitch"`
	Roll           int16 `json:"roll"`
	AccelerometerX int16 `json:"accelerometerX"`
	AccelerometerY int16 `json:"accelerometerY"`
	AccelerometerZ int16 `json:"accelerometerZ"`
	GyroscopeX     int16 `json:"gyroscopeX"`
	GyroscopeY     int16 `json:"gyroscopeY"`
	GyroscopeZ     int16 `json:"gyroscopeZ"`
}

type TagPayload struct {
	Color Color  `json:"color"`
	ID    uint16 `json:"id"`
}

type ButtonPayload struct {
	Pressed bool `json:"pressed"`
}

type MotorPayload struct {
	Motors           MotorBits  `json:"motorBitMask"`
	State            MotorState `json:"state"`
	AbsolutePosition uint16     `json:"absolutePosition"`
	Power            int16      `json:"power"`
	Speed            int8       `json:"speed"`
	Position         int32      `json:"position"`
}

type ColorPayload struct {
	Color      Color  `json:"color"`
	Reflection uint8  `json:"reflection"`
	RawRed     uint16 `json:"rawRed"`
	RawGreen   uint16 `json:"rawGreen"`
	RawBlue    uint16 `json:"rawBlue"`
	Hue        uint16 `json:"hue"`
	Saturation uint8  `json:"saturation"`
	Value      uint8  `json:"value"`
}

type JoystickPayload struct {
	LeftPercent  int8  `json:"leftPercent"`
	RightPercent int8  `json:"rightPercent"`
	LeftAngle    int16 `json:"leftAngle"`
	RightAngle   int16 `json:"rightAngle"`
}

type MotionGesturePayload struct {
	Gesture int8 `json:"gesture"`
}

type MotorGesturePayload struct {
	Motors  MotorBits `json:"motorBitMask"`
	Gesture int8      `json:"gesture"`
}

func (BatteryPayload) Kind() SensorKind       { return SensorHubInfo }
func (MotionPayload) Kind() SensorKind        { return SensorMotion }
func (TagPayload) Kind() SensorKind           { return SensorTag }
func (ButtonPayload) Kind() SensorKind        { return SensorButton }
func (MotorPayload) Kind() SensorKind         { return SensorMotor }
func (ColorPayload) Kind() SensorKind         { return SensorColor }
func (JoystickPayload) Kind() SensorKind      { return SensorJoystick }
func (MotionGesturePayload) Kind() SensorKind { return SensorMotionGesture }
func (MotorGesturePayload) Kind() SensorKind  { return SensorMotorGesture }

func (BatteryPayload) sensorPayload()       {}
func (MotionPayload) sensorPayload()        {}
func (TagPayload) sensorPayload()           {}
func (ButtonPayload) sensorPayload()        {}
func (MotorPayload) sensorPayload()         {}
func (ColorPayload) sensorPayload()         {}
func (JoystickPayload) sensorPayload()      {}
func (MotionGesturePayload) sensorPayload() {}
func (MotorGesturePayload) sensorPayload()  {}

// embeddedJoystickSize is the joystick layout that may trail a hub info record
// without its own discriminant.
const embeddedJoystickSize = 6

// DecodeSensorStream parses the records packed into a notification body.
//
// Records are returned in arrival order. Parsing stops at the first unknown
// discriminant or truncated record; the records decoded so far are returned
// together with a *SensorDecodeError describing where parsing stopped.
func DecodeSensorStream(b []byte) ([]SensorPayload, error) {
	r := NewReader(b)
	var out []SensorPayload

	for r.Remaining() > 0 {
		off := r.Offset()
		d, _ := r.Uint8()
		kind := SensorKind(d)

		if kind == SensorHubInfo {
			battery, err := readBattery(r)
			if err != nil {
				return out, &SensorDecodeError{Offset: off, Discriminant: d, Err: err}
			}
			out = append(out, battery)

			if next, ok := r.Peek(); ok && r.Remaining() >= embeddedJoystickSize && !SensorKind(next).Known() {
				joystick, _ := readJoystick(r)
				out = append(out, joystick)
			}
			continue
		}

		decode, ok := sensorDecoders[kind]
		if !ok {
			return out, &SensorDecodeError{Offset: off, Discriminant: d, UnknownRecord: true}
		}
		p, err := decode(r)
		if err != nil {
			return out, &SensorDecodeError{Offset: off, Discriminant: d, Err: err}
		}
		out = append(out, p)
	}
	return out, nil
}

var sensorDecoders = map[SensorKind]func(*Reader) (SensorPayload, error){
	SensorMotion:        readMotion,
	SensorTag:           readTag,
	SensorButton:        readButton,
	SensorMotor:         readMotor,
	SensorColor:         readColor,
	SensorJoystick:      func(r *Reader) (SensorPayload, error) { return readJoystick(r) },
	SensorMotionGesture: readMotionGesture,
	SensorMotorGesture:  readMotorGesture,
}

// fieldReader threads the first read error through a sequence of reads.
type fieldReader struct {
	r   *Reader
	err error
}

func (f *fieldReader) u8() uint8 {
	if f.err != nil {
		return 0
	}
	var v uint8
	v, f.err = f.r.Uint8()
	return v
}

func (f *fieldReader) i8() int8 {
	if f.err != nil {
		return 0
	}
	var v int8
	v, f.err = f.r.Int8()
	return v
}

func (f *fieldReader) u16() uint16 {
	if f.err != nil {
		return 0
	}
	var v uint16
	v, f.err = f.r.Uint16()
	return v
}

func (f *fieldReader) i16() int16 {
	if f.err != nil {
		return 0
	}
	var v int16
	v, f.err = f.r.Int16()
	return v
}

func (f *fieldReader) i32() int32 {
	if f.err != nil {
		return 0
	}
	var v int32
	v, f.err = f.r.Int32()
	return v
}

func readBattery(r *Reader) (BatteryPayload, error) {
	f := &fieldReader{r: r}
	p := BatteryPayload{Level: f.u8(), USBPowerState: f.u8()}
	return p, f.err
}

func readJoystick(r *Reader) (JoystickPayload, error) {
	f := &fieldReader{r: r}
	p := JoystickPayload{
		LeftPercent:  f.i8(),
		RightPercent: f.i8(),
		LeftAngle:    f.i16(),
		RightAngle:   f.i16(),
	}
	return p, f.err
}

func readMotion(r *Reader) (SensorPayload, error) {
	f := &fieldReader{r: r}
	p := MotionPayload{
		Orientation:    f.u8(),
		YawFace:        f.u8(),
		Yaw:            f.i16(),
		Pitch:          f.i16(),
		Roll:           f.i16(),
		AccelerometerX: f.i16(),
		AccelerometerY: f.i16(),
		AccelerometerZ: f.i16(),
		GyroscopeX:     f.i16(),
		GyroscopeY:     f.i16(),
		GyroscopeZ:     f.i16(),
	}
	return p, f.err
}

func readTag(r *Reader) (SensorPayload, error) {
	f := &fieldReader{r: r}
	p := TagPayload{Color: Color(f.i8()), ID: f.u16()}
	return p, f.err
}

func readButton(r *Reader) (SensorPayload, error) {
	f := &fieldReader{r: r}
	p := ButtonPayload{Pressed: f.u8() == 1}
	return p, f.err
}

func readMotor(r *Reader) (SensorPayload, error) {
	f := &fieldReader{r: r}
	p := MotorPayload{
		Motors:           MotorBits(f.u8()),
		State:            MotorState(f.u8()),
		AbsolutePosition: f.u16(),
		Power:            f.i16(),
		Speed:            f.i8(),
		Position:         f.i32(),
	}
	return p, f.err
}

func readColor(r *Reader) (SensorPayload, error) {
	f := &fieldReader{r: r}
	p := ColorPayload{
		Color:      Color(f.i8()),
		Reflection: f.u8(),
		RawRed:     f.u16(),
		RawGreen:   f.u16(),
		RawBlue:    f.u16(),
		Hue:        f.u16(),
		Saturation: f.u8(),
		Value:      f.u8(),
	}
	return p, f.err
}

func readMotionGesture(r *Reader) (SensorPayload, error) {
	f := &fieldReader{r: r}
	p := MotionGesturePayload{Gesture: f.i8()}
	return p, f.err
}

func readMotorGesture(r *Reader) (SensorPayload, error) {
	f := &fieldReader{r: r}
	p := MotorGesturePayload{Motors: MotorBits(f.u8()), Gesture: f.i8()}
	return p, f.err
}
