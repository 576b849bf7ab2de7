package protocol

import "strconv"

// Key identifies a logical request channel: the command opcode plus, for
// per-motor commands, the motor mask. Replies are matched to requests by Key.
type Key struct {
	Type      MessageType
	Motors    MotorBits
	HasMotors bool
}

// String renders the key as the opcode name followed by the mask,
// e.g. "MotorSetSpeedCommand1".
func (k Key) String() string {
	if !k.HasMotors {
		return k.Type.String()
	}
	return k.Type.String() + strconv.Itoa(int(k.Motors))
}

// RequestKey returns the key a command's reply will arrive under.
func RequestKey(cmd Command) Key {
	k := Key{Type: cmd.Type()}
	schema := commandSchemas[k.Type]
	values := cmd.Values()
	if len(schema) > 0 && schema[0].Name == motorsField && len(values) > 0 {
		k.Motors = MotorBits(values[0])
		k.HasMotors = true
	}
	return k
}

// ResponseKey maps an inbound message to the key of the request it answers.
// Messages that answer nothing keep their own opcode.
func ResponseKey(msg Message) Key {
	t := msg.Type()
	if req, ok := RequestFor(t); ok {
		t = req
	}
	k := Key{Type: t}
	if m, ok := msg.(interface{ Target() MotorBits }); ok {
		k.Motors = m.Target()
		k.HasMotors = true
	}
	return k
}
