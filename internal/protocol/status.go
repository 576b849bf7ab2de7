package protocol

// CheckStatus converts a decoded reply into a command outcome.
//
// Administrative responses must carry Ack; actuator results must carry
// Completed. Anything else, including values outside the enum, yields a
// *StatusError. Replies without a status field always pass.
func CheckStatus(msg Message) error {
	switch m := msg.(type) {
	case DeviceNotificationResponse:
		return checkResponse(m.Type(), m.Status)
	case BeginFirmwareUpdateResponse:
		return checkResponse(m.Type(), m.Status)
	case MotorResult:
		return checkCommand(m.Type(), m.Status)
	case CommandResult:
		return checkCommand(m.Type(), m.Status)
	default:
		return nil
	}
}

func checkResponse(t MessageType, s ResponseStatus) error {
	if s == ResponseAck {
		return nil
	}
	e := &StatusError{Type: t, Status: uint8(s)}
	if s == ResponseNack {
		e.Name = s.String()
	}
	return e
}

func checkCommand(t MessageType, s CommandStatus) error {
	if s == StatusCompleted {
		return nil
	}
	e := &StatusError{Type: t, Status: uint8(s)}
	if s == StatusInterrupted || s == StatusNack {
		e.Name = s.String()
	}
	return e
}
