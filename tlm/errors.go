package tlm

import "fmt"

// ProtocolError reports a phase sequence or a state that the handshake does
// not allow. It is raised with panic and never recovered inside the bridge.
type ProtocolError struct {
	Where string
	What  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: protocol violation: %s", e.Where, e.What)
}

// Violation panics with a ProtocolError.
func Violation(where string, format string, args ...interface{}) {
	panic(&ProtocolError{
		Where: where,
		What:  fmt.Sprintf(format, args...),
	})
}
