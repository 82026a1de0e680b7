package chips

import "fmt"

// IllFormedError reports a register write that addresses a channel or
// operator slot that does not exist. The write is ignored.
type IllFormedError struct {
	Port   int
	Addr   byte
	Data   byte
	Reason string
}

func (e *IllFormedError) Error() string {
	return fmt.Sprintf("ill-formed YM2612 write %d:%02X=%02X: %s", e.Port, e.Addr, e.Data, e.Reason)
}
