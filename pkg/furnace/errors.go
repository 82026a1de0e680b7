package furnace

import (
	"errors"
	"fmt"
)

var (
	// ErrUnterminatedPattern is returned when pattern data has no 0xFF terminator
	ErrUnterminatedPattern = errors.New("pattern data is not terminated")
	// ErrNotModule is returned when data is not a Furnace module
	ErrNotModule = errors.New("not a Furnace module")
)

// TooManyOrdersError is returned when the song needs more than 256 orders
type TooManyOrdersError struct {
	Orders        int
	PatternLength int
}

func (e *TooManyOrdersError) Error() string {
	return fmt.Sprintf("song needs %d orders, Furnace allows %d: raise the pattern length (now %d) or shorten the input",
		e.Orders, MaxOrders, e.PatternLength)
}

// Is lets errors.Is match ErrTooManyOrders
func (e *TooManyOrdersError) Is(target error) bool {
	return target == ErrTooManyOrders
}

// ErrTooManyOrders matches any *TooManyOrdersError
var ErrTooManyOrders = errors.New("too many orders")

// TooManyInstrumentsError is returned when the song needs more than 256 instruments
type TooManyInstrumentsError struct {
	Count int
}

func (e *TooManyInstrumentsError) Error() string {
	return fmt.Sprintf("song needs %d instruments, Furnace allows %d", e.Count, MaxInstruments)
}

// BrokenPointerError reports a pointer that does not land on the expected chunk
type BrokenPointerError struct {
	Kind string
	Idx  int
	Ptr  int
	Want string
}

func (e *BrokenPointerError) Error() string {
	return fmt.Sprintf("%s %d at 0x%X: expected %q chunk", e.Kind, e.Idx, e.Ptr, e.Want)
}
