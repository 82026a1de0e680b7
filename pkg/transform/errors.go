package transform

import "errors"

var (
	// ErrCh3SpecialMode is returned when channel 3 runs in special mode
	ErrCh3SpecialMode = errors.New("YM2612 FM3 special mode is not supported")
	// ErrCSMMode is returned when channel 3 runs in CSM mode
	ErrCSMMode = errors.New("YM2612 CSM mode is not supported")
)
