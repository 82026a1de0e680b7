package converter

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned for settings that fail Config.Validate
	ErrInvalidConfig = errors.New("invalid conversion settings")
	// ErrUnknownFormat is returned when a file type cannot be told
	ErrUnknownFormat = errors.New("unknown file format")
)

// UnknownFeatureError reports a CSV feature selector that has no columns
type UnknownFeatureError struct {
	Feature string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("unknown CSV feature %q", e.Feature)
}
