package format

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned for an empty format document
	ErrEmptyInput = errors.New("format document is empty")
	// ErrMalformedXML is returned when the document cannot be decoded
	ErrMalformedXML = errors.New("format document is not well-formed XML")
)

// MissingSectionError reports a mandatory section that is absent or empty
type MissingSectionError struct {
	Name string
}

func (e *MissingSectionError) Error() string {
	return fmt.Sprintf("required XML tag %q is empty or missing", e.Name)
}

// IsMissingSection reports whether err is a MissingSectionError
func IsMissingSection(err error) bool {
	var target *MissingSectionError
	return errors.As(err, &target)
}
