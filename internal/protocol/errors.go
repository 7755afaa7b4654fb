package protocol

import "github.com/pkg/errors"

// ErrInvalidMessage is returned when a tag byte falls outside its union's
// declared arity, or a sub-field is otherwise malformed in a way that isn't
// recoverable by requesting more input. Per spec.md section 7, this is a
// Protocol error: the offending connection is closed.
var ErrInvalidMessage = errors.New("invalid_message")

// ErrTrailingData is the error a caller should report when a Fixed mode
// buffer still has bytes left after a complete message has been decoded
// from it (spec.md section 4.2: a Fixed buffer must be fully consumed).
// Decode* does not return it itself, since a caller may want to keep
// decoding rather than stop at the first trailing byte; it is the
// sentinel those callers log against Buffer.Empty() returning false.
var ErrTrailingData = errors.New("trailing data after message")

// ErrStringTooLong is returned by the encoder when asked to encode a string
// longer than 255 bytes (the one-byte length prefix cannot represent it).
var ErrStringTooLong = errors.New("string exceeds 255 bytes")

// Underflow is the Incomplete-input error from spec.md section 4.2: a Fixed
// mode buffer didn't hold enough bytes for the field being decoded, and has
// no provider to ask for more. Missing is the number of additional bytes
// that would have been required.
type Underflow struct {
	Missing int
}

func (e *Underflow) Error() string {
	return errors.Errorf("buffer underflow: %d bytes missing", e.Missing).Error()
}

func newUnderflow(missing int) error {
	return &Underflow{Missing: missing}
}
