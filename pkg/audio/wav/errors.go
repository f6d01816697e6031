package wav

import "errors"

var (
	// ErrIO marks a failure to create, write, seek or flush the output.
	// Every such failure is returned as an *IOError that unwraps to ErrIO
	// and to the underlying cause.
	ErrIO = errors.New("wav: i/o failure")

	// ErrClosed is returned by Write after Close. Using a closed Writer is a
	// caller bug; it is reported rather than silently ignored.
	ErrClosed = errors.New("wav: writer is closed")

	// ErrDataTooLarge indicates the data chunk would not fit the 32-bit
	// size fields of the header.
	ErrDataTooLarge = errors.New("wav: data exceeds 4GiB container limit")

	// ErrInvalidFormat is returned for a Format that cannot be encoded.
	ErrInvalidFormat = errors.New("wav: invalid format")
)

// IOError wraps an underlying I/O error with the operation that failed.
type IOError struct {
	Op   string // "open", "write" or "close"
	Path string // empty when writing to a caller supplied sink
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return "wav: " + e.Op + " " + e.Path + ": " + e.Err.Error()
	}
	return "wav: " + e.Op + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

// IsIOError checks if an error came from the underlying file or sink.
func IsIOError(err error) bool {
	return errors.Is(err, ErrIO)
}
