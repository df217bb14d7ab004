package srla

import (
	"fmt"

	"github.com/mewkiz/pkg/errutil"
	"github.com/pkg/errors"
)

// ErrorKind classifies a codec-level failure, per spec.md §7. It lets
// callers distinguish "this stream is malformed" from "you called the API
// wrong" without string-matching error messages.
type ErrorKind int

const (
	// Unclassified covers failures with no more specific kind, mirroring
	// the original's generic NG tag.
	Unclassified ErrorKind = iota
	// InvalidArgument is returned for caller misuse: bad parameters passed
	// to a constructor or encode/decode call.
	InvalidArgument
	// InvalidFormat is returned for a malformed stream: bad magic,
	// unsupported format/codec version, out-of-range header field.
	InvalidFormat
	// InsufficientBuffer is returned when a caller-supplied output buffer
	// is too small for the data being produced.
	InsufficientBuffer
	// InsufficientData is returned when the input ends before a complete
	// header or block could be parsed.
	InsufficientData
	// ParameterNotSet is returned when an operation needs a parameter
	// (encoder not yet configured with a FileHeader, for example) that
	// hasn't been set.
	ParameterNotSet
	// DataCorruption is returned when a block's checksum fails to verify.
	DataCorruption
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case InvalidFormat:
		return "invalid format"
	case InsufficientBuffer:
		return "insufficient buffer"
	case InsufficientData:
		return "insufficient data"
	case ParameterNotSet:
		return "parameter not set"
	case DataCorruption:
		return "data corruption"
	default:
		return "unclassified"
	}
}

// Error is the error type returned by every exported operation in this
// package; Kind lets a caller branch on failure class without parsing text.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("srla: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, text string) error {
	return &Error{Kind: kind, Err: errutil.New(text)}
}

func newErrorf(kind ErrorKind, format string, a ...interface{}) error {
	return &Error{Kind: kind, Err: errutil.Newf(format, a...)}
}

// wrapError tags an error surfaced by an internal package with kind, adding
// a stack-trace-carrying context frame via github.com/pkg/errors so the
// original cause (available through errors.Cause) survives the crossing
// into the public API.
func wrapError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: errors.Wrap(err, kind.String())}
}
