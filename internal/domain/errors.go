package domain

import "errors"

// Watch session errors
var (
	// ErrPreconditionFailed indicates the session cannot start (missing watch
	// directory, converter not installed).
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrPluginMissing indicates the converter ran but the ink/stitch
	// extension is absent or did not recognise the input format.
	ErrPluginMissing = errors.New("converter extension missing")

	// ErrConversionFailed indicates the converter process exited with an error
	ErrConversionFailed = errors.New("conversion failed")

	// ErrCopyFailed indicates the design could not be copied to its destination
	ErrCopyFailed = errors.New("copy failed")

	// ErrDeviceError indicates USB enumeration or unmount failed
	ErrDeviceError = errors.New("device error")
)

// ErrorKind classifies a failure for reporting.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindPreconditionFailed
	KindPluginMissing
	KindConversionFailed
	KindCopyFailed
	KindDeviceError
	KindUnknown
)

// String returns the short human-readable classification.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPreconditionFailed:
		return "precondition failed"
	case KindPluginMissing:
		return "plugin missing"
	case KindConversionFailed:
		return "conversion failed"
	case KindCopyFailed:
		return "copy failed"
	case KindDeviceError:
		return "device error"
	default:
		return "error"
	}
}

// KindOf maps an error onto its ErrorKind by walking the wrap chain.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrPreconditionFailed):
		return KindPreconditionFailed
	case errors.Is(err, ErrPluginMissing):
		return KindPluginMissing
	case errors.Is(err, ErrConversionFailed):
		return KindConversionFailed
	case errors.Is(err, ErrCopyFailed):
		return KindCopyFailed
	case errors.Is(err, ErrDeviceError):
		return KindDeviceError
	default:
		return KindUnknown
	}
}
