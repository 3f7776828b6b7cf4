package domain

import "fmt"

// OutcomeKind tags the variant held by an Outcome.
type OutcomeKind int

const (
	OutcomeSkipped OutcomeKind = iota
	OutcomeCopied
	OutcomeConverted
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCopied:
		return "copied"
	case OutcomeConverted:
		return "converted"
	case OutcomeFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Skip reasons
const (
	ReasonNoExtension       = "no extension"
	ReasonNoDestination     = "no destination"
	ReasonUnsupportedFormat = "unsupported format"
	ReasonStopped           = "stop requested"
)

// Outcome is the result of dispatching one detected file.
type Outcome struct {
	Kind OutcomeKind

	// Path is the destination for Copied and the converter output for Converted.
	Path string

	// Reason explains a Skipped outcome.
	Reason string

	// ErrKind and Err describe a Failed outcome.
	ErrKind ErrorKind
	Err     error
}

// Copied reports a design placed on the destination volume.
func Copied(dest string) Outcome {
	return Outcome{Kind: OutcomeCopied, Path: dest}
}

// Converted reports a design converted but not copied anywhere.
func Converted(output string) Outcome {
	return Outcome{Kind: OutcomeConverted, Path: output}
}

// Skipped reports a file deliberately left alone.
func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

// Failed reports a conversion or copy failure.
func Failed(kind ErrorKind, err error) Outcome {
	return Outcome{Kind: OutcomeFailed, ErrKind: kind, Err: err}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeCopied, OutcomeConverted:
		return fmt.Sprintf("%s(%s)", o.Kind, o.Path)
	case OutcomeFailed:
		return fmt.Sprintf("failed(%s: %v)", o.ErrKind, o.Err)
	default:
		return fmt.Sprintf("skipped(%s)", o.Reason)
	}
}
