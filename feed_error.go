package handoff

import (
	"errors"
	"fmt"
)

// FeedError reports a feeder that stopped because its source failed.
// It unwraps to both ErrSourceFailed (or ErrSourcePanicked) and the source's own error.
type FeedError struct {
	Feeder   string
	Produced int
	kind     error
	err      error
}

func newFeedError(kind, err error, feeder string, produced int) *FeedError {
	return &FeedError{Feeder: feeder, Produced: produced, kind: kind, err: err}
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("%v: feeder %q after %d items: %v", e.kind, e.Feeder, e.Produced, e.err)
}

func (e *FeedError) Unwrap() []error { return []error{e.kind, e.err} }

func (e *FeedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "feeder(name=%s,produced=%d): %v: %+v", e.Feeder, e.Produced, e.kind, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractProduced returns the number of items a failed feeder delivered before stopping.
func ExtractProduced(err error) (int, bool) {
	var fe *FeedError
	if errors.As(err, &fe) {
		return fe.Produced, true
	}
	return 0, false
}

// ExtractFeeder returns the name of the failed feeder.
func ExtractFeeder(err error) (string, bool) {
	var fe *FeedError
	if errors.As(err, &fe) {
		return fe.Feeder, true
	}
	return "", false
}
