package handoff

import (
	"errors"

	"code.hybscloud.com/iox"
)

const Namespace = "handoff"

var (
	ErrInvalidConfig  = errors.New(Namespace + ": invalid configuration")
	ErrInvalidState   = errors.New(Namespace + ": invalid state")
	ErrAlreadyStarted = errors.New(Namespace + ": cannot register feeders or drainers after start")
	ErrNotStarted     = errors.New(Namespace + ": orchestrator has not been started")
	ErrQueueClosed    = errors.New(Namespace + ": queue is closed")
	ErrQueueDrained   = errors.New(Namespace + ": queue is closed and drained")
	ErrSourceFailed   = errors.New(Namespace + ": source failed")
	ErrSourcePanicked = errors.New(Namespace + ": source panicked")
)

// ErrWouldBlock is returned by TryPut on a full queue and by TryGet on an empty
// open queue. It is a control flow signal, not a failure.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would have blocked.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}
