package tek

import "errors"

var (
	// ErrOperationIncomplete is returned when *OPC? answers anything but 1
	ErrOperationIncomplete = errors.New("operation not complete, maybe the timeout is too short")
	// ErrUnknownAcqMode is returned for an ACQUIRE:MODE? answer that can not be classified
	ErrUnknownAcqMode = errors.New("unknown acquisition mode")
	// ErrWindowOutOfRange is returned when the displayed points do not fit the acquired record
	ErrWindowOutOfRange = errors.New("capture window out of range")
	// ErrOddLength is returned when byte swapping a buffer of odd length
	ErrOddLength = errors.New("buffer length is odd")
)
