// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runloop

import (
	"errors"

	"code.hybscloud.com/iox"
)

// These are re-exported so callers can classify adapter errors without
// importing iox directly, the same way framer.ErrWouldBlock /
// framer.ErrMore alias the iox sentinels for its own callers.
var (
	// ErrWouldBlock means an adapter made no further progress this call.
	// The pipelines do not log it as a transfer error, but an adapter
	// that returns it together with done=true is still treated as
	// finished; an adapter asks for another step by reporting done=false.
	ErrWouldBlock = iox.ErrWouldBlock

	// ErrMore means the adapter produced a usable partial result and
	// more completions will follow on subsequent calls.
	ErrMore = iox.ErrMore
)

var (
	errPngIncompleteFraming = errors.New("runloop: png buffer missing ihdr/idat/iend at parse-done")
	errPngDecodeFailed      = errors.New("runloop: png process phase failed")
)

// ErrorKind classifies a PipelineError per the taxonomy in spec §7.
// ErrorKind values never escape Iterate; they exist for logging and
// introspection only.
type ErrorKind uint8

const (
	// ErrBadRequest: malformed "A|B" text, empty primary.
	ErrBadRequest ErrorKind = iota
	// ErrHandleBusy: poll attempted while a handle is already live.
	ErrHandleBusy
	// ErrOpenFailed: the file or connection could not be opened.
	ErrOpenFailed
	// ErrDecodeError: PNG process returned Error or ErrorEnd.
	ErrDecodeError
	// ErrTransferError: NBIO or HTTP iterate detected failure.
	ErrTransferError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrBadRequest:
		return "bad_request"
	case ErrHandleBusy:
		return "handle_busy"
	case ErrOpenFailed:
		return "open_failed"
	case ErrDecodeError:
		return "decode_error"
	case ErrTransferError:
		return "transfer_error"
	default:
		return "unknown"
	}
}

// PipelineError is a local, non-fatal error observed by one pipeline
// during one tick. The runloop never returns these from Iterate; they
// are only logged, and no Request is retried because of one.
type PipelineError struct {
	Kind     ErrorKind
	Pipeline string
	Err      error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return e.Pipeline + ": " + e.Kind.String()
	}
	return e.Pipeline + ": " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *PipelineError) Unwrap() error { return e.Err }
