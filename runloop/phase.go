// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runloop

// nbioPhase and imagePhase replace the source's dual boolean flags
// (is_blocking, is_finished, is_blocking_on_processing,
// is_finished_with_processing) with a single tagged state per pipeline
// (see spec §9, Design Note: "Dual-flag state -> explicit enums").

// nbioPhase is the NBIO sub-state: Idle -> Iter -> Drained, with a
// fourth state, Holding, reached only via the image-install callback.
// Holding is_blocking=false/is_finished=true in the source: the handle
// is deliberately never parse-freed while the image decoder still
// borrows its buffer (see DESIGN.md — Invariant 2 / Ownership Graph).
type nbioPhase uint8

const (
	nbioIdle nbioPhase = iota
	nbioIter
	nbioDrained
	nbioHolding
)

// isBlocking mirrors the source's nbio->is_blocking.
func (p nbioPhase) isBlocking() bool { return p == nbioDrained }

// isFinished mirrors the source's nbio->is_finished.
func (p nbioPhase) isFinished() bool { return p == nbioDrained || p == nbioHolding }

// imagePhase is the image sub-state: Idle -> ParseIter -> ProcessIter
// -> Uploaded. The "parse done" transition (checking IHDR/IDAT/IEND,
// arming the process phase) happens synchronously inside one tick and
// is not itself a stored state.
type imagePhase uint8

const (
	imageIdle imagePhase = iota
	imageParseIter
	imageProcessIter
	imageUploaded
)

// isBlocking mirrors image.is_blocking.
func (p imagePhase) isBlocking() bool { return p == imageUploaded }

// isFinished mirrors image.is_finished.
func (p imagePhase) isFinished() bool { return p == imageUploaded }

// isBlockingOnProcessing mirrors image.is_blocking_on_processing.
// Mutually exclusive with isBlocking (spec invariant: image state
// never has both set).
func (p imagePhase) isBlockingOnProcessing() bool { return p == imageProcessIter }

// isFinishedWithProcessing mirrors image.is_finished_with_processing.
func (p imagePhase) isFinishedWithProcessing() bool { return p == imageUploaded }
