// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runloop

// RunloopStats is a point-in-time snapshot of pipeline progress,
// supplementing the spec with simple introspection (SPEC_FULL.md
// §4.8): nothing in the original reads these back, but a caller
// embedding the runloop in a render loop benefits from being able to
// tell whether a pipeline is actually busy without reaching into
// unexported state.
type RunloopStats struct {
	Ticks uint64

	NbioBusy        bool
	NbioFrameCount  uint64
	ImageBusy       bool
	ImageFrameCount uint64
	HTTPBusy        bool
}

// Stats returns a snapshot of the runloop's current progress. Safe to
// call concurrently with Iterate/Push, including in threaded mode.
func (rl *Runloop) Stats() RunloopStats {
	rl.stateLock.Lock()
	defer rl.stateLock.Unlock()

	s := rl.stats
	s.NbioBusy = rl.nbio.reader != nil
	s.NbioFrameCount = rl.nbio.frameCount
	s.ImageBusy = rl.nbio.image.decoder != nil
	s.ImageFrameCount = rl.nbio.image.frameCount
	s.HTTPBusy = rl.http.connection != nil || rl.http.transfer != nil
	return s
}
