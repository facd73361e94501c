// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runloop

import (
	"testing"

	"code.hybscloud.com/datarunloop/runloop/pngadapter"
)

func TestBoundedIncrementFloorsAtOne(t *testing.T) {
	cases := []struct{ n, want int }{
		{-1, 1}, {0, 1}, {1, 1}, {2, 2}, {100, 100},
	}
	for _, c := range cases {
		if got := boundedIncrement(c.n); got != c.want {
			t.Fatalf("boundedIncrement(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

// TestImageProcessFailureFreesWithoutUploading exercises Scenario 3:
// the process phase's first real step (the second overall Process
// call) fails, cbImageUpload must still run, call Free, and must not
// call LoadBackground.
func TestImageProcessFailureFreesWithoutUploading(t *testing.T) {
	reader := &scriptedReader{data: []byte("png-bytes"), stepsLeft: 1}
	opener := &scriptedOpener{readers: map[string]*scriptedReader{"wall.png": reader}}

	decoder := &scriptedDecoder{
		chunkStepsLeft: 1, hasIHDR: true, hasIDAT: true, hasIEND: true,
		processStepsLeft: 2, processResult: pngadapter.ProcessErrorEnd,
	}
	uploader := &fakeUploader{}

	rl := New(
		WithNbioOpener(opener),
		WithPNGDecoderFactory(func() pngadapter.Decoder { return decoder }),
		WithUploader(uploader),
	)
	rl.Push(KindImage, "wall.png", "", 0, 0, false)

	rl.Iterate() // image.poll
	rl.Iterate() // nbio.poll
	rl.Iterate() // nbio done -> install -> holding; parse-done arms processing
	rl.Iterate() // process phase fails -> cbImageUpload aborts the upload

	if len(uploader.loaded) != 0 {
		t.Fatalf("LoadBackground called after a process-phase failure")
	}
	if len(uploader.freed) != 1 {
		t.Fatalf("Free called %d times, want exactly 1", len(uploader.freed))
	}
	if rl.nbio.image.phase != imageUploaded {
		t.Fatalf("image phase = %v, want imageUploaded", rl.nbio.image.phase)
	}
	if rl.nbio.phase != nbioDrained {
		t.Fatalf("nbio phase = %v, want nbioDrained even when the upload itself failed", rl.nbio.phase)
	}
}

func TestImagePollClearsAndRoutesThroughNbioQueue(t *testing.T) {
	m := newImageState()
	n := newNbioState()
	n.queue.Push("stale-request", 0, 0)
	m.queue.Push("pic.png", 0, 0)

	rl := &Runloop{nbio: n, log: nopLoggerForTest{}}
	rl.nbio.image = m
	rl.nbio.image.poll(rl)

	if rl.nbio.queue.Len() != 1 {
		t.Fatalf("nbio queue len = %d, want exactly 1 (stale entry cleared, new one pushed)", rl.nbio.queue.Len())
	}
	raw, ok := rl.nbio.queue.Pull()
	if !ok {
		t.Fatalf("expected a routed request on the nbio queue")
	}
	req, ok := parseRequest(raw)
	if !ok || req.Primary != "pic.png" || req.Secondary != cbMenuWallpaper {
		t.Fatalf("routed request = %+v, ok=%v, want primary=pic.png secondary=%s", req, ok, cbMenuWallpaper)
	}
}

type nopLoggerForTest struct{}

func (nopLoggerForTest) Debug(string, ...any) {}
func (nopLoggerForTest) Info(string, ...any)  {}
func (nopLoggerForTest) Error(string, ...any) {}
