// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runloop

import (
	"code.hybscloud.com/datarunloop/runloop/pngadapter"
	"code.hybscloud.com/datarunloop/runloop/texture"
)

// imageState is C6's state (spec §3: ImageState).
type imageState struct {
	phase   imagePhase
	decoder pngadapter.Decoder
	cb      completionFunc
	texture texture.Texture

	posIncrement           int
	processingPosIncrement int
	frameCount             uint64
	processingFrameCount   uint64
	processingFinalState   pngadapter.ProcessResult

	queue *Queue
}

func newImageState() imageState {
	return imageState{phase: imageIdle, queue: NewQueue(defaultQueueCapacity)}
}

func (m *imageState) isBlocking() bool             { return m.phase.isBlocking() }
func (m *imageState) isFinished() bool             { return m.phase.isFinished() }
func (m *imageState) isBlockingOnProcessing() bool { return m.phase.isBlockingOnProcessing() }

// tick runs one image step (spec §4.6).
func (rl *Runloop) tickImage() {
	m := &rl.nbio.image
	switch {
	case m.decoder == nil:
		m.poll(rl)
	case m.isBlockingOnProcessing():
		m.iterateProcessAndParse(rl)
	case !m.isBlocking():
		m.iterateAndParse(rl)
	case m.isFinished():
		m.parseFree()
	}
}

// poll routes a queued image path through NBIO first: per spec §4.5,
// an image Request is always materialized by reading the file via
// NBIO, then handing its byte pointer to the decoder. The decoder is
// never installed directly from a message pulled off the image queue.
func (m *imageState) poll(rl *Runloop) {
	raw, ok := m.queue.Pull()
	if !ok {
		return
	}
	req, ok := parseRequest(raw)
	if !ok {
		rl.logf(ErrBadRequest, "image", nil, "dropping malformed request %q", raw)
		return
	}
	rl.nbio.queue.Clear()
	rl.nbio.queue.Push(encodeRequest(req.Primary, cbMenuWallpaper), 0, 0)
}

// install is called by cbNbioImageInstall once NBIO has finished
// reading the file. buf is a non-owning borrow of the NBIO reader's
// buffer (spec Ownership Graph): it must stay valid until parseFree.
func (m *imageState) install(rl *Runloop, buf []byte) error {
	dec := rl.pngDecoderFactory()
	if err := dec.Start(buf); err != nil {
		rl.logf(ErrOpenFailed, "image", err, "could not start png decoder")
		return err
	}

	m.decoder = dec
	m.cb = cbImageParseDone
	m.posIncrement = boundedIncrement(len(buf) / 2)
	m.processingPosIncrement = boundedIncrement(len(buf) / 4)
	m.phase = imageParseIter
	return nil
}

// boundedIncrement floors a computed step count at 1 (spec §5/§8:
// pos_increment = 1 when len < 2; processing_pos_increment = 1 when len < 4).
func boundedIncrement(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// iterateAndParse walks PNG chunk framing up to posIncrement chunks
// per tick (spec §4.3/§4.6).
func (m *imageState) iterateAndParse(rl *Runloop) {
	done := false
	var err error
	for i := 0; i < m.posIncrement; i++ {
		done, err = m.decoder.Iterate()
		if done {
			break
		}
	}
	if !done {
		m.frameCount++
		return
	}
	if err != nil {
		rl.logf(ErrTransferError, "image", err, "png chunk walk ended with error")
	}
	m.parse(rl)
}

// parse is the parse-phase-done transition (spec §4.6): checks
// IHDR/IDAT/IEND presence, runs Process once, and either arms the
// process phase or aborts without uploading.
func (m *imageState) parse(rl *Runloop) {
	if m.cb != nil {
		if err := m.cb(rl); err != nil {
			rl.logf(ErrDecodeError, "image", err, "image parse callback failed")
		}
	}
	rl.log.Info("image transfer complete", "frames", m.frameCount)
}

// cbImageParseDone is bound as m.cb while the chunk walk is running; it
// fires once iterateAndParse sees done=true.
func cbImageParseDone(rl *Runloop) error {
	m := &rl.nbio.image

	if !m.decoder.HasIHDR() || !m.decoder.HasIDAT() || !m.decoder.HasIEND() {
		// Boundary behavior (spec §8): abort without calling the
		// upload cb. There is nothing further to retry against this
		// buffer, so fall through directly to teardown rather than
		// spin on the same incomplete framing forever.
		m.phase = imageUploaded
		rl.nbio.phase = nbioDrained
		return errPngIncompleteFraming
	}

	_, _, _, result := m.decoder.Process()
	if result == pngadapter.ProcessError || result == pngadapter.ProcessErrorEnd {
		m.processingFinalState = result
		m.phase = imageUploaded
		rl.nbio.phase = nbioDrained
		return errPngDecodeFailed
	}

	m.cb = cbImageUpload
	m.phase = imageProcessIter
	return nil
}

// iterateProcessAndParse runs the process phase up to
// processingPosIncrement steps per tick (spec §4.6).
func (m *imageState) iterateProcessAndParse(rl *Runloop) {
	result := pngadapter.ProcessNext
	var pixels []byte
	var width, height int
	for i := 0; i < m.processingPosIncrement; i++ {
		pixels, width, height, result = m.decoder.Process()
		if result != pngadapter.ProcessNext {
			break
		}
	}
	m.processingFrameCount++
	if result == pngadapter.ProcessNext {
		return
	}

	m.processingFinalState = result
	if result == pngadapter.ProcessEnd {
		m.texture = texture.Texture{Pixels: pixels, Width: width, Height: height}
	}
	m.processParse(rl)
}

func (m *imageState) processParse(rl *Runloop) {
	if m.cb != nil {
		if err := m.cb(rl); err != nil {
			rl.logf(ErrDecodeError, "image", err, "image process callback failed")
		}
	}
	rl.log.Info("image transfer processing complete", "frames", m.processingFrameCount)
}

// cbImageUpload is the upload-to-UI callback bound once the process
// phase is armed. It tears the image state down either way: on
// success it hands the texture to the frontend, on error it only
// frees it (spec Scenario 3).
func cbImageUpload(rl *Runloop) error {
	n := &rl.nbio
	m := &n.image

	failed := m.processingFinalState == pngadapter.ProcessError || m.processingFinalState == pngadapter.ProcessErrorEnd
	if !failed {
		rl.uploader.LoadBackground(m.texture)
	}
	rl.uploader.Free(m.texture)

	m.phase = imageUploaded
	n.phase = nbioDrained

	if failed {
		return errPngDecodeFailed
	}
	return nil
}

// parseFree releases the decoder and resets the image state (spec
// §4.6: parse_free()).
func (m *imageState) parseFree() {
	m.decoder = nil
	m.cb = nil
	m.texture = texture.Texture{}
	m.frameCount = 0
	m.processingFrameCount = 0
	m.phase = imageIdle
	m.queue.Clear()
}
