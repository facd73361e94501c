// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runloop

import (
	"errors"

	"code.hybscloud.com/datarunloop/runloop/httpadapter"
	"code.hybscloud.com/datarunloop/runloop/nbioadapter"
	"code.hybscloud.com/datarunloop/runloop/pngadapter"
	"code.hybscloud.com/datarunloop/runloop/texture"
)

// scriptedReader is a minimal nbioadapter.Reader driven by a fixed
// step count before reporting done, mirroring framer_test.go's
// scriptedReader in spirit: scripted progress instead of real I/O.
type scriptedReader struct {
	data      []byte
	stepsLeft int
	armed     bool
	done      bool
	closed    bool
	iterErr   error
}

func (r *scriptedReader) BeginRead() error {
	r.armed = true
	return nil
}

func (r *scriptedReader) Iterate() (bool, error) {
	if !r.armed {
		return true, errors.New("fake: iterate before begin_read")
	}
	if r.done {
		return true, nil
	}
	if r.stepsLeft > 0 {
		r.stepsLeft--
	}
	if r.stepsLeft == 0 {
		r.done = true
		return true, r.iterErr
	}
	return false, nil
}

func (r *scriptedReader) Bytes() ([]byte, bool) {
	if !r.done {
		return nil, false
	}
	return r.data, true
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

// scriptedOpener hands out a fixed reader per path, or an error for
// paths listed in failOn.
type scriptedOpener struct {
	readers map[string]*scriptedReader
	failOn  map[string]error
}

func (o *scriptedOpener) Open(path string) (nbioadapter.Reader, error) {
	if err, ok := o.failOn[path]; ok {
		return nil, err
	}
	r, ok := o.readers[path]
	if !ok {
		return nil, errors.New("fake: no scripted reader for " + path)
	}
	return r, nil
}

// scriptedDecoder is a minimal pngadapter.Decoder with scripted
// chunk-walk and process-phase step counts.
type scriptedDecoder struct {
	started          bool
	chunkStepsLeft   int
	hasIHDR, hasIDAT, hasIEND bool
	processStepsLeft int
	processResult    pngadapter.ProcessResult
	pixels           []byte
	width, height    int
}

func (d *scriptedDecoder) Start(buf []byte) error {
	d.started = true
	return nil
}

func (d *scriptedDecoder) Iterate() (bool, error) {
	if d.chunkStepsLeft > 0 {
		d.chunkStepsLeft--
	}
	if d.chunkStepsLeft == 0 {
		return true, nil
	}
	return false, nil
}

func (d *scriptedDecoder) HasIHDR() bool { return d.hasIHDR }
func (d *scriptedDecoder) HasIDAT() bool { return d.hasIDAT }
func (d *scriptedDecoder) HasIEND() bool { return d.hasIEND }

func (d *scriptedDecoder) Process() ([]byte, int, int, pngadapter.ProcessResult) {
	if d.processStepsLeft > 0 {
		d.processStepsLeft--
	}
	if d.processStepsLeft == 0 {
		if d.processResult == pngadapter.ProcessEnd {
			return d.pixels, d.width, d.height, d.processResult
		}
		return nil, 0, 0, d.processResult
	}
	return nil, 0, 0, pngadapter.ProcessNext
}

// fakeUploader records every LoadBackground/Free call.
type fakeUploader struct {
	loaded []texture.Texture
	freed  []texture.Texture
}

func (u *fakeUploader) LoadBackground(t texture.Texture) { u.loaded = append(u.loaded, t) }
func (u *fakeUploader) Free(t texture.Texture)           { u.freed = append(u.freed, t) }

// fakeConnection and fakeTransfer back a scriptedTransport.
type fakeConnection struct {
	stepsLeft int
	done      bool
	closed    bool
	err       error
}

func (c *fakeConnection) Iterate() (bool, error) {
	if c.done {
		return true, nil
	}
	if c.stepsLeft > 0 {
		c.stepsLeft--
	}
	if c.stepsLeft == 0 {
		c.done = true
		return true, c.err
	}
	return false, nil
}
func (c *fakeConnection) Done() bool   { return c.done }
func (c *fakeConnection) Close() error { c.closed = true; return nil }

type fakeTransfer struct {
	stepsLeft int
	done      bool
	closed    bool
	body      []byte
}

func (t *fakeTransfer) Update() (int64, int64, bool, error) {
	if t.done {
		return int64(len(t.body)), int64(len(t.body)), true, nil
	}
	if t.stepsLeft > 0 {
		t.stepsLeft--
	}
	if t.stepsLeft == 0 {
		t.done = true
		return int64(len(t.body)), int64(len(t.body)), true, nil
	}
	return 0, int64(len(t.body)), false, nil
}

func (t *fakeTransfer) Data(acceptIncomplete bool) ([]byte, int, bool) {
	if !t.done && !acceptIncomplete {
		return nil, 0, false
	}
	return t.body, len(t.body), true
}

func (t *fakeTransfer) Close() error { t.closed = true; return nil }

type scriptedTransport struct {
	conn      *fakeConnection
	xfer      *fakeTransfer
	connErr   error
	xferErr   error
	gotURL    string
}

func (s *scriptedTransport) NewConnection(url string) (httpadapter.Connection, error) {
	s.gotURL = url
	if s.connErr != nil {
		return nil, s.connErr
	}
	return s.conn, nil
}

func (s *scriptedTransport) NewTransfer(httpadapter.Connection) (httpadapter.Transfer, error) {
	if s.xferErr != nil {
		return nil, s.xferErr
	}
	return s.xfer, nil
}
