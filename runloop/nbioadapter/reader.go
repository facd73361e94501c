// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package nbioadapter is the NBIO reader adapter (spec §4.2). It wraps
// a file reader behind a narrow, non-blocking-shaped interface: the
// raw syscall-level non-blocking reader is out of scope (spec §1
// Non-goals), so the default implementation here advances a real
// *os.File in bounded chunks per Iterate call, which is enough to
// drive the NBIO pipeline's state machine and exercise every
// transition spec §4.5 names.
package nbioadapter

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// defaultChunkSize bounds how many bytes one Iterate call reads. The
// NBIO pipeline additionally bounds how many Iterate calls happen per
// tick (pos_increment, default 5); this bounds the work of a single
// call within that budget.
const defaultChunkSize = 4096

// Reader is the narrow contract the NBIO pipeline drives. Iterate
// returns done=true on end-of-stream or error without distinguishing
// the two (spec §9 Open Question: the source fuses success-end and
// mid-stream error into the same "done" transition; this adapter
// preserves that fusion — callers inspect err to tell them apart when
// they care to).
type Reader interface {
	// BeginRead arms the reader. Iterate before BeginRead returns an error.
	BeginRead() error
	// Iterate advances the read by at most one chunk.
	Iterate() (done bool, err error)
	// Bytes borrows the accumulated buffer. ok is false until Iterate
	// has reported done.
	Bytes() ([]byte, bool)
	// Close releases the underlying handle.
	Close() error
}

// Opener opens a Reader for a path.
type Opener interface {
	Open(path string) (Reader, error)
}

// FileOpener is the default Opener, backed by os.Open.
type FileOpener struct {
	// ChunkSize overrides defaultChunkSize when positive.
	ChunkSize int
}

func (o FileOpener) Open(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	chunk := o.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	return &FileReader{f: f, chunk: chunk}, nil
}

// FileReader is the default Reader, backed by *os.File.
type FileReader struct {
	f     *os.File
	chunk int
	armed bool
	done  bool
	buf   bytes.Buffer
	tmp   []byte
}

func (r *FileReader) BeginRead() error {
	if r.f == nil {
		return errors.New("nbioadapter: reader already closed")
	}
	r.armed = true
	r.tmp = make([]byte, r.chunk)
	return nil
}

func (r *FileReader) Iterate() (done bool, err error) {
	if !r.armed {
		return true, errors.New("nbioadapter: iterate before begin_read")
	}
	if r.done {
		return true, nil
	}
	n, err := r.f.Read(r.tmp)
	if n > 0 {
		r.buf.Write(r.tmp[:n])
	}
	if err != nil {
		r.done = true
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		return true, err
	}
	return false, nil
}

func (r *FileReader) Bytes() ([]byte, bool) {
	if !r.done {
		return nil, false
	}
	return r.buf.Bytes(), true
}

func (r *FileReader) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
