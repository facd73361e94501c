// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pngadapter is the PNG streaming decoder adapter (spec §4.3).
// It exposes the two-phase contract the image pipeline drives: a parse
// phase that walks chunk framing to learn whether IHDR/IDAT/IEND have
// all been seen, and a process phase that turns the accumulated bytes
// into a pixel raster. The chunk CRC/zlib/filter machinery — the PNG
// codec's actual internals — is explicitly out of scope (spec §1); the
// process phase delegates to the standard library's image/png decoder,
// which is the only PNG decoder used anywhere in the retrieved example
// pack (see DESIGN.md).
package pngadapter

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/png"
	"io"
)

// ProcessResult is the outcome of one Process call.
type ProcessResult uint8

const (
	// ProcessNext: more work remains; call Process again.
	ProcessNext ProcessResult = iota
	// ProcessEnd: processing finished; pixels/width/height are valid.
	ProcessEnd
	// ProcessError: processing failed.
	ProcessError
	// ProcessErrorEnd: processing failed at the final step.
	ProcessErrorEnd
)

var pngSignature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Decoder is the narrow contract the image pipeline drives.
type Decoder interface {
	// Start arms the decoder over buf, a non-owning borrow of the
	// NBIO reader's buffer. buf must stay valid for as long as the
	// decoder is in use.
	Start(buf []byte) error
	// Iterate advances the chunk walk by exactly one chunk, in the
	// spec's stride of 4 (length) + 4 (type) + chunk data + 4 (crc).
	Iterate() (done bool, err error)
	HasIHDR() bool
	HasIDAT() bool
	HasIEND() bool
	// Process advances the pixel-production phase by one step.
	Process() (pixels []byte, width, height int, result ProcessResult)
}

// NewChunkDecoder returns a fresh, unstarted ChunkDecoder.
func NewChunkDecoder() *ChunkDecoder { return &ChunkDecoder{} }

// ChunkDecoder is the default Decoder.
type ChunkDecoder struct {
	buf     []byte
	offset  int
	started bool

	hasIHDR, hasIDAT, hasIEND bool

	primed  bool
	decoded bool
}

func (d *ChunkDecoder) Start(buf []byte) error {
	if len(buf) < len(pngSignature) {
		return errors.New("pngadapter: buffer too short for signature")
	}
	if !bytes.Equal(buf[:len(pngSignature)], pngSignature[:]) {
		return errors.New("pngadapter: bad PNG signature")
	}
	d.buf = buf
	d.offset = len(pngSignature)
	d.started = true
	return nil
}

// chunkHeaderLen is length(4) + type(4); chunkCRCLen is crc(4).
const chunkHeaderLen = 8
const chunkCRCLen = 4

func (d *ChunkDecoder) Iterate() (done bool, err error) {
	if !d.started {
		return true, errors.New("pngadapter: iterate before start")
	}
	if d.hasIEND {
		return true, nil
	}
	if d.offset+chunkHeaderLen > len(d.buf) {
		return true, io.ErrUnexpectedEOF
	}
	length := binary.BigEndian.Uint32(d.buf[d.offset : d.offset+4])
	typ := string(d.buf[d.offset+4 : d.offset+chunkHeaderLen])
	stride := chunkHeaderLen + int(length) + chunkCRCLen
	if d.offset+stride > len(d.buf) {
		return true, io.ErrUnexpectedEOF
	}

	switch typ {
	case "IHDR":
		d.hasIHDR = true
	case "IDAT":
		d.hasIDAT = true
	case "IEND":
		d.hasIEND = true
	}
	d.offset += stride

	return d.hasIEND, nil
}

func (d *ChunkDecoder) HasIHDR() bool { return d.hasIHDR }
func (d *ChunkDecoder) HasIDAT() bool { return d.hasIDAT }
func (d *ChunkDecoder) HasIEND() bool { return d.hasIEND }

// Process is modeled as two steps so the image pipeline's bounded
// processing_pos_increment loop (spec §4.6) has genuine NEXT progress
// to report before the (out-of-scope) codec work happens on the final
// step: the first call primes and reports ProcessNext, the second
// performs the actual decode.
func (d *ChunkDecoder) Process() (pixels []byte, width, height int, result ProcessResult) {
	if d.decoded {
		return nil, 0, 0, ProcessEnd
	}
	if !d.primed {
		d.primed = true
		return nil, 0, 0, ProcessNext
	}

	img, err := png.Decode(bytes.NewReader(d.buf))
	if err != nil {
		return nil, 0, 0, ProcessErrorEnd
	}
	d.decoded = true

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]byte, w*h*4)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			out[i+0] = byte(a >> 8)
			out[i+1] = byte(r >> 8)
			out[i+2] = byte(g >> 8)
			out[i+3] = byte(b >> 8)
			i += 4
		}
	}
	return out, w, h, ProcessEnd
}
