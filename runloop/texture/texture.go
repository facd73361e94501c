// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package texture defines the UI-facing value the image pipeline
// produces and the narrow contract a frontend implements to consume
// it (spec §6: "The UI collaborator exposes load_background(texture)
// and texture_free(texture)").
package texture

// Texture is a decoded raster image handed from the image pipeline to
// the frontend. Pixels are packed ARGB, width*height*4 bytes.
type Texture struct {
	Pixels []byte
	Width  int
	Height int
}

// Empty reports whether t carries no pixel data.
func (t Texture) Empty() bool { return len(t.Pixels) == 0 }

// Uploader is the frontend collaborator that receives finished
// textures. Free is called exactly once per texture regardless of
// whether LoadBackground succeeded, so the frontend can release any
// GPU-side resources it allocated from Pixels.
type Uploader interface {
	LoadBackground(t Texture)
	Free(t Texture)
}

// NopUploader discards every texture. Useful as a default when no
// frontend is wired (e.g. headless tests).
type NopUploader struct{}

func (NopUploader) LoadBackground(Texture) {}
func (NopUploader) Free(Texture)           {}
