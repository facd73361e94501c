// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runloop

import (
	"code.hybscloud.com/datarunloop/runloop/httpadapter"
	"code.hybscloud.com/datarunloop/runloop/nbioadapter"
	"code.hybscloud.com/datarunloop/runloop/pngadapter"
	"code.hybscloud.com/datarunloop/runloop/rlog"
	"code.hybscloud.com/datarunloop/runloop/texture"
)

// Config configures a Runloop, mirroring framer's functional-option
// style (Options struct + Option func(*Options) + With* constructors).
type Config struct {
	Threaded bool

	NbioOpener        nbioadapter.Opener
	PNGDecoderFactory func() pngadapter.Decoder
	HTTPTransport     httpadapter.Transport
	Uploader          texture.Uploader
	Logger            rlog.Logger

	httpBodyOverrides map[string]bodyFunc
}

var defaultConfig = Config{
	Threaded:          false,
	NbioOpener:        nbioadapter.FileOpener{},
	PNGDecoderFactory: func() pngadapter.Decoder { return pngadapter.NewChunkDecoder() },
	HTTPTransport:     httpadapter.ClientTransport{},
	Uploader:          texture.NopUploader{},
	Logger:            rlog.Noop{},
}

// Option configures a Runloop at construction time.
type Option func(*Config)

// WithThreadedDataRunloop runs the runloop's tick loop on a dedicated
// goroutine, woken by a sync.Cond, rather than driven by repeated
// caller Iterate calls (spec §5: "threaded" execution mode).
func WithThreadedDataRunloop() Option {
	return func(c *Config) { c.Threaded = true }
}

// WithNbioOpener overrides how NBIO Requests are opened. Default opens
// plain OS files in fixed-size chunks.
func WithNbioOpener(o nbioadapter.Opener) Option {
	return func(c *Config) { c.NbioOpener = o }
}

// WithPNGDecoderFactory overrides how a new decoder is allocated per
// image install. Default wraps image/png behind ChunkDecoder.
func WithPNGDecoderFactory(f func() pngadapter.Decoder) Option {
	return func(c *Config) { c.PNGDecoderFactory = f }
}

// WithHTTPTransport overrides how HTTP Requests are connected and
// transferred. Default wraps *http.Client.
func WithHTTPTransport(t httpadapter.Transport) Option {
	return func(c *Config) { c.HTTPTransport = t }
}

// WithUploader overrides where a finished image texture is delivered.
// Default discards it.
func WithUploader(u texture.Uploader) Option {
	return func(c *Config) { c.Uploader = u }
}

// WithLogger overrides the runloop's logger. Default discards
// everything; pass rlog.New(...) for a *slog.Logger-backed one.
func WithLogger(l rlog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithHTTPBodyCallback registers or replaces an HTTP secondary-token
// handler (spec §6). Unknown tokens on an inbound Request are not an
// error; the transfer still completes, it just has no final callback.
func WithHTTPBodyCallback(name string, fn bodyFunc) Option {
	return func(c *Config) {
		if c.httpBodyOverrides == nil {
			c.httpBodyOverrides = make(map[string]bodyFunc)
		}
		c.httpBodyOverrides[name] = fn
	}
}
