// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runloop

import "code.hybscloud.com/datarunloop/runloop/callback"

// completionFunc is bound at poll time and invoked once a pipeline's
// primary transfer (or, for the image pipeline, its process phase)
// finishes. It operates on the owning Runloop's state in place, the
// same way the source's transfer_cb_t is a plain function pointer
// taking the pipeline handle.
type completionFunc func(rl *Runloop) error

// bodyFunc is the HTTP pipeline's final completion callback: it
// receives the fully-received body (spec §4.7/§6).
type bodyFunc func(rl *Runloop, body []byte) error

// Recognized HTTP secondary tokens (spec §6).
const (
	CbCoreUpdaterDownload = "cb_core_updater_download"
	CbCoreUpdaterList     = "cb_core_updater_list"
)

// defaultHTTPBodyHandlers seeds the HTTP body-callback registry with
// the two named callbacks spec.md §4.7 and §6 call out. They are
// best-effort stubs (the core updater itself is an out-of-scope
// collaborator, spec §1) that just log what arrived; callers override
// either via WithHTTPBodyCallback before constructing the Runloop.
func defaultHTTPBodyHandlers() map[string]bodyFunc {
	return map[string]bodyFunc{
		CbCoreUpdaterDownload: func(rl *Runloop, body []byte) error {
			rl.log.Info("core updater download complete", "bytes", len(body))
			return nil
		},
		CbCoreUpdaterList: func(rl *Runloop, body []byte) error {
			rl.log.Info("core updater list complete", "bytes", len(body))
			return nil
		},
	}
}

func newHTTPBodyRegistry(overrides map[string]bodyFunc) *callback.Registry[bodyFunc] {
	entries := defaultHTTPBodyHandlers()
	for name, fn := range overrides {
		entries[name] = fn
	}
	return callback.NewRegistry(entries)
}
