// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package callback implements the static name -> handler dispatch the
// runloop uses to resolve the secondary token of a Request
// ("cb_menu_wallpaper", "cb_core_updater_list", ...) to a concrete
// completion function. Per spec §9 ("Design Notes: Callback dispatch
// by string name"), this is a plain map populated once at
// construction — no reflection, no dynamic lookup by symbol name.
package callback

// Registry maps a callback name to a handler of type H. It is built
// once via NewRegistry and is read-only afterward; concurrent Lookup
// calls are safe.
type Registry[H any] struct {
	handlers map[string]H
}

// NewRegistry builds a Registry from a fixed set of name->handler
// entries, e.g.:
//
//	NewRegistry(map[string]H{"cb_core_updater_list": listHandler})
func NewRegistry[H any](entries map[string]H) *Registry[H] {
	r := &Registry[H]{handlers: make(map[string]H, len(entries))}
	for name, h := range entries {
		r.handlers[name] = h
	}
	return r
}

// Lookup returns the handler bound to name, or the zero value of H and
// false if name is unrecognized. Callers bind a default handler
// themselves on a miss; Registry never guesses.
func (r *Registry[H]) Lookup(name string) (h H, ok bool) {
	if name == "" {
		return h, false
	}
	h, ok = r.handlers[name]
	return h, ok
}
